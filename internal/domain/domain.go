package domain

import (
	"github.com/yungbote/obe-achievement/internal/domain/outcomes"
)

const (
	ScopeCourseOutcome  = outcomes.ScopeCourseOutcome
	ScopeProgramOutcome = outcomes.ScopeProgramOutcome

	StatusPassed           = outcomes.StatusPassed
	StatusFailed           = outcomes.StatusFailed
	StatusInsufficientData = outcomes.StatusInsufficientData

	LevelCourseOutcome  = outcomes.LevelCourseOutcome
	LevelProgramOutcome = outcomes.LevelProgramOutcome
)

type CoursePlan = outcomes.CoursePlan
type CourseOutcome = outcomes.CourseOutcome
type ProgramOutcome = outcomes.ProgramOutcome
type ClassSection = outcomes.ClassSection
type Enrollment = outcomes.Enrollment

type AssessmentType = outcomes.AssessmentType
type WeightTemplate = outcomes.WeightTemplate
type Component = outcomes.Component
type ContributionLink = outcomes.ContributionLink
type Threshold = outcomes.Threshold
type ThresholdScope = outcomes.ThresholdScope

type RawScore = outcomes.RawScore

type CourseOutcomeAchievement = outcomes.CourseOutcomeAchievement
type ProgramOutcomeAchievement = outcomes.ProgramOutcomeAchievement
type AchievementStatus = outcomes.AchievementStatus
type AchievementLevel = outcomes.AchievementLevel
type AchievementEvent = outcomes.AchievementEvent

// AllModels lists every persisted entity in dependency order for migration.
func AllModels() []any {
	return []any{
		&CoursePlan{},
		&CourseOutcome{},
		&ProgramOutcome{},
		&ClassSection{},
		&Enrollment{},
		&AssessmentType{},
		&WeightTemplate{},
		&Component{},
		&ContributionLink{},
		&Threshold{},
		&RawScore{},
		&CourseOutcomeAchievement{},
		&ProgramOutcomeAchievement{},
	}
}
