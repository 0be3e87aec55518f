package outcomes

import (
	"time"

	"github.com/google/uuid"
)

type AchievementStatus string

const (
	StatusPassed           AchievementStatus = "passed"
	StatusFailed           AchievementStatus = "failed"
	StatusInsufficientData AchievementStatus = "insufficient_data"
)

func statusOf(computable, passed bool) AchievementStatus {
	switch {
	case !computable:
		return StatusInsufficientData
	case passed:
		return StatusPassed
	default:
		return StatusFailed
	}
}

// CourseOutcomeAchievement is engine-owned derived state. Exactly one row per
// (enrollment, course outcome); recomputation overwrites it. A row with
// Computable=false means no graded input was available, never "achieved 0%".
type CourseOutcomeAchievement struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	EnrollmentID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_co_achievement_enrollment_outcome,priority:1" json:"enrollment_id"`
	CourseOutcomeID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_co_achievement_enrollment_outcome,priority:2" json:"course_outcome_id"`
	Value           float64   `gorm:"column:value;not null;default:0" json:"value"`
	Passed          bool      `gorm:"column:passed;not null;default:false" json:"passed"`
	Computable      bool      `gorm:"column:computable;not null;default:false" json:"computable"`
	WeightBase      float64   `gorm:"column:weight_base;not null;default:0" json:"weight_base"`
	Threshold       float64   `gorm:"column:threshold;not null;default:0" json:"threshold"`
	InputHash       string    `gorm:"column:input_hash;not null;default:''" json:"input_hash"`
	CreatedAt       time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time `gorm:"not null" json:"updated_at"`
}

func (CourseOutcomeAchievement) TableName() string { return "course_outcome_achievement" }

func (a *CourseOutcomeAchievement) Status() AchievementStatus {
	return statusOf(a.Computable, a.Passed)
}

// ProgramOutcomeAchievement mirrors CourseOutcomeAchievement one level up.
type ProgramOutcomeAchievement struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	EnrollmentID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_plo_achievement_enrollment_outcome,priority:1" json:"enrollment_id"`
	ProgramOutcomeID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_plo_achievement_enrollment_outcome,priority:2" json:"program_outcome_id"`
	Value            float64   `gorm:"column:value;not null;default:0" json:"value"`
	Passed           bool      `gorm:"column:passed;not null;default:false" json:"passed"`
	Computable       bool      `gorm:"column:computable;not null;default:false" json:"computable"`
	WeightBase       float64   `gorm:"column:weight_base;not null;default:0" json:"weight_base"`
	Threshold        float64   `gorm:"column:threshold;not null;default:0" json:"threshold"`
	InputHash        string    `gorm:"column:input_hash;not null;default:''" json:"input_hash"`
	CreatedAt        time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time `gorm:"not null" json:"updated_at"`
}

func (ProgramOutcomeAchievement) TableName() string { return "program_outcome_achievement" }

func (a *ProgramOutcomeAchievement) Status() AchievementStatus {
	return statusOf(a.Computable, a.Passed)
}

// AchievementLevel distinguishes the two derived tables in events and results.
type AchievementLevel string

const (
	LevelCourseOutcome  AchievementLevel = "course_outcome"
	LevelProgramOutcome AchievementLevel = "program_outcome"
)

// AchievementEvent is published after a recompute commits a changed row.
type AchievementEvent struct {
	Level        AchievementLevel  `json:"level"`
	EnrollmentID uuid.UUID         `json:"enrollment_id"`
	OutcomeID    uuid.UUID         `json:"outcome_id"`
	Value        float64           `json:"value"`
	Passed       bool              `json:"passed"`
	Computable   bool              `json:"computable"`
	Status       AchievementStatus `json:"status"`
	At           time.Time         `json:"at"`
}
