package repos

import (
	"github.com/yungbote/obe-achievement/internal/data/repos/outcomes"
	"github.com/yungbote/obe-achievement/internal/platform/logger"
	"gorm.io/gorm"
)

type CoursePlanRepo = outcomes.CoursePlanRepo
type CourseOutcomeRepo = outcomes.CourseOutcomeRepo
type ProgramOutcomeRepo = outcomes.ProgramOutcomeRepo
type ClassSectionRepo = outcomes.ClassSectionRepo
type EnrollmentRepo = outcomes.EnrollmentRepo
type AssessmentTypeRepo = outcomes.AssessmentTypeRepo
type WeightTemplateRepo = outcomes.WeightTemplateRepo
type ComponentRepo = outcomes.ComponentRepo
type ContributionLinkRepo = outcomes.ContributionLinkRepo
type ThresholdRepo = outcomes.ThresholdRepo
type RawScoreRepo = outcomes.RawScoreRepo
type CourseOutcomeAchievementRepo = outcomes.CourseOutcomeAchievementRepo
type ProgramOutcomeAchievementRepo = outcomes.ProgramOutcomeAchievementRepo

func NewCoursePlanRepo(db *gorm.DB, baseLog *logger.Logger) CoursePlanRepo {
	return outcomes.NewCoursePlanRepo(db, baseLog)
}
func NewCourseOutcomeRepo(db *gorm.DB, baseLog *logger.Logger) CourseOutcomeRepo {
	return outcomes.NewCourseOutcomeRepo(db, baseLog)
}
func NewProgramOutcomeRepo(db *gorm.DB, baseLog *logger.Logger) ProgramOutcomeRepo {
	return outcomes.NewProgramOutcomeRepo(db, baseLog)
}
func NewClassSectionRepo(db *gorm.DB, baseLog *logger.Logger) ClassSectionRepo {
	return outcomes.NewClassSectionRepo(db, baseLog)
}
func NewEnrollmentRepo(db *gorm.DB, baseLog *logger.Logger) EnrollmentRepo {
	return outcomes.NewEnrollmentRepo(db, baseLog)
}
func NewAssessmentTypeRepo(db *gorm.DB, baseLog *logger.Logger) AssessmentTypeRepo {
	return outcomes.NewAssessmentTypeRepo(db, baseLog)
}
func NewWeightTemplateRepo(db *gorm.DB, baseLog *logger.Logger) WeightTemplateRepo {
	return outcomes.NewWeightTemplateRepo(db, baseLog)
}
func NewComponentRepo(db *gorm.DB, baseLog *logger.Logger) ComponentRepo {
	return outcomes.NewComponentRepo(db, baseLog)
}
func NewContributionLinkRepo(db *gorm.DB, baseLog *logger.Logger) ContributionLinkRepo {
	return outcomes.NewContributionLinkRepo(db, baseLog)
}
func NewThresholdRepo(db *gorm.DB, baseLog *logger.Logger) ThresholdRepo {
	return outcomes.NewThresholdRepo(db, baseLog)
}
func NewRawScoreRepo(db *gorm.DB, baseLog *logger.Logger) RawScoreRepo {
	return outcomes.NewRawScoreRepo(db, baseLog)
}
func NewCourseOutcomeAchievementRepo(db *gorm.DB, baseLog *logger.Logger) CourseOutcomeAchievementRepo {
	return outcomes.NewCourseOutcomeAchievementRepo(db, baseLog)
}
func NewProgramOutcomeAchievementRepo(db *gorm.DB, baseLog *logger.Logger) ProgramOutcomeAchievementRepo {
	return outcomes.NewProgramOutcomeAchievementRepo(db, baseLog)
}
