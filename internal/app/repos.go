package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/obe-achievement/internal/data/repos"
	"github.com/yungbote/obe-achievement/internal/modules/achievement"
	"github.com/yungbote/obe-achievement/internal/platform/logger"
)

func wireRepos(db *gorm.DB, log *logger.Logger) achievement.Repos {
	log.Info("Wiring repos...")
	return achievement.Repos{
		Plans:               repos.NewCoursePlanRepo(db, log),
		CourseOutcomes:      repos.NewCourseOutcomeRepo(db, log),
		ProgramOutcomes:     repos.NewProgramOutcomeRepo(db, log),
		Sections:            repos.NewClassSectionRepo(db, log),
		Enrollments:         repos.NewEnrollmentRepo(db, log),
		AssessmentTypes:     repos.NewAssessmentTypeRepo(db, log),
		Templates:           repos.NewWeightTemplateRepo(db, log),
		Components:          repos.NewComponentRepo(db, log),
		Links:               repos.NewContributionLinkRepo(db, log),
		Thresholds:          repos.NewThresholdRepo(db, log),
		Scores:              repos.NewRawScoreRepo(db, log),
		CourseAchievements:  repos.NewCourseOutcomeAchievementRepo(db, log),
		ProgramAchievements: repos.NewProgramOutcomeAchievementRepo(db, log),
	}
}
