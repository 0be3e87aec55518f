package db

import (
	"fmt"

	types "github.com/yungbote/obe-achievement/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.AllModels()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return EnsureAchievementIndexes(db)
}

// EnsureAchievementIndexes backs the overwrite-not-append rule for raw scores
// and derived rows. AutoMigrate creates the same indexes from struct tags; this
// re-asserts them on databases migrated before the tags existed.
func EnsureAchievementIndexes(db *gorm.DB) error {
	stmts := []struct{ name, sql string }{
		{"idx_raw_score_enrollment_component", `CREATE UNIQUE INDEX IF NOT EXISTS idx_raw_score_enrollment_component ON raw_score(enrollment_id, component_id);`},
		{"idx_co_achievement_enrollment_outcome", `CREATE UNIQUE INDEX IF NOT EXISTS idx_co_achievement_enrollment_outcome ON course_outcome_achievement(enrollment_id, course_outcome_id);`},
		{"idx_plo_achievement_enrollment_outcome", `CREATE UNIQUE INDEX IF NOT EXISTS idx_plo_achievement_enrollment_outcome ON program_outcome_achievement(enrollment_id, program_outcome_id);`},
		{"idx_weight_template_plan_outcome_type", `CREATE UNIQUE INDEX IF NOT EXISTS idx_weight_template_plan_outcome_type ON weight_template(course_plan_id, course_outcome_id, assessment_type_id);`},
		{"idx_contribution_link_pair", `CREATE UNIQUE INDEX IF NOT EXISTS idx_contribution_link_pair ON contribution_link(course_outcome_id, program_outcome_id);`},
		{"idx_threshold_plan_scope", `CREATE UNIQUE INDEX IF NOT EXISTS idx_threshold_plan_scope ON threshold(course_plan_id, scope);`},
	}
	for _, s := range stmts {
		if err := db.Exec(s.sql).Error; err != nil {
			return fmt.Errorf("create %s: %w", s.name, err)
		}
	}
	return nil
}
