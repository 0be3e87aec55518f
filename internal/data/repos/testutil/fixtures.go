package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	types "github.com/yungbote/obe-achievement/internal/domain"
	"gorm.io/gorm"
)

func SeedCoursePlan(tb testing.TB, ctx context.Context, tx *gorm.DB, code string) *types.CoursePlan {
	tb.Helper()
	p := &types.CoursePlan{ID: uuid.New(), Code: code, Name: "Plan " + code}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed course plan: %v", err)
	}
	return p
}

func SeedCourseOutcome(tb testing.TB, ctx context.Context, tx *gorm.DB, planID uuid.UUID, code string) *types.CourseOutcome {
	tb.Helper()
	o := &types.CourseOutcome{ID: uuid.New(), CoursePlanID: planID, Code: code}
	if err := tx.WithContext(ctx).Create(o).Error; err != nil {
		tb.Fatalf("seed course outcome: %v", err)
	}
	return o
}

func SeedProgramOutcome(tb testing.TB, ctx context.Context, tx *gorm.DB, code string) *types.ProgramOutcome {
	tb.Helper()
	o := &types.ProgramOutcome{ID: uuid.New(), Code: code + "-" + uuid.NewString()[:8]}
	if err := tx.WithContext(ctx).Create(o).Error; err != nil {
		tb.Fatalf("seed program outcome: %v", err)
	}
	return o
}

func SeedClassSection(tb testing.TB, ctx context.Context, tx *gorm.DB, planID uuid.UUID) *types.ClassSection {
	tb.Helper()
	s := &types.ClassSection{ID: uuid.New(), CoursePlanID: planID, Name: "A", Term: "2026-1"}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed class section: %v", err)
	}
	return s
}

func SeedEnrollment(tb testing.TB, ctx context.Context, tx *gorm.DB, sectionID uuid.UUID) *types.Enrollment {
	tb.Helper()
	e := &types.Enrollment{ID: uuid.New(), ClassSectionID: sectionID, StudentID: uuid.New(), Status: "active"}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed enrollment: %v", err)
	}
	return e
}

func SeedAssessmentType(tb testing.TB, ctx context.Context, tx *gorm.DB, category string) *types.AssessmentType {
	tb.Helper()
	at := &types.AssessmentType{ID: uuid.New(), Category: category + "-" + uuid.NewString()[:8]}
	if err := tx.WithContext(ctx).Create(at).Error; err != nil {
		tb.Fatalf("seed assessment type: %v", err)
	}
	return at
}

func SeedWeightTemplate(tb testing.TB, ctx context.Context, tx *gorm.DB, planID, outcomeID, typeID uuid.UUID, weight float64) *types.WeightTemplate {
	tb.Helper()
	wt := &types.WeightTemplate{ID: uuid.New(), CoursePlanID: planID, CourseOutcomeID: outcomeID, AssessmentTypeID: typeID, WeightPercent: weight}
	if err := tx.WithContext(ctx).Create(wt).Error; err != nil {
		tb.Fatalf("seed weight template: %v", err)
	}
	return wt
}

func SeedComponent(tb testing.TB, ctx context.Context, tx *gorm.DB, sectionID uuid.UUID, templateID *uuid.UUID, name string, inClass, max float64, at *time.Time) *types.Component {
	tb.Helper()
	c := &types.Component{
		ID:               uuid.New(),
		ClassSectionID:   sectionID,
		WeightTemplateID: templateID,
		Name:             name,
		InClassWeight:    inClass,
		MaxScore:         max,
		ScheduledAt:      at,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed component: %v", err)
	}
	return c
}

func SeedContributionLink(tb testing.TB, ctx context.Context, tx *gorm.DB, courseOutcomeID, programOutcomeID uuid.UUID, weight float64) *types.ContributionLink {
	tb.Helper()
	l := &types.ContributionLink{ID: uuid.New(), CourseOutcomeID: courseOutcomeID, ProgramOutcomeID: programOutcomeID, WeightPercent: weight}
	if err := tx.WithContext(ctx).Create(l).Error; err != nil {
		tb.Fatalf("seed contribution link: %v", err)
	}
	return l
}
