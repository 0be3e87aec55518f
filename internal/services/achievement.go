package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/obe-achievement/internal/data/aggregates"
	types "github.com/yungbote/obe-achievement/internal/domain"
	"github.com/yungbote/obe-achievement/internal/modules/achievement"
	"github.com/yungbote/obe-achievement/internal/platform/logger"
)

// AchievementService is the caller-facing surface of the achievement engine
// used by the HTTP handlers.
type AchievementService interface {
	CourseOutcome(ctx context.Context, enrollmentID, courseOutcomeID uuid.UUID) (*achievement.Achievement, error)
	ProgramOutcome(ctx context.Context, enrollmentID, programOutcomeID uuid.UUID) (*achievement.Achievement, error)
	Report(ctx context.Context, enrollmentID uuid.UUID) (*achievement.EnrollmentReport, error)
	RecordScore(ctx context.Context, enrollmentID uuid.UUID, in RecordScoreInput) ([]achievement.OutcomeResult, error)
	RecomputeEnrollment(ctx context.Context, enrollmentID uuid.UUID) ([]achievement.OutcomeResult, error)
	RecomputeClassSection(ctx context.Context, sectionID uuid.UUID) (*achievement.SectionReport, error)
	Components(ctx context.Context, sectionID, courseOutcomeID uuid.UUID) (*achievement.ComponentSet, error)
	Thresholds(ctx context.Context, planID uuid.UUID) (map[types.ThresholdScope]float64, error)
	SetThreshold(ctx context.Context, planID uuid.UUID, scope string, value float64) error
}

type RecordScoreInput struct {
	ComponentID uuid.UUID `json:"component_id"`
	RawValue    *float64  `json:"raw_value"`
	Note        string    `json:"note"`
}

type achievementService struct {
	engine *achievement.Engine
	log    *logger.Logger
}

func NewAchievementService(engine *achievement.Engine, log *logger.Logger) AchievementService {
	return &achievementService{engine: engine, log: log.With("service", "AchievementService")}
}

func (s *achievementService) CourseOutcome(ctx context.Context, enrollmentID, courseOutcomeID uuid.UUID) (*achievement.Achievement, error) {
	return s.engine.GetCourseOutcomeAchievement(ctx, enrollmentID, courseOutcomeID)
}

func (s *achievementService) ProgramOutcome(ctx context.Context, enrollmentID, programOutcomeID uuid.UUID) (*achievement.Achievement, error) {
	return s.engine.GetProgramOutcomeAchievement(ctx, enrollmentID, programOutcomeID)
}

func (s *achievementService) Report(ctx context.Context, enrollmentID uuid.UUID) (*achievement.EnrollmentReport, error) {
	return s.engine.EnrollmentReport(ctx, enrollmentID)
}

func (s *achievementService) RecordScore(ctx context.Context, enrollmentID uuid.UUID, in RecordScoreInput) ([]achievement.OutcomeResult, error) {
	if in.ComponentID == uuid.Nil {
		return nil, aggregates.ValidationError("component_id is required")
	}
	if in.RawValue == nil {
		return nil, aggregates.ValidationError("raw_value is required")
	}
	results, err := s.engine.RecordScore(ctx, enrollmentID, in.ComponentID, *in.RawValue, strings.TrimSpace(in.Note))
	if err != nil {
		return nil, err
	}
	s.log.Info("score recorded",
		"enrollment_id", enrollmentID,
		"component_id", in.ComponentID,
		"outcomes", len(results),
	)
	return results, nil
}

func (s *achievementService) RecomputeEnrollment(ctx context.Context, enrollmentID uuid.UUID) ([]achievement.OutcomeResult, error) {
	return s.engine.RecomputeEnrollment(ctx, enrollmentID)
}

func (s *achievementService) RecomputeClassSection(ctx context.Context, sectionID uuid.UUID) (*achievement.SectionReport, error) {
	return s.engine.RecomputeClassSection(ctx, sectionID)
}

func (s *achievementService) Components(ctx context.Context, sectionID, courseOutcomeID uuid.UUID) (*achievement.ComponentSet, error) {
	return s.engine.ComponentsForOutcome(ctx, sectionID, courseOutcomeID)
}

func (s *achievementService) Thresholds(ctx context.Context, planID uuid.UUID) (map[types.ThresholdScope]float64, error) {
	out := map[types.ThresholdScope]float64{}
	for _, scope := range []types.ThresholdScope{types.ScopeCourseOutcome, types.ScopeProgramOutcome} {
		v, err := s.engine.MinimumFor(ctx, planID, scope)
		if err != nil {
			return nil, err
		}
		out[scope] = v
	}
	return out, nil
}

func (s *achievementService) SetThreshold(ctx context.Context, planID uuid.UUID, scope string, value float64) error {
	sc := types.ThresholdScope(strings.ToLower(strings.TrimSpace(scope)))
	if err := s.engine.SetThreshold(ctx, planID, sc, value); err != nil {
		return err
	}
	s.log.Info("threshold updated", "course_plan_id", planID, "scope", sc, "min_value", value)
	return nil
}
