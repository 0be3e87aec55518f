package achievement

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/obe-achievement/internal/data/repos"
	types "github.com/yungbote/obe-achievement/internal/domain"
	"github.com/yungbote/obe-achievement/internal/domain/outcomes"
	"github.com/yungbote/obe-achievement/internal/observability"
	"github.com/yungbote/obe-achievement/internal/platform/dbctx"
	"github.com/yungbote/obe-achievement/internal/platform/logger"
)

// CourseOutcomeRollup computes and stores one enrollment's achievement of one
// course outcome from its raw scores.
type CourseOutcomeRollup struct {
	registry     *ComponentRegistry
	thresholds   *ThresholdRegistry
	scores       repos.RawScoreRepo
	achievements repos.CourseOutcomeAchievementRepo
	metrics      *observability.Metrics
	log          *logger.Logger
}

func NewCourseOutcomeRollup(r Repos, registry *ComponentRegistry, thresholds *ThresholdRegistry, metrics *observability.Metrics, log *logger.Logger) *CourseOutcomeRollup {
	return &CourseOutcomeRollup{
		registry:     registry,
		thresholds:   thresholds,
		scores:       r.Scores,
		achievements: r.CourseAchievements,
		metrics:      metrics,
		log:          log.With("component", "CourseOutcomeRollup"),
	}
}

// Compute runs inside the caller's enrollment transaction. Components without
// a recorded score are excluded from the weight base; a recorded zero counts.
func (r *CourseOutcomeRollup) Compute(dbc dbctx.Context, en *types.Enrollment, section *types.ClassSection, outcome *types.CourseOutcome) (*OutcomeResult, error) {
	set, err := r.registry.componentsFor(dbc, section, outcome.ID)
	if err != nil {
		return nil, err
	}

	componentIDs := make([]uuid.UUID, 0, len(set.Components))
	for _, c := range set.Components {
		componentIDs = append(componentIDs, c.ComponentID)
	}
	rows, err := r.scores.ListByEnrollmentAndComponentIDs(dbc, en.ID, componentIDs)
	if err != nil {
		return nil, err
	}
	raw := make(map[uuid.UUID]float64, len(rows))
	for _, s := range rows {
		raw[s.ComponentID] = s.Value
	}

	warnings := append([]string(nil), set.Warnings...)
	terms := make([]outcomes.Term, 0, len(set.Components))
	for _, c := range set.Components {
		v, ok := raw[c.ComponentID]
		term := outcomes.Term{SourceID: c.ComponentID, Weight: c.EffectiveWeight, Present: ok}
		if ok {
			scaled, clamped := outcomes.ScaleScore(v, c.MaxScore)
			if clamped {
				r.log.Warn("raw score out of range, clamped",
					"enrollment_id", en.ID, "component_id", c.ComponentID, "raw", v, "max", c.MaxScore)
				r.metrics.IncWarning("score_clamped")
				warnings = append(warnings, fmt.Sprintf("score %v for %q clamped to [0,%v]", v, c.Name, c.MaxScore))
			}
			term.Scaled = scaled
		}
		terms = append(terms, term)
	}

	threshold, err := r.thresholds.MinimumFor(dbc, section.CoursePlanID, types.ScopeCourseOutcome)
	if err != nil {
		return nil, err
	}
	agg := outcomes.Aggregate(terms)
	row := &types.CourseOutcomeAchievement{
		EnrollmentID:    en.ID,
		CourseOutcomeID: outcome.ID,
		Value:           agg.Value,
		Passed:          agg.Computable && outcomes.Passed(agg.Value, threshold),
		Computable:      agg.Computable,
		WeightBase:      agg.WeightBase,
		Threshold:       threshold,
		InputHash:       outcomes.InputHash(terms, threshold),
	}
	changed, err := r.achievements.Save(dbc, row)
	if err != nil {
		return nil, err
	}
	r.metrics.ObserveOutcome(string(types.LevelCourseOutcome), string(row.Status()), changed)

	return &OutcomeResult{
		Level:         types.LevelCourseOutcome,
		OutcomeID:     outcome.ID,
		Code:          outcome.Code,
		Achievement:   achievementOf(row.Value, row.Passed, row.Computable, row.Threshold, row.UpdatedAt),
		WeightBase:    agg.WeightBase,
		Contributions: agg.Contributions,
		Warnings:      warnings,
		Changed:       changed,
	}, nil
}
