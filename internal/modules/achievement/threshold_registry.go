package achievement

import (
	"github.com/google/uuid"

	"github.com/yungbote/obe-achievement/internal/data/aggregates"
	"github.com/yungbote/obe-achievement/internal/data/repos"
	types "github.com/yungbote/obe-achievement/internal/domain"
	"github.com/yungbote/obe-achievement/internal/platform/dbctx"
)

// ThresholdRegistry resolves the minimum passing value for a plan and scope:
// an explicit row, else the configured default.
type ThresholdRegistry struct {
	plans      repos.CoursePlanRepo
	thresholds repos.ThresholdRepo
	cfg        Config
}

func NewThresholdRegistry(r Repos, cfg Config) *ThresholdRegistry {
	return &ThresholdRegistry{plans: r.Plans, thresholds: r.Thresholds, cfg: cfg.withDefaults()}
}

func (r *ThresholdRegistry) MinimumFor(dbc dbctx.Context, planID uuid.UUID, scope types.ThresholdScope) (float64, error) {
	if !scope.Valid() {
		return 0, invalidArgument("unknown threshold scope %q", scope)
	}
	plan, err := r.plans.GetByID(dbc, planID)
	if err != nil {
		return 0, err
	}
	if plan == nil {
		return 0, notFound("course_plan", planID)
	}
	row, err := r.thresholds.Get(dbc, planID, scope)
	if err != nil {
		return 0, err
	}
	if row != nil {
		return row.MinValue, nil
	}
	return r.Default(scope), nil
}

func (r *ThresholdRegistry) Default(scope types.ThresholdScope) float64 {
	if scope == types.ScopeProgramOutcome {
		return r.cfg.DefaultProgramOutcomeThreshold
	}
	return r.cfg.DefaultCourseOutcomeThreshold
}

// SetMinimum writes an explicit threshold. It refuses while the plan's
// structure lock is held. Stored achievements are not recomputed here; callers
// follow up with a class section recompute.
func (r *ThresholdRegistry) SetMinimum(dbc dbctx.Context, planID uuid.UUID, scope types.ThresholdScope, value float64) error {
	if !scope.Valid() {
		return invalidArgument("unknown threshold scope %q", scope)
	}
	if err := aggregates.RequirePercent("threshold", value); err != nil {
		return err
	}
	plan, err := r.plans.GetByID(dbc, planID)
	if err != nil {
		return err
	}
	if plan == nil {
		return notFound("course_plan", planID)
	}
	if err := aggregates.RequirePlanUnlocked(plan.Locked, plan.Code); err != nil {
		return err
	}
	return r.thresholds.Upsert(dbc, planID, scope, value)
}
