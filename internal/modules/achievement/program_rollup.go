package achievement

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/yungbote/obe-achievement/internal/data/repos"
	types "github.com/yungbote/obe-achievement/internal/domain"
	"github.com/yungbote/obe-achievement/internal/domain/outcomes"
	"github.com/yungbote/obe-achievement/internal/observability"
	"github.com/yungbote/obe-achievement/internal/platform/dbctx"
	"github.com/yungbote/obe-achievement/internal/platform/logger"
)

// ProgramOutcomeRollup aggregates stored course outcome achievements into a
// program outcome achievement through the contribution links.
type ProgramOutcomeRollup struct {
	links           repos.ContributionLinkRepo
	courseOutcomes  repos.CourseOutcomeRepo
	programOutcomes repos.ProgramOutcomeRepo
	coAchievements  repos.CourseOutcomeAchievementRepo
	achievements    repos.ProgramOutcomeAchievementRepo
	thresholds      *ThresholdRegistry
	course          *CourseOutcomeRollup
	mode            DependencyMode
	metrics         *observability.Metrics
	log             *logger.Logger
}

func NewProgramOutcomeRollup(r Repos, course *CourseOutcomeRollup, thresholds *ThresholdRegistry, cfg Config, metrics *observability.Metrics, log *logger.Logger) *ProgramOutcomeRollup {
	return &ProgramOutcomeRollup{
		links:           r.Links,
		courseOutcomes:  r.CourseOutcomes,
		programOutcomes: r.ProgramOutcomes,
		coAchievements:  r.CourseAchievements,
		achievements:    r.ProgramAchievements,
		thresholds:      thresholds,
		course:          course,
		mode:            cfg.withDefaults().DependencyMode,
		metrics:         metrics,
		log:             log.With("component", "ProgramOutcomeRollup"),
	}
}

// Compute reads the course outcome achievements the program outcome depends
// on, restricted to the enrollment's plan. The program outcome ID comes from a
// contribution link, so a missing outcome is a configuration error. Non-computable dependencies leave
// the weight base. A dependency with no stored row is computed in place
// (transitive) or rejected (strict); the second return value lists course
// outcomes computed that way.
func (r *ProgramOutcomeRollup) Compute(dbc dbctx.Context, en *types.Enrollment, section *types.ClassSection, programOutcomeID uuid.UUID) (*OutcomeResult, []*OutcomeResult, error) {
	po, err := r.programOutcomes.GetByID(dbc, programOutcomeID)
	if err != nil {
		return nil, nil, err
	}
	if po == nil {
		return nil, nil, &ConfigurationError{
			CoursePlanID:     section.CoursePlanID,
			ProgramOutcomeID: programOutcomeID,
			Reason:           "contribution link references missing program outcome",
		}
	}
	cfgErr := func(format string, args ...any) error {
		return &ConfigurationError{CoursePlanID: section.CoursePlanID, ProgramOutcomeID: po.ID, Reason: fmt.Sprintf(format, args...)}
	}

	links, err := r.links.ListByProgramOutcomeID(dbc, po.ID)
	if err != nil {
		return nil, nil, err
	}
	coIDs := make([]uuid.UUID, 0, len(links))
	for _, l := range links {
		if l.WeightPercent < 0 || math.IsNaN(l.WeightPercent) {
			return nil, nil, cfgErr("contribution link %s has invalid weight %v", l.ID, l.WeightPercent)
		}
		coIDs = append(coIDs, l.CourseOutcomeID)
	}
	cos, err := r.courseOutcomes.GetByIDs(dbc, coIDs)
	if err != nil {
		return nil, nil, err
	}
	coByID := make(map[uuid.UUID]*types.CourseOutcome, len(cos))
	for _, co := range cos {
		coByID[co.ID] = co
	}
	for _, l := range links {
		if _, ok := coByID[l.CourseOutcomeID]; !ok {
			return nil, nil, cfgErr("contribution link %s references missing course outcome %s", l.ID, l.CourseOutcomeID)
		}
	}

	inPlan := make([]uuid.UUID, 0, len(links))
	for _, id := range coIDs {
		if coByID[id].CoursePlanID == section.CoursePlanID {
			inPlan = append(inPlan, id)
		}
	}
	stored, err := r.coAchievements.ListByEnrollmentAndOutcomeIDs(dbc, en.ID, inPlan)
	if err != nil {
		return nil, nil, err
	}
	byCO := make(map[uuid.UUID]*types.CourseOutcomeAchievement, len(stored))
	for _, a := range stored {
		byCO[a.CourseOutcomeID] = a
	}

	var computed []*OutcomeResult
	terms := make([]outcomes.Term, 0, len(inPlan))
	for _, l := range links {
		co := coByID[l.CourseOutcomeID]
		if co.CoursePlanID != section.CoursePlanID {
			continue
		}
		dep, ok := byCO[co.ID]
		if !ok {
			if r.mode == DependencyStrict {
				return nil, nil, &ConsistencyError{EnrollmentID: en.ID, ProgramOutcomeID: po.ID, CourseOutcomeID: co.ID}
			}
			res, err := r.course.Compute(dbc, en, section, co)
			if err != nil {
				return nil, nil, err
			}
			computed = append(computed, res)
			dep = &types.CourseOutcomeAchievement{
				CourseOutcomeID: co.ID,
				Value:           res.Achievement.Value,
				Computable:      res.Achievement.Computable,
			}
			r.log.Debug("computed missing course outcome dependency",
				"enrollment_id", en.ID, "course_outcome_id", co.ID, "program_outcome_id", po.ID)
		}
		terms = append(terms, outcomes.Term{
			SourceID: co.ID,
			Weight:   l.WeightPercent,
			Scaled:   dep.Value,
			Present:  dep.Computable,
		})
	}

	threshold, err := r.thresholds.MinimumFor(dbc, section.CoursePlanID, types.ScopeProgramOutcome)
	if err != nil {
		return nil, nil, err
	}
	agg := outcomes.Aggregate(terms)
	row := &types.ProgramOutcomeAchievement{
		EnrollmentID:     en.ID,
		ProgramOutcomeID: po.ID,
		Value:            agg.Value,
		Passed:           agg.Computable && outcomes.Passed(agg.Value, threshold),
		Computable:       agg.Computable,
		WeightBase:       agg.WeightBase,
		Threshold:        threshold,
		InputHash:        outcomes.InputHash(terms, threshold),
	}
	changed, err := r.achievements.Save(dbc, row)
	if err != nil {
		return nil, nil, err
	}
	r.metrics.ObserveOutcome(string(types.LevelProgramOutcome), string(row.Status()), changed)

	return &OutcomeResult{
		Level:         types.LevelProgramOutcome,
		OutcomeID:     po.ID,
		Code:          po.Code,
		Achievement:   achievementOf(row.Value, row.Passed, row.Computable, row.Threshold, row.UpdatedAt),
		WeightBase:    agg.WeightBase,
		Contributions: agg.Contributions,
		Changed:       changed,
	}, computed, nil
}
