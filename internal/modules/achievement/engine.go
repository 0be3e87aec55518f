package achievement

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/yungbote/obe-achievement/internal/data/aggregates"
	"github.com/yungbote/obe-achievement/internal/data/repos"
	types "github.com/yungbote/obe-achievement/internal/domain"
	domainagg "github.com/yungbote/obe-achievement/internal/domain/aggregates"
	"github.com/yungbote/obe-achievement/internal/observability"
	"github.com/yungbote/obe-achievement/internal/platform/ctxutil"
	"github.com/yungbote/obe-achievement/internal/platform/dbctx"
	"github.com/yungbote/obe-achievement/internal/platform/logger"
)

const (
	opRecordScore         = "achievement.record_score"
	opScoreChanged        = "achievement.score_changed"
	opRecomputeEnrollment = "achievement.recompute_enrollment"
	opSetThreshold        = "achievement.set_threshold"
)

type Repos struct {
	Plans               repos.CoursePlanRepo
	CourseOutcomes      repos.CourseOutcomeRepo
	ProgramOutcomes     repos.ProgramOutcomeRepo
	Sections            repos.ClassSectionRepo
	Enrollments         repos.EnrollmentRepo
	AssessmentTypes     repos.AssessmentTypeRepo
	Templates           repos.WeightTemplateRepo
	Components          repos.ComponentRepo
	Links               repos.ContributionLinkRepo
	Thresholds          repos.ThresholdRepo
	Scores              repos.RawScoreRepo
	CourseAchievements  repos.CourseOutcomeAchievementRepo
	ProgramAchievements repos.ProgramOutcomeAchievementRepo
}

type Deps struct {
	DB        *gorm.DB
	Log       *logger.Logger
	Repos     Repos
	Runner    aggregates.TxRunner
	Hooks     aggregates.Hooks
	Publisher Publisher
	Metrics   *observability.Metrics
	Config    Config
}

// Engine is the outcome achievement aggregation engine. It is invoked
// synchronously; there is no background work. Every per-enrollment unit runs
// in one transaction with course outcomes written before program outcomes.
type Engine struct {
	base      aggregates.BaseDeps
	repos     Repos
	cfg       Config
	log       *logger.Logger
	metrics   *observability.Metrics
	publisher Publisher
	locks     *keyedMutex

	catalog    *AssessmentTypeCatalog
	registry   *ComponentRegistry
	thresholds *ThresholdRegistry
	course     *CourseOutcomeRollup
	program    *ProgramOutcomeRollup
}

func NewEngine(deps Deps) *Engine {
	cfg := deps.Config.withDefaults()
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	log = log.With("service", "AchievementEngine")
	pub := deps.Publisher
	if pub == nil {
		pub = NoopPublisher{}
	}

	catalog := NewAssessmentTypeCatalog(deps.Repos.AssessmentTypes)
	registry := NewComponentRegistry(deps.Repos, catalog, cfg, deps.Metrics, log)
	thresholds := NewThresholdRegistry(deps.Repos, cfg)
	course := NewCourseOutcomeRollup(deps.Repos, registry, thresholds, deps.Metrics, log)
	program := NewProgramOutcomeRollup(deps.Repos, course, thresholds, cfg, deps.Metrics, log)

	return &Engine{
		base:       aggregates.BaseDeps{DB: deps.DB, Runner: deps.Runner, Hooks: deps.Hooks},
		repos:      deps.Repos,
		cfg:        cfg,
		log:        log,
		metrics:    deps.Metrics,
		publisher:  pub,
		locks:      newKeyedMutex(),
		catalog:    catalog,
		registry:   registry,
		thresholds: thresholds,
		course:     course,
		program:    program,
	}
}

var _ domainagg.Aggregate = (*Engine)(nil)

func (e *Engine) Contract() domainagg.Contract { return domainagg.EnrollmentAchievementContract }

func (e *Engine) Config() Config                        { return e.cfg }
func (e *Engine) Catalog() *AssessmentTypeCatalog       { return e.catalog }
func (e *Engine) ComponentRegistry() *ComponentRegistry { return e.registry }
func (e *Engine) ThresholdRegistry() *ThresholdRegistry { return e.thresholds }

func (e *Engine) read(ctx context.Context) dbctx.Context {
	return dbctx.Context{Ctx: ctx}
}

// ComponentsForOutcome exposes the component registry outside a transaction.
func (e *Engine) ComponentsForOutcome(ctx context.Context, sectionID, courseOutcomeID uuid.UUID) (*ComponentSet, error) {
	return e.registry.ComponentsForOutcome(e.read(ctx), sectionID, courseOutcomeID)
}

func (e *Engine) MinimumFor(ctx context.Context, planID uuid.UUID, scope types.ThresholdScope) (float64, error) {
	return e.thresholds.MinimumFor(e.read(ctx), planID, scope)
}

// SetThreshold writes an explicit threshold for a plan. Stored achievements
// keep their old verdict until the plan's sections are recomputed; reads
// flag them as stale meanwhile.
func (e *Engine) SetThreshold(ctx context.Context, planID uuid.UUID, scope types.ThresholdScope, value float64) error {
	return aggregates.ExecuteWrite(ctx, e.base, opSetThreshold, func(dbc dbctx.Context) error {
		return e.thresholds.SetMinimum(dbc, planID, scope, value)
	})
}

func (e *Engine) GetCourseOutcomeAchievement(ctx context.Context, enrollmentID, courseOutcomeID uuid.UUID) (*Achievement, error) {
	dbc := e.read(ctx)
	en, section, err := e.loadEnrollment(dbc, enrollmentID, false)
	if err != nil {
		return nil, err
	}
	co, err := e.repos.CourseOutcomes.GetByID(dbc, courseOutcomeID)
	if err != nil {
		return nil, err
	}
	if co == nil || co.CoursePlanID != section.CoursePlanID {
		return nil, notFound("course_outcome", courseOutcomeID)
	}
	current, err := e.thresholds.MinimumFor(dbc, section.CoursePlanID, types.ScopeCourseOutcome)
	if err != nil {
		return nil, err
	}
	row, err := e.repos.CourseAchievements.Get(dbc, en.ID, co.ID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		a := achievementOf(0, false, false, current, time.Time{})
		return &a, nil
	}
	a := achievementOf(row.Value, row.Passed, row.Computable, row.Threshold, row.UpdatedAt).against(current)
	return &a, nil
}

func (e *Engine) GetProgramOutcomeAchievement(ctx context.Context, enrollmentID, programOutcomeID uuid.UUID) (*Achievement, error) {
	dbc := e.read(ctx)
	en, section, err := e.loadEnrollment(dbc, enrollmentID, false)
	if err != nil {
		return nil, err
	}
	po, err := e.repos.ProgramOutcomes.GetByID(dbc, programOutcomeID)
	if err != nil {
		return nil, err
	}
	if po == nil {
		return nil, notFound("program_outcome", programOutcomeID)
	}
	current, err := e.thresholds.MinimumFor(dbc, section.CoursePlanID, types.ScopeProgramOutcome)
	if err != nil {
		return nil, err
	}
	row, err := e.repos.ProgramAchievements.Get(dbc, en.ID, po.ID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		// never computed: insufficient data against the threshold that would apply
		a := achievementOf(0, false, false, current, time.Time{})
		return &a, nil
	}
	a := achievementOf(row.Value, row.Passed, row.Computable, row.Threshold, row.UpdatedAt).against(current)
	return &a, nil
}

// EnrollmentReport lists every course outcome of the enrollment's plan and
// every program outcome they feed, with the stored verdicts.
func (e *Engine) EnrollmentReport(ctx context.Context, enrollmentID uuid.UUID) (*EnrollmentReport, error) {
	dbc := e.read(ctx)
	en, section, err := e.loadEnrollment(dbc, enrollmentID, false)
	if err != nil {
		return nil, err
	}
	cos, err := e.repos.CourseOutcomes.ListByCoursePlanID(dbc, section.CoursePlanID)
	if err != nil {
		return nil, err
	}
	ploIDs, err := e.programOutcomesFedBy(dbc, outcomeIDs(cos))
	if err != nil {
		return nil, err
	}
	pos, err := e.repos.ProgramOutcomes.GetByIDs(dbc, ploIDs)
	if err != nil {
		return nil, err
	}
	coRows, err := e.repos.CourseAchievements.ListByEnrollmentID(dbc, en.ID)
	if err != nil {
		return nil, err
	}
	poRows, err := e.repos.ProgramAchievements.ListByEnrollmentID(dbc, en.ID)
	if err != nil {
		return nil, err
	}
	coThreshold, err := e.thresholds.MinimumFor(dbc, section.CoursePlanID, types.ScopeCourseOutcome)
	if err != nil {
		return nil, err
	}
	poThreshold, err := e.thresholds.MinimumFor(dbc, section.CoursePlanID, types.ScopeProgramOutcome)
	if err != nil {
		return nil, err
	}

	coByID := map[uuid.UUID]*types.CourseOutcomeAchievement{}
	for _, r := range coRows {
		coByID[r.CourseOutcomeID] = r
	}
	poByID := map[uuid.UUID]*types.ProgramOutcomeAchievement{}
	for _, r := range poRows {
		poByID[r.ProgramOutcomeID] = r
	}

	report := &EnrollmentReport{EnrollmentID: en.ID, ClassSectionID: section.ID}
	for _, co := range cos {
		view := OutcomeView{OutcomeID: co.ID, Code: co.Code, Achievement: achievementOf(0, false, false, coThreshold, time.Time{})}
		if r, ok := coByID[co.ID]; ok {
			view.Achievement = achievementOf(r.Value, r.Passed, r.Computable, r.Threshold, r.UpdatedAt).against(coThreshold)
		}
		report.CourseOutcomes = append(report.CourseOutcomes, view)
	}
	for _, po := range pos {
		view := OutcomeView{OutcomeID: po.ID, Code: po.Code, Achievement: achievementOf(0, false, false, poThreshold, time.Time{})}
		if r, ok := poByID[po.ID]; ok {
			view.Achievement = achievementOf(r.Value, r.Passed, r.Computable, r.Threshold, r.UpdatedAt).against(poThreshold)
		}
		report.ProgramOutcomes = append(report.ProgramOutcomes, view)
	}
	return report, nil
}

// RecordScore overwrites the raw score for (enrollment, component) and runs the
// two-hop recompute in the same transaction. The caller has range-validated
// raw against the component maximum; out-of-range values are clamped when
// aggregated.
func (e *Engine) RecordScore(ctx context.Context, enrollmentID, componentID uuid.UUID, raw float64, note string) ([]OutcomeResult, error) {
	if err := aggregates.RequireFinite("raw score", raw); err != nil {
		return nil, aggregates.MapError(opRecordScore, err)
	}
	ctx, span := observability.StartSpan(ctx, opRecordScore,
		attribute.String("enrollment_id", enrollmentID.String()),
		attribute.String("component_id", componentID.String()))
	results, err := e.withEnrollment(ctx, opRecordScore, enrollmentID, func(dbc dbctx.Context, en *types.Enrollment, section *types.ClassSection) ([]*OutcomeResult, error) {
		comp, err := e.loadComponent(dbc, en, componentID)
		if err != nil {
			return nil, err
		}
		if _, err := e.repos.Scores.Upsert(dbc, en.ID, comp.ID, raw, note); err != nil {
			return nil, err
		}
		return e.recomputeForComponent(dbc, en, section, comp)
	})
	observability.EndSpan(span, err)
	return results, err
}

// OnScoreChanged recomputes exactly the course outcome fed by the component's
// template, then exactly the program outcomes fed by that course outcome.
func (e *Engine) OnScoreChanged(ctx context.Context, enrollmentID, componentID uuid.UUID) ([]OutcomeResult, error) {
	ctx, span := observability.StartSpan(ctx, opScoreChanged,
		attribute.String("enrollment_id", enrollmentID.String()),
		attribute.String("component_id", componentID.String()))
	results, err := e.withEnrollment(ctx, opScoreChanged, enrollmentID, func(dbc dbctx.Context, en *types.Enrollment, section *types.ClassSection) ([]*OutcomeResult, error) {
		comp, err := e.loadComponent(dbc, en, componentID)
		if err != nil {
			return nil, err
		}
		return e.recomputeForComponent(dbc, en, section, comp)
	})
	observability.EndSpan(span, err)
	return results, err
}

// RecomputeEnrollment recomputes every course outcome of the enrollment's plan
// and every program outcome they feed.
func (e *Engine) RecomputeEnrollment(ctx context.Context, enrollmentID uuid.UUID) ([]OutcomeResult, error) {
	ctx, span := observability.StartSpan(ctx, opRecomputeEnrollment,
		attribute.String("enrollment_id", enrollmentID.String()))
	results, err := e.withEnrollment(ctx, opRecomputeEnrollment, enrollmentID, func(dbc dbctx.Context, en *types.Enrollment, section *types.ClassSection) ([]*OutcomeResult, error) {
		cos, err := e.repos.CourseOutcomes.ListByCoursePlanID(dbc, section.CoursePlanID)
		if err != nil {
			return nil, err
		}
		out := make([]*OutcomeResult, 0, len(cos))
		for _, co := range cos {
			res, err := e.course.Compute(dbc, en, section, co)
			if err != nil {
				return nil, err
			}
			out = append(out, res)
		}
		more, err := e.recomputeProgramOutcomes(dbc, en, section, outcomeIDs(cos))
		if err != nil {
			return nil, err
		}
		return append(out, more...), nil
	})
	observability.EndSpan(span, err)
	return results, err
}

type unitFunc func(dbc dbctx.Context, en *types.Enrollment, section *types.ClassSection) ([]*OutcomeResult, error)

// withEnrollment serializes on the enrollment (in-process keyed lock plus a
// row lock inside the transaction), runs fn in one transaction and publishes
// change events once it has committed.
func (e *Engine) withEnrollment(ctx context.Context, op string, enrollmentID uuid.UUID, fn unitFunc) ([]OutcomeResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	unlock, err := e.locks.Lock(ctx, enrollmentID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	defer unlock()

	var results []*OutcomeResult
	err = aggregates.ExecuteWrite(ctx, e.base, op, func(dbc dbctx.Context) error {
		results = nil
		en, section, err := e.loadEnrollment(dbc, enrollmentID, true)
		if err != nil {
			return err
		}
		results, err = fn(dbc, en, section)
		return err
	})
	if err != nil {
		fields := []interface{}{"op", op, "enrollment_id", enrollmentID, "error", err}
		e.log.Warn("recompute failed", append(fields, ctxutil.LogFields(ctx)...)...)
		return nil, err
	}

	out := make([]OutcomeResult, 0, len(results))
	for _, r := range results {
		out = append(out, *r)
	}
	e.publish(ctx, enrollmentID, out)
	return out, nil
}

func (e *Engine) loadEnrollment(dbc dbctx.Context, enrollmentID uuid.UUID, lock bool) (*types.Enrollment, *types.ClassSection, error) {
	var (
		en  *types.Enrollment
		err error
	)
	if lock {
		en, err = e.repos.Enrollments.LockByID(dbc, enrollmentID)
	} else {
		en, err = e.repos.Enrollments.GetByID(dbc, enrollmentID)
	}
	if err != nil {
		return nil, nil, err
	}
	if en == nil {
		return nil, nil, notFound("enrollment", enrollmentID)
	}
	section, err := e.repos.Sections.GetByID(dbc, en.ClassSectionID)
	if err != nil {
		return nil, nil, err
	}
	if section == nil {
		return nil, nil, notFound("class_section", en.ClassSectionID)
	}
	return en, section, nil
}

func (e *Engine) loadComponent(dbc dbctx.Context, en *types.Enrollment, componentID uuid.UUID) (*types.Component, error) {
	comp, err := e.repos.Components.GetByID(dbc, componentID)
	if err != nil {
		return nil, err
	}
	if comp == nil {
		return nil, notFound("component", componentID)
	}
	if comp.ClassSectionID != en.ClassSectionID {
		return nil, invalidArgument("component %s does not belong to the enrollment's class section", componentID)
	}
	return comp, nil
}

func (e *Engine) recomputeForComponent(dbc dbctx.Context, en *types.Enrollment, section *types.ClassSection, comp *types.Component) ([]*OutcomeResult, error) {
	if comp.WeightTemplateID == nil {
		return nil, nil
	}
	templates, err := e.repos.Templates.GetByIDs(dbc, []uuid.UUID{*comp.WeightTemplateID})
	if err != nil {
		return nil, err
	}
	if len(templates) == 0 {
		return nil, &ConfigurationError{
			CoursePlanID: section.CoursePlanID,
			Reason:       "component " + comp.ID.String() + " references missing weight template " + comp.WeightTemplateID.String(),
		}
	}
	co, err := e.repos.CourseOutcomes.GetByID(dbc, templates[0].CourseOutcomeID)
	if err != nil {
		return nil, err
	}
	if co == nil {
		return nil, notFound("course_outcome", templates[0].CourseOutcomeID)
	}
	res, err := e.course.Compute(dbc, en, section, co)
	if err != nil {
		return nil, err
	}
	more, err := e.recomputeProgramOutcomes(dbc, en, section, []uuid.UUID{co.ID})
	if err != nil {
		return nil, err
	}
	return append([]*OutcomeResult{res}, more...), nil
}

func (e *Engine) recomputeProgramOutcomes(dbc dbctx.Context, en *types.Enrollment, section *types.ClassSection, courseOutcomeIDs []uuid.UUID) ([]*OutcomeResult, error) {
	ploIDs, err := e.programOutcomesFedBy(dbc, courseOutcomeIDs)
	if err != nil {
		return nil, err
	}
	var computed, out []*OutcomeResult
	for _, id := range ploIDs {
		res, deps, err := e.program.Compute(dbc, en, section, id)
		if err != nil {
			return nil, err
		}
		computed = append(computed, deps...)
		out = append(out, res)
	}
	return append(computed, out...), nil
}

func (e *Engine) programOutcomesFedBy(dbc dbctx.Context, courseOutcomeIDs []uuid.UUID) ([]uuid.UUID, error) {
	links, err := e.repos.Links.ListByCourseOutcomeIDs(dbc, courseOutcomeIDs)
	if err != nil {
		return nil, err
	}
	seen := map[uuid.UUID]bool{}
	var ids []uuid.UUID
	for _, l := range links {
		if !seen[l.ProgramOutcomeID] {
			seen[l.ProgramOutcomeID] = true
			ids = append(ids, l.ProgramOutcomeID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, nil
}

func (e *Engine) publish(ctx context.Context, enrollmentID uuid.UUID, results []OutcomeResult) {
	now := time.Now().UTC()
	var events []types.AchievementEvent
	for _, r := range results {
		if !r.Changed {
			continue
		}
		events = append(events, types.AchievementEvent{
			Level:        r.Level,
			EnrollmentID: enrollmentID,
			OutcomeID:    r.OutcomeID,
			Value:        r.Achievement.Value,
			Passed:       r.Achievement.Passed,
			Computable:   r.Achievement.Computable,
			Status:       r.Achievement.Status,
			At:           now,
		})
	}
	if len(events) == 0 {
		return
	}
	if err := e.publisher.PublishAchievementChanged(ctx, events); err != nil {
		e.metrics.IncEventPublished("failed")
		e.log.Warn("publish achievement events failed", "enrollment_id", enrollmentID, "count", len(events), "error", err)
		return
	}
	e.metrics.IncEventPublished("published")
}

func outcomeIDs(cos []*types.CourseOutcome) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(cos))
	for _, co := range cos {
		ids = append(ids, co.ID)
	}
	return ids
}
