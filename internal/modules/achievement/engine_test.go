package achievement

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/google/uuid"

	domainagg "github.com/yungbote/obe-achievement/internal/domain/aggregates"
	types "github.com/yungbote/obe-achievement/internal/domain"
	pkgerrors "github.com/yungbote/obe-achievement/internal/pkg/errors"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

// gradedCourse seeds one course outcome fed by an exam (60) and an assignment
// (40) with one component each, and one program outcome fully explained by it.
type gradedCourse struct {
	*world
	co         uuid.UUID
	po         uuid.UUID
	exam       uuid.UUID
	assignment uuid.UUID
	enrollment uuid.UUID
}

func newGradedCourse(t *testing.T, cfg Config) *gradedCourse {
	w := newWorld(t, cfg)
	g := &gradedCourse{world: w}
	examType := w.addType("written_exam")
	assignType := w.addType("assignment")
	g.co = w.addCO(w.plan.ID, "CLO1")
	examT := w.addTemplate(g.co, examType, 60)
	assignT := w.addTemplate(g.co, assignType, 40)
	g.exam = w.addComponent(&examT, "midterm", 1, 100)
	g.assignment = w.addComponent(&assignT, "homework", 1, 50)
	g.po = w.addPO("PLO1")
	w.addLink(g.co, g.po, 100)
	g.enrollment = w.addEnrollment(w.section.ID)
	return g
}

func TestWeightedScenarioPassesAt75(t *testing.T) {
	g := newGradedCourse(t, DefaultConfig())
	g.setThreshold(types.ScopeCourseOutcome, 75)
	g.setScore(g.enrollment, g.exam, 90)
	g.setScore(g.enrollment, g.assignment, 40)

	if _, err := g.engine.RecomputeEnrollment(context.Background(), g.enrollment); err != nil {
		t.Fatalf("RecomputeEnrollment: %v", err)
	}
	a, err := g.engine.GetCourseOutcomeAchievement(context.Background(), g.enrollment, g.co)
	if err != nil {
		t.Fatalf("GetCourseOutcomeAchievement: %v", err)
	}
	if !approx(a.Value, 86) || !a.Passed || !a.Computable {
		t.Fatalf("achievement: got %+v want value=86 passed computable", a)
	}
	if a.Status != types.StatusPassed || a.Threshold != 75 {
		t.Fatalf("status/threshold: got %s/%v", a.Status, a.Threshold)
	}

	g.setThreshold(types.ScopeCourseOutcome, 87)
	if _, err := g.engine.RecomputeEnrollment(context.Background(), g.enrollment); err != nil {
		t.Fatalf("RecomputeEnrollment: %v", err)
	}
	a, _ = g.engine.GetCourseOutcomeAchievement(context.Background(), g.enrollment, g.co)
	if a.Passed || a.Status != types.StatusFailed {
		t.Fatalf("expected failed at threshold 87, got %+v", a)
	}
}

func TestPartialGradingNormalizesByPresentWeight(t *testing.T) {
	g := newGradedCourse(t, DefaultConfig())
	g.setScore(g.enrollment, g.exam, 90)

	results, err := g.engine.RecomputeEnrollment(context.Background(), g.enrollment)
	if err != nil {
		t.Fatalf("RecomputeEnrollment: %v", err)
	}
	row, ok := g.coRow(g.enrollment, g.co)
	if !ok {
		t.Fatalf("course outcome row missing")
	}
	if !approx(row.Value, 90) || row.WeightBase != 60 {
		t.Fatalf("partial: got value=%v base=%v want 90/60", row.Value, row.WeightBase)
	}
	if len(results) != 2 || len(results[0].Contributions) != 1 {
		t.Fatalf("unexpected breakdown: %+v", results)
	}

	// A recorded zero is graded, not missing.
	g.setScore(g.enrollment, g.assignment, 0)
	if _, err := g.engine.RecomputeEnrollment(context.Background(), g.enrollment); err != nil {
		t.Fatalf("RecomputeEnrollment: %v", err)
	}
	row, _ = g.coRow(g.enrollment, g.co)
	if !approx(row.Value, 54) || row.WeightBase != 100 {
		t.Fatalf("zero score: got value=%v base=%v want 54/100", row.Value, row.WeightBase)
	}
}

func TestFullGradingMatchesWeightedSum(t *testing.T) {
	g := newGradedCourse(t, DefaultConfig())
	g.setScore(g.enrollment, g.exam, 50)
	g.setScore(g.enrollment, g.assignment, 50)
	if _, err := g.engine.RecomputeEnrollment(context.Background(), g.enrollment); err != nil {
		t.Fatalf("RecomputeEnrollment: %v", err)
	}
	row, _ := g.coRow(g.enrollment, g.co)
	if !approx(row.Value, 0.6*50+0.4*100) {
		t.Fatalf("got %v want 70", row.Value)
	}
	po, _ := g.poRow(g.enrollment, g.po)
	if !approx(po.Value, row.Value) {
		t.Fatalf("program outcome: got %v want %v", po.Value, row.Value)
	}
}

func TestNoScoresIsInsufficientData(t *testing.T) {
	g := newGradedCourse(t, DefaultConfig())
	if _, err := g.engine.RecomputeEnrollment(context.Background(), g.enrollment); err != nil {
		t.Fatalf("RecomputeEnrollment: %v", err)
	}
	co, ok := g.coRow(g.enrollment, g.co)
	if !ok || co.Computable || co.Passed || co.Value != 0 {
		t.Fatalf("course outcome: got %+v", co)
	}
	if co.Status() != types.StatusInsufficientData {
		t.Fatalf("status: got %s", co.Status())
	}
	po, ok := g.poRow(g.enrollment, g.po)
	if !ok || po.Computable || po.Passed {
		t.Fatalf("program outcome: got %+v", po)
	}
}

func TestThresholdBoundaryIsInclusive(t *testing.T) {
	w := newWorld(t, DefaultConfig())
	typ := w.addType("practicum")
	co := w.addCO(w.plan.ID, "CLO1")
	tpl := w.addTemplate(co, typ, 100)
	comp := w.addComponent(&tpl, "lab", 1, 100)
	en := w.addEnrollment(w.section.ID)
	w.setThreshold(types.ScopeCourseOutcome, 75)

	w.setScore(en, comp, 75)
	if _, err := w.engine.RecomputeEnrollment(context.Background(), en); err != nil {
		t.Fatalf("RecomputeEnrollment: %v", err)
	}
	if row, _ := w.coRow(en, co); !row.Passed {
		t.Fatalf("value equal to threshold must pass: %+v", row)
	}

	w.setScore(en, comp, 74.99)
	if _, err := w.engine.RecomputeEnrollment(context.Background(), en); err != nil {
		t.Fatalf("RecomputeEnrollment: %v", err)
	}
	if row, _ := w.coRow(en, co); row.Passed {
		t.Fatalf("value below threshold must fail: %+v", row)
	}
}

func TestRecomputeIsIdempotent(t *testing.T) {
	g := newGradedCourse(t, DefaultConfig())
	g.setScore(g.enrollment, g.exam, 90)
	ctx := context.Background()

	if _, err := g.engine.RecomputeEnrollment(ctx, g.enrollment); err != nil {
		t.Fatalf("first recompute: %v", err)
	}
	before, _ := g.coRow(g.enrollment, g.co)
	coW, poW := g.store.writes()
	g.pub.take()

	results, err := g.engine.RecomputeEnrollment(ctx, g.enrollment)
	if err != nil {
		t.Fatalf("second recompute: %v", err)
	}
	for _, r := range results {
		if r.Changed {
			t.Fatalf("unchanged inputs reported change for %s", r.Code)
		}
	}
	after, _ := g.coRow(g.enrollment, g.co)
	if before != after {
		t.Fatalf("row changed on identical recompute:\nbefore %+v\nafter  %+v", before, after)
	}
	if c, p := g.store.writes(); c != coW || p != poW {
		t.Fatalf("writes on identical recompute: co %d->%d po %d->%d", coW, c, poW, p)
	}
	if ev := g.pub.take(); len(ev) != 0 {
		t.Fatalf("events on identical recompute: %+v", ev)
	}
}

func TestRecordScorePropagatesOnlyToDependents(t *testing.T) {
	w := newWorld(t, DefaultConfig())
	typ := w.addType("written_exam")
	co1 := w.addCO(w.plan.ID, "CLO1")
	co2 := w.addCO(w.plan.ID, "CLO2")
	t1 := w.addTemplate(co1, typ, 100)
	t2 := w.addTemplate(co2, typ, 100)
	c1 := w.addComponent(&t1, "exam 1", 1, 100)
	c2 := w.addComponent(&t2, "exam 2", 1, 100)
	po1 := w.addPO("PLO1")
	po2 := w.addPO("PLO2")
	w.addLink(co1, po1, 50)
	w.addLink(co2, po1, 50)
	w.addLink(co2, po2, 100)
	en := w.addEnrollment(w.section.ID)
	w.setScore(en, c2, 70)
	ctx := context.Background()

	if _, err := w.engine.RecomputeEnrollment(ctx, en); err != nil {
		t.Fatalf("RecomputeEnrollment: %v", err)
	}
	co2Before, _ := w.coRow(en, co2)
	po2Before, _ := w.poRow(en, po2)
	w.pub.take()

	results, err := w.engine.RecordScore(ctx, en, c1, 86, "regraded")
	if err != nil {
		t.Fatalf("RecordScore: %v", err)
	}
	touched := map[uuid.UUID]bool{}
	for _, r := range results {
		touched[r.OutcomeID] = true
	}
	if len(results) != 2 || !touched[co1] || !touched[po1] {
		t.Fatalf("expected exactly CLO1 and PLO1, got %+v", results)
	}

	p1, _ := w.poRow(en, po1)
	if !approx(p1.Value, 78) {
		t.Fatalf("PLO1: got %v want 78", p1.Value)
	}
	if after, _ := w.coRow(en, co2); after != co2Before {
		t.Fatalf("CLO2 touched by unrelated score")
	}
	if after, _ := w.poRow(en, po2); after != po2Before {
		t.Fatalf("PLO2 touched by unrelated score")
	}

	events := w.pub.take()
	if len(events) != 2 {
		t.Fatalf("events: got %d want 2", len(events))
	}
	if events[0].Level != types.LevelCourseOutcome || events[1].Level != types.LevelProgramOutcome {
		t.Fatalf("course outcome event must precede program outcome event: %+v", events)
	}
}

func TestProgramOutcomeExcludesInsufficientCourseOutcomes(t *testing.T) {
	w := newWorld(t, DefaultConfig())
	typ := w.addType("written_exam")
	co1 := w.addCO(w.plan.ID, "CLO1")
	co2 := w.addCO(w.plan.ID, "CLO2")
	t1 := w.addTemplate(co1, typ, 100)
	t2 := w.addTemplate(co2, typ, 100)
	c1 := w.addComponent(&t1, "exam 1", 1, 100)
	w.addComponent(&t2, "exam 2", 1, 100)
	po := w.addPO("PLO1")
	w.addLink(co1, po, 30)
	w.addLink(co2, po, 70)
	en := w.addEnrollment(w.section.ID)
	w.setScore(en, c1, 64)

	if _, err := w.engine.RecomputeEnrollment(context.Background(), en); err != nil {
		t.Fatalf("RecomputeEnrollment: %v", err)
	}
	row, _ := w.poRow(en, po)
	if !row.Computable || !approx(row.Value, 64) || row.WeightBase != 30 {
		t.Fatalf("PLO: got %+v want value 64 over base 30", row)
	}
}

func TestProgramOutcomeIgnoresOtherPlans(t *testing.T) {
	g := newGradedCourse(t, DefaultConfig())
	other := g.addPlan("CS999")
	foreign := g.addCO(other.ID, "CLO9")
	g.addLink(foreign, g.po, 100)
	g.setScore(g.enrollment, g.exam, 90)
	g.setScore(g.enrollment, g.assignment, 40)

	if _, err := g.engine.RecomputeEnrollment(context.Background(), g.enrollment); err != nil {
		t.Fatalf("RecomputeEnrollment: %v", err)
	}
	row, _ := g.poRow(g.enrollment, g.po)
	if !approx(row.Value, 86) || row.WeightBase != 100 {
		t.Fatalf("PLO: got %+v", row)
	}
	if _, ok := g.coRow(g.enrollment, foreign); ok {
		t.Fatalf("foreign plan outcome computed for enrollment")
	}
}

func twoOutcomeProgram(t *testing.T, cfg Config) (w *world, co1, co2, po, c1, en uuid.UUID) {
	w = newWorld(t, cfg)
	typ := w.addType("written_exam")
	co1 = w.addCO(w.plan.ID, "CLO1")
	co2 = w.addCO(w.plan.ID, "CLO2")
	t1 := w.addTemplate(co1, typ, 100)
	t2 := w.addTemplate(co2, typ, 100)
	c1 = w.addComponent(&t1, "exam 1", 1, 100)
	w.addComponent(&t2, "exam 2", 1, 100)
	po = w.addPO("PLO1")
	w.addLink(co1, po, 50)
	w.addLink(co2, po, 50)
	en = w.addEnrollment(w.section.ID)
	return
}

func TestStrictModeRejectsMissingDependency(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DependencyMode = DependencyStrict
	w, co1, co2, _, c1, en := twoOutcomeProgram(t, cfg)
	w.setScore(en, c1, 80)

	_, err := w.engine.OnScoreChanged(context.Background(), en, c1)
	if !errors.Is(err, pkgerrors.ErrConsistency) {
		t.Fatalf("expected consistency error, got %v", err)
	}
	if domainagg.CodeOf(err) != domainagg.CodeConsistency {
		t.Fatalf("code: got %q", domainagg.CodeOf(err))
	}
	var ce *ConsistencyError
	if !errors.As(err, &ce) || ce.CourseOutcomeID != co2 {
		t.Fatalf("expected ConsistencyError for CLO2, got %v", err)
	}
	if _, ok := w.coRow(en, co1); ok {
		t.Fatalf("CLO1 row must roll back with the failed unit")
	}

	// Once every dependency exists, strict mode rolls up normally.
	if _, err := w.engine.RecomputeEnrollment(context.Background(), en); err != nil {
		t.Fatalf("RecomputeEnrollment: %v", err)
	}
}

func TestTransitiveModeComputesMissingDependency(t *testing.T) {
	w, _, co2, po, c1, en := twoOutcomeProgram(t, DefaultConfig())
	w.setScore(en, c1, 80)

	results, err := w.engine.OnScoreChanged(context.Background(), en, c1)
	if err != nil {
		t.Fatalf("OnScoreChanged: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected CLO1, CLO2 (dependency) and PLO1, got %d results", len(results))
	}
	dep, ok := w.coRow(en, co2)
	if !ok || dep.Computable {
		t.Fatalf("CLO2 dependency: got %+v ok=%v", dep, ok)
	}
	row, _ := w.poRow(en, po)
	if !approx(row.Value, 80) {
		t.Fatalf("PLO1: got %v want 80", row.Value)
	}
}

func TestConfigurationErrors(t *testing.T) {
	cases := []struct {
		name  string
		setup func(w *world) uuid.UUID
	}{
		{
			name: "template weights do not sum to 100",
			setup: func(w *world) uuid.UUID {
				co := w.addCO(w.plan.ID, "CLO1")
				tpl := w.addTemplate(co, w.addType("exam"), 60)
				w.addComponent(&tpl, "exam", 1, 100)
				return co
			},
		},
		{
			name: "no templates",
			setup: func(w *world) uuid.UUID {
				return w.addCO(w.plan.ID, "CLO1")
			},
		},
		{
			name: "unknown assessment type",
			setup: func(w *world) uuid.UUID {
				co := w.addCO(w.plan.ID, "CLO1")
				tpl := w.addTemplate(co, uuid.New(), 100)
				w.addComponent(&tpl, "exam", 1, 100)
				return co
			},
		},
		{
			name: "non-positive max score",
			setup: func(w *world) uuid.UUID {
				co := w.addCO(w.plan.ID, "CLO1")
				tpl := w.addTemplate(co, w.addType("exam"), 100)
				w.addComponent(&tpl, "exam", 1, 0)
				return co
			},
		},
		{
			name: "negative template weight",
			setup: func(w *world) uuid.UUID {
				co := w.addCO(w.plan.ID, "CLO1")
				a := w.addTemplate(co, w.addType("exam"), 120)
				b := w.addTemplate(co, w.addType("quiz"), -20)
				w.addComponent(&a, "exam", 1, 100)
				w.addComponent(&b, "quiz", 1, 100)
				return co
			},
		},
		{
			name: "link to missing course outcome",
			setup: func(w *world) uuid.UUID {
				co := w.addCO(w.plan.ID, "CLO1")
				tpl := w.addTemplate(co, w.addType("exam"), 100)
				w.addComponent(&tpl, "exam", 1, 100)
				po := w.addPO("PLO1")
				w.addLink(co, po, 50)
				w.addLink(uuid.New(), po, 50)
				return co
			},
		},
		{
			name: "link to missing program outcome",
			setup: func(w *world) uuid.UUID {
				co := w.addCO(w.plan.ID, "CLO1")
				tpl := w.addTemplate(co, w.addType("exam"), 100)
				w.addComponent(&tpl, "exam", 1, 100)
				w.addLink(co, uuid.New(), 100)
				return co
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := newWorld(t, DefaultConfig())
			tc.setup(w)
			en := w.addEnrollment(w.section.ID)

			_, err := w.engine.RecomputeEnrollment(context.Background(), en)
			if !errors.Is(err, pkgerrors.ErrConfiguration) {
				t.Fatalf("expected configuration error, got %v", err)
			}
			if domainagg.CodeOf(err) != domainagg.CodeConfiguration {
				t.Fatalf("code: got %q", domainagg.CodeOf(err))
			}
			var ce *ConfigurationError
			if !errors.As(err, &ce) || ce.Reason == "" {
				t.Fatalf("expected ConfigurationError with reason, got %v", err)
			}
			if c, p := w.store.writes(); c != 0 || p != 0 {
				t.Fatalf("failed unit wrote rows: co=%d po=%d", c, p)
			}
		})
	}
}

func TestBestEffortDowngradesSumViolation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BestEffort = true
	w := newWorld(t, cfg)
	co := w.addCO(w.plan.ID, "CLO1")
	tpl := w.addTemplate(co, w.addType("exam"), 60)
	comp := w.addComponent(&tpl, "exam", 1, 100)
	en := w.addEnrollment(w.section.ID)
	w.setScore(en, comp, 90)

	results, err := w.engine.RecomputeEnrollment(context.Background(), en)
	if err != nil {
		t.Fatalf("RecomputeEnrollment: %v", err)
	}
	if len(results) != 1 || len(results[0].Warnings) == 0 {
		t.Fatalf("expected a surfaced warning, got %+v", results)
	}
	if !approx(results[0].Achievement.Value, 90) {
		t.Fatalf("value: got %v want 90", results[0].Achievement.Value)
	}

	set, err := w.engine.ComponentsForOutcome(context.Background(), w.section.ID, co)
	if err != nil {
		t.Fatalf("ComponentsForOutcome: %v", err)
	}
	if set.TemplateSum != 60 || len(set.Warnings) != 1 {
		t.Fatalf("component set: %+v", set)
	}
}

func TestEffectiveWeightSplitsByInClassWeight(t *testing.T) {
	w := newWorld(t, DefaultConfig())
	co := w.addCO(w.plan.ID, "CLO1")
	quiz := w.addTemplate(co, w.addType("quiz"), 40)
	exam := w.addTemplate(co, w.addType("exam"), 60)
	w.addComponent(&quiz, "quiz 1", 1, 10)
	w.addComponent(&quiz, "quiz 2", 3, 10)
	w.addComponent(&exam, "final", 0, 100)
	w.addComponent(&exam, "midterm", 0, 100)

	set, err := w.engine.ComponentsForOutcome(context.Background(), w.section.ID, co)
	if err != nil {
		t.Fatalf("ComponentsForOutcome: %v", err)
	}
	got := map[string]float64{}
	for _, c := range set.Components {
		got[c.Name] = c.EffectiveWeight
	}
	want := map[string]float64{"quiz 1": 10, "quiz 2": 30, "final": 30, "midterm": 30}
	for name, v := range want {
		if !approx(got[name], v) {
			t.Fatalf("%s: got %v want %v (all %+v)", name, got[name], v, got)
		}
	}
}

func TestRecordScoreRollsBackOnFailedRecompute(t *testing.T) {
	w := newWorld(t, DefaultConfig())
	co := w.addCO(w.plan.ID, "CLO1")
	tpl := w.addTemplate(co, w.addType("exam"), 60)
	comp := w.addComponent(&tpl, "exam", 1, 100)
	en := w.addEnrollment(w.section.ID)

	if _, err := w.engine.RecordScore(context.Background(), en, comp, 50, ""); !errors.Is(err, pkgerrors.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if s, _ := w.store.repos().Scores.Get(w.engine.read(context.Background()), en, comp); s != nil {
		t.Fatalf("raw score must roll back with its recompute, got %+v", s)
	}
}

func TestRecordScoreValidation(t *testing.T) {
	g := newGradedCourse(t, DefaultConfig())
	ctx := context.Background()

	if _, err := g.engine.RecordScore(ctx, g.enrollment, g.exam, math.NaN(), ""); domainagg.CodeOf(err) != domainagg.CodeValidation {
		t.Fatalf("NaN: expected validation, got %v", err)
	}

	other := g.addSection(g.plan.ID)
	foreign := types.Component{ID: uuid.New(), ClassSectionID: other.ID, Name: "x", MaxScore: 10}
	g.put(func(s *memState) { s.components[foreign.ID] = foreign })
	if _, err := g.engine.RecordScore(ctx, g.enrollment, foreign.ID, 5, ""); domainagg.CodeOf(err) != domainagg.CodeValidation {
		t.Fatalf("foreign component: expected validation, got %v", err)
	}

	if _, err := g.engine.RecordScore(ctx, g.enrollment, uuid.New(), 5, ""); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("missing component: expected not found, got %v", err)
	}
	if _, err := g.engine.RecordScore(ctx, uuid.New(), g.exam, 5, ""); domainagg.CodeOf(err) != domainagg.CodeNotFound {
		t.Fatalf("missing enrollment: expected not_found, got %v", err)
	}
}

func TestRecordScoreClampsOutOfRange(t *testing.T) {
	g := newGradedCourse(t, DefaultConfig())
	g.setScore(g.enrollment, g.assignment, 50)
	results, err := g.engine.RecordScore(context.Background(), g.enrollment, g.exam, 130, "")
	if err != nil {
		t.Fatalf("RecordScore: %v", err)
	}
	if !approx(results[0].Achievement.Value, 100) || len(results[0].Warnings) == 0 {
		t.Fatalf("expected clamped 100 with warning, got %+v", results[0])
	}
}

func TestUntemplatedComponentFeedsNothing(t *testing.T) {
	g := newGradedCourse(t, DefaultConfig())
	loose := g.addComponent(nil, "attendance", 1, 10)
	results, err := g.engine.RecordScore(context.Background(), g.enrollment, loose, 10, "")
	if err != nil {
		t.Fatalf("RecordScore: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no recomputed outcomes, got %+v", results)
	}
	if c, p := g.store.writes(); c != 0 || p != 0 {
		t.Fatalf("unexpected writes co=%d po=%d", c, p)
	}
}

func TestGetAchievementNotFoundAndPending(t *testing.T) {
	g := newGradedCourse(t, DefaultConfig())
	ctx := context.Background()

	if _, err := g.engine.GetCourseOutcomeAchievement(ctx, uuid.New(), g.co); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("missing enrollment: %v", err)
	}
	if _, err := g.engine.GetCourseOutcomeAchievement(ctx, g.enrollment, uuid.New()); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("missing course outcome: %v", err)
	}
	if _, err := g.engine.GetProgramOutcomeAchievement(ctx, g.enrollment, uuid.New()); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("missing program outcome: %v", err)
	}
	other := g.addCO(g.addPlan("MATH201").ID, "CLO1")
	if _, err := g.engine.GetCourseOutcomeAchievement(ctx, g.enrollment, other); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("course outcome of another plan: %v", err)
	}

	a, err := g.engine.GetProgramOutcomeAchievement(ctx, g.enrollment, g.po)
	if err != nil {
		t.Fatalf("GetProgramOutcomeAchievement: %v", err)
	}
	if a.Computable || a.Status != types.StatusInsufficientData || a.Threshold != 60 || a.UpdatedAt != nil {
		t.Fatalf("never computed outcome: got %+v", a)
	}
}

func TestThresholds(t *testing.T) {
	w := newWorld(t, DefaultConfig())
	ctx := context.Background()

	v, err := w.engine.MinimumFor(ctx, w.plan.ID, types.ScopeProgramOutcome)
	if err != nil || v != 60 {
		t.Fatalf("default: got %v, %v", v, err)
	}
	if err := w.engine.SetThreshold(ctx, w.plan.ID, types.ScopeProgramOutcome, 70); err != nil {
		t.Fatalf("SetThreshold: %v", err)
	}
	if v, _ := w.engine.MinimumFor(ctx, w.plan.ID, types.ScopeProgramOutcome); v != 70 {
		t.Fatalf("explicit: got %v", v)
	}
	if v, _ := w.engine.MinimumFor(ctx, w.plan.ID, types.ScopeCourseOutcome); v != 60 {
		t.Fatalf("other scope: got %v", v)
	}

	if err := w.engine.SetThreshold(ctx, w.plan.ID, types.ScopeCourseOutcome, 120); domainagg.CodeOf(err) != domainagg.CodeValidation {
		t.Fatalf("out of range: got %v", err)
	}
	if err := w.engine.SetThreshold(ctx, w.plan.ID, "semester", 50); domainagg.CodeOf(err) != domainagg.CodeValidation {
		t.Fatalf("bad scope: got %v", err)
	}
	if _, err := w.engine.MinimumFor(ctx, uuid.New(), types.ScopeCourseOutcome); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("missing plan: got %v", err)
	}

	w.lockPlan(w.plan.ID)
	err = w.engine.SetThreshold(ctx, w.plan.ID, types.ScopeCourseOutcome, 50)
	if !errors.Is(err, pkgerrors.ErrPlanLocked) || domainagg.CodeOf(err) != domainagg.CodePreconditionFailed {
		t.Fatalf("locked plan: got %v", err)
	}
	if v, _ := w.engine.MinimumFor(ctx, w.plan.ID, types.ScopeCourseOutcome); v != 60 {
		t.Fatalf("locked plan threshold changed to %v", v)
	}
}

func TestThresholdChangeMarksStoredVerdictsStale(t *testing.T) {
	g := newGradedCourse(t, DefaultConfig())
	ctx := context.Background()
	g.setScore(g.enrollment, g.exam, 70)
	g.setScore(g.enrollment, g.assignment, 35)
	if _, err := g.engine.RecomputeEnrollment(ctx, g.enrollment); err != nil {
		t.Fatalf("RecomputeEnrollment: %v", err)
	}
	a, _ := g.engine.GetCourseOutcomeAchievement(ctx, g.enrollment, g.co)
	if a.Stale || !a.Passed {
		t.Fatalf("fresh verdict: got %+v", a)
	}

	if err := g.engine.SetThreshold(ctx, g.plan.ID, types.ScopeCourseOutcome, 80); err != nil {
		t.Fatalf("SetThreshold: %v", err)
	}
	a, _ = g.engine.GetCourseOutcomeAchievement(ctx, g.enrollment, g.co)
	if !a.Stale || !a.Passed || a.Threshold != 60 {
		t.Fatalf("after threshold change: got %+v", a)
	}
	p, _ := g.engine.GetProgramOutcomeAchievement(ctx, g.enrollment, g.po)
	if p.Stale {
		t.Fatalf("program outcome threshold unchanged, got stale %+v", p)
	}
	report, err := g.engine.EnrollmentReport(ctx, g.enrollment)
	if err != nil || !report.CourseOutcomes[0].Achievement.Stale {
		t.Fatalf("report: %+v, %v", report, err)
	}

	if _, err := g.engine.RecomputeEnrollment(ctx, g.enrollment); err != nil {
		t.Fatalf("RecomputeEnrollment: %v", err)
	}
	a, _ = g.engine.GetCourseOutcomeAchievement(ctx, g.enrollment, g.co)
	if a.Stale || a.Passed || a.Threshold != 80 {
		t.Fatalf("after recompute: got %+v", a)
	}
}

func TestZeroConfigUsesDefaultThresholds(t *testing.T) {
	w := newWorld(t, Config{})
	for _, scope := range []types.ThresholdScope{types.ScopeCourseOutcome, types.ScopeProgramOutcome} {
		v, err := w.engine.MinimumFor(context.Background(), w.plan.ID, scope)
		if err != nil || v != 60 {
			t.Fatalf("%s: got %v, %v", scope, v, err)
		}
	}
}

func TestConfiguredDefaultThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DefaultCourseOutcomeThreshold = 50
	g := newGradedCourse(t, cfg)
	g.setScore(g.enrollment, g.exam, 50)
	g.setScore(g.enrollment, g.assignment, 25)
	if _, err := g.engine.RecomputeEnrollment(context.Background(), g.enrollment); err != nil {
		t.Fatalf("RecomputeEnrollment: %v", err)
	}
	row, _ := g.coRow(g.enrollment, g.co)
	if !row.Passed || row.Threshold != 50 {
		t.Fatalf("got %+v", row)
	}
	po, _ := g.poRow(g.enrollment, g.po)
	if po.Passed || po.Threshold != 60 {
		t.Fatalf("program outcome keeps its own default: %+v", po)
	}
}

func TestCommitFailureLeavesNoTrace(t *testing.T) {
	g := newGradedCourse(t, DefaultConfig())
	g.setScore(g.enrollment, g.exam, 90)
	g.runner.FailCommit = errors.New("connection reset")

	if _, err := g.engine.RecomputeEnrollment(context.Background(), g.enrollment); err == nil {
		t.Fatalf("expected commit failure")
	}
	if _, ok := g.coRow(g.enrollment, g.co); ok {
		t.Fatalf("rolled back unit left a course outcome row")
	}
	if ev := g.pub.take(); len(ev) != 0 {
		t.Fatalf("events published for a rolled back unit: %+v", ev)
	}
	if _, _, rb := g.runner.Counts(); rb != 1 {
		t.Fatalf("rollbacks: got %d want 1", rb)
	}
}

func TestPublishFailureDoesNotFailRecompute(t *testing.T) {
	g := newGradedCourse(t, DefaultConfig())
	g.pub.err = errors.New("redis down")
	g.setScore(g.enrollment, g.exam, 90)
	if _, err := g.engine.RecomputeEnrollment(context.Background(), g.enrollment); err != nil {
		t.Fatalf("RecomputeEnrollment: %v", err)
	}
	if _, ok := g.coRow(g.enrollment, g.co); !ok {
		t.Fatalf("committed row missing")
	}
}

func TestEnrollmentReport(t *testing.T) {
	g := newGradedCourse(t, DefaultConfig())
	g.addCO(g.plan.ID, "CLO2")
	g.setScore(g.enrollment, g.exam, 90)
	g.setScore(g.enrollment, g.assignment, 40)
	ctx := context.Background()
	if _, err := g.engine.OnScoreChanged(ctx, g.enrollment, g.exam); err != nil {
		t.Fatalf("OnScoreChanged: %v", err)
	}

	rep, err := g.engine.EnrollmentReport(ctx, g.enrollment)
	if err != nil {
		t.Fatalf("EnrollmentReport: %v", err)
	}
	if len(rep.CourseOutcomes) != 2 || len(rep.ProgramOutcomes) != 1 {
		t.Fatalf("report shape: %+v", rep)
	}
	if rep.CourseOutcomes[0].Code != "CLO1" || rep.CourseOutcomes[0].Achievement.Status != types.StatusPassed {
		t.Fatalf("CLO1: %+v", rep.CourseOutcomes[0])
	}
	if rep.CourseOutcomes[1].Achievement.Status != types.StatusInsufficientData {
		t.Fatalf("CLO2 was never computed: %+v", rep.CourseOutcomes[1])
	}
	if !approx(rep.ProgramOutcomes[0].Achievement.Value, 86) {
		t.Fatalf("PLO1: %+v", rep.ProgramOutcomes[0])
	}
}

func TestConcurrentScoresOnOneEnrollmentSerialize(t *testing.T) {
	w := newWorld(t, DefaultConfig())
	co := w.addCO(w.plan.ID, "CLO1")
	tpl := w.addTemplate(co, w.addType("quiz"), 100)
	var comps []uuid.UUID
	for i := 0; i < 8; i++ {
		comps = append(comps, w.addComponent(&tpl, string(rune('a'+i)), 1, 10))
	}
	en := w.addEnrollment(w.section.ID)

	var wg sync.WaitGroup
	errs := make(chan error, len(comps))
	for _, c := range comps {
		wg.Add(1)
		go func(c uuid.UUID) {
			defer wg.Done()
			_, err := w.engine.RecordScore(context.Background(), en, c, 5, "")
			errs <- err
		}(c)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("RecordScore: %v", err)
		}
	}
	row, _ := w.coRow(en, co)
	if !approx(row.Value, 50) || row.WeightBase != 100 {
		t.Fatalf("final state: got %+v", row)
	}
	if w.engine.locks.size() != 0 {
		t.Fatalf("keyed mutex leaked %d entries", w.engine.locks.size())
	}
}

func TestWriteHooksObserveOutcomes(t *testing.T) {
	g := newGradedCourse(t, DefaultConfig())
	ctx := context.Background()
	if _, err := g.engine.RecomputeEnrollment(ctx, g.enrollment); err != nil {
		t.Fatalf("RecomputeEnrollment: %v", err)
	}
	g.addTemplate(g.co, g.addType("quiz"), 5)
	if _, err := g.engine.RecomputeEnrollment(ctx, g.enrollment); err == nil {
		t.Fatalf("expected configuration error")
	}
	counts := g.hooks.StatusCounts(opRecomputeEnrollment)
	if counts["success"] != 1 || counts[string(domainagg.CodeConfiguration)] != 1 {
		t.Fatalf("hook statuses: %+v", counts)
	}
}

func TestEngineOwnsItsTransaction(t *testing.T) {
	w := newWorld(t, DefaultConfig())
	c := w.engine.Contract()
	if !c.RequiresAggregateOwnedTx() || c.ReadPolicy != domainagg.ReadPolicyInvariantScoped {
		t.Fatalf("contract: %+v", c)
	}
}
