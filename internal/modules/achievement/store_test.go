package achievement

import (
	"context"
	"errors"
	"maps"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/obe-achievement/internal/data/aggregates/testutil"
	repooutcomes "github.com/yungbote/obe-achievement/internal/data/repos/outcomes"
	types "github.com/yungbote/obe-achievement/internal/domain"
	"github.com/yungbote/obe-achievement/internal/platform/dbctx"
	"github.com/yungbote/obe-achievement/internal/platform/logger"
)

type pairKey struct {
	a uuid.UUID
	b string
}

func pk(a uuid.UUID, b uuid.UUID) pairKey { return pairKey{a: a, b: b.String()} }

type memState struct {
	plans       map[uuid.UUID]types.CoursePlan
	cos         map[uuid.UUID]types.CourseOutcome
	pos         map[uuid.UUID]types.ProgramOutcome
	sections    map[uuid.UUID]types.ClassSection
	enrollments map[uuid.UUID]types.Enrollment
	atypes      map[uuid.UUID]types.AssessmentType
	templates   map[uuid.UUID]types.WeightTemplate
	components  map[uuid.UUID]types.Component
	links       map[uuid.UUID]types.ContributionLink
	thresholds  map[pairKey]types.Threshold
	scores      map[pairKey]types.RawScore
	coAch       map[pairKey]types.CourseOutcomeAchievement
	poAch       map[pairKey]types.ProgramOutcomeAchievement
}

func newMemState() *memState {
	return &memState{
		plans:       map[uuid.UUID]types.CoursePlan{},
		cos:         map[uuid.UUID]types.CourseOutcome{},
		pos:         map[uuid.UUID]types.ProgramOutcome{},
		sections:    map[uuid.UUID]types.ClassSection{},
		enrollments: map[uuid.UUID]types.Enrollment{},
		atypes:      map[uuid.UUID]types.AssessmentType{},
		templates:   map[uuid.UUID]types.WeightTemplate{},
		components:  map[uuid.UUID]types.Component{},
		links:       map[uuid.UUID]types.ContributionLink{},
		thresholds:  map[pairKey]types.Threshold{},
		scores:      map[pairKey]types.RawScore{},
		coAch:       map[pairKey]types.CourseOutcomeAchievement{},
		poAch:       map[pairKey]types.ProgramOutcomeAchievement{},
	}
}

func (s *memState) clone() *memState {
	return &memState{
		plans:       maps.Clone(s.plans),
		cos:         maps.Clone(s.cos),
		pos:         maps.Clone(s.pos),
		sections:    maps.Clone(s.sections),
		enrollments: maps.Clone(s.enrollments),
		atypes:      maps.Clone(s.atypes),
		templates:   maps.Clone(s.templates),
		components:  maps.Clone(s.components),
		links:       maps.Clone(s.links),
		thresholds:  maps.Clone(s.thresholds),
		scores:      maps.Clone(s.scores),
		coAch:       maps.Clone(s.coAch),
		poAch:       maps.Clone(s.poAch),
	}
}

// memStore backs every repo with maps and implements testutil.Journal so
// rolled back transactions leave no trace.
type memStore struct {
	mu   sync.Mutex
	cur  *memState
	snap *memState

	coWrites int
	poWrites int
	// counters at Begin, restored on Rollback
	snapWrites [2]int
	locked     []uuid.UUID

	// failSaveFor makes course outcome saves for that enrollment fail.
	failSaveFor uuid.UUID
	// beforeLock runs when an enrollment row lock is taken.
	beforeLock func(uuid.UUID)
}

var _ testutil.Journal = (*memStore)(nil)

func newMemStore() *memStore { return &memStore{cur: newMemState()} }

func (s *memStore) Begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = s.cur.clone()
	s.snapWrites = [2]int{s.coWrites, s.poWrites}
}

func (s *memStore) Commit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = nil
}

func (s *memStore) Rollback() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap != nil {
		s.cur = s.snap
		s.snap = nil
		s.coWrites, s.poWrites = s.snapWrites[0], s.snapWrites[1]
	}
}

func (s *memStore) writes() (co, po int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coWrites, s.poWrites
}

func (s *memStore) repos() Repos {
	return Repos{
		Plans:               memPlans{s},
		CourseOutcomes:      memCourseOutcomes{s},
		ProgramOutcomes:     memProgramOutcomes{s},
		Sections:            memSections{s},
		Enrollments:         memEnrollments{s},
		AssessmentTypes:     memAssessmentTypes{s},
		Templates:           memTemplates{s},
		Components:          memComponents{s},
		Links:               memLinks{s},
		Thresholds:          memThresholds{s},
		Scores:              memScores{s},
		CourseAchievements:  memCourseAchievements{s},
		ProgramAchievements: memProgramAchievements{s},
	}
}

func sortByID[T any](rows []*T, id func(*T) uuid.UUID) {
	sort.Slice(rows, func(i, j int) bool { return id(rows[i]).String() < id(rows[j]).String() })
}

type memPlans struct{ s *memStore }

func (r memPlans) Create(_ dbctx.Context, rows []*types.CoursePlan) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range rows {
		r.s.cur.plans[p.ID] = *p
	}
	return nil
}

func (r memPlans) GetByID(_ dbctx.Context, id uuid.UUID) (*types.CoursePlan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p, ok := r.s.cur.plans[id]; ok {
		return &p, nil
	}
	return nil, nil
}

type memCourseOutcomes struct{ s *memStore }

func (r memCourseOutcomes) Create(_ dbctx.Context, rows []*types.CourseOutcome) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range rows {
		r.s.cur.cos[o.ID] = *o
	}
	return nil
}

func (r memCourseOutcomes) GetByID(_ dbctx.Context, id uuid.UUID) (*types.CourseOutcome, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if o, ok := r.s.cur.cos[id]; ok {
		return &o, nil
	}
	return nil, nil
}

func (r memCourseOutcomes) GetByIDs(_ dbctx.Context, ids []uuid.UUID) ([]*types.CourseOutcome, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*types.CourseOutcome
	for _, id := range ids {
		if o, ok := r.s.cur.cos[id]; ok {
			out = append(out, &o)
		}
	}
	return out, nil
}

func (r memCourseOutcomes) ListByCoursePlanID(_ dbctx.Context, planID uuid.UUID) ([]*types.CourseOutcome, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*types.CourseOutcome
	for _, o := range r.s.cur.cos {
		if o.CoursePlanID == planID {
			o := o
			out = append(out, &o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

type memProgramOutcomes struct{ s *memStore }

func (r memProgramOutcomes) Create(_ dbctx.Context, rows []*types.ProgramOutcome) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range rows {
		r.s.cur.pos[o.ID] = *o
	}
	return nil
}

func (r memProgramOutcomes) GetByID(_ dbctx.Context, id uuid.UUID) (*types.ProgramOutcome, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if o, ok := r.s.cur.pos[id]; ok {
		return &o, nil
	}
	return nil, nil
}

func (r memProgramOutcomes) GetByIDs(_ dbctx.Context, ids []uuid.UUID) ([]*types.ProgramOutcome, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*types.ProgramOutcome
	for _, id := range ids {
		if o, ok := r.s.cur.pos[id]; ok {
			out = append(out, &o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

type memSections struct{ s *memStore }

func (r memSections) Create(_ dbctx.Context, rows []*types.ClassSection) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range rows {
		r.s.cur.sections[x.ID] = *x
	}
	return nil
}

func (r memSections) GetByID(_ dbctx.Context, id uuid.UUID) (*types.ClassSection, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if x, ok := r.s.cur.sections[id]; ok {
		return &x, nil
	}
	return nil, nil
}

type memEnrollments struct{ s *memStore }

func (r memEnrollments) Create(_ dbctx.Context, rows []*types.Enrollment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range rows {
		r.s.cur.enrollments[x.ID] = *x
	}
	return nil
}

func (r memEnrollments) GetByID(_ dbctx.Context, id uuid.UUID) (*types.Enrollment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if x, ok := r.s.cur.enrollments[id]; ok {
		return &x, nil
	}
	return nil, nil
}

func (r memEnrollments) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Enrollment, error) {
	r.s.mu.Lock()
	hook := r.s.beforeLock
	r.s.locked = append(r.s.locked, id)
	r.s.mu.Unlock()
	if hook != nil {
		hook(id)
	}
	return r.GetByID(dbc, id)
}

func (r memEnrollments) ListIDsByClassSectionID(_ dbctx.Context, sectionID uuid.UUID) ([]uuid.UUID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []uuid.UUID
	for _, x := range r.s.cur.enrollments {
		if x.ClassSectionID == sectionID {
			out = append(out, x.ID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

type memAssessmentTypes struct{ s *memStore }

func (r memAssessmentTypes) Create(_ dbctx.Context, rows []*types.AssessmentType) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range rows {
		r.s.cur.atypes[x.ID] = *x
	}
	return nil
}

func (r memAssessmentTypes) GetByIDs(_ dbctx.Context, ids []uuid.UUID) ([]*types.AssessmentType, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*types.AssessmentType
	for _, id := range ids {
		if x, ok := r.s.cur.atypes[id]; ok {
			out = append(out, &x)
		}
	}
	return out, nil
}

func (r memAssessmentTypes) List(_ dbctx.Context) ([]*types.AssessmentType, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*types.AssessmentType
	for _, x := range r.s.cur.atypes {
		x := x
		out = append(out, &x)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

type memTemplates struct{ s *memStore }

func (r memTemplates) Create(_ dbctx.Context, rows []*types.WeightTemplate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range rows {
		r.s.cur.templates[x.ID] = *x
	}
	return nil
}

func (r memTemplates) GetByIDs(_ dbctx.Context, ids []uuid.UUID) ([]*types.WeightTemplate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*types.WeightTemplate
	for _, id := range ids {
		if x, ok := r.s.cur.templates[id]; ok {
			out = append(out, &x)
		}
	}
	return out, nil
}

func (r memTemplates) ListByPlanAndOutcome(_ dbctx.Context, planID, courseOutcomeID uuid.UUID) ([]*types.WeightTemplate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*types.WeightTemplate
	for _, x := range r.s.cur.templates {
		if x.CoursePlanID == planID && x.CourseOutcomeID == courseOutcomeID {
			x := x
			out = append(out, &x)
		}
	}
	sortByID(out, func(t *types.WeightTemplate) uuid.UUID { return t.ID })
	return out, nil
}

type memComponents struct{ s *memStore }

func (r memComponents) Create(_ dbctx.Context, rows []*types.Component) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range rows {
		r.s.cur.components[x.ID] = *x
	}
	return nil
}

func (r memComponents) GetByID(_ dbctx.Context, id uuid.UUID) (*types.Component, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if x, ok := r.s.cur.components[id]; ok {
		return &x, nil
	}
	return nil, nil
}

func (r memComponents) ListBySectionAndTemplateIDs(_ dbctx.Context, sectionID uuid.UUID, templateIDs []uuid.UUID) ([]*types.Component, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	want := map[uuid.UUID]bool{}
	for _, id := range templateIDs {
		want[id] = true
	}
	var out []*types.Component
	for _, x := range r.s.cur.components {
		if x.ClassSectionID == sectionID && x.WeightTemplateID != nil && want[*x.WeightTemplateID] {
			x := x
			out = append(out, &x)
		}
	}
	sortByID(out, func(c *types.Component) uuid.UUID { return c.ID })
	return out, nil
}

type memLinks struct{ s *memStore }

func (r memLinks) Create(_ dbctx.Context, rows []*types.ContributionLink) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range rows {
		r.s.cur.links[x.ID] = *x
	}
	return nil
}

func (r memLinks) ListByProgramOutcomeID(_ dbctx.Context, programOutcomeID uuid.UUID) ([]*types.ContributionLink, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*types.ContributionLink
	for _, x := range r.s.cur.links {
		if x.ProgramOutcomeID == programOutcomeID {
			x := x
			out = append(out, &x)
		}
	}
	sortByID(out, func(l *types.ContributionLink) uuid.UUID { return l.ID })
	return out, nil
}

func (r memLinks) ListByCourseOutcomeIDs(_ dbctx.Context, courseOutcomeIDs []uuid.UUID) ([]*types.ContributionLink, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	want := map[uuid.UUID]bool{}
	for _, id := range courseOutcomeIDs {
		want[id] = true
	}
	var out []*types.ContributionLink
	for _, x := range r.s.cur.links {
		if want[x.CourseOutcomeID] {
			x := x
			out = append(out, &x)
		}
	}
	sortByID(out, func(l *types.ContributionLink) uuid.UUID { return l.ID })
	return out, nil
}

type memThresholds struct{ s *memStore }

func (r memThresholds) Get(_ dbctx.Context, planID uuid.UUID, scope types.ThresholdScope) (*types.Threshold, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if x, ok := r.s.cur.thresholds[pairKey{a: planID, b: string(scope)}]; ok {
		return &x, nil
	}
	return nil, nil
}

func (r memThresholds) Upsert(_ dbctx.Context, planID uuid.UUID, scope types.ThresholdScope, minValue float64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := pairKey{a: planID, b: string(scope)}
	row, ok := r.s.cur.thresholds[key]
	if !ok {
		row = types.Threshold{ID: uuid.New(), CoursePlanID: planID, Scope: scope}
	}
	row.MinValue = minValue
	row.UpdatedAt = time.Now().UTC()
	r.s.cur.thresholds[key] = row
	return nil
}

type memScores struct{ s *memStore }

func (r memScores) Upsert(_ dbctx.Context, enrollmentID, componentID uuid.UUID, value float64, note string) (*types.RawScore, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := pk(enrollmentID, componentID)
	now := time.Now().UTC()
	row, ok := r.s.cur.scores[key]
	if !ok {
		row = types.RawScore{ID: uuid.New(), EnrollmentID: enrollmentID, ComponentID: componentID, CreatedAt: now}
	}
	row.Value = value
	row.Note = note
	row.UpdatedAt = now
	r.s.cur.scores[key] = row
	return &row, nil
}

func (r memScores) Get(_ dbctx.Context, enrollmentID, componentID uuid.UUID) (*types.RawScore, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if x, ok := r.s.cur.scores[pk(enrollmentID, componentID)]; ok {
		return &x, nil
	}
	return nil, nil
}

func (r memScores) ListByEnrollmentAndComponentIDs(_ dbctx.Context, enrollmentID uuid.UUID, componentIDs []uuid.UUID) ([]*types.RawScore, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*types.RawScore
	for _, id := range componentIDs {
		if x, ok := r.s.cur.scores[pk(enrollmentID, id)]; ok {
			out = append(out, &x)
		}
	}
	return out, nil
}

type memCourseAchievements struct{ s *memStore }

func (r memCourseAchievements) Get(_ dbctx.Context, enrollmentID, courseOutcomeID uuid.UUID) (*types.CourseOutcomeAchievement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if x, ok := r.s.cur.coAch[pk(enrollmentID, courseOutcomeID)]; ok {
		return &x, nil
	}
	return nil, nil
}

func (r memCourseAchievements) ListByEnrollmentID(_ dbctx.Context, enrollmentID uuid.UUID) ([]*types.CourseOutcomeAchievement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*types.CourseOutcomeAchievement
	for _, x := range r.s.cur.coAch {
		if x.EnrollmentID == enrollmentID {
			x := x
			out = append(out, &x)
		}
	}
	sortByID(out, func(a *types.CourseOutcomeAchievement) uuid.UUID { return a.CourseOutcomeID })
	return out, nil
}

func (r memCourseAchievements) ListByEnrollmentAndOutcomeIDs(_ dbctx.Context, enrollmentID uuid.UUID, ids []uuid.UUID) ([]*types.CourseOutcomeAchievement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*types.CourseOutcomeAchievement
	for _, id := range ids {
		if x, ok := r.s.cur.coAch[pk(enrollmentID, id)]; ok {
			out = append(out, &x)
		}
	}
	return out, nil
}

func (r memCourseAchievements) Save(_ dbctx.Context, row *types.CourseOutcomeAchievement) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failSaveFor != uuid.Nil && r.s.failSaveFor == row.EnrollmentID {
		return false, errors.New("injected save failure")
	}
	key := pk(row.EnrollmentID, row.CourseOutcomeID)
	now := time.Now().UTC()
	existing, ok := r.s.cur.coAch[key]
	if ok && repooutcomes.SameCourseOutcomeAchievement(&existing, row) {
		*row = existing
		return false, nil
	}
	if ok {
		row.ID = existing.ID
		row.CreatedAt = existing.CreatedAt
	} else {
		row.ID = uuid.New()
		row.CreatedAt = now
	}
	row.UpdatedAt = now
	r.s.cur.coAch[key] = *row
	r.s.coWrites++
	return true, nil
}

type memProgramAchievements struct{ s *memStore }

func (r memProgramAchievements) Get(_ dbctx.Context, enrollmentID, programOutcomeID uuid.UUID) (*types.ProgramOutcomeAchievement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if x, ok := r.s.cur.poAch[pk(enrollmentID, programOutcomeID)]; ok {
		return &x, nil
	}
	return nil, nil
}

func (r memProgramAchievements) ListByEnrollmentID(_ dbctx.Context, enrollmentID uuid.UUID) ([]*types.ProgramOutcomeAchievement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*types.ProgramOutcomeAchievement
	for _, x := range r.s.cur.poAch {
		if x.EnrollmentID == enrollmentID {
			x := x
			out = append(out, &x)
		}
	}
	sortByID(out, func(a *types.ProgramOutcomeAchievement) uuid.UUID { return a.ProgramOutcomeID })
	return out, nil
}

func (r memProgramAchievements) Save(_ dbctx.Context, row *types.ProgramOutcomeAchievement) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := pk(row.EnrollmentID, row.ProgramOutcomeID)
	now := time.Now().UTC()
	existing, ok := r.s.cur.poAch[key]
	if ok && repooutcomes.SameProgramOutcomeAchievement(&existing, row) {
		*row = existing
		return false, nil
	}
	if ok {
		row.ID = existing.ID
		row.CreatedAt = existing.CreatedAt
	} else {
		row.ID = uuid.New()
		row.CreatedAt = now
	}
	row.UpdatedAt = now
	r.s.cur.poAch[key] = *row
	r.s.poWrites++
	return true, nil
}

// recordingPublisher keeps every published batch.
type recordingPublisher struct {
	mu     sync.Mutex
	events []types.AchievementEvent
	err    error
}

func (p *recordingPublisher) PublishAchievementChanged(_ context.Context, events []types.AchievementEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) take() []types.AchievementEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.events
	p.events = nil
	return out
}

// world is a seeded store plus an engine over it.
type world struct {
	t       *testing.T
	store   *memStore
	runner  *testutil.InjectedTxRunner
	hooks   *testutil.HooksRecorder
	pub     *recordingPublisher
	engine  *Engine
	plan    *types.CoursePlan
	section *types.ClassSection
}

func newWorld(t *testing.T, cfg Config) *world {
	t.Helper()
	w := &world{t: t, store: newMemStore(), hooks: &testutil.HooksRecorder{}, pub: &recordingPublisher{}}
	w.runner = &testutil.InjectedTxRunner{Journal: w.store}
	w.engine = NewEngine(Deps{
		Log:       logger.Nop(),
		Repos:     w.store.repos(),
		Runner:    w.runner,
		Hooks:     w.hooks,
		Publisher: w.pub,
		Config:    cfg,
	})
	w.plan = w.addPlan("CS101")
	w.section = w.addSection(w.plan.ID)
	return w
}

func (w *world) put(fn func(s *memState)) {
	w.store.mu.Lock()
	defer w.store.mu.Unlock()
	fn(w.store.cur)
}

func (w *world) addPlan(code string) *types.CoursePlan {
	p := types.CoursePlan{ID: uuid.New(), Code: code, Name: code}
	w.put(func(s *memState) { s.plans[p.ID] = p })
	return &p
}

func (w *world) lockPlan(planID uuid.UUID) {
	w.put(func(s *memState) {
		p := s.plans[planID]
		p.Locked = true
		s.plans[planID] = p
	})
}

func (w *world) addSection(planID uuid.UUID) *types.ClassSection {
	x := types.ClassSection{ID: uuid.New(), CoursePlanID: planID, Name: "A"}
	w.put(func(s *memState) { s.sections[x.ID] = x })
	return &x
}

func (w *world) addEnrollment(sectionID uuid.UUID) uuid.UUID {
	x := types.Enrollment{ID: uuid.New(), ClassSectionID: sectionID, StudentID: uuid.New(), Status: "active"}
	w.put(func(s *memState) { s.enrollments[x.ID] = x })
	return x.ID
}

func (w *world) addCO(planID uuid.UUID, code string) uuid.UUID {
	x := types.CourseOutcome{ID: uuid.New(), CoursePlanID: planID, Code: code}
	w.put(func(s *memState) { s.cos[x.ID] = x })
	return x.ID
}

func (w *world) addPO(code string) uuid.UUID {
	x := types.ProgramOutcome{ID: uuid.New(), Code: code}
	w.put(func(s *memState) { s.pos[x.ID] = x })
	return x.ID
}

func (w *world) addType(category string) uuid.UUID {
	x := types.AssessmentType{ID: uuid.New(), Category: category}
	w.put(func(s *memState) { s.atypes[x.ID] = x })
	return x.ID
}

func (w *world) addTemplate(coID, typeID uuid.UUID, weight float64) uuid.UUID {
	x := types.WeightTemplate{ID: uuid.New(), CoursePlanID: w.plan.ID, CourseOutcomeID: coID, AssessmentTypeID: typeID, WeightPercent: weight}
	w.put(func(s *memState) { s.templates[x.ID] = x })
	return x.ID
}

func (w *world) addComponent(templateID *uuid.UUID, name string, inClass, max float64) uuid.UUID {
	x := types.Component{ID: uuid.New(), ClassSectionID: w.section.ID, WeightTemplateID: templateID, Name: name, InClassWeight: inClass, MaxScore: max}
	w.put(func(s *memState) { s.components[x.ID] = x })
	return x.ID
}

func (w *world) addLink(coID, poID uuid.UUID, weight float64) {
	x := types.ContributionLink{ID: uuid.New(), CourseOutcomeID: coID, ProgramOutcomeID: poID, WeightPercent: weight}
	w.put(func(s *memState) { s.links[x.ID] = x })
}

func (w *world) setScore(enrollmentID, componentID uuid.UUID, v float64) {
	w.put(func(s *memState) {
		s.scores[pk(enrollmentID, componentID)] = types.RawScore{ID: uuid.New(), EnrollmentID: enrollmentID, ComponentID: componentID, Value: v}
	})
}

func (w *world) setThreshold(scope types.ThresholdScope, v float64) {
	w.put(func(s *memState) {
		s.thresholds[pairKey{a: w.plan.ID, b: string(scope)}] = types.Threshold{ID: uuid.New(), CoursePlanID: w.plan.ID, Scope: scope, MinValue: v}
	})
}

func (w *world) coRow(enrollmentID, coID uuid.UUID) (types.CourseOutcomeAchievement, bool) {
	w.store.mu.Lock()
	defer w.store.mu.Unlock()
	row, ok := w.store.cur.coAch[pk(enrollmentID, coID)]
	return row, ok
}

func (w *world) poRow(enrollmentID, poID uuid.UUID) (types.ProgramOutcomeAchievement, bool) {
	w.store.mu.Lock()
	defer w.store.mu.Unlock()
	row, ok := w.store.cur.poAch[pk(enrollmentID, poID)]
	return row, ok
}
