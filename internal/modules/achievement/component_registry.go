package achievement

import (
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/yungbote/obe-achievement/internal/data/repos"
	types "github.com/yungbote/obe-achievement/internal/domain"
	"github.com/yungbote/obe-achievement/internal/observability"
	"github.com/yungbote/obe-achievement/internal/platform/dbctx"
	"github.com/yungbote/obe-achievement/internal/platform/logger"
)

// ComponentRegistry resolves which components of a class section feed a course
// outcome and with what effective weight.
type ComponentRegistry struct {
	sections   repos.ClassSectionRepo
	templates  repos.WeightTemplateRepo
	components repos.ComponentRepo
	catalog    *AssessmentTypeCatalog
	cfg        Config
	metrics    *observability.Metrics
	log        *logger.Logger
}

func NewComponentRegistry(r Repos, catalog *AssessmentTypeCatalog, cfg Config, metrics *observability.Metrics, log *logger.Logger) *ComponentRegistry {
	return &ComponentRegistry{
		sections:   r.Sections,
		templates:  r.Templates,
		components: r.Components,
		catalog:    catalog,
		cfg:        cfg.withDefaults(),
		metrics:    metrics,
		log:        log.With("component", "ComponentRegistry"),
	}
}

func (r *ComponentRegistry) ComponentsForOutcome(dbc dbctx.Context, sectionID, courseOutcomeID uuid.UUID) (*ComponentSet, error) {
	section, err := r.sections.GetByID(dbc, sectionID)
	if err != nil {
		return nil, err
	}
	if section == nil {
		return nil, notFound("class_section", sectionID)
	}
	return r.componentsFor(dbc, section, courseOutcomeID)
}

func (r *ComponentRegistry) componentsFor(dbc dbctx.Context, section *types.ClassSection, courseOutcomeID uuid.UUID) (*ComponentSet, error) {
	planID := section.CoursePlanID
	cfgErr := func(format string, args ...any) error {
		return &ConfigurationError{CoursePlanID: planID, CourseOutcomeID: courseOutcomeID, Reason: fmt.Sprintf(format, args...)}
	}

	templates, err := r.templates.ListByPlanAndOutcome(dbc, planID, courseOutcomeID)
	if err != nil {
		return nil, err
	}
	set := &ComponentSet{CourseOutcomeID: courseOutcomeID, ClassSectionID: section.ID}

	typeIDs := make([]uuid.UUID, 0, len(templates))
	for _, t := range templates {
		if t.WeightPercent < 0 || math.IsNaN(t.WeightPercent) {
			return nil, cfgErr("template %s has invalid weight %v", t.ID, t.WeightPercent)
		}
		set.TemplateSum += t.WeightPercent
		typeIDs = append(typeIDs, t.AssessmentTypeID)
	}
	categories, err := r.catalog.Resolve(dbc, typeIDs)
	if err != nil {
		return nil, err
	}
	for _, t := range templates {
		if _, ok := categories[t.AssessmentTypeID]; !ok {
			return nil, cfgErr("template %s references unknown assessment type %s", t.ID, t.AssessmentTypeID)
		}
	}

	if math.Abs(set.TemplateSum-100) > r.cfg.WeightEpsilon {
		msg := fmt.Sprintf("template weights sum to %.4g, want 100 (epsilon %.4g)", set.TemplateSum, r.cfg.WeightEpsilon)
		if !r.cfg.BestEffort {
			return nil, cfgErr("%s", msg)
		}
		r.log.Warn("weight template sum violation (best effort)",
			"course_plan_id", planID, "course_outcome_id", courseOutcomeID, "sum", set.TemplateSum)
		r.metrics.IncWarning("weight_sum")
		set.Warnings = append(set.Warnings, msg)
	}
	if len(templates) == 0 {
		return set, nil
	}

	byTemplate := make(map[uuid.UUID]*types.WeightTemplate, len(templates))
	templateIDs := make([]uuid.UUID, 0, len(templates))
	for _, t := range templates {
		byTemplate[t.ID] = t
		templateIDs = append(templateIDs, t.ID)
	}
	comps, err := r.components.ListBySectionAndTemplateIDs(dbc, section.ID, templateIDs)
	if err != nil {
		return nil, err
	}
	sortComponents(comps)

	inClassSum := map[uuid.UUID]float64{}
	count := map[uuid.UUID]int{}
	for _, c := range comps {
		if c.WeightTemplateID == nil {
			continue
		}
		if !(c.MaxScore > 0) {
			return nil, cfgErr("component %q has non-positive maximum score %v", c.Name, c.MaxScore)
		}
		if c.InClassWeight < 0 || math.IsNaN(c.InClassWeight) {
			return nil, cfgErr("component %q has invalid in-class weight %v", c.Name, c.InClassWeight)
		}
		inClassSum[*c.WeightTemplateID] += c.InClassWeight
		count[*c.WeightTemplateID]++
	}

	for _, c := range comps {
		if c.WeightTemplateID == nil {
			continue
		}
		t, ok := byTemplate[*c.WeightTemplateID]
		if !ok {
			continue
		}
		var eff float64
		if sum := inClassSum[t.ID]; sum > 0 {
			eff = t.WeightPercent * c.InClassWeight / sum
		} else {
			eff = t.WeightPercent / float64(count[t.ID])
		}
		set.Components = append(set.Components, WeightedComponent{
			ComponentID:     c.ID,
			TemplateID:      t.ID,
			Name:            c.Name,
			Category:        categories[t.AssessmentTypeID].Category,
			EffectiveWeight: eff,
			MaxScore:        c.MaxScore,
		})
	}
	return set, nil
}

// sortComponents orders by schedule (unscheduled last), then name, then id.
func sortComponents(comps []*types.Component) {
	sort.SliceStable(comps, func(i, j int) bool {
		a, b := comps[i], comps[j]
		switch {
		case a.ScheduledAt != nil && b.ScheduledAt == nil:
			return true
		case a.ScheduledAt == nil && b.ScheduledAt != nil:
			return false
		case a.ScheduledAt != nil && !a.ScheduledAt.Equal(*b.ScheduledAt):
			return a.ScheduledAt.Before(*b.ScheduledAt)
		case a.Name != b.Name:
			return a.Name < b.Name
		default:
			return a.ID.String() < b.ID.String()
		}
	})
}
