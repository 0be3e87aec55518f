package achievement

import (
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/obe-achievement/internal/domain"
	"github.com/yungbote/obe-achievement/internal/domain/outcomes"
)

// WeightedComponent is one component feeding a course outcome with its
// effective weight: the template weight split across the template's components
// in the section by in-class weight.
type WeightedComponent struct {
	ComponentID     uuid.UUID `json:"component_id"`
	TemplateID      uuid.UUID `json:"template_id"`
	Name            string    `json:"name"`
	Category        string    `json:"category"`
	EffectiveWeight float64   `json:"effective_weight"`
	MaxScore        float64   `json:"max_score"`
}

type ComponentSet struct {
	CourseOutcomeID uuid.UUID           `json:"course_outcome_id"`
	ClassSectionID  uuid.UUID           `json:"class_section_id"`
	TemplateSum     float64             `json:"template_sum"`
	Components      []WeightedComponent `json:"components"`
	Warnings        []string            `json:"warnings,omitempty"`
}

// Achievement is the caller-facing verdict for one (enrollment, outcome).
// Computable=false means insufficient data, rendered distinctly from failed.
type Achievement struct {
	Value      float64                 `json:"value"`
	Passed     bool                    `json:"passed"`
	Computable bool                    `json:"computable"`
	Threshold  float64                 `json:"threshold"`
	Status     types.AchievementStatus `json:"status"`
	UpdatedAt  *time.Time              `json:"updated_at,omitempty"`
	// Stale is set when the stored verdict used a threshold other than the
	// plan's current one.
	Stale bool `json:"stale,omitempty"`
}

func (a Achievement) against(current float64) Achievement {
	a.Stale = a.Threshold != current
	return a
}

func achievementOf(value float64, passed, computable bool, threshold float64, updatedAt time.Time) Achievement {
	a := Achievement{Value: value, Passed: passed, Computable: computable, Threshold: threshold}
	a.Status = statusOf(computable, passed)
	if !updatedAt.IsZero() {
		t := updatedAt
		a.UpdatedAt = &t
	}
	return a
}

func statusOf(computable, passed bool) types.AchievementStatus {
	switch {
	case !computable:
		return types.StatusInsufficientData
	case passed:
		return types.StatusPassed
	default:
		return types.StatusFailed
	}
}

// OutcomeResult is the per-outcome result of a recompute, with the breakdown
// the value was derived from.
type OutcomeResult struct {
	Level         types.AchievementLevel  `json:"level"`
	OutcomeID     uuid.UUID               `json:"outcome_id"`
	Code          string                  `json:"code"`
	Achievement   Achievement             `json:"achievement"`
	WeightBase    float64                 `json:"weight_base"`
	Contributions []outcomes.Contribution `json:"contributions,omitempty"`
	Warnings      []string                `json:"warnings,omitempty"`
	Changed       bool                    `json:"changed"`
}

type UnitStatus string

const (
	UnitSucceeded UnitStatus = "succeeded"
	UnitFailed    UnitStatus = "failed"
	UnitCancelled UnitStatus = "cancelled"
)

type EnrollmentStatus struct {
	EnrollmentID uuid.UUID  `json:"enrollment_id"`
	Status       UnitStatus `json:"status"`
	Outcomes     int        `json:"outcomes"`
	Changed      int        `json:"changed"`
	Error        string     `json:"error,omitempty"`
	Err          error      `json:"-"`
}

// SectionReport lists every enrollment of a bulk recompute. Enrollments keep
// the section's enrollment order.
type SectionReport struct {
	ClassSectionID uuid.UUID          `json:"class_section_id"`
	Enrollments    []EnrollmentStatus `json:"enrollments"`
	Succeeded      int                `json:"succeeded"`
	Failed         int                `json:"failed"`
	Cancelled      int                `json:"cancelled"`
}

type OutcomeView struct {
	OutcomeID   uuid.UUID   `json:"outcome_id"`
	Code        string      `json:"code"`
	Achievement Achievement `json:"achievement"`
}

// EnrollmentReport is every stored achievement of one enrollment. Outcomes of
// the plan that were never computed appear as insufficient data.
type EnrollmentReport struct {
	EnrollmentID    uuid.UUID     `json:"enrollment_id"`
	ClassSectionID  uuid.UUID     `json:"class_section_id"`
	CourseOutcomes  []OutcomeView `json:"course_outcomes"`
	ProgramOutcomes []OutcomeView `json:"program_outcomes"`
}
