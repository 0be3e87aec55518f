package outcomes

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AssessmentType is immutable reference data naming an assessment category
// (written exam, assignment, practicum, ...).
type AssessmentType struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Category string    `gorm:"column:category;not null;uniqueIndex" json:"category"`
}

func (AssessmentType) TableName() string { return "assessment_type" }

// WeightTemplate declares how much of a course outcome an assessment category
// explains. Templates of one (plan, outcome) must sum to 100.
type WeightTemplate struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CoursePlanID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_weight_template_plan_outcome_type,priority:1" json:"course_plan_id"`
	CourseOutcomeID  uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_weight_template_plan_outcome_type,priority:2" json:"course_outcome_id"`
	AssessmentTypeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_weight_template_plan_outcome_type,priority:3" json:"assessment_type_id"`
	WeightPercent    float64   `gorm:"column:weight_percent;not null" json:"weight_percent"`
	CreatedAt        time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time `gorm:"not null" json:"updated_at"`
}

func (WeightTemplate) TableName() string { return "weight_template" }

// Component is a concrete gradable event in a class section. A component with
// no WeightTemplateID feeds no outcome.
type Component struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ClassSectionID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"class_section_id"`
	WeightTemplateID *uuid.UUID     `gorm:"type:uuid;index" json:"weight_template_id,omitempty"`
	Name             string         `gorm:"column:name;not null" json:"name"`
	InClassWeight    float64        `gorm:"column:in_class_weight;not null;default:0" json:"in_class_weight"`
	MaxScore         float64        `gorm:"column:max_score;not null" json:"max_score"`
	ScheduledAt      *time.Time     `gorm:"column:scheduled_at" json:"scheduled_at,omitempty"`
	ScheduleMeta     datatypes.JSON `gorm:"column:schedule_meta" json:"schedule_meta,omitempty"`
	CreatedAt        time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null" json:"updated_at"`
}

func (Component) TableName() string { return "component" }

// ContributionLink declares the share of a program outcome explained by a
// course outcome.
type ContributionLink struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseOutcomeID  uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_contribution_link_pair,priority:1" json:"course_outcome_id"`
	ProgramOutcomeID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_contribution_link_pair,priority:2" json:"program_outcome_id"`
	WeightPercent    float64   `gorm:"column:weight_percent;not null" json:"weight_percent"`
	CreatedAt        time.Time `gorm:"not null" json:"created_at"`
}

func (ContributionLink) TableName() string { return "contribution_link" }

type ThresholdScope string

const (
	ScopeCourseOutcome  ThresholdScope = "course_outcome"
	ScopeProgramOutcome ThresholdScope = "program_outcome"
)

func (s ThresholdScope) Valid() bool {
	return s == ScopeCourseOutcome || s == ScopeProgramOutcome
}

// Threshold is the explicit minimum passing value for one plan and scope.
type Threshold struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CoursePlanID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_threshold_plan_scope,priority:1" json:"course_plan_id"`
	Scope        ThresholdScope `gorm:"column:scope;type:varchar(32);not null;uniqueIndex:idx_threshold_plan_scope,priority:2" json:"scope"`
	MinValue     float64        `gorm:"column:min_value;not null" json:"min_value"`
	UpdatedAt    time.Time      `gorm:"not null" json:"updated_at"`
}

func (Threshold) TableName() string { return "threshold" }
