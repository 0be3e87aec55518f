package outcomes

import (
	"time"

	"github.com/google/uuid"
)

// CoursePlan is the per-course lesson plan that owns outcomes, templates and
// thresholds. Locked is set by the approval workflow; while locked, callers
// must not mutate the plan's weight structure.
type CoursePlan struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Code      string    `gorm:"column:code;not null;index" json:"code"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	Locked    bool      `gorm:"column:locked;not null;default:false" json:"locked"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (CoursePlan) TableName() string { return "course_plan" }

// CourseOutcome is a course-level learning outcome (CLO).
type CourseOutcome struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CoursePlanID uuid.UUID `gorm:"type:uuid;not null;index" json:"course_plan_id"`
	Code         string    `gorm:"column:code;not null" json:"code"`
	Description  string    `gorm:"column:description" json:"description"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
}

func (CourseOutcome) TableName() string { return "course_outcome" }

// ProgramOutcome is a program-level learning outcome (PLO).
type ProgramOutcome struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Code        string    `gorm:"column:code;not null;uniqueIndex" json:"code"`
	Description string    `gorm:"column:description" json:"description"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
}

func (ProgramOutcome) TableName() string { return "program_outcome" }

type ClassSection struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CoursePlanID uuid.UUID `gorm:"type:uuid;not null;index" json:"course_plan_id"`
	Name         string    `gorm:"column:name;not null" json:"name"`
	Term         string    `gorm:"column:term" json:"term"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
}

func (ClassSection) TableName() string { return "class_section" }

type Enrollment struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ClassSectionID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_enrollment_section_student" json:"class_section_id"`
	StudentID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_section_student" json:"student_id"`
	Status         string    `gorm:"column:status;not null;default:'active'" json:"status"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null" json:"updated_at"`
}

func (Enrollment) TableName() string { return "enrollment" }
