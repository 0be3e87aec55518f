package outcomes

import (
	"time"

	"github.com/google/uuid"
)

// RawScore is the only externally writable input of the engine. One row per
// (enrollment, component); resubmission overwrites in place.
type RawScore struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	EnrollmentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_raw_score_enrollment_component,priority:1" json:"enrollment_id"`
	ComponentID  uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_raw_score_enrollment_component,priority:2" json:"component_id"`
	Value        float64   `gorm:"column:value;not null" json:"value"`
	Note         string    `gorm:"column:note" json:"note,omitempty"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}

func (RawScore) TableName() string { return "raw_score" }
