package outcomes

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ensureID assigns a v4 id when the caller left it nil, so inserts work on
// stores without a uuid default (sqlite).
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (p *CoursePlan) BeforeCreate(*gorm.DB) error                { ensureID(&p.ID); return nil }
func (o *CourseOutcome) BeforeCreate(*gorm.DB) error             { ensureID(&o.ID); return nil }
func (o *ProgramOutcome) BeforeCreate(*gorm.DB) error            { ensureID(&o.ID); return nil }
func (s *ClassSection) BeforeCreate(*gorm.DB) error              { ensureID(&s.ID); return nil }
func (e *Enrollment) BeforeCreate(*gorm.DB) error                { ensureID(&e.ID); return nil }
func (t *AssessmentType) BeforeCreate(*gorm.DB) error            { ensureID(&t.ID); return nil }
func (t *WeightTemplate) BeforeCreate(*gorm.DB) error            { ensureID(&t.ID); return nil }
func (c *Component) BeforeCreate(*gorm.DB) error                 { ensureID(&c.ID); return nil }
func (l *ContributionLink) BeforeCreate(*gorm.DB) error          { ensureID(&l.ID); return nil }
func (t *Threshold) BeforeCreate(*gorm.DB) error                 { ensureID(&t.ID); return nil }
func (s *RawScore) BeforeCreate(*gorm.DB) error                  { ensureID(&s.ID); return nil }
func (a *CourseOutcomeAchievement) BeforeCreate(*gorm.DB) error  { ensureID(&a.ID); return nil }
func (a *ProgramOutcomeAchievement) BeforeCreate(*gorm.DB) error { ensureID(&a.ID); return nil }
