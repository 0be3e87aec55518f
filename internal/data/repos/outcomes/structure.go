package outcomes

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/obe-achievement/internal/domain"
	"github.com/yungbote/obe-achievement/internal/platform/dbctx"
	"github.com/yungbote/obe-achievement/internal/platform/logger"
)

type AssessmentTypeRepo interface {
	Create(dbc dbctx.Context, rows []*types.AssessmentType) error
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.AssessmentType, error)
	List(dbc dbctx.Context) ([]*types.AssessmentType, error)
}

type assessmentTypeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssessmentTypeRepo(db *gorm.DB, baseLog *logger.Logger) AssessmentTypeRepo {
	return &assessmentTypeRepo{db: db, log: baseLog.With("repo", "AssessmentTypeRepo")}
}

func (r *assessmentTypeRepo) Create(dbc dbctx.Context, rows []*types.AssessmentType) error {
	if len(rows) == 0 {
		return nil
	}
	return dbc.DB(r.db).Create(&rows).Error
}

func (r *assessmentTypeRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.AssessmentType, error) {
	var out []*types.AssessmentType
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *assessmentTypeRepo) List(dbc dbctx.Context) ([]*types.AssessmentType, error) {
	var out []*types.AssessmentType
	if err := dbc.DB(r.db).Order("category ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

type WeightTemplateRepo interface {
	Create(dbc dbctx.Context, rows []*types.WeightTemplate) error
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.WeightTemplate, error)
	ListByPlanAndOutcome(dbc dbctx.Context, planID, courseOutcomeID uuid.UUID) ([]*types.WeightTemplate, error)
}

type weightTemplateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWeightTemplateRepo(db *gorm.DB, baseLog *logger.Logger) WeightTemplateRepo {
	return &weightTemplateRepo{db: db, log: baseLog.With("repo", "WeightTemplateRepo")}
}

func (r *weightTemplateRepo) Create(dbc dbctx.Context, rows []*types.WeightTemplate) error {
	if len(rows) == 0 {
		return nil
	}
	return dbc.DB(r.db).Create(&rows).Error
}

func (r *weightTemplateRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.WeightTemplate, error) {
	var out []*types.WeightTemplate
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *weightTemplateRepo) ListByPlanAndOutcome(dbc dbctx.Context, planID, courseOutcomeID uuid.UUID) ([]*types.WeightTemplate, error) {
	var out []*types.WeightTemplate
	if planID == uuid.Nil || courseOutcomeID == uuid.Nil {
		return out, nil
	}
	err := dbc.DB(r.db).
		Where("course_plan_id = ? AND course_outcome_id = ?", planID, courseOutcomeID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

type ComponentRepo interface {
	Create(dbc dbctx.Context, rows []*types.Component) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Component, error)
	ListBySectionAndTemplateIDs(dbc dbctx.Context, sectionID uuid.UUID, templateIDs []uuid.UUID) ([]*types.Component, error)
}

type componentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewComponentRepo(db *gorm.DB, baseLog *logger.Logger) ComponentRepo {
	return &componentRepo{db: db, log: baseLog.With("repo", "ComponentRepo")}
}

func (r *componentRepo) Create(dbc dbctx.Context, rows []*types.Component) error {
	if len(rows) == 0 {
		return nil
	}
	return dbc.DB(r.db).Create(&rows).Error
}

func (r *componentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Component, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Component
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

// ListBySectionAndTemplateIDs orders by schedule, then name, then id. Components
// without a schedule sort last.
func (r *componentRepo) ListBySectionAndTemplateIDs(dbc dbctx.Context, sectionID uuid.UUID, templateIDs []uuid.UUID) ([]*types.Component, error) {
	var out []*types.Component
	if sectionID == uuid.Nil || len(templateIDs) == 0 {
		return out, nil
	}
	err := dbc.DB(r.db).
		Where("class_section_id = ? AND weight_template_id IN ?", sectionID, templateIDs).
		Order("CASE WHEN scheduled_at IS NULL THEN 1 ELSE 0 END, scheduled_at ASC, name ASC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

type ContributionLinkRepo interface {
	Create(dbc dbctx.Context, rows []*types.ContributionLink) error
	ListByProgramOutcomeID(dbc dbctx.Context, programOutcomeID uuid.UUID) ([]*types.ContributionLink, error)
	ListByCourseOutcomeIDs(dbc dbctx.Context, courseOutcomeIDs []uuid.UUID) ([]*types.ContributionLink, error)
}

type contributionLinkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContributionLinkRepo(db *gorm.DB, baseLog *logger.Logger) ContributionLinkRepo {
	return &contributionLinkRepo{db: db, log: baseLog.With("repo", "ContributionLinkRepo")}
}

func (r *contributionLinkRepo) Create(dbc dbctx.Context, rows []*types.ContributionLink) error {
	if len(rows) == 0 {
		return nil
	}
	return dbc.DB(r.db).Create(&rows).Error
}

func (r *contributionLinkRepo) ListByProgramOutcomeID(dbc dbctx.Context, programOutcomeID uuid.UUID) ([]*types.ContributionLink, error) {
	var out []*types.ContributionLink
	if programOutcomeID == uuid.Nil {
		return out, nil
	}
	err := dbc.DB(r.db).
		Where("program_outcome_id = ?", programOutcomeID).
		Order("course_outcome_id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *contributionLinkRepo) ListByCourseOutcomeIDs(dbc dbctx.Context, courseOutcomeIDs []uuid.UUID) ([]*types.ContributionLink, error) {
	var out []*types.ContributionLink
	if len(courseOutcomeIDs) == 0 {
		return out, nil
	}
	err := dbc.DB(r.db).
		Where("course_outcome_id IN ?", courseOutcomeIDs).
		Order("program_outcome_id ASC, course_outcome_id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

type ThresholdRepo interface {
	Get(dbc dbctx.Context, planID uuid.UUID, scope types.ThresholdScope) (*types.Threshold, error)
	Upsert(dbc dbctx.Context, planID uuid.UUID, scope types.ThresholdScope, minValue float64) error
}

type thresholdRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewThresholdRepo(db *gorm.DB, baseLog *logger.Logger) ThresholdRepo {
	return &thresholdRepo{db: db, log: baseLog.With("repo", "ThresholdRepo")}
}

func (r *thresholdRepo) Get(dbc dbctx.Context, planID uuid.UUID, scope types.ThresholdScope) (*types.Threshold, error) {
	if planID == uuid.Nil {
		return nil, nil
	}
	var row types.Threshold
	err := dbc.DB(r.db).
		Where("course_plan_id = ? AND scope = ?", planID, scope).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *thresholdRepo) Upsert(dbc dbctx.Context, planID uuid.UUID, scope types.ThresholdScope, minValue float64) error {
	row := &types.Threshold{
		ID:           uuid.New(),
		CoursePlanID: planID,
		Scope:        scope,
		MinValue:     minValue,
		UpdatedAt:    time.Now().UTC(),
	}
	return dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "course_plan_id"}, {Name: "scope"}},
			DoUpdates: clause.AssignmentColumns([]string{"min_value", "updated_at"}),
		}).
		Create(row).Error
}
