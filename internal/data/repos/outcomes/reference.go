package outcomes

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/obe-achievement/internal/domain"
	"github.com/yungbote/obe-achievement/internal/platform/dbctx"
	"github.com/yungbote/obe-achievement/internal/platform/logger"
)

// Reference data is owned by external CRUD. These repos only read it, except
// for Create which exists for seeding and tests.

type CoursePlanRepo interface {
	Create(dbc dbctx.Context, rows []*types.CoursePlan) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.CoursePlan, error)
}

type coursePlanRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCoursePlanRepo(db *gorm.DB, baseLog *logger.Logger) CoursePlanRepo {
	return &coursePlanRepo{db: db, log: baseLog.With("repo", "CoursePlanRepo")}
}

func (r *coursePlanRepo) Create(dbc dbctx.Context, rows []*types.CoursePlan) error {
	if len(rows) == 0 {
		return nil
	}
	return dbc.DB(r.db).Create(&rows).Error
}

func (r *coursePlanRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.CoursePlan, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.CoursePlan
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

type CourseOutcomeRepo interface {
	Create(dbc dbctx.Context, rows []*types.CourseOutcome) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.CourseOutcome, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.CourseOutcome, error)
	ListByCoursePlanID(dbc dbctx.Context, planID uuid.UUID) ([]*types.CourseOutcome, error)
}

type courseOutcomeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseOutcomeRepo(db *gorm.DB, baseLog *logger.Logger) CourseOutcomeRepo {
	return &courseOutcomeRepo{db: db, log: baseLog.With("repo", "CourseOutcomeRepo")}
}

func (r *courseOutcomeRepo) Create(dbc dbctx.Context, rows []*types.CourseOutcome) error {
	if len(rows) == 0 {
		return nil
	}
	return dbc.DB(r.db).Create(&rows).Error
}

func (r *courseOutcomeRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.CourseOutcome, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.CourseOutcome
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *courseOutcomeRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.CourseOutcome, error) {
	var out []*types.CourseOutcome
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("id IN ?", ids).Order("code ASC, id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *courseOutcomeRepo) ListByCoursePlanID(dbc dbctx.Context, planID uuid.UUID) ([]*types.CourseOutcome, error) {
	var out []*types.CourseOutcome
	if planID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("course_plan_id = ?", planID).Order("code ASC, id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

type ProgramOutcomeRepo interface {
	Create(dbc dbctx.Context, rows []*types.ProgramOutcome) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ProgramOutcome, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.ProgramOutcome, error)
}

type programOutcomeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProgramOutcomeRepo(db *gorm.DB, baseLog *logger.Logger) ProgramOutcomeRepo {
	return &programOutcomeRepo{db: db, log: baseLog.With("repo", "ProgramOutcomeRepo")}
}

func (r *programOutcomeRepo) Create(dbc dbctx.Context, rows []*types.ProgramOutcome) error {
	if len(rows) == 0 {
		return nil
	}
	return dbc.DB(r.db).Create(&rows).Error
}

func (r *programOutcomeRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ProgramOutcome, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.ProgramOutcome
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *programOutcomeRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.ProgramOutcome, error) {
	var out []*types.ProgramOutcome
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("id IN ?", ids).Order("code ASC, id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

type ClassSectionRepo interface {
	Create(dbc dbctx.Context, rows []*types.ClassSection) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ClassSection, error)
}

type classSectionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewClassSectionRepo(db *gorm.DB, baseLog *logger.Logger) ClassSectionRepo {
	return &classSectionRepo{db: db, log: baseLog.With("repo", "ClassSectionRepo")}
}

func (r *classSectionRepo) Create(dbc dbctx.Context, rows []*types.ClassSection) error {
	if len(rows) == 0 {
		return nil
	}
	return dbc.DB(r.db).Create(&rows).Error
}

func (r *classSectionRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ClassSection, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.ClassSection
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

type EnrollmentRepo interface {
	Create(dbc dbctx.Context, rows []*types.Enrollment) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Enrollment, error)
	// LockByID reads the enrollment with SELECT ... FOR UPDATE. Must run inside
	// a transaction; drivers without row locks ignore the clause.
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Enrollment, error)
	ListIDsByClassSectionID(dbc dbctx.Context, sectionID uuid.UUID) ([]uuid.UUID, error)
}

type enrollmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEnrollmentRepo(db *gorm.DB, baseLog *logger.Logger) EnrollmentRepo {
	return &enrollmentRepo{db: db, log: baseLog.With("repo", "EnrollmentRepo")}
}

func (r *enrollmentRepo) Create(dbc dbctx.Context, rows []*types.Enrollment) error {
	if len(rows) == 0 {
		return nil
	}
	return dbc.DB(r.db).Create(&rows).Error
}

func (r *enrollmentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Enrollment, error) {
	return r.get(dbc, id, false)
}

func (r *enrollmentRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Enrollment, error) {
	return r.get(dbc, id, true)
}

func (r *enrollmentRepo) get(dbc dbctx.Context, id uuid.UUID, lock bool) (*types.Enrollment, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	q := dbc.DB(r.db)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var row types.Enrollment
	if err := q.Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *enrollmentRepo) ListIDsByClassSectionID(dbc dbctx.Context, sectionID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if sectionID == uuid.Nil {
		return ids, nil
	}
	err := dbc.DB(r.db).
		Model(&types.Enrollment{}).
		Where("class_section_id = ?", sectionID).
		Order("created_at ASC, id ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
