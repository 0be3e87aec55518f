package outcomes

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/obe-achievement/internal/domain"
	"github.com/yungbote/obe-achievement/internal/platform/dbctx"
	"github.com/yungbote/obe-achievement/internal/platform/logger"
)

// Derived rows are saved with read-check-then-insert-or-update inside the
// caller's enrollment transaction. The unique (enrollment, outcome) index
// rejects a concurrent duplicate insert. An unchanged row is not written, so
// UpdatedAt only moves when the stored verdict or its inputs do.

type CourseOutcomeAchievementRepo interface {
	Get(dbc dbctx.Context, enrollmentID, courseOutcomeID uuid.UUID) (*types.CourseOutcomeAchievement, error)
	ListByEnrollmentID(dbc dbctx.Context, enrollmentID uuid.UUID) ([]*types.CourseOutcomeAchievement, error)
	ListByEnrollmentAndOutcomeIDs(dbc dbctx.Context, enrollmentID uuid.UUID, courseOutcomeIDs []uuid.UUID) ([]*types.CourseOutcomeAchievement, error)
	// Save stores row and reports whether anything was written. On return row
	// mirrors the stored state.
	Save(dbc dbctx.Context, row *types.CourseOutcomeAchievement) (bool, error)
}

type courseOutcomeAchievementRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseOutcomeAchievementRepo(db *gorm.DB, baseLog *logger.Logger) CourseOutcomeAchievementRepo {
	return &courseOutcomeAchievementRepo{db: db, log: baseLog.With("repo", "CourseOutcomeAchievementRepo")}
}

func (r *courseOutcomeAchievementRepo) Get(dbc dbctx.Context, enrollmentID, courseOutcomeID uuid.UUID) (*types.CourseOutcomeAchievement, error) {
	if enrollmentID == uuid.Nil || courseOutcomeID == uuid.Nil {
		return nil, nil
	}
	var row types.CourseOutcomeAchievement
	err := dbc.DB(r.db).
		Where("enrollment_id = ? AND course_outcome_id = ?", enrollmentID, courseOutcomeID).
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

func (r *courseOutcomeAchievementRepo) ListByEnrollmentID(dbc dbctx.Context, enrollmentID uuid.UUID) ([]*types.CourseOutcomeAchievement, error) {
	var out []*types.CourseOutcomeAchievement
	if enrollmentID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("enrollment_id = ?", enrollmentID).Order("course_outcome_id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *courseOutcomeAchievementRepo) ListByEnrollmentAndOutcomeIDs(dbc dbctx.Context, enrollmentID uuid.UUID, courseOutcomeIDs []uuid.UUID) ([]*types.CourseOutcomeAchievement, error) {
	var out []*types.CourseOutcomeAchievement
	if enrollmentID == uuid.Nil || len(courseOutcomeIDs) == 0 {
		return out, nil
	}
	err := dbc.DB(r.db).
		Where("enrollment_id = ? AND course_outcome_id IN ?", enrollmentID, courseOutcomeIDs).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *courseOutcomeAchievementRepo) Save(dbc dbctx.Context, row *types.CourseOutcomeAchievement) (bool, error) {
	existing, err := r.Get(dbc, row.EnrollmentID, row.CourseOutcomeID)
	if err != nil {
		return false, err
	}
	now := time.Now().UTC()
	if existing == nil {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		row.CreatedAt = now
		row.UpdatedAt = now
		if err := dbc.DB(r.db).Create(row).Error; err != nil {
			return false, err
		}
		return true, nil
	}
	if SameCourseOutcomeAchievement(existing, row) {
		*row = *existing
		return false, nil
	}
	err = dbc.DB(r.db).
		Model(&types.CourseOutcomeAchievement{}).
		Where("id = ?", existing.ID).
		Updates(map[string]interface{}{
			"value":       row.Value,
			"passed":      row.Passed,
			"computable":  row.Computable,
			"weight_base": row.WeightBase,
			"threshold":   row.Threshold,
			"input_hash":  row.InputHash,
			"updated_at":  now,
		}).Error
	if err != nil {
		return false, err
	}
	row.ID = existing.ID
	row.CreatedAt = existing.CreatedAt
	row.UpdatedAt = now
	return true, nil
}

// SameCourseOutcomeAchievement compares the computed columns only.
func SameCourseOutcomeAchievement(a, b *types.CourseOutcomeAchievement) bool {
	return a.Value == b.Value &&
		a.Passed == b.Passed &&
		a.Computable == b.Computable &&
		a.WeightBase == b.WeightBase &&
		a.Threshold == b.Threshold &&
		a.InputHash == b.InputHash
}

type ProgramOutcomeAchievementRepo interface {
	Get(dbc dbctx.Context, enrollmentID, programOutcomeID uuid.UUID) (*types.ProgramOutcomeAchievement, error)
	ListByEnrollmentID(dbc dbctx.Context, enrollmentID uuid.UUID) ([]*types.ProgramOutcomeAchievement, error)
	Save(dbc dbctx.Context, row *types.ProgramOutcomeAchievement) (bool, error)
}

type programOutcomeAchievementRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProgramOutcomeAchievementRepo(db *gorm.DB, baseLog *logger.Logger) ProgramOutcomeAchievementRepo {
	return &programOutcomeAchievementRepo{db: db, log: baseLog.With("repo", "ProgramOutcomeAchievementRepo")}
}

func (r *programOutcomeAchievementRepo) Get(dbc dbctx.Context, enrollmentID, programOutcomeID uuid.UUID) (*types.ProgramOutcomeAchievement, error) {
	if enrollmentID == uuid.Nil || programOutcomeID == uuid.Nil {
		return nil, nil
	}
	var row types.ProgramOutcomeAchievement
	err := dbc.DB(r.db).
		Where("enrollment_id = ? AND program_outcome_id = ?", enrollmentID, programOutcomeID).
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

func (r *programOutcomeAchievementRepo) ListByEnrollmentID(dbc dbctx.Context, enrollmentID uuid.UUID) ([]*types.ProgramOutcomeAchievement, error) {
	var out []*types.ProgramOutcomeAchievement
	if enrollmentID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("enrollment_id = ?", enrollmentID).Order("program_outcome_id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *programOutcomeAchievementRepo) Save(dbc dbctx.Context, row *types.ProgramOutcomeAchievement) (bool, error) {
	existing, err := r.Get(dbc, row.EnrollmentID, row.ProgramOutcomeID)
	if err != nil {
		return false, err
	}
	now := time.Now().UTC()
	if existing == nil {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		row.CreatedAt = now
		row.UpdatedAt = now
		if err := dbc.DB(r.db).Create(row).Error; err != nil {
			return false, err
		}
		return true, nil
	}
	if SameProgramOutcomeAchievement(existing, row) {
		*row = *existing
		return false, nil
	}
	err = dbc.DB(r.db).
		Model(&types.ProgramOutcomeAchievement{}).
		Where("id = ?", existing.ID).
		Updates(map[string]interface{}{
			"value":       row.Value,
			"passed":      row.Passed,
			"computable":  row.Computable,
			"weight_base": row.WeightBase,
			"threshold":   row.Threshold,
			"input_hash":  row.InputHash,
			"updated_at":  now,
		}).Error
	if err != nil {
		return false, err
	}
	row.ID = existing.ID
	row.CreatedAt = existing.CreatedAt
	row.UpdatedAt = now
	return true, nil
}

func SameProgramOutcomeAchievement(a, b *types.ProgramOutcomeAchievement) bool {
	return a.Value == b.Value &&
		a.Passed == b.Passed &&
		a.Computable == b.Computable &&
		a.WeightBase == b.WeightBase &&
		a.Threshold == b.Threshold &&
		a.InputHash == b.InputHash
}
