package outcomes

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/obe-achievement/internal/domain"
	"github.com/yungbote/obe-achievement/internal/platform/dbctx"
	"github.com/yungbote/obe-achievement/internal/platform/logger"
)

type RawScoreRepo interface {
	// Upsert overwrites the score for (enrollment, component) in place and
	// returns the stored row.
	Upsert(dbc dbctx.Context, enrollmentID, componentID uuid.UUID, value float64, note string) (*types.RawScore, error)
	Get(dbc dbctx.Context, enrollmentID, componentID uuid.UUID) (*types.RawScore, error)
	ListByEnrollmentAndComponentIDs(dbc dbctx.Context, enrollmentID uuid.UUID, componentIDs []uuid.UUID) ([]*types.RawScore, error)
}

type rawScoreRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRawScoreRepo(db *gorm.DB, baseLog *logger.Logger) RawScoreRepo {
	return &rawScoreRepo{db: db, log: baseLog.With("repo", "RawScoreRepo")}
}

func (r *rawScoreRepo) Upsert(dbc dbctx.Context, enrollmentID, componentID uuid.UUID, value float64, note string) (*types.RawScore, error) {
	now := time.Now().UTC()
	row := &types.RawScore{
		ID:           uuid.New(),
		EnrollmentID: enrollmentID,
		ComponentID:  componentID,
		Value:        value,
		Note:         strings.TrimSpace(note),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err := dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "enrollment_id"}, {Name: "component_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "note", "updated_at"}),
		}).
		Create(row).Error
	if err != nil {
		return nil, err
	}
	return r.Get(dbc, enrollmentID, componentID)
}

func (r *rawScoreRepo) Get(dbc dbctx.Context, enrollmentID, componentID uuid.UUID) (*types.RawScore, error) {
	if enrollmentID == uuid.Nil || componentID == uuid.Nil {
		return nil, nil
	}
	var row types.RawScore
	err := dbc.DB(r.db).
		Where("enrollment_id = ? AND component_id = ?", enrollmentID, componentID).
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

func (r *rawScoreRepo) ListByEnrollmentAndComponentIDs(dbc dbctx.Context, enrollmentID uuid.UUID, componentIDs []uuid.UUID) ([]*types.RawScore, error) {
	var out []*types.RawScore
	if enrollmentID == uuid.Nil || len(componentIDs) == 0 {
		return out, nil
	}
	err := dbc.DB(r.db).
		Where("enrollment_id = ? AND component_id IN ?", enrollmentID, componentIDs).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
