package achievement

import (
	"github.com/google/uuid"

	"github.com/yungbote/obe-achievement/internal/data/repos"
	types "github.com/yungbote/obe-achievement/internal/domain"
	"github.com/yungbote/obe-achievement/internal/platform/dbctx"
)

// AssessmentTypeCatalog resolves assessment categories. Types are immutable
// reference data.
type AssessmentTypeCatalog struct {
	repo repos.AssessmentTypeRepo
}

func NewAssessmentTypeCatalog(repo repos.AssessmentTypeRepo) *AssessmentTypeCatalog {
	return &AssessmentTypeCatalog{repo: repo}
}

func (c *AssessmentTypeCatalog) List(dbc dbctx.Context) ([]*types.AssessmentType, error) {
	return c.repo.List(dbc)
}

// Resolve returns the categories for ids. Unknown ids are absent from the map.
func (c *AssessmentTypeCatalog) Resolve(dbc dbctx.Context, ids []uuid.UUID) (map[uuid.UUID]*types.AssessmentType, error) {
	out := make(map[uuid.UUID]*types.AssessmentType, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := c.repo.GetByIDs(dbc, ids)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		if r != nil {
			out[r.ID] = r
		}
	}
	return out, nil
}
