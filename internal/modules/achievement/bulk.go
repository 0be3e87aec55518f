package achievement

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/obe-achievement/internal/observability"
	"github.com/yungbote/obe-achievement/internal/platform/ctxutil"
)

// RecomputeClassSection recomputes every enrollment of a section on a bounded
// worker pool. Each enrollment is its own transaction; one failing does not
// roll back the others. Once ctx is done no new enrollment is started and the
// remaining ones are reported as cancelled.
func (e *Engine) RecomputeClassSection(ctx context.Context, sectionID uuid.UUID) (*SectionReport, error) {
	ctx, span := observability.StartSpan(ctx, "achievement.recompute_class_section",
		attribute.String("class_section_id", sectionID.String()))
	report, err := e.recomputeClassSection(ctx, sectionID)
	observability.EndSpan(span, err)
	return report, err
}

func (e *Engine) recomputeClassSection(ctx context.Context, sectionID uuid.UUID) (*SectionReport, error) {
	dbc := e.read(ctx)
	section, err := e.repos.Sections.GetByID(dbc, sectionID)
	if err != nil {
		return nil, err
	}
	if section == nil {
		return nil, notFound("class_section", sectionID)
	}
	ids, err := e.repos.Enrollments.ListIDsByClassSectionID(dbc, sectionID)
	if err != nil {
		return nil, err
	}
	return e.RecomputeEnrollments(ctx, sectionID, ids), nil
}

// RecomputeEnrollments runs RecomputeEnrollment for each id with at most
// RecomputeConcurrency in flight. Statuses keep the order of ids.
func (e *Engine) RecomputeEnrollments(ctx context.Context, sectionID uuid.UUID, ids []uuid.UUID) *SectionReport {
	report := &SectionReport{ClassSectionID: sectionID, Enrollments: make([]EnrollmentStatus, len(ids))}
	var mu sync.Mutex

	g := &errgroup.Group{}
	g.SetLimit(e.cfg.RecomputeConcurrency)
	for i, id := range ids {
		i, id := i, id
		if ctx.Err() != nil {
			report.Enrollments[i] = e.unitStatus(id, nil, ctx.Err())
			continue
		}
		g.Go(func() error {
			var st EnrollmentStatus
			if err := ctx.Err(); err != nil {
				st = e.unitStatus(id, nil, err)
			} else {
				results, err := e.RecomputeEnrollment(ctx, id)
				st = e.unitStatus(id, results, err)
			}
			mu.Lock()
			report.Enrollments[i] = st
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	for _, st := range report.Enrollments {
		switch st.Status {
		case UnitSucceeded:
			report.Succeeded++
		case UnitCancelled:
			report.Cancelled++
		default:
			report.Failed++
		}
		e.metrics.IncBulkUnit(string(st.Status))
	}
	fields := []interface{}{
		"class_section_id", sectionID,
		"enrollments", len(ids),
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"cancelled", report.Cancelled,
	}
	e.log.Info("class section recompute finished", append(fields, ctxutil.LogFields(ctx)...)...)
	return report
}

func (e *Engine) unitStatus(id uuid.UUID, results []OutcomeResult, err error) EnrollmentStatus {
	st := EnrollmentStatus{EnrollmentID: id}
	switch {
	case err == nil:
		st.Status = UnitSucceeded
		st.Outcomes = len(results)
		for _, r := range results {
			if r.Changed {
				st.Changed++
			}
		}
		return st
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		st.Status = UnitCancelled
	default:
		st.Status = UnitFailed
	}
	st.Err = err
	st.Error = err.Error()
	return st
}
