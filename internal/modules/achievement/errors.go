package achievement

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	pkgerrors "github.com/yungbote/obe-achievement/internal/pkg/errors"
)

// ConfigurationError reports a weight structure that cannot be evaluated as
// declared. It is never corrected silently.
type ConfigurationError struct {
	CoursePlanID     uuid.UUID
	CourseOutcomeID  uuid.UUID
	ProgramOutcomeID uuid.UUID
	Reason           string
}

func (e *ConfigurationError) Error() string {
	var b strings.Builder
	b.WriteString("configuration error")
	if e.CourseOutcomeID != uuid.Nil {
		fmt.Fprintf(&b, " course_outcome=%s", e.CourseOutcomeID)
	}
	if e.ProgramOutcomeID != uuid.Nil {
		fmt.Fprintf(&b, " program_outcome=%s", e.ProgramOutcomeID)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	return b.String()
}

func (e *ConfigurationError) Is(target error) bool { return target == pkgerrors.ErrConfiguration }

// NotFoundError reports a missing enrollment, outcome, plan, section or
// component.
type NotFoundError struct {
	Kind string
	ID   uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == pkgerrors.ErrNotFound }

// ConsistencyError reports a program outcome rollup requested before a course
// outcome achievement it depends on exists (strict dependency mode only).
type ConsistencyError struct {
	EnrollmentID     uuid.UUID
	ProgramOutcomeID uuid.UUID
	CourseOutcomeID  uuid.UUID
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("program outcome %s for enrollment %s depends on course outcome %s which has not been computed",
		e.ProgramOutcomeID, e.EnrollmentID, e.CourseOutcomeID)
}

func (e *ConsistencyError) Is(target error) bool { return target == pkgerrors.ErrConsistency }

func notFound(kind string, id uuid.UUID) error {
	return &NotFoundError{Kind: kind, ID: id}
}

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", pkgerrors.ErrInvalidArgument, fmt.Sprintf(format, args...))
}
