package aggregates

import (
	"errors"
	"fmt"
	"math"
	"strings"

	pkgerrors "github.com/yungbote/obe-achievement/internal/pkg/errors"
)

// RequirePlanUnlocked refuses structure mutation while the approval workflow
// holds the plan lock.
func RequirePlanUnlocked(locked bool, planCode string) error {
	if !locked {
		return nil
	}
	return errors.Join(pkgerrors.ErrPlanLocked, fmt.Errorf("course plan %q is locked", strings.TrimSpace(planCode)))
}

// RequirePercent validates a value on the 0..100 achievement scale.
func RequirePercent(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > 100 {
		return ValidationError(fmt.Sprintf("%s must be within 0..100, got %v", strings.TrimSpace(name), v))
	}
	return nil
}

// RequireFinite rejects NaN and infinities.
func RequireFinite(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ValidationError(fmt.Sprintf("%s must be a finite number", strings.TrimSpace(name)))
	}
	return nil
}
