package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/obe-achievement/internal/domain/aggregates"
	pkgerrors "github.com/yungbote/obe-achievement/internal/pkg/errors"
	"github.com/yungbote/obe-achievement/internal/platform/apierr"
)

var codeStatus = map[domainagg.ErrorCode]int{
	domainagg.CodeValidation:         http.StatusBadRequest,
	domainagg.CodeNotFound:           http.StatusNotFound,
	domainagg.CodeConflict:           http.StatusConflict,
	domainagg.CodeConfiguration:      http.StatusUnprocessableEntity,
	domainagg.CodeConsistency:        http.StatusConflict,
	domainagg.CodePreconditionFailed: http.StatusPreconditionFailed,
	domainagg.CodeRetryable:          http.StatusServiceUnavailable,
	domainagg.CodeInternal:           http.StatusInternalServerError,
}

// FromError classifies an engine error. Reads return bare typed errors, writes
// return aggregate-coded ones; both land on the same status and code.
func FromError(err error) *apierr.Error {
	if ae, ok := apierr.From(err); ok {
		return ae
	}
	code := domainagg.CodeOf(err)
	if code == "" {
		switch {
		case errors.Is(err, pkgerrors.ErrNotFound):
			code = domainagg.CodeNotFound
		case errors.Is(err, pkgerrors.ErrInvalidArgument):
			code = domainagg.CodeValidation
		case errors.Is(err, pkgerrors.ErrConfiguration):
			code = domainagg.CodeConfiguration
		case errors.Is(err, pkgerrors.ErrConsistency):
			code = domainagg.CodeConsistency
		case errors.Is(err, pkgerrors.ErrPlanLocked):
			code = domainagg.CodePreconditionFailed
		default:
			code = domainagg.CodeInternal
		}
	}
	status, ok := codeStatus[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	return apierr.New(status, string(code), err)
}

func RespondEngineError(c *gin.Context, err error) {
	ae := FromError(err)
	RespondError(c, ae.Status, ae.Code, ae.Err)
}
