package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/obe-achievement/internal/platform/ctxutil"
)

type APIError struct {
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// RespondError writes the error envelope. The request id lets a caller quote
// the failing request back to operators.
func RespondError(c *gin.Context, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	apiErr := APIError{Message: msg, Code: code}
	if td := ctxutil.GetTraceData(c.Request.Context()); td != nil {
		apiErr.RequestID = td.RequestID
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{Error: apiErr})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
