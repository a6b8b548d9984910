package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/quizpages/internal/pagegen"
	"github.com/yungbote/quizpages/internal/platform/apierr"
	perrors "github.com/yungbote/quizpages/internal/pkg/errors"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondServiceError maps generator and store sentinels onto HTTP statuses.
func RespondServiceError(c *gin.Context, err error) {
	status, code := StatusFor(err)
	RespondError(c, status, code, err)
}

func StatusFor(err error) (int, string) {
	if e, ok := apierr.As(err); ok {
		return e.Status, e.Code
	}
	switch {
	case errors.Is(err, pagegen.ErrResyncInProgress):
		return http.StatusConflict, "resync_in_progress"
	case errors.Is(err, pagegen.ErrSyncHeld):
		return http.StatusLocked, "sync_held"
	case errors.Is(err, perrors.ErrInvalidArgument):
		return http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, perrors.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, perrors.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, perrors.ErrUnavailable):
		return http.StatusServiceUnavailable, "unavailable"
	}
	return http.StatusInternalServerError, "internal"
}
