package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/quizpages/internal/http/response"
	"github.com/yungbote/quizpages/internal/platform/apierr"
)

// AdminToken requires "Authorization: Bearer <token>" on admin routes. An empty token
// disables the check.
func AdminToken(token string) gin.HandlerFunc {
	token = strings.TrimSpace(token)
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}
		got := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			response.RespondServiceError(c, apierr.New(http.StatusUnauthorized, "unauthorized", errors.New("missing or invalid admin token")))
			c.Abort()
			return
		}
		c.Next()
	}
}
