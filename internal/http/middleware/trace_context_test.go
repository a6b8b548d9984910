package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/quizpages/internal/pkg/ctxutil"
)

func TestAttachTraceContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name   string
		header string
		keep   bool
	}{
		{name: "caller id kept", header: "sync-42", keep: true},
		{name: "missing id generated", header: ""},
		{name: "unsafe id replaced", header: "bad id\r\nX-Evil: 1"},
		{name: "overlong id replaced", header: strings.Repeat("a", 65)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var seen *ctxutil.TraceData
			r := gin.New()
			r.Use(AttachTraceContext())
			r.GET("/healthcheck", func(c *gin.Context) {
				seen = ctxutil.GetTraceData(c.Request.Context())
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/healthcheck", nil)
			if tc.header != "" {
				req.Header.Set(HeaderRequestID, tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			got := w.Header().Get(HeaderRequestID)
			if seen == nil || seen.RequestID != got {
				t.Fatalf("context request id %+v does not match header %q", seen, got)
			}
			if tc.keep && got != tc.header {
				t.Fatalf("expected %q, got %q", tc.header, got)
			}
			if !tc.keep && (got == "" || got == tc.header) {
				t.Fatalf("expected a generated id, got %q", got)
			}
			if w.Header().Get(HeaderTraceID) != "" || seen.TraceID != "" {
				t.Fatalf("no span is active, trace id should be empty")
			}
		})
	}
}
