package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/quizpages/internal/domain"
	"github.com/yungbote/quizpages/internal/http/response"
	"github.com/yungbote/quizpages/internal/pagegen"
	"github.com/yungbote/quizpages/internal/platform/apierr"
	perrors "github.com/yungbote/quizpages/internal/pkg/errors"
	"github.com/yungbote/quizpages/internal/pkg/logger"
)

// PageService is the slice of the generator the admin surface drives.
type PageService interface {
	FullResync(ctx context.Context) (pagegen.Summary, error)
	Sweep(ctx context.Context) (pagegen.Summary, error)
	Reconcile(ctx context.Context, key pagegen.Key) pagegen.Outcome
	ReconcileSlugs(ctx context.Context, scopeSlug, categorySlug string) (pagegen.Outcome, error)
	EnabledScopes(ctx context.Context) ([]*types.Scope, error)
	SetEnabledScopes(ctx context.Context, ids []uuid.UUID) (pagegen.Summary, error)
	HoldSync(ctx context.Context, ttl time.Duration) error
	ReleaseHold(ctx context.Context) error
	Status(ctx context.Context) (pagegen.Status, error)
	Resolve(ctx context.Context, path string) (*types.ManagedDocument, error)
}

type PagesHandler struct {
	log   *logger.Logger
	pages PageService
}

func NewPagesHandler(log *logger.Logger, pages PageService) *PagesHandler {
	return &PagesHandler{log: log.With("handler", "PagesHandler"), pages: pages}
}

// POST /api/admin/pages/sync
func (h *PagesHandler) Sync(c *gin.Context) {
	sum, err := h.pages.FullResync(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"summary": sum})
}

// POST /api/admin/pages/sweep
func (h *PagesHandler) Sweep(c *gin.Context) {
	sum, err := h.pages.Sweep(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"summary": sum})
}

type reconcileRequest struct {
	Key      string `json:"key"`
	Scope    string `json:"scope"`
	Category string `json:"category"`
}

type outcomeView struct {
	Key        string `json:"key"`
	Action     string `json:"action"`
	Reason     string `json:"reason,omitempty"`
	DocumentID uint64 `json:"document_id,omitempty"`
	Retired    int    `json:"retired,omitempty"`
	Purged     int    `json:"purged,omitempty"`
	Error      string `json:"error,omitempty"`
}

func viewOutcome(o pagegen.Outcome) outcomeView {
	v := outcomeView{
		Action:     string(o.Action),
		Reason:     o.Reason,
		DocumentID: o.DocumentID,
		Retired:    o.Retired,
		Purged:     o.Purged,
	}
	if o.Key != nil {
		v.Key = o.Key.String()
	}
	if o.Err != nil {
		v.Error = o.Err.Error()
	}
	return v
}

// POST /api/admin/pages/reconcile
func (h *PagesHandler) Reconcile(c *gin.Context) {
	var req reconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	var out pagegen.Outcome
	if strings.TrimSpace(req.Key) != "" {
		key, err := pagegen.ParseKey(req.Key)
		if err != nil {
			response.RespondServiceError(c, err)
			return
		}
		out = h.pages.Reconcile(c.Request.Context(), key)
	} else {
		var err error
		out, err = h.pages.ReconcileSlugs(c.Request.Context(), req.Scope, req.Category)
		if err != nil {
			response.RespondServiceError(c, err)
			return
		}
	}
	if out.Action == pagegen.ActionFailed {
		response.RespondError(c, http.StatusInternalServerError, "reconcile_failed", out.Err)
		return
	}
	response.RespondOK(c, gin.H{"outcome": viewOutcome(out)})
}

// GET /api/admin/pages/scopes
func (h *PagesHandler) ListScopes(c *gin.Context) {
	scopes, err := h.pages.EnabledScopes(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"scopes": scopes})
}

type setScopesRequest struct {
	ScopeIDs []string `json:"scope_ids"`
}

// PUT /api/admin/pages/scopes
func (h *PagesHandler) SetScopes(c *gin.Context) {
	var req setScopesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	ids := make([]uuid.UUID, 0, len(req.ScopeIDs))
	for _, raw := range req.ScopeIDs {
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			response.RespondServiceError(c, apierr.BadRequest("invalid_scope_id", fmt.Errorf("scope id %q: %w", raw, err)))
			return
		}
		ids = append(ids, id)
	}
	sum, err := h.pages.SetEnabledScopes(c.Request.Context(), ids)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"summary": sum})
}

type holdRequest struct {
	TTLSeconds int `json:"ttl_seconds"`
}

// POST /api/admin/pages/hold
func (h *PagesHandler) Hold(c *gin.Context) {
	var req holdRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
	}
	if req.TTLSeconds < 0 {
		response.RespondServiceError(c, apierr.BadRequest("invalid_ttl", errors.New("ttl_seconds must not be negative")))
		return
	}
	if err := h.pages.HoldSync(c.Request.Context(), time.Duration(req.TTLSeconds)*time.Second); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DELETE /api/admin/pages/hold
func (h *PagesHandler) Release(c *gin.Context) {
	if err := h.pages.ReleaseHold(c.Request.Context()); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/admin/pages/status
func (h *PagesHandler) Status(c *gin.Context) {
	st, err := h.pages.Status(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, st)
}

// Resolve serves the route resolution hook for paths no other route claimed.
func (h *PagesHandler) Resolve(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		response.RespondError(c, http.StatusNotFound, "not_found", errors.New("no route"))
		return
	}
	doc, err := h.pages.Resolve(c.Request.Context(), c.Request.URL.Path)
	if err != nil {
		if !errors.Is(err, perrors.ErrNotFound) {
			h.log.Warn("Route resolution failed", "path", c.Request.URL.Path, "error", err)
		}
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"document": doc})
}
