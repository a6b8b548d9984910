package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/quizpages/internal/events"
	"github.com/yungbote/quizpages/internal/http/response"
	"github.com/yungbote/quizpages/internal/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, ev events.Event) error
}

// EventHandler accepts committed classification mutations from collaborating services.
type EventHandler struct {
	log *logger.Logger
	bus Publisher
}

func NewEventHandler(log *logger.Logger, bus Publisher) *EventHandler {
	return &EventHandler{log: log.With("handler", "EventHandler"), bus: bus}
}

// POST /api/events
func (h *EventHandler) Publish(c *gin.Context) {
	var ev events.Event
	if err := c.ShouldBindJSON(&ev); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := ev.Validate(); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_event", err)
		return
	}
	if err := h.bus.Publish(c.Request.Context(), ev); err != nil {
		h.log.Error("Event handling failed", "kind", ev.Kind, "error", err)
		response.RespondServiceError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}
