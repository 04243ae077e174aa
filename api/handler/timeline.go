package handler

import (
	"bufio"
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/agentbook/backend/api/transport"
	"github.com/agentbook/backend/domain"
	"github.com/agentbook/backend/internal/services/refresh"
	"github.com/agentbook/backend/pkg/httpcontext"
	timelineUC "github.com/agentbook/backend/usecase/timeline"
)

type TimelineHandler struct {
	baseHandler
	uc          *timelineUC.UseCase
	coordinator *refresh.Coordinator
}

func NewTimelineHandler(uc *timelineUC.UseCase, coordinator *refresh.Coordinator, adapter *httpcontext.Adapter, logger *zap.Logger) *TimelineHandler {
	return &TimelineHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
		coordinator: coordinator,
	}
}

// @Summary Get contact timeline
// @Tags timeline
// @Router /api/v1/contacts/{id}/timeline [get]
func (h *TimelineHandler) GetTimeline(ctx *fasthttp.RequestCtx) {
	agentID := h.agentID(ctx)
	if agentID == "" {
		return
	}

	contactID, _ := ctx.UserValue("id").(string)
	if contactID == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing contact id", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	timeline, err := h.uc.GetTimeline(stdCtx, agentID, contactID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	var meta interface{}
	if timeline.Degraded() {
		meta = map[string]interface{}{"partial": true, "failed_sources": timeline.Diagnostics}
	}
	h.respondJSON(ctx, http.StatusOK, transport.NewSuccess(timeline, meta))
}

// StreamTimeline pushes the timeline as server-sent events: one snapshot on
// connect, then a fresh one after each debounced change burst. The watch is
// released when the client disconnects.
//
// @Summary Stream contact timeline updates
// @Tags timeline
// @Router /api/v1/contacts/{id}/timeline/stream [get]
func (h *TimelineHandler) StreamTimeline(ctx *fasthttp.RequestCtx) {
	agentID := h.agentID(ctx)
	if agentID == "" {
		return
	}

	contactID, _ := ctx.UserValue("id").(string)
	if contactID == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing contact id", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	keys, err := h.uc.ResolveWatchKeys(stdCtx, agentID, contactID)
	cancel()
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	ctx.Response.Header.SetContentType("text/event-stream")
	ctx.Response.Header.Set("Cache-Control", "no-cache")
	ctx.Response.Header.Set("Connection", "keep-alive")

	updates := make(chan struct{}, 1)
	watcher, err := h.coordinator.Watch(refresh.WatchSpec{
		AgentID:   agentID,
		ContactID: contactID,
		Keys:      keys,
	}, func() {
		select {
		case updates <- struct{}{}:
		default:
		}
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	done := ctx.Done()
	ctx.SetBodyStreamWriter(func(w *bufio.Writer) {
		defer watcher.Close()

		h.writeSnapshot(w, agentID, contactID)
		for {
			select {
			case <-done:
				return
			case <-updates:
				invCtx, invCancel := h.adapter.Background()
				h.uc.Invalidate(invCtx, agentID, contactID)
				invCancel()
				if !h.writeSnapshot(w, agentID, contactID) {
					return
				}
			}
		}
	})
}

// writeSnapshot fetches and flushes one timeline frame; false means the
// client went away.
func (h *TimelineHandler) writeSnapshot(w *bufio.Writer, agentID, contactID string) bool {
	fetchCtx, cancel := h.adapter.Background()
	defer cancel()

	timeline, err := h.uc.GetTimeline(fetchCtx, agentID, contactID)
	if err != nil {
		h.logger.Warn("timeline stream fetch failed",
			zap.String("contact_id", contactID),
			zap.Error(err))
		return true
	}

	payload, err := json.Marshal(timeline)
	if err != nil {
		return true
	}
	if _, err := w.WriteString("event: timeline\ndata: "); err != nil {
		return false
	}
	if _, err := w.Write(payload); err != nil {
		return false
	}
	if _, err := w.WriteString("\n\n"); err != nil {
		return false
	}
	return w.Flush() == nil
}
