package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/agentbook/backend/api/transport"
	"github.com/agentbook/backend/domain"
	"github.com/agentbook/backend/pkg/httpcontext"
	"github.com/agentbook/backend/repository"
	appointmentUC "github.com/agentbook/backend/usecase/appointment"
	contactUC "github.com/agentbook/backend/usecase/contact"
)

type AppointmentHandler struct {
	baseHandler
	uc       *appointmentUC.UseCase
	contacts *contactUC.UseCase
}

func NewAppointmentHandler(uc *appointmentUC.UseCase, contacts *contactUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *AppointmentHandler {
	return &AppointmentHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
		contacts:    contacts,
	}
}

// @Summary List appointments
// @Tags appointments
// @Router /api/v1/appointments [get]
func (h *AppointmentHandler) ListAppointments(ctx *fasthttp.RequestCtx) {
	agentID := h.agentID(ctx)
	if agentID == "" {
		return
	}

	filter := repository.AppointmentFilter{
		AgentID: agentID,
		Status:  string(ctx.QueryArgs().Peek("status")),
		Limit:   parseInt(string(ctx.QueryArgs().Peek("limit")), 50),
		Offset:  parseInt(string(ctx.QueryArgs().Peek("offset")), 0),
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	appointments, err := h.uc.List(stdCtx, filter)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, appointments)
}

// @Summary Schedule appointment
// @Tags appointments
// @Router /api/v1/appointments [post]
func (h *AppointmentHandler) CreateAppointment(ctx *fasthttp.RequestCtx) {
	agentID := h.agentID(ctx)
	if agentID == "" {
		return
	}

	var req transport.AppointmentCreateRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid date, expected YYYY-MM-DD", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	contact, err := h.contacts.GetContact(stdCtx, agentID, req.ContactID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	result, err := h.uc.Create(stdCtx, appointmentUC.CreateInput{
		AgentID:         agentID,
		Contact:         contact,
		Type:            domain.AppointmentType(req.Type),
		Date:            date,
		Time:            req.Time,
		DurationMinutes: req.DurationMinutes,
		Notes:           req.Notes,
		PropertyRef:     req.PropertyRef,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, result)
}

// @Summary Transition appointment status
// @Tags appointments
// @Router /api/v1/appointments/{id}/transition [post]
func (h *AppointmentHandler) TransitionAppointment(ctx *fasthttp.RequestCtx) {
	agentID := h.agentID(ctx)
	if agentID == "" {
		return
	}

	id, _ := ctx.UserValue("id").(string)
	if id == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing appointment id", nil))
		return
	}

	var req transport.AppointmentTransitionRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.uc.Transition(stdCtx, agentID, id, domain.AppointmentStatus(req.Status), req.Notes)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, result)
}
