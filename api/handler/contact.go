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
	contactUC "github.com/agentbook/backend/usecase/contact"
)

type ContactHandler struct {
	baseHandler
	uc *contactUC.UseCase
}

func NewContactHandler(uc *contactUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *ContactHandler {
	return &ContactHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List contacts
// @Tags contacts
// @Router /api/v1/contacts [get]
func (h *ContactHandler) ListContacts(ctx *fasthttp.RequestCtx) {
	agentID := h.agentID(ctx)
	if agentID == "" {
		return
	}

	filter := repository.ContactFilter{
		AgentID: agentID,
		Status:  string(ctx.QueryArgs().Peek("status")),
		Limit:   parseInt(string(ctx.QueryArgs().Peek("limit")), 50),
		Offset:  parseInt(string(ctx.QueryArgs().Peek("offset")), 0),
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	contacts, err := h.uc.ListContacts(stdCtx, filter)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, contacts)
}

// @Summary Get contact
// @Tags contacts
// @Router /api/v1/contacts/{id} [get]
func (h *ContactHandler) GetContact(ctx *fasthttp.RequestCtx) {
	agentID := h.agentID(ctx)
	if agentID == "" {
		return
	}

	id, _ := ctx.UserValue("id").(string)
	if id == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing contact id", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	contact, err := h.uc.GetContact(stdCtx, agentID, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, contact)
}

// @Summary Create contact
// @Tags contacts
// @Router /api/v1/contacts [post]
func (h *ContactHandler) CreateContact(ctx *fasthttp.RequestCtx) {
	agentID := h.agentID(ctx)
	if agentID == "" {
		return
	}

	contact, ok := h.parseContact(ctx, agentID)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.CreateContact(stdCtx, contact)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Update contact
// @Tags contacts
// @Router /api/v1/contacts/{id} [put]
func (h *ContactHandler) UpdateContact(ctx *fasthttp.RequestCtx) {
	agentID := h.agentID(ctx)
	if agentID == "" {
		return
	}

	contact, ok := h.parseContact(ctx, agentID)
	if !ok {
		return
	}
	if contact.ID == "" {
		if id, ok := ctx.UserValue("id").(string); ok {
			contact.ID = id
		}
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.UpdateContact(stdCtx, agentID, contact)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Log interaction
// @Tags activity
// @Router /api/v1/interactions [post]
func (h *ContactHandler) LogInteraction(ctx *fasthttp.RequestCtx) {
	agentID := h.agentID(ctx)
	if agentID == "" {
		return
	}

	var req transport.InteractionRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}

	interaction := &domain.Interaction{
		ContactID:       req.ContactID,
		Type:            domain.InteractionType(req.Type),
		Subject:         req.Subject,
		Content:         req.Content,
		Outcome:         req.Outcome,
		DurationMinutes: req.DurationMinutes,
	}
	if req.NextFollowUp != "" {
		if parsed, err := time.Parse(time.RFC3339, req.NextFollowUp); err == nil {
			interaction.NextFollowUp = &parsed
		}
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.LogInteraction(stdCtx, agentID, interaction)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Add note
// @Tags activity
// @Router /api/v1/notes [post]
func (h *ContactHandler) AddNote(ctx *fasthttp.RequestCtx) {
	agentID := h.agentID(ctx)
	if agentID == "" {
		return
	}

	var req transport.NoteRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}

	note := &domain.Note{
		ContactID: req.ContactID,
		NoteType:  req.NoteType,
		Content:   req.Content,
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.AddNote(stdCtx, agentID, note)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

func (h *ContactHandler) parseContact(ctx *fasthttp.RequestCtx, agentID string) (*domain.Contact, bool) {
	var req transport.ContactRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return nil, false
	}

	contact := &domain.Contact{
		ID:              req.ID,
		AgentID:         agentID,
		LinkedAccountID: req.LinkedAccountID,
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		Status:          domain.ContactStatus(req.Status),
		Metadata:        req.Metadata,
	}
	if contact.Status == "" {
		contact.Status = domain.ContactStatusLead
	}

	return contact, true
}
