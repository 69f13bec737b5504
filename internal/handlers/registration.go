package handlers

import (
	"context"

	"github.com/gdg-garage/badminton-api/internal/apperr"
	"github.com/gdg-garage/badminton-api/internal/auth"
	"github.com/gdg-garage/badminton-api/internal/events"
	"github.com/gdg-garage/badminton-api/internal/models"
)

type RegistrationHandler struct {
	ledger      *events.Ledger
	invalidator CacheInvalidator
}

func NewRegistrationHandler(ledger *events.Ledger, invalidator CacheInvalidator) *RegistrationHandler {
	return &RegistrationHandler{ledger: ledger, invalidator: invalidator}
}

type RegistrationRequest struct {
	ID   string `path:"id" doc:"Event ID"`
	Body struct {
		SkillLevel int `json:"skillLevel" doc:"Declared skill level from 1 to 10"`
	}
}

type RegistrationResponse struct {
	Body *models.Registration
}

func (h *RegistrationHandler) HandleRegister(ctx context.Context, input *RegistrationRequest) (*RegistrationResponse, error) {
	p, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return nil, apperr.HTTPError(err)
	}

	reg, err := h.ledger.Register(ctx, p, input.ID, input.Body.SkillLevel)
	if err != nil {
		return nil, apperr.HTTPError(err)
	}

	h.purge(ctx, input.ID)
	return &RegistrationResponse{Body: reg}, nil
}

func (h *RegistrationHandler) HandleUnregister(ctx context.Context, input *EventIDRequest) (*RegistrationResponse, error) {
	p, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return nil, apperr.HTTPError(err)
	}

	reg, err := h.ledger.Unregister(ctx, p, input.ID)
	if err != nil {
		return nil, apperr.HTTPError(err)
	}

	h.purge(ctx, input.ID)
	return &RegistrationResponse{Body: reg}, nil
}

type ParticipantsResponse struct {
	Body *events.ParticipantList
}

func (h *RegistrationHandler) HandleParticipants(ctx context.Context, input *EventIDRequest) (*ParticipantsResponse, error) {
	p, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return nil, apperr.HTTPError(err)
	}

	list, err := h.ledger.ListParticipants(ctx, p, input.ID)
	if err != nil {
		return nil, apperr.HTTPError(err)
	}
	return &ParticipantsResponse{Body: list}, nil
}

type MyRegistrationsResponse struct {
	Body []events.UserRegistration
}

func (h *RegistrationHandler) HandleMyRegistrations(ctx context.Context, _ *struct{}) (*MyRegistrationsResponse, error) {
	p, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return nil, apperr.HTTPError(err)
	}

	regs, err := h.ledger.MyRegistrations(ctx, p)
	if err != nil {
		return nil, apperr.HTTPError(err)
	}
	return &MyRegistrationsResponse{Body: regs}, nil
}

type HistoryResponse struct {
	Body []models.RegistrationHistory
}

func (h *RegistrationHandler) HandleHistory(ctx context.Context, input *EventIDRequest) (*HistoryResponse, error) {
	p, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return nil, apperr.HTTPError(err)
	}

	history, err := h.ledger.History(ctx, p, input.ID)
	if err != nil {
		return nil, apperr.HTTPError(err)
	}
	return &HistoryResponse{Body: history}, nil
}

// purge drops the cached event detail; its registration count just changed.
func (h *RegistrationHandler) purge(ctx context.Context, id string) {
	if h.invalidator != nil {
		h.invalidator.PurgeEvent(ctx, id)
	}
}
