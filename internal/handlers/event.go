package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/badminton-api/internal/apperr"
	"github.com/gdg-garage/badminton-api/internal/auth"
	"github.com/gdg-garage/badminton-api/internal/events"
	"github.com/gdg-garage/badminton-api/internal/models"
	"github.com/skip2/go-qrcode"
)

// CacheInvalidator drops cached renderings of an event after it changes.
type CacheInvalidator interface {
	PurgeEventsList(ctx context.Context)
	PurgeEvent(ctx context.Context, id string)
}

type EventHandler struct {
	manager     *events.Manager
	invalidator CacheInvalidator
	publicURL   string
}

// NewEventHandler wires the event routes. invalidator may be nil when no
// response cache is configured.
func NewEventHandler(manager *events.Manager, invalidator CacheInvalidator, publicURL string) *EventHandler {
	return &EventHandler{manager: manager, invalidator: invalidator, publicURL: strings.TrimRight(publicURL, "/")}
}

type ListEventsRequest struct {
	Page     int    `query:"page" default:"1" doc:"1-based page number"`
	PageSize int    `query:"pageSize" default:"10" doc:"Events per page, at most 100"`
	Status   string `query:"status" doc:"Only events in this status"`
}

type EventPageResponse struct {
	Body *events.EventPage
}

func (h *EventHandler) HandleList(ctx context.Context, input *ListEventsRequest) (*EventPageResponse, error) {
	page, err := h.manager.List(ctx, events.ListEventsInput{
		Page:     input.Page,
		PageSize: input.PageSize,
		Status:   models.EventStatus(strings.ToUpper(input.Status)),
	})
	if err != nil {
		return nil, apperr.HTTPError(err)
	}
	return &EventPageResponse{Body: page}, nil
}

type EventIDRequest struct {
	ID string `path:"id" doc:"Event ID"`
}

type EventDetailResponse struct {
	Body *events.EventDetail
}

func (h *EventHandler) HandleGet(ctx context.Context, input *EventIDRequest) (*EventDetailResponse, error) {
	detail, err := h.manager.Get(ctx, input.ID)
	if err != nil {
		return nil, apperr.HTTPError(err)
	}
	return &EventDetailResponse{Body: detail}, nil
}

type CreateEventRequest struct {
	Body struct {
		Name        string    `json:"name" doc:"Event name, up to 100 characters"`
		Description string    `json:"description,omitempty" doc:"Optional description, up to 500 characters"`
		StartTime   time.Time `json:"startTime"`
		EndTime     time.Time `json:"endTime"`
		CourtCount  int       `json:"courtCount" doc:"Number of booked courts"`
	}
}

type EventResponse struct {
	Body *models.Event
}

func (h *EventHandler) HandleCreate(ctx context.Context, input *CreateEventRequest) (*EventResponse, error) {
	p, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return nil, apperr.HTTPError(err)
	}

	event, err := h.manager.Create(ctx, p, events.CreateEventInput{
		Name:        input.Body.Name,
		Description: input.Body.Description,
		StartTime:   input.Body.StartTime,
		EndTime:     input.Body.EndTime,
		CourtCount:  input.Body.CourtCount,
	})
	if err != nil {
		return nil, apperr.HTTPError(err)
	}

	if h.invalidator != nil {
		h.invalidator.PurgeEventsList(ctx)
	}
	return &EventResponse{Body: event}, nil
}

type UpdateEventRequest struct {
	ID   string `path:"id" doc:"Event ID"`
	Body struct {
		Name        *string             `json:"name,omitempty"`
		Description *string             `json:"description,omitempty"`
		StartTime   *time.Time          `json:"startTime,omitempty"`
		EndTime     *time.Time          `json:"endTime,omitempty"`
		CourtCount  *int                `json:"courtCount,omitempty"`
		Status      *models.EventStatus `json:"status,omitempty" enum:"DRAFT,ACTIVE,COMPLETED,CANCELLED"`
	}
}

func (h *EventHandler) HandleUpdate(ctx context.Context, input *UpdateEventRequest) (*EventResponse, error) {
	p, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return nil, apperr.HTTPError(err)
	}

	event, err := h.manager.Update(ctx, p, input.ID, events.EventPatch{
		Name:        input.Body.Name,
		Description: input.Body.Description,
		StartTime:   input.Body.StartTime,
		EndTime:     input.Body.EndTime,
		CourtCount:  input.Body.CourtCount,
		Status:      input.Body.Status,
	})
	if err != nil {
		return nil, apperr.HTTPError(err)
	}

	h.purge(ctx, input.ID)
	return &EventResponse{Body: event}, nil
}

func (h *EventHandler) HandleDelete(ctx context.Context, input *EventIDRequest) (*struct{}, error) {
	p, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return nil, apperr.HTTPError(err)
	}
	if err := h.manager.Delete(ctx, p, input.ID); err != nil {
		return nil, apperr.HTTPError(err)
	}

	h.purge(ctx, input.ID)
	return nil, nil
}

type QRCodeResponse struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

// HandleQRCode renders a PNG that links to the event page of the web client.
func (h *EventHandler) HandleQRCode(ctx context.Context, input *EventIDRequest) (*QRCodeResponse, error) {
	if _, err := h.manager.Get(ctx, input.ID); err != nil {
		return nil, apperr.HTTPError(err)
	}

	png, err := qrcode.Encode(h.publicURL+"/events/"+input.ID, qrcode.Medium, 256)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to render QR code")
	}
	return &QRCodeResponse{ContentType: "image/png", Body: png}, nil
}

func (h *EventHandler) purge(ctx context.Context, id string) {
	if h.invalidator != nil {
		h.invalidator.PurgeEvent(ctx, id)
	}
}
