// Package events holds the badminton event lifecycle and the registration
// ledger. Operations receive the resolved caller and enforce role and
// ownership themselves; the HTTP layer only authenticates.
package events

import (
	"context"
	"errors"
	"log"
	"math"
	"strings"
	"time"

	"github.com/gdg-garage/badminton-api/internal/apperr"
	"github.com/gdg-garage/badminton-api/internal/auth"
	"github.com/gdg-garage/badminton-api/internal/models"
	"github.com/gdg-garage/badminton-api/internal/notifier"
	"github.com/gdg-garage/badminton-api/internal/store"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100

	maxNameLength        = 100
	maxDescriptionLength = 500
)

type Manager struct {
	store    *store.Store
	notifier notifier.Notifier
}

// NewManager wires the lifecycle manager. n may be nil.
func NewManager(st *store.Store, n notifier.Notifier) *Manager {
	return &Manager{store: st, notifier: n}
}

type CreateEventInput struct {
	Name        string
	Description string
	StartTime   time.Time
	EndTime     time.Time
	CourtCount  int
}

// EventPatch is a partial update; nil fields keep their stored value.
type EventPatch struct {
	Name        *string
	Description *string
	StartTime   *time.Time
	EndTime     *time.Time
	CourtCount  *int
	Status      *models.EventStatus
}

type EventDetail struct {
	models.Event
	RegistrationCount int64              `json:"registrationCount"`
	Organizer         models.UserSummary `json:"organizer"`
}

type ListEventsInput struct {
	Page     int
	PageSize int
	Status   models.EventStatus
}

type EventPage struct {
	Events     []models.Event `json:"events"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalPages int            `json:"totalPages"`
}

func (m *Manager) Create(ctx context.Context, p auth.Principal, input CreateEventInput) (*models.Event, error) {
	if !p.Role.CanOrganize() {
		return nil, apperr.New(apperr.PermissionDenied, "Only organizers can create events")
	}

	name, err := validateName(input.Name)
	if err != nil {
		return nil, err
	}
	if err := validateDescription(input.Description); err != nil {
		return nil, err
	}
	if err := validateTimeRange(input.StartTime, input.EndTime); err != nil {
		return nil, err
	}
	if err := validateCourtCount(input.CourtCount); err != nil {
		return nil, err
	}

	event := &models.Event{
		OrganizerID: p.ID,
		Name:        name,
		Description: input.Description,
		StartTime:   input.StartTime,
		EndTime:     input.EndTime,
		CourtCount:  input.CourtCount,
		Status:      models.EventDraft,
	}
	if err := m.store.CreateEvent(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

func (m *Manager) Update(ctx context.Context, p auth.Principal, eventID string, patch EventPatch) (*models.Event, error) {
	event, err := getEvent(ctx, m.store, eventID)
	if err != nil {
		return nil, err
	}
	if event.OrganizerID != p.ID {
		return nil, apperr.New(apperr.PermissionDenied, "You do not have permission to update this event")
	}

	previous := event.Status
	if patch.Status != nil && !event.Status.CanTransitionTo(*patch.Status) {
		return nil, apperr.Newf(apperr.InvalidStatusTransition, "Cannot transition from %s to %s", event.Status, *patch.Status)
	}

	start, end := event.StartTime, event.EndTime
	if patch.StartTime != nil {
		start = *patch.StartTime
	}
	if patch.EndTime != nil {
		end = *patch.EndTime
	}
	if err := validateTimeRange(start, end); err != nil {
		return nil, err
	}

	if patch.CourtCount != nil {
		if err := validateCourtCount(*patch.CourtCount); err != nil {
			return nil, err
		}
	}

	name := event.Name
	if patch.Name != nil {
		if name, err = validateName(*patch.Name); err != nil {
			return nil, err
		}
	}
	if patch.Description != nil {
		if err := validateDescription(*patch.Description); err != nil {
			return nil, err
		}
		event.Description = *patch.Description
	}

	event.Name = name
	event.StartTime, event.EndTime = start, end
	if patch.CourtCount != nil {
		event.CourtCount = *patch.CourtCount
	}
	if patch.Status != nil {
		event.Status = *patch.Status
	}

	err = m.store.SaveEvent(ctx, event, previous)
	if errors.Is(err, store.ErrStale) {
		return nil, m.lostRace(ctx, eventID, patch.Status)
	}
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Newf(apperr.NotFound, "Event %s not found", eventID)
	}
	if err != nil {
		return nil, err
	}

	if event.Status != previous && m.notifier != nil {
		if err := m.notifier.NotifyEventStatus(*event, previous); err != nil {
			log.Printf("Failed to notify status change of event %s: %v", event.ID, err)
		}
	}
	return event, nil
}

// Delete removes a draft event together with its registrations and history.
func (m *Manager) Delete(ctx context.Context, p auth.Principal, eventID string) error {
	event, err := getEvent(ctx, m.store, eventID)
	if err != nil {
		return err
	}
	if event.OrganizerID != p.ID {
		return apperr.New(apperr.PermissionDenied, "You do not have permission to delete this event")
	}
	if event.Status != models.EventDraft {
		return apperr.New(apperr.InvalidEventStatus, "Can only delete draft events")
	}

	err = m.store.DeleteEvent(ctx, eventID, models.EventDraft)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apperr.Newf(apperr.NotFound, "Event %s not found", eventID)
	case errors.Is(err, store.ErrStale):
		return apperr.New(apperr.InvalidEventStatus, "Can only delete draft events")
	}
	return err
}

// lostRace reports an update whose status check was overtaken by a
// concurrent write, against the status the event holds now.
func (m *Manager) lostRace(ctx context.Context, eventID string, next *models.EventStatus) error {
	current, err := getEvent(ctx, m.store, eventID)
	if err != nil {
		return err
	}
	if next != nil {
		return apperr.Newf(apperr.InvalidStatusTransition, "Cannot transition from %s to %s", current.Status, *next)
	}
	return apperr.Newf(apperr.InvalidStatusTransition, "Event status changed to %s while updating", current.Status)
}

// Get returns the event with its organizer. RegistrationCount includes
// cancelled registrations.
func (m *Manager) Get(ctx context.Context, eventID string) (*EventDetail, error) {
	event, err := getEvent(ctx, m.store, eventID)
	if err != nil {
		return nil, err
	}
	count, err := m.store.CountRegistrations(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return &EventDetail{
		Event:             *event,
		RegistrationCount: count,
		Organizer:         event.Organizer.Summary(),
	}, nil
}

func (m *Manager) List(ctx context.Context, input ListEventsInput) (*EventPage, error) {
	if input.Page < 1 {
		return nil, apperr.New(apperr.InvalidPage, "Page must be at least 1")
	}
	pageSize := input.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	if input.Status != "" && !input.Status.Valid() {
		return nil, apperr.Newf(apperr.InvalidInput, "Unknown event status %q", input.Status)
	}

	events, total, err := m.store.ListEvents(ctx, store.EventFilter{Status: input.Status}, (input.Page-1)*pageSize, pageSize)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []models.Event{}
	}

	return &EventPage{
		Events:     events,
		Total:      total,
		Page:       input.Page,
		PageSize:   pageSize,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
	}, nil
}

func getEvent(ctx context.Context, st *store.Store, eventID string) (*models.Event, error) {
	event, err := st.GetEvent(ctx, eventID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Newf(apperr.NotFound, "Event %s not found", eventID)
	}
	return event, err
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperr.New(apperr.InvalidInput, "Event name is required")
	}
	if len([]rune(name)) > maxNameLength {
		return "", apperr.New(apperr.InvalidInput, "Event name must be at most 100 characters")
	}
	return name, nil
}

func validateDescription(description string) error {
	if len([]rune(description)) > maxDescriptionLength {
		return apperr.New(apperr.InvalidInput, "Description must be at most 500 characters")
	}
	return nil
}

func validateTimeRange(start, end time.Time) error {
	if !start.Before(end) {
		return apperr.New(apperr.InvalidTimeRange, "Start time must be before end time")
	}
	return nil
}

func validateCourtCount(count int) error {
	if count <= 0 {
		return apperr.New(apperr.InvalidCourtCount, "Court count must be greater than 0")
	}
	return nil
}
