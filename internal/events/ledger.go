package events

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/gdg-garage/badminton-api/internal/apperr"
	"github.com/gdg-garage/badminton-api/internal/auth"
	"github.com/gdg-garage/badminton-api/internal/models"
	"github.com/gdg-garage/badminton-api/internal/notifier"
	"github.com/gdg-garage/badminton-api/internal/store"
)

// Ledger tracks who plays in which event. The (event, user) pair owns at most
// one registration record; cancelling and registering again flips it in place.
type Ledger struct {
	store    *store.Store
	notifier notifier.Notifier
}

// NewLedger wires the registration ledger. n may be nil.
func NewLedger(st *store.Store, n notifier.Notifier) *Ledger {
	return &Ledger{store: st, notifier: n}
}

type Participant struct {
	ID           string                    `json:"id"`
	EventID      string                    `json:"eventId"`
	UserID       string                    `json:"userId"`
	SkillLevel   int                       `json:"skillLevel"`
	Status       models.RegistrationStatus `json:"status"`
	RegisteredAt time.Time                 `json:"registeredAt"`
	User         models.UserSummary        `json:"user"`
}

type SkillLevelStats struct {
	Min int     `json:"min"`
	Max int     `json:"max"`
	Avg float64 `json:"avg"`
}

type ParticipantList struct {
	Participants    []Participant    `json:"participants"`
	Total           int              `json:"total"`
	SkillLevelStats *SkillLevelStats `json:"skillLevelStats,omitempty"`
}

// UserRegistration is a registration as seen by the registered player.
type UserRegistration struct {
	models.Registration
	Event models.Event `json:"event"`
}

func (l *Ledger) Register(ctx context.Context, p auth.Principal, eventID string, skillLevel int) (*models.Registration, error) {
	var (
		event *models.Event
		reg   *models.Registration
	)
	err := l.store.Transaction(ctx, func(tx *store.Store) error {
		var err error
		if event, err = getEvent(ctx, tx, eventID); err != nil {
			return err
		}
		if err := auth.ValidateSkillLevel(skillLevel); err != nil {
			return err
		}

		existing, err := tx.FindRegistration(ctx, eventID, p.ID)
		switch {
		case err == nil && existing.Status == models.RegistrationRegistered:
			return apperr.New(apperr.AlreadyRegistered, "You are already registered for this event")
		case err != nil && !errors.Is(err, store.ErrNotFound):
			return err
		}

		reg = &models.Registration{
			EventID:    eventID,
			UserID:     p.ID,
			SkillLevel: skillLevel,
			Status:     models.RegistrationRegistered,
		}
		if err := tx.UpsertRegistration(ctx, reg); err != nil {
			return err
		}
		return tx.AppendHistory(ctx, historyOf(reg))
	})
	if err != nil {
		return nil, err
	}

	l.notify(ctx, *event, *reg)
	return reg, nil
}

// Unregister cancels the caller's registration. The registration time is kept
// so a later Register resumes the same record.
func (l *Ledger) Unregister(ctx context.Context, p auth.Principal, eventID string) (*models.Registration, error) {
	var reg *models.Registration
	err := l.store.Transaction(ctx, func(tx *store.Store) error {
		var err error
		reg, err = tx.FindRegistration(ctx, eventID, p.ID)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.New(apperr.RegistrationNotFound, "Registration not found")
		}
		if err != nil {
			return err
		}
		if reg.Status == models.RegistrationCancelled {
			return apperr.New(apperr.AlreadyCancelled, "You have already cancelled this registration")
		}

		reg.Status = models.RegistrationCancelled
		if err := tx.SaveRegistration(ctx, reg); err != nil {
			return err
		}
		return tx.AppendHistory(ctx, historyOf(reg))
	})
	if err != nil {
		return nil, err
	}

	if l.notifier != nil {
		if event, err := l.store.GetEvent(ctx, eventID); err == nil {
			l.notify(ctx, *event, *reg)
		}
	}
	return reg, nil
}

// ListParticipants returns the active registrations of an event. Only the
// organizer of the event and admins may see them.
func (l *Ledger) ListParticipants(ctx context.Context, p auth.Principal, eventID string) (*ParticipantList, error) {
	if _, err := l.authorizeOrganizer(ctx, p, eventID); err != nil {
		return nil, err
	}

	registrations, err := l.store.ListRegistrations(ctx, eventID, models.RegistrationRegistered)
	if err != nil {
		return nil, err
	}

	list := &ParticipantList{Participants: make([]Participant, 0, len(registrations))}
	sum := 0
	for _, reg := range registrations {
		list.Participants = append(list.Participants, Participant{
			ID:           reg.ID,
			EventID:      reg.EventID,
			UserID:       reg.UserID,
			SkillLevel:   reg.SkillLevel,
			Status:       reg.Status,
			RegisteredAt: reg.RegisteredAt,
			User:         reg.User.Summary(),
		})

		sum += reg.SkillLevel
		if list.SkillLevelStats == nil {
			list.SkillLevelStats = &SkillLevelStats{Min: reg.SkillLevel, Max: reg.SkillLevel}
		}
		list.SkillLevelStats.Min = min(list.SkillLevelStats.Min, reg.SkillLevel)
		list.SkillLevelStats.Max = max(list.SkillLevelStats.Max, reg.SkillLevel)
	}
	list.Total = len(list.Participants)
	if list.SkillLevelStats != nil {
		list.SkillLevelStats.Avg = float64(sum) / float64(list.Total)
	}
	return list, nil
}

// MyRegistrations lists every registration of the caller, newest first,
// including cancelled ones.
func (l *Ledger) MyRegistrations(ctx context.Context, p auth.Principal) ([]UserRegistration, error) {
	registrations, err := l.store.ListUserRegistrations(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	result := make([]UserRegistration, 0, len(registrations))
	for _, reg := range registrations {
		result = append(result, UserRegistration{Registration: reg, Event: reg.Event})
	}
	return result, nil
}

// History returns the registration changes of an event, newest first.
func (l *Ledger) History(ctx context.Context, p auth.Principal, eventID string) ([]models.RegistrationHistory, error) {
	if _, err := l.authorizeOrganizer(ctx, p, eventID); err != nil {
		return nil, err
	}
	history, err := l.store.ListHistory(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if history == nil {
		history = []models.RegistrationHistory{}
	}
	return history, nil
}

func (l *Ledger) authorizeOrganizer(ctx context.Context, p auth.Principal, eventID string) (*models.Event, error) {
	event, err := getEvent(ctx, l.store, eventID)
	if err != nil {
		return nil, err
	}
	if event.OrganizerID != p.ID && !p.IsAdmin() {
		return nil, apperr.New(apperr.PermissionDenied, "Only the organizer can view registrations")
	}
	return event, nil
}

func (l *Ledger) notify(ctx context.Context, event models.Event, reg models.Registration) {
	if l.notifier == nil {
		return
	}
	user, err := l.store.GetUser(ctx, reg.UserID)
	if err != nil {
		log.Printf("Failed to load user %s for notification: %v", reg.UserID, err)
		return
	}
	if err := l.notifier.NotifyRegistration(*user, event, reg); err != nil {
		log.Printf("Failed to notify registration %s: %v", reg.ID, err)
	}
}

func historyOf(reg *models.Registration) *models.RegistrationHistory {
	return &models.RegistrationHistory{
		RegistrationID: reg.ID,
		EventID:        reg.EventID,
		UserID:         reg.UserID,
		Status:         reg.Status,
		SkillLevel:     reg.SkillLevel,
	}
}
