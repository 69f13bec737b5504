package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gdg-garage/badminton-api/internal/database"
	"github.com/gdg-garage/badminton-api/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	// Every pooled connection would get its own empty in-memory database.
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return New(db)
}

func seedUser(t *testing.T, s *Store, email string) *models.User {
	t.Helper()
	user := &models.User{Email: email, Name: email, Role: models.RoleOrganizer}
	if err := s.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func seedEvent(t *testing.T, s *Store, organizerID string, start time.Time, status models.EventStatus) *models.Event {
	t.Helper()
	event := &models.Event{
		OrganizerID: organizerID,
		Name:        "Friday doubles",
		StartTime:   start,
		EndTime:     start.Add(2 * time.Hour),
		CourtCount:  4,
		Status:      status,
	}
	if err := s.CreateEvent(context.Background(), event); err != nil {
		t.Fatalf("failed to create event: %v", err)
	}
	return event
}

func TestUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s, "org@example.com")

	if user.ID == "" {
		t.Fatal("expected generated id")
	}

	t.Run("DuplicateEmail", func(t *testing.T) {
		err := s.CreateUser(ctx, &models.User{Email: "org@example.com"})
		if !errors.Is(err, ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate, got %v", err)
		}
	})

	t.Run("Lookup", func(t *testing.T) {
		got, err := s.GetUserByEmail(ctx, "org@example.com")
		if err != nil {
			t.Fatalf("GetUserByEmail returned error: %v", err)
		}
		if got.ID != user.ID {
			t.Errorf("expected id %s, got %s", user.ID, got.ID)
		}
		if _, err := s.GetUser(ctx, "missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestListEvents(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	org := seedUser(t, s, "org@example.com")

	base := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	for i := 0; i < 15; i++ {
		// inserted in reverse chronological order
		seedEvent(t, s, org.ID, base.Add(time.Duration(15-i)*time.Hour), models.EventActive)
	}
	for i := 0; i < 5; i++ {
		seedEvent(t, s, org.ID, base.Add(time.Duration(i)*time.Minute), models.EventDraft)
	}

	events, total, err := s.ListEvents(ctx, EventFilter{Status: models.EventActive}, 0, 10)
	if err != nil {
		t.Fatalf("ListEvents returned error: %v", err)
	}
	if total != 15 {
		t.Errorf("expected total 15, got %d", total)
	}
	if len(events) != 10 {
		t.Fatalf("expected 10 events, got %d", len(events))
	}
	for i, e := range events {
		if e.Status != models.EventActive {
			t.Errorf("event %d: expected ACTIVE, got %s", i, e.Status)
		}
		if i > 0 && e.StartTime.Before(events[i-1].StartTime) {
			t.Errorf("event %d starts before event %d", i, i-1)
		}
	}

	rest, _, err := s.ListEvents(ctx, EventFilter{Status: models.EventActive}, 10, 10)
	if err != nil {
		t.Fatalf("ListEvents page 2 returned error: %v", err)
	}
	if len(rest) != 5 {
		t.Errorf("expected 5 events on page 2, got %d", len(rest))
	}

	_, all, _ := s.ListEvents(ctx, EventFilter{}, 0, 10)
	if all != 20 {
		t.Errorf("expected 20 events without filter, got %d", all)
	}
}

func TestUpsertRegistration(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	org := seedUser(t, s, "org@example.com")
	player := seedUser(t, s, "player@example.com")
	event := seedEvent(t, s, org.ID, time.Now().Add(24*time.Hour), models.EventActive)

	first := &models.Registration{EventID: event.ID, UserID: player.ID, SkillLevel: 7, Status: models.RegistrationRegistered}
	if err := s.UpsertRegistration(ctx, first); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}

	second := &models.Registration{EventID: event.ID, UserID: player.ID, SkillLevel: 3, Status: models.RegistrationCancelled}
	if err := s.UpsertRegistration(ctx, second); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("expected upsert to keep id %s, got %s", first.ID, second.ID)
	}
	if second.SkillLevel != 3 || second.Status != models.RegistrationCancelled {
		t.Errorf("expected overwritten fields, got skill %d status %s", second.SkillLevel, second.Status)
	}
	if !second.RegisteredAt.Equal(first.RegisteredAt) {
		t.Errorf("expected registeredAt to be preserved, got %v vs %v", second.RegisteredAt, first.RegisteredAt)
	}

	count, _ := s.CountRegistrations(ctx, event.ID)
	if count != 1 {
		t.Errorf("expected 1 registration, got %d", count)
	}
}

func TestUpsertRegistration_Concurrent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	org := seedUser(t, s, "org@example.com")
	player := seedUser(t, s, "player@example.com")
	event := seedEvent(t, s, org.ID, time.Now().Add(24*time.Hour), models.EventActive)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(level int) {
			defer wg.Done()
			errs <- s.UpsertRegistration(ctx, &models.Registration{
				EventID:    event.ID,
				UserID:     player.ID,
				SkillLevel: level%10 + 1,
				Status:     models.RegistrationRegistered,
			})
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("concurrent upsert failed: %v", err)
		}
	}

	count, err := s.CountRegistrations(ctx, event.ID)
	if err != nil {
		t.Fatalf("CountRegistrations returned error: %v", err)
	}
	if count != 1 {
		t.Errorf("expected exactly 1 registration after concurrent upserts, got %d", count)
	}
}

func TestDeleteEvent_Cascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	org := seedUser(t, s, "org@example.com")
	player := seedUser(t, s, "player@example.com")
	event := seedEvent(t, s, org.ID, time.Now().Add(24*time.Hour), models.EventDraft)

	reg := &models.Registration{EventID: event.ID, UserID: player.ID, SkillLevel: 5, Status: models.RegistrationRegistered}
	if err := s.UpsertRegistration(ctx, reg); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if err := s.AppendHistory(ctx, &models.RegistrationHistory{RegistrationID: reg.ID, EventID: event.ID, UserID: player.ID}); err != nil {
		t.Fatalf("append history failed: %v", err)
	}

	if err := s.DeleteEvent(ctx, event.ID, models.EventDraft); err != nil {
		t.Fatalf("DeleteEvent returned error: %v", err)
	}

	if _, err := s.GetEvent(ctx, event.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if _, err := s.FindRegistration(ctx, event.ID, player.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected registration to be deleted, got %v", err)
	}
	history, _ := s.ListHistory(ctx, event.ID)
	if len(history) != 0 {
		t.Errorf("expected history to be deleted, got %d entries", len(history))
	}

	if err := s.DeleteEvent(ctx, event.ID, models.EventDraft); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestConditionalEventWrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	org := seedUser(t, s, "org@example.com")

	t.Run("SaveMatchingStatus", func(t *testing.T) {
		event := seedEvent(t, s, org.ID, time.Now().Add(24*time.Hour), models.EventDraft)
		event.Status = models.EventActive
		event.CourtCount = 6
		if err := s.SaveEvent(ctx, event, models.EventDraft); err != nil {
			t.Fatalf("SaveEvent returned error: %v", err)
		}
		got, _ := s.GetEvent(ctx, event.ID)
		if got.Status != models.EventActive || got.CourtCount != 6 {
			t.Errorf("expected ACTIVE with 6 courts, got %s with %d", got.Status, got.CourtCount)
		}
	})

	t.Run("SaveStaleStatus", func(t *testing.T) {
		event := seedEvent(t, s, org.ID, time.Now().Add(24*time.Hour), models.EventCancelled)
		event.Status = models.EventActive
		if err := s.SaveEvent(ctx, event, models.EventDraft); !errors.Is(err, ErrStale) {
			t.Fatalf("expected ErrStale, got %v", err)
		}
		got, _ := s.GetEvent(ctx, event.ID)
		if got.Status != models.EventCancelled {
			t.Errorf("expected status to stay CANCELLED, got %s", got.Status)
		}
	})

	t.Run("SaveMissing", func(t *testing.T) {
		event := &models.Event{Base: models.Base{ID: "missing"}, Status: models.EventActive}
		if err := s.SaveEvent(ctx, event, models.EventDraft); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("DeleteStaleStatus", func(t *testing.T) {
		event := seedEvent(t, s, org.ID, time.Now().Add(24*time.Hour), models.EventActive)
		if err := s.DeleteEvent(ctx, event.ID, models.EventDraft); !errors.Is(err, ErrStale) {
			t.Fatalf("expected ErrStale, got %v", err)
		}
		if _, err := s.GetEvent(ctx, event.ID); err != nil {
			t.Errorf("expected event to remain, got %v", err)
		}
	})
}

func TestTransaction_RollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	org := seedUser(t, s, "org@example.com")

	boom := errors.New("boom")
	err := s.Transaction(ctx, func(tx *Store) error {
		event := &models.Event{OrganizerID: org.ID, Name: "rolled back", StartTime: time.Now(), EndTime: time.Now().Add(time.Hour), CourtCount: 1, Status: models.EventDraft}
		if err := tx.CreateEvent(ctx, event); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	_, total, _ := s.ListEvents(ctx, EventFilter{}, 0, 10)
	if total != 0 {
		t.Errorf("expected rollback to leave no events, got %d", total)
	}
}
