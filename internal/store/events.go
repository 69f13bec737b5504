package store

import (
	"context"
	"errors"
	"time"

	"github.com/gdg-garage/badminton-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EventFilter struct {
	Status models.EventStatus
}

func (s *Store) CreateEvent(ctx context.Context, event *models.Event) error {
	return translate("create event", s.conn(ctx).Omit(clause.Associations).Create(event).Error)
}

// GetEvent loads an event together with its organizer.
func (s *Store) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	if err := s.conn(ctx).Preload("Organizer").First(&event, "id = ?", id).Error; err != nil {
		return nil, translate("get event", err)
	}
	return &event, nil
}

// SaveEvent writes the editable columns of event only while the stored row
// still has status expected. ErrStale means another writer got there first.
func (s *Store) SaveEvent(ctx context.Context, event *models.Event, expected models.EventStatus) error {
	event.UpdatedAt = time.Now()
	res := s.conn(ctx).Model(&models.Event{}).
		Where("id = ? AND status = ?", event.ID, expected).
		Updates(map[string]any{
			"name":        event.Name,
			"description": event.Description,
			"start_time":  event.StartTime,
			"end_time":    event.EndTime,
			"court_count": event.CourtCount,
			"status":      event.Status,
			"updated_at":  event.UpdatedAt,
		})
	if res.Error != nil {
		return translate("save event", res.Error)
	}
	if res.RowsAffected == 0 {
		return s.staleOrMissing(ctx, event.ID)
	}
	return nil
}

// DeleteEvent removes an event in status expected together with everything
// hanging off it.
func (s *Store) DeleteEvent(ctx context.Context, id string, expected models.EventStatus) error {
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		// Claims the row first so a concurrent status change either lands
		// before this check or waits for the delete to commit.
		res := tx.Model(&models.Event{}).
			Where("id = ? AND status = ?", id, expected).
			Update("updated_at", time.Now())
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return (&Store{db: tx}).staleOrMissing(ctx, id)
		}
		if err := tx.Unscoped().Where("event_id = ?", id).Delete(&models.RegistrationHistory{}).Error; err != nil {
			return err
		}
		if err := tx.Where("event_id = ?", id).Delete(&models.Registration{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.Event{}).Error
	})
	if errors.Is(err, ErrStale) || errors.Is(err, ErrNotFound) {
		return err
	}
	return translate("delete event", err)
}

func (s *Store) staleOrMissing(ctx context.Context, id string) error {
	var count int64
	if err := s.conn(ctx).Model(&models.Event{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return translate("check event", err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return ErrStale
}

// ListEvents returns one page of events ordered by start time, plus the
// number of events matching the filter.
func (s *Store) ListEvents(ctx context.Context, filter EventFilter, offset, limit int) ([]models.Event, int64, error) {
	query := s.conn(ctx).Model(&models.Event{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate("count events", err)
	}

	var events []models.Event
	err := query.Order("start_time asc").Order("id asc").Offset(offset).Limit(limit).Find(&events).Error
	if err != nil {
		return nil, 0, translate("list events", err)
	}
	return events, total, nil
}

func (s *Store) CountRegistrations(ctx context.Context, eventID string) (int64, error) {
	var count int64
	err := s.conn(ctx).Model(&models.Registration{}).Where("event_id = ?", eventID).Count(&count).Error
	return count, translate("count registrations", err)
}
