package store

import (
	"context"

	"github.com/gdg-garage/badminton-api/internal/models"
	"gorm.io/gorm/clause"
)

func (s *Store) FindRegistration(ctx context.Context, eventID, userID string) (*models.Registration, error) {
	var registration models.Registration
	err := s.conn(ctx).Where("event_id = ? AND user_id = ?", eventID, userID).First(&registration).Error
	if err != nil {
		return nil, translate("find registration", err)
	}
	return &registration, nil
}

// UpsertRegistration inserts the registration or, when the (event, user) pair
// already exists, overwrites its status and skill level in a single statement.
// The record is reloaded afterwards so reg carries the surviving id and
// registration time.
func (s *Store) UpsertRegistration(ctx context.Context, reg *models.Registration) error {
	err := s.conn(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "skill_level", "updated_at"}),
		}).
		Create(reg).Error
	if err != nil {
		return translate("upsert registration", err)
	}

	stored, err := s.FindRegistration(ctx, reg.EventID, reg.UserID)
	if err != nil {
		return err
	}
	*reg = *stored
	return nil
}

func (s *Store) SaveRegistration(ctx context.Context, reg *models.Registration) error {
	return translate("save registration", s.conn(ctx).Omit(clause.Associations).Save(reg).Error)
}

// ListRegistrations returns the registrations of an event with their users,
// oldest first. An empty status matches every registration.
func (s *Store) ListRegistrations(ctx context.Context, eventID string, status models.RegistrationStatus) ([]models.Registration, error) {
	query := s.conn(ctx).Preload("User").Where("event_id = ?", eventID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var registrations []models.Registration
	if err := query.Order("registered_at asc").Order("id asc").Find(&registrations).Error; err != nil {
		return nil, translate("list registrations", err)
	}
	return registrations, nil
}

func (s *Store) ListUserRegistrations(ctx context.Context, userID string) ([]models.Registration, error) {
	var registrations []models.Registration
	err := s.conn(ctx).
		Preload("Event").
		Where("user_id = ?", userID).
		Order("registered_at desc").
		Find(&registrations).Error
	if err != nil {
		return nil, translate("list user registrations", err)
	}
	return registrations, nil
}

func (s *Store) AppendHistory(ctx context.Context, history *models.RegistrationHistory) error {
	return translate("append history", s.conn(ctx).Create(history).Error)
}

func (s *Store) ListHistory(ctx context.Context, eventID string) ([]models.RegistrationHistory, error) {
	var history []models.RegistrationHistory
	err := s.conn(ctx).Where("event_id = ?", eventID).Order("created_at desc").Order("id desc").Find(&history).Error
	if err != nil {
		return nil, translate("list history", err)
	}
	return history, nil
}
