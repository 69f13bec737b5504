package store

import (
	"context"
	"time"

	"github.com/gdg-garage/badminton-api/internal/models"
	"gorm.io/gorm/clause"
)

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return translate("create user", s.conn(ctx).Create(user).Error)
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.conn(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate("get user", err)
	}
	return &user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.conn(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate("get user by email", err)
	}
	return &user, nil
}

func (s *Store) GetUserByDiscordID(ctx context.Context, discordID string) (*models.User, error) {
	var user models.User
	if err := s.conn(ctx).Where("discord_id = ?", discordID).First(&user).Error; err != nil {
		return nil, translate("get user by discord id", err)
	}
	return &user, nil
}

func (s *Store) SaveUser(ctx context.Context, user *models.User) error {
	return translate("save user", s.conn(ctx).Omit(clause.Associations).Save(user).Error)
}

func (s *Store) CreateAPIKey(ctx context.Context, key *models.APIKey) error {
	return translate("create api key", s.conn(ctx).Omit(clause.Associations).Create(key).Error)
}

func (s *Store) FindAPIKey(ctx context.Context, key string) (*models.APIKey, error) {
	var apiKey models.APIKey
	if err := s.conn(ctx).Preload("User").Where("key = ?", key).First(&apiKey).Error; err != nil {
		return nil, translate("find api key", err)
	}
	return &apiKey, nil
}

func (s *Store) TouchAPIKey(ctx context.Context, key *models.APIKey, at time.Time) error {
	return translate("touch api key", s.conn(ctx).Model(key).Update("last_used_at", at).Error)
}

func (s *Store) ListAPIKeys(ctx context.Context, userID string) ([]models.APIKey, error) {
	var keys []models.APIKey
	if err := s.conn(ctx).Where("user_id = ?", userID).Order("id asc").Find(&keys).Error; err != nil {
		return nil, translate("list api keys", err)
	}
	return keys, nil
}

func (s *Store) DeleteAPIKey(ctx context.Context, id uint, userID string) error {
	res := s.conn(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.APIKey{})
	if res.Error != nil {
		return translate("delete api key", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
