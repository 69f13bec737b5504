package handlers

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/badminton-api/internal/apperr"
	"github.com/gdg-garage/badminton-api/internal/auth"
	"github.com/gdg-garage/badminton-api/internal/models"
	"github.com/gdg-garage/badminton-api/internal/store"
)

type APIKeyHandler struct {
	store *store.Store
}

func NewAPIKeyHandler(st *store.Store) *APIKeyHandler {
	return &APIKeyHandler{store: st}
}

type CreateAPIKeyInput struct {
	Body struct {
		Name      string     `json:"name"`
		ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	}
}

type APIKeyResponse struct {
	ID         uint       `json:"id"`
	Name       string     `json:"name"`
	Key        string     `json:"key"`
	CreatedAt  time.Time  `json:"createdAt"`
	ExpiresAt  *time.Time `json:"expiresAt"`
	LastUsedAt *time.Time `json:"lastUsedAt"`
}

type CreateAPIKeyOutput struct {
	Body APIKeyResponse
}

func toAPIKeyResponse(k models.APIKey, key string) APIKeyResponse {
	return APIKeyResponse{
		ID:         k.ID,
		Name:       k.Name,
		Key:        key,
		CreatedAt:  k.CreatedAt,
		ExpiresAt:  k.ExpiresAt,
		LastUsedAt: k.LastUsedAt,
	}
}

// HandleCreate issues a key. The secret is only ever returned here.
func (h *APIKeyHandler) HandleCreate(ctx context.Context, input *CreateAPIKeyInput) (*CreateAPIKeyOutput, error) {
	p, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return nil, apperr.HTTPError(err)
	}

	keyBytes := make([]byte, 32)
	if _, err := rand.Read(keyBytes); err != nil {
		return nil, huma.Error500InternalServerError("Failed to generate key")
	}
	key := hex.EncodeToString(keyBytes)

	apiKey := models.APIKey{
		UserID:    p.ID,
		Key:       key,
		Name:      input.Body.Name,
		ExpiresAt: input.Body.ExpiresAt,
	}

	if err := h.store.CreateAPIKey(ctx, &apiKey); err != nil {
		return nil, apperr.HTTPError(err)
	}

	return &CreateAPIKeyOutput{Body: toAPIKeyResponse(apiKey, apiKey.Key)}, nil
}

type ListAPIKeysOutput struct {
	Body []APIKeyResponse
}

func (h *APIKeyHandler) HandleList(ctx context.Context, _ *struct{}) (*ListAPIKeysOutput, error) {
	p, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return nil, apperr.HTTPError(err)
	}

	apiKeys, err := h.store.ListAPIKeys(ctx, p.ID)
	if err != nil {
		return nil, apperr.HTTPError(err)
	}

	response := make([]APIKeyResponse, 0, len(apiKeys))
	for _, k := range apiKeys {
		maskedKey := k.Key
		if len(k.Key) > 4 {
			maskedKey = "..." + k.Key[len(k.Key)-4:]
		}
		response = append(response, toAPIKeyResponse(k, maskedKey))
	}

	return &ListAPIKeysOutput{Body: response}, nil
}

type DeleteAPIKeyInput struct {
	ID uint `path:"id"`
}

func (h *APIKeyHandler) HandleDelete(ctx context.Context, input *DeleteAPIKeyInput) (*struct{}, error) {
	p, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return nil, apperr.HTTPError(err)
	}

	err = h.store.DeleteAPIKey(ctx, input.ID, p.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.HTTPError(apperr.New(apperr.NotFound, "API key not found"))
	}
	if err != nil {
		return nil, apperr.HTTPError(err)
	}

	return nil, nil
}
