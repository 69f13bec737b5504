package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gdg-garage/badminton-api/internal/apperr"
	"github.com/gdg-garage/badminton-api/internal/models"
	"github.com/gdg-garage/badminton-api/internal/store"
)

type AuthResponse struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}

type AuthOutput struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      AuthResponse
}

type RegisterInput struct {
	Body struct {
		Email      string `json:"email" doc:"Account email, unique"`
		Password   string `json:"password" doc:"At least 8 characters with upper, lower and digit"`
		Name       string `json:"name"`
		Phone      string `json:"phone,omitempty"`
		SkillLevel int    `json:"skillLevel" doc:"Self-assessed level from 1 to 10"`
	}
}

func (h *AuthHandler) HandleRegister(ctx context.Context, input *RegisterInput) (*AuthOutput, error) {
	email := strings.ToLower(strings.TrimSpace(input.Body.Email))
	name := strings.TrimSpace(input.Body.Name)

	for _, err := range []error{
		ValidateEmail(email),
		ValidatePassword(input.Body.Password),
		ValidateName(name),
		ValidatePhone(input.Body.Phone),
		ValidateSkillLevel(input.Body.SkillLevel),
	} {
		if err != nil {
			return nil, apperr.HTTPError(err)
		}
	}

	hash, err := HashPassword(input.Body.Password)
	if err != nil {
		return nil, apperr.HTTPError(err)
	}

	role := models.RolePlayer
	if h.cfg.IsAdminEmail(email) {
		role = models.RoleAdmin
	}
	user := &models.User{
		Email:      email,
		Password:   hash,
		Name:       name,
		Phone:      input.Body.Phone,
		Role:       role,
		SkillLevel: input.Body.SkillLevel,
	}
	if err := h.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.HTTPError(apperr.New(apperr.Conflict, "Email already registered"))
		}
		return nil, apperr.HTTPError(err)
	}

	return h.issue(user)
}

type LoginInput struct {
	Body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
}

func (h *AuthHandler) HandleLogin(ctx context.Context, input *LoginInput) (*AuthOutput, error) {
	invalid := apperr.New(apperr.Unauthenticated, "Invalid email or password")

	user, err := h.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Body.Email)))
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.HTTPError(invalid)
	}
	if err != nil {
		return nil, apperr.HTTPError(err)
	}
	// Discord-only accounts have no password.
	if user.Password == "" || !CheckPasswordHash(input.Body.Password, user.Password) {
		return nil, apperr.HTTPError(invalid)
	}

	return h.issue(user)
}

func (h *AuthHandler) issue(user *models.User) (*AuthOutput, error) {
	token, err := h.GenerateToken(PrincipalOf(user))
	if err != nil {
		return nil, apperr.HTTPError(err)
	}
	return &AuthOutput{
		SetCookie: http.Cookie{
			Name:     tokenCookie,
			Value:    token,
			Expires:  time.Now().Add(h.TokenDuration()),
			HttpOnly: true,
			Path:     "/",
		},
		Body: AuthResponse{User: *user, Token: token},
	}, nil
}

type UserOutput struct {
	Body models.User
}

func (h *AuthHandler) HandleMe(ctx context.Context, _ *struct{}) (*UserOutput, error) {
	user, err := h.currentUser(ctx)
	if err != nil {
		return nil, apperr.HTTPError(err)
	}
	return &UserOutput{Body: *user}, nil
}

type UpdateProfileInput struct {
	Body struct {
		Name       *string `json:"name,omitempty"`
		Phone      *string `json:"phone,omitempty"`
		SkillLevel *int    `json:"skillLevel,omitempty"`
	}
}

func (h *AuthHandler) HandleUpdateProfile(ctx context.Context, input *UpdateProfileInput) (*UserOutput, error) {
	user, err := h.currentUser(ctx)
	if err != nil {
		return nil, apperr.HTTPError(err)
	}

	if input.Body.Name != nil {
		name := strings.TrimSpace(*input.Body.Name)
		if err := ValidateName(name); err != nil {
			return nil, apperr.HTTPError(err)
		}
		user.Name = name
	}
	if input.Body.Phone != nil {
		if err := ValidatePhone(*input.Body.Phone); err != nil {
			return nil, apperr.HTTPError(err)
		}
		user.Phone = *input.Body.Phone
	}
	if input.Body.SkillLevel != nil {
		if err := ValidateSkillLevel(*input.Body.SkillLevel); err != nil {
			return nil, apperr.HTTPError(err)
		}
		user.SkillLevel = *input.Body.SkillLevel
	}

	if err := h.store.SaveUser(ctx, user); err != nil {
		return nil, apperr.HTTPError(err)
	}
	return &UserOutput{Body: *user}, nil
}

type SetRoleInput struct {
	ID   string `path:"id"`
	Body struct {
		Role models.Role `json:"role" enum:"PLAYER,ORGANIZER,ADMIN"`
	}
}

// HandleSetRole lets an admin promote or demote an account. The new role is
// carried by tokens issued after the change.
func (h *AuthHandler) HandleSetRole(ctx context.Context, input *SetRoleInput) (*UserOutput, error) {
	p, err := RequirePrincipal(ctx)
	if err != nil {
		return nil, apperr.HTTPError(err)
	}
	if !p.IsAdmin() {
		return nil, apperr.HTTPError(apperr.New(apperr.PermissionDenied, "Only admins can change roles"))
	}
	if !input.Body.Role.Valid() {
		return nil, apperr.HTTPError(apperr.Newf(apperr.InvalidInput, "Unknown role %q", input.Body.Role))
	}

	user, err := h.store.GetUser(ctx, input.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.HTTPError(apperr.New(apperr.NotFound, "User not found"))
	}
	if err != nil {
		return nil, apperr.HTTPError(err)
	}

	user.Role = input.Body.Role
	if err := h.store.SaveUser(ctx, user); err != nil {
		return nil, apperr.HTTPError(err)
	}
	return &UserOutput{Body: *user}, nil
}

func (h *AuthHandler) currentUser(ctx context.Context) (*models.User, error) {
	p, err := RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	user, err := h.store.GetUser(ctx, p.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.New(apperr.Unauthenticated, "User not found")
	}
	return user, err
}
