package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gdg-garage/badminton-api/internal/config"
	"github.com/gdg-garage/badminton-api/internal/models"
	"github.com/gdg-garage/badminton-api/internal/store"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

const (
	DiscordAuthorizeEndpoint = "https://discord.com/api/oauth2/authorize"
	DiscordTokenEndpoint     = "https://discord.com/api/oauth2/token"
	DiscordUserAPI           = "https://discord.com/api/users/@me"
	DiscordUserGuildsAPI     = "https://discord.com/api/users/@me/guilds"

	// DefaultTokenDuration applies when JWT_TTL is not configured.
	DefaultTokenDuration = 7 * 24 * time.Hour

	tokenCookie = "auth_token"
	stateCookie = "oauth_state"
)

type AuthHandler struct {
	oauthConfig *oauth2.Config
	store       *store.Store
	cfg         *config.Config
}

func NewAuthHandler(cfg *config.Config, st *store.Store) *AuthHandler {
	return &AuthHandler{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.DiscordClientID,
			ClientSecret: cfg.DiscordClientSecret,
			RedirectURL:  cfg.DiscordRedirectURL,
			Scopes:       []string{"identify", "email", "guilds"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  DiscordAuthorizeEndpoint,
				TokenURL: DiscordTokenEndpoint,
			},
		},
		store: st,
		cfg:   cfg,
	}
}

func (h *AuthHandler) TokenDuration() time.Duration {
	if h.cfg.JWTTTL > 0 {
		return h.cfg.JWTTTL
	}
	return DefaultTokenDuration
}

func (h *AuthHandler) GenerateToken(p Principal) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": p.ID,
		"email":   p.Email,
		"role":    string(p.Role),
		"iat":     now.Unix(),
		"exp":     now.Add(h.TokenDuration()).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.cfg.JWTSecret))
}

// ParseToken verifies the signature and expiry and returns the principal and
// the token's expiry time.
func (h *AuthHandler) ParseToken(tokenString string) (Principal, time.Time, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(h.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return Principal{}, time.Time{}, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, time.Time{}, errors.New("invalid token claims")
	}
	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return Principal{}, time.Time{}, errors.New("invalid token claims")
	}
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)

	var expiresAt time.Time
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		expiresAt = exp.Time
	}

	return Principal{ID: userID, Email: email, Role: models.Role(role)}, expiresAt, nil
}

func (h *AuthHandler) setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookie,
		Value:    token,
		Expires:  time.Now().Add(h.TokenDuration()),
		HttpOnly: true,
		Path:     "/",
	})
}

// DiscordEnabled reports whether Discord sign-in is configured.
func (h *AuthHandler) DiscordEnabled() bool {
	return h.cfg.DiscordClientID != ""
}

func (h *AuthHandler) HandleDiscordLogin(w http.ResponseWriter, r *http.Request) {
	stateBytes := make([]byte, 16)
	if _, err := rand.Read(stateBytes); err != nil {
		http.Error(w, "Failed to start login", http.StatusInternalServerError)
		return
	}
	state := hex.EncodeToString(stateBytes)
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Expires:  time.Now().Add(10 * time.Minute),
		HttpOnly: true,
		Path:     "/",
	})

	url := h.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOnline)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

func (h *AuthHandler) HandleDiscordCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "Code not found", http.StatusBadRequest)
		return
	}
	stateCookie, err := r.Cookie(stateCookie)
	if err != nil || stateCookie.Value != r.URL.Query().Get("state") {
		http.Error(w, "Invalid OAuth state", http.StatusBadRequest)
		return
	}

	token, err := h.oauthConfig.Exchange(r.Context(), code)
	if err != nil {
		http.Error(w, "Failed to exchange token", http.StatusInternalServerError)
		return
	}

	client := h.oauthConfig.Client(r.Context(), token)

	// Check Guild Membership
	if h.cfg.DiscordGuildID != "" {
		var guilds []struct {
			ID string `json:"id"`
		}
		if err := getJSON(client, DiscordUserGuildsAPI, &guilds); err != nil {
			http.Error(w, "Failed to get user guilds", http.StatusInternalServerError)
			return
		}

		isMember := false
		for _, g := range guilds {
			if g.ID == h.cfg.DiscordGuildID {
				isMember = true
				break
			}
		}

		if !isMember {
			http.Error(w, "Access denied: You are not a member of the required guild.", http.StatusForbidden)
			return
		}
	}

	var discordUser DiscordUser
	if err := getJSON(client, DiscordUserAPI, &discordUser); err != nil {
		http.Error(w, "Failed to get user info", http.StatusInternalServerError)
		return
	}

	user, err := h.linkDiscordUser(r.Context(), discordUser)
	if err != nil {
		log.Printf("Failed to link discord user %s: %v", discordUser.ID, err)
		http.Error(w, "Failed to save user", http.StatusInternalServerError)
		return
	}

	jwtToken, err := h.GenerateToken(PrincipalOf(user))
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}
	h.setTokenCookie(w, jwtToken)

	http.Redirect(w, r, h.cfg.PublicURL, http.StatusTemporaryRedirect)
}

type DiscordUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar"`
}

// linkDiscordUser finds the account for a Discord identity, attaching it to an
// existing account with the same email or creating a new player.
func (h *AuthHandler) linkDiscordUser(ctx context.Context, du DiscordUser) (*models.User, error) {
	if du.Email == "" {
		return nil, errors.New("discord account has no email")
	}

	user, err := h.store.GetUserByDiscordID(ctx, du.ID)
	if errors.Is(err, store.ErrNotFound) {
		user, err = h.store.GetUserByEmail(ctx, du.Email)
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		role := models.RolePlayer
		if h.cfg.IsAdminEmail(du.Email) {
			role = models.RoleAdmin
		}
		user = &models.User{Email: du.Email, Name: du.Username, Role: role, SkillLevel: MinSkillLevel}
	case err != nil:
		return nil, err
	}

	discordID := du.ID
	user.DiscordID = &discordID
	user.Avatar = du.Avatar
	if user.Name == "" {
		user.Name = du.Username
	}

	if user.ID == "" {
		return user, h.store.CreateUser(ctx, user)
	}
	return user, h.store.SaveUser(ctx, user)
}

func getJSON(client *http.Client, url string, dst any) error {
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: %s", url, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}
