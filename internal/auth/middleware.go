package auth

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gdg-garage/badminton-api/internal/store"
)

// Authenticate resolves the caller from an X-API-KEY header, a Bearer token
// or the auth_token cookie. Requests without credentials pass through
// anonymously; operations that need a caller use RequirePrincipal.
func (h *AuthHandler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 1. Check for API Key Header
		if apiKey := r.Header.Get("X-API-KEY"); apiKey != "" {
			key, err := h.store.FindAPIKey(r.Context(), apiKey)
			switch {
			case err == nil:
				if key.ExpiresAt != nil && time.Now().After(*key.ExpiresAt) {
					http.Error(w, "Unauthorized: API Key expired", http.StatusUnauthorized)
					return
				}
				if err := h.store.TouchAPIKey(r.Context(), key, time.Now()); err != nil {
					log.Printf("Failed to update api key usage: %v", err)
				}
				ctx := WithPrincipal(r.Context(), PrincipalOf(&key.User))
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			case !errors.Is(err, store.ErrNotFound):
				log.Printf("Failed to look up api key: %v", err)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
		}

		// 2. Bearer token
		if header := r.Header.Get("Authorization"); header != "" {
			tokenString, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				http.Error(w, "Unauthorized: Invalid authorization header", http.StatusUnauthorized)
				return
			}
			p, _, err := h.ParseToken(tokenString)
			if err != nil {
				http.Error(w, "Unauthorized: Invalid token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
			return
		}

		// 3. Fallback to JWT Cookie
		cookie, err := r.Cookie(tokenCookie)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		p, expiresAt, err := h.ParseToken(cookie.Value)
		if err != nil {
			http.Error(w, "Unauthorized: Invalid token", http.StatusUnauthorized)
			return
		}

		// Sliding session: refresh token if it's more than halfway through its duration.
		// The renewed token carries the user's current role, not the old claim.
		if !expiresAt.IsZero() && time.Until(expiresAt) < h.TokenDuration()/2 {
			user, err := h.store.GetUser(r.Context(), p.ID)
			switch {
			case err == nil:
				p = PrincipalOf(user)
				if newToken, err := h.GenerateToken(p); err == nil {
					h.setTokenCookie(w, newToken)
				}
			case errors.Is(err, store.ErrNotFound):
				http.Error(w, "Unauthorized: Unknown user", http.StatusUnauthorized)
				return
			default:
				log.Printf("Failed to reload user %s for token refresh: %v", p.ID, err)
			}
		}

		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}
