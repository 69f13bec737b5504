package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gdg-garage/badminton-api/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, secret string, userID string, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": userID,
		"email":   "player@example.com",
		"role":    string(models.RolePlayer),
		"exp":     exp.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

// serve runs the middleware and reports the principal seen by the next handler.
func serve(h *AuthHandler, req *http.Request) (*httptest.ResponseRecorder, Principal, bool) {
	var (
		seen Principal
		ok   bool
	)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, ok = PrincipalFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	rr := httptest.NewRecorder()
	h.Authenticate(next).ServeHTTP(rr, req)
	return rr, seen, ok
}

func TestAuthenticate_SlidingSession(t *testing.T) {
	handler, st := newTestHandler(t)
	secret := handler.cfg.JWTSecret

	user := &models.User{Email: "player@example.com", Name: "Player", Role: models.RolePlayer}
	if err := st.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	t.Run("TokenRenewed", func(t *testing.T) {
		// 11h left of a 24h lifetime is below the halfway mark
		tokenString := signToken(t, secret, user.ID, time.Now().Add(11*time.Hour))

		req := httptest.NewRequest("GET", "/", nil)
		req.AddCookie(&http.Cookie{Name: "auth_token", Value: tokenString})
		rr, p, ok := serve(handler, req)

		if rr.Code != http.StatusOK {
			t.Errorf("expected status OK, got %v", rr.Code)
		}
		if !ok || p.ID != user.ID {
			t.Errorf("expected principal %s, got %+v", user.ID, p)
		}

		found := false
		for _, c := range rr.Result().Cookies() {
			if c.Name == "auth_token" {
				found = true
				if c.Value == tokenString {
					t.Errorf("expected new token value, but got the old one")
				}
			}
		}
		if !found {
			t.Errorf("expected new auth_token cookie to be set")
		}
	})

	t.Run("RenewedTokenCarriesCurrentRole", func(t *testing.T) {
		tokenString := signToken(t, secret, user.ID, time.Now().Add(11*time.Hour))

		user.Role = models.RoleOrganizer
		if err := st.SaveUser(context.Background(), user); err != nil {
			t.Fatalf("failed to promote user: %v", err)
		}
		defer func() {
			user.Role = models.RolePlayer
			st.SaveUser(context.Background(), user)
		}()

		req := httptest.NewRequest("GET", "/", nil)
		req.AddCookie(&http.Cookie{Name: "auth_token", Value: tokenString})
		rr, p, _ := serve(handler, req)

		if p.Role != models.RoleOrganizer {
			t.Errorf("expected request to run as ORGANIZER, got %s", p.Role)
		}
		var renewed *http.Cookie
		for _, c := range rr.Result().Cookies() {
			if c.Name == "auth_token" {
				renewed = c
			}
		}
		if renewed == nil {
			t.Fatal("expected new auth_token cookie to be set")
		}
		claims, _, err := handler.ParseToken(renewed.Value)
		if err != nil {
			t.Fatalf("failed to parse renewed token: %v", err)
		}
		if claims.Role != models.RoleOrganizer {
			t.Errorf("expected renewed token role ORGANIZER, got %s", claims.Role)
		}
	})

	t.Run("DeletedUserRejected", func(t *testing.T) {
		tokenString := signToken(t, secret, "gone", time.Now().Add(11*time.Hour))

		req := httptest.NewRequest("GET", "/", nil)
		req.AddCookie(&http.Cookie{Name: "auth_token", Value: tokenString})
		rr, _, ok := serve(handler, req)

		if rr.Code != http.StatusUnauthorized || ok {
			t.Errorf("expected 401 without a principal, got %v", rr.Code)
		}
	})

	t.Run("TokenNotRenewed", func(t *testing.T) {
		tokenString := signToken(t, secret, user.ID, time.Now().Add(13*time.Hour))

		req := httptest.NewRequest("GET", "/", nil)
		req.AddCookie(&http.Cookie{Name: "auth_token", Value: tokenString})
		rr, _, _ := serve(handler, req)

		if rr.Code != http.StatusOK {
			t.Errorf("expected status OK, got %v", rr.Code)
		}
		for _, c := range rr.Result().Cookies() {
			if c.Name == "auth_token" {
				t.Errorf("did not expect a new auth_token cookie to be set")
			}
		}
	})
}

func TestAuthenticate(t *testing.T) {
	handler, st := newTestHandler(t)
	secret := handler.cfg.JWTSecret

	user := &models.User{Email: "keyholder@example.com", Name: "Key Holder", Role: models.RoleOrganizer}
	if err := st.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	t.Run("Anonymous", func(t *testing.T) {
		rr, _, ok := serve(handler, httptest.NewRequest("GET", "/", nil))
		if rr.Code != http.StatusOK {
			t.Errorf("expected anonymous request to pass, got %d", rr.Code)
		}
		if ok {
			t.Error("expected no principal")
		}
	})

	t.Run("Bearer", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, secret, "user-2", time.Now().Add(time.Hour)))
		rr, p, ok := serve(handler, req)
		if rr.Code != http.StatusOK || !ok || p.ID != "user-2" {
			t.Errorf("expected bearer principal user-2, got %d %+v", rr.Code, p)
		}
	})

	t.Run("InvalidToken", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, "other-secret", "user-2", time.Now().Add(time.Hour)))
		rr, _, _ := serve(handler, req)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rr.Code)
		}
	})

	t.Run("ExpiredToken", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.AddCookie(&http.Cookie{Name: "auth_token", Value: signToken(t, secret, "user-2", time.Now().Add(-time.Minute))})
		rr, _, _ := serve(handler, req)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rr.Code)
		}
	})

	t.Run("APIKey", func(t *testing.T) {
		key := &models.APIKey{UserID: user.ID, Key: "valid-key", Name: "ci"}
		if err := st.CreateAPIKey(context.Background(), key); err != nil {
			t.Fatalf("setup failed: %v", err)
		}

		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-API-KEY", "valid-key")
		rr, p, ok := serve(handler, req)
		if rr.Code != http.StatusOK || !ok {
			t.Fatalf("expected api key to authenticate, got %d", rr.Code)
		}
		if p.ID != user.ID || p.Role != models.RoleOrganizer {
			t.Errorf("unexpected principal %+v", p)
		}

		keys, _ := st.ListAPIKeys(context.Background(), user.ID)
		if len(keys) != 1 || keys[0].LastUsedAt == nil {
			t.Error("expected last_used_at to be recorded")
		}
	})

	t.Run("ExpiredAPIKey", func(t *testing.T) {
		past := time.Now().Add(-time.Hour)
		key := &models.APIKey{UserID: user.ID, Key: "old-key", Name: "old", ExpiresAt: &past}
		if err := st.CreateAPIKey(context.Background(), key); err != nil {
			t.Fatalf("setup failed: %v", err)
		}

		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-API-KEY", "old-key")
		rr, _, _ := serve(handler, req)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rr.Code)
		}
	})
}
