package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/gdg-garage/badminton-api/internal/auth"
	"github.com/gdg-garage/badminton-api/internal/cache"
	"github.com/gdg-garage/badminton-api/internal/ratelimit"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Handlers struct {
	Auth          *auth.AuthHandler
	Events        *EventHandler
	Registrations *RegistrationHandler
	APIKeys       *APIKeyHandler
}

// Options toggles the optional layers. Nil Cache or AuthLimiter disables them.
type Options struct {
	EnableCORS  bool
	CORSOrigin  string
	Cache       *cache.ResponseCache
	AuthLimiter *ratelimit.Limiter
}

type MessageOutput struct {
	Body struct {
		Message string `json:"message"`
	}
}

var authenticated = []map[string][]string{{"bearerAuth": {}}, {"cookieAuth": {}}, {"apiKeyAuth": {}}}

func secured(o *huma.Operation) {
	o.Security = authenticated
}

func created(o *huma.Operation) {
	o.DefaultStatus = http.StatusCreated
	o.Security = authenticated
}

func RegisterRoutes(r *chi.Mux, h Handlers, opts Options) huma.API {
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if opts.EnableCORS {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{opts.CORSOrigin},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-KEY"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.Use(h.Auth.Authenticate)
	if opts.Cache != nil {
		r.Use(opts.Cache.Middleware)
	}

	// Initialize Huma API
	config := huma.DefaultConfig("Badminton Events API", "1.0.0")
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearerAuth": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
		"cookieAuth": {
			Type: "apiKey",
			In:   "cookie",
			Name: "auth_token",
		},
		"apiKeyAuth": {
			Type: "apiKey",
			In:   "header",
			Name: "X-API-KEY",
		},
	}
	api := humachi.New(r, config)

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	// Auth routes
	limited := func(o *huma.Operation) {}
	if opts.AuthLimiter != nil {
		limited = func(o *huma.Operation) {
			o.Middlewares = append(o.Middlewares, opts.AuthLimiter.Middleware(api))
		}
	}
	huma.Post(api, "/api/auth/register", h.Auth.HandleRegister, func(o *huma.Operation) {
		o.DefaultStatus = http.StatusCreated
		limited(o)
	})
	huma.Post(api, "/api/auth/login", h.Auth.HandleLogin, limited)
	huma.Get(api, "/api/auth/me", h.Auth.HandleMe, secured)
	huma.Put(api, "/api/auth/profile", h.Auth.HandleUpdateProfile, secured)
	if h.Auth.DiscordEnabled() {
		r.Get("/api/auth/discord/login", h.Auth.HandleDiscordLogin)
		r.Get("/api/auth/discord/callback", h.Auth.HandleDiscordCallback)
	}

	huma.Post(api, "/api/auth/api-keys", h.APIKeys.HandleCreate, created)
	huma.Get(api, "/api/auth/api-keys", h.APIKeys.HandleList, secured)
	huma.Delete(api, "/api/auth/api-keys/{id}", h.APIKeys.HandleDelete, secured)

	huma.Put(api, "/api/admin/users/{id}/role", h.Auth.HandleSetRole, secured)

	// Event routes
	huma.Get(api, "/api/events", h.Events.HandleList)
	huma.Get(api, "/api/events/{id}", h.Events.HandleGet)
	huma.Post(api, "/api/events", h.Events.HandleCreate, created)
	huma.Put(api, "/api/events/{id}", h.Events.HandleUpdate, secured)
	huma.Delete(api, "/api/events/{id}", h.Events.HandleDelete, secured)
	huma.Get(api, "/api/events/{id}/qrcode", h.Events.HandleQRCode)

	// Registration routes
	huma.Post(api, "/api/events/{id}/register", h.Registrations.HandleRegister, created)
	huma.Delete(api, "/api/events/{id}/register", h.Registrations.HandleUnregister, secured)
	huma.Get(api, "/api/events/{id}/registrations", h.Registrations.HandleParticipants, secured)
	huma.Get(api, "/api/events/{id}/history", h.Registrations.HandleHistory, secured)
	huma.Get(api, "/api/me/registrations", h.Registrations.HandleMyRegistrations, secured)

	// Match making is not built yet; the route only reports liveness.
	huma.Get(api, "/api/matches/health", func(ctx context.Context, _ *struct{}) (*MessageOutput, error) {
		out := &MessageOutput{}
		out.Body.Message = "Matches service is running"
		return out, nil
	})

	return api
}
