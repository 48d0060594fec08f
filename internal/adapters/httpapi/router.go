package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

type RouterOptions struct {
	// AuthMiddleware guards admin routes. Defaults to the dev shim with no default subject.
	AuthMiddleware func(http.Handler) http.Handler
	// RateLimiter throttles public routes. Nil disables rate limiting.
	RateLimiter *RateLimiter
	// AllowedOrigins enables CORS for the web front-end. Empty disables CORS handling.
	AllowedOrigins []string
	Logger         *zap.Logger
}

// NewRouter constructs the API HTTP router with dev auth and no rate limiting.
func NewRouter(s *Server) http.Handler {
	return NewRouterWithOptions(s, RouterOptions{})
}

func NewRouterWithOptions(s *Server, opts RouterOptions) http.Handler {
	log := opts.Logger
	if log == nil {
		log = s.log
	}
	authMW := opts.AuthMiddleware
	if authMW == nil {
		authMW = NewDevAuthMiddleware("")
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewRequestLogger(log))
	r.Use(middleware.Recoverer)
	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type", "Idempotency-Key", "X-Debug-Subject"},
			ExposedHeaders: []string{"Content-Disposition", "X-Request-Id"},
			MaxAge:         600,
		}).Handler)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if opts.RateLimiter != nil {
				r.Use(opts.RateLimiter.Middleware)
			}
			r.Get("/event", s.GetEvent)
			r.Get("/pass/{code}", s.GetPass)
			r.Post("/pass/{code}/confirm", s.ConfirmPass)
			r.Post("/pass/{code}/messages", s.CreatePassMessage)
			r.Get("/messages/public", s.ListPublicMessages)
			r.Post("/auth/sign-in", s.SignIn)
		})

		r.Group(func(r chi.Router) {
			r.Use(authMW)
			r.Get("/auth/session", s.GetSession)
			r.Post("/auth/sign-out", s.SignOut)

			r.Get("/reservations", s.ListReservations)
			r.Post("/reservations", s.CreateReservation)
			r.Get("/reservations/stats", s.GetReservationStats)
			r.Get("/reservations/export", s.ExportReservations)
			r.Get("/reservations/code/{code}", s.GetReservationByCode)
			r.Get("/reservations/{id}", s.GetReservation)
			r.Patch("/reservations/{id}", s.UpdateReservation)
			r.Delete("/reservations/{id}", s.DeleteReservation)
			r.Post("/reservations/{id}/check-in", s.CheckInReservation)
			r.Get("/reservations/{id}/messages", s.ListReservationMessages)
			r.Post("/check-in", s.CheckInByScan)

			r.Get("/messages", s.ListMessages)
			r.Get("/messages/stats", s.GetMessageStats)
			r.Get("/messages/{id}", s.GetMessage)
			r.Patch("/messages/{id}", s.UpdateMessage)
			r.Delete("/messages/{id}", s.DeleteMessage)
			r.Post("/messages/{id}/toggle-blocked", s.ToggleMessageBlocked)
		})
	})
	return r
}
