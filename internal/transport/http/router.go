package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"meridian/internal/auth/handler"
	"meridian/internal/platform/middleware"
	"meridian/internal/transport/http/json"
)

// RouterConfig carries everything the router wires together. Authenticate is
// the bearer-token middleware; it passes anonymous requests through so the
// login endpoints stay reachable.
type RouterConfig struct {
	Auth         *handler.Handler
	Authenticate func(http.Handler) http.Handler
	Logger       *slog.Logger
	HealthChecks map[string]func(ctx context.Context) error
}

// NewRouter wires all public endpoints with middleware.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.ClientAddr)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ContentTypeJSON)
	if cfg.Authenticate != nil {
		r.Use(cfg.Authenticate)
	}

	cfg.Auth.Register(r)

	r.Group(func(pr chi.Router) {
		pr.Use(middleware.RequirePrincipal(cfg.Logger))
		pr.Get("/auth/session", cfg.Auth.HandleSession)
	})

	r.Get("/healthz", handleHealthz(cfg.HealthChecks))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

func handleHealthz(checks map[string]func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := map[string]string{"status": "ok"}
		for name, check := range checks {
			if err := check(r.Context()); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				body[name] = err.Error()
				continue
			}
			body[name] = "ok"
		}
		json.WriteJSON(w, status, body)
	}
}
