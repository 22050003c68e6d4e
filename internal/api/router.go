package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/UzukeeIA/ROBUXFREE/internal/api/handler"
	"github.com/UzukeeIA/ROBUXFREE/internal/api/middleware"
	"github.com/UzukeeIA/ROBUXFREE/internal/app/service"
	"github.com/UzukeeIA/ROBUXFREE/internal/app/session"
	"github.com/UzukeeIA/ROBUXFREE/internal/common/security"
)

// RouterDeps carries everything the HTTP layer is built from.
type RouterDeps struct {
	AuthService       *service.AuthService
	AvatarService     *service.AvatarService
	CollectionService *service.CollectionService
	Sessions          session.Store
	Issuer            *security.TokenIssuer
	Limiter           middleware.RateLimiter
	Metrics           *middleware.Metrics
	Logger            *slog.Logger

	SecureCookie   bool
	TrustProxy     bool
	AuthRateLimit  int
	AuthRateWindow time.Duration
}

// RequestTimeout bounds handler work. It must stay below the server's
// WriteTimeout or the connection is cut before the 504 can be written.
const RequestTimeout = 25 * time.Second

func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	if deps.TrustProxy {
		// Forwarded headers replace RemoteAddr, which the rate limiter keys on.
		r.Use(chiMiddleware.RealIP)
	}
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chiMiddleware.Recoverer)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Instrument)
	}
	r.Use(chiMiddleware.Timeout(RequestTimeout))

	// Session cookie -> verified claims -> user id in context.
	r.Use(middleware.Verifier(deps.Issuer))
	r.Use(middleware.SessionLoader(deps.Sessions, deps.Logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	limit := func(route string) func(http.Handler) http.Handler {
		return middleware.RateLimit(deps.Limiter, deps.Metrics, route, deps.AuthRateLimit, deps.AuthRateWindow)
	}

	r.Route("/api/v1", func(v1 chi.Router) {
		authHandler := handler.NewAuthHandler(deps.AuthService, deps.Sessions, deps.Issuer, deps.SecureCookie, deps.Logger)
		v1.Route("/auth", func(auth chi.Router) {
			authHandler.RegisterRoutes(auth, limit)
		})

		avatarHandler := handler.NewAvatarHandler(deps.AvatarService, deps.Logger)
		v1.Route("/avatar", avatarHandler.RegisterRoutes)

		collectionHandler := handler.NewCollectionHandler(deps.CollectionService, deps.Logger)
		v1.Group(collectionHandler.RegisterRoutes)
	})

	return r
}
