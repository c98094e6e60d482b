package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Volatile-Viv/Try-Karo/internal/authz"
	"github.com/Volatile-Viv/Try-Karo/internal/service"
	"github.com/Volatile-Viv/Try-Karo/pkg/health"
	"github.com/Volatile-Viv/Try-Karo/pkg/httputil"
	"github.com/Volatile-Viv/Try-Karo/pkg/middleware"
)

// Services bundles the application services the router exposes.
type Services struct {
	Users    *service.UserService
	Products *service.ProductService
	Reviews  *service.ReviewService
	Insights *service.InsightsService
	Uploads  *service.UploadService
	Chat     *service.ChatService
}

// RouterConfig holds the HTTP-level settings.
type RouterConfig struct {
	ServiceName    string
	CORS           middleware.CORSConfig
	RateLimitRPS   int
	RateLimitBurst int
	ChatRateLimit  int
	PprofCIDRs     []string

	// Metrics instruments every request when set. MetricsHandler serves
	// /metrics when set.
	Metrics        *middleware.HTTPMetrics
	MetricsHandler http.Handler
}

// NewRouter creates a chi router with all API routes registered. ctx bounds
// the lifetime of the rate limiter's background sweeper.
func NewRouter(
	ctx context.Context,
	svc Services,
	enforcer middleware.Enforcer,
	healthHandler *health.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}
	r.Use(middleware.CORS(cfg.CORS))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteMessage(w, r, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteMessage(w, r, http.StatusMethodNotAllowed, "Method not allowed")
	})

	// Operational endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}
	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	auth := middleware.Auth(svc.Users.Authenticate)

	users := NewUserHandler(svc.Users, svc.Insights, logger)
	products := NewProductHandler(svc.Products, logger)
	reviews := NewReviewHandler(svc.Reviews, logger)
	uploads := NewUploadHandler(svc.Uploads, logger)
	chat := NewChatHandler(svc.Chat, logger)

	r.Route("/api", func(r chi.Router) {
		if cfg.RateLimitRPS > 0 {
			r.Use(middleware.RateLimit(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst, logger))
		}

		r.Route("/users", func(r chi.Router) {
			r.Post("/register", users.Register)
			r.Post("/login", users.Login)

			r.Group(func(r chi.Router) {
				r.Use(auth)

				r.Get("/me", users.Me)
				r.Get("/profile", users.Me)
				r.Put("/profile", users.UpdateProfile)
				r.Put("/password", users.ChangePassword)
				r.With(middleware.RequirePermission(enforcer, authz.ObjInsights, authz.ActRead, "Only brands can access user insights")).
					Get("/insights", users.Insights)
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", products.List)
			r.Get("/{id}", products.Get)
			r.Get("/{id}/reviews", reviews.ListByProduct)

			r.Group(func(r chi.Router) {
				r.Use(auth)

				r.Get("/user", products.ListMine)
				r.With(middleware.RequirePermission(enforcer, authz.ObjProduct, authz.ActCreate, "")).
					Post("/", products.Create)
				r.Put("/{id}", products.Update)
				r.Delete("/{id}", products.Delete)
				r.Put("/{id}/inventory", products.DecrementInventory)
				r.Put("/{id}/checkout", products.Checkout)
				r.With(middleware.RequirePermission(enforcer, authz.ObjReview, authz.ActCreate, "")).
					Post("/{id}/reviews", reviews.Create)
			})
		})

		r.Route("/reviews", func(r chi.Router) {
			r.With(auth).Get("/me", reviews.ListMine)
			r.Get("/{id}", reviews.Get)

			r.Group(func(r chi.Router) {
				r.Use(auth)

				r.Put("/{id}", reviews.Update)
				r.Delete("/{id}", reviews.Delete)
				r.Post("/{id}/comments", reviews.AddComment)
				r.Delete("/{id}/comments/{commentId}", reviews.DeleteComment)
			})
		})

		r.With(auth).Post("/upload", uploads.Upload)

		chatLimit := cfg.ChatRateLimit
		if chatLimit <= 0 {
			chatLimit = 20
		}
		r.With(middleware.WindowLimit(chatLimit, time.Minute)).Post("/chat/message", chat.Message)
	})

	return r
}
