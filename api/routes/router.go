package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/swiftride/users-backend/api/controllers"
	"github.com/swiftride/users-backend/api/middleware"
	"github.com/swiftride/users-backend/internal/auth"
	"github.com/swiftride/users-backend/internal/identity"
	"github.com/swiftride/users-backend/internal/users"
	"github.com/swiftride/users-backend/pkg/config"
	"github.com/swiftride/users-backend/pkg/logger"
	"github.com/swiftride/users-backend/pkg/metrics"
	"github.com/swiftride/users-backend/pkg/redis"
)

// RouterParams bundles everything the HTTP surface needs.
type RouterParams struct {
	Config    *config.Config
	Logger    *logger.Logger
	Assembler *users.Assembler
	Writer    *users.Writer
	Auth      auth.Service
	// Verifier upgrades bearer tokens to a trusted identity. Optional; when
	// nil the router trusts the X-User-Id header alone.
	Verifier identity.TokenVerifier
	// Redis backs the signup/login rate limiter. Optional.
	Redis   *redis.Client
	Metrics *metrics.HTTPMetrics
}

// NewRouter assembles the chi handler for the user service.
func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	httpMetrics := p.Metrics
	if httpMetrics == nil {
		httpMetrics = metrics.NewHTTPMetrics()
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
		httpMetrics.Middleware(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	signupPolicy := middleware.NewAuthRateLimitPolicy(
		"signup",
		cfg.AuthRateLimit.SignupWindow,
		cfg.AuthRateLimit.SignupIPLimit,
		cfg.AuthRateLimit.SignupEmailLimit,
	)
	rateLimit := func(policy middleware.AuthRateLimitPolicy) func(http.Handler) http.Handler {
		if p.Redis == nil {
			return middleware.AuthRateLimit(policy, nil, logg)
		}
		return middleware.AuthRateLimit(policy, p.Redis, logg)
	}

	r.Get("/metrics", httpMetrics.Handler().ServeHTTP)

	r.Route("/users", func(r chi.Router) {
		r.Get("/health", controllers.Health(cfg))
		r.Get("/all", controllers.ListUsers(p.Assembler, logg))

		r.With(rateLimit(signupPolicy)).Post("/signup", controllers.Signup(p.Auth, logg))
		r.With(rateLimit(loginPolicy)).Post("/login", controllers.Login(p.Auth, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Identity(p.Verifier, logg))
			r.Get("/", controllers.CurrentUser(p.Assembler, logg))
			r.Post("/", controllers.CreateUser(p.Writer, logg))
			r.Patch("/", controllers.UpdateProfile(p.Writer, logg))
			r.Post("/onboarding", controllers.Onboarding(p.Writer, logg))
		})
	})

	return r
}
