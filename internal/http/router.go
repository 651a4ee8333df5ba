package http

import (
	"log/slog"

	"github.com/geocoder89/schedulehub/internal/auth"
	"github.com/geocoder89/schedulehub/internal/config"
	"github.com/geocoder89/schedulehub/internal/http/handlers"
	"github.com/geocoder89/schedulehub/internal/http/middlewares"
	"github.com/geocoder89/schedulehub/internal/notifications"
	"github.com/geocoder89/schedulehub/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const maxBodyBytes = 1 << 20

// UserStore is everything the HTTP layer needs from the users table.
type UserStore interface {
	handlers.AccountStore
	handlers.VerificationStore
	handlers.PushTokenStore
	middlewares.IdentityResolver
}

type ConsumerStore interface {
	handlers.ConsumerStore
	handlers.ConsumerLister
}

// Deps are the shared, long-lived collaborators the routes are built from.
// Clients are constructed once at startup and only read afterwards.
type Deps struct {
	Config config.Config

	JWT      *auth.Manager
	Prom     *observability.Prom
	Gatherer prometheus.Gatherer

	Users        UserStore
	Sessions     handlers.SessionStore
	Providers    handlers.ProviderLister
	Consumers    ConsumerStore
	Feedback     handlers.FeedbackStore
	Enrollments  handlers.EnrollmentStore
	Settings     handlers.SettingsStore
	Stats        handlers.DashboardCollector
	Entitlements handlers.EntitlementReader
	Portal       handlers.PortalLinker
	Places       handlers.Autocompleter
	Notifier     notifications.Notifier

	// Limiter guards the public auth and proxy routes. nil disables rate limiting.
	Limiter middlewares.Limiter

	Ready map[string]handlers.Pinger
}

func NewRouter(log *slog.Logger, d Deps) *gin.Engine {
	if d.Config.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// middleware
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.SecurityHeaders(d.Config.Env == "prod"))
	r.Use(middlewares.CORSMiddleware(d.Config.AllowedOrigins()))
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))
	r.Use(middlewares.RequireJSON())
	r.Use(otelgin.Middleware(d.Config.ServiceName))

	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}

	r.Use(middlewares.RequestLogger(log))

	gate := middlewares.NewGate(d.JWT, d.Users, d.Prom, log)
	r.Use(gate.Resolve())

	// health and metrics
	health := handlers.NewHealthHandler(d.Ready, log)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	throttleBy := func(scope string, key func(*gin.Context) string) gin.HandlerFunc {
		if d.Limiter == nil {
			return func(ctx *gin.Context) { ctx.Next() }
		}
		return middlewares.RateLimit(d.Limiter, scope, key, log)
	}
	throttle := func(scope string) gin.HandlerFunc {
		return throttleBy(scope, middlewares.KeyByIP)
	}

	// handlers
	authHandler := handlers.NewAuthHandler(d.Users, d.Sessions, d.JWT, d.Notifier, d.Config, log)
	verificationHandler := handlers.NewVerificationHandler(d.Users, log)
	settingsHandler := handlers.NewSettingsHandler(d.Settings, log)
	adminHandler := handlers.NewAdminHandler(d.Stats, d.Providers, d.Consumers, log)
	feedbackHandler := handlers.NewFeedbackHandler(d.Feedback, log)
	subscriptionHandler := handlers.NewSubscriptionHandler(d.Entitlements, d.Portal, log)
	placesHandler := handlers.NewPlacesHandler(d.Places, log)
	pushHandler := handlers.NewPushTokenHandler(d.Users, log)
	enrollmentHandler := handlers.NewEnrollmentHandler(d.Enrollments, log)
	consumersHandler := handlers.NewConsumersHandler(d.Consumers, d.Entitlements, log)

	api := r.Group("/api")

	authGroup := api.Group("/auth", throttle("auth"))
	{
		authGroup.POST("/signup", authHandler.SignUp)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.POST("/logout", authHandler.Logout)
		authGroup.GET("/verify-email/:token", verificationHandler.VerifyEmail)
		authGroup.POST("/check-verification", verificationHandler.CheckVerification)
	}

	api.GET("/settings/public", settingsHandler.Public)
	api.GET("/places/autocomplete", throttle("places"), placesHandler.Autocomplete)

	// anyone may ask to enroll; signed in callers get linked
	api.POST("/providers/:id/enrollment-requests", throttle("enrollment"), enrollmentHandler.Create)

	// signed in writes are budgeted per account, so users behind one NAT do not share a limit
	authed := api.Group("", gate.RequireAuth(), throttleBy("user", middlewares.KeyByUserOrIP))
	{
		authed.POST("/feedback", feedbackHandler.Create)
		authed.POST("/user/push-token", pushHandler.Save)
		authed.DELETE("/user/push-token", pushHandler.Clear)
	}

	provider := api.Group("", gate.RequireProvider())
	{
		provider.GET("/subscription/status", subscriptionHandler.Status)
		provider.POST("/stripe/portal", subscriptionHandler.Portal)

		provider.GET("/provider/enrollment-requests", enrollmentHandler.List)
		provider.PATCH("/provider/enrollment-requests/:id", enrollmentHandler.Update)

		provider.GET("/provider/consumers", consumersHandler.List)
		provider.POST("/provider/consumers", consumersHandler.Create)
	}

	admin := api.Group("/admin", gate.RequireAdmin())
	{
		admin.GET("/stats", adminHandler.Stats)
		admin.GET("/providers", adminHandler.ListProviders)
		admin.GET("/consumers", adminHandler.ListConsumers)

		admin.GET("/feedback", feedbackHandler.AdminList)
		admin.PUT("/feedback/:id", feedbackHandler.AdminUpdate)

		admin.GET("/settings", settingsHandler.AdminGet)
		admin.PUT("/settings", settingsHandler.AdminUpdate)
	}

	return r
}
