package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/visadesk/visadesk/internal/auth"
	"github.com/visadesk/visadesk/internal/backend"
	"github.com/visadesk/visadesk/internal/command"
	"github.com/visadesk/visadesk/internal/config"
	"github.com/visadesk/visadesk/internal/handler"
	"github.com/visadesk/visadesk/internal/logging"
	"github.com/visadesk/visadesk/internal/metrics"
	"github.com/visadesk/visadesk/internal/payment"
	"github.com/visadesk/visadesk/internal/query"
	"github.com/visadesk/visadesk/internal/repository"
	"github.com/visadesk/visadesk/internal/session"
	"github.com/visadesk/visadesk/internal/web"
	"github.com/visadesk/visadesk/shared/events"
	"github.com/visadesk/visadesk/shared/middleware"
	redisClient "github.com/visadesk/visadesk/shared/redis"
)

const (
	shutdownTimeout       = 10 * time.Second
	sessionPublishTimeout = 2 * time.Second
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE:  runServe,
	}
}

// routes bundles what newRouter mounts.
type routes struct {
	auth      *handler.AuthHandler
	pages     *handler.PageHandler
	passports *handler.PassportHandler
	visas     *handler.VisaHandler
	billing   *handler.BillingHandler
	settings  *handler.SettingsHandler
	session   middleware.AuthConfig
	limiter   *middleware.RateLimiter

	// trustedProxies may set X-Forwarded-For; nil trusts none.
	trustedProxies []string
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}
	logging.Init(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Redis (sessions, price cache, event streams) is optional.
	var (
		store     session.Store
		publisher command.EventPublisher = events.Nop{}
		cache     goredis.Cmdable
	)
	if cfg.RedisAddr != "" {
		redis, err := redisClient.NewClient(redisClient.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return err
		}
		defer redis.Close()

		store = session.NewRedisStore(redis.Client)
		publisher = events.NewPublisher(redis.Client)
		cache = redis.Client
	} else {
		memory, err := session.NewMemoryStore()
		if err != nil {
			return err
		}
		store = memory
		logrus.Warn("REDIS_ADDR not set: sessions are kept in memory and events are dropped")
	}

	client, err := backend.New(backend.Config{
		URL:    cfg.BackendURL,
		APIKey: cfg.BackendAnonKey,
		OnCall: metrics.ObserveBackendCall,
	})
	if err != nil {
		return err
	}
	payments, err := payment.New(payment.Config{
		PublicKey:   cfg.PaymentPublicKey,
		CheckoutURL: cfg.PaymentCheckoutURL,
	})
	if err != nil {
		return err
	}

	manager := session.NewManager(store)
	defer manager.Close()
	unwatch := watchSessions(manager, publisher)
	defer unwatch()

	// --- CQRS wiring ---
	passportRepo := repository.NewPassportRepository(client)
	visaRepo := repository.NewVisaRepository(client)
	photoRepo := repository.NewFileRepository(client, repository.PassportPhotosBucket)
	documentRepo := repository.NewFileRepository(client, repository.VisaDocumentsBucket)
	preferencesRepo := repository.NewPreferencesRepository(client)
	billingRepo := repository.NewBillingRepository(client, cache)

	authSvc := auth.NewService(client.Auth(), manager, cfg.CallbackURL())
	authHandler := handler.NewAuthHandler(authSvc, cfg.SecureCookies())

	var secret []byte
	if cfg.BackendJWTSecret != "" {
		secret = []byte(cfg.BackendJWTSecret)
	}

	router, err := newRouter(routes{
		auth:  authHandler,
		pages: handler.NewPageHandler(authSvc, manager, payments.PublishableKey(), cfg.SecureCookies()),
		passports: handler.NewPassportHandler(
			command.NewPassportCommandService(passportRepo, photoRepo, publisher),
			query.NewPassportQueryService(passportRepo),
		),
		visas: handler.NewVisaHandler(
			command.NewVisaCommandService(visaRepo, documentRepo, publisher),
			query.NewVisaQueryService(visaRepo),
		),
		billing: handler.NewBillingHandler(
			command.NewBillingCommandService(billingRepo, payments, publisher),
			query.NewBillingQueryService(billingRepo),
		),
		settings: handler.NewSettingsHandler(
			command.NewPreferencesCommandService(preferencesRepo, publisher),
			query.NewPreferencesQueryService(preferencesRepo),
			authHandler,
		),
		session:        middleware.AuthConfig{Sessions: manager, Users: client.Auth(), JWTSecret: secret},
		limiter:        middleware.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst),
		trustedProxies: cfg.TrustedProxies,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.WithField("port", cfg.Port).Info("visadesk starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	logrus.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newRouter(r routes) (*gin.Engine, error) {
	router := gin.New()
	// Client IPs key the auth rate limiter, so forwarded headers count only
	// from configured proxies.
	if err := router.SetTrustedProxies(r.trustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(metrics.Middleware())
	router.SetHTMLTemplate(web.Templates())

	optional := middleware.AuthMiddleware(r.session, false)
	required := middleware.AuthMiddleware(r.session, true)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "visadesk"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	router.GET("/", optional, r.pages.Shell)
	router.GET(config.CallbackPath, r.pages.Callback)

	v1 := router.Group("/v1")
	authRoutes := v1.Group("/auth", r.limiter.Middleware())
	{
		authRoutes.POST("/signin", r.auth.SignIn)
		authRoutes.POST("/signup", r.auth.SignUp)
		authRoutes.POST("/reset-password", r.auth.ResetPassword)
		authRoutes.POST("/signout", optional, r.auth.SignOut)
	}
	v1.GET("/session", optional, r.auth.CurrentSession)

	passports := v1.Group("/passports", required)
	{
		passports.POST("", r.passports.CreatePassport)
		passports.GET("", r.passports.ListPassports)
		passports.POST("/photo", r.passports.UploadPhoto)
		passports.GET("/:id", r.passports.GetPassport)
	}

	visas := v1.Group("/visas", required)
	{
		visas.POST("", r.visas.CreateVisa)
		visas.GET("", r.visas.ListVisas)
		visas.POST("/documents", r.visas.UploadDocuments)
		visas.GET("/:id", r.visas.GetVisa)
		visas.DELETE("/:id", r.visas.DeleteVisa)
	}

	billing := v1.Group("/billing", required)
	{
		billing.GET("/prices", r.billing.ListPrices)
		billing.GET("/subscription", r.billing.GetSubscription)
		billing.GET("/payment-methods", r.billing.ListPaymentMethods)
		billing.POST("/checkout", r.billing.StartCheckout)
		billing.POST("/setup-intent", r.billing.CreateSetupIntent)
		billing.POST("/subscription/cancel", r.billing.CancelSubscription)
		billing.PUT("/payment-methods/:id/default", r.billing.SetDefaultPaymentMethod)
	}

	settings := v1.Group("/settings", required)
	{
		settings.GET("/notifications", r.settings.GetNotifications)
		settings.POST("/notifications/:key/toggle", r.settings.ToggleNotification)
		settings.POST("/security/password", r.settings.UpdatePassword)
		settings.POST("/security/signout-all", r.settings.SignOutAll)
	}

	return router, nil
}

// watchSessions forwards session changes to the session stream and the
// active session gauge. It returns the unsubscribe function.
func watchSessions(manager *session.Manager, publisher command.EventPublisher) func() {
	return manager.Subscribe(func(e session.Event) {
		scope := ""
		switch e.Kind {
		case session.SignedIn:
			if e.Session.ID != "" {
				metrics.SessionOpened()
			}
		case session.SignedOut:
			metrics.SessionsClosed(e.Removed)
			scope = backend.ScopeLocal
			if e.Global {
				scope = backend.ScopeGlobal
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), sessionPublishTimeout)
		defer cancel()
		err := publisher.Publish(ctx, events.SessionEventsStream, "session."+string(e.Kind), events.SessionEvent{
			UserID: e.Session.UserID,
			Email:  e.Session.Email,
			Scope:  scope,
		})
		if err != nil {
			logrus.WithError(err).WithField("kind", e.Kind).Warn("failed to publish session event")
		}
	})
}
