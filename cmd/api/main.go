package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hexagono-backend/internal/admin"
	"hexagono-backend/internal/auth"
	"hexagono-backend/internal/cache"
	"hexagono-backend/internal/catalog"
	"hexagono-backend/internal/config"
	"hexagono-backend/internal/db"
	"hexagono-backend/internal/middleware"
	"hexagono-backend/internal/notifications"
	"hexagono-backend/internal/pricing"
	"hexagono-backend/internal/quotes"
	"hexagono-backend/internal/validation"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, cols, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Error("mongo connection failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("mongo connected")
	defer client.Disconnect(context.Background())

	if err := db.EnsureIndexes(ctx, cols); err != nil {
		logger.Error("index creation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var cacheStore cache.Cache = cache.NewNoop()
	if cfg.RedisURL != "" || cfg.RedisAddr != "" {
		var redisCache *cache.RedisCache
		var err error
		if cfg.RedisURL != "" {
			redisCache, err = cache.NewRedisFromURL(cfg.RedisURL)
		} else {
			redisCache = cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		}
		if err != nil {
			logger.Error("redis connection failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if err := redisCache.Ping(ctx); err != nil {
			logger.Error("redis connection failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("redis connected")
		cacheStore = redisCache
	}

	var jwtManager *auth.Manager
	if cfg.JWTSecret != "" {
		jwtManager = &auth.Manager{
			Secret:     []byte(cfg.JWTSecret),
			AccessTTL:  time.Duration(cfg.AccessTTLMinutes) * time.Minute,
			RefreshTTL: time.Duration(cfg.RefreshTTLMinutes) * time.Minute,
			Issuer:     "hexagono-backend",
		}
	}

	mailer := notifications.NewBrevoClient(
		cfg.BrevoAPIKey,
		cfg.BrevoSenderEmail,
		cfg.BrevoSenderName,
		cfg.AdminNotifyEmail,
		cfg.TrackingBaseURL,
		cfg.BrevoSandbox,
	)
	if mailer == nil {
		logger.Info("brevo mailer disabled")
	} else {
		logger.Info("brevo mailer enabled", slog.String("sender", cfg.BrevoSenderEmail), slog.Bool("sandbox", cfg.BrevoSandbox))
	}

	val := validation.New()

	// The Notifier interface is satisfied by *BrevoClient; a nil client means
	// notifications are simply skipped.
	var notifier quotes.Notifier
	if mailer != nil {
		notifier = mailer
	}

	quoteRepo := quotes.NewRepository(cols.Quotes)
	quoteService := quotes.NewService(
		quoteRepo,
		cfg.Timezone,
		notifier,
		cacheStore,
		logger,
		time.Duration(cfg.ReminderAfterHours)*time.Hour,
	)
	quoteHandler := quotes.NewHandler(quoteService, val, logger)

	pricingHandler := pricing.NewHandler(val, logger)
	catalogHandler := catalog.NewHandler(cacheStore, time.Duration(cfg.CacheTTLSeconds)*time.Second, logger)
	adminHandler := admin.NewHandler(cfg, cols.Users, jwtManager, val, logger)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.FrontendOrigin))
	r.Use(chiMiddleware.Timeout(30 * time.Second))

	quotesLimiter := middleware.NewRateLimiter(cfg.RateLimitQuotes, time.Duration(cfg.RateLimitWindowSec)*time.Second)
	pricingLimiter := middleware.NewRateLimiter(cfg.RateLimitPricing, time.Duration(cfg.RateLimitWindowSec)*time.Second)
	adminAuth := middleware.AdminAuth(cfg.AdminAPIKey, jwtManager)

	registerV1Routes := func(api chi.Router) {
		api.Get("/services", catalogHandler.List)
		api.With(pricingLimiter.Middleware).Post("/pricing/calculate", pricingHandler.Calculate)
		api.With(quotesLimiter.Middleware).Post("/quotes", quoteHandler.Create)
		api.Get("/quotes/track/{token}", quoteHandler.Track)

		api.Route("/admin", func(ar chi.Router) {
			ar.Post("/register", adminHandler.Register)
			ar.Post("/login", adminHandler.Login)
			ar.Post("/refresh", adminHandler.Refresh)
			ar.Post("/logout", adminHandler.Logout)

			// chi requires middlewares before routes; login/refresh/logout stay
			// public, everything else goes through the protected sub-router.
			ar.Group(func(protected chi.Router) {
				protected.Use(adminAuth)
				protected.Post("/users", adminHandler.CreateUser)
				protected.Patch("/users/{id}/password", adminHandler.UpdateUserPassword)

				protected.Get("/quotes", quoteHandler.AdminList)
				protected.Get("/quotes/{id}", quoteHandler.AdminGetByID)
				protected.Patch("/quotes/{id}", quoteHandler.AdminUpdate)
				protected.Patch("/quotes/{id}/status", quoteHandler.AdminUpdateStatus)
				protected.Get("/quotes/{id}/status", quoteHandler.AdminStatusHistory)
				protected.Post("/quotes/{id}/notes", quoteHandler.AdminAddNote)
				protected.Post("/quotes/{id}/reminder", quoteHandler.AdminSendReminder)
			})
		})

		api.With(middleware.CronAuth(cfg.CronSecret)).Post("/cron/reminders", quoteHandler.CronBulkReminders)
	}

	r.Route("/api/v1", registerV1Routes)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: r,
	}

	go func() {
		logger.Info("server started", slog.String("addr", cfg.ServerAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
}
