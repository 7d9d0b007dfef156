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

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/auth"
	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/booking"
	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/cache"
	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/clients"
	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/config"
	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/db"
	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/flow"
	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/handlers"
	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/middleware"
	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/notifications"
	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/validation"
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

	// Flow sessions live in the cache layer, so without Redis we still need
	// a store that retains values.
	var cacheStore cache.Cache = cache.NewMemory()
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
	} else {
		logger.Info("redis not configured, using in-memory cache")
	}

	var jwtManager *auth.Manager
	if cfg.JWTSecret != "" {
		jwtManager = &auth.Manager{
			Secret:     []byte(cfg.JWTSecret),
			AccessTTL:  time.Duration(cfg.AccessTTLMinutes) * time.Minute,
			RefreshTTL: time.Duration(cfg.RefreshTTLMinutes) * time.Minute,
			Issuer:     "vitoria4u",
		}
	}

	var notifier booking.Notifier
	if reminder := notifications.NewReminderClient(cfg.ReminderWebhookURL, cfg.ReminderAPIKey); reminder != nil {
		notifier = reminder
		logger.Info("reminder webhook enabled")
	} else {
		logger.Info("reminder webhook disabled")
	}

	store := booking.NewMongoStore(client, cols)
	bookingService := booking.NewService(store, booking.Policy{
		SlotGranularityMin: cfg.SlotGranularityMin,
		ClientLimit:        cfg.ClientLimit,
	}, cfg.Timezone, notifier, logger)

	clientsService := clients.NewService(clients.NewRepository(cols.Clients), cfg.Timezone)

	sessionStore := flow.NewCacheStore(cacheStore, time.Duration(cfg.SessionTTLMinutes)*time.Minute)
	flowController := flow.NewController(sessionStore, bookingService, clientsService, store, cfg.Timezone)

	server := &handlers.Server{
		Cfg:     cfg,
		Cols:    cols,
		Val:     validation.New(),
		Log:     logger,
		Cache:   cacheStore,
		Booking: bookingService,
		Clients: clientsService,
		Flow:    flowController,
	}

	r := chi.NewRouter()
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.FrontendOrigin))
	r.Use(chiMiddleware.Timeout(30 * time.Second))

	bookingLimiter := middleware.NewRateLimiter(cfg.RateLimitBooking, time.Duration(cfg.RateLimitWindowSec)*time.Second)
	flowLimiter := middleware.NewRateLimiter(cfg.RateLimitFlow, time.Duration(cfg.RateLimitWindowSec)*time.Second)

	r.Route("/api", func(api chi.Router) {
		api.Route("/businesses/{businessId}", func(biz chi.Router) {
			biz.Get("/", server.GetBusiness)
			biz.Get("/services", server.GetServices)
			biz.Get("/professionals", server.GetProfessionals)
			biz.Get("/availability", server.GetAvailability)
			biz.Get("/availability/next", server.GetNextAvailability)

			biz.With(bookingLimiter.Middleware).Post("/appointments", server.CreateAppointment)
			biz.Post("/appointments/lookup", server.LookupAppointment)

			biz.Route("/flow/sessions", func(fl chi.Router) {
				fl.Use(flowLimiter.Middleware)
				fl.Post("/", server.StartFlowSession)
				fl.Get("/{sessionId}", server.GetFlowSession)
				fl.Post("/{sessionId}", server.SubmitFlowSession)
				fl.Post("/{sessionId}/back", server.BackFlowSession)
				fl.Delete("/{sessionId}", server.AbandonFlowSession)
			})
		})

		api.With(bookingLimiter.Middleware).Patch("/appointments/{id}", server.RescheduleAppointment)
		api.With(bookingLimiter.Middleware).Post("/appointments/{id}/cancel", server.CancelAppointment)

		api.Route("/admin", func(admin chi.Router) {
			admin.Post("/register", server.AdminRegister)
			admin.Post("/login", server.AdminLogin)
			admin.Post("/refresh", server.AdminRefresh)
			admin.Post("/logout", server.AdminLogout)

			admin.Group(func(protected chi.Router) {
				protected.Use(middleware.AdminAuth(cfg.AdminAPIKey, jwtManager))
				protected.Post("/users", server.AdminCreateUser)
				protected.Patch("/users/{id}/password", server.AdminUpdateUserPassword)
				protected.Route("/businesses/{businessId}", func(biz chi.Router) {
					biz.Put("/schedule", server.AdminUpdateSchedule)
					biz.Post("/services", server.AdminCreateService)
					biz.Put("/services/{id}", server.AdminUpdateService)
					biz.Post("/professionals", server.AdminCreateProfessional)
					biz.Put("/professionals/{id}", server.AdminUpdateProfessional)
					biz.Get("/blocks", server.AdminListBlocks)
					biz.Post("/blocks", server.AdminCreateBlock)
					biz.Delete("/blocks/{id}", server.AdminDeleteBlock)
					biz.Get("/appointments", server.AdminListAppointments)
					biz.Patch("/appointments/{id}/status", server.AdminUpdateAppointmentStatus)
				})
			})
		})
	})

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
		logger.Error("shutdown error", slog.String("error", err.Error()))
	}
	logger.Info("server stopped")
}
