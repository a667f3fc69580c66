package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/vnkhanh/matching-server/config"
	"github.com/vnkhanh/matching-server/controllers"
	"github.com/vnkhanh/matching-server/jobs"
	"github.com/vnkhanh/matching-server/middleware"
	"github.com/vnkhanh/matching-server/repositories"
	"github.com/vnkhanh/matching-server/repositories/memstore"
	"github.com/vnkhanh/matching-server/routes"
	"github.com/vnkhanh/matching-server/services"
	"github.com/vnkhanh/matching-server/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log := config.NewLogger(cfg)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := openStore(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("open store")
	}

	publisher, closeRedis := newPublisher(cfg, log)
	defer closeRedis()

	loc := cfg.Location()
	notifier := services.NewNotificationService(services.NotificationServiceConfig{
		Store:     store,
		Publisher: publisher,
		Logger:    log,
	})
	matchings := services.NewMatchingService(services.MatchingServiceConfig{
		Store:    store,
		Notifier: notifier,
		Location: loc,
		Logger:   log,
	})
	applies := services.NewApplyService(services.ApplyServiceConfig{
		Store:    store,
		Notifier: notifier,
		Logger:   log,
	})
	auth := services.NewAuthService(services.AuthServiceConfig{
		Store:          store,
		JWTSecret:      []byte(cfg.Auth.JWTSecret),
		TokenTTL:       cfg.Auth.TokenTTL,
		GoogleClientID: cfg.Auth.GoogleClientID,
		Logger:         log,
	})
	exports := services.NewExportService(services.ExportServiceConfig{
		Store:  store,
		Dir:    cfg.Export.Dir,
		Logger: log,
	})

	var uploader controllers.ImageUploader
	if cfg.Supabase.URL != "" && cfg.Supabase.Key != "" {
		uploader = utils.NewSupabaseStorage(cfg.Supabase.URL, cfg.Supabase.Key, cfg.Supabase.Bucket)
	} else {
		log.Warn("SUPABASE_URL not set, image upload disabled")
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log), middleware.Metrics())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.HeaderRequestID},
		ExposeHeaders:    []string{"Content-Length", middleware.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if err := r.SetTrustedProxies(nil); err != nil {
		log.WithError(err).Fatal("set trusted proxies")
	}

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Matching server is running")
	})
	routes.SetupRoutes(r, routes.Deps{
		Matchings:       matchings,
		Applies:         applies,
		Notifications:   notifier,
		Auth:            auth,
		Exports:         exports,
		Uploader:        uploader,
		Health:          store,
		Logger:          log,
		MatchingsPerMin: cfg.RateLimit.MatchingsPerMin,
		AppliesPerMin:   cfg.RateLimit.AppliesPerMin,
		Burst:           cfg.RateLimit.Burst,
	})

	closer := jobs.NewRecruitCloser(jobs.RecruitCloserConfig{
		Closer: matchings,
		Spec:   cfg.Jobs.RecruitCloserSpec,
		Logger: log,
	})
	if cfg.Jobs.RecruitCloserOn {
		if err := closer.Start(); err != nil {
			log.WithError(err).Fatal("start recruit closer")
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.WithField("port", cfg.Server.Port).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server stopped")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	closer.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
	log.Info("server exited")
}

func openStore(cfg *config.Config, log logrus.FieldLogger) (repositories.Store, error) {
	if cfg.Database.Driver == "memory" {
		log.Warn("using in-memory store, data is lost on restart")
		return memstore.New(), nil
	}
	db, err := config.ConnectDB(cfg, log)
	if err != nil {
		return nil, err
	}
	return repositories.NewGormStore(db), nil
}

func newPublisher(cfg *config.Config, log logrus.FieldLogger) (services.Publisher, func()) {
	if cfg.Redis.Addr == "" {
		return services.LogPublisher{Logger: log}, func() {}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.WithError(err).Warn("redis unreachable, publishes fail until it is back")
	}
	return services.NewRedisPublisher(client, cfg.Redis.ChannelPrefix), func() { _ = client.Close() }
}
