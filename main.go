package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/princinho/moviecatalog/config"
	"github.com/princinho/moviecatalog/controllers"
	"github.com/princinho/moviecatalog/database"
	"github.com/princinho/moviecatalog/dto"
	"github.com/princinho/moviecatalog/events"
	"github.com/princinho/moviecatalog/logging"
	"github.com/princinho/moviecatalog/middleware"
	"github.com/princinho/moviecatalog/models"
	"github.com/princinho/moviecatalog/services"
	"github.com/princinho/moviecatalog/utils"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type publisher interface {
	services.EventPublisher
	Close() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := database.Connect(ctx, cfg.Mongo)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	if err := store.EnsureIndexes(ctx); err != nil {
		logging.Fatal().Err(err).Msg("failed to create indexes")
	}

	users := database.NewUserRepository(store)
	refreshTokens := database.NewRefreshTokenRepository(store)
	movies := database.NewMovieRepository(store)
	feedbackRepo := database.NewFeedbackRepository(store)
	people := services.PeopleStores{
		models.RoleActor:    database.NewPeopleRepository(store, models.RoleActor),
		models.RoleProducer: database.NewPeopleRepository(store, models.RoleProducer),
	}
	tx := database.NewTransactor(store.Client, cfg.Mongo.Transactions)

	var pub publisher = events.NoopPublisher{}
	if cfg.AMQP.URL != "" {
		amqpPub, err := events.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Queue)
		if err != nil {
			logging.Warn().Err(err).Msg("event broker unavailable, events disabled")
		} else {
			pub = amqpPub
		}
	}

	rdb := middleware.NewRedisClient(ctx, cfg.Redis)

	objectStore, err := utils.NewObjectStorage(ctx, cfg.Storage)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialise object storage")
	}

	issuer := utils.NewTokenIssuer(cfg.Auth)
	identity := services.NewIdentityService(users, refreshTokens, issuer, cfg.Auth.BcryptCost)
	catalog := services.NewCatalogService(movies, people, tx, pub)
	feedback := services.NewFeedbackService(feedbackRepo, movies, users, pub)

	if cfg.Seed.DemoData {
		seeder := services.NewDemoSeeder(identity, catalog, feedback, users, cfg.Seed.DemoPassword)
		if err := seeder.Seed(ctx); err != nil {
			logging.Error().Err(err).Msg("demo seed failed")
		}
	}

	dto.RegisterValidators()
	if cfg.Logging.Level != "debug" && cfg.Logging.Level != "trace" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	allowedOrigins := map[string]bool{}
	for _, origin := range cfg.Server.AllowedOrigins {
		allowedOrigins[origin] = true
	}
	logging.Info().Strs("origins", cfg.Server.AllowedOrigins).Msg("cors configured")
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return allowedOrigins[origin]
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", logging.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", logging.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(logging.GinLogger())
	r.Use(gin.Recovery())
	r.Use(middleware.Metrics())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	controllers.RegisterRoutes(r, controllers.Deps{
		Config:   cfg,
		Identity: identity,
		Tokens:   issuer,
		Catalog:  catalog,
		Feedback: feedback,
		Uploader: utils.NewUploader(objectStore, cfg.Storage),
		DB:       store,
		Redis:    rdb,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logging.Info().Int("port", cfg.Server.Port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logging.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("http shutdown")
	}
	if err := pub.Close(); err != nil {
		logging.Warn().Err(err).Msg("close event publisher")
	}
	if objectStore != nil {
		if err := objectStore.Close(); err != nil {
			logging.Warn().Err(err).Msg("close object storage")
		}
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if err := store.Close(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("close mongodb")
	}
}
