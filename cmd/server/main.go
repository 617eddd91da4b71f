package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"optik-backend/config"
	"optik-backend/internal/events"
	"optik-backend/internal/handler"
	"optik-backend/internal/utils"
	"optik-backend/pkg/database"
	"optik-backend/pkg/logging"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

func main() {
	// 1. Load Configuration
	bootLog := logging.GetSugaredLogger(os.Getenv("SERVER_ENV"))
	cfg := config.LoadConfig(bootLog)

	log := logging.GetSugaredLogger(cfg.Server.Env)
	defer log.Sync()

	if cfg.Server.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	decimal.MarshalJSONWithoutQuotes = true

	// 2. Connect to Database
	db, err := database.Connect(cfg.Database, cfg.Server.Env, log.Named("database"))
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// 3. Auto-Migrate Models
	log.Info("Running migrations...")
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Info("Migrations completed successfully.")

	if err := database.SeedAdmin(db, cfg.Defaults, log); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	// 4. Domain events
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Events.AMQPURL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.Events.AMQPURL, cfg.Events.Exchange)
		if err != nil {
			log.Errorw("event broker unavailable, events will be dropped", "error", err)
		} else {
			publisher = amqpPublisher
			log.Infow("publishing events", "exchange", cfg.Events.Exchange)
		}
	}
	defer publisher.Close()

	// 5. Setup Routes
	tokens := utils.NewTokenManager(cfg.Server.JWTSecret, time.Duration(cfg.Server.JWTExpirationHours)*time.Hour)
	router, err := handler.NewRouter(handler.Deps{
		DB:             db,
		Tokens:         tokens,
		Publisher:      publisher,
		Log:            log,
		Store:          cfg.Store,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})
	if err != nil {
		log.Fatalf("Failed to build router: %v", err)
	}

	// 6. Start Server
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		log.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Errorf("Server stopped with error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	log.Info("Server exited")
}
