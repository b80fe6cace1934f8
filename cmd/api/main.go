package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"swappo-matchmaking/internal/config"
	"swappo-matchmaking/internal/delivery/http/route"
	"swappo-matchmaking/pkg/logging"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		panic(err)
	}

	logger := logging.NewLogger(cfg.System.LogLevel)
	defer logger.Sync()

	db, err := config.ConnectPostgres(cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to PostgreSQL", zap.Error(err))
	}
	defer db.Close()
	logger.Info("connected to PostgreSQL", zap.String("database", cfg.Database.Name))

	// The Mongo side log is optional: the service keeps brokering offers
	// without it.
	mongoDB, err := config.ConnectMongo(cfg.Mongo)
	if err != nil {
		logger.Warn("MongoDB unavailable, running without notification/history log", zap.Error(err))
		mongoDB = nil
	} else {
		logger.Info("connected to MongoDB", zap.String("database", cfg.Mongo.Name))
	}

	gin.SetMode(gin.ReleaseMode)
	app := gin.New()
	route.SetupRoute(app, db, mongoDB, cfg, logger)

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: app,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server running", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
	logger.Info("server exited properly")
}
