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

	"github.com/Anaqqa/supfile/config"
	"github.com/Anaqqa/supfile/database"
	"github.com/Anaqqa/supfile/handlers"
	"github.com/Anaqqa/supfile/logger"
	"github.com/Anaqqa/supfile/middleware"
	"github.com/Anaqqa/supfile/repositories"
	"github.com/Anaqqa/supfile/services"
	"github.com/Anaqqa/supfile/storage"
	"github.com/Anaqqa/supfile/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
)

const shutdownTimeout = 15 * time.Second

func main() {
	configPath := pflag.StringP("config", "c", "config.yaml", "path to the YAML config file")
	printConfig := pflag.Bool("print-config", false, "print the effective config and exit")
	pflag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	if *printConfig {
		if err := config.Write(os.Stdout, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "print config failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	logger.Init(cfg.Log.Level, cfg.Log.Format)
	logger.Infof("starting supfile service")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Fatalf("server stopped: %v", err)
	}
	logger.Infof("server stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	db, err := database.Open(&cfg.Database)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := database.Migrate(db); err != nil {
		return err
	}
	logger.Infof("database migration completed")

	redisClient, err := database.NewRedisClient(ctx, &cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	backend, err := storage.NewBackend(ctx, &cfg.Storage)
	if err != nil {
		return err
	}
	content := storage.NewContentStore(backend, cfg.Storage.MaxFileSize)

	repoContainer := repositories.NewGormRepositories(db, redisClient).BuildContainer()
	serviceContainer := services.NewContainer(repoContainer, content, services.Options{
		MaxFileSize:  cfg.Storage.MaxFileSize,
		DefaultQuota: cfg.Storage.DefaultUserQuota,
		JWT:          utils.NewJWTManager(cfg.JWT.Secret, cfg.JWT.ExpireHours, cfg.JWT.Issuer),
		Thumbnail: services.ThumbnailOptions{
			Width:   cfg.Thumbnail.Width,
			Height:  cfg.Thumbnail.Height,
			Quality: cfg.Thumbnail.Quality,
		},
		RetentionDays:   cfg.RecycleBin.RetentionDays,
		CleanupInterval: time.Duration(cfg.RecycleBin.CleanupInterval) * time.Second,
	})
	handlers.SetServices(serviceContainer, content)

	go serviceContainer.Cleanup.Start(ctx)
	logger.Infof("trash cleanup worker started: retention_days=%d", cfg.RecycleBin.RetentionDays)

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(), middleware.Metrics(), middleware.CORS(cfg.CORS.AllowedOrigins))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.SetupRoutes(r,
		middleware.AuthMiddleware(serviceContainer.Auth),
		middleware.ShareRateLimit(repoContainer.AccessCounter, cfg.Share.RateLimitPerMinute, cfg.Share.RateLimitBurst),
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("server listening on http://%s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
