package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/thereayou/vidtube/internal/cache"
	"github.com/thereayou/vidtube/internal/config"
	"github.com/thereayou/vidtube/internal/database"
	"github.com/thereayou/vidtube/internal/logging"
	"github.com/thereayou/vidtube/internal/media"
	"github.com/thereayou/vidtube/internal/services"
	"github.com/thereayou/vidtube/pkg/auth"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	Router  *gin.Engine
	DB      *database.Database
	Redis   *redis.Client
	Account services.AccountService

	cfg  *config.Config
	log  logging.Logger
	http *http.Server
}

func NewServer(ctx context.Context, cfg *config.Config, log logging.Logger) (*Server, error) {
	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}

	rdb, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("redis: %w", err)
	}

	uploader, err := media.NewS3Uploader(ctx, media.S3Options{
		Bucket:        cfg.S3Bucket,
		Region:        cfg.S3Region,
		Endpoint:      cfg.S3Endpoint,
		AccessKey:     cfg.S3AccessKey,
		SecretKey:     cfg.S3SecretKey,
		PublicBaseURL: cfg.MediaPublicBaseURL,
	})
	if err != nil {
		_ = rdb.Close()
		_ = db.Close()
		return nil, fmt.Errorf("media: %w", err)
	}

	svc := services.NewAccountService(services.Deps{
		DB:            db,
		Uploader:      uploader,
		Blacklist:     cache.NewRedisBlacklist(rdb),
		AccessTokens:  auth.NewJWTManager(cfg.AccessTokenSecret, cfg.AccessTokenExpiry),
		RefreshTokens: auth.NewJWTManager(cfg.RefreshTokenSecret, cfg.RefreshTokenExpiry),
		Passwords:     auth.NewPasswordHasher(cfg.BcryptCost),
		Logger:        log.With("component", "account"),
	})

	router := newRouter(cfg, log, svc)

	return &Server{
		Router:  router,
		DB:      db,
		Redis:   rdb,
		Account: svc,
		cfg:     cfg,
		log:     log,
		http: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Run serves until ctx is cancelled, then drains in-flight requests and
// closes the database and redis handles.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info(ctx, "server starting", "port", s.cfg.Port, "base_path", s.cfg.APIBasePath)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		s.log.Error(shutdownCtx, "graceful shutdown failed", "error", err)
	}
	if err := s.Redis.Close(); err != nil {
		s.log.Warn(shutdownCtx, "redis close", "error", err)
	}
	if err := s.DB.Close(); err != nil {
		s.log.Warn(shutdownCtx, "postgres close", "error", err)
	}

	s.log.Info(shutdownCtx, "server stopped")
	return runErr
}
