package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meur/tiermaker/internal/api"
	"github.com/meur/tiermaker/internal/blob"
	"github.com/meur/tiermaker/internal/config"
	"github.com/meur/tiermaker/internal/logging"
)

const shutdownTimeout = 10 * time.Second

// NewServerCmd builds the upload server command.
func NewServerCmd() *cobra.Command {
	v := config.New()
	cmd := &cobra.Command{
		Use:           "tiermaker-server",
		Short:         "Serve image uploads for tier lists",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadServer(v)
			if err != nil {
				return err
			}
			log, err := logging.New(cfg.LogLevel, cfg.LogDev)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			return serve(cmd.Context(), cfg, log)
		},
	}
	cmd.AddCommand(newVersionCmd())

	flags := cmd.Flags()
	flags.String("port", "", "Server port (env PORT)")
	flags.String("base-url", "", "Public origin used in image URLs (env BASE_URL)")
	flags.String("upload-dir", "", "Directory for fs storage (env UPLOAD_DIR)")
	flags.String("storage", "", "Storage backend: fs, s3 or gcs (env STORAGE_TYPE)")
	flags.String("static-dir", "", "Frontend build to serve at / (env STATIC_DIR)")
	flags.String("redis-addr", "", "Redis address for shared rate limiting (env REDIS_ADDR)")
	flags.Bool("trust-proxy", false, "Honour X-Forwarded-* headers from a reverse proxy (env TRUST_PROXY)")
	flags.String("log-level", "", "Log level (env LOG_LEVEL)")
	flags.Bool("log-dev", false, "Human-readable logs (env LOG_DEV)")
	bindFlags(v, flags, map[string]string{
		config.KeyPort:        "port",
		config.KeyBaseURL:     "base-url",
		config.KeyUploadDir:   "upload-dir",
		config.KeyStorageType: "storage",
		config.KeyStaticDir:   "static-dir",
		config.KeyRedisAddr:   "redis-addr",
		config.KeyTrustProxy:  "trust-proxy",
		config.KeyLogLevel:    "log-level",
		config.KeyLogDev:      "log-dev",
	})
	return cmd
}

func serve(ctx context.Context, cfg config.Server, log *zap.Logger) error {
	store, err := blob.New(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer closeStore(store, log)

	limiter, closeLimiter, err := newLimiter(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeLimiter()

	if cfg.StaticDir != "" {
		if _, err := os.Stat(cfg.StaticDir); err != nil {
			log.Warn("static dir not usable, frontend disabled", zap.String("dir", cfg.StaticDir), zap.Error(err))
			cfg.StaticDir = ""
		}
	}

	handler := api.New(store, api.Options{
		BaseURL:     cfg.BaseURL,
		CORSOrigins: cfg.CORSOrigins,
		Limiter:     limiter,
		StaticDir:   cfg.StaticDir,
		TrustProxy:  cfg.TrustProxy,
		Logger:      log,
	})
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info("upload server starting",
		zap.String("addr", srv.Addr),
		zap.String("storage", string(cfg.Storage.Type)),
		zap.String("base_url", cfg.BaseURL))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// closeStore releases backends that hold clients, such as GCS.
func closeStore(store blob.Store, log *zap.Logger) {
	c, ok := store.(io.Closer)
	if !ok {
		return
	}
	if err := c.Close(); err != nil {
		log.Warn("close storage", zap.Error(err))
	}
}

// newLimiter picks the Redis limiter when REDIS_ADDR is set, the in-memory
// one otherwise. A zero rate disables limiting.
func newLimiter(ctx context.Context, cfg config.Server, log *zap.Logger) (api.Limiter, func(), error) {
	if cfg.RateLimitRPS <= 0 {
		return nil, func() {}, nil
	}
	if cfg.RedisAddr != "" {
		rl := api.NewRedisLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RateLimitRPS, cfg.RateLimitBurst)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rl.Ping(pingCtx); err != nil {
			_ = rl.Close()
			return nil, nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
		}
		log.Info("rate limiting through redis", zap.String("addr", cfg.RedisAddr))
		return rl, func() { _ = rl.Close() }, nil
	}
	ml := api.NewMemoryLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	return ml, func() { _ = ml.Close() }, nil
}
