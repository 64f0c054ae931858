package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/iwvelando/calcsuite/internal/auth"
	"github.com/iwvelando/calcsuite/internal/leaderboard"
	"github.com/iwvelando/calcsuite/internal/metrics"
	"github.com/iwvelando/calcsuite/internal/server"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 10 * time.Second

func serveCmd(a *app) *cobra.Command {
	var serverConfigPath, envFile, maxUploadSize string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the calculator, account and leaderboard HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := a.serverConfig(serverConfigPath, envFile)
			if err != nil {
				return err
			}
			if maxUploadSize != "" {
				size, err := server.ParseSize(maxUploadSize)
				if err != nil {
					return err
				}
				cfg.SetUploadSizeBytes(size)
			}
			return a.serve(ctx, cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&serverConfigPath, "server-config", "", "standalone server configuration file; replaces the server section of --config")
	flags.StringVar(&envFile, "env-file", ".env", "dotenv file with JWT_SECRET and PORT")
	flags.StringVar(&maxUploadSize, "max-upload-size", "", "request body limit override, e.g. 512K or 1M")
	return cmd
}

// serverConfig assembles the server settings. Values from the dotenv file and
// the environment (JWT_SECRET, PORT) take precedence over the config files.
func (a *app) serverConfig(serverConfigPath, envFile string) (*server.Config, error) {
	const op = "main.serve"

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			a.logger.Warn("failed to load env file",
				zap.String("op", op),
				zap.String("path", envFile),
				zap.Error(err),
			)
		}
	}

	var cfg *server.Config
	var err error
	if serverConfigPath != "" {
		cfg, err = server.LoadConfig(serverConfigPath)
	} else {
		cfg, err = server.FromConfiguration(a.conf)
	}
	if err != nil {
		return nil, err
	}

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.JWTSecret = secret
	}
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		host, _, splitErr := net.SplitHostPort(cfg.Address)
		if splitErr != nil {
			host = ""
		}
		cfg.Address = net.JoinHostPort(host, port)
	}
	return cfg, nil
}

func (a *app) serve(ctx context.Context, cfg *server.Config) error {
	const op = "main.serve"
	logger := a.logger

	store, err := leaderboard.Open(leaderboard.StoreOptions{
		Path:       cfg.StorePath,
		SyncWrites: cfg.StorePath != "",
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close leaderboard store", zap.String("op", op), zap.Error(err))
		}
	}()

	authLimiter := auth.NewRateLimiter(ctx, "auth", cfg.RateLimit.Auth.Requests, cfg.RateLimit.Auth.Window, logger)
	authLimiter.OnLimit = metrics.ObserveRateLimited
	scoreLimiter := auth.NewRateLimiter(ctx, "score", cfg.RateLimit.Score.Requests, cfg.RateLimit.Score.Window, logger)
	scoreLimiter.OnLimit = metrics.ObserveRateLimited

	handler := server.NewHandler(server.Dependencies{
		Logger:           logger,
		Table:            a.table,
		Leaderboard:      leaderboard.NewService(store, logger),
		Tokens:           auth.NewIssuer(cfg.JWTSecret),
		AuthLimiter:      authLimiter,
		ScoreLimiter:     scoreLimiter,
		MaxUploadSize:    cfg.UploadSizeBytes(),
		LeaderboardLimit: cfg.LeaderboardLimit,
		Currency:         a.conf.Tax.Currency,
		Version:          version,
	})

	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("op", op),
			zap.String("address", cfg.Address),
			zap.String("store", storeDescription(cfg.StorePath)),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server", zap.String("op", op))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server stopped", zap.String("op", op))
	return nil
}

func storeDescription(path string) string {
	if path == "" {
		return "in-memory"
	}
	return path
}
