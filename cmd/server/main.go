package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shouni/go-http-kit/pkg/httpkit"

	"github.com/shouni/genimage-adapter/pkg/adapters"
	"github.com/shouni/genimage-adapter/pkg/config"
	"github.com/shouni/genimage-adapter/pkg/generator"
	"github.com/shouni/genimage-adapter/pkg/server"
)

const shutdownTimeout = 15 * time.Second

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := run(); err != nil {
		slog.Error("サーバーを起動できませんでした", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	transport, err := newTransport(cfg)
	if err != nil {
		return err
	}

	adapter, err := generator.NewAdapter(
		transport,
		generator.EnvCredential(cfg.CredentialEnv),
		generator.WithRetryPolicy(generator.RetryPolicy{MaxAttempts: cfg.MaxAttempts, BaseDelay: cfg.BaseDelay}),
		generator.WithInputCompression(cfg.CompressionQuality),
		generator.WithFetcher(httpkit.New(cfg.FetchTimeout)),
	)
	if err != nil {
		return fmt.Errorf("failed to create adapter: %w", err)
	}

	handler, err := server.NewHandler(adapter)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("サーバーを起動します", "addr", srv.Addr, "backend", transport.Name())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	slog.Info("サーバーを停止しました")
	return nil
}

func newTransport(cfg *config.Config) (generator.Transport, error) {
	if cfg.Backend == config.BackendPollinations {
		t, err := adapters.NewPollinationsTransport(cfg.PollinationsEndpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create pollinations transport: %w", err)
		}
		return t, nil
	}

	t, err := adapters.NewGeminiTransport(cfg.GeminiModel, adapters.NewGenAIClientFactory(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini transport: %w", err)
	}
	return t, nil
}
