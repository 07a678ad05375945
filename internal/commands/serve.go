package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"evalgo.org/schemaeditor/internal/api"
	"evalgo.org/schemaeditor/internal/devbackend"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the UI bridge",
	Long: `Start the HTTP API and websocket that expose the editor state to a UI.

The schema given with --schema (or editor.default_schema) is loaded on
startup; a UI can switch schemas through the API.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var devBackendCmd = &cobra.Command{
	Use:   "dev-backend",
	Short: "Start an in-memory schema backend",
	Long: `Start a schema backend that keeps every schema in memory. It serves the
same HTTP and websocket contract as the real backend, validates submitted
batches, and seeds dev_backend.seed_schema with a sample topology.`,
	Args: cobra.NoArgs,
	RunE: runDevBackend,
}

// server is the lifecycle shared by the UI bridge and the dev backend.
type server interface {
	Start() error
	Shutdown(ctx context.Context) error
}

func runServe(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	client, err := newClient(logger)
	if err != nil {
		return err
	}
	st := newStore(client, cfg.Editor.LiveUpdates, logger)
	defer st.Close()

	if name, err := targetSchema(); err == nil {
		if err := st.SelectSchema(cmd.Context(), name); err != nil {
			logger.Warn("initial schema not loaded", zap.String("schema", name), zap.Error(err))
		}
	}

	return serveUntilSignal(cmd, api.New(cfg, st, logger), logger)
}

func runDevBackend(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	repo := devbackend.NewRepository()
	if seed := cfg.DevBackend.SeedSchema; seed != "" {
		if err := repo.Seed(seed); err != nil {
			return fmt.Errorf("failed to seed schema %s: %w", seed, err)
		}
	}

	return serveUntilSignal(cmd, devbackend.New(cfg, repo, logger), logger)
}

func serveUntilSignal(cmd *cobra.Command, srv server, logger *zap.Logger) error {
	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(cmd.Context(),
		os.Interrupt,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer stop()

	// Start server in a goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil

	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}
}
