package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/shoplist/internal/config"
	"github.com/JonMunkholm/shoplist/internal/metrics"
	"github.com/JonMunkholm/shoplist/internal/web"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				opts.cfg.Server.Port = port
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return Serve(ctx, opts.cfg)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides SERVER_PORT)")
	return cmd
}

// Serve runs the HTTP server until ctx is cancelled, then shuts it down
// within the configured timeout.
func Serve(ctx context.Context, cfg *config.Config) error {
	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"store", cfg.Store.Driver,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	m := metrics.New()
	svc, store, err := OpenService(ctx, cfg, m)
	if err != nil {
		return err
	}
	defer store.Close()

	slog.Info("catalog loaded", "products", len(svc.Catalog()), "aisles", len(svc.Aisles()))

	server, err := web.NewServer(svc, cfg, m)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		return err
	}
	slog.Info("server stopped")
	return nil
}
