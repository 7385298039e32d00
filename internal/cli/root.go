// Package cli implements the shoplist command line. Every command opens the
// configured store, acts as the identity named by --user and closes the
// store again.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/shoplist/internal/config"
	"github.com/JonMunkholm/shoplist/internal/core"
	"github.com/JonMunkholm/shoplist/internal/logging"
	"github.com/JonMunkholm/shoplist/internal/storage"
)

// rootOptions is shared by every subcommand.
type rootOptions struct {
	envFile string
	user    string
	cfg     *config.Config
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "shoplist",
		Short: "A shared shopping list with aisle-ordered printouts",
		Long: `shoplist keeps one shopping list per user over a shared product catalog.
Products are grouped by supermarket aisle, and the checked ones can be
printed, exported as a checklist or re-imported later as text.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.init(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "environment file loaded before configuration")
	cmd.PersistentFlags().StringVarP(&opts.user, "user", "u", os.Getenv("SHOPLIST_USER"), "identity to act as (default anonymous)")

	cmd.AddCommand(
		newServeCmd(opts),
		newImportCatalogCmd(opts),
		newExportCmd(opts),
		newImportListCmd(opts),
		newUsersCmd(opts),
		newResetCmd(opts),
		newTUICmd(opts),
	)
	return cmd
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		slog.Debug("command failed", "error", err)
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", userMessage(err))
		os.Exit(1)
	}
}

func userMessage(err error) string {
	if core.IsUserFacing(err) {
		return core.FormatUserError(err)
	}
	return err.Error()
}

func (o *rootOptions) init(cmd *cobra.Command) error {
	if err := godotenv.Load(o.envFile); err != nil {
		slog.Debug("no environment file loaded", "path", o.envFile, "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.SetupWriter(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
	o.cfg = cfg
	return nil
}

// session is an opened service acting as one identity.
type session struct {
	svc   *core.Service
	store storage.Store
	id    core.Identity
}

func (s *session) Close() error {
	return s.store.Close()
}

// open opens the service and resolves --user. Administrators are accepted
// as is; anyone else must be registered.
func (o *rootOptions) open(ctx context.Context) (*session, error) {
	svc, store, err := OpenService(ctx, o.cfg, nil)
	if err != nil {
		return nil, err
	}

	id := core.Anonymous()
	if name := strings.TrimSpace(o.user); name != "" && !strings.EqualFold(name, core.AnonymousName) {
		if id, err = svc.Login(ctx, name); err != nil {
			store.Close()
			return nil, fmt.Errorf("user %q: %w", name, err)
		}
	}
	return &session{svc: svc, store: store, id: id}, nil
}

// OpenService opens the configured store and loads the master catalog.
// obs may be nil.
func OpenService(ctx context.Context, cfg *config.Config, obs core.Observer) (*core.Service, storage.Store, error) {
	store, err := storage.Open(ctx, cfg.Store)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}

	svc := core.NewService(store, core.Options{
		Delimiter:    cfg.Catalog.DelimiterRune(),
		DefaultAisle: cfg.Catalog.DefaultAisle,
		Locale:       cfg.Catalog.Locale,
		MaxUsers:     cfg.Users.MaxUsers,
		Admins:       cfg.Users.AdminUsers,
		Observer:     obs,
	})

	loadCtx, cancel := context.WithTimeout(ctx, cfg.Store.Timeout)
	defer cancel()
	if err := svc.Load(loadCtx); err != nil {
		store.Close()
		return nil, nil, err
	}
	return svc, store, nil
}
