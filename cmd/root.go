package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/air-restore/restore-cli/internal/claim"
	"github.com/air-restore/restore-cli/internal/config"
	"github.com/air-restore/restore-cli/internal/store"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "restore-cli",
	Short: "Land-restoration claim registry",
	Long:  "Accepts land-restoration claims, fingerprints their content, runs the verification lifecycle, and issues credits on approval.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// openStore opens the configured database backend.
func openStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres", "":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, cfg.Store.Pool)
	case "sqlite":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver: %s", cfg.Store.Driver)
	}
}

// openService opens the store and wraps it in the claim service. The
// returned close function releases the store.
func openService(ctx context.Context) (*claim.Service, func(), error) {
	st, err := openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	svc := claim.NewService(st, cfg.Limits)
	return svc, func() { _ = st.Close() }, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
