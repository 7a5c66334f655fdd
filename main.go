package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/JawadAsif77/fundchain-sub001/internal/config"
	"github.com/JawadAsif77/fundchain-sub001/internal/database"
	"github.com/JawadAsif77/fundchain-sub001/internal/ledger"
	"github.com/JawadAsif77/fundchain-sub001/internal/logger"
	"github.com/JawadAsif77/fundchain-sub001/internal/metrics"
	"github.com/JawadAsif77/fundchain-sub001/internal/router"
	"github.com/JawadAsif77/fundchain-sub001/internal/util"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "fundchain",
		Short:         "FundChain escrow ledger service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the configuration file")
	root.AddCommand(serveCmd(), migrateCmd(), tokenCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, db, err := bootstrap()
			if err != nil {
				return err
			}

			opts, err := ledger.OptionsFromConfig(cfg.Ledger)
			if err != nil {
				return err
			}
			var rec *metrics.Recorder
			var obs ledger.Observer
			if cfg.Metrics.Enabled {
				rec = metrics.New()
				obs = rec
			}
			svc := ledger.NewService(db, log, opts, obs)

			r := router.SetupRouter(cfg, db, svc, rec, log)

			addr := fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)
			log.Info().Str("addr", addr).Msg("server listening")
			if err := r.Run(addr); err != nil {
				return fmt.Errorf("run server: %w", err)
			}
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, _, err := bootstrap()
			if err != nil {
				return err
			}
			log.Info().Msg("schema up to date")
			return nil
		},
	}
}

func tokenCmd() *cobra.Command {
	var role string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token <userId>",
		Short: "Issue a bearer token for local testing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return fmt.Errorf("auth.jwt_secret is empty, tokens are not checked")
			}
			tok, err := util.GenerateToken(cfg.Auth.JWTSecret, cfg.Auth.Issuer, args[0], role, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "role claim to embed")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}

// bootstrap loads configuration, opens the database and migrates it.
func bootstrap() (*config.Config, zerolog.Logger, *gorm.DB, error) {
	nop := zerolog.Nop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nop, nil, err
	}
	log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})

	if cfg.Database.Driver == "sqlite" || cfg.Database.Driver == "" {
		if err := ensureDir(filepath.Dir(cfg.Database.Path)); err != nil {
			return nil, log, nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := database.Init(cfg.Database)
	if err != nil {
		return nil, log, nil, fmt.Errorf("init database: %w", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, log, nil, fmt.Errorf("migrate database: %w", err)
	}
	return cfg, log, db, nil
}

func ensureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
