package main // Entry point package

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra" // command line interface
	"github.com/spf13/viper" // flags and environment in one place

	"github.com/iliyamo/floradex/internal/config"   // Internal config loader
	"github.com/iliyamo/floradex/internal/database" // MySQL connection and schema
	"github.com/iliyamo/floradex/internal/logging"  // zap wrapper
)

func main() {
	if err := rootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// rootCommand builds the CLI.  Running it without a sub-command serves
// the API.
func rootCommand() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:           "floradex",
		Short:         "Plant identification and collection API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), v)
		},
	}
	root.PersistentFlags().String("port", "", "HTTP port, overrides APP_PORT")
	root.PersistentFlags().String("env", "", "application environment, overrides APP_ENV")
	_ = v.BindPFlag("APP_PORT", root.PersistentFlags().Lookup("port"))
	_ = v.BindPFlag("APP_ENV", root.PersistentFlags().Lookup("env"))

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP API (default)",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return serve(cmd.Context(), v)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create the schema and seed the species catalog",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return migrate(cmd.Context(), v)
			},
		},
	)
	return root
}

// setup loads the configuration and builds the logger shared by all
// commands.
func setup(v *viper.Viper) (config.Config, *logging.Logger, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return config.Config{}, nil, err
	}
	log, err := logging.New(cfg.Env)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}

func migrate(ctx context.Context, v *viper.Viper) error {
	cfg, log, err := setup(v)
	if err != nil {
		return err
	}
	defer log.Sync()

	db, err := database.Open(cfg.DSNParts())
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	inserted, err := database.Migrate(ctx, db)
	if err != nil {
		return err
	}
	log.Info("migration complete", "species_inserted", inserted)
	return nil
}
