package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/clubos/internal/config"
	"github.com/smallbiznis/clubos/internal/migration"
	"github.com/smallbiznis/clubos/internal/observability"
	"github.com/smallbiznis/clubos/internal/server"
	"github.com/smallbiznis/clubos/internal/storage"
	"github.com/smallbiznis/clubos/pkg/db"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "clubos",
		Short:   "ClubOS booking platform core",
		Version: Version,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			app := fx.New(
				fx.Supply(cfg),
				observability.Module,
				fx.Provide(RegisterSnowflake),
				storage.Module(cfg),
				server.Module,
			)
			if err := app.Err(); err != nil {
				return err
			}
			app.Run()
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the SQL schema migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cfg.StoreDriver != config.StoreDriverSQL {
				return errors.New("migrate requires STORE_DRIVER=sql")
			}

			timeout, err := cmd.Flags().GetDuration("timeout")
			if err != nil {
				return err
			}

			app := fx.New(
				fx.Supply(cfg),
				observability.Module,
				db.Module,
				fx.Invoke(func(conn *gorm.DB, log *zap.Logger) error {
					if err := migration.Run(conn); err != nil {
						return err
					}
					log.Info("migrations applied")
					return nil
				}),
				fx.NopLogger,
			)

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			if err := app.Start(ctx); err != nil {
				return err
			}
			return app.Stop(ctx)
		},
	}

	cmd.Flags().Duration("timeout", time.Minute, "Maximum time to wait for the database")
	return cmd
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNode)
}
