package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jgpdata/emissions-backend/internal/config"
	"github.com/jgpdata/emissions-backend/internal/db"
	"github.com/jgpdata/emissions-backend/internal/importer"
	"github.com/jgpdata/emissions-backend/internal/logger"
	"github.com/jgpdata/emissions-backend/internal/repository/postgres"
	"github.com/jgpdata/emissions-backend/internal/worker"
)

var (
	filePath string
	workers  int
)

var rootCmd = &cobra.Command{
	Use:          "importer",
	Short:        "Replace the emissions table with the contents of a spreadsheet",
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVarP(&filePath, "file", "f", "Primario2025.xlsx", "spreadsheet to import")
	rootCmd.Flags().IntVar(&workers, "workers", 4, "concurrent insert workers")
}

func run(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	repos := postgres.NewRepositories(pool)
	wp := worker.NewPool(workers)
	defer wp.Stop()

	res, err := importer.New(repos.Emissions, wp, log).Run(ctx, filePath)
	if err != nil {
		return err
	}
	log.Info("import finished", "imported", res.Imported, "failed", res.Failed)
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
