package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"pubtagger/internal/app"
	"pubtagger/internal/config"
	"pubtagger/internal/db"
	"pubtagger/internal/logger"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	configPath string
	tablePath  string
	dryRun     bool
	report     bool
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "pubtagger",
	Short: "Purge blacklisted publications and tag articles by publication",
	Long:  `Deletes articles from blacklisted domains, then sets the publication
shortname (pub) and adds a category tag to every article of each mapped domain.

The target database comes from config.yaml or MONGO_URI / MONGO_DATABASE /
MONGO_COLLECTION. The tagging table is compiled in; --table replaces it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTag,
}

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Print the effective tagging table and its warnings",
	Args:  cobra.NoArgs,
	RunE:  runTable,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&tablePath, "table", "", "tagging table YAML (default: built-in table)")
	rootCmd.Flags().StringVar(&configPath, "config", "config.yaml", "job config YAML")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "count what would change without writing")
	rootCmd.Flags().BoolVar(&report, "report", false, "count articles per publication after tagging")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "override log.level")
	rootCmd.Flags().StringVar(&logFormat, "log-format", "", "override log.format (console|json)")
	rootCmd.AddCommand(tableCmd)
}

func loadTable() (*config.Table, error) {
	if tablePath == "" {
		return config.DefaultTable()
	}
	return config.LoadTable(tablePath)
}

func runTag(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	log := logger.New(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})

	table, err := loadTable()
	if err != nil {
		return fmt.Errorf("load table: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("database", cfg.DB.Database).
		Str("collection", cfg.DB.Collections.Articles).
		Int("blacklist", len(table.Blacklist)).
		Int("augment", table.Augment.Len()).
		Msg("starting tagging job")

	store, err := db.NewMongoDB(ctx, cfg.DB, cfg.Timeout())
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close MongoDB client")
		}
	}()

	job := app.NewTaggingJob(store, table, log, app.Options{DryRun: dryRun, Report: report})
	_, err = job.Run(ctx)
	return err
}

func runTable(cmd *cobra.Command, _ []string) error {
	table, err := loadTable()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "blacklist:")
	for _, domain := range table.Blacklist {
		fmt.Fprintf(out, "  %s\n", domain)
	}
	fmt.Fprintln(out, "augment:")
	for _, a := range table.Augment.Entries() {
		fmt.Fprintf(out, "  %-28s %-20s %s\n", a.Domain, a.Shortname, a.Tag)
	}
	for _, w := range table.Lint() {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
	}
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		l := logger.New(logger.Options{Writer: os.Stderr})
		l.WithLevel(zerolog.FatalLevel).Err(err).Msg("pubtagger failed")
		os.Exit(1)
	}
}
