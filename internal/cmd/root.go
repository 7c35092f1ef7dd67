// Package cmd holds the certgen command-line interface.
package cmd

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/youruser/certapp/internal/batch"
	"github.com/youruser/certapp/internal/config"
	imagepkg "github.com/youruser/certapp/internal/image"
	"github.com/youruser/certapp/internal/logging"
	"github.com/youruser/certapp/internal/records"
)

var errNoDatabase = errors.New("database not configured: set [database] name in config or DATABASE_NAME")

// cfg is loaded before any subcommand runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:           "certgen",
	Short:         "Certificate batch tools: offline rendering, schema migrations, roster import",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logging.InitLogger(c.Logging.File, c.Logging.MaxSizeMB, c.Logging.MaxBackups, c.Logging.MaxAgeDays, c.Logging.Compress, c.Logging.Level)
		cfg = c
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newArchiver() *batch.Archiver {
	return batch.NewArchiver(imagepkg.NewCompositor(cfg.Assets.Root, cfg.Assets.FontPath, cfg.Assets.MaxBackgroundBytes()))
}

func openDB(cmd *cobra.Command) (*sql.DB, error) {
	if !cfg.Database.Enabled() {
		return nil, errNoDatabase
	}
	return records.Open(cmd.Context(), cfg.Database)
}

func init() {
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(importCmd)
}
