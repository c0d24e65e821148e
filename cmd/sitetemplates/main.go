// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the sitetemplates command line tool. It manages site
// templates and answers resolution queries against the configured
// database, content store and cache.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"sitetemplates/internal/config"
)

var (
	cfgFile   string
	userID    int64
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"

	cfg *config.Config
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "sitetemplates",
	Short:         "Site template storage and resolution",
	Long:          `sitetemplates manages the page templates of multi-site CMS installs and resolves which template renders a page.`,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd == versionCmd {
			return nil
		}

		var err error
		if cfgFile != "" {
			cfg, err = config.LoadFile(cfgFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// Results go to stdout; logs stay on stderr.
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: cfg.SlogLevel(),
		}))
		slog.SetDefault(logger)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sitetemplates version %s\n", version)
		if commit != "unknown" {
			fmt.Printf("  commit: %s\n", commit)
		}
		if buildTime != "unknown" {
			fmt.Printf("  built:  %s\n", buildTime)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default $"+config.ConfigEnv+")")
	rootCmd.PersistentFlags().Int64Var(&userID, "user", 0, "user id recorded in template history")

	rootCmd.AddCommand(migrateCmd, seedCmd, siteCmd, channelCmd, templateCmd,
		resolveCmd, reconcileCmd, cacheLogCmd, watchCmd, versionCmd)
}
