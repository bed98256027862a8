// Package main provides the discord-mcp stdio server. It drives a real
// Chromium session against the Discord web client and exposes server,
// channel, message, search and context operations as MCP tools for use
// by MCP-compatible clients.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/entrhq/discord-mcp/pkg/config"
	"github.com/entrhq/discord-mcp/pkg/discord"
	"github.com/entrhq/discord-mcp/pkg/mcp"
)

var (
	flagConfig  string
	flagHeadful bool
	flagDebug   bool
)

func main() {
	root := &cobra.Command{
		Use:   "discord-mcp",
		Short: "MCP server exposing Discord through a scripted browser session",
		Long: "discord-mcp serves Model Context Protocol tools over stdio, backed by a\n" +
			"Playwright-driven Chromium session logged into the Discord web client.\n" +
			"Credentials come from DISCORD_EMAIL and DISCORD_PASSWORD (or a config file).",
		SilenceUsage: true,
		RunE:         runServe,
	}
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "path to YAML config file")
	root.PersistentFlags().BoolVar(&flagHeadful, "headful", false, "run the browser with a visible window")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")

	root.AddCommand(&cobra.Command{
		Use:          "install-driver",
		Short:        "Download the Playwright driver and browser binaries",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return discord.InstallDriver()
		},
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagHeadful {
		cfg.Headless = false
	}
	if flagDebug {
		cfg.Debug = true
	}

	log, err := newLogger(cfg.Debug)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	return mcp.New(cfg, log).ServeStdio()
}

// newLogger builds a zap logger writing to stderr only. Stdout carries
// the MCP wire protocol and must stay clean.
func newLogger(debug bool) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	if debug {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		zcfg.Development = true
		zcfg.Encoding = "console"
		zcfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	return zcfg.Build()
}
