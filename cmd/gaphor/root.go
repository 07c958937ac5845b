package main

import (
	"fmt"
	"os"

	"github.com/esantoro/gaphor/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gaphor",
	Short: "gaphor is a transactional undo/redo engine for object models",
	Long: `gaphor keeps an object model together with an undo history of transactions.
Edits are applied from scripts (run), over HTTP (serve) or by AI agents (mcp); the model
is backed up to a file, memory or redis store between sessions.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultPath, "Path to the configuration file (YAML or JSON)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("store", "", "Backup store: none, memory, file, redis")
	rootCmd.PersistentFlags().String("dir", "", "Directory of the file store")
	rootCmd.PersistentFlags().String("redis-addr", "", "Address of the redis store")
	rootCmd.PersistentFlags().Int("stack-limit", 0, "Maximum number of undoable transactions (0 = unlimited)")
}

// loadConfig reads the config file and applies the flags the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("store") {
		cfg.Store.Kind, _ = flags.GetString("store")
	}
	if flags.Changed("dir") {
		cfg.Store.Dir, _ = flags.GetString("dir")
	}
	if flags.Changed("redis-addr") {
		cfg.Store.Redis.Addr, _ = flags.GetString("redis-addr")
	}
	if flags.Changed("stack-limit") {
		cfg.StackLimit, _ = flags.GetInt("stack-limit")
	}
	return cfg, cfg.Validate()
}
