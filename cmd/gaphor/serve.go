package main

import (
	"context"
	"fmt"
	"net"

	"github.com/esantoro/gaphor/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Serves documents over a JSON API: commands, undo, redo, transactions, backups,
Server-Sent Events of history changes and Prometheus metrics on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("addr") {
			cfg.HTTP.Addr, _ = cmd.Flags().GetString("addr")
		}

		logger, err := cli.CreateLogger(cfg)
		if err != nil {
			return err
		}
		stack, err := cli.NewStack(cfg, logger)
		if err != nil {
			return err
		}
		defer stack.Close()

		ln, err := net.Listen("tcp", cfg.HTTP.Addr)
		if err != nil {
			return fmt.Errorf("error listening on %s: %w", cfg.HTTP.Addr, err)
		}

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		if err := cli.Serve(sigCtx, stack, ln); err != nil {
			return err
		}
		if sig := sigCtx.Signal(); sig != nil {
			logger.Info("server stopped", "signal", sig.String())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", ":8080", "Address to listen on")
}
