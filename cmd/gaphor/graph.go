package main

import (
	"context"
	"fmt"
	"os"

	"github.com/esantoro/gaphor/internal/cli"
	"github.com/esantoro/gaphor/internal/presentation/graph"
	"github.com/esantoro/gaphor/pkg/domain"
	"github.com/esantoro/gaphor/pkg/storage"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [model-file]",
	Short: "Export the model as a Mermaid diagram",
	Long: `Outputs a Mermaid diagram (graph TD) of a model file, or of the document's backup
when no file is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var snap *domain.Snapshot
		if len(args) > 0 {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("error opening model: %w", err)
			}
			defer f.Close()
			if snap, err = storage.Decode(f); err != nil {
				return err
			}
		} else {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
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
			if stack.Store == nil {
				return fmt.Errorf("no model file given and no store configured")
			}

			doc, _ := cmd.Flags().GetString("document")
			if snap, err = stack.Store.Load(context.Background(), doc); err != nil {
				return fmt.Errorf("error loading backup of %s: %w", doc, err)
			}
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(snap, nil))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("document", "d", "default", "Document whose backup to draw")
}
