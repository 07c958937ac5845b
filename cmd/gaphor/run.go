package main

import (
	"context"
	"fmt"
	"os"

	"github.com/esantoro/gaphor/internal/cli"
	"github.com/esantoro/gaphor/internal/presentation/tui"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [script]",
	Short: "Apply a script of model edits to a document",
	Long: `Restores the document from its backup, applies the steps of the script (YAML or JSON,
"-" or no argument reads Stdin), prints the resulting model and history, and backs the
document up again.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		opts := cli.RunOptions{ScriptPath: "-"}
		if len(args) > 0 {
			opts.ScriptPath = args[0]
		}
		opts.Document, _ = cmd.Flags().GetString("document")
		opts.ModelIn, _ = cmd.Flags().GetString("load")
		opts.ModelOut, _ = cmd.Flags().GetString("save")
		opts.Fresh, _ = cmd.Flags().GetBool("fresh")
		opts.Format, _ = cmd.Flags().GetString("format")

		switch opts.Format {
		case cli.FormatReport, cli.FormatJSON, cli.FormatGraph:
		default:
			return fmt.Errorf("unknown format %q (report, json, graph)", opts.Format)
		}

		quiet, _ := cmd.Flags().GetBool("quiet")
		opts.Styled = tui.IsTerminal(os.Stdout)
		opts.Banner = opts.Styled && !quiet

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		return cli.Execute(sigCtx, cfg, opts, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("document", "d", "default", "Document ID (backup key)")
	runCmd.Flags().String("load", "", "Load a model file before running the script")
	runCmd.Flags().String("save", "", "Save the model to a file after running the script")
	runCmd.Flags().Bool("fresh", false, "Drop the document's backup before running")
	runCmd.Flags().StringP("format", "f", cli.FormatReport, "Output format: report, json, graph")
	runCmd.Flags().BoolP("quiet", "q", false, "Do not print the banner")
}
