package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/esantoro/gaphor"
	"github.com/esantoro/gaphor/internal/config"
	"github.com/esantoro/gaphor/internal/presentation/graph"
	"github.com/esantoro/gaphor/internal/presentation/tui"
	"github.com/esantoro/gaphor/pkg/domain"
	"github.com/esantoro/gaphor/pkg/script"
)

// Output formats of the run command.
const (
	FormatReport = "report"
	FormatJSON   = "json"
	FormatGraph  = "graph"
)

// RunOptions contains all the configuration for the Run command.
type RunOptions struct {
	Document   string
	ScriptPath string // "-" reads Stdin
	ModelIn    string // optional model file loaded before the script
	ModelOut   string // optional model file written after the script
	Fresh      bool   // drop the document's backup first
	Format     string
	Styled     bool // render markdown for a terminal
	Banner     bool
}

// RunReport is the JSON output of the run command.
type RunReport struct {
	Status  gaphor.Status        `json:"status"`
	Result  *script.Result       `json:"result,omitempty"`
	Model   *domain.Snapshot     `json:"model"`
	Changes *domain.SnapshotDiff `json:"changes,omitempty"`
	Error   string               `json:"error,omitempty"`
}

// Execute applies a script to a document and prints the outcome to out.
// The document is restored from, and backed up to, the configured store.
func Execute(ctx context.Context, cfg *config.Config, opts RunOptions, in io.Reader, out io.Writer) (err error) {
	logger, err := CreateLogger(cfg)
	if err != nil {
		return err
	}
	if opts.Document == "" {
		opts.Document = "default"
	}

	steps, err := readScript(opts.ScriptPath, in)
	if err != nil {
		return err
	}

	stack, err := NewStack(cfg, logger)
	if err != nil {
		return err
	}
	defer stack.Close()

	if opts.Fresh && stack.Store != nil {
		if err := stack.Store.Delete(ctx, opts.Document); err != nil && !errors.Is(err, domain.ErrSnapshotNotFound) {
			return fmt.Errorf("error resetting document: %w", err)
		}
	}

	app := stack.NewApplication(opts.Document)
	if err := app.Init(ctx); err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, app.Shutdown(context.WithoutCancel(ctx)))
	}()

	if opts.ModelIn != "" {
		if err := loadModel(app, opts.ModelIn); err != nil {
			return err
		}
	}

	before := app.Factory.Snapshot()
	result, runErr := script.NewRunner(script.WithLogger(logger)).Run(ctx, app, steps)
	if runErr != nil {
		logger.Error("script failed", "err", runErr)
	}

	if opts.ModelOut != "" {
		if err := saveModel(app, opts.ModelOut); err != nil {
			return errors.Join(runErr, err)
		}
	}

	if err := printOutcome(out, opts, app, before, result, runErr); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}

func readScript(path string, in io.Reader) ([]script.Step, error) {
	if path == "" || path == "-" {
		return script.Parse(in)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening script: %w", err)
	}
	defer f.Close()
	return script.Parse(f)
}

func loadModel(app *gaphor.Application, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("error opening model: %w", err)
	}
	defer f.Close()
	return app.Load(f)
}

func saveModel(app *gaphor.Application, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating model file: %w", err)
	}
	if err := app.Save(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printOutcome(out io.Writer, opts RunOptions, app *gaphor.Application, before *domain.Snapshot, result *script.Result, runErr error) error {
	snap := app.Factory.Snapshot()
	changes := domain.Diff(before, snap)
	var created []string
	if result != nil {
		created = result.Created
	}

	switch opts.Format {
	case FormatJSON:
		report := RunReport{Status: app.Status(), Result: result, Model: snap, Changes: changes}
		if runErr != nil {
			report.Error = runErr.Error()
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case FormatGraph:
		_, err := io.WriteString(out, graph.GenerateMermaid(snap, &graph.GraphOverlay{Highlighted: changes.Touched()}))
		return err
	}

	if opts.Banner {
		tui.PrintBanner(out, gaphor.Version)
	}
	rendered, err := tui.NewRenderer(opts.Styled)(tui.Report(app.Status(), snap, created))
	if err != nil {
		return err
	}
	fmt.Fprint(out, rendered)
	if runErr != nil {
		printSystemMessage(out, "Stopped: %v", runErr)
	} else if result != nil {
		printSystemMessage(out, "Applied %d steps.", result.Steps)
	}
	return nil
}
