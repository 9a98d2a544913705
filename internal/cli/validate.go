package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/veriplan/veriplan/internal/docstore"
	"github.com/veriplan/veriplan/internal/jobs"
	"github.com/veriplan/veriplan/internal/logging"
	"github.com/veriplan/veriplan/internal/model"
	"github.com/veriplan/veriplan/internal/pipeline"
)

var (
	docsDir      string
	outJSON      string
	outMD        string
	timeout      time.Duration
	noFooter     bool
	async        bool
	pollInterval time.Duration
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate <schedule-file>",
	Short: "Validate one drafted schedule against its source documents",
	Long: `Validate runs the full pipeline over a drafted schedule:
- Extract a claim from every drafted field value
- Verify explicit claims against the documents they cite
- Audit provenance and detect contradictions between claims
- Recalibrate confidence from the gathered evidence
- Evaluate quality gates and repair failures where possible

The schedule file may be YAML or JSON. Source documents are loaded
from the directory given with --docs.

Example:
  veriplan validate schedule.yaml --docs ./sources
  veriplan validate schedule.yaml --docs ./sources --json report.json --md report.md
  veriplan validate schedule.yaml --docs ./sources --async`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&docsDir, "docs", "", "directory of source documents (.txt, .md, .html)")
	validateCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path")
	validateCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path")
	validateCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall validation timeout")
	validateCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	validateCmd.Flags().BoolVar(&async, "async", false, "run as a background job and poll for progress")
	validateCmd.Flags().DurationVar(&pollInterval, "poll-interval", 200*time.Millisecond, "progress poll interval with --async")
}

func runValidate(cmd *cobra.Command, args []string) error {
	path := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Output.IncludeFooter = !noFooter

	logger := logging.New(logging.Config{
		Level:   logLevel(),
		Quiet:   quiet,
		Service: "validate",
	})

	docs, err := loadDocs(docsDir)
	if err != nil {
		return err
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "Loaded %d source documents\n", docs.Len())
	}

	o := pipeline.NewOrchestrator(cfg, docs, logger)

	var outcome *model.ValidationOutcome
	if async {
		outcome, err = runAsync(ctx, cfg, o, path)
	} else {
		schedule, lerr := pipeline.LoadSchedule(path)
		if lerr != nil {
			return lerr
		}
		outcome, err = o.Validate(ctx, schedule, nil)
	}
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	return renderOutcome(cfg, outcome, outJSON, outMD)
}

// runAsync submits the run to the job store and polls until it
// reaches a terminal state, printing progress along the way.
func runAsync(ctx context.Context, cfg *model.Config, o *pipeline.Orchestrator, path string) (*model.ValidationOutcome, error) {
	store := jobs.NewStore(cfg.Jobs)

	schedule, err := pipeline.LoadSchedule(path)
	if err != nil {
		return nil, err
	}

	id := store.Submit(func(jobCtx context.Context, progress func(int, string)) (*model.ValidationOutcome, error) {
		return o.Validate(jobCtx, schedule, progress)
	})
	if verbose {
		fmt.Fprintf(os.Stderr, "Submitted job %s\n", id)
	}

	lastStep := ""
	for {
		select {
		case <-ctx.Done():
			store.Cancel(id)
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}

		status, ok := store.Poll(id)
		if !ok {
			return nil, fmt.Errorf("job %s disappeared", id)
		}
		if verbose && status.CurrentStep != lastStep && status.CurrentStep != "" {
			fmt.Fprintf(os.Stderr, "[%3d%%] %s\n", status.Progress, status.CurrentStep)
			lastStep = status.CurrentStep
		}
		if status.State.Terminal() {
			if status.State == model.JobError {
				return nil, fmt.Errorf("%s", status.Error)
			}
			outcome, ok := store.Result(id)
			if !ok {
				return nil, fmt.Errorf("job %s finished without a result", id)
			}
			return outcome, nil
		}
	}
}

// loadDocs builds the document corpus for a run. An empty directory
// flag yields an empty corpus: every citation will then fail
// verification, which is the honest result.
func loadDocs(dir string) (*docstore.Store, error) {
	store := docstore.NewStore()
	if dir == "" {
		return store, nil
	}
	n, err := store.LoadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("loading documents: %w", err)
	}
	if n == 0 {
		fmt.Fprintf(os.Stderr, "Warning: no supported documents found in %s\n", dir)
	}
	return store, nil
}

func renderOutcome(cfg *model.Config, outcome *model.ValidationOutcome, jsonPath, mdPath string) error {
	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)

	if jsonPath != "" {
		if err := renderer.RenderJSON(outcome, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Wrote JSON: %s\n", jsonPath)
		}
	}
	if mdPath != "" {
		if err := renderer.RenderMarkdown(outcome, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Wrote Markdown: %s\n", mdPath)
		}
	}

	renderer.RenderSummary(os.Stdout, outcome)
	return nil
}

func logLevel() string {
	if verbose {
		return "debug"
	}
	return "info"
}
