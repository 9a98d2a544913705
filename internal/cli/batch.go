package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/veriplan/veriplan/internal/logging"
	"github.com/veriplan/veriplan/internal/pipeline"
	"github.com/veriplan/veriplan/internal/worker"
)

var (
	batchDocsDir string
	batchOutDir  string
	batchWorkers int
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <manifest-file>",
	Short: "Validate multiple schedules concurrently",
	Long: `Batch validates every schedule listed in a manifest file (one path
per line, # for comments). Schedules are validated concurrently
against a shared document corpus.

Example:
  veriplan batch schedules.txt --docs ./sources --workers 4
  veriplan batch schedules.txt --docs ./sources --out-dir ./reports`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVar(&batchDocsDir, "docs", "", "directory of source documents")
	batchCmd.Flags().StringVar(&batchOutDir, "out-dir", "", "write per-schedule JSON reports to this directory")
	batchCmd.Flags().IntVar(&batchWorkers, "workers", 4, "concurrent validations")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "overall batch timeout")
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if batchWorkers > 0 {
		cfg.Concurrency.BatchWorkers = batchWorkers
	}

	logger := logging.New(logging.Config{
		Level:   logLevel(),
		Quiet:   quiet,
		Service: "batch",
	})

	docs, err := loadDocs(batchDocsDir)
	if err != nil {
		return err
	}

	o := pipeline.NewOrchestrator(cfg, docs, logger)
	processor := worker.NewBatchProcessor(o, cfg.Concurrency.BatchWorkers)

	outcomes, err := processor.ProcessManifest(ctx, args[0])
	if err != nil {
		return err
	}

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)
	failed := 0
	for _, out := range outcomes {
		if out.Err() != nil {
			failed++
			fmt.Fprintf(os.Stderr, "FAIL %s: %v\n", out.Path, out.Err())
			continue
		}
		fmt.Printf("OK   %s\n", out.Path)
		if batchOutDir != "" {
			if err := writeBatchReport(renderer, out, batchOutDir); err != nil {
				return err
			}
		}
	}

	fmt.Printf("\nValidated %d schedules, %d failed\n", len(outcomes), failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d schedules failed validation", failed, len(outcomes))
	}
	return nil
}

func writeBatchReport(renderer *pipeline.Renderer, out *worker.ValidateOutcome, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	base := strings.TrimSuffix(filepath.Base(out.Path), filepath.Ext(out.Path))
	path := filepath.Join(dir, base+".json")
	if err := renderer.RenderJSON(out.Outcome, path); err != nil {
		return err
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "Wrote report: %s\n", path)
	}
	return nil
}
