package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/veriplan/veriplan/internal/model"
)

// Validator validates a single schedule file.
type Validator interface {
	ValidateFile(ctx context.Context, path string) (*model.ValidationOutcome, error)
}

// ValidateTask validates one schedule file through the pool.
type ValidateTask struct {
	Path      string
	Validator Validator
}

func (t *ValidateTask) Run(ctx context.Context) Outcome {
	outcome, err := t.Validator.ValidateFile(ctx, t.Path)
	return &ValidateOutcome{Path: t.Path, Outcome: outcome, Error: err}
}

// ValidateOutcome is the per-file result of a batch run.
type ValidateOutcome struct {
	Path    string
	Outcome *model.ValidationOutcome
	Error   error
}

func (o *ValidateOutcome) Err() error {
	return o.Error
}

// BatchProcessor validates multiple schedule files concurrently.
type BatchProcessor struct {
	validator   Validator
	concurrency int
}

func NewBatchProcessor(validator Validator, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		validator:   validator,
		concurrency: concurrency,
	}
}

// ProcessPaths validates each schedule file concurrently and returns
// the outcomes sorted by path, so batch reports are stable regardless
// of completion order.
func (b *BatchProcessor) ProcessPaths(ctx context.Context, paths []string) []*ValidateOutcome {
	if len(paths) == 0 {
		return []*ValidateOutcome{}
	}

	pool := NewPool(b.concurrency)
	pool.Start()

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			pool.Shutdown()
		case <-done:
		}
	}()

	for _, path := range paths {
		pool.Submit(&ValidateTask{Path: path, Validator: b.validator})
	}

	outcomes := pool.Drain()
	close(done)

	results := make([]*ValidateOutcome, 0, len(outcomes))
	for _, outcome := range outcomes {
		results = append(results, outcome.(*ValidateOutcome))
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})
	return results
}

// ProcessManifest reads schedule paths from a manifest file and
// validates them concurrently.
func (b *BatchProcessor) ProcessManifest(ctx context.Context, manifestPath string) ([]*ValidateOutcome, error) {
	paths, err := ReadManifest(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return b.ProcessPaths(ctx, paths), nil
}

// ReadManifest reads schedule paths from a file, one per line.
// Blank lines and lines starting with # are skipped; duplicates are
// dropped.
func ReadManifest(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer func() { _ = file.Close() }()

	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan manifest: %w", err)
	}
	return paths, nil
}
