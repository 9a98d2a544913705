package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/veriplan/veriplan/internal/llm"
)

var (
	genDocsDir  string
	genOut      string
	genProvider string
	genModel    string
	genMaxTasks int
	genTimeout  time.Duration
)

// generateCmd represents the generate command
var generateCmd = &cobra.Command{
	Use:   "generate <goal>",
	Short: "Draft a schedule with an LLM, ready for validation",
	Long: `Generate asks a language model to draft a schedule for the given
goal, citing only the provided source documents. The draft is written
as YAML and should be validated before use:

  veriplan generate "replace the river bridge deck" --docs ./sources --out draft.yaml
  veriplan validate draft.yaml --docs ./sources

Requires OPENAI_API_KEY (or llm.api_key in the config file).`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVar(&genDocsDir, "docs", "", "directory of source documents the draft may cite")
	generateCmd.Flags().StringVar(&genOut, "out", "draft.yaml", "output schedule path")
	generateCmd.Flags().StringVar(&genProvider, "llm-provider", "openai", "LLM provider")
	generateCmd.Flags().StringVar(&genModel, "llm-model", "", "LLM model name (default from config)")
	generateCmd.Flags().IntVar(&genMaxTasks, "max-tasks", 0, "cap on drafted tasks (0 = no cap)")
	generateCmd.Flags().DurationVar(&genTimeout, "timeout", 2*time.Minute, "generation timeout")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), genTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.LLM.Provider = genProvider
	if genModel != "" {
		cfg.LLM.Model = genModel
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	generator, err := llm.NewGenerator(cfg.LLM)
	if err != nil {
		return err
	}
	if generator == nil {
		return fmt.Errorf("no LLM provider configured")
	}

	docs, err := loadDocs(genDocsDir)
	if err != nil {
		return err
	}

	schedule, err := generator.Draft(ctx, llm.DraftRequest{
		Goal:      args[0],
		Documents: docs.Snapshot(),
		MaxTasks:  genMaxTasks,
	})
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	data, err := yaml.Marshal(schedule)
	if err != nil {
		return fmt.Errorf("marshal draft: %w", err)
	}
	if err := os.WriteFile(genOut, data, 0o644); err != nil {
		return fmt.Errorf("write draft: %w", err)
	}

	fmt.Printf("Drafted %d tasks to %s\n", len(schedule.Tasks), genOut)
	fmt.Println("Validate the draft before using it:")
	fmt.Printf("  veriplan validate %s --docs %s\n", genOut, genDocsDir)
	return nil
}
