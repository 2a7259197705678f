package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/styx8114/threatlens/internal/model"
	"github.com/styx8114/threatlens/internal/pipeline"
)

var (
	outJSON     string
	outMD       string
	timeout     time.Duration
	noCache     bool
	noEvidence  bool
	insecureTLS bool
	provider    string
	classModel  string
	threshold   float64
	kbPath      string
	stixPath    string
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <file-or-url>",
	Short: "Analyze one threat report and extract ATT&CK techniques",
	Long: `Analyze reads a single report (a local text file or a published URL),
extracts technique signals from lexical rules, the configured classifier
and documented malware behavior, and reconciles them into one assertion
per technique.

Example:
  threatlens analyze report.txt
  threatlens analyze https://example.com/apt-report --json out.json
  threatlens analyze report.txt --classifier http --threshold 0.4`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	// Output flags
	analyzeCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (\"-\" for stdout)")
	analyzeCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	analyzeCmd.Flags().BoolVar(&noEvidence, "no-evidence", false, "omit per-assertion evidence in Markdown output")

	// HTTP flags
	analyzeCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall analysis timeout")
	analyzeCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the result cache")
	analyzeCmd.Flags().BoolVar(&insecureTLS, "insecure", false, "skip TLS certificate verification")

	// Classifier flags
	analyzeCmd.Flags().StringVar(&provider, "classifier", "", "classifier provider (openai, http; empty disables)")
	analyzeCmd.Flags().StringVar(&classModel, "classifier-model", "", "classifier model name")
	analyzeCmd.Flags().Float64Var(&threshold, "threshold", 0, "classifier probability threshold (0 keeps configured value)")

	// Knowledge base flags
	analyzeCmd.Flags().StringVar(&kbPath, "kb", "", "malware knowledge base YAML overlay")
	analyzeCmd.Flags().StringVar(&stixPath, "attack-bundle", "", "enterprise-attack STIX bundle path")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	input := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyAnalyzeFlags(cfg)

	logger := newLogger(cfg.Output.Verbose)
	defer func() { _ = logger.Sync() }()

	tax, base, err := loadTaxonomy(cfg, logger)
	if err != nil {
		return err
	}

	p, err := pipeline.NewPipeline(cfg, tax, base, logger)
	if err != nil {
		return err
	}

	report, err := p.Analyze(ctx, input)
	if err != nil {
		var malformed *model.MalformedInputError
		if errors.As(err, &malformed) {
			return fmt.Errorf("input rejected: %w", err)
		}
		return fmt.Errorf("analysis failed: %w", err)
	}

	if report.Degraded {
		fmt.Fprintln(os.Stderr, "warning: classifier unavailable, results from rules and knowledge base only")
	}

	renderer := pipeline.NewRenderer(cfg.Output.IncludeEvidence)
	if outJSON != "" {
		if err := renderer.RenderJSON(report, outJSON); err != nil {
			return fmt.Errorf("write JSON: %w", err)
		}
	}
	if outMD != "" {
		if err := renderer.RenderMarkdown(report, outMD); err != nil {
			return fmt.Errorf("write Markdown: %w", err)
		}
	}
	if outJSON == "" && outMD == "" {
		return renderer.RenderJSON(report, "-")
	}
	renderer.RenderSummary(report)
	return nil
}

// applyAnalyzeFlags overlays explicit flags on the merged configuration.
func applyAnalyzeFlags(cfg *model.Config) {
	cfg.HTTP.Timeout = timeout
	cfg.HTTP.InsecureTLS = insecureTLS
	if noCache {
		cfg.Cache.Enabled = false
	}
	if noEvidence {
		cfg.Output.IncludeEvidence = false
	}
	if provider != "" {
		cfg.Classifier.Provider = provider
	}
	if classModel != "" {
		cfg.Classifier.Model = classModel
	}
	if threshold > 0 {
		cfg.Classifier.Threshold = threshold
	}
	if kbPath != "" {
		cfg.KB.Path = kbPath
	}
	if stixPath != "" {
		cfg.KB.STIXPath = stixPath
	}
	if verbose {
		cfg.Output.Verbose = true
	}
	if cfg.Classifier.Provider == "openai" && cfg.Classifier.APIKey == "" {
		cfg.Classifier.APIKey = os.Getenv("OPENAI_API_KEY")
	}
}
