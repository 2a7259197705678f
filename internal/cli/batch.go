package cli

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/styx8114/threatlens/internal/pipeline"
	"github.com/styx8114/threatlens/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Analyze multiple reports from a list in parallel",
	Long: `Batch reads inputs (file paths or URLs, one per line) and analyzes
them concurrently with a worker pool. Each report gets its own JSON output
in the output directory.

Example:
  threatlens batch reports.txt
  threatlens batch reports.txt --concurrency 8 --output-dir ./out`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (0 uses configured value)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./threatlens-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the result cache")
	batchCmd.Flags().StringVar(&kbPath, "kb", "", "malware knowledge base YAML overlay")
	batchCmd.Flags().StringVar(&stixPath, "attack-bundle", "", "enterprise-attack STIX bundle path")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if kbPath != "" {
		cfg.KB.Path = kbPath
	}
	if stixPath != "" {
		cfg.KB.STIXPath = stixPath
	}
	if concurrency > 0 {
		cfg.Concurrency.Workers = concurrency
	}
	if verbose {
		cfg.Output.Verbose = true
	}

	logger := newLogger(cfg.Output.Verbose)
	defer func() { _ = logger.Sync() }()

	tax, base, err := loadTaxonomy(cfg, logger)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	p, err := pipeline.NewPipeline(cfg, tax, base, logger)
	if err != nil {
		return err
	}

	processor := worker.NewBatchProcessor(p, cfg.Concurrency.Workers)

	fmt.Fprintf(os.Stderr, "Reading inputs from %s\n", file)
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Processed %d inputs with %d workers\n", len(results), cfg.Concurrency.Workers)

	renderer := pipeline.NewRenderer(cfg.Output.IncludeEvidence)
	successCount := 0
	failureCount := 0

	for _, result := range results {
		if err := result.GetError(); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "FAIL %s: %v\n", result.Input, err)
			continue
		}
		successCount++

		jsonPath := filepath.Join(outputDir, reportFilename(result.Input)+".json")
		if err := renderer.RenderJSON(result.Report, jsonPath); err != nil {
			fmt.Fprintf(os.Stderr, "FAIL %s: write JSON: %v\n", result.Input, err)
			continue
		}
		fmt.Fprintf(os.Stderr, "OK   %s: %d technique(s)%s\n",
			result.Input, len(result.Report.Assertions), degradedSuffix(result.Report.Degraded))
	}

	fmt.Fprintf(os.Stderr, "\nTotal: %d  Success: %d  Failures: %d  Output: %s\n",
		len(results), successCount, failureCount, outputDir)

	if failureCount > 0 {
		return fmt.Errorf("%d of %d inputs failed", failureCount, len(results))
	}
	return nil
}

func degradedSuffix(degraded bool) string {
	if degraded {
		return " (degraded)"
	}
	return ""
}

// reportFilename derives a stable, filesystem-safe name for an input. A
// short content hash of the input string keeps distinct inputs with the
// same base name apart.
func reportFilename(input string) string {
	base := filepath.Base(strings.TrimSuffix(input, "/"))
	base = strings.TrimSuffix(base, filepath.Ext(base))

	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	name := b.String()
	if len(name) > 80 {
		name = name[:80]
	}
	if name == "" {
		name = "report"
	}

	sum := sha256.Sum256([]byte(input))
	return name + "-" + hex.EncodeToString(sum[:4])
}
