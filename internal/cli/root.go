// Package cli wires the threatlens commands.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/styx8114/threatlens/internal/kb"
	"github.com/styx8114/threatlens/internal/model"
	"github.com/styx8114/threatlens/internal/taxonomy"
	"go.uber.org/zap"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "threatlens",
	Short: "Threatlens - ATT&CK technique extraction from threat reports",
	Long: `Threatlens reads cyber threat intelligence reports and extracts the
adversary techniques they describe, mapped to MITRE ATT&CK.

Three extraction sources run over every report: lexical rules (technique
names, ids and tool patterns), an optional statistical classifier, and
inference from documented malware behavior. Overlapping signals are
reconciled into one assertion per technique, with independent corroboration
raising confidence. Every assertion traces back to the exact text that
produced it.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("threatlens v0.2.1")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.threatlens/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(home + "/.threatlens")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match THREATLENS_*
	viper.SetEnvPrefix("THREATLENS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig merges the config file and environment over the defaults.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse configuration: %w", err)
	}
	if cfg.Classifier.Provider == "openai" && cfg.Classifier.APIKey == "" {
		cfg.Classifier.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	return cfg, nil
}

// newLogger returns the process logger. Verbose mode gets console output at
// Debug; otherwise logs go to stderr at Warn so reports stay clean on stdout.
func newLogger(verbose bool) *zap.Logger {
	var cfg zap.Config
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	cfg.OutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// loadTaxonomy returns the ATT&CK taxonomy and the malware knowledge base
// per configuration: a downloaded enterprise-attack bundle when configured,
// otherwise the built-in tables, with the optional YAML overlay on top.
// A knowledge base that fails validation is fatal; no analysis runs against
// an unvalidated base.
func loadTaxonomy(cfg *model.Config, logger *zap.Logger) (*taxonomy.Taxonomy, *kb.KnowledgeBase, error) {
	var (
		tax     *taxonomy.Taxonomy
		records []taxonomy.MalwareRecord
	)

	if cfg.KB.STIXPath != "" {
		var err error
		tax, records, err = taxonomy.LoadBundleFile(cfg.KB.STIXPath)
		if err != nil {
			return nil, nil, fmt.Errorf("load ATT&CK bundle: %w", err)
		}
		logger.Info("loaded ATT&CK bundle",
			zap.String("path", cfg.KB.STIXPath),
			zap.Int("techniques", tax.Len()),
			zap.Int("malware", len(records)))
	} else {
		tax = taxonomy.New()
	}

	var (
		base *kb.KnowledgeBase
		err  error
	)
	switch {
	case cfg.KB.Path != "":
		base, err = kb.LoadFile(tax, cfg.KB.Path)
	case len(records) > 0:
		base, err = kb.FromSTIX(tax, records)
	default:
		base, err = kb.New(tax)
	}
	if err != nil {
		return nil, nil, err
	}

	return tax, base, nil
}
