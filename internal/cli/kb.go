package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// kbCmd represents the kb command group
var kbCmd = &cobra.Command{
	Use:   "kb",
	Short: "Inspect the malware knowledge base",
}

var kbListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known malware families",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(false)
		defer func() { _ = logger.Sync() }()

		_, base, err := loadTaxonomy(cfg, logger)
		if err != nil {
			return err
		}

		for _, e := range base.Entities() {
			aliases := ""
			if len(e.Aliases) > 0 {
				aliases = " (" + strings.Join(e.Aliases, ", ") + ")"
			}
			fmt.Printf("%-20s%s: %d technique(s)\n", e.CanonicalName, aliases, len(e.TechniqueIDs))
		}
		fmt.Printf("\n%d families\n", base.Len())
		return nil
	},
}

var kbShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show one malware family and its documented techniques",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(false)
		defer func() { _ = logger.Sync() }()

		tax, base, err := loadTaxonomy(cfg, logger)
		if err != nil {
			return err
		}

		entity, ok := base.Lookup(args[0])
		if !ok {
			return fmt.Errorf("unknown malware family: %s", args[0])
		}

		fmt.Printf("%s\n", entity.CanonicalName)
		if len(entity.Aliases) > 0 {
			fmt.Printf("  aliases:  %s\n", strings.Join(entity.Aliases, ", "))
		}
		if len(entity.TacticIDs) > 0 {
			fmt.Printf("  tactics:  %s\n", strings.Join(entity.TacticIDs, ", "))
		}
		fmt.Printf("  techniques:\n")
		for _, id := range entity.TechniqueIDs {
			name := ""
			if tech, ok := tax.Technique(id); ok {
				name = tech.Name
			}
			fmt.Printf("    %-10s %s\n", id, name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(kbCmd)
	kbCmd.AddCommand(kbListCmd)
	kbCmd.AddCommand(kbShowCmd)
}
