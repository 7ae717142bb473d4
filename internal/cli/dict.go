package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/amr2daide/internal/dictionary"
)

// dictCmd represents the dict command
var dictCmd = &cobra.Command{
	Use:   "dict",
	Short: "Inspect the rule dictionary",
	Long: `Inspect the translation rules and Diplomacy resources.

The built-in dictionary is used unless dictionary.rules / dictionary.resources
are configured or --rules / --resources are given.`,
}

var dictCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Load and validate the dictionary",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := dictionaryFromFlags()
		if err != nil {
			return err
		}

		compound, atomic := 0, 0
		for _, r := range d.Rules() {
			if r.Kind == dictionary.Compound {
				compound++
			} else {
				atomic++
			}
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✓ Dictionary loaded\n")
		fmt.Fprintf(out, "  Rules:      %d (%d compound, %d atomic)\n", len(d.Rules()), compound, atomic)
		fmt.Fprintf(out, "  Resources:  %d entries\n", d.Resources().Len())
		fmt.Fprintf(out, "  Digest:     %s\n", d.Digest())
		return nil
	},
}

var dictShowCmd = &cobra.Command{
	Use:   "show [concept]",
	Short: "List rules, optionally only those for one concept",
	Long: `List rules in the order the mapper tries them. With a concept, only the
candidates for that concept are shown, compound rules by descending rank
followed by the atomic rule.

Example:
  amr2daide dict show
  amr2daide dict show propose-01`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := dictionaryFromFlags()
		if err != nil {
			return err
		}

		rules := d.Rules()
		if len(args) == 1 {
			rules = append([]*dictionary.Rule(nil), d.Candidates(args[0])...)
			if r, ok := d.Atomic(args[0]); ok {
				rules = append(rules, r)
			}
			if len(rules) == 0 {
				fmt.Fprintf(os.Stderr, "No rules for %s\n", args[0])
				return nil
			}
		}

		out := cmd.OutOrStdout()
		for _, r := range rules {
			fmt.Fprintf(out, "%-32s %-8s rank %-3d %s\n", r.ID, r.Kind, r.Rank, r.Template)
		}
		return nil
	},
}

func dictionaryFromFlags() (*dictionary.Dictionary, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if rulesPath != "" {
		cfg.Dictionary.Rules = rulesPath
	}
	if resourcesPath != "" {
		cfg.Dictionary.Resources = resourcesPath
	}
	return loadDictionary(cfg)
}

func init() {
	rootCmd.AddCommand(dictCmd)
	dictCmd.AddCommand(dictCheckCmd)
	dictCmd.AddCommand(dictShowCmd)

	dictCmd.PersistentFlags().StringVar(&rulesPath, "rules", "", "rule dictionary file (default: built-in)")
	dictCmd.PersistentFlags().StringVar(&resourcesPath, "resources", "", "resource file (default: built-in)")
}
