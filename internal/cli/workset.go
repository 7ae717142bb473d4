package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/amr2daide/internal/validate"
)

var (
	worksetWorkers int
	worksetPowers  []string
	worksetJSON    bool
)

// worksetCmd represents the workset command
var worksetCmd = &cobra.Command{
	Use:   "workset",
	Short: "Check annotation worksets",
}

var worksetCheckCmd = &cobra.Command{
	Use:   "check <path>...",
	Short: "Validate workset and .info files",
	Long: `Check validates annotation worksets and their companion .info files:
- Every block has a well-formed ::id, a sentence and a parsable AMR
- Sentence ids match the workset and are unique
- Sender and recipient lines name a known power
- Every sentence of the .info file is covered by the workset and vice versa

Directories are searched for *.txt worksets and their .info companions.
The command exits with status 1 when errors are found.

Example:
  amr2daide workset check annotations/dip_0030.txt
  amr2daide workset check annotations/ --workers 8`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v := validate.NewValidator(worksetWorkers, worksetPowers)
		report, err := v.Validate(cmd.Context(), args)
		if err != nil {
			return fmt.Errorf("check failed: %w", err)
		}

		out := cmd.OutOrStdout()
		if worksetJSON {
			data, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal report: %w", err)
			}
			fmt.Fprintln(out, string(data))
		} else {
			for _, path := range report.Ignored {
				fmt.Fprintf(out, "Ignoring %s\n", path)
			}
			for _, f := range report.Findings {
				marker := "✗"
				if f.Severity == validate.SeverityWarning {
					marker = "⚠"
				}
				fmt.Fprintf(out, "%s %s\n", marker, f)
			}
			fmt.Fprintf(out, "\nChecked %d worksets and %d info files: %d errors, %d warnings\n",
				report.Worksets, report.InfoFiles, report.Errors(), report.Warnings())
		}

		if n := report.Errors(); n > 0 {
			return fmt.Errorf("%d errors found", n)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(worksetCmd)
	worksetCmd.AddCommand(worksetCheckCmd)

	worksetCheckCmd.Flags().IntVar(&worksetWorkers, "workers", 4, "number of files checked concurrently")
	worksetCheckCmd.Flags().StringSliceVar(&worksetPowers, "powers", nil, "accepted power names (default: "+strings.Join(validate.DefaultPowers, ",")+")")
	worksetCheckCmd.Flags().BoolVar(&worksetJSON, "json", false, "print the report as JSON")
}
