package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ppiankov/amr2daide/internal/model"
	"github.com/ppiankov/amr2daide/internal/store"
)

var (
	runsLimit int
	runsJSON  bool
)

// runsCmd represents the runs command
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect recorded translation runs",
	Long: `Inspect runs recorded with "translate --record" or store.enabled.

Run ids may be abbreviated to any unique prefix.`,
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(s store.Store) error {
			runs, err := s.ListRuns(cmd.Context(), runsLimit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if runsJSON {
				return printJSON(out, runs)
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			fmt.Fprintf(out, "%-26s  %-19s  %6s  %6s  %7s  %6s  %s\n", "ID", "STARTED", "TOTAL", "FULL", "PARTIAL", "NONE", "INPUT")
			for _, r := range runs {
				fmt.Fprintf(out, "%-26s  %-19s  %6d  %6d  %7d  %6d  %s\n",
					r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Total,
					r.Counts[model.StatusFull], r.Counts[model.StatusPartial], r.Counts[model.StatusNone], r.Input)
			}
			return nil
		})
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one run and its records",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(s store.Store) error {
			run, err := s.GetRun(cmd.Context(), args[0], true)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if runsJSON {
				return printJSON(out, run)
			}
			fmt.Fprintf(out, "Run:        %s\n", run.ID)
			fmt.Fprintf(out, "Started:    %s\n", run.StartedAt.Local().Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "Input:      %s\n", run.Input)
			fmt.Fprintf(out, "Dictionary: %.12s\n", run.Digest)
			fmt.Fprintf(out, "Records:    %d (%d Full-DAIDE, %d Partial-DAIDE, %d No-DAIDE)\n\n", run.Total,
				run.Counts[model.StatusFull], run.Counts[model.StatusPartial], run.Counts[model.StatusNone])
			for _, r := range run.Records {
				fmt.Fprintf(out, "%-24s %-14s %s\n", r.ID, r.Status, r.DAIDE)
			}
			return nil
		})
	},
}

var runsDiffCmd = &cobra.Command{
	Use:   "diff <from> <to>",
	Short: "Compare two runs record by record",
	Long: `Diff lists the records whose status or DAIDE changed between two runs,
plus records present in only one of them. A record improves when its status
moves towards Full-DAIDE.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(s store.Store) error {
			d, err := s.DiffRuns(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if runsJSON {
				return printJSON(out, d)
			}
			for _, c := range d.Changed {
				fmt.Fprintf(out, "~ %s\n    - %s %s\n    + %s %s\n", c.ID, c.Before.Status, c.Before.DAIDE, c.After.Status, c.After.DAIDE)
			}
			for _, c := range d.Added {
				fmt.Fprintf(out, "+ %s %s %s\n", c.ID, c.After.Status, c.After.DAIDE)
			}
			for _, c := range d.Removed {
				fmt.Fprintf(out, "- %s %s %s\n", c.ID, c.Before.Status, c.Before.DAIDE)
			}
			fmt.Fprintf(out, "\n%s → %s: %d unchanged, %d changed (%d improved, %d regressed), %d added, %d removed\n",
				d.From, d.To, d.Same, len(d.Changed), d.Improved, d.Regressed, len(d.Added), len(d.Removed))
			return nil
		})
	},
}

// withStore opens the configured run store for the duration of fn
func withStore(fn func(store.Store) error) (err error) {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := s.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close run store: %w", closeErr)
		}
	}()
	return fn(s)
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsDiffCmd)

	runsCmd.PersistentFlags().BoolVar(&runsJSON, "json", false, "print JSON")
	runsListCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "number of runs to list")
}
