package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPatternsCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "Inspect learned usage patterns",
		Long: `Inspect the usage patterns learned from recorded outcomes.

Examples:
  # Overall statistics
  ctxkit patterns stats

  # Evolution of one document
  ctxkit patterns show web/fastapi.json`,
	}
	cmd.AddCommand(newPatternsStatsCmd(root))
	cmd.AddCommand(newPatternsShowCmd(root))
	return cmd
}

func newPatternsStatsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show pattern statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			a, err := newApp(cmd, root)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := a.close(); err == nil {
					err = cerr
				}
			}()

			_, predictor, err := a.openLedger()
			if err != nil {
				return err
			}
			st := predictor.Stats()
			if a.format == formatJSON {
				return writeJSON(a.out, st)
			}
			_, err = fmt.Fprint(a.out, renderStats(st))
			return err
		},
	}
}

func newPatternsShowCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "show <docId>",
		Aliases: []string{"evolution"},
		Short:   "Show the usage evolution of a document",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			a, err := newApp(cmd, root)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := a.close(); err == nil {
					err = cerr
				}
			}()

			_, predictor, err := a.openLedger()
			if err != nil {
				return err
			}
			ev := predictor.AnalyzeEvolution(args[0])
			if a.format == formatJSON {
				return writeJSON(a.out, ev)
			}
			_, err = fmt.Fprint(a.out, renderEvolution(ev))
			return err
		},
	}
}
