package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/contextkit/internal/patterns"
	"github.com/fyrsmithlabs/contextkit/internal/usage"
)

type recordOptions struct {
	action        string
	success       bool
	domain        string
	tech          []string
	projectSize   string
	complexity    string
	teamSize      int
	modifications []string
}

func newRecordCmd(root *rootOptions) *cobra.Command {
	opts := &recordOptions{}

	cmd := &cobra.Command{
		Use:   "record <docId>",
		Short: "Record that a document was viewed or used",
		Long: `Record a view or a use of a document.

Views and creates feed the usage popularity score. A create is also recorded
as an outcome for success prediction, together with its domain and the
modifications that were needed.

Examples:
  # Count a view
  ctxkit record web/fastapi.json

  # A successful use in a web project
  ctxkit record web/fastapi.json --action create --domain web

  # A failed use that needed changes
  ctxkit record web/fastapi.json --action create --success=false \
    --domain data --modification "swap orm" --modification "add auth"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(cmd, root, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.action, "action", string(usage.ActionView), "view or create")
	cmd.Flags().BoolVar(&opts.success, "success", true, "whether the use succeeded (create only)")
	cmd.Flags().StringVar(&opts.domain, "domain", "", "domain the document was used in")
	cmd.Flags().StringSliceVar(&opts.tech, "tech", nil, "technologies of the project")
	cmd.Flags().StringVar(&opts.projectSize, "project-size", "", "project size: small, medium, large")
	cmd.Flags().StringVar(&opts.complexity, "complexity", "", "project complexity: simple, moderate, complex")
	cmd.Flags().IntVar(&opts.teamSize, "team-size", 0, "team size")
	cmd.Flags().StringArrayVar(&opts.modifications, "modification", nil, "modification that was needed (repeatable)")
	return cmd
}

// recordResult is the JSON output of record.
type recordResult struct {
	DocumentID string            `json:"documentId"`
	Action     usage.Action      `json:"action"`
	Usage      usage.Record      `json:"usage"`
	UsageScore float64           `json:"usageScore"`
	Pattern    *patterns.Pattern `json:"pattern,omitempty"`
}

func runRecord(cmd *cobra.Command, root *rootOptions, opts *recordOptions, docID string) (err error) {
	action, err := usage.ParseAction(opts.action)
	if err != nil {
		return err
	}

	a, err := newApp(cmd, root)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.close(); err == nil {
			err = cerr
		}
	}()

	c, _, err := a.loadCorpus()
	if err != nil {
		return err
	}
	if _, ok := c.Lookup(docID); !ok {
		return fmt.Errorf("unknown document %q", docID)
	}

	ledger, predictor, err := a.openLedger()
	if err != nil {
		return err
	}

	if err := ledger.RecordUsage(a.ctx, docID, action); err != nil {
		return err
	}
	a.metrics.RecordUsage(string(action))

	res := recordResult{DocumentID: docID, Action: action, UsageScore: ledger.Score(docID)}
	res.Usage, _ = ledger.Record(docID)

	if action == usage.ActionCreate {
		outcome := patterns.Outcome{
			Context: patterns.UsageContext{
				Domain:       opts.domain,
				Technologies: opts.tech,
				ProjectSize:  opts.projectSize,
				Complexity:   opts.complexity,
				TeamSize:     opts.teamSize,
			},
			Success:       opts.success,
			Modifications: opts.modifications,
		}
		if err := predictor.RecordOutcome(a.ctx, docID, outcome); err != nil {
			return err
		}
		if p, ok := predictor.Pattern(docID); ok {
			res.Pattern = &p
		}
	}

	if a.format == formatJSON {
		return writeJSON(a.out, res)
	}
	_, err = fmt.Fprint(a.out, renderRecord(res))
	return err
}
