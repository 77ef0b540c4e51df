package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/contextkit/internal/patterns"
	"github.com/fyrsmithlabs/contextkit/internal/ranker"
)

type recommendOptions struct {
	limit       int
	verbose     bool
	selected    string
	domain      string
	tech        []string
	projectSize string
	complexity  string
	teamSize    int
}

func newRecommendCmd(root *rootOptions) *cobra.Command {
	opts := &recommendOptions{}

	cmd := &cobra.Command{
		Use:   "recommend <query...>",
		Short: "Rank corpus documents against a request",
		Long: `Rank every corpus document against a free-text request.

Scores combine term similarity (TF-IDF), usage popularity, contextual tags
and intent. When a usage context is given (--domain and friends) the score is
blended with the predicted success of each document in that context. Every
query is added to the usage query log.

Examples:
  # Top five documents
  ctxkit recommend "create a python api"

  # Ten results with the score breakdown, as JSON
  ctxkit recommend --limit 10 --verbose --format json "find a frontend starter"

  # Blend in success prediction for a web project
  ctxkit recommend --domain web --tech python --project-size small "api service"

  # Record which document was picked
  ctxkit recommend --select web/fastapi.json "python api"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecommend(cmd, root, opts, strings.Join(args, " "))
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "number of results (default from ranking.default_limit)")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "include the score breakdown")
	cmd.Flags().StringVar(&opts.selected, "select", "", "document id chosen for this query")
	cmd.Flags().StringVar(&opts.domain, "domain", "", "usage context domain")
	cmd.Flags().StringSliceVar(&opts.tech, "tech", nil, "usage context technologies")
	cmd.Flags().StringVar(&opts.projectSize, "project-size", "", "usage context project size: small, medium, large")
	cmd.Flags().StringVar(&opts.complexity, "complexity", "", "usage context complexity: simple, moderate, complex")
	cmd.Flags().IntVar(&opts.teamSize, "team-size", 0, "usage context team size")
	return cmd
}

// usageContext returns nil when no context flag was given.
func (o *recommendOptions) usageContext() *patterns.UsageContext {
	if o.domain == "" && len(o.tech) == 0 && o.projectSize == "" && o.complexity == "" && o.teamSize == 0 {
		return nil
	}
	return &patterns.UsageContext{
		Domain:       o.domain,
		Technologies: o.tech,
		ProjectSize:  o.projectSize,
		Complexity:   o.complexity,
		TeamSize:     o.teamSize,
	}
}

func runRecommend(cmd *cobra.Command, root *rootOptions, opts *recommendOptions, query string) (err error) {
	if opts.limit < 0 {
		return fmt.Errorf("--limit must not be negative, got %d", opts.limit)
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

	c, idx, err := a.loadCorpus()
	if err != nil {
		return err
	}
	if opts.selected != "" {
		if _, ok := c.Lookup(opts.selected); !ok {
			return fmt.Errorf("unknown document %q", opts.selected)
		}
	}

	ledger, predictor, err := a.openLedger()
	if err != nil {
		return err
	}

	rc := a.cfg.Ranking
	r := ranker.New(c, idx, ledger,
		ranker.WithMinScore(rc.MinScore),
		ranker.WithLimits(rc.DefaultLimit, rc.MaxLimit),
		ranker.WithPredictor(predictor, rc.PredictionBlend),
		ranker.WithMetrics(a.metrics),
		ranker.WithLogger(a.logger),
	)

	res := r.Recommend(a.ctx, ranker.Request{
		Query:    query,
		Limit:    opts.limit,
		Context:  opts.usageContext(),
		Selected: opts.selected,
	})
	if !opts.verbose {
		for i := range res.Recommendations {
			res.Recommendations[i].Breakdown = nil
		}
	}

	if a.format == formatJSON {
		return writeJSON(a.out, res)
	}
	_, err = fmt.Fprint(a.out, renderRecommendations(res, opts.verbose))
	return err
}
