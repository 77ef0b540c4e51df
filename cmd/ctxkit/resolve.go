package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/contextkit/internal/corpus"
	"github.com/fyrsmithlabs/contextkit/internal/resolver"
	"github.com/fyrsmithlabs/contextkit/internal/secrets"
)

type resolveOptions struct {
	maxDepth int
	out      string
	compress string
}

func newResolveCmd(root *rootOptions) *cobra.Command {
	opts := &resolveOptions{}

	cmd := &cobra.Command{
		Use:   "resolve <path...>",
		Short: "Bundle documents with everything they reference",
		Long: `Load one or more documents and every document they reference through link
fields (auto_load, files_to_load, ...) or {"$ref": path} objects, and write a
single deduplicated bundle.

Paths are relative to the corpus root unless absolute. Each file appears once
in the bundle index; repeated references become alias objects. Missing,
oversized or malformed files are indexed with a marker instead of failing the
run. Secrets in loaded content are redacted unless resolver.redact_secrets is
false.

Examples:
  # Print the bundle as JSON
  ctxkit resolve --format json web/fastapi.json

  # Write a zstd-compressed bundle and print a summary
  ctxkit resolve --out bundle.json.zst --compress zstd web/fastapi.json

  # Follow references at most two levels deep
  ctxkit resolve --max-depth 2 web/fastapi.json web/react.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, root, opts, args)
		},
	}

	cmd.Flags().IntVar(&opts.maxDepth, "max-depth", 0, "deepest reference level loaded (default from resolver.max_depth)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "write the bundle to this file")
	cmd.Flags().StringVar(&opts.compress, "compress", "none", "bundle compression: none, gzip or zstd")
	return cmd
}

func runResolve(cmd *cobra.Command, root *rootOptions, opts *resolveOptions, seeds []string) (err error) {
	compression, err := resolver.ParseCompression(opts.compress)
	if err != nil {
		return err
	}
	if opts.maxDepth < 0 {
		return fmt.Errorf("--max-depth must not be negative, got %d", opts.maxDepth)
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

	if info, serr := os.Stat(a.cfg.Corpus.Root); serr != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", corpus.ErrRootUnreadable, a.cfg.Corpus.Root)
	}

	rc := a.cfg.Resolver
	ropts := resolver.Options{
		Root:         a.cfg.Corpus.Root,
		MaxDepth:     rc.MaxDepth,
		MaxFileSize:  rc.MaxFileSize,
		MaxTextChars: rc.MaxTextChars,
		LinkFields:   rc.LinkFields,
	}
	if opts.maxDepth > 0 {
		ropts.MaxDepth = opts.maxDepth
	}

	redactor, err := newRedactor(rc.RedactSecrets, rc.AllowlistFile)
	if err != nil {
		return err
	}

	r := resolver.New(ropts,
		resolver.WithRedactor(redactor),
		resolver.WithMetrics(a.metrics),
		resolver.WithLogger(a.logger),
	)
	b, err := r.Resolve(a.ctx, seeds)
	if err != nil {
		return err
	}

	if opts.out != "" {
		if err := resolver.WriteBundleFile(opts.out, b, compression); err != nil {
			return err
		}
		a.logger.Info(a.ctx, "bundle written", zap.String("path", opts.out), zap.String("compression", string(compression)))
		if a.format == formatJSON {
			return writeJSON(a.out, bundleSummary{Out: opts.out, Stats: b.Stats})
		}
		_, err = fmt.Fprint(a.out, renderBundle(b, opts.out))
		return err
	}

	if a.format == formatHuman && compression == resolver.CompressionNone {
		_, err = fmt.Fprint(a.out, renderBundle(b, ""))
		return err
	}
	return resolver.WriteBundle(a.out, b, compression)
}

// bundleSummary is printed in JSON mode when the bundle goes to a file.
type bundleSummary struct {
	Out   string         `json:"out"`
	Stats resolver.Stats `json:"stats"`
}

func newRedactor(enabled bool, allowlistFile string) (secrets.Redactor, error) {
	if !enabled {
		return secrets.NoopRedactor{}, nil
	}
	allowlist, err := secrets.LoadAllowlist(allowlistFile)
	if err != nil {
		return nil, err
	}
	return secrets.NewRedactor(allowlist)
}
