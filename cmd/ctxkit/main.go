// Package main implements ctxkit, a CLI that recommends knowledge-base
// documents for a request and bundles a document with everything it links.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time.
var version = "dev"

// Output formats.
const (
	formatHuman = "human"
	formatJSON  = "json"
)

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	root       string
	logLevel   string
	format     string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "ctxkit",
		Short: "Recommend and bundle knowledge-base documents",
		Long: `ctxkit ranks the documents of a knowledge base against a free-text request
and assembles a document together with every document it links into a single,
deduplicated bundle.

Usage statistics and learned success patterns are kept next to the corpus
(<root>/.ctxkit by default) and improve later recommendations.

Examples:
  # Recommend documents for a request
  ctxkit recommend --root ./templates "create a python api service"

  # Bundle a document and everything it references
  ctxkit resolve --root ./templates web/fastapi.json --out bundle.json

  # Record that a document was used to create a project
  ctxkit record web/fastapi.json --action create --domain web`,
		Version:      version,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/ctxkit/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.root, "root", "", "corpus root directory (overrides corpus.root)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	cmd.PersistentFlags().StringVar(&opts.format, "format", formatHuman, "output format: human or json")

	cmd.AddCommand(newRecommendCmd(opts))
	cmd.AddCommand(newResolveCmd(opts))
	cmd.AddCommand(newRecordCmd(opts))
	cmd.AddCommand(newPatternsCmd(opts))
	cmd.AddCommand(newConfigCmd(opts))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// versionCmd prints the build version
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the ctxkit version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := cmd.OutOrStdout().Write([]byte("ctxkit " + version + "\n"))
			return err
		},
	}
}
