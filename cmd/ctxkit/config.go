package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fyrsmithlabs/contextkit/internal/config"
)

func newConfigCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Print the configuration after defaults, the config file and CTXKIT_*
environment overrides are applied.

Examples:
  ctxkit config show
  CTXKIT_RANKING_DEFAULT_LIMIT=10 ctxkit config show --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(root.configPath)
			if err != nil {
				return err
			}
			if root.root != "" {
				cfg.Corpus.Root = root.root
			}
			if root.logLevel != "" {
				cfg.Logging.Level = root.logLevel
			}
			if root.format == formatJSON {
				return writeJSON(cmd.OutOrStdout(), cfg)
			}
			// Round-trip through JSON so YAML keys match the config file keys.
			raw, err := json.Marshal(cfg)
			if err != nil {
				return err
			}
			var doc map[string]any
			if err := json.Unmarshal(raw, &doc); err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(doc); err != nil {
				return err
			}
			return enc.Close()
		},
	})
	return cmd
}
