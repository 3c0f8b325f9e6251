package config

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"mediahub/internal/cli/app"
)

func newShowCmd(l *app.Loader) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the effective configuration after the config file, environment and flags are applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := l.Config()
			if err != nil {
				return err
			}
			// never echo the dev server's signing secret
			cfg.DevServer.JWTSecret = "<redacted>"

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", l.ConfigPath(), data)
			return nil
		},
	}
}
