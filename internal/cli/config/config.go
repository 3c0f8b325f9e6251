package config

import (
	"github.com/spf13/cobra"

	"mediahub/internal/cli/app"
)

// NewCommand returns the config command group
func NewCommand(l *app.Loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration commands",
		Long:  "View and manage CLI configuration",
	}
	cmd.AddCommand(newShowCmd(l), newInitCmd(l))
	return cmd
}
