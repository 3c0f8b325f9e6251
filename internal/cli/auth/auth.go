package auth

import (
	"github.com/spf13/cobra"

	"mediahub/internal/cli/app"
)

// NewCommand returns the auth command group
func NewCommand(l *app.Loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authentication commands",
		Long:  "Login, logout, and inspect the stored session",
	}
	cmd.AddCommand(newLoginCmd(l), newLogoutCmd(l), newStatusCmd(l))
	return cmd
}
