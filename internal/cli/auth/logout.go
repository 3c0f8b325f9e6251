package auth

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"mediahub/internal/cli/app"
)

func newLogoutCmd(l *app.Loader) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := l.Open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Client.Logout(cmd.Context()); err != nil {
				return fmt.Errorf("logout failed: %w", err)
			}
			return a.Print(map[string]bool{"logged_out": true}, func(w io.Writer) {
				fmt.Fprintln(w, "✓ Logged out")
			})
		},
	}
}
