package auth

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"mediahub/internal/cli/app"
	"mediahub/internal/client/session"
	"mediahub/pkg/utils"
)

type status struct {
	LoggedIn  bool       `json:"logged_in"`
	Username  string     `json:"username,omitempty"`
	UserID    string     `json:"user_id,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func newStatusCmd(l *app.Loader) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show who is logged in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := l.Open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			var st status
			sess, err := a.Session.Load(cmd.Context())
			switch {
			case errors.Is(err, session.ErrNoSession):
			case err != nil:
				return err
			case sess.Token != "":
				st = status{LoggedIn: true, Username: sess.Username, UserID: sess.UserID}
				if exp, ok := app.TokenExpiry(sess.Token); ok {
					st.ExpiresAt = &exp
				}
			}

			return a.Print(st, func(w io.Writer) {
				if !st.LoggedIn {
					fmt.Fprintln(w, "✗ Not logged in")
					fmt.Fprintln(w, "  Run 'mediahub auth login' to authenticate")
					return
				}
				fmt.Fprintf(w, "✓ Logged in as %s\n", st.Username)
				fmt.Fprintf(w, "  User ID: %s\n", st.UserID)
				if st.ExpiresAt != nil {
					if st.ExpiresAt.After(time.Now()) {
						fmt.Fprintf(w, "  Token expires: %s\n", utils.FormatTimestamp(*st.ExpiresAt))
					} else {
						fmt.Fprintf(w, "  Token expired %s (refreshed on next request)\n", utils.TimeAgo(*st.ExpiresAt))
					}
				}
			})
		},
	}
}
