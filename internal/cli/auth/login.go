package auth

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"mediahub/internal/cli/app"
	"mediahub/internal/client/session"
)

func newLoginCmd(l *app.Loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login to mediahub",
		Long:  "Authenticate with your username and password. The session is kept until logout or expiry.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("username")
			reader := bufio.NewReader(cmd.InOrStdin())

			if username == "" {
				fmt.Fprint(cmd.OutOrStdout(), "Username: ")
				line, err := reader.ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return fmt.Errorf("failed to read username: %w", err)
				}
				username = strings.TrimSpace(line)
			}
			if username == "" {
				return errors.New("username is required")
			}

			password, err := readPassword(cmd, reader)
			if err != nil {
				return err
			}

			a, err := l.Open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			resp, err := a.Client.Login(ctx, username, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			err = a.Session.Save(ctx, session.Session{
				Username: resp.User.Username,
				UserID:   resp.User.ID,
				Token:    resp.Token,
			})
			if err != nil {
				return fmt.Errorf("failed to save session: %w", err)
			}

			return a.Print(resp.User, func(w io.Writer) {
				fmt.Fprintln(w, "✓ Login successful!")
				fmt.Fprintf(w, "  Welcome back, %s!\n", resp.User.Username)
				fmt.Fprintf(w, "  Session saved to: %s\n", a.Config.Session.Path)
			})
		},
	}
	cmd.Flags().String("username", "", "Username")
	return cmd
}

// readPassword prompts without echo on a terminal, otherwise reads one line
func readPassword(cmd *cobra.Command, reader *bufio.Reader) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.OutOrStdout(), "Password: ")
		password, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(password), nil
	}

	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("password is required")
	}
	return password, nil
}
