// Package interact holds the like, save, share, view and saved commands
package interact

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"mediahub/internal/cli/app"
	"mediahub/pkg/models"
	"mediahub/pkg/utils"
)

// ErrRolledBack is returned when the backend rejected a toggle
var ErrRolledBack = errors.New("the server did not accept the change")

// NewCommands returns the top-level interaction commands
func NewCommands(l *app.Loader) []*cobra.Command {
	return []*cobra.Command{
		newLikeCmd(l),
		newSaveCmd(l),
		newShareCmd(l),
		newViewCmd(l),
		newSavedCmd(l),
	}
}

// withKey opens the app, hydrates the item and hands over its key
func withKey(l *app.Loader, run func(cmd *cobra.Command, a *app.App, key models.ContentKey) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		typ, _ := cmd.Flags().GetString("type")
		key, err := app.ParseKey(args[0], typ)
		if err != nil {
			return err
		}

		a, err := l.Open(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		// start from the server's state so the optimistic flip predicts correctly
		if err := a.Service.LoadContentStats(cmd.Context(), key.ID, key.Type); err != nil {
			return err
		}
		return run(cmd, a, key)
	}
}

func keyCommand(use, short string, l *app.Loader, run func(cmd *cobra.Command, a *app.App, key models.ContentKey) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " <type:id | id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE:  withKey(l, run),
	}
	cmd.Flags().String("type", "", "Content type of a bare id (media, post, track, video, forum)")
	return cmd
}

func newLikeCmd(l *app.Loader) *cobra.Command {
	return keyCommand("like", "Toggle your like on an item", l, func(cmd *cobra.Command, a *app.App, key models.ContentKey) error {
		res, err := a.Service.ToggleLike(cmd.Context(), key.ID, key.Type)
		if err != nil {
			return err
		}
		if res.RolledBack {
			return fmt.Errorf("like %s: %w", key, ErrRolledBack)
		}
		return a.Print(res, func(w io.Writer) {
			verb := "Unliked"
			if res.Liked {
				verb = "Liked"
			}
			fmt.Fprintf(w, "✓ %s %s (%d likes)\n", verb, key, res.TotalLikes)
		})
	})
}

func newSaveCmd(l *app.Loader) *cobra.Command {
	return keyCommand("save", "Toggle your save on an item", l, func(cmd *cobra.Command, a *app.App, key models.ContentKey) error {
		res, err := a.Service.ToggleSave(cmd.Context(), key.ID, key.Type, nil)
		if err != nil {
			return err
		}
		if res.RolledBack {
			return fmt.Errorf("save %s: %w", key, ErrRolledBack)
		}
		return a.Print(res, func(w io.Writer) {
			verb := "Removed from saved:"
			if res.Saved {
				verb = "Saved"
			}
			fmt.Fprintf(w, "✓ %s %s (%d saves)\n", verb, key, res.TotalSaves)
		})
	})
}

func newShareCmd(l *app.Loader) *cobra.Command {
	return keyCommand("share", "Record a share of an item", l, func(cmd *cobra.Command, a *app.App, key models.ContentKey) error {
		if err := a.Service.RecordShare(cmd.Context(), key.ID, key.Type); err != nil {
			return err
		}
		st, _ := a.Service.Stats(key.ID)
		return a.Print(st, func(w io.Writer) {
			fmt.Fprintf(w, "✓ Shared %s (%d shares)\n", key, st.Shares)
		})
	})
}

func newViewCmd(l *app.Loader) *cobra.Command {
	var (
		duration time.Duration
		progress float64
		complete bool
	)
	cmd := keyCommand("view", "Record a view of an item", l, func(cmd *cobra.Command, a *app.App, key models.ContentKey) error {
		if progress < 0 || progress > 1 {
			return fmt.Errorf("%w: progress must be between 0 and 1", models.ErrInvalidInput)
		}
		view := models.ViewRequest{
			DurationMs:  duration.Milliseconds(),
			ProgressPct: progress,
			IsComplete:  complete,
		}
		if err := a.Service.RecordView(cmd.Context(), key.ID, key.Type, view); err != nil {
			return err
		}
		st, _ := a.Service.Stats(key.ID)
		return a.Print(st, func(w io.Writer) {
			fmt.Fprintf(w, "✓ Viewed %s (%d views)\n", key, st.Views)
		})
	})
	cmd.Flags().DurationVar(&duration, "duration", 0, "How long the item was watched or read")
	cmd.Flags().Float64Var(&progress, "progress", 0, "Fraction of the item consumed, 0 to 1")
	cmd.Flags().BoolVar(&complete, "complete", false, "The item was consumed to the end")
	return cmd
}

func newSavedCmd(l *app.Loader) *cobra.Command {
	return &cobra.Command{
		Use:   "saved",
		Short: "List your saved items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := l.Open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			items, err := a.Client.GetSavedContent(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get saved items: %w", err)
			}
			return a.Print(items, func(w io.Writer) {
				fmt.Fprintf(w, "\nSaved items (%d):\n\n", len(items))
				for i, item := range items {
					savedAt := time.UnixMilli(item.SavedAt)
					fmt.Fprintf(w, "%d. %s  (%s)\n", i+1, models.MakeKey(item.ContentID, item.ContentType), utils.TimeAgo(savedAt))
				}
			})
		},
	}
}
