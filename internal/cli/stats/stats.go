package stats

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"mediahub/internal/cli/app"
	"mediahub/pkg/models"
	"mediahub/pkg/utils"
)

// NewCommand returns the stats command group
func NewCommand(l *app.Loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show interaction counters",
		Long:  "Fetch likes, saves, shares, views and comment counts for content items",
	}
	cmd.AddCommand(newGetCmd(l), newBatchCmd(l))
	return cmd
}

func newGetCmd(l *app.Loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <type:id | id>",
		Short: "Show counters for one item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			if err := a.Service.LoadContentStats(cmd.Context(), key.ID, key.Type); err != nil {
				return err
			}
			st, _ := a.Service.Stats(key.ID)
			return a.Print(st, func(w io.Writer) {
				printStats(w, key, st)
			})
		},
	}
	cmd.Flags().String("type", "", "Content type of a bare id (media, post, track, video, forum)")
	return cmd
}

func newBatchCmd(l *app.Loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <id>...",
		Short: "Show counters for several items of one type",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, _ := cmd.Flags().GetString("type")
			contentType, ok := models.ParseContentType(typ)
			if !ok {
				return fmt.Errorf("%w: unknown content type %q", models.ErrInvalidInput, typ)
			}

			a, err := l.Open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := utils.WithLongTimeout(cmd.Context())
			defer cancel()
			if err := a.Service.LoadBatchContentStats(ctx, args, contentType); err != nil {
				return err
			}

			result := make(map[string]models.ContentStats, len(args))
			for _, id := range args {
				if st, ok := a.Service.Stats(id); ok {
					result[id] = st
				}
			}
			return a.Print(result, func(w io.Writer) {
				for _, id := range args {
					if st, ok := result[id]; ok {
						printStats(w, models.MakeKey(id, contentType), st)
					}
				}
			})
		},
	}
	cmd.Flags().String("type", string(models.DefaultContentType), "Content type of the ids")
	return cmd
}

func printStats(w io.Writer, key models.ContentKey, st models.ContentStats) {
	fmt.Fprintf(w, "%s\n", key)
	fmt.Fprintf(w, "  Likes:    %d%s\n", st.Likes, mark(st.UserInteractions.Liked, "liked"))
	fmt.Fprintf(w, "  Saves:    %d%s\n", st.Saves, mark(st.UserInteractions.Saved, "saved"))
	fmt.Fprintf(w, "  Shares:   %d%s\n", st.Shares, mark(st.UserInteractions.Shared, "shared"))
	fmt.Fprintf(w, "  Views:    %d%s\n", st.Views, mark(st.UserInteractions.Viewed, "viewed"))
	fmt.Fprintf(w, "  Comments: %d\n", st.Comments)
}

func mark(on bool, label string) string {
	if on {
		return "  ✓ " + label
	}
	return ""
}
