package comments

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"mediahub/internal/cli/app"
	"mediahub/pkg/models"
	"mediahub/pkg/utils"
)

// NewCommand returns the comments command group
func NewCommand(l *app.Loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comments",
		Short: "Read and write comments",
		Long:  "List a content item's comment threads, post comments and replies, and like comments",
	}
	cmd.AddCommand(newListCmd(l), newAddCmd(l), newLikeCmd(l))
	return cmd
}

func newListCmd(l *app.Loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <content-id>",
		Short: "List comments, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			page, _ := cmd.Flags().GetInt("page")
			if page < 1 {
				return fmt.Errorf("%w: page must be at least 1", models.ErrInvalidInput)
			}

			a, err := l.Open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			contentID := args[0]
			if err := a.Service.LoadComments(cmd.Context(), contentID, page); err != nil {
				return fmt.Errorf("failed to load comments: %w", err)
			}
			threads := a.Service.Comments(contentID)
			return a.Print(threads, func(w io.Writer) {
				if len(threads) == 0 {
					fmt.Fprintln(w, "No comments yet.")
					return
				}
				for _, c := range threads {
					printComment(w, c, "")
					for _, r := range c.Replies {
						printComment(w, r, "    ")
					}
				}
				if a.Service.HasMoreComments(contentID) {
					fmt.Fprintf(w, "\nMore comments: mediahub comments list %s --page %d\n", contentID, page+1)
				}
			})
		},
	}
	cmd.Flags().Int("page", 1, "Page number")
	return cmd
}

func newAddCmd(l *app.Loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <content-id> <text>...",
		Short: "Post a comment or a reply",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			parentID, _ := cmd.Flags().GetString("reply-to")

			a, err := l.Open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			comment, err := a.Service.AddComment(cmd.Context(), args[0], strings.Join(args[1:], " "), parentID)
			if err != nil {
				return fmt.Errorf("failed to post comment: %w", err)
			}
			return a.Print(comment, func(w io.Writer) {
				fmt.Fprintf(w, "✓ Comment posted (id %s)\n", comment.ID)
			})
		},
	}
	cmd.Flags().String("reply-to", "", "Id of the comment to reply to")
	return cmd
}

func newLikeCmd(l *app.Loader) *cobra.Command {
	return &cobra.Command{
		Use:   "like <content-id> <comment-id>",
		Short: "Toggle your like on a comment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := l.Open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			resp, err := a.Client.ToggleCommentLike(cmd.Context(), args[1])
			if err != nil {
				return fmt.Errorf("failed to like comment: %w", err)
			}
			return a.Print(resp, func(w io.Writer) {
				verb := "Unliked"
				if resp.Liked {
					verb = "Liked"
				}
				fmt.Fprintf(w, "✓ %s comment %s on %s (%d likes)\n", verb, resp.CommentID, args[0], resp.Likes)
			})
		},
	}
}

func printComment(w io.Writer, c models.Comment, indent string) {
	likes := ""
	if c.Likes > 0 {
		likes = fmt.Sprintf("  ♥ %d", c.Likes)
	}
	fmt.Fprintf(w, "%s%s · %s%s\n", indent, c.Username, utils.TimeAgo(c.CreatedAt), likes)
	fmt.Fprintf(w, "%s  %s\n", indent, c.Text)
	fmt.Fprintf(w, "%s  [%s]\n", indent, c.ID)
}
