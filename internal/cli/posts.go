package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/philly/arch-blog/reader/internal/navigation"
	"github.com/philly/arch-blog/reader/internal/posts/domain"
	"github.com/philly/arch-blog/reader/internal/query"
	"github.com/philly/arch-blog/reader/internal/session"
)

func newListCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List every story",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.run(cmd, func(ctx context.Context) error {
				sub := rt.app.Posts().SubscribeList()
				defer sub.Close()
				return rt.renderSettled(ctx, navigation.State{View: navigation.ViewList}, sub)
			})
		},
	}
}

func newShowCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Read one story",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.run(cmd, func(ctx context.Context) error {
				sub, err := rt.app.Posts().SubscribeDetail(args[0])
				if err != nil {
					return err
				}
				defer sub.Close()
				state := navigation.State{View: navigation.ViewDetail, PostID: args[0]}
				return rt.renderSettled(ctx, state, sub)
			})
		},
	}
}

func newCreateCommand(rt *runtime) *cobra.Command {
	var form domain.DraftForm
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Publish a new story",
		Long: `Publish a new story.

Categories are comma separated and stored upper case:
  monk create --title "Hello" --category "go, cli" --description "Intro" --content "Body"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.run(cmd, func(ctx context.Context) error {
				post, err := rt.app.Posts().CreatePost(ctx, form)
				if err != nil {
					return err
				}
				rt.printer.RenderCreated(post)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&form.Title, "title", "", "story title")
	cmd.Flags().StringVar(&form.Category, "category", "", "comma separated categories")
	cmd.Flags().StringVar(&form.Description, "description", "", "short summary")
	cmd.Flags().StringVar(&form.Content, "content", "", "story body")
	cmd.Flags().StringVar(&form.CoverImage, "cover-image", "", "cover image URL")
	return cmd
}

// renderSettled waits for sub, renders it and returns the query's error.
func (rt *runtime) renderSettled(ctx context.Context, state navigation.State, sub *query.Subscription) error {
	snap, err := sub.Wait(ctx)
	if err != nil {
		return err
	}
	if err := rt.printer.RenderView(session.View{State: state, Snapshot: snap}); err != nil {
		return err
	}
	if snap.Status == query.StatusError {
		return errors.Join(errRendered, snap.Err)
	}
	return nil
}

// errRendered marks errors that were already shown to the user.
var errRendered = errors.New("already reported")

// IsReported reports whether err was already printed by a command.
func IsReported(err error) bool {
	return errors.Is(err, errRendered)
}
