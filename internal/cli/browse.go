package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/philly/arch-blog/reader/internal/navigation"
	"github.com/philly/arch-blog/reader/internal/posts/domain"
	"github.com/philly/arch-blog/reader/internal/session"
)

const browseHelp = `Commands:
  list            show the story list
  open <id>       read a story
  new             write a story
  submit          send the story form again
  back            go back to the list
  cancel          leave the story form
  home            go to the list from anywhere
  refresh         reload the current view
  quit            leave`

func newBrowseCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse stories interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.run(cmd, func(ctx context.Context) error {
				return rt.browse(ctx, cmd.InOrStdin())
			})
		},
	}
}

func (rt *runtime) browse(ctx context.Context, in io.Reader) error {
	s := rt.app.Session()
	lines := bufio.NewScanner(in)

	rt.showView(ctx, s)
	for {
		fmt.Fprint(rt.printer.Out(), "monk> ")
		if !lines.Scan() {
			fmt.Fprintln(rt.printer.Out())
			return lines.Err()
		}
		fields := strings.Fields(lines.Text())
		if len(fields) == 0 {
			continue
		}

		var err error
		switch fields[0] {
		case "quit", "exit", "q":
			return nil
		case "help", "?":
			rt.printer.Print("%s", browseHelp)
			continue
		case "list", "home":
			err = s.Home(ctx)
		case "open":
			if len(fields) < 2 {
				err = fmt.Errorf("usage: open <id>")
				break
			}
			err = s.Select(ctx, fields[1])
		case "back":
			err = s.Back(ctx)
		case "cancel":
			err = s.Cancel(ctx)
		case "refresh":
			s.Refresh()
		case "new":
			if err = s.RequestCreate(ctx); err == nil {
				rt.showView(ctx, s)
				err = rt.submitForm(ctx, s, lines)
			}
		case "submit":
			err = rt.submitForm(ctx, s, lines)
		default:
			err = fmt.Errorf("unknown command %q, try help", fields[0])
		}

		if err != nil {
			rt.printer.Error("%v", err)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}
		rt.showView(ctx, s)
	}
}

// submitForm reads the story fields and submits them. A failed submission
// leaves the session on the form.
func (rt *runtime) submitForm(ctx context.Context, s *session.Session, lines *bufio.Scanner) error {
	if s.View().State.View != navigation.ViewCreate {
		return fmt.Errorf("no story form open, use new")
	}

	var form domain.DraftForm
	for _, field := range []struct {
		label string
		dst   *string
	}{
		{"Title", &form.Title},
		{"Category (comma separated)", &form.Category},
		{"Description", &form.Description},
		{"Content", &form.Content},
		{"Cover image URL (optional)", &form.CoverImage},
	} {
		fmt.Fprintf(rt.printer.Out(), "%s: ", field.label)
		if !lines.Scan() {
			return fmt.Errorf("story form aborted")
		}
		*field.dst = strings.TrimSpace(lines.Text())
	}

	post, err := s.Submit(ctx, form)
	if err != nil {
		return err
	}
	rt.printer.RenderCreated(post)
	return nil
}

func (rt *runtime) showView(ctx context.Context, s *session.Session) {
	v, err := s.Wait(ctx)
	if err != nil {
		rt.printer.Error("%v", err)
		return
	}
	if err := rt.printer.RenderView(v); err != nil {
		rt.printer.Error("%v", err)
	}
}
