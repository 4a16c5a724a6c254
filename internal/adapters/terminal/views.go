package terminal

import (
	"errors"
	"fmt"
	"strings"

	"github.com/philly/arch-blog/reader/internal/navigation"
	"github.com/philly/arch-blog/reader/internal/posts/domain"
	"github.com/philly/arch-blog/reader/internal/posts/ports"
	"github.com/philly/arch-blog/reader/internal/query"
	"github.com/philly/arch-blog/reader/internal/session"
)

// User-facing status messages.
const (
	MsgLoadingList   = "Loading stories..."
	MsgListError     = "Error loading stories"
	MsgLoadingDetail = "Loading story..."
	MsgDetailError   = "Error loading story"
	MsgNotFound      = "Story not found"
	MsgNoStories     = "No stories yet."
)

const dateLayout = "Jan 2, 2006"

// RenderView prints whatever the session's current screen shows.
func (p *Printer) RenderView(v session.View) error {
	switch v.State.View {
	case navigation.ViewList:
		return p.renderListSnapshot(v.Snapshot)
	case navigation.ViewDetail:
		p.renderDetailSnapshot(v.Snapshot)
		return nil
	case navigation.ViewCreate:
		p.RenderCreateForm(v.Submitting)
		return nil
	default:
		return fmt.Errorf("terminal: unknown view %s", v.State)
	}
}

func (p *Printer) renderListSnapshot(snap query.Snapshot) error {
	switch snap.Status {
	case query.StatusSuccess:
		posts, _ := snap.Data.([]domain.Post)
		return p.RenderList(posts)
	case query.StatusError:
		p.Error(MsgListError)
	default:
		p.Info(MsgLoadingList)
	}
	return nil
}

func (p *Printer) renderDetailSnapshot(snap query.Snapshot) {
	switch snap.Status {
	case query.StatusSuccess:
		post, ok := snap.Data.(*domain.Post)
		if !ok || post == nil {
			p.Error(MsgNotFound)
			return
		}
		p.RenderDetail(post)
	case query.StatusError:
		if errors.Is(snap.Err, ports.ErrPostNotFound) {
			p.Error(MsgNotFound)
			return
		}
		p.Error(MsgDetailError)
	default:
		p.Info(MsgLoadingDetail)
	}
}

// RenderList prints the first post as the featured story and the rest as
// a table.
func (p *Printer) RenderList(posts []domain.Post) error {
	if len(posts) == 0 {
		p.Print(MsgNoStories)
		return nil
	}

	featured := posts[0]
	p.Print("%s", p.dim("FEATURED"))
	if category, ok := featured.PrimaryCategory(); ok {
		p.Print("%s", p.badge(category))
	}
	p.Print("%s", p.bold(featured.Title))
	p.Print("%s", featured.Description)
	p.Print("%s", p.dim(fmt.Sprintf("%s · %s · id %s",
		featured.Date.Format(dateLayout), featured.ReadTimeOrDefault(), featured.ID)))

	if len(posts) == 1 {
		return nil
	}

	p.Print("")
	t := newTable(p.out, []string{"ID", "Category", "Title", "Read time", "Date", "Tags"})
	for _, post := range posts[1:] {
		category, _ := post.PrimaryCategory()
		t.addRow(post.ID, category, post.Title, post.ReadTimeOrDefault(),
			post.Date.Format(dateLayout), strings.Join(firstN(post.Tags, 2), ", "))
	}
	return t.render()
}

// RenderDetail prints one post in full.
func (p *Printer) RenderDetail(post *domain.Post) {
	if category, ok := post.PrimaryCategory(); ok {
		p.Print("%s", p.badge(category))
	}
	p.Print("%s", p.bold(post.Title))
	p.Print("%s", p.dim(post.Date.Format(dateLayout)+" · "+post.ReadTimeOrDefault()))

	if post.Author != nil && post.Author.Name != "" {
		if post.Author.Role != "" {
			p.Print("By %s, %s", post.Author.Name, post.Author.Role)
		} else {
			p.Print("By %s", post.Author.Name)
		}
	}
	if post.CoverImage != "" {
		p.Print("%s", p.dim("Cover: "+post.CoverImage))
	}

	p.Print("")
	p.Print("> %s", post.Description)
	p.Print("")
	p.Print("%s", strings.TrimSpace(p.plain(post.Content)))
	p.Print("")
	if len(post.Category) > 0 {
		p.Print("Filed under: %s", strings.Join(post.Category, ", "))
	}
	if len(post.Tags) > 0 {
		p.Print("Tags: %s", strings.Join(post.Tags, ", "))
	}
}

// RenderCreateForm prints the creation form's prompt.
func (p *Printer) RenderCreateForm(submitting bool) {
	p.Print("%s", p.bold("New story"))
	if submitting {
		p.Info("Publishing...")
		return
	}
	p.Print("%s", p.dim("Categories are comma separated. Cover image is optional."))
}

// RenderCreated confirms a published post.
func (p *Printer) RenderCreated(post *domain.Post) {
	p.Success("Published %q (id %s)", post.Title, post.ID)
}

func firstN(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
