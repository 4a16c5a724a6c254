// Package session ties navigation to the query store: whatever view is
// current owns exactly one subscription, and leaving the view releases it.
package session

import (
	"context"
	"sync"

	"github.com/philly/arch-blog/reader/internal/navigation"
	"github.com/philly/arch-blog/reader/internal/platform/apperror"
	"github.com/philly/arch-blog/reader/internal/platform/logger"
	"github.com/philly/arch-blog/reader/internal/posts/application"
	"github.com/philly/arch-blog/reader/internal/posts/domain"
	"github.com/philly/arch-blog/reader/internal/query"
)

// View is what the current screen should render.
type View struct {
	State navigation.State
	// Snapshot is the state of the view's query. It is zero for the
	// creation form, which reads nothing.
	Snapshot query.Snapshot
	// Submitting is set while the creation form is being sent.
	Submitting bool
}

// Posts returns the posts of a settled list view.
func (v View) Posts() ([]domain.Post, bool) {
	if v.State.View != navigation.ViewList || v.Snapshot.Status != query.StatusSuccess {
		return nil, false
	}
	return application.ListFrom(v.Snapshot)
}

// Post returns the post of a settled detail view.
func (v View) Post() (*domain.Post, bool) {
	if v.State.View != navigation.ViewDetail || v.Snapshot.Status != query.StatusSuccess {
		return nil, false
	}
	return application.PostFrom(v.Snapshot)
}

// Session is one reader's walk through the blog.
type Session struct {
	mu     sync.Mutex
	nav    *navigation.Machine
	posts  *application.PostsService
	active *query.Subscription
	logger logger.Logger
}

// New creates a session on the list view and subscribes to the list.
func New(nav *navigation.Machine, posts *application.PostsService, logger logger.Logger) *Session {
	s := &Session{nav: nav, posts: posts, logger: logger}
	s.mu.Lock()
	s.syncLocked(context.Background())
	s.mu.Unlock()
	return s
}

// View returns the current screen without blocking.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Wait blocks until the current view's query has settled, then returns
// the view. The creation form returns at once.
func (s *Session) Wait(ctx context.Context) (View, error) {
	s.mu.Lock()
	sub := s.active
	state := s.nav.State()
	s.mu.Unlock()

	if sub == nil {
		return View{State: state, Submitting: s.posts.Creating()}, nil
	}
	snap, err := sub.Wait(ctx)
	return View{State: state, Snapshot: snap}, err
}

// Updated signals changes of the current view's query. It returns nil on
// the creation form.
func (s *Session) Updated() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return nil
	}
	return s.active.Updated()
}

// Select opens the detail view of post id.
func (s *Session) Select(ctx context.Context, id string) error {
	return s.navigate(ctx, func() error { return s.nav.Select(ctx, id) })
}

// RequestCreate opens the creation form.
func (s *Session) RequestCreate(ctx context.Context) error {
	return s.navigate(ctx, func() error { return s.nav.RequestCreate(ctx) })
}

// Back returns to the list.
func (s *Session) Back(ctx context.Context) error {
	return s.navigate(ctx, func() error { return s.nav.Back(ctx) })
}

// Cancel leaves the creation form.
func (s *Session) Cancel(ctx context.Context) error {
	return s.navigate(ctx, func() error { return s.nav.Cancel(ctx) })
}

// Home returns to the list from anywhere.
func (s *Session) Home(ctx context.Context) error {
	return s.navigate(ctx, func() error { return s.nav.Home(ctx) })
}

// Refresh refetches the current view's data.
func (s *Session) Refresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		s.active.Refetch()
	}
}

// Submit sends the creation form. On failure the session stays on the
// form; on success it returns to a list that is refetched.
func (s *Session) Submit(ctx context.Context, form domain.DraftForm) (*domain.Post, error) {
	if state := s.nav.State(); state.View != navigation.ViewCreate {
		return nil, apperror.Wrap(navigation.ErrInvalidTransition, apperror.CodeInvalidTransition,
			apperror.BusinessCodeInvalidView, "nothing to submit outside the creation form", 0)
	}

	post, err := s.posts.CreatePost(ctx, form)
	if err != nil {
		return nil, err
	}
	if err := s.navigate(ctx, func() error { return s.nav.CreateSucceeded(ctx) }); err != nil {
		return post, err
	}
	return post, nil
}

// Close releases the active subscription.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		s.active.Close()
		s.active = nil
	}
}

func (s *Session) navigate(ctx context.Context, transition func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.nav.State()
	if err := transition(); err != nil {
		return err
	}
	if s.nav.State() != before || s.active == nil {
		s.syncLocked(ctx)
	}
	return nil
}

// syncLocked replaces the active subscription with the one the current
// view needs. The old subscription is closed first so an abandoned fetch
// cannot land in the new view.
func (s *Session) syncLocked(ctx context.Context) {
	if s.active != nil {
		s.active.Close()
		s.active = nil
	}

	state := s.nav.State()
	switch state.View {
	case navigation.ViewList:
		s.active = s.posts.SubscribeList()
	case navigation.ViewDetail:
		sub, err := s.posts.SubscribeDetail(state.PostID)
		if err != nil {
			s.logger.Warn(ctx, "detail view without subscription", "error", err)
			return
		}
		s.active = sub
	}
}

func (s *Session) viewLocked() View {
	v := View{State: s.nav.State()}
	if s.active != nil {
		v.Snapshot = s.active.Snapshot()
	} else {
		v.Submitting = s.posts.Creating()
	}
	return v
}
