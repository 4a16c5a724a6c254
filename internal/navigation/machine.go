// Package navigation holds the view state of a reading session: the post
// list, one post's detail, or the creation form.
package navigation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/philly/arch-blog/reader/internal/platform/apperror"
	"github.com/philly/arch-blog/reader/internal/platform/eventbus"
	"github.com/philly/arch-blog/reader/internal/platform/events"
	"github.com/philly/arch-blog/reader/internal/platform/logger"
	"github.com/philly/arch-blog/reader/internal/posts/ports"
	"github.com/philly/arch-blog/reader/internal/query"
)

// View is one of the three screens.
type View int

const (
	ViewList View = iota
	ViewDetail
	ViewCreate
)

func (v View) String() string {
	switch v {
	case ViewList:
		return "LIST"
	case ViewDetail:
		return "DETAIL"
	case ViewCreate:
		return "CREATE"
	default:
		return "UNKNOWN"
	}
}

// State is the current view. PostID is set only for ViewDetail.
type State struct {
	View   View
	PostID string
}

func (s State) String() string {
	if s.View == ViewDetail {
		return fmt.Sprintf("DETAIL(%s)", s.PostID)
	}
	return s.View.String()
}

// Actions, as reported in navigation events.
const (
	ActionSelect          = "select"
	ActionCreateRequested = "create_requested"
	ActionBack            = "back"
	ActionCancel          = "cancel"
	ActionCreateSucceeded = "create_succeeded"
	ActionHome            = "home"
)

// ErrInvalidTransition is returned for an action the current view does not
// accept. The state is left unchanged.
var ErrInvalidTransition = apperror.New(
	apperror.CodeInvalidTransition,
	apperror.BusinessCodeInvalidView,
	"transition not allowed from the current view",
	0,
)

// Invalidator marks cached query results stale.
type Invalidator interface {
	Invalidate(key query.Key)
}

// Machine is the navigation state machine. It starts at the list and has
// no terminal state.
type Machine struct {
	mu          sync.Mutex
	state       State
	invalidator Invalidator
	bus         *eventbus.Bus
	logger      logger.Logger
	now         func() time.Time
}

// NewMachine creates a machine in the list view. bus may be nil.
func NewMachine(invalidator Invalidator, bus *eventbus.Bus, logger logger.Logger) *Machine {
	return &Machine{
		state:       State{View: ViewList},
		invalidator: invalidator,
		bus:         bus,
		logger:      logger,
		now:         time.Now,
	}
}

// State returns the current view.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Select opens the detail view of a post from the list. An empty id is
// rejected with ports.ErrMissingPostID.
func (m *Machine) Select(ctx context.Context, id string) error {
	if id == "" {
		return ports.ErrMissingPostID
	}
	return m.transition(ctx, ActionSelect, func(from State) (State, bool) {
		if from.View != ViewList {
			return from, false
		}
		return State{View: ViewDetail, PostID: id}, true
	})
}

// RequestCreate opens the creation form from the list or a detail view.
func (m *Machine) RequestCreate(ctx context.Context) error {
	return m.transition(ctx, ActionCreateRequested, func(from State) (State, bool) {
		if from.View == ViewCreate {
			return from, false
		}
		return State{View: ViewCreate}, true
	})
}

// Back returns to the list from a detail view or the creation form.
func (m *Machine) Back(ctx context.Context) error {
	return m.transition(ctx, ActionBack, func(from State) (State, bool) {
		if from.View == ViewList {
			return from, false
		}
		return State{View: ViewList}, true
	})
}

// Cancel leaves the creation form without submitting.
func (m *Machine) Cancel(ctx context.Context) error {
	return m.transition(ctx, ActionCancel, leaveCreate)
}

// CreateSucceeded marks the post list stale and returns to it. The list is
// invalidated before the view changes, so the next list render refetches.
func (m *Machine) CreateSucceeded(ctx context.Context) error {
	return m.transition(ctx, ActionCreateSucceeded, func(from State) (State, bool) {
		to, ok := leaveCreate(from)
		if ok {
			m.invalidator.Invalidate(query.PostsList)
		}
		return to, ok
	})
}

// Home returns to the list from any view. Already being on the list is
// not an error.
func (m *Machine) Home(ctx context.Context) error {
	return m.transition(ctx, ActionHome, func(State) (State, bool) {
		return State{View: ViewList}, true
	})
}

func leaveCreate(from State) (State, bool) {
	if from.View != ViewCreate {
		return from, false
	}
	return State{View: ViewList}, true
}

func (m *Machine) transition(ctx context.Context, action string, next func(State) (State, bool)) error {
	m.mu.Lock()
	from := m.state
	to, ok := next(from)
	if !ok {
		m.mu.Unlock()
		m.logger.Debug(ctx, "navigation rejected", "action", action, "view", from.String())
		return apperror.Wrap(ErrInvalidTransition, apperror.CodeInvalidTransition, apperror.BusinessCodeInvalidView,
			fmt.Sprintf("cannot %s from %s", action, from), 0)
	}
	m.state = to
	m.mu.Unlock()

	m.logger.Debug(ctx, "navigation changed", "action", action, "from", from.String(), "to", to.String())
	if m.bus != nil {
		m.bus.Dispatch(ctx, eventbus.Event{
			Topic: events.NavigationChangedTopic,
			Payload: events.NavigationChangedEvent{
				Action:     action,
				FromView:   from.View.String(),
				FromPostID: from.PostID,
				ToView:     to.View.String(),
				ToPostID:   to.PostID,
				OccurredAt: m.now(),
			},
		})
	}
	return nil
}
