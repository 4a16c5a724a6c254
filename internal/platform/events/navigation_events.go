package events

import (
	"time"

	"github.com/philly/arch-blog/reader/internal/platform/eventbus"
)

const (
	NavigationChangedTopic eventbus.Topic = "navigation.changed"
)

// NavigationChangedEvent describes one accepted view transition.
type NavigationChangedEvent struct {
	Action     string
	FromView   string
	FromPostID string
	ToView     string
	ToPostID   string
	OccurredAt time.Time
}
