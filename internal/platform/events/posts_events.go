package events

import (
	"time"

	"github.com/philly/arch-blog/reader/internal/platform/eventbus"
)

// Event topics for posts
const (
	PostCreatedTopic eventbus.Topic = "posts.created"
)

// PostCreatedEvent is published after the remote service accepted a new post.
type PostCreatedEvent struct {
	PostID     string
	Title      string
	Categories []string
	OccurredAt time.Time
}
