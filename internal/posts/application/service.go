package application

import (
	"context"
	"errors"
	"time"

	"github.com/philly/arch-blog/reader/internal/platform/apperror"
	"github.com/philly/arch-blog/reader/internal/platform/eventbus"
	"github.com/philly/arch-blog/reader/internal/platform/events"
	"github.com/philly/arch-blog/reader/internal/platform/logger"
	"github.com/philly/arch-blog/reader/internal/posts/domain"
	"github.com/philly/arch-blog/reader/internal/posts/ports"
	"github.com/philly/arch-blog/reader/internal/query"
)

// ErrInvalidDraft is returned when the creation form fails validation.
// The returned copy carries the individual problems as Details.
var ErrInvalidDraft = apperror.New(
	apperror.CodeValidationFailed,
	apperror.BusinessCodeInvalidDraft,
	"the story is incomplete",
	0,
)

// PostsService exposes the posts queries and the create mutation on top of
// the query store.
type PostsService struct {
	client   ports.PostsClient
	store    *query.Store
	create   *query.Mutation
	eventBus *eventbus.Bus
	logger   logger.Logger
	now      func() time.Time
}

// NewPostsService creates a new posts service
func NewPostsService(
	client ports.PostsClient,
	store *query.Store,
	eventBus *eventbus.Bus,
	logger logger.Logger,
) *PostsService {
	return &PostsService{
		client:   client,
		store:    store,
		create:   store.NewMutation(),
		eventBus: eventBus,
		logger:   logger,
		now:      time.Now,
	}
}

// SubscribeList subscribes to the full post list.
func (s *PostsService) SubscribeList() *query.Subscription {
	return s.store.Subscribe(query.PostsList, func(ctx context.Context) (any, error) {
		return s.client.ListPosts(ctx)
	})
}

// SubscribeDetail subscribes to one post. An empty id is rejected before
// anything is cached or fetched.
func (s *PostsService) SubscribeDetail(id string) (*query.Subscription, error) {
	if id == "" {
		return nil, ports.ErrMissingPostID
	}
	return s.store.Subscribe(query.PostDetail(id), func(ctx context.Context) (any, error) {
		return s.client.GetPost(ctx, id)
	}), nil
}

// ListFrom extracts the posts held by a list snapshot.
func ListFrom(snap query.Snapshot) ([]domain.Post, bool) {
	posts, ok := snap.Data.([]domain.Post)
	return posts, ok
}

// PostFrom extracts the post held by a detail snapshot.
func PostFrom(snap query.Snapshot) (*domain.Post, bool) {
	post, ok := snap.Data.(*domain.Post)
	return post, ok && post != nil
}

// CreatePost validates the form, submits it and announces the new post.
// It does not invalidate the list; leaving the creation view does.
func (s *PostsService) CreatePost(ctx context.Context, form domain.DraftForm) (*domain.Post, error) {
	if problems := form.Validate(); len(problems) > 0 {
		details := make([]string, len(problems))
		for i, p := range problems {
			details[i] = p.Error()
		}
		return nil, apperror.Wrap(errors.Join(problems...), ErrInvalidDraft.Code, ErrInvalidDraft.BusinessCode,
			ErrInvalidDraft.Message, 0).WithDetails(details)
	}

	draft := domain.NewDraft(form, s.now())
	result, err := s.create.Run(ctx, func(ctx context.Context) (any, error) {
		return s.client.CreatePost(ctx, draft)
	})
	if err != nil {
		if !errors.Is(err, query.ErrMutationPending) {
			s.logger.Error(ctx, "failed to create post", "error", err, "title", draft.Title)
		}
		return nil, err
	}

	post := result.(*domain.Post)
	s.logger.Info(ctx, "post created", "postID", post.ID, "title", post.Title)
	s.publishPostCreatedEvent(ctx, post)
	return post, nil
}

// Creating reports whether a submission is in flight.
func (s *PostsService) Creating() bool {
	return s.create.Pending()
}

func (s *PostsService) publishPostCreatedEvent(ctx context.Context, post *domain.Post) {
	if s.eventBus == nil {
		return
	}
	event := eventbus.Event{
		Topic: events.PostCreatedTopic,
		Payload: events.PostCreatedEvent{
			PostID:     post.ID,
			Title:      post.Title,
			Categories: post.Category,
			OccurredAt: s.now(),
		},
	}
	s.eventBus.Publish(ctx, event)
}
