package application_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philly/arch-blog/reader/internal/adapters/remote"
	"github.com/philly/arch-blog/reader/internal/adapters/remote/remotetest"
	"github.com/philly/arch-blog/reader/internal/platform/apperror"
	"github.com/philly/arch-blog/reader/internal/platform/eventbus"
	"github.com/philly/arch-blog/reader/internal/platform/events"
	"github.com/philly/arch-blog/reader/internal/platform/logger"
	"github.com/philly/arch-blog/reader/internal/posts/application"
	"github.com/philly/arch-blog/reader/internal/posts/domain"
	"github.com/philly/arch-blog/reader/internal/posts/ports"
	"github.com/philly/arch-blog/reader/internal/query"
)

func seedPost() domain.Post {
	return domain.Post{
		ID:          "1",
		Title:       "A",
		Category:    []string{"X"},
		Description: "d",
		Content:     "c",
		Date:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func validForm() domain.DraftForm {
	return domain.DraftForm{
		Title:       "B",
		Category:    "y, z",
		Description: "d2",
		Content:     "c2",
	}
}

type fixture struct {
	srv     *remotetest.Server
	store   *query.Store
	bus     *eventbus.Bus
	service *application.PostsService
}

func newFixture(t *testing.T, posts ...domain.Post) *fixture {
	t.Helper()
	srv := remotetest.NewServer(posts...)
	t.Cleanup(srv.Close)

	client, err := remote.NewClient(remote.Options{BaseURL: srv.URL})
	require.NoError(t, err)

	store := query.NewStore(query.Options{})
	t.Cleanup(store.Close)

	bus := eventbus.NewBus(logger.Nop{})
	return &fixture{
		srv:     srv,
		store:   store,
		bus:     bus,
		service: application.NewPostsService(client, store, bus, logger.Nop{}),
	}
}

func wait(t *testing.T, sub *query.Subscription) query.Snapshot {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	snap, err := sub.Wait(ctx)
	require.NoError(t, err)
	return snap
}

func TestPostsService_ListIsCached(t *testing.T) {
	f := newFixture(t, seedPost())

	first := f.service.SubscribeList()
	defer first.Close()
	snap := wait(t, first)
	require.Equal(t, query.StatusSuccess, snap.Status)

	posts, ok := application.ListFrom(snap)
	require.True(t, ok)
	require.Len(t, posts, 1)
	assert.Equal(t, seedPost().Title, posts[0].Title)

	second := f.service.SubscribeList()
	defer second.Close()
	again, ok := application.ListFrom(wait(t, second))
	require.True(t, ok)
	assert.Equal(t, posts, again)
	assert.Equal(t, 1, f.srv.Calls(remotetest.OpList))
}

func TestPostsService_ConcurrentDetailSubscriptionsShareOneRequest(t *testing.T) {
	p := seedPost()
	p.ID = "42"
	f := newFixture(t, p)
	release := f.srv.Hold(remotetest.OpGet)

	a, err := f.service.SubscribeDetail("42")
	require.NoError(t, err)
	defer a.Close()
	b, err := f.service.SubscribeDetail("42")
	require.NoError(t, err)
	defer b.Close()

	release()
	pa, ok := application.PostFrom(wait(t, a))
	require.True(t, ok)
	pb, ok := application.PostFrom(wait(t, b))
	require.True(t, ok)
	assert.Same(t, pa, pb)
	assert.Equal(t, 1, f.srv.Calls(remotetest.OpGet))
}

func TestPostsService_SubscribeDetailRejectsEmptyID(t *testing.T) {
	f := newFixture(t)

	sub, err := f.service.SubscribeDetail("")
	assert.Nil(t, sub)
	assert.ErrorIs(t, err, ports.ErrMissingPostID)
	_, cached := f.store.Peek(query.PostDetail(""))
	assert.False(t, cached)
}

func TestPostsService_DetailNotFound(t *testing.T) {
	f := newFixture(t)

	sub, err := f.service.SubscribeDetail("missing")
	require.NoError(t, err)
	defer sub.Close()

	snap := wait(t, sub)
	assert.Equal(t, query.StatusError, snap.Status)
	assert.ErrorIs(t, snap.Err, ports.ErrPostNotFound)
	assert.True(t, ports.IsRemoteError(snap.Err))
	_, ok := application.PostFrom(snap)
	assert.False(t, ok)
}

func TestPostsService_CreatePost(t *testing.T) {
	f := newFixture(t, seedPost())
	f.srv.SetIDGenerator(func() string { return "2" })

	var mu sync.Mutex
	var created []events.PostCreatedEvent
	done := make(chan struct{})
	f.bus.Subscribe(events.PostCreatedTopic, func(_ context.Context, e eventbus.Event) error {
		mu.Lock()
		defer mu.Unlock()
		created = append(created, e.Payload.(events.PostCreatedEvent))
		close(done)
		return nil
	})

	post, err := f.service.CreatePost(context.Background(), validForm())
	require.NoError(t, err)
	assert.Equal(t, "2", post.ID)
	assert.Equal(t, []string{"Y", "Z"}, post.Category)

	bodies := f.srv.CreatedBodies()
	require.Len(t, bodies, 1)
	assert.Equal(t, []any{"Y", "Z"}, bodies[0]["category"])
	assert.NotContains(t, bodies[0], "id")
	date, err := time.Parse(time.RFC3339, bodies[0]["date"].(string))
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), date, time.Minute)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("posts.created was not published")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "2", created[0].PostID)
	assert.Equal(t, []string{"Y", "Z"}, created[0].Categories)
	assert.False(t, f.service.Creating())
}

func TestPostsService_CreatePostRejectsInvalidForm(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.CreatePost(context.Background(), domain.DraftForm{Category: " , "})
	require.Error(t, err)
	assert.ErrorIs(t, err, application.ErrInvalidDraft)
	assert.ErrorIs(t, err, domain.ErrInvalidTitle)
	assert.ErrorIs(t, err, domain.ErrInvalidCategory)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidationFailed))
	assert.Equal(t, 0, f.srv.Calls(remotetest.OpCreate))
}

func TestPostsService_CreatePostRemoteFailure(t *testing.T) {
	f := newFixture(t)
	f.srv.Fail(remotetest.OpCreate, remotetest.Failure{Status: 422, Body: `{"message":"title taken"}`})

	_, err := f.service.CreatePost(context.Background(), validForm())
	require.Error(t, err)
	assert.True(t, ports.IsRemoteError(err))
	assert.Equal(t, 422, apperror.StatusOf(err))
	assert.Contains(t, err.Error(), "title taken")
}

func TestPostsService_CreateDoesNotInvalidateList(t *testing.T) {
	f := newFixture(t, seedPost())

	sub := f.service.SubscribeList()
	defer sub.Close()
	wait(t, sub)

	_, err := f.service.CreatePost(context.Background(), validForm())
	require.NoError(t, err)
	assert.False(t, sub.Snapshot().Stale)
}

func TestPostsService_SecondSubmitWhilePendingIsRejected(t *testing.T) {
	f := newFixture(t)
	release := f.srv.Hold(remotetest.OpCreate)

	errs := make(chan error, 1)
	go func() {
		_, err := f.service.CreatePost(context.Background(), validForm())
		errs <- err
	}()
	require.Eventually(t, f.service.Creating, 2*time.Second, 5*time.Millisecond)

	_, err := f.service.CreatePost(context.Background(), validForm())
	assert.ErrorIs(t, err, query.ErrMutationPending)

	release()
	require.NoError(t, <-errs)
	assert.Equal(t, 1, f.srv.Calls(remotetest.OpCreate))
}
