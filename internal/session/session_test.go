package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philly/arch-blog/reader/internal/adapters/remote"
	"github.com/philly/arch-blog/reader/internal/adapters/remote/remotetest"
	"github.com/philly/arch-blog/reader/internal/navigation"
	"github.com/philly/arch-blog/reader/internal/platform/eventbus"
	"github.com/philly/arch-blog/reader/internal/platform/logger"
	"github.com/philly/arch-blog/reader/internal/posts/application"
	"github.com/philly/arch-blog/reader/internal/posts/domain"
	"github.com/philly/arch-blog/reader/internal/query"
	"github.com/philly/arch-blog/reader/internal/session"
)

func post(id, title string) domain.Post {
	return domain.Post{
		ID:          id,
		Title:       title,
		Category:    []string{"X"},
		Description: "d",
		Content:     "c",
		Date:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

type fixture struct {
	srv     *remotetest.Server
	store   *query.Store
	session *session.Session
}

func newFixture(t *testing.T, gc time.Duration, posts ...domain.Post) *fixture {
	t.Helper()
	srv := remotetest.NewServer(posts...)
	t.Cleanup(srv.Close)

	client, err := remote.NewClient(remote.Options{BaseURL: srv.URL})
	require.NoError(t, err)

	store := query.NewStore(query.Options{GCTime: gc})
	t.Cleanup(store.Close)

	bus := eventbus.NewBus(logger.Nop{})
	service := application.NewPostsService(client, store, bus, logger.Nop{})
	nav := navigation.NewMachine(store, bus, logger.Nop{})
	s := session.New(nav, service, logger.Nop{})
	t.Cleanup(s.Close)

	return &fixture{srv: srv, store: store, session: s}
}

func wait(t *testing.T, s *session.Session) session.View {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	v, err := s.Wait(ctx)
	require.NoError(t, err)
	return v
}

func TestSession_EndToEnd(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0, post("1", "A"))
	f.srv.SetIDGenerator(func() string { return "2" })

	v := wait(t, f.session)
	require.Equal(t, navigation.ViewList, v.State.View)
	require.Equal(t, query.StatusSuccess, v.Snapshot.Status)
	posts, ok := v.Posts()
	require.True(t, ok)
	require.Len(t, posts, 1)
	assert.Equal(t, post("1", "A"), posts[0])

	require.NoError(t, f.session.Select(ctx, "1"))
	v = wait(t, f.session)
	got, ok := v.Post()
	require.True(t, ok)
	assert.Equal(t, posts[0], *got)

	require.NoError(t, f.session.RequestCreate(ctx))
	assert.Equal(t, navigation.ViewCreate, f.session.View().State.View)

	created, err := f.session.Submit(ctx, domain.DraftForm{
		Title:       "B",
		Category:    "y, z",
		Description: "d2",
		Content:     "c2",
	})
	require.NoError(t, err)
	assert.Equal(t, "2", created.ID)

	bodies := f.srv.CreatedBodies()
	require.Len(t, bodies, 1)
	assert.Equal(t, []any{"Y", "Z"}, bodies[0]["category"])
	date, err := time.Parse(time.RFC3339, bodies[0]["date"].(string))
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), date, time.Minute)

	v = wait(t, f.session)
	assert.Equal(t, navigation.ViewList, v.State.View)
	posts, ok = v.Posts()
	require.True(t, ok)
	require.Len(t, posts, 2)
	assert.Equal(t, "B", posts[1].Title)
	assert.Equal(t, 2, f.srv.Calls(remotetest.OpList))
}

func TestSession_CreateSucceededMarksListStale(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Hour, post("1", "A"))
	wait(t, f.session)

	require.NoError(t, f.session.RequestCreate(ctx))
	snap, ok := f.store.Peek(query.PostsList)
	require.True(t, ok)
	assert.False(t, snap.Stale)

	release := f.srv.Hold(remotetest.OpList)
	defer release()
	_, err := f.session.Submit(ctx, domain.DraftForm{Title: "B", Category: "y", Description: "d", Content: "c"})
	require.NoError(t, err)

	v := f.session.View()
	assert.Equal(t, navigation.ViewList, v.State.View)
	assert.Equal(t, query.StatusLoading, v.Snapshot.Status)
	assert.True(t, v.Snapshot.Stale)
}

func TestSession_SubmitFailureStaysOnForm(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	wait(t, f.session)
	require.NoError(t, f.session.RequestCreate(ctx))

	f.srv.Fail(remotetest.OpCreate, remotetest.Failure{Status: 500, Body: `{"message":"db down"}`})
	_, err := f.session.Submit(ctx, domain.DraftForm{Title: "B", Category: "y", Description: "d", Content: "c"})
	require.Error(t, err)
	assert.Equal(t, navigation.ViewCreate, f.session.View().State.View)

	_, err = f.session.Submit(ctx, domain.DraftForm{})
	require.Error(t, err)
	assert.Equal(t, navigation.ViewCreate, f.session.View().State.View)
	assert.Equal(t, 1, f.srv.Calls(remotetest.OpCreate))
}

func TestSession_SubmitOutsideFormIsRejected(t *testing.T) {
	f := newFixture(t, 0)

	_, err := f.session.Submit(context.Background(), domain.DraftForm{Title: "B", Category: "y", Description: "d", Content: "c"})
	assert.ErrorIs(t, err, navigation.ErrInvalidTransition)
	assert.Equal(t, 0, f.srv.Calls(remotetest.OpCreate))
}

func TestSession_AbandonedDetailDoesNotLand(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Hour, post("1", "A"), post("2", "B"))
	wait(t, f.session)

	release := f.srv.Hold(remotetest.OpGet)
	require.NoError(t, f.session.Select(ctx, "1"))
	require.NoError(t, f.session.Back(ctx))
	require.NoError(t, f.session.Select(ctx, "2"))
	require.Eventually(t, func() bool { return f.srv.Calls(remotetest.OpGet) == 2 }, 2*time.Second, 5*time.Millisecond)
	release()

	v := wait(t, f.session)
	got, ok := v.Post()
	require.True(t, ok)
	assert.Equal(t, "2", got.ID)

	require.Eventually(t, func() bool {
		snap, ok := f.store.Peek(query.PostDetail("1"))
		return ok && snap.Status != query.StatusLoading
	}, 2*time.Second, 5*time.Millisecond)
	snap, _ := f.store.Peek(query.PostDetail("1"))
	assert.Nil(t, snap.Data)
	assert.True(t, snap.Stale)
}

func TestSession_SelectWithoutIDKeepsList(t *testing.T) {
	f := newFixture(t, 0, post("1", "A"))
	wait(t, f.session)

	err := f.session.Select(context.Background(), "")
	require.Error(t, err)
	v := wait(t, f.session)
	assert.Equal(t, navigation.ViewList, v.State.View)
	assert.Equal(t, 1, f.srv.Calls(remotetest.OpList))
}

func TestSession_HomeOnListKeepsSubscription(t *testing.T) {
	f := newFixture(t, 0, post("1", "A"))
	wait(t, f.session)

	require.NoError(t, f.session.Home(context.Background()))
	v := wait(t, f.session)
	assert.Equal(t, query.StatusSuccess, v.Snapshot.Status)
	assert.Equal(t, 1, f.srv.Calls(remotetest.OpList))
}

func TestSession_Refresh(t *testing.T) {
	f := newFixture(t, 0, post("1", "A"))
	wait(t, f.session)

	f.srv.Add(post("3", "C"))
	f.session.Refresh()
	v := wait(t, f.session)
	posts, ok := v.Posts()
	require.True(t, ok)
	assert.Len(t, posts, 2)
	assert.Equal(t, 2, f.srv.Calls(remotetest.OpList))
}

func TestSession_DetailErrorIsReported(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0, post("1", "A"))
	wait(t, f.session)

	require.NoError(t, f.session.Select(ctx, "404"))
	v := wait(t, f.session)
	assert.Equal(t, query.StatusError, v.Snapshot.Status)
	_, ok := v.Post()
	assert.False(t, ok)
}
