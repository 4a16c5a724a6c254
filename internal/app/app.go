package app

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/philly/arch-blog/reader/internal/navigation"
	"github.com/philly/arch-blog/reader/internal/platform/eventbus"
	"github.com/philly/arch-blog/reader/internal/platform/events"
	"github.com/philly/arch-blog/reader/internal/platform/logger"
	"github.com/philly/arch-blog/reader/internal/posts/application"
	"github.com/philly/arch-blog/reader/internal/session"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config  Config
	posts   *application.PostsService
	nav     *navigation.Machine
	metrics *MetricsServer
	log     logger.Logger

	sessionOnce sync.Once
	session     *session.Session
	unsubscribe []func()
}

func NewApp(
	config Config,
	posts *application.PostsService,
	nav *navigation.Machine,
	bus *eventbus.Bus,
	metricsServer *MetricsServer,
	log logger.Logger,
) *App {
	a := &App{
		config:  config,
		posts:   posts,
		nav:     nav,
		metrics: metricsServer,
		log:     log,
	}
	a.unsubscribe = append(a.unsubscribe,
		bus.Subscribe(events.PostCreatedTopic, a.onPostCreated),
		bus.Subscribe(events.NavigationChangedTopic, a.onNavigationChanged),
	)
	return a
}

// Config returns the loaded configuration.
func (a *App) Config() Config { return a.config }

// Posts returns the posts service for one-shot commands.
func (a *App) Posts() *application.PostsService { return a.posts }

// Session returns the interactive session, creating it on first use. The
// session subscribes to the post list as soon as it exists.
func (a *App) Session() *session.Session {
	a.sessionOnce.Do(func() {
		a.session = session.New(a.nav, a.posts, a.log)
	})
	return a.session
}

// Run executes fn until it returns or the process is interrupted. While it
// runs, the metrics endpoint is served when configured.
func (a *App) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if a.metrics != nil {
		go func() {
			a.log.Info(ctx, "serving metrics", "address", a.metrics.Addr)
			if err := a.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.log.Error(ctx, "metrics server failed", "error", err)
			}
		}()
		defer a.shutdownMetrics()
	}

	return fn(ctx)
}

// Close releases the session. Wire's cleanup tears down the rest.
func (a *App) Close() {
	for _, unsubscribe := range a.unsubscribe {
		unsubscribe()
	}
	if a.session != nil {
		a.session.Close()
	}
}

func (a *App) shutdownMetrics() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.metrics.Shutdown(ctx); err != nil {
		a.log.Error(ctx, "failed to gracefully shutdown metrics server", "error", err)
	}
}

func (a *App) onPostCreated(ctx context.Context, event eventbus.Event) error {
	created, ok := event.Payload.(events.PostCreatedEvent)
	if !ok {
		return errors.New("unexpected payload for " + string(event.Topic))
	}
	a.log.Debug(ctx, "post created event", "postID", created.PostID, "categories", created.Categories)
	return nil
}

func (a *App) onNavigationChanged(ctx context.Context, event eventbus.Event) error {
	changed, ok := event.Payload.(events.NavigationChangedEvent)
	if !ok {
		return errors.New("unexpected payload for " + string(event.Topic))
	}
	a.log.Debug(ctx, "view changed",
		"action", changed.Action,
		"from", changed.FromView,
		"to", changed.ToView,
		"postID", changed.ToPostID,
	)
	return nil
}
