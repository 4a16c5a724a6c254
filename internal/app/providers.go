package app

import (
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/philly/arch-blog/reader/internal/adapters/remote"
	"github.com/philly/arch-blog/reader/internal/navigation"
	"github.com/philly/arch-blog/reader/internal/platform/logger"
	"github.com/philly/arch-blog/reader/internal/platform/metrics"
	"github.com/philly/arch-blog/reader/internal/posts/ports"
	"github.com/philly/arch-blog/reader/internal/query"
)

// ProviderSet holds the app-level providers that are not owned by another
// package.
var ProviderSet = wire.NewSet(
	provideLoggerConfig,
	provideRegistry,
	provideCollector,
	ConnectRemote,
	wire.Bind(new(ports.PostsClient), new(*remote.Client)),
	provideStore,
	wire.Bind(new(navigation.Invalidator), new(*query.Store)),
	navigation.NewMachine,
	NewMetricsServer,
	NewApp,
)

// provideLoggerConfig creates logger config from app config
func provideLoggerConfig(config Config) logger.Config {
	return logger.Config{
		Environment: config.Environment,
		LogLevel:    config.LogLevel,
	}
}

// provideRegistry creates a private registry with the Go runtime collectors.
func provideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func provideCollector(reg *prometheus.Registry) *metrics.Collector {
	return metrics.NewCollector(reg)
}

// provideStore creates the session's query store; the cleanup closes it.
func provideStore(config Config, log logger.Logger, collector *metrics.Collector) (*query.Store, func()) {
	store := query.NewStore(query.Options{
		GCTime:      config.CacheGCTime,
		MaxRetained: config.CacheMaxRetained,
		Logger:      log,
		Metrics:     collector,
	})
	return store, store.Close
}
