package app

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/philly/arch-blog/reader/internal/adapters/remote"
	"github.com/philly/arch-blog/reader/internal/platform/logger"
	"github.com/philly/arch-blog/reader/internal/platform/metrics"
)

// ConnectRemote creates the content service client and returns it with a
// cleanup function that drops idle connections.
func ConnectRemote(ctx context.Context, config Config, log logger.Logger, collector *metrics.Collector) (*remote.Client, func(), error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 4

	httpClient := &http.Client{
		Transport: transport,
		Timeout:   config.HTTPTimeout,
	}

	var limiter *rate.Limiter
	if config.RateLimitRPS > 0 {
		burst := int(config.RateLimitRPS)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(config.RateLimitRPS), burst)
	}

	log.Debug(ctx, "remote client configuration",
		"base_url", config.APIURL,
		"timeout", config.HTTPTimeout,
		"rate_limit_rps", config.RateLimitRPS,
	)

	client, err := remote.NewClient(remote.Options{
		BaseURL:    config.APIURL,
		HTTPClient: httpClient,
		Limiter:    limiter,
		Logger:     log,
		Metrics:    collector,
	})
	if err != nil {
		log.Error(ctx, "failed to create remote client", "error", err)
		return nil, nil, fmt.Errorf("failed to create remote client: %w", err)
	}

	cleanup := func() {
		log.Debug(context.Background(), "closing remote connections")
		transport.CloseIdleConnections()
	}
	return client, cleanup, nil
}
