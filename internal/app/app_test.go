package app

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philly/arch-blog/reader/internal/adapters/remote/remotetest"
	"github.com/philly/arch-blog/reader/internal/navigation"
	"github.com/philly/arch-blog/reader/internal/platform/logger"
	"github.com/philly/arch-blog/reader/internal/posts/domain"
	"github.com/philly/arch-blog/reader/internal/query"
)

func quietBootstrap() *logger.BootstrapLogger {
	return logger.NewBootstrapLoggerTo(&bytes.Buffer{}, false)
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig(quietBootstrap(), nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3002", cfg.APIURL)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, time.Duration(0), cfg.HTTPTimeout)
	assert.Equal(t, 0.0, cfg.RateLimitRPS)
	assert.Equal(t, 5*time.Minute, cfg.CacheGCTime)
	assert.Equal(t, 128, cfg.CacheMaxRetained)
	assert.Empty(t, cfg.MetricsAddress)
}

func TestLoadConfig_Environment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("API_URL", "https://blog.example.com/api")
	t.Setenv("HTTP_TIMEOUT", "3s")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("CACHE_GC_TIME", "0s")
	t.Setenv("METRICS_ADDRESS", ":9102")

	cfg, err := LoadConfig(quietBootstrap(), nil)
	require.NoError(t, err)
	assert.Equal(t, "https://blog.example.com/api", cfg.APIURL)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 2.5, cfg.RateLimitRPS)
	assert.Equal(t, time.Duration(0), cfg.CacheGCTime)
	assert.Equal(t, ":9102", cfg.MetricsAddress)
}

func TestLoadConfig_ExplicitValuesOverrideEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("API_URL", "http://from-env:1")

	v := NewViper()
	v.Set(KeyAPIURL, "http://from-flag:2")

	cfg, err := LoadConfig(quietBootstrap(), v)
	require.NoError(t, err)
	assert.Equal(t, "http://from-flag:2", cfg.APIURL)
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{APIURL: "http://localhost:3002"}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "relative url", mutate: func(c *Config) { c.APIURL = "/blogs" }, wantErr: true},
		{name: "unsupported scheme", mutate: func(c *Config) { c.APIURL = "ftp://host" }, wantErr: true},
		{name: "negative timeout", mutate: func(c *Config) { c.HTTPTimeout = -time.Second }, wantErr: true},
		{name: "negative rate", mutate: func(c *Config) { c.RateLimitRPS = -1 }, wantErr: true},
		{name: "negative gc time", mutate: func(c *Config) { c.CacheGCTime = -time.Second }, wantErr: true},
		{name: "negative retention", mutate: func(c *Config) { c.CacheMaxRetained = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewMetricsServer(t *testing.T) {
	assert.Nil(t, NewMetricsServer(Config{}, prometheus.NewRegistry(), logger.Nop{}))

	reg := provideRegistry()
	provideCollector(reg).RecordJoin()
	srv := NewMetricsServer(Config{MetricsAddress: ":0"}, reg, logger.Nop{})
	require.NotNil(t, srv)

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "monk_query_joined_total 1")

	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestInitializeApp(t *testing.T) {
	t.Chdir(t.TempDir())
	srv := remotetest.NewServer(domain.Post{
		ID:          "1",
		Title:       "A",
		Category:    []string{"X"},
		Description: "d",
		Content:     "c",
		Date:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	defer srv.Close()

	v := NewViper()
	v.Set(KeyAPIURL, srv.URL)
	v.Set(KeyLogLevel, "error")

	a, cleanup, err := InitializeApp(context.Background(), quietBootstrap(), v)
	require.NoError(t, err)
	defer cleanup()
	defer a.Close()

	err = a.Run(context.Background(), func(ctx context.Context) error {
		s := a.Session()
		assert.Same(t, s, a.Session())

		view, err := s.Wait(ctx)
		require.NoError(t, err)
		assert.Equal(t, navigation.ViewList, view.State.View)
		assert.Equal(t, query.StatusSuccess, view.Snapshot.Status)
		return nil
	})
	require.NoError(t, err)
}

func TestInitializeApp_InvalidConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	v := NewViper()
	v.Set(KeyAPIURL, "not a url")

	_, _, err := InitializeApp(context.Background(), quietBootstrap(), v)
	assert.Error(t, err)
}
