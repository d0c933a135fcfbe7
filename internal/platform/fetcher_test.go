package platform

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/P4R1H/affiliate-platform/internal/model"
	"github.com/P4R1H/affiliate-platform/internal/resilience"
)

// stubAdapter returns scripted results in order, repeating the last one.
type stubAdapter struct {
	name    string
	calls   int
	results []func() (model.PlatformMetrics, error)
}

func (s *stubAdapter) Name() string { return s.name }

func (s *stubAdapter) FetchPostMetrics(_ context.Context, _ string) (model.PlatformMetrics, error) {
	i := s.calls
	if i >= len(s.results) {
		i = len(s.results) - 1
	}
	s.calls++
	return s.results[i]()
}

func ptr(v int64) *int64 { return &v }

func full(views, clicks, conversions int64) func() (model.PlatformMetrics, error) {
	return func() (model.PlatformMetrics, error) {
		return model.PlatformMetrics{Views: ptr(views), Clicks: ptr(clicks), Conversions: ptr(conversions)}, nil
	}
}

func failing(kind ErrorKind) func() (model.PlatformMetrics, error) {
	return func() (model.PlatformMetrics, error) {
		return model.PlatformMetrics{}, NewCallError(kind, eris.New("boom"))
	}
}

func newTestFetcher(t *testing.T, adapter Adapter, breakerCfg resilience.BreakerConfig) (*Fetcher, *resilience.Breakers) {
	t.Helper()
	r := NewRegistry()
	r.Register(adapter)
	breakers := resilience.NewBreakers(breakerCfg)
	f := NewFetcher(r, breakers, FetcherConfig{
		Backoff: resilience.BackoffPolicy{
			Base:        time.Millisecond,
			Factor:      2.0,
			Max:         10 * time.Millisecond,
			MaxAttempts: 3,
		},
		RatePerSecond: 1000,
		Burst:         100,
		CallTimeout:   time.Second,
	})
	f.sleep = func(context.Context, time.Duration) error { return nil }
	return f, breakers
}

func TestFetcher_Success(t *testing.T) {
	t.Parallel()

	adapter := &stubAdapter{name: "youtube", results: []func() (model.PlatformMetrics, error){full(1000, 50, 5)}}
	f, breakers := newTestFetcher(t, adapter, resilience.DefaultBreakerConfig())

	out := f.Fetch(context.Background(), "youtube", "https://youtube.com/watch?v=abc")

	require.True(t, out.Success)
	assert.Equal(t, 1, out.Attempts)
	assert.Empty(t, out.PartialMissing)
	assert.EqualValues(t, 1000, *out.Metrics.Views)
	assert.Equal(t, resilience.CircuitClosed, breakers.State("youtube"))
}

func TestFetcher_PartialSuccess(t *testing.T) {
	t.Parallel()

	adapter := &stubAdapter{name: "reddit", results: []func() (model.PlatformMetrics, error){
		func() (model.PlatformMetrics, error) {
			return model.PlatformMetrics{Views: ptr(500), Clicks: ptr(20)}, nil
		},
	}}
	f, _ := newTestFetcher(t, adapter, resilience.DefaultBreakerConfig())

	out := f.Fetch(context.Background(), "reddit", "https://reddit.com/r/x/1")

	require.True(t, out.Success)
	assert.Equal(t, []string{"conversions"}, out.PartialMissing)
}

func TestFetcher_RetriesTransientThenSucceeds(t *testing.T) {
	t.Parallel()

	adapter := &stubAdapter{name: "tiktok", results: []func() (model.PlatformMetrics, error){
		failing(ErrorKindTimeout),
		failing(ErrorKindRateLimited),
		full(100, 5, 1),
	}}
	f, _ := newTestFetcher(t, adapter, resilience.DefaultBreakerConfig())

	out := f.Fetch(context.Background(), "tiktok", "https://tiktok.com/@a/video/1")

	require.True(t, out.Success)
	assert.Equal(t, 3, out.Attempts)
	assert.Equal(t, 3, adapter.calls)
}

func TestFetcher_ExhaustsAttempts(t *testing.T) {
	t.Parallel()

	adapter := &stubAdapter{name: "instagram", results: []func() (model.PlatformMetrics, error){
		failing(ErrorKindRateLimited),
	}}
	f, _ := newTestFetcher(t, adapter, resilience.DefaultBreakerConfig())

	out := f.Fetch(context.Background(), "instagram", "https://instagram.com/p/1")

	require.False(t, out.Success)
	assert.Equal(t, 3, out.Attempts)
	assert.True(t, out.RateLimited)
	assert.Equal(t, ErrorKindRateLimited, out.ErrorKind)
	assert.Error(t, out.Err)
}

func TestFetcher_AuthErrorIsTerminal(t *testing.T) {
	t.Parallel()

	adapter := &stubAdapter{name: "youtube", results: []func() (model.PlatformMetrics, error){
		failing(ErrorKindAuthError),
	}}
	f, _ := newTestFetcher(t, adapter, resilience.DefaultBreakerConfig())

	out := f.Fetch(context.Background(), "youtube", "https://youtube.com/watch?v=x")

	require.False(t, out.Success)
	assert.Equal(t, 1, out.Attempts)
	assert.Equal(t, 1, adapter.calls)
	assert.Equal(t, ErrorKindAuthError, out.ErrorKind)
}

func TestFetcher_CircuitOpenSkipsCall(t *testing.T) {
	t.Parallel()

	adapter := &stubAdapter{name: "reddit", results: []func() (model.PlatformMetrics, error){
		failing(ErrorKindFetchError),
	}}
	f, breakers := newTestFetcher(t, adapter, resilience.BreakerConfig{
		FailureThreshold: 3,
		OpenCooldown:     time.Hour,
		HalfOpenProbes:   1,
	})

	// One fetch burns all three attempts and trips the breaker.
	out := f.Fetch(context.Background(), "reddit", "https://reddit.com/r/x/1")
	require.False(t, out.Success)
	require.Equal(t, resilience.CircuitOpen, breakers.State("reddit"))

	calls := adapter.calls
	out = f.Fetch(context.Background(), "reddit", "https://reddit.com/r/x/2")

	assert.False(t, out.Success)
	assert.Equal(t, ErrorKindCircuitOpen, out.ErrorKind)
	assert.Equal(t, 0, out.Attempts)
	assert.Equal(t, calls, adapter.calls, "adapter must not be invoked while open")
}

func TestFetcher_UnknownIntegration(t *testing.T) {
	t.Parallel()

	f := NewFetcher(NewRegistry(), resilience.NewBreakers(resilience.DefaultBreakerConfig()), FetcherConfig{})

	out := f.Fetch(context.Background(), "myspace", "https://myspace.com/x")

	assert.False(t, out.Success)
	assert.Equal(t, ErrorKindFetchError, out.ErrorKind)
	assert.ErrorIs(t, out.Err, ErrUnknownIntegration)
}
