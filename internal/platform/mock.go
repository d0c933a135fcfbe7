package platform

import (
	"context"
	"hash/fnv"
	"math/rand/v2"
	"time"

	"github.com/rotisserie/eris"

	"github.com/P4R1H/affiliate-platform/internal/model"
)

// MockProfile shapes the synthetic metrics one mock integration produces.
type MockProfile struct {
	// BaseViews bounds the uniform views draw.
	BaseViews int64
	// CTR and CVR derive clicks and conversions from views.
	CTR float64
	CVR float64
	// HasConversions is false for platforms that never report conversions.
	HasConversions bool
	// FailureRate injects transient failures (0 disables).
	FailureRate float64
	// Latency simulates the upstream round trip.
	Latency time.Duration
}

// MockAdapter is a deterministic stand-in for a real platform API: the same
// seed and URL always produce the same metrics and the same failure outcome,
// which keeps reconciliation runs reproducible.
type MockAdapter struct {
	name    string
	seed    uint64
	profile MockProfile
}

// NewMockAdapter creates a mock integration with the given profile.
func NewMockAdapter(name string, seed int64, profile MockProfile) *MockAdapter {
	return &MockAdapter{name: name, seed: uint64(seed), profile: profile}
}

func (m *MockAdapter) Name() string { return m.name }

// FetchPostMetrics synthesizes metrics for url.
func (m *MockAdapter) FetchPostMetrics(ctx context.Context, url string) (model.PlatformMetrics, error) {
	if m.profile.Latency > 0 {
		timer := time.NewTimer(m.profile.Latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return model.PlatformMetrics{}, ctx.Err()
		case <-timer.C:
		}
	}

	h := fnv.New64a()
	h.Write([]byte(m.name))
	h.Write([]byte(url))
	rng := rand.New(rand.NewPCG(m.seed, h.Sum64()))

	if m.profile.FailureRate > 0 && rng.Float64() < m.profile.FailureRate {
		switch rng.IntN(3) {
		case 0:
			return model.PlatformMetrics{}, NewCallError(ErrorKindRateLimited, eris.New("mock rate limit"))
		case 1:
			return model.PlatformMetrics{}, NewCallError(ErrorKindTimeout, eris.New("mock timeout"))
		default:
			return model.PlatformMetrics{}, NewCallError(ErrorKindFetchError, eris.New("mock upstream error"))
		}
	}

	base := m.profile.BaseViews
	if base <= 0 {
		base = 10000
	}
	views := 1 + rng.Int64N(base)
	clicks := int64(float64(views) * m.profile.CTR)

	out := model.PlatformMetrics{
		Views:  &views,
		Clicks: &clicks,
	}
	if m.profile.HasConversions {
		conversions := int64(float64(clicks) * m.profile.CVR)
		out.Conversions = &conversions
	}
	return out, nil
}

// DefaultMockProfiles returns the built-in integration set. Reddit and X do
// not report conversions.
func DefaultMockProfiles() map[string]MockProfile {
	return map[string]MockProfile{
		"reddit":    {BaseViews: 50000, CTR: 0.04, CVR: 0.05, HasConversions: false},
		"youtube":   {BaseViews: 200000, CTR: 0.05, CVR: 0.04, HasConversions: true},
		"instagram": {BaseViews: 80000, CTR: 0.03, CVR: 0.06, HasConversions: true},
		"tiktok":    {BaseViews: 300000, CTR: 0.02, CVR: 0.03, HasConversions: true},
		"x":         {BaseViews: 40000, CTR: 0.03, CVR: 0.05, HasConversions: false},
	}
}

// DefaultRegistry builds a registry with the built-in mock integrations.
func DefaultRegistry(seed int64, failureRate float64) *Registry {
	r := NewRegistry()
	for name, profile := range DefaultMockProfiles() {
		profile.FailureRate = failureRate
		r.Register(NewMockAdapter(name, seed, profile))
	}
	return r
}
