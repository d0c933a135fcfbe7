package platform

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockAdapter_Deterministic(t *testing.T) {
	t.Parallel()

	a := NewMockAdapter("youtube", 42, MockProfile{BaseViews: 100000, CTR: 0.05, CVR: 0.04, HasConversions: true})
	b := NewMockAdapter("youtube", 42, MockProfile{BaseViews: 100000, CTR: 0.05, CVR: 0.04, HasConversions: true})

	url := "https://youtube.com/watch?v=abc"
	m1, err := a.FetchPostMetrics(context.Background(), url)
	require.NoError(t, err)
	m2, err := b.FetchPostMetrics(context.Background(), url)
	require.NoError(t, err)

	assert.Equal(t, *m1.Views, *m2.Views)
	assert.Equal(t, *m1.Clicks, *m2.Clicks)
	assert.Equal(t, *m1.Conversions, *m2.Conversions)
}

func TestMockAdapter_SeedChangesOutput(t *testing.T) {
	t.Parallel()

	url := "https://youtube.com/watch?v=abc"
	a := NewMockAdapter("youtube", 1, MockProfile{BaseViews: 1_000_000})
	b := NewMockAdapter("youtube", 2, MockProfile{BaseViews: 1_000_000})

	m1, err := a.FetchPostMetrics(context.Background(), url)
	require.NoError(t, err)
	m2, err := b.FetchPostMetrics(context.Background(), url)
	require.NoError(t, err)

	assert.NotEqual(t, *m1.Views, *m2.Views)
}

func TestMockAdapter_NoConversions(t *testing.T) {
	t.Parallel()

	a := NewMockAdapter("reddit", 7, MockProfile{BaseViews: 50000, CTR: 0.04})

	m, err := a.FetchPostMetrics(context.Background(), "https://reddit.com/r/x/1")
	require.NoError(t, err)

	assert.NotNil(t, m.Views)
	assert.NotNil(t, m.Clicks)
	assert.Nil(t, m.Conversions)
	assert.Equal(t, []string{"conversions"}, m.Missing())
}

func TestMockAdapter_FailureInjection(t *testing.T) {
	t.Parallel()

	a := NewMockAdapter("tiktok", 3, MockProfile{BaseViews: 1000, FailureRate: 1.0})

	_, err := a.FetchPostMetrics(context.Background(), "https://tiktok.com/@a/video/1")
	require.Error(t, err)
	assert.True(t, KindOf(err).Retryable())
}

func TestDefaultRegistry(t *testing.T) {
	t.Parallel()

	r := DefaultRegistry(1, 0)

	assert.Equal(t, []string{"instagram", "reddit", "tiktok", "x", "youtube"}, r.Names())

	a, err := r.Get("youtube")
	require.NoError(t, err)
	assert.Equal(t, "youtube", a.Name())

	_, err = r.Get("myspace")
	assert.ErrorIs(t, err, ErrUnknownIntegration)
}

func TestLoadManifest(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "integrations.yaml")
	content := `integrations:
  - name: youtube
    kind: mock
    base_views: 200000
    ctr: 0.05
    cvr: 0.04
    has_conversions: true
  - name: reddit
    base_views: 50000
    ctr: 0.04
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	m, err := LoadManifest(path)
	require.NoError(t, err)
	require.Len(t, m.Integrations, 2)

	r := m.BuildRegistry(42)
	assert.Equal(t, []string{"reddit", "youtube"}, r.Names())
}

func TestLoadManifest_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{"empty", "integrations: []"},
		{"unnamed", "integrations:\n  - kind: mock"},
		{"duplicate", "integrations:\n  - name: reddit\n  - name: reddit"},
		{"bad kind", "integrations:\n  - name: reddit\n    kind: http"},
		{"bad failure rate", "integrations:\n  - name: reddit\n    failure_rate: 1.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "m.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := LoadManifest(path)
			assert.Error(t, err)
		})
	}
}
