package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/P4R1H/affiliate-platform/internal/config"
	"github.com/P4R1H/affiliate-platform/internal/model"
)

func retryConfig() config.RetryPolicyConfig {
	return config.RetryPolicyConfig{
		Missing: config.MissingRetryConfig{
			InitialDelayMinutes: 30,
			MaxAttempts:         5,
			WindowHours:         24,
		},
		Incomplete: config.IncompleteRetryConfig{
			MaxAdditionalAttempts: 1,
		},
	}
}

func TestNextAttempt_MissingData(t *testing.T) {
	t.Parallel()

	cfg := retryConfig()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	submitted := now.Add(-time.Hour)

	// Delay grows linearly with the attempt count.
	at := NextAttempt(model.StatusMissingPlatformData, 1, submitted, now, cfg)
	require.NotNil(t, at)
	assert.Equal(t, now.Add(30*time.Minute), *at)

	at = NextAttempt(model.StatusMissingPlatformData, 3, submitted, now, cfg)
	require.NotNil(t, at)
	assert.Equal(t, now.Add(90*time.Minute), *at)
}

func TestNextAttempt_MissingDataExhausted(t *testing.T) {
	t.Parallel()

	cfg := retryConfig()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	submitted := now.Add(-time.Hour)

	assert.Nil(t, NextAttempt(model.StatusMissingPlatformData, 5, submitted, now, cfg))
	assert.Nil(t, NextAttempt(model.StatusMissingPlatformData, 6, submitted, now, cfg))
}

func TestNextAttempt_MissingDataWindowExpired(t *testing.T) {
	t.Parallel()

	cfg := retryConfig()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	submitted := now.Add(-25 * time.Hour)

	assert.Nil(t, NextAttempt(model.StatusMissingPlatformData, 2, submitted, now, cfg))
}

func TestNextAttempt_IncompleteData(t *testing.T) {
	t.Parallel()

	cfg := retryConfig()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	submitted := now.Add(-time.Hour)

	// One extra attempt at a fixed short delay.
	at := NextAttempt(model.StatusIncompleteData, 1, submitted, now, cfg)
	require.NotNil(t, at)
	assert.Equal(t, now.Add(15*time.Minute), *at)

	at = NextAttempt(model.StatusIncompleteData, 2, submitted, now, cfg)
	require.NotNil(t, at)

	assert.Nil(t, NextAttempt(model.StatusIncompleteData, 3, submitted, now, cfg))
}

func TestNextAttempt_TerminalStatuses(t *testing.T) {
	t.Parallel()

	cfg := retryConfig()
	now := time.Now()

	for _, status := range []model.ReconciliationStatus{
		model.StatusMatched,
		model.StatusDiscrepancyLow,
		model.StatusDiscrepancyMedium,
		model.StatusDiscrepancyHigh,
		model.StatusOverclaimed,
	} {
		assert.Nil(t, NextAttempt(status, 1, now.Add(-time.Hour), now, cfg), "status %s", status)
	}
}
