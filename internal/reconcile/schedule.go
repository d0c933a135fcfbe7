package reconcile

import (
	"time"

	"github.com/P4R1H/affiliate-platform/internal/config"
	"github.com/P4R1H/affiliate-platform/internal/model"
)

// incompleteRetryDelay is the fixed wait before the single extra attempt
// granted to a partial fetch.
const incompleteRetryDelay = 15 * time.Minute

// NextAttempt decides whether another reconciliation attempt should be
// scheduled and when. A nil return is terminal: the post is marked
// reconciled and no further automatic attempt happens.
//
// Missing platform data retries on a linearly growing delay until the
// attempt budget or the retry window runs out. Incomplete data gets a
// bounded number of short-delay extra attempts. Every other status is
// terminal by definition.
func NextAttempt(status model.ReconciliationStatus, attemptCount int, submittedAt, now time.Time, cfg config.RetryPolicyConfig) *time.Time {
	switch status {
	case model.StatusMissingPlatformData:
		if attemptCount >= cfg.Missing.MaxAttempts {
			return nil
		}
		if now.Sub(submittedAt).Hours() > cfg.Missing.WindowHours {
			return nil
		}
		mult := attemptCount
		if mult < 1 {
			mult = 1
		}
		at := now.Add(time.Duration(cfg.Missing.InitialDelayMinutes*mult) * time.Minute)
		return &at

	case model.StatusIncompleteData:
		if attemptCount <= 1+cfg.Incomplete.MaxAdditionalAttempts {
			at := now.Add(incompleteRetryDelay)
			return &at
		}
		return nil
	}
	return nil
}
