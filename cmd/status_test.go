package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/P4R1H/affiliate-platform/internal/model"
	"github.com/P4R1H/affiliate-platform/internal/store"
)

func TestFormatStatus(t *testing.T) {
	counts := store.StatusCounts{
		model.StatusMatched:             12,
		model.StatusOverclaimed:         2,
		model.StatusMissingPlatformData: 3,
	}
	alerts := []model.Alert{
		{
			Type: model.AlertHighDiscrepancy, Category: model.CategoryFraud,
			Severity: model.SeverityCritical, AffiliateID: "aff-1",
			CreatedAt: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	formatStatus(&buf, counts, alerts)
	out := buf.String()

	assert.Contains(t, out, "MATCHED")
	assert.Contains(t, out, "12")
	assert.Contains(t, out, "AFFILIATE_OVERCLAIMED")
	assert.Contains(t, out, "HIGH_DISCREPANCY")
	assert.Contains(t, out, "FRAUD")
	assert.Contains(t, out, "2026-03-01 09:30")
}

func TestFormatStatusNoAlerts(t *testing.T) {
	var buf bytes.Buffer
	formatStatus(&buf, store.StatusCounts{model.StatusPending: 1}, nil)

	assert.Contains(t, buf.String(), "PENDING")
	assert.NotContains(t, buf.String(), "ALERT")
}
