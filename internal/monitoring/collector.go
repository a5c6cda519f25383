// Package monitoring watches warehouse loads and the payment stream and raises
// alerts when they degrade.
package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/fincal/internal/model"
	"github.com/sells-group/fincal/internal/store"
	"github.com/sells-group/fincal/internal/warehouse"
)

// MetricsSnapshot holds a point-in-time view of load and stream health.
type MetricsSnapshot struct {
	// Warehouse loads within the lookback window.
	LoadTotal         int        `json:"load_total"`
	LoadComplete      int        `json:"load_complete"`
	LoadFailed        int        `json:"load_failed"`
	LoadRunning       int        `json:"load_running"`
	LoadFailRate      float64    `json:"load_fail_rate"`
	FactsUnclassified int        `json:"facts_unclassified"`
	LastCompleteLoad  *time.Time `json:"last_complete_load,omitempty"`

	// Streamed payments within the lookback window.
	PaymentsTotal           int     `json:"payments_total"`
	PaymentsUnclassified    int     `json:"payments_unclassified"`
	PaymentUnclassifiedRate float64 `json:"payment_unclassified_rate"`

	LoadsCollected    bool      `json:"-"`
	PaymentsCollected bool      `json:"-"`
	LookbackHours     int       `json:"lookback_hours"`
	CollectedAt       time.Time `json:"collected_at"`
}

// LoadHistory lists recent load log entries, newest first.
type LoadHistory interface {
	Recent(ctx context.Context, limit int) ([]warehouse.LoadEntry, error)
}

// PaymentLister lists streamed payments, newest first.
type PaymentLister interface {
	ListPayments(ctx context.Context, filter store.PaymentFilter) ([]model.PaymentEvent, error)
}

const (
	historyLimit = 1000
	paymentLimit = 10000
)

// Collector gathers metrics. Either source may be nil.
type Collector struct {
	loads    LoadHistory
	payments PaymentLister
	now      func() time.Time
}

// NewCollector creates a new metrics collector.
func NewCollector(loads LoadHistory, payments PaymentLister) *Collector {
	return &Collector{loads: loads, payments: payments, now: time.Now}
}

// Collect gathers a snapshot of metrics over the given lookback window.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*MetricsSnapshot, error) {
	now := c.now().UTC()
	snap := &MetricsSnapshot{
		LookbackHours: lookbackHours,
		CollectedAt:   now,
	}
	cutoff := now.Add(-time.Duration(lookbackHours) * time.Hour)

	if c.loads != nil {
		entries, err := c.loads.Recent(ctx, historyLimit)
		if err != nil {
			return nil, eris.Wrap(err, "monitoring: list loads")
		}
		snap.LoadsCollected = true
		for _, e := range entries {
			if e.Status == "complete" && e.CompletedAt != nil &&
				(snap.LastCompleteLoad == nil || e.CompletedAt.After(*snap.LastCompleteLoad)) {
				done := *e.CompletedAt
				snap.LastCompleteLoad = &done
			}
			if e.StartedAt.Before(cutoff) {
				continue
			}
			snap.LoadTotal++
			switch e.Status {
			case "complete":
				snap.LoadComplete++
				snap.FactsUnclassified += metaInt(e.Metadata, "unclassified")
			case "failed":
				snap.LoadFailed++
			case "running":
				snap.LoadRunning++
			}
		}
		if finished := snap.LoadComplete + snap.LoadFailed; finished > 0 {
			snap.LoadFailRate = float64(snap.LoadFailed) / float64(finished)
		}
	}

	if c.payments != nil {
		events, err := c.payments.ListPayments(ctx, store.PaymentFilter{Limit: paymentLimit})
		if err != nil {
			return nil, eris.Wrap(err, "monitoring: list payments")
		}
		snap.PaymentsCollected = true
		for _, ev := range events {
			if ev.ProcessedAt.Before(cutoff) {
				continue
			}
			snap.PaymentsTotal++
			if ev.Fiscal.IsUnknown() {
				snap.PaymentsUnclassified++
			}
		}
		if snap.PaymentsTotal > 0 {
			snap.PaymentUnclassifiedRate = float64(snap.PaymentsUnclassified) / float64(snap.PaymentsTotal)
		}
	}

	return snap, nil
}

// metaInt reads a count from load metadata, which arrives as float64 after a
// JSON round trip.
func metaInt(meta map[string]any, key string) int {
	switch v := meta[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}
