package monitoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/fincal/internal/fiscal"
	"github.com/sells-group/fincal/internal/model"
	"github.com/sells-group/fincal/internal/store"
	"github.com/sells-group/fincal/internal/warehouse"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type fakeHistory struct {
	entries []warehouse.LoadEntry
	err     error
}

func (f *fakeHistory) Recent(_ context.Context, limit int) ([]warehouse.LoadEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.entries) > limit {
		return f.entries[:limit], nil
	}
	return f.entries, nil
}

type fakePayments struct {
	events []model.PaymentEvent
	err    error
}

func (f *fakePayments) ListPayments(_ context.Context, _ store.PaymentFilter) ([]model.PaymentEvent, error) {
	return f.events, f.err
}

func fixedCollector(h LoadHistory, p PaymentLister) *Collector {
	c := NewCollector(h, p)
	c.now = func() time.Time { return collectedAt }
	return c
}

func TestCollector_Loads(t *testing.T) {
	ago := func(h int) time.Time { return collectedAt.Add(-time.Duration(h) * time.Hour) }
	done := func(h int) *time.Time { ts := ago(h); return &ts }

	h := &fakeHistory{entries: []warehouse.LoadEntry{
		{Status: "running", StartedAt: ago(1)},
		{Status: "complete", StartedAt: ago(3), CompletedAt: done(2), Metadata: map[string]any{"unclassified": float64(4)}},
		{Status: "failed", StartedAt: ago(5)},
		{Status: "complete", StartedAt: ago(6), CompletedAt: done(6), Metadata: map[string]any{"unclassified": float64(1)}},
		{Status: "complete", StartedAt: ago(50), CompletedAt: done(49)},
	}}

	snap, err := fixedCollector(h, nil).Collect(context.Background(), 24)
	require.NoError(t, err)

	assert.True(t, snap.LoadsCollected)
	assert.False(t, snap.PaymentsCollected)
	assert.Equal(t, 4, snap.LoadTotal)
	assert.Equal(t, 2, snap.LoadComplete)
	assert.Equal(t, 1, snap.LoadFailed)
	assert.Equal(t, 1, snap.LoadRunning)
	assert.InDelta(t, 1.0/3.0, snap.LoadFailRate, 1e-9)
	assert.Equal(t, 5, snap.FactsUnclassified)
	require.NotNil(t, snap.LastCompleteLoad)
	assert.Equal(t, ago(2), *snap.LastCompleteLoad)
	assert.Equal(t, collectedAt, snap.CollectedAt)
}

func TestCollector_Payments(t *testing.T) {
	known := fiscal.Resolve(fiscal.NewDate(2025, time.March, 1))
	p := &fakePayments{events: []model.PaymentEvent{
		{PaymentID: "a", Fiscal: known, ProcessedAt: collectedAt.Add(-time.Hour)},
		{PaymentID: "b", Fiscal: fiscal.Unknown, ProcessedAt: collectedAt.Add(-2 * time.Hour)},
		{PaymentID: "c", Fiscal: known, ProcessedAt: collectedAt.Add(-3 * time.Hour)},
		{PaymentID: "d", Fiscal: fiscal.Unknown, ProcessedAt: collectedAt.Add(-48 * time.Hour)},
	}}

	snap, err := fixedCollector(nil, p).Collect(context.Background(), 24)
	require.NoError(t, err)

	assert.True(t, snap.PaymentsCollected)
	assert.Equal(t, 3, snap.PaymentsTotal)
	assert.Equal(t, 1, snap.PaymentsUnclassified)
	assert.InDelta(t, 1.0/3.0, snap.PaymentUnclassifiedRate, 1e-9)
	assert.Zero(t, snap.LoadTotal)
}

func TestCollector_Errors(t *testing.T) {
	_, err := fixedCollector(&fakeHistory{err: errors.New("db down")}, nil).Collect(context.Background(), 24)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list loads")

	_, err = fixedCollector(nil, &fakePayments{err: errors.New("db down")}).Collect(context.Background(), 24)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list payments")
}

func TestMetaInt(t *testing.T) {
	assert.Equal(t, 3, metaInt(map[string]any{"n": float64(3)}, "n"))
	assert.Equal(t, 3, metaInt(map[string]any{"n": 3}, "n"))
	assert.Equal(t, 3, metaInt(map[string]any{"n": int64(3)}, "n"))
	assert.Equal(t, 0, metaInt(map[string]any{"n": "3"}, "n"))
	assert.Equal(t, 0, metaInt(nil, "n"))
}
