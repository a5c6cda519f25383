package monitoring

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/fincal/internal/config"
	"github.com/sells-group/fincal/internal/warehouse"
)

func TestChecker_RunStopsOnCancel(t *testing.T) {
	cfg := config.MonitoringConfig{CheckIntervalSecs: 1, LookbackWindowHours: 24, FailureRateThreshold: 0.10}
	checker := NewChecker(NewCollector(&fakeHistory{}, nil), NewAlerter(cfg), cfg)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		checker.Run(ctx)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Checker.Run did not stop after context cancellation")
	}
}

func TestChecker_DefaultInterval(t *testing.T) {
	checker := NewChecker(NewCollector(nil, nil), NewAlerter(config.MonitoringConfig{}), config.MonitoringConfig{})
	assert.NotNil(t, checker)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	checker.Run(ctx)
}

func TestChecker_CheckSendsAlerts(t *testing.T) {
	var received atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		received.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	cfg := config.MonitoringConfig{WebhookURL: ts.URL, LookbackWindowHours: 24, StaleAfterHours: 36}
	collector := fixedCollector(&fakeHistory{entries: []warehouse.LoadEntry{
		{Status: "failed", StartedAt: collectedAt.Add(-time.Hour)},
	}}, nil)
	checker := NewChecker(collector, NewAlerter(cfg), cfg)

	alerts, err := checker.Check(context.Background())
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertStaleLoad, alerts[0].Type)
	assert.Equal(t, int32(1), received.Load())
}

func TestChecker_CheckNoAlerts(t *testing.T) {
	cfg := config.MonitoringConfig{LookbackWindowHours: 24}
	checker := NewChecker(fixedCollector(nil, nil), NewAlerter(cfg), cfg)

	alerts, err := checker.Check(context.Background())
	require.NoError(t, err)
	assert.Empty(t, alerts)
}
