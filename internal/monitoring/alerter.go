package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/fincal/internal/config"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertLoadFailureRate      AlertType = "load_failure_rate"
	AlertStaleLoad            AlertType = "stale_load"
	AlertUnclassifiedPayments AlertType = "unclassified_payments"
)

// minFinishedLoads is the number of finished loads needed before the failure
// rate is judged. One run writes up to three datasets.
const minFinishedLoads = 3

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Alerter evaluates a MetricsSnapshot against configured thresholds
// and sends alerts via webhook when thresholds are breached.
type Alerter struct {
	cfg    config.MonitoringConfig
	client *http.Client
}

// NewAlerter creates a new Alerter with the given monitoring config.
func NewAlerter(cfg config.MonitoringConfig) *Alerter {
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Evaluate checks the snapshot against thresholds and returns any alerts.
func (a *Alerter) Evaluate(snap *MetricsSnapshot) []Alert {
	var alerts []Alert
	now := snap.CollectedAt
	if now.IsZero() {
		now = time.Now().UTC()
	}

	finished := snap.LoadComplete + snap.LoadFailed
	if finished >= minFinishedLoads && snap.LoadFailRate > a.cfg.FailureRateThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertLoadFailureRate,
			Severity: "high",
			Message: fmt.Sprintf(
				"Load failure rate %.1f%% exceeds threshold %.1f%% (%d failed / %d finished in last %dh)",
				snap.LoadFailRate*100, a.cfg.FailureRateThreshold*100,
				snap.LoadFailed, finished, snap.LookbackHours,
			),
			Details: map[string]any{
				"failure_rate": snap.LoadFailRate,
				"threshold":    a.cfg.FailureRateThreshold,
				"failed":       snap.LoadFailed,
				"finished":     finished,
			},
			Timestamp: now,
		})
	}

	if snap.LoadsCollected && a.cfg.StaleAfterHours > 0 {
		limit := time.Duration(a.cfg.StaleAfterHours) * time.Hour
		if snap.LastCompleteLoad == nil || now.Sub(*snap.LastCompleteLoad) > limit {
			last := "never"
			if snap.LastCompleteLoad != nil {
				last = snap.LastCompleteLoad.UTC().Format(time.RFC3339)
			}
			alerts = append(alerts, Alert{
				Type:      AlertStaleLoad,
				Severity:  "medium",
				Message:   fmt.Sprintf("No complete warehouse load in the last %dh (last: %s)", a.cfg.StaleAfterHours, last),
				Details:   map[string]any{"last_complete_load": last, "stale_after_hours": a.cfg.StaleAfterHours},
				Timestamp: now,
			})
		}
	}

	if a.cfg.UnclassifiedRateThreshold > 0 && snap.PaymentsTotal > 0 &&
		snap.PaymentUnclassifiedRate > a.cfg.UnclassifiedRateThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertUnclassifiedPayments,
			Severity: "medium",
			Message: fmt.Sprintf(
				"%d of %d streamed payments in last %dh have no financial period (%.1f%% > %.1f%%)",
				snap.PaymentsUnclassified, snap.PaymentsTotal, snap.LookbackHours,
				snap.PaymentUnclassifiedRate*100, a.cfg.UnclassifiedRateThreshold*100,
			),
			Details: map[string]any{
				"unclassified": snap.PaymentsUnclassified,
				"total":        snap.PaymentsTotal,
				"rate":         snap.PaymentUnclassifiedRate,
				"threshold":    a.cfg.UnclassifiedRateThreshold,
			},
			Timestamp: now,
		})
	}

	return alerts
}

// SendAlerts delivers alerts to the configured webhook URL.
// Returns the number of alerts successfully sent.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.cfg.WebhookURL == "" || len(alerts) == 0 {
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		if err := a.sendWebhook(ctx, alert); err != nil {
			zap.L().Error("monitoring: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("monitoring: alert sent",
			zap.String("type", string(alert.Type)),
			zap.String("severity", alert.Severity),
		)
		sent++
	}
	return sent
}

func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("monitoring: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
