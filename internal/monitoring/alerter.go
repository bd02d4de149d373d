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

	"github.com/worldnewsmap/newsgeo/internal/config"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertCoordinateFailureRate AlertType = "coordinate_failure_rate"
	AlertStalledBacklog        AlertType = "stalled_backlog"
	AlertUnreadableRecords     AlertType = "unreadable_records"
)

// minFinished is the number of finished records below which the failure
// rate is not evaluated.
const minFinished = 5

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Alerter evaluates a Snapshot against configured thresholds
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
func (a *Alerter) Evaluate(snap *Snapshot) []Alert {
	var alerts []Alert
	now := time.Now().UTC()

	if snap.Finished >= minFinished && snap.FailRate > a.cfg.FailureRateThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertCoordinateFailureRate,
			Severity: "high",
			Message: fmt.Sprintf(
				"Coordinate failure rate %.1f%% exceeds threshold %.1f%% (%d failed / %d finished in last %dd)",
				snap.FailRate*100, a.cfg.FailureRateThreshold*100,
				snap.Failed, snap.Finished, snap.LookbackDays,
			),
			Details: map[string]any{
				"failure_rate": snap.FailRate,
				"threshold":    a.cfg.FailureRateThreshold,
				"failed":       snap.Failed,
				"finished":     snap.Finished,
			},
			Timestamp: now,
		})
	}

	if snap.Pending > 0 && snap.Finished == 0 {
		alerts = append(alerts, Alert{
			Type:     AlertStalledBacklog,
			Severity: "medium",
			Message: fmt.Sprintf(
				"%d record(s) waiting for a coordinate and none resolved in last %dd",
				snap.Pending, snap.LookbackDays,
			),
			Details: map[string]any{
				"pending": snap.Pending,
				"total":   snap.Total,
			},
			Timestamp: now,
		})
	}

	if len(snap.Unreadable) > 0 {
		alerts = append(alerts, Alert{
			Type:     AlertUnreadableRecords,
			Severity: "medium",
			Message:  fmt.Sprintf("%d record file(s) could not be read", len(snap.Unreadable)),
			Details: map[string]any{
				"dates": snap.Unreadable,
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
