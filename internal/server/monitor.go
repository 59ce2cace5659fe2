package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/nerdintosubs/hiring-agent/internal/types"
)

// DefaultMonitorInterval is how often delivery state is sampled.
const DefaultMonitorInterval = 30 * time.Second

// DeliveryLister is the store read the monitor needs.
type DeliveryLister interface {
	ListWebhookDeliveries(status types.WebhookStatus) []types.WebhookDelivery
}

// DeliveryMonitor samples webhook delivery state into the metrics gauges and
// warns about retries that are past due.
type DeliveryMonitor struct {
	store    DeliveryLister
	metrics  *Metrics
	logger   *slog.Logger
	interval time.Duration
	now      func() time.Time
}

// MonitorReport is one sample of delivery state.
type MonitorReport struct {
	Counts  map[types.WebhookStatus]int
	Overdue []types.WebhookDelivery
}

// NewDeliveryMonitor creates a monitor. A non-positive interval uses the default.
func NewDeliveryMonitor(store DeliveryLister, metrics *Metrics, logger *slog.Logger, interval time.Duration) *DeliveryMonitor {
	if interval <= 0 {
		interval = DefaultMonitorInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DeliveryMonitor{
		store:    store,
		metrics:  metrics,
		logger:   logger,
		interval: interval,
		now:      time.Now,
	}
}

// Run samples immediately and then on every tick until ctx is done.
func (m *DeliveryMonitor) Run(ctx context.Context) error {
	m.Check()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Check()
		}
	}
}

// Check takes one sample, updates the gauges and logs overdue retries.
func (m *DeliveryMonitor) Check() MonitorReport {
	now := m.now()
	report := MonitorReport{Counts: make(map[types.WebhookStatus]int)}
	for _, d := range m.store.ListWebhookDeliveries("") {
		report.Counts[d.Status]++
		if d.Status == types.WebhookRetryPending && d.NextRetry != nil && d.NextRetry.Before(now) {
			report.Overdue = append(report.Overdue, d)
		}
	}

	if m.metrics != nil {
		m.metrics.SetDeliveries(report.Counts, len(report.Overdue))
	}
	for _, d := range report.Overdue {
		m.logger.Warn("webhook retry overdue",
			"key", d.Key,
			"attempts", d.Attempts,
			"next_retry_utc", d.NextRetry.UTC(),
			"last_error", d.LastError)
	}
	return report
}
