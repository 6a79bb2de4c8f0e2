// Package metrics is a fire-and-forget telemetry queue. Measurements are
// batched and posted to the backend collector; failures never surface to
// the code being measured.
package metrics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Metric is one named measurement with optional dimensions.
type Metric struct {
	Name       string            `json:"-"`
	Value      float64           `json:"value"`
	Dimensions map[string]string `json:"dimensions,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
	Unit       string            `json:"unit"`
}

type BatcherConfig struct {
	Endpoint      string        // full URL of the metrics collector
	Source        string        // source dimension attached to every batch
	FlushInterval time.Duration // background flush period
	BatchSize     int           // max metrics per POST; reaching it flushes immediately
	QueueCap      int           // soft cap on queued metrics; overflow drops oldest
	Timeout       time.Duration // HTTP request timeout
}

func DefaultBatcherConfig() BatcherConfig {
	return BatcherConfig{
		Source:        "voiceinsight-cli",
		FlushInterval: 30 * time.Second,
		BatchSize:     10,
		QueueCap:      100,
		Timeout:       10 * time.Second,
	}
}

// Batcher queues measurements and flushes them on a timer, or immediately
// once a full batch accumulates. Delivery is best-effort: failed batches
// are re-queued once if there is room, otherwise dropped.
type Batcher struct {
	config     BatcherConfig
	httpClient *http.Client
	logger     *zap.Logger

	mu    sync.Mutex
	queue []Metric

	flushCh chan struct{}
	done    chan struct{}
	wg      sync.WaitGroup
}

func NewBatcher(cfg BatcherConfig, logger *zap.Logger) *Batcher {
	defaults := DefaultBatcherConfig()
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = defaults.FlushInterval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaults.BatchSize
	}
	if cfg.QueueCap <= 0 {
		cfg.QueueCap = defaults.QueueCap
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.Source == "" {
		cfg.Source = defaults.Source
	}

	b := &Batcher{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
		flushCh:    make(chan struct{}, 1),
		done:       make(chan struct{}),
	}

	b.wg.Add(1)
	go b.run()
	return b
}

// Record queues one measurement. It never blocks and never fails; when the
// queue is full the oldest entries are dropped.
func (b *Batcher) Record(name string, value float64, dimensions map[string]string, unit string) {
	if unit == "" {
		unit = "Count"
	}
	metric := Metric{
		Name:       name,
		Value:      value,
		Dimensions: dimensions,
		Timestamp:  time.Now(),
		Unit:       unit,
	}

	b.mu.Lock()
	b.queue = append(b.queue, metric)
	if len(b.queue) > b.config.QueueCap {
		b.queue = b.queue[len(b.queue)-b.config.QueueCap:]
	}
	full := len(b.queue) >= b.config.BatchSize
	b.mu.Unlock()

	if full {
		b.requestFlush()
	}
}

// Count records a unit-count metric.
func (b *Batcher) Count(name string, dimensions map[string]string) {
	b.Record(name, 1, dimensions, "Count")
}

// Timing records a duration in milliseconds.
func (b *Batcher) Timing(name string, d time.Duration, dimensions map[string]string) {
	b.Record(name, float64(d.Milliseconds()), dimensions, "Milliseconds")
}

// Close stops the background timer and drains the queue best-effort.
func (b *Batcher) Close() {
	close(b.done)
	b.wg.Wait()

	for b.flushOnce() {
	}
}

func (b *Batcher) requestFlush() {
	select {
	case b.flushCh <- struct{}{}:
	default:
	}
}

func (b *Batcher) run() {
	defer b.wg.Done()

	ticker := time.NewTicker(b.config.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.flushOnce()
		case <-b.flushCh:
			b.flushOnce()
		case <-b.done:
			return
		}
	}
}

// flushOnce sends up to one batch. Returns true only when a batch was
// delivered, so that the drain loop in Close terminates when the collector
// is down.
func (b *Batcher) flushOnce() bool {
	b.mu.Lock()
	if len(b.queue) == 0 {
		b.mu.Unlock()
		return false
	}
	n := b.config.BatchSize
	if n > len(b.queue) {
		n = len(b.queue)
	}
	batch := make([]Metric, n)
	copy(batch, b.queue[:n])
	b.queue = b.queue[n:]
	b.mu.Unlock()

	if err := b.send(batch); err != nil {
		b.logger.Debug("Metrics flush failed", zap.Error(err), zap.Int("batch", len(batch)))
		b.requeue(batch)
		return false
	}
	return true
}

// requeue puts a failed batch back at the front, dropping it instead if the
// queue no longer has room.
func (b *Batcher) requeue(batch []Metric) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(batch)+len(b.queue) > b.config.QueueCap {
		return
	}
	b.queue = append(batch, b.queue...)
}

func (b *Batcher) send(batch []Metric) error {
	if b.config.Endpoint == "" {
		return nil
	}

	payload := struct {
		Metrics   map[string]Metric `json:"metrics"`
		Source    string            `json:"source"`
		Timestamp time.Time         `json:"timestamp"`
	}{
		Metrics:   make(map[string]Metric, len(batch)),
		Source:    b.config.Source,
		Timestamp: time.Now(),
	}
	for _, m := range batch {
		payload.Metrics[m.Name] = m
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode metrics: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.config.Endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("metrics request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("metrics collector returned %d", resp.StatusCode)
	}
	return nil
}
