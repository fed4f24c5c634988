package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/andrescamacho/warehouse-go/internal/application/dock"
	"github.com/andrescamacho/warehouse-go/internal/domain/warehouse"
)

// WarehouseMetricsCollector records dock activity and samples queue and storage gauges
type WarehouseMetricsCollector struct {
	// Dependencies
	getStats func() dock.Stats

	// Service metrics
	trucksServiced  *prometheus.CounterVec
	blocksMoved     *prometheus.CounterVec
	serviceDuration *prometheus.HistogramVec

	// Sampled gauges
	queueDepth       *prometheus.GaugeVec
	storageLength    *prometheus.GaugeVec
	storageCursor    *prometheus.GaugeVec
	storageAvailable *prometheus.GaugeVec

	// Lifecycle
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	mu         sync.Mutex
}

// NewWarehouseMetricsCollector creates a collector; getStats is sampled for gauges
func NewWarehouseMetricsCollector(getStats func() dock.Stats) *WarehouseMetricsCollector {
	return &WarehouseMetricsCollector{
		getStats: getStats,

		trucksServiced: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "trucks_serviced_total",
				Help:      "Total number of trucks released by the worker, by transfer kind and outcome",
			},
			[]string{"warehouse", "kind", "outcome"},
		),

		blocksMoved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "blocks_moved_total",
				Help:      "Total number of blocks moved across the dock, by transfer kind",
			},
			[]string{"warehouse", "kind"},
		),

		serviceDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "service_duration_seconds",
				Help:      "Time a truck spent at the dock",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"warehouse", "kind"},
		),

		queueDepth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "queue_depth",
				Help:      "Trucks waiting in the hand-off queue",
			},
			[]string{"warehouse"},
		),

		storageLength: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "storage_length",
				Help:      "Raw length of the storage sequence, dispatched blocks included",
			},
			[]string{"warehouse"},
		),

		storageCursor: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "storage_cursor",
				Help:      "Index of the next block to be loaded",
			},
			[]string{"warehouse"},
		),

		storageAvailable: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "storage_available",
				Help:      "Blocks available past the cursor",
			},
			[]string{"warehouse"},
		),
	}
}

// Register registers all metrics with the given registry
func (c *WarehouseMetricsCollector) Register(registry *prometheus.Registry) error {
	collectors := []prometheus.Collector{
		c.trucksServiced,
		c.blocksMoved,
		c.serviceDuration,
		c.queueDepth,
		c.storageLength,
		c.storageCursor,
		c.storageAvailable,
	}
	for _, collector := range collectors {
		if err := registry.Register(collector); err != nil {
			return err
		}
	}
	return nil
}

// Start begins sampling gauges every interval until Stop is called
func (c *WarehouseMetricsCollector) Start(ctx context.Context, interval time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancelFunc != nil {
		return
	}

	c.ctx, c.cancelFunc = context.WithCancel(ctx)
	c.wg.Add(1)
	go c.pollLoop(c.ctx, interval)
}

// Stop halts gauge sampling and waits for the sampler to exit
func (c *WarehouseMetricsCollector) Stop() {
	c.mu.Lock()
	cancel := c.cancelFunc
	c.cancelFunc = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		c.wg.Wait()
	}
}

func (c *WarehouseMetricsCollector) pollLoop(ctx context.Context, interval time.Duration) {
	defer c.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.Sample()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Sample()
		}
	}
}

// Sample reads current warehouse stats into the gauges
func (c *WarehouseMetricsCollector) Sample() {
	if c.getStats == nil {
		return
	}
	stats := c.getStats()

	c.queueDepth.WithLabelValues(stats.Name).Set(float64(stats.QueueDepth))
	c.storageLength.WithLabelValues(stats.Name).Set(float64(stats.Storage.Length))
	c.storageCursor.WithLabelValues(stats.Name).Set(float64(stats.Storage.Cursor))
	c.storageAvailable.WithLabelValues(stats.Name).Set(float64(stats.Storage.Available))
}

// RecordService implements warehouse.ServiceRecorder
func (c *WarehouseMetricsCollector) RecordService(_ context.Context, record warehouse.ServiceRecord) {
	kind := string(record.Kind)

	outcome := "success"
	if !record.Succeeded() {
		outcome = "failed"
	} else if record.Interrupted {
		outcome = "interrupted"
	}

	c.trucksServiced.WithLabelValues(record.Warehouse, kind, outcome).Inc()
	c.blocksMoved.WithLabelValues(record.Warehouse, kind).Add(float64(record.Blocks))
	c.serviceDuration.WithLabelValues(record.Warehouse, kind).Observe(record.Duration().Seconds())
}

var _ warehouse.ServiceRecorder = (*WarehouseMetricsCollector)(nil)
