package dock_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/warehouse-go/internal/application/dock"
	"github.com/andrescamacho/warehouse-go/internal/domain/shared"
	"github.com/andrescamacho/warehouse-go/internal/domain/warehouse"
)

// recordingRecorder captures service records in completion order
type recordingRecorder struct {
	mu      sync.Mutex
	records []warehouse.ServiceRecord
}

func (r *recordingRecorder) RecordService(_ context.Context, record warehouse.ServiceRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
}

func (r *recordingRecorder) Records() []warehouse.ServiceRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]warehouse.ServiceRecord, len(r.records))
	copy(out, r.records)
	return out
}

func (r *recordingRecorder) TruckNames() []string {
	records := r.Records()
	names := make([]string, len(records))
	for i, rec := range records {
		names[i] = rec.TruckName
	}
	return names
}

// gateClock sleeps for real on short waits and parks long waits until ctx ends,
// signalling started the first time it does so
type gateClock struct {
	shared.RealClock
	threshold time.Duration
	once      sync.Once
	started   chan struct{}
}

func newGateClock(threshold time.Duration) *gateClock {
	return &gateClock{threshold: threshold, started: make(chan struct{})}
}

func (c *gateClock) Sleep(ctx context.Context, d time.Duration) error {
	if d < c.threshold {
		return c.RealClock.Sleep(ctx, d)
	}
	c.once.Do(func() { close(c.started) })
	<-ctx.Done()
	return ctx.Err()
}

func newTestWarehouse(t *testing.T, initial int, opts ...dock.Option) *dock.Warehouse {
	t.Helper()
	base := []dock.Option{
		dock.WithInitialStorage(warehouse.NewBlocks(initial)),
		dock.WithPollInterval(time.Millisecond),
		dock.WithBlockLatency(0),
	}
	wh, err := dock.NewWarehouse("test-warehouse", append(base, opts...)...)
	require.NoError(t, err)
	return wh
}

// startWorker runs the worker until the test ends or the returned cancel is called
func startWorker(t *testing.T, wh *dock.Warehouse) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- wh.Run(ctx) }()

	t.Cleanup(cancel)
	return cancel, done
}

func arriveAsync(ctx context.Context, wh *dock.Warehouse, truck *warehouse.Truck) <-chan error {
	result := make(chan error, 1)
	go func() { result <- wh.Arrive(ctx, truck) }()
	return result
}

func mustTruck(t *testing.T, name string, capacity int) *warehouse.Truck {
	t.Helper()
	truck, err := warehouse.NewTruck(name, capacity)
	require.NoError(t, err)
	return truck
}
