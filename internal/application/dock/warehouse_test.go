package dock_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/warehouse-go/internal/application/dock"
	"github.com/andrescamacho/warehouse-go/internal/domain/shared"
	"github.com/andrescamacho/warehouse-go/internal/domain/warehouse"
)

const eventually = 2 * time.Second

func TestNewWarehouse_Validation(t *testing.T) {
	tests := []struct {
		name string
		wh   string
		opts []dock.Option
	}{
		{name: "empty name", wh: ""},
		{name: "zero queue capacity", wh: "w", opts: []dock.Option{dock.WithQueueCapacity(0)}},
		{name: "zero poll interval", wh: "w", opts: []dock.Option{dock.WithPollInterval(0)}},
		{name: "negative latency", wh: "w", opts: []dock.Option{dock.WithBlockLatency(-time.Millisecond)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := dock.NewWarehouse(tt.wh, tt.opts...)
			assert.Error(t, err)
		})
	}
}

func TestNewWarehouse_Defaults(t *testing.T) {
	wh, err := dock.NewWarehouse("main")
	require.NoError(t, err)

	stats := wh.Stats()
	assert.Equal(t, "main", stats.Name)
	assert.Equal(t, dock.StateStopped, stats.State)
	assert.Equal(t, dock.DefaultQueueCapacity, stats.QueueCapacity)
	assert.Zero(t, stats.QueueDepth)
	assert.Zero(t, stats.Storage.Length)
}

func TestWarehouse_LoadShortageUnloadSequence(t *testing.T) {
	// Arrange
	recorder := &recordingRecorder{}
	wh := newTestWarehouse(t, 5, dock.WithServiceRecorder(recorder))
	startWorker(t, wh)
	ctx := context.Background()

	t1 := mustTruck(t, "T1", 3)
	t2 := mustTruck(t, "T2", 10)

	// Act: an empty truck is loaded to capacity
	err := wh.Arrive(ctx, t1)

	// Assert
	require.NoError(t, err)
	assert.Len(t, t1.Cargo, 3)
	assert.Equal(t, 3, wh.Storage().Cursor())

	// Act: a load larger than what remains
	err = wh.Arrive(ctx, t2)

	// Assert
	var shortage *warehouse.ErrStorageShortage
	require.True(t, errors.As(err, &shortage), "expected storage shortage, got %v", err)
	assert.Equal(t, 10, shortage.Requested)
	assert.Equal(t, 2, shortage.Available)
	assert.True(t, t2.IsEmpty())
	assert.Equal(t, 3, wh.Storage().Cursor())

	// Act: a loaded truck is unloaded completely
	err = wh.Arrive(ctx, t1)

	// Assert
	require.NoError(t, err)
	assert.True(t, t1.IsEmpty())
	stats := wh.Storage().Stats()
	assert.Equal(t, 8, stats.Length, "returned blocks are appended to the tail")
	assert.Equal(t, 3, stats.Cursor, "unloading never moves the cursor")
	assert.Equal(t, 5, stats.Available)

	records := recorder.Records()
	require.Len(t, records, 3)
	assert.Equal(t, warehouse.TransferLoad, records[0].Kind)
	assert.Equal(t, 3, records[0].Blocks)
	assert.True(t, records[0].Succeeded())
	assert.Equal(t, warehouse.TransferLoad, records[1].Kind)
	assert.False(t, records[1].Succeeded())
	assert.Zero(t, records[1].Blocks)
	assert.Equal(t, warehouse.TransferUnload, records[2].Kind)
	assert.Equal(t, 3, records[2].Blocks)
	assert.Equal(t, 8, records[2].Storage.Length)
}

func TestWarehouse_ArrivalBlocksWhileQueueIsFull(t *testing.T) {
	// Arrange: no worker yet, one queue slot
	wh := newTestWarehouse(t, 10, dock.WithQueueCapacity(1))
	ctx := context.Background()

	first := arriveAsync(ctx, wh, mustTruck(t, "T1", 2))
	require.Eventually(t, func() bool { return wh.QueueDepth() == 1 }, eventually, time.Millisecond)

	// Act
	second := arriveAsync(ctx, wh, mustTruck(t, "T2", 2))

	// Assert: the second arrival cannot get in until the worker drains the slot
	assert.Never(t, func() bool { return len(second) > 0 }, 50*time.Millisecond, 5*time.Millisecond)
	assert.Equal(t, 1, wh.QueueDepth())

	startWorker(t, wh)

	require.NoError(t, <-first)
	require.NoError(t, <-second)
	assert.Equal(t, 4, wh.Storage().Cursor())
}

func TestWarehouse_ArriveInterruptedWhileQueueIsFull(t *testing.T) {
	// Arrange
	wh := newTestWarehouse(t, 10, dock.WithQueueCapacity(1))
	first := arriveAsync(context.Background(), wh, mustTruck(t, "T1", 2))
	require.Eventually(t, func() bool { return wh.QueueDepth() == 1 }, eventually, time.Millisecond)

	t2 := mustTruck(t, "T2", 2)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// Act
	err := wh.Arrive(ctx, t2)

	// Assert
	var interrupted *warehouse.ErrArrivalInterrupted
	require.True(t, errors.As(err, &interrupted), "got %v", err)
	assert.Equal(t, warehouse.ArrivalStageEnqueue, interrupted.Stage)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, t2.IsEmpty())

	// The truck was never queued, so it can arrive again
	startWorker(t, wh)
	require.NoError(t, <-first)
	require.NoError(t, wh.Arrive(context.Background(), t2))
	assert.Len(t, t2.Cargo, 2)
}

func TestWarehouse_ArriveInterruptedWhileWaiting(t *testing.T) {
	// Arrange: the truck is queued but nobody services it yet
	recorder := &recordingRecorder{}
	wh := newTestWarehouse(t, 5, dock.WithServiceRecorder(recorder))
	t1 := mustTruck(t, "T1", 3)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// Act
	err := wh.Arrive(ctx, t1)

	// Assert
	var interrupted *warehouse.ErrArrivalInterrupted
	require.True(t, errors.As(err, &interrupted), "got %v", err)
	assert.Equal(t, warehouse.ArrivalStageWait, interrupted.Stage)

	// The request stays queued and is still serviced once the worker runs
	startWorker(t, wh)
	require.Eventually(t, func() bool { return len(recorder.Records()) == 1 }, eventually, time.Millisecond)
	assert.Equal(t, 3, wh.Storage().Cursor())
}

func TestWarehouse_ServicesInArrivalOrder(t *testing.T) {
	// Arrange: queue trucks one at a time before the worker starts
	recorder := &recordingRecorder{}
	wh := newTestWarehouse(t, 50, dock.WithQueueCapacity(5), dock.WithServiceRecorder(recorder))
	ctx := context.Background()

	var results []<-chan error
	var want []string
	for i := 1; i <= 5; i++ {
		name := fmt.Sprintf("T%d", i)
		want = append(want, name)
		results = append(results, arriveAsync(ctx, wh, mustTruck(t, name, 2)))
		require.Eventually(t, func() bool { return wh.QueueDepth() == i }, eventually, time.Millisecond)
	}

	// Act
	startWorker(t, wh)
	for _, result := range results {
		require.NoError(t, <-result)
	}

	// Assert
	assert.Equal(t, want, recorder.TruckNames())
}

func TestWarehouse_ManyConcurrentTrucksAllReleased(t *testing.T) {
	// Arrange
	const (
		trucks   = 20
		rounds   = 25
		capacity = 3
		initial  = 100
	)
	wh := newTestWarehouse(t, initial, dock.WithQueueCapacity(4))
	startWorker(t, wh)

	fleet := make([]*warehouse.Truck, trucks)
	for i := range fleet {
		fleet[i] = mustTruck(t, fmt.Sprintf("truck-%02d", i), capacity)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Act
	var wg sync.WaitGroup
	errs := make(chan error, trucks*rounds)
	for _, truck := range fleet {
		wg.Add(1)
		go func(truck *warehouse.Truck) {
			defer wg.Done()
			for r := 0; r < rounds; r++ {
				if err := wh.Arrive(ctx, truck); err != nil {
					errs <- err
				}
			}
		}(truck)
	}
	wg.Wait()
	close(errs)

	// Assert
	for err := range errs {
		t.Errorf("arrival failed: %v", err)
	}

	onTrucks := 0
	for _, truck := range fleet {
		onTrucks += len(truck.Cargo)
	}
	stats := wh.Storage().Stats()
	assert.Equal(t, initial, stats.Available+onTrucks, "blocks are neither created nor lost")
	assert.Equal(t, stats.Length, stats.Cursor+stats.Available)
	assert.Zero(t, wh.QueueDepth())
}

func TestWarehouse_DuplicateArrivalRejected(t *testing.T) {
	// Arrange
	wh := newTestWarehouse(t, 5)
	t1 := mustTruck(t, "T1", 3)
	first := arriveAsync(context.Background(), wh, t1)
	require.Eventually(t, func() bool { return wh.QueueDepth() == 1 }, eventually, time.Millisecond)

	// Act
	err := wh.Arrive(context.Background(), t1)

	// Assert
	var invalid *warehouse.ErrInvalidTruck
	require.True(t, errors.As(err, &invalid), "got %v", err)
	assert.Contains(t, invalid.Reason, "already at the dock")

	startWorker(t, wh)
	require.NoError(t, <-first)
	assert.Len(t, t1.Cargo, 3)
}

func TestWarehouse_InvalidTruckRejectedBeforeQueueing(t *testing.T) {
	wh := newTestWarehouse(t, 5)

	tests := []struct {
		name  string
		truck *warehouse.Truck
	}{
		{name: "nil truck", truck: nil},
		{name: "no capacity", truck: &warehouse.Truck{Name: "T1"}},
		{name: "overloaded", truck: &warehouse.Truck{Name: "T2", Capacity: 1, Cargo: warehouse.NewBlocks(2)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := wh.Arrive(context.Background(), tt.truck)

			var invalid *warehouse.ErrInvalidTruck
			assert.True(t, errors.As(err, &invalid), "got %v", err)
			assert.Zero(t, wh.QueueDepth())
		})
	}
}

func TestWarehouse_TransferLatencyScalesWithBlocks(t *testing.T) {
	// Arrange
	clock := shared.NewMockClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	recorder := &recordingRecorder{}
	wh := newTestWarehouse(t, 10,
		dock.WithClock(clock),
		dock.WithBlockLatency(10*time.Millisecond),
		dock.WithServiceRecorder(recorder),
	)
	startWorker(t, wh)
	t1 := mustTruck(t, "T1", 4)

	// Act
	require.NoError(t, wh.Arrive(context.Background(), t1))
	require.NoError(t, wh.Arrive(context.Background(), t1))

	// Assert
	records := recorder.Records()
	require.Len(t, records, 2)
	assert.Equal(t, 40*time.Millisecond, records[0].Duration())
	assert.Equal(t, 40*time.Millisecond, records[1].Duration())
}

func TestWarehouse_StopDuringTransferStillCompletesIt(t *testing.T) {
	// Arrange: transfers park in the clock until the worker is told to stop
	clock := newGateClock(time.Hour)
	recorder := &recordingRecorder{}
	wh := newTestWarehouse(t, 5,
		dock.WithClock(clock),
		dock.WithBlockLatency(time.Hour),
		dock.WithServiceRecorder(recorder),
	)
	stop, stopped := startWorker(t, wh)
	t1 := mustTruck(t, "T1", 3)
	result := arriveAsync(context.Background(), wh, t1)

	select {
	case <-clock.started:
	case <-time.After(eventually):
		t.Fatal("transfer never started")
	}

	// Act
	stop()

	// Assert
	require.NoError(t, <-result)
	assert.Len(t, t1.Cargo, 3)
	require.NoError(t, <-stopped)
	assert.Equal(t, dock.StateStopped, wh.State())

	records := recorder.Records()
	require.Len(t, records, 1)
	assert.True(t, records[0].Interrupted)
	assert.True(t, records[0].Succeeded())
}

func TestWarehouse_RunStopsOnCancel(t *testing.T) {
	// Arrange
	wh := newTestWarehouse(t, 0)
	assert.Equal(t, dock.StateStopped, wh.State())
	stop, stopped := startWorker(t, wh)
	require.Eventually(t, func() bool { return wh.State() != dock.StateStopped }, eventually, time.Millisecond)

	// Act
	stop()

	// Assert
	select {
	case err := <-stopped:
		assert.NoError(t, err)
	case <-time.After(eventually):
		t.Fatal("worker did not stop")
	}
	assert.Equal(t, dock.StateStopped, wh.State())
}

func TestWarehouse_RunTwiceRejected(t *testing.T) {
	wh := newTestWarehouse(t, 0)
	startWorker(t, wh)
	require.Eventually(t, func() bool { return wh.State() != dock.StateStopped }, eventually, time.Millisecond)

	err := wh.Run(context.Background())

	assert.ErrorIs(t, err, dock.ErrWorkerAlreadyRunning)
}

func TestWarehouse_CanRestartAfterStop(t *testing.T) {
	wh := newTestWarehouse(t, 5)
	stop, stopped := startWorker(t, wh)
	stop()
	require.NoError(t, <-stopped)

	startWorker(t, wh)
	t1 := mustTruck(t, "T1", 2)

	require.NoError(t, wh.Arrive(context.Background(), t1))
	assert.Len(t, t1.Cargo, 2)
}
