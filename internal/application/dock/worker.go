package dock

import (
	"context"
	"errors"
	"time"

	"github.com/andrescamacho/warehouse-go/internal/application/logging"
	"github.com/andrescamacho/warehouse-go/internal/domain/warehouse"
)

// ErrWorkerAlreadyRunning is returned when Run is called while another Run loop is active
var ErrWorkerAlreadyRunning = errors.New("warehouse worker is already running")

// Run executes the worker loop until ctx is cancelled.
//
// Each iteration polls the hand-off queue. An empty queue means an idle
// backoff of one poll interval; a cancellation during that backoff stops the
// loop. A queued truck is loaded or unloaded and then released. A transfer
// that has started always completes, even if ctx is cancelled mid-way; the
// loop notices the stop request on its next iteration.
//
// Run returns nil on a normal stop.
func (w *Warehouse) Run(ctx context.Context) error {
	if !w.running.CompareAndSwap(false, true) {
		return ErrWorkerAlreadyRunning
	}
	defer w.running.Store(false)

	logger := logging.LoggerFromContext(ctx)
	logger.Log(logging.LevelInfo, "Warehouse worker started", map[string]interface{}{
		"warehouse":     w.name,
		"poll_interval": w.pollInterval.String(),
		"block_latency": w.blockLatency.String(),
	})

	defer func() {
		w.setState(StateStopped)
		logger.Log(logging.LevelInfo, "Warehouse worker stopped", map[string]interface{}{
			"warehouse": w.name,
		})
	}()

	for {
		if ctx.Err() != nil {
			return nil
		}

		w.setState(StatePolling)
		a, ok := w.queue.Poll()
		if !ok {
			w.setState(StateIdleBackoff)
			if err := w.clock.Sleep(ctx, w.pollInterval); err != nil {
				return nil
			}
			continue
		}

		w.setState(StateServicing)
		w.service(ctx, a)
	}
}

// service transfers cargo for one truck, records it and releases the caller
func (w *Warehouse) service(ctx context.Context, a *arrival) {
	truck := a.truck

	record := warehouse.ServiceRecord{
		Warehouse: w.name,
		TruckID:   truck.ID,
		TruckName: truck.Name,
		Kind:      warehouse.ClassifyTruck(truck),
		StartedAt: w.clock.Now(),
	}

	switch record.Kind {
	case warehouse.TransferLoad:
		record.Blocks, record.Interrupted, record.Err = w.loadTruck(ctx, truck)
	case warehouse.TransferUnload:
		record.Blocks, record.Interrupted = w.unloadTruck(ctx, truck)
	}

	record.FinishedAt = w.clock.Now()
	record.Storage = w.storage.Stats()

	// Recorders may persist; they must not inherit a stop request
	w.recorder.RecordService(context.WithoutCancel(ctx), record)

	w.inFlight.Delete(truck)
	a.done <- record.Err
}

func (w *Warehouse) loadTruck(ctx context.Context, truck *warehouse.Truck) (int, bool, error) {
	logger := logging.LoggerFromContext(ctx)
	logger.Log(logging.LevelInfo, "Loading truck", map[string]interface{}{
		"warehouse": w.name,
		"truck":     truck.Name,
		"capacity":  truck.Capacity,
	})

	blocks, err := w.storage.TakeAvailable(truck.FreeCapacity())
	if err != nil {
		logger.Log(logging.LevelError, "Cannot load truck", map[string]interface{}{
			"warehouse": w.name,
			"truck":     truck.Name,
			"error":     err.Error(),
		})
		return 0, false, err
	}

	interrupted := w.simulateTransfer(ctx, truck, len(blocks), "loading")

	if err := truck.Load(blocks); err != nil {
		w.storage.ReturnBlocks(blocks)
		return 0, interrupted, err
	}

	logger.Log(logging.LevelInfo, "Truck loaded", map[string]interface{}{
		"warehouse": w.name,
		"truck":     truck.Name,
		"blocks":    len(blocks),
	})
	return len(blocks), interrupted, nil
}

func (w *Warehouse) unloadTruck(ctx context.Context, truck *warehouse.Truck) (int, bool) {
	logger := logging.LoggerFromContext(ctx)
	logger.Log(logging.LevelInfo, "Unloading truck", map[string]interface{}{
		"warehouse": w.name,
		"truck":     truck.Name,
		"cargo":     len(truck.Cargo),
	})

	interrupted := w.simulateTransfer(ctx, truck, len(truck.Cargo), "unloading")

	blocks := truck.Clear()
	w.storage.ReturnBlocks(blocks)

	logger.Log(logging.LevelInfo, "Truck unloaded", map[string]interface{}{
		"warehouse": w.name,
		"truck":     truck.Name,
		"blocks":    len(blocks),
	})
	return len(blocks), interrupted
}

// simulateTransfer waits blockLatency per block. A stop request cuts the wait
// short and is reported, but never aborts the transfer itself.
func (w *Warehouse) simulateTransfer(ctx context.Context, truck *warehouse.Truck, blocks int, action string) bool {
	err := w.clock.Sleep(ctx, w.blockLatency*time.Duration(blocks))
	if err == nil {
		return false
	}

	logging.LoggerFromContext(ctx).Log(logging.LevelWarn, "Interrupted while "+action+" truck", map[string]interface{}{
		"warehouse": w.name,
		"truck":     truck.Name,
		"blocks":    blocks,
		"error":     err.Error(),
	})
	return true
}
