package steps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cucumber/godog"

	"github.com/andrescamacho/warehouse-go/internal/application/dock"
	"github.com/andrescamacho/warehouse-go/internal/domain/warehouse"
)

const stepTimeout = 2 * time.Second

// warehouseContext holds state for dock scenarios
type warehouseContext struct {
	wh      *dock.Warehouse
	trucks  map[string]*warehouse.Truck
	pending map[string]<-chan error
	lastErr error

	stopWorker context.CancelFunc
	stopped    chan error
}

func (wc *warehouseContext) reset() {
	wc.cleanup()
	wc.wh = nil
	wc.trucks = make(map[string]*warehouse.Truck)
	wc.pending = make(map[string]<-chan error)
	wc.lastErr = nil
	wc.stopWorker = nil
	wc.stopped = nil
}

func (wc *warehouseContext) cleanup() {
	if wc.stopWorker != nil {
		wc.stopWorker()
		<-wc.stopped
		wc.stopWorker = nil
	}
}

// ============================================================================
// Setup Steps
// ============================================================================

func (wc *warehouseContext) aWarehouseWithBlocks(blocks int) error {
	return wc.aWarehouseWithBlocksAndQueue(blocks, dock.DefaultQueueCapacity)
}

func (wc *warehouseContext) aWarehouseWithBlocksAndQueue(blocks, slots int) error {
	wh, err := dock.NewWarehouse("bdd",
		dock.WithInitialStorage(warehouse.NewBlocks(blocks)),
		dock.WithQueueCapacity(slots),
		dock.WithPollInterval(time.Millisecond),
		dock.WithBlockLatency(0),
	)
	if err != nil {
		return err
	}
	wc.wh = wh
	return nil
}

func (wc *warehouseContext) theDockWorkerIsRunning() error {
	if wc.wh == nil {
		return fmt.Errorf("no warehouse")
	}
	ctx, cancel := context.WithCancel(context.Background())
	wc.stopWorker = cancel
	wc.stopped = make(chan error, 1)
	go func() { wc.stopped <- wc.wh.Run(ctx) }()
	return nil
}

func (wc *warehouseContext) anEmptyTruckWithCapacity(name string, capacity int) error {
	truck, err := warehouse.NewTruck(name, capacity)
	if err != nil {
		return err
	}
	wc.trucks[name] = truck
	return nil
}

// ============================================================================
// Action Steps
// ============================================================================

func (wc *warehouseContext) truckArrives(name string) error {
	truck, ok := wc.trucks[name]
	if !ok {
		return fmt.Errorf("unknown truck %s", name)
	}
	ctx, cancel := context.WithTimeout(context.Background(), stepTimeout)
	defer cancel()
	wc.lastErr = wc.wh.Arrive(ctx, truck)
	return nil
}

func (wc *warehouseContext) truckArrivesWithoutWaiting(name string) error {
	truck, ok := wc.trucks[name]
	if !ok {
		return fmt.Errorf("unknown truck %s", name)
	}
	result := make(chan error, 1)
	go func() { result <- wc.wh.Arrive(context.Background(), truck) }()
	wc.pending[name] = result
	return nil
}

func (wc *warehouseContext) theDockWorkerIsStopped() error {
	if wc.stopWorker == nil {
		return fmt.Errorf("worker is not running")
	}
	wc.stopWorker()
	wc.stopWorker = nil
	select {
	case err := <-wc.stopped:
		return err
	case <-time.After(stepTimeout):
		return fmt.Errorf("worker did not stop within %s", stepTimeout)
	}
}

// ============================================================================
// Assertion Steps
// ============================================================================

func (wc *warehouseContext) theArrivalSucceeds() error {
	if wc.lastErr != nil {
		return fmt.Errorf("expected success, got %v", wc.lastErr)
	}
	return nil
}

func (wc *warehouseContext) theArrivalFailsWithAStorageShortage(requested, available int) error {
	var shortage *warehouse.ErrStorageShortage
	if !errors.As(wc.lastErr, &shortage) {
		return fmt.Errorf("expected storage shortage, got %v", wc.lastErr)
	}
	if shortage.Requested != requested || shortage.Available != available {
		return fmt.Errorf("expected shortage %d/%d, got %d/%d",
			requested, available, shortage.Requested, shortage.Available)
	}
	return nil
}

func (wc *warehouseContext) truckCarriesBlocks(name string, blocks int) error {
	truck, ok := wc.trucks[name]
	if !ok {
		return fmt.Errorf("unknown truck %s", name)
	}
	if len(truck.Cargo) != blocks {
		return fmt.Errorf("expected truck %s to carry %d blocks, got %d", name, blocks, len(truck.Cargo))
	}
	return nil
}

func (wc *warehouseContext) theStorageCursorIs(cursor int) error {
	if got := wc.wh.Storage().Cursor(); got != cursor {
		return fmt.Errorf("expected cursor %d, got %d", cursor, got)
	}
	return nil
}

func (wc *warehouseContext) theStorageLengthIs(length int) error {
	if got := wc.wh.Storage().Len(); got != length {
		return fmt.Errorf("expected storage length %d, got %d", length, got)
	}
	return nil
}

func (wc *warehouseContext) blocksAreAvailableInStorage(available int) error {
	if got := wc.wh.Storage().Available(); got != available {
		return fmt.Errorf("expected %d available blocks, got %d", available, got)
	}
	return nil
}

func (wc *warehouseContext) theQueueHoldsTrucks(depth int) error {
	deadline := time.Now().Add(stepTimeout)
	for time.Now().Before(deadline) {
		if wc.wh.QueueDepth() == depth {
			return nil
		}
		time.Sleep(time.Millisecond)
	}
	return fmt.Errorf("expected queue depth %d, got %d", depth, wc.wh.QueueDepth())
}

func (wc *warehouseContext) truckIsStillWaitingToEnterTheQueue(name string) error {
	result, ok := wc.pending[name]
	if !ok {
		return fmt.Errorf("truck %s has not arrived", name)
	}
	select {
	case err := <-result:
		delete(wc.pending, name)
		return fmt.Errorf("truck %s was released early (err=%v)", name, err)
	case <-time.After(50 * time.Millisecond):
	}
	if depth := wc.wh.QueueDepth(); depth != wc.wh.Stats().QueueCapacity {
		return fmt.Errorf("expected a full queue, depth is %d", depth)
	}
	return nil
}

func (wc *warehouseContext) truckIsReleased(name string) error {
	result, ok := wc.pending[name]
	if !ok {
		return fmt.Errorf("truck %s has not arrived", name)
	}
	select {
	case err := <-result:
		delete(wc.pending, name)
		if err != nil {
			return fmt.Errorf("truck %s released with error: %w", name, err)
		}
		return nil
	case <-time.After(stepTimeout):
		return fmt.Errorf("truck %s was never released", name)
	}
}

func (wc *warehouseContext) theWorkerStateIs(state string) error {
	if got := wc.wh.State(); string(got) != state {
		return fmt.Errorf("expected worker state %s, got %s", state, got)
	}
	return nil
}

// InitializeWarehouseScenario registers dock step definitions
func InitializeWarehouseScenario(ctx *godog.ScenarioContext) {
	wc := &warehouseContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		wc.reset()
		return ctx, nil
	})
	ctx.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		// Release anything still queued before stopping the worker
		if wc.wh != nil && wc.stopWorker == nil && len(wc.pending) > 0 {
			_ = wc.theDockWorkerIsRunning()
		}
		for _, result := range wc.pending {
			select {
			case <-result:
			case <-time.After(stepTimeout):
			}
		}
		wc.cleanup()
		return ctx, nil
	})

	// Setup steps
	ctx.Step(`^a warehouse with (\d+) blocks in storage$`, wc.aWarehouseWithBlocks)
	ctx.Step(`^a warehouse with (\d+) blocks in storage and a queue of (\d+) slots?$`, wc.aWarehouseWithBlocksAndQueue)
	ctx.Step(`^the dock worker is running$`, wc.theDockWorkerIsRunning)
	ctx.Step(`^an empty truck "([^"]*)" with capacity (\d+)$`, wc.anEmptyTruckWithCapacity)

	// Action steps
	ctx.Step(`^truck "([^"]*)" arrives$`, wc.truckArrives)
	ctx.Step(`^truck "([^"]*)" arrives without waiting$`, wc.truckArrivesWithoutWaiting)
	ctx.Step(`^the dock worker is stopped$`, wc.theDockWorkerIsStopped)

	// Assertion steps
	ctx.Step(`^the arrival succeeds$`, wc.theArrivalSucceeds)
	ctx.Step(`^the arrival fails with a storage shortage of (\d+) requested and (\d+) available$`, wc.theArrivalFailsWithAStorageShortage)
	ctx.Step(`^truck "([^"]*)" carries (\d+) blocks$`, wc.truckCarriesBlocks)
	ctx.Step(`^the storage cursor is (\d+)$`, wc.theStorageCursorIs)
	ctx.Step(`^the storage length is (\d+)$`, wc.theStorageLengthIs)
	ctx.Step(`^(\d+) blocks are available in storage$`, wc.blocksAreAvailableInStorage)
	ctx.Step(`^the queue holds (\d+) trucks?$`, wc.theQueueHoldsTrucks)
	ctx.Step(`^truck "([^"]*)" is still waiting to enter the queue$`, wc.truckIsStillWaitingToEnterTheQueue)
	ctx.Step(`^truck "([^"]*)" is released$`, wc.truckIsReleased)
	ctx.Step(`^the worker state is "([^"]*)"$`, wc.theWorkerStateIs)
}
