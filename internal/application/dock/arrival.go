package dock

import (
	"context"

	"github.com/andrescamacho/warehouse-go/internal/application/logging"
	"github.com/andrescamacho/warehouse-go/internal/domain/warehouse"
)

// Arrive submits a truck to the dock and blocks until the worker has serviced it.
//
// An empty truck is loaded to capacity from storage; a truck with cargo is
// unloaded completely. On a nil return the caller may read truck.Cargo
// directly: the worker's release happens-after its last write to the truck.
//
// Returns:
// - *warehouse.ErrInvalidTruck if the truck is malformed or already at the dock
// - *warehouse.ErrStorageShortage if a load asked for more blocks than remain
// - *warehouse.ErrArrivalInterrupted if ctx ended while queued or waiting
func (w *Warehouse) Arrive(ctx context.Context, truck *warehouse.Truck) error {
	if err := truck.Validate(); err != nil {
		return err
	}

	if _, loaded := w.inFlight.LoadOrStore(truck, struct{}{}); loaded {
		return &warehouse.ErrInvalidTruck{TruckName: truck.Name, Reason: "truck is already at the dock"}
	}

	// The completion channel exists before the worker can see the request,
	// so a release can never be sent to nobody.
	a := &arrival{
		truck: truck,
		done:  make(chan error, 1),
	}

	if err := w.queue.Enqueue(ctx, a); err != nil {
		w.inFlight.Delete(truck)
		return &warehouse.ErrArrivalInterrupted{
			TruckName: truck.Name,
			Stage:     warehouse.ArrivalStageEnqueue,
			Err:       err,
		}
	}

	logging.LoggerFromContext(ctx).Log(logging.LevelDebug, "Truck arrived", map[string]interface{}{
		"warehouse": w.name,
		"truck":     truck.Name,
		"cargo":     len(truck.Cargo),
	})

	select {
	case err := <-a.done:
		return err
	case <-ctx.Done():
		// Prefer a release that raced with the cancellation
		select {
		case err := <-a.done:
			return err
		default:
		}
		return &warehouse.ErrArrivalInterrupted{
			TruckName: truck.Name,
			Stage:     warehouse.ArrivalStageWait,
			Err:       ctx.Err(),
		}
	}
}
