package simulation

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/andrescamacho/warehouse-go/internal/application/common"
	"github.com/andrescamacho/warehouse-go/internal/application/dock"
	"github.com/andrescamacho/warehouse-go/internal/application/logging"
	"github.com/andrescamacho/warehouse-go/internal/domain/warehouse"
)

// RunSimulationCommand drives a fleet through the dock until every truck has
// finished its rounds
type RunSimulationCommand struct {
	Trucks  []*warehouse.Truck
	Rounds  int
	Limiter *rate.Limiter
}

// RunSimulationResponse is the outcome of a run. Interrupted is set when the
// caller's context ended the run early.
type RunSimulationResponse struct {
	Report      *Report
	Stats       dock.Stats
	Interrupted bool
}

// RunSimulationHandler runs the dock worker alongside the fleet. Every arrival
// is sent through the mediator as an ArriveTruckCommand.
type RunSimulationHandler struct {
	warehouse *dock.Warehouse
	mediator  common.Mediator
}

// NewRunSimulationHandler creates a new handler
func NewRunSimulationHandler(w *dock.Warehouse, m common.Mediator) *RunSimulationHandler {
	return &RunSimulationHandler{warehouse: w, mediator: m}
}

// Handle runs the simulation. A run stopped by ctx is not an error: the
// response reports what was done. A failing fleet returns the partial
// response together with the error.
func (h *RunSimulationHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*RunSimulationCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}

	fleet, err := NewFleet(mediatorArriver{mediator: h.mediator}, cmd.Trucks, cmd.Rounds, cmd.Limiter)
	if err != nil {
		return nil, err
	}

	logging.LoggerFromContext(ctx).Log(logging.LevelInfo, "Simulation starting", map[string]interface{}{
		"warehouse": h.warehouse.Name(),
		"trucks":    len(cmd.Trucks),
		"rounds":    cmd.Rounds,
		"storage":   h.warehouse.Storage().Available(),
	})

	// The worker runs until the fleet is done; a failing fleet cancels it too
	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()

	var report *Report
	g, gctx := errgroup.WithContext(workerCtx)
	g.Go(func() error {
		return h.warehouse.Run(gctx)
	})
	g.Go(func() error {
		defer stopWorker()
		var err error
		report, err = fleet.Run(gctx)
		return err
	})
	err = g.Wait()

	response := &RunSimulationResponse{
		Report:      report,
		Stats:       h.warehouse.Stats(),
		Interrupted: ctx.Err() != nil,
	}

	logging.LoggerFromContext(ctx).Log(logging.LevelInfo, "Simulation finished", map[string]interface{}{
		"warehouse":   response.Stats.Name,
		"storage":     response.Stats.Storage.Length,
		"cursor":      response.Stats.Storage.Cursor,
		"available":   response.Stats.Storage.Available,
		"interrupted": response.Interrupted,
	})

	if err != nil && !response.Interrupted {
		return response, err
	}
	return response, nil
}

// mediatorArriver lets the fleet reach the dock through the mediator
type mediatorArriver struct {
	mediator common.Mediator
}

func (a mediatorArriver) Arrive(ctx context.Context, truck *warehouse.Truck) error {
	_, err := a.mediator.Send(ctx, &dock.ArriveTruckCommand{Truck: truck})
	return err
}
