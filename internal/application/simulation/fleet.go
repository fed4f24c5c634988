package simulation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/andrescamacho/warehouse-go/internal/application/logging"
	"github.com/andrescamacho/warehouse-go/internal/domain/warehouse"
)

// Arriver is the dock a fleet drives trucks to
type Arriver interface {
	Arrive(ctx context.Context, truck *warehouse.Truck) error
}

// TruckReport summarises what happened to one truck during a run
type TruckReport struct {
	Name       string
	Loads      int
	Unloads    int
	Shortages  int
	FinalCargo int

	// Abandoned is set when the driver gave up while the dock still held the
	// truck. FinalCargo is then the last cargo seen before that arrival.
	Abandoned bool
}

// Report summarises a fleet run
type Report struct {
	Trucks    []TruckReport
	Arrivals  int
	Shortages int
	Duration  time.Duration
}

// BlocksOnTrucks returns the number of blocks held by trucks the fleet still owns
func (r *Report) BlocksOnTrucks() int {
	total := 0
	for _, t := range r.Trucks {
		if !t.Abandoned {
			total += t.FinalCargo
		}
	}
	return total
}

// AbandonedTrucks counts trucks left at the dock when the run stopped
func (r *Report) AbandonedTrucks() int {
	n := 0
	for _, t := range r.Trucks {
		if t.Abandoned {
			n++
		}
	}
	return n
}

// Fleet drives a set of trucks to the dock for a fixed number of rounds each.
// Every truck alternates: an empty truck asks to be loaded, a loaded truck
// asks to be unloaded. Arrivals across the whole fleet share one token bucket.
type Fleet struct {
	dock    Arriver
	trucks  []*warehouse.Truck
	rounds  int
	limiter *rate.Limiter
}

// NewFleet creates a fleet. A nil limiter means arrivals are not paced.
func NewFleet(dock Arriver, trucks []*warehouse.Truck, rounds int, limiter *rate.Limiter) (*Fleet, error) {
	if dock == nil {
		return nil, fmt.Errorf("dock cannot be nil")
	}
	if len(trucks) == 0 {
		return nil, fmt.Errorf("fleet needs at least one truck")
	}
	if rounds <= 0 {
		return nil, fmt.Errorf("rounds must be positive, got %d", rounds)
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}

	return &Fleet{
		dock:    dock,
		trucks:  trucks,
		rounds:  rounds,
		limiter: limiter,
	}, nil
}

// NewTrucks creates n empty trucks named truck-01, truck-02, ...
func NewTrucks(n, capacity int) ([]*warehouse.Truck, error) {
	trucks := make([]*warehouse.Truck, 0, n)
	for i := 1; i <= n; i++ {
		t, err := warehouse.NewTruck(fmt.Sprintf("truck-%02d", i), capacity)
		if err != nil {
			return nil, err
		}
		trucks = append(trucks, t)
	}
	return trucks, nil
}

// Run drives every truck concurrently and waits for all of them.
// A storage shortage is counted and the truck tries again next round; any
// other failure stops the whole fleet.
func (f *Fleet) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	reports := make([]TruckReport, len(f.trucks))

	g, gctx := errgroup.WithContext(ctx)
	for i, truck := range f.trucks {
		truck := truck
		report := &reports[i]
		report.Name = truck.Name
		g.Go(func() error {
			return f.drive(gctx, truck, report)
		})
	}
	err := g.Wait()

	result := &Report{
		Trucks:   reports,
		Duration: time.Since(start),
	}
	for _, r := range reports {
		result.Arrivals += r.Loads + r.Unloads + r.Shortages
		result.Shortages += r.Shortages
	}

	if err != nil {
		return result, err
	}
	return result, nil
}

func (f *Fleet) drive(ctx context.Context, truck *warehouse.Truck, report *TruckReport) error {
	ctx = logging.WithFields(ctx, map[string]interface{}{"truck_id": truck.ID})
	logger := logging.LoggerFromContext(ctx)

	// Cargo is only read while no arrival is outstanding
	report.FinalCargo = len(truck.Cargo)

	for round := 1; round <= f.rounds; round++ {
		if err := f.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("truck %s: waiting for arrival slot: %w", truck.Name, err)
		}

		kind := warehouse.ClassifyTruck(truck)
		err := f.dock.Arrive(ctx, truck)

		var shortage *warehouse.ErrStorageShortage
		var interrupted *warehouse.ErrArrivalInterrupted
		switch {
		case err == nil && kind == warehouse.TransferLoad:
			report.Loads++
			report.FinalCargo = len(truck.Cargo)
		case err == nil:
			report.Unloads++
			report.FinalCargo = len(truck.Cargo)
		case errors.As(err, &shortage):
			report.Shortages++
			report.FinalCargo = len(truck.Cargo)
			logger.Log(logging.LevelWarn, "Truck left without cargo", map[string]interface{}{
				"truck":     truck.Name,
				"round":     round,
				"requested": shortage.Requested,
				"available": shortage.Available,
			})
		case errors.As(err, &interrupted):
			// Once queued, the worker owns the truck until it releases it
			report.Abandoned = interrupted.Stage == warehouse.ArrivalStageWait
			return fmt.Errorf("truck %s round %d: %w", truck.Name, round, err)
		default:
			return fmt.Errorf("truck %s round %d: %w", truck.Name, round, err)
		}
	}
	return nil
}
