package simulation_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/andrescamacho/warehouse-go/internal/application/common"
	"github.com/andrescamacho/warehouse-go/internal/application/dock"
	"github.com/andrescamacho/warehouse-go/internal/application/simulation"
	"github.com/andrescamacho/warehouse-go/internal/domain/warehouse"
)

func newSimulationMediator(t *testing.T, wh *dock.Warehouse) (common.Mediator, *atomic.Int32) {
	t.Helper()
	arrivals := &atomic.Int32{}
	m := common.NewMediator()
	m.Use(func(ctx context.Context, request common.Request, next common.HandlerFunc) (common.Response, error) {
		if _, ok := request.(*dock.ArriveTruckCommand); ok {
			arrivals.Add(1)
		}
		return next(ctx, request)
	})
	require.NoError(t, common.RegisterHandler[*dock.ArriveTruckCommand](m, dock.NewArriveTruckHandler(wh)))
	require.NoError(t, common.RegisterHandler[*simulation.RunSimulationCommand](m, simulation.NewRunSimulationHandler(wh, m)))
	return m, arrivals
}

func newIdleDock(t *testing.T, initial int, latency time.Duration) *dock.Warehouse {
	t.Helper()
	wh, err := dock.NewWarehouse("sim",
		dock.WithInitialStorage(warehouse.NewBlocks(initial)),
		dock.WithPollInterval(time.Millisecond),
		dock.WithBlockLatency(latency),
	)
	require.NoError(t, err)
	return wh
}

func TestRunSimulation_RoutesArrivalsThroughMediator(t *testing.T) {
	// Arrange
	wh := newIdleDock(t, 10, 0)
	m, arrivals := newSimulationMediator(t, wh)
	trucks, err := simulation.NewTrucks(3, 2)
	require.NoError(t, err)

	// Act
	resp, err := m.Send(context.Background(), &simulation.RunSimulationCommand{
		Trucks:  trucks,
		Rounds:  2,
		Limiter: rate.NewLimiter(rate.Inf, 1),
	})

	// Assert
	require.NoError(t, err)
	result := resp.(*simulation.RunSimulationResponse)
	assert.False(t, result.Interrupted)
	assert.Equal(t, 6, result.Report.Arrivals)
	assert.Equal(t, int32(6), arrivals.Load())
	assert.Zero(t, result.Report.BlocksOnTrucks())
	assert.Equal(t, 10, result.Stats.Storage.Available)
	assert.Equal(t, dock.StateStopped, wh.State(), "worker stops with the fleet")
}

func TestRunSimulation_InterruptedRunIsNotAnError(t *testing.T) {
	// Arrange: 50ms per block keeps the first load in flight past the deadline
	wh := newIdleDock(t, 10, 50*time.Millisecond)
	m, _ := newSimulationMediator(t, wh)
	trucks, err := simulation.NewTrucks(1, 3)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	// Act
	resp, err := m.Send(ctx, &simulation.RunSimulationCommand{Trucks: trucks, Rounds: 1})

	// Assert
	require.NoError(t, err)
	result := resp.(*simulation.RunSimulationResponse)
	assert.True(t, result.Interrupted)
	// The stop cuts the transfer short, so the release may beat the driver's own cancellation
	truckReport := result.Report.Trucks[0]
	assert.Equal(t, 1, truckReport.Loads+result.Report.AbandonedTrucks())
	// The handler waited for the worker, so the in-flight load has landed
	assert.Len(t, trucks[0].Cargo, 3)
	assert.Equal(t, 3, result.Stats.Storage.Cursor)
}

func TestRunSimulation_RejectsInvalidFleet(t *testing.T) {
	wh := newIdleDock(t, 10, 0)
	m, _ := newSimulationMediator(t, wh)

	_, err := m.Send(context.Background(), &simulation.RunSimulationCommand{Rounds: 1})

	assert.Error(t, err)
}
