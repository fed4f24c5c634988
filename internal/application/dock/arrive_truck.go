package dock

import (
	"context"
	"fmt"

	"github.com/andrescamacho/warehouse-go/internal/application/common"
	"github.com/andrescamacho/warehouse-go/internal/domain/warehouse"
)

// ArriveTruckCommand asks the dock to service one truck
type ArriveTruckCommand struct {
	Truck *warehouse.Truck
}

// ArriveTruckResponse describes the completed service
type ArriveTruckResponse struct {
	Kind  warehouse.TransferKind
	Cargo int
}

// ArriveTruckHandler sends trucks to one warehouse's dock
type ArriveTruckHandler struct {
	warehouse *Warehouse
}

// NewArriveTruckHandler creates a new handler
func NewArriveTruckHandler(w *Warehouse) *ArriveTruckHandler {
	return &ArriveTruckHandler{warehouse: w}
}

// Handle blocks until the truck has been serviced; errors are those of Arrive
func (h *ArriveTruckHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*ArriveTruckCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}
	if cmd.Truck == nil {
		return nil, &warehouse.ErrInvalidTruck{Reason: "truck is required"}
	}

	kind := warehouse.ClassifyTruck(cmd.Truck)
	if err := h.warehouse.Arrive(ctx, cmd.Truck); err != nil {
		return nil, err
	}

	return &ArriveTruckResponse{
		Kind:  kind,
		Cargo: len(cmd.Truck.Cargo),
	}, nil
}
