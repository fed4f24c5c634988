package warehouse

// TransferKind tells which way cargo moves when a truck is serviced
type TransferKind string

const (
	// TransferLoad moves blocks from storage onto an empty truck
	TransferLoad TransferKind = "LOAD"

	// TransferUnload moves every block off a truck into storage
	TransferUnload TransferKind = "UNLOAD"
)

// ClassifyTruck decides the transfer direction from the cargo alone.
// Empty cargo is a load request, anything else is an unload request; there is
// no partial load or top-off. The rule is total over every truck value.
func ClassifyTruck(t *Truck) TransferKind {
	if t.IsEmpty() {
		return TransferLoad
	}
	return TransferUnload
}
