package warehouse

import "fmt"

// ErrStorageShortage indicates a load asked for more blocks than remain past the cursor
type ErrStorageShortage struct {
	Requested int
	Available int
}

func (e *ErrStorageShortage) Error() string {
	return fmt.Sprintf("storage shortage: need %d blocks, have %d available", e.Requested, e.Available)
}

// ErrInvalidTruck indicates a truck that cannot be serviced as a pure load or unload
type ErrInvalidTruck struct {
	TruckName string
	Reason    string
}

func (e *ErrInvalidTruck) Error() string {
	if e.TruckName == "" {
		return fmt.Sprintf("invalid truck: %s", e.Reason)
	}
	return fmt.Sprintf("invalid truck %s: %s", e.TruckName, e.Reason)
}

// ArrivalStage names where an arriving caller was waiting when it was interrupted
type ArrivalStage string

const (
	ArrivalStageEnqueue ArrivalStage = "enqueue"
	ArrivalStageWait    ArrivalStage = "wait"
)

// ErrArrivalInterrupted indicates the caller's context ended before its truck was released.
// The arrival cannot be retried as a unit: the truck's cargo is whatever the
// worker last set, or untouched if it was never serviced.
type ErrArrivalInterrupted struct {
	TruckName string
	Stage     ArrivalStage
	Err       error
}

func (e *ErrArrivalInterrupted) Error() string {
	return fmt.Sprintf("arrival of truck %s interrupted during %s: %v", e.TruckName, e.Stage, e.Err)
}

func (e *ErrArrivalInterrupted) Unwrap() error {
	return e.Err
}
