package warehouse

import (
	"context"
	"time"
)

// ServiceRecord describes one completed servicing of a truck at the dock
type ServiceRecord struct {
	Warehouse  string
	TruckID    string
	TruckName  string
	Kind       TransferKind
	Blocks     int
	Storage    StorageStats
	StartedAt  time.Time
	FinishedAt time.Time

	// Interrupted is set when a stop request arrived while cargo was moving.
	// The transfer still completed.
	Interrupted bool

	// Err is the servicing failure handed back to the caller (e.g. a shortage)
	Err error
}

// Duration returns how long the truck occupied the dock
func (r ServiceRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Succeeded reports whether cargo actually moved
func (r ServiceRecord) Succeeded() bool {
	return r.Err == nil
}

// ServiceRecorder observes every truck the worker releases.
// Implementations must not block for long: they run on the worker goroutine
// before the truck is released.
type ServiceRecorder interface {
	RecordService(ctx context.Context, record ServiceRecord)
}

// ServiceJournalRepository handles persistence of the dock's service history.
// The journal is an audit trail only; storage contents are never restored from it.
type ServiceJournalRepository interface {
	// Record persists a service record
	Record(ctx context.Context, record ServiceRecord) error

	// FindByTruck retrieves the service history of one truck, oldest first
	FindByTruck(ctx context.Context, truckID string) ([]JournalEntry, error)

	// FindRecent retrieves the most recent entries for a warehouse, newest first
	FindRecent(ctx context.Context, warehouseName string, limit int) ([]JournalEntry, error)

	// CountByKind returns how many successful services of each kind a warehouse performed
	CountByKind(ctx context.Context, warehouseName string) (map[TransferKind]int, error)
}

// JournalEntry is a persisted service record as read back from the journal
type JournalEntry struct {
	ID               int
	Warehouse        string
	TruckID          string
	TruckName        string
	Kind             TransferKind
	Blocks           int
	StorageLength    int
	StorageCursor    int
	StorageAvailable int
	StartedAt        time.Time
	FinishedAt       time.Time
	Interrupted      bool
	Error            string
}
