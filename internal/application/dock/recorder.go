package dock

import (
	"context"

	"github.com/andrescamacho/warehouse-go/internal/application/logging"
	"github.com/andrescamacho/warehouse-go/internal/domain/warehouse"
)

type noOpRecorder struct{}

func (noOpRecorder) RecordService(context.Context, warehouse.ServiceRecord) {}

// NoOpRecorder returns a recorder that discards every record
func NoOpRecorder() warehouse.ServiceRecorder {
	return noOpRecorder{}
}

// MultiRecorder fans a record out to several recorders in order
type MultiRecorder []warehouse.ServiceRecorder

func (m MultiRecorder) RecordService(ctx context.Context, record warehouse.ServiceRecord) {
	for _, r := range m {
		if r != nil {
			r.RecordService(ctx, record)
		}
	}
}

// JournalRecorder writes every service record to the service journal.
// A failed write is logged and dropped; it never holds a truck at the dock.
type JournalRecorder struct {
	repo warehouse.ServiceJournalRepository
}

// NewJournalRecorder creates a recorder backed by the given journal repository
func NewJournalRecorder(repo warehouse.ServiceJournalRepository) *JournalRecorder {
	return &JournalRecorder{repo: repo}
}

func (j *JournalRecorder) RecordService(ctx context.Context, record warehouse.ServiceRecord) {
	if err := j.repo.Record(ctx, record); err != nil {
		logging.LoggerFromContext(ctx).Log(logging.LevelError, "Failed to journal truck service", map[string]interface{}{
			"warehouse": record.Warehouse,
			"truck":     record.TruckName,
			"error":     err.Error(),
		})
	}
}

var (
	_ warehouse.ServiceRecorder = MultiRecorder(nil)
	_ warehouse.ServiceRecorder = (*JournalRecorder)(nil)
)
