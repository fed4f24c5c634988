package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/andrescamacho/warehouse-go/internal/domain/warehouse"
)

// GormServiceJournalRepository is a GORM-based implementation of the service journal
type GormServiceJournalRepository struct {
	db *gorm.DB
}

// NewGormServiceJournalRepository creates a new service journal repository
func NewGormServiceJournalRepository(db *gorm.DB) *GormServiceJournalRepository {
	return &GormServiceJournalRepository{db: db}
}

// Record persists a service record
func (r *GormServiceJournalRepository) Record(ctx context.Context, record warehouse.ServiceRecord) error {
	model := &ServiceJournalModel{
		Warehouse:        record.Warehouse,
		TruckID:          record.TruckID,
		TruckName:        record.TruckName,
		Kind:             string(record.Kind),
		Blocks:           record.Blocks,
		StorageLength:    record.Storage.Length,
		StorageCursor:    record.Storage.Cursor,
		StorageAvailable: record.Storage.Available,
		StartedAt:        record.StartedAt,
		FinishedAt:       record.FinishedAt,
		Interrupted:      record.Interrupted,
	}
	if record.Err != nil {
		model.Error = record.Err.Error()
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to journal service of truck %s: %w", record.TruckName, err)
	}
	return nil
}

// FindByTruck retrieves the service history of one truck, oldest first
func (r *GormServiceJournalRepository) FindByTruck(ctx context.Context, truckID string) ([]warehouse.JournalEntry, error) {
	var models []ServiceJournalModel
	err := r.db.WithContext(ctx).
		Where("truck_id = ?", truckID).
		Order("started_at ASC, id ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find journal for truck %s: %w", truckID, err)
	}

	return modelsToEntries(models), nil
}

// FindRecent retrieves the most recent entries for a warehouse, newest first
func (r *GormServiceJournalRepository) FindRecent(ctx context.Context, warehouseName string, limit int) ([]warehouse.JournalEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	var models []ServiceJournalModel
	err := r.db.WithContext(ctx).
		Where("warehouse = ?", warehouseName).
		Order("started_at DESC, id DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find recent journal entries for %s: %w", warehouseName, err)
	}

	return modelsToEntries(models), nil
}

// CountByKind returns how many successful services of each kind a warehouse performed
func (r *GormServiceJournalRepository) CountByKind(ctx context.Context, warehouseName string) (map[warehouse.TransferKind]int, error) {
	var rows []struct {
		Kind  string
		Total int
	}

	err := r.db.WithContext(ctx).
		Model(&ServiceJournalModel{}).
		Select("kind, COUNT(*) AS total").
		Where("warehouse = ? AND (error IS NULL OR error = '')", warehouseName).
		Group("kind").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count journal entries for %s: %w", warehouseName, err)
	}

	counts := make(map[warehouse.TransferKind]int, len(rows))
	for _, row := range rows {
		counts[warehouse.TransferKind(row.Kind)] = row.Total
	}
	return counts, nil
}

func modelsToEntries(models []ServiceJournalModel) []warehouse.JournalEntry {
	entries := make([]warehouse.JournalEntry, 0, len(models))
	for _, m := range models {
		entries = append(entries, warehouse.JournalEntry{
			ID:               m.ID,
			Warehouse:        m.Warehouse,
			TruckID:          m.TruckID,
			TruckName:        m.TruckName,
			Kind:             warehouse.TransferKind(m.Kind),
			Blocks:           m.Blocks,
			StorageLength:    m.StorageLength,
			StorageCursor:    m.StorageCursor,
			StorageAvailable: m.StorageAvailable,
			StartedAt:        m.StartedAt,
			FinishedAt:       m.FinishedAt,
			Interrupted:      m.Interrupted,
			Error:            m.Error,
		})
	}
	return entries
}

// Verify interface implementation
var _ warehouse.ServiceJournalRepository = (*GormServiceJournalRepository)(nil)
