package persistence

import "time"

// ServiceJournalModel represents the service_journal table
type ServiceJournalModel struct {
	ID               int       `gorm:"column:id;primaryKey;autoIncrement"`
	Warehouse        string    `gorm:"column:warehouse;not null;index:idx_journal_warehouse_started"`
	TruckID          string    `gorm:"column:truck_id;not null;index"`
	TruckName        string    `gorm:"column:truck_name;not null"`
	Kind             string    `gorm:"column:kind;not null"`
	Blocks           int       `gorm:"column:blocks;not null;default:0"`
	StorageLength    int       `gorm:"column:storage_length;not null"`
	StorageCursor    int       `gorm:"column:storage_cursor;not null"`
	StorageAvailable int       `gorm:"column:storage_available;not null"`
	StartedAt        time.Time `gorm:"column:started_at;not null;index:idx_journal_warehouse_started"`
	FinishedAt       time.Time `gorm:"column:finished_at;not null"`
	Interrupted      bool      `gorm:"column:interrupted;not null;default:false"`
	Error            string    `gorm:"column:error;type:text"`
}

func (ServiceJournalModel) TableName() string {
	return "service_journal"
}
