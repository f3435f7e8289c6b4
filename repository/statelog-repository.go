package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// StateLog is the append-only audit trail of status transitions.
type StateLog struct {
	ID          int       `gorm:"primaryKey"`
	EntityType  string    `gorm:"not null;index:idx_state_log_subject"`
	EntityID    int       `gorm:"not null;index:idx_state_log_subject"`
	Action      string    `gorm:"not null"`
	FromState   string    `gorm:"not null"`
	ToState     string    `gorm:"not null"`
	Actor       string    `gorm:"not null"`
	Timestamp   time.Time `gorm:"not null"`
	Description string    `gorm:"not null;default:''"`
}

type StateLogRepository struct {
	DB *gorm.DB
}

func NewStateLogRepository(db *gorm.DB) *StateLogRepository {
	return &StateLogRepository{DB: db}
}

func (r *StateLogRepository) Append(log *StateLog) error {
	result := r.DB.Create(log)
	if result.Error != nil {
		return fmt.Errorf("failed to append state log: %w", result.Error)
	}
	return nil
}

func (r *StateLogRepository) GetLogsForEntity(entityType string, entityId int) ([]*StateLog, error) {
	logs := make([]*StateLog, 0)
	result := r.DB.Where("entity_type = ? AND entity_id = ?", entityType, entityId).Order("timestamp, id").Find(&logs)
	if result.Error != nil {
		return nil, result.Error
	}
	return logs, nil
}
