package service

import (
	"scorekeeper/repository"

	"gorm.io/gorm"
)

type StateLogService struct {
	stateLogRepository *repository.StateLogRepository
}

func NewStateLogService(db *gorm.DB) *StateLogService {
	return &StateLogService{stateLogRepository: repository.NewStateLogRepository(db)}
}

func (s *StateLogService) GetLogsForEntity(entityType string, entityId int) ([]*repository.StateLog, error) {
	return s.stateLogRepository.GetLogsForEntity(entityType, entityId)
}
