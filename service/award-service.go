package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"scorekeeper/app_error"
	"scorekeeper/config"
	"scorekeeper/repository"

	"gorm.io/gorm"
)

type SeedResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

type AwardService struct {
	db              *gorm.DB
	awardRepository *repository.AwardRepository
}

func NewAwardService(db *gorm.DB) *AwardService {
	return &AwardService{
		db:              db,
		awardRepository: repository.NewAwardRepository(db),
	}
}

func (s *AwardService) GetAwardById(awardId int) (*repository.Award, error) {
	return s.awardRepository.GetAwardById(awardId)
}

func (s *AwardService) GetAllAwards() ([]*repository.Award, error) {
	return s.awardRepository.FindAll()
}

func (s *AwardService) CreateAward(award *repository.Award) (*repository.Award, error) {
	award.ID = 0
	award.Status = repository.ActivationNew
	award.TreeSort = nil
	if award.Level == repository.AwardLevelQualifier && award.Threshold == nil {
		return nil, app_error.BadRequest(fmt.Errorf("qualifier award %q needs a threshold", award.Name))
	}
	if _, err := repository.NewEntityRepository(s.db).GetEntityById(award.EntityID); err != nil {
		return nil, err
	}
	return s.awardRepository.Save(award)
}

// SeedAwards creates or updates the catalog's awards by (entity code, name). Seeded awards are
// active. Running it twice leaves the same rows.
func (s *AwardService) SeedAwards(ctx context.Context, catalog *config.AwardCatalog) (*SeedResult, error) {
	result := &SeedResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entityRepository := repository.NewEntityRepository(tx)
		awardRepository := repository.NewAwardRepository(tx)
		for _, entityAwards := range catalog.Entities {
			entity, err := entityRepository.GetEntityByCode(entityAwards.EntityCode)
			if err != nil {
				return fmt.Errorf("entity %s: %w", entityAwards.EntityCode, err)
			}
			for _, definition := range entityAwards.Awards {
				award, err := awardRepository.GetAwardByName(entity.ID, definition.Name)
				switch {
				case errors.Is(err, gorm.ErrRecordNotFound):
					award = &repository.Award{EntityID: entity.ID, Name: definition.Name, Status: repository.ActivationActive}
					result.Created++
				case err != nil:
					return err
				default:
					result.Updated++
				}
				if err := applyDefinition(award, definition); err != nil {
					return err
				}
				if _, err := awardRepository.Save(award); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.Info("seeded award catalog", "created", result.Created, "updated", result.Updated)
	return result, nil
}

func applyDefinition(award *repository.Award, definition config.AwardDefinition) error {
	kind, err := repository.ParseAwardKind(definition.Kind)
	if err != nil {
		return err
	}
	level, err := repository.ParseAwardLevel(definition.Level)
	if err != nil {
		return err
	}
	award.Kind = kind
	award.Level = level
	award.Threshold = definition.Threshold
	award.Minimum = definition.Minimum
	award.Advance = definition.Advance
	award.IsPrimary = definition.IsPrimary
	award.IsSingle = definition.IsSingle
	return nil
}
