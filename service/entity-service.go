package service

import (
	"context"
	"sync"

	"scorekeeper/hierarchy"
	"scorekeeper/metrics"
	"scorekeeper/repository"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// Resorts are exclusive per process. Concurrent callers share the run in flight.
var (
	resortMu    sync.Mutex
	resortGroup singleflight.Group
)

type ResortResult struct {
	Entities int `json:"entities"`
	Awards   int `json:"awards"`
}

type EntityService struct {
	db               *gorm.DB
	entityRepository *repository.EntityRepository
}

func NewEntityService(db *gorm.DB) *EntityService {
	return &EntityService{
		db:               db,
		entityRepository: repository.NewEntityRepository(db),
	}
}

func (s *EntityService) GetEntityById(entityId int) (*repository.Entity, error) {
	return s.entityRepository.GetEntityById(entityId)
}

func (s *EntityService) GetAllEntities() ([]*repository.Entity, error) {
	return s.entityRepository.FindAll()
}

// CreateEntity adds a node to the hierarchy. The hierarchy is locked against concurrent resorts
// so the parent check sees a consistent tree.
func (s *EntityService) CreateEntity(ctx context.Context, entity *repository.Entity) (*repository.Entity, error) {
	entity.ID = 0
	entity.Status = repository.ActivationNew
	entity.TreeSort = nil
	resortMu.Lock()
	defer resortMu.Unlock()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entityRepository := repository.NewEntityRepository(tx)
		entities, err := entityRepository.FindAll()
		if err != nil {
			return err
		}
		if err := hierarchy.ValidateParent(entities, entity, entity.ParentID); err != nil {
			return err
		}
		_, err = entityRepository.Save(entity)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entity, nil
}

// SetParent moves an entity under a new parent. Moves that would create a cycle are rejected.
func (s *EntityService) SetParent(ctx context.Context, entityId int, parentId *int) (*repository.Entity, error) {
	var entity *repository.Entity
	resortMu.Lock()
	defer resortMu.Unlock()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entityRepository := repository.NewEntityRepository(tx)
		var err error
		entity, err = entityRepository.GetEntityForUpdate(entityId)
		if err != nil {
			return err
		}
		entities, err := entityRepository.FindAll()
		if err != nil {
			return err
		}
		if err := hierarchy.ValidateParent(entities, entity, parentId); err != nil {
			return err
		}
		entity.ParentID = parentId
		_, err = entityRepository.Save(entity)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entity, nil
}

// ResortHierarchy recomputes tree_sort for every entity and award in one transaction.
func (s *EntityService) ResortHierarchy(ctx context.Context) (*ResortResult, error) {
	// the run is shared, so one caller giving up must not fail the others
	ctx = context.WithoutCancel(ctx)
	result, err, _ := resortGroup.Do("resort", func() (any, error) {
		resortMu.Lock()
		defer resortMu.Unlock()
		return s.resort(ctx)
	})
	if err != nil {
		return nil, err
	}
	return result.(*ResortResult), nil
}

func (s *EntityService) resort(ctx context.Context) (result *ResortResult, err error) {
	ctx, span := tracer.Start(ctx, "EntityService.ResortHierarchy")
	defer func() { endSpan(span, err) }()
	timer := prometheus.NewTimer(metrics.ResortDuration)
	defer timer.ObserveDuration()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entityRepository := repository.NewEntityRepository(tx)
		awardRepository := repository.NewAwardRepository(tx)
		entities, err := entityRepository.FindAll()
		if err != nil {
			return err
		}
		entitySorts, err := hierarchy.TreeSort(entities)
		if err != nil {
			return err
		}
		if err := entityRepository.SaveTreeSorts(entitySorts); err != nil {
			return err
		}
		awards, err := awardRepository.FindAll()
		if err != nil {
			return err
		}
		awardSorts := hierarchy.AwardSort(awards, entitySorts)
		if err := awardRepository.SaveTreeSorts(awardSorts); err != nil {
			return err
		}
		result = &ResortResult{Entities: len(entitySorts), Awards: len(awardSorts)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
