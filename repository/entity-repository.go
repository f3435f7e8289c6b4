package repository

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EntityKind int

const (
	EntityKindInternational EntityKind = 1
	EntityKindDistrict      EntityKind = 11
	EntityKindNoncomp       EntityKind = 12
	EntityKindDivision      EntityKind = 21
	EntityKindChapter       EntityKind = 30
	EntityKindChorus        EntityKind = 32
	EntityKindQuartet       EntityKind = 41
)

var entityKindNames = map[EntityKind]string{
	EntityKindInternational: "international",
	EntityKindDistrict:      "district",
	EntityKindNoncomp:       "noncomp",
	EntityKindDivision:      "division",
	EntityKindChapter:       "chapter",
	EntityKindChorus:        "chorus",
	EntityKindQuartet:       "quartet",
}

func (k EntityKind) String() string {
	if name, ok := entityKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("EntityKind(%d)", int(k))
}

type ActivationStatus string

const (
	ActivationNew      ActivationStatus = "new"
	ActivationActive   ActivationStatus = "active"
	ActivationInactive ActivationStatus = "inactive"
)

// Entity is a node of the organizational hierarchy. Exactly one root (international) has no parent.
type Entity struct {
	ID       int              `gorm:"primaryKey"`
	Name     string           `gorm:"not null"`
	Code     string           `gorm:"not null;default:''"`
	Kind     EntityKind       `gorm:"not null"`
	Status   ActivationStatus `gorm:"not null;default:new"`
	ParentID *int             `gorm:"index"`
	TreeSort *int
}

type EntityRepository struct {
	DB *gorm.DB
}

func NewEntityRepository(db *gorm.DB) *EntityRepository {
	return &EntityRepository{DB: db}
}

func (r *EntityRepository) GetEntityById(entityId int) (*Entity, error) {
	var entity Entity
	result := r.DB.First(&entity, entityId)
	if result.Error != nil {
		return nil, result.Error
	}
	return &entity, nil
}

func (r *EntityRepository) GetEntityByCode(code string) (*Entity, error) {
	var entity Entity
	result := r.DB.Where("code = ?", code).Order("id").First(&entity)
	if result.Error != nil {
		return nil, result.Error
	}
	return &entity, nil
}

func (r *EntityRepository) GetEntityForUpdate(entityId int) (*Entity, error) {
	var entity Entity
	result := r.DB.Clauses(clause.Locking{Strength: "UPDATE"}).First(&entity, entityId)
	if result.Error != nil {
		return nil, result.Error
	}
	return &entity, nil
}

func (r *EntityRepository) FindAll() ([]*Entity, error) {
	timer := prometheus.NewTimer(queryDuration.WithLabelValues("FindAllEntities"))
	defer timer.ObserveDuration()
	entities := make([]*Entity, 0)
	result := r.DB.Order("id").Find(&entities)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to load entities: %w", result.Error)
	}
	return entities, nil
}

func (r *EntityRepository) Save(entity *Entity) (*Entity, error) {
	result := r.DB.Save(entity)
	if result.Error != nil {
		return nil, result.Error
	}
	return entity, nil
}

// SaveTreeSorts clears every tree_sort and writes the given values.
func (r *EntityRepository) SaveTreeSorts(sorts map[int]int) error {
	timer := prometheus.NewTimer(queryDuration.WithLabelValues("SaveEntityTreeSorts"))
	defer timer.ObserveDuration()
	if err := r.DB.Model(&Entity{}).Where("tree_sort IS NOT NULL").Update("tree_sort", nil).Error; err != nil {
		return fmt.Errorf("failed to clear entity tree sorts: %w", err)
	}
	for id, sort := range sorts {
		if err := r.DB.Model(&Entity{}).Where("id = ?", id).Update("tree_sort", sort).Error; err != nil {
			return fmt.Errorf("failed to save tree sort for entity %d: %w", id, err)
		}
	}
	return nil
}
