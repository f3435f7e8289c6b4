package repository

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ConventionStatus shares the session phases so a convention can be compared against its sessions.
type ConventionStatus = SessionStatus

type Convention struct {
	ID           int              `gorm:"primaryKey"`
	Name         string           `gorm:"not null"`
	Season       string           `gorm:"not null;default:''"`
	Year         int              `gorm:"not null"`
	OpenDate     *time.Time       `gorm:"type:date"`
	CloseDate    *time.Time       `gorm:"type:date"`
	StartDate    *time.Time       `gorm:"type:date"`
	EndDate      *time.Time       `gorm:"type:date"`
	EntityID     int              `gorm:"not null;index"`
	Status       ConventionStatus `gorm:"not null;default:new"`
	SessionKinds pq.StringArray   `gorm:"not null;type:text[]"`
	Sessions     []*Session       `gorm:"foreignKey:ConventionID;constraint:OnDelete:CASCADE"`
}

type ConventionRepository struct {
	DB *gorm.DB
}

func NewConventionRepository(db *gorm.DB) *ConventionRepository {
	return &ConventionRepository{DB: db}
}

func (r *ConventionRepository) GetConventionById(conventionId int, preloads ...string) (*Convention, error) {
	var convention Convention
	query := r.DB
	for _, preload := range preloads {
		query = query.Preload(preload)
	}
	result := query.First(&convention, conventionId)
	if result.Error != nil {
		return nil, result.Error
	}
	return &convention, nil
}

func (r *ConventionRepository) GetConventionForUpdate(conventionId int) (*Convention, error) {
	var convention Convention
	result := r.DB.Clauses(clause.Locking{Strength: "UPDATE"}).First(&convention, conventionId)
	if result.Error != nil {
		return nil, result.Error
	}
	return &convention, nil
}

func (r *ConventionRepository) FindAll() ([]*Convention, error) {
	conventions := make([]*Convention, 0)
	result := r.DB.Order("year desc, id").Find(&conventions)
	if result.Error != nil {
		return nil, result.Error
	}
	return conventions, nil
}

func (r *ConventionRepository) Save(convention *Convention) (*Convention, error) {
	result := r.DB.Save(convention)
	if result.Error != nil {
		return nil, result.Error
	}
	return convention, nil
}
