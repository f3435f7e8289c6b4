package repository

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PanelKind int

const (
	PanelKindOfficial  PanelKind = 10
	PanelKindPractice  PanelKind = 20
	PanelKindComposite PanelKind = 30
)

func (k PanelKind) String() string {
	switch k {
	case PanelKindOfficial:
		return "official"
	case PanelKindPractice:
		return "practice"
	case PanelKindComposite:
		return "composite"
	}
	return fmt.Sprintf("PanelKind(%d)", int(k))
}

type PanelCategory int

const (
	PanelCategoryDRCJ        PanelCategory = 5
	PanelCategoryCA          PanelCategory = 10
	PanelCategoryACA         PanelCategory = 20
	PanelCategoryMusic       PanelCategory = 30
	PanelCategoryPerformance PanelCategory = 40
	PanelCategorySinging     PanelCategory = 50
)

func (c PanelCategory) String() string {
	switch c {
	case PanelCategoryDRCJ:
		return "drcj"
	case PanelCategoryCA:
		return "ca"
	case PanelCategoryACA:
		return "aca"
	case PanelCategoryMusic:
		return "music"
	case PanelCategoryPerformance:
		return "performance"
	case PanelCategorySinging:
		return "singing"
	}
	return fmt.Sprintf("PanelCategory(%d)", int(c))
}

// Scored reports whether panelists of the category enter points. CA and ACA sit without scoring.
func (c PanelCategory) Scored() bool {
	return c == PanelCategoryMusic || c == PanelCategoryPerformance || c == PanelCategorySinging
}

// Sits reports whether an assignment of this category takes a seat on a round panel.
func (c PanelCategory) Sits() bool {
	return c >= PanelCategoryCA
}

// Assignment is a person's appointment to a convention in one category.
type Assignment struct {
	ID           int              `gorm:"primaryKey"`
	ConventionID int              `gorm:"not null;index"`
	PersonName   string           `gorm:"not null"`
	Category     PanelCategory    `gorm:"not null"`
	Kind         PanelKind        `gorm:"not null"`
	Status       ActivationStatus `gorm:"not null;default:new"`
}

type AssignmentRepository struct {
	DB *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) *AssignmentRepository {
	return &AssignmentRepository{DB: db}
}

func (r *AssignmentRepository) GetAssignmentForUpdate(assignmentId int) (*Assignment, error) {
	var assignment Assignment
	result := r.DB.Clauses(clause.Locking{Strength: "UPDATE"}).First(&assignment, assignmentId)
	if result.Error != nil {
		return nil, result.Error
	}
	return &assignment, nil
}

func (r *AssignmentRepository) GetAssignmentsForConvention(conventionId int) ([]*Assignment, error) {
	assignments := make([]*Assignment, 0)
	result := r.DB.Where("convention_id = ?", conventionId).Order("category, person_name").Find(&assignments)
	if result.Error != nil {
		return nil, result.Error
	}
	return assignments, nil
}

// GetPanelAssignments returns the active assignments that sit on round panels, ordered by category and name.
func (r *AssignmentRepository) GetPanelAssignments(conventionId int) ([]*Assignment, error) {
	assignments := make([]*Assignment, 0)
	result := r.DB.Where("convention_id = ? AND status = ? AND category >= ?", conventionId, ActivationActive, PanelCategoryCA).
		Order("category, person_name, id").
		Find(&assignments)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to load panel assignments: %w", result.Error)
	}
	return assignments, nil
}

func (r *AssignmentRepository) Save(assignment *Assignment) (*Assignment, error) {
	result := r.DB.Save(assignment)
	if result.Error != nil {
		return nil, result.Error
	}
	return assignment, nil
}
