package repository

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ResolutionKind records which branch of the award rule produced an outcome's name.
type ResolutionKind string

const (
	ResolutionPending     ResolutionKind = "pending"
	ResolutionRecipient   ResolutionKind = "recipient"
	ResolutionQualifiers  ResolutionKind = "qualifiers"
	ResolutionNoRecipient ResolutionKind = "no_recipient"
	ResolutionNoQualifier ResolutionKind = "no_qualifiers"
	ResolutionInFinals    ResolutionKind = "in_finals"
	ResolutionDeferred    ResolutionKind = "deferred"
	ResolutionManual      ResolutionKind = "manual"
)

type Outcome struct {
	ID      int            `gorm:"primaryKey"`
	RoundID int            `gorm:"not null;uniqueIndex:idx_outcome_round_award"`
	AwardID int            `gorm:"not null;uniqueIndex:idx_outcome_round_award"`
	Num     int            `gorm:"not null"`
	Name    *string        `gorm:"type:varchar(1024)"`
	Result  ResolutionKind `gorm:"not null;default:pending"`
	Frozen  bool           `gorm:"not null;default:false"`
	Award   *Award         `gorm:"foreignKey:AwardID"`
}

type OutcomeRepository struct {
	DB *gorm.DB
}

func NewOutcomeRepository(db *gorm.DB) *OutcomeRepository {
	return &OutcomeRepository{DB: db}
}

func (r *OutcomeRepository) GetOutcomesForRound(roundId int) ([]*Outcome, error) {
	outcomes := make([]*Outcome, 0)
	result := r.DB.Preload("Award").Where("round_id = ?", roundId).Order("num").Find(&outcomes)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to load outcomes: %w", result.Error)
	}
	return outcomes, nil
}

func (r *OutcomeRepository) GetOutcomeForUpdate(roundId int, awardId int) (*Outcome, error) {
	var outcome Outcome
	result := r.DB.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("round_id = ? AND award_id = ?", roundId, awardId).
		First(&outcome)
	if result.Error != nil {
		return nil, result.Error
	}
	return &outcome, nil
}

func (r *OutcomeRepository) CreateOutcomes(outcomes []*Outcome) error {
	if len(outcomes) == 0 {
		return nil
	}
	result := r.DB.Omit("Award").Create(&outcomes)
	if result.Error != nil {
		return fmt.Errorf("failed to create outcomes: %w", result.Error)
	}
	return nil
}

func (r *OutcomeRepository) Save(outcome *Outcome) error {
	result := r.DB.Omit(clause.Associations).Save(outcome)
	if result.Error != nil {
		return fmt.Errorf("failed to save outcome: %w", result.Error)
	}
	return nil
}

func (r *OutcomeRepository) FreezeOutcomes(roundId int) error {
	result := r.DB.Model(&Outcome{}).Where("round_id = ?", roundId).Update("frozen", true)
	if result.Error != nil {
		return fmt.Errorf("failed to freeze outcomes: %w", result.Error)
	}
	return nil
}
