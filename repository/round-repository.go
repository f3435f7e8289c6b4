package repository

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RoundKind int

const (
	RoundKindFinals   RoundKind = 1
	RoundKindSemis    RoundKind = 2
	RoundKindQuarters RoundKind = 3
)

func (k RoundKind) String() string {
	switch k {
	case RoundKindFinals:
		return "finals"
	case RoundKindSemis:
		return "semis"
	case RoundKindQuarters:
		return "quarters"
	}
	return fmt.Sprintf("RoundKind(%d)", int(k))
}

type RoundStatus string

const (
	RoundNew       RoundStatus = "new"
	RoundBuilt     RoundStatus = "built"
	RoundStarted   RoundStatus = "started"
	RoundFinished  RoundStatus = "finished"
	RoundReviewed  RoundStatus = "reviewed"
	RoundVerified  RoundStatus = "verified"
	RoundPublished RoundStatus = "published"
)

// Round is one stage of a session. Num counts up chronologically, Kind counts down to finals.
type Round struct {
	ID          int           `gorm:"primaryKey"`
	SessionID   int           `gorm:"not null;index"`
	Kind        RoundKind     `gorm:"not null"`
	Num         int           `gorm:"not null"`
	Status      RoundStatus   `gorm:"not null;default:new"`
	Appearances []*Appearance `gorm:"foreignKey:RoundID;constraint:OnDelete:CASCADE"`
	Panelists   []*Panelist   `gorm:"foreignKey:RoundID;constraint:OnDelete:CASCADE"`
	Outcomes    []*Outcome    `gorm:"foreignKey:RoundID;constraint:OnDelete:CASCADE"`
}

type RoundRepository struct {
	DB *gorm.DB
}

func NewRoundRepository(db *gorm.DB) *RoundRepository {
	return &RoundRepository{DB: db}
}

func (r *RoundRepository) GetRoundById(roundId int, preloads ...string) (*Round, error) {
	var round Round
	query := r.DB
	for _, preload := range preloads {
		query = query.Preload(preload)
	}
	result := query.First(&round, roundId)
	if result.Error != nil {
		return nil, result.Error
	}
	return &round, nil
}

func (r *RoundRepository) GetRoundForUpdate(roundId int) (*Round, error) {
	var round Round
	result := r.DB.Clauses(clause.Locking{Strength: "UPDATE"}).First(&round, roundId)
	if result.Error != nil {
		return nil, result.Error
	}
	return &round, nil
}

// GetRoundForShare locks the round against concurrent transitions while a child appearance changes.
func (r *RoundRepository) GetRoundForShare(roundId int) (*Round, error) {
	var round Round
	result := r.DB.Clauses(clause.Locking{Strength: "SHARE"}).First(&round, roundId)
	if result.Error != nil {
		return nil, result.Error
	}
	return &round, nil
}

func (r *RoundRepository) GetRoundsForSession(sessionId int) ([]*Round, error) {
	rounds := make([]*Round, 0)
	result := r.DB.Where("session_id = ?", sessionId).Order("num").Find(&rounds)
	if result.Error != nil {
		return nil, result.Error
	}
	return rounds, nil
}

func (r *RoundRepository) Save(round *Round) (*Round, error) {
	result := r.DB.Save(round)
	if result.Error != nil {
		return nil, result.Error
	}
	return round, nil
}

func (r *RoundRepository) CreateRounds(rounds []*Round) error {
	if len(rounds) == 0 {
		return nil
	}
	result := r.DB.Create(&rounds)
	if result.Error != nil {
		return fmt.Errorf("failed to create rounds: %w", result.Error)
	}
	return nil
}
