package repository

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ContestStatus string

const (
	ContestNew      ContestStatus = "new"
	ContestIncluded ContestStatus = "included"
	ContestExcluded ContestStatus = "excluded"
)

// Contest puts one award up for competition within a session.
type Contest struct {
	ID          int           `gorm:"primaryKey"`
	SessionID   int           `gorm:"not null;index;uniqueIndex:idx_contest_session_award"`
	AwardID     int           `gorm:"not null;uniqueIndex:idx_contest_session_award"`
	Status      ContestStatus `gorm:"not null;default:new"`
	Award       *Award        `gorm:"foreignKey:AwardID"`
	Contestants []*Contestant `gorm:"foreignKey:ContestID;constraint:OnDelete:CASCADE"`
}

// Contestant links an entry to a contest it competes in.
type Contestant struct {
	ID        int              `gorm:"primaryKey"`
	EntryID   int              `gorm:"not null;uniqueIndex:idx_contestant_entry_contest"`
	ContestID int              `gorm:"not null;uniqueIndex:idx_contestant_entry_contest"`
	Status    ActivationStatus `gorm:"not null;default:active"`
}

type ContestRepository struct {
	DB *gorm.DB
}

func NewContestRepository(db *gorm.DB) *ContestRepository {
	return &ContestRepository{DB: db}
}

func (r *ContestRepository) GetContestForUpdate(contestId int) (*Contest, error) {
	var contest Contest
	result := r.DB.Clauses(clause.Locking{Strength: "UPDATE"}).First(&contest, contestId)
	if result.Error != nil {
		return nil, result.Error
	}
	return &contest, nil
}

func (r *ContestRepository) GetContestsForSession(sessionId int) ([]*Contest, error) {
	contests := make([]*Contest, 0)
	result := r.DB.Preload("Award").Where("session_id = ?", sessionId).Order("id").Find(&contests)
	if result.Error != nil {
		return nil, result.Error
	}
	return contests, nil
}

func (r *ContestRepository) GetIncludedContests(sessionId int) ([]*Contest, error) {
	contests := make([]*Contest, 0)
	result := r.DB.Preload("Award").
		Where("session_id = ? AND status = ?", sessionId, ContestIncluded).
		Order("id").
		Find(&contests)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to load included contests: %w", result.Error)
	}
	return contests, nil
}

func (r *ContestRepository) GetContestForAward(sessionId int, awardId int) (*Contest, error) {
	var contest Contest
	result := r.DB.Where("session_id = ? AND award_id = ?", sessionId, awardId).First(&contest)
	if result.Error != nil {
		return nil, result.Error
	}
	return &contest, nil
}

func (r *ContestRepository) Save(contest *Contest) (*Contest, error) {
	result := r.DB.Save(contest)
	if result.Error != nil {
		return nil, result.Error
	}
	return contest, nil
}

func (r *ContestRepository) CreateContests(contests []*Contest) error {
	if len(contests) == 0 {
		return nil
	}
	result := r.DB.Create(&contests)
	if result.Error != nil {
		return fmt.Errorf("failed to create contests: %w", result.Error)
	}
	return nil
}

// EnterContests creates the missing contestant rows for an entry. Existing rows keep their status.
func (r *ContestRepository) EnterContests(entryId int, contestIds []int) error {
	if len(contestIds) == 0 {
		return nil
	}
	contestants := make([]*Contestant, 0, len(contestIds))
	for _, contestId := range contestIds {
		contestants = append(contestants, &Contestant{EntryID: entryId, ContestID: contestId, Status: ActivationActive})
	}
	result := r.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&contestants)
	if result.Error != nil {
		return fmt.Errorf("failed to create contestants: %w", result.Error)
	}
	return nil
}

func (r *ContestRepository) GetContestantForUpdate(contestantId int) (*Contestant, error) {
	var contestant Contestant
	result := r.DB.Clauses(clause.Locking{Strength: "UPDATE"}).First(&contestant, contestantId)
	if result.Error != nil {
		return nil, result.Error
	}
	return &contestant, nil
}

func (r *ContestRepository) SaveContestant(contestant *Contestant) (*Contestant, error) {
	result := r.DB.Save(contestant)
	if result.Error != nil {
		return nil, result.Error
	}
	return contestant, nil
}

// GetContendingEntries returns approved entries with an active contestant row in the contest.
func (r *ContestRepository) GetContendingEntries(contestId int) ([]*Entry, error) {
	entries := make([]*Entry, 0)
	result := r.DB.Model(&Entry{}).
		Joins("JOIN scorekeeper.contestants ct ON ct.entry_id = entries.id").
		Where("ct.contest_id = ? AND ct.status = ? AND entries.status = ?", contestId, ActivationActive, EntryApproved).
		Order("entries.id").
		Find(&entries)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to load contending entries: %w", result.Error)
	}
	return entries, nil
}
