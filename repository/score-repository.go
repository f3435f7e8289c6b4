package repository

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Score is one panelist's raw mark for one song. Kind and category are copied from the panelist.
type Score struct {
	ID         int           `gorm:"primaryKey"`
	SongID     int           `gorm:"not null;uniqueIndex:idx_score_song_panelist"`
	PanelistID int           `gorm:"not null;uniqueIndex:idx_score_song_panelist"`
	Category   PanelCategory `gorm:"not null"`
	Kind       PanelKind     `gorm:"not null"`
	Points     int           `gorm:"not null"`
}

// Panelist is a judge seated on one round.
type Panelist struct {
	ID           int           `gorm:"primaryKey"`
	RoundID      int           `gorm:"not null;index"`
	AssignmentID *int          `gorm:"index"`
	PersonName   string        `gorm:"not null"`
	Category     PanelCategory `gorm:"not null"`
	Kind         PanelKind     `gorm:"not null"`
}

// EntryScore is an official score flattened with the entry it belongs to.
type EntryScore struct {
	EntryID  int
	RoundNum int
	Category PanelCategory
	Kind     PanelKind
	Points   int
}

type ScoreRepository struct {
	DB *gorm.DB
}

func NewScoreRepository(db *gorm.DB) *ScoreRepository {
	return &ScoreRepository{DB: db}
}

func (r *ScoreRepository) GetPanelistsForRound(roundId int) ([]*Panelist, error) {
	panelists := make([]*Panelist, 0)
	result := r.DB.Where("round_id = ?", roundId).Order("category, person_name, id").Find(&panelists)
	if result.Error != nil {
		return nil, result.Error
	}
	return panelists, nil
}

func (r *ScoreRepository) CreatePanelists(panelists []*Panelist) error {
	if len(panelists) == 0 {
		return nil
	}
	result := r.DB.Create(&panelists)
	if result.Error != nil {
		return fmt.Errorf("failed to create panelists: %w", result.Error)
	}
	return nil
}

func (r *ScoreRepository) GetScoresForSong(songId int) ([]*Score, error) {
	scores := make([]*Score, 0)
	result := r.DB.Where("song_id = ?", songId).Order("category, panelist_id").Find(&scores)
	if result.Error != nil {
		return nil, result.Error
	}
	return scores, nil
}

// UpsertScores writes the given scores, replacing the points of an existing (song, panelist) pair.
func (r *ScoreRepository) UpsertScores(scores []*Score) error {
	if len(scores) == 0 {
		return nil
	}
	result := r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "song_id"}, {Name: "panelist_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"points", "category", "kind"}),
	}).Create(&scores)
	if result.Error != nil {
		return fmt.Errorf("failed to save scores: %w", result.Error)
	}
	return nil
}

// GetOfficialEntryScores collects the official scores of the given entries across the session's
// rounds up to and including round number maxRoundNum.
func (r *ScoreRepository) GetOfficialEntryScores(sessionId int, maxRoundNum int, entryIds []int) ([]*EntryScore, error) {
	timer := prometheus.NewTimer(queryDuration.WithLabelValues("GetOfficialEntryScores"))
	defer timer.ObserveDuration()
	scores := make([]*EntryScore, 0)
	if len(entryIds) == 0 {
		return scores, nil
	}
	result := r.DB.Table("scorekeeper.scores AS sc").
		Select("ap.entry_id AS entry_id, rd.num AS round_num, sc.category AS category, sc.kind AS kind, sc.points AS points").
		Joins("JOIN scorekeeper.songs so ON so.id = sc.song_id").
		Joins("JOIN scorekeeper.appearances ap ON ap.id = so.appearance_id").
		Joins("JOIN scorekeeper.rounds rd ON rd.id = ap.round_id").
		Where("rd.session_id = ? AND rd.num <= ? AND ap.entry_id IN ? AND sc.kind = ?", sessionId, maxRoundNum, entryIds, PanelKindOfficial).
		Order("ap.entry_id, rd.num, sc.id").
		Scan(&scores)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to load entry scores: %w", result.Error)
	}
	return scores, nil
}
