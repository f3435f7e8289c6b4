package repository

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AppearanceStatus string

const (
	AppearanceNew       AppearanceStatus = "new"
	AppearanceStarted   AppearanceStatus = "started"
	AppearanceFinished  AppearanceStatus = "finished"
	AppearanceConfirmed AppearanceStatus = "confirmed"
)

// Aggregates are the derived category and total figures of a song or appearance.
// All nil means no official score has been recorded yet.
type Aggregates struct {
	MusPoints *int
	PerPoints *int
	SngPoints *int
	TotPoints *int
	MusScore  *float64
	PerScore  *float64
	SngScore  *float64
	TotScore  *float64
}

type Appearance struct {
	ID              int              `gorm:"primaryKey"`
	RoundID         int              `gorm:"not null;index"`
	EntryID         int              `gorm:"not null;index"`
	Num             int              `gorm:"not null"`
	Draw            int              `gorm:"not null;default:0"`
	Status          AppearanceStatus `gorm:"not null;default:new"`
	ActualStart     *time.Time
	ActualFinish    *time.Time
	VarianceReport  *string
	// Set while the last confirmation or recompute flagged a song. The totals are stale until cleared.
	VariancePending bool `gorm:"not null;default:false"`
	Aggregates      `gorm:"embedded"`
	Songs           []*Song `gorm:"foreignKey:AppearanceID;constraint:OnDelete:CASCADE"`
}

type Song struct {
	ID           int    `gorm:"primaryKey"`
	AppearanceID int    `gorm:"not null;index"`
	Num          int    `gorm:"not null"`
	Title        string `gorm:"not null;default:''"`
	Aggregates   `gorm:"embedded"`
	Scores       []*Score `gorm:"foreignKey:SongID;constraint:OnDelete:CASCADE"`
}

type AppearanceRepository struct {
	DB *gorm.DB
}

func NewAppearanceRepository(db *gorm.DB) *AppearanceRepository {
	return &AppearanceRepository{DB: db}
}

func (r *AppearanceRepository) GetAppearanceById(appearanceId int) (*Appearance, error) {
	var appearance Appearance
	result := r.DB.Preload("Songs", func(db *gorm.DB) *gorm.DB {
		return db.Order("num")
	}).Preload("Songs.Scores").First(&appearance, appearanceId)
	if result.Error != nil {
		return nil, result.Error
	}
	return &appearance, nil
}

// GetAppearanceForUpdate locks the appearance row and loads its songs with their scores.
func (r *AppearanceRepository) GetAppearanceForUpdate(appearanceId int) (*Appearance, error) {
	var appearance Appearance
	result := r.DB.Clauses(clause.Locking{Strength: "UPDATE"}).First(&appearance, appearanceId)
	if result.Error != nil {
		return nil, result.Error
	}
	songs := make([]*Song, 0)
	result = r.DB.Preload("Scores").Where("appearance_id = ?", appearanceId).Order("num").Find(&songs)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to load songs: %w", result.Error)
	}
	appearance.Songs = songs
	return &appearance, nil
}

func (r *AppearanceRepository) GetAppearancesForRound(roundId int) ([]*Appearance, error) {
	appearances := make([]*Appearance, 0)
	result := r.DB.Where("round_id = ?", roundId).Order("num").Find(&appearances)
	if result.Error != nil {
		return nil, result.Error
	}
	return appearances, nil
}

// GetScoredAppearancesForRound loads the round's appearances with their songs and scores.
func (r *AppearanceRepository) GetScoredAppearancesForRound(roundId int) ([]*Appearance, error) {
	appearances := make([]*Appearance, 0)
	result := r.DB.Preload("Songs", func(db *gorm.DB) *gorm.DB {
		return db.Order("num")
	}).Preload("Songs.Scores").Where("round_id = ?", roundId).Order("num").Find(&appearances)
	if result.Error != nil {
		return nil, result.Error
	}
	return appearances, nil
}

// GetAppearancesByStatus is used by background sweeps, e.g. to find confirmed appearances without totals.
func (r *AppearanceRepository) GetAppearancesByStatus(status AppearanceStatus) ([]*Appearance, error) {
	appearances := make([]*Appearance, 0)
	result := r.DB.Where("status = ?", status).Order("id").Find(&appearances)
	if result.Error != nil {
		return nil, result.Error
	}
	return appearances, nil
}

// CreateAppearances inserts appearances together with their songs.
func (r *AppearanceRepository) CreateAppearances(appearances []*Appearance) error {
	if len(appearances) == 0 {
		return nil
	}
	result := r.DB.Create(&appearances)
	if result.Error != nil {
		return fmt.Errorf("failed to create appearances: %w", result.Error)
	}
	return nil
}

// SaveAppearance persists the appearance's own columns without touching songs.
func (r *AppearanceRepository) SaveAppearance(appearance *Appearance) error {
	result := r.DB.Omit(clause.Associations).Save(appearance)
	if result.Error != nil {
		return fmt.Errorf("failed to save appearance: %w", result.Error)
	}
	return nil
}

func (r *AppearanceRepository) SaveSongAggregates(songs []*Song) error {
	timer := prometheus.NewTimer(queryDuration.WithLabelValues("SaveSongAggregates"))
	defer timer.ObserveDuration()
	for _, song := range songs {
		result := r.DB.Model(&Song{}).Where("id = ?", song.ID).Select(
			"mus_points", "per_points", "sng_points", "tot_points",
			"mus_score", "per_score", "sng_score", "tot_score",
		).Updates(song)
		if result.Error != nil {
			return fmt.Errorf("failed to save aggregates for song %d: %w", song.ID, result.Error)
		}
	}
	return nil
}

func (r *AppearanceRepository) GetSongById(songId int) (*Song, error) {
	var song Song
	result := r.DB.First(&song, songId)
	if result.Error != nil {
		return nil, result.Error
	}
	return &song, nil
}
