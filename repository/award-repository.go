package repository

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AwardKind int

const (
	AwardKindChorus  AwardKind = 32
	AwardKindQuartet AwardKind = 41
)

func (k AwardKind) String() string {
	switch k {
	case AwardKindChorus:
		return "chorus"
	case AwardKindQuartet:
		return "quartet"
	}
	return fmt.Sprintf("AwardKind(%d)", int(k))
}

func ParseAwardKind(s string) (AwardKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "chorus":
		return AwardKindChorus, nil
	case "quartet":
		return AwardKindQuartet, nil
	}
	return 0, fmt.Errorf("unknown award kind %q", s)
}

// AwardLevel selects the rule used to name an award's recipient.
type AwardLevel int

const (
	AwardLevelChampionship   AwardLevel = 10
	AwardLevelRepresentative AwardLevel = 15
	AwardLevelQualifier      AwardLevel = 20
	AwardLevelAward          AwardLevel = 30
	AwardLevelDeferred       AwardLevel = 40
	AwardLevelManual         AwardLevel = 50
	AwardLevelRaw            AwardLevel = 60
	AwardLevelStandard       AwardLevel = 70
)

var awardLevelNames = map[AwardLevel]string{
	AwardLevelChampionship:   "championship",
	AwardLevelRepresentative: "representative",
	AwardLevelQualifier:      "qualifier",
	AwardLevelAward:          "award",
	AwardLevelDeferred:       "deferred",
	AwardLevelManual:         "manual",
	AwardLevelRaw:            "raw",
	AwardLevelStandard:       "standard",
}

func (l AwardLevel) String() string {
	if name, ok := awardLevelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("AwardLevel(%d)", int(l))
}

func ParseAwardLevel(s string) (AwardLevel, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for level, name := range awardLevelNames {
		if name == s {
			return level, nil
		}
	}
	return 0, fmt.Errorf("unknown award level %q", s)
}

type Award struct {
	ID        int              `gorm:"primaryKey"`
	EntityID  int              `gorm:"not null;index"`
	Name      string           `gorm:"not null"`
	Kind      AwardKind        `gorm:"not null"`
	Level     AwardLevel       `gorm:"not null"`
	Threshold *float64         `gorm:"type:numeric(4,1)"`
	Minimum   *float64         `gorm:"type:numeric(4,1)"`
	Advance   *int
	IsPrimary bool             `gorm:"not null;default:false"`
	IsSingle  bool             `gorm:"not null;default:false"`
	Status    ActivationStatus `gorm:"not null;default:new"`
	TreeSort  *int
}

type AwardRepository struct {
	DB *gorm.DB
}

func NewAwardRepository(db *gorm.DB) *AwardRepository {
	return &AwardRepository{DB: db}
}

func (r *AwardRepository) GetAwardById(awardId int) (*Award, error) {
	var award Award
	result := r.DB.First(&award, awardId)
	if result.Error != nil {
		return nil, result.Error
	}
	return &award, nil
}

func (r *AwardRepository) GetAwardForUpdate(awardId int) (*Award, error) {
	var award Award
	result := r.DB.Clauses(clause.Locking{Strength: "UPDATE"}).First(&award, awardId)
	if result.Error != nil {
		return nil, result.Error
	}
	return &award, nil
}

func (r *AwardRepository) FindAll() ([]*Award, error) {
	awards := make([]*Award, 0)
	result := r.DB.Order("tree_sort NULLS LAST, id").Find(&awards)
	if result.Error != nil {
		return nil, result.Error
	}
	return awards, nil
}

func (r *AwardRepository) GetActiveAwardsForEntity(entityId int) ([]*Award, error) {
	awards := make([]*Award, 0)
	result := r.DB.Where("entity_id = ? AND status = ?", entityId, ActivationActive).Order("tree_sort NULLS LAST, id").Find(&awards)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to load awards: %w", result.Error)
	}
	return awards, nil
}

// GetAwardByName looks up an award of an entity by name, used to make catalog seeding idempotent.
func (r *AwardRepository) GetAwardByName(entityId int, name string) (*Award, error) {
	var award Award
	result := r.DB.Where("entity_id = ? AND name = ?", entityId, name).First(&award)
	if result.Error != nil {
		return nil, result.Error
	}
	return &award, nil
}

func (r *AwardRepository) Save(award *Award) (*Award, error) {
	result := r.DB.Save(award)
	if result.Error != nil {
		return nil, result.Error
	}
	return award, nil
}

func (r *AwardRepository) SaveTreeSorts(sorts map[int]int) error {
	if err := r.DB.Model(&Award{}).Where("tree_sort IS NOT NULL").Update("tree_sort", nil).Error; err != nil {
		return fmt.Errorf("failed to clear award tree sorts: %w", err)
	}
	for id, sort := range sorts {
		if err := r.DB.Model(&Award{}).Where("id = ?", id).Update("tree_sort", sort).Error; err != nil {
			return fmt.Errorf("failed to save tree sort for award %d: %w", id, err)
		}
	}
	return nil
}
