package scoring

import (
	"math"

	"scorekeeper/repository"
)

const DefaultVarianceTolerance = 5.0

var scoredCategories = []repository.PanelCategory{
	repository.PanelCategoryMusic,
	repository.PanelCategoryPerformance,
	repository.PanelCategorySinging,
}

// VarianceFlag is one official score too far from its category mean.
type VarianceFlag struct {
	SongID     int                      `json:"song_id"`
	PanelistID int                      `json:"panelist_id"`
	Category   repository.PanelCategory `json:"category"`
	Points     int                      `json:"points"`
	Mean       float64                  `json:"mean"`
}

// CheckVariance returns the official scores of a song whose absolute deviation from the
// category mean is at least tolerance. A category with fewer than two scores never flags.
func CheckVariance(song *repository.Song, tolerance float64) []VarianceFlag {
	flags := make([]VarianceFlag, 0)
	for _, category := range scoredCategories {
		scores := make([]*repository.Score, 0)
		for _, score := range song.Scores {
			if score.Kind == repository.PanelKindOfficial && score.Category == category {
				scores = append(scores, score)
			}
		}
		if len(scores) < 2 {
			continue
		}
		sum := 0
		for _, score := range scores {
			sum += score.Points
		}
		mean := float64(sum) / float64(len(scores))
		for _, score := range scores {
			if math.Abs(float64(score.Points)-mean) >= tolerance {
				flags = append(flags, VarianceFlag{
					SongID:     song.ID,
					PanelistID: score.PanelistID,
					Category:   category,
					Points:     score.Points,
					Mean:       mean,
				})
			}
		}
	}
	return flags
}
