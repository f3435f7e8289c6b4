package scoring

import (
	"testing"

	"scorekeeper/repository"

	"github.com/stretchr/testify/assert"
)

func TestCheckVariance(t *testing.T) {
	tests := []struct {
		name    string
		scores  []*repository.Score
		flagged int
	}{
		{
			name:    "close scores do not flag",
			scores:  official(repository.PanelCategoryMusic, 80, 82, 78),
			flagged: 0,
		},
		{
			name:    "outlier flags",
			scores:  official(repository.PanelCategorySinging, 80, 80, 65),
			flagged: 3,
		},
		{
			name:    "deviation equal to tolerance flags",
			scores:  official(repository.PanelCategoryPerformance, 70, 80),
			flagged: 2,
		},
		{
			name:    "single score never flags",
			scores:  official(repository.PanelCategoryMusic, 10),
			flagged: 0,
		},
		{
			name: "practice scores are ignored",
			scores: append(official(repository.PanelCategoryMusic, 80, 80),
				&repository.Score{Category: repository.PanelCategoryMusic, Kind: repository.PanelKindPractice, Points: 20}),
			flagged: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := CheckVariance(&repository.Song{ID: 7, Scores: tt.scores}, DefaultVarianceTolerance)
			assert.Len(t, flags, tt.flagged)
			for _, flag := range flags {
				assert.Equal(t, 7, flag.SongID)
			}
		})
	}
}

func TestCheckVarianceRespectsTolerance(t *testing.T) {
	song := &repository.Song{Scores: official(repository.PanelCategoryMusic, 80, 86)}
	assert.Empty(t, CheckVariance(song, 3.5))
	assert.Len(t, CheckVariance(song, 3.0), 2)
}
