package scoring

import (
	"testing"

	"scorekeeper/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func official(category repository.PanelCategory, points ...int) []*repository.Score {
	scores := make([]*repository.Score, 0, len(points))
	for i, p := range points {
		scores = append(scores, &repository.Score{
			PanelistID: int(category)*10 + i,
			Category:   category,
			Kind:       repository.PanelKindOfficial,
			Points:     p,
		})
	}
	return scores
}

func concat(groups ...[]*repository.Score) []*repository.Score {
	out := make([]*repository.Score, 0)
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func TestAggregateCategoriesAndTotals(t *testing.T) {
	scores := concat(
		official(repository.PanelCategoryMusic, 80, 82),
		official(repository.PanelCategoryPerformance, 75, 77),
		official(repository.PanelCategorySinging, 70, 72),
	)
	totals := Aggregate(scores)

	require.False(t, totals.Pending())
	assert.Equal(t, 162, *totals.MusPoints)
	assert.Equal(t, 152, *totals.PerPoints)
	assert.Equal(t, 142, *totals.SngPoints)
	assert.Equal(t, 456, *totals.TotPoints)
	assert.InDelta(t, 81.0, *totals.MusScore, 1e-9)
	assert.InDelta(t, 76.0, *totals.PerScore, 1e-9)
	assert.InDelta(t, 71.0, *totals.SngScore, 1e-9)
	assert.InDelta(t, 76.0, *totals.TotScore, 1e-9)
}

func TestAggregateIgnoresNonOfficialScores(t *testing.T) {
	scores := official(repository.PanelCategoryMusic, 80)
	scores = append(scores,
		&repository.Score{Category: repository.PanelCategoryMusic, Kind: repository.PanelKindPractice, Points: 10},
		&repository.Score{Category: repository.PanelCategorySinging, Kind: repository.PanelKindComposite, Points: 10},
	)
	totals := Aggregate(scores)

	assert.Equal(t, 80, *totals.MusPoints)
	assert.Equal(t, 80, *totals.TotPoints)
	assert.Nil(t, totals.SngPoints, "a category with only non-official scores stays pending")
	assert.Nil(t, totals.SngScore)
}

func TestAggregateWithoutOfficialScoresIsPending(t *testing.T) {
	totals := Aggregate(nil)
	assert.True(t, totals.Pending())
	assert.Nil(t, totals.TotScore)

	practiceOnly := []*repository.Score{{Category: repository.PanelCategoryMusic, Kind: repository.PanelKindPractice, Points: 90}}
	assert.True(t, Aggregate(practiceOnly).Pending())
}

func TestAggregateIgnoresAdministrativeScores(t *testing.T) {
	scores := concat(
		official(repository.PanelCategoryMusic, 70),
		official(repository.PanelCategoryPerformance, 70),
		official(repository.PanelCategorySinging, 70),
		official(repository.PanelCategoryCA, 100),
		official(repository.PanelCategoryACA, 100),
	)
	totals := Aggregate(scores)

	assert.Equal(t, 210, *totals.TotPoints)
	assert.Equal(t, *totals.MusPoints+*totals.PerPoints+*totals.SngPoints, *totals.TotPoints)
	assert.InDelta(t, 70.0, *totals.TotScore, 1e-9)

	assert.True(t, Aggregate(official(repository.PanelCategoryCA, 90)).Pending())
}

func TestAggregateAppearanceUsesUnweightedMean(t *testing.T) {
	songs := []*repository.Song{
		{ID: 1, Scores: official(repository.PanelCategoryMusic, 90)},
		{ID: 2, Scores: official(repository.PanelCategoryMusic, 60, 60, 60)},
	}
	totals := AggregateAppearance(songs)

	// mean over the four scores, not the mean of the two song means (75)
	assert.InDelta(t, 67.5, *totals.MusScore, 1e-9)
	assert.Equal(t, 270, *totals.TotPoints)
}

func TestAggregateIsIdempotent(t *testing.T) {
	scores := concat(
		official(repository.PanelCategoryMusic, 70, 71),
		official(repository.PanelCategorySinging, 68),
	)
	assert.Equal(t, Aggregate(scores), Aggregate(scores))
}

func TestTotalsRoundTripThroughAggregates(t *testing.T) {
	totals := Aggregate(official(repository.PanelCategoryPerformance, 77))
	assert.Equal(t, totals, FromAggregates(totals.Aggregates()))
}
