package scoring

import (
	"scorekeeper/repository"
	"scorekeeper/utils"
)

// Totals are the category and overall figures computed from official scores.
// Every field is nil until at least one qualifying score exists.
type Totals struct {
	MusPoints *int     `json:"mus_points"`
	PerPoints *int     `json:"per_points"`
	SngPoints *int     `json:"sng_points"`
	TotPoints *int     `json:"tot_points"`
	MusScore  *float64 `json:"mus_score"`
	PerScore  *float64 `json:"per_score"`
	SngScore  *float64 `json:"sng_score"`
	TotScore  *float64 `json:"tot_score"`
}

// Pending reports whether no official score contributed to the totals.
func (t Totals) Pending() bool {
	return t.TotPoints == nil
}

// Equal compares the figures, not the pointers.
func (t Totals) Equal(other Totals) bool {
	return equalPtr(t.MusPoints, other.MusPoints) && equalPtr(t.PerPoints, other.PerPoints) &&
		equalPtr(t.SngPoints, other.SngPoints) && equalPtr(t.TotPoints, other.TotPoints) &&
		equalPtr(t.MusScore, other.MusScore) && equalPtr(t.PerScore, other.PerScore) &&
		equalPtr(t.SngScore, other.SngScore) && equalPtr(t.TotScore, other.TotScore)
}

func equalPtr[A comparable](a, b *A) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (t Totals) Aggregates() repository.Aggregates {
	return repository.Aggregates{
		MusPoints: t.MusPoints,
		PerPoints: t.PerPoints,
		SngPoints: t.SngPoints,
		TotPoints: t.TotPoints,
		MusScore:  t.MusScore,
		PerScore:  t.PerScore,
		SngScore:  t.SngScore,
		TotScore:  t.TotScore,
	}
}

func FromAggregates(a repository.Aggregates) Totals {
	return Totals{
		MusPoints: a.MusPoints,
		PerPoints: a.PerPoints,
		SngPoints: a.SngPoints,
		TotPoints: a.TotPoints,
		MusScore:  a.MusScore,
		PerScore:  a.PerScore,
		SngScore:  a.SngScore,
		TotScore:  a.TotScore,
	}
}

type tally struct {
	sum   int
	count int
}

func (t *tally) add(points int) {
	t.sum += points
	t.count++
}

func (t tally) points() *int {
	if t.count == 0 {
		return nil
	}
	return utils.Ptr(t.sum)
}

func (t tally) mean() *float64 {
	if t.count == 0 {
		return nil
	}
	return utils.Ptr(float64(t.sum) / float64(t.count))
}

// Aggregate sums and averages official music, performance and singing scores. The overall total
// is the sum of the category subtotals; scores of any other category are ignored.
func Aggregate(scores []*repository.Score) Totals {
	var mus, per, sng, tot tally
	categoryTally := map[repository.PanelCategory]*tally{
		repository.PanelCategoryMusic:       &mus,
		repository.PanelCategoryPerformance: &per,
		repository.PanelCategorySinging:     &sng,
	}
	for _, score := range scores {
		if score.Kind != repository.PanelKindOfficial {
			continue
		}
		t, ok := categoryTally[score.Category]
		if !ok {
			continue
		}
		t.add(score.Points)
		tot.add(score.Points)
	}
	return Totals{
		MusPoints: mus.points(),
		PerPoints: per.points(),
		SngPoints: sng.points(),
		TotPoints: tot.points(),
		MusScore:  mus.mean(),
		PerScore:  per.mean(),
		SngScore:  sng.mean(),
		TotScore:  tot.mean(),
	}
}

func AggregateSong(song *repository.Song) Totals {
	return Aggregate(song.Scores)
}

// AggregateAppearance rolls up the scores of all songs. Means are taken over individual scores,
// not over song means.
func AggregateAppearance(songs []*repository.Song) Totals {
	return Aggregate(utils.FlatMap(songs, func(song *repository.Song) []*repository.Score {
		return song.Scores
	}))
}
