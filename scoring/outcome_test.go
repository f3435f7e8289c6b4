package scoring

import (
	"testing"

	"scorekeeper/repository"
	"scorekeeper/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contender(id int, name string, tot, sng, per int) Contender {
	return Contender{
		EntryID:   id,
		Name:      name,
		TotPoints: utils.Ptr(tot),
		SngPoints: utils.Ptr(sng),
		PerPoints: utils.Ptr(per),
		Mean:      utils.Ptr(float64(tot) / 6),
	}
}

func TestResolveQualifier(t *testing.T) {
	award := &repository.Award{ID: 1, Level: repository.AwardLevelQualifier, Threshold: utils.Ptr(76.0), IsSingle: true}
	contenders := []Contender{
		{EntryID: 1, Name: "Zephyr", Mean: utils.Ptr(80.0)},
		{EntryID: 2, Name: "Acoustix", Mean: utils.Ptr(76.0)},
		{EntryID: 3, Name: "Boomtown", Mean: utils.Ptr(75.9)},
		{EntryID: 4, Name: "Unscored"},
	}
	resolution, err := Resolve(repository.RoundKindFinals, award, contenders)
	require.NoError(t, err)
	assert.Equal(t, "Acoustix, Zephyr", resolution.Name)
	assert.Equal(t, repository.ResolutionQualifiers, resolution.Kind)
}

func TestResolveQualifierWithoutQualifiers(t *testing.T) {
	award := &repository.Award{Level: repository.AwardLevelQualifier, Threshold: utils.Ptr(90.0), IsSingle: true}
	resolution, err := Resolve(repository.RoundKindFinals, award, []Contender{{Name: "A", Mean: utils.Ptr(80.0)}})
	require.NoError(t, err)
	assert.Equal(t, NameNoQualifiers, resolution.Name)
}

func TestResolveQualifierWithoutThreshold(t *testing.T) {
	award := &repository.Award{Level: repository.AwardLevelQualifier, IsSingle: true}
	_, err := Resolve(repository.RoundKindFinals, award, nil)
	assert.ErrorIs(t, err, ErrMissingThreshold)
}

func TestResolveChampionshipTieBreaks(t *testing.T) {
	award := &repository.Award{Level: repository.AwardLevelChampionship}
	tests := []struct {
		name       string
		contenders []Contender
		want       string
	}{
		{
			name:       "highest total wins",
			contenders: []Contender{contender(1, "A", 530, 280, 250), contender(2, "B", 540, 260, 280)},
			want:       "B",
		},
		{
			name:       "tie on total broken by singing",
			contenders: []Contender{contender(1, "A", 540, 270, 270), contender(2, "B", 540, 275, 265)},
			want:       "B",
		},
		{
			name:       "tie on singing broken by performance",
			contenders: []Contender{contender(1, "A", 540, 270, 260), contender(2, "B", 540, 270, 265)},
			want:       "B",
		},
		{
			name:       "full tie broken by name",
			contenders: []Contender{contender(2, "Beta", 540, 270, 270), contender(1, "Alpha", 540, 270, 270)},
			want:       "Alpha",
		},
		{
			name:       "unscored contenders are skipped",
			contenders: []Contender{{EntryID: 9, Name: "Aardvark"}, contender(1, "Zulu", 300, 100, 100)},
			want:       "Zulu",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolution, err := Resolve(repository.RoundKindFinals, award, tt.contenders)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resolution.Name)
			assert.Equal(t, repository.ResolutionRecipient, resolution.Kind)
		})
	}
}

func TestResolveChampionshipWithoutContenders(t *testing.T) {
	for _, level := range []repository.AwardLevel{repository.AwardLevelChampionship, repository.AwardLevelRepresentative} {
		resolution, err := Resolve(repository.RoundKindFinals, &repository.Award{Level: level}, nil)
		require.NoError(t, err)
		assert.Equal(t, NameNoRecipient, resolution.Name)
		assert.Equal(t, repository.ResolutionNoRecipient, resolution.Kind)
	}
}

func TestResolveSentinels(t *testing.T) {
	tests := []struct {
		name      string
		roundKind repository.RoundKind
		award     *repository.Award
		want      string
	}{
		{"non single award before finals", repository.RoundKindSemis, &repository.Award{Level: repository.AwardLevelChampionship}, NameDeterminedInFinals},
		{"deferred", repository.RoundKindFinals, &repository.Award{Level: repository.AwardLevelDeferred}, NamePostContest},
		{"manual", repository.RoundKindFinals, &repository.Award{Level: repository.AwardLevelManual}, NameEnterManually},
		{"raw", repository.RoundKindFinals, &repository.Award{Level: repository.AwardLevelRaw}, NameEnterManually},
		{"standard", repository.RoundKindFinals, &repository.Award{Level: repository.AwardLevelStandard}, NameEnterManually},
		{"single award resolves before finals", repository.RoundKindQuarters, &repository.Award{Level: repository.AwardLevelDeferred, IsSingle: true}, NamePostContest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolution, err := Resolve(tt.roundKind, tt.award, []Contender{contender(1, "A", 500, 250, 250)})
			require.NoError(t, err)
			assert.Equal(t, tt.want, resolution.Name)
		})
	}
}

func TestResolveUnsupportedLevel(t *testing.T) {
	_, err := Resolve(repository.RoundKindFinals, &repository.Award{ID: 3, Level: repository.AwardLevelAward}, nil)
	assert.ErrorIs(t, err, ErrUnsupportedAwardLevel)
	_, err = Resolve(repository.RoundKindFinals, &repository.Award{Level: repository.AwardLevel(999)}, nil)
	assert.ErrorIs(t, err, ErrUnsupportedAwardLevel)
}

func TestResolveIsDeterministic(t *testing.T) {
	award := &repository.Award{Level: repository.AwardLevelChampionship}
	contenders := []Contender{contender(3, "C", 540, 270, 270), contender(1, "A", 540, 270, 270), contender(2, "B", 540, 270, 270)}
	first, err := Resolve(repository.RoundKindFinals, award, contenders)
	require.NoError(t, err)
	reversed := []Contender{contenders[2], contenders[1], contenders[0]}
	second, err := Resolve(repository.RoundKindFinals, award, reversed)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBuildContenders(t *testing.T) {
	entries := []*repository.Entry{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}}
	scores := []*repository.EntryScore{
		{EntryID: 1, RoundNum: 1, Category: repository.PanelCategorySinging, Kind: repository.PanelKindOfficial, Points: 80},
		{EntryID: 1, RoundNum: 2, Category: repository.PanelCategoryPerformance, Kind: repository.PanelKindOfficial, Points: 70},
	}
	contenders := BuildContenders(entries, scores)

	require.Len(t, contenders, 2)
	assert.Equal(t, 150, *contenders[0].TotPoints)
	assert.Equal(t, 80, *contenders[0].SngPoints)
	assert.Equal(t, 70, *contenders[0].PerPoints)
	assert.InDelta(t, 75.0, *contenders[0].Mean, 1e-9)
	assert.Nil(t, contenders[1].TotPoints)
}

func TestQualifierMeanIgnoresAdministrativeScores(t *testing.T) {
	entries := []*repository.Entry{{ID: 1, Name: "A"}}
	scores := make([]*repository.EntryScore, 0)
	for _, category := range []repository.PanelCategory{repository.PanelCategoryMusic, repository.PanelCategoryPerformance, repository.PanelCategorySinging} {
		scores = append(scores, &repository.EntryScore{EntryID: 1, RoundNum: 1, Category: category, Kind: repository.PanelKindOfficial, Points: 70})
	}
	scores = append(scores, &repository.EntryScore{EntryID: 1, RoundNum: 1, Category: repository.PanelCategoryCA, Kind: repository.PanelKindOfficial, Points: 100})
	contenders := BuildContenders(entries, scores)

	award := &repository.Award{Level: repository.AwardLevelQualifier, Threshold: utils.Ptr(76.0), IsSingle: true}
	resolution, err := Resolve(repository.RoundKindQuarters, award, contenders)
	require.NoError(t, err)
	assert.Equal(t, repository.ResolutionNoQualifier, resolution.Kind)
	assert.Equal(t, 210, *contenders[0].TotPoints)
}
