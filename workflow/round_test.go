package workflow

import (
	"testing"

	"scorekeeper/repository"
	"scorekeeper/scoring"
	"scorekeeper/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundBuildRequiresApprovedEntries(t *testing.T) {
	m := NewRoundMachine()
	_, err := m.Fire(&RoundSubject{Round: &repository.Round{ID: 1}}, repository.RoundNew, ActionBuild, "drcj")
	var guardErr *GuardError
	require.ErrorAs(t, err, &guardErr)
	assert.Equal(t, ReasonBuildPrecondition, guardErr.Reason)
}

func TestRoundBuildCreatesChildren(t *testing.T) {
	m := NewRoundMachine()
	subject := &RoundSubject{
		Round: &repository.Round{ID: 7, Kind: repository.RoundKindFinals},
		ApprovedEntries: []*repository.Entry{
			{ID: 11, Name: "Alpha", Draw: 1},
			{ID: 12, Name: "Beta", Draw: 2},
		},
		Assignments: []*repository.Assignment{
			{ID: 1, PersonName: "Judge Music", Category: repository.PanelCategoryMusic, Kind: repository.PanelKindOfficial, Status: repository.ActivationActive},
			{ID: 2, PersonName: "Judge Inactive", Category: repository.PanelCategorySinging, Kind: repository.PanelKindOfficial, Status: repository.ActivationInactive},
			{ID: 3, PersonName: "Chair", Category: repository.PanelCategoryDRCJ, Kind: repository.PanelKindOfficial, Status: repository.ActivationActive},
			{ID: 4, PersonName: "Judge CA", Category: repository.PanelCategoryCA, Kind: repository.PanelKindOfficial, Status: repository.ActivationActive},
		},
		Contests: []*repository.Contest{
			{ID: 1, AwardID: 100, Status: repository.ContestIncluded},
			{ID: 2, AwardID: 101, Status: repository.ContestExcluded},
		},
	}
	_, err := m.Fire(subject, repository.RoundNew, ActionBuild, "drcj")
	require.NoError(t, err)

	require.Len(t, subject.NewAppearances, 2)
	assert.Equal(t, 11, subject.NewAppearances[0].EntryID)
	assert.Equal(t, 1, subject.NewAppearances[0].Num)
	assert.Equal(t, 7, subject.NewAppearances[1].RoundID)
	assert.Len(t, subject.NewAppearances[0].Songs, SongsPerAppearance)

	require.Len(t, subject.NewPanelists, 2)
	assert.Equal(t, "Judge Music", subject.NewPanelists[0].PersonName)
	assert.Equal(t, 4, *subject.NewPanelists[1].AssignmentID)

	require.Len(t, subject.NewOutcomes, 1)
	assert.Equal(t, 100, subject.NewOutcomes[0].AwardID)
	assert.Equal(t, repository.ResolutionPending, subject.NewOutcomes[0].Result)
}

func TestRoundFinishBlockedByAppearanceOnStage(t *testing.T) {
	m := NewRoundMachine()
	subject := &RoundSubject{
		Round: &repository.Round{},
		Appearances: []*repository.Appearance{
			{ID: 1, Status: repository.AppearanceConfirmed},
			{ID: 2, Status: repository.AppearanceStarted},
		},
	}
	_, err := m.Fire(subject, repository.RoundStarted, ActionFinish, "drcj")
	var guardErr *GuardError
	require.ErrorAs(t, err, &guardErr)
	assert.Equal(t, ReasonAppearancesInProgress, guardErr.Reason)
}

func TestRoundReviewRequiresEveryAppearanceConfirmed(t *testing.T) {
	m := NewRoundMachine()
	subject := &RoundSubject{
		Round: &repository.Round{},
		Appearances: []*repository.Appearance{
			{ID: 1, Status: repository.AppearanceConfirmed},
			{ID: 2, Status: repository.AppearanceFinished},
		},
	}
	_, err := m.Fire(subject, repository.RoundFinished, ActionReview, "ca")
	var guardErr *GuardError
	require.ErrorAs(t, err, &guardErr)
	assert.Equal(t, ReasonIncompleteConfirmation, guardErr.Reason)

	subject.Appearances[1].Status = repository.AppearanceConfirmed
	transition, err := m.Fire(subject, repository.RoundFinished, ActionReview, "ca")
	require.NoError(t, err)
	assert.Equal(t, string(repository.RoundReviewed), transition.To)

	_, err = m.Fire(subject, repository.RoundReviewed, ActionReview, "ca")
	assert.NoError(t, err, "review may be repeated")
}

func TestRoundReviewRequiresCurrentTotals(t *testing.T) {
	m := NewRoundMachine()
	appearance := &repository.Appearance{ID: 3, Status: repository.AppearanceFinished, Songs: []*repository.Song{cleanSong(1)}}
	require.IsType(t, Confirmed{}, Confirm(appearance, scoring.DefaultVarianceTolerance))
	appearance.Status = repository.AppearanceConfirmed
	subject := &RoundSubject{Round: &repository.Round{}, Appearances: []*repository.Appearance{appearance}}

	// a score corrected after confirmation
	appearance.Songs[0].Scores[0].Points = 60
	_, err := m.Fire(subject, repository.RoundFinished, ActionReview, "ca")
	var guardErr *GuardError
	require.ErrorAs(t, err, &guardErr)
	assert.Equal(t, ReasonTotalsStale, guardErr.Reason)

	require.IsType(t, ConfirmedPendingReview{}, Confirm(appearance, scoring.DefaultVarianceTolerance))
	_, err = m.Fire(subject, repository.RoundFinished, ActionReview, "ca")
	require.ErrorAs(t, err, &guardErr)
	assert.Equal(t, ReasonVariancePending, guardErr.Reason)

	appearance.Songs[0].Scores[0].Points = 80
	require.IsType(t, Confirmed{}, Confirm(appearance, scoring.DefaultVarianceTolerance))
	_, err = m.Fire(subject, repository.RoundFinished, ActionReview, "ca")
	assert.NoError(t, err)
}

func TestRoundVerifyResolvesOutcomes(t *testing.T) {
	m := NewRoundMachine()
	champion := &repository.Award{ID: 100, Level: repository.AwardLevelChampionship}
	frozenName := "Already Decided"
	subject := &RoundSubject{
		Round: &repository.Round{Kind: repository.RoundKindFinals},
		Outcomes: []*repository.Outcome{
			{ID: 1, AwardID: 100, Award: champion},
			{ID: 2, AwardID: 100, Award: champion, Frozen: true, Name: &frozenName},
		},
		Contenders: map[int][]scoring.Contender{
			100: {
				{EntryID: 1, Name: "A", TotPoints: utils.Ptr(540), SngPoints: utils.Ptr(270), PerPoints: utils.Ptr(270)},
				{EntryID: 2, Name: "B", TotPoints: utils.Ptr(540), SngPoints: utils.Ptr(275), PerPoints: utils.Ptr(265)},
			},
		},
	}
	_, err := m.Fire(subject, repository.RoundReviewed, ActionVerify, "ca")
	require.NoError(t, err)
	assert.Equal(t, "B", *subject.Outcomes[0].Name)
	assert.Equal(t, repository.ResolutionRecipient, subject.Outcomes[0].Result)
	assert.Equal(t, "Already Decided", *subject.Outcomes[1].Name)
}

func TestRoundVerifyAbortsOnUnsupportedLevel(t *testing.T) {
	m := NewRoundMachine()
	subject := &RoundSubject{
		Round:    &repository.Round{Kind: repository.RoundKindFinals},
		Outcomes: []*repository.Outcome{{AwardID: 5, Award: &repository.Award{ID: 5, Level: repository.AwardLevelAward}}},
	}
	_, err := m.Fire(subject, repository.RoundReviewed, ActionVerify, "ca")
	assert.ErrorIs(t, err, scoring.ErrUnsupportedAwardLevel)
}

func TestRoundPublishFreezesOutcomes(t *testing.T) {
	m := NewRoundMachine()
	subject := &RoundSubject{
		Round:    &repository.Round{},
		Outcomes: []*repository.Outcome{{ID: 1}, {ID: 2}},
	}
	_, err := m.Fire(subject, repository.RoundVerified, ActionPublish, "ca")
	require.NoError(t, err)
	for _, outcome := range subject.Outcomes {
		assert.True(t, outcome.Frozen)
	}
	_, err = m.Fire(subject, repository.RoundPublished, ActionPublish, "ca")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}
