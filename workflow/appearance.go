package workflow

import (
	"time"

	"scorekeeper/repository"
	"scorekeeper/scoring"
)

// ConfirmResult is the outcome of confirming an appearance. It is either Confirmed or
// ConfirmedPendingReview.
type ConfirmResult interface {
	confirmResult()
}

// Confirmed carries the appearance totals written by a clean confirmation.
type Confirmed struct {
	Totals scoring.Totals
}

// ConfirmedPendingReview means at least one song disagreed beyond tolerance. The appearance
// totals were left as they were and a variance report must be produced.
type ConfirmedPendingReview struct {
	Request      VarianceReportRequest
	FlaggedSongs []int
}

func (Confirmed) confirmResult()              {}
func (ConfirmedPendingReview) confirmResult() {}

type VarianceReportRequest struct {
	AppearanceID int                    `json:"appearance_id"`
	Flags        []scoring.VarianceFlag `json:"flags"`
}

// AppearanceSubject is what the appearance rules inspect and mutate. Appearance must carry its
// songs with their scores.
type AppearanceSubject struct {
	Appearance  *repository.Appearance
	RoundStatus repository.RoundStatus
	Tolerance   float64
	Result      ConfirmResult
}

type appearanceRule = Rule[repository.AppearanceStatus, *AppearanceSubject]

func NewAppearanceMachine() *Machine[repository.AppearanceStatus, *AppearanceSubject] {
	rounds := NewRoundMachine()
	m := NewMachine[repository.AppearanceStatus, *AppearanceSubject]("appearance",
		repository.AppearanceNew,
		repository.AppearanceStarted,
		repository.AppearanceFinished,
		repository.AppearanceConfirmed,
	)
	m.On(ActionStart, []repository.AppearanceStatus{repository.AppearanceNew}, appearanceRule{
		To:          repository.AppearanceStarted,
		Description: "Appearance started",
		Guard: func(s *AppearanceSubject) error {
			if s.RoundStatus != repository.RoundStarted {
				return reject(ReasonRoundNotStarted, "round is %s", s.RoundStatus)
			}
			return nil
		},
		Effect: func(s *AppearanceSubject, at time.Time) error {
			s.Appearance.ActualStart = &at
			return nil
		},
	})
	m.On(ActionFinish, []repository.AppearanceStatus{repository.AppearanceStarted}, appearanceRule{
		To:          repository.AppearanceFinished,
		Description: "Appearance finished",
		Effect: func(s *AppearanceSubject, at time.Time) error {
			s.Appearance.ActualFinish = &at
			return nil
		},
	})
	m.On(ActionConfirm, []repository.AppearanceStatus{repository.AppearanceFinished, repository.AppearanceConfirmed}, appearanceRule{
		To:          repository.AppearanceConfirmed,
		Description: "Appearance confirmed",
		Guard: func(s *AppearanceSubject) error {
			if rounds.Rank(s.RoundStatus) > rounds.Rank(repository.RoundFinished) {
				return reject(ReasonRoundClosed, "round is %s", s.RoundStatus)
			}
			return nil
		},
		Effect: func(s *AppearanceSubject, _ time.Time) error {
			s.Result = Confirm(s.Appearance, s.Tolerance)
			return nil
		},
	})
	return m
}

// Confirm recomputes every song, checks each for variance and, when none is flagged, recomputes
// the appearance totals and clears its variance report.
func Confirm(appearance *repository.Appearance, tolerance float64) ConfirmResult {
	flags := make([]scoring.VarianceFlag, 0)
	flagged := make([]int, 0)
	for _, song := range appearance.Songs {
		song.Aggregates = scoring.AggregateSong(song).Aggregates()
		songFlags := scoring.CheckVariance(song, tolerance)
		if len(songFlags) > 0 {
			flagged = append(flagged, song.ID)
			flags = append(flags, songFlags...)
		}
	}
	if len(flagged) > 0 {
		appearance.VariancePending = true
		return ConfirmedPendingReview{
			Request:      VarianceReportRequest{AppearanceID: appearance.ID, Flags: flags},
			FlaggedSongs: flagged,
		}
	}
	totals := scoring.AggregateAppearance(appearance.Songs)
	appearance.Aggregates = totals.Aggregates()
	appearance.VariancePending = false
	appearance.VarianceReport = nil
	return Confirmed{Totals: totals}
}

// Recompute re-runs aggregation and the variance check without a status change. Appearance
// totals follow the same rule as Confirm, so a flagged appearance keeps its stale totals.
// An attached variance report is kept.
func Recompute(appearance *repository.Appearance, tolerance float64) ConfirmResult {
	report := appearance.VarianceReport
	result := Confirm(appearance, tolerance)
	appearance.VarianceReport = report
	return result
}
