package service

import (
	"context"
	"fmt"

	"scorekeeper/client"
	"scorekeeper/metrics"
	"scorekeeper/repository"
	"scorekeeper/workflow"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

type AppearanceService struct {
	db                   *gorm.DB
	machine              *workflow.Machine[repository.AppearanceStatus, *workflow.AppearanceSubject]
	dispatcher           *Dispatcher
	tolerance            float64
	appearanceRepository *repository.AppearanceRepository
}

func NewAppearanceService(db *gorm.DB, dispatcher *Dispatcher, tolerance float64) *AppearanceService {
	return &AppearanceService{
		db:                   db,
		machine:              workflow.NewAppearanceMachine(),
		dispatcher:           dispatcher,
		tolerance:            tolerance,
		appearanceRepository: repository.NewAppearanceRepository(db),
	}
}

func (s *AppearanceService) GetAppearanceById(appearanceId int) (*repository.Appearance, error) {
	return s.appearanceRepository.GetAppearanceById(appearanceId)
}

func (s *AppearanceService) GetAppearancesForRound(roundId int) ([]*repository.Appearance, error) {
	return s.appearanceRepository.GetAppearancesForRound(roundId)
}

func (s *AppearanceService) Start(ctx context.Context, appearanceId int, actor string) (*repository.Appearance, error) {
	appearance, _, err := s.transition(ctx, appearanceId, workflow.ActionStart, actor)
	return appearance, err
}

func (s *AppearanceService) Finish(ctx context.Context, appearanceId int, actor string) (*repository.Appearance, error) {
	appearance, _, err := s.transition(ctx, appearanceId, workflow.ActionFinish, actor)
	return appearance, err
}

// Confirm aggregates the appearance. A flagged song leaves the totals untouched and requests
// a variance report after commit.
func (s *AppearanceService) Confirm(ctx context.Context, appearanceId int, actor string) (*repository.Appearance, workflow.ConfirmResult, error) {
	return s.transition(ctx, appearanceId, workflow.ActionConfirm, actor)
}

func (s *AppearanceService) transition(ctx context.Context, appearanceId int, action workflow.Action, actor string) (appearance *repository.Appearance, result workflow.ConfirmResult, err error) {
	ctx, span := startSpan(ctx, "AppearanceService.Transition", appearanceId, action)
	defer func() { endSpan(span, err) }()

	var transition *workflow.Transition
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		appearanceRepository := repository.NewAppearanceRepository(tx)
		appearance, err = appearanceRepository.GetAppearanceForUpdate(appearanceId)
		if err != nil {
			return err
		}
		round, err := repository.NewRoundRepository(tx).GetRoundForShare(appearance.RoundID)
		if err != nil {
			return fmt.Errorf("failed to load round of appearance %d: %w", appearanceId, err)
		}
		subject := &workflow.AppearanceSubject{
			Appearance:  appearance,
			RoundStatus: round.Status,
			Tolerance:   s.tolerance,
		}
		timer := prometheus.NewTimer(metrics.AggregationDuration)
		transition, err = s.machine.Fire(subject, appearance.Status, action, actor)
		if action == workflow.ActionConfirm {
			timer.ObserveDuration()
		}
		if err != nil {
			return err
		}
		appearance.Status = repository.AppearanceStatus(transition.To)
		result = subject.Result
		if action == workflow.ActionConfirm {
			if err := appearanceRepository.SaveSongAggregates(appearance.Songs); err != nil {
				return err
			}
		}
		if err := appearanceRepository.SaveAppearance(appearance); err != nil {
			return err
		}
		return appendStateLog(tx, TypeAppearance, appearance.ID, transition)
	})
	observe("appearance", transition, err)
	if err != nil {
		return nil, nil, err
	}

	if pending, ok := result.(workflow.ConfirmedPendingReview); ok {
		metrics.VarianceFlaggedCounter.Inc()
		s.dispatcher.RequestReport(ctx, client.ReportVariance, TypeAppearance, appearance.ID, pending.Request)
	}
	if action != workflow.ActionFinish {
		s.dispatcher.Announce(ctx, TypeAppearance, appearance.ID, transition)
	}
	return appearance, result, nil
}

// Recompute rewrites song aggregates from the stored scores and re-runs the variance check
// without a status change. Appearance totals are only rewritten when no song is flagged, and a
// newly flagged appearance requests a variance report. Running it twice yields the same totals.
func (s *AppearanceService) Recompute(ctx context.Context, appearanceId int) (appearance *repository.Appearance, result workflow.ConfirmResult, err error) {
	ctx, span := startSpan(ctx, "AppearanceService.Recompute", appearanceId, "")
	defer func() { endSpan(span, err) }()

	var wasPending bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		appearanceRepository := repository.NewAppearanceRepository(tx)
		appearance, err = appearanceRepository.GetAppearanceForUpdate(appearanceId)
		if err != nil {
			return err
		}
		wasPending = appearance.VariancePending
		timer := prometheus.NewTimer(metrics.AggregationDuration)
		result = workflow.Recompute(appearance, s.tolerance)
		timer.ObserveDuration()
		if err := appearanceRepository.SaveSongAggregates(appearance.Songs); err != nil {
			return err
		}
		return appearanceRepository.SaveAppearance(appearance)
	})
	if err != nil {
		return nil, nil, err
	}
	if pending, ok := result.(workflow.ConfirmedPendingReview); ok && !wasPending {
		metrics.VarianceFlaggedCounter.Inc()
		s.dispatcher.RequestReport(ctx, client.ReportVariance, TypeAppearance, appearance.ID, pending.Request)
	}
	return appearance, result, nil
}

// AttachVarianceReport stores the location of a rendered variance report.
func (s *AppearanceService) AttachVarianceReport(ctx context.Context, appearanceId int, url string) (*repository.Appearance, error) {
	var appearance *repository.Appearance
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		appearanceRepository := repository.NewAppearanceRepository(tx)
		var err error
		appearance, err = appearanceRepository.GetAppearanceForUpdate(appearanceId)
		if err != nil {
			return err
		}
		appearance.VarianceReport = &url
		return appearanceRepository.SaveAppearance(appearance)
	})
	if err != nil {
		return nil, err
	}
	return appearance, nil
}

// RecomputeConfirmed recomputes every confirmed appearance. Used by the background sweep.
// Appearances with flagged variance keep their totals.
func (s *AppearanceService) RecomputeConfirmed(ctx context.Context) (int, error) {
	appearances, err := s.appearanceRepository.GetAppearancesByStatus(repository.AppearanceConfirmed)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, appearance := range appearances {
		if ctx.Err() != nil {
			return count, ctx.Err()
		}
		if _, _, err := s.Recompute(ctx, appearance.ID); err != nil {
			return count, fmt.Errorf("failed to recompute appearance %d: %w", appearance.ID, err)
		}
		count++
	}
	return count, nil
}
