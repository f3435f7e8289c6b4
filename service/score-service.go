package service

import (
	"context"
	"fmt"

	"scorekeeper/app_error"
	"scorekeeper/metrics"
	"scorekeeper/repository"
	"scorekeeper/workflow"

	"gorm.io/gorm"
)

const maxPoints = 100

type ScoreInput struct {
	PanelistID int
	Points     int
}

type ScoreService struct {
	db              *gorm.DB
	rounds          *workflow.Machine[repository.RoundStatus, *workflow.RoundSubject]
	scoreRepository *repository.ScoreRepository
}

func NewScoreService(db *gorm.DB) *ScoreService {
	return &ScoreService{
		db:              db,
		rounds:          workflow.NewRoundMachine(),
		scoreRepository: repository.NewScoreRepository(db),
	}
}

func (s *ScoreService) GetScoresForSong(songId int) ([]*repository.Score, error) {
	return s.scoreRepository.GetScoresForSong(songId)
}

func (s *ScoreService) GetPanelistsForRound(roundId int) ([]*repository.Panelist, error) {
	return s.scoreRepository.GetPanelistsForRound(roundId)
}

// RecordScores enters or corrects panelist scores for a song. Category and kind are copied from
// the panelist. Aggregates are not touched until the appearance is confirmed or recomputed.
// Scores are locked once the round is reviewed.
func (s *ScoreService) RecordScores(ctx context.Context, songId int, inputs []ScoreInput) (scores []*repository.Score, err error) {
	ctx, span := startSpan(ctx, "ScoreService.RecordScores", songId, "")
	defer func() { endSpan(span, err) }()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		appearanceRepository := repository.NewAppearanceRepository(tx)
		scoreRepository := repository.NewScoreRepository(tx)
		song, err := appearanceRepository.GetSongById(songId)
		if err != nil {
			return err
		}
		appearance, err := appearanceRepository.GetAppearanceForUpdate(song.AppearanceID)
		if err != nil {
			return err
		}
		round, err := repository.NewRoundRepository(tx).GetRoundForShare(appearance.RoundID)
		if err != nil {
			return err
		}
		if s.rounds.AtLeast(round.Status, repository.RoundReviewed) {
			return &workflow.GuardError{Reason: workflow.ReasonRoundClosed, Detail: fmt.Sprintf("round is %s", round.Status)}
		}
		panelists, err := scoreRepository.GetPanelistsForRound(round.ID)
		if err != nil {
			return err
		}
		panelistsById := make(map[int]*repository.Panelist, len(panelists))
		for _, panelist := range panelists {
			panelistsById[panelist.ID] = panelist
		}
		toSave := make([]*repository.Score, 0, len(inputs))
		for _, input := range inputs {
			panelist, ok := panelistsById[input.PanelistID]
			if !ok {
				return app_error.BadRequest(fmt.Errorf("panelist %d does not sit on round %d", input.PanelistID, round.ID))
			}
			if !panelist.Category.Scored() {
				return app_error.BadRequest(fmt.Errorf("panelist %d judges %s, which enters no points", panelist.ID, panelist.Category))
			}
			if input.Points < 0 || input.Points > maxPoints {
				return app_error.BadRequest(fmt.Errorf("points must be between 0 and %d, got %d", maxPoints, input.Points))
			}
			toSave = append(toSave, &repository.Score{
				SongID:     song.ID,
				PanelistID: panelist.ID,
				Category:   panelist.Category,
				Kind:       panelist.Kind,
				Points:     input.Points,
			})
		}
		if err := scoreRepository.UpsertScores(toSave); err != nil {
			return err
		}
		scores, err = scoreRepository.GetScoresForSong(song.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	metrics.ScoresRecordedCounter.Add(float64(len(inputs)))
	return scores, nil
}
