package controller

import (
	"time"

	"scorekeeper/app_error"
	"scorekeeper/repository"
	"scorekeeper/scoring"
	"scorekeeper/service"
	"scorekeeper/utils"
	"scorekeeper/workflow"

	"github.com/gin-gonic/gin"
)

type AppearanceController struct {
	appearanceService *service.AppearanceService
	scoreService      *service.ScoreService
}

func NewAppearanceController(deps *Dependencies) *AppearanceController {
	return &AppearanceController{
		appearanceService: deps.Appearances,
		scoreService:      service.NewScoreService(deps.DB),
	}
}

func setupAppearanceController(deps *Dependencies) []RouteInfo {
	e := NewAppearanceController(deps)
	routes := []RouteInfo{
		{Method: "GET", Path: "/appearances/:appearance_id", HandlerFunc: e.getAppearanceHandler()},
		{Method: "POST", Path: "/appearances/:appearance_id/start", HandlerFunc: e.startHandler(), Authenticated: true, RoleRequired: scoringDesk},
		{Method: "POST", Path: "/appearances/:appearance_id/finish", HandlerFunc: e.finishHandler(), Authenticated: true, RoleRequired: scoringDesk},
		{Method: "POST", Path: "/appearances/:appearance_id/confirm", HandlerFunc: e.confirmHandler(), Authenticated: true, RoleRequired: scoringDesk},
		{Method: "POST", Path: "/appearances/:appearance_id/recompute", HandlerFunc: e.recomputeHandler(), Authenticated: true, RoleRequired: scoringDesk},
		{Method: "PUT", Path: "/appearances/:appearance_id/variance-report", HandlerFunc: e.varianceReportHandler(), Authenticated: true, RoleRequired: scoringDesk},
		{Method: "GET", Path: "/songs/:song_id/scores", HandlerFunc: e.getScoresHandler()},
		{Method: "PUT", Path: "/songs/:song_id/scores", HandlerFunc: e.recordScoresHandler(), Authenticated: true, RoleRequired: scoringDesk},
	}
	return routes
}

// @id GetAppearance
// @Description Fetches an appearance with its songs and scores
// @Tags appearance
// @Produce json
// @Param appearance_id path int true "Appearance Id"
// @Success 200 {object} AppearanceResponse
// @Router /appearances/{appearance_id} [get]
func (e *AppearanceController) getAppearanceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		appearanceId, ok := pathInt(c, "appearance_id")
		if !ok {
			return
		}
		appearance, err := e.appearanceService.GetAppearanceById(appearanceId)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, toAppearanceResponse(appearance))
	}
}

// @id StartAppearance
// @Description Marks an appearance as on stage. The round must be started.
// @Tags appearance
// @Produce json
// @Param appearance_id path int true "Appearance Id"
// @Success 200 {object} AppearanceResponse
// @Router /appearances/{appearance_id}/start [post]
func (e *AppearanceController) startHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		appearanceId, ok := pathInt(c, "appearance_id")
		if !ok {
			return
		}
		appearance, err := e.appearanceService.Start(c.Request.Context(), appearanceId, actorOf(c))
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, toAppearanceResponse(appearance))
	}
}

// @id FinishAppearance
// @Description Marks an appearance as off stage
// @Tags appearance
// @Produce json
// @Param appearance_id path int true "Appearance Id"
// @Success 200 {object} AppearanceResponse
// @Router /appearances/{appearance_id}/finish [post]
func (e *AppearanceController) finishHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		appearanceId, ok := pathInt(c, "appearance_id")
		if !ok {
			return
		}
		appearance, err := e.appearanceService.Finish(c.Request.Context(), appearanceId, actorOf(c))
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, toAppearanceResponse(appearance))
	}
}

// @id ConfirmAppearance
// @Description Confirms an appearance and aggregates its scores. When a song exceeds the variance tolerance the totals are left untouched and a variance report is requested.
// @Tags appearance
// @Produce json
// @Param appearance_id path int true "Appearance Id"
// @Success 200 {object} ConfirmResponse
// @Router /appearances/{appearance_id}/confirm [post]
func (e *AppearanceController) confirmHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		appearanceId, ok := pathInt(c, "appearance_id")
		if !ok {
			return
		}
		appearance, result, err := e.appearanceService.Confirm(c.Request.Context(), appearanceId, actorOf(c))
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, toConfirmResponse(appearance, result))
	}
}

// @id RecomputeAppearance
// @Description Rewrites the song and appearance aggregates from the stored scores. Flagged appearances keep their totals.
// @Tags appearance
// @Produce json
// @Param appearance_id path int true "Appearance Id"
// @Success 200 {object} ConfirmResponse
// @Router /appearances/{appearance_id}/recompute [post]
func (e *AppearanceController) recomputeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		appearanceId, ok := pathInt(c, "appearance_id")
		if !ok {
			return
		}
		appearance, result, err := e.appearanceService.Recompute(c.Request.Context(), appearanceId)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, toConfirmResponse(appearance, result))
	}
}

// @id AttachVarianceReport
// @Description Stores the location of the rendered variance report of an appearance
// @Tags appearance
// @Accept json
// @Produce json
// @Param appearance_id path int true "Appearance Id"
// @Param body body VarianceReportUpdate true "Report location"
// @Success 200 {object} AppearanceResponse
// @Router /appearances/{appearance_id}/variance-report [put]
func (e *AppearanceController) varianceReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		appearanceId, ok := pathInt(c, "appearance_id")
		if !ok {
			return
		}
		var body VarianceReportUpdate
		if err := c.BindJSON(&body); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		appearance, err := e.appearanceService.AttachVarianceReport(c.Request.Context(), appearanceId, body.URL)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, toAppearanceResponse(appearance))
	}
}

// @id GetSongScores
// @Description Fetches the panelist scores of a song
// @Tags appearance
// @Produce json
// @Param song_id path int true "Song Id"
// @Success 200 {array} ScoreResponse
// @Router /songs/{song_id}/scores [get]
func (e *AppearanceController) getScoresHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		songId, ok := pathInt(c, "song_id")
		if !ok {
			return
		}
		scores, err := e.scoreService.GetScoresForSong(songId)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, utils.Map(scores, toScoreResponse))
	}
}

// @id RecordSongScores
// @Description Records or corrects panelist scores for a song. Rejected once the round is verified.
// @Tags appearance
// @Accept json
// @Produce json
// @Param song_id path int true "Song Id"
// @Param body body []ScoreCreate true "Scores"
// @Success 200 {array} ScoreResponse
// @Router /songs/{song_id}/scores [put]
func (e *AppearanceController) recordScoresHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		songId, ok := pathInt(c, "song_id")
		if !ok {
			return
		}
		var body []ScoreCreate
		if err := c.BindJSON(&body); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		inputs := utils.Map(body, func(score ScoreCreate) service.ScoreInput {
			return service.ScoreInput{PanelistID: score.PanelistID, Points: *score.Points}
		})
		scores, err := e.scoreService.RecordScores(c.Request.Context(), songId, inputs)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, utils.Map(scores, toScoreResponse))
	}
}

type VarianceReportUpdate struct {
	URL string `json:"url" binding:"required,url"`
}

type ScoreCreate struct {
	PanelistID int  `json:"panelist_id" binding:"required"`
	Points     *int `json:"points" binding:"required"`
}

type ScoreResponse struct {
	ID         int    `json:"id"`
	SongID     int    `json:"song_id"`
	PanelistID int    `json:"panelist_id"`
	Category   string `json:"category"`
	Kind       string `json:"kind"`
	Points     int    `json:"points"`
}

type SongResponse struct {
	ID     int             `json:"id"`
	Num    int             `json:"num"`
	Title  string          `json:"title"`
	Totals scoring.Totals  `json:"totals"`
	Scores []ScoreResponse `json:"scores"`
}

type AppearanceResponse struct {
	ID              int            `json:"id"`
	RoundID         int            `json:"round_id"`
	EntryID         int            `json:"entry_id"`
	Num             int            `json:"num"`
	Draw            int            `json:"draw"`
	Status          string         `json:"status"`
	ActualStart     *time.Time     `json:"actual_start"`
	ActualFinish    *time.Time     `json:"actual_finish"`
	VarianceReport  *string        `json:"variance_report"`
	VariancePending bool           `json:"variance_pending"`
	Totals          scoring.Totals `json:"totals"`
	Songs           []SongResponse `json:"songs,omitempty"`
}

type ConfirmResponse struct {
	Result       string                 `json:"result"`
	Appearance   *AppearanceResponse    `json:"appearance"`
	Totals       *scoring.Totals        `json:"totals,omitempty"`
	FlaggedSongs []int                  `json:"flagged_songs,omitempty"`
	Flags        []scoring.VarianceFlag `json:"flags,omitempty"`
}

func toScoreResponse(score *repository.Score) ScoreResponse {
	return ScoreResponse{
		ID:         score.ID,
		SongID:     score.SongID,
		PanelistID: score.PanelistID,
		Category:   score.Category.String(),
		Kind:       score.Kind.String(),
		Points:     score.Points,
	}
}

func toSongResponse(song *repository.Song) SongResponse {
	return SongResponse{
		ID:     song.ID,
		Num:    song.Num,
		Title:  song.Title,
		Totals: scoring.Totals(song.Aggregates),
		Scores: utils.Map(song.Scores, toScoreResponse),
	}
}

func toAppearanceResponse(appearance *repository.Appearance) *AppearanceResponse {
	return &AppearanceResponse{
		ID:              appearance.ID,
		RoundID:         appearance.RoundID,
		EntryID:         appearance.EntryID,
		Num:             appearance.Num,
		Draw:            appearance.Draw,
		Status:          string(appearance.Status),
		ActualStart:     appearance.ActualStart,
		ActualFinish:    appearance.ActualFinish,
		VarianceReport:  appearance.VarianceReport,
		VariancePending: appearance.VariancePending,
		Totals:          scoring.Totals(appearance.Aggregates),
		Songs:           utils.Map(appearance.Songs, toSongResponse),
	}
}

func toConfirmResponse(appearance *repository.Appearance, result workflow.ConfirmResult) *ConfirmResponse {
	response := &ConfirmResponse{Appearance: toAppearanceResponse(appearance)}
	switch r := result.(type) {
	case workflow.Confirmed:
		response.Result = "confirmed"
		response.Totals = &r.Totals
	case workflow.ConfirmedPendingReview:
		response.Result = "pending_review"
		response.FlaggedSongs = r.FlaggedSongs
		response.Flags = r.Request.Flags
	}
	return response
}
