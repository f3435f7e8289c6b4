package controller

import (
	"time"

	"scorekeeper/app_error"
	"scorekeeper/repository"
	"scorekeeper/service"
	"scorekeeper/utils"
	"scorekeeper/workflow"

	"github.com/gin-contrib/cache"
	"github.com/gin-gonic/gin"
)

const outcomeCacheTTL = 10 * time.Second

type RoundController struct {
	roundService      *service.RoundService
	outcomeService    *service.OutcomeService
	scoreService      *service.ScoreService
	appearanceService *service.AppearanceService
}

func NewRoundController(deps *Dependencies) *RoundController {
	return &RoundController{
		roundService:      service.NewRoundService(deps.DB, deps.Dispatcher),
		outcomeService:    service.NewOutcomeService(deps.DB),
		scoreService:      service.NewScoreService(deps.DB),
		appearanceService: deps.Appearances,
	}
}

var roundActions = []workflow.Action{
	workflow.ActionBuild,
	workflow.ActionStart,
	workflow.ActionFinish,
	workflow.ActionReview,
	workflow.ActionVerify,
	workflow.ActionPublish,
}

func setupRoundController(deps *Dependencies) []RouteInfo {
	e := NewRoundController(deps)
	basePath := "/rounds"
	outcomes := e.getOutcomesHandler()
	if deps.Cache != nil {
		outcomes = cache.CachePage(deps.Cache, outcomeCacheTTL, outcomes)
	}
	routes := []RouteInfo{
		{Method: "GET", Path: "/:round_id", HandlerFunc: e.getRoundHandler()},
		{Method: "GET", Path: "/:round_id/appearances", HandlerFunc: e.getAppearancesHandler()},
		{Method: "GET", Path: "/:round_id/panelists", HandlerFunc: e.getPanelistsHandler()},
		{Method: "GET", Path: "/:round_id/outcomes", HandlerFunc: outcomes},
		{Method: "POST", Path: "/:round_id/awards/:award_id/resolve", HandlerFunc: e.resolveOutcomeHandler(), Authenticated: true, RoleRequired: scoringDesk},
	}
	routes = append(routes, transitionRoutes("round_id", roundActions, operators, e.transitionHandler)...)
	for i, route := range routes {
		routes[i].Path = basePath + route.Path
	}
	return routes
}

// @id GetRound
// @Description Fetches a round with the actions that may be fired on it next
// @Tags round
// @Produce json
// @Param round_id path int true "Round Id"
// @Success 200 {object} RoundResponse
// @Router /rounds/{round_id} [get]
func (e *RoundController) getRoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		roundId, ok := pathInt(c, "round_id")
		if !ok {
			return
		}
		round, err := e.roundService.GetRoundById(roundId)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, toRoundResponse(round, e.roundService.Actions(round)))
	}
}

// @id TransitionRound
// @Description Fires a workflow action (build, start, finish, review, verify, publish) on a round
// @Tags round
// @Produce json
// @Param round_id path int true "Round Id"
// @Param action path string true "Action"
// @Success 200 {object} RoundResponse
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /rounds/{round_id}/{action} [post]
func (e *RoundController) transitionHandler(action workflow.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		roundId, ok := pathInt(c, "round_id")
		if !ok {
			return
		}
		round, err := e.roundService.Transition(c.Request.Context(), roundId, action, actorOf(c))
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, toRoundResponse(round, e.roundService.Actions(round)))
	}
}

// @id GetRoundAppearances
// @Description Fetches the appearances of a round in performance order
// @Tags round
// @Produce json
// @Param round_id path int true "Round Id"
// @Success 200 {array} AppearanceResponse
// @Router /rounds/{round_id}/appearances [get]
func (e *RoundController) getAppearancesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		roundId, ok := pathInt(c, "round_id")
		if !ok {
			return
		}
		appearances, err := e.appearanceService.GetAppearancesForRound(roundId)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, utils.Map(appearances, toAppearanceResponse))
	}
}

// @id GetRoundPanelists
// @Description Fetches the panel of a round
// @Tags round
// @Produce json
// @Param round_id path int true "Round Id"
// @Success 200 {array} PanelistResponse
// @Router /rounds/{round_id}/panelists [get]
func (e *RoundController) getPanelistsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		roundId, ok := pathInt(c, "round_id")
		if !ok {
			return
		}
		panelists, err := e.scoreService.GetPanelistsForRound(roundId)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, utils.Map(panelists, toPanelistResponse))
	}
}

// @id GetRoundOutcomes
// @Description Fetches the award outcomes of a round. Responses are cached for a few seconds.
// @Tags round
// @Produce json
// @Param round_id path int true "Round Id"
// @Success 200 {array} OutcomeResponse
// @Router /rounds/{round_id}/outcomes [get]
func (e *RoundController) getOutcomesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		roundId, ok := pathInt(c, "round_id")
		if !ok {
			return
		}
		outcomes, err := e.outcomeService.GetOutcomesForRound(roundId)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, utils.Map(outcomes, toOutcomeResponse))
	}
}

// @id ResolveOutcome
// @Description Re-resolves a single award outcome of a round. Frozen outcomes are returned unchanged.
// @Tags round
// @Produce json
// @Param round_id path int true "Round Id"
// @Param award_id path int true "Award Id"
// @Success 200 {object} OutcomeResponse
// @Router /rounds/{round_id}/awards/{award_id}/resolve [post]
func (e *RoundController) resolveOutcomeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		roundId, ok := pathInt(c, "round_id")
		if !ok {
			return
		}
		awardId, ok := pathInt(c, "award_id")
		if !ok {
			return
		}
		outcome, err := e.outcomeService.Resolve(c.Request.Context(), roundId, awardId)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, toOutcomeResponse(outcome))
	}
}

type RoundResponse struct {
	ID        int               `json:"id"`
	SessionID int               `json:"session_id"`
	Kind      string            `json:"kind"`
	Num       int               `json:"num"`
	Status    string            `json:"status"`
	Actions   []workflow.Action `json:"actions"`
}

type PanelistResponse struct {
	ID           int    `json:"id"`
	RoundID      int    `json:"round_id"`
	AssignmentID *int   `json:"assignment_id"`
	PersonName   string `json:"person_name"`
	Category     string `json:"category"`
	Kind         string `json:"kind"`
}

type OutcomeResponse struct {
	ID        int     `json:"id"`
	RoundID   int     `json:"round_id"`
	AwardID   int     `json:"award_id"`
	AwardName string  `json:"award_name,omitempty"`
	Num       int     `json:"num"`
	Name      *string `json:"name"`
	Result    string  `json:"result"`
	Frozen    bool    `json:"frozen"`
}

func toRoundResponse(round *repository.Round, actions []workflow.Action) *RoundResponse {
	return &RoundResponse{
		ID:        round.ID,
		SessionID: round.SessionID,
		Kind:      round.Kind.String(),
		Num:       round.Num,
		Status:    string(round.Status),
		Actions:   actions,
	}
}

func toPanelistResponse(panelist *repository.Panelist) *PanelistResponse {
	return &PanelistResponse{
		ID:           panelist.ID,
		RoundID:      panelist.RoundID,
		AssignmentID: panelist.AssignmentID,
		PersonName:   panelist.PersonName,
		Category:     panelist.Category.String(),
		Kind:         panelist.Kind.String(),
	}
}

func toOutcomeResponse(outcome *repository.Outcome) *OutcomeResponse {
	response := &OutcomeResponse{
		ID:      outcome.ID,
		RoundID: outcome.RoundID,
		AwardID: outcome.AwardID,
		Num:     outcome.Num,
		Name:    outcome.Name,
		Result:  string(outcome.Result),
		Frozen:  outcome.Frozen,
	}
	if outcome.Award != nil {
		response.AwardName = outcome.Award.Name
	}
	return response
}
