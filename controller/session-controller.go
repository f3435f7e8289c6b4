package controller

import (
	"scorekeeper/app_error"
	"scorekeeper/repository"
	"scorekeeper/service"
	"scorekeeper/utils"
	"scorekeeper/workflow"

	"github.com/gin-gonic/gin"
)

type SessionController struct {
	sessionService    *service.SessionService
	roundService      *service.RoundService
	entryService      *service.EntryService
	contestService    *service.ContestService
	activationService *service.ActivationService
}

func NewSessionController(deps *Dependencies) *SessionController {
	return &SessionController{
		sessionService:    service.NewSessionService(deps.DB, deps.Dispatcher),
		roundService:      service.NewRoundService(deps.DB, deps.Dispatcher),
		entryService:      service.NewEntryService(deps.DB, deps.Dispatcher),
		contestService:    service.NewContestService(deps.DB),
		activationService: service.NewActivationService(deps.DB),
	}
}

var sessionActions = []workflow.Action{
	workflow.ActionBuild,
	workflow.ActionOpen,
	workflow.ActionClose,
	workflow.ActionStart,
	workflow.ActionFinish,
	workflow.ActionVerify,
}

func setupSessionController(deps *Dependencies) []RouteInfo {
	e := NewSessionController(deps)
	basePath := "/sessions"
	routes := []RouteInfo{
		{Method: "GET", Path: "/:session_id", HandlerFunc: e.getSessionHandler()},
		{Method: "PATCH", Path: "/:session_id", HandlerFunc: e.updateSessionHandler(), Authenticated: true, RoleRequired: operators},
		{Method: "GET", Path: "/:session_id/rounds", HandlerFunc: e.getRoundsHandler()},
		{Method: "GET", Path: "/:session_id/contests", HandlerFunc: e.getContestsHandler()},
		{Method: "GET", Path: "/:session_id/entries", HandlerFunc: e.getEntriesHandler()},
		{Method: "POST", Path: "/:session_id/entries", HandlerFunc: e.createEntryHandler(), Authenticated: true, RoleRequired: operators},
	}
	routes = append(routes, transitionRoutes("session_id", sessionActions, operators, e.transitionHandler)...)
	for i, route := range routes {
		routes[i].Path = basePath + route.Path
	}

	contestRoutes := transitionRoutes("contest_id", []workflow.Action{workflow.ActionInclude, workflow.ActionExclude}, operators, e.contestTransitionHandler)
	for i, route := range contestRoutes {
		contestRoutes[i].Path = "/contests" + route.Path
	}
	contestantRoutes := transitionRoutes("contestant_id", activationActions, operators, activationHandler(e.activationService, service.TypeContestant, "contestant_id"))
	for i, route := range contestantRoutes {
		contestantRoutes[i].Path = "/contestants" + route.Path
	}
	routes = append(routes, contestRoutes...)
	return append(routes, contestantRoutes...)
}

// @id GetSession
// @Description Fetches a session by id
// @Tags session
// @Produce json
// @Param session_id path int true "Session Id"
// @Success 200 {object} SessionResponse
// @Router /sessions/{session_id} [get]
func (e *SessionController) getSessionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionId, ok := pathInt(c, "session_id")
		if !ok {
			return
		}
		session, err := e.sessionService.GetSessionById(sessionId)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, toSessionResponse(session))
	}
}

// @id UpdateSession
// @Description Changes the round count of a session that has not been built
// @Tags session
// @Accept json
// @Produce json
// @Param session_id path int true "Session Id"
// @Param body body SessionUpdate true "Session update"
// @Success 200 {object} SessionResponse
// @Router /sessions/{session_id} [patch]
func (e *SessionController) updateSessionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionId, ok := pathInt(c, "session_id")
		if !ok {
			return
		}
		var body SessionUpdate
		if err := c.BindJSON(&body); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		session, err := e.sessionService.SetNumRounds(c.Request.Context(), sessionId, body.NumRounds)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, toSessionResponse(session))
	}
}

// @id TransitionSession
// @Description Fires a workflow action (build, open, close, start, finish, verify) on a session
// @Tags session
// @Produce json
// @Param session_id path int true "Session Id"
// @Param action path string true "Action"
// @Success 200 {object} SessionResponse
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /sessions/{session_id}/{action} [post]
func (e *SessionController) transitionHandler(action workflow.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionId, ok := pathInt(c, "session_id")
		if !ok {
			return
		}
		session, err := e.sessionService.Transition(c.Request.Context(), sessionId, action, actorOf(c))
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, toSessionResponse(session))
	}
}

// @id GetSessionRounds
// @Description Fetches the rounds of a session in chronological order
// @Tags session
// @Produce json
// @Param session_id path int true "Session Id"
// @Success 200 {array} RoundResponse
// @Router /sessions/{session_id}/rounds [get]
func (e *SessionController) getRoundsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionId, ok := pathInt(c, "session_id")
		if !ok {
			return
		}
		rounds, err := e.roundService.GetRoundsForSession(sessionId)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, utils.Map(rounds, func(round *repository.Round) *RoundResponse {
			return toRoundResponse(round, e.roundService.Actions(round))
		}))
	}
}

// @id GetSessionContests
// @Description Fetches the contests of a session
// @Tags session
// @Produce json
// @Param session_id path int true "Session Id"
// @Success 200 {array} ContestResponse
// @Router /sessions/{session_id}/contests [get]
func (e *SessionController) getContestsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionId, ok := pathInt(c, "session_id")
		if !ok {
			return
		}
		contests, err := e.sessionService.GetContestsForSession(sessionId)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, utils.Map(contests, toContestResponse))
	}
}

// @id TransitionContest
// @Description Includes or excludes a contest
// @Tags session
// @Produce json
// @Param contest_id path int true "Contest Id"
// @Param action path string true "include or exclude"
// @Success 200 {object} ContestResponse
// @Router /contests/{contest_id}/{action} [post]
func (e *SessionController) contestTransitionHandler(action workflow.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		contestId, ok := pathInt(c, "contest_id")
		if !ok {
			return
		}
		contest, err := e.contestService.Transition(c.Request.Context(), contestId, action, actorOf(c))
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, toContestResponse(contest))
	}
}

// @id GetSessionEntries
// @Description Fetches the entries of a session ordered by draw
// @Tags session
// @Produce json
// @Param session_id path int true "Session Id"
// @Success 200 {array} EntryResponse
// @Router /sessions/{session_id}/entries [get]
func (e *SessionController) getEntriesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionId, ok := pathInt(c, "session_id")
		if !ok {
			return
		}
		entries, err := e.entryService.GetEntriesForSession(sessionId)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, utils.Map(entries, toEntryResponse))
	}
}

// @id CreateEntry
// @Description Registers a group for a session
// @Tags session
// @Accept json
// @Produce json
// @Param session_id path int true "Session Id"
// @Param body body EntryCreate true "Entry to create"
// @Success 201 {object} EntryResponse
// @Router /sessions/{session_id}/entries [post]
func (e *SessionController) createEntryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionId, ok := pathInt(c, "session_id")
		if !ok {
			return
		}
		var body EntryCreate
		if err := c.BindJSON(&body); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		entry, err := e.entryService.CreateEntry(&repository.Entry{
			SessionID: sessionId,
			EntityID:  body.EntityID,
			Name:      body.Name,
			Draw:      body.Draw,
		})
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(201, toEntryResponse(entry))
	}
}

type SessionUpdate struct {
	NumRounds int `json:"num_rounds" binding:"required,min=1,max=3"`
}

type SessionResponse struct {
	ID           int    `json:"id"`
	ConventionID int    `json:"convention_id"`
	Kind         string `json:"kind"`
	NumRounds    int    `json:"num_rounds"`
	Status       string `json:"status"`
}

type ContestResponse struct {
	ID        int    `json:"id"`
	SessionID int    `json:"session_id"`
	AwardID   int    `json:"award_id"`
	AwardName string `json:"award_name,omitempty"`
	Status    string `json:"status"`
}

func toSessionResponse(session *repository.Session) *SessionResponse {
	return &SessionResponse{
		ID:           session.ID,
		ConventionID: session.ConventionID,
		Kind:         session.Kind.String(),
		NumRounds:    session.NumRounds,
		Status:       string(session.Status),
	}
}

func toContestResponse(contest *repository.Contest) *ContestResponse {
	response := &ContestResponse{
		ID:        contest.ID,
		SessionID: contest.SessionID,
		AwardID:   contest.AwardID,
		Status:    string(contest.Status),
	}
	if contest.Award != nil {
		response.AwardName = contest.Award.Name
	}
	return response
}
