package controller

import (
	"time"

	"scorekeeper/app_error"
	"scorekeeper/repository"
	"scorekeeper/service"
	"scorekeeper/utils"
	"scorekeeper/workflow"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
)

type ConventionController struct {
	conventionService *service.ConventionService
	sessionService    *service.SessionService
	activationService *service.ActivationService
}

func NewConventionController(deps *Dependencies) *ConventionController {
	return &ConventionController{
		conventionService: service.NewConventionService(deps.DB, deps.Dispatcher),
		sessionService:    service.NewSessionService(deps.DB, deps.Dispatcher),
		activationService: service.NewActivationService(deps.DB),
	}
}

var conventionActions = []workflow.Action{
	workflow.ActionBuild,
	workflow.ActionOpen,
	workflow.ActionClose,
	workflow.ActionStart,
	workflow.ActionFinish,
	workflow.ActionVerify,
}

func setupConventionController(deps *Dependencies) []RouteInfo {
	e := NewConventionController(deps)
	basePath := "/conventions"
	routes := []RouteInfo{
		{Method: "GET", Path: "", HandlerFunc: e.getConventionsHandler()},
		{Method: "POST", Path: "", HandlerFunc: e.createConventionHandler(), Authenticated: true, RoleRequired: adminOnly},
		{Method: "GET", Path: "/:convention_id", HandlerFunc: e.getConventionHandler()},
		{Method: "GET", Path: "/:convention_id/sessions", HandlerFunc: e.getSessionsHandler()},
		{Method: "GET", Path: "/:convention_id/assignments", HandlerFunc: e.getAssignmentsHandler()},
		{Method: "POST", Path: "/:convention_id/assignments", HandlerFunc: e.createAssignmentHandler(), Authenticated: true, RoleRequired: operators},
	}
	routes = append(routes, transitionRoutes("convention_id", conventionActions, operators, e.transitionHandler)...)
	for i, route := range routes {
		routes[i].Path = basePath + route.Path
	}
	assignmentRoutes := transitionRoutes("assignment_id", activationActions, operators, activationHandler(e.activationService, service.TypeAssignment, "assignment_id"))
	for i, route := range assignmentRoutes {
		assignmentRoutes[i].Path = "/assignments" + route.Path
	}
	return append(routes, assignmentRoutes...)
}

// @id GetConventions
// @Description Fetches all conventions, newest first
// @Tags convention
// @Produce json
// @Success 200 {array} ConventionResponse
// @Router /conventions [get]
func (e *ConventionController) getConventionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		conventions, err := e.conventionService.GetAllConventions()
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, utils.Map(conventions, toConventionResponse))
	}
}

// @id GetConvention
// @Description Fetches a convention by id
// @Tags convention
// @Produce json
// @Param convention_id path int true "Convention Id"
// @Success 200 {object} ConventionResponse
// @Router /conventions/{convention_id} [get]
func (e *ConventionController) getConventionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		conventionId, ok := pathInt(c, "convention_id")
		if !ok {
			return
		}
		convention, err := e.conventionService.GetConventionById(conventionId)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, toConventionResponse(convention))
	}
}

// @id CreateConvention
// @Description Creates a convention. Sessions are created when it is built.
// @Tags convention
// @Accept json
// @Produce json
// @Param body body ConventionCreate true "Convention to create"
// @Success 201 {object} ConventionResponse
// @Router /conventions [post]
func (e *ConventionController) createConventionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body ConventionCreate
		if err := c.BindJSON(&body); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		convention, err := e.conventionService.CreateConvention(body.toModel())
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(201, toConventionResponse(convention))
	}
}

// @id TransitionConvention
// @Description Fires a workflow action (build, open, close, start, finish, verify) on a convention
// @Tags convention
// @Produce json
// @Param convention_id path int true "Convention Id"
// @Param action path string true "Action"
// @Success 200 {object} ConventionResponse
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /conventions/{convention_id}/{action} [post]
func (e *ConventionController) transitionHandler(action workflow.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		conventionId, ok := pathInt(c, "convention_id")
		if !ok {
			return
		}
		convention, err := e.conventionService.Transition(c.Request.Context(), conventionId, action, actorOf(c))
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, toConventionResponse(convention))
	}
}

// @id GetConventionSessions
// @Description Fetches the sessions of a convention
// @Tags convention
// @Produce json
// @Param convention_id path int true "Convention Id"
// @Success 200 {array} SessionResponse
// @Router /conventions/{convention_id}/sessions [get]
func (e *ConventionController) getSessionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		conventionId, ok := pathInt(c, "convention_id")
		if !ok {
			return
		}
		sessions, err := e.sessionService.GetSessionsForConvention(conventionId)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, utils.Map(sessions, toSessionResponse))
	}
}

// @id GetAssignments
// @Description Fetches the judges assigned to a convention
// @Tags convention
// @Produce json
// @Param convention_id path int true "Convention Id"
// @Success 200 {array} AssignmentResponse
// @Router /conventions/{convention_id}/assignments [get]
func (e *ConventionController) getAssignmentsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		conventionId, ok := pathInt(c, "convention_id")
		if !ok {
			return
		}
		assignments, err := e.conventionService.GetAssignmentsForConvention(conventionId)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, utils.Map(assignments, toAssignmentResponse))
	}
}

// @id CreateAssignment
// @Description Assigns a judge to a convention. New assignments must be activated before round build.
// @Tags convention
// @Accept json
// @Produce json
// @Param convention_id path int true "Convention Id"
// @Param body body AssignmentCreate true "Assignment to create"
// @Success 201 {object} AssignmentResponse
// @Router /conventions/{convention_id}/assignments [post]
func (e *ConventionController) createAssignmentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		conventionId, ok := pathInt(c, "convention_id")
		if !ok {
			return
		}
		var body AssignmentCreate
		if err := c.BindJSON(&body); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		assignment, err := e.conventionService.CreateAssignment(&repository.Assignment{
			ConventionID: conventionId,
			PersonName:   body.PersonName,
			Category:     body.Category,
			Kind:         body.Kind,
		})
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(201, toAssignmentResponse(assignment))
	}
}

type ConventionCreate struct {
	Name         string     `json:"name" binding:"required"`
	Season       string     `json:"season"`
	Year         int        `json:"year" binding:"required"`
	EntityID     int        `json:"entity_id" binding:"required"`
	SessionKinds []string   `json:"session_kinds" binding:"required"`
	OpenDate     *time.Time `json:"open_date"`
	CloseDate    *time.Time `json:"close_date"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
}

type ConventionResponse struct {
	ID           int        `json:"id"`
	Name         string     `json:"name"`
	Season       string     `json:"season"`
	Year         int        `json:"year"`
	EntityID     int        `json:"entity_id"`
	Status       string     `json:"status"`
	SessionKinds []string   `json:"session_kinds"`
	OpenDate     *time.Time `json:"open_date"`
	CloseDate    *time.Time `json:"close_date"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
}

type AssignmentCreate struct {
	PersonName string                   `json:"person_name" binding:"required"`
	Category   repository.PanelCategory `json:"category" binding:"required"`
	Kind       repository.PanelKind     `json:"kind" binding:"required"`
}

type AssignmentResponse struct {
	ID           int    `json:"id"`
	ConventionID int    `json:"convention_id"`
	PersonName   string `json:"person_name"`
	Category     string `json:"category"`
	Kind         string `json:"kind"`
	Status       string `json:"status"`
}

func (e *ConventionCreate) toModel() *repository.Convention {
	return &repository.Convention{
		Name:         e.Name,
		Season:       e.Season,
		Year:         e.Year,
		EntityID:     e.EntityID,
		SessionKinds: pq.StringArray(e.SessionKinds),
		OpenDate:     e.OpenDate,
		CloseDate:    e.CloseDate,
		StartDate:    e.StartDate,
		EndDate:      e.EndDate,
	}
}

func toConventionResponse(convention *repository.Convention) *ConventionResponse {
	return &ConventionResponse{
		ID:           convention.ID,
		Name:         convention.Name,
		Season:       convention.Season,
		Year:         convention.Year,
		EntityID:     convention.EntityID,
		Status:       string(convention.Status),
		SessionKinds: convention.SessionKinds,
		OpenDate:     convention.OpenDate,
		CloseDate:    convention.CloseDate,
		StartDate:    convention.StartDate,
		EndDate:      convention.EndDate,
	}
}

func toAssignmentResponse(assignment *repository.Assignment) *AssignmentResponse {
	return &AssignmentResponse{
		ID:           assignment.ID,
		ConventionID: assignment.ConventionID,
		PersonName:   assignment.PersonName,
		Category:     assignment.Category.String(),
		Kind:         assignment.Kind.String(),
		Status:       string(assignment.Status),
	}
}
