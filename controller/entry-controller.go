package controller

import (
	"scorekeeper/app_error"
	"scorekeeper/repository"
	"scorekeeper/service"
	"scorekeeper/workflow"

	"github.com/gin-gonic/gin"
)

type EntryController struct {
	entryService *service.EntryService
}

func NewEntryController(deps *Dependencies) *EntryController {
	return &EntryController{
		entryService: service.NewEntryService(deps.DB, deps.Dispatcher),
	}
}

var entryActions = []workflow.Action{
	workflow.ActionInvite,
	workflow.ActionSubmit,
	workflow.ActionApprove,
	workflow.ActionWithdraw,
}

func setupEntryController(deps *Dependencies) []RouteInfo {
	e := NewEntryController(deps)
	basePath := "/entries"
	routes := []RouteInfo{
		{Method: "GET", Path: "/:entry_id", HandlerFunc: e.getEntryHandler()},
	}
	routes = append(routes, transitionRoutes("entry_id", entryActions, operators, e.transitionHandler)...)
	for i, route := range routes {
		routes[i].Path = basePath + route.Path
	}
	return routes
}

// @id GetEntry
// @Description Fetches an entry by id
// @Tags entry
// @Produce json
// @Param entry_id path int true "Entry Id"
// @Success 200 {object} EntryResponse
// @Router /entries/{entry_id} [get]
func (e *EntryController) getEntryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		entryId, ok := pathInt(c, "entry_id")
		if !ok {
			return
		}
		entry, err := e.entryService.GetEntryById(entryId)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, toEntryResponse(entry))
	}
}

// @id TransitionEntry
// @Description Fires a workflow action (invite, submit, approve, withdraw) on an entry. Approval enters every included contest.
// @Tags entry
// @Produce json
// @Param entry_id path int true "Entry Id"
// @Param action path string true "Action"
// @Success 200 {object} EntryResponse
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /entries/{entry_id}/{action} [post]
func (e *EntryController) transitionHandler(action workflow.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		entryId, ok := pathInt(c, "entry_id")
		if !ok {
			return
		}
		entry, err := e.entryService.Transition(c.Request.Context(), entryId, action, actorOf(c))
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, toEntryResponse(entry))
	}
}

type EntryCreate struct {
	EntityID int    `json:"entity_id" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Draw     int    `json:"draw"`
}

type EntryResponse struct {
	ID        int    `json:"id"`
	SessionID int    `json:"session_id"`
	EntityID  int    `json:"entity_id"`
	Name      string `json:"name"`
	Draw      int    `json:"draw"`
	Status    string `json:"status"`
}

func toEntryResponse(entry *repository.Entry) *EntryResponse {
	return &EntryResponse{
		ID:        entry.ID,
		SessionID: entry.SessionID,
		EntityID:  entry.EntityID,
		Name:      entry.Name,
		Draw:      entry.Draw,
		Status:    string(entry.Status),
	}
}
