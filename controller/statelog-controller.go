package controller

import (
	"time"

	"scorekeeper/app_error"
	"scorekeeper/repository"
	"scorekeeper/service"
	"scorekeeper/utils"

	"github.com/gin-gonic/gin"
)

type StateLogController struct {
	stateLogService *service.StateLogService
}

func NewStateLogController(deps *Dependencies) *StateLogController {
	return &StateLogController{
		stateLogService: service.NewStateLogService(deps.DB),
	}
}

func setupStateLogController(deps *Dependencies) []RouteInfo {
	e := NewStateLogController(deps)
	return []RouteInfo{
		{Method: "GET", Path: "/logs/:entity_type/:entity_id", HandlerFunc: e.getLogsHandler(), Authenticated: true, RoleRequired: scoringDesk},
	}
}

// @id GetStateLogs
// @Description Fetches the transition history of a record, oldest first
// @Tags log
// @Produce json
// @Param entity_type path string true "Record type, e.g. round"
// @Param entity_id path int true "Record Id"
// @Success 200 {array} StateLogResponse
// @Router /logs/{entity_type}/{entity_id} [get]
func (e *StateLogController) getLogsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		entityId, ok := pathInt(c, "entity_id")
		if !ok {
			return
		}
		logs, err := e.stateLogService.GetLogsForEntity(c.Param("entity_type"), entityId)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, utils.Map(logs, toStateLogResponse))
	}
}

type StateLogResponse struct {
	Action      string    `json:"action"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	Actor       string    `json:"actor"`
	Timestamp   time.Time `json:"timestamp"`
	Description string    `json:"description,omitempty"`
}

func toStateLogResponse(log *repository.StateLog) *StateLogResponse {
	return &StateLogResponse{
		Action:      log.Action,
		From:        log.FromState,
		To:          log.ToState,
		Actor:       log.Actor,
		Timestamp:   log.Timestamp,
		Description: log.Description,
	}
}
