package controller

import (
	"context"
	"fmt"
	"strconv"

	"scorekeeper/app_error"
	"scorekeeper/repository"
	"scorekeeper/workflow"

	"github.com/gin-gonic/gin"
)

func pathInt(c *gin.Context, name string) (int, bool) {
	value, err := strconv.Atoi(c.Param(name))
	if err != nil {
		c.JSON(400, gin.H{"error": fmt.Sprintf("invalid %s %q", name, c.Param(name))})
		return 0, false
	}
	return value, true
}

// transitionRoutes registers POST <base>/:<param>/<action> for every action.
func transitionRoutes(param string, actions []workflow.Action, roles []string, handler func(workflow.Action) gin.HandlerFunc) []RouteInfo {
	routes := make([]RouteInfo, 0, len(actions))
	for _, action := range actions {
		routes = append(routes, RouteInfo{
			Method:        "POST",
			Path:          fmt.Sprintf("/:%s/%s", param, action),
			HandlerFunc:   handler(action),
			Authenticated: true,
			RoleRequired:  roles,
		})
	}
	return routes
}

type activator interface {
	Transition(ctx context.Context, entityType string, id int, action workflow.Action, actor string) (repository.ActivationStatus, error)
}

// activationHandler serves activate and deactivate for records that are never deleted.
func activationHandler(activationService activator, entityType string, param string) func(workflow.Action) gin.HandlerFunc {
	return func(action workflow.Action) gin.HandlerFunc {
		return func(c *gin.Context) {
			id, ok := pathInt(c, param)
			if !ok {
				return
			}
			status, err := activationService.Transition(c.Request.Context(), entityType, id, action, actorOf(c))
			if err != nil {
				app_error.Respond(c, err)
				return
			}
			c.JSON(200, ActivationResponse{ID: id, Type: entityType, Status: string(status)})
		}
	}
}

type ActivationResponse struct {
	ID     int    `json:"id"`
	Type   string `json:"type"`
	Status string `json:"status"`
}

var activationActions = []workflow.Action{workflow.ActionActivate, workflow.ActionDeactivate}
