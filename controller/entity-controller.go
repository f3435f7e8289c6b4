package controller

import (
	"log/slog"

	"scorekeeper/app_error"
	"scorekeeper/client"
	"scorekeeper/repository"
	"scorekeeper/service"
	"scorekeeper/utils"

	"github.com/gin-gonic/gin"
)

type EntityController struct {
	entityService     *service.EntityService
	activationService *service.ActivationService
	jobs              client.JobQueue
}

func NewEntityController(deps *Dependencies) *EntityController {
	return &EntityController{
		entityService:     deps.Entities,
		activationService: service.NewActivationService(deps.DB),
		jobs:              deps.Jobs,
	}
}

func setupEntityController(deps *Dependencies) []RouteInfo {
	e := NewEntityController(deps)
	basePath := "/entities"
	routes := []RouteInfo{
		{Method: "GET", Path: "", HandlerFunc: e.getEntitiesHandler()},
		{Method: "POST", Path: "", HandlerFunc: e.createEntityHandler(), Authenticated: true, RoleRequired: adminOnly},
		{Method: "POST", Path: "/resort", HandlerFunc: e.resortHandler(), Authenticated: true, RoleRequired: adminOnly},
		{Method: "GET", Path: "/:entity_id", HandlerFunc: e.getEntityHandler()},
		{Method: "PUT", Path: "/:entity_id/parent", HandlerFunc: e.setParentHandler(), Authenticated: true, RoleRequired: adminOnly},
	}
	routes = append(routes, transitionRoutes("entity_id", activationActions, adminOnly, activationHandler(e.activationService, service.TypeEntity, "entity_id"))...)
	for i, route := range routes {
		routes[i].Path = basePath + route.Path
	}
	return routes
}

// @id GetEntities
// @Description Fetches every entity of the organizational hierarchy
// @Tags entity
// @Produce json
// @Success 200 {array} EntityResponse
// @Router /entities [get]
func (e *EntityController) getEntitiesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		entities, err := e.entityService.GetAllEntities()
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, utils.Map(entities, toEntityResponse))
	}
}

// @id GetEntity
// @Description Fetches an entity by id
// @Tags entity
// @Produce json
// @Param entity_id path int true "Entity Id"
// @Success 200 {object} EntityResponse
// @Router /entities/{entity_id} [get]
func (e *EntityController) getEntityHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		entityId, ok := pathInt(c, "entity_id")
		if !ok {
			return
		}
		entity, err := e.entityService.GetEntityById(entityId)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, toEntityResponse(entity))
	}
}

// @id CreateEntity
// @Description Adds an entity to the hierarchy. Parents that would create a cycle are rejected.
// @Tags entity
// @Accept json
// @Produce json
// @Param body body EntityCreate true "Entity to create"
// @Success 201 {object} EntityResponse
// @Router /entities [post]
func (e *EntityController) createEntityHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body EntityCreate
		if err := c.BindJSON(&body); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		entity, err := e.entityService.CreateEntity(c.Request.Context(), body.toModel())
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		e.enqueueResort(c)
		c.JSON(201, toEntityResponse(entity))
	}
}

// @id SetEntityParent
// @Description Moves an entity under a new parent
// @Tags entity
// @Accept json
// @Produce json
// @Param entity_id path int true "Entity Id"
// @Param body body ParentUpdate true "New parent"
// @Success 200 {object} EntityResponse
// @Router /entities/{entity_id}/parent [put]
func (e *EntityController) setParentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		entityId, ok := pathInt(c, "entity_id")
		if !ok {
			return
		}
		var body ParentUpdate
		if err := c.BindJSON(&body); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		entity, err := e.entityService.SetParent(c.Request.Context(), entityId, body.ParentID)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		e.enqueueResort(c)
		c.JSON(200, toEntityResponse(entity))
	}
}

// @id ResortHierarchy
// @Description Recomputes the display order of all entities and awards
// @Tags entity
// @Produce json
// @Success 200 {object} service.ResortResult
// @Router /entities/resort [post]
func (e *EntityController) resortHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := e.entityService.ResortHierarchy(c.Request.Context())
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, result)
	}
}

func (e *EntityController) enqueueResort(c *gin.Context) {
	if err := e.jobs.Enqueue(c.Request.Context(), client.NewJob(repository.ResortHierarchy, 0)); err != nil {
		slog.Warn("failed to enqueue hierarchy resort", "error", err)
	}
}

type EntityCreate struct {
	Name     string                `json:"name" binding:"required"`
	Code     string                `json:"code"`
	Kind     repository.EntityKind `json:"kind" binding:"required"`
	ParentID *int                  `json:"parent_id"`
}

type ParentUpdate struct {
	ParentID *int `json:"parent_id"`
}

type EntityResponse struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Code     string `json:"code"`
	Kind     string `json:"kind"`
	Status   string `json:"status"`
	ParentID *int   `json:"parent_id"`
	TreeSort *int   `json:"tree_sort"`
}

func (e *EntityCreate) toModel() *repository.Entity {
	return &repository.Entity{
		Name:     e.Name,
		Code:     e.Code,
		Kind:     e.Kind,
		ParentID: e.ParentID,
	}
}

func toEntityResponse(entity *repository.Entity) *EntityResponse {
	return &EntityResponse{
		ID:       entity.ID,
		Name:     entity.Name,
		Code:     entity.Code,
		Kind:     entity.Kind.String(),
		Status:   string(entity.Status),
		ParentID: entity.ParentID,
		TreeSort: entity.TreeSort,
	}
}
