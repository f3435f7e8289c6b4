package controller

import (
	"scorekeeper/app_error"
	"scorekeeper/config"
	"scorekeeper/repository"
	"scorekeeper/service"
	"scorekeeper/utils"

	"github.com/gin-gonic/gin"
)

type AwardController struct {
	awardService      *service.AwardService
	activationService *service.ActivationService
}

func NewAwardController(deps *Dependencies) *AwardController {
	return &AwardController{
		awardService:      service.NewAwardService(deps.DB),
		activationService: service.NewActivationService(deps.DB),
	}
}

func setupAwardController(deps *Dependencies) []RouteInfo {
	e := NewAwardController(deps)
	basePath := "/awards"
	routes := []RouteInfo{
		{Method: "GET", Path: "", HandlerFunc: e.getAwardsHandler()},
		{Method: "POST", Path: "", HandlerFunc: e.createAwardHandler(), Authenticated: true, RoleRequired: adminOnly},
		{Method: "POST", Path: "/seed", HandlerFunc: e.seedAwardsHandler(), Authenticated: true, RoleRequired: adminOnly},
		{Method: "GET", Path: "/:award_id", HandlerFunc: e.getAwardHandler()},
	}
	routes = append(routes, transitionRoutes("award_id", activationActions, adminOnly, activationHandler(e.activationService, service.TypeAward, "award_id"))...)
	for i, route := range routes {
		routes[i].Path = basePath + route.Path
	}
	return routes
}

// @id GetAwards
// @Description Fetches all awards in display order
// @Tags award
// @Produce json
// @Success 200 {array} AwardResponse
// @Router /awards [get]
func (e *AwardController) getAwardsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		awards, err := e.awardService.GetAllAwards()
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, utils.Map(awards, toAwardResponse))
	}
}

// @id GetAward
// @Description Fetches an award by id
// @Tags award
// @Produce json
// @Param award_id path int true "Award Id"
// @Success 200 {object} AwardResponse
// @Router /awards/{award_id} [get]
func (e *AwardController) getAwardHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		awardId, ok := pathInt(c, "award_id")
		if !ok {
			return
		}
		award, err := e.awardService.GetAwardById(awardId)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, toAwardResponse(award))
	}
}

// @id CreateAward
// @Description Creates an award for an entity
// @Tags award
// @Accept json
// @Produce json
// @Param body body AwardCreate true "Award to create"
// @Success 201 {object} AwardResponse
// @Router /awards [post]
func (e *AwardController) createAwardHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body AwardCreate
		if err := c.BindJSON(&body); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		model, err := body.toModel()
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		award, err := e.awardService.CreateAward(model)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(201, toAwardResponse(award))
	}
}

// @id SeedAwards
// @Description Creates or updates awards from a YAML award catalog
// @Tags award
// @Accept plain
// @Produce json
// @Success 200 {object} service.SeedResult
// @Router /awards/seed [post]
func (e *AwardController) seedAwardsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := c.GetRawData()
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		catalog, err := config.ParseAwardCatalog(data)
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		result, err := e.awardService.SeedAwards(c.Request.Context(), catalog)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, result)
	}
}

type AwardCreate struct {
	EntityID  int      `json:"entity_id" binding:"required"`
	Name      string   `json:"name" binding:"required"`
	Kind      string   `json:"kind" binding:"required"`
	Level     string   `json:"level" binding:"required"`
	Threshold *float64 `json:"threshold"`
	Minimum   *float64 `json:"minimum"`
	Advance   *int     `json:"advance"`
	IsPrimary bool     `json:"is_primary"`
	IsSingle  bool     `json:"is_single"`
}

type AwardResponse struct {
	ID        int      `json:"id"`
	EntityID  int      `json:"entity_id"`
	Name      string   `json:"name"`
	Kind      string   `json:"kind"`
	Level     string   `json:"level"`
	Threshold *float64 `json:"threshold"`
	Minimum   *float64 `json:"minimum"`
	Advance   *int     `json:"advance"`
	IsPrimary bool     `json:"is_primary"`
	IsSingle  bool     `json:"is_single"`
	Status    string   `json:"status"`
	TreeSort  *int     `json:"tree_sort"`
}

func (e *AwardCreate) toModel() (*repository.Award, error) {
	kind, err := repository.ParseAwardKind(e.Kind)
	if err != nil {
		return nil, err
	}
	level, err := repository.ParseAwardLevel(e.Level)
	if err != nil {
		return nil, err
	}
	return &repository.Award{
		EntityID:  e.EntityID,
		Name:      e.Name,
		Kind:      kind,
		Level:     level,
		Threshold: e.Threshold,
		Minimum:   e.Minimum,
		Advance:   e.Advance,
		IsPrimary: e.IsPrimary,
		IsSingle:  e.IsSingle,
	}, nil
}

func toAwardResponse(award *repository.Award) *AwardResponse {
	return &AwardResponse{
		ID:        award.ID,
		EntityID:  award.EntityID,
		Name:      award.Name,
		Kind:      award.Kind.String(),
		Level:     award.Level.String(),
		Threshold: award.Threshold,
		Minimum:   award.Minimum,
		Advance:   award.Advance,
		IsPrimary: award.IsPrimary,
		IsSingle:  award.IsSingle,
		Status:    string(award.Status),
		TreeSort:  award.TreeSort,
	}
}
