package controller

import (
	"strings"

	"scorekeeper/auth"
	"scorekeeper/client"
	"scorekeeper/cron"
	"scorekeeper/service"

	"github.com/gin-contrib/cache/persistence"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const actorKey = "actor"

type RouteInfo struct {
	Method        string
	Path          string
	HandlerFunc   gin.HandlerFunc
	Authenticated bool
	RoleRequired  []string
}

// Dependencies are the process-wide collaborators shared by all controllers.
type Dependencies struct {
	DB          *gorm.DB
	Dispatcher  *service.Dispatcher
	Jobs        client.JobQueue
	Recurring   *cron.RecurringJobService
	Appearances *service.AppearanceService
	Entities    *service.EntityService
	Feed        *FeedHub
	Cache       persistence.CacheStore
}

var (
	adminOnly   = []string{auth.PermissionAdmin}
	operators   = []string{auth.PermissionAdmin, auth.PermissionDRCJ}
	scoringDesk = []string{auth.PermissionAdmin, auth.PermissionDRCJ, auth.PermissionScoring}
)

func SetRoutes(r *gin.Engine, deps *Dependencies) {
	routes := make([]RouteInfo, 0)
	routes = append(routes, setupEntityController(deps)...)
	routes = append(routes, setupAwardController(deps)...)
	routes = append(routes, setupConventionController(deps)...)
	routes = append(routes, setupSessionController(deps)...)
	routes = append(routes, setupEntryController(deps)...)
	routes = append(routes, setupRoundController(deps)...)
	routes = append(routes, setupAppearanceController(deps)...)
	routes = append(routes, setupStateLogController(deps)...)
	routes = append(routes, setupFeedController(deps)...)
	routes = append(routes, setupRecurringJobsController(deps)...)
	api := r.Group("/api")
	for _, route := range routes {
		handlerfuncs := make([]gin.HandlerFunc, 0)
		if route.Authenticated {
			handlerfuncs = append(handlerfuncs, AuthMiddleware(route.RoleRequired))
		}
		handlerfuncs = append(handlerfuncs, route.HandlerFunc)
		api.Handle(route.Method, route.Path, handlerfuncs...)
	}
}

// AuthMiddleware accepts a token from the "auth" cookie or a bearer header and stores the
// operator's name as the actor recorded in state logs.
func AuthMiddleware(roles []string) gin.HandlerFunc {
	return func(r *gin.Context) {
		tokenString, err := r.Cookie("auth")
		if err != nil {
			tokenString = strings.TrimPrefix(r.GetHeader("Authorization"), "Bearer ")
		}
		if tokenString == "" {
			r.AbortWithStatusJSON(401, gin.H{"error": "Unauthenticated"})
			return
		}
		token, err := auth.ParseToken(tokenString)
		if err != nil || !token.Valid {
			r.AbortWithStatusJSON(401, gin.H{"error": "Unauthenticated"})
			return
		}
		claims := &auth.Claims{}
		if err := claims.FromJWTClaims(token.Claims); err != nil {
			r.AbortWithStatusJSON(401, gin.H{"error": "Unauthenticated"})
			return
		}
		if err := claims.Valid(); err != nil {
			r.AbortWithStatusJSON(401, gin.H{"error": "Unauthenticated"})
			return
		}
		if len(roles) > 0 && !claims.HasAny(roles) {
			r.AbortWithStatusJSON(403, gin.H{"error": "Unauthorized"})
			return
		}
		r.Set(actorKey, claims.Subject)
		r.Next()
	}
}

func actorOf(c *gin.Context) string {
	return c.GetString(actorKey)
}
