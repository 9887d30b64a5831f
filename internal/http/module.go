// Package http holds the contract between the router and the bounded
// context modules that mount routes on it.
package http

import (
	"dealership_backend/platform/config"

	"github.com/gin-gonic/gin"
)

// Module is a bounded context that owns a set of routes.
type Module interface {
	Name() string
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext carries the route groups built by the router. Leads mount on
// Protected; approval groups mount on Admin.
type RouterContext struct {
	Engine    *gin.Engine
	V1        *gin.RouterGroup
	Protected *gin.RouterGroup
	Admin     *gin.RouterGroup

	Config         config.JWTConfig
	AuthMiddleware gin.HandlerFunc
}
