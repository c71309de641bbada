// Package router wires handlers and middleware onto the Echo instance.
// Three surfaces exist: the unauthenticated auth endpoints (rate limited per
// client IP), the protected /v1 API behind the JWT and approval gates, and
// the /v1/admin subtree that additionally requires the admin role.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/fairops/fairadmin/internal/config"
	"github.com/fairops/fairadmin/internal/handler"
	"github.com/fairops/fairadmin/internal/middleware"
	"github.com/fairops/fairadmin/internal/repository"
)

// Deps bundles everything route registration needs.
type Deps struct {
	Auth       *handler.AuthHandler
	Fairs      *handler.FairHandler
	Sectors    *handler.SectorHandler
	Exhibitors *handler.ExhibitorHandler
	Assign     *handler.AssignmentHandler
	Capacity   *handler.CapacityHandler
	Admin      *handler.AdminUserHandler
	Activities *handler.ActivityHandler

	Profiles *repository.ProfileRepo
	Tokens   *repository.TokenRepo

	JWTSecret string
	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig
	Redis     *redis.Client
}

// Register sets up every route on the Echo instance.
func Register(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health)

	// Unauthenticated session endpoints. The token bucket keys on client IP
	// so anonymous sign-in attempts are throttled per address.
	auth := e.Group("/v1/auth", middleware.NewTokenBucket(d.RateLimit, d.Redis))
	auth.POST("/register", d.Auth.Register)
	auth.POST("/login", d.Auth.Login)
	auth.POST("/refresh", d.Auth.Refresh)

	// Everything under /v1 needs a valid access token and, past that, an
	// approved and active profile. The approval check re-reads the profile
	// on each request so a revoked approval takes effect immediately.
	api := e.Group("/v1")
	api.Use(middleware.JWTAuth(d.JWTSecret))
	api.Use(middleware.RequireApproved(d.Profiles, d.Tokens))

	api.POST("/auth/logout", d.Auth.Logout)
	api.GET("/me", d.Auth.Me)

	api.GET("/fairs", d.Fairs.List)
	api.GET("/fairs/:id", d.Fairs.Get)
	api.POST("/fairs", d.Fairs.Create)
	api.PUT("/fairs/:id", d.Fairs.Update)
	api.DELETE("/fairs/:id", d.Fairs.Delete)

	api.GET("/sectors", d.Sectors.List)
	api.GET("/sectors/:id", d.Sectors.Get)
	api.POST("/sectors", d.Sectors.Create)
	api.PUT("/sectors/:id", d.Sectors.Update)
	api.DELETE("/sectors/:id", d.Sectors.Delete)

	api.GET("/exhibitors", d.Exhibitors.List)
	api.GET("/exhibitors/:id", d.Exhibitors.Get)
	api.POST("/exhibitors", d.Exhibitors.Create)
	api.PUT("/exhibitors/:id", d.Exhibitors.Update)
	api.DELETE("/exhibitors/:id", d.Exhibitors.Delete)

	api.POST("/exhibitors/:id/sectors", d.Assign.AssignSector)
	api.POST("/exhibitors/:id/sectors/bulk", d.Assign.AssignSectorsBulk)
	api.DELETE("/exhibitors/:id/sectors/:sectorID", d.Assign.UnassignSector)
	api.POST("/exhibitors/:id/fairs", d.Assign.LinkFair)
	api.DELETE("/exhibitors/:id/fairs/:fairID", d.Assign.UnlinkFair)

	api.GET("/capacity", d.Capacity.View)
	api.GET("/capacity/sectors", d.Capacity.SectorNames)
	api.GET("/capacity/summary/cities", d.Capacity.CitySummary)
	api.GET("/capacity/summary/top-sectors", d.Capacity.TopSectors)
	api.GET("/capacity/export/remaining", d.Capacity.ExportRemaining)
	api.GET("/capacity/export/empty", d.Capacity.ExportEmpty)

	// The feed is read on every dashboard poll; serve it through the Redis
	// response cache.
	api.GET("/activities", d.Activities.Recent, middleware.NewRedisCache(d.Cache, d.Redis))

	// Account management, admins only.
	admin := api.Group("/admin")
	admin.Use(middleware.RequireRole(repository.RoleAdmin))
	admin.GET("/users", d.Admin.List)
	admin.POST("/users/:id/approve", d.Admin.Approve)
	admin.POST("/users/:id/reject", d.Admin.Reject)
	admin.PUT("/users/:id/role", d.Admin.SetRole)
	admin.PUT("/users/:id/active", d.Admin.SetActive)
	admin.DELETE("/users/:id", d.Admin.Delete)
}
