package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/HeZaoCha/ParkingManagement/internal/handler"
	"github.com/HeZaoCha/ParkingManagement/internal/middleware"
	"github.com/HeZaoCha/ParkingManagement/internal/model"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies
// the necessary middleware.  Unauthenticated operations live under
// /v1/auth, while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Rotates the refresh token.
	g.POST("/refresh", a.Refresh)
	// Issues a new access token without rotating the refresh token.
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout accepts a refresh_token body or a bearer token; it does not
	// require the JWT middleware.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole(model.RoleAdmin, model.RoleOperator))
	auth.GET("/me", a.Me)

	// Alias kept so clients can log out at either path.
	e.POST("/v1/logout", a.Logout)
}

// RegisterPublic registers unauthenticated browse endpoints.  Drivers can
// list active facilities with live availability, inspect a facility's
// spaces and look up their own vehicle's status without an account.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler) {
	e.GET("/v1/facilities", p.ListFacilities)
	e.GET("/v1/facilities/:id/spaces", p.ListSpaces)
	e.GET("/v1/vehicles/:plate/status", p.VehicleStatus)
}
