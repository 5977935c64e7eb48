package router

import (
	"github.com/labstack/echo/v4"

	"github.com/HeZaoCha/ParkingManagement/internal/handler"
	"github.com/HeZaoCha/ParkingManagement/internal/middleware"
	"github.com/HeZaoCha/ParkingManagement/internal/model"
)

// RegisterAdmin registers facility, space, tariff and registry
// administration under /v1/admin.  All routes require a valid JWT and
// the ADMIN role.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, s *handler.ScheduleHandler, r *handler.RegistryHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)

	// ---- Facilities ----
	g.GET("/facilities", a.ListAllFacilities)
	g.POST("/facilities", a.CreateFacility)
	g.PUT("/facilities/:id", a.UpdateFacility)
	g.PATCH("/facilities/:id", a.UpdateFacility)
	g.DELETE("/facilities/:id", a.DeleteFacility)

	// ---- Spaces ----
	g.POST("/facilities/:id/spaces", a.CreateSpace)
	g.PUT("/spaces/:id", a.UpdateSpace)
	g.PATCH("/spaces/:id", a.UpdateSpace)
	g.DELETE("/spaces/:id", a.DeleteSpace)

	// ---- Rate schedules ----
	g.GET("/facilities/:id/schedule", s.Get)
	g.PUT("/facilities/:id/schedule", s.Put)
	g.DELETE("/facilities/:id/schedule", s.Delete)

	// ---- VIP registry ----
	g.GET("/vips", r.ListVIPs)
	g.POST("/vips", r.CreateVIP)
	g.PUT("/vips/:id", r.UpdateVIP)
	g.DELETE("/vips/:id", r.DeleteVIP)

	// ---- Watch list ----
	g.GET("/wanted", r.ListWanted)
	g.POST("/wanted", r.CreateWanted)
	g.PUT("/wanted/:id/status", r.UpdateWantedStatus)
}
