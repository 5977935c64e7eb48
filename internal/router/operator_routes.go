package router

import (
	"github.com/labstack/echo/v4"

	"github.com/HeZaoCha/ParkingManagement/internal/handler"
	"github.com/HeZaoCha/ParkingManagement/internal/middleware"
	"github.com/HeZaoCha/ParkingManagement/internal/model"
)

// RegisterOperator registers the booth workflow under /v1/operator.  All
// routes require a valid JWT with the OPERATOR or ADMIN role; admins can
// do everything an operator can.
func RegisterOperator(e *echo.Echo, h *handler.OperatorHandler, d *handler.DashboardHandler, jwtSecret string) {
	g := e.Group(
		"/v1/operator",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleOperator, model.RoleAdmin),
	)

	// ---- Entries and exits ----
	g.POST("/entries", h.Enter)
	g.POST("/exits", h.Exit)

	// ---- Records ----
	g.GET("/records", h.SearchRecords)
	g.POST("/records/:id/pay", h.MarkPaid)

	// ---- Dashboard ----
	g.GET("/dashboard", d.Get)
}
