package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/HeZaoCha/ParkingManagement/internal/repository"
	"github.com/HeZaoCha/ParkingManagement/internal/service"
)

// PublicHandler serves the unauthenticated surface: facility browsing
// with live availability and the "where is my car" status query.
type PublicHandler struct {
	Parking    *service.Parking
	Facilities *repository.FacilityRepo
	Spaces     *repository.SpaceRepo
}

// NewPublicHandler constructs a PublicHandler and panics if any
// dependency is nil.
func NewPublicHandler(parking *service.Parking, facilities *repository.FacilityRepo, spaces *repository.SpaceRepo) *PublicHandler {
	if parking == nil || facilities == nil || spaces == nil {
		panic("nil dependency passed to NewPublicHandler")
	}
	return &PublicHandler{Parking: parking, Facilities: facilities, Spaces: spaces}
}

// ListFacilities handles GET /v1/facilities.  Only active facilities are
// shown, each with its free-space count.
func (h *PublicHandler) ListFacilities(c echo.Context) error {
	rows, err := h.Facilities.ListActive(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"facilities": rows})
}

// ListSpaces handles GET /v1/facilities/:id/spaces.
func (h *PublicHandler) ListSpaces(c echo.Context) error {
	facilityID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid facility id"})
	}
	spaces, err := h.Spaces.ListByFacility(c.Request().Context(), facilityID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"spaces": spaces})
}

// VehicleStatus handles GET /v1/vehicles/:plate/status.  It reports
// whether the plate is currently parked and, if so, where and what the
// running fee is.
func (h *PublicHandler) VehicleStatus(c echo.Context) error {
	status, err := h.Parking.QueryVehicleStatus(c.Request().Context(), c.Param("plate"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidPlate) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid license plate"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "status query failed"})
	}
	return c.JSON(http.StatusOK, status)
}
