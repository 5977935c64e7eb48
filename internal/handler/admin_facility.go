package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/HeZaoCha/ParkingManagement/internal/model"
	"github.com/HeZaoCha/ParkingManagement/internal/repository"
)

// AdminHandler covers facility and space administration.  All routes
// sit behind ADMIN role middleware.
type AdminHandler struct {
	Facilities *repository.FacilityRepo
	Spaces     *repository.SpaceRepo
}

// NewAdminHandler constructs an AdminHandler and panics if any
// dependency is nil.
func NewAdminHandler(facilities *repository.FacilityRepo, spaces *repository.SpaceRepo) *AdminHandler {
	if facilities == nil || spaces == nil {
		panic("nil dependency passed to NewAdminHandler")
	}
	return &AdminHandler{Facilities: facilities, Spaces: spaces}
}

type facilityReq struct {
	Name            string  `json:"name"`
	Address         *string `json:"address"`
	HourlyRateCents int64   `json:"hourly_rate_cents"`
	IsActive        *bool   `json:"is_active"`
}

// CreateFacility handles POST /v1/admin/facilities.
func (h *AdminHandler) CreateFacility(c echo.Context) error {
	var req facilityReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}
	if req.HourlyRateCents <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "hourly_rate_cents must be positive"})
	}
	f := model.Facility{
		Name:            req.Name,
		Address:         req.Address,
		HourlyRateCents: req.HourlyRateCents,
		IsActive:        true,
	}
	if req.IsActive != nil {
		f.IsActive = *req.IsActive
	}
	if err := h.Facilities.Create(c.Request().Context(), &f); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "facility name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, f)
}

// UpdateFacility handles PUT /v1/admin/facilities/:id.
func (h *AdminHandler) UpdateFacility(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid facility id"})
	}
	ctx := c.Request().Context()
	f, err := h.Facilities.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "facility not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	var req facilityReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		f.Name = name
	}
	if req.Address != nil {
		f.Address = req.Address
	}
	if req.HourlyRateCents > 0 {
		f.HourlyRateCents = req.HourlyRateCents
	}
	if req.IsActive != nil {
		f.IsActive = *req.IsActive
	}
	if err := h.Facilities.Update(ctx, f); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, f)
}

// DeleteFacility handles DELETE /v1/admin/facilities/:id.  Facilities
// with spaces must be emptied first.
func (h *AdminHandler) DeleteFacility(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid facility id"})
	}
	err := h.Facilities.Delete(c.Request().Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "facility still has spaces"})
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "facility not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ListAllFacilities handles GET /v1/admin/facilities, including inactive
// ones.
func (h *AdminHandler) ListAllFacilities(c echo.Context) error {
	facilities, err := h.Facilities.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"facilities": facilities})
}

type spaceReq struct {
	SpaceNumber string  `json:"space_number"`
	SpaceClass  string  `json:"space_class"`
	Floor       *string `json:"floor"`
	Area        *string `json:"area"`
	IsReserved  *bool   `json:"is_reserved"`
}

// CreateSpace handles POST /v1/admin/facilities/:id/spaces.
func (h *AdminHandler) CreateSpace(c echo.Context) error {
	facilityID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid facility id"})
	}
	var req spaceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.SpaceNumber = strings.TrimSpace(req.SpaceNumber)
	if req.SpaceNumber == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "space_number required"})
	}
	if req.SpaceClass == "" {
		req.SpaceClass = model.SpaceClassStandard
	}
	if !model.ValidSpaceClass(req.SpaceClass) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown space_class"})
	}
	ctx := c.Request().Context()
	if _, err := h.Facilities.GetByID(ctx, facilityID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "facility not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	sp := model.Space{
		FacilityID:  facilityID,
		SpaceNumber: req.SpaceNumber,
		SpaceClass:  req.SpaceClass,
		Floor:       req.Floor,
		Area:        req.Area,
	}
	if req.IsReserved != nil {
		sp.IsReserved = *req.IsReserved
	}
	if err := h.Spaces.Create(ctx, &sp); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "space number already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, sp)
}

// UpdateSpace handles PUT /v1/admin/spaces/:id.  Occupancy cannot be
// edited here; it is owned by the entry and exit flows.
func (h *AdminHandler) UpdateSpace(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid space id"})
	}
	ctx := c.Request().Context()
	sp, err := h.Spaces.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "space not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	var req spaceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.SpaceClass != "" {
		if !model.ValidSpaceClass(req.SpaceClass) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown space_class"})
		}
		sp.SpaceClass = req.SpaceClass
	}
	if req.Floor != nil {
		sp.Floor = req.Floor
	}
	if req.Area != nil {
		sp.Area = req.Area
	}
	if req.IsReserved != nil {
		sp.IsReserved = *req.IsReserved
	}
	if err := h.Spaces.Update(ctx, sp); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, sp)
}

// DeleteSpace handles DELETE /v1/admin/spaces/:id.
func (h *AdminHandler) DeleteSpace(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid space id"})
	}
	err := h.Spaces.Delete(c.Request().Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "space is occupied or has records"})
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "space not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
