package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/HeZaoCha/ParkingManagement/internal/model"
	"github.com/HeZaoCha/ParkingManagement/internal/plate"
	"github.com/HeZaoCha/ParkingManagement/internal/repository"
)

// RegistryHandler administers the two plate registries: VIP memberships
// and the police watch list.  Plates are normalized and validated on
// every write so registry lookups at entry and exit time can match on
// the normalized form alone.
type RegistryHandler struct {
	Vehicles *repository.VehicleRepo
	Wanted   *repository.WantedRepo
}

// NewRegistryHandler constructs a RegistryHandler and panics if any
// dependency is nil.
func NewRegistryHandler(vehicles *repository.VehicleRepo, wanted *repository.WantedRepo) *RegistryHandler {
	if vehicles == nil || wanted == nil {
		panic("nil dependency passed to NewRegistryHandler")
	}
	return &RegistryHandler{Vehicles: vehicles, Wanted: wanted}
}

type vipReq struct {
	LicensePlate string     `json:"license_plate"`
	VIPType      string     `json:"vip_type"`
	OwnerName    string     `json:"owner_name"`
	DiscountRate *float64   `json:"discount_rate"`
	ValidFrom    *time.Time `json:"valid_from"`
	ValidUntil   *time.Time `json:"valid_until"`
	IsActive     *bool      `json:"is_active"`
}

// CreateVIP handles POST /v1/admin/vips.
func (h *RegistryHandler) CreateVIP(c echo.Context) error {
	var req vipReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	normalized := plate.Normalize(req.LicensePlate)
	if err := plate.Validate(normalized); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid license plate"})
	}
	if req.DiscountRate == nil || *req.DiscountRate < 0 || *req.DiscountRate > 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "discount_rate must be in [0,1]"})
	}
	v := model.VIPVehicle{
		LicensePlate: normalized,
		VIPType:      strings.TrimSpace(req.VIPType),
		OwnerName:    strings.TrimSpace(req.OwnerName),
		DiscountRate: *req.DiscountRate,
		ValidUntil:   req.ValidUntil,
		IsActive:     true,
	}
	if req.ValidFrom != nil {
		v.ValidFrom = *req.ValidFrom
	}
	if req.IsActive != nil {
		v.IsActive = *req.IsActive
	}
	if err := h.Vehicles.CreateVIP(c.Request().Context(), &v); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "plate already registered"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, v)
}

// UpdateVIP handles PUT /v1/admin/vips/:id.
func (h *RegistryHandler) UpdateVIP(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid vip id"})
	}
	var req vipReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx := c.Request().Context()
	v, err := h.Vehicles.GetVIPByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "vip not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if req.VIPType != "" {
		v.VIPType = strings.TrimSpace(req.VIPType)
	}
	if req.OwnerName != "" {
		v.OwnerName = strings.TrimSpace(req.OwnerName)
	}
	if req.DiscountRate != nil {
		if *req.DiscountRate < 0 || *req.DiscountRate > 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "discount_rate must be in [0,1]"})
		}
		v.DiscountRate = *req.DiscountRate
	}
	if req.ValidFrom != nil {
		v.ValidFrom = *req.ValidFrom
	}
	if req.ValidUntil != nil {
		v.ValidUntil = req.ValidUntil
	}
	if req.IsActive != nil {
		v.IsActive = *req.IsActive
	}
	if err := h.Vehicles.UpdateVIP(ctx, v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "vip not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, v)
}

// DeleteVIP handles DELETE /v1/admin/vips/:id.
func (h *RegistryHandler) DeleteVIP(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid vip id"})
	}
	if err := h.Vehicles.DeleteVIP(c.Request().Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "vip not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ListVIPs handles GET /v1/admin/vips.
func (h *RegistryHandler) ListVIPs(c echo.Context) error {
	vips, err := h.Vehicles.ListVIP(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"vips": vips})
}

type wantedReq struct {
	LicensePlate string `json:"license_plate"`
	Reason       string `json:"reason"`
	Priority     int    `json:"priority"`
}

// CreateWanted handles POST /v1/admin/wanted.
func (h *RegistryHandler) CreateWanted(c echo.Context) error {
	var req wantedReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	normalized := plate.Normalize(req.LicensePlate)
	if err := plate.Validate(normalized); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid license plate"})
	}
	if strings.TrimSpace(req.Reason) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reason required"})
	}
	w := model.WantedVehicle{
		LicensePlate: normalized,
		Reason:       strings.TrimSpace(req.Reason),
		Priority:     req.Priority,
		Status:       model.WantedStatusActive,
	}
	if err := h.Wanted.Create(c.Request().Context(), &w); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, w)
}

// UpdateWantedStatus handles PUT /v1/admin/wanted/:id/status.
func (h *RegistryHandler) UpdateWantedStatus(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid wanted id"})
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	switch req.Status {
	case model.WantedStatusActive, model.WantedStatusCancelled, model.WantedStatusCaptured:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
	}
	if err := h.Wanted.UpdateStatus(c.Request().Context(), id, req.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "wanted entry not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "status": req.Status})
}

// ListWanted handles GET /v1/admin/wanted with an optional status filter.
func (h *RegistryHandler) ListWanted(c echo.Context) error {
	status := c.QueryParam("status")
	if status != "" {
		switch status {
		case model.WantedStatusActive, model.WantedStatusCancelled, model.WantedStatusCaptured:
		default:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
		}
	}
	entries, err := h.Wanted.List(c.Request().Context(), status)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"wanted": entries})
}
