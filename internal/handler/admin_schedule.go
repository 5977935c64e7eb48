package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/HeZaoCha/ParkingManagement/internal/model"
	"github.com/HeZaoCha/ParkingManagement/internal/pricing"
	"github.com/HeZaoCha/ParkingManagement/internal/repository"
)

// ScheduleHandler administers per-facility rate schedules.  Every write
// is validated with the fee engine's rules before it reaches storage, so
// a tariff that the engine would reject at exit time can never be saved.
type ScheduleHandler struct {
	Facilities *repository.FacilityRepo
	Schedules  *repository.ScheduleRepo
}

// NewScheduleHandler constructs a ScheduleHandler and panics if any
// dependency is nil.
func NewScheduleHandler(facilities *repository.FacilityRepo, schedules *repository.ScheduleRepo) *ScheduleHandler {
	if facilities == nil || schedules == nil {
		panic("nil dependency passed to NewScheduleHandler")
	}
	return &ScheduleHandler{Facilities: facilities, Schedules: schedules}
}

type tierReq struct {
	StartMinute int    `json:"start_minute"`
	EndMinute   *int   `json:"end_minute"`
	RateCents   int64  `json:"rate_cents"`
	SpaceClass  string `json:"space_class"`
}

type scheduleReq struct {
	ChargeType       string    `json:"charge_type"`
	FreeMinutes      int       `json:"free_minutes"`
	HourlyRateCents  int64     `json:"hourly_rate_cents"`
	DailyMaxFeeCents int64     `json:"daily_max_fee_cents"`
	Tiers            []tierReq `json:"tiers"`
}

// Get handles GET /v1/admin/facilities/:id/schedule.
func (h *ScheduleHandler) Get(c echo.Context) error {
	facilityID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid facility id"})
	}
	sched, err := h.Schedules.ForFacility(c.Request().Context(), facilityID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if sched == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no schedule configured"})
	}
	return c.JSON(http.StatusOK, sched)
}

// Put handles PUT /v1/admin/facilities/:id/schedule.  It replaces the
// facility's tariff atomically after validation.
func (h *ScheduleHandler) Put(c echo.Context) error {
	facilityID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid facility id"})
	}
	ctx := c.Request().Context()
	if _, err := h.Facilities.GetByID(ctx, facilityID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "facility not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	var req scheduleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if _, ok := pricing.ParseChargeMode(req.ChargeType); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "charge_type must be fixed or tiered"})
	}

	sched := model.RateSchedule{
		FacilityID:       facilityID,
		ChargeType:       req.ChargeType,
		FreeMinutes:      req.FreeMinutes,
		HourlyRateCents:  req.HourlyRateCents,
		DailyMaxFeeCents: req.DailyMaxFeeCents,
	}
	for _, t := range req.Tiers {
		sched.Tiers = append(sched.Tiers, model.RateTier{
			StartMinute: t.StartMinute,
			EndMinute:   t.EndMinute,
			RateCents:   t.RateCents,
			SpaceClass:  t.SpaceClass,
		})
	}
	if err := pricing.Validate(sched.Pricing()); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := h.Schedules.Replace(ctx, &sched); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save schedule failed"})
	}
	return c.JSON(http.StatusOK, sched)
}

// Delete handles DELETE /v1/admin/facilities/:id/schedule.  The facility
// reverts to its fallback hourly rate.
func (h *ScheduleHandler) Delete(c echo.Context) error {
	facilityID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid facility id"})
	}
	err := h.Schedules.DeleteForFacility(c.Request().Context(), facilityID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no schedule configured"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
