package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/HeZaoCha/ParkingManagement/internal/cache"
	"github.com/HeZaoCha/ParkingManagement/internal/repository"
)

// DashboardHandler serves the operations dashboard: live occupancy,
// today's traffic and revenue, and the latest records.  Snapshots are
// cached in Redis and invalidated by the coordinator after every entry
// and exit, so repeated polls between movements cost one cache read.
type DashboardHandler struct {
	Spaces  *repository.SpaceRepo
	Records *repository.RecordRepo
	Cache   *cache.Dashboard
}

// NewDashboardHandler constructs a DashboardHandler.  Cache must be
// non-nil; construct it over a nil Redis client to run uncached.
func NewDashboardHandler(spaces *repository.SpaceRepo, records *repository.RecordRepo, cc *cache.Dashboard) *DashboardHandler {
	if spaces == nil || records == nil || cc == nil {
		panic("nil dependency passed to NewDashboardHandler")
	}
	return &DashboardHandler{Spaces: spaces, Records: records, Cache: cc}
}

// snapshot is the cached dashboard payload.
type snapshot struct {
	FacilityID  uint64                 `json:"facility_id,omitempty"`
	Spaces      repository.SpaceStats  `json:"spaces"`
	Today       repository.DayStats    `json:"today"`
	Recent      []repository.RecordRow `json:"recent"`
	GeneratedAt time.Time              `json:"generated_at"`
}

// Get handles GET /v1/dashboard.  An optional facility_id query
// parameter narrows the occupancy counters to one facility; traffic and
// revenue are always system-wide for the current day.
func (h *DashboardHandler) Get(c echo.Context) error {
	facilityID := queryUint(c, "facility_id", 0)
	ctx := c.Request().Context()

	var snap snapshot
	if h.Cache.Get(ctx, facilityID, &snap) {
		return c.JSON(http.StatusOK, snap)
	}

	spaceStats, err := h.Spaces.Stats(ctx, facilityID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	now := time.Now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	today, err := h.Records.StatsForDay(ctx, dayStart)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	recent, err := h.Records.Recent(ctx, 10)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	snap = snapshot{
		FacilityID:  facilityID,
		Spaces:      spaceStats,
		Today:       today,
		Recent:      recent,
		GeneratedAt: now,
	}
	h.Cache.Set(ctx, facilityID, snap)
	return c.JSON(http.StatusOK, snap)
}
