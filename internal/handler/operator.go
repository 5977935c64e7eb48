package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/HeZaoCha/ParkingManagement/internal/repository"
	"github.com/HeZaoCha/ParkingManagement/internal/service"
)

// OperatorHandler exposes the booth workflow: admit a vehicle, settle
// its exit, mark records paid and search the record history.  JWT and
// role middleware run before every method; OperatorID on commands comes
// from the authenticated user.
type OperatorHandler struct {
	Parking *service.Parking
	Records *repository.RecordRepo
}

// NewOperatorHandler constructs an OperatorHandler and panics if any
// dependency is nil.
func NewOperatorHandler(parking *service.Parking, records *repository.RecordRepo) *OperatorHandler {
	if parking == nil || records == nil {
		panic("nil dependency passed to NewOperatorHandler")
	}
	return &OperatorHandler{Parking: parking, Records: records}
}

type entryReq struct {
	LicensePlate string `json:"license_plate"`
	FacilityID   uint64 `json:"facility_id"`
	VehicleType  string `json:"vehicle_type"`
	SpaceID      uint64 `json:"space_id"` // optional; 0 picks the first free space
}

// Enter handles POST /v1/operator/entries.  It admits a vehicle and
// returns the assigned space and open record.
func (h *OperatorHandler) Enter(c echo.Context) error {
	var req entryReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.FacilityID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "facility_id required"})
	}
	cmd := service.EntryRequest{
		Plate:       req.LicensePlate,
		FacilityID:  req.FacilityID,
		VehicleType: req.VehicleType,
		SpaceID:     req.SpaceID,
	}
	if uid, err := getUserID(c); err == nil {
		cmd.OperatorID = &uid
	}

	res, err := h.Parking.EnterVehicle(c.Request().Context(), cmd)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPlate):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid license plate"})
		case errors.Is(err, service.ErrVehicleAlreadyParked):
			return c.JSON(http.StatusConflict, echo.Map{"error": "vehicle already parked"})
		case errors.Is(err, service.ErrFacilityNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "facility not found"})
		case errors.Is(err, service.ErrFacilityInactive):
			return c.JSON(http.StatusConflict, echo.Map{"error": "facility is closed"})
		case errors.Is(err, service.ErrNoAvailableSpace):
			return c.JSON(http.StatusConflict, echo.Map{"error": "no available space"})
		case errors.Is(err, service.ErrSpaceUnavailable):
			return c.JSON(http.StatusConflict, echo.Map{"error": "space unavailable"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "entry failed"})
	}
	return c.JSON(http.StatusCreated, res)
}

type exitReq struct {
	LicensePlate string `json:"license_plate"`
	RecordID     uint64 `json:"record_id"`
	AutoMarkPaid bool   `json:"auto_mark_paid"`
}

// Exit handles POST /v1/operator/exits.  It settles the vehicle's open
// record, frees the space and returns the computed fee.
func (h *OperatorHandler) Exit(c echo.Context) error {
	var req exitReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	cmd := service.ExitRequest{
		Plate:        req.LicensePlate,
		RecordID:     req.RecordID,
		AutoMarkPaid: req.AutoMarkPaid,
	}
	if uid, err := getUserID(c); err == nil {
		cmd.OperatorID = &uid
	}

	res, err := h.Parking.ExitVehicle(c.Request().Context(), cmd)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingIdentifier):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "license_plate or record_id required"})
		case errors.Is(err, service.ErrInvalidPlate):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid license plate"})
		case errors.Is(err, service.ErrRecordNotFound), errors.Is(err, service.ErrNoActiveRecord):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no active parking record"})
		case errors.Is(err, service.ErrAlreadyExited):
			return c.JSON(http.StatusConflict, echo.Map{"error": "record already settled"})
		case errors.Is(err, service.ErrInvalidTimeRange):
			return c.JSON(http.StatusConflict, echo.Map{"error": "exit time precedes entry time"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "exit failed"})
	}
	return c.JSON(http.StatusOK, res)
}

// MarkPaid handles POST /v1/operator/records/:id/pay.  Only settled
// records can be marked paid.
func (h *OperatorHandler) MarkPaid(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid record id"})
	}
	err := h.Records.MarkPaid(c.Request().Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "record is still open"})
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "record not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "mark paid failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"record_id": id, "is_paid": true})
}

// SearchRecords handles GET /v1/operator/records.  Filters: plate,
// facility_id, status (open|closed|unpaid), from, to (RFC 3339), page,
// page_size.
func (h *OperatorHandler) SearchRecords(c echo.Context) error {
	f := repository.RecordFilter{
		Plate:      c.QueryParam("plate"),
		FacilityID: queryUint(c, "facility_id", 0),
		Page:       int(queryUint(c, "page", 1)),
		PageSize:   int(queryUint(c, "page_size", 20)),
	}
	switch c.QueryParam("status") {
	case "":
	case "open":
		f.OpenOnly = true
	case "closed":
		f.ClosedOnly = true
	case "unpaid":
		f.UnpaidOnly = true
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be open, closed or unpaid"})
	}
	if v := c.QueryParam("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid from timestamp"})
		}
		f.From = &t
	}
	if v := c.QueryParam("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid to timestamp"})
		}
		f.To = &t
	}

	rows, total, err := h.Records.Search(c.Request().Context(), f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "search failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"records":   rows,
		"total":     total,
		"page":      f.Page,
		"page_size": f.PageSize,
	})
}
