package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/HeZaoCha/ParkingManagement/internal/model"
)

// ScheduleRepo provides data access to rate schedules and their tiers.
// Each facility holds at most one schedule; replacing it rewrites the
// schedule row and its tier rows in one transaction so readers never see
// a half-updated tariff.
type ScheduleRepo struct {
	db *sql.DB
}

// NewScheduleRepo returns a new ScheduleRepo bound to the given database.
func NewScheduleRepo(db *sql.DB) *ScheduleRepo { return &ScheduleRepo{db: db} }

const scheduleColumns = `id, facility_id, charge_type, free_minutes, hourly_rate_cents, daily_max_fee_cents, created_at, updated_at`

func scanSchedule(row interface{ Scan(...interface{}) error }) (*model.RateSchedule, error) {
	var s model.RateSchedule
	err := row.Scan(&s.ID, &s.FacilityID, &s.ChargeType, &s.FreeMinutes,
		&s.HourlyRateCents, &s.DailyMaxFeeCents, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// ForFacilityTx loads the facility's schedule with its tiers within the
// transaction, or (nil, nil) when the facility has no configured tariff.
func (r *ScheduleRepo) ForFacilityTx(ctx context.Context, tx *sql.Tx, facilityID uint64) (*model.RateSchedule, error) {
	return r.forFacility(ctx, tx, facilityID)
}

// ForFacility loads the facility's schedule with its tiers, or (nil, nil)
// when the facility has no configured tariff.
func (r *ScheduleRepo) ForFacility(ctx context.Context, facilityID uint64) (*model.RateSchedule, error) {
	return r.forFacility(ctx, r.db, facilityID)
}

func (r *ScheduleRepo) forFacility(ctx context.Context, q rowQuerier, facilityID uint64) (*model.RateSchedule, error) {
	s, err := scanSchedule(q.QueryRowContext(ctx,
		`SELECT `+scheduleColumns+` FROM rate_schedules WHERE facility_id = ?`, facilityID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	tiers, err := r.tiers(ctx, q, s.ID)
	if err != nil {
		return nil, err
	}
	s.Tiers = tiers
	return s, nil
}

func (r *ScheduleRepo) tiers(ctx context.Context, q rowQuerier, scheduleID uint64) ([]model.RateTier, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, schedule_id, start_minute, end_minute, rate_cents, space_class, position
         FROM rate_tiers WHERE schedule_id = ? ORDER BY position, start_minute`, scheduleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tiers := make([]model.RateTier, 0)
	for rows.Next() {
		var (
			t   model.RateTier
			end sql.NullInt64
		)
		if err := rows.Scan(&t.ID, &t.ScheduleID, &t.StartMinute, &end, &t.RateCents, &t.SpaceClass, &t.Position); err != nil {
			return nil, err
		}
		if end.Valid {
			e := int(end.Int64)
			t.EndMinute = &e
		}
		tiers = append(tiers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tiers, nil
}

// Replace installs the schedule as the facility's tariff, overwriting any
// previous one.  Schedule row, old tier deletion and new tier inserts all
// commit together.
func (r *ScheduleRepo) Replace(ctx context.Context, s *model.RateSchedule) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	existing, err := scanSchedule(tx.QueryRowContext(ctx,
		`SELECT `+scheduleColumns+` FROM rate_schedules WHERE facility_id = ? FOR UPDATE`, s.FacilityID))
	switch {
	case err == nil:
		s.ID = existing.ID
		_, err = tx.ExecContext(ctx,
			`UPDATE rate_schedules SET charge_type = ?, free_minutes = ?, hourly_rate_cents = ?, daily_max_fee_cents = ?
             WHERE id = ?`,
			s.ChargeType, s.FreeMinutes, s.HourlyRateCents, s.DailyMaxFeeCents, s.ID)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM rate_tiers WHERE schedule_id = ?`, s.ID); err != nil {
			return err
		}
	case errors.Is(err, sql.ErrNoRows):
		res, err := tx.ExecContext(ctx,
			`INSERT INTO rate_schedules (facility_id, charge_type, free_minutes, hourly_rate_cents, daily_max_fee_cents)
             VALUES (?, ?, ?, ?, ?)`,
			s.FacilityID, s.ChargeType, s.FreeMinutes, s.HourlyRateCents, s.DailyMaxFeeCents)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		s.ID = uint64(id)
	default:
		return err
	}

	for i := range s.Tiers {
		t := &s.Tiers[i]
		t.ScheduleID = s.ID
		t.Position = i
		res, err := tx.ExecContext(ctx,
			`INSERT INTO rate_tiers (schedule_id, start_minute, end_minute, rate_cents, space_class, position)
             VALUES (?, ?, ?, ?, ?, ?)`,
			t.ScheduleID, t.StartMinute, t.EndMinute, t.RateCents, t.SpaceClass, t.Position)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		t.ID = uint64(id)
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// DeleteForFacility removes the facility's schedule and tiers, reverting
// it to the fallback fixed rate.
func (r *ScheduleRepo) DeleteForFacility(ctx context.Context, facilityID uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var scheduleID uint64
	err = tx.QueryRowContext(ctx, `SELECT id FROM rate_schedules WHERE facility_id = ?`, facilityID).Scan(&scheduleID)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM rate_tiers WHERE schedule_id = ?`, scheduleID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM rate_schedules WHERE id = ?`, scheduleID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
