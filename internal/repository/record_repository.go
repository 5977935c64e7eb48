package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/HeZaoCha/ParkingManagement/internal/model"
)

// RecordRepo provides data access to parking records.  A record is open
// while exit_time is NULL; at most one open record may exist per vehicle,
// which the coordinator enforces by checking OpenByPlateTx under lock
// before creating a new one.
type RecordRepo struct {
	db *sql.DB
}

// NewRecordRepo returns a new RecordRepo bound to the given database.
func NewRecordRepo(db *sql.DB) *RecordRepo { return &RecordRepo{db: db} }

const recordColumns = `id, vehicle_id, space_id, entry_time, exit_time, duration_minutes, fee_cents, discount_rate, is_paid, is_free_parking, operator_id, created_at, updated_at`

func scanRecord(row interface{ Scan(...interface{}) error }) (*model.Record, error) {
	var (
		rec      model.Record
		exit     sql.NullTime
		duration sql.NullInt64
		fee      sql.NullInt64
		discount sql.NullFloat64
		operator sql.NullInt64
	)
	err := row.Scan(&rec.ID, &rec.VehicleID, &rec.SpaceID, &rec.EntryTime, &exit, &duration,
		&fee, &discount, &rec.IsPaid, &rec.IsFreeParking, &operator, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if exit.Valid {
		t := exit.Time
		rec.ExitTime = &t
	}
	if duration.Valid {
		d := int(duration.Int64)
		rec.DurationMinutes = &d
	}
	if fee.Valid {
		f := fee.Int64
		rec.FeeCents = &f
	}
	if discount.Valid {
		d := discount.Float64
		rec.DiscountRate = &d
	}
	if operator.Valid {
		o := uint64(operator.Int64)
		rec.OperatorID = &o
	}
	return &rec, nil
}

// CreateTx inserts a new open record within the transaction and fills in
// the generated ID.
func (r *RecordRepo) CreateTx(ctx context.Context, tx *sql.Tx, rec *model.Record) error {
	const q = `INSERT INTO records (vehicle_id, space_id, entry_time, operator_id)
               VALUES (?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, rec.VehicleID, rec.SpaceID, rec.EntryTime, rec.OperatorID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = uint64(id)
	return nil
}

// OpenByPlateTx returns the vehicle's open record, or (nil, nil) when the
// vehicle is not currently parked.  With lock set the rows are selected
// FOR UPDATE: the lookup reads current committed state instead of the
// transaction snapshot, and concurrent entries or exits for the same
// plate serialize behind it.
func (r *RecordRepo) OpenByPlateTx(ctx context.Context, tx *sql.Tx, plate string, lock bool) (*model.Record, error) {
	q := `SELECT r.` + strings.ReplaceAll(recordColumns, ", ", ", r.") + `
          FROM records r
          JOIN vehicles v ON v.id = r.vehicle_id
          WHERE v.license_plate = ? AND r.exit_time IS NULL`
	if lock {
		q += ` FOR UPDATE`
	}
	rec, err := scanRecord(tx.QueryRowContext(ctx, q, plate))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

// GetByIDTx loads a record by primary key within the transaction,
// optionally locking it FOR UPDATE.
func (r *RecordRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, recordID uint64, lock bool) (*model.Record, error) {
	q := `SELECT ` + recordColumns + ` FROM records WHERE id = ?`
	if lock {
		q += ` FOR UPDATE`
	}
	return scanRecord(tx.QueryRowContext(ctx, q, recordID))
}

// CloseTx writes the exit fields of a settled record within the
// transaction.  The WHERE clause re-checks exit_time IS NULL so that a
// record can only be closed once even if two exits race past the
// coordinator's lock.
func (r *RecordRepo) CloseTx(ctx context.Context, tx *sql.Tx, rec *model.Record) error {
	const q = `UPDATE records
               SET exit_time = ?, duration_minutes = ?, fee_cents = ?, discount_rate = ?,
                   is_paid = ?, is_free_parking = ?, operator_id = COALESCE(?, operator_id)
               WHERE id = ? AND exit_time IS NULL`
	res, err := tx.ExecContext(ctx, q, rec.ExitTime, rec.DurationMinutes, rec.FeeCents,
		rec.DiscountRate, rec.IsPaid, rec.IsFreeParking, rec.OperatorID, rec.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

// MarkPaid flags a closed record as settled.  Open records cannot be
// marked paid; that surfaces as ErrConflict.
func (r *RecordRepo) MarkPaid(ctx context.Context, recordID uint64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE records SET is_paid = 1 WHERE id = ? AND exit_time IS NOT NULL`, recordID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists bool
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM records WHERE id = ?`, recordID).Scan(&exists); err != nil {
			return err
		}
		return ErrConflict
	}
	return nil
}

// RecordFilter narrows a record search.  Zero values mean "no filter".
type RecordFilter struct {
	Plate      string
	FacilityID uint64
	OpenOnly   bool
	ClosedOnly bool
	UnpaidOnly bool
	From       *time.Time
	To         *time.Time
	Page       int
	PageSize   int
}

// RecordRow is a denormalized search result joining record, vehicle and
// space details for display.
type RecordRow struct {
	model.Record
	LicensePlate string `json:"license_plate"`
	SpaceNumber  string `json:"space_number"`
	FacilityID   uint64 `json:"facility_id"`
}

// Search lists records matching the filter, newest entry first, along
// with the total match count for paging.
func (r *RecordRepo) Search(ctx context.Context, f RecordFilter) ([]RecordRow, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if f.Plate != "" {
		where = append(where, "v.license_plate LIKE ?")
		args = append(args, "%"+f.Plate+"%")
	}
	if f.FacilityID != 0 {
		where = append(where, "s.facility_id = ?")
		args = append(args, f.FacilityID)
	}
	if f.OpenOnly {
		where = append(where, "r.exit_time IS NULL")
	}
	if f.ClosedOnly {
		where = append(where, "r.exit_time IS NOT NULL")
	}
	if f.UnpaidOnly {
		where = append(where, "r.is_paid = 0 AND r.exit_time IS NOT NULL")
	}
	if f.From != nil {
		where = append(where, "r.entry_time >= ?")
		args = append(args, *f.From)
	}
	if f.To != nil {
		where = append(where, "r.entry_time < ?")
		args = append(args, *f.To)
	}
	cond := strings.Join(where, " AND ")

	var total int
	countQ := `SELECT COUNT(*) FROM records r
               JOIN vehicles v ON v.id = r.vehicle_id
               JOIN spaces s ON s.id = r.space_id
               WHERE ` + cond
	if err := r.db.QueryRowContext(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if f.PageSize <= 0 {
		f.PageSize = 20
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	listQ := `SELECT r.` + strings.ReplaceAll(recordColumns, ", ", ", r.") + `,
                     v.license_plate, s.space_number, s.facility_id
              FROM records r
              JOIN vehicles v ON v.id = r.vehicle_id
              JOIN spaces s ON s.id = r.space_id
              WHERE ` + cond + `
              ORDER BY r.entry_time DESC, r.id DESC
              LIMIT ? OFFSET ?`
	args = append(args, f.PageSize, (f.Page-1)*f.PageSize)
	rows, err := r.db.QueryContext(ctx, listQ, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]RecordRow, 0)
	for rows.Next() {
		var (
			row      RecordRow
			exit     sql.NullTime
			duration sql.NullInt64
			fee      sql.NullInt64
			discount sql.NullFloat64
			operator sql.NullInt64
		)
		err := rows.Scan(&row.ID, &row.VehicleID, &row.SpaceID, &row.EntryTime, &exit, &duration,
			&fee, &discount, &row.IsPaid, &row.IsFreeParking, &operator, &row.CreatedAt, &row.UpdatedAt,
			&row.LicensePlate, &row.SpaceNumber, &row.FacilityID)
		if err != nil {
			return nil, 0, err
		}
		if exit.Valid {
			t := exit.Time
			row.ExitTime = &t
		}
		if duration.Valid {
			d := int(duration.Int64)
			row.DurationMinutes = &d
		}
		if fee.Valid {
			v := fee.Int64
			row.FeeCents = &v
		}
		if discount.Valid {
			d := discount.Float64
			row.DiscountRate = &d
		}
		if operator.Valid {
			o := uint64(operator.Int64)
			row.OperatorID = &o
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// DayStats aggregates a day's traffic and revenue for the dashboard.
type DayStats struct {
	Entries      int   `json:"entries"`
	Exits        int   `json:"exits"`
	RevenueCents int64 `json:"revenue_cents"`
}

// StatsForDay returns entry/exit counts and collected revenue for the
// 24 hours starting at dayStart.
func (r *RecordRepo) StatsForDay(ctx context.Context, dayStart time.Time) (DayStats, error) {
	dayEnd := dayStart.Add(24 * time.Hour)
	var st DayStats
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM records WHERE entry_time >= ? AND entry_time < ?`,
		dayStart, dayEnd).Scan(&st.Entries)
	if err != nil {
		return DayStats{}, err
	}
	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN is_paid = 1 THEN fee_cents ELSE 0 END), 0)
         FROM records WHERE exit_time >= ? AND exit_time < ?`,
		dayStart, dayEnd).Scan(&st.Exits, &st.RevenueCents)
	if err != nil {
		return DayStats{}, err
	}
	return st, nil
}

// Recent returns the latest n record rows for the dashboard feed.
func (r *RecordRepo) Recent(ctx context.Context, n int) ([]RecordRow, error) {
	if n <= 0 {
		n = 10
	}
	rows, _, err := r.Search(ctx, RecordFilter{Page: 1, PageSize: n})
	return rows, err
}
