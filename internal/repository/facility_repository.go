package repository

import (
	"context"
	"database/sql"

	"github.com/HeZaoCha/ParkingManagement/internal/model"
)

// FacilityRepo provides data access to parking facilities.
type FacilityRepo struct {
	db *sql.DB
}

// NewFacilityRepo returns a new FacilityRepo bound to the given database.
func NewFacilityRepo(db *sql.DB) *FacilityRepo { return &FacilityRepo{db: db} }

const facilityColumns = `id, name, address, hourly_rate_cents, is_active, created_at, updated_at`

func scanFacility(row interface{ Scan(...interface{}) error }) (*model.Facility, error) {
	var (
		f       model.Facility
		address sql.NullString
	)
	err := row.Scan(&f.ID, &f.Name, &address, &f.HourlyRateCents, &f.IsActive, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if address.Valid {
		a := address.String
		f.Address = &a
	}
	return &f, nil
}

// GetByIDTx loads a facility by primary key within the transaction.
func (r *FacilityRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, facilityID uint64) (*model.Facility, error) {
	const q = `SELECT ` + facilityColumns + ` FROM facilities WHERE id = ?`
	return scanFacility(tx.QueryRowContext(ctx, q, facilityID))
}

// GetByID loads a facility by primary key.
func (r *FacilityRepo) GetByID(ctx context.Context, facilityID uint64) (*model.Facility, error) {
	const q = `SELECT ` + facilityColumns + ` FROM facilities WHERE id = ?`
	return scanFacility(r.db.QueryRowContext(ctx, q, facilityID))
}

// Create inserts a new facility and fills in the generated ID.
func (r *FacilityRepo) Create(ctx context.Context, f *model.Facility) error {
	const q = `INSERT INTO facilities (name, address, hourly_rate_cents, is_active) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, f.Name, f.Address, f.HourlyRateCents, f.IsActive)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	f.ID = uint64(id)
	return nil
}

// Update edits a facility's name, address, fallback rate and active flag.
func (r *FacilityRepo) Update(ctx context.Context, f *model.Facility) error {
	const q = `UPDATE facilities SET name = ?, address = ?, hourly_rate_cents = ?, is_active = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, f.Name, f.Address, f.HourlyRateCents, f.IsActive, f.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a facility.  Facilities that still have spaces cannot be
// deleted; that surfaces as ErrConflict.
func (r *FacilityRepo) Delete(ctx context.Context, facilityID uint64) error {
	var spaces int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM spaces WHERE facility_id = ?`, facilityID).Scan(&spaces); err != nil {
		return err
	}
	if spaces > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM facilities WHERE id = ?`, facilityID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FacilityRow is a facility with live availability counters for public
// browsing.
type FacilityRow struct {
	model.Facility
	TotalSpaces int `json:"total_spaces"`
	FreeSpaces  int `json:"free_spaces"`
}

// ListActive returns all active facilities with their current free-space
// counts, ordered by name.
func (r *FacilityRepo) ListActive(ctx context.Context) ([]FacilityRow, error) {
	const q = `SELECT f.id, f.name, f.address, f.hourly_rate_cents, f.is_active, f.created_at, f.updated_at,
                      COUNT(s.id),
                      COALESCE(SUM(CASE WHEN s.is_occupied = 0 AND s.is_reserved = 0 THEN 1 ELSE 0 END), 0)
               FROM facilities f
               LEFT JOIN spaces s ON s.facility_id = f.id
               WHERE f.is_active = 1
               GROUP BY f.id
               ORDER BY f.name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]FacilityRow, 0)
	for rows.Next() {
		var (
			row     FacilityRow
			address sql.NullString
		)
		err := rows.Scan(&row.ID, &row.Name, &address, &row.HourlyRateCents, &row.IsActive,
			&row.CreatedAt, &row.UpdatedAt, &row.TotalSpaces, &row.FreeSpaces)
		if err != nil {
			return nil, err
		}
		if address.Valid {
			a := address.String
			row.Address = &a
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// List returns every facility, active or not, ordered by name.
func (r *FacilityRepo) List(ctx context.Context) ([]model.Facility, error) {
	const q = `SELECT ` + facilityColumns + ` FROM facilities ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Facility, 0)
	for rows.Next() {
		f, err := scanFacility(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
