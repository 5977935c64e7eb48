package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/HeZaoCha/ParkingManagement/internal/model"
)

// SpaceRepo provides data access to the spaces table.  Claim and release
// are the space ledger of the system: they are the only writers of the
// is_occupied flag and always run inside the caller's transaction so that
// occupancy changes commit together with the record they belong to.
type SpaceRepo struct {
	db *sql.DB
}

// NewSpaceRepo returns a new SpaceRepo bound to the given database.
func NewSpaceRepo(db *sql.DB) *SpaceRepo { return &SpaceRepo{db: db} }

const spaceColumns = `id, facility_id, space_number, space_class, floor, area, is_occupied, is_reserved, created_at, updated_at`

func scanSpace(row interface{ Scan(...interface{}) error }) (*model.Space, error) {
	var (
		s     model.Space
		floor sql.NullString
		area  sql.NullString
	)
	err := row.Scan(&s.ID, &s.FacilityID, &s.SpaceNumber, &s.SpaceClass, &floor, &area,
		&s.IsOccupied, &s.IsReserved, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if floor.Valid {
		f := floor.String
		s.Floor = &f
	}
	if area.Valid {
		a := area.String
		s.Area = &a
	}
	return &s, nil
}

// ClaimSpecificTx claims exactly the given space of the facility.  The row
// is selected FOR UPDATE SKIP LOCKED: if it is free and unreserved but a
// concurrent transaction holds its lock, the select comes back empty and
// the claim fails the same way as for an occupied space.  On success the
// space is marked occupied within the transaction and returned.
func (r *SpaceRepo) ClaimSpecificTx(ctx context.Context, tx *sql.Tx, facilityID, spaceID uint64) (*model.Space, error) {
	const q = `SELECT ` + spaceColumns + ` FROM spaces
               WHERE id = ? AND facility_id = ? AND is_occupied = 0 AND is_reserved = 0
               FOR UPDATE SKIP LOCKED`
	sp, err := scanSpace(tx.QueryRowContext(ctx, q, spaceID, facilityID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSpaceTaken
		}
		return nil, err
	}
	if err := r.markOccupiedTx(ctx, tx, sp.ID); err != nil {
		return nil, err
	}
	sp.IsOccupied = true
	return sp, nil
}

// ClaimFirstFreeTx claims the first free, unreserved space of the facility
// in ascending space-number order.  Rows locked by concurrent in-flight
// claims are skipped rather than waited on, so contending entries spread
// across the remaining free spaces and fail fast when none is left.
func (r *SpaceRepo) ClaimFirstFreeTx(ctx context.Context, tx *sql.Tx, facilityID uint64) (*model.Space, error) {
	const q = `SELECT ` + spaceColumns + ` FROM spaces
               WHERE facility_id = ? AND is_occupied = 0 AND is_reserved = 0
               ORDER BY space_number
               LIMIT 1
               FOR UPDATE SKIP LOCKED`
	sp, err := scanSpace(tx.QueryRowContext(ctx, q, facilityID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoFreeSpace
		}
		return nil, err
	}
	if err := r.markOccupiedTx(ctx, tx, sp.ID); err != nil {
		return nil, err
	}
	sp.IsOccupied = true
	return sp, nil
}

func (r *SpaceRepo) markOccupiedTx(ctx context.Context, tx *sql.Tx, spaceID uint64) error {
	_, err := tx.ExecContext(ctx, `UPDATE spaces SET is_occupied = 1 WHERE id = ?`, spaceID)
	return err
}

// ReleaseTx marks a space unoccupied within the transaction.  Releasing a
// space that is already free is a no-op, not an error.
func (r *SpaceRepo) ReleaseTx(ctx context.Context, tx *sql.Tx, spaceID uint64) error {
	_, err := tx.ExecContext(ctx, `UPDATE spaces SET is_occupied = 0 WHERE id = ? AND is_occupied = 1`, spaceID)
	return err
}

// GetByIDTx loads a space by primary key within the transaction.
func (r *SpaceRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, spaceID uint64) (*model.Space, error) {
	const q = `SELECT ` + spaceColumns + ` FROM spaces WHERE id = ?`
	return scanSpace(tx.QueryRowContext(ctx, q, spaceID))
}

// GetByID loads a space by primary key.
func (r *SpaceRepo) GetByID(ctx context.Context, spaceID uint64) (*model.Space, error) {
	const q = `SELECT ` + spaceColumns + ` FROM spaces WHERE id = ?`
	return scanSpace(r.db.QueryRowContext(ctx, q, spaceID))
}

// Create inserts a new space.  The (facility, space_number) pair is unique;
// duplicates surface as ErrConflict.
func (r *SpaceRepo) Create(ctx context.Context, sp *model.Space) error {
	const q = `INSERT INTO spaces (facility_id, space_number, space_class, floor, area, is_reserved)
               VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, sp.FacilityID, sp.SpaceNumber, sp.SpaceClass, sp.Floor, sp.Area, sp.IsReserved)
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
	sp.ID = uint64(id)
	return nil
}

// Update edits the mutable configuration of a space: its class, labels and
// reservation flag.  Occupancy is owned by claim/release and cannot be set
// here.
func (r *SpaceRepo) Update(ctx context.Context, sp *model.Space) error {
	const q = `UPDATE spaces SET space_class = ?, floor = ?, area = ?, is_reserved = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, sp.SpaceClass, sp.Floor, sp.Area, sp.IsReserved, sp.ID)
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

// Delete removes a space.  Spaces that are occupied or referenced by any
// record cannot be deleted; both cases surface as ErrConflict.
func (r *SpaceRepo) Delete(ctx context.Context, spaceID uint64) error {
	var occupied bool
	err := r.db.QueryRowContext(ctx, `SELECT is_occupied FROM spaces WHERE id = ?`, spaceID).Scan(&occupied)
	if err != nil {
		return err
	}
	if occupied {
		return ErrConflict
	}
	var refs int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records WHERE space_id = ?`, spaceID).Scan(&refs); err != nil {
		return err
	}
	if refs > 0 {
		return ErrConflict
	}
	_, err = r.db.ExecContext(ctx, `DELETE FROM spaces WHERE id = ?`, spaceID)
	return err
}

// ListByFacility returns all spaces of a facility ordered by space number.
func (r *SpaceRepo) ListByFacility(ctx context.Context, facilityID uint64) ([]model.Space, error) {
	const q = `SELECT ` + spaceColumns + ` FROM spaces WHERE facility_id = ? ORDER BY space_number`
	rows, err := r.db.QueryContext(ctx, q, facilityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	spaces := make([]model.Space, 0)
	for rows.Next() {
		sp, err := scanSpace(rows)
		if err != nil {
			return nil, err
		}
		spaces = append(spaces, *sp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return spaces, nil
}

// SpaceStats aggregates occupancy counters for the dashboard.
type SpaceStats struct {
	Total    int `json:"total"`
	Occupied int `json:"occupied"`
	Reserved int `json:"reserved"`
}

// Stats returns occupancy counters, optionally restricted to one facility
// (facilityID zero counts across all facilities).
func (r *SpaceRepo) Stats(ctx context.Context, facilityID uint64) (SpaceStats, error) {
	q := `SELECT COUNT(*),
                 COALESCE(SUM(is_occupied), 0),
                 COALESCE(SUM(is_reserved), 0)
          FROM spaces`
	args := []interface{}{}
	if facilityID != 0 {
		q += ` WHERE facility_id = ?`
		args = append(args, facilityID)
	}
	var st SpaceStats
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&st.Total, &st.Occupied, &st.Reserved); err != nil {
		return SpaceStats{}, err
	}
	return st, nil
}
