package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/HeZaoCha/ParkingManagement/internal/model"
)

// VehicleRepo provides data access to vehicles and the VIP registry.
type VehicleRepo struct {
	db *sql.DB
}

// NewVehicleRepo returns a new VehicleRepo bound to the given database.
func NewVehicleRepo(db *sql.DB) *VehicleRepo { return &VehicleRepo{db: db} }

const vehicleColumns = `id, license_plate, vehicle_type, owner_name, owner_phone, created_at, updated_at`

func scanVehicle(row interface{ Scan(...interface{}) error }) (*model.Vehicle, error) {
	var v model.Vehicle
	err := row.Scan(&v.ID, &v.LicensePlate, &v.VehicleType, &v.OwnerName, &v.OwnerPhone,
		&v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// GetOrCreateTx returns the vehicle with the given plate, inserting it
// first if it has never been seen.  The read locks the vehicle row, so
// concurrent transactions on the same plate serialize here until commit;
// for a never-seen plate the unique index plays that role, and the losing
// insert falls back to reading the winner's row under the same lock.
func (r *VehicleRepo) GetOrCreateTx(ctx context.Context, tx *sql.Tx, plate, vehicleType string) (*model.Vehicle, error) {
	v, err := r.lockByPlateTx(ctx, tx, plate)
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO vehicles (license_plate, vehicle_type) VALUES (?, ?)`, plate, vehicleType)
	if err != nil {
		if isDuplicateKey(err) {
			return r.lockByPlateTx(ctx, tx, plate)
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &model.Vehicle{ID: uint64(id), LicensePlate: plate, VehicleType: vehicleType}, nil
}

func (r *VehicleRepo) lockByPlateTx(ctx context.Context, tx *sql.Tx, plate string) (*model.Vehicle, error) {
	const q = `SELECT ` + vehicleColumns + ` FROM vehicles WHERE license_plate = ? FOR UPDATE`
	return scanVehicle(tx.QueryRowContext(ctx, q, plate))
}

// GetByIDTx loads a vehicle by primary key within the transaction.
func (r *VehicleRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, vehicleID uint64) (*model.Vehicle, error) {
	const q = `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = ?`
	return scanVehicle(tx.QueryRowContext(ctx, q, vehicleID))
}

const vipColumns = `id, license_plate, vip_type, owner_name, discount_rate, valid_from, valid_until, is_active, created_at`

func scanVIP(row interface{ Scan(...interface{}) error }) (*model.VIPVehicle, error) {
	var (
		v     model.VIPVehicle
		until sql.NullTime
	)
	err := row.Scan(&v.ID, &v.LicensePlate, &v.VIPType, &v.OwnerName, &v.DiscountRate,
		&v.ValidFrom, &until, &v.IsActive, &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	if until.Valid {
		t := until.Time
		v.ValidUntil = &t
	}
	return &v, nil
}

// VIPByPlateTx returns the active VIP registration for the plate within
// the transaction, or (nil, nil) when there is none.  Validity against a
// point in time is the caller's concern via model.VIPVehicle.ValidAt.
func (r *VehicleRepo) VIPByPlateTx(ctx context.Context, tx *sql.Tx, plate string) (*model.VIPVehicle, error) {
	const q = `SELECT ` + vipColumns + ` FROM vip_vehicles WHERE license_plate = ? AND is_active = 1`
	v, err := scanVIP(tx.QueryRowContext(ctx, q, plate))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return v, nil
}

// GetVIPByID loads a VIP registration by primary key.
func (r *VehicleRepo) GetVIPByID(ctx context.Context, id uint64) (*model.VIPVehicle, error) {
	const q = `SELECT ` + vipColumns + ` FROM vip_vehicles WHERE id = ?`
	return scanVIP(r.db.QueryRowContext(ctx, q, id))
}

// CreateVIP registers a plate as VIP.  Each plate can hold at most one
// registration; duplicates surface as ErrConflict.
func (r *VehicleRepo) CreateVIP(ctx context.Context, v *model.VIPVehicle) error {
	if v.ValidFrom.IsZero() {
		v.ValidFrom = time.Now().UTC()
	}
	const q = `INSERT INTO vip_vehicles (license_plate, vip_type, owner_name, discount_rate, valid_from, valid_until, is_active)
               VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, v.LicensePlate, v.VIPType, v.OwnerName, v.DiscountRate,
		v.ValidFrom, v.ValidUntil, v.IsActive)
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
	v.ID = uint64(id)
	return nil
}

// UpdateVIP edits an existing VIP registration.
func (r *VehicleRepo) UpdateVIP(ctx context.Context, v *model.VIPVehicle) error {
	const q = `UPDATE vip_vehicles
               SET vip_type = ?, owner_name = ?, discount_rate = ?, valid_from = ?, valid_until = ?, is_active = ?
               WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, v.VIPType, v.OwnerName, v.DiscountRate,
		v.ValidFrom, v.ValidUntil, v.IsActive, v.ID)
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

// DeleteVIP removes a VIP registration.
func (r *VehicleRepo) DeleteVIP(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM vip_vehicles WHERE id = ?`, id)
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

// ListVIP returns all VIP registrations, newest first.
func (r *VehicleRepo) ListVIP(ctx context.Context) ([]model.VIPVehicle, error) {
	const q = `SELECT ` + vipColumns + ` FROM vip_vehicles ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.VIPVehicle, 0)
	for rows.Next() {
		v, err := scanVIP(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
