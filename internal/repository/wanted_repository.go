package repository

import (
	"context"
	"database/sql"

	"github.com/HeZaoCha/ParkingManagement/internal/model"
)

// WantedRepo provides data access to the watch list of wanted vehicles
// and the log of alerts raised for them.
type WantedRepo struct {
	db *sql.DB
}

// NewWantedRepo returns a new WantedRepo bound to the given database.
func NewWantedRepo(db *sql.DB) *WantedRepo { return &WantedRepo{db: db} }

const wantedColumns = `id, license_plate, reason, priority, status, created_at, updated_at`

func scanWanted(row interface{ Scan(...interface{}) error }) (*model.WantedVehicle, error) {
	var w model.WantedVehicle
	err := row.Scan(&w.ID, &w.LicensePlate, &w.Reason, &w.Priority, &w.Status, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// ActiveByPlate returns all active watch-list entries for the plate.
// An empty slice means the plate is clear.
func (r *WantedRepo) ActiveByPlate(ctx context.Context, plate string) ([]model.WantedVehicle, error) {
	const q = `SELECT ` + wantedColumns + ` FROM wanted_vehicles
               WHERE license_plate = ? AND status = ?
               ORDER BY priority DESC, id`
	rows, err := r.db.QueryContext(ctx, q, plate, model.WantedStatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.WantedVehicle, 0)
	for rows.Next() {
		w, err := scanWanted(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// LogAlert records that an alert was raised for a watch-list entry
// against a parking record.
func (r *WantedRepo) LogAlert(ctx context.Context, wantedID, recordID uint64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO alert_logs (wanted_id, record_id) VALUES (?, ?)`, wantedID, recordID)
	return err
}

// Create adds a plate to the watch list.
func (r *WantedRepo) Create(ctx context.Context, w *model.WantedVehicle) error {
	if w.Status == "" {
		w.Status = model.WantedStatusActive
	}
	const q = `INSERT INTO wanted_vehicles (license_plate, reason, priority, status) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, w.LicensePlate, w.Reason, w.Priority, w.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	w.ID = uint64(id)
	return nil
}

// UpdateStatus moves a watch-list entry to a new status, e.g. cancelled
// once the notice is withdrawn or captured once the vehicle is held.
func (r *WantedRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE wanted_vehicles SET status = ? WHERE id = ?`, status, id)
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

// List returns watch-list entries, optionally restricted to one status,
// highest priority first.
func (r *WantedRepo) List(ctx context.Context, status string) ([]model.WantedVehicle, error) {
	q := `SELECT ` + wantedColumns + ` FROM wanted_vehicles`
	args := []interface{}{}
	if status != "" {
		q += ` WHERE status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY priority DESC, created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.WantedVehicle, 0)
	for rows.Next() {
		w, err := scanWanted(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
