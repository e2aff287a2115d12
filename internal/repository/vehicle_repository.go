package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/driving-lesson-scheduler/internal/model"
)

// VehicleRepo is the vehicle registry.  The booking path only needs an
// existence check; the usage dashboard lists every active vehicle.
type VehicleRepo struct{ DB *sql.DB }

func NewVehicleRepo(db *sql.DB) *VehicleRepo { return &VehicleRepo{DB: db} }

// GetByID fetches a vehicle by id, returning ErrVehicleNotFound when it
// does not exist or has been deactivated.
func (r *VehicleRepo) GetByID(ctx context.Context, id uint64) (model.Vehicle, error) {
	var v model.Vehicle
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, registration, model, is_active, created_at FROM vehicles WHERE id=? AND is_active=1 LIMIT 1",
		id).Scan(&v.ID, &v.Registration, &v.Model, &v.IsActive, &v.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Vehicle{}, ErrVehicleNotFound
		}
		return model.Vehicle{}, err
	}
	return v, nil
}

// List returns all active vehicles ordered by registration.
func (r *VehicleRepo) List(ctx context.Context) ([]model.Vehicle, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, registration, model, is_active, created_at FROM vehicles WHERE is_active=1 ORDER BY registration")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	vehicles := make([]model.Vehicle, 0)
	for rows.Next() {
		var v model.Vehicle
		if err := rows.Scan(&v.ID, &v.Registration, &v.Model, &v.IsActive, &v.CreatedAt); err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}
