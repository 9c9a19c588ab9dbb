package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"jaracar_backend/internal/domain"
	"jaracar_backend/internal/repository"

	"github.com/lib/pq"
)

type pgVehicleRepository struct {
	db *sql.DB
}

func NewPgVehicleRepository(db *sql.DB) repository.VehicleRepository {
	return &pgVehicleRepository{db: db}
}

func (r *pgVehicleRepository) Create(ctx context.Context, vehicle *domain.Vehicle) (*domain.Vehicle, error) {
	query := `INSERT INTO vehicles (name, license_plate, seats, in_maintenance, created_at, updated_at)
	           VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	           RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		vehicle.Name, vehicle.LicensePlate, vehicle.Seats, vehicle.InMaintenance,
	).Scan(&vehicle.ID, &vehicle.CreatedAt, &vehicle.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code.Name() == "unique_violation" {
				return nil, fmt.Errorf("%w: biển số '%s' đã tồn tại", repository.ErrDuplicateEntry, vehicle.LicensePlate)
			}
		}
		return nil, fmt.Errorf("VehicleRepository.Create: %w", err)
	}
	vehicle.CreatedAt = vehicle.CreatedAt.In(time.UTC)
	vehicle.UpdatedAt = vehicle.UpdatedAt.In(time.UTC)
	return vehicle, nil
}

func (r *pgVehicleRepository) FindByID(ctx context.Context, id int) (*domain.Vehicle, error) {
	vehicle := &domain.Vehicle{}
	query := `SELECT id, name, license_plate, seats, in_maintenance, created_at, updated_at
	           FROM vehicles WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&vehicle.ID, &vehicle.Name, &vehicle.LicensePlate, &vehicle.Seats,
		&vehicle.InMaintenance, &vehicle.CreatedAt, &vehicle.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("VehicleRepository.FindByID: %w", err)
	}
	vehicle.CreatedAt = vehicle.CreatedAt.In(time.UTC)
	vehicle.UpdatedAt = vehicle.UpdatedAt.In(time.UTC)
	return vehicle, nil
}

func (r *pgVehicleRepository) FindAll(ctx context.Context) ([]domain.Vehicle, error) {
	query := `SELECT id, name, license_plate, seats, in_maintenance, created_at, updated_at
	           FROM vehicles ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("VehicleRepository.FindAll: %w", err)
	}
	defer rows.Close()

	var vehicles []domain.Vehicle
	for rows.Next() {
		var vehicle domain.Vehicle
		if err := rows.Scan(
			&vehicle.ID, &vehicle.Name, &vehicle.LicensePlate, &vehicle.Seats,
			&vehicle.InMaintenance, &vehicle.CreatedAt, &vehicle.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("VehicleRepository.FindAll (scanning row): %w", err)
		}
		vehicle.CreatedAt = vehicle.CreatedAt.In(time.UTC)
		vehicle.UpdatedAt = vehicle.UpdatedAt.In(time.UTC)
		vehicles = append(vehicles, vehicle)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("VehicleRepository.FindAll (rows error): %w", err)
	}
	return vehicles, nil
}

func (r *pgVehicleRepository) Update(ctx context.Context, vehicle *domain.Vehicle) (*domain.Vehicle, error) {
	query := `UPDATE vehicles SET name = $1, license_plate = $2, seats = $3, in_maintenance = $4,
	                  updated_at = CURRENT_TIMESTAMP
	           WHERE id = $5 RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query,
		vehicle.Name, vehicle.LicensePlate, vehicle.Seats, vehicle.InMaintenance, vehicle.ID,
	).Scan(&vehicle.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code.Name() == "unique_violation" {
				return nil, fmt.Errorf("%w: biển số '%s' đã tồn tại", repository.ErrDuplicateEntry, vehicle.LicensePlate)
			}
		}
		return nil, fmt.Errorf("VehicleRepository.Update: %w", err)
	}
	vehicle.UpdatedAt = vehicle.UpdatedAt.In(time.UTC)
	return vehicle, nil
}

func (r *pgVehicleRepository) SetMaintenance(ctx context.Context, id int, inMaintenance bool) error {
	query := `UPDATE vehicles SET in_maintenance = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, inMaintenance, id)
	if err != nil {
		return fmt.Errorf("VehicleRepository.SetMaintenance: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("VehicleRepository.SetMaintenance (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *pgVehicleRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM vehicles WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("VehicleRepository.Delete: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("VehicleRepository.Delete (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
