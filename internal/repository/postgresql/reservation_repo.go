package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"jaracar_backend/internal/domain"
	"jaracar_backend/internal/repository"

	"github.com/lib/pq"
)

// Bảng vehicle_reservations mang ràng buộc loại trừ của Postgres:
//
//	CONSTRAINT vehicle_reservations_no_overlap
//	  EXCLUDE USING gist (vehicle_id WITH =, tsrange(start_time, end_time) WITH &&)
//	  WHERE (status = 'active')
//
// Ràng buộc này là hàng rào cuối chống hai insert trùng khoảng chạy đua;
// kiểm tra xung đột trong service chỉ là fast-path để trả lỗi đẹp hơn.
const overlapConstraintName = "vehicle_reservations_no_overlap"

type pgReservationRepository struct {
	db *sql.DB
}

func NewPgReservationRepository(db *sql.DB) repository.ReservationRepository {
	return &pgReservationRepository{db: db}
}

func mapReservationWriteError(op string, err error) error {
	if pqErr, ok := err.(*pq.Error); ok {
		if pqErr.Code.Name() == "exclusion_violation" && pqErr.Constraint == overlapConstraintName {
			return repository.ErrConflict
		}
	}
	return fmt.Errorf("ReservationRepository.%s: %w", op, err)
}

const reservationColumns = `id, vehicle_id, requester_id, guest_name, is_for_guest,
	                 start_time, end_time, status, notes, cancelled_at, created_at, updated_at`

func scanReservation(scan func(dest ...interface{}) error, r *domain.Reservation) error {
	err := scan(
		&r.ID, &r.VehicleID, &r.RequesterID, &r.GuestName, &r.IsForGuest,
		&r.StartTime, &r.EndTime, &r.Status, &r.Notes, &r.CancelledAt,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return err
	}
	r.StartTime = r.StartTime.In(time.UTC)
	r.EndTime = r.EndTime.In(time.UTC)
	if r.CancelledAt.Valid {
		r.CancelledAt.Time = r.CancelledAt.Time.In(time.UTC)
	}
	r.CreatedAt = r.CreatedAt.In(time.UTC)
	r.UpdatedAt = r.UpdatedAt.In(time.UTC)
	return nil
}

func (r *pgReservationRepository) Create(ctx context.Context, reservation *domain.Reservation) (*domain.Reservation, error) {
	query := `INSERT INTO vehicle_reservations
	           (vehicle_id, requester_id, guest_name, is_for_guest, start_time, end_time, status, notes, created_at, updated_at)
	           VALUES ($1, $2, $3, $4, $5, $6, $7, $8, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	           RETURNING id, created_at, updated_at`

	var guestNameVal sql.NullString
	if reservation.GuestName.Valid {
		guestNameVal = sql.NullString{String: reservation.GuestName.String, Valid: true}
	}
	var notesVal sql.NullString
	if reservation.Notes.Valid {
		notesVal = sql.NullString{String: reservation.Notes.String, Valid: true}
	}

	err := r.db.QueryRowContext(ctx, query,
		reservation.VehicleID, reservation.RequesterID, guestNameVal, reservation.IsForGuest,
		reservation.StartTime, reservation.EndTime, reservation.Status, notesVal,
	).Scan(&reservation.ID, &reservation.CreatedAt, &reservation.UpdatedAt)

	if err != nil {
		return nil, mapReservationWriteError("Create", err)
	}
	reservation.CreatedAt = reservation.CreatedAt.In(time.UTC)
	reservation.UpdatedAt = reservation.UpdatedAt.In(time.UTC)
	return reservation, nil
}

func (r *pgReservationRepository) FindByID(ctx context.Context, id int) (*domain.Reservation, error) {
	reservation := &domain.Reservation{}
	query := `SELECT ` + reservationColumns + ` FROM vehicle_reservations WHERE id = $1`

	row := r.db.QueryRowContext(ctx, query, id)
	if err := scanReservation(row.Scan, reservation); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ReservationRepository.FindByID: %w", err)
	}
	return reservation, nil
}

func (r *pgReservationRepository) FindByVehicleID(ctx context.Context, vehicleID int) ([]domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
	           FROM vehicle_reservations WHERE vehicle_id = $1 ORDER BY start_time`
	rows, err := r.db.QueryContext(ctx, query, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("ReservationRepository.FindByVehicleID: %w", err)
	}
	defer rows.Close()

	var reservations []domain.Reservation
	for rows.Next() {
		var reservation domain.Reservation
		if err := scanReservation(rows.Scan, &reservation); err != nil {
			return nil, fmt.Errorf("ReservationRepository.FindByVehicleID (scanning row): %w", err)
		}
		reservations = append(reservations, reservation)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ReservationRepository.FindByVehicleID (rows error): %w", err)
	}
	return reservations, nil
}

func (r *pgReservationRepository) Find(ctx context.Context, filter domain.ReservationFilterDTO) ([]domain.Reservation, error) {
	baseQuery := `SELECT ` + reservationColumns + ` FROM vehicle_reservations`

	var conditions []string
	var args []interface{}
	argID := 1

	if filter.VehicleID != nil {
		conditions = append(conditions, fmt.Sprintf("vehicle_id = $%d", argID))
		args = append(args, *filter.VehicleID)
		argID++
	}
	if filter.RequesterID != nil {
		conditions = append(conditions, fmt.Sprintf("requester_id = $%d", argID))
		args = append(args, *filter.RequesterID)
		argID++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argID))
		args = append(args, *filter.Status)
		argID++
	}
	if filter.Date != nil {
		dayStart, err := time.Parse("2006-01-02", *filter.Date)
		if err != nil {
			return nil, fmt.Errorf("ReservationRepository.Find: ngày lọc không hợp lệ '%s': %w", *filter.Date, err)
		}
		dayEnd := dayStart.Add(24 * time.Hour)
		// Giao với ngày theo ngữ nghĩa nửa mở
		conditions = append(conditions, fmt.Sprintf("start_time < $%d AND end_time > $%d", argID, argID+1))
		args = append(args, dayEnd, dayStart)
		argID += 2
	}

	query := baseQuery
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY start_time"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ReservationRepository.Find: %w", err)
	}
	defer rows.Close()

	var reservations []domain.Reservation
	for rows.Next() {
		var reservation domain.Reservation
		if err := scanReservation(rows.Scan, &reservation); err != nil {
			return nil, fmt.Errorf("ReservationRepository.Find (scanning row): %w", err)
		}
		reservations = append(reservations, reservation)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ReservationRepository.Find (rows error): %w", err)
	}
	return reservations, nil
}

func (r *pgReservationRepository) Update(ctx context.Context, reservation *domain.Reservation) (*domain.Reservation, error) {
	query := `UPDATE vehicle_reservations
	           SET vehicle_id = $1, requester_id = $2, guest_name = $3, is_for_guest = $4,
	               start_time = $5, end_time = $6, status = $7, notes = $8, cancelled_at = $9,
	               updated_at = CURRENT_TIMESTAMP
	           WHERE id = $10
	           RETURNING updated_at`

	var guestNameVal sql.NullString
	if reservation.GuestName.Valid {
		guestNameVal = sql.NullString{String: reservation.GuestName.String, Valid: true}
	}
	var notesVal sql.NullString
	if reservation.Notes.Valid {
		notesVal = sql.NullString{String: reservation.Notes.String, Valid: true}
	}
	var cancelledAtVal sql.NullTime
	if reservation.CancelledAt.Valid {
		cancelledAtVal = sql.NullTime{Time: reservation.CancelledAt.Time, Valid: true}
	}

	err := r.db.QueryRowContext(ctx, query,
		reservation.VehicleID, reservation.RequesterID, guestNameVal, reservation.IsForGuest,
		reservation.StartTime, reservation.EndTime, reservation.Status, notesVal, cancelledAtVal,
		reservation.ID,
	).Scan(&reservation.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, mapReservationWriteError("Update", err)
	}
	reservation.UpdatedAt = reservation.UpdatedAt.In(time.UTC)
	return reservation, nil
}

func (r *pgReservationRepository) DeleteFutureByVehicleID(ctx context.Context, vehicleID int, from time.Time) (int, error) {
	query := `DELETE FROM vehicle_reservations WHERE vehicle_id = $1 AND end_time > $2`
	result, err := r.db.ExecContext(ctx, query, vehicleID, from)
	if err != nil {
		return 0, fmt.Errorf("ReservationRepository.DeleteFutureByVehicleID: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("ReservationRepository.DeleteFutureByVehicleID (checking rows affected): %w", err)
	}
	return int(rowsAffected), nil
}

func (r *pgReservationRepository) GuestNames(ctx context.Context, requesterID int) ([]string, error) {
	query := `SELECT guest_name FROM vehicle_reservations
	           WHERE requester_id = $1 AND guest_name IS NOT NULL
	           GROUP BY guest_name
	           ORDER BY MAX(created_at) DESC`
	rows, err := r.db.QueryContext(ctx, query, requesterID)
	if err != nil {
		return nil, fmt.Errorf("ReservationRepository.GuestNames: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("ReservationRepository.GuestNames (scanning row): %w", err)
		}
		names = append(names, name)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ReservationRepository.GuestNames (rows error): %w", err)
	}
	return names, nil
}
