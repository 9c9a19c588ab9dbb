package postgresql

import (
	"context"
	"database/sql"
	"fmt"

	"jaracar_backend/internal/domain"
	"jaracar_backend/internal/repository"
)

type pgMaintenanceRepository struct {
	db *sql.DB
}

func NewPgMaintenanceRepository(db *sql.DB) repository.MaintenanceRepository {
	return &pgMaintenanceRepository{db: db}
}

func (r *pgMaintenanceRepository) CountOpen(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM maintenance_tickets WHERE status = $1`
	var count int
	err := r.db.QueryRowContext(ctx, query, domain.TicketOpen).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("MaintenanceRepository.CountOpen: %w", err)
	}
	return count, nil
}
