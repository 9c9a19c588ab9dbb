package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"jaracar_backend/internal/domain"
	"jaracar_backend/internal/repository"
)

type pgMealRepository struct {
	db *sql.DB
}

func NewPgMealRepository(db *sql.DB) repository.MealRepository {
	return &pgMealRepository{db: db}
}

func (r *pgMealRepository) FindTemplatesByDate(ctx context.Context, date string) ([]domain.MealTemplate, error) {
	query := `SELECT id, date, name, meal_time FROM meal_templates WHERE date = $1 ORDER BY meal_time, name`
	rows, err := r.db.QueryContext(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("MealRepository.FindTemplatesByDate: %w", err)
	}
	defer rows.Close()

	var templates []domain.MealTemplate
	for rows.Next() {
		var t domain.MealTemplate
		if err := rows.Scan(&t.ID, &t.Date, &t.Name, &t.MealTime); err != nil {
			return nil, fmt.Errorf("MealRepository.FindTemplatesByDate (scanning row): %w", err)
		}
		templates = append(templates, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("MealRepository.FindTemplatesByDate (rows error): %w", err)
	}
	return templates, nil
}

func (r *pgMealRepository) FindOrdersByUserAndDate(ctx context.Context, userID int, date string) ([]domain.MealOrder, error) {
	query := `SELECT id, user_id, template_id, date, portions, created_at, updated_at
	           FROM meal_orders WHERE user_id = $1 AND date = $2 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, userID, date)
	if err != nil {
		return nil, fmt.Errorf("MealRepository.FindOrdersByUserAndDate: %w", err)
	}
	defer rows.Close()

	var orders []domain.MealOrder
	for rows.Next() {
		var o domain.MealOrder
		if err := rows.Scan(&o.ID, &o.UserID, &o.TemplateID, &o.Date, &o.Portions, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("MealRepository.FindOrdersByUserAndDate (scanning row): %w", err)
		}
		o.CreatedAt = o.CreatedAt.In(time.UTC)
		o.UpdatedAt = o.UpdatedAt.In(time.UTC)
		orders = append(orders, o)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("MealRepository.FindOrdersByUserAndDate (rows error): %w", err)
	}
	return orders, nil
}

func (r *pgMealRepository) UpsertOrder(ctx context.Context, order *domain.MealOrder) (*domain.MealOrder, error) {
	query := `INSERT INTO meal_orders (user_id, template_id, date, portions, created_at, updated_at)
	           VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	           ON CONFLICT (user_id, template_id)
	           DO UPDATE SET portions = EXCLUDED.portions, updated_at = CURRENT_TIMESTAMP
	           RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		order.UserID, order.TemplateID, order.Date, order.Portions,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("MealRepository.UpsertOrder: %w", err)
	}
	order.CreatedAt = order.CreatedAt.In(time.UTC)
	order.UpdatedAt = order.UpdatedAt.In(time.UTC)
	return order, nil
}

func (r *pgMealRepository) DeleteOrder(ctx context.Context, userID int, templateID int) error {
	query := `DELETE FROM meal_orders WHERE user_id = $1 AND template_id = $2`
	result, err := r.db.ExecContext(ctx, query, userID, templateID)
	if err != nil {
		return fmt.Errorf("MealRepository.DeleteOrder: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("MealRepository.DeleteOrder (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
