package reminders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/bloombuddy/internal/common"
	"github.com/dmitrijs2005/bloombuddy/internal/dbx"
	"github.com/dmitrijs2005/bloombuddy/internal/server/models"
)

const reminderColumns = `id, user_id, plant_id, task_type, due_date, is_completed, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReminder(row rowScanner) (*models.Reminder, error) {
	r := &models.Reminder{}
	if err := row.Scan(&r.ID, &r.UserID, &r.PlantID, &r.TaskType, &r.DueDate, &r.IsCompleted, &r.CreatedAt); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *PostgresRepository) List(ctx context.Context, userID string) ([]models.Reminder, error) {
	query := `
		SELECT ` + reminderColumns + `
		FROM reminders
		WHERE user_id = $1
		ORDER BY due_date ASC, id ASC
	`
	return r.list(ctx, query, userID)
}

func (r *PostgresRepository) ListByPlant(ctx context.Context, userID string, plantID int64) ([]models.Reminder, error) {
	query := `
		SELECT ` + reminderColumns + `
		FROM reminders
		WHERE user_id = $1 AND plant_id = $2
		ORDER BY due_date ASC, id ASC
	`
	return r.list(ctx, query, userID, plantID)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]models.Reminder, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.Reminder, 0)
	for rows.Next() {
		rem, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, *rem)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID string, id int64) (*models.Reminder, error) {
	query := `
		SELECT ` + reminderColumns + `
		FROM reminders
		WHERE id = $1 AND user_id = $2
	`
	return r.one(r.db.QueryRowContext(ctx, query, id, userID))
}

func (r *PostgresRepository) Create(ctx context.Context, reminder *models.Reminder) (*models.Reminder, error) {
	query := `
		INSERT INTO reminders (user_id, plant_id, task_type, due_date, is_completed)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		reminder.UserID, reminder.PlantID, reminder.TaskType, reminder.DueDate, reminder.IsCompleted,
	).Scan(&reminder.ID, &reminder.CreatedAt)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return nil, fmt.Errorf("plant %d: %w", reminder.PlantID, common.ErrorNotFound)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return reminder, nil
}

func (r *PostgresRepository) SetCompleted(ctx context.Context, userID string, id int64, completed bool) (*models.Reminder, error) {
	query := `
		UPDATE reminders
		SET is_completed = $3
		WHERE id = $1 AND user_id = $2
		RETURNING ` + reminderColumns
	return r.one(r.db.QueryRowContext(ctx, query, id, userID, completed))
}

func (r *PostgresRepository) Toggle(ctx context.Context, userID string, id int64) (*models.Reminder, error) {
	query := `
		UPDATE reminders
		SET is_completed = NOT is_completed
		WHERE id = $1 AND user_id = $2
		RETURNING ` + reminderColumns
	return r.one(r.db.QueryRowContext(ctx, query, id, userID))
}

func (r *PostgresRepository) Delete(ctx context.Context, userID string, id int64) error {
	query := `
		DELETE FROM reminders
		WHERE id = $1 AND user_id = $2
	`
	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) one(row *sql.Row) (*models.Reminder, error) {
	rem, err := scanReminder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rem, nil
}
