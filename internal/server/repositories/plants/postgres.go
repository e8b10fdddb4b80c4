package plants

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/bloombuddy/internal/common"
	"github.com/dmitrijs2005/bloombuddy/internal/dbx"
	"github.com/dmitrijs2005/bloombuddy/internal/server/models"
)

const plantColumns = `id, user_id, name, image_url, watering_frequency, light_level, temperature, humidity, description, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlant(row rowScanner) (*models.Plant, error) {
	p := &models.Plant{}
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.ImageURL, &p.WateringFrequency,
		&p.LightLevel, &p.Temperature, &p.Humidity, &p.Description, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PostgresRepository) List(ctx context.Context, userID string) ([]models.Plant, error) {
	query := `
		SELECT ` + plantColumns + `
		FROM plants
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.Plant, 0)
	for rows.Next() {
		p, err := scanPlant(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID string, id int64) (*models.Plant, error) {
	query := `
		SELECT ` + plantColumns + `
		FROM plants
		WHERE id = $1 AND user_id = $2
	`
	p, err := scanPlant(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) Create(ctx context.Context, plant *models.Plant) (*models.Plant, error) {
	query := `
		INSERT INTO plants (user_id, name, image_url, watering_frequency, light_level, temperature, humidity, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		plant.UserID, plant.Name, plant.ImageURL, plant.WateringFrequency,
		plant.LightLevel, plant.Temperature, plant.Humidity, plant.Description,
	).Scan(&plant.ID, &plant.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return plant, nil
}

func (r *PostgresRepository) Update(ctx context.Context, plant *models.Plant) error {
	query := `
		UPDATE plants
		SET name = $3, image_url = $4, watering_frequency = $5, light_level = $6,
		    temperature = $7, humidity = $8, description = $9
		WHERE id = $1 AND user_id = $2
	`
	res, err := r.db.ExecContext(ctx, query,
		plant.ID, plant.UserID, plant.Name, plant.ImageURL, plant.WateringFrequency,
		plant.LightLevel, plant.Temperature, plant.Humidity, plant.Description,
	)
	return affectedOne(res, err)
}

func (r *PostgresRepository) Delete(ctx context.Context, userID string, id int64) error {
	query := `
		DELETE FROM plants
		WHERE id = $1 AND user_id = $2
	`
	res, err := r.db.ExecContext(ctx, query, id, userID)
	return affectedOne(res, err)
}

func affectedOne(res sql.Result, err error) error {
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
