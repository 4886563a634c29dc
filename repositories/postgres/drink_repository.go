package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/coffeeshop/backend/models"
	"github.com/coffeeshop/backend/repositories"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// DrinkRepository implements the repositories.DrinkRepository interface
type DrinkRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewDrinkRepository creates a new drink repository
func NewDrinkRepository(db *DB, logger *zap.Logger) repositories.DrinkRepository {
	return &DrinkRepository{
		db:     db,
		logger: logger,
	}
}

// List returns every drink ordered by ID
func (r *DrinkRepository) List(ctx context.Context) ([]*models.Drink, error) {
	query := `
		SELECT id, title, recipe
		FROM drinks
		ORDER BY id
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list drinks: %w", err)
	}
	defer rows.Close()

	drinks := make([]*models.Drink, 0)
	for rows.Next() {
		drink, err := scanDrink(rows)
		if err != nil {
			return nil, err
		}
		drinks = append(drinks, drink)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate drinks: %w", err)
	}

	return drinks, nil
}

// GetByID retrieves a drink by ID
func (r *DrinkRepository) GetByID(ctx context.Context, id int64) (*models.Drink, error) {
	query := `
		SELECT id, title, recipe
		FROM drinks
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	drink, err := scanDrink(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("drink %d: %w", id, repositories.ErrNotFound)
		}
		return nil, err
	}

	return drink, nil
}

// Create inserts a drink and assigns its ID
func (r *DrinkRepository) Create(ctx context.Context, drink *models.Drink) error {
	query := `
		INSERT INTO drinks (title, recipe)
		VALUES ($1, $2)
		RETURNING id
	`

	recipe, err := encodeRecipe(drink.Recipe)
	if err != nil {
		return err
	}

	executor := GetExecutor(ctx, r.db)
	if err := executor.QueryRowContext(ctx, query, drink.Title, recipe).Scan(&drink.ID); err != nil {
		return translateWriteError("create", err)
	}

	r.logger.Debug("drink created", zap.Int64("id", drink.ID))
	return nil
}

// Update overwrites the title and recipe of an existing drink
func (r *DrinkRepository) Update(ctx context.Context, drink *models.Drink) error {
	query := `
		UPDATE drinks
		SET title = $2, recipe = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`

	recipe, err := encodeRecipe(drink.Recipe)
	if err != nil {
		return err
	}

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, drink.ID, drink.Title, recipe)
	if err != nil {
		return translateWriteError("update", err)
	}
	if err := requireAffected(result, drink.ID); err != nil {
		return err
	}

	r.logger.Debug("drink updated", zap.Int64("id", drink.ID))
	return nil
}

// Delete removes a drink
func (r *DrinkRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM drinks WHERE id = $1`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete drink: %w", err)
	}
	if err := requireAffected(result, id); err != nil {
		return err
	}

	r.logger.Debug("drink deleted", zap.Int64("id", id))
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDrink(row rowScanner) (*models.Drink, error) {
	var (
		drink  models.Drink
		recipe string
	)
	if err := row.Scan(&drink.ID, &drink.Title, &recipe); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan drink: %w", err)
	}
	if err := json.Unmarshal([]byte(recipe), &drink.Recipe); err != nil {
		return nil, fmt.Errorf("failed to decode recipe of drink %d: %w", drink.ID, err)
	}
	return &drink, nil
}

func encodeRecipe(recipe []models.Ingredient) (string, error) {
	if recipe == nil {
		recipe = []models.Ingredient{}
	}
	data, err := json.Marshal(recipe)
	if err != nil {
		return "", fmt.Errorf("failed to encode recipe: %w", err)
	}
	return string(data), nil
}

func translateWriteError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("failed to %s drink: %w", op, repositories.ErrDuplicate)
	}
	return fmt.Errorf("failed to %s drink: %w", op, err)
}

func requireAffected(result sql.Result, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("drink %d: %w", id, repositories.ErrNotFound)
	}
	return nil
}
