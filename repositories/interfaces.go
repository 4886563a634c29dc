package repositories

import (
	"context"
	"errors"

	"github.com/coffeeshop/backend/models"
)

var (
	// ErrNotFound is returned when no row matches the lookup.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when a write violates a unique constraint.
	ErrDuplicate = errors.New("duplicate record")
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns the transaction context
	Context() context.Context
}

// DrinkRepository handles drink data operations
type DrinkRepository interface {
	// List returns every drink ordered by ID
	List(ctx context.Context) ([]*models.Drink, error)

	// GetByID retrieves a drink by ID, returning ErrNotFound when absent
	GetByID(ctx context.Context, id int64) (*models.Drink, error)

	// Create inserts drink and sets its ID
	Create(ctx context.Context, drink *models.Drink) error

	// Update overwrites the title and recipe of an existing drink
	Update(ctx context.Context, drink *models.Drink) error

	// Delete removes a drink, returning ErrNotFound when absent
	Delete(ctx context.Context, id int64) error
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Drinks       DrinkRepository
	Transactions TransactionManager
}
