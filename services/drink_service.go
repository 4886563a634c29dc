package services

import (
	"context"
	"errors"
	"strings"

	"github.com/coffeeshop/backend/models"
	"github.com/coffeeshop/backend/repositories"
	"github.com/coffeeshop/backend/utils"
	"go.uber.org/zap"
)

// CreateDrinkRequest is the body of POST /drinks
type CreateDrinkRequest struct {
	Title  string              `json:"title" validate:"required,max=80"`
	Recipe []models.Ingredient `json:"recipe" validate:"required,min=1,dive"`
}

// DrinkService implements the drink use cases
type DrinkService struct {
	drinks repositories.DrinkRepository
	txm    repositories.TransactionManager
	logger *zap.Logger
}

// NewDrinkService creates a new DrinkService instance
func NewDrinkService(drinks repositories.DrinkRepository, txm repositories.TransactionManager, logger *zap.Logger) *DrinkService {
	return &DrinkService{
		drinks: drinks,
		txm:    txm,
		logger: logger,
	}
}

// List returns every drink
func (s *DrinkService) List(ctx context.Context) ([]*models.Drink, error) {
	drinks, err := s.drinks.List(ctx)
	if err != nil {
		return nil, WrapInternal("failed to list drinks", err)
	}
	return drinks, nil
}

// Create validates req and stores a new drink
func (s *DrinkService) Create(ctx context.Context, req CreateDrinkRequest) (*models.Drink, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := utils.ValidateStruct(&req); err != nil {
		return nil, validationError(err)
	}

	drink := models.NewDrink(req.Title, req.Recipe)
	if err := s.drinks.Create(ctx, drink); err != nil {
		return nil, translateRepoError(err)
	}

	s.logger.Info("drink created",
		zap.Int64("id", drink.ID),
		zap.String("title", drink.Title))
	return drink, nil
}

// Update applies patch to the drink identified by id. The read and the
// write run in one transaction.
func (s *DrinkService) Update(ctx context.Context, id int64, patch models.DrinkPatch) (*models.Drink, error) {
	if patch.IsEmpty() {
		return nil, ErrEmptyPatch
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		patch.Title = &title
	}
	if err := utils.ValidateStruct(&patch); err != nil {
		return nil, validationError(err)
	}

	return WithTransactionResult(ctx, s.txm, func(ctx context.Context, _ repositories.Transaction) (*models.Drink, error) {
		drink, err := s.drinks.GetByID(ctx, id)
		if err != nil {
			return nil, translateRepoError(err)
		}

		patch.Apply(drink)
		if err := s.drinks.Update(ctx, drink); err != nil {
			return nil, translateRepoError(err)
		}

		s.logger.Info("drink updated", zap.Int64("id", id))
		return drink, nil
	})
}

// Delete removes the drink identified by id
func (s *DrinkService) Delete(ctx context.Context, id int64) error {
	if err := s.drinks.Delete(ctx, id); err != nil {
		return translateRepoError(err)
	}
	s.logger.Info("drink deleted", zap.Int64("id", id))
	return nil
}

func validationError(err error) error {
	var verr *utils.ValidationError
	if errors.As(err, &verr) {
		derr := NewDomainError(ErrorTypeValidation, verr.Summary(), err)
		for field, msg := range verr.Fields {
			derr.WithDetail(field, msg)
		}
		return derr
	}
	return NewDomainError(ErrorTypeValidation, ErrInvalidInput.Message, err)
}

func translateRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return NewDomainError(ErrorTypeNotFound, ErrDrinkNotFound.Message, err)
	case errors.Is(err, repositories.ErrDuplicate):
		return NewDomainError(ErrorTypeConflict, ErrDuplicateDrinkTitle.Message, err)
	default:
		return WrapInternal("drink repository failure", err)
	}
}
