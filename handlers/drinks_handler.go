package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/coffeeshop/backend/internal/auth"
	"github.com/coffeeshop/backend/middleware"
	"github.com/coffeeshop/backend/models"
	"github.com/coffeeshop/backend/services"
	"github.com/coffeeshop/backend/utils"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// maxBodyBytes caps drink request bodies.
const maxBodyBytes = 1 << 20

// DrinkService defines the drink operations the handlers depend on
type DrinkService interface {
	List(ctx context.Context) ([]*models.Drink, error)
	Create(ctx context.Context, req services.CreateDrinkRequest) (*models.Drink, error)
	Update(ctx context.Context, id int64, patch models.DrinkPatch) (*models.Drink, error)
	Delete(ctx context.Context, id int64) error
}

// ShortDrinksResponse is the body of GET /drinks
type ShortDrinksResponse struct {
	Success bool                `json:"success"`
	Drinks  []models.ShortDrink `json:"drinks"`
}

// LongDrinksResponse is the body of every authenticated drink read or write
type LongDrinksResponse struct {
	Success bool           `json:"success"`
	Drinks  []models.Drink `json:"drinks"`
}

// DeleteDrinkResponse is the body of DELETE /drinks/{id}
type DeleteDrinkResponse struct {
	Success bool  `json:"success"`
	Delete  int64 `json:"delete"`
}

// DrinkHandler handles drink-related HTTP requests
type DrinkHandler struct {
	drinks DrinkService
	logger *zap.Logger
}

// NewDrinkHandler creates a new DrinkHandler
func NewDrinkHandler(drinks DrinkService, logger *zap.Logger) *DrinkHandler {
	return &DrinkHandler{
		drinks: drinks,
		logger: logger,
	}
}

// HandleListDrinks handles GET /drinks. It is public and serves the short
// representation.
func (h *DrinkHandler) HandleListDrinks(w http.ResponseWriter, r *http.Request) {
	drinks, err := h.drinks.List(r.Context())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	short := make([]models.ShortDrink, 0, len(drinks))
	for _, d := range drinks {
		short = append(short, d.Short())
	}
	h.respond(w, http.StatusOK, ShortDrinksResponse{Success: true, Drinks: short})
}

// HandleListDrinkDetails handles GET /drinks-detail. It is mounted behind
// RequirePermission, so the caller's claims are in the request context.
func (h *DrinkHandler) HandleListDrinkDetails(w http.ResponseWriter, r *http.Request) {
	drinks, err := h.drinks.List(r.Context())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	h.respondLong(w, http.StatusOK, drinks...)
}

// HandleCreateDrink handles POST /drinks
func (h *DrinkHandler) HandleCreateDrink(w http.ResponseWriter, r *http.Request, claims auth.Claims) {
	var req services.CreateDrinkRequest
	if err := h.decode(w, r, &req); err != nil {
		HandleDecodeError(w, err, h.logger)
		return
	}

	drink, err := h.drinks.Create(r.Context(), req)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("drink added",
		zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
		zap.String("sub", claims.Subject()),
		zap.Int64("id", drink.ID))
	h.respondLong(w, http.StatusOK, drink)
}

// HandleUpdateDrink handles PATCH /drinks/{id}
func (h *DrinkHandler) HandleUpdateDrink(w http.ResponseWriter, r *http.Request, claims auth.Claims) {
	id, ok := h.drinkID(w, r)
	if !ok {
		return
	}

	var patch models.DrinkPatch
	if err := h.decode(w, r, &patch); err != nil {
		HandleDecodeError(w, err, h.logger)
		return
	}

	drink, err := h.drinks.Update(r.Context(), id, patch)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("drink patched",
		zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
		zap.String("sub", claims.Subject()),
		zap.Int64("id", id))
	h.respondLong(w, http.StatusOK, drink)
}

// HandleDeleteDrink handles DELETE /drinks/{id}
func (h *DrinkHandler) HandleDeleteDrink(w http.ResponseWriter, r *http.Request, claims auth.Claims) {
	id, ok := h.drinkID(w, r)
	if !ok {
		return
	}

	if err := h.drinks.Delete(r.Context(), id); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("drink removed",
		zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
		zap.String("sub", claims.Subject()),
		zap.Int64("id", id))
	h.respond(w, http.StatusOK, DeleteDrinkResponse{Success: true, Delete: id})
}

// drinkID parses the {id} route parameter. Anything that is not a positive
// integer names no drink, so it is a 404.
func (h *DrinkHandler) drinkID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		_ = utils.WriteNotFound(w, "")
		return 0, false
	}
	return id, true
}

func (h *DrinkHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}

func (h *DrinkHandler) respondLong(w http.ResponseWriter, status int, drinks ...*models.Drink) {
	long := make([]models.Drink, 0, len(drinks))
	for _, d := range drinks {
		long = append(long, d.Long())
	}
	h.respond(w, status, LongDrinksResponse{Success: true, Drinks: long})
}

func (h *DrinkHandler) respond(w http.ResponseWriter, status int, body interface{}) {
	if err := utils.WriteJSON(w, status, body); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}
