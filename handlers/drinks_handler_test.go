package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/coffeeshop/backend/internal/auth"
	"github.com/coffeeshop/backend/models"
	"github.com/coffeeshop/backend/services"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockDrinkService is a mock implementation of DrinkService
type MockDrinkService struct {
	mock.Mock
}

func (m *MockDrinkService) List(ctx context.Context) ([]*models.Drink, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Drink), args.Error(1)
}

func (m *MockDrinkService) Create(ctx context.Context, req services.CreateDrinkRequest) (*models.Drink, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Drink), args.Error(1)
}

func (m *MockDrinkService) Update(ctx context.Context, id int64, patch models.DrinkPatch) (*models.Drink, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Drink), args.Error(1)
}

func (m *MockDrinkService) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var barista = auth.Claims{"sub": "auth0|barista"}

var flatWhite = &models.Drink{
	ID:    1,
	Title: "Flat White",
	Recipe: []models.Ingredient{
		{Name: "espresso", Color: "brown", Parts: 1},
		{Name: "steamed milk", Color: "white", Parts: 2},
	},
}

// withID attaches the chi route parameter {id} to req.
func withID(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestHandleListDrinks(t *testing.T) {
	t.Run("serves the short representation", func(t *testing.T) {
		svc := new(MockDrinkService)
		h := NewDrinkHandler(svc, zap.NewNop())
		svc.On("List", mock.Anything).Return([]*models.Drink{flatWhite}, nil)

		w := httptest.NewRecorder()
		h.HandleListDrinks(w, httptest.NewRequest(http.MethodGet, "/drinks", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.JSONEq(t,
			`{"success":true,"drinks":[{"id":1,"title":"Flat White","recipe":[{"color":"brown","parts":1},{"color":"white","parts":2}]}]}`,
			w.Body.String())
	})

	t.Run("empty menu is an empty list", func(t *testing.T) {
		svc := new(MockDrinkService)
		h := NewDrinkHandler(svc, zap.NewNop())
		svc.On("List", mock.Anything).Return([]*models.Drink{}, nil)

		w := httptest.NewRecorder()
		h.HandleListDrinks(w, httptest.NewRequest(http.MethodGet, "/drinks", nil))

		assert.JSONEq(t, `{"success":true,"drinks":[]}`, w.Body.String())
	})

	t.Run("service failure", func(t *testing.T) {
		svc := new(MockDrinkService)
		h := NewDrinkHandler(svc, zap.NewNop())
		svc.On("List", mock.Anything).Return(nil, services.WrapInternal("failed to list drinks", errors.New("down")))

		w := httptest.NewRecorder()
		h.HandleListDrinks(w, httptest.NewRequest(http.MethodGet, "/drinks", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestHandleListDrinkDetails(t *testing.T) {
	svc := new(MockDrinkService)
	h := NewDrinkHandler(svc, zap.NewNop())
	svc.On("List", mock.Anything).Return([]*models.Drink{flatWhite}, nil)

	w := httptest.NewRecorder()
	h.HandleListDrinkDetails(w, httptest.NewRequest(http.MethodGet, "/drinks-detail", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp LongDrinksResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Drinks, 1)
	assert.Equal(t, "steamed milk", resp.Drinks[0].Recipe[1].Name)
}

func TestHandleCreateDrink(t *testing.T) {
	t.Run("returns the created drink", func(t *testing.T) {
		svc := new(MockDrinkService)
		h := NewDrinkHandler(svc, zap.NewNop())
		svc.On("Create", mock.Anything, services.CreateDrinkRequest{
			Title:  "Flat White",
			Recipe: flatWhite.Recipe,
		}).Return(flatWhite, nil)

		body := `{"title":"Flat White","recipe":[{"name":"espresso","color":"brown","parts":1},{"name":"steamed milk","color":"white","parts":2}]}`
		w := httptest.NewRecorder()
		h.HandleCreateDrink(w, httptest.NewRequest(http.MethodPost, "/drinks", strings.NewReader(body)), barista)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp LongDrinksResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		require.Len(t, resp.Drinks, 1)
		assert.Equal(t, int64(1), resp.Drinks[0].ID)
		svc.AssertExpectations(t)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		svc := new(MockDrinkService)
		h := NewDrinkHandler(svc, zap.NewNop())

		w := httptest.NewRecorder()
		h.HandleCreateDrink(w, httptest.NewRequest(http.MethodPost, "/drinks", strings.NewReader(`{"title":`)), barista)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("duplicate title", func(t *testing.T) {
		svc := new(MockDrinkService)
		h := NewDrinkHandler(svc, zap.NewNop())
		svc.On("Create", mock.Anything, mock.Anything).Return(nil, services.ErrDuplicateDrinkTitle)

		w := httptest.NewRecorder()
		h.HandleCreateDrink(w, httptest.NewRequest(http.MethodPost, "/drinks", strings.NewReader(`{"title":"Flat White"}`)), barista)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, services.ErrDuplicateDrinkTitle.Message, decodeError(t, w).Message)
	})
}

func TestHandleUpdateDrink(t *testing.T) {
	t.Run("patches the title", func(t *testing.T) {
		svc := new(MockDrinkService)
		h := NewDrinkHandler(svc, zap.NewNop())
		updated := &models.Drink{ID: 1, Title: "Long White", Recipe: flatWhite.Recipe}
		svc.On("Update", mock.Anything, int64(1), mock.MatchedBy(func(p models.DrinkPatch) bool {
			return p.Title != nil && *p.Title == "Long White" && p.Recipe == nil
		})).Return(updated, nil)

		req := withID(httptest.NewRequest(http.MethodPatch, "/drinks/1", strings.NewReader(`{"title":"Long White"}`)), "1")
		w := httptest.NewRecorder()
		h.HandleUpdateDrink(w, req, barista)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp LongDrinksResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "Long White", resp.Drinks[0].Title)
	})

	t.Run("unknown drink", func(t *testing.T) {
		svc := new(MockDrinkService)
		h := NewDrinkHandler(svc, zap.NewNop())
		svc.On("Update", mock.Anything, int64(7), mock.Anything).Return(nil, services.ErrDrinkNotFound)

		req := withID(httptest.NewRequest(http.MethodPatch, "/drinks/7", strings.NewReader(`{"title":"x"}`)), "7")
		w := httptest.NewRecorder()
		h.HandleUpdateDrink(w, req, barista)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("empty patch", func(t *testing.T) {
		svc := new(MockDrinkService)
		h := NewDrinkHandler(svc, zap.NewNop())
		svc.On("Update", mock.Anything, int64(1), models.DrinkPatch{}).Return(nil, services.ErrEmptyPatch)

		req := withID(httptest.NewRequest(http.MethodPatch, "/drinks/1", strings.NewReader(`{}`)), "1")
		w := httptest.NewRecorder()
		h.HandleUpdateDrink(w, req, barista)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	for _, id := range []string{"abc", "0", "-3"} {
		t.Run("invalid id "+id, func(t *testing.T) {
			svc := new(MockDrinkService)
			h := NewDrinkHandler(svc, zap.NewNop())

			req := withID(httptest.NewRequest(http.MethodPatch, "/drinks/"+id, strings.NewReader(`{"title":"x"}`)), id)
			w := httptest.NewRecorder()
			h.HandleUpdateDrink(w, req, barista)

			assert.Equal(t, http.StatusNotFound, w.Code)
			svc.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestHandleDeleteDrink(t *testing.T) {
	t.Run("reports the deleted id", func(t *testing.T) {
		svc := new(MockDrinkService)
		h := NewDrinkHandler(svc, zap.NewNop())
		svc.On("Delete", mock.Anything, int64(1)).Return(nil)

		w := httptest.NewRecorder()
		h.HandleDeleteDrink(w, withID(httptest.NewRequest(http.MethodDelete, "/drinks/1", nil), "1"), barista)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true,"delete":1}`, w.Body.String())
	})

	t.Run("unknown drink", func(t *testing.T) {
		svc := new(MockDrinkService)
		h := NewDrinkHandler(svc, zap.NewNop())
		svc.On("Delete", mock.Anything, int64(2)).Return(services.ErrDrinkNotFound)

		w := httptest.NewRecorder()
		h.HandleDeleteDrink(w, withID(httptest.NewRequest(http.MethodDelete, "/drinks/2", nil), "2"), barista)

		assert.Equal(t, http.StatusNotFound, w.Code)
		resp := decodeError(t, w)
		assert.Equal(t, http.StatusNotFound, resp.Error)
		assert.Equal(t, "resource not found", resp.Message)
	})
}
