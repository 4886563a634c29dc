package routes

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/coffeeshop/backend/app"
	"github.com/coffeeshop/backend/handlers"
	"github.com/coffeeshop/backend/middleware"
	"github.com/coffeeshop/backend/utils"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// requestTimeout bounds the handling of a single request.
const requestTimeout = 60 * time.Second

// Permissions required by the drink endpoints.
const (
	PermissionGetDrinksDetail = "get:drinks-detail"
	PermissionPostDrinks      = "post:drinks"
	PermissionPatchDrinks     = "patch:drinks"
	PermissionDeleteDrinks    = "delete:drinks"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(requestTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           deps.Config.CORS.MaxAge,
	}))

	var db *sql.DB
	if deps.DB != nil {
		db = deps.DB.DB
	}
	health := handlers.NewHealthHandler(db, deps.Logger)
	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)

	if deps.Config.Observability.MetricsEnabled && deps.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	drinks := handlers.NewDrinkHandler(deps.DrinkService, deps.Logger)
	authz := deps.AuthMiddleware

	r.Get("/drinks", drinks.HandleListDrinks)
	r.With(authz.RequirePermission(PermissionGetDrinksDetail)).Get("/drinks-detail", drinks.HandleListDrinkDetails)
	r.Post("/drinks", authz.RequiresAuth(PermissionPostDrinks, drinks.HandleCreateDrink))
	r.Patch("/drinks/{id}", authz.RequiresAuth(PermissionPatchDrinks, drinks.HandleUpdateDrink))
	r.Delete("/drinks/{id}", authz.RequiresAuth(PermissionDeleteDrinks, drinks.HandleDeleteDrink))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteMethodNotAllowed(w)
	})

	return r
}
