package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/meridian-erp/meridian-erp/internal/cashbills"
	"github.com/meridian-erp/meridian-erp/internal/company"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/customers"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/products"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/suppliers"
	"github.com/meridian-erp/meridian-erp/internal/purchases"
	"github.com/meridian-erp/meridian-erp/internal/sales"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	CompanyHandler   *company.Handler
	ProductsHandler  *products.Handler
	CustomersHandler *customers.Handler
	SuppliersHandler *suppliers.Handler
	SalesHandler     *sales.Handler
	PurchasesHandler *purchases.Handler
	CashBillsHandler *cashbills.Handler
}

// NewRouter constructs the chi.Router with Meridian defaults. Every business
// route sits behind the gateway-trust identity check; only the health
// endpoint is open.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(identityMiddleware(params.Logger))

		params.CompanyHandler.MountRoutes(api)
		params.ProductsHandler.MountRoutes(api)
		params.CustomersHandler.MountRoutes(api)
		params.SuppliersHandler.MountRoutes(api)
		params.SalesHandler.MountRoutes(api)
		params.PurchasesHandler.MountRoutes(api)
		params.CashBillsHandler.MountRoutes(api)
	})

	return r
}
