package sales

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

func newTestRouter() (chi.Router, *memorySalesRepo) {
	svc, repo := newTestService()
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r, repo
}

func doJSON(t *testing.T, r chi.Router, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(shared.ContextWithIdentity(req.Context(), testIdentity))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCreateSaleHandlerRejectsMalformedBody(t *testing.T) {
	r, repo := newTestRouter()

	rec := doJSON(t, r, http.MethodPost, "/sales", `{"items":[],"total":-1}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, repo.sales)

	rec = doJSON(t, r, http.MethodPost, "/sales", `{"items":[{"product_id":10,"quantity":0,"price":5}],"total":0}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, repo.sales)
}

func TestCreateSaleHandlerHappyPath(t *testing.T) {
	r, repo := newTestRouter()

	rec := doJSON(t, r, http.MethodPost, "/sales", `{"customer_id":5,"items":[{"product_id":10,"quantity":2,"price":25}],"total":50}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, repo.sales, 1)
	require.Equal(t, int64(98), repo.stocks[10])
}

func TestUpdateSaleHandlerRejectsEmptyItemList(t *testing.T) {
	r, _ := newTestRouter()

	rec := doJSON(t, r, http.MethodPut, "/sales/1", `{"items":[]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
