package invoicing

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockdesk/stockdesk/internal/shared"
)

func newTestRouter(t *testing.T, backend *mockBackend) http.Handler {
	t.Helper()
	svc, _, _ := newTestService(backend)
	r := chi.NewRouter()
	NewHandler(slog.Default(), svc).MountRoutes(r)
	return r
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func openDraft(t *testing.T, h http.Handler, kind string) DraftView {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/invoices/drafts", `{"kind":"`+kind+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var view DraftView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	return view
}

func TestOpenDraftView(t *testing.T) {
	h := newTestRouter(t, newMockBackend())

	sale := openDraft(t, h, "sale")
	assert.False(t, sale.DateEditable)
	assert.False(t, sale.SellingPriceEditable)
	assert.False(t, sale.CanRemoveItems)
	assert.Len(t, sale.Items, 1)
	// Out of stock products are not offered on sales.
	assert.Len(t, sale.Products, 2)
	assert.Equal(t, []optionView{{ID: 7, Label: "Asha"}}, sale.Accounts)

	purchase := openDraft(t, h, "purchases")
	assert.True(t, purchase.DateEditable)
	assert.True(t, purchase.SellingPriceEditable)
	assert.Len(t, purchase.Products, 3)
	assert.Equal(t, []optionView{{ID: 9, Label: "Bikash (Fresh Farms)"}}, purchase.Accounts)
}

func TestOpenDraftRejectsUnknownKind(t *testing.T) {
	h := newTestRouter(t, newMockBackend())
	rec := do(t, h, http.MethodPost, "/invoices/drafts", `{"kind":"refund"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEditDraftOverHTTP(t *testing.T) {
	h := newTestRouter(t, newMockBackend())
	view := openDraft(t, h, "sale")
	base := "/invoices/drafts/" + view.ID

	rec := do(t, h, http.MethodPatch, base+"/items/0", `{"field":"product","value":"2"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = do(t, h, http.MethodPatch, base+"/items/0", `{"field":"quantity","value":"2"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var updated DraftView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "Soap", updated.Items[0].ProductName)
	assert.Equal(t, "25", updated.Items[0].LineTotal.String())
	assert.Equal(t, "25", updated.Total.String())

	rec = do(t, h, http.MethodPost, base+"/items", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Len(t, updated.Items, 2)
	assert.True(t, updated.CanRemoveItems)

	rec = do(t, h, http.MethodDelete, base+"/items/1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodDelete, base+"/items/x", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, h, http.MethodDelete, base+"/items/4", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStockViolationAnswersConflictWithDraft(t *testing.T) {
	h := newTestRouter(t, newMockBackend())
	view := openDraft(t, h, "sale")
	base := "/invoices/drafts/" + view.ID

	do(t, h, http.MethodPatch, base+"/items/0", `{"field":"quantity","value":"5"}`)
	rec := do(t, h, http.MethodPatch, base+"/items/0", `{"field":"product","value":"1"}`)
	require.Equal(t, http.StatusConflict, rec.Code)

	var body struct {
		Draft     DraftView       `json:"draft"`
		Rejection *StockViolation `json:"rejection"`
		Detail    string          `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Rejection)
	assert.Equal(t, FieldProduct, body.Rejection.Field)
	assert.Equal(t, int64(0), body.Draft.Items[0].Product)
	assert.Equal(t, "5", body.Draft.Items[0].Quantity.String())
	assert.Contains(t, body.Detail, "Rice")
}

func TestReadOnlyEditAnswersConflict(t *testing.T) {
	h := newTestRouter(t, newMockBackend())
	view := openDraft(t, h, "sale")
	rec := do(t, h, http.MethodPatch, "/invoices/drafts/"+view.ID+"/items/0", `{"field":"selling_price","value":"3"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSubmitOverHTTP(t *testing.T) {
	backend := newMockBackend()
	h := newTestRouter(t, backend)
	view := openDraft(t, h, "sale")
	base := "/invoices/drafts/" + view.ID

	rec := do(t, h, http.MethodPost, base+"/submit", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var problem map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, "validation/missing-account", problem["type"])

	do(t, h, http.MethodPatch, base, `{"account_id":7}`)
	do(t, h, http.MethodPatch, base+"/items/0", `{"field":"product","value":"2"}`)

	backend.createErr = &shared.SubmissionError{Kind: "sale", Status: 400, Detail: "items: Insufficient stock for Soap"}
	rec = do(t, h, http.MethodPost, base+"/submit", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Insufficient stock for Soap")

	backend.createErr = nil
	rec = do(t, h, http.MethodPost, base+"/submit", "")
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodGet, base, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListInvoicesOverHTTP(t *testing.T) {
	h := newTestRouter(t, newMockBackend())

	rec := do(t, h, http.MethodGet, "/invoices", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var both map[string][]Invoice
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &both))
	assert.Len(t, both["sales"], 1)
	assert.Len(t, both["purchases"], 2)

	rec = do(t, h, http.MethodGet, "/invoices/purchases", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, h, http.MethodGet, "/invoices/refunds", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
