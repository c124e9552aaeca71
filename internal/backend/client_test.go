package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockdesk/stockdesk/internal/catalog"
	"github.com/stockdesk/stockdesk/internal/invoicing"
	"github.com/stockdesk/stockdesk/internal/shared"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/api/", time.Second)
}

func TestListProductsAcceptsStringDecimals(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/products/", r.URL.Path)
		_, _ = io.WriteString(w, `[{"id":1,"name":"Rice","unit":"kg","min_stock":"10.00","buying_price":"40.00","selling_price":"55.50","stock":"8.00"},
			{"id":2,"name":"Oil","unit":"ltr","min_stock":0,"buying_price":90,"selling_price":120,"stock":3}]`)
	})

	products, err := client.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Rice", products[0].Name)
	assert.True(t, products[0].SellingPrice.Equal(decimal.RequireFromString("55.5")))
	assert.True(t, products[1].Stock.Equal(decimal.NewFromInt(3)))
	assert.Equal(t, catalog.UnitLitre, products[1].Unit)
}

func TestFetchFailureIsFetchError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.ListProducts(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrFetch))
	var ferr *shared.FetchError
	require.True(t, errors.As(err, &ferr))
	assert.Equal(t, http.StatusServiceUnavailable, ferr.Status)
	assert.Equal(t, "products", ferr.Op)
}

func TestFetchDecodeFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"not":"a list"}`)
	})

	_, err := client.ListProducts(context.Background())
	assert.True(t, errors.Is(err, shared.ErrFetch))
}

func TestListAccountsRoutesByKind(t *testing.T) {
	var paths []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		_, _ = io.WriteString(w, `[{"id":7,"name":"Asha","company_name":"Asha Traders"}]`)
	})

	sale, err := client.ListAccounts(context.Background(), invoicing.KindSale)
	require.NoError(t, err)
	_, err = client.ListAccounts(context.Background(), invoicing.KindPurchase)
	require.NoError(t, err)

	assert.Equal(t, []string{"/api/accounts/customers/", "/api/accounts/suppliers/"}, paths)
	require.Len(t, sale, 1)
	assert.Equal(t, "Asha (Asha Traders)", sale[0].Label(invoicing.KindPurchase))
}

func TestCreateInvoicePostsPayload(t *testing.T) {
	var body map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/invoices/purchases/", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":42,"supplier_name":"Asha","date":"2024-03-01","total_amount":"90.00","discount":"10.00","items":[]}`)
	})

	invoice, err := client.CreateInvoice(context.Background(), invoicing.SubmissionPayload{
		Kind:        invoicing.KindPurchase,
		PartyName:   "Asha",
		Discount:    10,
		Items:       []invoicing.PayloadItem{{Product: 1, Quantity: 2, Price: 50}},
		TotalAmount: 90,
		Date:        "2024-03-01",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), invoice.ID)
	assert.Equal(t, "Asha", invoice.PartyName())
	assert.Equal(t, "Asha", body["supplier_name"])
	assert.Equal(t, "2024-03-01", body["date"])
	assert.NotContains(t, body, "customer_name")
}

func TestCreateInvoiceRejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"items":["Insufficient stock for Rice"],"customer_name":["This field is required."]}`)
	})

	_, err := client.CreateInvoice(context.Background(), invoicing.SubmissionPayload{Kind: invoicing.KindSale})
	require.Error(t, err)
	var serr *shared.SubmissionError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, http.StatusBadRequest, serr.Status)
	assert.Equal(t, "customer_name: This field is required.; items: Insufficient stock for Rice", serr.Detail)
	assert.Equal(t, "sale", serr.Kind)
}

func TestCreateInvoiceUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	client := NewClient(srv.URL, time.Second)
	srv.Close()

	_, err := client.CreateInvoice(context.Background(), invoicing.SubmissionPayload{Kind: invoicing.KindSale})
	var serr *shared.SubmissionError
	require.True(t, errors.As(err, &serr))
	assert.Zero(t, serr.Status)
}

func TestProductWrites(t *testing.T) {
	var methods []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method+" "+r.URL.Path)
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		_, _ = io.WriteString(w, `{"id":5,"name":"Sugar","unit":"kg","min_stock":"1","buying_price":"1","selling_price":"2","stock":"4"}`)
	})
	ctx := context.Background()
	input := catalog.ProductInput{Name: "Sugar", Unit: catalog.UnitKilo}

	_, err := client.CreateProduct(ctx, input)
	require.NoError(t, err)
	_, err = client.UpdateProduct(ctx, 5, input)
	require.NoError(t, err)
	name := "Brown sugar"
	_, err = client.PatchProduct(ctx, 5, catalog.ProductPatch{Name: &name})
	require.NoError(t, err)
	require.NoError(t, client.DeleteProduct(ctx, 5))

	assert.Equal(t, []string{
		"POST /api/products/",
		"PUT /api/products/5/",
		"PATCH /api/products/5/",
		"DELETE /api/products/5/",
	}, methods)
}

func TestDeleteMissingProduct(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	err := client.DeleteProduct(context.Background(), 9)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestReportQueries(t *testing.T) {
	var queries []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.Path+"?"+r.URL.RawQuery)
		_, _ = io.WriteString(w, `{"sales_total":100}`)
	})
	ctx := context.Background()

	raw, err := client.DayReport(ctx, "2024-01-01")
	require.NoError(t, err)
	assert.JSONEq(t, `{"sales_total":100}`, string(raw))
	_, err = client.PeriodReport(ctx, "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	_, err = client.SummaryReport(ctx, "week", "2024-01-07")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/api/reports/day/?date=2024-01-01",
		"/api/reports/period/?end=2024-01-31&start=2024-01-01",
		"/api/reports/summary/?date=2024-01-07&type=week",
	}, queries)
}

func TestErrorDetail(t *testing.T) {
	assert.Equal(t, "", errorDetail(nil))
	assert.Equal(t, "Not found.", errorDetail([]byte(`{"detail":"Not found."}`)))
	assert.Equal(t, "boom", errorDetail([]byte("boom")))
}
