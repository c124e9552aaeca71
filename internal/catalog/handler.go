package catalog

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/stockdesk/stockdesk/internal/platform/httpx"
	"github.com/stockdesk/stockdesk/internal/shared"
)

// Handler serves catalog endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/products", h.list)
	r.Post("/products", h.create)
	r.Get("/products/{id}", h.show)
	r.Put("/products/{id}", h.update)
	r.Patch("/products/{id}", h.patch)
	r.Delete("/products/{id}", h.delete)
}

// ProductRow is a product decorated with its stock band.
type ProductRow struct {
	Product
	StockLevel      StockLevel `json:"stock_level"`
	StockPercentage *float64   `json:"stock_percentage,omitempty"`
}

// NewProductRow decorates p for table display.
func NewProductRow(p Product) ProductRow {
	row := ProductRow{Product: p, StockLevel: p.StockLevel()}
	if pct, ok := p.StockPercentage(); ok {
		rounded := math.Round(pct)
		row.StockPercentage = &rounded
	}
	return row
}

type listResponse struct {
	Products   []ProductRow      `json:"products"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.Snapshot(r.Context())
	if err != nil {
		h.logger.Warn("list products", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	matched := snapshot.Search(r.URL.Query().Get("search"))
	products, pg := Page(matched, page, perPage)

	rows := make([]ProductRow, 0, len(products))
	for _, p := range products {
		rows = append(rows, NewProductRow(p))
	}
	httpx.JSON(w, http.StatusOK, listResponse{Products: rows, Pagination: pg})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	product, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, NewProductRow(product))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	input, err := decodeProductForm(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	product, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.logger.Warn("create product", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, product)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	input, err := decodeProductForm(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	product, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		h.logger.Warn("update product", slog.Int64("product_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) patch(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	var patch ProductPatch
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		httpx.RespondError(w, err)
		return
	}
	product, err := h.service.Patch(r.Context(), id, patch)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid product id")
		return 0, false
	}
	return id, true
}

// productForm mirrors the product editor: numeric inputs may arrive empty.
type productForm struct {
	Name         string          `json:"name"`
	Unit         Unit            `json:"unit"`
	MinStock     json.RawMessage `json:"min_stock"`
	BuyingPrice  json.RawMessage `json:"buying_price"`
	SellingPrice json.RawMessage `json:"selling_price"`
	Stock        json.RawMessage `json:"stock"`
}

func decodeProductForm(r *http.Request) (ProductInput, error) {
	var form productForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		return ProductInput{}, err
	}
	input := ProductInput{Name: strings.TrimSpace(form.Name), Unit: form.Unit}
	if input.Unit == "" {
		input.Unit = UnitPieces
	}
	fields := map[string]string{}
	for name, pair := range map[string]struct {
		raw  json.RawMessage
		dest *decimal.Decimal
	}{
		"min_stock":     {form.MinStock, &input.MinStock},
		"buying_price":  {form.BuyingPrice, &input.BuyingPrice},
		"selling_price": {form.SellingPrice, &input.SellingPrice},
		"stock":         {form.Stock, &input.Stock},
	} {
		value, ok := formAmount(pair.raw)
		if !ok {
			fields[name] = "numeric"
			continue
		}
		*pair.dest = value
	}
	if len(fields) > 0 {
		return ProductInput{}, &shared.ValidationError{Code: shared.CodeInvalidProduct, Fields: fields}
	}
	return input, nil
}

// formAmount reads an optional numeric form value. Missing, null and empty
// values read as zero.
func formAmount(raw json.RawMessage) (decimal.Decimal, bool) {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" || text == `""` {
		return decimal.Zero, true
	}
	text = strings.Trim(text, `"`)
	value, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return decimal.Zero, false
	}
	return value, true
}
