package invoicing

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/stockdesk/stockdesk/internal/catalog"
	"github.com/stockdesk/stockdesk/internal/platform/httpx"
)

// Handler serves invoice draft and listing endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers invoicing routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/invoices", h.listAll)
	r.Get("/invoices/{kind}", h.list)

	r.Post("/invoices/drafts", h.open)
	r.Route("/invoices/drafts/{id}", func(r chi.Router) {
		r.Get("/", h.show)
		r.Patch("/", h.updateHeader)
		r.Delete("/", h.discard)
		r.Post("/items", h.addItem)
		r.Patch("/items/{index}", h.setItemField)
		r.Delete("/items/{index}", h.removeItem)
		r.Post("/submit", h.submit)
	})
}

type lineView struct {
	Index        int             `json:"index"`
	Product      int64           `json:"product,omitempty"`
	ProductName  string          `json:"product_name,omitempty"`
	Quantity     decimal.Decimal `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	LineTotal    decimal.Decimal `json:"line_total"`
}

type optionView struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
}

type productOption struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name"`
	Stock decimal.Decimal `json:"stock"`
}

// DraftView is the draft as rendered for the invoice form.
type DraftView struct {
	ID                   string          `json:"id"`
	Kind                 Kind            `json:"kind"`
	Date                 string          `json:"date"`
	DateEditable         bool            `json:"date_editable"`
	SellingPriceEditable bool            `json:"selling_price_editable"`
	AccountID            int64           `json:"account_id,omitempty"`
	Discount             decimal.Decimal `json:"discount"`
	Items                []lineView      `json:"items"`
	CanRemoveItems       bool            `json:"can_remove_items"`
	Subtotal             decimal.Decimal `json:"subtotal"`
	Total                decimal.Decimal `json:"total"`
	Accounts             []optionView    `json:"accounts"`
	Products             []productOption `json:"products"`
}

// NewDraftView renders sess for the form.
func NewDraftView(sess *Session) DraftView {
	snapshot := catalog.NewSnapshot(sess.Products)
	composer := ResumeComposer(sess.Kind, snapshot, sess.Draft)
	draft := composer.Draft()

	view := DraftView{
		ID:                   sess.ID,
		Kind:                 sess.Kind,
		Date:                 draft.Date,
		DateEditable:         sess.Kind == KindPurchase,
		SellingPriceEditable: sess.Kind == KindPurchase,
		AccountID:            draft.AccountID,
		Discount:             draft.Discount,
		Items:                make([]lineView, 0, len(draft.Items)),
		CanRemoveItems:       len(draft.Items) > 1,
		Subtotal:             composer.Subtotal(),
		Total:                composer.Total(),
		Accounts:             make([]optionView, 0, len(sess.Accounts)),
	}
	for i, item := range draft.Items {
		line := lineView{
			Index:        i,
			Product:      item.ProductID,
			Quantity:     item.Quantity,
			Price:        item.Price,
			SellingPrice: item.SellingPrice,
		}
		line.LineTotal, _ = composer.LineTotal(i)
		if p, ok := snapshot.Lookup(item.ProductID); ok {
			line.ProductName = p.Name
		}
		view.Items = append(view.Items, line)
	}
	for _, acc := range sess.Accounts {
		view.Accounts = append(view.Accounts, optionView{ID: acc.ID, Label: acc.Label(sess.Kind)})
	}
	offered := snapshot.Products()
	if sess.Kind == KindSale {
		offered = snapshot.Sellable()
	}
	view.Products = make([]productOption, 0, len(offered))
	for _, p := range offered {
		view.Products = append(view.Products, productOption{ID: p.ID, Name: p.Name, Stock: p.Stock})
	}
	return view
}

type openRequest struct {
	Kind string `json:"kind"`
}

type fieldRequest struct {
	Field Field  `json:"field"`
	Value string `json:"value"`
}

type rejectionResponse struct {
	Draft     DraftView       `json:"draft"`
	Rejection *StockViolation `json:"rejection,omitempty"`
	Detail    string          `json:"detail"`
}

func (h *Handler) open(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	kind, err := ParseKind(req.Kind)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	sess, err := h.service.Open(r.Context(), kind)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, NewDraftView(sess))
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	sess, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, NewDraftView(sess))
}

func (h *Handler) discard(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Discard(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) updateHeader(w http.ResponseWriter, r *http.Request) {
	var update HeaderUpdate
	if err := httpx.DecodeJSON(r, &update); err != nil {
		httpx.RespondError(w, err)
		return
	}
	sess, err := h.service.UpdateHeader(r.Context(), chi.URLParam(r, "id"), update)
	h.respondEdit(w, sess, err)
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	sess, err := h.service.AddItem(r.Context(), chi.URLParam(r, "id"))
	h.respondEdit(w, sess, err)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	index, ok := lineIndex(w, r)
	if !ok {
		return
	}
	sess, err := h.service.RemoveItem(r.Context(), chi.URLParam(r, "id"), index)
	h.respondEdit(w, sess, err)
}

func (h *Handler) setItemField(w http.ResponseWriter, r *http.Request) {
	index, ok := lineIndex(w, r)
	if !ok {
		return
	}
	var req fieldRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	sess, err := h.service.SetItemField(r.Context(), chi.URLParam(r, "id"), index, req.Field, req.Value)
	h.respondEdit(w, sess, err)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	invoice, err := h.service.Submit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, invoice)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	kind, err := ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
		return
	}
	invoices, err := h.service.List(r.Context(), kind)
	if err != nil {
		h.logger.Warn("list invoices", slog.String("kind", string(kind)), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, invoices)
}

func (h *Handler) listAll(w http.ResponseWriter, r *http.Request) {
	sales, purchases, err := h.service.ListAll(r.Context())
	if err != nil {
		h.logger.Warn("list invoices", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"sales":     sales,
		"purchases": purchases,
	})
}

// respondEdit renders the draft after an edit. Refused edits answer 409 with
// the draft as it now stands so the form can redraw the reverted fields.
func (h *Handler) respondEdit(w http.ResponseWriter, sess *Session, err error) {
	if err == nil {
		httpx.JSON(w, http.StatusOK, NewDraftView(sess))
		return
	}
	if sess == nil {
		httpx.RespondError(w, err)
		return
	}
	var violation *StockViolation
	switch {
	case errors.As(err, &violation):
		httpx.JSON(w, http.StatusConflict, rejectionResponse{Draft: NewDraftView(sess), Rejection: violation, Detail: violation.Error()})
	case errors.Is(err, ErrReadOnlyField):
		httpx.JSON(w, http.StatusConflict, rejectionResponse{Draft: NewDraftView(sess), Detail: err.Error()})
	default:
		httpx.RespondError(w, err)
	}
}

func lineIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid line index")
		return 0, false
	}
	return index, true
}
