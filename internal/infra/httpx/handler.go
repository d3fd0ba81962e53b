// Package httpx is the HTTP surface of the storefront admin API: product
// search, barcode scanning, the draft order flow, order management and
// inventory writes.
package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ridekraft/storefront/internal/catalog"
	"github.com/ridekraft/storefront/internal/inventory"
	"github.com/ridekraft/storefront/internal/inventory/ledger"
	"github.com/ridekraft/storefront/internal/order"
	"github.com/ridekraft/storefront/internal/order/draft"
	"github.com/ridekraft/storefront/internal/pkg/cache"
)

// statsTTL bounds how stale a cached dashboard view can get; every mutation
// invalidates eagerly anyway.
const statsTTL = 5 * time.Minute

// Handler handles incoming HTTP requests for the order-builder domain.
type Handler struct {
	catalog   catalog.Repository
	inventory *inventory.Service
	orders    *order.Service
	drafts    *draft.Store
	cache     cache.Cache // nil-safe: stats are recomputed each time if nil
}

// NewHandler initializes the handler with its domain services.
// c may be nil — in that case dashboard stats are not cached.
func NewHandler(cat catalog.Repository, inv *inventory.Service, orders *order.Service, drafts *draft.Store, c cache.Cache) *Handler {
	return &Handler{
		catalog:   cat,
		inventory: inv,
		orders:    orders,
		drafts:    drafts,
		cache:     c,
	}
}

// SearchProducts matches the query against name, SKU and barcode.
func (h *Handler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "query_required", "q is required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 20
	}
	includeHidden := r.URL.Query().Get("include_hidden") == "true"

	products, err := h.catalog.Search(r.Context(), q, limit, includeHidden)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	out := make([]ProductResponse, len(products))
	for i := range products {
		out[i] = mapProductToResponse(&products[i])
	}
	writeJSON(w, http.StatusOK, out)
}

// ScanItem resolves a barcode or product ID to an addable item snapshot.
func (h *Handler) ScanItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	res, err := h.orders.Scan(r.Context(), order.ScanQuery{Barcode: req.Barcode, ProductID: req.ProductID})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// CreateOrder is the one-shot order endpoint: it runs the whole payload
// through a throwaway draft so the availability and validation rules are
// identical to the session flow.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "items are required")
		return
	}

	d := h.drafts.Create()
	defer h.drafts.Delete(d.ID)

	for _, it := range req.Items {
		if err := h.addScannedItem(r, d, it); err != nil {
			h.respondError(w, r, err)
			return
		}
	}
	d.Shipping = req.Shipping
	d.Payment = req.Payment
	d.DiscountAmount = req.DiscountAmount
	d.ShippingCost = req.ShippingCost
	d.TaxAmount = req.TaxAmount
	d.CustomerNotes = req.CustomerNotes

	o, err := h.orders.Submit(r.Context(), d)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapOrderToResponse(o))
}

// addScannedItem resolves one requested line through Scan, applies the
// availability decision and appends it to the draft.
func (h *Handler) addScannedItem(r *http.Request, d *draft.Draft, req AddItemRequest) error {
	res, err := h.orders.Scan(r.Context(), order.ScanQuery{Barcode: req.Barcode, ProductID: req.ProductID})
	if err != nil {
		return err
	}

	qty := req.Quantity
	if qty == 0 {
		qty = 1
	}

	key := draft.ItemKey{ProductID: res.ProductID, VariantID: res.VariantID}
	if res.Tracked {
		dec := draft.CheckAddable(res.AvailableQty, d.QuantityOf(key), qty)
		if !dec.Accepted {
			if dec.Reason == draft.ReasonOutOfStock {
				return errOutOfStock
			}
			return draft.ErrStockLimitReached
		}
	}

	return d.AddItem(draft.LineItem{
		ProductID:      res.ProductID,
		VariantID:      res.VariantID,
		ProductName:    res.ProductName,
		ProductSKU:     res.ProductSKU,
		ProductBarcode: res.ProductBarcode,
		VariantName:    res.VariantName,
		VariantOptions: res.VariantOptions,
		ProductImage:   res.ProductImage,
		UnitPrice:      res.UnitPrice,
		Quantity:       qty,
		Discount:       req.Discount,
		AvailableQty:   res.AvailableQty,
		Tracked:        res.Tracked,
	})
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	f := listFilterFromQuery(r)
	orders, err := h.orders.ListOrders(r.Context(), f)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	out := make([]OrderResponse, len(orders))
	for i := range orders {
		out[i] = mapOrderToResponse(&orders[i])
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetOrderByID(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	o, err := h.orders.Order(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrderToResponse(o))
}

func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	status := order.Status(r.URL.Query().Get("status"))
	if err := h.orders.UpdateStatus(r.Context(), id, status); err != nil {
		h.respondError(w, r, err)
		return
	}
	o, err := h.orders.Order(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrderToResponse(o))
}

func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.orders.DeleteOrder(r.Context(), id); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) OrderStats(w http.ResponseWriter, r *http.Request) {
	h.cachedStats(w, r, "orders", func() (any, error) {
		return h.orders.Stats(r.Context())
	})
}

// CreateDirectOrder records a brand-shipped order. It runs through a direct
// draft so validation matches the session flow, and never touches inventory.
func (h *Handler) CreateDirectOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateDirectOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "items are required")
		return
	}

	d := h.drafts.CreateDirect()
	defer h.drafts.Delete(d.ID)

	for _, it := range req.Items {
		if err := d.AddItem(directItemFromRequest(it)); err != nil {
			h.respondError(w, r, err)
			return
		}
	}
	d.Customer = req.Customer
	if err := applyDirectDetails(d, req.DirectDetailsRequest); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_order_date", err.Error())
		return
	}

	o, err := h.orders.SubmitDirect(r.Context(), d)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapDirectOrderToResponse(o))
}

func (h *Handler) ListDirectOrders(w http.ResponseWriter, r *http.Request) {
	f := listFilterFromQuery(r)
	orders, err := h.orders.ListDirectOrders(r.Context(), f)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	out := make([]DirectOrderResponse, len(orders))
	for i := range orders {
		out[i] = mapDirectOrderToResponse(&orders[i])
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetDirectOrderByID(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	o, err := h.orders.DirectOrder(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapDirectOrderToResponse(o))
}

func (h *Handler) UpdateDirectOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	status := order.Status(r.URL.Query().Get("status"))
	if err := h.orders.UpdateDirectStatus(r.Context(), id, status); err != nil {
		h.respondError(w, r, err)
		return
	}
	o, err := h.orders.DirectOrder(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapDirectOrderToResponse(o))
}

func (h *Handler) DeleteDirectOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.orders.DeleteDirectOrder(r.Context(), id); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DirectOrderStats(w http.ResponseWriter, r *http.Request) {
	h.cachedStats(w, r, "direct-orders", func() (any, error) {
		return h.orders.DirectStats(r.Context())
	})
}

func (h *Handler) GetProductQuantity(w http.ResponseWriter, r *http.Request) {
	h.getQuantity(w, r, "productID", ledger.ProductRef)
}

func (h *Handler) GetVariantQuantity(w http.ResponseWriter, r *http.Request) {
	h.getQuantity(w, r, "variantID", ledger.VariantRef)
}

func (h *Handler) getQuantity(w http.ResponseWriter, r *http.Request, param string, mkRef func(int64) ledger.EntityRef) {
	id, ok := h.pathID(w, r, param)
	if !ok {
		return
	}
	ref := mkRef(id)
	qty, err := h.inventory.CurrentQuantity(r.Context(), ref)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, QuantityResponse{Entity: ref.String(), Quantity: qty})
}

func (h *Handler) SetProductQuantity(w http.ResponseWriter, r *http.Request) {
	h.writeQuantity(w, r, "productID", ledger.ProductRef)
}

func (h *Handler) SetVariantQuantity(w http.ResponseWriter, r *http.Request) {
	h.writeQuantity(w, r, "variantID", ledger.VariantRef)
}

func (h *Handler) writeQuantity(w http.ResponseWriter, r *http.Request, param string, mkRef func(int64) ledger.EntityRef) {
	id, ok := h.pathID(w, r, param)
	if !ok {
		return
	}
	var req SetQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	ref := mkRef(id)
	var entry *ledger.Entry
	var err error
	switch req.Mode {
	case "", "set":
		entry, err = h.inventory.SetQuantity(r.Context(), ref, req.Quantity, req.Reason)
	case "adjust":
		entry, err = h.inventory.AdjustQuantity(r.Context(), ref, req.Quantity, req.Reason)
	default:
		writeError(w, http.StatusBadRequest, "invalid_mode", "mode must be set or adjust")
		return
	}
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	qty, err := h.inventory.CurrentQuantity(r.Context(), ref)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, QuantityResponse{
		Entity:   ref.String(),
		Quantity: qty,
		Entry:    mapEntryToResponse(entry),
	})
}

func (h *Handler) GetProductLogs(w http.ResponseWriter, r *http.Request) {
	h.getLogs(w, r, "productID", ledger.ProductRef)
}

func (h *Handler) GetVariantLogs(w http.ResponseWriter, r *http.Request) {
	h.getLogs(w, r, "variantID", ledger.VariantRef)
}

func (h *Handler) getLogs(w http.ResponseWriter, r *http.Request, param string, mkRef func(int64) ledger.EntityRef) {
	id, ok := h.pathID(w, r, param)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.inventory.History(r.Context(), mkRef(id), limit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	out := make([]LedgerEntryResponse, len(entries))
	for i := range entries {
		out[i] = *mapEntryToResponse(&entries[i])
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) InventoryStats(w http.ResponseWriter, r *http.Request) {
	h.cachedStats(w, r, "inventory", func() (any, error) {
		return h.inventory.Stats(r.Context())
	})
}

// cachedStats serves a dashboard view through the cache: hit returns the
// stored JSON verbatim, miss computes, stores and returns it.
func (h *Handler) cachedStats(w http.ResponseWriter, r *http.Request, name string, compute func() (any, error)) {
	var key string
	if h.cache != nil {
		key = h.cache.GenerateKey("stats", name)
		if cached, err := h.cache.Get(r.Context(), key); err == nil && cached != "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(cached))
			return
		} else if err != nil {
			slog.WarnContext(r.Context(), "stats cache read failed", "key", key, "error", err)
		}
	}

	v, err := compute()
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if h.cache != nil {
		if body, err := json.Marshal(v); err == nil {
			if err := h.cache.Set(r.Context(), key, string(body), statsTTL); err != nil {
				slog.WarnContext(r.Context(), "stats cache write failed", "key", key, "error", err)
			}
		}
	}
	writeJSON(w, http.StatusOK, v)
}

// errOutOfStock distinguishes a zero-stock rejection from a ceiling overrun.
var errOutOfStock = errors.New("httpx: item out of stock")

// respondError maps domain sentinels to stable HTTP codes. Anything
// unrecognized is a 500 and gets logged with its trace context.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, "PRODUCT_NOT_FOUND", err.Error())
	case errors.Is(err, order.ErrNotFound):
		writeError(w, http.StatusNotFound, "ORDER_NOT_FOUND", err.Error())
	case errors.Is(err, draft.ErrDraftNotFound):
		writeError(w, http.StatusNotFound, "DRAFT_NOT_FOUND", err.Error())
	case errors.Is(err, errOutOfStock):
		writeError(w, http.StatusConflict, "OUT_OF_STOCK", err.Error())
	case errors.Is(err, draft.ErrStockLimitReached):
		writeError(w, http.StatusConflict, "STOCK_LIMIT_REACHED", err.Error())
	case errors.Is(err, draft.ErrDuplicateLineItem):
		writeError(w, http.StatusConflict, "DUPLICATE_LINE_ITEM", err.Error())
	case errors.Is(err, draft.ErrInvalidQuantity), errors.Is(err, inventory.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, "INVALID_QUANTITY", err.Error())
	case errors.Is(err, draft.ErrEmptyDraft):
		writeError(w, http.StatusBadRequest, "EMPTY_DRAFT", err.Error())
	case errors.Is(err, draft.ErrIncompleteShipping):
		writeError(w, http.StatusBadRequest, "INCOMPLETE_SHIPPING_INFO", err.Error())
	case errors.Is(err, draft.ErrNegativeTotal):
		writeError(w, http.StatusBadRequest, "NEGATIVE_TOTAL", err.Error())
	case errors.Is(err, draft.ErrSubmitToComplete):
		writeError(w, http.StatusBadRequest, "SUBMIT_TO_COMPLETE", err.Error())
	case errors.Is(err, order.ErrSubmissionRejected):
		writeError(w, http.StatusConflict, "SUBMISSION_REJECTED", err.Error())
	case errors.Is(err, order.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "INVALID_STATUS", err.Error())
	case errors.Is(err, order.ErrInactiveProduct):
		writeError(w, http.StatusConflict, "INACTIVE_PRODUCT", err.Error())
	case errors.Is(err, inventory.ErrInsufficientStock):
		writeError(w, http.StatusConflict, "INSUFFICIENT_STOCK", err.Error())
	case errors.Is(err, ledger.ErrInvalidEntity):
		writeError(w, http.StatusBadRequest, "INVALID_ENTITY", err.Error())
	default:
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "")
	}
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "invalid_id", param+" must be a positive integer")
		return 0, false
	}
	return id, true
}

func listFilterFromQuery(r *http.Request) order.ListFilter {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	return order.ListFilter{
		Status:   order.Status(r.URL.Query().Get("status")),
		Page:     page,
		PageSize: size,
	}
}

func applyDirectDetails(d *draft.DirectDraft, req DirectDetailsRequest) error {
	d.BrandID = req.BrandID
	d.BrandName = req.BrandName
	d.Carrier = req.Carrier
	d.TrackingNumber = req.TrackingNumber
	d.Notes = req.Notes
	if req.OrderDate != "" {
		t, err := time.Parse(time.RFC3339, req.OrderDate)
		if err != nil {
			return err
		}
		d.OrderDate = t
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: msg,
	})
}
