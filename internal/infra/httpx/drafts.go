package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ridekraft/storefront/internal/order/draft"
)

// Draft session endpoints. A draft lives in memory for the duration of the
// order-building flow; the session ID returned by CreateDraft addresses it
// until submit or cancel disposes it.

func (h *Handler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	d := h.drafts.Create()
	writeJSON(w, http.StatusCreated, mapDraftToResponse(d))
}

func (h *Handler) GetDraft(w http.ResponseWriter, r *http.Request) {
	d, err := h.drafts.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapDraftToResponse(d))
}

// AddDraftItem scans the requested barcode or product ID and appends the
// resolved snapshot as a new line.
func (h *Handler) AddDraftItem(w http.ResponseWriter, r *http.Request) {
	d, err := h.drafts.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if err := h.addScannedItem(r, d, req); err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapDraftToResponse(d))
}

// UpdateDraftItem changes the quantity of an existing line. The applied
// quantity may differ from the requested one: it is clamped to the line's
// availability ceiling.
func (h *Handler) UpdateDraftItem(w http.ResponseWriter, r *http.Request) {
	d, err := h.drafts.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req ItemKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	key := draft.ItemKey{ProductID: req.ProductID, VariantID: req.VariantID}
	if _, ok := d.UpdateQuantity(key, req.Quantity); !ok {
		writeError(w, http.StatusNotFound, "ITEM_NOT_FOUND", "no such line item in draft")
		return
	}
	writeJSON(w, http.StatusOK, mapDraftToResponse(d))
}

func (h *Handler) RemoveDraftItem(w http.ResponseWriter, r *http.Request) {
	d, err := h.drafts.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req ItemKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	d.RemoveItem(draft.ItemKey{ProductID: req.ProductID, VariantID: req.VariantID})
	writeJSON(w, http.StatusOK, mapDraftToResponse(d))
}

func (h *Handler) SetDraftShipping(w http.ResponseWriter, r *http.Request) {
	d, err := h.drafts.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req draft.ShippingInfo
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	d.Shipping = req
	writeJSON(w, http.StatusOK, mapDraftToResponse(d))
}

func (h *Handler) SetDraftPayment(w http.ResponseWriter, r *http.Request) {
	d, err := h.drafts.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req draft.PaymentInfo
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	d.Payment = req
	writeJSON(w, http.StatusOK, mapDraftToResponse(d))
}

func (h *Handler) SetDraftAdjustments(w http.ResponseWriter, r *http.Request) {
	d, err := h.drafts.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req AdjustmentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	d.DiscountAmount = req.DiscountAmount
	d.ShippingCost = req.ShippingCost
	d.TaxAmount = req.TaxAmount
	d.CustomerNotes = req.CustomerNotes
	writeJSON(w, http.StatusOK, mapDraftToResponse(d))
}

func (h *Handler) AdvanceDraft(w http.ResponseWriter, r *http.Request) {
	d, err := h.drafts.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := d.Advance(); err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapDraftToResponse(d))
}

func (h *Handler) BackDraft(w http.ResponseWriter, r *http.Request) {
	d, err := h.drafts.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	d.Back()
	writeJSON(w, http.StatusOK, mapDraftToResponse(d))
}

// SubmitDraft turns the draft into a persisted order and disposes the
// session. On rejection the draft survives unchanged for correction.
func (h *Handler) SubmitDraft(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	d, err := h.drafts.Get(id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	o, err := h.orders.Submit(r.Context(), d)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.drafts.Delete(id)
	writeJSON(w, http.StatusCreated, mapOrderToResponse(o))
}

// CancelDraft disposes the session. Nothing was persisted, so there is
// nothing to compensate.
func (h *Handler) CancelDraft(w http.ResponseWriter, r *http.Request) {
	h.drafts.Delete(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

// Direct (brand-shipped) draft endpoints: the same flow without any stock
// interaction.

func (h *Handler) CreateDirectDraft(w http.ResponseWriter, r *http.Request) {
	d := h.drafts.CreateDirect()
	writeJSON(w, http.StatusCreated, mapDirectDraftToResponse(d))
}

func (h *Handler) GetDirectDraft(w http.ResponseWriter, r *http.Request) {
	d, err := h.drafts.GetDirect(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapDirectDraftToResponse(d))
}

func (h *Handler) AddDirectDraftItem(w http.ResponseWriter, r *http.Request) {
	d, err := h.drafts.GetDirect(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req DirectItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if err := d.AddItem(directItemFromRequest(req)); err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapDirectDraftToResponse(d))
}

func (h *Handler) UpdateDirectDraftItem(w http.ResponseWriter, r *http.Request) {
	d, err := h.drafts.GetDirect(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req ItemKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	key := draft.ItemKey{ProductID: req.ProductID, VariantID: req.VariantID}
	if _, ok := d.UpdateQuantity(key, req.Quantity); !ok {
		writeError(w, http.StatusNotFound, "ITEM_NOT_FOUND", "no such line item in draft")
		return
	}
	writeJSON(w, http.StatusOK, mapDirectDraftToResponse(d))
}

func (h *Handler) RemoveDirectDraftItem(w http.ResponseWriter, r *http.Request) {
	d, err := h.drafts.GetDirect(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req ItemKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	d.RemoveItem(draft.ItemKey{ProductID: req.ProductID, VariantID: req.VariantID})
	writeJSON(w, http.StatusOK, mapDirectDraftToResponse(d))
}

func (h *Handler) SetDirectDraftCustomer(w http.ResponseWriter, r *http.Request) {
	d, err := h.drafts.GetDirect(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req draft.ShippingInfo
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	d.Customer = req
	writeJSON(w, http.StatusOK, mapDirectDraftToResponse(d))
}

func (h *Handler) SetDirectDraftDetails(w http.ResponseWriter, r *http.Request) {
	d, err := h.drafts.GetDirect(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req DirectDetailsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if err := applyDirectDetails(d, req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_order_date", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, mapDirectDraftToResponse(d))
}

func (h *Handler) AdvanceDirectDraft(w http.ResponseWriter, r *http.Request) {
	d, err := h.drafts.GetDirect(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := d.Advance(); err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapDirectDraftToResponse(d))
}

func (h *Handler) BackDirectDraft(w http.ResponseWriter, r *http.Request) {
	d, err := h.drafts.GetDirect(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	d.Back()
	writeJSON(w, http.StatusOK, mapDirectDraftToResponse(d))
}

func (h *Handler) SubmitDirectDraft(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	d, err := h.drafts.GetDirect(id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	o, err := h.orders.SubmitDirect(r.Context(), d)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.drafts.Delete(id)
	writeJSON(w, http.StatusCreated, mapDirectOrderToResponse(o))
}

func directItemFromRequest(req DirectItemRequest) draft.DirectItem {
	return draft.DirectItem{
		ProductID:      req.ProductID,
		VariantID:      req.VariantID,
		ProductName:    req.ProductName,
		ProductSKU:     req.ProductSKU,
		VariantName:    req.VariantName,
		VariantOptions: req.VariantOptions,
		Quantity:       req.Quantity,
		UnitPrice:      req.UnitPrice,
	}
}
