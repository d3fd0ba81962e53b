package httpx_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridekraft/storefront/internal/catalog"
	catalogsqlite "github.com/ridekraft/storefront/internal/catalog/sqlite"
	"github.com/ridekraft/storefront/internal/infra/httpx"
	"github.com/ridekraft/storefront/internal/inventory"
	ledgersqlite "github.com/ridekraft/storefront/internal/inventory/ledger/sqlite"
	inventorysqlite "github.com/ridekraft/storefront/internal/inventory/sqlite"
	"github.com/ridekraft/storefront/internal/order"
	"github.com/ridekraft/storefront/internal/order/draft"
	ordersqlite "github.com/ridekraft/storefront/internal/order/sqlite"
	"github.com/ridekraft/storefront/internal/storage"
)

type api struct {
	srv     *httptest.Server
	catalog *catalogsqlite.Repository
}

func newAPI(t *testing.T) *api {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cat, err := catalogsqlite.New(db)
	require.NoError(t, err)
	stock, err := inventorysqlite.New(db)
	require.NoError(t, err)
	lg, err := ledgersqlite.New(db)
	require.NoError(t, err)
	repo, err := ordersqlite.New(db)
	require.NoError(t, err)

	tx := storage.NewTxManager(db)
	invSvc := inventory.NewService(stock, lg, tx, nil)
	orderSvc := order.NewService(cat, stock, lg, repo, tx, nil)

	handler := httpx.NewHandler(cat, invSvc, orderSvc, draft.NewStore(), nil)
	srv := httptest.NewServer(httpx.NewRouter(handler))
	t.Cleanup(srv.Close)

	return &api{srv: srv, catalog: cat}
}

func (a *api) seedProduct(t *testing.T, name, barcode, price string) *catalog.Product {
	t.Helper()
	p := &catalog.Product{
		Name:       name,
		SKU:        "SKU-" + name,
		Barcode:    barcode,
		Price:      decimal.RequireFromString(price),
		TrackStock: true,
		IsActive:   true,
	}
	require.NoError(t, a.catalog.CreateProduct(context.Background(), p))
	return p
}

// do sends a JSON request and decodes the JSON response into out (when out
// is non-nil), returning the status code.
func (a *api) do(t *testing.T, method, path string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, a.srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func shippingPayload() map[string]string {
	return map[string]string{
		"customer_name": "Asha Verma",
		"phone":         "9876543210",
		"address_line1": "12 MG Road",
		"city":          "Pune",
		"state":         "MH",
		"postal_code":   "411001",
	}
}

func TestDraftFlowEndToEnd(t *testing.T) {
	a := newAPI(t)
	p := a.seedProduct(t, "Mug", "890100000001", "12.50")

	// Stock up through the API.
	var qty httpx.QuantityResponse
	status := a.do(t, http.MethodPut, fmt.Sprintf("/inventory/%d", p.ID),
		map[string]any{"quantity": 10, "reason": "opening count"}, &qty)
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, qty.Entry)
	assert.Equal(t, "initial", qty.Entry.Action)
	assert.Equal(t, int64(10), qty.Quantity)

	// Open a draft session.
	var d httpx.DraftResponse
	status = a.do(t, http.MethodPost, "/drafts", nil, &d)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, d.ID)
	assert.Equal(t, "scan", d.Step)

	// Scan the item in.
	status = a.do(t, http.MethodPost, "/drafts/"+d.ID+"/items",
		map[string]any{"barcode": "890100000001", "quantity": 3}, &d)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, d.Items, 1)
	assert.Equal(t, int64(3), d.Items[0].Quantity)
	assert.Equal(t, int64(10), d.Items[0].AvailableQty)

	// A second line for the same item is rejected, never merged.
	var errResp httpx.ErrorResponse
	status = a.do(t, http.MethodPost, "/drafts/"+d.ID+"/items",
		map[string]any{"barcode": "890100000001", "quantity": 1}, &errResp)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "DUPLICATE_LINE_ITEM", errResp.Error)

	// Quantity edits clamp to the ceiling.
	status = a.do(t, http.MethodPatch, "/drafts/"+d.ID+"/items",
		map[string]any{"product_id": p.ID, "quantity": 99}, &d)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(10), d.Items[0].Quantity)

	status = a.do(t, http.MethodPatch, "/drafts/"+d.ID+"/items",
		map[string]any{"product_id": p.ID, "quantity": 3}, &d)
	require.Equal(t, http.StatusOK, status)

	// Walk the flow: shipping info, then review.
	status = a.do(t, http.MethodPost, "/drafts/"+d.ID+"/advance", nil, &d)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "shipping", d.Step)

	status = a.do(t, http.MethodPost, "/drafts/"+d.ID+"/advance", nil, &errResp)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INCOMPLETE_SHIPPING_INFO", errResp.Error)

	status = a.do(t, http.MethodPut, "/drafts/"+d.ID+"/shipping", shippingPayload(), &d)
	require.Equal(t, http.StatusOK, status)
	status = a.do(t, http.MethodPost, "/drafts/"+d.ID+"/advance", nil, &d)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "review", d.Step)

	// Totals are decimal-exact on the wire.
	assert.Equal(t, "37.5", d.Subtotal.String())

	// Submit: the draft becomes an order and the session is gone.
	var o httpx.OrderResponse
	status = a.do(t, http.MethodPost, "/drafts/"+d.ID+"/submit", nil, &o)
	require.Equal(t, http.StatusCreated, status)
	assert.True(t, strings.HasPrefix(o.OrderNumber, "ORD-"))
	assert.Equal(t, "pending", o.Status)
	require.Len(t, o.Items, 1)

	status = a.do(t, http.MethodGet, "/drafts/"+d.ID, nil, &errResp)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "DRAFT_NOT_FOUND", errResp.Error)

	// Stock was deducted and the movement is in the logs.
	status = a.do(t, http.MethodGet, fmt.Sprintf("/inventory/%d", p.ID), nil, &qty)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(7), qty.Quantity)

	var logs []httpx.LedgerEntryResponse
	status = a.do(t, http.MethodGet, fmt.Sprintf("/inventory/%d/logs", p.ID), nil, &logs)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, logs, 2)
	assert.Equal(t, "order_out", logs[0].Action)
	assert.Equal(t, o.OrderNumber, logs[0].Reference)
}

func TestOneShotOrderEndpoint(t *testing.T) {
	a := newAPI(t)
	p := a.seedProduct(t, "Cap", "890100000002", "8.00")
	status := a.do(t, http.MethodPut, fmt.Sprintf("/inventory/%d", p.ID),
		map[string]any{"quantity": 5}, nil)
	require.Equal(t, http.StatusOK, status)

	var o httpx.OrderResponse
	status = a.do(t, http.MethodPost, "/orders", map[string]any{
		"items":    []map[string]any{{"barcode": "890100000002", "quantity": 2}},
		"shipping": shippingPayload(),
	}, &o)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "16", o.Total.String())

	// Asking for more than the stock fails with a stable code.
	var errResp httpx.ErrorResponse
	status = a.do(t, http.MethodPost, "/orders", map[string]any{
		"items":    []map[string]any{{"barcode": "890100000002", "quantity": 50}},
		"shipping": shippingPayload(),
	}, &errResp)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "STOCK_LIMIT_REACHED", errResp.Error)
}

func TestScanEndpoint(t *testing.T) {
	a := newAPI(t)
	a.seedProduct(t, "Mug", "890100000001", "12.50")

	var res map[string]any
	status := a.do(t, http.MethodPost, "/orders/scan",
		map[string]any{"barcode": "890100000001"}, &res)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Mug", res["product_name"])

	var errResp httpx.ErrorResponse
	status = a.do(t, http.MethodPost, "/orders/scan",
		map[string]any{"barcode": "no-such"}, &errResp)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "PRODUCT_NOT_FOUND", errResp.Error)
}

func TestSearchEndpoint(t *testing.T) {
	a := newAPI(t)
	a.seedProduct(t, "Blue Mug", "890100000001", "12.50")
	a.seedProduct(t, "Red Cap", "890100000002", "8.00")

	var products []httpx.ProductResponse
	status := a.do(t, http.MethodGet, "/products/search?q=mug", nil, &products)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, products, 1)
	assert.Equal(t, "Blue Mug", products[0].Name)

	var errResp httpx.ErrorResponse
	status = a.do(t, http.MethodGet, "/products/search", nil, &errResp)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestDirectOrderEndpoint(t *testing.T) {
	a := newAPI(t)
	p := a.seedProduct(t, "Sofa", "890100000006", "450.00")
	status := a.do(t, http.MethodPut, fmt.Sprintf("/inventory/%d", p.ID),
		map[string]any{"quantity": 10}, nil)
	require.Equal(t, http.StatusOK, status)

	var o httpx.DirectOrderResponse
	status = a.do(t, http.MethodPost, "/orders/direct", map[string]any{
		"items":      []map[string]any{{"product_name": "Sofa", "quantity": 2}},
		"customer":   shippingPayload(),
		"brand_name": "Acme Furniture",
		"carrier":    "BlueDart",
	}, &o)
	require.Equal(t, http.StatusCreated, status)
	assert.True(t, strings.HasPrefix(o.OrderNumber, "DO-"))
	assert.Equal(t, "Acme Furniture", o.BrandName)

	// Inventory is untouched by the direct order.
	var qty httpx.QuantityResponse
	status = a.do(t, http.MethodGet, fmt.Sprintf("/inventory/%d", p.ID), nil, &qty)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(10), qty.Quantity)

	// Direct orders have no packed status.
	var errResp httpx.ErrorResponse
	status = a.do(t, http.MethodPost,
		fmt.Sprintf("/orders/direct/%d/update-status?status=packed", o.ID), nil, &errResp)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_STATUS", errResp.Error)

	status = a.do(t, http.MethodPost,
		fmt.Sprintf("/orders/direct/%d/update-status?status=shipped", o.ID), nil, &o)
	require.Equal(t, http.StatusOK, status)
	assert.NotNil(t, o.ShippedAt)
}

func TestVariantInventoryEndpoints(t *testing.T) {
	a := newAPI(t)
	p := a.seedProduct(t, "Shirt", "890100000002", "19.99")
	v := &catalog.Variant{ProductID: p.ID, Name: "L", Barcode: "890100000004", IsDefault: true}
	require.NoError(t, a.catalog.CreateVariant(context.Background(), v))

	var qty httpx.QuantityResponse
	status := a.do(t, http.MethodPut, fmt.Sprintf("/inventory/variant/%d", v.ID),
		map[string]any{"quantity": 4, "reason": "opening count"}, &qty)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, fmt.Sprintf("variant:%d", v.ID), qty.Entity)

	status = a.do(t, http.MethodPut, fmt.Sprintf("/inventory/variant/%d", v.ID),
		map[string]any{"quantity": -2, "mode": "adjust", "reason": "damaged"}, &qty)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(2), qty.Quantity)

	// Draining below zero is refused.
	var errResp httpx.ErrorResponse
	status = a.do(t, http.MethodPut, fmt.Sprintf("/inventory/variant/%d", v.ID),
		map[string]any{"quantity": -5, "mode": "adjust"}, &errResp)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INSUFFICIENT_STOCK", errResp.Error)

	var logs []httpx.LedgerEntryResponse
	status = a.do(t, http.MethodGet, fmt.Sprintf("/inventory/variant/%d/logs", v.ID), nil, &logs)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, logs, 2, "the rejected adjustment left no entry")
}

func TestStatsEndpoints(t *testing.T) {
	a := newAPI(t)
	p := a.seedProduct(t, "Mug", "890100000001", "10.00")
	status := a.do(t, http.MethodPut, fmt.Sprintf("/inventory/%d", p.ID),
		map[string]any{"quantity": 3}, nil)
	require.Equal(t, http.StatusOK, status)

	var inv map[string]int64
	status = a.do(t, http.MethodGet, "/inventory/stats", nil, &inv)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(1), inv["total_products"])
	assert.Equal(t, int64(1), inv["in_stock"])
	assert.Equal(t, int64(1), inv["low_stock"])

	var o httpx.OrderResponse
	status = a.do(t, http.MethodPost, "/orders", map[string]any{
		"items":    []map[string]any{{"product_id": p.ID, "quantity": 1}},
		"shipping": shippingPayload(),
	}, &o)
	require.Equal(t, http.StatusCreated, status)

	var st map[string]json.RawMessage
	status = a.do(t, http.MethodGet, "/orders/stats", nil, &st)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "1", string(st["total_orders"]))

	status = a.do(t, http.MethodGet, "/orders/direct/stats", nil, &st)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "0", string(st["total_orders"]))
}

func TestOutOfStockCode(t *testing.T) {
	a := newAPI(t)
	p := a.seedProduct(t, "Mug", "890100000001", "10.00")

	var d httpx.DraftResponse
	status := a.do(t, http.MethodPost, "/drafts", nil, &d)
	require.Equal(t, http.StatusCreated, status)

	// Never stocked: the availability check reports OUT_OF_STOCK.
	var errResp httpx.ErrorResponse
	status = a.do(t, http.MethodPost, "/drafts/"+d.ID+"/items",
		map[string]any{"product_id": p.ID, "quantity": 1}, &errResp)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "OUT_OF_STOCK", errResp.Error)
}

func TestInvalidIDsAndUnknownOrders(t *testing.T) {
	a := newAPI(t)

	var errResp httpx.ErrorResponse
	status := a.do(t, http.MethodGet, "/orders/abc", nil, &errResp)
	assert.Equal(t, http.StatusBadRequest, status)

	status = a.do(t, http.MethodGet, "/orders/999", nil, &errResp)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "ORDER_NOT_FOUND", errResp.Error)
}
