package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-core/internal/application/count"
	"github.com/jhoicas/stock-core/internal/application/inventory"
	"github.com/jhoicas/stock-core/internal/application/ledger"
	"github.com/jhoicas/stock-core/internal/application/receipt"
	"github.com/jhoicas/stock-core/internal/application/transfer"
	"github.com/jhoicas/stock-core/internal/domain/entity"
	"github.com/jhoicas/stock-core/internal/domain/validation"
	"github.com/jhoicas/stock-core/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/stock-core/internal/interfaces/http"
)

type fakeCountPDF struct{ storeName string }

func (f *fakeCountPDF) GenerateCountReport(_ context.Context, c *entity.InventoryCount, storeName string) ([]byte, error) {
	f.storeName = storeName
	return []byte("%PDF-" + c.Number), nil
}

type fakeScans struct {
	window int
	stores []string
}

func (f *fakeScans) ScheduleAnomalyScan(_ context.Context, windowHours int, storeIDs []string) (string, error) {
	f.window, f.stores = windowHours, storeIDs
	return "task-1", nil
}

type api struct {
	app   *fiber.App
	store *memory.Store
	pdf   *fakeCountPDF
	scans *fakeScans
}

func newAPI(t *testing.T) *api {
	t.Helper()
	store := memory.NewStore()
	catalog := memory.NewCatalog()
	catalog.AddStore(entity.Store{ID: "a", Name: "Tienda Centro"})
	catalog.AddStore(entity.Store{ID: "b", Name: "Tienda Norte"})
	catalog.AddProduct(entity.Product{ID: "p1"})
	catalog.AddProduct(entity.Product{ID: "p2"})
	catalog.AddSupplier(entity.Supplier{ID: "s1", Name: "Proveedor Uno"})

	numberer := inventory.NewNumberer(memory.NewSequenceRepository(), true)
	rules := validation.NewEngine(validation.DefaultRules(), nil)
	cats := inventory.Catalogs{Products: catalog.Products(), Stores: catalog.Stores(), Suppliers: catalog.Suppliers()}
	log := zerolog.Nop()

	pdf := &fakeCountPDF{}
	scans := &fakeScans{}
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Receipts: receipt.NewProcessor(receipt.Deps{
			Tx: store.TxRunner(), Receipts: store.Receipts(), Stock: store.StockLevels(),
			Numberer: numberer, Rules: rules, Catalogs: cats, Log: log,
		}),
		Transfers: transfer.NewOrchestrator(transfer.Deps{
			Tx: store.TxRunner(), Transfers: store.Transfers(), Stock: store.StockLevels(),
			Numberer: numberer, Rules: rules, Catalogs: cats, Log: log,
		}),
		Counts: count.NewReconciler(count.Deps{
			Tx: store.TxRunner(), Counts: store.Counts(), Stock: store.StockLevels(),
			Numberer: numberer, Rules: rules, Catalogs: cats, Log: log,
		}),
		Stock:     inventory.NewStockService(store.StockLevels(), catalog.Stores()),
		Ledger:    ledger.NewService(store.Movements(), ledger.DefaultAnomalyConfig()),
		CountPDF:  pdf,
		Stores:    catalog.Stores(),
		Scans:     scans,
		JWTSecret: authSecret,
		Log:       log,
	})
	return &api{app: app, store: store, pdf: pdf, scans: scans}
}

func (a *api) seed(t *testing.T, storeID, productID, qty, cost string) {
	t.Helper()
	require.NoError(t, a.store.StockLevels().Upsert(context.Background(), &entity.StockLevel{
		StoreID: storeID, ProductID: productID,
		Quantity: decimal.RequireFromString(qty), AverageCost: decimal.RequireFromString(cost),
	}))
}

func (a *api) do(t *testing.T, method, path, role string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", bearer(t, role))
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeMap(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func decimalField(t *testing.T, m map[string]any, key string) decimal.Decimal {
	t.Helper()
	s, ok := m[key].(string)
	require.True(t, ok, "campo %s ausente o no es string: %v", key, m[key])
	return decimal.RequireFromString(s)
}

func receiptBody(lines ...map[string]any) map[string]any {
	return map[string]any{"supplier_id": "s1", "store_id": "a", "lines": lines}
}

func line(productID, qty, cost string) map[string]any {
	return map[string]any{"product_id": productID, "quantity_received": qty, "unit_cost": cost}
}

func TestReceiptAPI_CreateValidateUpdatesStock(t *testing.T) {
	a := newAPI(t)

	resp := a.do(t, http.MethodPost, "/api/receipts", apphttp.RoleVendedor, receiptBody(line("p1", "10", "100")))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeMap(t, resp)
	assert.Equal(t, "draft", created["status"])
	assert.True(t, strings.HasPrefix(created["number"].(string), "BR-"))
	id := created["id"].(string)

	resp = a.do(t, http.MethodPost, "/api/receipts/"+id+"/validate", apphttp.RoleVendedor, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = a.do(t, http.MethodPost, "/api/receipts/"+id+"/validate", apphttp.RoleBodeguero, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "validated", decodeMap(t, resp)["status"])

	resp = a.do(t, http.MethodGet, "/api/stock/a/p1", apphttp.RoleVendedor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	level := decodeMap(t, resp)
	assert.True(t, decimalField(t, level, "quantity").Equal(decimal.NewFromInt(10)))
	assert.True(t, decimalField(t, level, "average_cost").Equal(decimal.NewFromInt(100)))

	resp = a.do(t, http.MethodPost, "/api/receipts/"+id+"/validate", apphttp.RoleBodeguero, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INVALID_STATE", decodeMap(t, resp)["code"])

	resp = a.do(t, http.MethodGet, "/api/movements?type=arrival&store_id=a", apphttp.RoleVendedor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var movements []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&movements))
	resp.Body.Close()
	require.Len(t, movements, 1)
	assert.Equal(t, id, movements[0]["reference_id"])
}

func TestReceiptAPI_ValidateWithoutLinesIsUnprocessable(t *testing.T) {
	a := newAPI(t)
	resp := a.do(t, http.MethodPost, "/api/receipts", apphttp.RoleBodeguero, receiptBody())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := decodeMap(t, resp)["id"].(string)

	resp = a.do(t, http.MethodPost, "/api/receipts/"+id+"/validate", apphttp.RoleBodeguero, nil)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	body := decodeMap(t, resp)
	assert.Equal(t, "VALIDATION", body["code"])
	issues := body["issues"].([]any)
	require.NotEmpty(t, issues)
	assert.Equal(t, "lines", issues[0].(map[string]any)["field"])
}

func TestReceiptAPI_LineEditing(t *testing.T) {
	a := newAPI(t)
	resp := a.do(t, http.MethodPost, "/api/receipts", apphttp.RoleBodeguero, receiptBody(line("p1", "2", "10")))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := decodeMap(t, resp)["id"].(string)

	resp = a.do(t, http.MethodPost, "/api/receipts/"+id+"/lines", apphttp.RoleBodeguero, line("p2", "1", "5"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeMap(t, resp)["lines"], 2)

	resp = a.do(t, http.MethodPut, "/api/receipts/"+id+"/lines/0", apphttp.RoleBodeguero, map[string]any{"quantity_received": "5"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodeMap(t, resp)
	first := updated["lines"].([]any)[0].(map[string]any)
	assert.True(t, decimalField(t, first, "subtotal").Equal(decimal.NewFromInt(50)))

	resp = a.do(t, http.MethodDelete, "/api/receipts/"+id+"/lines/1", apphttp.RoleBodeguero, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeMap(t, resp)["lines"], 1)

	resp = a.do(t, http.MethodDelete, "/api/receipts/"+id+"/lines/x", apphttp.RoleBodeguero, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestReceiptAPI_RequestValidation(t *testing.T) {
	a := newAPI(t)
	resp := a.do(t, http.MethodPost, "/api/receipts/whatever/lines", apphttp.RoleBodeguero, map[string]any{"quantity_received": "1"})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	body := decodeMap(t, resp)
	assert.Equal(t, "ProductID", body["issues"].([]any)[0].(map[string]any)["field"])
}

func TestTransferAPI_InsufficientStockIsConflict(t *testing.T) {
	a := newAPI(t)
	a.seed(t, "a", "p1", "2", "100")

	resp := a.do(t, http.MethodPost, "/api/transfers", apphttp.RoleBodeguero, map[string]any{
		"source_store_id": "a", "destination_store_id": "b",
		"lines": []map[string]any{{"product_id": "p1", "quantity": "5"}},
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	body := decodeMap(t, resp)
	assert.Equal(t, "INSUFFICIENT_STOCK", body["code"])
	issue := body["issues"].([]any)[0].(map[string]any)
	assert.Equal(t, "INSUFFICIENT_STOCK", issue["code"])
}

func TestTransferAPI_CreateReceiveWithVariance(t *testing.T) {
	a := newAPI(t)
	a.seed(t, "a", "p1", "10", "100")

	resp := a.do(t, http.MethodPost, "/api/transfers", apphttp.RoleBodeguero, map[string]any{
		"source_store_id": "a", "destination_store_id": "b",
		"lines": []map[string]any{{"product_id": "p1", "quantity": "4"}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeMap(t, resp)
	assert.Equal(t, "in_transit", created["status"])
	assert.True(t, strings.HasPrefix(created["number"].(string), "TR-"))
	id := created["id"].(string)

	resp = a.do(t, http.MethodGet, "/api/stock/a/p1", apphttp.RoleVendedor, nil)
	assert.True(t, decimalField(t, decodeMap(t, resp), "quantity").Equal(decimal.NewFromInt(6)))

	resp = a.do(t, http.MethodPost, "/api/transfers/"+id+"/receive", apphttp.RoleBodeguero, map[string]any{
		"lines": []map[string]any{{"product_id": "p1", "quantity_received": "3"}},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "completed_with_variance", decodeMap(t, resp)["status"])

	resp = a.do(t, http.MethodGet, "/api/transfers/variance-report", apphttp.RoleVendedor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	report := decodeMap(t, resp)
	assert.Len(t, report["lines"], 1)
	assert.True(t, decimalField(t, report, "total_variance").Equal(decimal.NewFromInt(-1)))

	resp = a.do(t, http.MethodPost, "/api/transfers/"+id+"/cancel", apphttp.RoleBodeguero, map[string]any{"reason": "error"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestTransferAPI_CancelRequiresReason(t *testing.T) {
	a := newAPI(t)
	resp := a.do(t, http.MethodPost, "/api/transfers/any/cancel", apphttp.RoleBodeguero, map[string]any{})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp.Body.Close()
}

func TestCountAPI_FullCycle(t *testing.T) {
	a := newAPI(t)
	a.seed(t, "a", "p1", "10", "100")

	resp := a.do(t, http.MethodPost, "/api/inventory-counts", apphttp.RoleBodeguero, map[string]any{"store_id": "a"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeMap(t, resp)
	assert.Equal(t, "in_progress", created["status"])
	assert.Len(t, created["lines"], 1)
	id := created["id"].(string)

	resp = a.do(t, http.MethodPost, "/api/inventory-counts/"+id+"/counts", apphttp.RoleVendedor, map[string]any{
		"entries": []map[string]any{{"product_id": "p1", "physical_quantity": "8"}},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	recorded := decodeMap(t, resp)
	assert.True(t, decimalField(t, recorded, "total_variance_value").Equal(decimal.NewFromInt(-200)))

	resp = a.do(t, http.MethodPost, "/api/inventory-counts/"+id+"/submit", apphttp.RoleVendedor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "pending_validation", decodeMap(t, resp)["status"])

	resp = a.do(t, http.MethodPost, "/api/inventory-counts/"+id+"/validate", apphttp.RoleBodeguero, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = a.do(t, http.MethodPost, "/api/inventory-counts/"+id+"/validate", apphttp.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "validated", decodeMap(t, resp)["status"])

	resp = a.do(t, http.MethodGet, "/api/stock/a/p1", apphttp.RoleVendedor, nil)
	assert.True(t, decimalField(t, decodeMap(t, resp), "quantity").Equal(decimal.NewFromInt(8)))

	resp = a.do(t, http.MethodGet, "/api/inventory-counts/"+id+"/variance", apphttp.RoleVendedor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, decodeMap(t, resp)["lines_with_variance"])

	resp = a.do(t, http.MethodGet, "/api/inventory-counts/"+id+"/pdf", apphttp.RoleVendedor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF-INV-")))
	assert.Equal(t, "Tienda Centro", a.pdf.storeName)
}

func TestCountAPI_UnknownStoreIsNotFound(t *testing.T) {
	a := newAPI(t)
	resp := a.do(t, http.MethodPost, "/api/inventory-counts", apphttp.RoleAdmin, map[string]any{"store_id": "zz"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", decodeMap(t, resp)["code"])
}

func TestMovementsAPI_ExportAndFilters(t *testing.T) {
	a := newAPI(t)
	resp := a.do(t, http.MethodPost, "/api/receipts", apphttp.RoleBodeguero, receiptBody(line("p1", "3", "7")))
	id := decodeMap(t, resp)["id"].(string)
	resp = a.do(t, http.MethodPost, "/api/receipts/"+id+"/validate", apphttp.RoleBodeguero, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = a.do(t, http.MethodGet, "/api/movements/export?format=csv", apphttp.RoleVendedor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")
	assert.Equal(t, "1", resp.Header.Get("X-Total-Count"))
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	rows := strings.Split(strings.TrimSpace(string(raw)), "\n")
	assert.Len(t, rows, 2)

	resp = a.do(t, http.MethodGet, "/api/movements/export?format=xml", apphttp.RoleVendedor, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = a.do(t, http.MethodGet, "/api/movements?type=robo", apphttp.RoleVendedor, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp.Body.Close()

	resp = a.do(t, http.MethodGet, "/api/movements?from=ayer", apphttp.RoleVendedor, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = a.do(t, http.MethodGet, "/api/movements/report", apphttp.RoleVendedor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, decodeMap(t, resp)["total"])
}

func TestAPI_RequiresToken(t *testing.T) {
	a := newAPI(t)
	resp := a.do(t, http.MethodGet, "/api/transfers", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestAPI_UnknownDocumentIsNotFound(t *testing.T) {
	a := newAPI(t)
	for _, path := range []string{"/api/transfers/nope", "/api/receipts/nope", "/api/inventory-counts/nope"} {
		resp := a.do(t, http.MethodGet, path, apphttp.RoleVendedor, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
		resp.Body.Close()
	}
}

func TestMovementsAPI_ScheduleScan(t *testing.T) {
	a := newAPI(t)
	resp := a.do(t, http.MethodPost, "/api/movements/anomalies/scan?window_hours=48&store_id=a,b", apphttp.RoleBodeguero, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = a.do(t, http.MethodPost, "/api/movements/anomalies/scan?window_hours=48&store_id=a,b", apphttp.RoleAdmin, nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "task-1", decodeMap(t, resp)["task_id"])
	assert.Equal(t, 48, a.scans.window)
	assert.Equal(t, []string{"a", "b"}, a.scans.stores)
}
