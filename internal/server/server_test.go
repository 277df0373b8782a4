package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	collectordomain "github.com/smallbiznis/pamdes/internal/collector/domain"
	"github.com/smallbiznis/pamdes/internal/config"
	"github.com/smallbiznis/pamdes/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *errorPayload   `json:"error"`
}

func newTestServer(t *testing.T) (*testutil.Env, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	e := testutil.NewEnv(t)
	engine := NewEngine(config.Config{Environment: "test"})
	NewServer(ServerParams{
		Gin:          engine,
		Cfg:          config.Config{Environment: "test"},
		Log:          zap.NewNop(),
		VillageSvc:   e.Villages,
		CustomerSvc:  e.Customers,
		CollectorSvc: e.Collectors,
		PeriodSvc:    e.Periods,
		UsageSvc:     e.Usages,
		TariffSvc:    e.Tariffs,
		BillSvc:      e.Bills,
		BundleSvc:    e.Bundles,
		PaymentSvc:   e.Payments,
		LedgerSvc:    e.Ledger,
		ReportSvc:    e.Reports,
	})
	return e, engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body any, headers ...string) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec.Code, env
}

func decodeData(t *testing.T, env envelope) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func TestHealth(t *testing.T) {
	_, engine := newTestServer(t)
	code, _ := doJSON(t, engine, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestBillingFlowOverHTTP(t *testing.T) {
	e, engine := newTestServer(t)

	code, env := doJSON(t, engine, http.MethodPost, "/api/villages", map[string]any{
		"name":                    "Sumber Rejo",
		"code_prefix":             "PAM",
		"default_admin_fee":       5000,
		"default_maintenance_fee": 2000,
		"overdue_threshold_days":  10,
	})
	require.Equal(t, http.StatusCreated, code, env.Error)
	villageID := decodeData(t, env)["id"].(string)
	base := "/api/villages/" + villageID

	for _, bracket := range []map[string]any{
		{"usage_min": 0, "price_per_unit": 2500},
		{"usage_min": 11, "price_per_unit": 3000},
		{"usage_min": 21, "price_per_unit": 3500},
	} {
		code, env = doJSON(t, engine, http.MethodPost, base+"/tariffs", bracket)
		require.Equal(t, http.StatusCreated, code, env.Error)
	}

	code, env = doJSON(t, engine, http.MethodPost, base+"/tariffs/calculate", map[string]any{"usage": 25})
	require.Equal(t, http.StatusOK, code, env.Error)
	assert.Equal(t, "71500", decodeData(t, env)["total_charge"])

	code, env = doJSON(t, engine, http.MethodPost, base+"/customers", map[string]any{"name": "Andi"})
	require.Equal(t, http.StatusCreated, code, env.Error)
	customer := decodeData(t, env)
	assert.Equal(t, "PAM0001", customer["code"])

	village, err := e.Villages.List(context.Background())
	require.NoError(t, err)
	require.Len(t, village, 1)
	period := e.Period(t, village[0].ID, 2025, 3)

	code, env = doJSON(t, engine, http.MethodPost, "/api/readings", map[string]any{
		"customer_id":   customer["id"],
		"period_id":     period.ID.String(),
		"initial_meter": 100,
		"final_meter":   125,
		"usage_date":    testutil.Now,
	})
	require.Equal(t, http.StatusCreated, code, env.Error)
	reading := decodeData(t, env)

	code, env = doJSON(t, engine, http.MethodPost, "/api/bills", map[string]any{"usage_id": reading["id"]})
	require.Equal(t, http.StatusCreated, code, env.Error)
	bill := decodeData(t, env)
	assert.Equal(t, "78500", bill["total_amount"])
	assert.Equal(t, "unpaid", bill["status"])

	code, env = doJSON(t, engine, http.MethodPost, "/api/bills", map[string]any{"usage_id": reading["id"]})
	assert.Equal(t, http.StatusConflict, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "conflict", env.Error.Type)
	assert.Equal(t, "duplicate_bill", env.Error.Message)

	collector, err := e.Collectors.Create(context.Background(), collectordomain.CreateRequest{
		VillageID: village[0].ID,
		Name:      "Pak Budi",
		Role:      collectordomain.RoleCollector,
	})
	require.NoError(t, err)

	billPath := "/api/bills/" + bill["id"].(string)
	code, env = doJSON(t, engine, http.MethodPost, billPath+"/pay", map[string]any{
		"payment_method": "cash",
		"tendered":       80000,
	}, HeaderActor, collector.ID.String())
	require.Equal(t, http.StatusCreated, code, env.Error)
	payment := decodeData(t, env)
	assert.Equal(t, "1500", payment["change_given"])
	assert.Equal(t, collector.ID.String(), payment["collector_id"])

	code, env = doJSON(t, engine, http.MethodGet, billPath, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "paid", decodeData(t, env)["status"])

	code, env = doJSON(t, engine, http.MethodPost, billPath+"/pay", map[string]any{"payment_method": "cash"})
	assert.Equal(t, http.StatusConflict, code)

	code, env = doJSON(t, engine, http.MethodGet, base+"/ledger/balances/cash", nil)
	require.Equal(t, http.StatusOK, code, env.Error)
	assert.Equal(t, "78500", decodeData(t, env)["balance"])

	code, env = doJSON(t, engine, http.MethodGet, base+"/reports/collection?period_id="+period.ID.String(), nil)
	require.Equal(t, http.StatusOK, code, env.Error)
}

func TestErrorMapping(t *testing.T) {
	e, engine := newTestServer(t)
	v := e.Village(t, "Sumber Rejo")

	code, env := doJSON(t, engine, http.MethodGet, "/api/villages/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "validation_error", env.Error.Type)
	require.Len(t, env.Error.Errors, 1)
	assert.Equal(t, "invalid_village_id", env.Error.Errors[0].Code)

	code, env = doJSON(t, engine, http.MethodGet, "/api/villages/00000000-0000-0000-0000-000000000001", nil)
	assert.Equal(t, http.StatusNotFound, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "not_found", env.Error.Type)

	code, env = doJSON(t, engine, http.MethodPost, "/api/villages/"+v.ID.String()+"/customers", map[string]any{"name": " "})
	assert.Equal(t, http.StatusBadRequest, code)
	require.NotNil(t, env.Error)
	require.Len(t, env.Error.Errors, 1)
	assert.Equal(t, "invalid_name", env.Error.Errors[0].Code)
	assert.Equal(t, "name", env.Error.Errors[0].Field)

	code, _ = doJSON(t, engine, http.MethodGet, "/api/bills/123", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, env = doJSON(t, engine, http.MethodGet, "/api/bills/abc", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "invalid_id", env.Error.Errors[0].Code)

	code, env = doJSON(t, engine, http.MethodGet, "/api/villages", nil, HeaderActor, "nope")
	assert.Equal(t, http.StatusBadRequest, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "invalid_actor_id", env.Error.Errors[0].Code)

	code, env = doJSON(t, engine, http.MethodGet, "/api/villages/"+v.ID.String()+"/ledger/balances/petty_cash", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "invalid_account", env.Error.Errors[0].Code)

	code, env = doJSON(t, engine, http.MethodGet, "/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestMapErrorDefaultsToInternal(t *testing.T) {
	status, payload := mapError(assert.AnError)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal_error", payload.Type)

	kind, code := classifyErrorForLog(ErrConflict)
	assert.Equal(t, "conflict", kind)
	assert.Equal(t, "conflict", code)
}
