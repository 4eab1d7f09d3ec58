package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/fishstock-api/internal/application/inventory"
	"github.com/jhoicas/fishstock-api/internal/application/usecase"
	"github.com/jhoicas/fishstock-api/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/fishstock-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/fishstock-api/pkg/jwt"
	"github.com/jhoicas/fishstock-api/pkg/metrics"
)

type fakeIdempotencyStore struct {
	mu   sync.Mutex
	data map[string]string
	// beforeWrite se invoca antes de cada Set/Del, fuera del lock.
	beforeWrite func()
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{data: map[string]string{}}
}

func (f *fakeIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (f *fakeIdempotencyStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	if f.beforeWrite != nil {
		f.beforeWrite()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key], _ = value.(string)
	return nil
}

func (f *fakeIdempotencyStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	f.data[key], _ = value.(string)
	return true, nil
}

func (f *fakeIdempotencyStore) Del(_ context.Context, keys ...string) error {
	if f.beforeWrite != nil {
		f.beforeWrite()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeIdempotencyStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("fake:%s:%s", scope, id)
}

type apiFixture struct {
	t    *testing.T
	app  *fiber.App
	idem *fakeIdempotencyStore
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	s := memory.NewStore()
	reg := prometheus.NewRegistry()
	m := metrics.NewInventoryMetrics(reg)
	ledger := inventory.NewLedgerService(s, s.Ledger(), m, nil)
	capacity := inventory.NewCapacityService(s.Locations(), s.Ledger())
	agg := inventory.NewAggregator(s.Locations(), s.Batches(), s.Ledger(), s.Demand(), nil, m, nil)

	idem := newFakeIdempotencyStore()
	app := fiber.New()
	apphttp.RegisterOps(app, apphttp.OpsDeps{Service: "fishstock-test", Driver: "memory", Gatherer: reg})
	apphttp.Router(app, apphttp.RouterDeps{
		StorageLocationUC: usecase.NewStorageLocationUseCase(s.Locations(), capacity),
		Reports:           inventory.NewReportingFacade(agg, ledger),
		Intake:            inventory.NewProcessingIntake(s, nil, m, nil),
		Removal:           inventory.NewRemovalService(s, nil, m, nil),
		Transfers:         inventory.NewTransferCoordinator(s, s.Transfers(), nil, m, nil),
		Idempotency:       idem,
		IdempotencyTTL:    time.Hour,
		JWTSecret:         testJWTSecret,
	})
	return &apiFixture{t: t, app: app, idem: idem}
}

type apiResponse struct {
	status int
	header http.Header
	raw    []byte
}

func (r apiResponse) json(t *testing.T) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(r.raw, &out), string(r.raw))
	return out
}

func (f *apiFixture) do(method, path, role string, body any, headers ...string) apiResponse {
	f.t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(f.t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", tokenForRole(f.t, role))
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(f.t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(f.t, err)
	return apiResponse{status: resp.StatusCode, header: resp.Header, raw: raw}
}

func (f *apiFixture) location(name, capacityKg string) string {
	f.t.Helper()
	resp := f.do(http.MethodPost, "/api/storage-locations", pkgjwt.RoleAdmin, map[string]any{
		"name": name, "type": "cold_storage", "capacity_kg": capacityKg,
	})
	require.Equal(f.t, http.StatusCreated, resp.status, string(resp.raw))
	return resp.json(f.t)["id"].(string)
}

func (f *apiFixture) intake(record, locationID string, sizeClass, qty int, weight string) {
	f.t.Helper()
	resp := f.do(http.MethodPost, "/api/inventory/processing-batches", pkgjwt.RoleOperator, map[string]any{
		"processing_record_id": record,
		"batch_number":         "B-" + record,
		"location_id":          locationID,
		"items":                []map[string]any{{"size_class": sizeClass, "quantity": qty, "weight_kg": weight}},
	})
	require.Equal(f.t, http.StatusCreated, resp.status, string(resp.raw))
}

func (f *apiFixture) cellQuantity(locationID string, sizeClass int) int {
	f.t.Helper()
	resp := f.do(http.MethodGet, fmt.Sprintf("/api/inventory/cells/%s/%d", locationID, sizeClass), pkgjwt.RoleViewer, nil)
	require.Equal(f.t, http.StatusOK, resp.status, string(resp.raw))
	return int(resp.json(f.t)["quantity"].(float64))
}

func transferBody(src, dst string, sizeClass, qty int, weight string) map[string]any {
	return map[string]any{
		"source":      src,
		"destination": dst,
		"items":       []map[string]any{{"size_class": sizeClass, "quantity": qty, "weight_kg": weight}},
	}
}

func TestTransferFlow_CrearAprobarYConsultar(t *testing.T) {
	api := newAPI(t)
	x := api.location("Cámara X", "100.0")
	y := api.location("Cámara Y", "50.0")
	api.intake("PR-1", x, 3, 10, "5.0")

	created := api.do(http.MethodPost, "/api/inventory/transfers", pkgjwt.RoleOperator, transferBody(x, y, 3, 4, "2.0"))
	require.Equal(t, http.StatusCreated, created.status, string(created.raw))
	body := created.json(t)
	assert.Equal(t, "pending", body["status"])
	assert.Equal(t, testUserID, body["requested_by"])
	id := body["id"].(string)

	// operator no decide traslados
	forbidden := api.do(http.MethodPost, "/api/inventory/transfers/"+id+"/approve", pkgjwt.RoleOperator, nil)
	assert.Equal(t, http.StatusForbidden, forbidden.status)

	approved := api.do(http.MethodPost, "/api/inventory/transfers/"+id+"/approve", pkgjwt.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, approved.status, string(approved.raw))
	assert.Equal(t, "completed", approved.json(t)["status"])

	assert.Equal(t, 6, api.cellQuantity(x, 3))
	assert.Equal(t, 4, api.cellQuantity(y, 3))

	again := api.do(http.MethodPost, "/api/inventory/transfers/"+id+"/approve", pkgjwt.RoleAdmin, nil)
	assert.Equal(t, http.StatusConflict, again.status)
	assert.Equal(t, "INVALID_TRANSITION", again.json(t)["code"])

	got := api.do(http.MethodGet, "/api/inventory/transfers/"+id, pkgjwt.RoleViewer, nil)
	require.Equal(t, http.StatusOK, got.status)
	assert.Equal(t, "completed", got.json(t)["status"])

	list := api.do(http.MethodGet, "/api/inventory/transfers?status=completed", pkgjwt.RoleViewer, nil)
	require.Equal(t, http.StatusOK, list.status)
	assert.Equal(t, float64(1), list.json(t)["total"])
}

func TestCreateTransfer_StockInsuficienteDevuelveFaltante(t *testing.T) {
	api := newAPI(t)
	x := api.location("Cámara X", "100.0")
	y := api.location("Cámara Y", "50.0")
	api.intake("PR-1", x, 3, 10, "5.0")

	resp := api.do(http.MethodPost, "/api/inventory/transfers", pkgjwt.RoleOperator, transferBody(x, y, 3, 12, "6.0"))
	require.Equal(t, http.StatusConflict, resp.status, string(resp.raw))
	body := resp.json(t)
	assert.Equal(t, "INSUFFICIENT_STOCK", body["code"])
	details := body["details"].(map[string]any)
	assert.Equal(t, float64(12), details["requested"])
	assert.Equal(t, float64(10), details["available"])
	assert.Equal(t, float64(2), details["shortfall"])
}

func TestCreateTransfer_ErroresDeEntrada(t *testing.T) {
	api := newAPI(t)
	x := api.location("Cámara X", "100.0")

	empty := api.do(http.MethodPost, "/api/inventory/transfers", pkgjwt.RoleOperator, map[string]any{
		"source": x, "destination": "otra", "items": []map[string]any{},
	})
	assert.Equal(t, http.StatusBadRequest, empty.status)
	assert.Equal(t, "VALIDATION", empty.json(t)["code"])

	missing := api.do(http.MethodPost, "/api/inventory/transfers", pkgjwt.RoleOperator,
		transferBody(x, "00000000-0000-0000-0000-00000000ffff", 3, 1, "0.5"))
	assert.Equal(t, http.StatusNotFound, missing.status)

	unknown := api.do(http.MethodGet, "/api/inventory/transfers/no-existe", pkgjwt.RoleViewer, nil)
	assert.Equal(t, http.StatusNotFound, unknown.status)

	badStatus := api.do(http.MethodGet, "/api/inventory/transfers?status=archived", pkgjwt.RoleViewer, nil)
	assert.Equal(t, http.StatusBadRequest, badStatus.status)
}

func TestIDsMalFormados_NoLleganAlRepositorio(t *testing.T) {
	api := newAPI(t)
	x := api.location("Cámara X", "100.0")
	api.intake("PR-1", x, 3, 10, "5.0")

	badBody := api.do(http.MethodPost, "/api/inventory/transfers", pkgjwt.RoleOperator, transferBody("freezer-1", x, 3, 1, "0.5"))
	require.Equal(t, http.StatusBadRequest, badBody.status, string(badBody.raw))
	body := badBody.json(t)
	assert.Equal(t, "VALIDATION", body["code"])
	assert.Equal(t, "source", body["details"].(map[string]any)["field"])

	removal := api.do(http.MethodPost, "/api/inventory/removals", pkgjwt.RoleOperator,
		map[string]any{"location_id": "camara-x", "size_class": 3, "quantity": 1, "entry_type": "disposal"})
	assert.Equal(t, http.StatusBadRequest, removal.status)

	for _, path := range []string{
		"/api/inventory/transfers/abc/approve",
		"/api/storage-locations/abc/status",
	} {
		method := http.MethodPost
		var payload any
		if strings.HasSuffix(path, "/status") {
			method = http.MethodPatch
			payload = map[string]any{"status": "inactive"}
		}
		resp := api.do(method, path, pkgjwt.RoleAdmin, payload)
		assert.Equal(t, http.StatusNotFound, resp.status, path)
	}
	rejected := api.do(http.MethodPost, "/api/inventory/transfers/abc/reject", pkgjwt.RoleAdmin, map[string]any{"reason": "x"})
	assert.Equal(t, http.StatusNotFound, rejected.status)

	cell := api.do(http.MethodGet, "/api/inventory/cells/abc/3", pkgjwt.RoleViewer, nil)
	assert.Equal(t, http.StatusBadRequest, cell.status)

	// un UUID en mayúsculas se normaliza
	upper := api.do(http.MethodGet, "/api/storage-locations/"+strings.ToUpper(x), pkgjwt.RoleViewer, nil)
	assert.Equal(t, http.StatusOK, upper.status)
	assert.Equal(t, 10, api.cellQuantity(x, 3))
}

func TestCreateTransfer_PendienteSolapadoIncluyeTrasladoExistente(t *testing.T) {
	api := newAPI(t)
	x := api.location("Cámara X", "100.0")
	y := api.location("Cámara Y", "50.0")
	api.intake("PR-1", x, 3, 10, "5.0")

	first := api.do(http.MethodPost, "/api/inventory/transfers", pkgjwt.RoleOperator, transferBody(x, y, 3, 2, "1.0"))
	require.Equal(t, http.StatusCreated, first.status)
	firstID := first.json(t)["id"].(string)

	dup := api.do(http.MethodPost, "/api/inventory/transfers", pkgjwt.RoleOperator, transferBody(x, y, 3, 1, "0.5"))
	require.Equal(t, http.StatusConflict, dup.status)
	body := dup.json(t)
	assert.Equal(t, "DUPLICATE_PENDING_TRANSFER", body["code"])
	assert.Equal(t, firstID, body["details"].(map[string]any)["existing_transfer_id"])
}

func TestApprove_RevalidacionFallidaDevuelveTrasladoRechazado(t *testing.T) {
	api := newAPI(t)
	x := api.location("Cámara X", "100.0")
	y := api.location("Cámara Y", "50.0")
	api.intake("PR-1", x, 3, 10, "5.0")

	created := api.do(http.MethodPost, "/api/inventory/transfers", pkgjwt.RoleOperator, transferBody(x, y, 3, 8, "4.0"))
	require.Equal(t, http.StatusCreated, created.status)
	id := created.json(t)["id"].(string)

	removed := api.do(http.MethodPost, "/api/inventory/removals", pkgjwt.RoleOperator, map[string]any{
		"location_id": x, "size_class": 3, "quantity": 5, "entry_type": "disposal",
	})
	require.Equal(t, http.StatusCreated, removed.status, string(removed.raw))

	resp := api.do(http.MethodPost, "/api/inventory/transfers/"+id+"/approve", pkgjwt.RoleAdmin, nil)
	require.Equal(t, http.StatusConflict, resp.status, string(resp.raw))
	body := resp.json(t)
	assert.Equal(t, "INSUFFICIENT_STOCK", body["code"])
	transfer := body["transfer"].(map[string]any)
	assert.Equal(t, "rejected", transfer["status"])
	assert.NotEmpty(t, transfer["decision_reason"])

	assert.Equal(t, 5, api.cellQuantity(x, 3))
	assert.Equal(t, 0, api.cellQuantity(y, 3))
}

func TestReject_RequiereMotivo(t *testing.T) {
	api := newAPI(t)
	x := api.location("Cámara X", "100.0")
	y := api.location("Cámara Y", "50.0")
	api.intake("PR-1", x, 3, 10, "5.0")
	created := api.do(http.MethodPost, "/api/inventory/transfers", pkgjwt.RoleOperator, transferBody(x, y, 3, 2, "1.0"))
	require.Equal(t, http.StatusCreated, created.status)
	id := created.json(t)["id"].(string)

	noReason := api.do(http.MethodPost, "/api/inventory/transfers/"+id+"/reject", pkgjwt.RoleAdmin, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, noReason.status)

	ok := api.do(http.MethodPost, "/api/inventory/transfers/"+id+"/reject", pkgjwt.RoleAdmin, map[string]any{"reason": "cámara en mantenimiento"})
	require.Equal(t, http.StatusOK, ok.status, string(ok.raw))
	assert.Equal(t, "rejected", ok.json(t)["status"])
	assert.Equal(t, 10, api.cellQuantity(x, 3))
}

func TestProcessingBatch_IdempotencyKeyRepiteRespuesta(t *testing.T) {
	api := newAPI(t)
	x := api.location("Cámara X", "100.0")
	body := map[string]any{
		"processing_record_id": "PR-9",
		"batch_number":         "B-9",
		"location_id":          x,
		"items":                []map[string]any{{"size_class": 2, "quantity": 6, "weight_kg": "3.0"}},
	}

	first := api.do(http.MethodPost, "/api/inventory/processing-batches", pkgjwt.RoleOperator, body, apphttp.HeaderIdempotencyKey, "k-1")
	require.Equal(t, http.StatusCreated, first.status, string(first.raw))

	second := api.do(http.MethodPost, "/api/inventory/processing-batches", pkgjwt.RoleOperator, body, apphttp.HeaderIdempotencyKey, "k-1")
	require.Equal(t, http.StatusCreated, second.status)
	assert.Equal(t, first.raw, second.raw)
	assert.Equal(t, "true", second.header.Get("Idempotent-Replayed"))
	assert.Equal(t, 6, api.cellQuantity(x, 2))

	body["batch_number"] = "B-10"
	reused := api.do(http.MethodPost, "/api/inventory/processing-batches", pkgjwt.RoleOperator, body, apphttp.HeaderIdempotencyKey, "k-1")
	assert.Equal(t, http.StatusUnprocessableEntity, reused.status)

	// sin clave el registro repetido es un duplicado de negocio
	dup := api.do(http.MethodPost, "/api/inventory/processing-batches", pkgjwt.RoleOperator, body)
	assert.Equal(t, http.StatusConflict, dup.status)
	assert.Equal(t, "DUPLICATE", dup.json(t)["code"])
}

func TestRemoval_ReintentoMientrasSeGuardaLaRespuestaNoDescuentaDosVeces(t *testing.T) {
	api := newAPI(t)
	x := api.location("Cámara X", "100.0")
	api.intake("PR-1", x, 3, 10, "5.0")
	body, err := json.Marshal(map[string]any{"location_id": x, "size_class": 3, "quantity": 3, "entry_type": "disposal"})
	require.NoError(t, err)
	auth := tokenForRole(t, pkgjwt.RoleOperator)

	newReq := func() *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/api/inventory/removals", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", auth)
		req.Header.Set(apphttp.HeaderIdempotencyKey, "rm-1")
		return req
	}

	// el reintento llega justo cuando la primera petición persiste su respuesta
	var once sync.Once
	retryStatus := 0
	api.idem.beforeWrite = func() {
		once.Do(func() {
			resp, err := api.app.Test(newReq(), -1)
			if err == nil {
				retryStatus = resp.StatusCode
				resp.Body.Close()
			}
		})
	}

	first, err := api.app.Test(newReq(), -1)
	require.NoError(t, err)
	first.Body.Close()
	api.idem.beforeWrite = nil

	assert.Equal(t, http.StatusCreated, first.StatusCode)
	assert.Equal(t, http.StatusConflict, retryStatus)
	assert.Equal(t, 7, api.cellQuantity(x, 3))

	replayed := api.do(http.MethodPost, "/api/inventory/removals", pkgjwt.RoleOperator,
		map[string]any{"location_id": x, "size_class": 3, "quantity": 3, "entry_type": "disposal"},
		apphttp.HeaderIdempotencyKey, "rm-1")
	assert.Equal(t, http.StatusCreated, replayed.status)
	assert.Equal(t, "true", replayed.header.Get("Idempotent-Replayed"))
	assert.Equal(t, 7, api.cellQuantity(x, 3))
}

func TestReports_ByLocationYOldestBatches(t *testing.T) {
	api := newAPI(t)
	x := api.location("Cámara X", "100.0")
	api.intake("PR-1", x, 3, 10, "5.0")
	api.intake("PR-2", x, 4, 2, "1.5")

	rows := api.do(http.MethodGet, "/api/inventory/by-location", pkgjwt.RoleViewer, nil)
	require.Equal(t, http.StatusOK, rows.status)
	var byLocation []map[string]any
	require.NoError(t, json.Unmarshal(rows.raw, &byLocation))
	assert.Len(t, byLocation, 2)

	oldest := api.do(http.MethodGet, "/api/inventory/oldest-batches?limit=1", pkgjwt.RoleViewer, nil)
	require.Equal(t, http.StatusOK, oldest.status)
	var batches []map[string]any
	require.NoError(t, json.Unmarshal(oldest.raw, &batches))
	require.Len(t, batches, 1)
	assert.Equal(t, "B-PR-1", batches[0]["batch_number"])

	bad := api.do(http.MethodGet, "/api/inventory/oldest-batches?limit=-3", pkgjwt.RoleViewer, nil)
	assert.Equal(t, http.StatusBadRequest, bad.status)

	demand := api.do(http.MethodGet, "/api/inventory/size-demand-statistics", pkgjwt.RoleViewer, nil)
	assert.Equal(t, http.StatusOK, demand.status)
}

func TestStorageLocations_AdminYEstado(t *testing.T) {
	api := newAPI(t)

	denied := api.do(http.MethodPost, "/api/storage-locations", pkgjwt.RoleOperator, map[string]any{
		"name": "C", "type": "freezer", "capacity_kg": "10.0",
	})
	assert.Equal(t, http.StatusForbidden, denied.status)

	badType := api.do(http.MethodPost, "/api/storage-locations", pkgjwt.RoleAdmin, map[string]any{
		"name": "C", "type": "garage", "capacity_kg": "10.0",
	})
	assert.Equal(t, http.StatusBadRequest, badType.status)

	id := api.location("Congelador 1", "80.0")
	upd := api.do(http.MethodPatch, "/api/storage-locations/"+id+"/status", pkgjwt.RoleAdmin, map[string]any{"status": "maintenance"})
	require.Equal(t, http.StatusOK, upd.status, string(upd.raw))
	assert.Equal(t, "maintenance", upd.json(t)["status"])

	// una ubicación fuera de servicio no recibe stock
	resp := api.do(http.MethodPost, "/api/inventory/processing-batches", pkgjwt.RoleOperator, map[string]any{
		"processing_record_id": "PR-1", "batch_number": "B-1", "location_id": id,
		"items": []map[string]any{{"size_class": 1, "quantity": 1, "weight_kg": "0.5"}},
	})
	assert.Equal(t, http.StatusBadRequest, resp.status)

	missing := api.do(http.MethodGet, "/api/storage-locations/nope", pkgjwt.RoleViewer, nil)
	assert.Equal(t, http.StatusNotFound, missing.status)

	list := api.do(http.MethodGet, "/api/storage-locations", pkgjwt.RoleViewer, nil)
	require.Equal(t, http.StatusOK, list.status)
	assert.Equal(t, float64(1), list.json(t)["total"])
}

func TestOps_HealthYMetrics(t *testing.T) {
	api := newAPI(t)

	health := api.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, health.status)
	assert.Equal(t, "ok", health.json(t)["status"])

	m := api.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, m.status)
	assert.Contains(t, string(m.raw), "stock_consistency_errors_total")
	assert.Contains(t, string(m.raw), "stock_transfer_approval_duration_seconds")
}

func TestPesos_SiempreConUnDecimal(t *testing.T) {
	api := newAPI(t)
	x := api.location("Cámara X", "100")
	api.intake("PR-1", x, 3, 10, "5")

	loc := api.do(http.MethodGet, "/api/storage-locations/"+x, pkgjwt.RoleViewer, nil)
	require.Equal(t, http.StatusOK, loc.status, string(loc.raw))
	body := loc.json(t)
	assert.Equal(t, "100.0", body["capacity_kg"])
	assert.Equal(t, "5.0", body["current_usage_kg"])
	assert.Equal(t, "95.0", body["available_kg"])

	cell := api.do(http.MethodGet, "/api/inventory/cells/"+x+"/3", pkgjwt.RoleViewer, nil)
	require.Equal(t, http.StatusOK, cell.status, string(cell.raw))
	assert.Equal(t, "5.0", cell.json(t)["weight_kg"])
}
