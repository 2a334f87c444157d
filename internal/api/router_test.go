package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"logistics-dashboard-service/internal/adapters/broker"
	"logistics-dashboard-service/internal/adapters/repositories"
	"logistics-dashboard-service/internal/api/handlers"
	"logistics-dashboard-service/internal/domain"
	"logistics-dashboard-service/internal/ports"
	"logistics-dashboard-service/internal/services"
	"logistics-dashboard-service/internal/store"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type stubOptimizer struct {
	resp ports.OptimizationResponse
	err  error
}

func (s *stubOptimizer) Optimize(context.Context, ports.OptimizationRequest) (ports.OptimizationResponse, error) {
	return s.resp, s.err
}

type testServer struct {
	handler http.Handler
	store   *store.Store
	broker  *broker.MemoryBroker
}

func newTestServer(t *testing.T, client ports.RouteOptimizer, checks map[string]handlers.Pinger) testServer {
	t.Helper()

	b := broker.NewMemoryBroker()
	st := store.New(repositories.NewMemoryCollectionStore(), b)
	renderer := services.NewRenderer(st, services.NewMapBuilder(nil, nil), b)

	h := NewRouter(Deps{
		Store:        st,
		Broker:       b,
		Optimizer:    services.NewOptimizer(st, client),
		Renderer:     renderer,
		HealthChecks: checks,
	})
	return testServer{handler: h, store: st, broker: b}
}

func (s testServer) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func seedNetwork(t *testing.T, st *store.Store) {
	t.Helper()
	ctx := context.Background()

	lat, lng := 55.75, 37.61
	_, err := st.Warehouses().Create(ctx, domain.Warehouse{
		Name: "Склад 1", Location: "Москва", Lat: &lat, Lng: &lng,
		Products: []domain.ProductSeries{{
			Product:     "Дизель",
			MonthlyData: []domain.MonthlyVolume{{Month: domain.Months[0], Volume: 300}},
		}},
	})
	require.NoError(t, err)

	_, err = st.Enterprises().Create(ctx, domain.Enterprise{
		Name: "Завод", Location: "Тула",
		Consumed: []domain.ProductSeries{{
			Product:     "Дизель",
			MonthlyData: []domain.MonthlyVolume{{Month: domain.Months[0], Volume: 120}},
		}},
	})
	require.NoError(t, err)
}

func TestProductCRUD(t *testing.T) {
	s := newTestServer(t, nil, nil)

	rec := s.do(t, http.MethodPost, "/v1/products", `{"name":"Дизель","category":"Топливо"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[domain.Product](t, rec)
	assert.Equal(t, 1, created.ID)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	rec = s.do(t, http.MethodGet, "/v1/products/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Дизель", decode[domain.Product](t, rec).Name)

	rec = s.do(t, http.MethodPut, "/v1/products/1", `{"id":99,"name":"Мазут","category":"Топливо"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, decode[domain.Product](t, rec).ID)

	rec = s.do(t, http.MethodDelete, "/v1/products/1", "")
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.NotEmpty(t, decode[map[string]any](t, rec)["hint"])

	rec = s.do(t, http.MethodDelete, "/v1/products/1?confirm=true", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/v1/products/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateRejectsInvalidRecords(t *testing.T) {
	s := newTestServer(t, nil, nil)

	tests := []struct {
		name   string
		target string
		body   string
		status int
		field  string
	}{
		{name: "missing name", target: "/v1/products", body: `{"category":"Топливо"}`, status: http.StatusBadRequest, field: "name"},
		{name: "zero volume", target: "/v1/vehicles", body: `{"brand":"КАМАЗ","trailerType":"Цистерна","volume":0}`, status: http.StatusBadRequest, field: "volume"},
		{name: "unknown field", target: "/v1/products", body: `{"name":"x","category":"y","color":"red"}`, status: http.StatusBadRequest},
		{name: "two objects", target: "/v1/products", body: `{"name":"x","category":"y"}{}`, status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, tt.target, tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.field == "" {
				return
			}
			res := decode[struct {
				Fields []struct{ Field string } `json:"fields"`
			}](t, rec)
			require.NotEmpty(t, res.Fields)
			assert.Equal(t, tt.field, res.Fields[0].Field)
		})
	}

	items, err := s.store.Products().List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestBadPathID(t *testing.T) {
	s := newTestServer(t, nil, nil)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/v1/vehicles/abc", "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/v1/vehicles/0", "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPut, "/v1/vehicles/7",
		`{"brand":"КАМАЗ","trailerType":"Цистерна","volume":20}`).Code)
}

func TestResponsesCarryDerivedTotals(t *testing.T) {
	s := newTestServer(t, nil, nil)
	seedNetwork(t, s.store)

	rec := s.do(t, http.MethodGet, "/v1/warehouses", "")
	require.Equal(t, http.StatusOK, rec.Code)
	warehouses := decode[struct {
		Items []struct {
			TotalVolume float64 `json:"totalVolume"`
		} `json:"items"`
	}](t, rec)
	require.Len(t, warehouses.Items, 1)
	assert.Equal(t, 300.0, warehouses.Items[0].TotalVolume)

	rec = s.do(t, http.MethodGet, "/v1/enterprises/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	enterprise := decode[map[string]any](t, rec)
	assert.Equal(t, 120.0, enterprise["monthlyConsumption"])
	assert.Equal(t, 0.0, enterprise["monthlyProduction"])
}

func TestOptimize(t *testing.T) {
	month := domain.Months[0]

	t.Run("unknown month is a precondition failure", func(t *testing.T) {
		s := newTestServer(t, &stubOptimizer{}, nil)
		seedNetwork(t, s.store)

		rec := s.do(t, http.MethodPost, "/v1/optimize", `{"month":"Тринадцатый 2025"}`)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.NotEmpty(t, decode[map[string]any](t, rec)["hint"])
	})

	t.Run("empty network is a precondition failure", func(t *testing.T) {
		s := newTestServer(t, &stubOptimizer{}, nil)

		rec := s.do(t, http.MethodPost, "/v1/optimize", `{"month":"`+month+`"}`)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("optimizer failure keeps routes", func(t *testing.T) {
		s := newTestServer(t, &stubOptimizer{err: errors.New("boom")}, nil)
		seedNetwork(t, s.store)
		prior := []domain.Route{{From: "Склад 1", To: "Завод", Product: "Дизель", Volume: 1}}
		require.NoError(t, s.store.Routes().ReplaceAll(context.Background(), prior))

		rec := s.do(t, http.MethodPost, "/v1/optimize", `{"month":"`+month+`"}`)
		require.Equal(t, http.StatusBadGateway, rec.Code)

		routes, err := s.store.Routes().List(context.Background())
		require.NoError(t, err)
		assert.Equal(t, prior, routes)
	})

	t.Run("routes are stored and listed", func(t *testing.T) {
		client := &stubOptimizer{resp: ports.OptimizationResponse{Routes: []domain.Route{
			{From: "Склад 1", To: "Завод", Product: "Дизель", Volume: 120, Distance: 180},
		}}}
		s := newTestServer(t, client, nil)
		seedNetwork(t, s.store)

		rec := s.do(t, http.MethodPost, "/v1/optimize", `{"month":"`+month+`"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Len(t, decode[services.OptimizationResult](t, rec).Routes, 1)

		rec = s.do(t, http.MethodGet, "/v1/routes", "")
		require.Equal(t, http.StatusOK, rec.Code)
		listed := decode[struct {
			Routes []domain.Route `json:"routes"`
		}](t, rec)
		require.Len(t, listed.Routes, 1)
		assert.Equal(t, 120.0, listed.Routes[0].Volume)

		rec = s.do(t, http.MethodGet, "/v1/routes/export", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")
		assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))
	})

	t.Run("no routes returns a diagnostic", func(t *testing.T) {
		s := newTestServer(t, &stubOptimizer{}, nil)
		seedNetwork(t, s.store)

		rec := s.do(t, http.MethodPost, "/v1/optimize", `{"month":"`+month+`"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, decode[services.OptimizationResult](t, rec).Diagnostic)
	})
}

func TestReadOnlyEndpoints(t *testing.T) {
	s := newTestServer(t, nil, nil)
	seedNetwork(t, s.store)

	rec := s.do(t, http.MethodGet, "/v1/months", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.Months, decode[struct {
		Months []string `json:"months"`
	}](t, rec).Months)

	rec = s.do(t, http.MethodGet, "/v1/map", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decode[services.MapView](t, rec)
	assert.Len(t, view.Markers, 1, "only the warehouse has stored coordinates")

	rec = s.do(t, http.MethodGet, "/v1/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/v1/stats?month=bogus", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(t, http.MethodGet, "/v1/integrity", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/v1/schemas/optimization", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "warehouses")

	rec = s.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil, map[string]handlers.Pinger{
		"database": handlers.PingFunc(func(context.Context) error { return nil }),
	})
	rec := s.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, rec)["database"])

	s = newTestServer(t, nil, map[string]handlers.Pinger{
		"redis": handlers.PingFunc(func(context.Context) error { return errors.New("down") }),
	})
	rec = s.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded", decode[map[string]string](t, rec)["status"])
}

func TestRequestIDIsPropagated(t *testing.T) {
	s := newTestServer(t, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/months", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
}

func TestEventsStream(t *testing.T) {
	s := newTestServer(t, nil, nil)
	srv := httptest.NewServer(s.handler)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/v1/events", nil)
	require.NoError(t, err)
	defer conn.Close()

	// The handler subscribes after the upgrade completes, so keep announcing
	// until the first event gets through.
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				s.broker.Publish(context.Background(), ports.ChangeEvent{Collection: "vehicles", Count: 1})
			}
		}
	}()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var evt ports.ChangeEvent
	require.NoError(t, conn.ReadJSON(&evt))
	assert.Equal(t, "vehicles", evt.Collection)
}

func uploadRequest(t *testing.T, filename string, rows [][]any) *http.Request {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		require.NoError(t, f.SetSheetRow("Sheet1", fmt.Sprintf("A%d", i+1), &row))
	}
	book, err := f.WriteToBuffer()
	require.NoError(t, err)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(book.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/vehicles/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestImportVehicles(t *testing.T) {
	s := newTestServer(t, nil, nil)

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, uploadRequest(t, "fleet.xlsx", [][]any{
		{"Brand", "Trailer type", "Volume", "Product types"},
		{"КАМАЗ 65115", "Цистерна", 20, "Дизель"},
		{"МАЗ", "Цистерна", "n/a", ""},
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[services.ImportResult](t, rec)
	assert.Len(t, res.Created, 1)
	assert.Len(t, res.Errors, 1)

	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, uploadRequest(t, "fleet.xlsx", [][]any{{"nothing", "here"}}))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, uploadRequest(t, "fleet.csv", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
