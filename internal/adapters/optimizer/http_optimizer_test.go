package optimizer

import (
	"context"
	"encoding/json"
	"errors"
	"logistics-dashboard-service/internal/ports"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestOptimizeSendsRequestAndDecodesRoutes(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)

		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		var got ports.OptimizationRequest
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if got.Month != "Январь 2025" || len(got.Warehouses) != 1 || got.Warehouses[0].Stocks["Бензин АИ-95"] != 100 {
			t.Errorf("request = %+v", got)
		}

		_, _ = w.Write([]byte(`{"month":"Январь 2025","total_routes":1,"routes":[
			{"from":"Склад А","to":"Завод Б","product":"Бензин АИ-95","volume":60,"distance":12.4,
			 "fromLat":55.7,"fromLng":37.6,"toLat":55.8,"toLng":37.5}]}`))
	}))
	defer srv.Close()

	o, err := NewHTTPOptimizer(srv.URL, time.Second)
	if err != nil {
		t.Fatalf("new optimizer: %v", err)
	}

	resp, err := o.Optimize(context.Background(), ports.OptimizationRequest{
		Month:      "Январь 2025",
		Warehouses: []ports.WarehouseStock{{ID: 1, Name: "Склад А", Stocks: map[string]float64{"Бензин АИ-95": 100}}},
	})
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if len(resp.Routes) != 1 || resp.Routes[0].Volume != 60 {
		t.Fatalf("routes = %+v", resp.Routes)
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("hits = %d, want 1", got)
	}
}

func TestOptimizeDecodesDebugForEmptyRoutes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"routes":[],"debug":{"warehousesWithData":0,"enterprisesWithData":2}}`))
	}))
	defer srv.Close()

	o, _ := NewHTTPOptimizer(srv.URL, time.Second)

	resp, err := o.Optimize(context.Background(), ports.OptimizationRequest{})
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if len(resp.Routes) != 0 || resp.Debug == nil || *resp.Debug.WarehousesWithData != 0 || *resp.Debug.EnterprisesWithData != 2 {
		t.Fatalf("response = %+v", resp)
	}
}

func TestOptimizeFailures(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantInvalid bool
	}{
		{name: "server error", status: 500, body: `{"error":"boom"}`},
		{name: "bad request", status: 400, body: `{"error":"Warehouses and enterprises are required"}`},
		{name: "not json", status: 200, body: `<html>`, wantInvalid: true},
		{name: "route missing product", status: 200, body: `{"routes":[{"from":"A","to":"B","volume":1,"distance":1}]}`, wantInvalid: true},
		{name: "negative volume", status: 200, body: `{"routes":[{"from":"A","to":"B","product":"P","volume":-1,"distance":1}]}`, wantInvalid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&hits, 1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			o, _ := NewHTTPOptimizer(srv.URL, time.Second)

			_, err := o.Optimize(context.Background(), ports.OptimizationRequest{})
			if err == nil {
				t.Fatal("expected error")
			}
			if errors.Is(err, ErrInvalidResponse) != tt.wantInvalid {
				t.Fatalf("err = %v, wantInvalid %v", err, tt.wantInvalid)
			}
			var se *StatusError
			if !tt.wantInvalid && (!errors.As(err, &se) || se.Code != tt.status) {
				t.Fatalf("err = %v, want StatusError %d", err, tt.status)
			}
			// Never retried.
			if got := atomic.LoadInt32(&hits); got != 1 {
				t.Fatalf("hits = %d, want 1", got)
			}
		})
	}
}

func TestOptimizeTimesOut(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	o, _ := NewHTTPOptimizer(srv.URL, 50*time.Millisecond)

	if _, err := o.Optimize(context.Background(), ports.OptimizationRequest{}); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestContractSchemas(t *testing.T) {
	s := ContractSchemas()

	if s.Request == nil || s.Response == nil {
		t.Fatal("schemas missing")
	}
	if _, ok := s.Request.Properties.Get("warehouses"); !ok {
		t.Fatal("request schema lacks warehouses")
	}
	if _, ok := s.Response.Properties.Get("routes"); !ok {
		t.Fatal("response schema lacks routes")
	}
}
