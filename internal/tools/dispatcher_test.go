package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/wearforce/convo-core/internal/apperr"
)

func newTestDispatcher(t *testing.T, handler http.HandlerFunc) (*Dispatcher, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	reg := NewRegistry()
	if err := reg.Register(ToolDefinition{
		Name:        "get_inventory",
		ServiceType: ServiceERP,
		Endpoint:    srv.URL + "/erp/inventory/{sku}",
		Method:      "GET",
		ParameterSchema: map[string]ParameterSpec{
			"sku": {Type: TypeString, Required: true},
		},
		RequiredParameters: []string{"sku"},
		Timeout:            time.Second,
		RetryCount:         2,
		CacheTTL:           time.Minute,
		RateLimitPerMinute: 60,
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	d := NewDispatcher(reg, DispatcherConfig{MaxConcurrentRequests: 4})
	return d, srv
}

func TestDispatcher_ExecuteSuccessAndCache(t *testing.T) {
	calls := 0
	d, srv := newTestDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"sku":"abc","stock":5}`))
	})
	defer srv.Close()

	res, err := d.Execute(context.Background(), "get_inventory", map[string]any{"sku": "abc"}, nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	m, ok := res.(map[string]any)
	if !ok || m["sku"] != "abc" {
		t.Fatalf("unexpected result: %#v", res)
	}

	if _, err := d.Execute(context.Background(), "get_inventory", map[string]any{"sku": "abc"}, nil); err != nil {
		t.Fatalf("cached execute: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected cache hit to avoid a second call, got %d calls", calls)
	}

	hist := d.History()
	if len(hist) != 2 || !hist[0].Success {
		t.Fatalf("expected two successful history records, got %#v", hist)
	}
}

func TestDispatcher_NotFound(t *testing.T) {
	d, srv := newTestDispatcher(t, func(w http.ResponseWriter, r *http.Request) {})
	defer srv.Close()

	_, err := d.Execute(context.Background(), "missing_tool", nil, nil)
	if !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestDispatcher_ValidationFailsMissingRequired(t *testing.T) {
	d, srv := newTestDispatcher(t, func(w http.ResponseWriter, r *http.Request) {})
	defer srv.Close()

	_, err := d.Execute(context.Background(), "get_inventory", map[string]any{}, nil)
	if !apperr.Is(err, apperr.Validation) {
		t.Fatalf("expected Validation error, got %v", err)
	}
}

func TestDispatcher_RetriesOn5xxThenFails(t *testing.T) {
	attempts := 0
	d, srv := newTestDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	defer srv.Close()

	_, err := d.Execute(context.Background(), "get_inventory", map[string]any{"sku": "xyz"}, nil)
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if attempts != 3 { // initial + 2 retries
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestDispatcher_4xxFailsImmediately(t *testing.T) {
	attempts := 0
	d, srv := newTestDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusNotFound)
	})
	defer srv.Close()

	_, err := d.Execute(context.Background(), "get_inventory", map[string]any{"sku": "xyz"}, nil)
	if !apperr.Is(err, apperr.Upstream) {
		t.Fatalf("expected Upstream error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected a single attempt on 4xx, got %d", attempts)
	}
}

func TestDispatcher_RateLimitRejects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	reg := NewRegistry()
	reg.Register(ToolDefinition{
		Name:               "limited",
		Endpoint:           srv.URL + "/x",
		Method:             "GET",
		RateLimitPerMinute: 1,
	})
	d := NewDispatcher(reg, DispatcherConfig{MaxConcurrentRequests: 2})

	if _, err := d.Execute(context.Background(), "limited", nil, nil); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if _, err := d.Execute(context.Background(), "limited", nil, nil); !apperr.Is(err, apperr.RateLimited) {
		t.Fatalf("expected RateLimited on second immediate call, got %v", err)
	}
}
