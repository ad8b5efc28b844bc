package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/mtlprog/bienes/internal/index"
)

func TestRegistryCacheExpires(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newRegistryCache()
	c.now = func() time.Time { return now }

	if _, ok := c.get(); ok {
		t.Fatal("empty cache should miss")
	}

	reg := index.NewRegistry()
	c.set(reg)
	if got, ok := c.get(); !ok || got != reg {
		t.Fatal("expected cache hit")
	}

	now = now.Add(registryTTL + time.Second)
	if _, ok := c.get(); ok {
		t.Error("expired entry should miss")
	}
}

func TestRegistryCacheInvalidate(t *testing.T) {
	c := newRegistryCache()
	c.set(index.NewRegistry())
	c.invalidate()
	if _, ok := c.get(); ok {
		t.Error("invalidated cache should miss")
	}
}

func TestPutIndexRefreshesCoefficient(t *testing.T) {
	s := newMockStore()
	router := newTestRouter(s, "")
	target := "/api/v1/indices/coefficient?from=15/06/2015&to=31/01/2025"

	if w := do(t, router, http.MethodGet, target, ""); w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 before the index is loaded", w.Code)
	}

	w := do(t, router, http.MethodPut, "/api/v1/indices", `{"date":"31/01/2025","value":"800"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("PUT status = %d", w.Code)
	}
	s.mu.Lock()
	s.indices = append(s.indices, s.saved...)
	s.mu.Unlock()

	if w := do(t, router, http.MethodGet, target, ""); w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 after PUT; body: %s", w.Code, w.Body.String())
	}
}
