package session

import (
	"context"
	"testing"
	"time"

	"supplier-service/internal/core/store"
	"supplier-service/internal/domain"
)

func TestManagerIsolatesSessions(t *testing.T) {
	mem := store.NewMemoryBackend()
	m := NewManager(store.NewService(mem, nil), "/f.xlsx", map[string]string{"2025": "/c25.xlsx"}, 0, nil)
	ctx := context.Background()

	a := m.Get("a")
	if _, err := a.Suppliers.Create(ctx, "Acme", domain.GeneralFields{}, domain.ProductFields{}); err != nil {
		t.Fatal(err)
	}
	if m.Get("a") != a {
		t.Error("same id must return the same state")
	}

	// a sessão b lê o documento já gravado, mas tem estado próprio
	b := m.Get("b")
	if _, err := b.Suppliers.Update(ctx, "Acme", domain.GeneralFields{CostCenter: "B"}, nil); err != nil {
		t.Fatal(err)
	}
	rs, _ := a.Suppliers.Get(ctx, "Acme")
	if len(rs.Rows) != 1 {
		t.Errorf("staged edit in b leaked into a: %+v", rs)
	}

	m.Reload("a")
	if m.Get("a") == a {
		t.Error("reload must drop the state")
	}
	if m.Get("") != m.Get(DefaultID) {
		t.Error("empty id should map to the default session")
	}
}

func TestManagerPrunesIdleSessions(t *testing.T) {
	m := NewManager(store.NewService(store.NewMemoryBackend(), nil), "/f.xlsx", nil, time.Hour, nil)
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	m.Get("a")
	now = now.Add(30 * time.Minute)
	m.Get("b")
	now = now.Add(45 * time.Minute)
	m.Get("b")

	if m.Len() != 1 {
		t.Errorf("sessions = %d, want 1", m.Len())
	}
}
