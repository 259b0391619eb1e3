package store

import (
	"errors"
	"testing"
	"time"

	"sorriai/pkg/domain"
)

func seedUser(t *testing.T, m *MemoryStore, id string, edits int) {
	t.Helper()
	if err := m.SaveUser(domain.User{
		ID:                  id,
		Email:               id + "@example.com",
		Role:                domain.RoleUser,
		Plan:                domain.PlanFree,
		VideoEditsThisMonth: edits,
		CreatedAt:           time.Now().UTC(),
	}); err != nil {
		t.Fatalf("save user: %v", err)
	}
}

func TestMemoryStoreOwnerListingOrder(t *testing.T) {
	m := NewMemoryStore()
	seedUser(t, m, "owner-1", 0)
	scripts := []domain.Script{
		{ID: "s-1", OwnerID: "owner-1", Title: "first", Status: domain.StatusScript, StatusOrder: 0},
		{ID: "s-2", OwnerID: "owner-1", Title: "second", Status: domain.StatusScript, StatusOrder: 2},
		{ID: "s-3", OwnerID: "owner-1", Title: "third", Status: domain.StatusScript, StatusOrder: 1},
	}
	if err := m.CreateScripts(scripts); err != nil {
		t.Fatalf("create scripts: %v", err)
	}

	listed, err := m.ListScriptsByOwner("owner-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"s-1", "s-3", "s-2"}
	for i, id := range want {
		if listed[i].ID != id {
			t.Fatalf("position %d: got %s, want %s", i, listed[i].ID, id)
		}
	}

	next, err := m.NextStatusOrder("owner-1")
	if err != nil {
		t.Fatalf("next order: %v", err)
	}
	if next != 3 {
		t.Fatalf("next order: got %d, want 3", next)
	}
}

func TestMemoryStoreSubmitForEditingGuards(t *testing.T) {
	m := NewMemoryStore()
	seedUser(t, m, "owner-1", 1)
	if err := m.CreateScripts([]domain.Script{
		{ID: "s-1", OwnerID: "owner-1", Status: domain.StatusRecorded},
	}); err != nil {
		t.Fatalf("create scripts: %v", err)
	}

	err := m.SubmitForEditing("s-1", "owner-1", map[string]any{"status": string(domain.StatusEditing)}, 1)
	if !errors.Is(err, ErrQuotaExhausted) {
		t.Fatalf("expected quota exhausted, got: %v", err)
	}
	s, _, _ := m.GetScript("s-1")
	if s.Status != domain.StatusRecorded {
		t.Fatalf("script mutated on rejected submit: %s", s.Status)
	}

	u, _, _ := m.GetUserByID("owner-1")
	if u.VideoEditsThisMonth != 1 {
		t.Fatalf("counter mutated on rejected submit: %d", u.VideoEditsThisMonth)
	}

	if err := m.SubmitForEditing("s-1", "owner-1", map[string]any{"status": string(domain.StatusEditing)}, 4); err != nil {
		t.Fatalf("submit within quota: %v", err)
	}
	s, _, _ = m.GetScript("s-1")
	if s.Status != domain.StatusEditing {
		t.Fatalf("status not updated: %s", s.Status)
	}
	u, _, _ = m.GetUserByID("owner-1")
	if u.VideoEditsThisMonth != 2 {
		t.Fatalf("counter not incremented: %d", u.VideoEditsThisMonth)
	}

	// A second concurrent-style submit must hit the status guard.
	err = m.SubmitForEditing("s-1", "owner-1", map[string]any{"status": string(domain.StatusEditing)}, 4)
	if !errors.Is(err, ErrStatusConflict) {
		t.Fatalf("expected status conflict, got: %v", err)
	}
}
