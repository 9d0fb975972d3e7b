package store

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestActionRepository_CRUD(t *testing.T) {
	s := newTestStore(t)
	repo := s.Actions()

	a := &Action{
		ID:           "action-1",
		Action:       "reveal",
		PluginName:   "keyboard",
		PluginAction: "shortcut",
		Config:       json.RawMessage(`{"keys":"cmd+h"}`),
		Enabled:      true,
	}
	if err := repo.Create(a); err != nil {
		t.Fatalf("failed to create action: %v", err)
	}
	if a.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set after create")
	}

	got, err := repo.GetByID("action-1")
	if err != nil {
		t.Fatalf("failed to get action: %v", err)
	}
	if got.Action != "reveal" || got.PluginName != "keyboard" || got.PluginAction != "shortcut" || !got.Enabled {
		t.Errorf("unexpected action: %+v", got)
	}
	if string(got.Config) != `{"keys":"cmd+h"}` {
		t.Errorf("unexpected config: %s", got.Config)
	}

	got.Action = "conceal"
	got.Enabled = false
	got.Config = nil
	if err := repo.Update(got); err != nil {
		t.Fatalf("failed to update action: %v", err)
	}

	got, err = repo.GetByID("action-1")
	if err != nil {
		t.Fatalf("failed to get action: %v", err)
	}
	if got.Action != "conceal" || got.Enabled {
		t.Errorf("update not applied: %+v", got)
	}
	if string(got.Config) != "{}" {
		t.Errorf("nil config should be stored as {}, got %s", got.Config)
	}

	if err := repo.Delete("action-1"); err != nil {
		t.Fatalf("failed to delete action: %v", err)
	}
	if _, err := repo.GetByID("action-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestActionRepository_NotFound(t *testing.T) {
	s := newTestStore(t)
	repo := s.Actions()

	if _, err := repo.GetByID("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := repo.Update(&Action{ID: "missing", Action: "reveal"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on update, got %v", err)
	}
	if err := repo.Delete("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on delete, got %v", err)
	}
}

func TestActionRepository_RejectsUnknownAction(t *testing.T) {
	s := newTestStore(t)

	err := s.Actions().Create(&Action{ID: "x", Action: "toggle", PluginName: "p", PluginAction: "a"})
	if err == nil {
		t.Fatal("expected check constraint violation for unknown action")
	}
}

func TestActionRepository_ListEnabled(t *testing.T) {
	s := newTestStore(t)
	repo := s.Actions()

	actions := []*Action{
		{ID: "a", Action: "reveal", PluginName: "p", PluginAction: "one", Enabled: true},
		{ID: "b", Action: "conceal", PluginName: "p", PluginAction: "two", Enabled: true},
		{ID: "c", Action: "reveal", PluginName: "p", PluginAction: "three", Enabled: false},
		{ID: "d", Action: "reveal", PluginName: "p", PluginAction: "four", Enabled: true},
	}
	for _, a := range actions {
		if err := repo.Create(a); err != nil {
			t.Fatalf("failed to create action %s: %v", a.ID, err)
		}
	}

	reveal, err := repo.ListEnabled("reveal")
	if err != nil {
		t.Fatalf("failed to list actions: %v", err)
	}
	if len(reveal) != 2 {
		t.Fatalf("expected 2 enabled reveal actions, got %d", len(reveal))
	}
	if reveal[0].ID != "a" || reveal[1].ID != "d" {
		t.Errorf("expected creation order a, d; got %s, %s", reveal[0].ID, reveal[1].ID)
	}

	all, err := repo.List()
	if err != nil {
		t.Fatalf("failed to list actions: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("expected 4 actions, got %d", len(all))
	}
}
