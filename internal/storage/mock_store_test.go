package storage

import (
	"context"
	"errors"
	"testing"
)

func TestMockStore_CountsCalls(t *testing.T) {
	ctx := context.Background()
	m := NewMockStore()

	if err := m.Put(ctx, &Record{Origin: "x", DependenciesHashed: map[string]string{"x": "1"}}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := m.Get(ctx, "x")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	got.DependenciesHashed["x"] = "mutated"

	again, _ := m.Get(ctx, "x")
	if again.DependenciesHashed["x"] != "1" {
		t.Errorf("stored record was mutated through returned copy")
	}

	calls := m.Calls()
	if calls.Put != 1 || calls.Get != 2 {
		t.Errorf("unexpected calls: %+v", calls)
	}
}

func TestMockStore_PutErr(t *testing.T) {
	m := NewMockStore()
	m.PutErr = errors.New("disk full")
	if err := m.Put(context.Background(), &Record{Origin: "x"}); err == nil {
		t.Fatal("expected injected error")
	}
}

func TestDiscard(t *testing.T) {
	var s Store = Discard{}
	ctx := context.Background()
	if err := s.Put(ctx, &Record{Origin: "x"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, "x"); !IsNotFound(err) {
		t.Errorf("Discard.Get should always miss, got %v", err)
	}
}
