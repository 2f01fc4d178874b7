package chat

import "testing"

func TestReactionStore_Add(t *testing.T) {
	s := NewReactionStore()

	if !s.Add("m1", "👍", "conn1") {
		t.Error("Add() = false, want true for first reaction")
	}
	if s.Add("m1", "👍", "conn1") {
		t.Error("Add() = true, want false for duplicate (idempotent)")
	}
	if !s.Add("m1", "👍", "conn2") {
		t.Error("Add() = false, want true for second user")
	}
	if !s.Add("m1", "🎉", "conn1") {
		t.Error("Add() = false, want true for second kind")
	}
}

func TestReactionStore_Reactions(t *testing.T) {
	s := NewReactionStore()
	s.Add("m1", "👍", "conn2")
	s.Add("m1", "👍", "conn1")
	s.Add("m1", "🎉", "conn3")
	s.Add("m2", "👍", "conn1")

	got := s.Reactions("m1")
	if len(got) != 2 {
		t.Fatalf("Reactions() kinds = %d, want 2", len(got))
	}

	thumbs := got["👍"]
	want := []string{"conn1", "conn2"}
	if len(thumbs) != len(want) {
		t.Fatalf("Reactions()[👍] count = %d, want %d", len(thumbs), len(want))
	}
	for i, id := range want {
		if thumbs[i] != id {
			t.Errorf("Reactions()[👍][%d] = %q, want %q (sorted)", i, thumbs[i], id)
		}
	}

	if got := s.Reactions("nonexistent"); len(got) != 0 {
		t.Errorf("Reactions() kinds = %d, want 0 for unknown message", len(got))
	}
}

func TestReactionStore_DoubleAddDoesNotGrow(t *testing.T) {
	s := NewReactionStore()
	s.Add("m1", "👍", "conn1")
	s.Add("m1", "👍", "conn1")

	if got := s.Reactions("m1")["👍"]; len(got) != 1 {
		t.Errorf("Reactions()[👍] count = %d, want 1 after double add", len(got))
	}
}
