package models

import "testing"

func TestProvisionalIDs(t *testing.T) {
	first := NewProvisionalID()
	second := NewProvisionalID()

	if first == second {
		t.Fatal("provisional ids must be unique")
	}
	if !IsProvisionalID(first) {
		t.Fatalf("%s not recognized as provisional", first)
	}
	if IsProvisionalID("64f1c2") || IsProvisionalID("") {
		t.Fatal("durable id recognized as provisional")
	}
}

func TestDisplayName(t *testing.T) {
	u := User{Username: "alice"}
	if u.DisplayName() != "alice" {
		t.Fatalf("expected username fallback, got %s", u.DisplayName())
	}
	u.Name = "Alice K"
	if u.DisplayName() != "Alice K" {
		t.Fatalf("expected name, got %s", u.DisplayName())
	}
}
