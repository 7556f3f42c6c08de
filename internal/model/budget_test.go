package model

import (
	"encoding/json"
	"testing"
)

func TestBudgetsJSONKeepsInsertionOrder(t *testing.T) {
	var b Budgets
	b.Set("Room 2", "10")
	b.Set("Room 1", "")
	b.Set("Suite", "5.5")
	b.Set("Room 2", "12") // overwrite keeps position

	data, err := json.Marshal(b)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"Room 2":"12","Room 1":"","Suite":"5.5"}`
	if string(data) != want {
		t.Fatalf("Marshal = %s, want %s", data, want)
	}

	var back Budgets
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	got := back.Entries()
	if len(got) != 3 || got[0].Room != "Room 2" || got[1].Room != "Room 1" || got[2].Room != "Suite" {
		t.Fatalf("round trip order = %+v", got)
	}
}

func TestBudgetsUnmarshalNonStringValues(t *testing.T) {
	var b Budgets
	if err := json.Unmarshal([]byte(`{"A": 10, "B": null, "C": "x"}`), &b); err != nil {
		t.Fatal(err)
	}
	tests := map[string]string{"A": "10", "B": "", "C": "x"}
	for room, want := range tests {
		if got, _ := b.Get(room); got != want {
			t.Errorf("Get(%q) = %q, want %q", room, got, want)
		}
	}
}

func TestBudgetsUnmarshalRejectsArray(t *testing.T) {
	var b Budgets
	if err := json.Unmarshal([]byte(`["A"]`), &b); err == nil {
		t.Fatal("expected error for array input")
	}
}

func TestBudgetsDelete(t *testing.T) {
	b := NewBudgets(BudgetEntry{"A", "1"}, BudgetEntry{"B", "2"}, BudgetEntry{"C", "3"})
	clone := b.Clone()

	if !b.Delete("B") {
		t.Fatal("Delete(B) = false, want true")
	}
	if b.Delete("missing") {
		t.Fatal("Delete(missing) = true, want false")
	}
	if b.Len() != 2 {
		t.Fatalf("Len = %d, want 2", b.Len())
	}
	if clone.Len() != 3 {
		t.Fatalf("clone changed: Len = %d, want 3", clone.Len())
	}
	entries := b.Entries()
	if entries[0].Room != "A" || entries[1].Room != "C" {
		t.Fatalf("entries after delete = %+v", entries)
	}
}

func TestEncodeJSONKeepsMarkupCharacters(t *testing.T) {
	b := NewBudgets(BudgetEntry{Room: "<x>", Amount: "1&2"})

	data, err := EncodeJSON(b)
	if err != nil {
		t.Fatal(err)
	}
	if want := `{"<x>":"1&2"}`; string(data) != want {
		t.Fatalf("EncodeJSON = %s, want %s", data, want)
	}

	data, err = EncodeJSON([]string{"A & B"})
	if err != nil {
		t.Fatal(err)
	}
	if want := `["A & B"]`; string(data) != want {
		t.Fatalf("EncodeJSON = %s, want %s", data, want)
	}
}
