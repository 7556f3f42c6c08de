package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// BudgetEntry is the raw amount text typed for one room.
type BudgetEntry struct {
	Room   string
	Amount string
}

// Budgets maps room names to raw amount text. Iteration and JSON encoding
// follow insertion order; overwriting a room keeps its original position.
// The zero value is an empty, usable mapping.
type Budgets struct {
	rooms  []string
	amount map[string]string
}

// NewBudgets builds a mapping from entries, in order.
func NewBudgets(entries ...BudgetEntry) Budgets {
	var b Budgets
	for _, e := range entries {
		b.Set(e.Room, e.Amount)
	}
	return b
}

// Set stores the amount text for room.
func (b *Budgets) Set(room, amount string) {
	if b.amount == nil {
		b.amount = make(map[string]string)
	}
	if _, ok := b.amount[room]; !ok {
		b.rooms = append(b.rooms, room)
	}
	b.amount[room] = amount
}

// Get returns the amount text for room.
func (b Budgets) Get(room string) (string, bool) {
	v, ok := b.amount[room]
	return v, ok
}

// Delete drops room from the mapping and reports whether it was present.
func (b *Budgets) Delete(room string) bool {
	if _, ok := b.amount[room]; !ok {
		return false
	}
	delete(b.amount, room)
	for i, r := range b.rooms {
		if r == room {
			b.rooms = append(b.rooms[:i:i], b.rooms[i+1:]...)
			break
		}
	}
	return true
}

// Len returns the number of rooms with an amount.
func (b Budgets) Len() int { return len(b.rooms) }

// Entries returns a copy of the mapping in insertion order.
func (b Budgets) Entries() []BudgetEntry {
	out := make([]BudgetEntry, 0, len(b.rooms))
	for _, r := range b.rooms {
		out = append(out, BudgetEntry{Room: r, Amount: b.amount[r]})
	}
	return out
}

// Clone returns an independent copy.
func (b Budgets) Clone() Budgets {
	return NewBudgets(b.Entries()...)
}

// EncodeJSON encodes v without escaping <, > and &, so stored text keeps
// the characters exactly as typed.
func EncodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// MarshalJSON encodes the mapping as a JSON object in insertion order.
func (b Budgets) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, r := range b.rooms {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := EncodeJSON(r)
		if err != nil {
			return nil, err
		}
		v, err := EncodeJSON(b.amount[r])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, keeping key order. Non-string values
// keep their literal text so numbers written by older clients still total.
func (b *Budgets) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*b = Budgets{}
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("budgets: expected object, got %v", tok)
	}

	var out Budgets
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		room, ok := kt.(string)
		if !ok {
			return fmt.Errorf("budgets: unexpected key %v", kt)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("budgets: value for %q: %w", room, err)
		}
		out.Set(room, amountText(raw))
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*b = out
	return nil
}

func amountText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	switch {
	case len(raw) == 0, bytes.Equal(raw, []byte("null")):
		return ""
	case raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}
