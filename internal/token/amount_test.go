package token

import (
	"encoding/json"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want Amount
		ok   bool
	}{
		{"250", 25000, true},
		{"250.5", 25050, true},
		{"250.00", 25000, true},
		{"0.01", 1, true},
		{"-3.10", -310, true},
		{" 7 ", 700, true},
		{"", 0, false},
		{"abc", 0, false},
		{"1.234", 0, false},
		{"1.", 0, false},
		{".5", 0, false},
		{"1e3", 0, false},
		{"99999999999999999999", 0, false},
	}
	for _, c := range cases {
		got, err := ParseAmount(c.in)
		if (err == nil) != c.ok {
			t.Fatalf("ParseAmount(%q) ok=%v got err=%v", c.in, c.ok, err)
		}
		if c.ok && got != c.want {
			t.Fatalf("ParseAmount(%q) = %d want %d", c.in, got, c.want)
		}
	}
}

func TestAmount_String(t *testing.T) {
	if got := Amount(25000).String(); got != "250.00" {
		t.Fatalf("got %s want 250.00", got)
	}
	if got := Amount(5).String(); got != "0.05" {
		t.Fatalf("got %s want 0.05", got)
	}
	if got := Amount(-310).String(); got != "-3.10" {
		t.Fatalf("got %s want -3.10", got)
	}
}

func TestAmount_JSON(t *testing.T) {
	b, err := json.Marshal(struct {
		A Amount `json:"a"`
	}{Amount(25000)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"a":250.00}` {
		t.Fatalf("got %s", b)
	}

	var out struct {
		A Amount `json:"a"`
	}
	if err := json.Unmarshal([]byte(`{"a":12.5}`), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.A != 1250 {
		t.Fatalf("got %d want 1250", out.A)
	}
	if err := json.Unmarshal([]byte(`{"a":true}`), &out); err == nil {
		t.Fatalf("expected error for boolean amount")
	}
}
