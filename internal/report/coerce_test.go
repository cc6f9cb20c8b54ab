// internal/report/coerce_test.go
package report

import (
	"testing"
	"time"
)

func TestAsNumber(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  float64
		ok    bool
	}{
		{name: "float64 passthrough", value: 42.5, want: 42.5, ok: true},
		{name: "int", value: 100, want: 100, ok: true},
		{name: "int64", value: int64(999), want: 999, ok: true},
		{name: "numeric string", value: "25", want: 25, ok: true},
		{name: "decimal string", value: "3.14159", want: 3.14159, ok: true},
		{name: "string with whitespace", value: "  42  ", want: 42, ok: true},
		{name: "negative string", value: "-100", want: -100, ok: true},
		{name: "scientific notation", value: "1e10", want: 1e10, ok: true},
		{name: "non-numeric string", value: "abc", ok: false},
		{name: "empty string", value: "", ok: false},
		{name: "whitespace-only string", value: "   ", ok: false},
		{name: "boolean rejected", value: true, ok: false},
		{name: "nil rejected", value: nil, ok: false},
		{name: "list rejected", value: []any{1.0}, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := asNumber(tt.value)
			if ok != tt.ok {
				t.Fatalf("asNumber(%v) ok = %v, want %v", tt.value, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("asNumber(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestAsBool(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  bool
		ok    bool
	}{
		{name: "bool true", value: true, want: true, ok: true},
		{name: "bool false", value: false, want: false, ok: true},
		{name: "string true", value: "true", want: true, ok: true},
		{name: "string yes", value: "yes", want: true, ok: true},
		{name: "string one", value: "1", want: true, ok: true},
		{name: "uppercase TRUE", value: "TRUE", want: true, ok: true},
		{name: "string false", value: "false", want: false, ok: true},
		{name: "string no", value: "no", want: false, ok: true},
		{name: "string zero", value: "0", want: false, ok: true},
		{name: "empty string is false", value: "", want: false, ok: true},
		{name: "missing value is false", value: nil, want: false, ok: true},
		{name: "number one", value: 1.0, want: true, ok: true},
		{name: "number zero", value: 0.0, want: false, ok: true},
		{name: "unrecognized string", value: "maybe", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := asBool(tt.value)
			if ok != tt.ok {
				t.Fatalf("asBool(%v) ok = %v, want %v", tt.value, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("asBool(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestAsTime(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  time.Time
		ok    bool
	}{
		{
			name:  "RFC3339",
			value: "2026-03-15T10:30:00Z",
			want:  time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC),
			ok:    true,
		},
		{
			name:  "date only",
			value: "2026-03-15",
			want:  time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
			ok:    true,
		},
		{
			name:  "slash format",
			value: "03/15/2026",
			want:  time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
			ok:    true,
		},
		{name: "garbage string", value: "not a date", ok: false},
		{name: "empty string", value: "", ok: false},
		{name: "nil", value: nil, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := asTime(tt.value)
			if ok != tt.ok {
				t.Fatalf("asTime(%v) ok = %v, want %v", tt.value, ok, tt.ok)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("asTime(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestStringify(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{name: "nil", value: nil, want: ""},
		{name: "string", value: "Done", want: "Done"},
		{name: "float drops trailing zeros", value: 42.0, want: "42"},
		{name: "decimal", value: 3.5, want: "3.5"},
		{name: "bool", value: true, want: "true"},
		{name: "list joins with comma", value: []any{"a", "b"}, want: "a,b"},
		{name: "string slice", value: []string{"x", "y"}, want: "x,y"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stringify(tt.value); got != tt.want {
				t.Errorf("stringify(%v) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestValueList(t *testing.T) {
	if got := valueList(nil); len(got) != 0 {
		t.Errorf("valueList(nil) = %v, want empty", got)
	}
	if got := valueList("x"); len(got) != 1 || got[0] != "x" {
		t.Errorf("valueList(scalar) = %v, want single element", got)
	}
	if got := valueList([]any{"a", "b"}); len(got) != 2 {
		t.Errorf("valueList(list) = %v, want 2 elements", got)
	}
}
