package pivot

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"go-pivot-table/internal/model"
)

func TestEncodeDecodeKey(t *testing.T) {
	tests := []struct {
		combination []string
		label       string
		key         string
	}{
		{[]string{"Q1"}, "sales", "Q1__sales"},
		{[]string{"Q1", "North"}, "sales", "Q1__North__sales"},
		{[]string{"Q1", ""}, "Total Sales", "Q1__(blank)__Total Sales"},
		{[]string{"2024"}, "avg__price", "2024__avg__price"},
		{[]string{"(blank)"}, "v", `\(blank)__v`},
		{[]string{"__x"}, "v", `\\.\.x__v`},
		{[]string{"north_", "_east"}, "v", `\north\.__\\.east__v`},
		{[]string{"a__b", `\dir`}, "v", `\a\.\.b__\\\dir__v`},
		{[]string{"north_east"}, "v", "north_east__v"},
	}
	for _, tt := range tests {
		key := EncodeKey(tt.combination, tt.label)
		if key != tt.key {
			t.Errorf("EncodeKey(%v, %q) = %q, want %q", tt.combination, tt.label, key, tt.key)
		}
		got, err := DecodeKey(key, len(tt.combination))
		if err != nil {
			t.Fatalf("DecodeKey(%q): %v", key, err)
		}
		want := ColumnKey{Combination: tt.combination, Label: tt.label}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("DecodeKey(%q) mismatch (-want +got):\n%s", key, diff)
		}
	}
}

func TestEncodeKeyWithoutColumns(t *testing.T) {
	if got := EncodeKey(nil, "qty"); got != "qty" {
		t.Errorf("EncodeKey(nil) = %q, want bare label", got)
	}
	got, err := DecodeKey("qty", 0)
	if err != nil || got.Label != "qty" || got.Combination != nil {
		t.Errorf("DecodeKey(qty, 0) = %+v, %v", got, err)
	}
}

func TestDecodeKeyMalformed(t *testing.T) {
	_, err := DecodeKey("Q1__sales", 2)
	if !errors.Is(err, ErrMalformedKey) {
		t.Errorf("err = %v, want ErrMalformedKey", err)
	}
}

func TestTotalKey(t *testing.T) {
	if got := TotalKey("sales"); got != "__total_sales" {
		t.Errorf("TotalKey = %q", got)
	}
}

func TestEncodeKeyIsInjective(t *testing.T) {
	values := []string{"", "(blank)", `\(blank)`, "__x", `\\.\.x`, "_", "x_", "a__b", `\`, `\\`, "Q1"}
	seen := make(map[string]string)
	for _, v := range values {
		key := EncodeKey([]string{v}, "v")
		if prev, ok := seen[key]; ok {
			t.Errorf("%q and %q share key %q", prev, v, key)
		}
		seen[key] = v
		if model.IsInternalKey(key) {
			t.Errorf("key %q for %q reads as bookkeeping", key, v)
		}
		got, err := DecodeKey(key, 1)
		if err != nil || got.Combination[0] != v {
			t.Errorf("DecodeKey(%q) = %+v, %v; want %q", key, got, err, v)
		}
	}
}

func TestDecodeKeyBadEscape(t *testing.T) {
	for _, key := range []string{`\a\__v`, `\a\x__v`} {
		if _, err := DecodeKey(key, 1); !errors.Is(err, ErrMalformedKey) {
			t.Errorf("DecodeKey(%q): err = %v, want ErrMalformedKey", key, err)
		}
	}
}
