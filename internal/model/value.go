package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindNumber
	KindText
	KindBool
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindText:
		return "string"
	case KindBool:
		return "boolean"
	case KindDate:
		return "date"
	default:
		return "null"
	}
}

// Value is a single scalar cell: Null, Number, Text, Bool or Date.
// The zero Value is Null.
type Value struct {
	kind Kind
	num  float64
	str  string
	b    bool
	t    time.Time
}

func Null() Value { return Value{} }
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }
func Text(s string) Value { return Value{kind: KindText, str: s} }
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }
func Date(t time.Time) Value { return Value{kind: KindDate, t: t} }
func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }
func (v Value) IsNumber() bool { return v.kind == KindNumber }

// Float coerces the value to a number. The second result is false when the
// value has no numeric reading (null, non-numeric text, NaN).
func (v Value) Float() (float64, bool) {
	var f float64
	switch v.kind {
	case KindNumber:
		f = v.num
	case KindText:
		s := strings.TrimSpace(v.str)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case KindBool:
		if v.b {
			f = 1
		}
	case KindDate:
		f = float64(v.t.UnixMilli())
	default:
		return 0, false
	}
	if math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// String is the string coercion used for grouping keys and CSV cells.
// Null becomes the empty string.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return FormatNumber(v.num)
	case KindText:
		return v.str
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindDate:
		return v.t.Format(time.RFC3339Nano)
	default:
		return ""
	}
}

// Interface returns the Go value held: nil, float64, string, bool or time.Time.
func (v Value) Interface() any {
	switch v.kind {
	case KindNumber:
		return v.num
	case KindText:
		return v.str
	case KindBool:
		return v.b
	case KindDate:
		return v.t
	default:
		return nil
	}
}

// Equal reports whether two values hold the same variant and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		return v.num == o.num
	case KindText:
		return v.str == o.str
	case KindBool:
		return v.b == o.b
	case KindDate:
		return v.t.Equal(o.t)
	default:
		return true
	}
}

func (v Value) GoString() string {
	if v.kind == KindNull {
		return "null"
	}
	return fmt.Sprintf("%s(%s)", v.kind, v.String())
}

// FromInterface converts a decoded JSON value, a database/sql scan target or
// a plain Go scalar into a Value.
func FromInterface(x any) Value {
	switch t := x.(type) {
	case nil:
		return Null()
	case Value:
		return t
	case float64:
		return Number(t)
	case float32:
		return Number(float64(t))
	case int:
		return Number(float64(t))
	case int8:
		return Number(float64(t))
	case int16:
		return Number(float64(t))
	case int32:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case uint:
		return Number(float64(t))
	case uint8:
		return Number(float64(t))
	case uint16:
		return Number(float64(t))
	case uint32:
		return Number(float64(t))
	case uint64:
		return Number(float64(t))
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return Number(f)
		}
		return Text(t.String())
	case string:
		return Text(t)
	case []byte:
		return Text(string(t))
	case bool:
		return Bool(t)
	case time.Time:
		return Date(t)
	default:
		return Text(fmt.Sprint(t))
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		if math.IsInf(v.num, 0) || math.IsNaN(v.num) {
			return []byte("null"), nil
		}
		return []byte(FormatNumber(v.num)), nil
	case KindDate:
		return json.Marshal(v.t.Format(time.RFC3339Nano))
	default:
		return json.Marshal(v.Interface())
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := valueFromRawJSON(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// valueFromRawJSON decodes one JSON value. Objects and arrays are kept as
// their raw JSON text.
func valueFromRawJSON(raw []byte) (Value, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return Null(), fmt.Errorf("empty JSON value")
	}
	switch trimmed[0] {
	case 'n':
		return Null(), nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal([]byte(trimmed), &b); err != nil {
			return Null(), err
		}
		return Bool(b), nil
	case '"':
		var s string
		if err := json.Unmarshal([]byte(trimmed), &s); err != nil {
			return Null(), err
		}
		return Text(s), nil
	case '{', '[':
		return Text(trimmed), nil
	default:
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return Null(), fmt.Errorf("invalid JSON number %q: %w", trimmed, err)
		}
		return Number(f), nil
	}
}

// FormatNumber renders a float in its shortest decimal form ("15", "2.5").
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
