package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// InternalPrefix marks bookkeeping keys that never show up as visible columns.
const InternalPrefix = "__"

// IsInternalKey reports whether key is a bookkeeping key.
func IsInternalKey(key string) bool {
	return strings.HasPrefix(key, InternalPrefix)
}

// Record is an ordered mapping from field name to Value.
// Key order is insertion order; setting an existing key keeps its position.
// The zero Record is empty and ready to use.
type Record struct {
	keys []string
	vals map[string]Value
}

// NewRecord builds a record from alternating key/value pairs.
func NewRecord(pairs ...any) Record {
	var r Record
	for i := 0; i+1 < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			continue
		}
		r.Set(key, FromInterface(pairs[i+1]))
	}
	return r
}

// RecordFromMap converts a plain map. Keys are sorted so the result is
// deterministic.
func RecordFromMap(m map[string]any) Record {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var r Record
	for _, k := range keys {
		r.Set(k, FromInterface(m[k]))
	}
	return r
}

func (r *Record) Set(key string, v Value) {
	if r.vals == nil {
		r.vals = make(map[string]Value)
	}
	if _, exists := r.vals[key]; !exists {
		r.keys = append(r.keys, key)
	}
	r.vals[key] = v
}

// Get returns the value under key, or Null when the key is missing.
func (r Record) Get(key string) Value {
	return r.vals[key]
}

func (r Record) Lookup(key string) (Value, bool) {
	v, ok := r.vals[key]
	return v, ok
}

func (r Record) Has(key string) bool {
	_, ok := r.vals[key]
	return ok
}

// Keys returns a copy of the keys in insertion order.
func (r Record) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

func (r Record) Len() int { return len(r.keys) }

// Delete removes key, keeping the order of the remaining keys.
func (r *Record) Delete(key string) {
	if _, ok := r.vals[key]; !ok {
		return
	}
	delete(r.vals, key)
	for i, k := range r.keys {
		if k == key {
			r.keys = append(r.keys[:i:i], r.keys[i+1:]...)
			break
		}
	}
}

// Clone returns an independent copy.
func (r Record) Clone() Record {
	out := Record{
		keys: make([]string, len(r.keys)),
		vals: make(map[string]Value, len(r.vals)),
	}
	copy(out.keys, r.keys)
	for k, v := range r.vals {
		out.vals[k] = v
	}
	return out
}

// Equal compares keys, key order and values.
func (r Record) Equal(o Record) bool {
	if len(r.keys) != len(o.keys) {
		return false
	}
	for i, k := range r.keys {
		if o.keys[i] != k || !r.vals[k].Equal(o.vals[k]) {
			return false
		}
	}
	return true
}

// Map returns the record as a plain map of Go values.
func (r Record) Map() map[string]any {
	out := make(map[string]any, len(r.keys))
	for _, k := range r.keys {
		out[k] = r.vals[k].Interface()
	}
	return out
}

func (r Record) String() string {
	parts := make([]string, 0, len(r.keys))
	for _, k := range r.keys {
		parts = append(parts, fmt.Sprintf("%s:%#v", k, r.vals[k]))
	}
	return "{" + strings.Join(parts, " ") + "}"
}

func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if err := r.writeJSONFields(&buf, true); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// writeJSONFields writes `"key":value` pairs without the surrounding braces.
func (r Record) writeJSONFields(buf *bytes.Buffer, first bool) error {
	for _, k := range r.keys {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		key, err := json.Marshal(k)
		if err != nil {
			return err
		}
		val, err := r.vals[k].MarshalJSON()
		if err != nil {
			return fmt.Errorf("field %s: %w", k, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	return nil
}

// UnmarshalJSON decodes a JSON object keeping its key order.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("record: expected JSON object, got %v", tok)
	}

	*r = Record{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("record: expected object key, got %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("record: field %s: %w", key, err)
		}
		v, err := valueFromRawJSON(raw)
		if err != nil {
			return fmt.Errorf("record: field %s: %w", key, err)
		}
		r.Set(key, v)
	}
	_, err = dec.Token()
	return err
}

// UnmarshalYAML decodes a YAML mapping keeping its key order.
func (r *Record) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("record: expected mapping at line %d", node.Line)
	}
	*r = Record{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		v, err := valueFromYAML(valNode)
		if err != nil {
			return fmt.Errorf("record: field %s: %w", keyNode.Value, err)
		}
		r.Set(keyNode.Value, v)
	}
	return nil
}

func valueFromYAML(node *yaml.Node) (Value, error) {
	if node.Kind != yaml.ScalarNode {
		var x any
		if err := node.Decode(&x); err != nil {
			return Null(), err
		}
		b, err := json.Marshal(x)
		if err != nil {
			return Null(), err
		}
		return Text(string(b)), nil
	}
	switch node.ShortTag() {
	case "!!null":
		return Null(), nil
	case "!!timestamp":
		// Decoding into any would keep the text form.
		var t time.Time
		if err := node.Decode(&t); err != nil {
			return Null(), err
		}
		return Date(t), nil
	case "!!bool", "!!int", "!!float":
		var x any
		if err := node.Decode(&x); err != nil {
			return Null(), err
		}
		return FromInterface(x), nil
	default:
		return Text(node.Value), nil
	}
}
