package pivot

import (
	"errors"
	"fmt"
	"strings"

	"go-pivot-table/internal/model"
)

// KeyDelimiter joins combination values and the value-field label into a
// pivoted cell key: "Q1__North__sales".
const KeyDelimiter = "__"

// TotalKeyPrefix prefixes row-total cells: "__total_sales".
const TotalKeyPrefix = model.InternalPrefix + "total_"

// BlankSegment stands in for an empty combination value so that a key
// never starts with the bookkeeping prefix.
const BlankSegment = "(blank)"

// escapeMark starts an escaped segment: the value with `\` doubled and `_`
// written as `\.`. An escaped segment holds no underscore, so it cannot
// read as bookkeeping or split on KeyDelimiter, and it never equals
// BlankSegment.
const escapeMark = `\`

var ErrMalformedKey = errors.New("malformed column key")

// ColumnKey is a decoded pivoted cell key.
type ColumnKey struct {
	Combination []string
	Label       string
}

// EncodeKey builds the cell key for a combination and a value-field label.
// An empty combination yields the bare label.
func EncodeKey(combination []string, label string) string {
	if len(combination) == 0 {
		return label
	}
	parts := make([]string, 0, len(combination)+1)
	for _, v := range combination {
		parts = append(parts, encodeSegment(v))
	}
	parts = append(parts, label)
	return strings.Join(parts, KeyDelimiter)
}

// DecodeKey splits a cell key built for columnFieldCount column fields and
// reverses the segment encoding. The label keeps any delimiter it contains.
func DecodeKey(key string, columnFieldCount int) (ColumnKey, error) {
	if columnFieldCount <= 0 {
		return ColumnKey{Label: key}, nil
	}
	parts := strings.SplitN(key, KeyDelimiter, columnFieldCount+1)
	if len(parts) != columnFieldCount+1 {
		return ColumnKey{}, fmt.Errorf("%w: %q has %d parts, want %d", ErrMalformedKey, key, len(parts), columnFieldCount+1)
	}
	combination := make([]string, columnFieldCount)
	for i, seg := range parts[:columnFieldCount] {
		v, err := decodeSegment(seg)
		if err != nil {
			return ColumnKey{}, fmt.Errorf("%w: %q: %v", ErrMalformedKey, key, err)
		}
		combination[i] = v
	}
	return ColumnKey{Combination: combination, Label: parts[columnFieldCount]}, nil
}

// TotalKey is the row-total cell key for a value-field label.
func TotalKey(label string) string {
	return TotalKeyPrefix + label
}

func needsEscape(v string) bool {
	return v == BlankSegment ||
		strings.HasPrefix(v, escapeMark) ||
		strings.HasPrefix(v, "_") ||
		strings.HasSuffix(v, "_") ||
		strings.Contains(v, KeyDelimiter)
}

func encodeSegment(v string) string {
	switch {
	case v == "":
		return BlankSegment
	case !needsEscape(v):
		return v
	}
	var sb strings.Builder
	sb.WriteString(escapeMark)
	for _, r := range v {
		switch r {
		case '\\':
			sb.WriteString(`\\`)
		case '_':
			sb.WriteString(`\.`)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func decodeSegment(seg string) (string, error) {
	if seg == BlankSegment {
		return "", nil
	}
	body, escaped := strings.CutPrefix(seg, escapeMark)
	if !escaped {
		return seg, nil
	}
	var sb strings.Builder
	for i := 0; i < len(body); i++ {
		if body[i] != '\\' {
			sb.WriteByte(body[i])
			continue
		}
		if i+1 == len(body) {
			return "", errors.New("dangling escape")
		}
		i++
		switch body[i] {
		case '\\':
			sb.WriteByte('\\')
		case '.':
			sb.WriteByte('_')
		default:
			return "", fmt.Errorf("bad escape %q", body[i-1:i+1])
		}
	}
	return sb.String(), nil
}
