package pivot

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"go-pivot-table/internal/model"
)

// ============================================================================
// FIELD DISCOVERY
// ============================================================================
// Metadata support for configuration front-ends: one entry per observed
// key, typed by the first sample value for that key.
// ============================================================================

// Field types reported by DiscoverFields.
const (
	FieldNumber  = "number"
	FieldDate    = "date"
	FieldBoolean = "boolean"
	FieldString  = "string"
)

// Field describes one key observed in a sample of raw rows.
type Field struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

// DiscoverFields lists the keys of sample in first-seen order. A key's type
// comes from the first row's value for it; keys missing from the first row
// are typed by the first row that carries them. Bookkeeping keys are skipped.
func DiscoverFields(sample []model.Record) []Field {
	caser := cases.Title(language.Und)
	seen := make(map[string]bool)
	fields := make([]Field, 0)

	for _, r := range sample {
		for _, key := range r.Keys() {
			if seen[key] || model.IsInternalKey(key) {
				continue
			}
			seen[key] = true
			fields = append(fields, Field{
				Name:  key,
				Label: displayLabel(caser, key),
				Type:  fieldType(r.Get(key)),
			})
		}
	}
	return fields
}

func fieldType(v model.Value) string {
	switch v.Kind() {
	case model.KindNumber:
		return FieldNumber
	case model.KindDate:
		return FieldDate
	case model.KindBool:
		return FieldBoolean
	default:
		return FieldString
	}
}

// displayLabel turns "unit_price" or "unitPrice" into "Unit Price".
func displayLabel(caser cases.Caser, key string) string {
	var sb strings.Builder
	prev := rune(0)
	for _, r := range key {
		switch {
		case r == '_' || r == '-':
			sb.WriteRune(' ')
		case unicode.IsUpper(r) && (unicode.IsLower(prev) || unicode.IsDigit(prev)):
			sb.WriteRune(' ')
			sb.WriteRune(r)
		default:
			sb.WriteRune(r)
		}
		prev = r
	}
	return caser.String(strings.Join(strings.Fields(sb.String()), " "))
}
