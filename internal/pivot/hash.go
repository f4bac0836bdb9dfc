package pivot

import (
	"encoding/json"
	"strconv"
	"strings"
	"unicode/utf16"

	"go-pivot-table/internal/model"
)

// ConfigHash derives a short memoization key from every config field that
// affects output. It is a 32-bit djb2-xor hash rendered in base 36: a
// heuristic cache key, not a content hash, and collisions are possible.
func ConfigHash(cfg model.PivotConfig) string {
	return hashString(canonicalConfig(cfg))
}

// canonicalConfig renders cfg as
// r:<rows>|c:<cols>|v:<field:agg:display,...>|o:<flags>[|f:<filters>].
func canonicalConfig(cfg model.PivotConfig) string {
	var sb strings.Builder
	sb.WriteString("r:")
	sb.WriteString(strings.Join(cfg.RowFields, ","))
	sb.WriteString("|c:")
	sb.WriteString(strings.Join(cfg.ColumnFields, ","))
	sb.WriteString("|v:")
	for i, vf := range cfg.ValueFields {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(vf.Field)
		sb.WriteByte(':')
		sb.WriteString(string(vf.Aggregation))
		sb.WriteByte(':')
		sb.WriteString(vf.DisplayName)
	}
	sb.WriteString("|o:")
	for _, flag := range []bool{
		cfg.Options.ShowRowTotals,
		cfg.Options.ShowColumnTotals,
		cfg.Options.ShowGrandTotal,
		cfg.Options.ExpandedByDefault,
	} {
		if flag {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	if len(cfg.Filters) > 0 {
		// encoding/json sorts map keys, which makes the form canonical.
		if b, err := json.Marshal(cfg.Filters); err == nil {
			sb.WriteString("|f:")
			sb.Write(b)
		}
	}
	return sb.String()
}

// hashString runs hash = ((hash << 5) + hash) ^ c over UTF-16 code units.
func hashString(s string) string {
	var h uint32 = 5381
	for _, c := range utf16.Encode([]rune(s)) {
		h = ((h << 5) + h) ^ uint32(c)
	}
	return strconv.FormatUint(uint64(h), 36)
}
