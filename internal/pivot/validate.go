package pivot

import (
	"errors"
	"fmt"

	"go-pivot-table/internal/model"
)

var (
	ErrUnknownAggregation = errors.New("unknown aggregation")
	ErrEmptyValueFields   = errors.New("at least one value field is required")
	ErrEmptyFieldName     = errors.New("field name is required")
)

// ConfigError identifies the configuration field that failed validation.
type ConfigError struct {
	Field string // e.g. "valueFields[1].aggregation"
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid pivot config: %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Validate checks a config before any data is touched.
func Validate(cfg model.PivotConfig) error {
	if len(cfg.ValueFields) == 0 {
		return &ConfigError{Field: "valueFields", Err: ErrEmptyValueFields}
	}
	for i, f := range cfg.RowFields {
		if f == "" {
			return &ConfigError{Field: fmt.Sprintf("rowFields[%d]", i), Err: ErrEmptyFieldName}
		}
	}
	for i, f := range cfg.ColumnFields {
		if f == "" {
			return &ConfigError{Field: fmt.Sprintf("columnFields[%d]", i), Err: ErrEmptyFieldName}
		}
	}
	for i, vf := range cfg.ValueFields {
		if vf.Field == "" {
			return &ConfigError{Field: fmt.Sprintf("valueFields[%d].field", i), Err: ErrEmptyFieldName}
		}
		if _, err := AggregationOf(vf.Aggregation); err != nil {
			return &ConfigError{Field: fmt.Sprintf("valueFields[%d].aggregation", i), Err: err}
		}
	}
	return nil
}
