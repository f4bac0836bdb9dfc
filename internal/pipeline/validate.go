package pipeline

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"go-pivot-table/internal/model"
	"go-pivot-table/internal/pivot"
)

var (
	// ErrInvalidSpec wraps every spec problem outside the pivot config
	ErrInvalidSpec = errors.New("invalid report spec")
	// ErrNoData is returned for a spec with neither sources nor inline rows
	ErrNoData = fmt.Errorf("%w: no sources and no rows", ErrInvalidSpec)
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidSpec, fmt.Sprintf(format, args...))
}

// ValidateSpec checks a report spec before anything is loaded. Pivot config
// problems come back as *pivot.ConfigError.
func ValidateSpec(spec model.ReportSpec) error {
	if len(spec.Sources) == 0 && len(spec.Rows) == 0 {
		return ErrNoData
	}

	for i, src := range spec.Sources {
		if err := validateSource(src); err != nil {
			return invalid("sources[%d]: %v", i, err)
		}
	}

	for _, t := range spec.Transformations {
		if !slices.Contains(Transformations, t) {
			return invalid("unknown transformation: %s", t)
		}
	}

	if spec.Export != nil {
		if spec.Export.File == "" {
			return invalid("export: file is required")
		}
		if _, err := exportFormat(spec.Export); err != nil {
			return invalid("export: %v", err)
		}
	}

	if spec.Timeout != "" {
		if d, err := time.ParseDuration(spec.Timeout); err != nil || d <= 0 {
			return invalid("timeout %q", spec.Timeout)
		}
	}

	return pivot.Validate(spec.Pivot)
}

func validateSource(src model.Source) error {
	if src.URL == "" {
		return fmt.Errorf("url is required")
	}
	switch strings.ToLower(src.Type) {
	case "csv", "json", "api":
		return nil
	case "sql":
		if src.Query == "" {
			return fmt.Errorf("sql source needs a query")
		}
		_, err := sqlDriver(src.Driver)
		return err
	default:
		return fmt.Errorf("unknown source type: %s", src.Type)
	}
}
