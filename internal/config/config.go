// Package config loads service settings (viper) and report spec files
// (YAML or JSON).
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go-pivot-table/internal/model"
	"go-pivot-table/internal/pivot"
	"go-pivot-table/pkg/utils"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. PIVOT_ADDR
const EnvPrefix = "PIVOT"

// Config holds the service settings
type Config struct {
	Addr       string
	DBPath     string
	CacheSize  int
	ExportDir  string
	JobTimeout time.Duration
	Workers    int
}

// SetDefaults registers the default of every key on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":8080")
	v.SetDefault("db_path", "pivot.db")
	v.SetDefault("cache_size", pivot.DefaultCacheSize)
	v.SetDefault("export_dir", "exports")
	v.SetDefault("job_timeout", utils.DefaultTimeout.String())
	v.SetDefault("workers", 4)
}

// Load reads settings from defaults, then configFile (or pivot.yaml in . or
// $HOME/.pivot when empty), then PIVOT_* environment variables. A missing
// default config file is not an error.
func Load(v *viper.Viper, configFile string) (Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("pivot")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.pivot")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := Config{
		Addr:       v.GetString("addr"),
		DBPath:     v.GetString("db_path"),
		CacheSize:  v.GetInt("cache_size"),
		ExportDir:  v.GetString("export_dir"),
		JobTimeout: utils.ParseDuration(v.GetString("job_timeout")),
		Workers:    v.GetInt("workers"),
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = pivot.DefaultCacheSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return cfg, nil
}

// LoadReportSpec reads a report spec file; .json files are JSON, anything
// else is YAML.
func LoadReportSpec(path string) (model.ReportSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.ReportSpec{}, err
	}

	format := "yaml"
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = "json"
	}
	spec, err := DecodeReportSpec(data, format)
	if err != nil {
		return model.ReportSpec{}, fmt.Errorf("%s: %w", path, err)
	}
	if spec.Name == "" {
		spec.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return spec, nil
}

// DecodeReportSpec parses a spec in "json" or "yaml". Unknown keys are
// rejected so typos in field names surface early.
func DecodeReportSpec(data []byte, format string) (model.ReportSpec, error) {
	var spec model.ReportSpec
	switch format {
	case "json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&spec); err != nil {
			return spec, fmt.Errorf("decode json spec: %w", err)
		}
	case "yaml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&spec); err != nil {
			return spec, fmt.Errorf("decode yaml spec: %w", err)
		}
	default:
		return spec, fmt.Errorf("unsupported spec format: %s", format)
	}
	return spec, nil
}
