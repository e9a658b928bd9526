package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to the upper-cased TOML key of every field that can
// be overridden from the environment, for example NODEFORMAT_GRID_SIZE.
const EnvPrefix = "NODEFORMAT_"

// Format constants for config files.
const (
	FormatTOML = "toml"
	FormatYAML = "yaml"
)

// FormatForPath infers the config format from a file extension.
func FormatForPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported config extension %q (must be .toml, .yaml or .yml)", filepath.Ext(path))
	}
}

// Load reads a config file on top of [Default], applies environment
// overrides and validates the result. An empty path loads only defaults and
// environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		format, err := FormatForPath(path)
		if err != nil {
			return Config{}, err
		}
		if cfg, err = Parse(data, format); err != nil {
			return Config{}, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes data in the given format on top of [Default]. Keys absent
// from data keep their default values.
func Parse(data []byte, format string) (Config, error) {
	cfg := Default()
	switch format {
	case FormatTOML:
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return Config{}, fmt.Errorf("decode toml: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		return Config{}, fmt.Errorf("unsupported config format %q", format)
	}
	return cfg, nil
}

// Marshal encodes cfg in the given format.
func Marshal(cfg Config, format string) ([]byte, error) {
	switch format {
	case FormatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatYAML:
		return yaml.Marshal(cfg)
	default:
		return nil, fmt.Errorf("unsupported config format %q", format)
	}
}

// ApplyEnv overrides scalar fields from environment variables. lookup is
// usually [os.LookupEnv].
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	floats := map[string]*float64{
		"PADDING_X":                  &cfg.Padding.X,
		"PADDING_Y":                  &cfg.Padding.Y,
		"TRACK_SPACING":              &cfg.TrackSpacing,
		"KNOT_DISTANCE_THRESHOLD":    &cfg.KnotDistanceThreshold,
		"KNOT_NEAR_DISTANCE":         &cfg.KnotNearDistance,
		"GRID_SIZE":                  &cfg.GridSize,
		"HELIXING_HEIGHT_MAX":        &cfg.HelixingHeightMax,
		"SINGLE_HELIXING_HEIGHT_MAX": &cfg.SingleHelixingHeightMax,
	}
	for key, dst := range floats {
		raw, ok := lookup(EnvPrefix + key)
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = v
	}

	bools := map[string]*bool{
		"CENTER_BRANCHES": &cfg.CenterBranches,
		"CREATE_KNOTS":    &cfg.CreateKnots,
		"SNAP_TO_GRID":    &cfg.SnapToGrid,
		"ENABLE_HELIXING": &cfg.EnableHelixing,
		"DEBUG":           &cfg.Debug,
	}
	for key, dst := range bools {
		raw, ok := lookup(EnvPrefix + key)
		if !ok {
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = v
	}

	if raw, ok := lookup(EnvPrefix + "DIRECTION"); ok {
		cfg.Direction = Direction(raw)
	}
	if raw, ok := lookup(EnvPrefix + "FORMAT_ALL_STYLE"); ok {
		cfg.FormatAllStyle = FormatAllStyle(raw)
	}
	return nil
}
