package dashboard

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config groups the tunables of the layout engine. Zero fields mean default.
type Config struct {
	Grid           GridOptions       `json:"grid" yaml:"grid"`
	AutoHeight     AutoHeightOptions `json:"auto_height" yaml:"auto_height"`
	ResultCacheTTL time.Duration     `json:"result_cache_ttl" yaml:"result_cache_ttl"`
	// SlugRetries bounds how many suffixed slugs are tried after a collision.
	SlugRetries int `json:"slug_retries" yaml:"slug_retries"`
}

// DefaultConfig returns the stock grid and auto-height constants.
func DefaultConfig() Config {
	return Config{
		Grid:        DefaultGridOptions(),
		AutoHeight:  DefaultAutoHeightOptions(),
		SlugRetries: 20,
	}
}

// normalized fills every zero field from DefaultConfig, so a partial struct
// keeps the stock margin and chrome.
func (c Config) normalized() Config {
	c.Grid = c.Grid.normalized()
	c.AutoHeight = c.AutoHeight.normalized()
	if c.SlugRetries <= 0 {
		c.SlugRetries = DefaultConfig().SlugRetries
	}
	return c
}

// DecodeConfig reads a YAML config on top of DefaultConfig. Unknown keys are rejected.
func DecodeConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		if err == io.EOF {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("dashboard: parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg.normalized(), nil
}

// LoadConfig reads a YAML config file.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return Config{}, fmt.Errorf("dashboard: open config %s: %w", path, err)
	}
	defer f.Close()
	return DecodeConfig(f)
}

// Validate rejects settings the grid cannot honor.
func (c Config) Validate() error {
	if c.Grid.Columns < 0 || c.Grid.RowHeight < 0 || c.Grid.Margin < 0 {
		return fmt.Errorf("dashboard: grid metrics must not be negative")
	}
	if c.Grid.Columns > 0 && (c.Grid.DefaultWidth > c.Grid.Columns || c.Grid.TextboxWidth > c.Grid.Columns) {
		return fmt.Errorf("dashboard: default widths must fit in %d columns", c.Grid.Columns)
	}
	if c.AutoHeight.RowPixels < 0 || c.AutoHeight.MaxRows < 0 {
		return fmt.Errorf("dashboard: auto height settings must not be negative")
	}
	if c.ResultCacheTTL < 0 {
		return fmt.Errorf("dashboard: result cache ttl must not be negative")
	}
	return nil
}
