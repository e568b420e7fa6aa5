// Package config loads table-building parameters from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/erinpentecost/tilecdt/internal/cdt"
	"gopkg.in/yaml.v3"
)

// Params is everything a build needs beyond the input path.
type Params struct {
	GridSize     int     `yaml:"grid_size"`
	Bins         int     `yaml:"bins"`
	ClipStrength float32 `yaml:"clip_strength"`
	ValueChannel int     `yaml:"value_channel"`
	Workers      int     `yaml:"workers"`
	// AnalysisSize caps the longest image side before binning. 0 keeps the
	// full resolution.
	AnalysisSize int `yaml:"analysis_size"`
	// OutputFormat is the extension used for outputs in batch mode.
	OutputFormat string `yaml:"output_format"`
	// Compress wraps .tcdt outputs in zstd.
	Compress bool `yaml:"compress"`
}

func Default() Params {
	c := cdt.DefaultConfig()
	return Params{
		GridSize:     c.GridSize,
		Bins:         c.Bins,
		ClipStrength: c.ClipStrength,
		ValueChannel: c.ValueChannel,
		Workers:      c.Workers,
		OutputFormat: ".tcdt",
	}
}

// CDT returns the builder configuration for p.
func (p Params) CDT() cdt.Config {
	return cdt.Config{
		GridSize:     p.GridSize,
		Bins:         p.Bins,
		ClipStrength: p.ClipStrength,
		ValueChannel: p.ValueChannel,
		Workers:      p.Workers,
	}
}

func (p Params) Validate() error {
	if err := p.CDT().Validate(); err != nil {
		return err
	}
	if p.AnalysisSize < 0 {
		return fmt.Errorf("analysis size %d: %w", p.AnalysisSize, cdt.ErrInvalidConfig)
	}
	return nil
}

// Parse reads YAML from r on top of Default. Unknown keys are an error.
func Parse(r io.Reader) (Params, error) {
	p := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return Params{}, fmt.Errorf("decode params: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

// Load reads the parameter file at path. An empty path yields Default.
func Load(path string) (Params, error) {
	if path == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Params{}, fmt.Errorf("read %q: %w", path, err)
	}
	p, err := Parse(bytes.NewReader(raw))
	if err != nil {
		return Params{}, fmt.Errorf("load %q: %w", path, err)
	}
	return p, nil
}

// Marshal renders p as YAML, suitable for Parse.
func Marshal(p Params) ([]byte, error) {
	return yaml.Marshal(p)
}
