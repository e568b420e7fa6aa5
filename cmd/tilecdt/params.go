package main

import (
	"github.com/erinpentecost/tilecdt/internal/config"
	"github.com/spf13/pflag"
)

// paramFlags are the table parameters shared by every building command.
// Flags that were set explicitly override the config file.
type paramFlags struct {
	configPath   string
	gridSize     int
	bins         int
	clipStrength float32
	workers      int
	analysisSize int
	compress     bool
}

func (p *paramFlags) register(fl *pflag.FlagSet) {
	def := config.Default()
	fl.StringVarP(&p.configPath, "config", "c", "", "YAML parameter file")
	fl.IntVar(&p.gridSize, "grid", def.GridSize, "tiles along each axis")
	fl.IntVar(&p.bins, "bins", def.Bins, "histogram bins per tile (1-256)")
	fl.Float32Var(&p.clipStrength, "clip", def.ClipStrength, "clip strength; 0 clips every bin to one count")
	fl.IntVar(&p.workers, "workers", def.Workers, "goroutines per table (0 = GOMAXPROCS)")
	fl.IntVar(&p.analysisSize, "analysis-size", def.AnalysisSize, "downscale so the longest side is at most this many pixels (0 = off)")
	fl.BoolVar(&p.compress, "compress", def.Compress, "zstd-compress .tcdt outputs named by batch")
}

func (p *paramFlags) resolve(fl *pflag.FlagSet) (config.Params, error) {
	params, err := config.Load(p.configPath)
	if err != nil {
		return config.Params{}, err
	}
	if fl.Changed("grid") {
		params.GridSize = p.gridSize
	}
	if fl.Changed("bins") {
		params.Bins = p.bins
	}
	if fl.Changed("clip") {
		params.ClipStrength = p.clipStrength
	}
	if fl.Changed("workers") {
		params.Workers = p.workers
	}
	if fl.Changed("analysis-size") {
		params.AnalysisSize = p.analysisSize
	}
	if fl.Changed("compress") {
		params.Compress = p.compress
	}
	if err := params.Validate(); err != nil {
		return config.Params{}, err
	}
	return params, nil
}
