package tablefile

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/erinpentecost/tilecdt/internal/cdt"
)

type TileSummary struct {
	Tile     int    `json:"tile"`
	StartBin int    `json:"start_bin"`
	Min      uint8  `json:"min"`
	Max      uint8  `json:"max"`
	Clipped  uint32 `json:"clipped"`
}

// Summary describes how a table was built, for humans and for tooling that
// does not want to parse the binary records.
type Summary struct {
	Source       string        `json:"source"`
	Width        int           `json:"width"`
	Height       int           `json:"height"`
	GridSize     int           `json:"grid_size"`
	Bins         int           `json:"bins"`
	ClipStrength float32       `json:"clip_strength"`
	ClipLimit    uint32        `json:"clip_limit"`
	TileArea     int           `json:"tile_area"`
	Tiles        []TileSummary `json:"tiles"`
}

func NewSummary(source string, img cdt.Image, cfg cdt.Config, t *cdt.Table) Summary {
	s := Summary{
		Source:       source,
		Width:        img.Width,
		Height:       img.Height,
		GridSize:     t.GridSize,
		Bins:         t.Bins,
		ClipStrength: cfg.ClipStrength,
		ClipLimit:    t.ClipLimit,
		TileArea:     t.TileArea,
		Tiles:        make([]TileSummary, len(t.Tiles)),
	}
	for i, tile := range t.Tiles {
		s.Tiles[i] = TileSummary{
			Tile:     i,
			StartBin: tile.StartBin,
			Min:      tile.Min,
			Max:      tile.Max,
			Clipped:  tile.Clipped,
		}
	}
	return s
}

func WriteSummary(path string, s Summary) error {
	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary json: %w", err)
	}
	if err := os.WriteFile(path, raw, 0666); err != nil {
		return fmt.Errorf("write %q: %w", path, err)
	}
	return nil
}

func UnmarshalSummary(raw []byte) (*Summary, error) {
	var s Summary
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("unmarshal summary: %w", err)
	}
	return &s, nil
}
