package gaze

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Sample is one gaze point of a replay file.
type Sample struct {
	X        float32 `toml:"x"`
	Y        float32 `toml:"y"`
	Distance float32 `toml:"distance"`
}

type replayFile struct {
	Samples []Sample `toml:"samples"`
}

// ReplayProvider feeds a pre-recorded gaze path through the latch, one
// sample per Update. It loops when the path is exhausted. Used by the
// testbed and headless runs where no tracker exists.
type ReplayProvider struct {
	latch   *Latch
	samples []Sample
	cursor  int
}

func NewReplayProvider(samples []Sample) *ReplayProvider {
	return &ReplayProvider{
		latch:   NewLatch(),
		samples: samples,
	}
}

// LoadReplay reads a TOML replay file with a [[samples]] table list.
func LoadReplay(path string) (*ReplayProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read gaze replay %s: %w", path, err)
	}
	var file replayFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse gaze replay %s: %w", path, err)
	}
	if len(file.Samples) == 0 {
		return nil, fmt.Errorf("gaze replay %s has no samples", path)
	}
	return NewReplayProvider(file.Samples), nil
}

func (p *ReplayProvider) Update() {
	if len(p.samples) == 0 {
		return
	}
	s := p.samples[p.cursor]
	p.cursor = (p.cursor + 1) % len(p.samples)
	p.latch.Put(s.X, s.Y, s.Distance)
}

func (p *ReplayProvider) Gaze() (float32, float32, float32, bool) {
	return p.latch.Gaze()
}
