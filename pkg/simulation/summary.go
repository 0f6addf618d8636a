package simulation

import (
	"encoding/json"
	"io"
	"time"

	"github.com/df07/go-twobounce/pkg/core"
)

// Summary is the machine-readable report of a run, written as summary.json
type Summary struct {
	RunID                  string    `json:"runId,omitempty"`
	Scene                  string    `json:"scene"`
	Source                 core.Vec3 `json:"source"`
	Scheme                 string    `json:"scheme"`
	Policy                 string    `json:"policy"`
	Seed                   uint64    `json:"seed"`
	Workers                int       `json:"workers"`
	Stats                  Stats     `json:"stats"`
	HitCriticalPercent     float64   `json:"hitCriticalPercent"`
	HitAnyPercent          float64   `json:"hitAnyPercent"`
	ElapsedSeconds         float64   `json:"elapsedSeconds"`
	RaysPerSecond          float64   `json:"raysPerSecond"`
	RaysPerSecondPerWorker float64   `json:"raysPerSecondPerWorker"`
	Cancelled              bool      `json:"cancelled"`
	Host                   *HostInfo `json:"host,omitempty"`
	FinishedAt             time.Time `json:"finishedAt"`
}

// NewSummary collects the report for a finished run
func NewSummary(sceneName string, config Config, result *Result) Summary {
	return Summary{
		Scene:                  sceneName,
		Source:                 config.Source,
		Scheme:                 string(config.Scheme),
		Policy:                 string(config.Policy),
		Seed:                   config.Seed,
		Workers:                result.Workers,
		Stats:                  result.Stats,
		HitCriticalPercent:     result.Stats.HitCriticalPercent(),
		HitAnyPercent:          result.Stats.HitAnyPercent(),
		ElapsedSeconds:         result.Elapsed.Seconds(),
		RaysPerSecond:          result.RaysPerSecond(),
		RaysPerSecondPerWorker: result.RaysPerSecondPerWorker(),
		Cancelled:              result.Cancelled,
		FinishedAt:             time.Now().UTC(),
	}
}

// WriteJSON writes the summary as indented JSON
func (s Summary) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// Print logs the human-readable report
func (s Summary) Print(logger core.Logger) {
	logger.Printf("Hit critical geometry: %d, %.3f%%\n", s.Stats.HitCritical, s.HitCriticalPercent)
	logger.Printf("Hit any geometry: %.1f%%\n", s.HitAnyPercent)
	logger.Printf("Simulated %d rays using %d cores in %.2fs\n", s.Stats.Rays, s.Workers, s.ElapsedSeconds)
	logger.Printf("Rays per second: %.0f\n", s.RaysPerSecond)
	logger.Printf("Rays per second per core: %.0f\n", s.RaysPerSecondPerWorker)
	if s.Stats.Rays == 0 {
		return
	}
	perThousand := s.ElapsedSeconds / (float64(s.Stats.Rays) / 1000)
	logger.Printf("Time per 1k rays: %.2gs\n", perThousand)
	logger.Printf("Time per 1k rays per core: %.2gs\n", perThousand*float64(s.Workers))
}
