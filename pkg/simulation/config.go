package simulation

import (
	"errors"
	"fmt"
	"time"

	"github.com/df07/go-twobounce/pkg/core"
	"github.com/df07/go-twobounce/pkg/geometry"
	"github.com/df07/go-twobounce/pkg/trace"
)

// ErrInvalidConfig is wrapped by every configuration validation failure
var ErrInvalidConfig = errors.New("invalid simulation config")

// LedgerCoords selects the coordinate written for each ledger record
type LedgerCoords string

const (
	// CoordsTexture writes the interpolated texture coordinate when the hit
	// triangle has texture data, and the barycentric (U,V) otherwise.
	CoordsTexture LedgerCoords = "texture"
	// CoordsBarycentric always writes the barycentric (U,V).
	CoordsBarycentric LedgerCoords = "barycentric"
)

// ParseLedgerCoords validates a ledger coordinate mode
func ParseLedgerCoords(name string) (LedgerCoords, error) {
	switch LedgerCoords(name) {
	case CoordsTexture, CoordsBarycentric:
		return LedgerCoords(name), nil
	case "":
		return CoordsTexture, nil
	}
	return "", fmt.Errorf("unknown ledger coordinates %q (want %q or %q)", name, CoordsTexture, CoordsBarycentric)
}

// Config contains configuration for a simulation run
type Config struct {
	Rays             int           // Total number of rays N
	Workers          int           // Number of parallel workers (0 = logical CPU count)
	Source           core.Vec3     // Origin of every ray
	Scheme           core.Scheme   // Angular sampling scheme
	Seed             uint64        // Seed of the per-ray random streams
	LeafCapacity     int           // BVH leaf capacity (0 = geometry.DefaultLeafCapacity)
	Policy           trace.Policy  // Second-bounce object policy
	LedgerCoords     LedgerCoords  // Coordinates written to the ledger
	MaxAttempts      int           // Executions allowed per partition before the run fails
	ProgressInterval time.Duration // How often to log progress (0 = never)
}

// DefaultConfig returns sensible default values
func DefaultConfig() Config {
	return Config{
		Rays:             1_000_000,
		Workers:          0, // Auto-detect CPU count
		Source:           core.NewVec3(0, 0, 0),
		Scheme:           core.SchemeBiasedPolar,
		Seed:             1,
		LeafCapacity:     geometry.DefaultLeafCapacity,
		Policy:           trace.IncludeOrigin,
		LedgerCoords:     CoordsTexture,
		MaxAttempts:      1,
		ProgressInterval: 0,
	}
}

// Validate checks the config and fills in automatic values
func (c *Config) Validate() error {
	if c.Rays < 0 {
		return fmt.Errorf("%w: ray count must be non-negative, got %d", ErrInvalidConfig, c.Rays)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: worker count must be non-negative, got %d", ErrInvalidConfig, c.Workers)
	}
	if c.Workers == 0 {
		c.Workers = DefaultWorkers()
	}
	if c.LeafCapacity < 0 {
		return fmt.Errorf("%w: leaf capacity must be non-negative, got %d", ErrInvalidConfig, c.LeafCapacity)
	}
	if c.LeafCapacity == 0 {
		c.LeafCapacity = geometry.DefaultLeafCapacity
	}
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 1
	}

	var err error
	if c.Scheme, err = core.ParseScheme(string(c.Scheme)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Policy, err = trace.ParsePolicy(string(c.Policy)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.LedgerCoords, err = ParseLedgerCoords(string(c.LedgerCoords)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
