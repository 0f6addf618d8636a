package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/df07/go-twobounce/pkg/core"
	"github.com/df07/go-twobounce/pkg/publish"
	"github.com/df07/go-twobounce/pkg/scene"
	"github.com/df07/go-twobounce/pkg/simulation"
	"github.com/df07/go-twobounce/pkg/texture"
	"github.com/df07/go-twobounce/pkg/trace"
)

// maxWorkers caps the worker count a request may ask for
const maxWorkers = 1024

// SimulateRequest represents a simulation request from the client
type SimulateRequest struct {
	Scene        string      `json:"scene"`        // Scene ID (e.g., "shell", "file:room.obj")
	Rays         int         `json:"rays"`         // Number of rays
	Workers      int         `json:"workers"`      // Parallel workers (0 = CPU count)
	Source       *[3]float64 `json:"source"`       // Ray origin (default: the scene's source)
	Scheme       string      `json:"scheme"`       // "biased-polar" or "uniform-sphere"
	Seed         uint64      `json:"seed"`         // Random seed
	Policy       string      `json:"policy"`       // "include-origin" or "exclude-origin"
	LeafCapacity int         `json:"leafCapacity"` // BVH leaf capacity (0 = default)
	LedgerCoords string      `json:"ledgerCoords"` // "texture" or "barycentric"
	MaxAttempts  int         `json:"maxAttempts"`  // Executions allowed per partition
	HitMaps      bool        `json:"hitMaps"`      // Include hit map PNGs in the response
	Publish      bool        `json:"publish"`      // Upload the summary to S3
}

// SimulateResponse is returned for a finished (or cancelled) simulation
type SimulateResponse struct {
	RunID     string             `json:"runId"`
	Summary   simulation.Summary `json:"summary"`
	Console   []ConsoleMessage   `json:"console"`
	HitMaps   map[string]string  `json:"hitMaps,omitempty"` // Material name -> base64 PNG
	Published []string           `json:"published,omitempty"`
}

// parseSimulateRequest binds the request body and checks its limits
func (s *Server) parseSimulateRequest(c echo.Context) (*SimulateRequest, error) {
	req := &SimulateRequest{Seed: 1}
	if err := c.Bind(req); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}
	if req.Scene == "" {
		req.Scene = scene.BuiltinIDs[0]
	}
	if req.Rays < 1 || req.Rays > s.maxRays {
		return nil, fmt.Errorf("rays must be between 1 and %d, got: %d", s.maxRays, req.Rays)
	}
	if req.Workers < 0 || req.Workers > maxWorkers {
		return nil, fmt.Errorf("workers must be between 0 and %d, got: %d", maxWorkers, req.Workers)
	}
	if req.Publish && s.publisher == nil {
		return nil, errors.New("publishing is not configured on this server")
	}
	return req, nil
}

// simulationConfig converts the request into a simulation config
func (req *SimulateRequest) simulationConfig(source core.Vec3) simulation.Config {
	config := simulation.DefaultConfig()
	config.Rays = req.Rays
	config.Workers = req.Workers
	config.Source = source
	if req.Source != nil {
		config.Source = core.NewVec3(req.Source[0], req.Source[1], req.Source[2])
	}
	config.Scheme = core.Scheme(req.Scheme)
	config.Seed = req.Seed
	config.Policy = trace.Policy(req.Policy)
	config.LeafCapacity = req.LeafCapacity
	config.LedgerCoords = simulation.LedgerCoords(req.LedgerCoords)
	config.MaxAttempts = req.MaxAttempts
	return config
}

// handleSimulate runs a simulation and returns its summary. Closing the
// request cancels the run.
func (s *Server) handleSimulate(c echo.Context) error {
	req, err := s.parseSimulateRequest(c)
	if err != nil {
		return jsonError(c, http.StatusBadRequest, err)
	}

	runID := publish.NewRunID(time.Now())
	consoleChan := make(chan ConsoleMessage, 256)
	logger := NewWebLogger(runID, consoleChan)

	sc, err := scene.LoadListed(req.Scene, s.scenesDir, logger)
	if err != nil {
		return jsonError(c, http.StatusBadRequest, fmt.Errorf("invalid scene: %w", err))
	}

	config := req.simulationConfig(sc.Source)
	sim, err := simulation.NewSimulator(sc.Geometry, config, logger)
	if err != nil {
		return jsonError(c, http.StatusBadRequest, err)
	}

	ctx := c.Request().Context()
	result, err := sim.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return jsonError(c, http.StatusInternalServerError, err)
	}

	summary := simulation.NewSummary(sc.Name, sim.Config(), result)
	summary.RunID = runID
	summary.Print(logger)

	response := SimulateResponse{RunID: runID, Summary: summary}

	if req.HitMaps {
		response.HitMaps = make(map[string]string)
		for _, m := range texture.BuildHitMaps(result.Records, texture.DefaultMapSize) {
			encoded, err := imageToBase64PNG(m.Image(1))
			if err != nil {
				return jsonError(c, http.StatusInternalServerError, err)
			}
			response.HitMaps[texture.MaterialName(m.Object)] = encoded
		}
	}

	if req.Publish {
		var buf bytes.Buffer
		if err := summary.WriteJSON(&buf); err != nil {
			return jsonError(c, http.StatusInternalServerError, err)
		}
		key := s.publisher.Key(runID, "summary.json")
		if err := s.publisher.Upload(ctx, key, buf.Bytes(), "application/json"); err != nil {
			return jsonError(c, http.StatusBadGateway, err)
		}
		response.Published = append(response.Published, key)
	}

	response.Console = drainConsole(consoleChan)
	return c.JSON(http.StatusOK, response)
}
