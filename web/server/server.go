package server

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/df07/go-twobounce/pkg/publish"
	"github.com/df07/go-twobounce/pkg/scene"
)

// DefaultMaxRays caps the ray count of a single web request
const DefaultMaxRays = 10_000_000

// Config contains the web server settings
type Config struct {
	Port      int
	ScenesDir string
	MaxRays   int                  // Largest ray count a request may ask for (0 = DefaultMaxRays)
	Publisher *publish.S3Publisher // Optional; enables "publish" on simulate requests
}

// Server handles web requests for simulations
type Server struct {
	port      int
	scenesDir string
	maxRays   int
	publisher *publish.S3Publisher
	echo      *echo.Echo
}

// NewServer creates a new web server with its routes registered
func NewServer(cfg Config) *Server {
	if cfg.MaxRays <= 0 {
		cfg.MaxRays = DefaultMaxRays
	}
	s := &Server{
		port:      cfg.Port,
		scenesDir: cfg.ScenesDir,
		maxRays:   cfg.MaxRays,
		publisher: cfg.Publisher,
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(corsMiddleware)

	e.GET("/api/health", s.handleHealth)
	e.GET("/api/scenes", s.handleScenes)
	e.POST("/api/simulate", s.handleSimulate)
	e.GET("/api/inspect", s.handleInspect)

	s.echo = e
	return s
}

// Handler returns the server's HTTP handler
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the web server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	log.Printf("Starting web server on http://localhost%s", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func corsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set("Access-Control-Allow-Origin", "*")
		c.Response().Header().Set("Access-Control-Allow-Methods", "GET, POST")
		c.Response().Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept")

		if c.Request().Method == http.MethodOptions {
			return c.NoContent(http.StatusOK)
		}

		return next(c)
	}
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenes lists the built-in and file scenes
func (s *Server) handleScenes(c echo.Context) error {
	scenes, err := scene.ListAllScenes(s.scenesDir)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, scenes)
}

// jsonError writes an error response body
func jsonError(c echo.Context, status int, err error) error {
	return c.JSON(status, map[string]string{"error": err.Error()})
}

// parseIntParam parses and validates an integer query parameter
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// parseFloatParam parses a float query parameter; only finite values are accepted
func parseFloatParam(values url.Values, key string, defaultValue float64) (float64, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil || math.IsNaN(parsed) || parsed > maxCoordinate || parsed < -maxCoordinate {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// maxCoordinate bounds coordinates accepted from query parameters
const maxCoordinate = 1e12

// imageToBase64PNG converts an image to base64-encoded PNG
func imageToBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
