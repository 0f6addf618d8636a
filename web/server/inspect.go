package server

import (
	"fmt"
	"math"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/df07/go-twobounce/pkg/core"
	"github.com/df07/go-twobounce/pkg/geometry"
	"github.com/df07/go-twobounce/pkg/scene"
	"github.com/df07/go-twobounce/pkg/trace"
)

// BounceInfo describes one traced segment of an inspected ray
type BounceInfo struct {
	Bounce      int         `json:"bounce"`
	Start       [3]float64  `json:"start"`
	Direction   [3]float64  `json:"direction"`
	Hit         bool        `json:"hit"`
	Object      string      `json:"object,omitempty"`
	Critical    bool        `json:"critical"`
	Triangle    int         `json:"triangle"`
	Point       [3]float64  `json:"point"`
	Normal      [3]float64  `json:"normal"`
	Distance    float64     `json:"distance"`
	Barycentric [2]float64  `json:"barycentric"`
	TexCoord    *[2]float64 `json:"texCoord,omitempty"`
	Description string      `json:"description"`
}

// InspectResponse represents the JSON response for ray inspection
type InspectResponse struct {
	Scene    string       `json:"scene"`
	Ray      *int         `json:"ray,omitempty"` // Ray index when the direction was sampled
	Critical bool         `json:"critical"`
	Bounces  []BounceInfo `json:"bounces"`
}

func vec3Array(v core.Vec3) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

// describeBounce extracts the inspection details of one hit
func describeBounce(geom *geometry.Scene, bounce int, hit trace.Hit) BounceInfo {
	info := BounceInfo{
		Bounce:      bounce,
		Start:       vec3Array(hit.Origin),
		Direction:   vec3Array(hit.Direction),
		Hit:         hit.Found,
		Triangle:    -1,
		Description: hit.Describe(geom),
	}
	if !hit.Found {
		return info
	}

	tri := &geom.Triangles[hit.Triangle]
	info.Object = geom.Objects[hit.Object].Name
	info.Critical = hit.Critical(geom)
	info.Triangle = hit.Triangle
	info.Point = vec3Array(hit.Point())
	info.Normal = vec3Array(tri.SurfaceNormal())
	info.Distance = hit.T * hit.Direction.Length()
	info.Barycentric = [2]float64{hit.Bary.U, hit.Bary.V}
	if uv, ok := tri.TextureCoord(hit.Bary); ok {
		info.TexCoord = &[2]float64{uv.U, uv.V}
	}
	return info
}

// inspectRay traces a single ray through both bounces
func inspectRay(tracer *trace.Tracer, origin, direction core.Vec3) []BounceInfo {
	first, second, _ := tracer.TwoBounce(origin, direction, nil)
	bounces := []BounceInfo{describeBounce(tracer.Scene, 0, first)}
	if first.Found {
		bounces = append(bounces, describeBounce(tracer.Scene, 1, second))
	}
	return bounces
}

// handleInspect traces one ray and reports both bounces.
// The ray is given either by direction (dx, dy, dz) or by its index in a run
// (ray, with seed and scheme), which reproduces the direction a simulation
// with the same seed would sample.
func (s *Server) handleInspect(c echo.Context) error {
	query := c.QueryParams()

	sceneID := query.Get("scene")
	if sceneID == "" {
		sceneID = scene.BuiltinIDs[0]
	}
	sc, err := scene.LoadListed(sceneID, s.scenesDir, core.NopLogger{})
	if err != nil {
		return jsonError(c, http.StatusBadRequest, fmt.Errorf("invalid scene: %w", err))
	}

	var origin core.Vec3
	if origin.X, err = parseFloatParam(query, "ox", sc.Source.X); err != nil {
		return jsonError(c, http.StatusBadRequest, err)
	}
	if origin.Y, err = parseFloatParam(query, "oy", sc.Source.Y); err != nil {
		return jsonError(c, http.StatusBadRequest, err)
	}
	if origin.Z, err = parseFloatParam(query, "oz", sc.Source.Z); err != nil {
		return jsonError(c, http.StatusBadRequest, err)
	}

	leaf, err := parseIntParam(query, "leaf", geometry.DefaultLeafCapacity, 1, 1024)
	if err != nil {
		return jsonError(c, http.StatusBadRequest, err)
	}
	policy, err := trace.ParsePolicy(query.Get("policy"))
	if err != nil {
		return jsonError(c, http.StatusBadRequest, err)
	}

	response := InspectResponse{Scene: sceneID}
	var direction core.Vec3
	if query.Get("ray") != "" {
		index, err := parseIntParam(query, "ray", 0, 0, math.MaxInt32)
		if err != nil {
			return jsonError(c, http.StatusBadRequest, err)
		}
		seed, err := parseIntParam(query, "seed", 1, 0, math.MaxInt32)
		if err != nil {
			return jsonError(c, http.StatusBadRequest, err)
		}
		scheme, err := core.ParseScheme(query.Get("scheme"))
		if err != nil {
			return jsonError(c, http.StatusBadRequest, err)
		}
		sampler := core.NewIndexedSampler(uint64(seed))
		sampler.Reset(uint64(index))
		direction = scheme.Direction(sampler.Get2D())
		response.Ray = &index
	} else {
		if direction.X, err = parseFloatParam(query, "dx", 0); err != nil {
			return jsonError(c, http.StatusBadRequest, err)
		}
		if direction.Y, err = parseFloatParam(query, "dy", 0); err != nil {
			return jsonError(c, http.StatusBadRequest, err)
		}
		if direction.Z, err = parseFloatParam(query, "dz", 0); err != nil {
			return jsonError(c, http.StatusBadRequest, err)
		}
		if _, err := direction.Norm(); err != nil {
			return jsonError(c, http.StatusBadRequest, fmt.Errorf("direction: %w", err))
		}
	}

	tracer := trace.NewTracer(sc.Geometry, leaf, policy)
	response.Bounces = inspectRay(tracer, origin, direction)
	for _, b := range response.Bounces {
		response.Critical = response.Critical || b.Critical
	}
	return c.JSON(http.StatusOK, response)
}
