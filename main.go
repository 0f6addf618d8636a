package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/df07/go-twobounce/pkg/core"
	"github.com/df07/go-twobounce/pkg/publish"
	"github.com/df07/go-twobounce/pkg/scene"
	"github.com/df07/go-twobounce/pkg/simulation"
	"github.com/df07/go-twobounce/pkg/texture"
	"github.com/df07/go-twobounce/pkg/trace"
)

// options holds the parsed command line
type options struct {
	scene        string
	scenesDir    string
	outDir       string
	source       string
	config       simulation.Config
	textures     bool
	textureSize  int
	textureScale int
	inspect      string
	inspectRay   int
	publish      bool
	help         bool
}

func main() {
	// A missing .env file is fine; flags and the environment still apply
	_ = godotenv.Load()

	opts, fs, err := parseFlags(os.Args[1:], os.Getenv)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		os.Exit(2)
	}
	if opts.help {
		printHelp(fs)
		return
	}

	logger := core.NewDefaultLogger()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts, os.Getenv, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// parseFlags reads the command line; TWOBOUNCE_* variables supply defaults
func parseFlags(args []string, getenv func(string) string) (options, *flag.FlagSet, error) {
	defaults := simulation.DefaultConfig()
	opts := options{config: defaults}

	fs := flag.NewFlagSet("twobounce", flag.ContinueOnError)
	fs.StringVar(&opts.scene, "scene", envString(getenv, "TWOBOUNCE_SCENE", "square"), "Scene: a built-in name, file:<name> in the scenes directory, or an .obj/.ply path")
	fs.StringVar(&opts.scenesDir, "scenes", envString(getenv, "TWOBOUNCE_SCENES_DIR", "scenes"), "Directory of OBJ and PLY scene files")
	fs.StringVar(&opts.outDir, "out", envString(getenv, "TWOBOUNCE_OUTPUT_DIR", "output"), "Base output directory")
	fs.StringVar(&opts.source, "source", "", "Ray origin as x,y,z (default: the scene's source)")
	fs.IntVar(&opts.config.Rays, "rays", envInt(getenv, "TWOBOUNCE_RAYS", defaults.Rays), "Number of rays to simulate")
	fs.IntVar(&opts.config.Workers, "workers", envInt(getenv, "TWOBOUNCE_WORKERS", defaults.Workers), "Parallel workers (0 = logical CPU count)")
	fs.Uint64Var(&opts.config.Seed, "seed", defaults.Seed, "Seed of the per-ray random streams")
	fs.IntVar(&opts.config.LeafCapacity, "leaf", defaults.LeafCapacity, "BVH leaf capacity")
	fs.IntVar(&opts.config.MaxAttempts, "attempts", defaults.MaxAttempts, "Executions allowed per partition before the run fails")
	fs.DurationVar(&opts.config.ProgressInterval, "progress", 5*time.Second, "Progress report interval (0 disables)")
	scheme := fs.String("scheme", string(defaults.Scheme), "Sampling scheme: biased-polar or uniform-sphere")
	policy := fs.String("policy", string(defaults.Policy), "Second bounce: include-origin or exclude-origin")
	coords := fs.String("coords", string(defaults.LedgerCoords), "Ledger coordinates: texture or barycentric")
	fs.BoolVar(&opts.textures, "textures", false, "Write hit-map textures and materials after the run")
	fs.IntVar(&opts.textureSize, "texture-size", texture.DefaultMapSize, "Hit-map size in pixels")
	fs.IntVar(&opts.textureScale, "texture-scale", 0, "Upscale hit maps to this size (0 = native)")
	fs.StringVar(&opts.inspect, "inspect", "", "Trace a single ray with direction dx,dy,dz and print both hits")
	fs.IntVar(&opts.inspectRay, "inspect-ray", -1, "Trace the ray with this index (uses -seed and -scheme) and print both hits")
	fs.BoolVar(&opts.publish, "publish", false, "Upload results to the S3 bucket named by TWOBOUNCE_S3_BUCKET")
	fs.BoolVar(&opts.help, "help", false, "Show help information")
	if err := fs.Parse(args); err != nil {
		return opts, fs, err
	}

	opts.config.Scheme = core.Scheme(*scheme)
	opts.config.Policy = trace.Policy(*policy)
	opts.config.LedgerCoords = simulation.LedgerCoords(*coords)
	return opts, fs, nil
}

func printHelp(fs *flag.FlagSet) {
	fmt.Println("Two-Bounce Ray Simulation")
	fmt.Println("Usage: twobounce [options]")
	fmt.Println()
	fmt.Println("Options:")
	fs.SetOutput(os.Stdout)
	fs.PrintDefaults()
	fmt.Println()
	fmt.Println("Built-in scenes:")
	for _, id := range scene.BuiltinIDs {
		fmt.Printf("  %s\n", id)
	}
	fmt.Println()
	fmt.Println("Settings may also come from TWOBOUNCE_* variables or a .env file.")
	fmt.Println("Output is saved to <out>/<scene>/<run-id>/")
}

func envString(getenv func(string) string, key, fallback string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(getenv func(string) string, key string, fallback int) int {
	if v := getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// parseVec3 parses "x,y,z"
func parseVec3(s string) (core.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return core.Vec3{}, fmt.Errorf("expected x,y,z, got %q", s)
	}
	var xyz [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return core.Vec3{}, fmt.Errorf("invalid coordinate %q in %q", p, s)
		}
		xyz[i] = v
	}
	return core.NewVec3(xyz[0], xyz[1], xyz[2]), nil
}

// createOutputDir returns <base>/<scene>/<runID> for a scene ID
func createOutputDir(base, sceneID, runID string) string {
	name := strings.TrimPrefix(sceneID, scene.FileScenePrefix)
	name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if name == "" || name == "." {
		name = "scene"
	}
	return filepath.Join(base, name, runID)
}

// run loads the scene and either inspects one ray or runs the full simulation
func run(ctx context.Context, opts options, getenv func(string) string, logger core.Logger) error {
	sc, err := scene.Load(opts.scene, opts.scenesDir, logger)
	if err != nil {
		return err
	}
	logger.Printf("Using scene %s: %s\n", sc.Name, sc.Geometry)

	opts.config.Source = sc.Source
	if opts.source != "" {
		if opts.config.Source, err = parseVec3(opts.source); err != nil {
			return fmt.Errorf("invalid -source: %w", err)
		}
	}

	if opts.inspect != "" || opts.inspectRay >= 0 {
		return inspect(sc, opts, logger)
	}

	var publisher *publish.S3Publisher
	if opts.publish {
		// Fail before the run rather than after it
		if publisher, err = publish.NewS3Publisher(publish.ConfigFromEnv(getenv), logger); err != nil {
			return err
		}
	}

	sim, err := simulation.NewSimulator(sc.Geometry, opts.config, logger)
	if err != nil {
		return err
	}

	result, runErr := sim.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	runID := publish.NewRunID(time.Now())
	outDir := createOutputDir(opts.outDir, opts.scene, runID)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	ledgers, err := writeLedgers(outDir, result)
	if err != nil {
		return err
	}
	files := append([]string(nil), ledgers...)

	summary := simulation.NewSummary(sc.Name, sim.Config(), result)
	summary.RunID = runID
	if host, err := simulation.GetHostInfo(); err == nil {
		summary.Host = &host
		logger.Printf("Host: %s\n", host)
	}
	summary.Print(logger)

	summaryPath, err := writeSummary(outDir, summary)
	if err != nil {
		return err
	}
	files = append(files, summaryPath)

	if opts.textures {
		out, err := texture.ExportHitMaps(ledgers, outDir, texture.Options{
			Size:      opts.textureSize,
			Scale:     opts.textureScale,
			SourceOBJ: objSource(sc),
			Name:      sc.Name,
		}, logger)
		if err != nil {
			return err
		}
		files = append(files, out.Images...)
		files = append(files, out.MTL)
		if out.OBJ != "" {
			files = append(files, out.OBJ)
		}
	}

	logger.Printf("Results saved to %s\n", outDir)

	if publisher != nil {
		keys, err := publisher.PublishFiles(context.WithoutCancel(ctx), runID, outDir, files)
		if err != nil {
			return err
		}
		logger.Printf("Published %d files\n", len(keys))
	}

	// A cancelled run still reports and saves what it traced
	return runErr
}

// objSource returns the scene file when it is an OBJ that can carry materials
func objSource(sc *scene.Scene) string {
	if strings.EqualFold(filepath.Ext(sc.FilePath), ".obj") {
		return sc.FilePath
	}
	return ""
}

// writeLedgers writes one output_<i>.txt per partition
func writeLedgers(outDir string, result *simulation.Result) ([]string, error) {
	var files []string
	for i, records := range result.RecordsByPartition() {
		path := filepath.Join(outDir, fmt.Sprintf("output_%d.txt", i))
		file, err := os.Create(path)
		if err != nil {
			return files, fmt.Errorf("failed to create ledger: %w", err)
		}
		if err := simulation.WriteLedger(file, records); err != nil {
			file.Close()
			return files, fmt.Errorf("failed to write ledger %s: %w", path, err)
		}
		if err := file.Close(); err != nil {
			return files, err
		}
		files = append(files, path)
	}
	return files, nil
}

func writeSummary(outDir string, summary simulation.Summary) (string, error) {
	path := filepath.Join(outDir, "summary.json")
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create summary: %w", err)
	}
	defer file.Close()
	if err := summary.WriteJSON(file); err != nil {
		return "", fmt.Errorf("failed to write summary: %w", err)
	}
	return path, nil
}

// inspect traces one ray and prints both hits
func inspect(sc *scene.Scene, opts options, logger core.Logger) error {
	cfg := opts.config
	if err := cfg.Validate(); err != nil {
		return err
	}

	var direction core.Vec3
	if opts.inspect != "" {
		var err error
		if direction, err = parseVec3(opts.inspect); err != nil {
			return fmt.Errorf("invalid -inspect: %w", err)
		}
		if _, err := direction.Norm(); err != nil {
			return fmt.Errorf("invalid -inspect: %w", err)
		}
	} else {
		sampler := core.NewIndexedSampler(cfg.Seed)
		sampler.Reset(uint64(opts.inspectRay))
		direction = cfg.Scheme.Direction(sampler.Get2D())
		logger.Printf("Ray %d (seed %d, %s)\n", opts.inspectRay, cfg.Seed, cfg.Scheme)
	}

	tracer := trace.NewTracer(sc.Geometry, cfg.LeafCapacity, cfg.Policy)
	first, second, _ := tracer.TwoBounce(cfg.Source, direction, nil)
	logger.Printf("First bounce: %s\n", first.Describe(sc.Geometry))
	if first.Found {
		logger.Printf("Second bounce: %s\n", second.Describe(sc.Geometry))
	}
	logger.Printf("Hit critical geometry: %v\n", first.Critical(sc.Geometry) || second.Critical(sc.Geometry))
	return nil
}
