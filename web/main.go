package main

import (
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/df07/go-twobounce/pkg/core"
	"github.com/df07/go-twobounce/pkg/publish"
	"github.com/df07/go-twobounce/web/server"
)

func main() {
	// A missing .env file is fine; the environment may already be set
	if err := godotenv.Load(); err == nil {
		log.Printf("Loaded settings from .env")
	}

	// Parse command line flags
	port := flag.Int("port", 8080, "Port to serve on")
	scenesDir := flag.String("scenes", "scenes", "Directory of OBJ and PLY scene files")
	maxRays := flag.Int("max-rays", server.DefaultMaxRays, "Largest ray count a single request may simulate")
	flag.Parse()

	cfg := server.Config{
		Port:      *port,
		ScenesDir: *scenesDir,
		MaxRays:   *maxRays,
	}

	if s3Config := publish.ConfigFromEnv(os.Getenv); s3Config.Enabled() {
		publisher, err := publish.NewS3Publisher(s3Config, core.NewDefaultLogger())
		if err != nil {
			log.Printf("Error configuring S3 publishing: %v", err)
			os.Exit(1)
		}
		cfg.Publisher = publisher
		log.Printf("Publishing enabled to bucket %s", s3Config.Bucket)
	}

	webServer := server.NewServer(cfg)

	log.Printf("Two-Bounce Ray Simulation Web Server")
	log.Printf("POST http://localhost:%d/api/simulate to start a run", *port)

	if err := webServer.Start(); err != nil {
		log.Printf("Error starting server: %v", err)
		os.Exit(1)
	}
}
