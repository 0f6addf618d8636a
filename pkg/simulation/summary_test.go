package simulation

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"
)

func TestSummary_Print(t *testing.T) {
	config := DefaultConfig()
	result := &Result{
		Stats:   Stats{Rays: 2000, HitAny: 1000, HitCritical: 50},
		Workers: 4,
		Elapsed: 2 * time.Second,
	}
	summary := NewSummary("square", config, result)

	logger := &recordingLogger{}
	summary.Print(logger)

	for _, want := range []string{
		"Hit critical geometry: 50, 2.500%",
		"Hit any geometry: 50.0%",
		"Simulated 2000 rays using 4 cores in 2.00s",
		"Rays per second: 1000",
		"Rays per second per core: 250",
		"Time per 1k rays: 1s",
		"Time per 1k rays per core: 4s",
	} {
		if !logger.contains(want) {
			t.Errorf("Expected line containing %q, got %q", want, logger.lines)
		}
	}
}

func TestSummary_JSON(t *testing.T) {
	result := &Result{Stats: Stats{Rays: 10, HitAny: 4, HitCritical: 1}, Workers: 2, Elapsed: time.Second}
	summary := NewSummary("shell", DefaultConfig(), result)

	var buf bytes.Buffer
	if err := summary.WriteJSON(&buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if decoded["scene"] != "shell" {
		t.Errorf("Expected scene shell, got %v", decoded["scene"])
	}
	stats, ok := decoded["stats"].(map[string]interface{})
	if !ok || stats["hitCritical"] != 1.0 {
		t.Errorf("Expected stats.hitCritical = 1, got %v", decoded["stats"])
	}
	if decoded["raysPerSecond"] != 10.0 || decoded["raysPerSecondPerWorker"] != 5.0 {
		t.Errorf("Expected 10 rays/s and 5 rays/s per worker, got %v and %v",
			decoded["raysPerSecond"], decoded["raysPerSecondPerWorker"])
	}
	if decoded["hitAnyPercent"] != 40.0 {
		t.Errorf("Expected hitAnyPercent 40, got %v", decoded["hitAnyPercent"])
	}
}
