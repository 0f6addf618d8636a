package server

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/df07/go-twobounce/pkg/core"
)

// ConsoleMessage represents a console message with timestamp
type ConsoleMessage struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // "info", "warning", "error"
}

// WebLogger implements core.Logger by sending messages to a console channel
type WebLogger struct {
	runID       string
	consoleChan chan<- ConsoleMessage
}

// NewWebLogger creates a new web logger for a specific simulation run
func NewWebLogger(runID string, consoleChan chan<- ConsoleMessage) core.Logger {
	return &WebLogger{
		runID:       runID,
		consoleChan: consoleChan,
	}
}

// Printf implements core.Logger interface
func (wl *WebLogger) Printf(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)

	// Also write to the server log, tagged with the run
	log.Printf("[%s] %s", wl.runID, strings.TrimSuffix(message, "\n"))

	// Send to web console if channel is available (non-blocking)
	if wl.consoleChan != nil {
		select {
		case wl.consoleChan <- ConsoleMessage{
			Message:   message,
			Timestamp: time.Now(),
			Level:     messageLevel(message),
		}:
		default:
			// Channel full, skip (don't block)
		}
	}
}

// messageLevel classifies a log line by its leading word
func messageLevel(message string) string {
	switch {
	case strings.HasPrefix(message, "Error"), strings.HasPrefix(message, "Failed"):
		return "error"
	case strings.HasPrefix(message, "Retrying"), strings.HasPrefix(message, "Warning"):
		return "warning"
	default:
		return "info"
	}
}

// drainConsole collects every message currently buffered in ch
func drainConsole(ch <-chan ConsoleMessage) []ConsoleMessage {
	messages := []ConsoleMessage{}
	for {
		select {
		case msg := <-ch:
			messages = append(messages, msg)
		default:
			return messages
		}
	}
}
