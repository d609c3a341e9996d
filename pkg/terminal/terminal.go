// Package terminal renders job views for the command line: a text
// dendrogram, a convergence table, a one-line status and frame diffs.
package terminal

import (
	"os"
	"strconv"
)

// Width bounds.
const (
	DefaultWidth = 80
	MinWidth     = 40
)

// Config holds terminal rendering configuration.
type Config struct {
	Width   int
	NoColor bool
}

// NewConfig creates a Config from the environment.
func NewConfig() Config {
	return Config{
		Width:   DetectWidth(),
		NoColor: os.Getenv("NO_COLOR") != "",
	}
}

// DetectWidth returns the terminal width from the COLUMNS environment
// variable, or DefaultWidth if it is not set or invalid.
func DetectWidth() int {
	width, err := strconv.Atoi(os.Getenv("COLUMNS"))
	if err != nil || width < MinWidth {
		return DefaultWidth
	}

	return width
}
