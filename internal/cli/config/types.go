// Package config provides configuration management for the LeapPivot CLI.
package config

// Config holds all CLI configuration options.
type Config struct {
	OutputFormat string   `koanf:"output"`
	Verbose      bool     `koanf:"verbose"`
	Database     string   `koanf:"database"`
	Sheet        string   `koanf:"sheet"`
	HistoryFile  string   `koanf:"history_file"`
	Fill         string   `koanf:"fill"`
	Defaults     Defaults `koanf:"defaults"`
}

// Defaults holds column references used when the corresponding flag is not
// given. They are validated like any other argument.
type Defaults struct {
	Index   []string `koanf:"index"`
	Columns []string `koanf:"columns"`
	Values  []string `koanf:"values"`
}

// Default configuration values
const (
	DefaultOutput      = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultHistoryFile = ".leappivot_history"
	EnvPrefix          = "LEAPPIVOT_"
)

// ConfigFileNames are searched for in the working directory, in order.
var ConfigFileNames = []string{"leappivot.yaml", "leappivot.yml"}
