package config

import (
	"fmt"
	"slices"
	"strings"
)

// validOutputs are the accepted values of the output key.
var validOutputs = []string{"auto", "text", "markdown", "md", "json", "csv", "yaml"}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	c.OutputFormat = strings.ToLower(strings.TrimSpace(c.OutputFormat))
	if c.OutputFormat == "" {
		c.OutputFormat = DefaultOutput
	}
	if !slices.Contains(validOutputs, c.OutputFormat) {
		return fmt.Errorf("invalid output format %q (valid: auto, text, markdown, json, csv, yaml)", c.OutputFormat)
	}
	return nil
}
