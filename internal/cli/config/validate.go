package config

import (
	"fmt"
	"os"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.RosterPath == "" {
		return fmt.Errorf("roster is required")
	}

	// File existence is checked separately so help and init can run
	// without a roster on disk.
	return nil
}

// ValidateSources checks that every configured source file exists.
func (c *Config) ValidateSources() error {
	if _, err := os.Stat(c.RosterPath); os.IsNotExist(err) {
		return fmt.Errorf("roster file does not exist: %s\nHint: Create the file or use --roster to specify a different path", c.RosterPath)
	}
	for _, src := range c.Licenses {
		if _, err := os.Stat(src.Path); os.IsNotExist(err) {
			return fmt.Errorf("license registry does not exist: %s (jurisdiction %s)", src.Path, src.Jurisdiction)
		}
	}
	if c.NPIPath != "" {
		if _, err := os.Stat(c.NPIPath); os.IsNotExist(err) {
			return fmt.Errorf("npi registry does not exist: %s", c.NPIPath)
		}
	}
	return nil
}
