// Package config loads CLI configuration from rosterdq.yaml, environment
// variables, and flags, with flags taking the highest precedence.
package config

import (
	"log/slog"
	"sort"

	"github.com/leapstack-labs/rosterdq/internal/engine"
	"github.com/leapstack-labs/rosterdq/internal/ingest"
	"github.com/leapstack-labs/rosterdq/internal/score"
)

// LicenseSource is an alias for the engine's registry source entry.
// This allows CLI code to use config.LicenseSource without importing
// the engine package.
type LicenseSource = engine.LicenseSource

// Weights is an alias for the scoring weights.
type Weights = score.Weights

// ServerConfig holds configuration for the HTTP server.
type ServerConfig struct {
	Host  string `koanf:"host"`
	Port  int    `koanf:"port"`
	Watch bool   `koanf:"watch"`
}

// DefaultServerConfig returns a ServerConfig with default values.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Host:  DefaultServerHost,
		Port:  DefaultServerPort,
		Watch: false,
	}
}

// GetServerConfig returns the server config with defaults applied for any
// unset values.
func (c *Config) GetServerConfig() *ServerConfig {
	if c.Server == nil {
		return DefaultServerConfig()
	}
	srv := c.Server
	if srv.Host == "" {
		srv.Host = DefaultServerHost
	}
	if srv.Port == 0 {
		srv.Port = DefaultServerPort
	}
	return srv
}

// Config holds all CLI configuration options.
type Config struct {
	RosterPath          string              `koanf:"roster"`
	Licenses            []LicenseSource     `koanf:"licenses"`
	NPIPath             string              `koanf:"npi"`
	SimilarityThreshold float64             `koanf:"similarity_threshold"`
	BlockPrefixLen      int                 `koanf:"block_prefix_len"`
	PhoneRegion         string              `koanf:"phone_region"`
	Weights             *Weights            `koanf:"weights"`
	Synonyms            map[string][]string `koanf:"synonyms"`
	Verbose             bool                `koanf:"verbose"`
	OutputFormat        string              `koanf:"output"`
	Server              *ServerConfig       `koanf:"server"`

	// ProjectRoot is inferred at load time, not read from the file.
	ProjectRoot string `koanf:"-"`
}

// Default configuration values.
const (
	DefaultOutput     = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultServerHost = "127.0.0.1"
	DefaultServerPort = 8733
)

// LoadSpec returns the source files named by the configuration.
func (c *Config) LoadSpec() engine.LoadSpec {
	return engine.LoadSpec{
		RosterPath: c.RosterPath,
		Licenses:   c.Licenses,
		NPIPath:    c.NPIPath,
	}
}

// EngineConfig translates file-level settings into a session config.
func (c *Config) EngineConfig(logger *slog.Logger) engine.Config {
	ec := engine.Config{
		SimilarityThreshold: c.SimilarityThreshold,
		BlockPrefixLen:      c.BlockPrefixLen,
		PhoneRegion:         c.PhoneRegion,
		Synonyms:            c.SynonymTable(),
		Logger:              logger,
	}
	if c.Weights != nil {
		ec.Weights = *c.Weights
	}
	return ec
}

// SynonymTable extends the built-in header synonyms with the entries from
// the config file. User mappings are appended so they win ties against the
// built-ins.
func (c *Config) SynonymTable() ingest.Synonyms {
	if len(c.Synonyms) == 0 {
		return nil
	}
	canonicals := make([]string, 0, len(c.Synonyms))
	for canonical := range c.Synonyms {
		canonicals = append(canonicals, canonical)
	}
	sort.Strings(canonicals)

	table := ingest.DefaultSynonyms()
	for _, canonical := range canonicals {
		table = append(table, ingest.Mapping{Canonical: canonical, Variants: c.Synonyms[canonical]})
	}
	return table
}
