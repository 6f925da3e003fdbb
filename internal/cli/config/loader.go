package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/leapstack-labs/rosterdq/internal/dedupe"
	"github.com/leapstack-labs/rosterdq/internal/standardize"
)

// loggerKey is used to store logger in context.
// This key is shared with root.go via both using the same type.
type loggerKey struct{}

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config // Stores the loaded config for access by commands
)

// findConfigFile finds the config file to use.
// Priority: explicit path > rosterdq.yaml > rosterdq.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat("rosterdq.yaml"); err == nil {
		return "rosterdq.yaml"
	}
	if _, err := os.Stat("rosterdq.yml"); err == nil {
		return "rosterdq.yml"
	}
	return ""
}

// configExistsIn checks if a rosterdq config file exists in the directory.
func configExistsIn(dir string) bool {
	for _, name := range []string{"rosterdq.yaml", "rosterdq.yml"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// findProjectRootUpward searches upward from startDir for a rosterdq config file.
// Returns empty string if not found within maxUpwardSearchLevels.
func findProjectRootUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if configExistsIn(dir) {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}
	return ""
}

// inferProjectRoot determines the project root from CLI flags and filesystem.
// Priority:
//  1. Explicit --project-dir flag
//  2. Infer from --roster (its directory, when that directory holds a config)
//  3. Search upward from CWD for rosterdq.yaml
//  4. Current working directory
func inferProjectRoot(flags *pflag.FlagSet) string {
	// 1. Check explicit --project-dir
	if flags != nil {
		if projectDir, _ := flags.GetString("project-dir"); projectDir != "" && flags.Changed("project-dir") {
			abs, err := filepath.Abs(projectDir)
			if err == nil {
				return abs
			}
			return filepath.Clean(projectDir)
		}
	}

	// 2. Infer from --roster
	if flags != nil {
		if rosterPath, _ := flags.GetString("roster"); rosterPath != "" && flags.Changed("roster") {
			absRoster, err := filepath.Abs(rosterPath)
			if err == nil {
				dir := filepath.Dir(absRoster)
				if configExistsIn(dir) {
					return dir
				}
			}
		}
	}

	// 3. Search upward from CWD for rosterdq.yaml
	if cwd, err := os.Getwd(); err == nil {
		if root := findProjectRootUpward(cwd); root != "" {
			return root
		}
	}

	// 4. Default to CWD
	cwd, _ := os.Getwd()
	if cwd == "" {
		cwd = "."
	}
	return cwd
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
// Returns the path unchanged if it's empty or already absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	// Reset koanf for fresh load
	k = koanf.New(".")

	// Infer project root from flags before loading config.
	// --roster data/roster.csv next to a config file anchors the project there.
	projectRoot := inferProjectRoot(flags)

	// Track paths that were explicitly provided as flags (already relative to CWD).
	// These are converted to absolute paths before the normal resolution step,
	// to prevent double-resolution when project root was inferred from them.
	var flagRoster, flagNPI string
	if flags != nil {
		if flags.Changed("roster") {
			if v, _ := flags.GetString("roster"); v != "" {
				flagRoster, _ = filepath.Abs(v)
			}
		}
		if flags.Changed("npi") {
			if v, _ := flags.GetString("npi"); v != "" {
				flagNPI, _ = filepath.Abs(v)
			}
		}
	}

	// If an explicit config file is provided, use its directory as project root
	// (unless a more specific hint was given via flags)
	if cfgFile != "" && projectRoot == inferProjectRoot(nil) {
		// No flag-based inference happened, use config file's directory
		if absPath, err := filepath.Abs(cfgFile); err == nil {
			projectRoot = filepath.Dir(absPath)
		}
	}

	// 1. Load defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"similarity_threshold": dedupe.DefaultThreshold,
		"block_prefix_len":     dedupe.DefaultBlockPrefixLen,
		"phone_region":         standardize.DefaultRegion,
		"verbose":              false,
		"output":               DefaultOutput,
		"server.host":          DefaultServerHost,
		"server.port":          DefaultServerPort,
		"server.watch":         false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Find and load config file
	// Search in project root if no explicit config file provided
	if cfgFile == "" {
		for _, name := range []string{"rosterdq.yaml", "rosterdq.yml"} {
			candidate := filepath.Join(projectRoot, name)
			if _, err := os.Stat(candidate); err == nil {
				cfgFile = candidate
				break
			}
		}
	}
	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Load environment variables (ROSTERDQ_ prefix)
	// Transform: ROSTERDQ_PHONE_REGION -> phone_region
	if err := k.Load(env.Provider("ROSTERDQ_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "ROSTERDQ_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority - overrides env vars and config file)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set
			if !f.Changed {
				return "", nil
			}
			// Transform kebab-case to snake_case for config keys
			key := strings.ReplaceAll(f.Name, "-", "_")
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// 6. Set project root, expand ${VAR} references, and resolve relative paths.
	// Project root is the base for all path resolution so a config checked in
	// next to its data files works from any working directory.
	cfg.ProjectRoot = projectRoot

	cfg.RosterPath = expandEnvVars(cfg.RosterPath)
	cfg.NPIPath = expandEnvVars(cfg.NPIPath)
	for i := range cfg.Licenses {
		cfg.Licenses[i].Path = expandEnvVars(cfg.Licenses[i].Path)
	}

	// For paths explicitly provided via flags, use the pre-computed absolute
	// paths (already computed relative to CWD at flag parse time).
	// For paths from config file, resolve relative to project root.
	if flagRoster != "" {
		cfg.RosterPath = flagRoster
	} else {
		cfg.RosterPath = resolvePathRelativeTo(cfg.RosterPath, projectRoot)
	}
	if flagNPI != "" {
		cfg.NPIPath = flagNPI
	} else {
		cfg.NPIPath = resolvePathRelativeTo(cfg.NPIPath, projectRoot)
	}
	for i := range cfg.Licenses {
		cfg.Licenses[i].Path = resolvePathRelativeTo(cfg.Licenses[i].Path, projectRoot)
	}

	// Store config for access by commands
	currentConfig = &cfg

	return &cfg, nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration.
// This is available after LoadConfig is called.
func GetCurrentConfig() *Config {
	return currentConfig
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // Return original if not found
	})
}
