// Package engine orchestrates the provider data-quality pipeline and
// exposes the augmented table through a fixed named-query interface.
//
// A Session owns at most one generation: the augmented provider table,
// its duplicate pairs, and the dataset score, all produced by one load
// and replaced together. Loads are synchronous whole-table batches; a
// failed load leaves the previous generation untouched. Queries only
// ever observe a fully formed generation.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/leapstack-labs/rosterdq/internal/dedupe"
	"github.com/leapstack-labs/rosterdq/internal/ingest"
	"github.com/leapstack-labs/rosterdq/internal/roster"
	"github.com/leapstack-labs/rosterdq/internal/rules"
	"github.com/leapstack-labs/rosterdq/internal/score"
	"github.com/leapstack-labs/rosterdq/internal/standardize"
	"github.com/leapstack-labs/rosterdq/internal/validate"
)

// Contract errors. Callers distinguish them with errors.Is.
var (
	// ErrUnknownIntent is returned for intent names outside the fixed
	// dispatch table.
	ErrUnknownIntent = errors.New("unknown intent")
	// ErrNoData is returned when a query runs before any successful load.
	ErrNoData = errors.New("no roster loaded")
	// ErrBadParam is returned when intent parameters cannot be decoded.
	ErrBadParam = errors.New("invalid query parameter")
)

// Config tunes the pipeline. The zero value is usable: defaults mirror
// the standard thresholds and weights.
type Config struct {
	// SimilarityThreshold is the duplicate acceptance score in [0,100].
	// Zero means dedupe.DefaultThreshold.
	SimilarityThreshold float64
	// BlockPrefixLen is the per-token prefix length for blocking keys.
	// Zero means dedupe.DefaultBlockPrefixLen.
	BlockPrefixLen int
	// PhoneRegion is the default region for phone parsing. Empty means
	// standardize.DefaultRegion.
	PhoneRegion string
	// Weights overrides the scoring weights. The zero value means
	// score.DefaultWeights().
	Weights score.Weights
	// Synonyms overrides the ingestion synonym table. Nil means the
	// built-in table.
	Synonyms ingest.Synonyms
	// Logger receives pipeline progress at debug level. Nil discards.
	Logger *slog.Logger
	// Now supplies the current time for expiration checks. Nil means
	// time.Now.
	Now func() time.Time
}

// LicenseSource names one state registry file and the jurisdiction tag
// applied to its rows. Source order matters: when the same license
// number appears in several registries, the earliest listed source wins.
type LicenseSource struct {
	Jurisdiction string `koanf:"jurisdiction"`
	Path         string `koanf:"path"`
}

// LoadSpec names the files for one load. Roster is required; reference
// sources are optional and their absence degrades the matching flags
// instead of failing.
type LoadSpec struct {
	RosterPath string          `koanf:"roster"`
	Licenses   []LicenseSource `koanf:"licenses"`
	NPIPath    string          `koanf:"npi"`
}

// SourcePaths lists every file the spec references, roster first.
func (s LoadSpec) SourcePaths() []string {
	paths := []string{s.RosterPath}
	for _, lic := range s.Licenses {
		paths = append(paths, lic.Path)
	}
	if s.NPIPath != "" {
		paths = append(paths, s.NPIPath)
	}
	return paths
}

// Snapshot is one immutable generation of the augmented table. Readers
// must not modify it; a reload produces a fresh Snapshot rather than
// changing an existing one.
type Snapshot struct {
	ID        string
	LoadedAt  time.Time
	Spec      LoadSpec
	Providers []roster.Provider
	Pairs     []dedupe.Pair
	Overall   float64

	// LicenseRegistry and NPIRegistry record whether reference data was
	// part of this load. Flags that depend on an absent registry stay
	// down rather than reading as defects.
	LicenseRegistry bool
	NPIRegistry     bool

	// extraColumns is the sorted union of pass-through column names
	// across all rows, fixed at load time so table shapes are stable.
	extraColumns []string
}

// Session runs loads and serves queries. A Session is safe for
// concurrent use: loads swap the generation under a write lock while
// queries read the current one.
type Session struct {
	cfg    Config
	logger *slog.Logger
	loader *ingest.Loader
	now    func() time.Time

	mu  sync.RWMutex
	gen *Snapshot
}

// NewSession creates a Session from cfg.
func NewSession(cfg Config) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Session{
		cfg:    cfg,
		logger: logger,
		loader: ingest.New(ingest.Config{Synonyms: cfg.Synonyms, Logger: logger}),
		now:    now,
	}
}

// Load reads the files named by spec, runs the full pipeline, and
// atomically publishes the new generation. On error nothing is
// published and the previous generation, if any, stays active.
func (s *Session) Load(spec LoadSpec) error {
	started := s.now()

	providers, err := s.loader.RosterFile(spec.RosterPath)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}

	var licenseSources [][]roster.License
	for _, src := range spec.Licenses {
		lics, err := s.loader.LicenseFile(src.Path, src.Jurisdiction)
		if err != nil {
			return fmt.Errorf("load: %w", err)
		}
		licenseSources = append(licenseSources, lics)
	}

	var npiSet roster.NPISet
	if spec.NPIPath != "" {
		npiSet, err = s.loader.NPIFile(spec.NPIPath)
		if err != nil {
			return fmt.Errorf("load: %w", err)
		}
	}

	snap := s.run(providers, licenseSources, npiSet)
	snap.Spec = spec

	s.mu.Lock()
	s.gen = snap
	s.mu.Unlock()

	s.logger.Info("roster loaded",
		"generation", snap.ID,
		"rows", len(snap.Providers),
		"duplicate_pairs", len(snap.Pairs),
		"overall_score", snap.Overall,
		"elapsed", s.now().Sub(started))
	return nil
}

// LoadData runs the pipeline over already-ingested inputs and publishes
// the result. A nil licenseSources means no license registry was
// supplied; a nil npiSet means no identifier registry was supplied.
func (s *Session) LoadData(providers []roster.Provider, licenseSources [][]roster.License, npiSet roster.NPISet) {
	snap := s.run(providers, licenseSources, npiSet)

	s.mu.Lock()
	s.gen = snap
	s.mu.Unlock()
}

// run executes the pipeline stages in dependency order over an
// already-ingested roster and assembles an unpublished Snapshot.
func (s *Session) run(providers []roster.Provider, licenseSources [][]roster.License, npiSet roster.NPISet) *Snapshot {
	now := s.now()

	table := standardize.Apply(providers, standardize.Config{PhoneRegion: s.cfg.PhoneRegion})
	table = validate.Licenses(table, licenseSources, now, s.logger)
	table = validate.NPI(table, npiSet, s.logger)

	pairs := dedupe.Find(table, dedupe.Config{
		Threshold:      s.cfg.SimilarityThreshold,
		BlockPrefixLen: s.cfg.BlockPrefixLen,
		Logger:         s.logger,
	})
	table = dedupe.Flag(table, pairs)

	table = rules.Apply(table, rules.Builtin(), s.logger)

	weights := s.cfg.Weights
	if weights == (score.Weights{}) {
		weights = score.DefaultWeights()
	}
	table = score.Apply(table, weights, s.logger)

	return &Snapshot{
		ID:              uuid.NewString(),
		LoadedAt:        now,
		Providers:       table,
		Pairs:           pairs,
		Overall:         score.Overall(table),
		LicenseRegistry: len(licenseSources) > 0,
		NPIRegistry:     npiSet != nil,
		extraColumns:    extraColumnNames(table),
	}
}

// Snapshot returns the current generation, or false before the first
// successful load.
func (s *Session) Snapshot() (*Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.gen == nil {
		return nil, false
	}
	return s.gen, true
}

// Loaded reports whether a generation has been published.
func (s *Session) Loaded() bool {
	_, ok := s.Snapshot()
	return ok
}
