// Package dedupe finds likely duplicate provider rows without comparing
// every pair. Rows are first grouped by a cheap name-derived blocking
// key; only same-block pairs are scored, bounding the work to the sum
// of squared block sizes. Accepted pairs form an undirected graph whose
// connected components are the duplicate clusters.
//
// The whole pass is deterministic for a given row order and threshold:
// blocks are visited in sorted key order, in-block pairs in row order,
// and clusters are numbered in the order their first pair appears.
package dedupe

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/leapstack-labs/rosterdq/internal/roster"
	"github.com/leapstack-labs/rosterdq/pkg/similarity"
)

// DefaultThreshold is the minimum similarity score for a pair to count
// as a duplicate.
const DefaultThreshold = 85.0

// DefaultBlockPrefixLen is how many leading characters each name token
// contributes to the blocking key.
const DefaultBlockPrefixLen = 2

// Pair is one accepted duplicate candidate. IdxA < IdxB in original row
// order; Score is in [0,100]; ClusterID identifies the connected
// component both rows belong to.
type Pair struct {
	IdxA      int     `json:"idx_a"`
	IdxB      int     `json:"idx_b"`
	Score     float64 `json:"score"`
	ClusterID int     `json:"cluster_id"`
}

// Config controls candidate generation.
type Config struct {
	// Threshold is the acceptance score. Zero means DefaultThreshold.
	Threshold float64
	// BlockPrefixLen is the per-token prefix length for blocking keys.
	// Zero means DefaultBlockPrefixLen.
	BlockPrefixLen int
	// Logger receives debug counters. Nil discards.
	Logger *slog.Logger
}

// BlockingKey derives the coarse fingerprint used to group candidate
// rows: the name is lower-cased and split on whitespace, and each
// token contributes its first prefixLen characters. Empty names have no
// key and take no part in comparison.
func BlockingKey(name string, prefixLen int) string {
	if prefixLen <= 0 {
		prefixLen = DefaultBlockPrefixLen
	}
	parts := strings.Fields(strings.ToLower(name))
	if len(parts) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range parts {
		r := []rune(p)
		if len(r) > prefixLen {
			r = r[:prefixLen]
		}
		b.WriteString(string(r))
	}
	return b.String()
}

// Find scores same-block name pairs and clusters the accepted ones.
// Providers are expected to carry standardized names; rows whose best
// name is empty are excluded entirely.
func Find(providers []roster.Provider, cfg Config) []Pair {
	threshold := cfg.Threshold
	if threshold == 0 {
		threshold = DefaultThreshold
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	type member struct {
		row  int
		name string
	}
	blocks := make(map[string][]member)
	for _, p := range providers {
		name := p.BestName().Or("")
		key := BlockingKey(name, cfg.BlockPrefixLen)
		if key == "" {
			continue
		}
		blocks[key] = append(blocks[key], member{row: p.Row, name: name})
	}

	keys := make([]string, 0, len(blocks))
	for k, members := range blocks {
		if len(members) >= 2 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var pairs []Pair
	compared := 0
	for _, k := range keys {
		members := blocks[k]
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				compared++
				score := similarity.TokenSortRatio(members[i].name, members[j].name)
				if score >= threshold {
					pairs = append(pairs, Pair{IdxA: members[i].row, IdxB: members[j].row, Score: score})
				}
			}
		}
	}

	assignClusters(pairs)

	logger.Debug("duplicate resolution complete",
		"blocks", len(blocks), "comparisons", compared, "pairs", len(pairs))
	return pairs
}

// assignClusters numbers the connected components of the pair graph.
// Components are discovered in the order rows first appear in the pair
// list and traversed breadth-first with neighbors in ascending row
// order, so ids are reproducible.
func assignClusters(pairs []Pair) {
	adjacency := make(map[int][]int)
	var order []int
	addNode := func(n int) {
		if _, ok := adjacency[n]; !ok {
			adjacency[n] = nil
			order = append(order, n)
		}
	}
	for _, p := range pairs {
		addNode(p.IdxA)
		addNode(p.IdxB)
		adjacency[p.IdxA] = append(adjacency[p.IdxA], p.IdxB)
		adjacency[p.IdxB] = append(adjacency[p.IdxB], p.IdxA)
	}

	clusterOf := make(map[int]int, len(adjacency))
	visited := make(map[int]bool, len(adjacency))
	next := 0
	for _, start := range order {
		if visited[start] {
			continue
		}
		queue := []int{start}
		visited[start] = true
		for len(queue) > 0 {
			u := queue[0]
			queue = queue[1:]
			clusterOf[u] = next
			neighbors := append([]int(nil), adjacency[u]...)
			sort.Ints(neighbors)
			for _, v := range neighbors {
				if !visited[v] {
					visited[v] = true
					queue = append(queue, v)
				}
			}
		}
		next++
	}

	for i := range pairs {
		pairs[i].ClusterID = clusterOf[pairs[i].IdxA]
	}
}

// Flag returns a copy of providers with duplicate_suspect set on every
// row that participates in at least one accepted pair.
func Flag(providers []roster.Provider, pairs []Pair) []roster.Provider {
	suspect := make(map[int]bool, len(pairs)*2)
	for _, p := range pairs {
		suspect[p.IdxA] = true
		suspect[p.IdxB] = true
	}

	out := make([]roster.Provider, len(providers))
	copy(out, providers)
	for i := range out {
		out[i].DuplicateSuspect = suspect[out[i].Row]
	}
	return out
}

// ClusterCount returns the number of distinct clusters in pairs.
func ClusterCount(pairs []Pair) int {
	seen := make(map[int]struct{})
	for _, p := range pairs {
		seen[p.ClusterID] = struct{}{}
	}
	return len(seen)
}
