package dedupe

import (
	"reflect"
	"testing"

	"github.com/leapstack-labs/rosterdq/internal/roster"
)

func named(row int, name string) roster.Provider {
	return roster.Provider{Row: row, FullNameClean: roster.String(name)}
}

func TestBlockingKey(t *testing.T) {
	tests := []struct {
		name      string
		prefixLen int
		want      string
	}{
		{"John Smith", 2, "josm"},
		{"john smith", 2, "josm"},
		{"  John   Smith  ", 2, "josm"},
		{"Cher", 2, "ch"},
		{"A B", 2, "ab"},
		{"", 2, ""},
		{"   ", 2, ""},
		{"John Smith", 3, "johsmi"},
	}
	for _, tt := range tests {
		if got := BlockingKey(tt.name, tt.prefixLen); got != tt.want {
			t.Errorf("BlockingKey(%q, %d) = %q, want %q", tt.name, tt.prefixLen, got, tt.want)
		}
	}
}

func TestFindAcceptsSimilarNames(t *testing.T) {
	providers := []roster.Provider{
		named(0, "Jon Smith"),
		named(1, "John Smith"),
	}

	pairs := Find(providers, Config{})
	if len(pairs) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(pairs))
	}
	p := pairs[0]
	if p.IdxA != 0 || p.IdxB != 1 {
		t.Errorf("pair rows = (%d,%d), want (0,1)", p.IdxA, p.IdxB)
	}
	if p.Score < 85 || p.Score > 100 {
		t.Errorf("score %v outside expected range", p.Score)
	}
	if p.ClusterID != 0 {
		t.Errorf("cluster id = %d, want 0", p.ClusterID)
	}
}

func TestFindSkipsEmptyNames(t *testing.T) {
	providers := []roster.Provider{
		named(0, ""),
		named(1, ""),
		{Row: 2},
	}
	if pairs := Find(providers, Config{}); len(pairs) != 0 {
		t.Errorf("empty names must not pair, got %d pairs", len(pairs))
	}
}

func TestFindBlocksLimitComparison(t *testing.T) {
	// Reordered tokens score 100 but land in different blocks, so they
	// are never compared.
	providers := []roster.Provider{
		named(0, "John Smith"),
		named(1, "Smith John"),
	}
	if pairs := Find(providers, Config{}); len(pairs) != 0 {
		t.Errorf("cross-block rows must not pair, got %d pairs", len(pairs))
	}
}

func TestFindClusters(t *testing.T) {
	providers := []roster.Provider{
		named(0, "John Smith"),
		named(1, "Jane Doe"),
		named(2, "Jon Smith"),
		named(3, "Jane Doer"),
		named(4, "Johnny Smith"),
		named(5, ""),
		named(6, "Zeb Quux"),
	}

	pairs := Find(providers, Config{})
	if len(pairs) != 4 {
		t.Fatalf("expected 4 pairs, got %d: %+v", len(pairs), pairs)
	}

	// Blocks are visited in sorted key order, so the Jane Doe block
	// ("jado") is discovered before the John Smith block ("josm").
	clusterOf := map[int]int{}
	for _, p := range pairs {
		if p.IdxA >= p.IdxB {
			t.Errorf("pair (%d,%d) not in row order", p.IdxA, p.IdxB)
		}
		for _, row := range []int{p.IdxA, p.IdxB} {
			if prev, seen := clusterOf[row]; seen && prev != p.ClusterID {
				t.Errorf("row %d in clusters %d and %d", row, prev, p.ClusterID)
			}
			clusterOf[row] = p.ClusterID
		}
	}

	for row, want := range map[int]int{1: 0, 3: 0, 0: 1, 2: 1, 4: 1} {
		if clusterOf[row] != want {
			t.Errorf("row %d cluster = %d, want %d", row, clusterOf[row], want)
		}
	}
	if n := ClusterCount(pairs); n != 2 {
		t.Errorf("ClusterCount = %d, want 2", n)
	}
}

func TestFindDeterministic(t *testing.T) {
	providers := []roster.Provider{
		named(0, "John Smith"),
		named(1, "Jane Doe"),
		named(2, "Jon Smith"),
		named(3, "Jane Doer"),
		named(4, "Johnny Smith"),
	}

	first := Find(providers, Config{})
	for i := 0; i < 10; i++ {
		if again := Find(providers, Config{}); !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs: %+v vs %+v", i, first, again)
		}
	}
}

func TestFindThreshold(t *testing.T) {
	providers := []roster.Provider{
		named(0, "Jon Smith"),
		named(1, "John Smith"),
	}

	// Jon/John Smith scores just under 95.
	if pairs := Find(providers, Config{Threshold: 94}); len(pairs) != 1 {
		t.Errorf("threshold 94: expected 1 pair, got %d", len(pairs))
	}
	if pairs := Find(providers, Config{Threshold: 95}); len(pairs) != 0 {
		t.Errorf("threshold 95: expected 0 pairs, got %d", len(pairs))
	}
}

func TestFlag(t *testing.T) {
	providers := []roster.Provider{
		named(0, "John Smith"),
		named(1, "Jane Doe"),
		named(2, "Jon Smith"),
	}
	pairs := []Pair{{IdxA: 0, IdxB: 2, Score: 94.7}}

	flagged := Flag(providers, pairs)
	if !flagged[0].DuplicateSuspect || !flagged[2].DuplicateSuspect {
		t.Errorf("paired rows must be flagged")
	}
	if flagged[1].DuplicateSuspect {
		t.Errorf("unpaired row must not be flagged")
	}
	if providers[0].DuplicateSuspect {
		t.Errorf("input slice must not be mutated")
	}
}
