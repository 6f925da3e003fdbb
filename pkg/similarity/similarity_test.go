package similarity

import (
	"math"
	"testing"
)

func TestRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "John Smith", "John Smith", 100.0},
		{"both empty", "", "", 100.0},
		{"one empty", "John", "", 0.0},
		{"disjoint", "abc", "xyz", 0.0},
		{"one insertion", "Jon Smith", "John Smith", 100.0 * (1.0 - 1.0/19.0)},
	}
	for _, tt := range tests {
		got := Ratio(tt.a, tt.b)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s: Ratio(%q, %q) = %v, want %v", tt.name, tt.a, tt.b, got, tt.want)
		}
	}
}

func TestRatioSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"John Smith", "Jon Smith"},
		{"Maria Garcia", "Garcia Maria"},
		{"", "x"},
		{"dr. jane doe", "jane doe"},
	}
	for _, p := range pairs {
		ab := Ratio(p[0], p[1])
		ba := Ratio(p[1], p[0])
		if ab != ba {
			t.Errorf("Ratio not symmetric for %q/%q: %v != %v", p[0], p[1], ab, ba)
		}
		ab = TokenSortRatio(p[0], p[1])
		ba = TokenSortRatio(p[1], p[0])
		if ab != ba {
			t.Errorf("TokenSortRatio not symmetric for %q/%q: %v != %v", p[0], p[1], ab, ba)
		}
	}
}

func TestTokenSortRatio(t *testing.T) {
	tests := []struct {
		name    string
		a, b    string
		atLeast float64
	}{
		{"reordered tokens are identical", "Smith John", "John Smith", 100.0},
		{"extra whitespace ignored", "John   Smith", "John Smith", 100.0},
		{"minor spelling variation", "Jon Smith", "John Smith", 85.0},
	}
	for _, tt := range tests {
		got := TokenSortRatio(tt.a, tt.b)
		if got < tt.atLeast {
			t.Errorf("%s: TokenSortRatio(%q, %q) = %v, want >= %v", tt.name, tt.a, tt.b, got, tt.atLeast)
		}
		if got < 0 || got > 100 {
			t.Errorf("%s: score %v outside [0,100]", tt.name, got)
		}
	}
}

func TestTokenSortRatioCaseSensitive(t *testing.T) {
	// Casing is the caller's concern; the metric itself must not fold case.
	if got := TokenSortRatio("JOHN SMITH", "john smith"); got == 100.0 {
		t.Errorf("TokenSortRatio folded case: got %v", got)
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"gumbo", "gambol", 2},
		{"same", "same", 0},
	}
	for _, tt := range tests {
		if got := Levenshtein(tt.a, tt.b); got != tt.want {
			t.Errorf("Levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
