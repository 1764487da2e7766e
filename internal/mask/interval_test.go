package mask

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name      string
		positions []int64
		want      []Span
	}{
		{"empty", nil, nil},
		{"single", []int64{7}, []Span{{7, 7}}},
		{"contiguous", []int64{1, 2, 3, 4}, []Span{{1, 4}}},
		{"unordered with duplicates", []int64{5, 3, 4, 4, 10, 9, 1}, []Span{{1, 1}, {3, 5}, {9, 10}}},
		{"isolated points", []int64{2, 4, 6}, []Span{{2, 2}, {4, 4}, {6, 6}}},
		{"zero based", []int64{0, 1, 3}, []Span{{0, 1}, {3, 3}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.positions))
		})
	}
}

func TestExtract_DoesNotModifyInput(t *testing.T) {
	in := []int64{3, 1, 2, 2}
	Extract(in)
	assert.Equal(t, []int64{3, 1, 2, 2}, in)
}

func TestExtract_Properties(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	for trial := range 200 {
		n := rng.IntN(300)
		set := make(map[int64]bool)
		positions := make([]int64, 0, n)
		for range n {
			p := rng.Int64N(500)
			set[p] = true
			positions = append(positions, p)
		}

		spans := Extract(positions)

		// Sorted, non-overlapping, maximally merged.
		for i := 1; i < len(spans); i++ {
			require.Greater(t, spans[i].Lo, spans[i-1].Hi+1, "trial %d: spans %v and %v touch or overlap", trial, spans[i-1], spans[i])
		}
		for _, s := range spans {
			require.LessOrEqual(t, s.Lo, s.Hi)
		}

		// Union equals the input set exactly.
		covered := Expand(spans)
		require.Len(t, covered, len(set), "trial %d", trial)
		for _, p := range covered {
			require.True(t, set[p], "trial %d: %d not in input", trial, p)
		}

		// Idempotent on its own expansion.
		require.Equal(t, spans, Extract(covered), "trial %d", trial)

		// Order of input does not matter.
		shuffled := slices.Clone(positions)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		require.Equal(t, spans, Extract(shuffled), "trial %d", trial)
	}
}

func TestInterval_Len(t *testing.T) {
	assert.Equal(t, int64(1), Interval{Start: 5, End: 5}.Len())
	assert.Equal(t, int64(20), Interval{Start: 1, End: 20}.Len())
}
