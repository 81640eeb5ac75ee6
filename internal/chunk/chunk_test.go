package chunk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestSplitSizes(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		size  int
		sizes []int
	}{
		{"empty", 0, 90, nil},
		{"under limit", 10, 90, []int{10}},
		{"exact", 90, 90, []int{90}},
		{"bulk fetch", 250, 90, []int{90, 90, 70}},
		{"batch delete", 1500, 1000, []int{1000, 500}},
		{"no limit", 5, 0, []int{5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := Split(seq(tt.n), tt.size)

			var sizes []int
			total := 0
			for _, c := range chunks {
				sizes = append(sizes, len(c))
				total += len(c)
			}
			assert.Equal(t, tt.sizes, sizes)
			assert.Equal(t, tt.n, total)
		})
	}
}

func TestSplitKeepsOrderAndIsolatesChunks(t *testing.T) {
	chunks := Split([]string{"a", "b", "c"}, 2)

	assert.Equal(t, [][]string{{"a", "b"}, {"c"}}, chunks)

	chunks[0] = append(chunks[0], "x")
	assert.Equal(t, []string{"c"}, chunks[1])
}

func TestUnique(t *testing.T) {
	assert.Equal(t, []int64{3, 1, 2}, Unique([]int64{3, 1, 3, 2, 1}))
	assert.Empty(t, Unique([]int64{}))
}
