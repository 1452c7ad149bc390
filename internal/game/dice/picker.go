package dice

import "fmt"

// SourcePicker implements Picker on top of a Source.
type SourcePicker struct {
	src Source
}

// NewPicker returns a Picker drawing from src.
//
// Precondition: src must be non-nil.
func NewPicker(src Source) *SourcePicker {
	if src == nil {
		panic("dice: NewPicker precondition violated: src must be non-nil")
	}
	return &SourcePicker{src: src}
}

// Pick returns a uniformly chosen index in [0, n).
//
// Precondition: n > 0.
func (p *SourcePicker) Pick(n int) int {
	return p.src.Intn(n)
}

// Sample returns k distinct indices in [0, n) using a partial Fisher-Yates
// shuffle, so every k-permutation is equally likely.
//
// Precondition: 0 <= k <= n. Panics otherwise.
// Postcondition: len(result) == k and no index repeats.
func (p *SourcePicker) Sample(n, k int) []int {
	if k < 0 || k > n {
		panic(fmt.Sprintf("dice: Sample precondition violated: k=%d n=%d", k, n))
	}
	pool := make([]int, n)
	for i := range pool {
		pool[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + p.src.Intn(n-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	out := make([]int, k)
	copy(out, pool[:k])
	return out
}
