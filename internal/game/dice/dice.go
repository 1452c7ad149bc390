// Package dice provides the randomness abstraction used to spin wheels.
package dice

// Source is the randomness provider for wheel draws.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// Picker draws uniformly distributed indices into an outcome list.
type Picker interface {
	// Pick returns a uniformly chosen index in [0, n).
	//
	// Precondition: n > 0.
	Pick(n int) int
	// Sample returns k distinct indices in [0, n), in draw order.
	//
	// Precondition: 0 <= k <= n.
	Sample(n, k int) []int
}
