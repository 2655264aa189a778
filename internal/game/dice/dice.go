// Package dice provides the randomness abstraction used by world generation.
package dice

// Source is the randomness provider for procedural generation.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// Jitter returns a uniformly distributed offset in [-spread, spread].
//
// Precondition: spread >= 0; src must be non-nil.
func Jitter(src Source, spread int) int {
	if spread <= 0 {
		return 0
	}
	return src.Intn(2*spread+1) - spread
}
