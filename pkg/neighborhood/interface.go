/*
Package neighborhood computes BLAST word neighborhoods.

A query is cut into overlapping words of a fixed size. For every word the package
enumerates all strings of the same length over the matrix alphabet whose ungapped
substitution score against the word reaches a threshold. The search is a depth first
branch-and-bound: a branch is cut as soon as the prefix score plus the best possible
score of the remaining positions falls below the threshold. The bound never
underestimates, so the result is exact.

	results, err := neighborhood.Generate("AHIK", matrix.BLOSUM62(), 3, 11, 4)

Words are spread over a fixed number of goroutines with a static round-robin partition
and merged back by offset, so the output does not depend on scheduling. One thread and
many threads give identical results.

Within each result, neighbors are sorted by word in ascending byte order. The alphabet
is walked in that order, so no sort pass is needed.
*/
package neighborhood

// ScoreMatrix scores the substitution of one alphabet symbol for another.
// Implementations must be safe for concurrent reads.
type ScoreMatrix interface {
	// Alphabet returns the symbols the matrix is defined over.
	Alphabet() []byte

	// Score returns the score for aligning query symbol a against candidate symbol b.
	Score(a, b byte) int
}

// MaxScorer is implemented by matrices that know the best score obtainable for a
// query symbol. When absent it is derived from Score over the alphabet.
type MaxScorer interface {
	MaxScore(a byte) int
}
