package neighborhood

import (
	"fmt"
	"slices"
)

// table is a ScoreMatrix compiled to alphabet positions. It is built once per run
// and only read afterwards, so workers share it without locking.
type table struct {
	alphabet []byte
	index    [256]int16 // symbol -> alphabet position, -1 when absent
	scores   [][]int    // scores[query pos][candidate pos]
	max      []int      // best score per query position
}

func compile(m ScoreMatrix) (*table, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil score matrix", ErrInvalidParameter)
	}
	alphabet := canonicalAlphabet(m.Alphabet())
	if len(alphabet) == 0 {
		return nil, fmt.Errorf("%w: empty alphabet", ErrInvalidParameter)
	}

	t := &table{
		alphabet: alphabet,
		scores:   make([][]int, len(alphabet)),
		max:      make([]int, len(alphabet)),
	}
	for i := range t.index {
		t.index[i] = -1
	}
	for i, c := range alphabet {
		t.index[c] = int16(i)
	}

	maxScorer, hasMax := m.(MaxScorer)
	for i, a := range alphabet {
		row := make([]int, len(alphabet))
		best := 0
		for j, b := range alphabet {
			row[j] = m.Score(a, b)
			if j == 0 || row[j] > best {
				best = row[j]
			}
		}
		// A reported maximum may only loosen the bound, never tighten it below the row.
		if hasMax {
			best = max(best, maxScorer.MaxScore(a))
		}
		t.scores[i] = row
		t.max[i] = best
	}
	return t, nil
}

// canonicalAlphabet returns a sorted, deduplicated copy of symbols.
func canonicalAlphabet(symbols []byte) []byte {
	out := slices.Clone(symbols)
	slices.Sort(out)
	return slices.Compact(out)
}

// positions maps word onto alphabet positions.
func (t *table) positions(word string, dst []int) ([]int, error) {
	dst = dst[:0]
	for i := 0; i < len(word); i++ {
		pos := t.index[word[i]]
		if pos < 0 {
			return nil, fmt.Errorf("%w: symbol %q at position %d of %q is not in the alphabet", ErrInvalidParameter, word[i], i, word)
		}
		dst = append(dst, int(pos))
	}
	return dst, nil
}
