package neighborhood

import "slices"

// expander runs the branch-and-bound search for one word at a time.
// It is owned by a single goroutine.
type expander struct {
	tab       *table
	threshold int

	query  []int // alphabet positions of the current word
	suffix []int // suffix[d] is the best score obtainable on positions d..W-1
	buf    []byte
	out    []Neighbor

	memo  map[string][]Neighbor
	stats Stats
}

func newExpander(tab *table, threshold int) *expander {
	return &expander{tab: tab, threshold: threshold}
}

// expand returns the sorted neighborhood of word.
func (e *expander) expand(word string) ([]Neighbor, error) {
	if cached, ok := e.memo[word]; ok {
		e.stats.Reused++
		return slices.Clone(cached), nil
	}

	query, err := e.tab.positions(word, e.query)
	if err != nil {
		return nil, err
	}
	e.query = query

	w := len(word)
	e.suffix = slices.Grow(e.suffix[:0], w+1)[:w+1]
	e.suffix[w] = 0
	for d := w - 1; d >= 0; d-- {
		e.suffix[d] = e.suffix[d+1] + e.tab.max[query[d]]
	}
	e.buf = slices.Grow(e.buf[:0], w)[:w]

	e.out = nil
	e.stats.Words++
	if e.suffix[0] >= e.threshold {
		e.walk(0, 0)
	} else {
		e.stats.Pruned++
	}

	out := e.out
	e.out = nil
	if e.memo != nil {
		e.memo[word] = out
	}
	return out, nil
}

// walk extends the prefix in buf[:d] whose score is score.
func (e *expander) walk(d, score int) {
	e.stats.Visited++
	if d == len(e.query) {
		if score >= e.threshold {
			e.out = append(e.out, Neighbor{Word: string(e.buf), Score: score})
			e.stats.Emitted++
		}
		return
	}

	row := e.tab.scores[e.query[d]]
	rest := e.suffix[d+1]
	for ci, c := range e.tab.alphabet {
		next := score + row[ci]
		if next+rest < e.threshold {
			e.stats.Pruned++
			continue
		}
		e.buf[d] = c
		e.walk(d+1, next)
	}
}

// Expand returns every string over the alphabet of m, of the same length as word,
// whose score against word is at least threshold. The result is sorted by word.
// An empty word yields the empty string when threshold <= 0.
func Expand(word string, m ScoreMatrix, threshold int) ([]Neighbor, error) {
	tab, err := compile(m)
	if err != nil {
		return nil, err
	}
	return newExpander(tab, threshold).expand(word)
}
