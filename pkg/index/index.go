// Package index turns neighborhood results into a seed lookup table: for a
// word of the search database it answers at which query offsets it scores as
// a neighbor, and with which score.
package index

import (
	"slices"
	"sort"

	"github.com/bastiangx/seedserve/pkg/neighborhood"
	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

// Hit is one query position a word seeds at.
type Hit struct {
	Offset int
	Score  int
}

// Index maps neighbor words to their hits. It is read-only after Build.
type Index struct {
	trie  *patricia.Trie
	words int
	hits  int
}

// Build indexes every neighbor of results. Hits of a word are ordered by offset.
func Build(results []neighborhood.Result) *Index {
	byWord := make(map[string][]Hit)
	for _, r := range results {
		for _, n := range r.Neighbors {
			byWord[n.Word] = append(byWord[n.Word], Hit{Offset: r.Offset, Score: n.Score})
		}
	}

	idx := &Index{trie: patricia.NewTrie()}
	for word, hits := range byWord {
		slices.SortStableFunc(hits, func(a, b Hit) int { return a.Offset - b.Offset })
		idx.trie.Insert(patricia.Prefix(word), hits)
		idx.words++
		idx.hits += len(hits)
	}
	log.Debugf("Seed index built: %d words, %d hits", idx.words, idx.hits)
	return idx
}

// Lookup returns the hits of word, nil when it seeds nowhere.
// The returned slice must not be modified.
func (idx *Index) Lookup(word string) []Hit {
	item := idx.trie.Get(patricia.Prefix(word))
	if item == nil {
		return nil
	}
	return item.([]Hit)
}

// Contains reports whether word seeds at any offset.
func (idx *Index) Contains(word string) bool {
	return idx.trie.Get(patricia.Prefix(word)) != nil
}

// WithPrefix returns the indexed words starting with prefix, sorted.
func (idx *Index) WithPrefix(prefix string) []string {
	var words []string
	err := idx.trie.VisitSubtree(patricia.Prefix(prefix), func(p patricia.Prefix, item patricia.Item) error {
		words = append(words, string(p))
		return nil
	})
	if err != nil {
		log.Errorf("Error visiting seed index: %v", err)
	}
	sort.Strings(words)
	return words
}

// Len returns the number of distinct words.
func (idx *Index) Len() int { return idx.words }

// Hits returns the number of (word, offset) entries.
func (idx *Index) Hits() int { return idx.hits }
