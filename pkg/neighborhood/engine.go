package neighborhood

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Options control a single run.
type Options struct {
	WordSize  int
	Threshold int
	Threads   int
}

// Engine expands query words against one compiled matrix.
// It holds no per-run state and may be shared between goroutines.
type Engine struct {
	tab *table
}

// New compiles m. It fails when the alphabet is empty.
func New(m ScoreMatrix) (*Engine, error) {
	tab, err := compile(m)
	if err != nil {
		return nil, err
	}
	return &Engine{tab: tab}, nil
}

// Alphabet returns the canonical alphabet of the engine.
func (e *Engine) Alphabet() []byte {
	return slices.Clone(e.tab.alphabet)
}

// partial is what one worker hands back at the join.
type partial struct {
	results []Result
	stats   Stats
	failAt  int
	err     error
}

// Run decomposes query and expands every word on opt.Threads goroutines.
// Results are ordered by offset. Any failed word fails the whole run.
// ctx is only consulted between words.
func (e *Engine) Run(ctx context.Context, query string, opt Options) (*Report, error) {
	if opt.Threads <= 0 {
		return nil, fmt.Errorf("%w: thread count must be positive, got %d", ErrInvalidArgument, opt.Threads)
	}
	words, err := Words(query, opt.WordSize)
	if err != nil {
		return nil, err
	}
	if _, err := e.tab.positions(query, nil); err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	workers := min(opt.Threads, len(words))
	start := time.Now()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	parts := make([]partial, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for k := 0; k < workers; k++ {
		go func(k int) {
			defer wg.Done()
			parts[k] = e.work(runCtx, cancel, words, k, workers, opt.Threshold)
		}(k)
	}
	wg.Wait()

	// report the failure at the lowest offset
	var firstErr error
	failAt := len(words)
	for _, p := range parts {
		if p.err != nil && p.failAt < failAt {
			firstErr, failAt = p.err, p.failAt
		}
	}
	if firstErr != nil {
		return nil, fmt.Errorf("word at offset %d: %w", words[failAt].Offset, firstErr)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rep := &Report{Results: make([]Result, len(words)), Workers: workers}
	for k, p := range parts {
		for j, r := range p.results {
			rep.Results[k+j*workers] = r
		}
		rep.Stats.add(p.stats)
	}

	log.Debugf("Expanded %d words on %d workers in %v: visited=%d pruned=%d emitted=%d reused=%d",
		len(words), workers, time.Since(start), rep.Stats.Visited, rep.Stats.Pruned, rep.Stats.Emitted, rep.Stats.Reused)
	return rep, nil
}

// work expands words k, k+stride, k+2*stride, ... in order.
func (e *Engine) work(ctx context.Context, cancel context.CancelFunc, words []Word, k, stride, threshold int) partial {
	x := newExpander(e.tab, threshold)
	x.memo = make(map[string][]Neighbor)

	p := partial{results: make([]Result, 0, (len(words)-k+stride-1)/stride)}
	for i := k; i < len(words); i += stride {
		if ctx.Err() != nil {
			break
		}
		nb, err := x.expand(words[i].Text)
		if err != nil {
			p.err, p.failAt = err, i
			cancel()
			break
		}
		p.results = append(p.results, Result{Infix: words[i].Text, Offset: words[i].Offset, Neighbors: nb})
	}
	p.stats = x.stats
	return p
}

// Generate returns the neighborhood of every wordSize infix of query, ordered by offset.
// threads must be positive; any positive count gives the same result.
func Generate(query string, m ScoreMatrix, wordSize, threshold, threads int) ([]Result, error) {
	return GenerateContext(context.Background(), query, m, wordSize, threshold, threads)
}

// GenerateContext is Generate with cancellation checked between words.
func GenerateContext(ctx context.Context, query string, m ScoreMatrix, wordSize, threshold, threads int) ([]Result, error) {
	if threads <= 0 {
		return nil, fmt.Errorf("%w: thread count must be positive, got %d", ErrInvalidArgument, threads)
	}
	eng, err := New(m)
	if err != nil {
		return nil, err
	}
	rep, err := eng.Run(ctx, query, Options{WordSize: wordSize, Threshold: threshold, Threads: threads})
	if err != nil {
		return nil, err
	}
	return rep.Results, nil
}

// IsInputError reports whether err was caused by the caller's parameters
// rather than by cancellation.
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidParameter) || errors.Is(err, ErrInvalidArgument)
}
