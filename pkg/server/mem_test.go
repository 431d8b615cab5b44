//go:build test

package server

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"runtime"
	"runtime/pprof"
	"strings"
	"sync"
	"testing"

	"github.com/bastiangx/seedserve/pkg/config"
	"github.com/bastiangx/seedserve/pkg/matrix"
	"github.com/bastiangx/seedserve/pkg/neighborhood"
	"github.com/charmbracelet/log"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

func randomQueries(n, length int) []string {
	rng := rand.New(rand.NewPCG(7, 11))
	queries := make([]string, n)
	for i := range queries {
		var b strings.Builder
		for j := 0; j < length; j++ {
			b.WriteByte(matrix.StandardAminoAcids[rng.IntN(len(matrix.StandardAminoAcids))])
		}
		queries[i] = b.String()
	}
	return queries
}

func TestMemoryBoundedByHotCache(t *testing.T) {
	for _, requests := range []int{100, 500, 2000} {
		t.Run(fmt.Sprintf("requests_%d", requests), func(t *testing.T) {
			runBoundedCacheTest(t, requests)
		})
	}
}

func runBoundedCacheTest(t *testing.T, requests int) {
	memFile, err := os.Create("hotcache_memory.prof")
	if err != nil {
		t.Fatalf("profile file creation failed: %v", err)
	}
	defer func() {
		memFile.Close()
		os.Remove("hotcache_memory.prof")
	}()

	cfg := config.DefaultConfig()
	cfg.Server.CacheEntries = 4
	srv := NewServerWithIO(matrix.NewRegistry(""), cfg, strings.NewReader(""), io.Discard)
	queries := randomQueries(64, 40)
	ctx := context.Background()

	var baseline runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&baseline)
	baselineGoroutines := runtime.NumGoroutine()
	maxMemDelta := int64(0)

	for i := 0; i < requests; i++ {
		srv.handleRequest(ctx, Request{ID: "m", Action: "generate", Query: queries[i%len(queries)]})
		if i%100 == 0 {
			var m runtime.MemStats
			runtime.GC()
			runtime.ReadMemStats(&m)
			maxMemDelta = max(maxMemDelta, int64(m.Alloc)-int64(baseline.Alloc))
		}
	}

	var final runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&final)
	memDelta := int64(final.Alloc) - int64(baseline.Alloc)
	goroutineDelta := runtime.NumGoroutine() - baselineGoroutines

	t.Logf("requests=%d mem_delta=%d bytes max_mem_delta=%d goroutine_delta=%d cache=%v",
		requests, memDelta, maxMemDelta, goroutineDelta, srv.Cache().Stats())

	if err := pprof.WriteHeapProfile(memFile); err != nil {
		t.Errorf("heap profile write failed: %v", err)
	}
	if n := srv.Cache().Stats()["entries"]; n > 4 {
		t.Errorf("hot cache grew past its bound: %d entries", n)
	}
	if maxMemDelta > 10*1024*1024 {
		t.Errorf("excessive peak memory usage: %d bytes", maxMemDelta)
	}
	if goroutineDelta > 2 {
		t.Errorf("goroutine leak detected: %d goroutines leaked", goroutineDelta)
	}
}

func TestMemoryConcurrentEngines(t *testing.T) {
	eng, err := neighborhood.New(matrix.BLOSUM62())
	if err != nil {
		t.Fatal(err)
	}
	queries := randomQueries(16, 60)

	var baseline runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&baseline)
	baselineGoroutines := runtime.NumGoroutine()

	var wg sync.WaitGroup
	for worker := 0; worker < 8; worker++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				q := queries[(worker+i)%len(queries)]
				if _, err := eng.Run(context.Background(), q, neighborhood.Options{WordSize: 3, Threshold: 11, Threads: 4}); err != nil {
					t.Errorf("run failed: %v", err)
					return
				}
			}
		}(worker)
	}
	wg.Wait()

	var final runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&final)
	memDelta := int64(final.Alloc) - int64(baseline.Alloc)
	goroutineDelta := runtime.NumGoroutine() - baselineGoroutines
	t.Logf("mem_delta=%d bytes goroutine_delta=%d", memDelta, goroutineDelta)

	if memDelta > 2*1024*1024 {
		t.Errorf("engine retained memory across runs: %d bytes", memDelta)
	}
	if goroutineDelta > 3 {
		t.Errorf("goroutine leak detected: %d goroutines leaked", goroutineDelta)
	}
}
