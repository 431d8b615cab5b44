package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"reflect"
	"slices"
	"strings"
	"testing"

	"github.com/bastiangx/seedserve/pkg/config"
	"github.com/bastiangx/seedserve/pkg/matrix"
	"github.com/vmihailenco/msgpack/v5"
)

func intPtr(v int) *int { return &v }

// serve runs requests through a server and returns the raw responses after the ready status.
func serve(t *testing.T, cfg *config.Config, requests ...any) ([]msgpack.RawMessage, *Server) {
	t.Helper()
	var in bytes.Buffer
	enc := msgpack.NewEncoder(&in)
	for _, req := range requests {
		if err := enc.Encode(req); err != nil {
			t.Fatalf("encoding request: %v", err)
		}
	}

	var out bytes.Buffer
	srv := NewServerWithIO(matrix.NewRegistry(""), cfg, &in, &out)
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	dec := msgpack.NewDecoder(&out)
	var ready StatusResponse
	if err := dec.Decode(&ready); err != nil || ready.Status != "ready" {
		t.Fatalf("expected ready status, got %+v (%v)", ready, err)
	}
	var responses []msgpack.RawMessage
	for {
		var raw msgpack.RawMessage
		if err := dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			t.Fatalf("decoding response: %v", err)
		}
		responses = append(responses, raw)
	}
	if len(responses) != len(requests) {
		t.Fatalf("expected %d responses, got %d", len(requests), len(responses))
	}
	return responses, srv
}

func decode[T any](t *testing.T, raw msgpack.RawMessage) T {
	t.Helper()
	var v T
	if err := msgpack.Unmarshal(raw, &v); err != nil {
		t.Fatalf("unmarshal %T: %v", v, err)
	}
	return v
}

func TestGenerate(t *testing.T) {
	responses, _ := serve(t, nil, Request{
		ID: "req_001", Action: "generate", Query: "acgt", Matrix: "dna", WordSize: 2, Threshold: intPtr(1), Threads: 2,
	})
	resp := decode[NeighborhoodResponse](t, responses[0])
	if resp.ID != "req_001" {
		t.Errorf("expected id req_001, got %q", resp.ID)
	}
	if len(resp.Results) != 3 || resp.Count != 21 {
		t.Fatalf("expected 3 infixes and 21 neighbors, got %d and %d", len(resp.Results), resp.Count)
	}
	for i, infix := range []string{"AC", "CG", "GT"} {
		r := resp.Results[i]
		if r.Infix != infix || r.Offset != i {
			t.Errorf("result %d: expected %s@%d, got %s@%d", i, infix, i, r.Infix, r.Offset)
		}
		if !slices.IsSortedFunc(r.Neighbors, func(a, b NeighborEntry) int { return strings.Compare(a.Word, b.Word) }) {
			t.Errorf("result %d: neighbors not sorted: %v", i, r.Neighbors)
		}
	}
	if first := resp.Results[0].Neighbors[0]; first != (NeighborEntry{Word: "AA", Score: 1}) {
		t.Errorf("expected AA:1 first, got %+v", first)
	}
}

func TestDefaultsFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Search.Matrix = "DNA"
	cfg.Search.Alphabet = ""
	cfg.Search.WordSize = 4
	cfg.Search.Threshold = 20
	responses, _ := serve(t, cfg, Request{ID: "d", Query: "ACGTAC"})
	resp := decode[NeighborhoodResponse](t, responses[0])
	// only exact matches reach 20 with +5/-4
	if len(resp.Results) != 3 || resp.Count != 3 {
		t.Fatalf("expected 3 exact neighbors, got %d results %d neighbors", len(resp.Results), resp.Count)
	}
	for _, r := range resp.Results {
		if len(r.Neighbors) != 1 || r.Neighbors[0].Word != r.Infix || r.Neighbors[0].Score != 20 {
			t.Errorf("expected only %s itself, got %+v", r.Infix, r.Neighbors)
		}
	}
}

func TestZeroThresholdIsHonoured(t *testing.T) {
	// the default threshold of 11 would leave both infixes without neighbors
	responses, _ := serve(t, nil, Request{ID: "z", Query: "AC", Matrix: "DNA", WordSize: 1, Threshold: intPtr(0)})
	resp := decode[NeighborhoodResponse](t, responses[0])
	if resp.Count != 2 {
		t.Errorf("expected the two exact matches, got %d", resp.Count)
	}
}

func TestLookup(t *testing.T) {
	responses, srv := serve(t, nil,
		Request{ID: "g", Action: "generate", Query: "ACGT", Matrix: "DNA", WordSize: 2, Threshold: intPtr(1)},
		Request{ID: "l1", Action: "lookup", Query: "ACGT", Matrix: "DNA", WordSize: 2, Threshold: intPtr(1), Key: "cc"},
		Request{ID: "l2", Action: "lookup", Query: "ACGT", Matrix: "DNA", WordSize: 2, Threshold: intPtr(1), Key: "TA"},
	)
	hit := decode[LookupResponse](t, responses[1])
	expected := []HitEntry{{Offset: 0, Score: 1}, {Offset: 1, Score: 1}}
	if hit.Key != "CC" || !reflect.DeepEqual(hit.Hits, expected) {
		t.Errorf("expected CC %v, got %s %v", expected, hit.Key, hit.Hits)
	}
	miss := decode[LookupResponse](t, responses[2])
	if len(miss.Hits) != 0 {
		t.Errorf("expected no hits for TA, got %v", miss.Hits)
	}
	stats := srv.Cache().Stats()
	if stats["hits"] != 2 || stats["misses"] != 1 {
		t.Errorf("expected lookups to reuse the generate run, got %v", stats)
	}
}

func TestLookupWithoutCache(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.CacheEntries = 0
	responses, _ := serve(t, cfg, Request{ID: "l", Action: "lookup", Query: "ACGT", Matrix: "DNA", WordSize: 2, Threshold: intPtr(10), Key: "CG"})
	hit := decode[LookupResponse](t, responses[0])
	expected := []HitEntry{{Offset: 1, Score: 10}}
	if !reflect.DeepEqual(hit.Hits, expected) {
		t.Errorf("expected %v, got %v", expected, hit.Hits)
	}
}

func TestPrefix(t *testing.T) {
	responses, srv := serve(t, nil,
		Request{ID: "p", Action: "prefix", Query: "ACGT", Matrix: "DNA", WordSize: 2, Threshold: intPtr(1), Key: "g"},
		Request{ID: "l", Action: "lookup", Query: "ACGT", Matrix: "DNA", WordSize: 2, Threshold: intPtr(1), Key: "GG"},
	)
	prefix := decode[PrefixResponse](t, responses[0])
	var words []string
	for _, w := range prefix.Words {
		words = append(words, w.Word)
	}
	if prefix.Key != "G" || strings.Join(words, ",") != "GA,GC,GG,GT" {
		t.Fatalf("expected GA,GC,GG,GT under G, got %s %v", prefix.Key, words)
	}
	expected := []HitEntry{{Offset: 1, Score: 1}, {Offset: 2, Score: 1}}
	if !reflect.DeepEqual(prefix.Words[2].Hits, expected) {
		t.Errorf("expected GG hits %v, got %v", expected, prefix.Words[2].Hits)
	}
	if lookup := decode[LookupResponse](t, responses[1]); !reflect.DeepEqual(lookup.Hits, expected) {
		t.Errorf("lookup and prefix disagree: %v", lookup.Hits)
	}
	if stats := srv.Cache().Stats(); stats["misses"] != 1 || stats["hits"] != 1 {
		t.Errorf("expected prefix and lookup to share one run, got %v", stats)
	}
}

func TestNegativeConfigThreadsRejected(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Search.Threads = -3
	responses, _ := serve(t, cfg, Request{ID: "n", Query: "ACGT", Matrix: "DNA", WordSize: 2})
	if e := decode[ErrorResponse](t, responses[0]); e.Code != 400 {
		t.Errorf("expected 400 for negative threads, got %+v", e)
	}
}

func TestMatricesAndHealth(t *testing.T) {
	responses, _ := serve(t, nil, Request{ID: "m", Action: "matrices"}, Request{ID: "h", Action: "health"})
	names := decode[MatricesResponse](t, responses[0])
	if !slices.Contains(names.Names, "BLOSUM62") || !slices.Contains(names.Names, "DNA") {
		t.Errorf("expected built-in matrices, got %v", names.Names)
	}
	health := decode[StatusResponse](t, responses[1])
	if health.ID != "h" || health.Status != "ok" {
		t.Errorf("expected ok status, got %+v", health)
	}
}

func TestErrorCodes(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.MaxQueryLen = 8

	testCases := []struct {
		name string
		req  Request
		code int
	}{
		{"unknown action", Request{ID: "e", Action: "complete"}, 400},
		{"missing action", Request{ID: "e"}, 400},
		{"missing query", Request{ID: "e", Action: "generate"}, 400},
		{"missing key", Request{ID: "e", Action: "lookup", Query: "ACGT"}, 400},
		{"negative threads", Request{ID: "e", Query: "ACGT", Matrix: "DNA", WordSize: 2, Threads: -1}, 400},
		{"unknown matrix", Request{ID: "e", Query: "ACGT", Matrix: "DNB"}, 404},
		{"query too long", Request{ID: "e", Query: "ACGTACGTA", Matrix: "DNA"}, 413},
		{"word size too large", Request{ID: "e", Query: "ACGTACGT", Matrix: "DNA", WordSize: 7}, 413},
		{"word size above query", Request{ID: "e", Query: "ACGT", Matrix: "DNA", WordSize: 5}, 422},
		{"foreign symbol", Request{ID: "e", Query: "ACGN", Matrix: "DNA", WordSize: 2}, 422},
		{"alphabet outside matrix", Request{ID: "e", Query: "ACGT", Matrix: "DNA", Alphabet: "ACGU", WordSize: 2}, 422},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			responses, _ := serve(t, cfg, tc.req)
			resp := decode[ErrorResponse](t, responses[0])
			if resp.Code != tc.code {
				t.Errorf("expected code %d, got %d (%s)", tc.code, resp.Code, resp.Error)
			}
			if resp.ID != "e" || resp.Error == "" {
				t.Errorf("expected id and message, got %+v", resp)
			}
		})
	}
}

func TestUnknownMatrixSuggestion(t *testing.T) {
	responses, _ := serve(t, nil, Request{ID: "s", Query: "ACGT", Matrix: "BLOSUM26"})
	resp := decode[ErrorResponse](t, responses[0])
	if !strings.Contains(resp.Error, "BLOSUM62") {
		t.Errorf("expected suggestion in %q", resp.Error)
	}
}

func TestMalformedStream(t *testing.T) {
	in := bytes.NewReader([]byte{0xc1}) // never used
	var out bytes.Buffer
	srv := NewServerWithIO(matrix.NewRegistry(""), nil, in, &out)
	if err := srv.Start(context.Background()); err == nil {
		t.Fatalf("expected decode error")
	}
	dec := msgpack.NewDecoder(&out)
	var ready StatusResponse
	if err := dec.Decode(&ready); err != nil {
		t.Fatal(err)
	}
	var resp ErrorResponse
	if err := dec.Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Code != 400 {
		t.Errorf("expected 400, got %d", resp.Code)
	}
}
