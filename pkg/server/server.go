package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/bastiangx/seedserve/internal/utils"
	"github.com/bastiangx/seedserve/pkg/config"
	"github.com/bastiangx/seedserve/pkg/index"
	"github.com/bastiangx/seedserve/pkg/matrix"
	"github.com/bastiangx/seedserve/pkg/neighborhood"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

var (
	errBadRequest = errors.New("bad request")
	errTooLarge   = errors.New("limit exceeded")
)

// Server handles msgpack IPC for neighborhood runs
type Server struct {
	registry *matrix.Registry
	config   *config.Config
	cache    *HotCache
	decoder  *msgpack.Decoder
	writer   *bufio.Writer
	encoder  *msgpack.Encoder
	requests int
}

// NewServer creates a server using stdin/stdout for IPC
func NewServer(registry *matrix.Registry, cfg *config.Config) *Server {
	return NewServerWithIO(registry, cfg, os.Stdin, os.Stdout)
}

// NewServerWithIO creates a server reading requests from r and writing responses to w.
func NewServerWithIO(registry *matrix.Registry, cfg *config.Config, r io.Reader, w io.Writer) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	bw := bufio.NewWriter(w)
	return &Server{
		registry: registry,
		config:   cfg,
		cache:    NewHotCache(cfg.Server.CacheEntries),
		decoder:  msgpack.NewDecoder(bufio.NewReader(r)),
		writer:   bw,
		encoder:  msgpack.NewEncoder(bw),
	}
}

// Cache returns the hot cache of the server.
func (s *Server) Cache() *HotCache { return s.cache }

// Start sends the ready status and serves requests until the input ends.
// A request that cannot be decoded ends the stream.
func (s *Server) Start(ctx context.Context) error {
	log.Debug("Starting Server.")
	s.sendResponse(StatusResponse{Status: "ready"})

	for {
		var req Request
		if err := s.decoder.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				log.Debugf("Input closed after %d requests", s.requests)
				return nil
			}
			log.Errorf("Decoding request: %v", err)
			s.sendError("", "Invalid msgpack request", 400)
			return err
		}
		s.requests++
		s.handleRequest(ctx, req)
	}
}

func (s *Server) handleRequest(ctx context.Context, req Request) {
	switch req.Action {
	case "generate", "":
		if req.Action == "" && req.Query == "" {
			s.sendError(req.ID, "Missing 'action' field", 400)
			return
		}
		s.handleGenerate(ctx, req)
	case "lookup":
		s.handleLookup(ctx, req)
	case "prefix":
		s.handlePrefix(ctx, req)
	case "matrices":
		s.sendResponse(MatricesResponse{ID: req.ID, Names: s.registry.Names()})
	case "health":
		s.sendResponse(StatusResponse{ID: req.ID, Status: "ok"})
	default:
		s.sendError(req.ID, fmt.Sprintf("Unknown action: %s", req.Action), 400)
	}
}

func (s *Server) handleGenerate(ctx context.Context, req Request) {
	start := time.Now()
	_, results, err := s.run(ctx, req)
	if err != nil {
		s.fail(req.ID, err)
		return
	}
	s.sendResponse(NewNeighborhoodResponse(req.ID, results, time.Since(start)))
}

// NewNeighborhoodResponse converts engine results to their wire form.
func NewNeighborhoodResponse(id string, results []neighborhood.Result, elapsed time.Duration) NeighborhoodResponse {
	response := NeighborhoodResponse{
		ID:        id,
		Results:   make([]InfixEntry, len(results)),
		TimeTaken: elapsed.Microseconds(),
	}
	for i, r := range results {
		entry := InfixEntry{Infix: r.Infix, Offset: r.Offset, Neighbors: make([]NeighborEntry, len(r.Neighbors))}
		for j, n := range r.Neighbors {
			entry.Neighbors[j] = NeighborEntry{Word: n.Word, Score: n.Score}
		}
		response.Results[i] = entry
		response.Count += len(r.Neighbors)
	}
	return response
}

func (s *Server) handleLookup(ctx context.Context, req Request) {
	word := utils.NormalizeQuery(req.Key)
	if word == "" {
		s.sendError(req.ID, "Missing 'k' parameter", 400)
		return
	}
	idx, err := s.index(ctx, req)
	if err != nil {
		s.fail(req.ID, err)
		return
	}
	s.sendResponse(LookupResponse{ID: req.ID, Key: word, Hits: hitEntries(idx.Lookup(word))})
}

func (s *Server) handlePrefix(ctx context.Context, req Request) {
	prefix := utils.NormalizeQuery(req.Key)
	idx, err := s.index(ctx, req)
	if err != nil {
		s.fail(req.ID, err)
		return
	}
	words := idx.WithPrefix(prefix)
	response := PrefixResponse{ID: req.ID, Key: prefix, Words: make([]WordHitsEntry, len(words))}
	for i, w := range words {
		response.Words[i] = WordHitsEntry{Word: w, Hits: hitEntries(idx.Lookup(w))}
	}
	s.sendResponse(response)
}

// index returns the seed index of the run req names.
func (s *Server) index(ctx context.Context, req Request) (*index.Index, error) {
	key, results, err := s.run(ctx, req)
	if err != nil {
		return nil, err
	}
	if idx, ok := s.cache.Index(key); ok {
		return idx, nil
	}
	// cache disabled
	return index.Build(results), nil
}

func hitEntries(hits []index.Hit) []HitEntry {
	entries := make([]HitEntry, len(hits))
	for i, h := range hits {
		entries[i] = HitEntry{Offset: h.Offset, Score: h.Score}
	}
	return entries
}

// key resolves the request against the config defaults.
func (s *Server) key(req Request) (runKey, error) {
	search := s.config.Search
	key := runKey{
		matrix:    strings.ToUpper(strings.TrimSpace(req.Matrix)),
		alphabet:  req.Alphabet,
		query:     utils.NormalizeQuery(req.Query),
		wordSize:  req.WordSize,
		threshold: search.Threshold,
	}
	if key.matrix == "" {
		key.matrix = strings.ToUpper(search.Matrix)
	}
	if key.alphabet == "" && strings.EqualFold(key.matrix, search.Matrix) {
		key.alphabet = search.Alphabet
	}
	if key.wordSize == 0 {
		key.wordSize = search.WordSize
	}
	if req.Threshold != nil {
		key.threshold = *req.Threshold
	}

	if key.query == "" {
		return key, fmt.Errorf("%w: missing 'q' parameter", errBadRequest)
	}
	if limit := s.config.Server.MaxQueryLen; limit > 0 && len(key.query) > limit {
		return key, fmt.Errorf("%w: query of %d residues exceeds maximum length of %d", errTooLarge, len(key.query), limit)
	}
	if limit := s.config.Server.MaxWordSize; limit > 0 && key.wordSize > limit {
		return key, fmt.Errorf("%w: word size %d exceeds maximum of %d", errTooLarge, key.wordSize, limit)
	}
	return key, nil
}

// run resolves req and returns its results from the cache or a fresh engine run.
func (s *Server) run(ctx context.Context, req Request) (runKey, []neighborhood.Result, error) {
	key, err := s.key(req)
	if err != nil {
		return key, nil, err
	}
	if results, ok := s.cache.Get(key); ok {
		log.Debugf("Hot cache hit for %s w=%d t=%d", key.matrix, key.wordSize, key.threshold)
		return key, results, nil
	}

	m, err := s.registry.Resolve(key.matrix, key.alphabet)
	if err != nil {
		return key, nil, err
	}
	threads := req.Threads
	if threads == 0 {
		threads = s.config.Search.EffectiveThreads()
	}
	results, err := neighborhood.GenerateContext(ctx, key.query, m, key.wordSize, key.threshold, threads)
	if err != nil {
		return key, nil, err
	}
	s.cache.Put(key, results)
	return key, results, nil
}

// errorCode maps an error to its response code.
func errorCode(err error) int {
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, neighborhood.ErrInvalidArgument):
		return 400
	case errors.Is(err, matrix.ErrUnknownMatrix):
		return 404
	case errors.Is(err, errTooLarge):
		return 413
	case errors.Is(err, neighborhood.ErrInvalidParameter), errors.Is(err, matrix.ErrMalformed):
		return 422
	default:
		return 500
	}
}

func (s *Server) fail(id string, err error) {
	code := errorCode(err)
	if code == 500 {
		log.Errorf("Request %s failed: %v", id, err)
	} else {
		log.Debugf("Request %s rejected (%d): %v", id, code, err)
	}
	s.sendError(id, err.Error(), code)
}

// sendResponse encodes response to the client and flushes it.
func (s *Server) sendResponse(response any) {
	if err := s.encoder.Encode(response); err != nil {
		log.Errorf("Encoding response: %v", err)
		return
	}
	if err := s.writer.Flush(); err != nil {
		log.Errorf("Writing response: %v", err)
	}
}

// sendError sends an error response
func (s *Server) sendError(id, message string, code int) {
	s.sendResponse(ErrorResponse{ID: id, Error: message, Code: code})
}
