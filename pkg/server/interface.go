/*
Package server implements msgpack IPC for neighborhood generation.

The server reads a stream of msgpack requests from stdin and writes one msgpack
response per request to stdout. Messages are processed synchronously with timing
info included in responses. Logs never go to stdout.

# IPC

Every request carries an ID and an action. Fields that are left out fall back to
the [search] section of the config.

A generate request lists the query and optionally the matrix, word size (w),
threshold (t) and thread count (n):

	{"id": "req_001", "action": "generate", "q": "MKVLA", "m": "BLOSUM62", "w": 3, "t": 11}

The server responds with one entry per query infix, ordered by offset. Each entry
holds the neighbors of the infix sorted by word:

	{"id": "req_001", "r": [{"i": "MKV", "o": 0, "n": [{"w": "MKV", "s": 14}, ...]}, ...], "c": 57, "t": 310}

An empty action with a query is treated as generate.

A lookup request asks at which offsets of the query a word seeds. It uses the
same parameters as generate and is answered from the same cached run:

	{"id": "req_002", "action": "lookup", "q": "MKVLA", "k": "MRV"}
	{"id": "req_002", "k": "MRV", "h": [{"o": 0, "s": 11}]}

A prefix request lists every neighbor word starting with k, sorted, with its
hits. An empty k lists the whole index:

	{"id": "req_003", "action": "prefix", "q": "MKVLA", "k": "MR"}
	{"id": "req_003", "k": "MR", "ws": [{"w": "MRV", "h": [{"o": 0, "s": 11}]}, ...]}

The remaining actions are matrices, which lists the resolvable matrix names,
and health. On start the server sends {"status": "ready"}.

# Errors

Failures are answered with {"id", "e" message, "c" code}:

	400 malformed request, unknown action or invalid thread count
	404 unknown matrix
	413 query or word size above the configured limits
	422 invalid word size, alphabet or query symbol
	500 anything else
*/
package server

// Request is the envelope of every message.
type Request struct {
	ID        string `msgpack:"id"`
	Action    string `msgpack:"action,omitempty"`
	Query     string `msgpack:"q,omitempty"`
	Matrix    string `msgpack:"m,omitempty"`
	Alphabet  string `msgpack:"a,omitempty"`
	WordSize  int    `msgpack:"w,omitempty"`
	Threshold *int   `msgpack:"t,omitempty"`
	Threads   int    `msgpack:"n,omitempty"`
	Key       string `msgpack:"k,omitempty"`
}

// NeighborEntry is one neighbor word and its score.
type NeighborEntry struct {
	Word  string `msgpack:"w"`
	Score int    `msgpack:"s"`
}

// InfixEntry is the neighborhood of one query infix.
type InfixEntry struct {
	Infix     string          `msgpack:"i"`
	Offset    int             `msgpack:"o"`
	Neighbors []NeighborEntry `msgpack:"n"`
}

// NeighborhoodResponse answers generate. Count is the total number of neighbors;
// TimeTaken is in microseconds.
type NeighborhoodResponse struct {
	ID        string       `msgpack:"id"`
	Results   []InfixEntry `msgpack:"r"`
	Count     int          `msgpack:"c"`
	TimeTaken int64        `msgpack:"t"`
}

// HitEntry is one seed position.
type HitEntry struct {
	Offset int `msgpack:"o"`
	Score  int `msgpack:"s"`
}

// LookupResponse answers lookup.
type LookupResponse struct {
	ID   string     `msgpack:"id"`
	Key  string     `msgpack:"k"`
	Hits []HitEntry `msgpack:"h"`
}

// WordHitsEntry is one indexed word and where it seeds.
type WordHitsEntry struct {
	Word string     `msgpack:"w"`
	Hits []HitEntry `msgpack:"h"`
}

// PrefixResponse answers prefix.
type PrefixResponse struct {
	ID    string          `msgpack:"id"`
	Key   string          `msgpack:"k"`
	Words []WordHitsEntry `msgpack:"ws"`
}

// MatricesResponse answers matrices.
type MatricesResponse struct {
	ID    string   `msgpack:"id"`
	Names []string `msgpack:"names"`
}

// StatusResponse answers health and announces readiness.
type StatusResponse struct {
	ID     string `msgpack:"id,omitempty"`
	Status string `msgpack:"status"`
}

// ErrorResponse holds basic error information for failed requests
type ErrorResponse struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}
