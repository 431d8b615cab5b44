package matrix

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// ParseText reads a matrix in NCBI text layout: '#' comment lines, a header
// line listing the column symbols, then one line per symbol with its scores.
// Rows may appear in any order but every header symbol needs exactly one.
func ParseText(name string, r io.Reader) (*Matrix, error) {
	scanner := bufio.NewScanner(r)
	var header string
	rows := make(map[byte][]int)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)

		if header == "" {
			var b strings.Builder
			for _, f := range fields {
				if len(f) != 1 {
					return nil, fmt.Errorf("%w: %s line %d: header symbol %q is not a single character", ErrMalformed, name, lineNo, f)
				}
				b.WriteString(f)
			}
			header = b.String()
			continue
		}

		if len(fields[0]) != 1 {
			return nil, fmt.Errorf("%w: %s line %d: row symbol %q is not a single character", ErrMalformed, name, lineNo, fields[0])
		}
		sym := fields[0][0]
		if strings.IndexByte(header, sym) < 0 {
			return nil, fmt.Errorf("%w: %s line %d: row symbol %q is missing from the header", ErrMalformed, name, lineNo, sym)
		}
		if _, dup := rows[sym]; dup {
			return nil, fmt.Errorf("%w: %s line %d: duplicate row %q", ErrMalformed, name, lineNo, sym)
		}
		if len(fields)-1 != len(header) {
			return nil, fmt.Errorf("%w: %s line %d: %d scores for %d columns", ErrMalformed, name, lineNo, len(fields)-1, len(header))
		}
		row := make([]int, len(header))
		for i, f := range fields[1:] {
			v, err := strconv.Atoi(f)
			if err != nil {
				return nil, fmt.Errorf("%w: %s line %d: %v", ErrMalformed, name, lineNo, err)
			}
			row[i] = v
		}
		rows[sym] = row
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read matrix %s: %w", name, err)
	}
	if header == "" {
		return nil, fmt.Errorf("%w: %s has no header line", ErrMalformed, name)
	}

	ordered := make([][]int, len(header))
	for i := 0; i < len(header); i++ {
		row, ok := rows[header[i]]
		if !ok {
			return nil, fmt.Errorf("%w: %s has no row for %q", ErrMalformed, name, header[i])
		}
		ordered[i] = row
	}
	return New(name, header, ordered)
}

// tomlMatrix is the TOML matrix document. Either rows or match/mismatch is set.
type tomlMatrix struct {
	Name     string  `toml:"name"`
	Alphabet string  `toml:"alphabet"`
	Rows     [][]int `toml:"rows"`
	Match    *int    `toml:"match"`
	Mismatch *int    `toml:"mismatch"`
}

// ParseTOML reads a matrix from a TOML document:
//
//	name = "purine"
//	alphabet = "ACGT"
//	rows = [[2, -1, 1, -1], [-1, 2, -1, 1], [1, -1, 2, -1], [-1, 1, -1, 2]]
//
// A uniform matrix may give match and mismatch instead of rows.
// The document name, when present, overrides name.
func ParseTOML(name string, data []byte) (*Matrix, error) {
	var doc tomlMatrix
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, name, err)
	}
	if doc.Name != "" {
		name = doc.Name
	}
	switch {
	case len(doc.Rows) > 0:
		return New(name, doc.Alphabet, doc.Rows)
	case doc.Match != nil && doc.Mismatch != nil:
		return Uniform(name, doc.Alphabet, *doc.Match, *doc.Mismatch)
	default:
		return nil, fmt.Errorf("%w: %s needs rows or match and mismatch", ErrMalformed, name)
	}
}
