// Package matrix provides substitution matrices for neighborhood search:
// built-in tables, NCBI text and TOML parsers, and a registry that resolves
// matrix names against a data directory.
package matrix

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformed reports a matrix definition that cannot be used.
	ErrMalformed = errors.New("malformed matrix")

	// ErrUnknownMatrix reports a name the registry cannot resolve.
	ErrUnknownMatrix = errors.New("unknown matrix")
)

// Matrix is an immutable substitution matrix. It implements
// neighborhood.ScoreMatrix and neighborhood.MaxScorer.
type Matrix struct {
	name     string
	alphabet []byte
	index    [256]int16
	rows     [][]int
	best     []int
	floor    int
}

// New builds a matrix from rows ordered like alphabet: rows[i][j] scores
// alphabet[i] against alphabet[j].
func New(name, alphabet string, rows [][]int) (*Matrix, error) {
	if len(alphabet) == 0 {
		return nil, fmt.Errorf("%w: %s has an empty alphabet", ErrMalformed, name)
	}
	if len(rows) != len(alphabet) {
		return nil, fmt.Errorf("%w: %s has %d rows for %d symbols", ErrMalformed, name, len(rows), len(alphabet))
	}

	m := &Matrix{
		name:     name,
		alphabet: []byte(alphabet),
		rows:     make([][]int, len(rows)),
		best:     make([]int, len(rows)),
	}
	for i := range m.index {
		m.index[i] = -1
	}
	for i := 0; i < len(alphabet); i++ {
		c := alphabet[i]
		if c <= ' ' || c >= 0x7f {
			return nil, fmt.Errorf("%w: %s has non-printable symbol %q", ErrMalformed, name, c)
		}
		if m.index[c] >= 0 {
			return nil, fmt.Errorf("%w: %s lists symbol %q twice", ErrMalformed, name, c)
		}
		m.index[c] = int16(i)
	}

	first := true
	for i, row := range rows {
		if len(row) != len(alphabet) {
			return nil, fmt.Errorf("%w: %s row %q has %d columns, want %d", ErrMalformed, name, alphabet[i], len(row), len(alphabet))
		}
		m.rows[i] = append([]int(nil), row...)
		m.best[i] = row[0]
		for _, s := range row {
			m.best[i] = max(m.best[i], s)
			if first || s < m.floor {
				m.floor, first = s, false
			}
		}
	}
	return m, nil
}

// Uniform builds a match/mismatch matrix over alphabet.
func Uniform(name, alphabet string, match, mismatch int) (*Matrix, error) {
	rows := make([][]int, len(alphabet))
	for i := range rows {
		rows[i] = make([]int, len(alphabet))
		for j := range rows[i] {
			if i == j {
				rows[i][j] = match
			} else {
				rows[i][j] = mismatch
			}
		}
	}
	return New(name, alphabet, rows)
}

// Name returns the matrix name.
func (m *Matrix) Name() string { return m.name }

// Alphabet returns the symbols in definition order.
func (m *Matrix) Alphabet() []byte { return append([]byte(nil), m.alphabet...) }

// Symbols returns the alphabet as a string in definition order.
func (m *Matrix) Symbols() string { return string(m.alphabet) }

// Has reports whether c belongs to the alphabet.
func (m *Matrix) Has(c byte) bool { return m.index[c] >= 0 }

// Score returns the score of a against b. Symbols outside the alphabet score
// as the lowest entry of the table.
func (m *Matrix) Score(a, b byte) int {
	i, j := m.index[a], m.index[b]
	if i < 0 || j < 0 {
		return m.floor
	}
	return m.rows[i][j]
}

// MaxScore returns the best score a can reach against any symbol of the alphabet.
func (m *Matrix) MaxScore(a byte) int {
	i := m.index[a]
	if i < 0 {
		return m.floor
	}
	return m.best[i]
}

// Restrict returns the sub-matrix over symbols, for example the twenty standard
// amino acids out of a table that also carries ambiguity codes.
func (m *Matrix) Restrict(symbols string) (*Matrix, error) {
	rows := make([][]int, len(symbols))
	for i := 0; i < len(symbols); i++ {
		si := m.index[symbols[i]]
		if si < 0 {
			return nil, fmt.Errorf("%w: symbol %q is not in %s", ErrMalformed, symbols[i], m.name)
		}
		rows[i] = make([]int, len(symbols))
		for j := 0; j < len(symbols); j++ {
			sj := m.index[symbols[j]]
			if sj < 0 {
				return nil, fmt.Errorf("%w: symbol %q is not in %s", ErrMalformed, symbols[j], m.name)
			}
			rows[i][j] = m.rows[si][sj]
		}
	}
	return New(m.name, symbols, rows)
}

// Symmetric reports whether Score(a, b) == Score(b, a) for all symbols.
func (m *Matrix) Symmetric() bool {
	for i := range m.rows {
		for j := i + 1; j < len(m.rows); j++ {
			if m.rows[i][j] != m.rows[j][i] {
				return false
			}
		}
	}
	return true
}

// String renders the matrix in NCBI text layout.
func (m *Matrix) String() string {
	var b strings.Builder
	b.WriteString("# ")
	b.WriteString(m.name)
	b.WriteString("\n ")
	for _, c := range m.alphabet {
		fmt.Fprintf(&b, "  %c", c)
	}
	b.WriteByte('\n')
	for i, row := range m.rows {
		b.WriteByte(m.alphabet[i])
		for _, s := range row {
			fmt.Fprintf(&b, " %2d", s)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
