package neighborhood

import "fmt"

// Words slides a window of wordSize over query and returns every infix in offset order.
func Words(query string, wordSize int) ([]Word, error) {
	if wordSize < 1 {
		return nil, fmt.Errorf("%w: word size must be at least 1, got %d", ErrInvalidParameter, wordSize)
	}
	if wordSize > len(query) {
		return nil, fmt.Errorf("%w: word size %d exceeds query length %d", ErrInvalidParameter, wordSize, len(query))
	}

	words := make([]Word, 0, len(query)-wordSize+1)
	for i := 0; i+wordSize <= len(query); i++ {
		words = append(words, Word{Offset: i, Text: query[i : i+wordSize]})
	}
	return words, nil
}
