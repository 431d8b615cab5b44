package neighborhood

import "errors"

var (
	// ErrInvalidParameter reports a word size out of range, an empty alphabet
	// or a symbol the matrix cannot score.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInvalidArgument reports a thread count below one.
	ErrInvalidArgument = errors.New("invalid argument")
)
