package parser

import (
	"errors"
	"fmt"
)

var (
	// ErrSource matches every *SourceError.
	ErrSource = errors.New("source failure")
	// ErrUnterminated matches every *UnterminatedError.
	ErrUnterminated = errors.New("unterminated construct")
	// ErrInvariant matches every *InvariantError.
	ErrInvariant = errors.New("scanner invariant violated")
)

// SourceError is returned when the input cannot be opened or read.
type SourceError struct {
	Op   string // "open" or "read"
	Path string
	Err  error
}

func (e *SourceError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s '%s': %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s input: %v", e.Op, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

func (e *SourceError) Is(target error) bool { return target == ErrSource }

// UnterminatedError is returned when the input ends inside a construct.
type UnterminatedError struct {
	Construct Construct
	Offset    int // absolute byte offset of the construct's opening
	Line      int
	Column    int
	File      string
}

func (e *UnterminatedError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s:%d:%d: unterminated %s", e.File, e.Line, e.Column, e.Construct)
	}
	return fmt.Sprintf("line %d, column %d: unterminated %s", e.Line, e.Column, e.Construct)
}

func (e *UnterminatedError) Is(target error) bool { return target == ErrUnterminated }

// InvariantError reports a defect in a grammar, never a problem with the input.
type InvariantError struct {
	Offset  int
	Length  int
	Message string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("failed to parse stream at offset %d of %d: %s, please report an issue", e.Offset, e.Length, e.Message)
}

func (e *InvariantError) Is(target error) bool { return target == ErrInvariant }
