package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
)

type Config struct {
	// Terminator is the initial statement terminator. Defaults to ";".
	Terminator string
	// TrimThreshold is how far the cursor may advance before the consumed prefix of the
	// buffer is dropped. Defaults to DefaultChunkSize.
	TrimThreshold int
}

// Scanner splits the input of a Source into statements with one Grammar. A Scanner serves a
// single run and must not be shared between goroutines.
type Scanner struct {
	grammar       Grammar
	source        Source
	state         State
	trimThreshold int

	buf    []byte
	cursor int
	eof    bool

	// position of buf[0] in the whole input
	base      int
	line      int
	lineStart int

	afterDirective bool
	done           bool
	err            error
}

func NewScanner(grammar Grammar, source Source, config Config) *Scanner {
	if config.Terminator == "" {
		config.Terminator = ";"
	}
	if config.TrimThreshold <= 0 {
		config.TrimThreshold = DefaultChunkSize
	}
	return &Scanner{
		grammar:       grammar,
		source:        source,
		state:         State{Terminator: config.Terminator},
		trimThreshold: config.TrimThreshold,
	}
}

// State returns the current terminator state.
func (s *Scanner) State() State {
	return s.state
}

// Next returns the next non-empty statement. It returns io.EOF once the input is exhausted;
// any other error is final and returned again by later calls.
func (s *Scanner) Next() (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if s.done {
		return "", io.EOF
	}

	for {
		start := s.grammar.Skip(s.buf, s.cursor)
		if start < s.cursor || start > len(s.buf) {
			return "", s.fail(s.invariant(s.cursor, fmt.Sprintf("skip moved to %d", start)))
		}

		m := s.grammar.Match(s.buf, start, s.state, s.eof)
		switch m.Kind {
		case MatchIncomplete:
			if s.eof {
				if m.Open == ConstructNone || m.Open == ConstructPending {
					return "", s.fail(s.invariant(start, "grammar asked for input after the end of input"))
				}
				return "", s.fail(s.unterminated(m))
			}
			if err := s.fill(); err != nil {
				return "", s.fail(err)
			}

		case MatchStatement, MatchDirective:
			end := start + m.Consumed
			if m.Consumed <= 0 || end > len(s.buf) || m.Body < 0 || m.Body > m.Consumed {
				return "", s.fail(s.invariant(start, fmt.Sprintf("grammar consumed %d bytes with %d available", m.Consumed, len(s.buf)-start)))
			}
			// A match touching the end of the buffer may still grow.
			if end == len(s.buf) && !s.eof {
				if err := s.fill(); err != nil {
					return "", s.fail(err)
				}
				continue
			}

			// After a directive the blanks right in front of the statement stay in its text.
			textStart := start
			if s.afterDirective {
				for textStart > s.cursor && IsSpace(s.buf[textStart-1]) {
					textStart--
				}
			}
			s.cursor = end

			if m.Kind == MatchDirective {
				s.apply(m.Directive)
				s.afterDirective = true
				s.trim()
				continue
			}

			s.afterDirective = false
			var stmt string
			if m.Body > 0 {
				stmt = string(s.buf[textStart : start+m.Body])
			}
			s.trim()
			if stmt != "" {
				return stmt, nil
			}

		case MatchEnd:
			s.cursor = start
			if s.cursor != len(s.buf) {
				return "", s.fail(s.invariant(s.cursor, fmt.Sprintf("%d trailing bytes were not consumed", len(s.buf)-s.cursor)))
			}
			s.done = true
			return "", io.EOF

		default:
			return "", s.fail(s.invariant(start, "no rule matched"))
		}
	}
}

// All returns the remaining statements as a sequence. It stops after the first error.
func (s *Scanner) All() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for {
			stmt, err := s.Next()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield("", err)
				return
			}
			if !yield(stmt, nil) {
				return
			}
		}
	}
}

func (s *Scanner) fill() error {
	for {
		chunk, err := s.source.Next()
		s.buf = append(s.buf, chunk...)
		switch {
		case err == io.EOF:
			s.eof = true
			slog.Debug("end of input", "offset", s.base+len(s.buf))
			return nil
		case err != nil:
			var sourceErr *SourceError
			if errors.As(err, &sourceErr) {
				return err
			}
			return &SourceError{Op: "read", Err: err}
		case len(chunk) > 0:
			slog.Debug("read chunk", "bytes", len(chunk), "buffered", len(s.buf)-s.cursor)
			return nil
		}
	}
}

func (s *Scanner) apply(d Directive) {
	switch d.Kind {
	case DirectiveDelimiter:
		slog.Debug("delimiter changed", "from", s.state.Terminator, "to", d.Payload)
		s.state.Terminator = d.Payload
	}
}

// trim drops the consumed prefix of the buffer but the last consumed byte, which grammars may
// look at to see what precedes a statement.
func (s *Scanner) trim() {
	keep := s.cursor - 1
	if s.cursor < s.trimThreshold || keep <= 0 {
		return
	}
	consumed := s.buf[:keep]
	if i := bytes.LastIndexByte(consumed, '\n'); i >= 0 {
		s.line += bytes.Count(consumed, []byte{'\n'})
		s.lineStart = s.base + i + 1
	}
	s.base += keep
	n := copy(s.buf, s.buf[keep:])
	s.buf = s.buf[:n]
	s.cursor = 1
	slog.Debug("trimmed buffer", "offset", s.base, "buffered", n)
}

func (s *Scanner) fail(err error) error {
	s.err = err
	return err
}

func (s *Scanner) unterminated(m Match) error {
	at := min(max(m.At, 0), len(s.buf))
	prefix := s.buf[:at]
	column := s.base + at - s.lineStart + 1
	if i := bytes.LastIndexByte(prefix, '\n'); i >= 0 {
		column = at - i
	}
	return &UnterminatedError{
		Construct: m.Open,
		Offset:    s.base + at,
		Line:      s.line + bytes.Count(prefix, []byte{'\n'}) + 1,
		Column:    column,
	}
}

func (s *Scanner) invariant(at int, message string) error {
	return &InvariantError{Offset: s.base + at, Length: s.base + len(s.buf), Message: message}
}
