package parser

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testGrammar splits on the active terminator with quoteLexer rules.
type testGrammar struct{}

func (testGrammar) Skip(buf []byte, offset int) int {
	return CommentStyle{}.Skip(buf, offset)
}

func (testGrammar) Match(buf []byte, offset int, state State, atEOF bool) Match {
	return ScanStatement(quoteLexer{}, buf, offset, state.Terminator, atEOF)
}

// fixedGrammar always answers with the same match.
type fixedGrammar struct {
	match Match
}

func (fixedGrammar) Skip(buf []byte, offset int) int { return offset }

func (g fixedGrammar) Match(buf []byte, offset int, state State, atEOF bool) Match {
	if offset == len(buf) {
		return EndOf(offset, atEOF)
	}
	return g.match
}

type countingSource struct {
	source Source
	pulls  int
}

func (s *countingSource) Next() ([]byte, error) {
	s.pulls++
	return s.source.Next()
}

func collect(t *testing.T, scanner *Scanner) []string {
	t.Helper()
	var statements []string
	for stmt, err := range scanner.All() {
		require.NoError(t, err)
		statements = append(statements, stmt)
	}
	return statements
}

func TestScannerSplits(t *testing.T) {
	scanner := NewScanner(testGrammar{}, StringSource("SELECT ';';; -- x;\n/* y; */ SELECT 2 /* z */"), Config{})
	assert.Equal(t, []string{"SELECT ';'", "SELECT 2 /* z */"}, collect(t, scanner))

	stmt, err := scanner.Next()
	assert.Equal(t, "", stmt)
	assert.Equal(t, io.EOF, err)
}

func TestScannerTerminator(t *testing.T) {
	scanner := NewScanner(testGrammar{}, BytesSource([]byte("SELECT 1; SELECT 2"), []byte("//SELECT 3/"), []byte("/")), Config{Terminator: "//"})
	assert.Equal(t, []string{"SELECT 1; SELECT 2", "SELECT 3"}, collect(t, scanner))
}

func TestScannerPullsLazily(t *testing.T) {
	source := &countingSource{source: BytesSource([]byte("SELECT 1;"), []byte(" SELECT 2;"), []byte(" SELECT 3;"))}
	scanner := NewScanner(testGrammar{}, source, Config{})

	stmt, err := scanner.Next()
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1", stmt)
	// The statement touches the end of the first chunk, so one more chunk is needed to trust it.
	assert.Equal(t, 2, source.pulls)

	for range scanner.All() {
		break
	}
	assert.Equal(t, 3, source.pulls)
}

func TestScannerUnterminated(t *testing.T) {
	input := "SELECT 1;\nSELECT 'a;\nb"
	expected := &UnterminatedError{Construct: ConstructString, Offset: 17, Line: 2, Column: 8}

	var chunks [][]byte
	for i := range len(input) {
		chunks = append(chunks, []byte(input[i:i+1]))
	}
	sources := map[string]Source{
		"single chunk": StringSource(input),
		"byte by byte": BytesSource(chunks...),
	}

	for name, source := range sources {
		t.Run(name, func(t *testing.T) {
			scanner := NewScanner(testGrammar{}, source, Config{TrimThreshold: 1})

			stmt, err := scanner.Next()
			require.NoError(t, err)
			assert.Equal(t, "SELECT 1", stmt)

			_, err = scanner.Next()
			assert.Equal(t, expected, err)
			assert.True(t, errors.Is(err, ErrUnterminated))
			assert.False(t, errors.Is(err, ErrInvariant))
			assert.EqualError(t, err, "line 2, column 8: unterminated string literal")

			// The failure is final.
			_, again := scanner.Next()
			assert.Equal(t, err, again)
		})
	}
}

func TestScannerSourceError(t *testing.T) {
	readErr := errors.New("disk on fire")
	chunks := [][]byte{[]byte("SELECT 1; SEL")}
	source := SourceFunc(func() ([]byte, error) {
		if len(chunks) == 0 {
			return nil, readErr
		}
		chunk := chunks[0]
		chunks = chunks[1:]
		return chunk, nil
	})
	scanner := NewScanner(testGrammar{}, source, Config{})

	stmt, err := scanner.Next()
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1", stmt)

	_, err = scanner.Next()
	var sourceErr *SourceError
	require.True(t, errors.As(err, &sourceErr))
	assert.Equal(t, "read", sourceErr.Op)
	assert.True(t, errors.Is(err, ErrSource))
	assert.True(t, errors.Is(err, readErr))
	assert.False(t, errors.Is(err, ErrUnterminated))
}

func TestScannerInvariants(t *testing.T) {
	tests := []struct {
		name  string
		match Match
	}{
		{name: "consumes more than available", match: Statement(1, 100)},
		{name: "consumes nothing", match: Statement(0, 0)},
		{name: "body longer than match", match: Statement(3, 1)},
		{name: "no match", match: Match{Kind: MatchNone}},
		{name: "end with bytes left", match: Match{Kind: MatchEnd}},
		{name: "pending at end of input", match: Incomplete(ConstructPending, 0)},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			scanner := NewScanner(fixedGrammar{match: test.match}, StringSource("abc"), Config{})
			_, err := scanner.Next()

			var invariantErr *InvariantError
			require.True(t, errors.As(err, &invariantErr), "got %v", err)
			assert.True(t, errors.Is(err, ErrInvariant))
			assert.False(t, errors.Is(err, ErrUnterminated))
		})
	}
}

func TestScannerDirective(t *testing.T) {
	scanner := NewScanner(fixedGrammar{match: DelimiterDirective("$$", 3)}, StringSource("abc"), Config{})

	_, err := scanner.Next()
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, State{Terminator: "$$"}, scanner.State())
}

func TestScannerTrailingSkipMaterial(t *testing.T) {
	scanner := NewScanner(testGrammar{}, StringSource("SELECT 1;\n-- the end\n/* really */\n"), Config{})
	assert.Equal(t, []string{"SELECT 1"}, collect(t, scanner))
}

func TestScannerEmptyInput(t *testing.T) {
	assert.Empty(t, collect(t, NewScanner(testGrammar{}, StringSource(""), Config{})))
	assert.Empty(t, collect(t, NewScanner(testGrammar{}, BytesSource(), Config{})))
}
