package testutil

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/sqldef/sqlsplit/parser"
	"github.com/sqldef/sqlsplit/util"
	"github.com/stretchr/testify/assert"
)

// RandomChunkings is how many random chunkings RunTest tries per test case.
const RandomChunkings = 100

type TestCase struct {
	Input          string
	Statements     []string
	Error          *string // construct expected to be left unterminated
	Delimiter      string  // initial terminator, default ";"
	BatchSeparator bool    `yaml:"batch_separator"`
}

func init() {
	util.InitSlog()

	// Keep debug logs of the scanner out of test output unless LOG_LEVEL asks for them.
	if os.Getenv("LOG_LEVEL") == "" {
		handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})
		slog.SetDefault(slog.New(handler))
	}
}

func ReadTests(pattern string) (map[string]TestCase, error) {
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no test files match '%s'", pattern)
	}

	ret := map[string]TestCase{}
	testFileMap := map[string]string{}

	for _, file := range files {
		var tests map[string]*TestCase

		buf, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}

		dec := yaml.NewDecoder(bytes.NewReader(buf), yaml.DisallowUnknownField())
		if err := dec.Decode(&tests); err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}

		for name, test := range tests {
			if test.Error != nil && len(test.Statements) > 0 {
				return nil, fmt.Errorf("%s: test case '%s': 'statements' and 'error' are exclusive", file, name)
			}
			if existingFile, ok := testFileMap[name]; ok {
				return nil, fmt.Errorf("duplicate test case name '%s': defined in both '%s' and '%s'", name, existingFile, file)
			}
			testFileMap[name] = file
			ret[name] = *test
		}
	}

	return ret, nil
}

// Collect drains a Scanner.
func Collect(scanner *parser.Scanner) ([]string, error) {
	var statements []string
	for {
		stmt, err := scanner.Next()
		if err == io.EOF {
			return statements, nil
		}
		if err != nil {
			return statements, err
		}
		statements = append(statements, stmt)
	}
}

// RandomChunks cuts input into consecutive chunks of minSize to maxSize bytes.
func RandomChunks(rng *rand.Rand, input []byte, minSize, maxSize int) [][]byte {
	var chunks [][]byte
	for len(input) > 0 {
		n := min(minSize+rng.IntN(maxSize-minSize+1), len(input))
		chunks = append(chunks, input[:n])
		input = input[n:]
	}
	return chunks
}

// RunTest splits test.Input as a single chunk, at every two-chunk split, byte by byte, and
// in random chunkings, and expects the same outcome every time.
func RunTest(t *testing.T, grammar parser.Grammar, test TestCase) {
	t.Helper()

	input := []byte(test.Input)
	config := parser.Config{Terminator: test.Delimiter}

	// Every other chunking must fail at the very same position.
	statements, reference := split(grammar, config, parser.StringSource(test.Input))
	if !assertOutcome(t, "single chunk", test, nil, statements, reference) {
		return
	}

	for i := 1; i < len(input); i++ {
		statements, err := split(grammar, config, parser.BytesSource(input[:i], input[i:]))
		if !assertOutcome(t, fmt.Sprintf("split at %d", i), test, reference, statements, err) {
			return
		}
	}

	bytewise := make([][]byte, len(input))
	for i := range input {
		bytewise[i] = input[i : i+1]
	}
	trimming := parser.Config{Terminator: test.Delimiter, TrimThreshold: 1}
	statements, err := split(grammar, trimming, parser.BytesSource(bytewise...))
	if !assertOutcome(t, "byte by byte", test, reference, statements, err) {
		return
	}

	rng := rand.New(rand.NewPCG(uint64(len(input)), 0x5eed))
	for i := range RandomChunkings {
		config := parser.Config{Terminator: test.Delimiter, TrimThreshold: 1 + rng.IntN(64)}
		statements, err := split(grammar, config, parser.BytesSource(RandomChunks(rng, input, 1, 256)...))
		if !assertOutcome(t, fmt.Sprintf("random chunking #%d", i), test, reference, statements, err) {
			return
		}
	}

	AssertSkipIdempotent(t, grammar, input)
}

func split(grammar parser.Grammar, config parser.Config, source parser.Source) ([]string, error) {
	return Collect(parser.NewScanner(grammar, source, config))
}

func assertOutcome(t *testing.T, label string, test TestCase, reference error, statements []string, err error) bool {
	t.Helper()

	if test.Error != nil {
		var unterminated *parser.UnterminatedError
		if !assert.True(t, errors.As(err, &unterminated), "%s: expected an unterminated construct, got %v", label, err) {
			return false
		}
		if !assert.Equal(t, *test.Error, unterminated.Construct.String(), label) {
			return false
		}
		if reference != nil {
			return assert.Equal(t, reference, err, label)
		}
		return true
	}

	if !assert.NoError(t, err, label) {
		return false
	}
	if len(test.Statements) == 0 {
		return assert.Empty(t, statements, label)
	}
	return assert.Equal(t, test.Statements, statements, label)
}

// AssertSkipIdempotent checks that skipping from where Skip stopped moves no further.
func AssertSkipIdempotent(t *testing.T, grammar parser.Grammar, input []byte) {
	t.Helper()
	for offset := 0; offset <= len(input); offset++ {
		skipped := grammar.Skip(input, offset)
		assert.Equal(t, skipped, grammar.Skip(input, skipped), "skip from %d", offset)
	}
}
