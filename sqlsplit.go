package sqlsplit

import (
	"io"
	"iter"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sqldef/sqlsplit/dialect/mssql"
	"github.com/sqldef/sqlsplit/dialect/mysql"
	"github.com/sqldef/sqlsplit/dialect/postgres"
	"github.com/sqldef/sqlsplit/dialect/sqlite3"
	"github.com/sqldef/sqlsplit/parser"
)

type Options struct {
	// ChunkSize is the block size for reader and file input and the buffer trim threshold.
	// Defaults to 64 KiB.
	ChunkSize int
	// Delimiter is the initial statement terminator. MySQL only.
	Delimiter string
	// BatchSeparator ends statements at lines holding only GO. SQL Server only.
	BatchSeparator bool
}

// Splitter splits SQL scripts of one dialect. Every Split* call starts an independent run, so
// a Splitter may be used from several goroutines; a returned sequence may not.
type Splitter struct {
	mode    parser.ParserMode
	grammar parser.Grammar
	options Options
}

func NewSplitter(mode parser.ParserMode, options Options) (*Splitter, error) {
	if options.ChunkSize < 0 {
		return nil, errors.Errorf("chunk size must not be negative, got %d", options.ChunkSize)
	}
	if options.ChunkSize == 0 {
		options.ChunkSize = parser.DefaultChunkSize
	}
	if options.Delimiter != "" {
		if mode != parser.ParserModeMysql {
			return nil, errors.Errorf("delimiter is only supported for mysql, not %s", mode)
		}
		if strings.ContainsFunc(options.Delimiter, func(r rune) bool { return r < 0x80 && parser.IsSpace(byte(r)) }) {
			return nil, errors.Errorf("delimiter must not contain whitespace: %q", options.Delimiter)
		}
	}
	if options.BatchSeparator && mode != parser.ParserModeMssql {
		return nil, errors.Errorf("batch separator is only supported for mssql, not %s", mode)
	}

	var grammar parser.Grammar
	switch mode {
	case parser.ParserModeMysql:
		grammar = mysql.NewParser()
	case parser.ParserModePostgres:
		grammar = postgres.NewParser()
	case parser.ParserModeSQLite3:
		grammar = sqlite3.NewParser()
	case parser.ParserModeMssql:
		if options.BatchSeparator {
			grammar = mssql.NewParserWithBatchSeparator()
		} else {
			grammar = mssql.NewParser()
		}
	default:
		return nil, errors.Errorf("unknown parser mode: %s", mode)
	}

	return &Splitter{mode: mode, grammar: grammar, options: options}, nil
}

func (s *Splitter) Mode() parser.ParserMode {
	return s.mode
}

// NewScanner returns a Scanner over source configured with the Splitter's options.
func (s *Splitter) NewScanner(source parser.Source) *parser.Scanner {
	return parser.NewScanner(s.grammar, source, parser.Config{
		Terminator:    s.options.Delimiter,
		TrimThreshold: s.options.ChunkSize,
	})
}

func (s *Splitter) SplitString(sql string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for stmt, err := range s.NewScanner(parser.StringSource(sql)).All() {
			if !yield(stmt, err) {
				return
			}
		}
	}
}

// SplitChunks splits the concatenation of chunks. Chunks are pulled only as far as the
// consumer iterates.
func (s *Splitter) SplitChunks(chunks iter.Seq[[]byte]) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		source, stop := parser.SeqSource(chunks)
		defer stop()

		for stmt, err := range s.NewScanner(source).All() {
			if !yield(stmt, err) {
				return
			}
		}
	}
}

// SplitReader reads r in blocks of the configured chunk size. The sequence can be iterated once.
func (s *Splitter) SplitReader(r io.Reader) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for stmt, err := range s.NewScanner(parser.ReaderSource(r, s.options.ChunkSize)).All() {
			if !yield(stmt, err) {
				return
			}
		}
	}
}

// SplitFile opens path when iteration starts and closes it when iteration ends, however it ends.
// Errors name the file.
func (s *Splitter) SplitFile(path string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		f, err := os.Open(path)
		if err != nil {
			yield("", &parser.SourceError{Op: "open", Path: path, Err: err})
			return
		}
		defer f.Close()

		for stmt, err := range s.SplitReader(f) {
			if err != nil {
				yield("", withPath(err, path))
				return
			}
			if !yield(stmt, nil) {
				return
			}
		}
	}
}

func withPath(err error, path string) error {
	var unterminated *parser.UnterminatedError
	if errors.As(err, &unterminated) {
		located := *unterminated
		located.File = path
		return &located
	}
	var sourceErr *parser.SourceError
	if errors.As(err, &sourceErr) && sourceErr.Path == "" {
		located := *sourceErr
		located.Path = path
		return &located
	}
	return err
}

// Collect drains seq. The statements before a failure are returned along with the error.
func Collect(seq iter.Seq2[string, error]) ([]string, error) {
	var statements []string
	for stmt, err := range seq {
		if err != nil {
			return statements, err
		}
		statements = append(statements, stmt)
	}
	return statements, nil
}
