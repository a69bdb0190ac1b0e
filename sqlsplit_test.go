package sqlsplit

import (
	"errors"
	"io"
	"iter"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/sqldef/sqlsplit/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSplitter(t *testing.T) {
	tests := []struct {
		name    string
		mode    parser.ParserMode
		options Options
		err     string
	}{
		{name: "mysql", mode: parser.ParserModeMysql},
		{name: "mysql delimiter", mode: parser.ParserModeMysql, options: Options{Delimiter: "$$"}},
		{name: "delimiter with space", mode: parser.ParserModeMysql, options: Options{Delimiter: "$ $"}, err: `delimiter must not contain whitespace: "$ $"`},
		{name: "postgres delimiter", mode: parser.ParserModePostgres, options: Options{Delimiter: "$$"}, err: "delimiter is only supported for mysql, not postgres"},
		{name: "mssql batch separator", mode: parser.ParserModeMssql, options: Options{BatchSeparator: true}},
		{name: "sqlite3 batch separator", mode: parser.ParserModeSQLite3, options: Options{BatchSeparator: true}, err: "batch separator is only supported for mssql, not sqlite3"},
		{name: "negative chunk size", mode: parser.ParserModeMysql, options: Options{ChunkSize: -1}, err: "chunk size must not be negative, got -1"},
		{name: "unknown mode", mode: parser.ParserMode(42), err: "unknown parser mode: ParserMode(42)"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			splitter, err := NewSplitter(test.mode, test.options)
			if test.err != "" {
				assert.EqualError(t, err, test.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.mode, splitter.Mode())
		})
	}
}

func TestSplitStringEveryDialect(t *testing.T) {
	for _, mode := range []parser.ParserMode{parser.ParserModeMysql, parser.ParserModePostgres, parser.ParserModeSQLite3, parser.ParserModeMssql} {
		t.Run(mode.String(), func(t *testing.T) {
			splitter, err := NewSplitter(mode, Options{})
			require.NoError(t, err)

			statements, err := Collect(splitter.SplitString("SELECT ';'; "))
			require.NoError(t, err)
			assert.Equal(t, []string{"SELECT ';'"}, statements)

			_, err = Collect(splitter.SplitString("SELECT '"))
			assert.True(t, errors.Is(err, parser.ErrUnterminated))
		})
	}
}

func TestSplitChunksIsLazy(t *testing.T) {
	splitter, err := NewSplitter(parser.ParserModePostgres, Options{})
	require.NoError(t, err)

	pulled := 0
	chunks := iter.Seq[[]byte](func(yield func([]byte) bool) {
		for _, chunk := range []string{"SELECT 1;", " SELECT 2;", " SELECT 3;", " SELECT 4;"} {
			pulled++
			if !yield([]byte(chunk)) {
				return
			}
		}
	})

	for stmt, err := range splitter.SplitChunks(chunks) {
		require.NoError(t, err)
		assert.Equal(t, "SELECT 1", stmt)
		break
	}
	assert.Equal(t, 2, pulled)
}

func TestSplitChunksMatchesSplitString(t *testing.T) {
	splitter, err := NewSplitter(parser.ParserModeMysql, Options{})
	require.NoError(t, err)

	sql := "SELECT 1; DELIMITER $$ SELECT 2$$ DELIMITER ; SELECT 3;"
	expected := []string{"SELECT 1", " SELECT 2", " SELECT 3"}

	statements, err := Collect(splitter.SplitString(sql))
	require.NoError(t, err)
	assert.Equal(t, expected, statements)

	chunks := iter.Seq[[]byte](func(yield func([]byte) bool) {
		for i := 0; i < len(sql); i += 5 {
			if !yield([]byte(sql[i:min(i+5, len(sql))])) {
				return
			}
		}
	})
	statements, err = Collect(splitter.SplitChunks(chunks))
	require.NoError(t, err)
	assert.Equal(t, expected, statements)
}

func TestSplitReader(t *testing.T) {
	splitter, err := NewSplitter(parser.ParserModeSQLite3, Options{ChunkSize: 3})
	require.NoError(t, err)

	reader := iotest.HalfReader(strings.NewReader("CREATE TRIGGER t AFTER INSERT ON a BEGIN SELECT 1; END; SELECT 2"))
	statements, err := Collect(splitter.SplitReader(reader))
	require.NoError(t, err)
	assert.Equal(t, []string{"CREATE TRIGGER t AFTER INSERT ON a BEGIN SELECT 1; END", "SELECT 2"}, statements)
}

func TestSplitReaderError(t *testing.T) {
	splitter, err := NewSplitter(parser.ParserModeMysql, Options{})
	require.NoError(t, err)

	readErr := errors.New("connection reset")
	reader := io.MultiReader(strings.NewReader("SELECT 1; SELECT"), iotest.ErrReader(readErr))

	statements, err := Collect(splitter.SplitReader(reader))
	assert.Equal(t, []string{"SELECT 1"}, statements)
	assert.True(t, errors.Is(err, parser.ErrSource))
	assert.True(t, errors.Is(err, readErr))
}

func TestSplitFile(t *testing.T) {
	splitter, err := NewSplitter(parser.ParserModeMysql, Options{ChunkSize: 7})
	require.NoError(t, err)

	statements, err := Collect(splitter.SplitFile(filepath.Join("testdata", "schema.sql")))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"CREATE TABLE users (\n  id bigint NOT NULL,\n  name varchar(40) DEFAULT 'a;b'\n)",
		"CREATE TABLE posts (id bigint NOT NULL)",
	}, statements)

	statements, err = Collect(splitter.SplitFile(filepath.Join("testdata", "routines.sql")))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"\nCREATE PROCEDURE touch()\nBEGIN\n  UPDATE users SET name = name;\nEND",
		"\nCALL touch()",
	}, statements)
}

func TestSplitFileErrors(t *testing.T) {
	splitter, err := NewSplitter(parser.ParserModePostgres, Options{})
	require.NoError(t, err)

	missing := filepath.Join("testdata", "missing.sql")
	_, err = Collect(splitter.SplitFile(missing))
	var sourceErr *parser.SourceError
	require.True(t, errors.As(err, &sourceErr))
	assert.Equal(t, "open", sourceErr.Op)
	assert.Equal(t, missing, sourceErr.Path)
	assert.True(t, errors.Is(err, parser.ErrSource))

	unterminated := filepath.Join("testdata", "unterminated.sql")
	_, err = Collect(splitter.SplitFile(unterminated))
	assert.Equal(t, &parser.UnterminatedError{
		Construct: parser.ConstructString,
		Offset:    7,
		Line:      1,
		Column:    8,
		File:      unterminated,
	}, err)
	assert.EqualError(t, err, unterminated+":1:8: unterminated string literal")
}
