package parser

import (
	"errors"
	"io"
	"slices"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, source Source) ([]string, error) {
	t.Helper()
	var chunks []string
	for {
		chunk, err := source.Next()
		if err != nil {
			return chunks, err
		}
		require.NotEmpty(t, chunk)
		chunks = append(chunks, string(chunk))
	}
}

func TestBytesSource(t *testing.T) {
	chunks, err := drain(t, BytesSource([]byte("a"), nil, []byte{}, []byte("b")))
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, []string{"a", "b"}, chunks)
}

func TestSeqSource(t *testing.T) {
	seq := slices.Values([][]byte{[]byte("ab"), {}, []byte("c")})
	source, stop := SeqSource(seq)
	defer stop()

	chunks, err := drain(t, source)
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, []string{"ab", "c"}, chunks)

	_, err = source.Next()
	assert.Equal(t, io.EOF, err)
}

func TestReaderSource(t *testing.T) {
	chunks, err := drain(t, ReaderSource(strings.NewReader("abcdefg"), 3))
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, []string{"abc", "def", "g"}, chunks)

	chunks, err = drain(t, ReaderSource(iotest.DataErrReader(strings.NewReader("abc")), 0))
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, []string{"abc"}, chunks)
}

func TestReaderSourceError(t *testing.T) {
	readErr := errors.New("boom")
	reader := io.MultiReader(strings.NewReader("ab"), iotest.ErrReader(readErr))

	chunks, err := drain(t, ReaderSource(reader, 16))
	assert.Equal(t, []string{"ab"}, chunks)
	assert.True(t, errors.Is(err, ErrSource))
	assert.True(t, errors.Is(err, readErr))
}

func TestParseParserMode(t *testing.T) {
	for _, mode := range []ParserMode{ParserModeMysql, ParserModePostgres, ParserModeSQLite3, ParserModeMssql} {
		parsed, err := ParseParserMode(mode.String())
		require.NoError(t, err)
		assert.Equal(t, mode, parsed)
	}

	_, err := ParseParserMode("oracle")
	assert.Error(t, err)
}
