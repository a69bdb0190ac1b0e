package mssql

import (
	"strings"
	"testing"

	"github.com/microsoft/go-mssqldb/batch"
	"github.com/sqldef/sqlsplit/parser"
	"github.com/sqldef/sqlsplit/testutil"
	"github.com/sqldef/sqlsplit/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests, err := testutil.ReadTests("tests.yml")
	require.NoError(t, err)

	for name, test := range util.CanonicalMapIter(tests) {
		t.Run(name, func(t *testing.T) {
			grammar := NewParser()
			if test.BatchSeparator {
				grammar = NewParserWithBatchSeparator()
			}
			testutil.RunTest(t, grammar, test)
		})
	}
}

func TestGoLine(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		atEOF   bool
		end     int
		ok      bool
		pending bool
	}{
		{name: "separator", input: "GO\nSELECT", end: 2, ok: true},
		{name: "blanks and carriage return", input: "  go \r\n", end: 6, ok: true},
		{name: "end of input", input: "GO", atEOF: true, end: 2, ok: true},
		{name: "end of buffer", input: "GO", pending: true},
		{name: "cut keyword", input: " G", pending: true},
		{name: "goto", input: "GOTO x", atEOF: true},
		{name: "repeat count", input: "GO 2\n", atEOF: true},
		{name: "other word", input: "SELECT", atEOF: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			end, ok, pending := goLine([]byte(test.input), 0, test.atEOF)
			assert.Equal(t, test.ok, ok)
			assert.Equal(t, test.pending, pending)
			if test.ok {
				assert.Equal(t, test.end, end)
			}
		})
	}
}

func TestAtLineStart(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		pos      int
		expected bool
	}{
		{name: "start of buffer", input: "GO", pos: 0, expected: true},
		{name: "after line break", input: "x\nGO", pos: 2, expected: true},
		{name: "after blanks", input: "x\n \tGO", pos: 4, expected: true},
		{name: "after terminator", input: "x; GO", pos: 3},
		{name: "after comment", input: "/* c */ GO", pos: 8},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, atLineStart([]byte(test.input), test.pos))
		})
	}
}

// GO batches without semicolons must come out as the batches the driver's own splitter finds.
func TestBatchesMatchDriver(t *testing.T) {
	script := "CREATE TABLE t (a int)\nGO\nINSERT INTO t VALUES (1)\nGO\nSELECT a FROM t\nGO\n"

	batches := util.TransformSlice(batch.Split(script, "GO"), strings.TrimSpace)
	expected := util.FilterSlice(batches, func(b string) bool { return b != "" })

	scanner := parser.NewScanner(NewParserWithBatchSeparator(), parser.StringSource(script), parser.Config{})
	statements, err := testutil.Collect(scanner)
	require.NoError(t, err)

	assert.Equal(t, expected, util.TransformSlice(statements, strings.TrimSpace))
	assert.Len(t, statements, 3)
}
