package sqlite3

import (
	"github.com/sqldef/sqlsplit/parser"
)

// BEGIN followed by one of these starts a transaction, not a trigger body.
var transactionKeywords = []string{"TRANSACTION", "DEFERRED", "IMMEDIATE", "EXCLUSIVE"}

type Sqlite3Parser struct {
	comments parser.CommentStyle
}

var _ parser.Grammar = Sqlite3Parser{}
var _ parser.BlockLexer = Sqlite3Parser{}

func NewParser() Sqlite3Parser {
	return Sqlite3Parser{}
}

func (p Sqlite3Parser) Skip(buf []byte, offset int) int {
	return p.comments.Skip(buf, offset)
}

func (p Sqlite3Parser) Match(buf []byte, offset int, state parser.State, atEOF bool) parser.Match {
	return parser.ScanStatement(p, buf, offset, state.Terminator, atEOF)
}

func (p Sqlite3Parser) Scan(buf []byte, pos int, atEOF bool) (parser.Span, bool) {
	switch q := buf[pos]; q {
	case '\'', '"':
		return parser.ScanQuoted(buf, pos, q, false, parser.ConstructString), true
	case '`':
		return parser.ScanQuoted(buf, pos, q, false, parser.ConstructQuotedIdentifier), true
	case '[':
		return parser.ScanBracket(buf, pos, atEOF), true
	}
	return p.comments.Scan(buf, pos, atEOF)
}

func (p Sqlite3Parser) OpensBlock(buf []byte, end int, atEOF bool) (bool, bool) {
	return parser.BeginOpensBlock(buf, end, atEOF, p.comments, transactionKeywords...)
}

func (p Sqlite3Parser) ClosesBlock(buf []byte, end int, atEOF bool) (bool, bool) {
	return parser.EndClosesBlock(buf, end, atEOF, p.comments)
}
