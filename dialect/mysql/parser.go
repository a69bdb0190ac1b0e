package mysql

import (
	"github.com/sqldef/sqlsplit/parser"
)

const delimiterKeyword = "DELIMITER"

// MysqlParser splits MySQL scripts the way the mysql client does, including the DELIMITER
// command.
type MysqlParser struct {
	comments parser.CommentStyle
}

var _ parser.Grammar = MysqlParser{}
var _ parser.Lexer = MysqlParser{}

func NewParser() MysqlParser {
	return MysqlParser{
		comments: parser.CommentStyle{Hash: true, VersionComments: true},
	}
}

func (p MysqlParser) Skip(buf []byte, offset int) int {
	return p.comments.Skip(buf, offset)
}

func (p MysqlParser) Match(buf []byte, offset int, state parser.State, atEOF bool) parser.Match {
	if m, ok := matchDelimiter(buf, offset, atEOF); ok {
		return m
	}
	return parser.ScanStatement(p, buf, offset, state.Terminator, atEOF)
}

func (p MysqlParser) Scan(buf []byte, pos int, atEOF bool) (parser.Span, bool) {
	switch q := buf[pos]; q {
	case '\'', '"':
		return parser.ScanQuoted(buf, pos, q, true, parser.ConstructString), true
	case '`':
		return parser.ScanQuoted(buf, pos, q, false, parser.ConstructQuotedIdentifier), true
	}
	return p.comments.Scan(buf, pos, atEOF)
}

// matchDelimiter recognizes `DELIMITER <token>`. The token is everything up to the next
// whitespace.
func matchDelimiter(buf []byte, offset int, atEOF bool) (parser.Match, bool) {
	rest := buf[offset:]
	if len(rest) <= len(delimiterKeyword) {
		if atEOF || !parser.EqualFold(rest, delimiterKeyword[:len(rest)]) {
			return parser.Match{}, false
		}
		return parser.Incomplete(parser.ConstructPending, offset), true
	}
	if !parser.EqualFold(rest[:len(delimiterKeyword)], delimiterKeyword) || !parser.IsSpace(rest[len(delimiterKeyword)]) {
		return parser.Match{}, false
	}

	start := offset + len(delimiterKeyword)
	for start < len(buf) && parser.IsSpace(buf[start]) {
		start++
	}
	if start == len(buf) {
		if atEOF {
			return parser.Match{}, false
		}
		return parser.Incomplete(parser.ConstructPending, offset), true
	}
	end := start
	for end < len(buf) && !parser.IsSpace(buf[end]) {
		end++
	}
	return parser.DelimiterDirective(string(buf[start:end]), end-offset), true
}
