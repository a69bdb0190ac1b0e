package postgres

import (
	"bytes"

	"github.com/sqldef/sqlsplit/parser"
)

// PostgresParser splits PostgreSQL scripts. Besides plain strings it knows E'' escape
// strings and $tag$ dollar quoting.
type PostgresParser struct {
	comments parser.CommentStyle
}

var _ parser.Grammar = PostgresParser{}
var _ parser.Lexer = PostgresParser{}

func NewParser() PostgresParser {
	return PostgresParser{}
}

func (p PostgresParser) Skip(buf []byte, offset int) int {
	return p.comments.Skip(buf, offset)
}

func (p PostgresParser) Match(buf []byte, offset int, state parser.State, atEOF bool) parser.Match {
	return parser.ScanStatement(p, buf, offset, state.Terminator, atEOF)
}

func (p PostgresParser) Scan(buf []byte, pos int, atEOF bool) (parser.Span, bool) {
	switch buf[pos] {
	case '\'':
		return parser.ScanQuoted(buf, pos, '\'', false, parser.ConstructString), true
	case '"':
		return parser.ScanQuoted(buf, pos, '"', false, parser.ConstructQuotedIdentifier), true
	case 'e', 'E':
		return scanEscapeString(buf, pos, atEOF)
	case '$':
		return scanDollarQuote(buf, pos, atEOF)
	}
	return p.comments.Scan(buf, pos, atEOF)
}

// An E prefix or a dollar quote only counts at the start of a word.
func wordStart(buf []byte, pos int) bool {
	return pos == 0 || !parser.IsIdentByte(buf[pos-1])
}

func scanEscapeString(buf []byte, pos int, atEOF bool) (parser.Span, bool) {
	if !wordStart(buf, pos) {
		return parser.Span{}, false
	}
	if pos+1 == len(buf) {
		if atEOF {
			return parser.Span{}, false
		}
		return parser.Span{Open: parser.ConstructPending}, true
	}
	if buf[pos+1] != '\'' {
		return parser.Span{}, false
	}
	return parser.ScanQuoted(buf, pos+1, '\'', true, parser.ConstructString), true
}

func isTagStart(b byte) bool {
	return 'a' <= b && b <= 'z' || 'A' <= b && b <= 'Z' || b == '_' || b >= 0x80
}

func isTagByte(b byte) bool {
	return isTagStart(b) || '0' <= b && b <= '9'
}

// scanDollarQuote scans $tag$...$tag$. The body closes only at a byte-identical tag.
func scanDollarQuote(buf []byte, pos int, atEOF bool) (parser.Span, bool) {
	if !wordStart(buf, pos) {
		return parser.Span{}, false
	}
	end := pos + 1
	if end < len(buf) && isTagStart(buf[end]) {
		end++
		for end < len(buf) && isTagByte(buf[end]) {
			end++
		}
	}
	if end == len(buf) {
		if atEOF {
			return parser.Span{}, false
		}
		return parser.Span{Open: parser.ConstructPending}, true
	}
	if buf[end] != '$' {
		return parser.Span{}, false
	}

	tag := buf[pos : end+1]
	body := end + 1
	i := bytes.Index(buf[body:], tag)
	if i < 0 {
		return parser.Span{Open: parser.ConstructDollarQuote}, true
	}
	return parser.Span{End: body + i + len(tag)}, true
}
