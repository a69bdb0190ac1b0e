package mssql

import (
	"github.com/sqldef/sqlsplit/parser"
)

// BEGIN followed by one of these is a statement of its own, not a BEGIN ... END block.
var blockExclusions = []string{"TRAN", "TRANSACTION", "DISTRIBUTED", "DIALOG", "CONVERSATION"}

// END followed by one of these is a statement of its own and leaves the block open.
var endExclusions = []string{"CONVERSATION"}

type MssqlParser struct {
	comments       parser.CommentStyle
	batchSeparator bool
}

var _ parser.Grammar = MssqlParser{}
var _ parser.BlockLexer = MssqlParser{}

func NewParser() MssqlParser {
	return MssqlParser{}
}

// NewParserWithBatchSeparator returns a parser that also ends statements at lines holding
// only GO, as sqlcmd and SSMS do.
func NewParserWithBatchSeparator() MssqlParser {
	return MssqlParser{batchSeparator: true}
}

func (p MssqlParser) Skip(buf []byte, offset int) int {
	return p.comments.Skip(buf, offset)
}

func (p MssqlParser) Match(buf []byte, offset int, state parser.State, atEOF bool) parser.Match {
	if p.batchSeparator && offset < len(buf) && atLineStart(buf, offset) {
		end, ok, pending := goLine(buf, offset, atEOF)
		if pending {
			return parser.Incomplete(parser.ConstructPending, offset)
		}
		if ok {
			return parser.Statement(0, end-offset)
		}
	}
	return parser.ScanStatement(p, buf, offset, state.Terminator, atEOF)
}

func (p MssqlParser) Scan(buf []byte, pos int, atEOF bool) (parser.Span, bool) {
	switch q := buf[pos]; q {
	case '\'', '"':
		return parser.ScanQuoted(buf, pos, q, false, parser.ConstructString), true
	case '[':
		return parser.ScanBracket(buf, pos, atEOF), true
	case '\r', '\n':
		if !p.batchSeparator {
			return parser.Span{}, false
		}
		next := pos + 1
		if q == '\r' {
			if next == len(buf) {
				if atEOF {
					return parser.Span{}, false
				}
				return parser.Span{Open: parser.ConstructPending}, true
			}
			if buf[next] != '\n' {
				return parser.Span{}, false
			}
			next++
		}
		end, ok, pending := goLine(buf, next, atEOF)
		if pending {
			return parser.Span{Open: parser.ConstructPending}, true
		}
		if ok {
			return parser.Span{End: end, Stop: true}, true
		}
		return parser.Span{}, false
	}
	return p.comments.Scan(buf, pos, atEOF)
}

func (p MssqlParser) OpensBlock(buf []byte, end int, atEOF bool) (bool, bool) {
	return parser.BeginOpensBlock(buf, end, atEOF, p.comments, blockExclusions...)
}

func (p MssqlParser) ClosesBlock(buf []byte, end int, atEOF bool) (bool, bool) {
	return parser.EndClosesBlock(buf, end, atEOF, p.comments, endExclusions...)
}

func isBlank(b byte) bool {
	return b == ' ' || b == '\t'
}

// atLineStart reports whether only blanks separate buf[pos] from the previous line break.
func atLineStart(buf []byte, pos int) bool {
	for pos > 0 && isBlank(buf[pos-1]) {
		pos--
	}
	return pos == 0 || buf[pos-1] == '\n'
}

// goLine matches `GO` surrounded by blanks from pos to the end of the line. end excludes
// the line break.
func goLine(buf []byte, pos int, atEOF bool) (end int, ok, pending bool) {
	for pos < len(buf) && isBlank(buf[pos]) {
		pos++
	}
	if rest := buf[pos:]; len(rest) < 2 {
		couldBeGo := len(rest) == 0 || rest[0] == 'g' || rest[0] == 'G'
		return 0, false, couldBeGo && !atEOF
	}
	if !parser.EqualFold(buf[pos:pos+2], "GO") {
		return 0, false, false
	}
	pos += 2
	for pos < len(buf) && (isBlank(buf[pos]) || buf[pos] == '\r') {
		pos++
	}
	if pos == len(buf) {
		return pos, atEOF, !atEOF
	}
	return pos, buf[pos] == '\n', false
}
