package parser

import "bytes"

// Span is the result of scanning one construct. When Open is ConstructNone the construct
// closed and End is the index right after it; otherwise At is the index where the still open
// construct starts.
type Span struct {
	End  int
	Open Construct
	At   int
	// Stop marks a construct that ends the statement it appears in, like a GO line. A Stop
	// span returned by ScanBlock carries the index where the statement body ends in At.
	Stop bool
}

// Lexer recognizes the quoted and commented constructs of a dialect.
type Lexer interface {
	// Scan reports ok=false when buf[pos] does not start a construct.
	Scan(buf []byte, pos int, atEOF bool) (span Span, ok bool)
}

// BlockLexer is a Lexer for a dialect where BEGIN ... END blocks hide their semicolons.
type BlockLexer interface {
	Lexer
	// OpensBlock decides whether the BEGIN keyword ending at end opens a block.
	// pending means the bytes needed to decide are not visible yet.
	OpensBlock(buf []byte, end int, atEOF bool) (opens, pending bool)
	// ClosesBlock decides whether the END keyword ending at end closes a block.
	ClosesBlock(buf []byte, end int, atEOF bool) (closes, pending bool)
}

func IsSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

// IsIdentByte reports whether b can be part of an unquoted word.
func IsIdentByte(b byte) bool {
	return 'a' <= b && b <= 'z' || 'A' <= b && b <= 'Z' || '0' <= b && b <= '9' ||
		b == '_' || b == '$' || b == '@' || b == '#' || b >= 0x80
}

// ScanWord returns the end of the run of identifier bytes starting at pos.
func ScanWord(buf []byte, pos int) int {
	for pos < len(buf) && IsIdentByte(buf[pos]) {
		pos++
	}
	return pos
}

// EqualFold compares an ASCII keyword case-insensitively.
func EqualFold(word []byte, keyword string) bool {
	if len(word) != len(keyword) {
		return false
	}
	for i := range word {
		a, b := word[i], keyword[i]
		if 'a' <= a && a <= 'z' {
			a -= 'a' - 'A'
		}
		if 'a' <= b && b <= 'z' {
			b -= 'a' - 'A'
		}
		if a != b {
			return false
		}
	}
	return true
}

func lineEnd(buf []byte, pos int) int {
	if i := bytes.IndexByte(buf[pos:], '\n'); i >= 0 {
		return pos + i
	}
	return len(buf)
}

// ScanQuoted scans a literal opened by the quote at buf[pos]. A doubled quote needs no
// special case: it closes the literal and immediately opens the next one.
func ScanQuoted(buf []byte, pos int, quote byte, backslash bool, c Construct) Span {
	for i := pos + 1; i < len(buf); i++ {
		switch buf[i] {
		case quote:
			return Span{End: i + 1}
		case '\\':
			if backslash {
				i++
			}
		}
	}
	return Span{Open: c}
}

// ScanBracket scans a [bracketed] identifier where ]] stands for a literal ].
func ScanBracket(buf []byte, pos int, atEOF bool) Span {
	for i := pos + 1; i < len(buf); i++ {
		if buf[i] != ']' {
			continue
		}
		if i+1 < len(buf) {
			if buf[i+1] == ']' {
				i++
				continue
			}
			return Span{End: i + 1}
		}
		if atEOF {
			return Span{End: i + 1}
		}
	}
	return Span{Open: ConstructBracketIdentifier}
}

// CommentStyle describes the comment syntax of a dialect. Every dialect has -- line
// comments and /* */ block comments.
type CommentStyle struct {
	// Hash makes # start a line comment.
	Hash bool
	// VersionComments keeps /*! ... */ out of the skip-material.
	VersionComments bool
}

// Skip consumes whitespace and comments. It stops in front of anything it cannot see the end
// of, so a later Scan can commit to it.
func (c CommentStyle) Skip(buf []byte, pos int) int {
	for pos < len(buf) {
		b := buf[pos]
		switch {
		case IsSpace(b):
			pos++
		case b == '#' && c.Hash:
			pos = lineEnd(buf, pos)
		case b == '-' && pos+1 < len(buf) && buf[pos+1] == '-':
			pos = lineEnd(buf, pos)
		case b == '/' && pos+1 < len(buf) && buf[pos+1] == '*':
			if c.VersionComments && (pos+2 == len(buf) || buf[pos+2] == '!') {
				return pos
			}
			i := bytes.Index(buf[pos+2:], []byte("*/"))
			if i < 0 {
				return pos
			}
			pos += 2 + i + 2
		default:
			return pos
		}
	}
	return pos
}

// Scan recognizes a comment inside a statement body.
func (c CommentStyle) Scan(buf []byte, pos int, atEOF bool) (Span, bool) {
	b := buf[pos]
	switch b {
	case '#':
		if c.Hash {
			return Span{End: lineEnd(buf, pos)}, true
		}
	case '-', '/':
		if pos+1 == len(buf) {
			if atEOF {
				return Span{}, false
			}
			return Span{Open: ConstructPending}, true
		}
		next := buf[pos+1]
		if b == '-' && next == '-' {
			return Span{End: lineEnd(buf, pos)}, true
		}
		if b == '/' && next == '*' {
			if i := bytes.Index(buf[pos+2:], []byte("*/")); i >= 0 {
				return Span{End: pos + 2 + i + 2}, true
			}
			return Span{Open: ConstructBlockComment}, true
		}
	}
	return Span{}, false
}

// ScanStatement matches one statement body starting at offset and ending at terminator or at
// the end of input.
func ScanStatement(l Lexer, buf []byte, offset int, terminator string, atEOF bool) Match {
	if offset >= len(buf) {
		return EndOf(offset, atEOF)
	}
	bl, blocks := l.(BlockLexer)
	term := []byte(terminator)

	pos := offset
	for pos < len(buf) {
		if span, ok := l.Scan(buf, pos, atEOF); ok {
			if span.Open != ConstructNone {
				return Incomplete(span.Open, pos)
			}
			if span.Stop {
				return Statement(pos-offset, span.End-offset)
			}
			pos = span.End
			continue
		}
		if bytes.HasPrefix(buf[pos:], term) {
			return Statement(pos-offset, pos-offset+len(term))
		}
		if blocks && IsIdentByte(buf[pos]) {
			end := ScanWord(buf, pos)
			if end == len(buf) && !atEOF {
				return Incomplete(ConstructPending, pos)
			}
			if EqualFold(buf[pos:end], "BEGIN") {
				opens, pending := bl.OpensBlock(buf, end, atEOF)
				if pending {
					return Incomplete(ConstructPending, pos)
				}
				if opens {
					span := ScanBlock(bl, buf, pos, end, atEOF)
					if span.Open != ConstructNone {
						return Incomplete(span.Open, span.At)
					}
					end = span.End
				}
			}
			pos = end
			continue
		}
		pos++
	}
	if !atEOF {
		return Incomplete(ConstructPending, pos)
	}
	return Statement(len(buf)-offset, len(buf)-offset)
}

// ScanBlock scans the body of the block whose BEGIN keyword spans buf[begin:pos] and returns
// the span ending right after the matching END. Nested blocks recurse; CASE ... END
// expressions do not close the block. A Stop construct ends the statement even inside an
// unclosed block.
func ScanBlock(l BlockLexer, buf []byte, begin, pos int, atEOF bool) Span {
	cases := 0
	for pos < len(buf) {
		if span, ok := l.Scan(buf, pos, atEOF); ok {
			if span.Open != ConstructNone {
				return Span{Open: span.Open, At: pos}
			}
			if span.Stop {
				return Span{End: span.End, At: pos, Stop: true}
			}
			pos = span.End
			continue
		}
		if !IsIdentByte(buf[pos]) {
			pos++
			continue
		}
		end := ScanWord(buf, pos)
		if end == len(buf) && !atEOF {
			return Span{Open: ConstructPending, At: pos}
		}
		word := buf[pos:end]
		switch {
		case EqualFold(word, "END"):
			closes, pending := l.ClosesBlock(buf, end, atEOF)
			if pending {
				return Span{Open: ConstructPending, At: pos}
			}
			if !closes {
				break
			}
			if cases == 0 {
				return Span{End: end}
			}
			cases--
		case EqualFold(word, "CASE"):
			cases++
		case EqualFold(word, "BEGIN"):
			opens, pending := l.OpensBlock(buf, end, atEOF)
			if pending {
				return Span{Open: ConstructPending, At: pos}
			}
			if opens {
				span := ScanBlock(l, buf, pos, end, atEOF)
				if span.Open != ConstructNone || span.Stop {
					return span
				}
				end = span.End
			}
		}
		pos = end
	}
	return Span{Open: ConstructBlock, At: begin}
}

// BeginOpensBlock is the OpensBlock rule shared by the block dialects: BEGIN opens a block
// unless the next word is one of the given keywords or nothing but ';' or the end of input
// follows. Comments between BEGIN and the next word are skipped.
func BeginOpensBlock(buf []byte, end int, atEOF bool, comments CommentStyle, keywords ...string) (opens, pending bool) {
	p, q, pending := nextWord(buf, end, atEOF, comments)
	if pending {
		return false, true
	}
	if p == len(buf) || buf[p] == ';' {
		return false, false
	}
	for _, keyword := range keywords {
		if EqualFold(buf[p:q], keyword) {
			return false, false
		}
	}
	return true, false
}

// EndClosesBlock is the ClosesBlock rule shared by the block dialects: END closes a block
// unless the next word is one of the given keywords.
func EndClosesBlock(buf []byte, end int, atEOF bool, comments CommentStyle, keywords ...string) (closes, pending bool) {
	if len(keywords) == 0 {
		return true, false
	}
	p, q, pending := nextWord(buf, end, atEOF, comments)
	if pending {
		return false, true
	}
	for _, keyword := range keywords {
		if EqualFold(buf[p:q], keyword) {
			return false, false
		}
	}
	return true, false
}

// nextWord skips whitespace and comments from pos and returns the word found there as
// buf[start:end]. end == start when something other than a word follows, and start ==
// len(buf) at the end of input. pending means the bytes needed to tell are not visible yet.
func nextWord(buf []byte, pos int, atEOF bool, comments CommentStyle) (start, end int, pending bool) {
	p := comments.Skip(buf, pos)
	if p == len(buf) {
		return p, p, !atEOF
	}
	if !atEOF && (buf[p] == '-' || buf[p] == '/') && (p+1 == len(buf) || buf[p] == '/' && buf[p+1] == '*') {
		// Skip stopped in front of a comment it cannot see the end of.
		return p, p, true
	}
	q := ScanWord(buf, p)
	if q == len(buf) && !atEOF {
		return p, q, true
	}
	return p, q, false
}
