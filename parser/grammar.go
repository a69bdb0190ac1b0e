package parser

// State is the mutable part of a parse run. It is owned by the Scanner and handed to the
// grammar by value on every step.
type State struct {
	Terminator string
}

// Grammar recognizes statements of one dialect. Implementations are stateless; everything
// that changes during a run lives in State.
type Grammar interface {
	// Skip returns the offset after the whitespace and comments starting at offset.
	// A comment whose end is not visible in buf is left in place.
	Skip(buf []byte, offset int) int
	// Match tries to recognize one statement or directive starting at offset.
	Match(buf []byte, offset int, state State, atEOF bool) Match
}

type MatchKind int

const (
	MatchNone MatchKind = iota
	MatchIncomplete
	MatchStatement
	MatchDirective
	MatchEnd
)

func (k MatchKind) String() string {
	switch k {
	case MatchNone:
		return "NoMatch"
	case MatchIncomplete:
		return "Incomplete"
	case MatchStatement:
		return "Statement"
	case MatchDirective:
		return "Directive"
	case MatchEnd:
		return "EndOfInput"
	default:
		return "MatchKind(?)"
	}
}

type DirectiveKind int

const (
	// DirectiveDelimiter replaces the active terminator with Directive.Payload.
	DirectiveDelimiter DirectiveKind = iota + 1
)

type Directive struct {
	Kind    DirectiveKind
	Payload string
}

// Match is the outcome of one Grammar.Match call. Body and Consumed are lengths counted from
// the offset the grammar was asked to match at; At is an index into the buffer.
type Match struct {
	Kind MatchKind
	// Body is the length of the statement text. It excludes the terminator.
	Body int
	// Consumed is the number of bytes the statement or directive occupies, terminator included.
	Consumed  int
	Directive Directive
	// Open describes the construct that kept an Incomplete match from finishing.
	Open Construct
	// At is the buffer index where that construct starts, not an offset from the match start.
	At int
}

func Statement(body, consumed int) Match {
	return Match{Kind: MatchStatement, Body: body, Consumed: consumed}
}

func DelimiterDirective(terminator string, consumed int) Match {
	return Match{
		Kind:      MatchDirective,
		Consumed:  consumed,
		Directive: Directive{Kind: DirectiveDelimiter, Payload: terminator},
	}
}

// Incomplete reports that the construct opened at buf[at] needs more input to close.
func Incomplete(open Construct, at int) Match {
	return Match{Kind: MatchIncomplete, Open: open, At: at}
}

// EndOf is the outcome for an offset at the end of the visible buffer.
func EndOf(offset int, atEOF bool) Match {
	if atEOF {
		return Match{Kind: MatchEnd}
	}
	return Incomplete(ConstructPending, offset)
}
