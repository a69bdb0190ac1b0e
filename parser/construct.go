package parser

// Construct identifies a span with its own open/close rules. A Match or Span reporting a
// construct other than ConstructNone means that construct is still open at the end of the
// visible buffer.
type Construct int

const (
	ConstructNone Construct = iota
	// ConstructPending means the visible bytes are too few to tell what comes next.
	ConstructPending
	ConstructString
	ConstructQuotedIdentifier
	ConstructBracketIdentifier
	ConstructBlockComment
	ConstructDollarQuote
	ConstructBlock
)

func (c Construct) String() string {
	switch c {
	case ConstructNone:
		return "none"
	case ConstructPending:
		return "pending input"
	case ConstructString:
		return "string literal"
	case ConstructQuotedIdentifier:
		return "quoted identifier"
	case ConstructBracketIdentifier:
		return "bracketed identifier"
	case ConstructBlockComment:
		return "block comment"
	case ConstructDollarQuote:
		return "dollar-quoted string"
	case ConstructBlock:
		return "BEGIN...END block"
	default:
		return "unknown construct"
	}
}
