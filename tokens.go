package asnlex

// Token represents a single lexical token from the input.
type Token struct {
	Position

	// End is the byte offset in the source text.
	// It is exclusive: text[Start:End] is the token's lexeme.
	End int

	Kind Kind // e.g. Identifier, Number, COMMA, etc.

	// Text is owned by the token. For identifiers and keywords it is the
	// canonical form; for everything else it is the lexeme as written,
	// quotes included.
	Text string

	// Case is set for Ident and Keyword tokens.
	Case CaseCategory

	// Handle is set for CharacterOrOidIriLiteral tokens.
	Handle Handle
}

// Is reports whether tok.Kind matches the provided kind.
//
// It returns false if tok is nil.
func (tok *Token) Is(kind Kind) bool {
	if tok == nil {
		return false
	}
	return tok.Kind == kind
}

// IsOneOf reports whether tok.Kind matches any of the provided kinds.
//
// It returns false if tok is nil.
//
// This is useful when a parser accepts several token kinds at the same
// input position, e.g.:
//
//	if tok.IsOneOf(asnlex.Number, asnlex.RealNumber, asnlex.DASH) {
//	    ...
//	}
func (tok *Token) IsOneOf(kinds ...Kind) bool {
	if tok == nil {
		return false
	}
	for _, kind := range kinds {
		if tok.Kind == kind {
			return true
		}
	}
	return false
}

// IsNot reports whether tok.Kind does not match the provided kind.
// It is the opposite of Is(kind)
//
// It returns true if tok is nil.
func (tok *Token) IsNot(kind Kind) bool {
	return !tok.Is(kind)
}

// IsNotOneOf reports whether tok.Kind is not any of the provided kinds.
// It is the opposite of IsOneOf(kinds)
//
// Returns true if tok is nil.
func (tok *Token) IsNotOneOf(kinds ...Kind) bool {
	return !tok.IsOneOf(kinds...)
}

// Length is the length of the lexeme, in bytes.
func (tok *Token) Length() int {
	return tok.End - tok.Position.Start
}

// Lexeme is a helper to return the original text of the token.
func (tok *Token) Lexeme(input []byte) []byte {
	return input[tok.Position.Start:tok.End]
}

// Identifier returns the classified identifier of an Ident or Keyword token.
func (tok *Token) Identifier() (Identifier, bool) {
	if tok.IsNotOneOf(Ident, Keyword) {
		return Identifier{}, false
	}
	return Identifier{Text: tok.Text, Case: tok.Case}, true
}

// Span returns the source range of the token.
func (tok *Token) Span() Span {
	return Span{
		Start:  tok.Position.Start,
		End:    tok.End,
		Line:   tok.Position.Line,
		Column: tok.Position.Column,
	}
}

// Position represents a position in the original source code.
// All fields are 1-based where applicable.
type Position struct {
	Line   int // 1-based
	Column int // 1-based, character column
	Start  int // byte index into the source text (0-based); always required
}

// Span represents a range in the source: [Start, End).
type Span struct {
	// Byte offsets into the source text.
	// End is exclusive: text[Start:End] is the lexeme.
	Start int
	End   int

	// 1-based line and column of the *start* of the span.
	Line   int
	Column int
}

// Text is a helper to return the original text of the span.
func (s Span) Text(input []byte) []byte {
	return input[s.Start:s.End]
}
