// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package asnlex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Lexer invariants and coordinate system
//
// The lexer works on the decoded Source, never on raw bytes. The source has
// already been validated as UTF-8 and every scalar carries its byte offset,
// line and column.
//
// Fields:
//   src    - the decoded source unit
//   length - number of scalars in src
//   pos    - index of the current scalar, or length at end of input
//   r      - the current scalar, or EOF when pos == length
//   anchor - index of the scalar where the current token starts
//
// Invariants (must always hold):
//   0 <= anchor <= pos <= length
//   r == EOF <=> pos == length
//
// Scanners that produce a token should:
//   1. Check that the current scalar is a valid start for that token.
//   2. Call setAnchor().
//   3. Call advance() while r belongs to the token. When the loop stops,
//      r is the first scalar after the token (or EOF).
//   4. Call span() to get the byte range src.At(anchor) .. src.At(pos).
//
// Fatal errors are sticky: once one is returned, Scan returns it forever.

type Lexer struct {
	name   string // name of the input source
	src    *Source
	length int
	pos    int
	r      rune
	anchor int

	profile     Profile
	literals    *LiteralTable
	diagnostics []Diagnostic

	// returns a canonical end of input token
	endToken *Token
	fatal    error

	// logging
	ctx        context.Context
	logger     *slog.Logger
	errorCount int
	tokenCount int
}

// NewLexer decodes input and returns a lexer positioned at the first scalar.
// It returns an *EncodingError if input is not valid UTF-8.
func NewLexer(ctx context.Context, name string, input []byte, options ...Option) (*Lexer, error) {
	cfg := Config{name: name, profile: UnicodeProfile}
	for _, option := range options {
		if err := option(&cfg); err != nil {
			return nil, err
		}
	}

	src, err := ReadSource(input)
	if err != nil {
		if cfg.logger != nil {
			cfg.logger.Log(ctx, slog.LevelError, "lexer: read source", "file", cfg.name, "error", err)
		}
		return nil, err
	}

	l := &Lexer{
		name:     cfg.name,
		src:      src,
		length:   src.Len(),
		profile:  cfg.profile,
		literals: newLiteralTable(),
		ctx:      ctx,
		logger:   cfg.logger,
	}
	l.r = src.At(0).Rune
	if src.HasBOM() {
		l.debug("stripped byte order mark")
	}
	return l, nil
}

// Name returns the name of the input source.
func (l *Lexer) Name() string {
	return l.name
}

// Source returns the decoded source unit.
func (l *Lexer) Source() *Source {
	return l.src
}

// Literals returns the table of ambiguous literals seen so far.
func (l *Lexer) Literals() *LiteralTable {
	return l.literals
}

// Diagnostics returns the diagnostics reported so far, fatal ones included.
func (l *Lexer) Diagnostics() []Diagnostic {
	return l.diagnostics
}

// Scan returns the next token from the input.
// Whitespace and comments are discarded.
//
// Once we reach end of input, we always return the same EndOfInput token.
// Once a fatal error is returned, we always return that error.
func (l *Lexer) Scan() (*Token, error) {
	if l.fatal != nil {
		return nil, l.fatal
	} else if l.endToken != nil {
		return l.endToken, nil
	}

	if err := l.skipTrivia(); err != nil {
		return nil, l.fail(err)
	}
	if l.iseof() {
		l.seteof()
		return l.endToken, nil
	}

	l.setAnchor()
	tok, err := l.scanToken()
	if err != nil {
		return nil, l.fail(err)
	}
	l.tokenCount++
	l.debug("%s %q", tok.Kind, tok.Text)
	return tok, nil
}

func (l *Lexer) scanToken() (*Token, error) {
	switch r := l.peekChar(); {
	case r == '"':
		return l.scanQuoted()
	case r == '\'':
		return l.scanBinHex()
	case isDigit(r):
		return l.scanNumber(), nil
	case IsHyphen(r) && r != HyphenMinus:
		// only ASCII '-' may stand alone; U+2010 and U+2011 live inside identifiers
		l.advance()
		return nil, &LexError{Err: ErrUnexpectedCharacter, Span: l.span(), Rune: r}
	case l.profile.isStart(r) || (r >= 0x80 && IsIdentifierContinue(r)):
		return l.scanIdentifier(), nil
	case ispunctuation(r):
		return l.scanPunctuation(), nil
	case isunknownpunctuation(r):
		return l.scanUnknownPunctuation(), nil
	}
	r := l.peekChar()
	l.advance()
	return nil, &LexError{Err: ErrUnexpectedCharacter, Span: l.span(), Rune: r}
}

// skipTrivia discards whitespace, line comments and block comments.
func (l *Lexer) skipTrivia() error {
	for !l.iseof() {
		switch {
		case iswhitespace(l.peekChar()):
			l.advance()
		case l.peekChar() == '-' && l.peekCharN(1) == '-':
			l.skipLineComment()
		case l.peekChar() == '/' && l.peekCharN(1) == '*':
			if err := l.skipBlockComment(); err != nil {
				return err
			}
		default:
			return nil
		}
	}
	return nil
}

// skipLineComment consumes "--" up to the end of the line or the next "--".
// The line break is left for the whitespace scanner.
func (l *Lexer) skipLineComment() {
	l.advance()
	l.advance()
	for !l.iseof() && !isLineBreak(l.peekChar()) {
		if l.peekChar() == '-' && l.peekCharN(1) == '-' {
			l.advance()
			l.advance()
			return
		}
		l.advance()
	}
}

// skipBlockComment consumes a "/* */" comment. Comments nest.
func (l *Lexer) skipBlockComment() error {
	l.setAnchor()
	l.advance()
	l.advance()
	for depth := 1; depth > 0; {
		switch {
		case l.iseof():
			return &LexError{Err: ErrUnterminatedComment, Span: l.span()}
		case l.peekChar() == '/' && l.peekCharN(1) == '*':
			l.advance()
			l.advance()
			depth++
		case l.peekChar() == '*' && l.peekCharN(1) == '/':
			l.advance()
			l.advance()
			depth--
		default:
			l.advance()
		}
	}
	return nil
}

// scanIdentifier collects a candidate and classifies it.
// The candidate runs to the next boundary or "--" comment opener.
func (l *Lexer) scanIdentifier() *Token {
	var c Candidate
	for !isboundary(l.peekChar()) {
		if l.peekChar() == '-' && l.peekCharN(1) == '-' {
			break
		}
		c.Scalars = append(c.Scalars, l.src.At(l.pos))
		l.advance()
	}

	span := l.span()
	id, err := l.profile.Classify(c)
	if err != nil {
		var ie *IdentifierError
		if errors.As(err, &ie) {
			// point the diagnostic at the offending scalar
			for _, sc := range c.Scalars {
				if sc.Offset == ie.Offset {
					span = Span{Start: sc.Offset, End: span.End, Line: sc.Line, Column: sc.Column}
					break
				}
			}
		}
		l.report(err, span)
		return l.token(UNKNOWN, c.text())
	}

	kind := Ident
	if IsKeyword(id.Text) {
		kind = Keyword
	}
	tok := l.token(kind, id.Text)
	tok.Case = id.Case
	return tok
}

// scanNumber accepts
//
//	digits
//	digits "." digits [exponent]
//	digits exponent
//
// where exponent is ("e" | "E") ["-"] digits. A ".." after the digits is
// a range, so the number ends before it.
func (l *Lexer) scanNumber() *Token {
	for isDigit(l.peekChar()) {
		l.advance()
	}
	intEnd := l.pos

	kind := Number
	if l.peekChar() == '.' && isDigit(l.peekCharN(1)) {
		l.advance()
		for isDigit(l.peekChar()) {
			l.advance()
		}
		kind = RealNumber
	}
	if e := l.peekChar(); e == 'e' || e == 'E' {
		if isDigit(l.peekCharN(1)) || (l.peekCharN(1) == '-' && isDigit(l.peekCharN(2))) {
			l.advance()
			if l.peekChar() == '-' {
				l.advance()
			}
			for isDigit(l.peekChar()) {
				l.advance()
			}
			kind = RealNumber
		}
	}

	span := l.span()
	text := l.src.Slice(span.Start, span.End)
	if intEnd-l.anchor > 1 && text[0] == '0' {
		l.report(&LexError{Err: ErrMalformedNumber, Span: span, Text: text}, span)
		return l.token(UNKNOWN, text)
	}
	return l.token(kind, text)
}

// scanQuoted captures a double-quoted run verbatim, quotes included.
// A doubled quote is an escaped quote. Comment openers inside the run are
// ordinary text.
func (l *Lexer) scanQuoted() (*Token, error) {
	l.advance()
	for {
		if l.iseof() {
			return nil, &LexError{Err: ErrUnterminatedString, Span: l.span()}
		}
		if l.peekChar() == '"' {
			l.advance()
			if l.peekChar() != '"' {
				break
			}
		}
		l.advance()
	}

	span := l.span()
	text := l.src.Slice(span.Start, span.End)
	tok := l.token(CharacterOrOidIriLiteral, text)
	tok.Handle = l.literals.add(text, span)
	return tok, nil
}

// scanBinHex accepts 'bits'B and 'hex'H. Whitespace between the quotes is
// allowed.
func (l *Lexer) scanBinHex() (*Token, error) {
	l.advance()
	var contents []rune
	for l.peekChar() != '\'' {
		if l.iseof() {
			return nil, &LexError{Err: ErrUnterminatedString, Span: l.span()}
		}
		if !iswhitespace(l.peekChar()) {
			contents = append(contents, l.peekChar())
		}
		l.advance()
	}
	l.advance()

	radix := l.peekChar()
	if radix == 'B' || radix == 'H' {
		l.advance()
	}

	span := l.span()
	text := l.src.Slice(span.Start, span.End)
	var kind Kind
	switch radix {
	case 'B':
		kind = BString
		for _, r := range contents {
			if r != '0' && r != '1' {
				kind = UNKNOWN
				break
			}
		}
	case 'H':
		kind = HString
		for _, r := range contents {
			if !isHexDigit(r) {
				kind = UNKNOWN
				break
			}
		}
	}
	if kind == UNKNOWN {
		l.report(&LexError{Err: ErrMalformedString, Span: span, Text: text}, span)
	}
	return l.token(kind, text), nil
}

// scanPunctuation takes the longest operator at the current position.
func (l *Lexer) scanPunctuation() *Token {
	for _, op := range operators {
		if !l.lookingAt(op.text) {
			continue
		}
		for range op.text {
			l.advance()
		}
		return l.token(op.kind, op.text)
	}
	// every byte in the punctuation table starts at least one operator
	panic(fmt.Sprintf("assert(operator for %q)", l.peekChar()))
}

// scanUnknownPunctuation consumes a run of symbols that are not ASN.1
// punctuation and reports it.
func (l *Lexer) scanUnknownPunctuation() *Token {
	for isunknownpunctuation(l.peekChar()) {
		l.advance()
	}
	span := l.span()
	text := l.src.Slice(span.Start, span.End)
	l.report(&LexError{Err: ErrUnknownPunctuation, Span: span, Text: text}, span)
	return l.token(UNKNOWN, text)
}

// lookingAt reports whether the ASCII text s starts at the current scalar.
func (l *Lexer) lookingAt(s string) bool {
	for i := 0; i < len(s); i++ {
		if l.peekCharN(i) != rune(s[i]) {
			return false
		}
	}
	return true
}

// peekChar returns the current character without advancing the input.
func (l *Lexer) peekChar() rune {
	return l.r
}

// peekCharN returns the nth character without advancing the input.
// peekCharN(0) is the same as peekChar().
func (l *Lexer) peekCharN(numberOfChars int) rune {
	if numberOfChars < 0 {
		panic("assert(numberOfChars >= 0)")
	}
	return l.src.At(l.pos + numberOfChars).Rune
}

// setAnchor marks the start of the current token.
func (l *Lexer) setAnchor() {
	l.anchor = l.pos
}

// advance moves to the next scalar.
// On end of input, it sets r == EOF and pos == length.
func (l *Lexer) advance() {
	if l.pos < l.length {
		l.pos++
	}
	l.r = l.src.At(l.pos).Rune
}

func (l *Lexer) iseof() bool {
	return l.r == EOF
}

// span returns the range from the anchor to the current scalar.
func (l *Lexer) span() Span {
	start, end := l.src.At(l.anchor), l.src.At(l.pos)
	return Span{Start: start.Offset, End: end.Offset, Line: start.Line, Column: start.Column}
}

func (l *Lexer) token(kind Kind, text string) *Token {
	span := l.span()
	return &Token{
		Position: Position{
			Line:   span.Line,
			Column: span.Column,
			Start:  span.Start,
		},
		End:  span.End,
		Kind: kind,
		Text: text,
	}
}

// report records a recoverable error as a diagnostic.
func (l *Lexer) report(err error, span Span) {
	l.diagnostics = append(l.diagnostics, newDiagnostic(err, span))
	l.error(span, "%v", err)
}

// fail records a fatal error. It is returned by every later call to Scan.
func (l *Lexer) fail(err error) error {
	l.fatal = err
	var span Span
	var le *LexError
	if errors.As(err, &le) {
		span = le.Span
	}
	l.diagnostics = append(l.diagnostics, newDiagnostic(err, span))
	l.error(span, "fatal: %v", err)
	return err
}

func (l *Lexer) debug(format string, args ...any) {
	if l.logger == nil {
		return
	}
	at := l.src.At(l.anchor)
	l.logger.Log(l.ctx, slog.LevelDebug, fmt.Sprintf(format, args...),
		"file", l.name, "line", at.Line, "col", at.Column)
}

func (l *Lexer) error(span Span, format string, args ...any) {
	l.errorCount++
	if l.logger == nil {
		return
	}
	l.logger.Log(l.ctx, slog.LevelError, fmt.Sprintf(format, args...),
		"file", l.name, "line", span.Line, "col", span.Column)
}

// seteof sets the canonical EndOfInput token.
func (l *Lexer) seteof() {
	l.pos, l.r = l.length, EOF
	l.setAnchor()
	if l.endToken == nil {
		l.endToken = l.token(EndOfInput, "")
		l.debug("end of input: %d tokens, %d errors", l.tokenCount, l.errorCount)
	}
}

// Result is the outcome of tokenizing one source unit.
type Result struct {
	Name        string
	Source      *Source // nil when the input was not valid UTF-8
	Tokens      []*Token
	Diagnostics []Diagnostic
	Literals    *LiteralTable
	Fatal       error
}

// Tokenize scans input to the end or to the first fatal error.
//
// When scanning stops on a fatal error, the returned Result holds the tokens
// scanned before it and the error is returned as well. An error from an
// Option is returned with a nil Result.
func Tokenize(ctx context.Context, name string, input []byte, options ...Option) (*Result, error) {
	l, err := NewLexer(ctx, name, input, options...)
	if err != nil {
		var ee *EncodingError
		if !errors.As(err, &ee) {
			return nil, err
		}
		span := Span{Start: ee.Offset, End: ee.Offset + 1}
		return &Result{
			Name:        name,
			Diagnostics: []Diagnostic{newDiagnostic(err, span)},
			Literals:    newLiteralTable(),
			Fatal:       err,
		}, err
	}

	result := &Result{Name: l.name, Source: l.src, Literals: l.literals}
	for {
		tok, err := l.Scan()
		if err != nil {
			result.Fatal = err
			break
		}
		result.Tokens = append(result.Tokens, tok)
		if tok.Is(EndOfInput) {
			break
		}
	}
	result.Diagnostics = l.Diagnostics()

	return result, result.Fatal
}
