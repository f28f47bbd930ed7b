// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package asnlex_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mdhender/asnlex"
)

func tokenize(t *testing.T, input string, options ...asnlex.Option) *asnlex.Result {
	t.Helper()
	res, err := asnlex.Tokenize(context.Background(), "test.asn", []byte(input), options...)
	if err != nil {
		t.Fatalf("tokenize %q: %v", input, err)
	}
	return res
}

func kindsOf(toks []*asnlex.Token) []asnlex.Kind {
	var kinds []asnlex.Kind
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	return kinds
}

func codesOf(diags []asnlex.Diagnostic) []string {
	var codes []string
	for _, d := range diags {
		codes = append(codes, d.Code)
	}
	return codes
}

func TestTokenize_ModuleHeader(t *testing.T) {
	res := tokenize(t, "Foo DEFINITIONS ::= BEGIN x INTEGER ::= 1 END")

	want := []asnlex.Kind{
		asnlex.Ident, asnlex.Keyword, asnlex.ASSIGNMENT, asnlex.Keyword,
		asnlex.Ident, asnlex.Keyword, asnlex.ASSIGNMENT, asnlex.Number,
		asnlex.Keyword, asnlex.EndOfInput,
	}
	if diff := cmp.Diff(want, kindsOf(res.Tokens)); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
	if len(res.Diagnostics) != 0 {
		t.Fatalf("diagnostics = %v, want none", res.Diagnostics)
	}

	foo, ok := res.Tokens[0].Identifier()
	if !ok {
		t.Fatalf("Identifier() ok = false, want true")
	}
	if got, want := foo.Case, asnlex.UpperLead; got != want {
		t.Errorf("Foo.Case = %v, want %v", got, want)
	}
	if got, want := res.Tokens[4].Case, asnlex.LowerLead; got != want {
		t.Errorf("x.Case = %v, want %v", got, want)
	}
}

func TestTokenize_KeywordsAreCaseSensitive(t *testing.T) {
	res := tokenize(t, "begin BEGIN Begin")
	want := []asnlex.Kind{asnlex.Ident, asnlex.Keyword, asnlex.Ident, asnlex.EndOfInput}
	if diff := cmp.Diff(want, kindsOf(res.Tokens)); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenize_HyphenEquivalence(t *testing.T) {
	for _, input := range []string{"foo-bar", "foo\u2010bar", "foo\u2011bar"} {
		res := tokenize(t, input)
		if got, want := len(res.Tokens), 2; got != want {
			t.Fatalf("%q: got %d tokens, want %d", input, got, want)
		}
		tok := res.Tokens[0]
		if tok.IsNot(asnlex.Ident) {
			t.Fatalf("%q: kind = %v, want Identifier", input, tok.Kind)
		}
		if got, want := tok.Text, "foo-bar"; got != want {
			t.Errorf("%q: text = %q, want %q", input, got, want)
		}
		if got, want := tok.End, len(input); got != want {
			t.Errorf("%q: end = %d, want %d", input, got, want)
		}
	}
}

func TestTokenize_Normalization(t *testing.T) {
	// e + combining acute is stored as U+00E9
	res := tokenize(t, "cafe\u0301 caf\u00e9")
	if got, want := res.Tokens[0].Text, "caf\u00e9"; got != want {
		t.Fatalf("text = %q, want %q", got, want)
	}
	if res.Tokens[0].Text != res.Tokens[1].Text {
		t.Errorf("canonical forms differ: %q and %q", res.Tokens[0].Text, res.Tokens[1].Text)
	}
}

func TestTokenize_UnicodeIdentifiers(t *testing.T) {
	res := tokenize(t, "Überprüfung αβγ 名前")
	want := []asnlex.Kind{asnlex.Ident, asnlex.Ident, asnlex.Ident, asnlex.EndOfInput}
	if diff := cmp.Diff(want, kindsOf(res.Tokens)); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
	if got, want := res.Tokens[0].Case, asnlex.UpperLead; got != want {
		t.Errorf("case = %v, want %v", got, want)
	}
	if got, want := res.Tokens[2].Case, asnlex.LowerLead; got != want {
		t.Errorf("uncased case = %v, want %v", got, want)
	}
}

func TestTokenize_ASCIIIdentifiers(t *testing.T) {
	res := tokenize(t, "caf\u00e9", asnlex.WithASCIIIdentifiers(true))
	if got, want := kindsOf(res.Tokens), []asnlex.Kind{asnlex.UNKNOWN, asnlex.EndOfInput}; !cmp.Equal(got, want) {
		t.Fatalf("kinds = %v, want %v", got, want)
	}
	if diff := cmp.Diff([]string{asnlex.ErrCodeInvalidIdentifier}, codesOf(res.Diagnostics)); diff != "" {
		t.Fatalf("codes mismatch (-want +got):\n%s", diff)
	}
	if got, want := res.Diagnostics[0].Span.Start, 3; got != want {
		t.Errorf("diagnostic start = %d, want %d", got, want)
	}
}

func TestTokenize_InvalidIdentifierIsRecoverable(t *testing.T) {
	res := tokenize(t, "foo- bar")
	want := []asnlex.Kind{asnlex.UNKNOWN, asnlex.Ident, asnlex.EndOfInput}
	if diff := cmp.Diff(want, kindsOf(res.Tokens)); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
	if got, want := res.Tokens[0].Text, "foo-"; got != want {
		t.Errorf("text = %q, want %q", got, want)
	}
	if len(res.Diagnostics) != 1 {
		t.Fatalf("got %d diagnostics, want 1", len(res.Diagnostics))
	}
	d := res.Diagnostics[0]
	if d.Code != asnlex.ErrCodeInvalidIdentifier || d.Fatal {
		t.Errorf("diagnostic = %+v, want recoverable %s", d, asnlex.ErrCodeInvalidIdentifier)
	}
	if got, want := d.Span.Start, 3; got != want {
		t.Errorf("diagnostic start = %d, want %d", got, want)
	}
}

func TestTokenize_LeadingByteOrderMark(t *testing.T) {
	res := tokenize(t, "\uFEFFFoo")
	if !res.Source.HasBOM() {
		t.Fatalf("HasBOM = false, want true")
	}
	tok := res.Tokens[0]
	if tok.IsNot(asnlex.Ident) || tok.Text != "Foo" {
		t.Fatalf("token = %v %q, want Identifier \"Foo\"", tok.Kind, tok.Text)
	}
	if tok.Start != 0 || tok.Line != 1 || tok.Column != 1 {
		t.Errorf("position = %+v, want offset 0 at 1:1", tok.Position)
	}
}

func TestTokenize_EmbeddedByteOrderMark(t *testing.T) {
	res := tokenize(t, "Foo\uFEFFBar")
	if res.Source.HasBOM() {
		t.Fatalf("HasBOM = true, want false")
	}
	want := []asnlex.Kind{asnlex.UNKNOWN, asnlex.EndOfInput}
	if diff := cmp.Diff(want, kindsOf(res.Tokens)); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
	if len(res.Diagnostics) != 1 {
		t.Fatalf("got %d diagnostics, want 1", len(res.Diagnostics))
	}
	d := res.Diagnostics[0]
	if got, want := d.Code, asnlex.ErrCodeInvalidIdentifier; got != want {
		t.Errorf("code = %q, want %q", got, want)
	}
	if got, want := d.Span.Start, 3; got != want {
		t.Errorf("diagnostic start = %d, want %d", got, want)
	}
	if got, want := d.Span.Column, 4; got != want {
		t.Errorf("diagnostic column = %d, want %d", got, want)
	}
}

func TestTokenize_Comments(t *testing.T) {
	for _, tc := range []struct {
		name  string
		input string
	}{
		{"line", "a -- comment\nb"},
		{"line closed by dashes", "a -- comment -- b"},
		{"line at end of input", "a b -- trailing"},
		{"block", "a /* comment */ b"},
		{"nested block", "a /* x /* y */ z */ b"},
		{"block spans lines", "a /*\n * x\n */ b"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			res := tokenize(t, tc.input)
			want := []asnlex.Kind{asnlex.Ident, asnlex.Ident, asnlex.EndOfInput}
			if diff := cmp.Diff(want, kindsOf(res.Tokens)); diff != "" {
				t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTokenize_UnterminatedComment(t *testing.T) {
	for _, tc := range []struct {
		input  string
		tokens int
	}{
		{"/* never closed", 0},
		{"Foo ::= /* never closed", 2},
		{"a /* outer /* inner */ still open", 1},
	} {
		res, err := asnlex.Tokenize(context.Background(), "test.asn", []byte(tc.input))
		if !errors.Is(err, asnlex.ErrUnterminatedComment) {
			t.Fatalf("%q: err = %v, want %v", tc.input, err, asnlex.ErrUnterminatedComment)
		}
		if got := len(res.Tokens); got != tc.tokens {
			t.Errorf("%q: got %d tokens, want %d", tc.input, got, tc.tokens)
		}
		if !asnlex.IsFatal(res.Fatal) {
			t.Errorf("%q: IsFatal = false, want true", tc.input)
		}
		last := res.Diagnostics[len(res.Diagnostics)-1]
		if !last.Fatal || last.Code != asnlex.ErrCodeUnterminatedComment {
			t.Errorf("%q: last diagnostic = %+v", tc.input, last)
		}
	}
}

func TestScan_FatalErrorIsSticky(t *testing.T) {
	l, err := asnlex.NewLexer(context.Background(), "test.asn", []byte("a /* open"))
	if err != nil {
		t.Fatalf("new lexer: %v", err)
	}
	tok, err := l.Scan()
	if err != nil || tok.IsNot(asnlex.Ident) {
		t.Fatalf("first scan = %v, %v; want Identifier", tok, err)
	}
	for i := 0; i < 3; i++ {
		tok, err = l.Scan()
		if tok != nil {
			t.Fatalf("scan %d: got token %v after fatal error", i, tok.Kind)
		}
		var le *asnlex.LexError
		if !errors.As(err, &le) {
			t.Fatalf("scan %d: err = %v, want *LexError", i, err)
		}
		if got, want := le.Span.Start, 2; got != want {
			t.Errorf("scan %d: span start = %d, want %d", i, got, want)
		}
	}
}

func TestScan_EndOfInputRepeats(t *testing.T) {
	l, err := asnlex.NewLexer(context.Background(), "test.asn", []byte("a  "))
	if err != nil {
		t.Fatalf("new lexer: %v", err)
	}
	if _, err := l.Scan(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	first, err := l.Scan()
	if err != nil || first.IsNot(asnlex.EndOfInput) {
		t.Fatalf("scan = %v, %v; want EndOfInput", first, err)
	}
	second, _ := l.Scan()
	if first != second {
		t.Errorf("end of input token changed")
	}
	if got, want := first.Start, 3; got != want {
		t.Errorf("end offset = %d, want %d", got, want)
	}
}

func TestTokenize_AmbiguousLiterals(t *testing.T) {
	input := `"/a /*comment" "*//b"`
	res := tokenize(t, input)

	want := []asnlex.Kind{asnlex.CharacterOrOidIriLiteral, asnlex.CharacterOrOidIriLiteral, asnlex.EndOfInput}
	if diff := cmp.Diff(want, kindsOf(res.Tokens)); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
	if got, want := res.Tokens[0].Text, `"/a /*comment"`; got != want {
		t.Errorf("first text = %s, want %s", got, want)
	}
	if got, want := res.Tokens[1].Text, `"*//b"`; got != want {
		t.Errorf("second text = %s, want %s", got, want)
	}
	if res.Tokens[0].Handle == res.Tokens[1].Handle {
		t.Errorf("literals share handle %d", res.Tokens[0].Handle)
	}
	if got, want := res.Literals.Len(), 2; got != want {
		t.Errorf("literal count = %d, want %d", got, want)
	}
}

func TestTokenize_QuotedEscapes(t *testing.T) {
	res := tokenize(t, `x "say ""hi""" y`)
	want := []asnlex.Kind{asnlex.Ident, asnlex.CharacterOrOidIriLiteral, asnlex.Ident, asnlex.EndOfInput}
	if diff := cmp.Diff(want, kindsOf(res.Tokens)); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
	if got, want := res.Tokens[1].Text, `"say ""hi"""`; got != want {
		t.Errorf("text = %s, want %s", got, want)
	}
}

func TestTokenize_UnterminatedString(t *testing.T) {
	for _, input := range []string{`"abc`, `"abc""`, `'0101`} {
		res, err := asnlex.Tokenize(context.Background(), "test.asn", []byte(input))
		if !errors.Is(err, asnlex.ErrUnterminatedString) {
			t.Fatalf("%q: err = %v, want %v", input, err, asnlex.ErrUnterminatedString)
		}
		if len(res.Tokens) != 0 {
			t.Errorf("%q: got %d tokens, want 0", input, len(res.Tokens))
		}
	}
}

func TestTokenize_Numbers(t *testing.T) {
	res := tokenize(t, "0 12 3.14 1e10 2E-3 1..10")
	want := []asnlex.Kind{
		asnlex.Number, asnlex.Number, asnlex.RealNumber, asnlex.RealNumber, asnlex.RealNumber,
		asnlex.Number, asnlex.DOTDOT, asnlex.Number, asnlex.EndOfInput,
	}
	if diff := cmp.Diff(want, kindsOf(res.Tokens)); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
	if got, want := res.Tokens[2].Text, "3.14"; got != want {
		t.Errorf("real text = %q, want %q", got, want)
	}
}

func TestTokenize_MalformedNumber(t *testing.T) {
	res := tokenize(t, "007 0.5")
	want := []asnlex.Kind{asnlex.UNKNOWN, asnlex.RealNumber, asnlex.EndOfInput}
	if diff := cmp.Diff(want, kindsOf(res.Tokens)); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{asnlex.ErrCodeMalformedNumber}, codesOf(res.Diagnostics)); diff != "" {
		t.Fatalf("codes mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenize_BinaryAndHexStrings(t *testing.T) {
	res := tokenize(t, "'0101'B '0F A9'H '012'B 'AB'")
	want := []asnlex.Kind{asnlex.BString, asnlex.HString, asnlex.UNKNOWN, asnlex.UNKNOWN, asnlex.EndOfInput}
	if diff := cmp.Diff(want, kindsOf(res.Tokens)); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
	wantCodes := []string{asnlex.ErrCodeMalformedString, asnlex.ErrCodeMalformedString}
	if diff := cmp.Diff(wantCodes, codesOf(res.Diagnostics)); diff != "" {
		t.Fatalf("codes mismatch (-want +got):\n%s", diff)
	}
	if got, want := res.Tokens[1].Text, "'0F A9'H"; got != want {
		t.Errorf("hstring text = %q, want %q", got, want)
	}
}

func TestTokenize_Punctuation(t *testing.T) {
	res := tokenize(t, "::= ... .. . [[ ]] </ /> { } ( ) [ ] < > , ; : = @ | ! ^ & * / -")
	want := []asnlex.Kind{
		asnlex.ASSIGNMENT, asnlex.ELLIPSIS, asnlex.DOTDOT, asnlex.DOT,
		asnlex.LEFTVERSION, asnlex.RIGHTVERSION, asnlex.XMLENDTAG, asnlex.XMLSELFCLOSE,
		asnlex.LEFTBRACE, asnlex.RIGHTBRACE, asnlex.LEFTPAREN, asnlex.RIGHTPAREN,
		asnlex.LEFTBRACKET, asnlex.RIGHTBRACKET, asnlex.LESS, asnlex.GREATER,
		asnlex.COMMA, asnlex.SEMICOLON, asnlex.COLON, asnlex.EQUALS,
		asnlex.AT, asnlex.PIPE, asnlex.EXCLAMATION, asnlex.CARET,
		asnlex.AMPERSAND, asnlex.ASTERISK, asnlex.SLASH, asnlex.DASH,
		asnlex.EndOfInput,
	}
	if diff := cmp.Diff(want, kindsOf(res.Tokens)); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
	for _, tok := range res.Tokens[:len(res.Tokens)-1] {
		if !tok.Kind.IsPunctuation() {
			t.Errorf("%v: IsPunctuation = false", tok.Kind)
		}
	}
}

func TestTokenize_MaximalMunch(t *testing.T) {
	res := tokenize(t, "a::=b{c}[[d]]")
	want := []asnlex.Kind{
		asnlex.Ident, asnlex.ASSIGNMENT, asnlex.Ident, asnlex.LEFTBRACE, asnlex.Ident,
		asnlex.RIGHTBRACE, asnlex.LEFTVERSION, asnlex.Ident, asnlex.RIGHTVERSION, asnlex.EndOfInput,
	}
	if diff := cmp.Diff(want, kindsOf(res.Tokens)); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenize_UnknownPunctuation(t *testing.T) {
	res := tokenize(t, "a #+ b")
	want := []asnlex.Kind{asnlex.Ident, asnlex.UNKNOWN, asnlex.Ident, asnlex.EndOfInput}
	if diff := cmp.Diff(want, kindsOf(res.Tokens)); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
	if got, want := res.Tokens[1].Text, "#+"; got != want {
		t.Errorf("text = %q, want %q", got, want)
	}
	if diff := cmp.Diff([]string{asnlex.ErrCodeUnknownPunctuation}, codesOf(res.Diagnostics)); diff != "" {
		t.Fatalf("codes mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenize_UnexpectedCharacter(t *testing.T) {
	for _, tc := range []struct {
		input string
		r     rune
	}{
		{"a \u0001", 0x01},
		{"a \u2010b", 0x2010},
		{"a ©", 0xa9},
	} {
		res, err := asnlex.Tokenize(context.Background(), "test.asn", []byte(tc.input))
		var le *asnlex.LexError
		if !errors.As(err, &le) || !errors.Is(err, asnlex.ErrUnexpectedCharacter) {
			t.Fatalf("%q: err = %v, want unexpected character", tc.input, err)
		}
		if le.Rune != tc.r {
			t.Errorf("%q: rune = %U, want %U", tc.input, le.Rune, tc.r)
		}
		if got, want := kindsOf(res.Tokens), []asnlex.Kind{asnlex.Ident}; !cmp.Equal(got, want) {
			t.Errorf("%q: kinds = %v, want %v", tc.input, got, want)
		}
	}
}

func TestTokenize_Positions(t *testing.T) {
	res := tokenize(t, "a\r\nbb\rc\n\td")
	type pos struct{ Line, Column, Start, End int }
	var got []pos
	for _, tok := range res.Tokens {
		got = append(got, pos{tok.Line, tok.Column, tok.Start, tok.End})
	}
	want := []pos{
		{1, 1, 0, 1},
		{2, 1, 3, 5},
		{3, 1, 6, 7},
		{4, 2, 9, 10},
		{4, 3, 10, 10},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("positions mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenize_InvalidEncoding(t *testing.T) {
	res, err := asnlex.Tokenize(context.Background(), "test.asn", []byte{'a', ' ', 0xff})
	var ee *asnlex.EncodingError
	if !errors.As(err, &ee) {
		t.Fatalf("err = %v, want *EncodingError", err)
	}
	if got, want := ee.Offset, 2; got != want {
		t.Errorf("offset = %d, want %d", got, want)
	}
	if res.Source != nil || len(res.Tokens) != 0 {
		t.Errorf("result = %+v, want no source and no tokens", res)
	}
	if got, want := codesOf(res.Diagnostics), []string{asnlex.ErrCodeEncoding}; !cmp.Equal(got, want) {
		t.Errorf("codes = %v, want %v", got, want)
	}
}

func TestTokenize_InvalidOption(t *testing.T) {
	res, err := asnlex.Tokenize(context.Background(), "test.asn", []byte("a"), asnlex.WithName(""))
	if err == nil || res != nil {
		t.Fatalf("got %v, %v; want option error", res, err)
	}
}

func TestTokenize_LexemeMatchesSource(t *testing.T) {
	input := "Foo ::= { bar-baz 12, \"x\" }"
	res := tokenize(t, input)
	text := res.Source.Text()
	for _, tok := range res.Tokens {
		if tok.Is(asnlex.EndOfInput) {
			continue
		}
		if got := string(tok.Lexeme(text)); got != tok.Text {
			t.Errorf("%v: lexeme = %q, text = %q", tok.Kind, got, tok.Text)
		}
		if got, want := string(tok.Span().Text(text)), string(tok.Lexeme(text)); got != want {
			t.Errorf("%v: span text = %q, want %q", tok.Kind, got, want)
		}
	}
}
