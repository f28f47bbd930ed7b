// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package asnlex

import (
	"unicode/utf8"
)

// Scalar is a single Unicode scalar value from a source unit along with
// where it was found.
type Scalar struct {
	Rune   rune
	Offset int // byte offset into Source.Text()
	Line   int // 1-based
	Column int // 1-based, counted in scalars
}

// Source is a decoded source unit.
//
// The text is validated as UTF-8 up front. A byte order mark that is the
// very first scalar is removed and every offset is relative to the text
// that follows it. A U+FEFF anywhere else is kept as an ordinary scalar.
type Source struct {
	text    []byte
	scalars []Scalar
	hasBOM  bool

	// position one past the last scalar, used for end-of-input tokens
	endLine   int
	endColumn int
}

// ReadSource decodes input into a Source.
// It returns an *EncodingError if input is not valid UTF-8.
func ReadSource(input []byte) (*Source, error) {
	s := &Source{text: input}
	if r, w := utf8.DecodeRune(input); r == BOM && w == 3 {
		s.text, s.hasBOM = input[w:], true
	}

	s.scalars = make([]Scalar, 0, len(s.text))
	line, column := 1, 1
	for pos := 0; pos < len(s.text); {
		r, w := rune(s.text[pos]), 1
		if r >= utf8.RuneSelf {
			r, w = utf8.DecodeRune(s.text[pos:])
			if r == utf8.RuneError && w == 1 {
				return nil, &EncodingError{Offset: pos, Byte: s.text[pos]}
			}
		}
		s.scalars = append(s.scalars, Scalar{Rune: r, Offset: pos, Line: line, Column: column})
		pos += w

		// CR LF is one line break, so the CR only moves the column
		if r == CR && pos < len(s.text) && s.text[pos] == '\n' {
			column++
		} else if isLineBreak(r) {
			line, column = line+1, 1
		} else {
			column++
		}
	}
	s.endLine, s.endColumn = line, column

	return s, nil
}

// HasBOM reports whether a leading byte order mark was stripped.
func (s *Source) HasBOM() bool {
	return s.hasBOM
}

// Len returns the number of scalars.
func (s *Source) Len() int {
	return len(s.scalars)
}

// At returns the i-th scalar. For i == Len() it returns an EOF scalar
// positioned just past the end of the text.
func (s *Source) At(i int) Scalar {
	if i >= len(s.scalars) {
		return Scalar{Rune: EOF, Offset: len(s.text), Line: s.endLine, Column: s.endColumn}
	}
	return s.scalars[i]
}

// Scalars returns the scalar sequence. Callers must not modify it.
func (s *Source) Scalars() []Scalar {
	return s.scalars
}

// Text returns the source text after any stripped byte order mark.
func (s *Source) Text() []byte {
	return s.text
}

// Slice returns a copy of text[start:end] as a string.
func (s *Source) Slice(start, end int) string {
	return string(s.text[start:end])
}
