// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package asnlex

import (
	"unicode"

	"golang.org/x/text/unicode/rangetable"
)

const (
	// CR and LF are control characters, respectively coded 0x0D (13 decimal) and 0x0A (10 decimal).
	// A CR immediately followed by LF is a single line break.

	// CR is 0x0D or '\r'
	CR rune = rune(13)

	// LF is 0x0A or '\n'
	LF rune = rune(10)

	// VT is 0x0B, a format effector that counts as a line break
	VT rune = rune(11)

	// FF is 0x0C, a format effector that counts as a line break
	FF rune = rune(12)

	// NBSP is U+00A0 NO-BREAK SPACE, accepted as a space
	NBSP rune = rune(0xA0)

	// BOM is U+FEFF, stripped only when it is the first scalar of the input
	BOM rune = rune(0xFEFF)

	// EOF is a sentinel for end of input
	EOF rune = rune(-1)
)

// Hyphen code points. All of them canonicalize to HyphenMinus inside identifiers.
const (
	HyphenMinus       rune = '-'
	Hyphen            rune = '\u2010'
	NonBreakingHyphen rune = '\u2011'
)

// The stdlib carries the raw properties UAX #31 derives ID_Start and
// ID_Continue from. XID_* differ from ID_* only for the scalars whose NFKC
// form is not itself an identifier; those are listed explicitly.
var (
	idStart = rangetable.Merge(
		unicode.Lu, unicode.Ll, unicode.Lt, unicode.Lm, unicode.Lo,
		unicode.Nl, unicode.Other_ID_Start,
	)
	idContinue = rangetable.Merge(
		idStart,
		unicode.Mn, unicode.Mc, unicode.Nd, unicode.Pc,
		unicode.Other_ID_Continue,
	)

	notXIDStart = rangetable.New(
		0x037A, 0x0E33, 0x0EB3, 0x309B, 0x309C,
		0xFC5E, 0xFC5F, 0xFC60, 0xFC61, 0xFC62, 0xFC63,
		0xFDFA, 0xFDFB,
		0xFE70, 0xFE72, 0xFE74, 0xFE76, 0xFE78, 0xFE7A, 0xFE7C, 0xFE7E,
		0xFF9E, 0xFF9F,
	)
	notXIDContinue = rangetable.New(
		0x037A, 0x309B, 0x309C,
		0xFC5E, 0xFC5F, 0xFC60, 0xFC61, 0xFC62, 0xFC63,
		0xFDFA, 0xFDFB,
		0xFE70, 0xFE72, 0xFE74, 0xFE76, 0xFE78, 0xFE7A, 0xFE7C, 0xFE7E,
	)
)

func init() {
	for _, ch := range []byte{'{', '}', '<', '>', ',', '.', '(', ')', '[', ']', '-', ':', '=', ';', '@', '|', '!', '^', '&', '*', '/'} {
		punctuation[ch] = true
	}
	for _, ch := range []byte{'#', '%', '+', '?', '\\', '`', '~'} {
		unknownPunctuation[ch] = true
	}
}

var (
	punctuation        = [128]bool{}
	unknownPunctuation = [128]bool{}
)

// IsXIDStart reports whether r has the Unicode XID_Start property.
func IsXIDStart(r rune) bool {
	if r < 0 {
		return false
	}
	if r < 0x80 {
		return isASCIILetter(r)
	}
	if !unicode.Is(idStart, r) || unicode.Is(notXIDStart, r) {
		return false
	}
	return !unicode.In(r, unicode.Pattern_Syntax, unicode.Pattern_White_Space)
}

// IsXIDContinue reports whether r has the Unicode XID_Continue property.
func IsXIDContinue(r rune) bool {
	if r < 0 {
		return false
	}
	if r < 0x80 {
		return isASCIILetter(r) || isDigit(r) || r == '_'
	}
	if !unicode.Is(idContinue, r) || unicode.Is(notXIDContinue, r) {
		return false
	}
	return !unicode.In(r, unicode.Pattern_Syntax, unicode.Pattern_White_Space)
}

// IsHyphen reports whether r is one of the hyphen code points.
func IsHyphen(r rune) bool {
	return r == HyphenMinus || r == Hyphen || r == NonBreakingHyphen
}

// IsIdentifierStart reports whether r may begin an identifier.
func IsIdentifierStart(r rune) bool {
	return r == '$' || r == '_' || IsXIDStart(r)
}

// IsIdentifierContinue reports whether r may follow the first scalar of an identifier.
func IsIdentifierContinue(r rune) bool {
	return r == '$' || IsHyphen(r) || IsXIDContinue(r)
}

func isASCIILetter(r rune) bool {
	return ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z')
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}

func isHexDigit(r rune) bool {
	return isDigit(r) || ('A' <= r && r <= 'F')
}

// isLineBreak reports the format effectors that end a line. HT is not one of them.
func isLineBreak(r rune) bool {
	return r == LF || r == VT || r == FF || r == CR
}

func isspace(r rune) bool {
	return r == ' ' || r == '\t' || r == NBSP
}

func iswhitespace(r rune) bool {
	return isspace(r) || isLineBreak(r)
}

func ispunctuation(r rune) bool {
	return 0 <= r && r < 0x80 && punctuation[r]
}

func isunknownpunctuation(r rune) bool {
	return 0 <= r && r < 0x80 && unknownPunctuation[r]
}

// isboundary reports whether r ends an identifier candidate.
// Hyphens are handled by the caller because a single one continues a candidate.
func isboundary(r rune) bool {
	if r == EOF || iswhitespace(r) {
		return true
	}
	if r < 0x80 {
		return !(isASCIILetter(r) || isDigit(r) || r == '$' || r == '_' || r == '-')
	}
	return false
}
