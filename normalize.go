// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package asnlex

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize returns the NFC form of rs with every hyphen code point
// replaced by HyphenMinus. The tokenizer applies it to identifier
// candidates only; literals and punctuation are never normalized.
//
// Normalize is total and idempotent.
func Normalize(rs []rune) []rune {
	out := []rune(norm.NFC.String(string(rs)))
	for i, r := range out {
		if IsHyphen(r) {
			out[i] = HyphenMinus
		}
	}
	return out
}

// Canonical returns the canonical form of an identifier: the text that two
// identifiers must share, byte for byte, to be the same identifier.
func Canonical(s string) string {
	if isASCII(s) {
		return s
	}
	return strings.Map(canonicalHyphen, norm.NFC.String(s))
}

func canonicalHyphen(r rune) rune {
	if IsHyphen(r) {
		return HyphenMinus
	}
	return r
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
