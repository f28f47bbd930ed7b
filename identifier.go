// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package asnlex

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// CaseCategory is derived from the first scalar of an identifier.
type CaseCategory int

const (
	// LowerLead is everything that does not start with an uppercase letter,
	// including identifiers that start with '$', '_' or an uncased letter.
	LowerLead CaseCategory = iota
	// UpperLead identifiers start with a General_Category=Lu scalar.
	UpperLead
)

func (c CaseCategory) String() string {
	if c == UpperLead {
		return "UpperLead"
	}
	return "LowerLead"
}

// Identifier is a classified identifier. Text is the canonical form.
type Identifier struct {
	Text string
	Case CaseCategory
}

// IsAllUppercase reports whether the identifier contains no lowercase letter.
func (id Identifier) IsAllUppercase() bool {
	return IsAllUppercase(id.Text)
}

// Equal reports whether two identifiers name the same thing.
func (id Identifier) Equal(other Identifier) bool {
	return id.Text == other.Text
}

// CaseOf returns the case category of s.
func CaseOf(s string) CaseCategory {
	r, _ := utf8.DecodeRuneInString(s)
	if unicode.Is(unicode.Lu, r) {
		return UpperLead
	}
	return LowerLead
}

// IsAllUppercase reports whether s has no scalar with General_Category=Ll.
// Digits, hyphens and uncased letters do not count against it.
func IsAllUppercase(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Ll, r) {
			return false
		}
	}
	return true
}

// Candidate is a run of scalars that may be an identifier.
type Candidate struct {
	Scalars []Scalar
}

// CandidateFromString builds a Candidate from s with offsets counted from
// the start of s. It is meant for callers that have text but no Source.
func CandidateFromString(s string) Candidate {
	c := Candidate{Scalars: make([]Scalar, 0, len(s))}
	column := 1
	for offset, r := range s {
		c.Scalars = append(c.Scalars, Scalar{Rune: r, Offset: offset, Line: 1, Column: column})
		column++
	}
	return c
}

func (c Candidate) text() string {
	rs := make([]rune, len(c.Scalars))
	for i, sc := range c.Scalars {
		rs[i] = sc.Rune
	}
	return string(rs)
}

// Profile selects the Start and Continue sets used by the classifier.
type Profile struct {
	// ASCII restricts identifiers to ASCII letters, digits, '$', '_' and '-'.
	ASCII bool
}

var (
	// UnicodeProfile is the default XID based profile.
	UnicodeProfile = Profile{}
	// ASCIIProfile is the strict profile.
	ASCIIProfile = Profile{ASCII: true}
)

func (p Profile) isStart(r rune) bool {
	if p.ASCII && r >= utf8.RuneSelf {
		return false
	}
	return IsIdentifierStart(r)
}

func (p Profile) isContinue(r rune) bool {
	if p.ASCII && r >= utf8.RuneSelf {
		return false
	}
	return IsIdentifierContinue(r)
}

// Classify runs the candidate through the default profile.
func Classify(c Candidate) (Identifier, error) {
	return UnicodeProfile.Classify(c)
}

// ClassifyString classifies s with the default profile.
func ClassifyString(s string) (Identifier, error) {
	return UnicodeProfile.Classify(CandidateFromString(s))
}

// Classify normalizes the candidate and checks, in order:
//  1. the first scalar is in Start
//  2. every other scalar is in Continue
//  3. no two adjacent scalars are hyphens
//  4. the last scalar is not a hyphen
//
// Hyphens are compared after canonicalization, so U+2010 next to '-' is a
// double hyphen. The returned error is an *IdentifierError.
func (p Profile) Classify(c Candidate) (Identifier, error) {
	raw := c.text()
	if len(c.Scalars) == 0 {
		return Identifier{}, &IdentifierError{Text: raw, Reason: "empty identifier"}
	}

	rs := make([]rune, len(c.Scalars))
	for i, sc := range c.Scalars {
		rs[i] = sc.Rune
	}
	norm := Normalize(rs)

	// NFC may merge scalars; when it does, errors point at the candidate start.
	offsetOf := func(i int) int {
		if len(norm) == len(c.Scalars) {
			return c.Scalars[i].Offset
		}
		return c.Scalars[0].Offset
	}
	fail := func(i int, reason string) (Identifier, error) {
		return Identifier{}, &IdentifierError{Offset: offsetOf(i), Text: raw, Reason: reason}
	}

	if !p.isStart(norm[0]) {
		return fail(0, "must start with a letter, '$' or '_'")
	}
	for i := 1; i < len(norm); i++ {
		if !p.isContinue(norm[i]) {
			return fail(i, fmt.Sprintf("character %q (%U) is not allowed in an identifier", norm[i], norm[i]))
		}
	}
	for i := 1; i < len(norm); i++ {
		if norm[i] == HyphenMinus && norm[i-1] == HyphenMinus {
			return fail(i, "must not contain two adjacent hyphens")
		}
	}
	if last := len(norm) - 1; norm[last] == HyphenMinus {
		return fail(last, "must not end with a hyphen")
	}

	text := string(norm)
	return Identifier{Text: text, Case: CaseOf(text)}, nil
}
