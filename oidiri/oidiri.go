// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package oidiri validates OID-IRI and relative OID-IRI values.
//
// An OID-IRI is a sequence of arcs, each introduced by a solidus:
//
//	"/ISO/Member-Body/US/113549"
//
// A relative OID-IRI omits the leading solidus. Every arc is either an
// integer label (0, or digits with no leading zero) or a non-integer label
// built from unreserved characters.
package oidiri

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Arc is a single arc label.
type Arc struct {
	Label   string
	Integer bool // label is an integerUnicodeLabel
}

// IRI is a validated OID-IRI.
type IRI struct {
	Arcs     []Arc
	Relative bool
}

// String returns the OID-IRI in its written form.
func (iri IRI) String() string {
	var sb strings.Builder
	for i, arc := range iri.Arcs {
		if i > 0 || !iri.Relative {
			sb.WriteByte('/')
		}
		sb.WriteString(arc.Label)
	}
	return sb.String()
}

// SyntaxError describes why a value is not an OID-IRI.
type SyntaxError struct {
	Offset int // byte offset into the validated text
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("offset %d: %s", e.Offset, e.Reason)
}

// Parse validates an absolute OID-IRI.
func Parse(s string) (IRI, error) {
	if !strings.HasPrefix(s, "/") {
		return IRI{}, &SyntaxError{Offset: 0, Reason: "must start with '/'"}
	}
	arcs, err := parseArcs(s[1:], 1)
	if err != nil {
		return IRI{}, err
	}
	return IRI{Arcs: arcs}, nil
}

// ParseRelative validates a relative OID-IRI.
func ParseRelative(s string) (IRI, error) {
	if strings.HasPrefix(s, "/") {
		return IRI{}, &SyntaxError{Offset: 0, Reason: "relative OID-IRI must not start with '/'"}
	}
	arcs, err := parseArcs(s, 0)
	if err != nil {
		return IRI{}, err
	}
	return IRI{Arcs: arcs, Relative: true}, nil
}

// parseArcs splits s on '/' and validates each label.
// base is the offset of s in the caller's text.
func parseArcs(s string, base int) ([]Arc, error) {
	var arcs []Arc
	for offset := 0; ; {
		end := strings.IndexByte(s[offset:], '/')
		if end == -1 {
			end = len(s)
		} else {
			end += offset
		}
		arc, err := parseArc(s[offset:end], base+offset)
		if err != nil {
			return nil, err
		}
		arcs = append(arcs, arc)
		if end == len(s) {
			return arcs, nil
		}
		offset = end + 1
	}
}

func parseArc(label string, offset int) (Arc, error) {
	if label == "" {
		return Arc{}, &SyntaxError{Offset: offset, Reason: "empty arc"}
	}

	allDigits := true
	for i := 0; i < len(label); {
		r, w := utf8.DecodeRuneInString(label[i:])
		if !isUnreserved(r) {
			return Arc{}, &SyntaxError{Offset: offset + i, Reason: fmt.Sprintf("character %q is not allowed in an arc", r)}
		}
		if r < '0' || r > '9' {
			allDigits = false
		}
		i += w
	}

	if allDigits {
		if len(label) > 1 && label[0] == '0' {
			return Arc{}, &SyntaxError{Offset: offset, Reason: "integer arc has a leading zero"}
		}
		return Arc{Label: label, Integer: true}, nil
	}
	if label[0] == '-' {
		return Arc{}, &SyntaxError{Offset: offset, Reason: "arc must not start with '-'"}
	}
	if label[len(label)-1] == '-' {
		return Arc{}, &SyntaxError{Offset: offset + len(label) - 1, Reason: "arc must not end with '-'"}
	}
	return Arc{Label: label}, nil
}

// isUnreserved reports the characters allowed in a non-integer label:
// ASCII letters, digits, "-._~" and the non-ASCII ucschar ranges.
func isUnreserved(r rune) bool {
	switch {
	case 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z', '0' <= r && r <= '9':
		return true
	case r == '-' || r == '.' || r == '_' || r == '~':
		return true
	case r < 0xA0:
		return false
	}
	return isUCSChar(r)
}

var ucschar = [][2]rune{
	{0xA0, 0xD7FF}, {0xF900, 0xFDCF}, {0xFDF0, 0xFFEF},
	{0x10000, 0x1FFFD}, {0x20000, 0x2FFFD}, {0x30000, 0x3FFFD},
	{0x40000, 0x4FFFD}, {0x50000, 0x5FFFD}, {0x60000, 0x6FFFD},
	{0x70000, 0x7FFFD}, {0x80000, 0x8FFFD}, {0x90000, 0x9FFFD},
	{0xA0000, 0xAFFFD}, {0xB0000, 0xBFFFD}, {0xC0000, 0xCFFFD},
	{0xD0000, 0xDFFFD}, {0xE1000, 0xEFFFD},
}

func isUCSChar(r rune) bool {
	for _, rng := range ucschar {
		if rng[0] <= r && r <= rng[1] {
			return true
		}
	}
	return false
}
