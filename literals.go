// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package asnlex

import (
	"strings"
	"sync/atomic"

	"github.com/mdhender/asnlex/oidiri"
)

// Handle identifies one ambiguous literal in a LiteralTable.
// The zero Handle is never issued.
type Handle uint32

// Target is the interpretation the semantic layer asks for.
type Target int

const (
	TargetCharacterString Target = iota
	TargetOidIri
	TargetRelativeOidIri
)

func (t Target) String() string {
	switch t {
	case TargetOidIri:
		return "OID-IRI"
	case TargetRelativeOidIri:
		return "RELATIVE-OID-IRI"
	}
	return "CharacterString"
}

// LiteralKind is the interpretation a literal resolved to.
type LiteralKind int

const (
	CharacterStringValue LiteralKind = iota
	OidIriValue
	RelativeOidIriValue
)

func (k LiteralKind) String() string {
	switch k {
	case OidIriValue:
		return "OidIri"
	case RelativeOidIriValue:
		return "RelativeOidIri"
	}
	return "CharacterString"
}

// LiteralValue is the resolved value of an ambiguous literal.
type LiteralValue struct {
	Kind   LiteralKind
	Handle Handle
	Span   Span
	String string     // set for CharacterStringValue
	IRI    oidiri.IRI // set for OidIriValue and RelativeOidIriValue
}

const (
	cellPending uint32 = iota
	cellResolving
	cellResolved
)

// literalCell is written once by Resolve and read by Value afterwards.
type literalCell struct {
	raw   string
	span  Span
	state atomic.Uint32
	value LiteralValue
	err   error
}

// LiteralTable holds the ambiguous literals of one source unit.
//
// The lexer appends to it during the scan. After the scan, each handle may
// be resolved exactly once; resolution of different handles may happen from
// different goroutines.
type LiteralTable struct {
	cells []*literalCell
}

func newLiteralTable() *LiteralTable {
	return &LiteralTable{}
}

func (t *LiteralTable) add(raw string, span Span) Handle {
	t.cells = append(t.cells, &literalCell{raw: raw, span: span})
	return Handle(len(t.cells))
}

func (t *LiteralTable) cell(h Handle) (*literalCell, error) {
	if h == 0 || int(h) > len(t.cells) {
		return nil, &InternalError{Err: ErrUnknownHandle, Handle: h}
	}
	return t.cells[h-1], nil
}

// Len returns the number of literals in the table.
func (t *LiteralTable) Len() int {
	return len(t.cells)
}

// Raw returns the text and span recorded for h.
func (t *LiteralTable) Raw(h Handle) (string, Span, bool) {
	c, err := t.cell(h)
	if err != nil {
		return "", Span{}, false
	}
	return c.raw, c.span, true
}

// Pending returns the handles that have not been resolved.
func (t *LiteralTable) Pending() []Handle {
	var list []Handle
	for i, c := range t.cells {
		if c.state.Load() != cellResolved {
			list = append(list, Handle(i+1))
		}
	}
	return list
}

// Resolve decides what the literal behind h is.
//
// If oidIRI is false the literal is a character string, always; that
// includes the case where the type is not known. If oidIRI is true the
// text must be a valid OID-IRI or a *LiteralError is returned.
//
// raw must be the text recorded for h. A handle can be resolved once;
// the outcome, error included, is final.
func (t *LiteralTable) Resolve(h Handle, raw string, oidIRI bool) (LiteralValue, error) {
	if oidIRI {
		return t.ResolveAs(h, raw, TargetOidIri)
	}
	return t.ResolveAs(h, raw, TargetCharacterString)
}

// ResolveAs is Resolve with an explicit target.
func (t *LiteralTable) ResolveAs(h Handle, raw string, target Target) (LiteralValue, error) {
	c, err := t.cell(h)
	if err != nil {
		return LiteralValue{}, err
	}
	if raw != c.raw {
		return LiteralValue{}, &InternalError{Err: ErrHandleMismatch, Handle: h}
	}
	if !c.state.CompareAndSwap(cellPending, cellResolving) {
		return LiteralValue{}, &InternalError{Err: ErrDoubleResolution, Handle: h}
	}

	c.value, c.err = interpret(h, c.raw, c.span, target)
	c.state.Store(cellResolved)

	return c.value, c.err
}

// ResolveToken resolves the literal carried by tok.
func (t *LiteralTable) ResolveToken(tok *Token, oidIRI bool) (LiteralValue, error) {
	if tok.IsNot(CharacterOrOidIriLiteral) {
		return LiteralValue{}, &InternalError{Err: ErrUnknownHandle}
	}
	return t.Resolve(tok.Handle, tok.Text, oidIRI)
}

// Value returns the outcome of an earlier Resolve.
func (t *LiteralTable) Value(h Handle) (LiteralValue, error) {
	c, err := t.cell(h)
	if err != nil {
		return LiteralValue{}, err
	}
	if c.state.Load() != cellResolved {
		return LiteralValue{}, &InternalError{Err: ErrUnresolved, Handle: h}
	}
	return c.value, c.err
}

func interpret(h Handle, raw string, span Span, target Target) (LiteralValue, error) {
	contents := Contents(raw)
	switch target {
	case TargetOidIri, TargetRelativeOidIri:
		parse, kind := oidiri.Parse, OidIriValue
		if target == TargetRelativeOidIri {
			parse, kind = oidiri.ParseRelative, RelativeOidIriValue
		}
		iri, err := parse(contents)
		if err != nil {
			return LiteralValue{}, &LiteralError{Err: ErrInvalidOidIri, Handle: h, Span: span, Cause: err}
		}
		return LiteralValue{Kind: kind, Handle: h, Span: span, IRI: iri}, nil
	}
	return LiteralValue{Kind: CharacterStringValue, Handle: h, Span: span, String: CharacterString(raw)}, nil
}

// Contents strips the enclosing quotes from a quoted literal and replaces
// each doubled quote with a single one.
func Contents(raw string) string {
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		raw = raw[1 : len(raw)-1]
	}
	return strings.ReplaceAll(raw, `""`, `"`)
}

// CharacterString returns the character string value of a quoted literal.
// When the literal spans lines, the line breaks and the spacing on either
// side of them are not part of the value.
func CharacterString(raw string) string {
	s := Contents(raw)
	if strings.IndexFunc(s, isLineBreak) == -1 {
		return s
	}

	rs := []rune(s)
	out := make([]rune, 0, len(rs))
	for i := 0; i < len(rs); i++ {
		if !isLineBreak(rs[i]) {
			out = append(out, rs[i])
			continue
		}
		for len(out) > 0 && isspace(out[len(out)-1]) {
			out = out[:len(out)-1]
		}
		for i+1 < len(rs) && (isspace(rs[i+1]) || isLineBreak(rs[i+1])) {
			i++
		}
	}
	return string(out)
}
