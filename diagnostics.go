// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package asnlex

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Diagnostic represents a lexical error or warning
// with a span in the original source.
type Diagnostic struct {
	Severity slog.Level // Error, Warning, Info
	Code     string     // "INVALID_IDENTIFIER", see ErrorCode
	Message  string     // "invalid identifier \"foo-\": must not end with a hyphen"
	Span     Span       // where in the file it occurred
	Notes    []string   // optional additional help messages
	Fatal    bool       // scanning stopped here
}

func newDiagnostic(err error, span Span) Diagnostic {
	d := Diagnostic{
		Severity: slog.LevelError,
		Code:     ErrorCode(err),
		Message:  diagnosticMessage(err),
		Span:     span,
		Fatal:    IsFatal(err),
	}
	switch d.Code {
	case ErrCodeInvalidIdentifier:
		d.Notes = append(d.Notes, "identifiers start with a letter, '$' or '_' and may not end with or double a hyphen")
	case ErrCodeMalformedNumber:
		d.Notes = append(d.Notes, "numbers other than 0 may not start with 0")
	case ErrCodeUnterminatedComment:
		d.Notes = append(d.Notes, "block comments nest; every /* needs a matching */")
	}
	return d
}

// diagnosticMessage drops the line:column prefix that LexError and
// LiteralError carry, since the diagnostic has its own span.
func diagnosticMessage(err error) string {
	switch e := err.(type) {
	case *LexError:
		msg := e.Err.Error()
		if e.Rune != 0 {
			msg = fmt.Sprintf("%s %U", msg, e.Rune)
		} else if e.Text != "" {
			msg = fmt.Sprintf("%s %q", msg, e.Text)
		}
		return msg
	case *LiteralError:
		if e.Cause != nil {
			return fmt.Sprintf("%v: %v", e.Err, e.Cause)
		}
		return e.Err.Error()
	}
	return err.Error()
}

// NewLiteralDiagnostic turns a failed resolution into a diagnostic
// attributed to the literal's span.
func NewLiteralDiagnostic(err error) (Diagnostic, bool) {
	le, ok := err.(*LiteralError)
	if !ok {
		return Diagnostic{}, false
	}
	return newDiagnostic(le, le.Span), true
}

// PrintDiagnostic writes the diagnostic with the first line of its span and
// a caret under the starting column.
func PrintDiagnostic(w io.Writer, diag Diagnostic, filename string, src []byte) {
	// Header: file:line:column: error: message [CODE]
	span := diag.Span
	_, _ = fmt.Fprintf(w, "%s:%d:%d: %s: %s [%s]\n",
		filename, span.Line, span.Column,
		strings.ToLower(diag.Severity.String()), diag.Message, diag.Code)

	line := findLine(src, span.Start)
	_, _ = fmt.Fprintf(w, "    %s\n", line)

	// caret underline
	_, _ = fmt.Fprintf(w, "    %s^\n", caretPadding(line, span.Column))

	// Notes
	for _, note := range diag.Notes {
		_, _ = fmt.Fprintf(w, "    note: %s\n", note)
	}
}

// findLine returns the line containing the start byte.
// It searches backwards from start to find the start of the line,
// then forward until it finds a line break or end of input.
// The returned line does not include the line break. If there is
// no line, returns an empty slice.
func findLine(src []byte, start int) []byte {
	if start > len(src) {
		return []byte{}
	}

	lineStart := 0
	for i := start - 1; i >= 0; i-- {
		if isLineBreak(rune(src[i])) {
			lineStart = i + 1
			break
		}
	}

	lineEnd := len(src)
	for i := start; i < len(src); i++ {
		if isLineBreak(rune(src[i])) {
			lineEnd = i
			break
		}
	}

	return src[lineStart:lineEnd]
}

// caretPadding returns the spacing that puts a caret under the 1-based
// scalar column. Tabs are kept so that the caret lines up with the text.
func caretPadding(line []byte, column int) string {
	var sb strings.Builder
	for _, r := range string(line) {
		if column <= 1 {
			break
		}
		if r == '\t' {
			sb.WriteByte('\t')
		} else {
			sb.WriteByte(' ')
		}
		column--
	}
	return sb.String()
}
