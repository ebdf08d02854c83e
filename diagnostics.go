// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package phylotree

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"
)

// Diagnostic represents a tokenizer or builder error/warning
// with a span in the original source.
type Diagnostic struct {
	Severity slog.Level // Error, Warning, Info
	Message  string     // "branch length must be a number"
	Span     Span       // where in the text it occurred
	Notes    []string   // optional additional help messages
}

// DiagnosticFromError returns a diagnostic for errors that carry a
// source position. It reports false for any other error.
func DiagnosticFromError(err error) (Diagnostic, bool) {
	var te *TokenizeError
	if !errors.As(err, &te) {
		return Diagnostic{}, false
	}
	diag := Diagnostic{
		Severity: slog.LevelError,
		Message:  te.Msg,
		Span: Span{
			Start:  te.Pos.Start,
			End:    te.Pos.Start + 1,
			Line:   te.Pos.Line,
			Column: te.Pos.Column,
		},
	}
	if strings.HasPrefix(te.Msg, "branch length") {
		diag.Notes = append(diag.Notes, "a branch length is ':' followed by a number such as 1, 2.5 or 1.2E-4")
	}
	return diag, true
}

// PrintDiagnostic writes the diagnostic as a header line, the source line
// and a caret under the column. Only the first line of a multi-line span
// is shown.
func PrintDiagnostic(w io.Writer, diag Diagnostic, filename string, src []byte) {
	// Header: file:line:column: error: message
	span := diag.Span
	_, _ = fmt.Fprintf(w, "%s:%d:%d: %s: %s\n",
		filename, span.Line, span.Column,
		strings.ToLower(diag.Severity.String()), diag.Message)

	line := findLine(src, span.Start)
	_, _ = fmt.Fprintf(w, "    %s\n", line)

	// caret underline
	caretCount := runeColumnOffset(span.Column, line)
	_, _ = fmt.Fprintf(w, "    %s^\n", strings.Repeat(" ", caretCount))

	for _, note := range diag.Notes {
		_, _ = fmt.Fprintf(w, "    note: %s\n", note)
	}
}

// findLine returns the line containing the start byte, without the
// new-line. If start is past the end of src, the last line is returned.
func findLine(src []byte, start int) []byte {
	if len(src) == 0 {
		return []byte{}
	}
	if start >= len(src) {
		start = len(src) - 1
	}

	lineStart := 0
	for i := start - 1; i >= 0; i-- {
		if src[i] == '\n' {
			lineStart = i + 1
			break
		}
	}

	lineEnd := len(src)
	for i := lineStart; i < len(src); i++ {
		if src[i] == '\n' {
			lineEnd = i
			break
		}
	}
	return src[lineStart:lineEnd]
}

// runeColumnOffset returns the number of runes before the 1-based byte
// column in line.
func runeColumnOffset(column int, line []byte) (offset int) {
	if column < 1 {
		return 0
	} else if column-1 > len(line) {
		column = len(line) + 1
	}
	return utf8.RuneCount(line[:column-1])
}
