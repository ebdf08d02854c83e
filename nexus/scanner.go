// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package nexus

import (
	"strings"
)

// command is the text between two semicolons. plain is raw with every
// bracketed comment removed.
type command struct {
	raw   string
	plain string
	line  int
}

// splitCommands splits data on ';' outside comments and quoted words.
// Comments nest.
func splitCommands(data []byte) ([]command, error) {
	var cmds []command
	var raw, plain strings.Builder
	line, start := 1, 1
	depth, commentLine := 0, 0
	quoted, quoteLine := false, 0
	for _, ch := range data {
		if ch == ';' && depth == 0 && !quoted {
			cmds = append(cmds, command{raw: raw.String(), plain: plain.String(), line: start})
			raw.Reset()
			plain.Reset()
			continue
		}
		if raw.Len() == 0 {
			if isspace(ch) {
				if ch == '\n' {
					line++
				}
				continue
			}
			start = line
		}
		raw.WriteByte(ch)
		switch {
		case quoted:
			quoted = ch != '\''
		case ch == '[':
			if depth == 0 {
				commentLine = line
			}
			depth++
		case ch == ']' && depth > 0:
			depth--
			continue
		case depth == 0 && ch == '\'':
			quoted, quoteLine = true, line
		}
		if depth == 0 {
			plain.WriteByte(ch)
		}
		if ch == '\n' {
			line++
		}
	}
	if depth > 0 {
		return nil, &SyntaxError{Line: commentLine, Msg: "comment is missing its closing ']'"}
	}
	if quoted {
		return nil, &SyntaxError{Line: quoteLine, Msg: "quoted word is missing its closing quote"}
	}
	if strings.TrimSpace(plain.String()) != "" {
		cmds = append(cmds, command{raw: raw.String(), plain: plain.String(), line: start})
	}
	return cmds, nil
}

func isspace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n'
}

// indexOutside returns the index of the first sep in s that is not
// inside a comment or a quoted word.
func indexOutside(s string, sep byte) int {
	depth, quoted := 0, false
	for i := 0; i < len(s); i++ {
		switch ch := s[i]; {
		case quoted:
			quoted = ch != '\''
		case ch == '[':
			depth++
		case ch == ']' && depth > 0:
			depth--
		case depth > 0:
		case ch == '\'':
			quoted = true
		case ch == sep:
			return i
		}
	}
	return -1
}

func stripComments(s string) string {
	var sb strings.Builder
	depth := 0
	for i := 0; i < len(s); i++ {
		switch ch := s[i]; {
		case ch == '[':
			depth++
		case ch == ']' && depth > 0:
			depth--
		case depth == 0:
			sb.WriteByte(ch)
		}
	}
	return sb.String()
}

// splitQuoted splits s on sep outside single-quoted words.
func splitQuoted(s string, sep byte) []string {
	var parts []string
	quoted, from := false, 0
	for i := 0; i < len(s); i++ {
		switch ch := s[i]; {
		case ch == '\'':
			quoted = !quoted
		case ch == sep && !quoted:
			parts = append(parts, s[from:i])
			from = i + 1
		}
	}
	return append(parts, s[from:])
}

// cutSpace splits s at its first run of white space.
func cutSpace(s string) (before, after string, ok bool) {
	i := strings.IndexAny(s, " \t\r\n")
	if i == -1 {
		return s, "", false
	}
	after = strings.TrimSpace(s[i:])
	return s[:i], after, after != ""
}

// unquote removes single quotes and undoubles inner quotes.
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		return strings.ReplaceAll(s[1:len(s)-1], "''", "'")
	}
	return s
}

// quote single-quotes s if it holds anything but letters, digits and _.-
func quote(s string) string {
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if !('a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || '0' <= ch && ch <= '9' || ch == '_' || ch == '-' || ch == '.') {
			return "'" + strings.ReplaceAll(s, "'", "''") + "'"
		}
	}
	return s
}
