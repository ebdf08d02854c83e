// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package phylotree

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"
)

// Lexer invariants and coordinate system
//
// The lexer treats input as an immutable byte slice. The tree grammar is
// ASCII; bytes >= 0x80 may only appear inside quoted names and
// annotation values, so the lexer works on bytes, not runes.
//
// Fields:
//   input  - the original []byte
//   length - len(input)
//   pos    - index of the current byte, or length at end of input
//   line   - 1-based line of the current byte
//   column - 1-based byte column of the current byte
//
// Invariants:
//   0 <= pos <= length
//   iseof() <=> pos == length
//
// Scanners that produce a token:
//   1. call setAnchor() while pos is on the first byte of the token,
//   2. advance() while the byte belongs to the token,
//   3. build the token from the anchor and the current pos, so that
//      input[anchorPos:pos] is the lexeme.
//
// There is no backtracking: every scanner either consumes its token or
// returns a TokenizeError.

type Lexer struct {
	name   string // name of the input source
	pos    int    // position of current byte
	line   int    // line number of current byte
	column int    // column number of current byte
	length int    // length of input buffer
	input  []byte

	anchorPos    int
	anchorLine   int
	anchorColumn int

	// canonical end of input token
	endToken *Token

	// logging
	ctx        context.Context
	logger     *slog.Logger
	tokenCount int
}

// NewLexer returns a lexer for the tree text in input. The name is used
// in messages and errors. A nil logger disables logging.
func NewLexer(ctx context.Context, name string, input []byte, logger *slog.Logger) *Lexer {
	return &Lexer{
		name:   name,
		input:  input,
		length: len(input),
		line:   1,
		column: 1,
		ctx:    ctx,
		logger: logger,
	}
}

// Tokenize scans the whole input and returns the tokens, ending with a
// single EndOfInput token.
func Tokenize(input []byte) ([]*Token, error) {
	return NewLexer(context.Background(), "", input, nil).All()
}

// All scans until end of input. The first error aborts the scan and no
// tokens are returned.
func (l *Lexer) All() ([]*Token, error) {
	var tokens []*Token
	for {
		if l.ctx != nil && l.tokenCount%1024 == 0 {
			if err := l.ctx.Err(); err != nil {
				return nil, err
			}
		}
		tok, err := l.Scan()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Is(EndOfInput) {
			break
		}
	}
	l.debug("scanned %d tokens", len(tokens))
	return tokens, nil
}

// Scan returns the next token from the input buffer.
// Whitespace between tokens is skipped.
//
// Once we reach end of input, we always return the same EOF token.
func (l *Lexer) Scan() (*Token, error) {
	l.skipSpaces()
	if l.iseof() {
		return l.eof(), nil
	}

	l.setAnchor()
	l.tokenCount++

	switch ch := l.peek(); ch {
	case '(':
		l.advance()
		return l.token(OPEN), nil
	case ')':
		l.advance()
		return l.token(CLOSE), nil
	case ',':
		l.advance()
		return l.token(SEPARATOR), nil
	case '[':
		return l.scanAnnotation()
	case ':':
		return l.scanBranch()
	case '\'':
		return l.scanQuotedName()
	default:
		if istaxon(ch) {
			return l.scanName(), nil
		}
		return nil, l.errorf("unexpected %q: expected a taxon name", ch)
	}
}

// scanAnnotation accepts '[' text ']' and parses the pairs in text.
func (l *Lexer) scanAnnotation() (*Token, error) {
	closing := bytes.IndexByte(l.input[l.pos+1:], ']')
	if closing == -1 {
		return nil, l.errorf("annotation block is missing its closing ']'")
	}
	raw := string(l.input[l.pos+1 : l.pos+1+closing])
	for n := closing + 2; n > 0; n-- {
		l.advance()
	}
	annotation, err := ParseAnnotation(raw)
	if err != nil {
		return nil, l.errorf("%v", err)
	}
	tok := l.token(ANNOTATION)
	tok.Annotation = annotation
	return tok, nil
}

// scanBranch accepts ':' followed by a numeric literal:
//
//	[+-]? ( digits ( '.' digits? )? | '.' digits ) ( [eE] [+-]? digits )?
func (l *Lexer) scanBranch() (*Token, error) {
	l.advance() // ':'
	start := l.pos
	if ch := l.peek(); ch == '-' || ch == '+' {
		l.advance()
	}
	intDigits := l.scanDigits()
	fracDigits := 0
	if l.peek() == '.' {
		l.advance()
		fracDigits = l.scanDigits()
	}
	if intDigits == 0 && fracDigits == 0 {
		return nil, l.errorf("branch length must be a number")
	}
	if ch := l.peek(); ch == 'e' || ch == 'E' {
		l.advance()
		if ch := l.peek(); ch == '-' || ch == '+' {
			l.advance()
		}
		if l.scanDigits() == 0 {
			return nil, l.errorf("branch length has a malformed exponent")
		}
	}
	value, err := strconv.ParseFloat(string(l.input[start:l.pos]), 64)
	if err != nil {
		return nil, l.errorf("invalid branch length: %v", err)
	}
	tok := l.token(BRANCH)
	tok.Branch = value
	return tok, nil
}

// scanDigits consumes a run of decimal digits and returns its length.
func (l *Lexer) scanDigits() int {
	n := 0
	for !l.iseof() && isdigit(l.peek()) {
		l.advance()
		n++
	}
	return n
}

// scanName accepts a run of bare taxon bytes. The caller has checked
// that the current byte is one.
func (l *Lexer) scanName() *Token {
	for !l.iseof() && istaxon(l.peek()) {
		l.advance()
	}
	tok := l.token(NAME)
	tok.Name = string(l.input[l.anchorPos:l.pos])
	return tok
}

// scanQuotedName accepts a single-quoted name. A doubled quote inside
// the name stands for one quote.
func (l *Lexer) scanQuotedName() (*Token, error) {
	l.advance() // opening quote
	var name []byte
	for {
		if l.iseof() {
			return nil, l.errorf("quoted name is missing its closing quote")
		}
		ch := l.peek()
		l.advance()
		if ch != '\'' {
			name = append(name, ch)
			continue
		}
		if l.peek() != '\'' {
			break
		}
		l.advance()
		name = append(name, '\'')
	}
	tok := l.token(NAME)
	tok.Name = string(name)
	return tok, nil
}

func (l *Lexer) skipSpaces() {
	for !l.iseof() && isspace(l.peek()) {
		l.advance()
	}
}

// peek returns the current byte without advancing the input.
// It returns 0 at end of input.
func (l *Lexer) peek() byte {
	if l.iseof() {
		return 0
	}
	return l.input[l.pos]
}

// advance moves to the next byte and updates line/col.
func (l *Lexer) advance() {
	if l.iseof() {
		return
	}
	if l.input[l.pos] == LF {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	l.pos++
}

func (l *Lexer) iseof() bool {
	return l.pos >= l.length
}

// setAnchor marks the start of the current token.
func (l *Lexer) setAnchor() {
	l.anchorPos = l.pos
	l.anchorLine = l.line
	l.anchorColumn = l.column
}

// token returns a token of the given kind spanning anchor to pos.
func (l *Lexer) token(kind Kind) *Token {
	return &Token{
		Position: Position{
			Line:   l.anchorLine,
			Column: l.anchorColumn,
			Start:  l.anchorPos,
		},
		End:  l.pos,
		Kind: kind,
	}
}

// eof returns the canonical end of input token.
func (l *Lexer) eof() *Token {
	if l.endToken == nil {
		l.endToken = &Token{
			Position: Position{
				Line:   l.line,
				Column: l.column,
				Start:  l.length,
			},
			End:  l.length,
			Kind: EndOfInput,
		}
	}
	return l.endToken
}

// errorf returns a TokenizeError located at the start of the current token.
func (l *Lexer) errorf(format string, args ...any) error {
	err := &TokenizeError{
		Source: l.name,
		Pos: Position{
			Line:   l.anchorLine,
			Column: l.anchorColumn,
			Start:  l.anchorPos,
		},
		Msg: fmt.Sprintf(format, args...),
	}
	if l.logger != nil {
		l.logger.Error(err.Error())
	}
	return err
}

func (l *Lexer) debug(format string, args ...any) {
	if l.logger == nil {
		return
	}
	l.logger.Debug(fmt.Sprintf("%s:%d:%d %s", l.name, l.line, l.column, fmt.Sprintf(format, args...)))
}
