// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package phylotree

import (
	"fmt"
	"log/slog"
	"strings"
)

/*
Invariants:
 * Cursor
   * `cursor` is the node that NAME, BRANCH and ANNOTATION tokens attach to.
   * It starts at the synthetic root (ID 0) and must be back at the root
     when EndOfInput is reached.
 * Node creation
   * OPEN creates the cursor's Left child and descends into it.
   * SEPARATOR creates the Right child of the cursor's parent and moves
     the cursor to it. The cursor is always the Left child at that point,
     so a second SEPARATOR at the same level finds Right already set.
   * IDs are arena indices, handed out in token order.
 * Shape
   * Only two children per node are representable; a third child, a
     separator or close at the root, or a node left with a single child
     is reported as a StructureError instead of building a wrong tree.
 * Token cursor semantics (as in a CST parser)
   * peek() returns the token to be consumed next, advance() returns it
     and moves forward. Past the end both return a canonical EOF token.
*/

type builder struct {
	logger *slog.Logger
	tokens []*Token
	pos    int
	eof    *Token
	tree   *Tree
	cursor int
}

// Build constructs a tree from a token stream. The stream does not need
// a trailing EndOfInput token.
func Build(tokens []*Token) (*Tree, error) {
	return newBuilder(tokens, nil).build()
}

func newBuilder(tokens []*Token, logger *slog.Logger) *builder {
	b := &builder{
		logger: logger,
		tokens: tokens,
		eof:    &Token{Kind: EndOfInput},
		tree:   newTree(),
	}
	b.cursor = b.tree.Root()
	return b
}

// peek returns the current lookahead token without consuming it.
func (b *builder) peek() *Token {
	if b.pos >= len(b.tokens) || b.tokens[b.pos] == nil {
		return b.eof
	}
	return b.tokens[b.pos]
}

// advance consumes and returns the current token.
func (b *builder) advance() *Token {
	tok := b.peek()
	if !tok.Is(EndOfInput) {
		b.pos++
	}
	return tok
}

func (b *builder) build() (*Tree, error) {
	t := b.tree
	for {
		tok := b.advance()
		switch tok.Kind {
		case EndOfInput:
			return b.finish(tok)
		case OPEN:
			child := t.addNode(b.cursor)
			t.nodes[b.cursor].Left = child
			b.cursor = child
		case SEPARATOR:
			parent := t.parents[b.cursor]
			if parent == NoNode {
				return nil, b.errorf(tok, "separator outside of parentheses")
			}
			if t.nodes[parent].Right != NoNode {
				return nil, b.errorf(tok, "more than two children (multifurcating nodes are not supported)")
			}
			child := t.addNode(parent)
			t.nodes[parent].Right = child
			b.cursor = child
		case CLOSE:
			parent := t.parents[b.cursor]
			if parent == NoNode {
				return nil, b.errorf(tok, "unbalanced ')'")
			}
			b.cursor = parent
		case ANNOTATION:
			t.nodes[b.cursor].Annotation = tok.Annotation.Clone()
		case BRANCH:
			branch := tok.Branch
			t.nodes[b.cursor].Branch = &branch
		case NAME:
			t.nodes[b.cursor].Name = tok.Name
		default:
			return nil, b.errorf(tok, fmt.Sprintf("unexpected token %s", tok.Kind))
		}
	}
}

func (b *builder) finish(tok *Token) (*Tree, error) {
	t := b.tree
	if b.cursor != t.Root() {
		depth := 0
		for id := b.cursor; id != t.Root(); id = t.parents[id] {
			depth++
		}
		return nil, b.errorf(tok, fmt.Sprintf("unbalanced '(': %d left open", depth))
	}
	for i := range t.nodes {
		if n := &t.nodes[i]; n.Left != NoNode && n.Right == NoNode {
			return nil, &StructureError{Op: "build", NodeID: n.ID, Msg: "node has a single child"}
		}
	}
	if b.logger != nil {
		b.logger.Debug(fmt.Sprintf("build: %d tokens, %d nodes", b.pos, len(t.nodes)))
	}
	return t, nil
}

func (b *builder) errorf(tok *Token, msg string) error {
	if tok.Line > 0 {
		msg = fmt.Sprintf("%d:%d: %s", tok.Line, tok.Column, msg)
	}
	return &StructureError{Op: "build", NodeID: b.cursor, Msg: msg}
}

// Parse tokenizes and builds one tree from Newick text without the
// trailing ';'.
func Parse(text []byte, opts ...Option) (*Tree, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}
	tokens, err := NewLexer(cfg.ctx, cfg.name, text, cfg.logger).All()
	if err != nil {
		return nil, err
	}
	return newBuilder(tokens, cfg.logger).build()
}

// ParseRecord parses a whole tree record as found in a NEXUS TREES block,
// e.g. `tree STATE_0 = [&R] (A:1,B:2);`, or a bare Newick string ending
// in ';'. The command head, tree-level comments after the '=' and the
// trailing ';' are discarded.
func ParseRecord(record string, opts ...Option) (*Tree, error) {
	text, err := RecordText(record)
	if err != nil {
		return nil, err
	}
	return Parse([]byte(text), opts...)
}

// RecordText returns the tree text of a record. For a `tree NAME = ...`
// command that is the text after the first '=' outside quotes and
// brackets, with leading `[...]` blocks removed. Any other record is
// taken whole. The trailing ';' is dropped in both cases.
// It returns ErrEmptyInput when no tree text is left.
func RecordText(record string) (string, error) {
	text := record
	if eq := indexUnquoted(record, '='); eq != -1 {
		text = skipComments(record[eq+1:])
	}
	text = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), ";"))
	if text == "" {
		return "", ErrEmptyInput
	}
	return text, nil
}

// indexUnquoted returns the index of the first ch that is neither inside
// a single-quoted name nor inside a bracketed block, or -1.
func indexUnquoted(s string, ch byte) int {
	quoted, depth := false, 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '\'' && depth == 0:
			quoted = !quoted
		case quoted:
		case c == '[':
			depth++
		case c == ']' && depth > 0:
			depth--
		case c == ch && depth == 0:
			return i
		}
	}
	return -1
}

// skipComments removes leading whitespace and `[...]` blocks.
func skipComments(s string) string {
	for {
		s = strings.TrimLeftFunc(s, func(r rune) bool { return r < 0x80 && isspace(byte(r)) })
		if !strings.HasPrefix(s, "[") {
			return s
		}
		end := strings.IndexByte(s, ']')
		if end == -1 {
			return s
		}
		s = s[end+1:]
	}
}
