package phylotree

import "fmt"

// Token represents a single lexical token from the input.
type Token struct {
	Position

	// End is the byte offset in the original input slices.
	// It is exclusive: input[Start:End] is the token's lexeme.
	End int

	Kind Kind // e.g. OPEN, NAME, BRANCH, etc.

	// Payload, depending on Kind.
	Name       string      // NAME, with single quotes removed
	Branch     float64     // BRANCH
	Annotation *Annotation // ANNOTATION
}

// Is reports whether tok.Kind matches the provided kind.
//
// It returns false if tok is nil.
func (tok *Token) Is(kind Kind) bool {
	if tok == nil {
		return false
	}
	return tok.Kind == kind
}

// Length is the length of the lexeme, in bytes.
func (tok *Token) Length() int {
	return tok.End - tok.Position.Start
}

// Lexeme is a helper to return the original text of the token.
func (tok *Token) Lexeme(input []byte) []byte {
	return input[tok.Position.Start:tok.End]
}

func (tok *Token) String() string {
	switch tok.Kind {
	case NAME:
		return fmt.Sprintf("(%s, %q)", tok.Kind, tok.Name)
	case BRANCH:
		return fmt.Sprintf("(%s, %g)", tok.Kind, tok.Branch)
	case ANNOTATION:
		return fmt.Sprintf("(%s, %s)", tok.Kind, tok.Annotation)
	}
	return fmt.Sprintf("(%s)", tok.Kind)
}

// Position represents a position in the original source code.
// All fields are 1-based where applicable.
type Position struct {
	Line   int // 1-based
	Column int // 1-based, byte column
	Start  int // byte index into input (0-based); always required
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Span represents a range in the source: [Start, End).
type Span struct {
	// Byte offsets into the original input slice.
	// End is exclusive: input[Start:End] is the spanned text.
	Start int
	End   int

	// 1-based line and column of the *start* of the span.
	Line   int
	Column int
}
