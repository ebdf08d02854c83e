package phylotree

import "fmt"

// Kind implements enums for tokens
type Kind int

const (
	UNKNOWN Kind = iota

	OPEN       // '('
	CLOSE      // ')'
	SEPARATOR  // ','
	NAME       // bare or single-quoted taxon name
	BRANCH     // ':' followed by a numeric literal
	ANNOTATION // '[' key=value pairs ']'

	EndOfInput // end of input
)

func (k Kind) String() string {
	switch k {
	case UNKNOWN:
		return "UNKNOWN"
	case OPEN:
		return "OPEN"
	case CLOSE:
		return "CLOSE"
	case SEPARATOR:
		return "SEPARATOR"
	case NAME:
		return "NAME"
	case BRANCH:
		return "BRANCH"
	case ANNOTATION:
		return "ANNOTATION"
	case EndOfInput:
		return "EndOfInput"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}
