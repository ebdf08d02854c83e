// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package phylotree

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput is returned when a record contains no tree text.
	ErrEmptyInput = errors.New("empty input")
	// ErrNoTrees is returned when an operation needs at least one tree.
	ErrNoTrees = errors.New("no trees")
)

// TokenizeError is returned when the scanner finds text that is neither
// a branch length nor a taxon name, or an unterminated annotation block
// or quoted name. It aborts the parse of the whole record.
type TokenizeError struct {
	Source string // name of the input, may be empty
	Pos    Position
	Msg    string
}

func (e *TokenizeError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s:%d:%d: %s", e.Source, e.Pos.Line, e.Pos.Column, e.Msg)
	}
	return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Column, e.Msg)
}

// StructureError is returned when the input breaks the strict binary
// shape: more than two children at one level, a node with a single
// child, unbalanced parentheses, or trees with different topologies
// handed to Combine.
type StructureError struct {
	Op     string // build, combine
	NodeID int    // node where the problem was found, or NoNode
	Msg    string
}

func (e *StructureError) Error() string {
	if e.NodeID == NoNode {
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	}
	return fmt.Sprintf("%s: node %d: %s", e.Op, e.NodeID, e.Msg)
}

// Error code constants for reporting and storage.
const (
	ErrCodeTokenize  = "TOKENIZE"
	ErrCodeStructure = "STRUCTURE"
	ErrCodeEmpty     = "EMPTY_INPUT"
	ErrCodeUnknown   = "UNKNOWN"
)

// ErrorCode returns the error code string for a given error.
func ErrorCode(err error) string {
	var te *TokenizeError
	var se *StructureError
	switch {
	case errors.As(err, &te):
		return ErrCodeTokenize
	case errors.As(err, &se):
		return ErrCodeStructure
	case errors.Is(err, ErrEmptyInput), errors.Is(err, ErrNoTrees):
		return ErrCodeEmpty
	default:
		return ErrCodeUnknown
	}
}
