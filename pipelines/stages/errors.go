// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package stages

import "fmt"

// ErrReadFile is returned when file I/O operations fail.
type ErrReadFile struct {
	Op   string // read, write, mkdir
	Path string
	Err  error
}

func (e *ErrReadFile) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ErrReadFile) Unwrap() error {
	return e.Err
}

// ErrDatabase is returned when database operations fail.
type ErrDatabase struct {
	Op  string
	Err error
}

func (e *ErrDatabase) Error() string {
	return fmt.Sprintf("database %s: %v", e.Op, e.Err)
}

func (e *ErrDatabase) Unwrap() error {
	return e.Err
}

// ErrParseRecord is returned when one tree record of a file fails to
// tokenize or build.
type ErrParseRecord struct {
	Source string
	Index  int // position of the record in the file, 0-based
	Err    error
}

func (e *ErrParseRecord) Error() string {
	return fmt.Sprintf("%s: tree %d: %v", e.Source, e.Index, e.Err)
}

func (e *ErrParseRecord) Unwrap() error {
	return e.Err
}

// Error code constants for reporting.
const (
	ErrCodeReadFile    = "READ_FILE"
	ErrCodeDatabase    = "DATABASE"
	ErrCodeParseRecord = "PARSE_RECORD"
	ErrCodeUnknown     = "UNKNOWN"
)

// ErrorCode returns the error code string for a given error.
func ErrorCode(err error) string {
	switch err.(type) {
	case *ErrReadFile:
		return ErrCodeReadFile
	case *ErrDatabase:
		return ErrCodeDatabase
	case *ErrParseRecord:
		return ErrCodeParseRecord
	default:
		return ErrCodeUnknown
	}
}
