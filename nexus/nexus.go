// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package nexus reads and writes the TREES block of NEXUS files as
// written by BEAST and similar samplers.
package nexus

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mdhender/phylotree"
	"github.com/spf13/afero"
)

var (
	ErrNoTrees         = errors.New("no trees")
	ErrIndexOutOfRange = errors.New("tree index out of range")
)

// SyntaxError is returned when the file cannot be split into commands.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("nexus: line %d: %s", e.Line, e.Msg)
}

// File is the content of the TREES blocks of a NEXUS file.
type File struct {
	// Table maps the tokens of the translate command to taxon names.
	Table map[string]string
	Trees []Record
}

// Record is one tree command.
type Record struct {
	Name string
	Line int    // line of the tree command, 1-based
	Text string // "tree NAME = ...;" including tree-level metadata
}

// NewRecord returns a record holding t in Newick form.
func NewRecord(name string, t *phylotree.Tree) Record {
	return Record{Name: name, Text: fmt.Sprintf("tree %s = %s", quote(name), t.Newick())}
}

// Parse builds the tree of the record.
func (r Record) Parse(opts ...phylotree.Option) (*phylotree.Tree, error) {
	return phylotree.ParseRecord(r.Text, opts...)
}

// Len returns the number of tree records.
func (f *File) Len() int {
	return len(f.Trees)
}

// Tree returns the record at index. Negative indexes count from the
// end, so -1 is the last tree.
func (f *File) Tree(index int) (Record, error) {
	if len(f.Trees) == 0 {
		return Record{}, ErrNoTrees
	}
	i := index
	if i < 0 {
		i += len(f.Trees)
	}
	if i < 0 || i >= len(f.Trees) {
		return Record{}, fmt.Errorf("tree %d of %d: %w", index, len(f.Trees), ErrIndexOutOfRange)
	}
	return f.Trees[i], nil
}

// Translate replaces the translate-table tokens in t's node names with
// taxon names and returns the number of names replaced.
func (f *File) Translate(t *phylotree.Tree) int {
	if len(f.Table) == 0 {
		return 0
	}
	return t.Rename(f.Table)
}

// ReadFile reads and parses the file at path.
func ReadFile(fs afero.Fs, path string) (*File, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse reads the TREES blocks of data. Other blocks are skipped.
// Keywords are not case sensitive.
func Parse(data []byte) (*File, error) {
	cmds, err := splitCommands(data)
	if err != nil {
		return nil, err
	}
	f := &File{Table: map[string]string{}}
	inTrees := false
	for _, cmd := range cmds {
		words := strings.Fields(cmd.plain)
		if len(words) > 0 && strings.EqualFold(words[0], "#nexus") {
			words = words[1:]
		}
		if len(words) == 0 {
			continue
		}
		switch keyword := strings.ToLower(words[0]); {
		case keyword == "begin":
			inTrees = len(words) > 1 && strings.EqualFold(words[1], "trees")
		case keyword == "end" || keyword == "endblock":
			inTrees = false
		case !inTrees:
			// not ours
		case keyword == "translate":
			if err := f.parseTranslate(cmd); err != nil {
				return nil, err
			}
		case keyword == "tree" || keyword == "utree":
			rec, err := parseTree(cmd)
			if err != nil {
				return nil, err
			}
			f.Trees = append(f.Trees, rec)
		}
	}
	return f, nil
}

// Write writes records as a NEXUS file with a single TREES block.
func Write(w io.Writer, records []Record) error {
	if _, err := io.WriteString(w, "#NEXUS\n\nbegin trees;\n"); err != nil {
		return err
	}
	for _, rec := range records {
		text := strings.TrimSuffix(strings.TrimSpace(rec.Text), ";")
		if _, err := fmt.Fprintf(w, "\t%s;\n", text); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "end;\n")
	return err
}

func (f *File) parseTranslate(cmd command) error {
	body := strings.TrimSpace(cmd.plain)
	body = strings.TrimSpace(body[len("translate"):])
	for _, pair := range splitQuoted(body, ',') {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		token, name, ok := cutSpace(pair)
		if !ok {
			return &SyntaxError{Line: cmd.line, Msg: fmt.Sprintf("translate: %q has no taxon name", pair)}
		}
		f.Table[unquote(token)] = unquote(name)
	}
	return nil
}

func parseTree(cmd command) (Record, error) {
	eq := indexOutside(cmd.raw, '=')
	if eq == -1 {
		return Record{}, &SyntaxError{Line: cmd.line, Msg: "tree command has no '='"}
	}
	head := strings.Fields(stripComments(cmd.raw[:eq]))
	if len(head) < 2 {
		return Record{}, &SyntaxError{Line: cmd.line, Msg: "tree command has no name"}
	}
	name := unquote(strings.TrimSpace(strings.TrimPrefix(strings.Join(head[1:], " "), "*")))
	body := strings.TrimSpace(cmd.raw[eq+1:])
	return Record{
		Name: name,
		Line: cmd.line,
		Text: fmt.Sprintf("tree %s = %s;", quote(name), body),
	}, nil
}
