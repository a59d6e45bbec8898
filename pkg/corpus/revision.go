package corpus

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// ChangeModified is the change type of documents that carry hunks.
const ChangeModified = "MODIFIED"

// ErrInvalidDocument is returned for documents that are not JSON or do not
// match the revision schema.
var ErrInvalidDocument = errors.New("invalid revision document")

//go:embed revision-schema.json
var revisionSchema []byte

var loadSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(revisionSchema))
})

// Entry is one run of a file diff: unchanged lines (AB), removed lines (A),
// added lines (B), or a count of elided lines (Skip).
type Entry struct {
	AB   []string `json:"ab,omitempty"`
	A    []string `json:"a,omitempty"`
	B    []string `json:"b,omitempty"`
	Skip *int     `json:"skip,omitempty"`
}

// Document is the diff of one file in one revision.
type Document struct {
	ChangeType string  `json:"change_type"`
	Content    []Entry `json:"content"`
}

// Hunk is a before/after pair taken from an entry with both sides.
type Hunk struct {
	Before string
	After  string
	// Line is the 1-based line of Before in the old file.
	Line int
}

// ParseDocument validates data against the revision schema and decodes it.
func ParseDocument(data []byte) (*Document, error) {
	schema, err := loadSchema()
	if err != nil {
		return nil, fmt.Errorf("load revision schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	if !result.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDocument, result.Errors()[0])
	}

	var doc Document

	err = json.Unmarshal(data, &doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	return &doc, nil
}

// Modified reports whether the document describes a modified file.
func (d *Document) Modified() bool {
	return d.ChangeType == ChangeModified
}

// Elided reports whether any part of the file was left out of the diff.
func (d *Document) Elided() bool {
	for _, e := range d.Content {
		if e.Skip != nil {
			return true
		}
	}

	return false
}

// Hunks returns one pair per entry that both removes and adds lines, in
// file order. Pure insertions and deletions yield nothing.
func (d *Document) Hunks() []Hunk {
	var (
		hunks []Hunk
		line  = 1
	)

	for _, e := range d.Content {
		switch {
		case e.AB != nil:
			line += len(e.AB)
		case e.A != nil:
			if e.B != nil {
				hunks = append(hunks, Hunk{
					Before: strings.Join(e.A, "\n"),
					After:  strings.Join(e.B, "\n"),
					Line:   line,
				})
			}

			line += len(e.A)
		}
	}

	return hunks
}
