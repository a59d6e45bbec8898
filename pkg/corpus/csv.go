// Package corpus reads a review corpus: a CSV index of changed files and
// the per-revision diff documents it points to, yielding before/after
// pairs of changed hunks.
package corpus

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Column names of the corpus index.
const (
	ColChangeID         = "ch_id"
	ColChangeKey        = "ch_change_id"
	ColAuthorAccountID  = "ch_author_account_id"
	ColRevisionChangeID = "rev_change_id"
	ColFileName         = "f_file_name"
	ColRevisionID       = "rev_id_y"
)

var requiredColumns = []string{
	ColChangeID,
	ColChangeKey,
	ColAuthorAccountID,
	ColRevisionChangeID,
	ColFileName,
	ColRevisionID,
}

// ErrMissingColumn is returned when the index header lacks a required column.
var ErrMissingColumn = errors.New("missing column")

const utf8BOM = "\ufeff"

// Row is one line of the corpus index.
type Row struct {
	ChangeID         string
	ChangeKey        string
	AuthorAccountID  string
	RevisionChangeID string
	FileName         string
	RevisionID       string
}

// RowReader decodes index rows by header name; column order and extra
// columns do not matter.
type RowReader struct {
	r     *csv.Reader
	index map[string]int
}

// NewRowReader reads the header from r.
func NewRowReader(r io.Reader) (*RowReader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))

	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}

		index[strings.TrimSpace(name)] = i
	}

	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	return &RowReader{r: cr, index: index}, nil
}

// Next returns the next row, or io.EOF after the last one.
func (rr *RowReader) Next() (Row, error) {
	rec, err := rr.r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Row{}, io.EOF
		}

		return Row{}, fmt.Errorf("read row: %w", err)
	}

	return Row{
		ChangeID:         rr.field(rec, ColChangeID),
		ChangeKey:        rr.field(rec, ColChangeKey),
		AuthorAccountID:  rr.field(rec, ColAuthorAccountID),
		RevisionChangeID: rr.field(rec, ColRevisionChangeID),
		FileName:         rr.field(rec, ColFileName),
		RevisionID:       rr.field(rec, ColRevisionID),
	}, nil
}

func (rr *RowReader) field(rec []string, col string) string {
	i := rr.index[col]
	if i >= len(rec) {
		return ""
	}

	return rec[i]
}
