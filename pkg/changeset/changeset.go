// Package changeset defines the output record of a mined before/after pair.
package changeset

import (
	"github.com/Sumatoshi-tech/editmine/pkg/abstraction"
	"github.com/Sumatoshi-tech/editmine/pkg/classify"
	"github.com/Sumatoshi-tech/editmine/pkg/token"
)

// Side is one snapshot of a pair: its code and its abstracted tokens.
type Side struct {
	BaseCode         string   `json:"base_code"`
	AbstractedTokens []string `json:"abstracted_tokens"`
}

// ChangeSet holds both snapshots of a pair.
type ChangeSet struct {
	A Side `json:"a"`
	B Side `json:"b"`
}

// Record is one output entry: the corpus metadata of the pair, its change
// set, and optionally the flags and edit template.
type Record struct {
	ID               string               `json:"id"`
	ChangeID         string               `json:"ch_id"`
	ChangeKey        string               `json:"ch_change_id"`
	AuthorAccountID  string               `json:"ch_author_account_id"`
	RevisionChangeID string               `json:"rev_change_id"`
	FileName         string               `json:"f_file_name"`
	ChangeSet        ChangeSet            `json:"change_set"`
	Flags            *classify.Flags      `json:"flags,omitempty"`
	Pattern          *abstraction.Pattern `json:"pattern,omitempty"`
}

// New builds the change set of a pair from its code and tokens.
func New(before, after string, a, b token.Sequence) ChangeSet {
	return ChangeSet{
		A: NewSide(before, a),
		B: NewSide(after, b),
	}
}

// NewSide builds one side.
func NewSide(code string, seq token.Sequence) Side {
	return Side{BaseCode: code, AbstractedTokens: Abstract(seq)}
}

// Abstract keeps the text of identifiers, keywords, operators and
// punctuation, replaces string and number literals with their class label
// and drops layout tokens, so "x = 'a'" becomes [x = STRING].
func Abstract(seq token.Sequence) []string {
	out := make([]string, 0, len(seq))

	for _, tok := range seq.Significant() {
		switch tok.Class {
		case token.Identifier, token.Keyword, token.Operator, token.Other:
			out = append(out, tok.Content)
		default:
			out = append(out, tok.Class.String())
		}
	}

	return out
}
