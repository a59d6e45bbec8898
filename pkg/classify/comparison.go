package classify

import (
	"github.com/Sumatoshi-tech/editmine/pkg/levenshtein"
	"github.com/Sumatoshi-tech/editmine/pkg/token"
)

// Comparison holds every diff set of one before/after pair. Diff sets are
// computed over the significant tokens; layout tokens only matter to
// IsSameLayout.
type Comparison struct {
	rawBefore token.Sequence
	rawAfter  token.Sequence
	before    token.Sequence
	after     token.Sequence
	lcs       token.Sequence
	notLCS    token.Sequence
	notDup    token.Sequence
	script    token.Sequence
}

// Flags is a serializable snapshot of the predicates of a Comparison.
type Flags struct {
	Mode           Mode `json:"mode"            yaml:"mode"`
	Comparable     bool `json:"comparable"      yaml:"comparable"`
	StringChange   bool `json:"string_change"   yaml:"string_change"`
	NameChange     bool `json:"name_change"     yaml:"name_change"`
	NumberChange   bool `json:"number_change"   yaml:"number_change"`
	OperatorChange bool `json:"operator_change" yaml:"operator_change"`
	SameLayout     bool `json:"same_layout"     yaml:"same_layout"`
	LayoutChange   bool `json:"layout_change"   yaml:"layout_change"`
	NotLCS         int  `json:"not_lcs"         yaml:"not_lcs"`
	NotDup         int  `json:"not_dup"         yaml:"not_dup"`
	Distance       int  `json:"distance"        yaml:"distance"`
}

// Compare computes all diff sets of before and after once. When either side
// has no significant tokens the comparison is not comparable: every diff set
// is empty and every predicate reports false.
func Compare(before, after token.Sequence) *Comparison {
	c := &Comparison{
		rawBefore: before,
		rawAfter:  after,
		before:    before.Significant(),
		after:     after.Significant(),
	}

	if !c.Comparable() {
		return c
	}

	c.lcs = LCS(c.before, c.after)
	c.notLCS = notExplained(c.before, c.after, c.lcs)
	c.notDup = NotDup(c.before, c.after)

	var ctx levenshtein.Context
	c.script = ctx.Script(c.before, c.after)

	return c
}

// Comparable reports whether both sides hold significant tokens.
func (c *Comparison) Comparable() bool {
	return len(c.before) > 0 && len(c.after) > 0
}

// Before returns the significant tokens of the before side.
func (c *Comparison) Before() token.Sequence { return c.before }

// After returns the significant tokens of the after side.
func (c *Comparison) After() token.Sequence { return c.after }

// LCS returns the common subsequence.
func (c *Comparison) LCS() token.Sequence { return c.lcs }

// NotLCS returns the tokens the common subsequence does not explain.
func (c *Comparison) NotLCS() token.Sequence { return c.notLCS }

// NotDup returns the symmetric multiset difference.
func (c *Comparison) NotDup() token.Sequence { return c.notDup }

// EditScript returns the tokens edited along the optimal Levenshtein path.
func (c *Comparison) EditScript() token.Sequence { return c.script }

// Diff returns the diff set selected by mode.
func (c *Comparison) Diff(mode Mode) token.Sequence {
	switch mode {
	case ModeMultiset:
		return c.notDup
	case ModeLevenshtein:
		return c.script
	default:
		return c.notLCS
	}
}

// IsStringChange reports a string literal in the selected diff set.
func (c *Comparison) IsStringChange(mode Mode) bool { return IsStringChange(c.Diff(mode)) }

// IsNameChange reports an identifier in the selected diff set.
func (c *Comparison) IsNameChange(mode Mode) bool { return IsNameChange(c.Diff(mode)) }

// IsNumberChange reports a number literal in the selected diff set.
func (c *Comparison) IsNumberChange(mode Mode) bool { return IsNumberChange(c.Diff(mode)) }

// IsOperatorChange reports an operator in the selected diff set.
func (c *Comparison) IsOperatorChange(mode Mode) bool { return IsOperatorChange(c.Diff(mode)) }

// IsSameLayout reports positional equality of the full token streams,
// layout tokens included. Streams of different length never match.
func (c *Comparison) IsSameLayout() bool {
	return c.Comparable() && c.rawBefore.Equal(c.rawAfter)
}

// IsLayoutChange reports that both NotLCS and NotDup are empty: the sides
// hold the same tokens in the same order and can only differ in formatting.
func (c *Comparison) IsLayoutChange() bool {
	return c.Comparable() && len(c.notLCS) == 0 && len(c.notDup) == 0
}

// Flags snapshots every predicate for the given mode.
func (c *Comparison) Flags(mode Mode) Flags {
	return Flags{
		Mode:           mode,
		Comparable:     c.Comparable(),
		StringChange:   c.IsStringChange(mode),
		NameChange:     c.IsNameChange(mode),
		NumberChange:   c.IsNumberChange(mode),
		OperatorChange: c.IsOperatorChange(mode),
		SameLayout:     c.IsSameLayout(),
		LayoutChange:   c.IsLayoutChange(),
		NotLCS:         len(c.notLCS),
		NotDup:         len(c.notDup),
		Distance:       len(c.script),
	}
}
