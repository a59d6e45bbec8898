package token_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/editmine/pkg/token"
)

func TestToken_EqualIgnoresPosition(t *testing.T) {
	t.Parallel()

	a := token.Token{Content: "foo", Class: token.Identifier, LeadingSpace: 4, Offset: 10, Line: 2}
	b := token.Token{Content: "foo", Class: token.Identifier, Offset: 0, Line: 1}
	c := token.Token{Content: "foo", Class: token.String}

	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Key(), b.Key())
	assert.False(t, a.Equal(c))
}

func TestClass_Labels(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "NAME", token.Identifier.String())
	assert.Equal(t, "NUMBER", token.Number.String())
	assert.Equal(t, "UNKNOWN", token.Class(200).String())
	assert.True(t, token.Indent.IsLayout())
	assert.False(t, token.Keyword.IsLayout())
	assert.True(t, token.String.IsLiteral())
	assert.False(t, token.Operator.IsLiteral())
}

func TestClass_TextRoundTrip(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(token.New("x", token.Identifier))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"class":"NAME"`)

	var decoded token.Token
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, token.Identifier, decoded.Class)
}

func TestSequence_Significant(t *testing.T) {
	t.Parallel()

	seq := token.Sequence{
		token.New("for", token.Keyword),
		token.New("\n", token.Newline),
		token.New("  ", token.Indent),
		token.New("pass", token.Keyword),
		token.New("", token.Dedent),
	}

	sig := seq.Significant()
	assert.Equal(t, []string{"for", "pass"}, sig.Contents())
	assert.Equal(t, 1, seq.Count(token.Indent))
	assert.Equal(t, "for pass", sig.Join(" "))
}

func TestExcess(t *testing.T) {
	t.Parallel()

	seq := token.Sequence{
		token.New("a", token.Identifier),
		token.New("a", token.Identifier),
		token.New("b", token.Identifier),
	}

	budget := token.BagOf(token.Sequence{token.New("a", token.Identifier)})
	out := token.Excess(seq, budget)

	assert.Equal(t, []string{"a", "b"}, out.Contents())
	assert.Equal(t, 1, budget.Len(), "budget must not be consumed")
}
