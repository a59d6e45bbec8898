package lang_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/editmine/pkg/lang"
	"github.com/Sumatoshi-tech/editmine/pkg/token"
)

func newPython(t *testing.T) *lang.Tokenizer {
	t.Helper()

	tk, err := lang.NewTokenizer(lang.Python)
	require.NoError(t, err)

	return tk
}

func TestTokenize_IfStatement(t *testing.T) {
	t.Parallel()

	tk := newPython(t)
	seq := tk.Tokenize(context.Background(), "if X >= 0:")

	sig := seq.Significant()
	require.Len(t, sig, 5)
	assert.Equal(t, []string{"if", "X", ">=", "0", ":"}, sig.Contents())
	assert.Equal(t, token.Keyword, sig[0].Class)
	assert.Equal(t, token.Identifier, sig[1].Class)
	assert.Equal(t, token.Operator, sig[2].Class)
	assert.Equal(t, token.Number, sig[3].Class)
	assert.Equal(t, token.Other, sig[4].Class)
	assert.Equal(t, 5, tk.TokenCount(context.Background(), "if X >= 0:"))
}

func TestTokenize_ForLoopLayout(t *testing.T) {
	t.Parallel()

	tk := newPython(t)
	code := `for x in range(5):
                        pass `

	seq := tk.Tokenize(context.Background(), code)

	assert.Equal(t, 9, tk.TokenCount(context.Background(), code))
	assert.Equal(t, 1, seq.Count(token.Indent))
	assert.Equal(t, 1, seq.Count(token.Dedent))
	assert.Equal(t, 1, seq.Count(token.Newline))
	assert.Equal(t,
		[]string{"for", "x", "in", "range", "(", "5", ")", ":", "pass"},
		seq.Significant().Contents())
}

func TestTokenize_SpacingAndLines(t *testing.T) {
	t.Parallel()

	tk := newPython(t)
	seq := tk.Tokenize(context.Background(), "foo  = 0\nbar = 1")

	require.NotEmpty(t, seq)
	assert.Equal(t, 0, seq[0].LeadingSpace)
	assert.Equal(t, 2, seq[1].LeadingSpace)
	assert.Equal(t, 1, seq[1].Line)

	last := seq[len(seq)-1]
	assert.Equal(t, "1", last.Content)
	assert.Equal(t, 2, last.Line)

	for i := 1; i < len(seq); i++ {
		assert.GreaterOrEqual(t, seq[i].Line, seq[i-1].Line, "lines must not decrease")
		assert.GreaterOrEqual(t, seq[i].Offset, seq[i-1].End(), "spans must not overlap")
	}
}

func TestTokenize_StringIsOneToken(t *testing.T) {
	t.Parallel()

	tk := newPython(t)
	sig := tk.Tokenize(context.Background(), `print("hello world!")`).Significant()

	require.Len(t, sig, 4)
	assert.Equal(t, token.String, sig[2].Class)
	assert.Equal(t, `"hello world!"`, sig[2].Content)
}

func TestTokenize_CommentsIgnored(t *testing.T) {
	t.Parallel()

	tk := newPython(t)
	sig := tk.Tokenize(context.Background(), "a = 1  # set a").Significant()

	assert.Equal(t, []string{"a", "=", "1"}, sig.Contents())
}

func TestTokenize_NoIndentInsideBrackets(t *testing.T) {
	t.Parallel()

	tk := newPython(t)
	seq := tk.Tokenize(context.Background(), "f(a,\n    b)")

	assert.Zero(t, seq.Count(token.Indent))
	assert.Equal(t, 1, seq.Count(token.Newline))
}

func TestTokenize_EmptyInput(t *testing.T) {
	t.Parallel()

	tk := newPython(t)
	assert.Empty(t, tk.Tokenize(context.Background(), ""))
	assert.Empty(t, tk.Tokenize(context.Background(), "   \n  "))
}

func TestTokenize_CanceledContextIsEmpty(t *testing.T) {
	t.Parallel()

	tk := newPython(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Empty(t, tk.Tokenize(ctx, "a = 1"))
}

func TestTokenize_BraceLanguagesHaveNoLayoutTokens(t *testing.T) {
	t.Parallel()

	tk, err := lang.NewTokenizer(lang.Java)
	require.NoError(t, err)

	seq := tk.Tokenize(context.Background(), "class A {\n  int x = 1;\n}")

	require.NotEmpty(t, seq)
	assert.Len(t, seq.Significant(), len(seq))
	assert.Equal(t, lang.Java, tk.Language())
	assert.Contains(t, seq.Contents(), "x")
}

func TestTokenize_ConcurrentUse(t *testing.T) {
	t.Parallel()

	tk := newPython(t)
	done := make(chan int, 8)

	for range 8 {
		go func() {
			done <- tk.TokenCount(context.Background(), "if X >= 0:")
		}()
	}

	for range 8 {
		assert.Equal(t, 5, <-done)
	}
}
