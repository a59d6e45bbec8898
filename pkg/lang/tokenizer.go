package lang

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Sumatoshi-tech/editmine/pkg/safeconv"
	"github.com/Sumatoshi-tech/editmine/pkg/token"
)

// Sentinel errors for tokenizer operations.
var (
	errGrammarNotAvailable = errors.New("tree-sitter grammar not available")
	errNoRootNode          = errors.New("no root node")
	errPoolType            = errors.New("parser pool returned unexpected type")
)

var grammarCache sync.Map

func grammarFor(l Language, profile Profile) *sitter.Language {
	if cached, ok := grammarCache.Load(l); ok {
		if grammar, castOK := cached.(*sitter.Language); castOK {
			return grammar
		}
	}

	var grammar *sitter.Language

	func() {
		defer func() {
			_ = recover() //nolint:errcheck // a broken grammar binding reports as unavailable
		}()

		grammar = sitter.NewLanguage(profile.Grammar())
	}()

	if grammar != nil {
		grammarCache.Store(l, grammar)
	}

	return grammar
}

// Tokenizer turns source text of one language into token sequences.
// It is safe for concurrent use.
type Tokenizer struct {
	logger   *slog.Logger
	profile  Profile
	pool     sync.Pool
	language Language
}

// TokenizerOption configures a Tokenizer.
type TokenizerOption func(*Tokenizer)

// WithLogger sets the logger used to report parse failures.
func WithLogger(logger *slog.Logger) TokenizerOption {
	return func(t *Tokenizer) {
		t.logger = logger
	}
}

// NewTokenizer creates a tokenizer for a supported language.
func NewTokenizer(l Language, opts ...TokenizerOption) (*Tokenizer, error) {
	profile, err := ProfileFor(l)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, l)
	}

	grammar := grammarFor(l, profile)
	if grammar == nil {
		return nil, fmt.Errorf("%w: %s", errGrammarNotAvailable, l)
	}

	tk := &Tokenizer{
		logger:   slog.Default(),
		profile:  profile,
		language: l,
	}

	tk.pool = sync.Pool{
		New: func() any {
			parser := sitter.NewParser()
			parser.SetLanguage(grammar)

			return parser
		},
	}

	for _, opt := range opts {
		opt(tk)
	}

	return tk, nil
}

// Language returns the tokenizer's language.
func (t *Tokenizer) Language() Language {
	return t.language
}

// Profile returns the tokenizer's language profile.
func (t *Tokenizer) Profile() Profile {
	return t.profile
}

// Tokenize returns the token sequence of source. It never fails: any parse
// failure yields an empty sequence, which callers treat as not comparable.
func (t *Tokenizer) Tokenize(ctx context.Context, source string) token.Sequence {
	seq, err := t.tokenize(ctx, source)
	if err != nil {
		t.logger.DebugContext(ctx, "tokenize failed", "language", t.language.String(), "error", err)

		return token.Sequence{}
	}

	return seq
}

// TokenCount returns the number of significant tokens in source.
func (t *Tokenizer) TokenCount(ctx context.Context, source string) int {
	return len(t.Tokenize(ctx, source).Significant())
}

func (t *Tokenizer) tokenize(ctx context.Context, source string) (token.Sequence, error) {
	err := ctx.Err()
	if err != nil {
		return nil, fmt.Errorf("tokenize: %w", err)
	}

	code := []byte(Normalize(source))
	if len(code) == 0 {
		return token.Sequence{}, nil
	}

	parser, ok := t.pool.Get().(*sitter.Parser)
	if !ok {
		return nil, errPoolType
	}

	defer t.pool.Put(parser)

	tree, err := parser.ParseString(ctx, nil, code)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", t.language, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.IsNull() {
		return nil, errNoRootNode
	}

	w := &walker{
		profile: &t.profile,
		code:    code,
		indents: []int{0},
	}

	w.walk(root)
	w.finish()

	return w.out, nil
}

// walker flattens a parse tree into tokens, synthesizing layout tokens for
// whitespace-sensitive languages.
type walker struct {
	profile *Profile
	code    []byte
	out     token.Sequence
	indents []int
	prevEnd int
	prevRow int
	depth   int
	started bool
}

func (w *walker) walk(n sitter.Node) {
	typ := n.Type()
	if w.profile.IgnoreTypes.has(typ) {
		return
	}

	if n.ChildCount() == 0 || w.profile.AtomicTypes.has(typ) {
		w.leaf(n, typ)

		return
	}

	for i := range n.ChildCount() {
		w.walk(n.Child(i))
	}
}

func (w *walker) leaf(n sitter.Node, typ string) {
	start := safeconv.MustUintToInt(uint(n.StartByte()))
	end := safeconv.MustUintToInt(uint(n.EndByte()))

	// Missing nodes and scanner bookkeeping tokens have no width.
	if end <= start {
		return
	}

	content := string(w.code[start:end])
	if strings.TrimSpace(content) == "" {
		return
	}

	point := n.StartPoint()
	row := safeconv.MustUintToInt(uint(point.Row))
	col := safeconv.MustUintToInt(uint(point.Column))

	leading := col
	if w.started && row == w.prevRow {
		leading = start - w.prevEnd
	}

	if w.profile.WhitespaceSensitive && w.started && row > w.prevRow && w.layout(start, col) {
		leading = 0
	}

	class := classOf(w.profile, typ, content)

	w.out = append(w.out, token.Token{
		Content:      content,
		Class:        class,
		LeadingSpace: leading,
		Offset:       start,
		Line:         row + 1,
	})

	w.prevEnd = end
	w.prevRow = safeconv.MustUintToInt(uint(n.EndPoint().Row))
	w.started = true

	if class == token.Other {
		w.trackBrackets(content)
	}
}

// layout emits one Newline per skipped line break and Indent/Dedent tokens
// for indentation changes outside brackets. It reports whether an Indent
// token now covers the indentation of the line.
func (w *walker) layout(start, col int) bool {
	row := w.prevRow

	for i := w.prevEnd; i < start; i++ {
		if w.code[i] != '\n' {
			continue
		}

		w.out = append(w.out, token.Token{Content: "\n", Class: token.Newline, Offset: i, Line: row + 1})
		row++
	}

	if w.depth > 0 {
		return false
	}

	top := w.indents[len(w.indents)-1]

	switch {
	case col > top:
		w.indents = append(w.indents, col)
		w.out = append(w.out, token.Token{
			Content: string(w.code[start-col : start]),
			Class:   token.Indent,
			Offset:  start - col,
			Line:    row + 1,
		})

		return true
	case col < top:
		for len(w.indents) > 1 && col < w.indents[len(w.indents)-1] {
			w.indents = w.indents[:len(w.indents)-1]
			w.out = append(w.out, token.Token{Class: token.Dedent, Offset: start, Line: row + 1})
		}
	}

	return false
}

func (w *walker) finish() {
	if !w.profile.WhitespaceSensitive {
		return
	}

	for len(w.indents) > 1 {
		w.indents = w.indents[:len(w.indents)-1]
		w.out = append(w.out, token.Token{Class: token.Dedent, Offset: len(w.code), Line: w.prevRow + 1})
	}
}

func (w *walker) trackBrackets(content string) {
	switch content {
	case "(", "[", "{":
		w.depth++
	case ")", "]", "}":
		if w.depth > 0 {
			w.depth--
		}
	}
}

func classOf(profile *Profile, typ, content string) token.Class {
	switch {
	case profile.IdentifierTypes.has(typ):
		return token.Identifier
	case profile.StringTypes.has(typ):
		return token.String
	case profile.NumberTypes.has(typ):
		return token.Number
	case isWord(content):
		return token.Keyword
	case token.IsOperator(content):
		return token.Operator
	default:
		return token.Other
	}
}

func isWord(content string) bool {
	for i, r := range content {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}

		return false
	}

	return content != ""
}
