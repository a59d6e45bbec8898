// Package token defines the normalized token model shared by every diff and
// abstraction engine: a token is a piece of literal text with a semantic class.
package token

// Class is the semantic class of a token.
type Class uint8

// Token classes.
const (
	Other Class = iota
	Identifier
	String
	Number
	Operator
	Keyword
	Newline
	Indent
	Dedent
)

var classNames = [...]string{
	Other:      "OTHER",
	Identifier: "NAME",
	String:     "STRING",
	Number:     "NUMBER",
	Operator:   "OPERATOR",
	Keyword:    "KEYWORD",
	Newline:    "NEWLINE",
	Indent:     "INDENT",
	Dedent:     "DEDENT",
}

// String returns the upper-case label of the class.
func (c Class) String() string {
	if int(c) < len(classNames) {
		return classNames[c]
	}

	return "UNKNOWN"
}

// IsLayout reports whether the class only carries vertical structure.
func (c Class) IsLayout() bool {
	return c == Newline || c == Indent || c == Dedent
}

// IsLiteral reports whether the class is one of the renamable roles:
// identifiers, strings and numbers.
func (c Class) IsLiteral() bool {
	return c == Identifier || c == String || c == Number
}

// Token is the smallest lexical unit. Tokens are values and never mutated
// after the tokenizer produced them.
type Token struct {
	Content      string `json:"content"`
	Class        Class  `json:"class"`
	LeadingSpace int    `json:"leading_space"`
	Offset       int    `json:"offset"`
	Line         int    `json:"line"`
}

// Key is the equality key of a token. Position and spacing are excluded.
type Key struct {
	Content string
	Class   Class
}

// New creates a token with no position information.
func New(content string, class Class) Token {
	return Token{Content: content, Class: class}
}

// Key returns the (content, class) equality key.
func (t Token) Key() Key {
	return Key{Content: t.Content, Class: t.Class}
}

// Equal compares two tokens by content and class.
func (t Token) Equal(other Token) bool {
	return t.Content == other.Content && t.Class == other.Class
}

// End returns the byte offset just past the token.
func (t Token) End() int {
	return t.Offset + len(t.Content)
}

// String renders the token as "CLASS:content".
func (t Token) String() string {
	return t.Class.String() + ":" + t.Content
}

// MarshalText encodes the class as its label.
func (c Class) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes a class label. Unknown labels decode to Other.
func (c *Class) UnmarshalText(text []byte) error {
	label := string(text)

	for i, name := range classNames {
		if name == label {
			*c = Class(i)

			return nil
		}
	}

	*c = Other

	return nil
}
