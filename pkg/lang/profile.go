package lang

import (
	"unsafe"

	"github.com/alexaandru/go-sitter-forest/cpp"
	golang "github.com/alexaandru/go-sitter-forest/go"
	"github.com/alexaandru/go-sitter-forest/java"
	"github.com/alexaandru/go-sitter-forest/javascript"
	"github.com/alexaandru/go-sitter-forest/php"
	"github.com/alexaandru/go-sitter-forest/python"
)

// Profile declares how a grammar's node types map onto token classes.
type Profile struct {
	// Grammar returns the tree-sitter language handle.
	Grammar func() unsafe.Pointer

	// EntryRule is the start production; parse trees are rooted at it.
	EntryRule string

	IdentifierTypes set
	StringTypes     set
	NumberTypes     set

	// IgnoreTypes are dropped together with their subtree (comments and the like).
	IgnoreTypes set

	// AtomicTypes become one token even when the grammar gives them children.
	AtomicTypes set

	// WhitespaceSensitive enables Newline/Indent/Dedent synthesis.
	WhitespaceSensitive bool
}

type set map[string]struct{}

func setOf(items ...string) set {
	s := make(set, len(items))
	for _, item := range items {
		s[item] = struct{}{}
	}

	return s
}

func (s set) has(item string) bool {
	_, ok := s[item]

	return ok
}

// ProfileFor returns the profile of a supported language.
func ProfileFor(l Language) (Profile, error) {
	switch l {
	case Python:
		return Profile{
			Grammar:             python.GetLanguage,
			EntryRule:           "module",
			IdentifierTypes:     setOf("identifier"),
			StringTypes:         setOf("string"),
			NumberTypes:         setOf("integer", "float"),
			IgnoreTypes:         setOf("comment"),
			AtomicTypes:         setOf("string"),
			WhitespaceSensitive: true,
		}, nil
	case Java:
		return Profile{
			Grammar:         java.GetLanguage,
			EntryRule:       "program",
			IdentifierTypes: setOf("identifier", "type_identifier"),
			StringTypes:     setOf("string_literal", "character_literal", "text_block"),
			NumberTypes: setOf("decimal_integer_literal", "hex_integer_literal", "octal_integer_literal",
				"binary_integer_literal", "decimal_floating_point_literal", "hex_floating_point_literal"),
			IgnoreTypes: setOf("line_comment", "block_comment"),
			AtomicTypes: setOf("string_literal", "character_literal", "text_block"),
		}, nil
	case JavaScript:
		return Profile{
			Grammar:         javascript.GetLanguage,
			EntryRule:       "program",
			IdentifierTypes: setOf("identifier", "property_identifier", "shorthand_property_identifier"),
			StringTypes:     setOf("string", "template_string", "regex"),
			NumberTypes:     setOf("number"),
			IgnoreTypes:     setOf("comment"),
			AtomicTypes:     setOf("string", "template_string", "regex"),
		}, nil
	case CPP:
		return Profile{
			Grammar:   cpp.GetLanguage,
			EntryRule: "translation_unit",
			IdentifierTypes: setOf("identifier", "field_identifier", "type_identifier",
				"namespace_identifier"),
			StringTypes: setOf("string_literal", "raw_string_literal", "char_literal"),
			NumberTypes: setOf("number_literal"),
			IgnoreTypes: setOf("comment"),
			AtomicTypes: setOf("string_literal", "raw_string_literal", "char_literal"),
		}, nil
	case PHP:
		return Profile{
			Grammar:         php.GetLanguage,
			EntryRule:       "program",
			IdentifierTypes: setOf("variable_name", "name"),
			StringTypes:     setOf("string", "encapsed_string"),
			NumberTypes:     setOf("integer", "float"),
			IgnoreTypes:     setOf("comment"),
			AtomicTypes:     setOf("variable_name", "string", "encapsed_string"),
		}, nil
	case Go:
		return Profile{
			Grammar:   golang.GetLanguage,
			EntryRule: "source_file",
			IdentifierTypes: setOf("identifier", "field_identifier", "type_identifier",
				"package_identifier"),
			StringTypes: setOf("interpreted_string_literal", "raw_string_literal", "rune_literal"),
			NumberTypes: setOf("int_literal", "float_literal", "imaginary_literal"),
			IgnoreTypes: setOf("comment"),
			AtomicTypes: setOf("interpreted_string_literal", "raw_string_literal", "rune_literal"),
		}, nil
	}

	return Profile{}, ErrUnsupportedLanguage
}

// GrammarEntryPoint returns the start production of the language's grammar,
// or an empty string for unsupported values.
func GrammarEntryPoint(l Language) string {
	profile, err := ProfileFor(l)
	if err != nil {
		return ""
	}

	return profile.EntryRule
}
