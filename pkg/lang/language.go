// Package lang adapts tree-sitter grammars into normalized token sequences.
// Each supported language is an explicit entry of a closed variant; there is
// no fallback grammar for unknown names.
package lang

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/src-d/enry/v2"
)

// Language identifies a supported source language.
type Language uint8

// Supported languages.
const (
	Python Language = iota + 1
	Java
	JavaScript
	CPP
	PHP
	Go
)

// Sentinel errors for language selection.
var (
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrUndetectedLanguage  = errors.New("cannot detect language")
)

var languageNames = map[Language]string{
	Python:     "python",
	Java:       "java",
	JavaScript: "javascript",
	CPP:        "cpp",
	PHP:        "php",
	Go:         "go",
}

var languageAliases = map[string]Language{
	"python":     Python,
	"py":         Python,
	"python3":    Python,
	"java":       Java,
	"javascript": JavaScript,
	"js":         JavaScript,
	"cpp":        CPP,
	"c++":        CPP,
	"cxx":        CPP,
	"php":        PHP,
	"go":         Go,
	"golang":     Go,
}

// enryNames maps linguist language names to supported languages.
var enryNames = map[string]Language{
	"Python":     Python,
	"Java":       Java,
	"JavaScript": JavaScript,
	"C++":        CPP,
	"PHP":        PHP,
	"Go":         Go,
}

// All returns every supported language in declaration order.
func All() []Language {
	return []Language{Python, Java, JavaScript, CPP, PHP, Go}
}

// String returns the canonical lower-case name.
func (l Language) String() string {
	if name, ok := languageNames[l]; ok {
		return name
	}

	return fmt.Sprintf("language(%d)", uint8(l))
}

// MarshalText encodes the canonical name.
func (l Language) MarshalText() ([]byte, error) {
	if _, ok := languageNames[l]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedLanguage, uint8(l))
	}

	return []byte(l.String()), nil
}

// UnmarshalText decodes a language name or alias.
func (l *Language) UnmarshalText(text []byte) error {
	parsed, err := ParseLanguage(string(text))
	if err != nil {
		return err
	}

	*l = parsed

	return nil
}

// ParseLanguage resolves a language name or alias, case-insensitively.
// Unknown names fail with ErrUnsupportedLanguage and a suggestion when one
// of the supported names is close.
func ParseLanguage(name string) (Language, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if lang, ok := languageAliases[key]; ok {
		return lang, nil
	}

	if hint := suggest(key); hint != "" {
		return 0, fmt.Errorf("%w: %q (did you mean %q?)", ErrUnsupportedLanguage, name, hint)
	}

	return 0, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, name)
}

func suggest(name string) string {
	if name == "" {
		return ""
	}

	targets := make([]string, 0, len(languageAliases))
	for alias := range languageAliases {
		targets = append(targets, alias)
	}

	sort.Strings(targets)

	ranks := fuzzy.RankFindNormalizedFold(name, targets)
	if len(ranks) == 0 {
		return ""
	}

	sort.Sort(ranks)

	return languageAliases[ranks[0].Target].String()
}

// Detect resolves the language of a file from its name, using content as a
// tie-breaker when the extension is ambiguous. content may be nil.
func Detect(filename string, content []byte) (Language, error) {
	name := enry.GetLanguage(filepath.Base(filename), content)
	if name == "" {
		return 0, fmt.Errorf("%w: %s", ErrUndetectedLanguage, filename)
	}

	lang, ok := enryNames[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s (%s)", ErrUnsupportedLanguage, name, filename)
	}

	return lang, nil
}
