package lang_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/editmine/pkg/lang"
)

func TestParseLanguage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want lang.Language
	}{
		{"python", lang.Python},
		{"Python", lang.Python},
		{" py ", lang.Python},
		{"java", lang.Java},
		{"js", lang.JavaScript},
		{"c++", lang.CPP},
		{"php", lang.PHP},
		{"golang", lang.Go},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := lang.ParseLanguage(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLanguage_UnknownIsAnError(t *testing.T) {
	t.Parallel()

	_, err := lang.ParseLanguage("cobol")
	require.ErrorIs(t, err, lang.ErrUnsupportedLanguage)

	_, err = lang.ParseLanguage("")
	require.ErrorIs(t, err, lang.ErrUnsupportedLanguage)
}

func TestParseLanguage_Suggestion(t *testing.T) {
	t.Parallel()

	_, err := lang.ParseLanguage("javascr")
	require.ErrorIs(t, err, lang.ErrUnsupportedLanguage)
	assert.Contains(t, err.Error(), `did you mean "javascript"`)
}

func TestLanguage_TextRoundTrip(t *testing.T) {
	t.Parallel()

	for _, l := range lang.All() {
		text, err := l.MarshalText()
		require.NoError(t, err)

		var decoded lang.Language
		require.NoError(t, decoded.UnmarshalText(text))
		assert.Equal(t, l, decoded)
	}

	_, err := lang.Language(0).MarshalText()
	require.ErrorIs(t, err, lang.ErrUnsupportedLanguage)
}

func TestDetect(t *testing.T) {
	t.Parallel()

	got, err := lang.Detect("nova/compute/manager.py", nil)
	require.NoError(t, err)
	assert.Equal(t, lang.Python, got)

	got, err = lang.Detect("src/Main.java", nil)
	require.NoError(t, err)
	assert.Equal(t, lang.Java, got)

	_, err = lang.Detect("README", nil)
	require.Error(t, err)
}

func TestProfileFor_EveryLanguage(t *testing.T) {
	t.Parallel()

	for _, l := range lang.All() {
		profile, err := lang.ProfileFor(l)
		require.NoError(t, err, l.String())
		assert.NotEmpty(t, profile.EntryRule)
		assert.NotNil(t, profile.Grammar)
		assert.Equal(t, profile.EntryRule, lang.GrammarEntryPoint(l))
	}

	_, err := lang.ProfileFor(lang.Language(99))
	require.ErrorIs(t, err, lang.ErrUnsupportedLanguage)
	assert.Empty(t, lang.GrammarEntryPoint(lang.Language(99)))
}

func TestProfileFor_OnlyPythonIsWhitespaceSensitive(t *testing.T) {
	t.Parallel()

	for _, l := range lang.All() {
		profile, err := lang.ProfileFor(l)
		require.NoError(t, err)
		assert.Equal(t, l == lang.Python, profile.WhitespaceSensitive, l.String())
	}
}
