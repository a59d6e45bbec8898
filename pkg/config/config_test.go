package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/editmine/pkg/classify"
	"github.com/Sumatoshi-tech/editmine/pkg/config"
	"github.com/Sumatoshi-tech/editmine/pkg/lang"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "editmine.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, config.DefaultLanguage, cfg.Language)
	assert.Equal(t, config.DefaultBatchSize, cfg.Output.BatchSize)
	assert.Equal(t, config.DefaultOutputPrefix, cfg.Output.Prefix)
	assert.Equal(t, config.DefaultMaxTokens, cfg.Limits.MaxTokens)
	assert.Equal(t, config.DefaultPort, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.False(t, cfg.Output.Compress)
	assert.Empty(t, cfg.RevisionDirs)

	l, err := cfg.ParsedLanguage()
	require.NoError(t, err)
	assert.Equal(t, lang.Python, l)

	m, err := cfg.ParsedMode()
	require.NoError(t, err)
	assert.Equal(t, classify.ModeLCS, m)

	limit, err := cfg.BodyLimit()
	require.NoError(t, err)
	assert.Equal(t, int64(1<<20), limit)
}

func TestDefault_MatchesLoad(t *testing.T) {
	t.Parallel()

	loaded, err := config.Load(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, loaded, config.Default())
	require.NoError(t, config.Default().Validate())
}

func TestLoad_FromFile(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load(writeConfig(t, `
language: java
revision_dirs: [/data/rev1, /data/rev2]
output:
  dir: /tmp/out
  batch_size: 50
  compress: true
limits:
  max_tokens: 500
mine:
  classify: true
  abstract: true
  mode: multiset
server:
  port: 9000
  max_body_size: 256KiB
`))
	require.NoError(t, err)

	assert.Equal(t, "java", cfg.Language)
	assert.Equal(t, []string{"/data/rev1", "/data/rev2"}, cfg.RevisionDirs)
	assert.Equal(t, "/tmp/out", cfg.Output.Dir)
	assert.Equal(t, 50, cfg.Output.BatchSize)
	assert.True(t, cfg.Output.Compress)
	assert.Equal(t, 500, cfg.Limits.MaxTokens)
	assert.True(t, cfg.Mine.Classify)
	assert.True(t, cfg.Mine.Abstract)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr())

	m, err := cfg.ParsedMode()
	require.NoError(t, err)
	assert.Equal(t, classify.ModeMultiset, m)

	limit, err := cfg.BodyLimit()
	require.NoError(t, err)
	assert.Equal(t, int64(256<<10), limit)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("EDITMINE_OUTPUT_BATCH_SIZE", "7")
	t.Setenv("EDITMINE_LANGUAGE", "go")

	cfg, err := config.Load(writeConfig(t, "output:\n  batch_size: 50\n"))
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Output.BatchSize)
	assert.Equal(t, "go", cfg.Language)
}

func TestLoad_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    error
	}{
		{"language", "language: cobol\n", lang.ErrUnsupportedLanguage},
		{"mode", "mine:\n  mode: tree\n", classify.ErrUnknownMode},
		{"batch", "output:\n  batch_size: 0\n", config.ErrInvalidBatchSize},
		{"prefix", "output:\n  prefix: \"  \"\n", config.ErrEmptyPrefix},
		{"tokens", "limits:\n  max_tokens: -1\n", config.ErrInvalidMaxTokens},
		{"workers", "mine:\n  workers: -2\n", config.ErrInvalidWorkers},
		{"cache", "cache:\n  revision_entries: 0\n", config.ErrInvalidCacheSize},
		{"ratio", "telemetry:\n  sample_ratio: 1.5\n", config.ErrInvalidSampleRatio},
		{"port", "server:\n  port: 70000\n", config.ErrInvalidPort},
		{"body", "server:\n  max_body_size: lots\n", config.ErrInvalidBodySize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.Load(writeConfig(t, tt.content))
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	t.Parallel()

	_, err := config.Load(writeConfig(t, "output: [unclosed\n"))
	require.Error(t, err)
}
