package commands_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/editmine/cmd/editmine/commands"
	"github.com/Sumatoshi-tech/editmine/pkg/config"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	cmd := commands.NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))

	err := cmd.Execute()

	return out.String(), err
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestMine_MissingIndexPrintsUsage(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "", "mine")
	require.ErrorIs(t, err, commands.ErrIndexRequired)
	assert.Contains(t, out, "Usage:")
	assert.Contains(t, out, "mine <index.csv>")
}

func TestMine_EndToEnd(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "shard/r1/a.py.json",
		`{"change_type": "MODIFIED", "content": [{"a": ["foo(x)"], "b": ["bar(x)"]}]}`)
	index := writeFile(t, dir, "index.csv",
		"ch_id,ch_change_id,ch_author_account_id,rev_change_id,f_file_name,rev_id_y\n1,I1,2,3,a.py,r1\n")
	outDir := filepath.Join(dir, "out")

	out, err := execute(t, "", "mine", index,
		"-r", filepath.Join(dir, "shard"), "-o", outDir, "--classify", "--json")
	require.NoError(t, err)

	var summary struct {
		Rows  int      `json:"rows"`
		Mined int      `json:"mined"`
		Files []string `json:"files"`
	}

	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, 1, summary.Rows)
	assert.Equal(t, 1, summary.Mined)
	assert.Equal(t, []string{filepath.Join(outDir, "out_0.json")}, summary.Files)

	data, err := os.ReadFile(summary.Files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"name_change": true`)
}

func TestMine_InvalidFlagValue(t *testing.T) {
	t.Parallel()

	_, err := execute(t, "", "mine", "index.csv", "--batch-size", "-1")
	assert.ErrorIs(t, err, config.ErrInvalidBatchSize)
}

func TestCompare_Table(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	before := writeFile(t, dir, "old.py", "foo = 0\n")
	after := writeFile(t, dir, "new.py", "bar += 1\n")

	out, err := execute(t, "", "compare", before, after)
	require.NoError(t, err)
	assert.Contains(t, out, "python:")
	assert.Contains(t, out, "name change")
	assert.Contains(t, out, "* foo = 0 --> bar += 1")
}

func TestCompare_JSONFromStdin(t *testing.T) {
	t.Parallel()

	after := writeFile(t, t.TempDir(), "new.txt", "b + a")

	out, err := execute(t, "a + b", "compare", "-", after, "-l", "python", "--mode", "multiset", "-f", "json")
	require.NoError(t, err)

	var report struct {
		Language string `json:"language"`
		Flags    struct {
			Mode       string `json:"mode"`
			Comparable bool   `json:"comparable"`
			NotDup     int    `json:"not_dup"`
		} `json:"flags"`
	}

	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "python", report.Language)
	assert.Equal(t, "multiset", report.Flags.Mode)
	assert.True(t, report.Flags.Comparable)
	assert.Zero(t, report.Flags.NotDup)
}

func TestCompare_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := writeFile(t, dir, "a.py", "x = 1")

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"format", []string{"compare", file, file, "-f", "xml"}, commands.ErrUnknownFormat},
		{"stdin twice", []string{"compare", "-", "-"}, commands.ErrStdinTwice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := execute(t, "", tt.args...)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := execute(t, "", "compare", file, filepath.Join(dir, "missing.py"))
	assert.Error(t, err)

	binary := writeFile(t, dir, "b.py", "x = 1\x00\x01")

	_, err = execute(t, "", "compare", file, binary)
	assert.ErrorIs(t, err, commands.ErrBinarySnapshot)
}

func TestAbstract_Formats(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	before := writeFile(t, dir, "old.py", `print("hello", 2)`)
	after := writeFile(t, dir, "new.py", `printf("hello", hhh)`)

	out, err := execute(t, "", "abstract", before, after)
	require.NoError(t, err)
	assert.Contains(t, out, `print(${1:"hello"}, 2)`)
	assert.Contains(t, out, `${1} = "hello"`)

	out, err = execute(t, "", "abstract", before, after, "-f", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "condition:")
	assert.Contains(t, out, "placeholders:")
}

func TestTokens_JSON(t *testing.T) {
	t.Parallel()

	file := writeFile(t, t.TempDir(), "a.py", "if x >= 0:\n    y = 1\n")

	out, err := execute(t, "", "tokens", file, "-s", "-f", "json")
	require.NoError(t, err)

	var tokens []struct {
		Content string `json:"content"`
		Class   string `json:"class"`
	}

	require.NoError(t, json.Unmarshal([]byte(out), &tokens))
	require.Len(t, tokens, 8)
	assert.Equal(t, "KEYWORD", tokens[0].Class)
	assert.Equal(t, "y", tokens[5].Content)
}

func TestTokens_Table(t *testing.T) {
	t.Parallel()

	file := writeFile(t, t.TempDir(), "Main.java", "class A {}")

	out, err := execute(t, "", "tokens", file)
	require.NoError(t, err)
	assert.Contains(t, out, `"class"`)
	assert.Contains(t, out, "TOTAL")
}

func TestLines(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	before := writeFile(t, dir, "old.py", "a = 1\nb = 2\n")
	after := writeFile(t, dir, "new.py", "a = 1\nb = 20\n")

	out, err := execute(t, "", "lines", before, after)
	require.NoError(t, err)
	assert.Contains(t, out, "= b =")
	assert.Contains(t, out, "* 2 --> 20")
	assert.NotContains(t, out, "a = 1")
}

func TestVersion(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "editmine "))
}
