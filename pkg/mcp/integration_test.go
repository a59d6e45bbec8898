package mcp_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/editmine/pkg/detector"
	"github.com/Sumatoshi-tech/editmine/pkg/mcp"
)

// connect starts srv on an in-memory transport and returns a client session.
func connect(t *testing.T, srv *mcp.Server) *mcpsdk.ClientSession {
	t.Helper()

	clientTransport, serverTransport := mcpsdk.NewInMemoryTransports()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)

	serverDone := make(chan error, 1)

	go func() {
		serverDone <- srv.RunWithTransport(ctx, serverTransport)
	}()

	client := mcpsdk.NewClient(&mcpsdk.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = session.Close()

		cancel()
		<-serverDone
	})

	return session
}

func callTool(t *testing.T, session *mcpsdk.ClientSession, name string, args map[string]any) *mcpsdk.CallToolResult {
	t.Helper()

	result, err := session.CallTool(context.Background(), &mcpsdk.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)

	return result
}

func textOf(t *testing.T, result *mcpsdk.CallToolResult) string {
	t.Helper()

	text, ok := result.Content[0].(*mcpsdk.TextContent)
	require.True(t, ok)

	return text.Text
}

func TestMCPServer_ListToolNames(t *testing.T) {
	t.Parallel()

	srv := mcp.NewServer(mcp.ServerDeps{})

	assert.Equal(t, []string{"editmine_abstract", "editmine_compare", "editmine_tokenize"}, srv.ListToolNames())
}

func TestMCPServer_InMemoryTransport_ToolsList(t *testing.T) {
	t.Parallel()

	session := connect(t, mcp.NewServer(mcp.ServerDeps{}))

	toolsResult, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)
	require.NotNil(t, toolsResult)

	toolNames := make([]string, 0, len(toolsResult.Tools))
	for _, tool := range toolsResult.Tools {
		toolNames = append(toolNames, tool.Name)
		assert.NotNil(t, tool.InputSchema, "tool %s missing input schema", tool.Name)
	}

	assert.ElementsMatch(t, []string{mcp.ToolNameCompare, mcp.ToolNameAbstract, mcp.ToolNameTokenize}, toolNames)
}

func TestMCPServer_CallCompare(t *testing.T) {
	t.Parallel()

	session := connect(t, mcp.NewServer(mcp.ServerDeps{}))

	result := callTool(t, session, mcp.ToolNameCompare, map[string]any{
		"before":   "foo = 0",
		"after":    "bar += 1",
		"language": "python",
	})
	require.False(t, result.IsError, textOf(t, result))

	var out struct {
		Flags struct {
			Comparable bool `json:"comparable"`
			NameChange bool `json:"name_change"`
			NotLCS     int  `json:"not_lcs"`
		} `json:"flags"`
		Records []string `json:"records"`
	}

	require.NoError(t, json.Unmarshal([]byte(textOf(t, result)), &out))
	assert.True(t, out.Flags.Comparable)
	assert.True(t, out.Flags.NameChange)
	assert.Equal(t, 6, out.Flags.NotLCS)
	assert.Equal(t, []string{"* foo = 0 --> bar += 1"}, out.Records)
}

func TestMCPServer_CallCompare_Errors(t *testing.T) {
	t.Parallel()

	session := connect(t, mcp.NewServer(mcp.ServerDeps{
		Detectors: detector.NewRegistry(detector.WithMaxTokens(3)),
	}))

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"empty language", map[string]any{"before": "a", "after": "b", "language": ""}, "language parameter"},
		{"unknown language", map[string]any{"before": "a", "after": "b", "language": "cobol"}, "unsupported language"},
		{"unknown mode", map[string]any{"before": "a", "after": "b", "language": "python", "mode": "tree"}, "unknown"},
		{"too many tokens", map[string]any{"before": "a = b + c", "after": "b", "language": "python"}, "token limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := callTool(t, session, mcp.ToolNameCompare, tt.args)
			assert.True(t, result.IsError)
			assert.Contains(t, textOf(t, result), tt.want)
		})
	}
}

func TestMCPServer_CallAbstract(t *testing.T) {
	t.Parallel()

	session := connect(t, mcp.NewServer(mcp.ServerDeps{}))

	result := callTool(t, session, mcp.ToolNameAbstract, map[string]any{
		"before":   `print("hello", 2)`,
		"after":    `printf("hello", hhh)`,
		"language": "python",
	})
	require.False(t, result.IsError, textOf(t, result))

	var out mcp.PatternOutput

	require.NoError(t, json.Unmarshal([]byte(textOf(t, result)), &out))
	assert.Equal(t, `print(${1:"hello"}, 2)`, out.Condition)
	assert.Equal(t, `printf(${1:"hello"}, hhh)`, out.Consequent)
	assert.Equal(t, map[int]string{1: `"hello"`}, out.Placeholders)
	assert.False(t, out.Degenerate)
}

func TestMCPServer_CallTokenize(t *testing.T) {
	t.Parallel()

	session := connect(t, mcp.NewServer(mcp.ServerDeps{}))

	result := callTool(t, session, mcp.ToolNameTokenize, map[string]any{
		"code":        "if x >= 0:\n    y = 'a'\n",
		"language":    "python",
		"significant": true,
	})
	require.False(t, result.IsError, textOf(t, result))

	var out []mcp.TokenOutput

	require.NoError(t, json.Unmarshal([]byte(textOf(t, result)), &out))

	classes := make([]string, len(out))
	for i, tok := range out {
		classes[i] = tok.Class
	}

	assert.Equal(t, "KEYWORD NAME OPERATOR NUMBER OTHER NAME OPERATOR STRING", strings.Join(classes, " "))
	assert.Equal(t, 2, out[len(out)-1].Line)
}

func TestMCPServer_CallTokenize_EmptyCode(t *testing.T) {
	t.Parallel()

	session := connect(t, mcp.NewServer(mcp.ServerDeps{}))

	result := callTool(t, session, mcp.ToolNameTokenize, map[string]any{
		"code":     "",
		"language": "python",
	})
	assert.True(t, result.IsError)
	assert.Contains(t, textOf(t, result), "code parameter")
}
