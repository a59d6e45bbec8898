package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/editmine/pkg/abstraction"
	"github.com/Sumatoshi-tech/editmine/pkg/classify"
	"github.com/Sumatoshi-tech/editmine/pkg/detector"
	"github.com/Sumatoshi-tech/editmine/pkg/token"
)

// Tool name constants.
const (
	ToolNameCompare  = "editmine_compare"
	ToolNameAbstract = "editmine_abstract"
	ToolNameTokenize = "editmine_tokenize"
)

// Input size limits.
const (
	// MaxCodeInputBytes is the maximum allowed size for one inline snapshot (1 MB).
	MaxCodeInputBytes = 1 << 20
)

// Sentinel errors for tool input validation.
var (
	// ErrEmptyCode indicates the code parameter is empty.
	ErrEmptyCode = errors.New("code parameter is required and must not be empty")
	// ErrEmptyLanguage indicates the language parameter is empty.
	ErrEmptyLanguage = errors.New("language parameter is required and must not be empty")
	// ErrCodeTooLarge indicates the code input exceeds the size limit.
	ErrCodeTooLarge = errors.New("code input exceeds maximum size")
)

// Input types (auto-generate JSON schemas via struct tags).

// CompareInput is the input schema for the editmine_compare tool.
type CompareInput struct {
	After    string `json:"after"          jsonschema:"code after the change"`
	Before   string `json:"before"         jsonschema:"code before the change"`
	Language string `json:"language"       jsonschema:"programming language (e.g. python java go)"`
	Mode     string `json:"mode,omitempty" jsonschema:"diff set behind the flags: lcs (default), multiset or levenshtein"`
}

// AbstractInput is the input schema for the editmine_abstract tool.
type AbstractInput struct {
	After    string `json:"after"    jsonschema:"code after the change"`
	Before   string `json:"before"   jsonschema:"code before the change"`
	Language string `json:"language" jsonschema:"programming language (e.g. python java go)"`
}

// TokenizeInput is the input schema for the editmine_tokenize tool.
type TokenizeInput struct {
	Code        string `json:"code"                  jsonschema:"source code to tokenize"`
	Language    string `json:"language"              jsonschema:"programming language (e.g. python java go)"`
	Significant bool   `json:"significant,omitempty" jsonschema:"drop newline and indentation tokens"`
}

// Output type (used as structured output for generic AddTool).

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// CompareOutput is the data of an editmine_compare result.
type CompareOutput struct {
	Flags   classify.Flags `json:"flags"`
	Records []string       `json:"records"`
}

// TokenOutput is one token of an editmine_tokenize result.
type TokenOutput struct {
	Content string `json:"content"`
	Class   string `json:"class"`
	Line    int    `json:"line"`
	Offset  int    `json:"offset"`
}

func (s *Server) handleCompare(ctx context.Context, _ *mcpsdk.CallToolRequest, input CompareInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	d, err := s.pairDetector(input.Language, input.Before, input.After)
	if err != nil {
		return errorResult(err)
	}

	res, err := d.Compare(ctx, input.Before, input.After)
	if err != nil {
		return errorResult(err)
	}

	flags := res.Flags

	if input.Mode != "" {
		mode, modeErr := classify.ParseMode(input.Mode)
		if modeErr != nil {
			return errorResult(modeErr)
		}

		flags = res.Comparison.Flags(mode)
	}

	records := res.Records
	if records == nil {
		records = []string{}
	}

	return jsonResult(CompareOutput{Flags: flags, Records: records})
}

func (s *Server) handleAbstract(ctx context.Context, _ *mcpsdk.CallToolRequest, input AbstractInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	d, err := s.pairDetector(input.Language, input.Before, input.After)
	if err != nil {
		return errorResult(err)
	}

	pattern, err := d.Abstract(ctx, input.Before, input.After)
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(patternOutput(pattern))
}

func (s *Server) handleTokenize(ctx context.Context, _ *mcpsdk.CallToolRequest, input TokenizeInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := validateCodeInput(input.Code, input.Language)
	if err != nil {
		return errorResult(err)
	}

	d, err := s.detectors.Lookup(input.Language)
	if err != nil {
		return errorResult(err)
	}

	seq, err := d.Tokenize(ctx, input.Code)
	if err != nil {
		return errorResult(err)
	}

	if input.Significant {
		seq = seq.Significant()
	}

	return jsonResult(tokensOutput(seq))
}

func (s *Server) pairDetector(language, before, after string) (*detector.Detector, error) {
	if language == "" {
		return nil, ErrEmptyLanguage
	}

	for _, code := range []string{before, after} {
		if len(code) > MaxCodeInputBytes {
			return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrCodeTooLarge, len(code), MaxCodeInputBytes)
		}
	}

	return s.detectors.Lookup(language)
}

func tokensOutput(seq token.Sequence) []TokenOutput {
	out := make([]TokenOutput, len(seq))

	for i, tok := range seq {
		out[i] = TokenOutput{
			Content: tok.Content,
			Class:   tok.Class.String(),
			Line:    tok.Line,
			Offset:  tok.Offset,
		}
	}

	return out
}

// PatternOutput is the data of an editmine_abstract result.
type PatternOutput struct {
	Condition    string         `json:"condition"`
	Consequent   string         `json:"consequent"`
	Placeholders map[int]string `json:"placeholders"`
	Rename       bool           `json:"rename"`
	Degenerate   bool           `json:"degenerate"`
}

func patternOutput(p abstraction.Pattern) PatternOutput {
	placeholders := p.Placeholders
	if placeholders == nil {
		placeholders = map[int]string{}
	}

	return PatternOutput{
		Condition:    p.ConditionText(),
		Consequent:   p.ConsequentText(),
		Placeholders: placeholders,
		Rename:       p.Rename,
		Degenerate:   p.IsDegenerate(),
	}
}

// Result helpers.

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}

// validateCodeInput checks common code input constraints.
func validateCodeInput(code, language string) error {
	if code == "" {
		return ErrEmptyCode
	}

	if language == "" {
		return ErrEmptyLanguage
	}

	if len(code) > MaxCodeInputBytes {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrCodeTooLarge, len(code), MaxCodeInputBytes)
	}

	return nil
}
