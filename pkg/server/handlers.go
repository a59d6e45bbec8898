package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Sumatoshi-tech/editmine/pkg/abstraction"
	"github.com/Sumatoshi-tech/editmine/pkg/classify"
	"github.com/Sumatoshi-tech/editmine/pkg/detector"
	"github.com/Sumatoshi-tech/editmine/pkg/lang"
	"github.com/Sumatoshi-tech/editmine/pkg/linediff"
	"github.com/Sumatoshi-tech/editmine/pkg/token"
)

// PairRequest is the body of the compare, abstract and lines endpoints.
type PairRequest struct {
	Before   string `json:"before"`
	After    string `json:"after"`
	Language string `json:"language,omitempty"`
	Mode     string `json:"mode,omitempty"`
}

// TokenizeRequest is the body of the tokenize endpoint.
type TokenizeRequest struct {
	Code        string `json:"code"`
	Language    string `json:"language,omitempty"`
	Significant bool   `json:"significant,omitempty"`
}

// CompareResponse answers /api/compare.
type CompareResponse struct {
	Language   lang.Language  `json:"language"`
	Flags      classify.Flags `json:"flags"`
	Records    []string       `json:"records"`
	NotLCS     []string       `json:"not_lcs"`
	NotDup     []string       `json:"not_dup"`
	EditScript []string       `json:"edit_script"`
}

// AbstractResponse answers /api/abstract.
type AbstractResponse struct {
	abstraction.Pattern

	Degenerate bool `json:"degenerate"`
}

// TokenizeResponse answers /api/tokenize.
type TokenizeResponse struct {
	Language lang.Language  `json:"language"`
	Tokens   token.Sequence `json:"tokens"`
}

// LinesResponse answers /api/lines.
type LinesResponse struct {
	Hunks   []linediff.Hunk `json:"hunks"`
	Records []string        `json:"records"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

var errEmptyCode = errors.New("code must not be empty")

func (s *Server) handleCompare(rw http.ResponseWriter, hr *http.Request) {
	var req PairRequest
	if !s.decode(rw, hr, &req) {
		return
	}

	d, err := s.detector(req.Language)
	if err != nil {
		s.fail(rw, hr, err)

		return
	}

	res, err := d.Compare(hr.Context(), req.Before, req.After)
	if err != nil {
		s.fail(rw, hr, err)

		return
	}

	flags := res.Flags

	if req.Mode != "" {
		mode, modeErr := classify.ParseMode(req.Mode)
		if modeErr != nil {
			s.fail(rw, hr, modeErr)

			return
		}

		flags = res.Comparison.Flags(mode)
	}

	s.reply(rw, hr, http.StatusOK, CompareResponse{
		Language:   d.Language(),
		Flags:      flags,
		Records:    nonNil(res.Records),
		NotLCS:     nonNil(res.Comparison.NotLCS().Contents()),
		NotDup:     nonNil(res.Comparison.NotDup().Contents()),
		EditScript: nonNil(res.Comparison.EditScript().Contents()),
	})
}

func (s *Server) handleAbstract(rw http.ResponseWriter, hr *http.Request) {
	var req PairRequest
	if !s.decode(rw, hr, &req) {
		return
	}

	d, err := s.detector(req.Language)
	if err != nil {
		s.fail(rw, hr, err)

		return
	}

	pattern, err := d.Abstract(hr.Context(), req.Before, req.After)
	if err != nil {
		s.fail(rw, hr, err)

		return
	}

	s.reply(rw, hr, http.StatusOK, AbstractResponse{Pattern: pattern, Degenerate: pattern.IsDegenerate()})
}

func (s *Server) handleTokenize(rw http.ResponseWriter, hr *http.Request) {
	var req TokenizeRequest
	if !s.decode(rw, hr, &req) {
		return
	}

	if req.Code == "" {
		s.fail(rw, hr, errEmptyCode)

		return
	}

	d, err := s.detector(req.Language)
	if err != nil {
		s.fail(rw, hr, err)

		return
	}

	seq, err := d.Tokenize(hr.Context(), req.Code)
	if err != nil {
		s.fail(rw, hr, err)

		return
	}

	if req.Significant {
		seq = seq.Significant()
	}

	if seq == nil {
		seq = token.Sequence{}
	}

	s.reply(rw, hr, http.StatusOK, TokenizeResponse{Language: d.Language(), Tokens: seq})
}

func (s *Server) handleLines(rw http.ResponseWriter, hr *http.Request) {
	var req PairRequest
	if !s.decode(rw, hr, &req) {
		return
	}

	d, err := s.detector(req.Language)
	if err != nil {
		s.fail(rw, hr, err)

		return
	}

	hunks, err := d.Lines(hr.Context(), req.Before, req.After)
	if err != nil {
		s.fail(rw, hr, err)

		return
	}

	changed := linediff.Changed(hunks)
	if changed == nil {
		changed = []linediff.Hunk{}
	}

	s.reply(rw, hr, http.StatusOK, LinesResponse{
		Hunks:   changed,
		Records: nonNil(linediff.Render(hunks)),
	})
}

func (s *Server) detector(name string) (*detector.Detector, error) {
	if name == "" {
		return s.detectors.For(s.language)
	}

	return s.detectors.Lookup(name)
}

func (s *Server) decode(rw http.ResponseWriter, hr *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(rw, hr.Body, s.bodyLimit))
	dec.DisallowUnknownFields()

	err := dec.Decode(v)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		s.reply(rw, hr, http.StatusRequestEntityTooLarge,
			ErrorResponse{Error: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit)})

		return false
	}

	s.reply(rw, hr, http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})

	return false
}

func (s *Server) fail(rw http.ResponseWriter, hr *http.Request, err error) {
	code := http.StatusInternalServerError

	switch {
	case errors.Is(err, detector.ErrTooManyTokens):
		code = http.StatusUnprocessableEntity
	case errors.Is(err, lang.ErrUnsupportedLanguage),
		errors.Is(err, classify.ErrUnknownMode),
		errors.Is(err, errEmptyCode):
		code = http.StatusBadRequest
	}

	if code == http.StatusInternalServerError {
		s.logger.ErrorContext(hr.Context(), "request failed", "path", hr.URL.Path, "error", err)
	}

	s.reply(rw, hr, code, ErrorResponse{Error: err.Error()})
}

func (s *Server) reply(rw http.ResponseWriter, hr *http.Request, code int, body any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(code)

	encodeErr := json.NewEncoder(rw).Encode(body)
	if encodeErr != nil {
		s.logger.ErrorContext(hr.Context(), "failed to encode JSON response", "error", encodeErr)
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}

	return s
}
