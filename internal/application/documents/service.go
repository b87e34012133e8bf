package documents

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/bryanwahyu/regdoc-analyzer/internal/application"
	"github.com/bryanwahyu/regdoc-analyzer/internal/domain/analysis"
	"github.com/bryanwahyu/regdoc-analyzer/internal/domain/apperr"
	"github.com/bryanwahyu/regdoc-analyzer/internal/domain/document"
	"github.com/bryanwahyu/regdoc-analyzer/internal/infra/ai/prompt"
)

// Analyzer is the analysis step of the pipeline.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (analysis.Result, error)
}

// Stager keeps uploaded bytes on disk for the duration of fn.
type Stager interface {
	With(fileName string, data []byte, fn func(path string) error) error
}

const (
	msgRequiredFields = "fileContent and fileName are required"
	msgNoText         = "No text could be extracted from the document"
	msgNoDocuments    = "No documents provided"
)

// Service runs documents through staging, extraction and analysis.
// Service is designed to be used concurrently and is thread-safe
type Service struct {
	Extractor        document.Extractor
	Analyzer         Analyzer
	Staging          Stager
	Clock            application.Clock
	Logger           *slog.Logger
	BatchConcurrency int
}

func (s *Service) clock() application.Clock {
	if s.Clock == nil {
		return application.SystemClock{}
	}
	return s.Clock
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// DecodeContent decodes standard base64, ignoring ASCII whitespace so
// line-wrapped payloads are accepted.
func DecodeContent(encoded string) ([]byte, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			return -1
		}
		return r
	}, encoded)

	data, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		return nil, apperr.Validationf("Invalid base64 content: %v", err)
	}
	return data, nil
}

// AnalyzeEncoded validates and decodes one request document, then analyzes it.
func (s *Service) AnalyzeEncoded(ctx context.Context, fileContent, fileName string) (document.Outcome, error) {
	if fileContent == "" || fileName == "" {
		return document.Outcome{}, apperr.Validation(msgRequiredFields)
	}
	data, err := DecodeContent(fileContent)
	if err != nil {
		return document.Outcome{}, err
	}
	return s.AnalyzeDocument(ctx, document.Payload{FileName: fileName, Content: data})
}

// AnalyzeDocument stages the payload, extracts its text from the staged copy
// and sends the text for analysis. The staged copy is gone before analysis starts.
func (s *Service) AnalyzeDocument(ctx context.Context, p document.Payload) (document.Outcome, error) {
	var text string
	err := s.Staging.With(p.FileName, p.Content, func(path string) error {
		var err error
		text, err = s.Extractor.ExtractFile(ctx, path, p.FileName)
		return err
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInternal {
			return document.Outcome{}, apperr.Internal("stage document", err)
		}
		return document.Outcome{}, err
	}

	if strings.TrimSpace(text) == "" {
		return document.Outcome{}, apperr.Validation(msgNoText)
	}

	result, err := s.Analyzer.Analyze(ctx, text)
	if err != nil {
		return document.Outcome{}, err
	}

	return document.Outcome{
		FileName:       p.FileName,
		Analysis:       result,
		DocumentLength: prompt.CharCount(text),
		ProcessedAt:    s.clock().Now(),
	}, nil
}

// AnalyzeBatch analyzes every raw JSON entry in isolation. Entries are decoded
// one by one, so a malformed entry only fails itself. The returned entries
// follow input order. Only an empty batch is an error.
func (s *Service) AnalyzeBatch(ctx context.Context, inputs []json.RawMessage) ([]document.BatchEntry, error) {
	if len(inputs) == 0 {
		return nil, apperr.Validation(msgNoDocuments)
	}

	entries := make([]document.BatchEntry, len(inputs))

	limit := s.BatchConcurrency
	if limit <= 1 {
		for i, in := range inputs {
			entries[i] = s.batchEntry(ctx, i, in)
		}
		return entries, nil
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			entries[i] = s.batchEntry(ctx, i, in)
			return nil
		})
	}
	_ = g.Wait()
	return entries, nil
}

// decodeEntry reads one batch element. name is the entry's fileName when it
// is a non-empty string, whatever else is wrong with the entry.
func decodeEntry(raw json.RawMessage) (in document.BatchInput, name string, err error) {
	name = document.UnknownFileName
	var fields map[string]any
	if json.Unmarshal(raw, &fields) == nil {
		if v, ok := fields["fileName"].(string); ok && v != "" {
			name = v
		}
	}
	if err := json.Unmarshal(raw, &in); err != nil {
		return document.BatchInput{}, name, apperr.Validationf("Invalid document entry: %v", err)
	}
	return in, name, nil
}

func (s *Service) batchEntry(ctx context.Context, index int, raw json.RawMessage) (entry document.BatchEntry) {
	name := document.UnknownFileName

	defer func() {
		if r := recover(); r != nil {
			s.logger().Error("batch.entry_panic", "index", index, "file", name, "panic", r)
			entry = document.BatchEntry{Success: false, FileName: name, Error: "internal error while processing document"}
		}
	}()

	in, name, err := decodeEntry(raw)
	if err != nil {
		s.logger().Warn("batch.entry_invalid", "index", index, "file", name, "error", err)
		return document.BatchEntry{Success: false, FileName: name, Error: err.Error()}
	}

	outcome, err := s.AnalyzeEncoded(ctx, in.FileContent, in.FileName)
	if err != nil {
		s.logger().Warn("batch.entry_failed", "index", index, "file", name,
			"kind", apperr.KindOf(err), "error", err)
		return document.BatchEntry{Success: false, FileName: name, Error: err.Error()}
	}
	return document.BatchEntry{Success: true, FileName: outcome.FileName, Analysis: outcome.Analysis}
}
