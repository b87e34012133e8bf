package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/bryanwahyu/regdoc-analyzer/internal/application"
	domain "github.com/bryanwahyu/regdoc-analyzer/internal/domain/analysis"
	"github.com/bryanwahyu/regdoc-analyzer/internal/domain/apperr"
	"github.com/bryanwahyu/regdoc-analyzer/internal/infra/ai/prompt"
)

// Options tune a Service; zero values select the defaults.
type Options struct {
	MaxChars     int
	StrictSchema bool
	Clock        application.Clock
	Logger       *slog.Logger
}

// Service turns extracted document text into an analysis.Result.
// It holds no per-request state and is safe for concurrent use.
type Service struct {
	client   domain.Completer
	maxChars int
	schema   *jsonschema.Schema
	clock    application.Clock
	log      *slog.Logger
}

// NewService builds a Service around client. It fails only when strict schema
// validation is requested and the schema does not compile.
func NewService(client domain.Completer, opts Options) (*Service, error) {
	s := &Service{
		client:   client,
		maxChars: opts.MaxChars,
		clock:    opts.Clock,
		log:      opts.Logger,
	}
	if s.maxChars <= 0 {
		s.maxChars = prompt.DefaultMaxChars
	}
	if s.clock == nil {
		s.clock = application.SystemClock{}
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if opts.StrictSchema {
		schema, err := compileSchema(domain.BuildResultJSONSchema())
		if err != nil {
			return nil, err
		}
		s.schema = schema
	}
	return s, nil
}

// Analyze sends the first MaxChars characters of text to the model and
// decodes its reply. document_length reports the full, untruncated length.
func (s *Service) Analyze(ctx context.Context, text string) (domain.Result, error) {
	rid := requestID(ctx)
	start := time.Now()
	length := prompt.CharCount(text)

	s.log.Info("analysis.start", "req_id", rid, "text_len", length, "max_chars", s.maxChars)

	raw, err := s.client.Complete(ctx, prompt.BuildAnalysisPrompt(text, s.maxChars))
	if err != nil {
		s.log.Error("analysis.llm_error", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, apperr.Analysis("Error in document analysis", err)
	}

	result, err := s.decode([]byte(raw))
	if err != nil {
		s.log.Error("analysis.decode_error", "req_id", rid, "error", err, "raw_len", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, apperr.Analysis("Error in document analysis", err)
	}

	result[domain.KeyTimestamp] = s.clock.Now().Format(time.RFC3339Nano)
	result[domain.KeyDocumentLength] = length

	s.log.Info("analysis.ok", "req_id", rid, "keys", len(result),
		"elapsed_ms", time.Since(start).Milliseconds())
	return result, nil
}

// requestID reuses the HTTP request id so analysis logs join the access log;
// calls from outside a request get a fresh one.
func requestID(ctx context.Context) string {
	if id := chimw.GetReqID(ctx); id != "" {
		return id
	}
	return uuid.New().String()
}

var errNotObject = errors.New("model response is not a JSON object")

func (s *Service) decode(raw []byte) (domain.Result, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("model response is not valid JSON: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("model response is not valid JSON: trailing data after value")
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errNotObject
	}

	if s.schema != nil {
		if err := s.schema.Validate(obj); err != nil {
			return nil, fmt.Errorf("json does not match schema: %w", err)
		}
	}
	return domain.Result(obj), nil
}

func compileSchema(schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("analysis.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("analysis.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}
