package httpserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/bryanwahyu/regdoc-analyzer/internal/domain/analysis"
	"github.com/bryanwahyu/regdoc-analyzer/internal/domain/apperr"
	"github.com/bryanwahyu/regdoc-analyzer/internal/domain/document"
)

type analyzeRequest struct {
	FileContent string `json:"fileContent"`
	FileName    string `json:"fileName"`
}

type analyzeResponse struct {
	Success        bool            `json:"success"`
	Analysis       analysis.Result `json:"analysis"`
	ProcessedAt    string          `json:"processedAt"`
	FileName       string          `json:"fileName"`
	DocumentLength int             `json:"documentLength"`
}

// Entries stay raw so one malformed document fails alone.
type batchRequest struct {
	Documents []json.RawMessage `json:"documents"`
}

type batchResponse struct {
	Success        bool                  `json:"success"`
	TotalDocuments int                   `json:"totalDocuments"`
	Results        []document.BatchEntry `json:"results"`
	ProcessedAt    string                `json:"processedAt"`
}

// POST /analyze
// Body: {"fileContent": "<base64>", "fileName": "letter.pdf"}
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	var body analyzeRequest
	if err := decodeBody(req, &body); err != nil {
		return err
	}

	out, err := r.docs.AnalyzeEncoded(req.Context(), body.FileContent, body.FileName)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, analyzeResponse{
		Success:        true,
		Analysis:       out.Analysis,
		ProcessedAt:    out.ProcessedAt.Format(time.RFC3339Nano),
		FileName:       out.FileName,
		DocumentLength: out.DocumentLength,
	})
	return nil
}

// POST /batch-analyze
// Body: {"documents": [{"fileContent": "...", "fileName": "..."}, ...]}
func (r *Router) handleBatchAnalyze(w http.ResponseWriter, req *http.Request) error {
	var body batchRequest
	if err := decodeBody(req, &body); err != nil {
		return err
	}

	results, err := r.docs.AnalyzeBatch(req.Context(), body.Documents)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, batchResponse{
		Success:        true,
		TotalDocuments: len(results),
		Results:        results,
		ProcessedAt:    r.now(),
	})
	return nil
}

// GET|POST /test echoes the request for connectivity checks.
func (r *Router) handleTest(w http.ResponseWriter, req *http.Request) error {
	if req.Method == http.MethodGet {
		writeJSON(w, http.StatusOK, map[string]any{
			"message":   "Test endpoint is working",
			"method":    http.MethodGet,
			"timestamp": r.now(),
		})
		return nil
	}

	var data any
	if err := json.NewDecoder(req.Body).Decode(&data); err != nil {
		if isBodyTooLarge(err) {
			return apperr.Validation("Request body too large")
		}
		data = nil
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "Test endpoint received POST data",
		"method":    http.MethodPost,
		"data":      data,
		"timestamp": r.now(),
	})
	return nil
}
