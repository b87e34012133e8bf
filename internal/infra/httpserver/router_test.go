package httpserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bryanwahyu/regdoc-analyzer/internal/application"
	appanalysis "github.com/bryanwahyu/regdoc-analyzer/internal/application/analysis"
	"github.com/bryanwahyu/regdoc-analyzer/internal/application/documents"
	"github.com/bryanwahyu/regdoc-analyzer/internal/infra/extract"
	"github.com/bryanwahyu/regdoc-analyzer/internal/infra/staging"
	"github.com/bryanwahyu/regdoc-analyzer/internal/middleware"
)

const modelReply = `{"document_type":"FDA Warning Letter","issuing_agency":"FDA","risk_level":"high","compliance_score":42}`

type fakeCompleter struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

var fixedNow = time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

func newTestHandler(t *testing.T, llm *fakeCompleter) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := application.FixedClock{T: fixedNow}

	analyzer, err := appanalysis.NewService(llm, appanalysis.Options{Clock: clock, Logger: logger})
	if err != nil {
		t.Fatalf("analysis service: %v", err)
	}
	ex, err := extract.New(context.Background(), logger)
	if err != nil {
		t.Fatalf("extractor: %v", err)
	}
	area, err := staging.New(t.TempDir(), logger)
	if err != nil {
		t.Fatalf("staging: %v", err)
	}
	docs := &documents.Service{
		Extractor: ex,
		Analyzer:  analyzer,
		Staging:   area,
		Clock:     clock,
		Logger:    logger,
	}

	// The router clock runs ahead so responses show which clock stamped them.
	return NewRouter(docs, Options{
		Logger:       logger,
		Clock:        application.FixedClock{T: fixedNow.Add(time.Hour)},
		MaxBodyBytes: 1 << 20,
	})
}

func newTestServer(t *testing.T, llm *fakeCompleter) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(newTestHandler(t, llm))
	t.Cleanup(srv.Close)
	return srv
}

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func postJSON(t *testing.T, url string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	resp, err := http.Post(url, "application/json", &buf)
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	return resp.StatusCode, decode(t, resp.Body)
}

func get(t *testing.T, url string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	return resp.StatusCode, decode(t, resp.Body)
}

func decode(t *testing.T, r io.Reader) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestAnalyze_Success(t *testing.T) {
	llm := &fakeCompleter{reply: modelReply}
	srv := newTestServer(t, llm)

	text := "WARNING LETTER\nYour facility failed to validate cleaning procedures."
	status, body := postJSON(t, srv.URL+"/analyze", map[string]string{
		"fileContent": b64(text),
		"fileName":    "letter.txt",
	})

	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", status, body)
	}
	if body["success"] != true || body["fileName"] != "letter.txt" {
		t.Fatalf("unexpected envelope: %v", body)
	}
	if body["documentLength"] != float64(len([]rune(text))) {
		t.Fatalf("documentLength = %v", body["documentLength"])
	}
	if body["processedAt"] != fixedNow.Format(time.RFC3339Nano) {
		t.Fatalf("processedAt = %v", body["processedAt"])
	}
	result, ok := body["analysis"].(map[string]any)
	if !ok {
		t.Fatalf("analysis is not an object: %T", body["analysis"])
	}
	if result["issuing_agency"] != "FDA" || result["compliance_score"] != float64(42) {
		t.Fatalf("model fields lost: %v", result)
	}
	if result["analysis_timestamp"] == nil || result["document_length"] != float64(len([]rune(text))) {
		t.Fatalf("metadata not stamped: %v", result)
	}
	if len(llm.prompts) != 1 || !strings.Contains(llm.prompts[0], "cleaning procedures") {
		t.Fatalf("document text not sent to the model: %v", llm.prompts)
	}
}

func TestAnalyze_ValidationErrors(t *testing.T) {
	srv := newTestServer(t, &fakeCompleter{reply: modelReply})

	tests := []struct {
		name    string
		body    any
		wantErr string
	}{
		{
			name:    "missing file name",
			body:    map[string]string{"fileContent": b64("hello")},
			wantErr: "fileContent and fileName are required",
		},
		{
			name:    "missing content",
			body:    map[string]string{"fileName": "a.txt"},
			wantErr: "fileContent and fileName are required",
		},
		{
			name:    "bad base64",
			body:    map[string]string{"fileContent": "!!not-base64!!", "fileName": "a.txt"},
			wantErr: "Invalid base64 content",
		},
		{
			name:    "empty text",
			body:    map[string]string{"fileContent": b64("   \n\t"), "fileName": "blank.txt"},
			wantErr: "No text could be extracted",
		},
		{
			name:    "unsupported extension",
			body:    map[string]string{"fileContent": b64("a,b"), "fileName": "sheet.xlsx"},
			wantErr: "Unsupported file type: .xlsx",
		},
		{
			name:    "corrupt pdf",
			body:    map[string]string{"fileContent": b64("definitely not a pdf"), "fileName": "broken.pdf"},
			wantErr: "broken.pdf",
		},
		{
			name:    "empty body",
			body:    "",
			wantErr: "No JSON data provided",
		},
		{
			name:    "malformed json",
			body:    "{not json",
			wantErr: "Invalid JSON body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := postJSON(t, srv.URL+"/analyze", tt.body)
			if status != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %v", status, body)
			}
			if body["success"] != false {
				t.Fatalf("expected success=false, got %v", body)
			}
			msg, _ := body["error"].(string)
			if !strings.Contains(msg, tt.wantErr) {
				t.Fatalf("error %q does not mention %q", msg, tt.wantErr)
			}
		})
	}
}

func TestAnalyze_NonJSONModelOutput(t *testing.T) {
	srv := newTestServer(t, &fakeCompleter{reply: "Sure! Here is the analysis you asked for."})

	status, body := postJSON(t, srv.URL+"/analyze", map[string]string{
		"fileContent": b64("Recall notice"),
		"fileName":    "recall.txt",
	})
	if status != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %v", status, body)
	}
	msg, _ := body["error"].(string)
	if body["success"] != false || !strings.HasPrefix(msg, "Internal server error") {
		t.Fatalf("unexpected error body: %v", body)
	}
}

func TestBatchAnalyze_IsolatesFailures(t *testing.T) {
	srv := newTestServer(t, &fakeCompleter{reply: modelReply})

	status, body := postJSON(t, srv.URL+"/batch-analyze", map[string]any{
		"documents": []map[string]string{
			{"fileContent": b64("First notice"), "fileName": "one.txt"},
			{"fileContent": b64("garbage"), "fileName": "two.pdf"},
			{"fileContent": b64("Third notice"), "fileName": "three.txt"},
		},
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", status, body)
	}
	if body["success"] != true || body["totalDocuments"] != float64(3) {
		t.Fatalf("unexpected envelope: %v", body)
	}
	results, _ := body["results"].([]any)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	wantNames := []string{"one.txt", "two.pdf", "three.txt"}
	for i, raw := range results {
		entry := raw.(map[string]any)
		if entry["fileName"] != wantNames[i] {
			t.Fatalf("result %d: fileName = %v, want %s", i, entry["fileName"], wantNames[i])
		}
		wantOK := i != 1
		if entry["success"] != wantOK {
			t.Fatalf("result %d: success = %v, want %v", i, entry["success"], wantOK)
		}
		if wantOK && entry["analysis"] == nil {
			t.Fatalf("result %d: missing analysis", i)
		}
		if !wantOK && entry["error"] == "" {
			t.Fatalf("result %d: missing error", i)
		}
	}
}

func TestBatchAnalyze_WronglyTypedEntry(t *testing.T) {
	srv := newTestServer(t, &fakeCompleter{reply: modelReply})

	for _, bad := range []string{
		`{"fileContent":123,"fileName":"b.txt"}`,
		`"garbage"`,
		`{"fileContent":"eA==","fileName":["x"]}`,
	} {
		payload := `{"documents":[` +
			`{"fileContent":"` + b64("First notice") + `","fileName":"a.txt"},` +
			bad + `,` +
			`{"fileContent":"` + b64("Third notice") + `","fileName":"c.txt"}]}`

		status, body := postJSON(t, srv.URL+"/batch-analyze", payload)
		if status != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d: %v", bad, status, body)
		}
		if body["totalDocuments"] != float64(3) {
			t.Fatalf("%s: totalDocuments = %v", bad, body["totalDocuments"])
		}
		results := body["results"].([]any)
		failures := 0
		for i, raw := range results {
			if raw.(map[string]any)["success"] == false {
				failures++
				if i != 1 {
					t.Fatalf("%s: unexpected failure at index %d", bad, i)
				}
			}
		}
		if failures != 1 {
			t.Fatalf("%s: expected exactly one failure, got %d", bad, failures)
		}
	}
}

func TestBatchAnalyze_UnknownName(t *testing.T) {
	srv := newTestServer(t, &fakeCompleter{reply: modelReply})

	status, body := postJSON(t, srv.URL+"/batch-analyze", map[string]any{
		"documents": []map[string]string{{"fileContent": b64("x")}},
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	entry := body["results"].([]any)[0].(map[string]any)
	if entry["success"] != false || entry["fileName"] != "unknown" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestBatchAnalyze_EmptyDocuments(t *testing.T) {
	srv := newTestServer(t, &fakeCompleter{reply: modelReply})

	for _, payload := range []any{
		map[string]any{"documents": []any{}},
		map[string]any{},
	} {
		status, body := postJSON(t, srv.URL+"/batch-analyze", payload)
		if status != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %v", status, body)
		}
		if body["error"] != "No documents provided" {
			t.Fatalf("unexpected error: %v", body["error"])
		}
	}
}

func TestHealth_NoCredentialNeeded(t *testing.T) {
	srv := newTestServer(t, &fakeCompleter{err: context.Canceled})

	status, body := get(t, srv.URL+"/health")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if body["status"] != "healthy" || body["service"] != Info.Name || body["version"] != Info.Version {
		t.Fatalf("unexpected health body: %v", body)
	}
}

func TestNotFound_ListsEndpoints(t *testing.T) {
	srv := newTestServer(t, &fakeCompleter{reply: modelReply})

	status, body := get(t, srv.URL+"/unknown-path")
	if status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
	if body["success"] != false || body["error"] != "Endpoint not found" {
		t.Fatalf("unexpected body: %v", body)
	}
	got, _ := body["available_endpoints"].([]any)
	want := []string{"/analyze", "/batch-analyze", "/health", "/test"}
	if len(got) != len(want) {
		t.Fatalf("available_endpoints = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("available_endpoints[%d] = %v, want %s", i, got[i], want[i])
		}
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, &fakeCompleter{reply: modelReply})

	status, body := get(t, srv.URL+"/analyze")
	if status != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", status)
	}
	if body["error"] != "Method not allowed" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestTestEndpoint(t *testing.T) {
	srv := newTestServer(t, &fakeCompleter{reply: modelReply})

	status, body := get(t, srv.URL+"/test")
	if status != http.StatusOK || body["message"] != "Test endpoint is working" || body["method"] != "GET" {
		t.Fatalf("unexpected GET response %d: %v", status, body)
	}

	status, body = postJSON(t, srv.URL+"/test", map[string]any{"ping": "pong"})
	if status != http.StatusOK || body["message"] != "Test endpoint received POST data" {
		t.Fatalf("unexpected POST response %d: %v", status, body)
	}
	data, _ := body["data"].(map[string]any)
	if data["ping"] != "pong" {
		t.Fatalf("data not echoed: %v", body["data"])
	}
}

func TestHome(t *testing.T) {
	srv := newTestServer(t, &fakeCompleter{reply: modelReply})

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()
	page, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html") {
		t.Fatalf("content type = %q", resp.Header.Get("Content-Type"))
	}
	for _, want := range []string{Info.Name, "/analyze", "/batch-analyze", "/health", "/test"} {
		if !strings.Contains(string(page), want) {
			t.Fatalf("home page missing %q", want)
		}
	}
}

func TestMetricsCountRequests(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := middleware.NewMetrics(fixedNow)
	h := NewRouter(&documents.Service{}, Options{Logger: logger, Metrics: metrics})

	for _, path := range []string{"/health", "/test", "/nope"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	s := metrics.Snapshot()
	if s.RequestsTotal != 3 || s.RequestsSuccess != 2 || s.RequestsRejected != 1 {
		t.Fatalf("unexpected snapshot %+v", s)
	}
}

func TestBodyTooLarge(t *testing.T) {
	h := newTestHandler(t, &fakeCompleter{reply: modelReply})

	payload := `{"fileName":"big.txt","fileContent":"` + strings.Repeat("A", 2<<20) + `"}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(payload)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	body := decode(t, rec.Body)
	if body["error"] != "Request body too large" {
		t.Fatalf("unexpected error: %v", body["error"])
	}
}
