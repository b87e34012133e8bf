package document

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/bryanwahyu/regdoc-analyzer/internal/domain/analysis"
)

type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatTXT  Format = "txt"
)

// UnknownFileName is reported for batch entries whose name could not be read.
const UnknownFileName = "unknown"

// Payload is one uploaded document, alive for a single request.
type Payload struct {
	FileName string
	Content  []byte
}

// Ext returns the lower-cased extension of the declared file name, dot included.
func (p Payload) Ext() string {
	return strings.ToLower(filepath.Ext(p.FileName))
}

// Outcome is the result of running one document through the pipeline.
type Outcome struct {
	FileName       string
	Analysis       analysis.Result
	DocumentLength int
	ProcessedAt    time.Time
}

// BatchInput is one element of a batch request, still base64 encoded.
type BatchInput struct {
	FileContent string `json:"fileContent"`
	FileName    string `json:"fileName"`
}

// BatchEntry is the per-document result of a batch run.
type BatchEntry struct {
	Success  bool            `json:"success"`
	FileName string          `json:"fileName"`
	Analysis analysis.Result `json:"analysis,omitempty"`
	Error    string          `json:"error,omitempty"`
}
