// Package extract converts uploaded documents into plain text.
//
// Supported formats, selected by file extension (case-insensitive):
//   - .pdf:  text of every page in page order, one trailing newline per page
//   - .docx: text of every paragraph in document order, one trailing newline each
//   - .txt:  the bytes as UTF-8, verbatim
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/bryanwahyu/regdoc-analyzer/internal/domain/apperr"
	"github.com/bryanwahyu/regdoc-analyzer/internal/domain/document"
)

// Extractor dispatches on the declared file name's extension.
type Extractor struct {
	pdf    *pdfExtractor
	logger *slog.Logger
}

func New(ctx context.Context, logger *slog.Logger) (*Extractor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	p, err := newPDFExtractor(ctx)
	if err != nil {
		return nil, fmt.Errorf("init pdf parser: %w", err)
	}
	return &Extractor{pdf: p, logger: logger}, nil
}

// DetectFormat maps a file name to a supported format.
func DetectFormat(fileName string) (document.Format, error) {
	ext := document.Payload{FileName: fileName}.Ext()
	switch ext {
	case ".pdf":
		return document.FormatPDF, nil
	case ".docx":
		return document.FormatDOCX, nil
	case ".txt":
		return document.FormatTXT, nil
	default:
		return "", apperr.Validationf("Unsupported file type: %s", ext)
	}
}

func (e *Extractor) Extract(ctx context.Context, data []byte, fileName string) (string, error) {
	format, err := DetectFormat(fileName)
	if err != nil {
		return "", err
	}

	var text string
	switch format {
	case document.FormatPDF:
		text, err = e.pdf.extract(ctx, data, fileName)
	case document.FormatDOCX:
		text, err = extractDOCX(data)
	case document.FormatTXT:
		text, err = extractText(data)
	}
	if err != nil {
		e.logger.Error("extract.failed", "file", fileName, "format", format, "error", err)
		return "", apperr.Extraction(fmt.Sprintf("Error parsing file %s", fileName), err)
	}

	e.logger.Debug("extract.ok", "file", fileName, "format", format, "bytes", len(data), "text_len", len(text))
	return text, nil
}

// ExtractFile reads a staged copy from disk and extracts it under fileName.
func (e *Extractor) ExtractFile(ctx context.Context, path, fileName string) (string, error) {
	if _, err := DetectFormat(fileName); err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", apperr.Internal("read staged document", err)
	}
	return e.Extract(ctx, data, fileName)
}
