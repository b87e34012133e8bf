package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	"github.com/cloudwego/eino/components/document/parser"
)

type pdfExtractor struct {
	parser *pdf.PDFParser
}

func newPDFExtractor(ctx context.Context) (*pdfExtractor, error) {
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{ToPages: true})
	if err != nil {
		return nil, err
	}
	return &pdfExtractor{parser: p}, nil
}

// extract returns page texts joined in order. The underlying reader panics on
// some malformed inputs; those panics come back as errors.
func (x *pdfExtractor) extract(ctx context.Context, data []byte, fileName string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("parse pdf: malformed document: %v", r)
		}
	}()

	docs, err := x.parser.Parse(ctx, bytes.NewReader(data), parser.WithURI(fileName))
	if err != nil {
		return "", fmt.Errorf("parse pdf: %w", err)
	}

	var b strings.Builder
	for _, d := range docs {
		if d == nil {
			continue
		}
		b.WriteString(d.Content)
		b.WriteByte('\n')
	}
	return b.String(), nil
}
