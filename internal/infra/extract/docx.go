package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const docxBody = "word/document.xml"

// extractDOCX walks word/document.xml and emits each body paragraph followed
// by a newline, in document order.
func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx archive: %w", err)
	}

	var body *zip.File
	for _, f := range zr.File {
		if f.Name == docxBody {
			body = f
			break
		}
	}
	if body == nil {
		return "", fmt.Errorf("docx archive has no %s", docxBody)
	}

	rc, err := body.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", docxBody, err)
	}
	defer rc.Close()

	return paragraphsText(rc)
}

// wordNS is the WordprocessingML main namespace. Elements from other
// namespaces (DrawingML a:p, a:t) never contribute text.
const wordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

func isWord(n xml.Name, local string) bool {
	return n.Space == wordNS && n.Local == local
}

// paragraphsText returns the body-level paragraphs only: a w:p that is a
// direct child of w:body. Paragraphs in tables, text boxes, headers or
// content controls are skipped. Within a paragraph only run content
// (w:r directly under the paragraph or under a w:hyperlink) counts.
func paragraphsText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var (
		out    strings.Builder
		para   strings.Builder
		stack  []xml.Name
		inText bool
	)
	paraAt := -1 // stack index of the open body paragraph

	// ownedRun reports whether the element about to be pushed sits in a run
	// that belongs to the open body paragraph.
	ownedRun := func() bool {
		n := len(stack)
		if paraAt < 0 || n < 2 || !isWord(stack[n-1], "r") {
			return false
		}
		if n-2 == paraAt {
			return true
		}
		return n-3 == paraAt && isWord(stack[n-2], "hyperlink")
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("decode %s: %w", docxBody, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case isWord(t.Name, "p") && paraAt < 0 && len(stack) > 0 && isWord(stack[len(stack)-1], "body"):
				para.Reset()
				paraAt = len(stack)
			case isWord(t.Name, "t") && ownedRun():
				inText = true
			case isWord(t.Name, "tab") && ownedRun():
				para.WriteByte('\t')
			case (isWord(t.Name, "br") || isWord(t.Name, "cr")) && ownedRun():
				para.WriteByte('\n')
			}
			stack = append(stack, t.Name)
		case xml.EndElement:
			if len(stack) == 0 {
				continue
			}
			stack = stack[:len(stack)-1]
			switch {
			case len(stack) == paraAt:
				out.WriteString(para.String())
				out.WriteByte('\n')
				paraAt = -1
			case isWord(t.Name, "t"):
				inText = false
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}
	return out.String(), nil
}
