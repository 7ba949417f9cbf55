package infrastructure

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/nguyenthenguyen/docx"
	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
	"go.uber.org/zap"

	"interview-platform/domain"
)

// PDFReader is a second-chance reader for PDFs the local extractor cannot
// handle, such as scanned documents.
type PDFReader interface {
	ReadPDF(ctx context.Context, data []byte) (string, error)
}

// SetPDFLicense registers a metered unidoc key. An empty key is ignored.
func SetPDFLicense(key string) error {
	if key == "" {
		return nil
	}
	return license.SetMeteredKey(key)
}

// TextExtractor turns uploaded resumes and job descriptions into plain text.
type TextExtractor struct {
	fallback PDFReader
	log      *zap.Logger
}

// NewTextExtractor builds an extractor. fallback may be nil.
func NewTextExtractor(fallback PDFReader, log *zap.Logger) *TextExtractor {
	return &TextExtractor{fallback: fallback, log: log}
}

// Extract reads the document and dispatches on the file extension.
func (x *TextExtractor) Extract(ctx context.Context, r io.Reader, filename string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	if len(data) == 0 {
		return "", &domain.ValidationError{Field: "file", Message: "file is empty"}
	}

	var text string
	switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), ".")); ext {
	case "txt", "md":
		text = string(data)
	case "pdf":
		text, err = x.extractPDF(ctx, data)
	case "docx":
		text, err = extractDOCX(data)
	default:
		return "", &domain.ValidationError{Field: "file", Message: fmt.Sprintf("unsupported file type %q", ext)}
	}
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", &domain.ValidationError{Field: "file", Message: "no text could be extracted"}
	}
	return text, nil
}

func (x *TextExtractor) extractPDF(ctx context.Context, data []byte) (string, error) {
	text, err := extractPDFText(data)
	if err == nil && text != "" {
		return text, nil
	}
	if x.fallback == nil {
		return "", fmt.Errorf("extract pdf: %w", err)
	}

	x.log.Info("local PDF extraction failed, using model fallback", zap.Error(err))
	text, ferr := x.fallback.ReadPDF(ctx, data)
	if ferr != nil {
		return "", fmt.Errorf("extract pdf: %v; fallback: %w", err, ferr)
	}
	return text, nil
}

func extractPDFText(data []byte) (string, error) {
	pdfReader, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to read PDF: %w", err)
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return "", fmt.Errorf("failed to get page count: %w", err)
	}
	if numPages == 0 {
		return "", errors.New("PDF has no pages")
	}

	var b strings.Builder
	for i := 1; i <= numPages; i++ {
		page, err := pdfReader.GetPage(i)
		if err != nil {
			continue
		}
		ex, err := extractor.New(page)
		if err != nil {
			continue
		}
		pageText, err := ex.ExtractText()
		if err != nil || strings.TrimSpace(pageText) == "" {
			continue
		}
		b.WriteString(pageText)
		b.WriteString("\n\n")
	}

	if b.Len() == 0 {
		return "", errors.New("no text could be extracted from any page of the PDF")
	}
	return strings.TrimSpace(b.String()), nil
}

var (
	docxParagraphEnd = regexp.MustCompile(`</w:p>|<w:br/>`)
	xmlTag           = regexp.MustCompile(`<[^>]+>`)
	blankLines       = regexp.MustCompile(`\n{3,}`)
)

func extractDOCX(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read DOCX: %w", err)
	}
	defer doc.Close()

	content := doc.Editable().GetContent()
	content = docxParagraphEnd.ReplaceAllString(content, "\n")
	content = xmlTag.ReplaceAllString(content, "")
	content = html.UnescapeString(content)
	content = blankLines.ReplaceAllString(content, "\n\n")
	return content, nil
}
