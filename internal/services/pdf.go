package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Extraction is the plain text pulled from a PDF.
type Extraction struct {
	Text  string
	Pages int
}

type PDFService struct{}

func NewPDFService() *PDFService {
	return &PDFService{}
}

// ExtractText reads every page's plain text, joined with newlines. Pages
// that fail to decode are skipped.
func (s *PDFService) ExtractText(path string) (Extraction, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return Extraction{}, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	numPages := r.NumPage()
	if numPages == 0 {
		return Extraction{}, errors.New("pdf has no pages")
	}

	var b strings.Builder
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return Extraction{}, errors.New("no text extracted from pdf")
	}
	return Extraction{Text: text, Pages: numPages}, nil
}
