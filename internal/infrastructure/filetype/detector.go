// Package filetype classifies uploads by content inspection and probes
// the text layer of digital PDFs.
package filetype

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/domain"
)

// A PDF whose extractable text is shorter than this is treated as a
// scan: decorative headers and page numbers alone do not make a
// document digital.
const minTextLayerChars = 64

type Detector struct{}

func NewDetector() *Detector {
	return &Detector{}
}

// Detect inspects magic bytes first and falls back to the declared MIME
// type; uploads routinely arrive with a generic content type.
func (d *Detector) Detect(ctx context.Context, input domain.ProcessFileInput) (domain.FileType, error) {
	content := input.Content
	switch {
	case bytes.HasPrefix(content, []byte("%PDF")):
		return d.classifyPDF(ctx, input)
	case isImageContent(content):
		return domain.FileTypeImage, nil
	}

	switch {
	case input.MimeType == "application/pdf":
		return d.classifyPDF(ctx, input)
	case strings.HasPrefix(input.MimeType, "image/"):
		return domain.FileTypeImage, nil
	}
	return domain.FileTypeUnknown, nil
}

// ProbeText returns the embedded text layer of a digital PDF, or the
// empty string for scans and images.
func (d *Detector) ProbeText(_ context.Context, input domain.ProcessFileInput) (string, error) {
	if !bytes.HasPrefix(input.Content, []byte("%PDF")) {
		return "", nil
	}
	text, err := extractPDFText(input.Content)
	if err != nil {
		return "", fmt.Errorf("read pdf text layer: %w", err)
	}
	return text, nil
}

func (d *Detector) classifyPDF(_ context.Context, input domain.ProcessFileInput) (domain.FileType, error) {
	text, err := extractPDFText(input.Content)
	if err != nil {
		// An unparseable PDF still processes through the vision path.
		return domain.FileTypeScanPDF, nil
	}
	if len(strings.TrimSpace(text)) >= minTextLayerChars {
		return domain.FileTypePDF, nil
	}
	return domain.FileTypeScanPDF, nil
}

func extractPDFText(content []byte) (text string, err error) {
	// The pdf package panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parse panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		builder.WriteString(pageText)
		builder.WriteByte('\n')
	}
	return builder.String(), nil
}

var imageMagics = [][]byte{
	{0xFF, 0xD8, 0xFF},                               // JPEG
	{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, // PNG
	{0x49, 0x49, 0x2A, 0x00},                         // TIFF little-endian
	{0x4D, 0x4D, 0x00, 0x2A},                         // TIFF big-endian
	{0x42, 0x4D},                                     // BMP
}

func isImageContent(content []byte) bool {
	for _, magic := range imageMagics {
		if bytes.HasPrefix(content, magic) {
			return true
		}
	}
	// RIFF....WEBP
	if len(content) >= 12 && bytes.Equal(content[:4], []byte("RIFF")) && bytes.Equal(content[8:12], []byte("WEBP")) {
		return true
	}
	return false
}
