// Package attachment turns local files into request material: images become
// base64 data URLs and PDFs become plain text.
package attachment

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
)

// MaxImageSize caps attachments before base64 inflation.
const MaxImageSize = 8 << 20

var ErrNotImage = errors.New("attachment is not an image")

// Image is a single attached picture.
type Image struct {
	Name     string
	MimeType string
	DataURL  string
}

// ImageFromFile reads path and encodes it as a data URL.
func ImageFromFile(path string) (Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Image{}, fmt.Errorf("read image: %w", err)
	}
	return ImageFromBytes(filepath.Base(path), data)
}

// ImageFromBytes detects the content type from the bytes, not the name.
func ImageFromBytes(name string, data []byte) (Image, error) {
	if len(data) == 0 {
		return Image{}, errors.New("image is empty")
	}
	if len(data) > MaxImageSize {
		return Image{}, fmt.Errorf("image too large (max %d bytes)", MaxImageSize)
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return Image{}, fmt.Errorf("%w: detected %s", ErrNotImage, mt.String())
	}
	return Image{
		Name:     name,
		MimeType: mt.String(),
		DataURL:  "data:" + mt.String() + ";base64," + base64.StdEncoding.EncodeToString(data),
	}, nil
}

// ParseDataURL splits a base64 data URL into its media type and payload.
func ParseDataURL(s string) (mediaType, data string, err error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", "", errors.New("not a data URL")
	}
	meta, data, ok := strings.Cut(rest, ",")
	if !ok {
		return "", "", errors.New("data URL has no payload")
	}
	mediaType, ok = strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", "", errors.New("data URL is not base64 encoded")
	}
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	if _, err := base64.StdEncoding.DecodeString(data); err != nil {
		return "", "", fmt.Errorf("decode data URL: %w", err)
	}
	return mediaType, data, nil
}

// PDFText extracts the plain text of every readable page.
func PDFText(content []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var b strings.Builder
	for n := 1; n <= reader.NumPage(); n++ {
		page := reader.Page(n)
		if page.V.IsNull() || page.V.Key("Contents").Kind() == pdf.Null {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// unreadable pages are skipped
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String()), nil
}

// PDFFromFile reads and extracts the text of the PDF at path.
func PDFFromFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}
	return PDFText(content)
}

// MaxDocumentWords bounds the document text appended to a question.
const MaxDocumentWords = 3000

// Excerpt keeps the first maxWords whitespace-delimited words of text,
// collapsing runs of whitespace. It reports whether anything was cut.
func Excerpt(text string, maxWords int) (string, bool) {
	if maxWords <= 0 {
		maxWords = MaxDocumentWords
	}
	words := strings.Fields(text)
	if len(words) <= maxWords {
		return strings.Join(words, " "), false
	}
	return strings.Join(words[:maxWords], " "), true
}
