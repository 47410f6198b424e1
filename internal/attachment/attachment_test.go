package attachment

import (
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 1x1 transparent PNG
var tinyPNG, _ = base64.StdEncoding.DecodeString("iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII=")

func TestImageFromBytes(t *testing.T) {
	img, err := ImageFromBytes("dot.png", tinyPNG)
	require.NoError(t, err)

	assert.Equal(t, "image/png", img.MimeType)
	assert.Equal(t, "dot.png", img.Name)
	assert.Equal(t, "data:image/png;base64,"+base64.StdEncoding.EncodeToString(tinyPNG), img.DataURL)
}

func TestImageFromBytesRejects(t *testing.T) {
	_, err := ImageFromBytes("notes.txt", []byte("plain text, not a picture"))
	assert.True(t, errors.Is(err, ErrNotImage))

	_, err = ImageFromBytes("empty.png", nil)
	assert.Error(t, err)

	_, err = ImageFromBytes("huge.png", make([]byte, MaxImageSize+1))
	assert.Error(t, err)
}

func TestImageFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shot.png")
	require.NoError(t, os.WriteFile(path, tinyPNG, 0o600))

	img, err := ImageFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "shot.png", img.Name)

	_, err = ImageFromFile(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func TestParseDataURL(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		wantMime string
		wantData string
		wantErr  bool
	}{
		{"png", "data:image/png;base64,aGk=", "image/png", "aGk=", false},
		{"no media type", "data:;base64,aGk=", "application/octet-stream", "aGk=", false},
		{"missing prefix", "image/png;base64,aGk=", "", "", true},
		{"no comma", "data:image/png;base64", "", "", true},
		{"not base64 flagged", "data:text/plain,hi", "", "", true},
		{"bad payload", "data:image/png;base64,@@@", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mime, data, err := ParseDataURL(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMime, mime)
			assert.Equal(t, tt.wantData, data)
		})
	}
}

func TestPDFTextRejectsGarbage(t *testing.T) {
	_, err := PDFText([]byte("definitely not a pdf"))
	assert.Error(t, err)
}

func TestExcerpt(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		max       int
		want      string
		truncated bool
	}{
		{"empty", "", 3, "", false},
		{"fits", "one  two\nthree", 3, "one two three", false},
		{"cut", "one two three four", 2, "one two", true},
		{"default limit", "a b", 0, "a b", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, truncated := Excerpt(tt.text, tt.max)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.truncated, truncated)
		})
	}
}
