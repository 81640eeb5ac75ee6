package validation

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/linkstash/internal/apperr"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestNormalizeName(t *testing.T) {
	name, err := NormalizeName("  Work  ")
	require.NoError(t, err)
	assert.Equal(t, "Work", name)

	// "é" as e + combining acute becomes the single precomposed rune.
	name, err = NormalizeName("cafe\u0301")
	require.NoError(t, err)
	assert.Equal(t, "caf\u00e9", name)

	_, err = NormalizeName("   ")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = NormalizeName(strings.Repeat("ü", maxNameLength+1))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = NormalizeName(strings.Repeat("ü", maxNameLength))
	assert.NoError(t, err)
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		raw   string
		valid bool
	}{
		{"https://example.com/path?q=1", true},
		{"  http://example.com  ", true},
		{"", false},
		{"example.com", false},
		{"ftp://example.com", false},
		{"javascript:alert(1)", false},
		{"https://", false},
		{"https://example.com/" + strings.Repeat("a", maxURLLength), false},
	}
	for _, tt := range tests {
		got, err := ValidateURL(tt.raw)
		if tt.valid {
			assert.NoError(t, err, tt.raw)
			assert.Equal(t, strings.TrimSpace(tt.raw), got)
		} else {
			assert.ErrorIs(t, err, apperr.ErrValidation, tt.raw)
		}
	}
}

func TestSniff(t *testing.T) {
	r := bytes.NewReader(pngHeader)
	contentType, err := Sniff(r, "shot.PNG", int64(len(pngHeader)), ImageConstraints)
	require.NoError(t, err)
	assert.Equal(t, "image/png", contentType)
	assert.Equal(t, int64(0), int64(r.Size())-int64(r.Len()), "reader is rewound")

	_, err = Sniff(bytes.NewReader(pngHeader), "shot.pdf", int64(len(pngHeader)), ImageConstraints, DocumentConstraints)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = Sniff(strings.NewReader("just text"), "notes.png", 9, ImageConstraints)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = Sniff(bytes.NewReader(pngHeader), "big.png", ImageConstraints.MaxSize+1, ImageConstraints)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = Sniff(bytes.NewReader(pngHeader), "x.png", 1)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
