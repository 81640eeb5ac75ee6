package validation

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/templui/linkstash/internal/apperr"
)

// FileConstraints defines validation rules for file uploads
type FileConstraints struct {
	AllowedMimeTypes  map[string]bool
	AllowedExtensions map[string]bool
	MaxSize           int64
}

var (
	// ImageConstraints covers uploaded images and link screenshots
	ImageConstraints = FileConstraints{
		AllowedMimeTypes: map[string]bool{
			"image/jpeg": true,
			"image/png":  true,
			"image/webp": true,
			"image/gif":  true,
		},
		AllowedExtensions: map[string]bool{
			".jpg":  true,
			".jpeg": true,
			".png":  true,
			".webp": true,
			".gif":  true,
		},
		MaxSize: 5 << 20, // 5MB
	}

	DocumentConstraints = FileConstraints{
		AllowedMimeTypes: map[string]bool{
			"application/pdf": true,
		},
		AllowedExtensions: map[string]bool{
			".pdf": true,
		},
		MaxSize: 10 << 20, // 10MB
	}
)

// Sniff validates content read from r. r is rewound afterwards when it is
// an io.Seeker.
func Sniff(r io.Reader, filename string, size int64, constraints ...FileConstraints) (string, error) {
	if len(constraints) == 0 {
		return "", apperr.Validation("no file constraints provided")
	}

	// http.DetectContentType reads at most 512 bytes
	buffer := make([]byte, 512)
	n, err := io.ReadFull(r, buffer)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", apperr.Validation("failed to read file")
	}

	if seeker, ok := r.(io.Seeker); ok {
		if _, err := seeker.Seek(0, io.SeekStart); err != nil {
			return "", apperr.Validation("failed to reset file pointer")
		}
	}

	// Detected from magic numbers, so a renamed file cannot pass as another type
	detectedType := http.DetectContentType(buffer[:n])
	ext := strings.ToLower(filepath.Ext(filename))

	var lastErr error
	for _, c := range constraints {
		lastErr = c.check(size, detectedType, ext)
		if lastErr == nil {
			return detectedType, nil
		}
	}
	return "", lastErr
}

func (c FileConstraints) check(size int64, detectedType, ext string) error {
	if size > c.MaxSize {
		maxMB := c.MaxSize / (1 << 20)
		return apperr.Validation(fmt.Sprintf("file too large: maximum size is %d MB", maxMB))
	}

	if !c.AllowedMimeTypes[detectedType] {
		return apperr.Validation(fmt.Sprintf("invalid file type (detected: %s)", detectedType))
	}

	if !c.AllowedExtensions[ext] {
		return apperr.Validation(fmt.Sprintf("invalid file extension: %s", ext))
	}

	return nil
}
