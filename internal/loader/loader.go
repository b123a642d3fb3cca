package loader

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/lectern-ai/lectern/internal/core"
)

// Load reads a document file of a supported extension (.txt, .pdf) into a
// core.Document. Unsupported extensions return core.ErrUnsupportedFormat.
func Load(path string) (core.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.Document{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return LoadBytes(filepath.Base(path), data)
}

// LoadBytes parses raw file content by extension. Used by the upload path,
// where the bytes arrive before any file exists on disk.
func LoadBytes(filename string, data []byte) (core.Document, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt":
		return core.Document{Source: filename, Text: string(data)}, nil
	case ".pdf":
		text, err := extractPDFText(data)
		if err != nil {
			return core.Document{}, fmt.Errorf("failed to parse pdf %s: %w", filename, err)
		}
		return core.Document{Source: filename, Text: text}, nil
	default:
		return core.Document{}, fmt.Errorf("%w: %s", core.ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

// Supported reports whether a loader exists for the file's extension.
func Supported(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".pdf":
		return true
	}
	return false
}

func extractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", pageNum, err)
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
