package extract

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// ErrUnreadableDocument is returned when a PDF cannot be parsed at all
// (corrupt, encrypted, or empty). Callers drop the record and continue
// with the batch.
var ErrUnreadableDocument = errors.New("unreadable document")

// Text renders every page of a PDF into a single newline-joined buffer.
func Text(path string) (string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return "", fmt.Errorf("%w: opening %s: %v", ErrUnreadableDocument, path, err)
	}
	defer doc.Close()

	pages := doc.NumPage()
	if pages == 0 {
		return "", fmt.Errorf("%w: %s has no pages", ErrUnreadableDocument, path)
	}

	var sb strings.Builder
	for i := 0; i < pages; i++ {
		pageText, err := doc.Text(i)
		if err != nil {
			slog.Warn("Skipping unreadable page", "path", path, "page", i, "error", err)
			continue
		}
		if pageText != "" {
			sb.WriteString(pageText)
			sb.WriteString("\n")
		}
	}

	return sb.String(), nil
}
