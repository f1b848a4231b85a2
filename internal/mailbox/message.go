package mailbox

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	_ "github.com/emersion/go-message/charset" // decode non-UTF-8 message parts
	"github.com/emersion/go-message/mail"
)

// MediaType classifies an attachment by its filename extension
type MediaType string

const (
	MediaPDF   MediaType = "pdf"
	MediaImage MediaType = "image"
	MediaOther MediaType = "other"
)

// Attachment is a file-like message part. It lives only for the duration of
// one pipeline pass.
type Attachment struct {
	Filename string
	Media    MediaType
	Ext      string // lowercased, without the dot
	Data     []byte
}

// ClassifyFilename maps a decoded filename to a media type and extension.
func ClassifyFilename(filename string) (MediaType, string) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	switch ext {
	case "pdf":
		return MediaPDF, ext
	case "png", "jpg", "jpeg", "heic", "heif":
		return MediaImage, ext
	}
	return MediaOther, ext
}

// ParseAttachments walks a raw message's MIME part tree depth-first and
// returns its file-like parts. A part qualifies iff it is not a multipart
// container, carries a content-disposition header and names a file.
// Encoded-word filenames are decoded before extension inspection. Parts
// with unrecognized extensions or empty payloads are dropped, not errors.
func ParseAttachments(raw []byte) ([]Attachment, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing message: %w", err)
	}

	var attachments []Attachment
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return attachments, fmt.Errorf("reading message part: %w", err)
		}

		var filename string
		switch h := part.Header.(type) {
		case *mail.AttachmentHeader:
			filename, _ = h.Filename()
		case *mail.InlineHeader:
			// Some senders attach bills with an inline disposition.
			// InlineHeader has no Filename method; it shares its underlying
			// type with AttachmentHeader, so convert to reuse its parsing.
			filename, _ = (*mail.AttachmentHeader)(h).Filename()
		}
		if filename == "" {
			continue
		}

		media, ext := ClassifyFilename(filename)
		if media == MediaOther {
			slog.Info("Ignoring attachment with unsupported extension", "filename", filename)
			continue
		}

		data, err := io.ReadAll(part.Body)
		if err != nil {
			slog.Warn("Could not read attachment payload", "filename", filename, "error", err)
			continue
		}
		if len(data) == 0 {
			slog.Warn("Skipping empty attachment", "filename", filename)
			continue
		}

		attachments = append(attachments, Attachment{
			Filename: filename,
			Media:    media,
			Ext:      ext,
			Data:     data,
		})
	}

	return attachments, nil
}
