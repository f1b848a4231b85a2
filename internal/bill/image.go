package bill

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/gen2brain/heic"
)

// isHEICFormat checks if the image data is in HEIC/HEIF format.
// HEIC files carry an ftyp box at offset 4 with a HEIC-related brand.
func isHEICFormat(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	if string(data[4:8]) == "ftyp" {
		brand := string(data[8:12])
		if brand == "heic" || brand == "heif" || brand == "mif1" || brand == "msf1" {
			return true
		}
	}
	return false
}

// normalizeImage prepares image attachment bytes for storage and returns
// the data plus the extension to store it under. JPEG and PNG scans are
// stored verbatim under their original extension. Phone cameras commonly
// produce HEIC, which Go's standard image package cannot decode, so those
// are re-encoded as PNG before storage.
func normalizeImage(data []byte, ext string) ([]byte, string, error) {
	if !isHEICFormat(data) {
		return data, ext, nil
	}

	img, err := heic.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decoding HEIC/HEIF image: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, "", fmt.Errorf("encoding PNG: %w", err)
	}

	return buf.Bytes(), "png", nil
}
