package bill

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// Fingerprint returns the content hash used as the dedup and storage key.
// Identical bytes always produce the identical fingerprint; this is a
// uniqueness check, not a security boundary, so MD5's 128 bits are enough.
func Fingerprint(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// BlobName builds the content-addressed file name for a fingerprint.
func BlobName(fingerprint, ext string) string {
	return fmt.Sprintf("%s.%s", fingerprint, ext)
}

// Storage defines the interface for blob storage operations
type Storage interface {
	// Exists reports whether a blob with this name is already stored
	Exists(name string) bool

	// Save stores a blob and returns its full path
	Save(name string, data []byte) (string, error)

	// Get retrieves a blob by name
	Get(name string) ([]byte, error)
}

// LocalStorage implements the Storage interface using a single local directory
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new LocalStorage instance
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	// Create directory if it doesn't exist
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}

	return &LocalStorage{
		basePath: basePath,
	}, nil
}

// Exists checks for a blob on disk. This is the only deduplication signal
// the pipeline uses, and it persists across runs.
func (l *LocalStorage) Exists(name string) bool {
	_, err := os.Stat(filepath.Join(l.basePath, name))
	return err == nil
}

// Save writes a blob to local storage. Blobs are write-once: an existing
// blob is never rewritten.
func (l *LocalStorage) Save(name string, data []byte) (string, error) {
	path := filepath.Join(l.basePath, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing blob: %w", err)
	}
	return path, nil
}

// Get retrieves a blob from local storage
func (l *LocalStorage) Get(name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(l.basePath, name))
	if err != nil {
		return nil, fmt.Errorf("reading blob: %w", err)
	}
	return data, nil
}
