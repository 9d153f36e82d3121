package invoice

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Store keeps the last rendered copy of each invoice on disk.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// EnsureDir creates the invoice directory when missing.
func (s *Store) EnsureDir() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create invoice directory: %w", err)
	}
	return nil
}

// FileName is the download name of an order's invoice.
func FileName(orderID uuid.UUID) string {
	return "invoice-" + orderID.String() + ".pdf"
}

func (s *Store) Path(orderID uuid.UUID) string {
	return filepath.Join(s.dir, FileName(orderID))
}

// Create truncates any previous invoice for the order.
func (s *Store) Create(orderID uuid.UUID) (io.WriteCloser, error) {
	f, err := os.Create(s.Path(orderID))
	if err != nil {
		return nil, fmt.Errorf("failed to create invoice file: %w", err)
	}
	return f, nil
}

// Delete removes the invoice file. A missing file is not an error.
func (s *Store) Delete(orderID uuid.UUID) error {
	err := RemoveFile(s.Path(orderID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// RemoveFile deletes a file and reports the failure to the caller.
func RemoveFile(path string) error {
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}
