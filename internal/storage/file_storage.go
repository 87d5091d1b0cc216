// Package storage writes pipeline output to the local filesystem.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/fatura-reader/internal/invoice"
	"github.com/garyjia/fatura-reader/internal/models"
)

// FileType represents the type of file being stored
type FileType int

const (
	FileTypePDF FileType = iota + 1
	FileTypeJSON
	FileTypeArchive
)

func (t FileType) String() string {
	switch t {
	case FileTypePDF:
		return "pdf"
	case FileTypeJSON:
		return "json"
	case FileTypeArchive:
		return "archive"
	default:
		return "unknown"
	}
}

var unsafeChars = regexp.MustCompile(`[^\p{L}\p{N}\-_. ]`)

// LocalFileStorage writes files under a base directory
type LocalFileStorage struct {
	baseDir string
	logger  *zap.Logger
}

// NewLocalFileStorage creates a new LocalFileStorage
func NewLocalFileStorage(baseDir string, logger *zap.Logger) *LocalFileStorage {
	return &LocalFileStorage{
		baseDir: baseDir,
		logger:  logger,
	}
}

// SaveFileWithType writes content to fullPath, creating parent directories.
// The path must stay inside the base directory.
func (s *LocalFileStorage) SaveFileWithType(fullPath string, content []byte, fileType FileType) error {
	if err := s.ValidatePath(fullPath); err != nil {
		return err
	}

	parentDir := filepath.Dir(fullPath)
	if err := os.MkdirAll(parentDir, 0755); err != nil {
		s.logger.Error("Failed to create parent directories",
			zap.String("path", parentDir),
			zap.Error(err))
		return fmt.Errorf("failed to create directories: %w", err)
	}

	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		s.logger.Error("Failed to write file",
			zap.String("path", fullPath),
			zap.Error(err))
		return fmt.Errorf("failed to write file: %w", err)
	}

	s.logger.Debug("File saved successfully",
		zap.String("path", fullPath),
		zap.Int("size", len(content)),
		zap.Stringer("file_type", fileType))

	return nil
}

// SaveInvoice writes <stem>.pdf and <stem>.json for one processed invoice
// and returns both paths
func (s *LocalFileStorage) SaveInvoice(res models.ProcessedInvoice) (pdfPath, jsonPath string, err error) {
	stem := SanitizeName(res.Filename)

	data, err := invoice.Encode(res.Record)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode %s: %w", stem, err)
	}

	pdfPath = filepath.Join(s.baseDir, stem+".pdf")
	if err := s.SaveFileWithType(pdfPath, res.PDF, FileTypePDF); err != nil {
		return "", "", err
	}
	jsonPath = filepath.Join(s.baseDir, stem+".json")
	if err := s.SaveFileWithType(jsonPath, data, FileTypeJSON); err != nil {
		return "", "", err
	}

	return pdfPath, jsonPath, nil
}

// SaveArchive writes a bundle under the base directory
func (s *LocalFileStorage) SaveArchive(name string, content []byte) (string, error) {
	path := filepath.Join(s.baseDir, SanitizeName(name))
	if err := s.SaveFileWithType(path, content, FileTypeArchive); err != nil {
		return "", err
	}
	return path, nil
}

// ValidatePath checks that the path is safe and within baseDir
func (s *LocalFileStorage) ValidatePath(fullPath string) error {
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) && absPath != absBase {
		return fmt.Errorf("path escapes base directory: %s", fullPath)
	}

	return nil
}

// SanitizeName returns a filesystem-safe file name. Separators and parent
// references are removed; accented letters are kept.
func SanitizeName(name string) string {
	name = strings.ReplaceAll(name, "..", "")
	name = strings.ReplaceAll(name, "/", "")
	name = strings.ReplaceAll(name, "\\", "")
	name = strings.TrimSpace(unsafeChars.ReplaceAllString(name, ""))
	name = strings.Trim(name, ".")
	if name == "" {
		return "fatura"
	}
	return name
}
