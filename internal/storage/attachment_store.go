package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// AttachmentStore keeps uploaded attachment files on the local
// filesystem, one folder per record code. It stores bytes only; the
// audit trail of who attached what lives with the workflow engine.
type AttachmentStore struct {
	baseDir string
	logger  *zap.Logger
}

// NewAttachmentStore creates a new AttachmentStore rooted at baseDir
func NewAttachmentStore(baseDir string, logger *zap.Logger) *AttachmentStore {
	return &AttachmentStore{
		baseDir: baseDir,
		logger:  logger,
	}
}

// Save writes the attachment under the record's folder and returns the
// stored path. Parent directories are created as needed.
func (s *AttachmentStore) Save(recordCode, fileName string, content []byte) (string, error) {
	if recordCode == "" {
		return "", fmt.Errorf("cannot store attachment: empty record code")
	}
	safeFile := SanitizeName(fileName)
	if safeFile == "" {
		return "", fmt.Errorf("cannot store attachment: unusable file name %q", fileName)
	}

	fullPath := filepath.Join(s.RecordFolder(recordCode), safeFile)
	if err := s.validatePath(fullPath); err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		s.logger.Error("Failed to create attachment folder",
			zap.String("record_code", recordCode),
			zap.Error(err))
		return "", fmt.Errorf("failed to create directories: %w", err)
	}

	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		s.logger.Error("Failed to write attachment",
			zap.String("path", fullPath),
			zap.Error(err))
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	s.logger.Debug("Attachment stored",
		zap.String("path", fullPath),
		zap.Int("size", len(content)))
	return fullPath, nil
}

// RecordFolder returns the folder path for a record's attachments.
// It does not create the folder.
func (s *AttachmentStore) RecordFolder(recordCode string) string {
	return filepath.Join(s.baseDir, SanitizeName(recordCode))
}

// List returns the stored file names for a record, empty when the
// record has no folder yet.
func (s *AttachmentStore) List(recordCode string) ([]string, error) {
	entries, err := os.ReadDir(s.RecordFolder(recordCode))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// Remove deletes a record's attachment folder and all contents. It is
// idempotent: a missing folder is not an error.
func (s *AttachmentStore) Remove(recordCode string) error {
	folderPath := s.RecordFolder(recordCode)
	if _, err := os.Stat(folderPath); os.IsNotExist(err) {
		return nil
	}

	if err := os.RemoveAll(folderPath); err != nil {
		s.logger.Error("Failed to delete attachment folder",
			zap.String("record_code", recordCode),
			zap.String("folder_path", folderPath),
			zap.Error(err))
		return fmt.Errorf("failed to delete folder: %w", err)
	}
	return nil
}

// validatePath checks that the resolved path stays within baseDir
func (s *AttachmentStore) validatePath(fullPath string) error {
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

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

// SanitizeName returns a filesystem-safe version of the name. Path
// separators and parent references are stripped to prevent traversal.
func SanitizeName(name string) string {
	name = strings.ReplaceAll(name, "..", "")
	name = strings.ReplaceAll(name, "/", "")
	name = strings.ReplaceAll(name, "\\", "")
	name = unsafeChars.ReplaceAllString(name, "")
	return strings.Trim(name, ".")
}
