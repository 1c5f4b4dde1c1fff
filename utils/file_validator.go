package utils

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/princinho/moviecatalog/config"
)

var (
	ErrFileTooLarge     = errors.New("file too large")
	ErrFileExtension    = errors.New("invalid file extension")
	ErrFileType         = errors.New("invalid file type")
	ErrFileUnreadable   = errors.New("failed to read file header")
	ErrFileMissing      = errors.New("no file uploaded")
	ErrStorageDisabled  = errors.New("file storage is not configured")
	ErrStorageUnhealthy = errors.New("file storage is temporarily unavailable")
)

// FileValidator checks uploads by size, extension and sniffed content type.
type FileValidator struct {
	allowedExt  map[string]bool
	allowedMime map[string]bool
	maxSize     int64
}

func NewFileValidator(cfg config.StorageConfig) *FileValidator {
	allowedExt := make(map[string]bool)
	for _, ext := range cfg.AllowedExtensions {
		if ext = strings.TrimSpace(strings.ToLower(ext)); ext != "" {
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			allowedExt[ext] = true
		}
	}

	allowedMime := make(map[string]bool)
	for _, m := range cfg.AllowedMimeTypes {
		if m = strings.TrimSpace(strings.ToLower(m)); m != "" {
			allowedMime[m] = true
		}
	}

	return &FileValidator{
		allowedExt:  allowedExt,
		allowedMime: allowedMime,
		maxSize:     cfg.MaxUploadBytes(),
	}
}

func (v *FileValidator) MaxSize() int64 { return v.maxSize }

// ValidateFile returns the detected mime type of an acceptable upload.
func (v *FileValidator) ValidateFile(fileHeader *multipart.FileHeader) (string, error) {
	if fileHeader == nil {
		return "", ErrFileMissing
	}
	if fileHeader.Size > v.maxSize {
		return "", fmt.Errorf("%w (max %d MB)", ErrFileTooLarge, v.maxSize>>20)
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !v.allowedExt[ext] {
		return "", ErrFileExtension
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()

	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", ErrFileUnreadable
	}
	if n == 0 {
		return "", ErrFileUnreadable
	}

	detected := strings.ToLower(http.DetectContentType(buffer[:n]))
	if i := strings.Index(detected, ";"); i >= 0 {
		detected = strings.TrimSpace(detected[:i])
	}
	if !v.allowedMime[detected] {
		return "", ErrFileType
	}
	return detected, nil
}
