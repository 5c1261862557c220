package extraction

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/daybreak-app/daybreak-api/internal/domain"
)

// Kind identifies the format of a single source file.
type Kind string

// Supported source file kinds.
const (
	KindPDF      Kind = "pdf"
	KindMarkdown Kind = "markdown"
	KindText     Kind = "text"
)

// RawSource is one loaded source file.
type RawSource struct {
	File domain.SourceFile
	Kind Kind
	Data []byte
}

// RawPayload is a fully loaded source bundle. Sources keep the caller's
// submission order.
type RawPayload struct {
	Sources []RawSource
}

// Reader loads source bundles from disk and enforces bundle limits.
type Reader struct {
	maxFileBytes int64
	maxFiles     int
}

// NewReader creates a Reader with the given per-file size and bundle count
// limits. Zero disables the corresponding limit.
func NewReader(maxFileBytes int64, maxFiles int) *Reader {
	return &Reader{
		maxFileBytes: maxFileBytes,
		maxFiles:     maxFiles,
	}
}

// Read validates and loads every file in the bundle, preserving order. The
// recorded file size must match the size on disk; a mismatch means the file
// changed after the job was submitted.
func (r *Reader) Read(ctx context.Context, files []domain.SourceFile) (*RawPayload, error) {
	if len(files) == 0 {
		return nil, ErrNoSourceFiles
	}
	if r.maxFiles > 0 && len(files) > r.maxFiles {
		return nil, fmt.Errorf("%w: %d files, limit %d", ErrTooManyFiles, len(files), r.maxFiles)
	}

	payload := &RawPayload{Sources: make([]RawSource, 0, len(files))}
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		kind, err := kindForPath(file.FilePath)
		if err != nil {
			return nil, err
		}

		info, err := os.Stat(file.FilePath)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrUnreadableSource, file.FileName, err)
		}
		if r.maxFileBytes > 0 && info.Size() > r.maxFileBytes {
			return nil, fmt.Errorf("%w: %s is %d bytes, limit %d",
				ErrFileTooLarge, file.FileName, info.Size(), r.maxFileBytes)
		}
		if file.FileSize > 0 && info.Size() != file.FileSize {
			return nil, fmt.Errorf("%w: %s recorded %d bytes, found %d",
				ErrSizeMismatch, file.FileName, file.FileSize, info.Size())
		}

		data, err := os.ReadFile(file.FilePath)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrUnreadableSource, file.FileName, err)
		}

		payload.Sources = append(payload.Sources, RawSource{
			File: file,
			Kind: kind,
			Data: data,
		})
	}

	return payload, nil
}

func kindForPath(path string) (Kind, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "pdf":
		return KindPDF, nil
	case "md", "markdown":
		return KindMarkdown, nil
	case "txt":
		return KindText, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFileType, ext)
	}
}
