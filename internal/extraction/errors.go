package extraction

import "errors"

// Common extraction errors.
var (
	// ErrNoSourceFiles is returned when a bundle contains no files.
	ErrNoSourceFiles = errors.New("no source files to extract")

	// ErrTooManyFiles is returned when a bundle exceeds the configured
	// file count limit.
	ErrTooManyFiles = errors.New("too many source files")

	// ErrFileTooLarge is returned when a source file exceeds the configured
	// size limit.
	ErrFileTooLarge = errors.New("source file too large")

	// ErrSizeMismatch is returned when a file on disk does not match the
	// size recorded on the job, which means the file changed between
	// submission and extraction.
	ErrSizeMismatch = errors.New("source file size mismatch")

	// ErrUnreadableSource is returned when a source file cannot be read
	// from disk.
	ErrUnreadableSource = errors.New("source file unreadable")

	// ErrUnsupportedFileType is returned for file extensions the extractor
	// does not understand.
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrExtractionFailed wraps parser-level failures.
	ErrExtractionFailed = errors.New("extraction failed")
)
