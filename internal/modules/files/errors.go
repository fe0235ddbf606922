package files

import "errors"

var (
	ErrInvalidExtension = errors.New("only .txt files are allowed")
	ErrEmptyFile        = errors.New("file is empty")
	ErrFileTooLarge     = errors.New("file size exceeds maximum of 102400 KB (100 MB)")
	ErrInvalidEncoding  = errors.New("file must be valid UTF-8 encoded text")

	// ErrSearchUpstream wraps failures of the remote search backend so the
	// handler can surface the upstream message instead of a generic 500.
	ErrSearchUpstream = errors.New("search backend error")
)
