package app

import "errors"

var (
	// Validation failures: reported to the caller as client-side errors,
	// never retried.
	ErrEmptyText       = errors.New("text is empty")
	ErrNoChunks        = errors.New("text produced no chunks after splitting")
	ErrEmptyURL        = errors.New("url is empty")
	ErrNoExtractedText = errors.New("no text could be extracted")
	ErrEmptyDocID      = errors.New("doc id is empty")

	ErrSessionNotFound = errors.New("session not found")
)
