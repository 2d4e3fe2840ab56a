package domain

import "errors"

// ErrSheetNotFound is returned when the engine holds no sheet for a key.
var ErrSheetNotFound = errors.New("character sheet not found")

// ErrDocumentNotFound is returned when a document ID cannot be found in the store.
var ErrDocumentNotFound = errors.New("document not found")

// ErrUnsupportedChange is returned when a change kind has no registered handler.
var ErrUnsupportedChange = errors.New("unsupported change type")
