package domain

import "errors"

// Sentinel errors returned (wrapped) by the engine, stores and image pipeline.
// Callers match them with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrLocked       = errors.New("inventory is locked")
	ErrPrecondition = errors.New("precondition failed")
	ErrValidation   = errors.New("validation failed")
	ErrImageDecode  = errors.New("image decode failed")
	ErrPersistence  = errors.New("persistence failed")
)
