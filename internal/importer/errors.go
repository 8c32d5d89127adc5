package importer

import (
	"errors"
	"fmt"
)

// File-level error kinds. A FileError unwraps to its kind and its cause.
var (
	ErrFileTypeRejected = errors.New("unsupported file type")
	ErrFileRead         = errors.New("failed to read file")
	ErrDecode           = errors.New("failed to decode file")
	ErrNoFileSelected   = errors.New("no file selected")
)

// FileError reports a failure that aborts the whole import.
type FileError struct {
	Kind error
	Name string
	Err  error
}

func (e *FileError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Name, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Name, e.Kind, e.Err)
}

func (e *FileError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func fileError(kind error, name string, err error) *FileError {
	return &FileError{Kind: kind, Name: name, Err: err}
}
