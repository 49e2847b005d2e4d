// Package shim runs one recognition and reports it as a single JSON line.
//
// Every run writes exactly one document to its output: the recognizer's result
// on success, or {"error": "<message>"} on any failure.
package shim

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

const msgNoFilePath = "No file path provided"

// Recognizer identifies the audio at path. The result is emitted as-is.
type Recognizer interface {
	Recognize(ctx context.Context, path string) (any, error)
}

// RecognizerFunc adapts a function to Recognizer.
type RecognizerFunc func(ctx context.Context, path string) (any, error)

func (f RecognizerFunc) Recognize(ctx context.Context, path string) (any, error) {
	return f(ctx, path)
}

// Factory builds the recognizer lazily so a missing argument never opens a
// catalog or dials a service.
type Factory func() (Recognizer, error)

// ErrorReport is the document written for every failure.
type ErrorReport struct {
	Error string `json:"error"`
}

// ReportedError is returned once a failure has been written as an
// ErrorReport. Callers should not print it again.
type ReportedError struct {
	Err error
}

func (e *ReportedError) Error() string { return e.Err.Error() }
func (e *ReportedError) Unwrap() error { return e.Err }

// Run takes the first positional argument as the audio path. Extra arguments
// are ignored. It returns nil on success, a *ReportedError when an error
// document was written, or the write error if out itself failed.
func Run(ctx context.Context, args []string, out io.Writer, newRecognizer Factory) error {
	if len(args) < 1 {
		return WriteError(out, errors.New(msgNoFilePath))
	}

	rec, err := newRecognizer()
	if err != nil {
		return WriteError(out, err)
	}

	result, err := recognize(ctx, rec, args[0])
	if err != nil {
		return WriteError(out, err)
	}

	line, err := encode(result)
	if err != nil {
		return WriteError(out, fmt.Errorf("encoding result: %w", err))
	}
	_, err = out.Write(line)
	return err
}

// WriteError writes err as an ErrorReport and returns it wrapped in a
// *ReportedError, or the write error if out failed.
func WriteError(out io.Writer, err error) error {
	line, encErr := encode(ErrorReport{Error: err.Error()})
	if encErr != nil {
		return encErr
	}
	if _, werr := out.Write(line); werr != nil {
		return werr
	}
	return &ReportedError{Err: err}
}

// recognize turns a panicking recognizer into an ordinary error.
func recognize(ctx context.Context, rec Recognizer, path string) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("%v", r)
		}
	}()
	return rec.Recognize(ctx, path)
}

// encode renders v as one compact, newline-terminated JSON line.
func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
