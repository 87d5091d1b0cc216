package models

import "errors"

// Per-invoice failure taxonomy. Every failure is fatal for its invoice only.
var (
	// ErrExtractionEmpty is returned when no text could be obtained from a PDF.
	ErrExtractionEmpty = errors.New("no text could be extracted from the PDF")

	// ErrMalformedResponse is returned when the model output is not parseable JSON.
	ErrMalformedResponse = errors.New("model response is not valid JSON")

	// ErrSchemaMismatch is returned when the model output parses but has the wrong shape.
	ErrSchemaMismatch = errors.New("model response does not match the invoice schema")

	// ErrRenderingFailure is returned when the HTML report cannot be turned into a PDF.
	ErrRenderingFailure = errors.New("report rendering failed")

	// ErrModelCall is returned when the completion service call itself fails.
	ErrModelCall = errors.New("model call failed")

	// ErrUnsupportedInput is returned for uploads that are not PDF documents.
	ErrUnsupportedInput = errors.New("unsupported input: expected a PDF document")
)
