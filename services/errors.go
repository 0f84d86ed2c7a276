package services

import "errors"

// Sentinel errors shared across the services layer. Controllers translate
// these into API error codes; the pipeline uses them to tell recoverable
// downstream conditions apart from load-bearing failures.
var (
	// ErrInvalidTransition is returned for appointment status transitions
	// the state machine does not support (e.g. completed back to scheduled,
	// or canceling an already finished appointment).
	ErrInvalidTransition = errors.New("unsupported appointment status transition")

	// ErrClassifierUnavailable means the classifier artifact or its metadata
	// could not be loaded. Reclassification is skipped and the client keeps
	// its previous segment; this never fails the triggering write.
	ErrClassifierUnavailable = errors.New("classifier artifact unavailable")

	// ErrUnknownSegment is returned when the classifier produces a label
	// outside the known A-D set.
	ErrUnknownSegment = errors.New("unknown segment label")
)
