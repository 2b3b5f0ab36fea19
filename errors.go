package sn

import "errors"

// Common errors.
var (
	// ErrAlreadyInitiated is returned (and logged as a diagnostic) when
	// Initiate is called on a context that has already been initiated.
	// Attribute setters called after initiation return nothing: they log
	// the misuse and leave the context unchanged.
	ErrAlreadyInitiated = errors.New("sn: launcher context already initiated")

	// ErrNotInitiated is returned when Cancel/Complete/SetupChildProcess is
	// called before Initiate.
	ErrNotInitiated = errors.New("sn: launcher context not yet initiated")

	// ErrMissingEnvironment is returned by NewLauncheeFromEnvironment when
	// DESKTOP_LAUNCH_ID or DESKTOP_LAUNCH_WINDOW is absent or malformed.
	ErrMissingEnvironment = errors.New("sn: launch environment not present")

	// ErrPropertyAbsent is returned when a UTF8_STRING property write is
	// rejected by the validator, and by the xmessage numeric-field parser
	// on non-digit input. The property codec's get-operations do not
	// return it: they report any failure (X error, wrong type, wrong
	// format, zero items) as a false ok result without naming the cause.
	ErrPropertyAbsent = errors.New("sn: property absent or malformed")

	// ErrSequenceNotFound names a failed launch-sequence lookup. No function
	// in this package returns it: the registry lookups report a miss as a
	// false ok result.
	ErrSequenceNotFound = errors.New("sn: no matching launch sequence")
)
