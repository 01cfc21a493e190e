package export

import "errors"

// Common errors. Every one of these is unrecoverable for the run that
// triggers it: no retries, no partial packages, and previously written
// packages are left untouched.
var (
	ErrTraceFailure            = errors.New("trace failure: example execution did not complete deterministically")
	ErrExportTargetUnsupported = errors.New("unsupported export target")
	ErrShapeRejected           = errors.New("input shapes not declared by the package")
	ErrInvalidMagic            = errors.New("invalid magic bytes")
	ErrUnsupportedVersion      = errors.New("unsupported package format version")
	ErrChecksumMismatch        = errors.New("checksum mismatch: package may be corrupted")
)
