package audiograph

import "audiograph/internal/aerrors"

// Kind classifies an Error. See internal/aerrors for the canonical list;
// re-exported here so callers never need to import an internal package.
type Kind = aerrors.Kind

const (
	NotSupported  = aerrors.NotSupported
	IndexSize     = aerrors.IndexSize
	InvalidState  = aerrors.InvalidState
	InvalidAccess = aerrors.InvalidAccess
	Range         = aerrors.Range
)

// Error is the engine's error type: a Kind plus a message. Errors from a
// Context method call are returned synchronously; errors discovered on
// the render thread are logged and the offending message dropped, never
// surfaced as a returned error (see graph.Engine.DroppedMessages).
type Error = aerrors.Error

// newError mirrors aerrors.New, kept unexported since callers never need
// to construct one themselves - only compare kinds with errors.Is.
func newError(k Kind, msg string) *Error {
	return aerrors.New(k, msg)
}
