// Package rerrors provides the structured error kinds used across the
// hotness pipeline: embedding-store corruption, index corruption,
// dimension mismatches, out-of-range document ids, embedder failures,
// I/O failures, and cancellation.
package rerrors

import "fmt"

// Kind classifies an Error. Callers should branch on Kind (via errors.As
// and Error.Kind, or the Is* helpers) rather than string-matching
// messages.
type Kind string

const (
	// KindCorruptEmbeddings indicates a persisted embeddings blob failed
	// its unit-norm or header validation on load.
	KindCorruptEmbeddings Kind = "CorruptEmbeddings"

	// KindIndexCorrupt indicates a persisted HNSW index blob failed
	// validation on load: bad magic or version, truncated data, or an
	// out-of-range neighbor or entry id. The blob carries no checksum.
	KindIndexCorrupt Kind = "IndexCorrupt"

	// KindDimensionMismatch indicates a query or row vector's dimension
	// does not match the index or store's configured dimension.
	KindDimensionMismatch Kind = "DimensionMismatch"

	// KindOutOfRange indicates a document id outside [0, N).
	KindOutOfRange Kind = "OutOfRange"

	// KindEmbedderFailure indicates the embedder collaborator raised an
	// error for a batch.
	KindEmbedderFailure Kind = "EmbedderFailure"

	// KindIoFailure indicates a failure reading or writing a persisted
	// blob.
	KindIoFailure Kind = "IoFailure"

	// KindCancelled indicates a run was stopped via its cancellation
	// signal.
	KindCancelled Kind = "Cancelled"
)

// Error is the structured error type for the hotness pipeline. It
// carries a Kind for programmatic dispatch (build-time failures abort
// the run; EmbedderFailure during query is recorded and the run
// continues) plus an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is supports errors.Is(err, &Error{Kind: KindX}) to check kind only.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind == "" {
		return false
	}
	return e.Kind == t.Kind
}

// New constructs an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap constructs an Error of the given kind around a cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// CorruptEmbeddings builds a KindCorruptEmbeddings error.
func CorruptEmbeddings(message string, cause error) *Error {
	return Wrap(KindCorruptEmbeddings, message, cause)
}

// IndexCorrupt builds a KindIndexCorrupt error.
func IndexCorrupt(message string, cause error) *Error {
	return Wrap(KindIndexCorrupt, message, cause)
}

// DimensionMismatch builds a KindDimensionMismatch error reporting the
// expected and actual dimensions.
func DimensionMismatch(expected, got int) *Error {
	return New(KindDimensionMismatch, fmt.Sprintf("expected dimension %d, got %d", expected, got))
}

// OutOfRange builds a KindOutOfRange error for a document id.
func OutOfRange(id, n int) *Error {
	return New(KindOutOfRange, fmt.Sprintf("doc id %d out of range [0, %d)", id, n))
}

// EmbedderFailure builds a KindEmbedderFailure error around a cause.
func EmbedderFailure(message string, cause error) *Error {
	return Wrap(KindEmbedderFailure, message, cause)
}

// IoFailure builds a KindIoFailure error around a cause.
func IoFailure(message string, cause error) *Error {
	return Wrap(KindIoFailure, message, cause)
}

// Cancelled builds a KindCancelled error.
func Cancelled() *Error {
	return New(KindCancelled, "run cancelled")
}

// IsKind reports whether err is a *Error of the given kind, anywhere in
// its chain.
func IsKind(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Kind == kind {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
