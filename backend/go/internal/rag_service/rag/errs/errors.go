// Package errs defines the typed failures of the ingestion and retrieval pipelines.
//
// Every pipeline failure is an *Error carrying a Kind. Callers test for a kind with
// errors.Is against the exported sentinels:
//
//	if errors.Is(err, errs.ErrValidation) { ... }
//
// Wrapping keeps the chain intact, so a RetrievalError caused by an embedding outage
// matches both ErrRetrieval and ErrEmbedding.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation is bad input shape or size. User-correctable.
	KindValidation
	// KindExtraction is an unreadable or corrupt PDF.
	KindExtraction
	// KindEmbedding is an embedding model failure. Retryable by the caller.
	KindEmbedding
	// KindIndex is a vector store failure. Retryable by the caller.
	KindIndex
	// KindGeneration is a generative model failure. Retryable by the caller.
	KindGeneration
	// KindRetrieval wraps embedding or index failures raised while answering a query.
	KindRetrieval
	// KindConfiguration is a deployment or programming defect. Not retryable.
	KindConfiguration
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindExtraction:
		return "extraction"
	case KindEmbedding:
		return "embedding"
	case KindIndex:
		return "index"
	case KindGeneration:
		return "generation"
	case KindRetrieval:
		return "retrieval"
	case KindConfiguration:
		return "configuration"
	default:
		return "unknown"
	}
}

// Error is a classified pipeline failure.
type Error struct {
	Kind Kind
	// Op names the operation that failed, e.g. "ingest.extract".
	Op  string
	Err error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s error", e.Op, e.Kind)
	default:
		return e.Kind.String() + " error"
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind. Sentinels carry no Op or
// cause, so the comparison is by kind only.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrValidation    = &Error{Kind: KindValidation}
	ErrExtraction    = &Error{Kind: KindExtraction}
	ErrEmbedding     = &Error{Kind: KindEmbedding}
	ErrIndex         = &Error{Kind: KindIndex}
	ErrGeneration    = &Error{Kind: KindGeneration}
	ErrRetrieval     = &Error{Kind: KindRetrieval}
	ErrConfiguration = &Error{Kind: KindConfiguration}
)

// E builds an *Error. A nil err yields nil.
func E(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Validation returns a KindValidation error with a formatted message.
func Validation(op, format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Op: op, Err: fmt.Errorf(format, args...)}
}

// Configuration returns a KindConfiguration error with a formatted message.
func Configuration(op, format string, args ...interface{}) error {
	return &Error{Kind: KindConfiguration, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the outermost *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsDependency reports whether err is an external-dependency failure the caller may retry.
func IsDependency(err error) bool {
	return errors.Is(err, ErrEmbedding) || errors.Is(err, ErrIndex) ||
		errors.Is(err, ErrGeneration) || errors.Is(err, ErrRetrieval)
}
