package gemm

import (
	"errors"
	"fmt"
)

// Kind classifies a benchmarking failure.
type Kind int

const (
	KindUnknown Kind = iota
	// KindResource: handle, buffer or workspace acquisition failed. Fatal for the
	// current shape/backend pair only.
	KindResource
	// KindNoAlgorithm: enumeration returned zero candidates. The backend is
	// skipped for the shape.
	KindNoAlgorithm
	// KindExecution: a backend call failed during warmup or the timed batch.
	KindExecution
	// KindInvalidMeasurement: non-positive elapsed time or iteration count.
	KindInvalidMeasurement
)

func (k Kind) String() string {
	switch k {
	case KindResource:
		return "ResourceError"
	case KindNoAlgorithm:
		return "NoAlgorithmAvailable"
	case KindExecution:
		return "ExecutionFailure"
	case KindInvalidMeasurement:
		return "InvalidMeasurement"
	default:
		return "Unknown"
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText accepts the names written by MarshalText.
func (k *Kind) UnmarshalText(text []byte) error {
	for _, kind := range []Kind{KindUnknown, KindResource, KindNoAlgorithm, KindExecution, KindInvalidMeasurement} {
		if string(text) == kind.String() {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown error kind: %q", text)
}

// Sentinels for errors.Is. Any *Error matches the sentinel of its Kind.
var (
	ErrResource             = &Error{Kind: KindResource}
	ErrNoAlgorithmAvailable = &Error{Kind: KindNoAlgorithm}
	ErrExecutionFailure     = &Error{Kind: KindExecution}
	ErrInvalidMeasurement   = &Error{Kind: KindInvalidMeasurement}
)

// Error is the structured error surfaced by every benchmarking primitive.
type Error struct {
	Kind    Kind
	Op      string // operation that failed, e.g. "alloc", "warmup", "enumerate"
	Backend string // empty when not tied to a backend
	Status  string // backend-specific status, e.g. "CUBLAS_STATUS_NOT_SUPPORTED"
	Err     error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Backend != "" {
		msg += " [" + e.Backend + "]"
	}
	if e.Op != "" {
		msg += " in " + e.Op
	}
	if e.Status != "" {
		msg += ": status " + e.Status
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same Kind, so errors.Is(err, ErrResource) works
// for every resource failure regardless of its details.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// NewResourceError reports a failed handle, buffer or workspace acquisition.
func NewResourceError(backend, op string, err error) error {
	return &Error{Kind: KindResource, Backend: backend, Op: op, Err: err}
}

// NewNoAlgorithmError reports an enumeration that produced zero candidates.
func NewNoAlgorithmError(backend string, shape Shape) error {
	return &Error{
		Kind:    KindNoAlgorithm,
		Backend: backend,
		Op:      "enumerate",
		Err:     fmt.Errorf("no candidates for %s", shape),
	}
}

// NewExecutionError reports a non-success status from a backend call.
func NewExecutionError(backend, op, status string, err error) error {
	return &Error{Kind: KindExecution, Backend: backend, Op: op, Status: status, Err: err}
}

// NewInvalidMeasurementError reports a measurement that cannot yield a throughput.
func NewInvalidMeasurementError(op string, format string, args ...any) error {
	return &Error{Kind: KindInvalidMeasurement, Op: op, Err: fmt.Errorf(format, args...)}
}
