package gemm

import (
	"fmt"
	"strconv"
	"strings"
)

// ElementType is the storage type of the A, B and C matrices.
type ElementType int

const (
	Float32 ElementType = iota
	Float16
	BFloat16
)

// Size returns the number of bytes of one element.
func (e ElementType) Size() int64 {
	switch e {
	case Float16, BFloat16:
		return 2
	default:
		return 4
	}
}

func (e ElementType) String() string {
	switch e {
	case Float32:
		return "f32"
	case Float16:
		return "f16"
	case BFloat16:
		return "bf16"
	default:
		return fmt.Sprintf("ElementType(%d)", int(e))
	}
}

// MarshalText implements encoding.TextMarshaler so the type reads naturally in JSON and YAML reports.
func (e ElementType) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *ElementType) UnmarshalText(text []byte) error {
	parsed, err := ParseElementType(string(text))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// ParseElementType accepts the short names used in configs and flags.
func ParseElementType(s string) (ElementType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "f32", "fp32", "float32":
		return Float32, nil
	case "f16", "fp16", "float16", "half":
		return Float16, nil
	case "bf16", "bfloat16":
		return BFloat16, nil
	default:
		return 0, fmt.Errorf("unknown element type: %q", s)
	}
}

// Layout is the storage order of all three matrices.
type Layout int

const (
	// ColumnMajor is the BLAS convention: lda=m, ldb=k, ldc=m.
	ColumnMajor Layout = iota
	RowMajor
)

func (l Layout) String() string {
	switch l {
	case ColumnMajor:
		return "col"
	case RowMajor:
		return "row"
	default:
		return fmt.Sprintf("Layout(%d)", int(l))
	}
}

func (l Layout) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Layout) UnmarshalText(text []byte) error {
	parsed, err := ParseLayout(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseLayout accepts "col", "column", "column-major", "row", "row-major".
func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "col", "column", "column-major", "colmajor":
		return ColumnMajor, nil
	case "row", "row-major", "rowmajor":
		return RowMajor, nil
	default:
		return 0, fmt.Errorf("unknown layout: %q", s)
	}
}

// Shape describes one matrix-multiply problem: C(m×n) = A(m×k) · B(k×n).
// A Shape is a value; nothing in the repository mutates one after creation.
type Shape struct {
	M           int         `json:"m" yaml:"m"`
	N           int         `json:"n" yaml:"n"`
	K           int         `json:"k" yaml:"k"`
	ElementType ElementType `json:"elementType" yaml:"elementType"`
	Layout      Layout      `json:"layout" yaml:"layout"`
}

// NewShape validates the dimensions and returns the shape.
func NewShape(m, n, k int, et ElementType, layout Layout) (Shape, error) {
	s := Shape{M: m, N: n, K: k, ElementType: et, Layout: layout}
	if err := s.Validate(); err != nil {
		return Shape{}, err
	}
	return s, nil
}

// Validate checks that every dimension is strictly positive and the enums are known.
func (s Shape) Validate() error {
	if s.M <= 0 || s.N <= 0 || s.K <= 0 {
		return fmt.Errorf("invalid shape %dx%dx%d: dimensions must be positive", s.M, s.N, s.K)
	}
	switch s.ElementType {
	case Float32, Float16, BFloat16:
	default:
		return fmt.Errorf("invalid shape: %v", s.ElementType)
	}
	switch s.Layout {
	case ColumnMajor, RowMajor:
	default:
		return fmt.Errorf("invalid shape: %v", s.Layout)
	}
	return nil
}

// Ops is the dense GEMM operation count 2·m·n·k (one multiply and one add
// per output element per reduction step).
func (s Shape) Ops() float64 {
	return 2 * float64(s.M) * float64(s.N) * float64(s.K)
}

// Elements returns the element counts of A, B and C.
func (s Shape) Elements() (a, b, c int) {
	return s.M * s.K, s.K * s.N, s.M * s.N
}

// Bytes returns the exact byte sizes of A, B and C.
func (s Shape) Bytes() (a, b, c int64) {
	ea, eb, ec := s.Elements()
	size := s.ElementType.Size()
	return int64(ea) * size, int64(eb) * size, int64(ec) * size
}

// LeadingDims returns lda, ldb, ldc for the shape's layout.
func (s Shape) LeadingDims() (lda, ldb, ldc int) {
	if s.Layout == RowMajor {
		return s.K, s.N, s.N
	}
	return s.M, s.K, s.M
}

// Dims is the short "MxNxK" form.
func (s Shape) Dims() string {
	return fmt.Sprintf("%dx%dx%d", s.M, s.N, s.K)
}

func (s Shape) String() string {
	return fmt.Sprintf("%s/%s/%s", s.Dims(), s.ElementType, s.Layout)
}

// ParseDims parses "MxNxK" (also accepting "M,N,K").
func ParseDims(s string) (m, n, k int, err error) {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r == 'x' || r == ',' || r == '*'
	})
	if len(fields) != 3 {
		return 0, 0, 0, fmt.Errorf("invalid dims %q: expected MxNxK", s)
	}
	dims := make([]int, 3)
	for i, f := range fields {
		v, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return 0, 0, 0, fmt.Errorf("invalid dims %q: %w", s, err)
		}
		if v <= 0 {
			return 0, 0, 0, fmt.Errorf("invalid dims %q: dimensions must be positive", s)
		}
		dims[i] = v
	}
	return dims[0], dims[1], dims[2], nil
}
