package gpu

import (
	"fmt"
	"time"

	"github.com/fxnlabs/gemmbench/internal/device"
	"github.com/fxnlabs/gemmbench/internal/gemm"
	"github.com/fxnlabs/gemmbench/internal/timing"
	"go.uber.org/zap"
)

// Kind tags how a backend offers algorithms.
type Kind int

const (
	// FixedAlgorithm backends expose exactly one implicit candidate.
	FixedAlgorithm Kind = iota
	// HeuristicEnumerated backends ask their library for up to K candidates
	// ordered by the library's own cost estimate.
	HeuristicEnumerated
)

func (k Kind) String() string {
	switch k {
	case FixedAlgorithm:
		return "fixed"
	case HeuristicEnumerated:
		return "heuristic"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Candidate is one concrete kernel variant a backend can execute for one
// shape. The backend-private handle stays inside the backend; Index is the
// only identifier the rest of the system uses. A candidate is valid only
// until the backend's next enumeration.
type Candidate struct {
	Backend string
	// Index is the 0-based sequence index within the enumeration.
	Index int
	// Name describes the variant for reports, e.g. "tile 64x64x32 w8 packB".
	Name string
	// WorkspaceBytes is the scratch memory the variant needs, 0 if none.
	WorkspaceBytes int64
	// EstimatedCost is the backend's own estimate. It is advisory: the
	// enumeration order follows it, rankings never do.
	EstimatedCost float64

	shape      gemm.Shape
	generation uint64
}

// ID is "backend#index".
func (c Candidate) ID() string {
	return fmt.Sprintf("%s#%d", c.Backend, c.Index)
}

// Backend is a compute-library integration capable of executing GEMM.
//
// Implementation notes:
//   - ExecuteCandidate submits onto the backend's device queue and may return
//     before the kernel ran; kernel failures surface from Device().Synchronize().
//   - ExecuteCandidate fully overwrites C (beta = 0) and is safe to call
//     repeatedly with the same inputs.
//   - EnumerateCandidates invalidates every candidate of earlier enumerations.
//   - Backends are not safe for concurrent use.
type Backend interface {
	// Name identifies the backend in reports, e.g. "tiled" or "cublaslt".
	Name() string

	// Kind reports whether the backend is fixed-algorithm or heuristic-enumerated.
	Kind() Kind

	// IsAvailable performs a quick check without heavy initialization.
	IsAvailable() bool

	// Initialize acquires library handles and the workspace. Failures are
	// ResourceErrors.
	Initialize() error

	// Cleanup releases everything Initialize acquired.
	Cleanup() error

	// Device is the compute context the backend executes on.
	Device() device.Device

	// DeviceInfo returns information about the device
	DeviceInfo() device.Info

	// EnumerateCandidates returns up to limit candidates applicable to shape,
	// in the backend's preferred order. Fixed-algorithm backends ignore limit
	// and return exactly one. An empty result is not an error here.
	EnumerateCandidates(shape gemm.Shape, limit int) ([]Candidate, error)

	// Acquire obtains the resources one measurement of c needs. The returned
	// release function must be called on every exit path.
	Acquire(c Candidate, shape gemm.Shape) (release func() error, err error)

	// ExecuteCandidate submits one invocation of c on bufs.
	ExecuteCandidate(c Candidate, shape gemm.Shape, bufs *device.BufferSet) error

	// SimpleExecute runs the backend's default candidate once, synchronized,
	// and returns the elapsed wall time.
	SimpleExecute(shape gemm.Shape, bufs *device.BufferSet) (time.Duration, error)
}

// Options configure backend construction.
type Options struct {
	Device device.Device
	Logger *zap.Logger
	Clock  timing.Clock
	// WorkspaceBytes is the scratch budget of heuristic backends.
	WorkspaceBytes int64
	// Latencies configure the simulated backend: one entry per candidate.
	Latencies []time.Duration
}

// DefaultWorkspaceBytes is the scratch budget used when none is configured.
const DefaultWorkspaceBytes int64 = 32 << 20

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Clock == nil {
		o.Clock = timing.Real()
	}
	if o.WorkspaceBytes <= 0 {
		o.WorkspaceBytes = DefaultWorkspaceBytes
	}
	return o
}
