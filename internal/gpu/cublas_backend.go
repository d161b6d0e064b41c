//go:build cuda
// +build cuda

package gpu

/*
#cgo LDFLAGS: -lcublas -lcublasLt -lcudart
#include <cuda_runtime.h>
#include <cublas_v2.h>
#include <cublasLt.h>
#include <stdlib.h>

static cudaDataType_t gemm_data_type(int et) {
	switch (et) {
	case 1: return CUDA_R_16F;
	case 2: return CUDA_R_16BF;
	default: return CUDA_R_32F;
	}
}

static cublasStatus_t gemm_ex(cublasHandle_t h, int m, int n, int k,
		const void *a, int lda, const void *b, int ldb, void *c, int ldc, int et) {
	const float alpha = 1.0f, beta = 0.0f;
	cudaDataType_t t = gemm_data_type(et);
	return cublasGemmEx(h, CUBLAS_OP_N, CUBLAS_OP_N, m, n, k,
		&alpha, a, t, lda, b, t, ldb,
		&beta, c, t, ldc,
		CUBLAS_COMPUTE_32F, CUBLAS_GEMM_DEFAULT);
}

typedef struct {
	cublasLtMatmulDesc_t desc;
	cublasLtMatrixLayout_t a, b, c;
} lt_problem;

static cublasStatus_t lt_problem_create(lt_problem *p, int m, int n, int k,
		int lda, int ldb, int ldc, int et) {
	cudaDataType_t t = gemm_data_type(et);
	cublasStatus_t s = cublasLtMatmulDescCreate(&p->desc, CUBLAS_COMPUTE_32F, CUDA_R_32F);
	if (s != CUBLAS_STATUS_SUCCESS) return s;
	if ((s = cublasLtMatrixLayoutCreate(&p->a, t, m, k, lda)) != CUBLAS_STATUS_SUCCESS) return s;
	if ((s = cublasLtMatrixLayoutCreate(&p->b, t, k, n, ldb)) != CUBLAS_STATUS_SUCCESS) return s;
	return cublasLtMatrixLayoutCreate(&p->c, t, m, n, ldc);
}

static void lt_problem_destroy(lt_problem *p) {
	if (p->c) cublasLtMatrixLayoutDestroy(p->c);
	if (p->b) cublasLtMatrixLayoutDestroy(p->b);
	if (p->a) cublasLtMatrixLayoutDestroy(p->a);
	if (p->desc) cublasLtMatmulDescDestroy(p->desc);
}

static cublasStatus_t lt_heuristics(cublasLtHandle_t h, lt_problem *p, size_t workspace,
		int requested, cublasLtMatmulHeuristicResult_t *results, int *returned) {
	cublasLtMatmulPreference_t pref;
	cublasStatus_t s = cublasLtMatmulPreferenceCreate(&pref);
	if (s != CUBLAS_STATUS_SUCCESS) return s;
	s = cublasLtMatmulPreferenceSetAttribute(pref, CUBLASLT_MATMUL_PREF_MAX_WORKSPACE_BYTES,
		&workspace, sizeof(workspace));
	if (s == CUBLAS_STATUS_SUCCESS) {
		s = cublasLtMatmulAlgoGetHeuristic(h, p->desc, p->a, p->b, p->c, p->c, pref,
			requested, results, returned);
	}
	cublasLtMatmulPreferenceDestroy(pref);
	return s;
}

static cublasStatus_t lt_matmul(cublasLtHandle_t h, lt_problem *p, const cublasLtMatmulAlgo_t *algo,
		const void *a, const void *b, void *c, void *workspace, size_t workspace_size, cudaStream_t stream) {
	const float alpha = 1.0f, beta = 0.0f;
	return cublasLtMatmul(h, p->desc, &alpha, a, p->a, b, p->b, &beta, c, p->c, c, p->c,
		algo, workspace, workspace_size, stream);
}
*/
import "C"
import (
	"fmt"
	"time"
	"unsafe"

	"github.com/fxnlabs/gemmbench/internal/device"
	"github.com/fxnlabs/gemmbench/internal/gemm"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// cublasOperands maps a shape onto cuBLAS's column-major convention.
// Row-major products are computed as C^T = B^T * A^T.
type cublasOperands struct {
	m, n, k       int
	lda, ldb, ldc int
	a, b, c       unsafe.Pointer
}

func operands(shape gemm.Shape, bufs *device.BufferSet) cublasOperands {
	lda, ldb, ldc := shape.LeadingDims()
	a, _ := bufs.A.Handle().(unsafe.Pointer)
	b, _ := bufs.B.Handle().(unsafe.Pointer)
	c, _ := bufs.C.Handle().(unsafe.Pointer)
	if shape.Layout == gemm.RowMajor {
		return cublasOperands{m: shape.N, n: shape.M, k: shape.K, lda: ldb, ldb: lda, ldc: ldc, a: b, b: a, c: c}
	}
	return cublasOperands{m: shape.M, n: shape.N, k: shape.K, lda: lda, ldb: ldb, ldc: ldc, a: a, b: b, c: c}
}

func requireCUDA(name string, dev device.Device) (*device.CUDADevice, error) {
	cd, ok := dev.(*device.CUDADevice)
	if !ok {
		return nil, gemm.NewResourceError(name, "create", fmt.Errorf("requires a CUDA device, got %T", dev))
	}
	return cd, nil
}

// CUBLASBackend is cublasGemmEx with the library's default algorithm.
type CUBLASBackend struct {
	adapter[struct{}]
	cuda   *device.CUDADevice
	handle C.cublasHandle_t
}

func NewCUBLASBackend(opts Options) (*CUBLASBackend, error) {
	opts = opts.withDefaults()
	cd, err := requireCUDA("cublas", opts.Device)
	if err != nil {
		return nil, err
	}
	return &CUBLASBackend{adapter: newAdapter[struct{}]("cublas", FixedAlgorithm, opts), cuda: cd}, nil
}

func (b *CUBLASBackend) Initialize() error {
	if b.initialized {
		return nil
	}
	if status := C.cublasCreate(&b.handle); status != C.CUBLAS_STATUS_SUCCESS {
		return gemm.NewResourceError(b.name, "cublasCreate", cublasError(status))
	}
	if status := C.cublasSetStream(b.handle, C.cudaStream_t(b.cuda.Stream())); status != C.CUBLAS_STATUS_SUCCESS {
		C.cublasDestroy(b.handle)
		return gemm.NewResourceError(b.name, "cublasSetStream", cublasError(status))
	}
	b.initialized = true
	b.logger.Info("cuBLAS backend initialized")
	return nil
}

func (b *CUBLASBackend) Cleanup() error {
	if !b.initialized {
		return nil
	}
	b.initialized = false
	if status := C.cublasDestroy(b.handle); status != C.CUBLAS_STATUS_SUCCESS {
		return cublasError(status)
	}
	return nil
}

func (b *CUBLASBackend) EnumerateCandidates(shape gemm.Shape, _ int) ([]Candidate, error) {
	if err := shape.Validate(); err != nil {
		return nil, gemm.NewResourceError(b.name, "enumerate", err)
	}
	b.arena.reset(shape)
	return []Candidate{b.arena.add(b.name, struct{}{}, "gemmEx default", 0, shape.Ops())}, nil
}

func (b *CUBLASBackend) Acquire(c Candidate, shape gemm.Shape) (func() error, error) {
	return b.noAcquire(c, shape)
}

func (b *CUBLASBackend) ExecuteCandidate(c Candidate, shape gemm.Shape, bufs *device.BufferSet) error {
	if _, err := b.resolve(c, shape, bufs); err != nil {
		return err
	}
	op := operands(shape, bufs)
	return b.submit(func() error {
		status := C.gemm_ex(b.handle, C.int(op.m), C.int(op.n), C.int(op.k),
			op.a, C.int(op.lda), op.b, C.int(op.ldb), op.c, C.int(op.ldc), C.int(shape.ElementType))
		if status != C.CUBLAS_STATUS_SUCCESS {
			return cublasError(status)
		}
		return nil
	})
}

func (b *CUBLASBackend) SimpleExecute(shape gemm.Shape, bufs *device.BufferSet) (time.Duration, error) {
	return simpleExecute(b, b.clock, shape, bufs)
}

// ltAlgo is the private handle of one cuBLASLt heuristic result.
type ltAlgo struct {
	result C.cublasLtMatmulHeuristicResult_t
}

// CUBLASLtBackend asks cublasLtMatmulAlgoGetHeuristic for candidates.
type CUBLASLtBackend struct {
	adapter[ltAlgo]
	cuda      *device.CUDADevice
	handle    C.cublasLtHandle_t
	budget    int64
	workspace *device.Buffer
	problem   C.lt_problem
	hasProb   bool
}

func NewCUBLASLtBackend(opts Options) (*CUBLASLtBackend, error) {
	opts = opts.withDefaults()
	cd, err := requireCUDA("cublaslt", opts.Device)
	if err != nil {
		return nil, err
	}
	return &CUBLASLtBackend{
		adapter: newAdapter[ltAlgo]("cublaslt", HeuristicEnumerated, opts),
		cuda:    cd,
		budget:  opts.WorkspaceBytes,
	}, nil
}

func (l *CUBLASLtBackend) Initialize() error {
	if l.initialized {
		return nil
	}
	if err := device.CheckWorkspace(l.dev.Info(), l.budget); err != nil {
		return gemm.NewResourceError(l.name, "initialize", err)
	}
	if status := C.cublasLtCreate(&l.handle); status != C.CUBLAS_STATUS_SUCCESS {
		return gemm.NewResourceError(l.name, "cublasLtCreate", cublasError(status))
	}
	ws, err := l.dev.Alloc(gemm.Float32, int(l.budget/gemm.Float32.Size()))
	if err != nil {
		C.cublasLtDestroy(l.handle)
		return gemm.NewResourceError(l.name, "initialize", fmt.Errorf("workspace: %w", err))
	}
	l.workspace = ws
	l.initialized = true
	l.logger.Info("cuBLASLt backend initialized", zap.Int64("workspaceBytes", l.budget))
	return nil
}

func (l *CUBLASLtBackend) Cleanup() error {
	if !l.initialized {
		return nil
	}
	l.initialized = false
	err := l.dev.Synchronize()
	l.destroyProblem()
	err = multierr.Append(err, l.dev.Free(l.workspace))
	if status := C.cublasLtDestroy(l.handle); status != C.CUBLAS_STATUS_SUCCESS {
		err = multierr.Append(err, cublasError(status))
	}
	return err
}

func (l *CUBLASLtBackend) destroyProblem() {
	if l.hasProb {
		C.lt_problem_destroy(&l.problem)
		l.problem = C.lt_problem{}
		l.hasProb = false
	}
}

func (l *CUBLASLtBackend) EnumerateCandidates(shape gemm.Shape, limit int) ([]Candidate, error) {
	if !l.initialized {
		return nil, gemm.NewResourceError(l.name, "enumerate", errNotInitialized)
	}
	if err := shape.Validate(); err != nil {
		return nil, gemm.NewResourceError(l.name, "enumerate", err)
	}
	if err := l.dev.Synchronize(); err != nil {
		return nil, gemm.NewExecutionError(l.name, "enumerate", "pending work failed", err)
	}
	l.arena.reset(shape)
	l.destroyProblem()
	if limit <= 0 {
		return nil, nil
	}

	op := operands(shape, &device.BufferSet{A: l.workspace, B: l.workspace, C: l.workspace})
	status := C.lt_problem_create(&l.problem, C.int(op.m), C.int(op.n), C.int(op.k),
		C.int(op.lda), C.int(op.ldb), C.int(op.ldc), C.int(shape.ElementType))
	l.hasProb = true
	if status != C.CUBLAS_STATUS_SUCCESS {
		return nil, gemm.NewResourceError(l.name, "describe problem", cublasError(status))
	}

	results := make([]C.cublasLtMatmulHeuristicResult_t, limit)
	var returned C.int
	status = C.lt_heuristics(l.handle, &l.problem, C.size_t(l.workspace.ByteSize()),
		C.int(limit), &results[0], &returned)
	if status == C.CUBLAS_STATUS_NOT_SUPPORTED {
		return nil, nil
	}
	if status != C.CUBLAS_STATUS_SUCCESS {
		return nil, gemm.NewResourceError(l.name, "heuristic", cublasError(status))
	}

	candidates := make([]Candidate, 0, int(returned))
	for i := 0; i < int(returned); i++ {
		r := results[i]
		if r.state != C.CUBLAS_STATUS_SUCCESS {
			continue
		}
		candidates = append(candidates, l.arena.add(l.name, ltAlgo{result: r},
			fmt.Sprintf("heuristic %d", i), int64(r.workspaceSize), float64(r.wavesCount)))
	}
	return candidates, nil
}

func (l *CUBLASLtBackend) Acquire(c Candidate, shape gemm.Shape) (func() error, error) {
	if !l.initialized {
		return nil, gemm.NewResourceError(l.name, "acquire", errNotInitialized)
	}
	if _, err := l.arena.lookup(c, shape); err != nil {
		return nil, gemm.NewResourceError(l.name, "acquire", err)
	}
	if c.WorkspaceBytes > l.workspace.ByteSize() {
		return nil, gemm.NewResourceError(l.name, "acquire",
			fmt.Errorf("needs %d workspace bytes, %d reserved", c.WorkspaceBytes, l.workspace.ByteSize()))
	}
	return func() error { return nil }, nil
}

func (l *CUBLASLtBackend) ExecuteCandidate(c Candidate, shape gemm.Shape, bufs *device.BufferSet) error {
	algo, err := l.resolve(c, shape, bufs)
	if err != nil {
		return err
	}
	op := operands(shape, bufs)
	ws := l.workspace.Handle().(unsafe.Pointer)
	return l.submit(func() error {
		status := C.lt_matmul(l.handle, &l.problem, &algo.result.algo, op.a, op.b, op.c,
			ws, C.size_t(algo.result.workspaceSize), C.cudaStream_t(l.cuda.Stream()))
		if status != C.CUBLAS_STATUS_SUCCESS {
			return cublasError(status)
		}
		return nil
	})
}

func (l *CUBLASLtBackend) SimpleExecute(shape gemm.Shape, bufs *device.BufferSet) (time.Duration, error) {
	return simpleExecute(l, l.clock, shape, bufs)
}

func cublasError(status C.cublasStatus_t) error {
	return fmt.Errorf("cublas status %d", int(status))
}

var (
	_ Backend = (*CUBLASBackend)(nil)
	_ Backend = (*CUBLASLtBackend)(nil)
)
