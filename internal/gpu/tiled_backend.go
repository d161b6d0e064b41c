package gpu

import (
	"fmt"
	"runtime"
	"sort"
	"time"

	"github.com/fxnlabs/gemmbench/internal/device"
	"github.com/fxnlabs/gemmbench/internal/gemm"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// tileConfig is the private handle of one tiled candidate.
type tileConfig struct {
	TileM, TileN, TileK int
	Workers             int
	PackB               bool
}

func (t tileConfig) String() string {
	s := fmt.Sprintf("tile %dx%dx%d w%d", t.TileM, t.TileN, t.TileK, t.Workers)
	if t.PackB {
		s += " packB"
	}
	return s
}

// workspace is the scratch a config needs: one packed B panel per worker.
func (t tileConfig) workspace() int64 {
	if !t.PackB {
		return 0
	}
	return int64(t.Workers) * int64(t.TileK) * int64(t.TileN) * gemm.Float32.Size()
}

var (
	tileMs = []int{32, 64, 128}
	tileNs = []int{32, 64, 128}
	tileKs = []int{16, 64, 256}
)

const l1Bytes = 32 << 10

// TiledBackend is a cache-blocked parallel SGEMM whose tile configurations
// are enumerated and ordered by a simple cost model, the way a tuned
// library offers algorithm candidates.
type TiledBackend struct {
	adapter[tileConfig]
	budget    int64
	workspace *device.Buffer
	workers   int
}

// NewTiledBackend creates a tiled backend on the host device.
func NewTiledBackend(opts Options) (*TiledBackend, error) {
	opts = opts.withDefaults()
	if err := requireHost("tiled", opts.Device); err != nil {
		return nil, err
	}
	return &TiledBackend{
		adapter: newAdapter[tileConfig]("tiled", HeuristicEnumerated, opts),
		budget:  opts.WorkspaceBytes,
		workers: runtime.GOMAXPROCS(0),
	}, nil
}

// Initialize reserves the workspace on the device.
func (t *TiledBackend) Initialize() error {
	if t.initialized {
		return nil
	}
	if err := device.CheckWorkspace(t.dev.Info(), t.budget); err != nil {
		return gemm.NewResourceError(t.name, "initialize", err)
	}
	ws, err := t.dev.Alloc(gemm.Float32, int(t.budget/gemm.Float32.Size()))
	if err != nil {
		return gemm.NewResourceError(t.name, "initialize", fmt.Errorf("workspace: %w", err))
	}
	t.workspace = ws
	t.initialized = true
	t.logger.Info("Tiled backend initialized",
		zap.Int64("workspaceBytes", t.budget),
		zap.Int("workers", t.workers),
		zap.Int("simdLanes", device.SIMDLanes()))
	return nil
}

// Cleanup releases the workspace.
func (t *TiledBackend) Cleanup() error {
	if !t.initialized {
		return nil
	}
	var err error
	if syncErr := t.dev.Synchronize(); syncErr != nil {
		err = multierr.Append(err, syncErr)
	}
	err = multierr.Append(err, t.dev.Free(t.workspace))
	t.workspace = nil
	t.initialized = false
	return err
}

// EnumerateCandidates lists the tile configurations that fit the workspace,
// cheapest estimate first. Element types other than float32 have none.
func (t *TiledBackend) EnumerateCandidates(shape gemm.Shape, limit int) ([]Candidate, error) {
	if !t.initialized {
		return nil, gemm.NewResourceError(t.name, "enumerate", errNotInitialized)
	}
	if err := shape.Validate(); err != nil {
		return nil, gemm.NewResourceError(t.name, "enumerate", err)
	}
	t.arena.reset(shape)
	if shape.ElementType != gemm.Float32 || limit <= 0 {
		return nil, nil
	}

	type scored struct {
		cfg  tileConfig
		cost float64
	}
	var configs []scored
	seen := make(map[tileConfig]bool)
	for _, workers := range t.workerCounts() {
		for _, tm := range tileMs {
			for _, tn := range tileNs {
				for _, tk := range tileKs {
					for _, pack := range []bool{false, true} {
						cfg := tileConfig{
							TileM:   min(tm, rowsOf(shape)),
							TileN:   min(tn, colsOf(shape)),
							TileK:   min(tk, shape.K),
							Workers: workers,
							PackB:   pack,
						}
						if seen[cfg] || cfg.workspace() > t.budget {
							continue
						}
						seen[cfg] = true
						configs = append(configs, scored{cfg, estimateCost(shape, cfg)})
					}
				}
			}
		}
	}
	sort.SliceStable(configs, func(i, j int) bool { return configs[i].cost < configs[j].cost })
	if len(configs) > limit {
		configs = configs[:limit]
	}

	candidates := make([]Candidate, 0, len(configs))
	for _, s := range configs {
		candidates = append(candidates, t.arena.add(t.name, s.cfg, s.cfg.String(), s.cfg.workspace(), s.cost))
	}
	t.logger.Debug("Enumerated tile configurations",
		zap.Stringer("shape", shape),
		zap.Int("considered", len(seen)),
		zap.Int("returned", len(candidates)))
	return candidates, nil
}

func (t *TiledBackend) workerCounts() []int {
	if t.workers <= 1 {
		return []int{1}
	}
	return []int{1, t.workers}
}

// Acquire checks the candidate's scratch still fits the reserved workspace.
func (t *TiledBackend) Acquire(c Candidate, shape gemm.Shape) (func() error, error) {
	if !t.initialized {
		return nil, gemm.NewResourceError(t.name, "acquire", errNotInitialized)
	}
	cfg, err := t.arena.lookup(c, shape)
	if err != nil {
		return nil, gemm.NewResourceError(t.name, "acquire", err)
	}
	if cfg.workspace() > t.workspace.ByteSize() {
		return nil, gemm.NewResourceError(t.name, "acquire",
			fmt.Errorf("%s needs %d workspace bytes, %d reserved", cfg, cfg.workspace(), t.workspace.ByteSize()))
	}
	return func() error { return nil }, nil
}

func (t *TiledBackend) ExecuteCandidate(c Candidate, shape gemm.Shape, bufs *device.BufferSet) error {
	cfg, err := t.resolve(c, shape, bufs)
	if err != nil {
		return err
	}
	ws, ok := t.workspace.Handle().([]float32)
	if !ok {
		return gemm.NewExecutionError(t.name, "execute", "no workspace", fmt.Errorf("workspace released"))
	}
	return t.submit(func() error {
		a, b, c, err := hostSlices[float32](bufs)
		if err != nil {
			return err
		}
		return tiledSgemm(shape, cfg, a, b, c, ws)
	})
}

func (t *TiledBackend) SimpleExecute(shape gemm.Shape, bufs *device.BufferSet) (time.Duration, error) {
	return simpleExecute(t, t.clock, shape, bufs)
}

// rowsOf and colsOf give the dimensions of the row-major product the
// kernel actually computes, which is C^T for column-major shapes.
func rowsOf(s gemm.Shape) int {
	if s.Layout == gemm.ColumnMajor {
		return s.N
	}
	return s.M
}

func colsOf(s gemm.Shape) int {
	if s.Layout == gemm.ColumnMajor {
		return s.M
	}
	return s.N
}

// estimateCost is a relative time estimate: arithmetic spread over the
// workers plus the operand traffic each tile causes, penalised when a tile
// working set spills out of L1.
func estimateCost(s gemm.Shape, cfg tileConfig) float64 {
	rows, cols := float64(rowsOf(s)), float64(colsOf(s))
	k := float64(s.K)
	lanes := float64(device.SIMDLanes())

	blocks := float64((rowsOf(s) + cfg.TileM - 1) / cfg.TileM)
	workers := float64(min(cfg.Workers, int(blocks)))
	compute := 2 * rows * cols * k / (lanes * workers)

	traffic := rows * cols * k * (1/float64(cfg.TileN) + 1/float64(cfg.TileM))
	if !cfg.PackB {
		traffic *= 1.25
	} else {
		traffic += k * cols * blocks / float64(cfg.Workers)
	}
	working := int64(cfg.TileM*cfg.TileK+cfg.TileK*cfg.TileN+cfg.TileM*cfg.TileN) * gemm.Float32.Size()
	if working > l1Bytes {
		traffic *= 1 + float64(working)/l1Bytes
	}
	return compute + traffic/workers
}

// tiledSgemm computes C = A * B for float32 with the given blocking.
func tiledSgemm(s gemm.Shape, cfg tileConfig, a, b, c, ws []float32) error {
	lda, ldb, ldc := s.LeadingDims()
	m, n := s.M, s.N
	if s.Layout == gemm.ColumnMajor {
		a, b = b, a
		lda, ldb = ldb, lda
		m, n = n, m
	}
	k := s.K

	blocks := (m + cfg.TileM - 1) / cfg.TileM
	workers := min(cfg.Workers, blocks)
	perWorker := (blocks + workers - 1) / workers
	panel := cfg.TileK * cfg.TileN
	active := (blocks + perWorker - 1) / perWorker
	if cfg.PackB && active*panel > len(ws) {
		return fmt.Errorf("workspace too small for %s", cfg)
	}

	var g errgroup.Group
	for w := 0; w < active; w++ {
		rs := w * perWorker * cfg.TileM
		re := min(rs+perWorker*cfg.TileM, m)
		var scratch []float32
		if cfg.PackB {
			scratch = ws[w*panel : (w+1)*panel]
		}
		g.Go(func() error {
			tiledRows(cfg, rs, re, n, k, a, lda, b, ldb, c, ldc, scratch)
			return nil
		})
	}
	return g.Wait()
}

// tiledRows computes rows [rs, re) of a row-major C.
func tiledRows(cfg tileConfig, rs, re, n, k int, a []float32, lda int, b []float32, ldb int, c []float32, ldc int, scratch []float32) {
	for j0 := 0; j0 < n; j0 += cfg.TileN {
		j1 := min(j0+cfg.TileN, n)
		width := j1 - j0
		for i := rs; i < re; i++ {
			clear(c[i*ldc+j0 : i*ldc+j1])
		}
		for p0 := 0; p0 < k; p0 += cfg.TileK {
			p1 := min(p0+cfg.TileK, k)
			if scratch != nil {
				for p := p0; p < p1; p++ {
					copy(scratch[(p-p0)*width:(p-p0+1)*width], b[p*ldb+j0:p*ldb+j1])
				}
			}
			for i0 := rs; i0 < re; i0 += cfg.TileM {
				i1 := min(i0+cfg.TileM, re)
				for i := i0; i < i1; i++ {
					crow := c[i*ldc+j0 : i*ldc+j1]
					for p := p0; p < p1; p++ {
						av := a[i*lda+p]
						var brow []float32
						if scratch != nil {
							brow = scratch[(p-p0)*width : (p-p0+1)*width]
						} else {
							brow = b[p*ldb+j0 : p*ldb+j1]
						}
						for j, bv := range brow {
							crow[j] += av * bv
						}
					}
				}
			}
		}
	}
}

var _ Backend = (*TiledBackend)(nil)
