package gpu

import (
	"fmt"
	"sort"

	"github.com/fxnlabs/gemmbench/internal/gemm"
)

// Constructor builds a backend from options.
type Constructor func(Options) (Backend, error)

var constructors = map[string]Constructor{
	"naive": func(o Options) (Backend, error) { return NewNaiveBackend(o) },
	"blas":  func(o Options) (Backend, error) { return NewBLASBackend(o) },
	"tiled": func(o Options) (Backend, error) { return NewTiledBackend(o) },
	"sim":   func(o Options) (Backend, error) { return NewSimBackend(o) },
}

// New creates the backend registered under name. Construction failures,
// including backends compiled out of this binary, are ResourceErrors.
func New(name string, opts Options) (Backend, error) {
	ctor, ok := constructors[name]
	if !ok {
		return nil, gemm.NewResourceError(name, "create", fmt.Errorf("unknown backend %q, have %v", name, Names()))
	}
	return ctor(opts.withDefaults())
}

// Names lists the registered backends.
func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
