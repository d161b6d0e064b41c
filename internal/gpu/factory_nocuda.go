//go:build !cuda
// +build !cuda

package gpu

import (
	"errors"

	"github.com/fxnlabs/gemmbench/internal/gemm"
)

var errNoCUDA = errors.New("compiled without cuda support")

func init() {
	for _, name := range []string{"cublas", "cublaslt"} {
		name := name
		constructors[name] = func(Options) (Backend, error) {
			return nil, gemm.NewResourceError(name, "create", errNoCUDA)
		}
	}
}
