//go:build cuda
// +build cuda

package gpu

func init() {
	constructors["cublas"] = func(o Options) (Backend, error) { return NewCUBLASBackend(o) }
	constructors["cublaslt"] = func(o Options) (Backend, error) { return NewCUBLASLtBackend(o) }
}
