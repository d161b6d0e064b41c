package device

import (
	"runtime"
	"strings"

	"golang.org/x/sys/cpu"
)

// CPUFeatures lists the SIMD extensions relevant to GEMM kernels.
func CPUFeatures() []string {
	var features []string
	switch runtime.GOARCH {
	case "amd64", "386":
		if cpu.X86.HasSSE41 || cpu.X86.HasSSE42 {
			features = append(features, "SSE4")
		}
		if cpu.X86.HasAVX {
			features = append(features, "AVX")
		}
		if cpu.X86.HasAVX2 {
			features = append(features, "AVX2")
		}
		if cpu.X86.HasFMA {
			features = append(features, "FMA")
		}
		if cpu.X86.HasAVX512F {
			features = append(features, "AVX512F")
		}
	case "arm64":
		if cpu.ARM64.HasASIMD {
			features = append(features, "NEON")
		}
		if cpu.ARM64.HasFPHP || cpu.ARM64.HasASIMDHP {
			features = append(features, "FP16")
		}
		if cpu.ARM64.HasSVE {
			features = append(features, "SVE")
		}
	}
	return features
}

// SIMDLanes is the number of float32 lanes of the widest vector unit
// available, 1 when none is detected.
func SIMDLanes() int {
	switch {
	case cpu.X86.HasAVX512F:
		return 16
	case cpu.X86.HasAVX2 && cpu.X86.HasFMA:
		return 8
	case cpu.X86.HasSSE41, cpu.ARM64.HasASIMD:
		return 4
	default:
		return 1
	}
}

func cpuCapability() string {
	features := CPUFeatures()
	if len(features) == 0 {
		return "scalar"
	}
	return strings.Join(features, ",")
}
