package layout

import (
	"runtime"
	"strings"
)

// Target describes the ABI target triple and its pointer properties.
type Target struct {
	Triple   string // e.g. "x86_64-pc-linux-gnu"
	PtrSize  int    // bytes
	PtrAlign int    // bytes
}

func X86_64LinuxGNU() Target {
	return Target{Triple: "x86_64-pc-linux-gnu", PtrSize: 8, PtrAlign: 8}
}

// TargetFor derives pointer properties from the architecture component of a
// target triple. Unknown architectures are assumed to be 64-bit.
func TargetFor(triple string) Target {
	arch, _, _ := strings.Cut(triple, "-")
	switch arch {
	case "i386", "i486", "i586", "i686", "arm", "armv7", "wasm32", "riscv32":
		return Target{Triple: triple, PtrSize: 4, PtrAlign: 4}
	default:
		return Target{Triple: triple, PtrSize: 8, PtrAlign: 8}
	}
}

// HostTarget guesses the triple of the running machine from GOOS/GOARCH. The
// build pipeline prefers the answer of `clang -dumpmachine` when available.
func HostTarget() Target {
	arch := runtime.GOARCH
	switch arch {
	case "amd64":
		arch = "x86_64"
	case "arm64":
		arch = "aarch64"
	case "386":
		arch = "i686"
	}
	var rest string
	switch runtime.GOOS {
	case "darwin":
		rest = "apple-darwin"
	case "windows":
		rest = "pc-windows-msvc"
	default:
		rest = "unknown-" + runtime.GOOS + "-gnu"
	}
	return TargetFor(arch + "-" + rest)
}
