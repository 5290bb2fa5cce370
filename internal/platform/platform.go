package platform

import (
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// Tuple returns the FMI 3 platform tuple of the running binary, e.g. "x86_64-linux".
func Tuple() string {
	return For(runtime.GOOS, runtime.GOARCH).Tuple
}

// LibrarySuffix returns the shared library extension of the running binary.
func LibrarySuffix() string {
	return For(runtime.GOOS, runtime.GOARCH).Suffix
}

type Target struct {
	Arch   string
	OS     string
	Tuple  string
	Suffix string
}

// For resolves the platform tuple and library suffix for a Go target.
// Unknown architectures fall back to the x86 family by pointer width.
func For(goos, goarch string) Target {
	arch := archName(goarch)
	sys := osName(goos)
	return Target{
		Arch:   arch,
		OS:     sys,
		Tuple:  arch + "-" + sys,
		Suffix: suffix(sys),
	}
}

func archName(goarch string) string {
	switch goarch {
	case "arm64":
		return "aarch64"
	case "arm":
		return "aarch32"
	case "386":
		return "x86"
	case "amd64":
		return "x86_64"
	}
	if pointerBits(goarch) == 32 {
		return "x86"
	}
	return "x86_64"
}

func osName(goos string) string {
	switch goos {
	case "windows":
		return "windows"
	case "darwin", "ios":
		return "darwin"
	default:
		return "linux"
	}
}

func suffix(sys string) string {
	switch sys {
	case "windows":
		return ".dll"
	case "darwin":
		return ".dylib"
	default:
		return ".so"
	}
}

func pointerBits(goarch string) int {
	switch goarch {
	case "386", "arm", "mips", "mipsle", "wasm":
		return 32
	}
	if runtime.GOARCH == goarch {
		return strconv.IntSize
	}
	return 64
}

// SanitizeIdentifier replaces the periods in a model identifier with underscores,
// matching the file name of the binary inside the unit.
func SanitizeIdentifier(identifier string) string {
	return strings.ReplaceAll(identifier, ".", "_")
}

// BinaryPath returns the expected location of the model binary for the running platform:
// <modelPath>/binaries/<tuple>/<identifier><suffix>.
func BinaryPath(modelPath, identifier string) string {
	return For(runtime.GOOS, runtime.GOARCH).BinaryPath(modelPath, identifier)
}

// BinaryPath returns the binary location for t.
func (t Target) BinaryPath(modelPath, identifier string) string {
	return filepath.Join(modelPath, "binaries", t.Tuple, SanitizeIdentifier(identifier)+t.Suffix)
}

// ResourceURI returns the file URI of the unit's resource directory.
// Relative model paths are resolved against the working directory.
func ResourceURI(modelPath string) string {
	dir := filepath.Join(modelPath, "resources")
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	dir = filepath.ToSlash(dir)
	if !strings.HasPrefix(dir, "/") {
		dir = "/" + dir
	}
	return "file://" + dir
}
