// Package platform resolves where a unit's native binary lives for the
// running build target.
//
// Units ship one shared library per platform under a standardized layout:
//
//	<model>/binaries/<arch>-<os>/<model_identifier><suffix>
//
// The tuple combines the CPU architecture (x86, x86_64, aarch32, aarch64)
// with the operating system family (linux, darwin, windows). The suffix is
// .so, .dylib or .dll. Resolution is pure and never fails.
package platform
