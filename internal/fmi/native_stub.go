//go:build !(darwin || freebsd || (linux && (amd64 || arm64)))

package fmi

import (
	"fmt"
	"runtime"

	"go.uber.org/zap"
)

// Open reports ErrUnsupportedPlatform. Tables can still be built by hand.
func Open(path string, caps Capabilities, log *zap.Logger) (*Library, error) {
	return nil, fmt.Errorf("%w: %s/%s", ErrUnsupportedPlatform, runtime.GOOS, runtime.GOARCH)
}
