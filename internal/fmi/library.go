package fmi

import (
	"sync"

	"go.uber.org/zap"
)

// Library is a loaded binary together with its resolved entry points.
type Library struct {
	Path  string
	Table *Table

	sym  Symbols
	log  *zap.Logger
	once sync.Once
	err  error
}

// Capabilities reports the optional entry points resolved for this library.
func (l *Library) Capabilities() Capabilities {
	return l.Table.Capabilities()
}

// Close unloads the binary. Instances created from it must be freed first.
func (l *Library) Close() error {
	l.once.Do(func() {
		if l.sym != nil {
			l.err = l.sym.Close()
		}
		l.log.Debug("library closed", zap.String("path", l.Path))
	})
	return l.err
}
