package fmi

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// The native log callback has no room for a Go closure, so loggers are
// looked up by the environment value handed to the instantiate entry point.
var (
	loggers sync.Map
	nextEnv atomic.Uintptr
)

// RegisterLogger makes log reachable from native log messages. The returned
// environment is passed to InstantiateParams; release must be called once the
// instance is freed.
func RegisterLogger(log *zap.Logger) (env uintptr, release func()) {
	if log == nil {
		log = zap.NewNop()
	}
	env = nextEnv.Add(1)
	loggers.Store(env, log)
	return env, func() { loggers.Delete(env) }
}

// Forward routes a native log message to the logger registered for env.
// Messages for unknown environments are dropped.
func Forward(env uintptr, status Status, category, message string) {
	v, ok := loggers.Load(env)
	if !ok {
		return
	}
	log := v.(*zap.Logger)
	if ce := log.Check(levelFor(status), message); ce != nil {
		ce.Write(zap.String("category", category), zap.Stringer("status", status))
	}
}

func levelFor(s Status) zapcore.Level {
	switch s {
	case StatusOK:
		return zapcore.InfoLevel
	case StatusWarning, StatusDiscard:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}
