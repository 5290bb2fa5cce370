// Package fmu drives a model-exchange unit through its lifecycle.
//
// A Driver is built once per unit. New reconciles the declared scheme with
// the unit's value references, then loads the binary and resolves its entry
// points. Configuration and load errors abort setup.
//
// Each Instance owns one native handle and follows the state machine
//
//	Unloaded -> Instantiated -> InitializationMode -> ContinuousTimeMode
//	                 ^                                      |
//	                 +-------------- Reset -----------------+
//
// with Free reachable from every live state. Operations called in the wrong
// state fail with a *TransitionError wrapping ErrPrecondition before any
// native call is made.
//
// # Errors
//
// Non-ok statuses from real, integer and boolean exchange and from the mode
// transitions are returned as *StatusError; the instance stays usable and
// IsRecoverable reports true. String exchange failures, fatal statuses and a
// null instance are returned as *FatalError; the instance must be freed.
//
// # Concurrency
//
// An Instance must not be used from more than one goroutine. Distinct
// instances of one Driver may run concurrently; Ensemble does this with one
// instance per worker.
package fmu
