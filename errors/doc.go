// Package errors provides the typed error taxonomy shared by the binding
// registry and the injection engine.
//
// Every failure is an *AppError carrying a machine-readable ErrorCode.
// Configuration mistakes (NULL_ARGUMENT, TYPE_ERROR, STATE_ERROR) indicate
// programmer error at the call site; CONSTRUCTION_ERROR wraps failures of
// the object-construction primitive and is propagated unchanged.
package errors
