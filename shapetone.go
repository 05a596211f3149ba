// Package shapetone holds the data model of the per-channel effects routing
// engine: processing-node descriptors, instrument presets and their knob
// bindings, and the catalog interface the rest of the engine reads presets
// from.
package shapetone

import "errors"

var (
	// ErrUnsupportedNodeKind is returned when a descriptor names a node kind
	// that no factory is registered for.
	ErrUnsupportedNodeKind = errors.New("unsupported node kind")

	// ErrUnknownParameter is returned when a parameter is set on a node that
	// does not expose it.
	ErrUnknownParameter = errors.New("unknown parameter")

	// ErrUnknownInstrument is returned when an instrument id is not found in
	// the catalog.
	ErrUnknownInstrument = errors.New("unknown instrument")

	// ErrInvalidBinding is returned when a knob binding cannot be bound to the
	// chain it was resolved against.
	ErrInvalidBinding = errors.New("invalid knob binding")

	// ErrDisposed is returned when operating on a node that has already been
	// disposed.
	ErrDisposed = errors.New("node disposed")

	// ErrAlreadyConnected is returned when connecting a node whose output is
	// already connected.
	ErrAlreadyConnected = errors.New("node already connected")

	// ErrReservedChannel is returned when a slot tries to use the master
	// channel as its own.
	ErrReservedChannel = errors.New("channel reserved for the master bus")
)
