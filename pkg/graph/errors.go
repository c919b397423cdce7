package graph

import (
	"errors"

	"github.com/orneryd/graphkit/pkg/storage"
)

// Conversion errors.
var (
	// ErrWrongInputType is returned when a native value has a shape no Value
	// variant covers (null, array, object), or when a Value is unwrapped as
	// the wrong primitive.
	ErrWrongInputType = errors.New("wrong input type")

	// ErrInvalidValue is returned when a value has the right shape but cannot
	// be represented, such as a negative or overflowing integer.
	ErrInvalidValue = errors.New("invalid value")

	// ErrInvalidIdentifier is returned for type labels and property names the
	// engine does not accept. It is the engine's own sentinel, so errors.Is
	// matches regardless of which layer rejected the name.
	ErrInvalidIdentifier = storage.ErrInvalidIdentifier
)

// Query shape errors.
var (
	// ErrInvalidOutput means the engine returned a different output shape
	// than the query should produce. This is a builder/parser mismatch.
	ErrInvalidOutput = errors.New("invalid query output")

	// ErrEmptyOutput means the output had the expected shape but nothing
	// matched.
	ErrEmptyOutput = errors.New("empty query output")
)

// Domain errors.
var (
	ErrInvalidUUID         = errors.New("invalid uuid")
	ErrInvalidProperty     = errors.New("invalid property")
	ErrNoPropertiesDefined = errors.New("no properties defined")
	ErrNoOutgoingEdges     = errors.New("no outgoing edges")
	ErrNoIncomingEdges     = errors.New("no incoming edges")
	ErrNoOutput            = errors.New("query returned no output")
)
