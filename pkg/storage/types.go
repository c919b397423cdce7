// Package storage provides the embedded graph engine that graphkit's access
// layer adapts to.
//
// The engine speaks a deliberately small vocabulary:
//   - Vertices: an engine-minted UUID plus a single type Identifier
//   - Edges: a directed (outbound, type, inbound) triple with no id of its own
//   - Properties: named JSON values attached to vertices
//   - Queries: a composable AST evaluated by Execute into QueryOutput batches
//
// Design Principles:
//   - One query evaluator shared by every engine, so engines only implement
//     primitive reads and writes
//   - Native property values stay JSON text; typing them is the caller's job
//   - Thread-safe implementations
//
// Example Usage:
//
//	engine := storage.NewMemoryEngine()
//	defer engine.Close()
//
//	person := storage.MustIdentifier("person")
//	alice, _ := engine.CreateVertexFromType(person)
//	bob, _ := engine.CreateVertexFromType(person)
//
//	knows := storage.MustIdentifier("knows")
//	engine.CreateEdge(storage.Edge{OutboundID: alice, Type: knows, InboundID: bob})
//
//	name := storage.MustIdentifier("name")
//	engine.SetProperties(storage.SpecificVertexQuery{IDs: []uuid.UUID{alice}},
//		name, json.RawMessage(`"Alice"`))
//
//	out, _ := engine.Execute(storage.PipeQuery{
//		Inner:     storage.SpecificVertexQuery{IDs: []uuid.UUID{alice}},
//		Direction: storage.Outbound,
//	})
//	edges := out[0].(storage.EdgeList)
package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrInvalidIdentifier = errors.New("invalid identifier")
	ErrInvalidData       = errors.New("invalid data")
	ErrInvalidQuery      = errors.New("invalid query")
	ErrStorageClosed     = errors.New("storage closed")
	ErrUnknownEngine     = errors.New("unknown engine")
)

// MaxIdentifierLength is the longest type or property name accepted, in bytes.
const MaxIdentifierLength = 255

// Identifier is a validated name used for vertex types, edge types and
// property names.
//
// Valid identifiers are non-empty, at most MaxIdentifierLength bytes, and
// contain only ASCII letters, digits, '-' and '_'. The zero Identifier is
// never valid and is used by queries to mean "no filter".
//
// Example:
//
//	t, err := storage.NewIdentifier("task")
//	if err != nil {
//		return err
//	}
//	fmt.Println(t) // task
//
//	_, err = storage.NewIdentifier("")          // ErrInvalidIdentifier
//	_, err = storage.NewIdentifier("has space") // ErrInvalidIdentifier
type Identifier struct {
	name string
}

// NewIdentifier validates s and wraps it as an Identifier.
func NewIdentifier(s string) (Identifier, error) {
	if s == "" {
		return Identifier{}, fmt.Errorf("%w: empty", ErrInvalidIdentifier)
	}
	if len(s) > MaxIdentifierLength {
		return Identifier{}, fmt.Errorf("%w: %d bytes exceeds %d", ErrInvalidIdentifier, len(s), MaxIdentifierLength)
	}
	for i := 0; i < len(s); i++ {
		if !identifierByte(s[i]) {
			return Identifier{}, fmt.Errorf("%w: %q has invalid character %q", ErrInvalidIdentifier, s, s[i])
		}
	}
	return Identifier{name: s}, nil
}

// MustIdentifier is like NewIdentifier but panics on invalid input.
// Intended for compile-time constant names.
func MustIdentifier(s string) Identifier {
	id, err := NewIdentifier(s)
	if err != nil {
		panic(err)
	}
	return id
}

func identifierByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '-' || c == '_':
		return true
	}
	return false
}

// String returns the identifier text.
func (i Identifier) String() string { return i.name }

// IsZero reports whether i is the unset identifier.
func (i Identifier) IsZero() bool { return i.name == "" }

// Vertex is a stored vertex: its engine-minted id and its type.
// Properties are fetched separately through a PipePropertyQuery.
type Vertex struct {
	ID   uuid.UUID
	Type Identifier
}

// Edge is a directed, typed connection between two vertices.
//
// Edges have no identity beyond the triple itself. Creating the same triple
// twice stores one edge.
type Edge struct {
	OutboundID uuid.UUID
	Type       Identifier
	InboundID  uuid.UUID
}

// NamedProperty is a property name with its native JSON value.
type NamedProperty struct {
	Name  Identifier
	Value json.RawMessage
}

// VertexProperties pairs a vertex with some or all of its properties.
type VertexProperties struct {
	Vertex Vertex
	Props  []NamedProperty
}

// EdgeDirection selects which end of an edge a pipe follows.
type EdgeDirection int

const (
	// Outbound follows edges leaving a vertex, or resolves an edge to its
	// outbound vertex.
	Outbound EdgeDirection = iota
	// Inbound follows edges arriving at a vertex, or resolves an edge to its
	// inbound vertex.
	Inbound
)

func (d EdgeDirection) String() string {
	switch d {
	case Outbound:
		return "outbound"
	case Inbound:
		return "inbound"
	}
	return fmt.Sprintf("EdgeDirection(%d)", int(d))
}

// Reverse returns the opposite direction.
func (d EdgeDirection) Reverse() EdgeDirection {
	if d == Outbound {
		return Inbound
	}
	return Outbound
}

// Engine defines the primitives the access layer builds on.
//
// All Engine implementations MUST be safe for concurrent use.
//
// Missing ids are not errors at this level:
//   - CreateEdge returns false when either endpoint does not exist
//   - SetProperties writes to whatever vertices the query matches, which may
//     be none
//
// Implementations:
//   - MemoryEngine: in-memory maps
//   - BadgerEngine: persistent BadgerDB storage
//   - Neo4jEngine: a remote Neo4j database
type Engine interface {
	// CreateVertexFromType mints a new vertex id and stores the vertex.
	CreateVertexFromType(t Identifier) (uuid.UUID, error)

	// CreateEdge stores e. It reports false when an endpoint is missing.
	CreateEdge(e Edge) (bool, error)

	// SetProperties writes name=value on every vertex matched by q.
	SetProperties(q Query, name Identifier, value json.RawMessage) error

	// Execute evaluates q. The result holds one batch for each IncludeQuery
	// encountered, in evaluation order, followed by the final output.
	Execute(q Query) ([]QueryOutput, error)

	// Close releases engine resources. Further calls fail with
	// ErrStorageClosed.
	Close() error
}

// compareIDs orders vertex ids bytewise, which for UUIDv7 is creation order.
func compareIDs(a, b uuid.UUID) int {
	return bytes.Compare(a[:], b[:])
}

// compareEdges orders edges by (outbound, type, inbound).
func compareEdges(a, b Edge) int {
	if c := compareIDs(a.OutboundID, b.OutboundID); c != 0 {
		return c
	}
	if c := compareTypes(a.Type, b.Type); c != 0 {
		return c
	}
	return compareIDs(a.InboundID, b.InboundID)
}

// compareReversedEdges orders edges by (inbound, type, outbound), the order
// of the inbound index.
func compareReversedEdges(a, b Edge) int {
	if c := compareIDs(a.InboundID, b.InboundID); c != 0 {
		return c
	}
	if c := compareTypes(a.Type, b.Type); c != 0 {
		return c
	}
	return compareIDs(a.OutboundID, b.OutboundID)
}

func compareTypes(a, b Identifier) int {
	switch {
	case a.name < b.name:
		return -1
	case a.name > b.name:
		return 1
	}
	return 0
}

// validJSON checks a native property value before it is stored. The whole
// input must be exactly one JSON value.
func validJSON(value json.RawMessage) error {
	if len(value) == 0 || !json.Valid(value) {
		return fmt.Errorf("%w: property value is not valid JSON", ErrInvalidData)
	}
	return nil
}
