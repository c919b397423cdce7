package storage

import (
	"encoding/json"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// MemoryEngine is a thread-safe in-memory graph engine.
//
// Use Cases:
//   - Unit testing (no disk I/O, fast cleanup)
//   - Short-lived tools that do not need persistence
//   - Development and prototyping
//
// Features:
//   - Thread-safe: reads share an RWMutex, writes are exclusive
//   - Indexed: outgoing and incoming edge indexes per vertex
//   - Copies: property values are copied in and out, so callers cannot
//     mutate stored bytes
//
// Performance Characteristics:
//   - Vertex lookup by ID: O(1)
//   - Range and type scans: O(n log n), vertices are sorted per scan
//   - Outgoing/incoming edges: O(degree log degree)
//
// Example:
//
//	engine := storage.NewMemoryEngine()
//	defer engine.Close()
//
//	id, _ := engine.CreateVertexFromType(storage.MustIdentifier("task"))
//	out, _ := engine.Execute(storage.SpecificVertexQuery{IDs: []uuid.UUID{id}})
//	fmt.Println(out[0].(storage.VertexList)[0].Type) // task
type MemoryEngine struct {
	mu       sync.RWMutex
	vertices map[uuid.UUID]Identifier
	edges    map[Edge]struct{}

	// Indexes for efficient lookups
	outgoing map[uuid.UUID]map[Edge]struct{}
	incoming map[uuid.UUID]map[Edge]struct{}

	properties map[uuid.UUID]map[Identifier]json.RawMessage

	newID  func() (uuid.UUID, error)
	closed bool
}

// NewMemoryEngine creates an empty in-memory engine.
//
// All data lives in RAM and is lost when the process exits or Close is
// called.
func NewMemoryEngine() *MemoryEngine {
	return &MemoryEngine{
		vertices:   make(map[uuid.UUID]Identifier),
		edges:      make(map[Edge]struct{}),
		outgoing:   make(map[uuid.UUID]map[Edge]struct{}),
		incoming:   make(map[uuid.UUID]map[Edge]struct{}),
		properties: make(map[uuid.UUID]map[Identifier]json.RawMessage),
		newID:      uuid.NewV7,
	}
}

// CreateVertexFromType mints a new id and stores a vertex of type t.
//
// Returns:
//   - the new vertex id
//   - ErrInvalidIdentifier if t is the zero Identifier
//   - ErrStorageClosed if the engine is closed
func (m *MemoryEngine) CreateVertexFromType(t Identifier) (uuid.UUID, error) {
	if t.IsZero() {
		return uuid.Nil, ErrInvalidIdentifier
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return uuid.Nil, ErrStorageClosed
	}

	id, err := m.newID()
	if err != nil {
		return uuid.Nil, err
	}
	m.vertices[id] = t
	return id, nil
}

// CreateEdge stores e. Returns false, without error, when either endpoint
// does not exist. Creating an existing edge again returns true.
func (m *MemoryEngine) CreateEdge(e Edge) (bool, error) {
	if e.Type.IsZero() {
		return false, ErrInvalidIdentifier
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false, ErrStorageClosed
	}

	if _, ok := m.vertices[e.OutboundID]; !ok {
		return false, nil
	}
	if _, ok := m.vertices[e.InboundID]; !ok {
		return false, nil
	}

	m.edges[e] = struct{}{}
	if m.outgoing[e.OutboundID] == nil {
		m.outgoing[e.OutboundID] = make(map[Edge]struct{})
	}
	m.outgoing[e.OutboundID][e] = struct{}{}
	if m.incoming[e.InboundID] == nil {
		m.incoming[e.InboundID] = make(map[Edge]struct{})
	}
	m.incoming[e.InboundID][e] = struct{}{}
	return true, nil
}

// SetProperties writes name=value on every vertex matched by q. The query is
// evaluated and the writes applied under one write lock.
func (m *MemoryEngine) SetProperties(q Query, name Identifier, value json.RawMessage) error {
	if name.IsZero() {
		return ErrInvalidIdentifier
	}
	if err := validJSON(value); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStorageClosed
	}

	vs, err := matchVertices(memoryView{m}, q)
	if err != nil {
		return err
	}
	for _, v := range vs {
		props := m.properties[v.ID]
		if props == nil {
			props = make(map[Identifier]json.RawMessage)
			m.properties[v.ID] = props
		}
		props[name] = slices.Clone(value)
	}
	return nil
}

// Execute evaluates q under a read lock.
func (m *MemoryEngine) Execute(q Query) ([]QueryOutput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStorageClosed
	}
	return execute(memoryView{m}, q)
}

// Close drops all data. Subsequent calls fail with ErrStorageClosed.
func (m *MemoryEngine) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.vertices = nil
	m.edges = nil
	m.outgoing = nil
	m.incoming = nil
	m.properties = nil
	return nil
}

// memoryView implements reader. The caller holds m.mu.
type memoryView struct {
	m *MemoryEngine
}

func (v memoryView) vertices(ids []uuid.UUID) ([]Vertex, error) {
	out := make([]Vertex, 0, len(ids))
	for _, id := range ids {
		if t, ok := v.m.vertices[id]; ok {
			out = append(out, Vertex{ID: id, Type: t})
		}
	}
	return out, nil
}

func (v memoryView) vertexRange(start *uuid.UUID, t Identifier, limit uint32) ([]Vertex, error) {
	out := make([]Vertex, 0)
	for id, vt := range v.m.vertices {
		if start != nil && compareIDs(id, *start) < 0 {
			continue
		}
		if !t.IsZero() && vt != t {
			continue
		}
		out = append(out, Vertex{ID: id, Type: vt})
	}
	slices.SortFunc(out, func(a, b Vertex) int { return compareIDs(a.ID, b.ID) })
	if limit > 0 && len(out) > int(limit) {
		out = out[:limit]
	}
	return out, nil
}

func (v memoryView) edges(es []Edge) ([]Edge, error) {
	out := make([]Edge, 0, len(es))
	for _, e := range es {
		if _, ok := v.m.edges[e]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (v memoryView) allEdges() ([]Edge, error) {
	out := make([]Edge, 0, len(v.m.edges))
	for e := range v.m.edges {
		out = append(out, e)
	}
	slices.SortFunc(out, compareEdges)
	return out, nil
}

func (v memoryView) adjacentEdges(id uuid.UUID, dir EdgeDirection, t Identifier, limit uint32) ([]Edge, error) {
	index, cmp := v.m.outgoing, compareEdges
	if dir == Inbound {
		index, cmp = v.m.incoming, compareReversedEdges
	}

	out := make([]Edge, 0, len(index[id]))
	for e := range index[id] {
		if !t.IsZero() && e.Type != t {
			continue
		}
		out = append(out, e)
	}
	slices.SortFunc(out, cmp)
	if limit > 0 && len(out) > int(limit) {
		out = out[:limit]
	}
	return out, nil
}

func (v memoryView) vertexProperties(id uuid.UUID, name Identifier) ([]NamedProperty, error) {
	props := v.m.properties[id]
	if !name.IsZero() {
		value, ok := props[name]
		if !ok {
			return nil, nil
		}
		return []NamedProperty{{Name: name, Value: slices.Clone(value)}}, nil
	}

	out := make([]NamedProperty, 0, len(props))
	for n, value := range props {
		out = append(out, NamedProperty{Name: n, Value: slices.Clone(value)})
	}
	slices.SortFunc(out, func(a, b NamedProperty) int { return compareTypes(a.Name, b.Name) })
	return out, nil
}

var _ Engine = (*MemoryEngine)(nil)
