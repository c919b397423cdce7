package graph

import (
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/orneryd/graphkit/pkg/storage"
)

// The builders below describe queries without executing them. Each one is an
// immutable value; methods return a new builder. Labels and names are
// validated as they are supplied, so a builder that exists is always
// executable.

// VertexQuery matches vertices.
type VertexQuery struct {
	q storage.Query
}

// Query returns the engine query.
func (v VertexQuery) Query() storage.Query { return v.q }

// SingleVertex matches the vertex with the given id.
func SingleVertex(id uuid.UUID) VertexQuery {
	return VertexQuery{q: storage.SpecificVertexQuery{IDs: []uuid.UUID{id}}}
}

// VerticesByIDs matches the given vertices in order, skipping ids that do not
// exist.
func VerticesByIDs(ids []uuid.UUID) VertexQuery {
	return VertexQuery{q: storage.SpecificVertexQuery{IDs: slices.Clone(ids)}}
}

// AllVertices matches every vertex, ordered by id.
func AllVertices() VertexQuery {
	return VertexQuery{q: storage.AllVertexQuery{}}
}

// VerticesOfType matches every vertex whose type is label, ordered by id.
func VerticesOfType(label string) (VertexQuery, error) {
	t, err := identifier("vertex type", label)
	if err != nil {
		return VertexQuery{}, err
	}
	return VertexQuery{q: storage.RangeVertexQuery{Type: t}}, nil
}

// WithProperties expands the matched vertices with all of their properties.
func (v VertexQuery) WithProperties() PropertyQuery {
	return PropertyQuery{q: storage.PipePropertyQuery{Inner: v.q}}
}

// Count counts the matched vertices.
func (v VertexQuery) Count() CountQuery {
	return CountQuery{q: storage.CountQuery{Inner: v.q}}
}

// PropertyQuery matches vertices together with their properties.
type PropertyQuery struct {
	q storage.PipePropertyQuery
}

// Query returns the engine query.
func (p PropertyQuery) Query() storage.Query { return p.q }

// SingleVertexWithProperties matches one vertex with all of its properties.
func SingleVertexWithProperties(id uuid.UUID) PropertyQuery {
	return SingleVertex(id).WithProperties()
}

// PropertyByName narrows pq to the single property name. Vertices that lack
// the property drop out of the result.
func PropertyByName(pq PropertyQuery, name string) (PropertyQuery, error) {
	n, err := identifier("property name", name)
	if err != nil {
		return PropertyQuery{}, err
	}
	pq.q.Name = n
	return pq, nil
}

// EdgeQuery matches the edges around a set of vertices in one direction.
type EdgeQuery struct {
	q storage.PipeQuery
}

// Query returns the engine query.
func (e EdgeQuery) Query() storage.Query { return e.q }

// OutboundEdges matches the edges leaving id.
func OutboundEdges(id uuid.UUID) EdgeQuery {
	return EdgeQuery{q: storage.PipeQuery{Inner: SingleVertex(id).q, Direction: storage.Outbound}}
}

// InboundEdges matches the edges arriving at id.
func InboundEdges(id uuid.UUID) EdgeQuery {
	return EdgeQuery{q: storage.PipeQuery{Inner: SingleVertex(id).q, Direction: storage.Inbound}}
}

// OfType keeps only edges whose type is label.
func (e EdgeQuery) OfType(label string) (EdgeQuery, error) {
	t, err := identifier("edge type", label)
	if err != nil {
		return EdgeQuery{}, err
	}
	e.q.Type = t
	return e, nil
}

// OutboundVertices matches the distinct outbound ends of the edges.
func (e EdgeQuery) OutboundVertices() VertexQuery {
	return VertexQuery{q: storage.PipeQuery{Inner: e.q, Direction: storage.Outbound}}
}

// InboundVertices matches the distinct inbound ends of the edges.
func (e EdgeQuery) InboundVertices() VertexQuery {
	return VertexQuery{q: storage.PipeQuery{Inner: e.q, Direction: storage.Inbound}}
}

// CountQuery counts the results of a vertex query.
type CountQuery struct {
	q storage.CountQuery
}

// Query returns the engine query.
func (c CountQuery) Query() storage.Query { return c.q }

func identifier(what, s string) (storage.Identifier, error) {
	id, err := storage.NewIdentifier(s)
	if err != nil {
		return storage.Identifier{}, fmt.Errorf("%s: %w", what, err)
	}
	return id, nil
}
