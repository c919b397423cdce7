package storage

import (
	"fmt"

	"github.com/google/uuid"
)

// reader is the set of primitive reads an engine exposes to the shared query
// evaluator. Implementations run inside whatever consistency scope the engine
// provides (a held lock, a Badger transaction, a Neo4j transaction).
//
// Results must be deterministic:
//   - vertexRange: ordered by id
//   - allEdges: ordered by (outbound, type, inbound)
//   - adjacentEdges outbound: ordered by (type, inbound); inbound: (type, outbound)
//   - vertexProperties: ordered by name
type reader interface {
	// vertices returns the existing vertices among ids, in the order given.
	vertices(ids []uuid.UUID) ([]Vertex, error)

	// vertexRange scans vertices from start (inclusive, nil = first), keeping
	// only type t when set, up to limit results (0 = unbounded).
	vertexRange(start *uuid.UUID, t Identifier, limit uint32) ([]Vertex, error)

	// edges returns the existing edges among es, in the order given.
	edges(es []Edge) ([]Edge, error)

	allEdges() ([]Edge, error)

	// adjacentEdges lists edges leaving (Outbound) or reaching (Inbound) id,
	// keeping only type t when set, up to limit results (0 = unbounded).
	adjacentEdges(id uuid.UUID, dir EdgeDirection, t Identifier, limit uint32) ([]Edge, error)

	// vertexProperties returns all properties of id, or only name when set.
	vertexProperties(id uuid.UUID, name Identifier) ([]NamedProperty, error)
}

// execute evaluates q against r and assembles the Execute result: one batch
// per IncludeQuery in evaluation order, then the final output. A top-level
// IncludeQuery is not emitted twice.
func execute(r reader, q Query) ([]QueryOutput, error) {
	var included []QueryOutput
	out, err := evaluate(r, q, &included)
	if err != nil {
		return nil, err
	}
	if _, top := q.(IncludeQuery); top {
		return included, nil
	}
	return append(included, out), nil
}

// matchVertices evaluates a vertex-shaped query and returns its vertices.
// Used by SetProperties.
func matchVertices(r reader, q Query) ([]Vertex, error) {
	out, err := evaluate(r, q, nil)
	if err != nil {
		return nil, err
	}
	vs, ok := verticesOf(out)
	if !ok {
		return nil, fmt.Errorf("%w: expected vertex-shaped query, got %s", ErrInvalidQuery, out.Kind())
	}
	return vs, nil
}

func evaluate(r reader, q Query, included *[]QueryOutput) (QueryOutput, error) {
	switch q := q.(type) {
	case AllVertexQuery:
		vs, err := r.vertexRange(nil, Identifier{}, 0)
		return VertexList(vs), err

	case RangeVertexQuery:
		vs, err := r.vertexRange(q.StartID, q.Type, q.Limit)
		return VertexList(vs), err

	case SpecificVertexQuery:
		vs, err := r.vertices(q.IDs)
		return VertexList(vs), err

	case AllEdgeQuery:
		es, err := r.allEdges()
		return EdgeList(es), err

	case SpecificEdgeQuery:
		es, err := r.edges(q.Edges)
		return EdgeList(es), err

	case PipeQuery:
		inner, err := evaluateInner(r, q.Inner, included)
		if err != nil {
			return nil, err
		}
		return pipe(r, q, inner)

	case PipePropertyQuery:
		inner, err := evaluateInner(r, q.Inner, included)
		if err != nil {
			return nil, err
		}
		vs, ok := verticesOf(inner)
		if !ok {
			return nil, fmt.Errorf("%w: properties of %s", ErrInvalidQuery, inner.Kind())
		}
		return attachProperties(r, vs, q.Name)

	case CountQuery:
		inner, err := evaluateInner(r, q.Inner, included)
		if err != nil {
			return nil, err
		}
		switch inner := inner.(type) {
		case VertexList:
			return Count(len(inner)), nil
		case PropertiedVertexList:
			return Count(len(inner)), nil
		case EdgeList:
			return Count(len(inner)), nil
		}
		return nil, fmt.Errorf("%w: count of %s", ErrInvalidQuery, inner.Kind())

	case IncludeQuery:
		inner, err := evaluateInner(r, q.Inner, included)
		if err != nil {
			return nil, err
		}
		if included != nil {
			*included = append(*included, inner)
		}
		return inner, nil

	case nil:
		return nil, fmt.Errorf("%w: nil query", ErrInvalidQuery)
	}
	return nil, fmt.Errorf("%w: unsupported query %T", ErrInvalidQuery, q)
}

func evaluateInner(r reader, q Query, included *[]QueryOutput) (QueryOutput, error) {
	if q == nil {
		return nil, fmt.Errorf("%w: missing inner query", ErrInvalidQuery)
	}
	return evaluate(r, q, included)
}

func pipe(r reader, q PipeQuery, inner QueryOutput) (QueryOutput, error) {
	if vs, ok := verticesOf(inner); ok {
		var out EdgeList
		for _, v := range vs {
			remaining := remainingLimit(q.Limit, len(out))
			if remaining < 0 {
				break
			}
			es, err := r.adjacentEdges(v.ID, q.Direction, q.Type, uint32(remaining))
			if err != nil {
				return nil, err
			}
			out = append(out, es...)
		}
		return out, nil
	}

	es, ok := inner.(EdgeList)
	if !ok {
		return nil, fmt.Errorf("%w: pipe over %s", ErrInvalidQuery, inner.Kind())
	}

	seen := make(map[uuid.UUID]struct{}, len(es))
	ids := make([]uuid.UUID, 0, len(es))
	for _, e := range es {
		id := e.OutboundID
		if q.Direction == Inbound {
			id = e.InboundID
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	vs, err := r.vertices(ids)
	if err != nil {
		return nil, err
	}
	out := make(VertexList, 0, len(vs))
	for _, v := range vs {
		if !q.Type.IsZero() && v.Type != q.Type {
			continue
		}
		if q.Limit > 0 && len(out) >= int(q.Limit) {
			break
		}
		out = append(out, v)
	}
	return out, nil
}

// remainingLimit returns how many more results may be added under limit:
// 0 when unbounded, -1 when the limit is already reached.
func remainingLimit(limit uint32, have int) int {
	if limit == 0 {
		return 0
	}
	left := int(limit) - have
	if left <= 0 {
		return -1
	}
	return left
}

func attachProperties(r reader, vs []Vertex, name Identifier) (QueryOutput, error) {
	out := make(PropertiedVertexList, 0, len(vs))
	for _, v := range vs {
		props, err := r.vertexProperties(v.ID, name)
		if err != nil {
			return nil, err
		}
		if !name.IsZero() && len(props) == 0 {
			continue
		}
		out = append(out, VertexProperties{Vertex: v, Props: props})
	}
	return out, nil
}

// verticesOf extracts the vertices of a vertex-shaped output.
func verticesOf(out QueryOutput) ([]Vertex, bool) {
	switch out := out.(type) {
	case VertexList:
		return out, true
	case PropertiedVertexList:
		vs := make([]Vertex, len(out))
		for i, vp := range out {
			vs[i] = vp.Vertex
		}
		return vs, true
	}
	return nil, false
}
