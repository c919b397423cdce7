package storage

import (
	"fmt"

	"github.com/google/uuid"
)

// Query is a declarative request evaluated by Engine.Execute.
//
// The set of queries is closed; every implementation lives in this file.
// Queries are plain values and can be built, copied and compared freely.
type Query interface {
	isQuery()
}

// AllVertexQuery matches every vertex, ordered by id.
type AllVertexQuery struct{}

// RangeVertexQuery matches vertices ordered by id, starting at StartID
// (inclusive) when set, keeping only Type when set, and stopping after Limit
// results when Limit is non-zero.
type RangeVertexQuery struct {
	Limit   uint32
	Type    Identifier
	StartID *uuid.UUID
}

// SpecificVertexQuery matches the listed vertices that exist, in the order
// given. Missing ids are skipped.
type SpecificVertexQuery struct {
	IDs []uuid.UUID
}

// AllEdgeQuery matches every edge, ordered by (outbound, type, inbound).
type AllEdgeQuery struct{}

// SpecificEdgeQuery matches the listed edges that exist, in the order given.
type SpecificEdgeQuery struct {
	Edges []Edge
}

// PipeQuery moves between vertices and edges.
//
// Over a vertex-shaped Inner it yields the edges adjacent to each vertex in
// Direction. Over an edge-shaped Inner it yields the vertex at the Direction
// end of each edge, without duplicates. Type, when set, filters the edges
// (vertex inner) or the vertices (edge inner). Limit caps the result when
// non-zero.
type PipeQuery struct {
	Inner     Query
	Direction EdgeDirection
	Limit     uint32
	Type      Identifier
}

// PipePropertyQuery attaches properties to the vertices of a vertex-shaped
// Inner.
//
// With Name unset every vertex is returned with all of its properties, which
// may be none. With Name set only vertices carrying that property are
// returned, each with just that property.
type PipePropertyQuery struct {
	Inner Query
	Name  Identifier
}

// CountQuery counts the elements of its Inner output.
type CountQuery struct {
	Inner Query
}

// IncludeQuery emits the output of Inner as an extra batch in the Execute
// result, in addition to passing it on to any enclosing query.
type IncludeQuery struct {
	Inner Query
}

func (AllVertexQuery) isQuery()      {}
func (RangeVertexQuery) isQuery()    {}
func (SpecificVertexQuery) isQuery() {}
func (AllEdgeQuery) isQuery()        {}
func (SpecificEdgeQuery) isQuery()   {}
func (PipeQuery) isQuery()           {}
func (PipePropertyQuery) isQuery()   {}
func (CountQuery) isQuery()          {}
func (IncludeQuery) isQuery()        {}

// OutputKind names the shape of a QueryOutput.
type OutputKind int

const (
	KindVertexList OutputKind = iota
	KindPropertiedVertexList
	KindEdgeList
	KindCount
)

func (k OutputKind) String() string {
	switch k {
	case KindVertexList:
		return "vertex list"
	case KindPropertiedVertexList:
		return "propertied vertex list"
	case KindEdgeList:
		return "edge list"
	case KindCount:
		return "count"
	}
	return fmt.Sprintf("OutputKind(%d)", int(k))
}

// QueryOutput is one batch returned by Engine.Execute. Exactly one of
// VertexList, PropertiedVertexList, EdgeList or Count.
type QueryOutput interface {
	Kind() OutputKind
}

// VertexList is the output of vertex-shaped queries.
type VertexList []Vertex

// PropertiedVertexList is the output of PipePropertyQuery.
type PropertiedVertexList []VertexProperties

// EdgeList is the output of edge-shaped queries.
type EdgeList []Edge

// Count is the output of CountQuery.
type Count uint64

func (VertexList) Kind() OutputKind           { return KindVertexList }
func (PropertiedVertexList) Kind() OutputKind { return KindPropertiedVertexList }
func (EdgeList) Kind() OutputKind             { return KindEdgeList }
func (Count) Kind() OutputKind                { return KindCount }
