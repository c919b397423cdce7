package graph

import (
	"github.com/google/uuid"

	"github.com/orneryd/graphkit/pkg/storage"
)

// Vertex is a graph node.
//
// Properties is only populated by propertied queries. A vertex read through
// GetVertex or a plain vertex query has no properties even if some are
// stored.
type Vertex struct {
	ID         uuid.UUID
	Type       string
	Properties []Property
}

// Property returns the first property called name.
func (v Vertex) Property(name string) (Value, bool) {
	for _, p := range v.Properties {
		if p.Name == name {
			return p.Value, true
		}
	}
	return nil, false
}

// GeneralEdge is a directed, typed connection from OutboundID to InboundID.
// The triple is the edge's identity.
type GeneralEdge struct {
	OutboundID uuid.UUID
	Type       string
	InboundID  uuid.UUID
}

func vertexFromStorage(v storage.Vertex) Vertex {
	return Vertex{ID: v.ID, Type: v.Type.String()}
}

func vertexFromProperties(vp storage.VertexProperties) (Vertex, error) {
	v := vertexFromStorage(vp.Vertex)
	if len(vp.Props) == 0 {
		return v, nil
	}
	v.Properties = make([]Property, 0, len(vp.Props))
	for _, np := range vp.Props {
		p, err := FromNamedProperty(np)
		if err != nil {
			return Vertex{}, err
		}
		v.Properties = append(v.Properties, p)
	}
	return v, nil
}

func edgeFromStorage(e storage.Edge) GeneralEdge {
	return GeneralEdge{OutboundID: e.OutboundID, Type: e.Type.String(), InboundID: e.InboundID}
}
