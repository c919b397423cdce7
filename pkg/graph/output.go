package graph

import (
	"fmt"

	"github.com/orneryd/graphkit/pkg/storage"
)

// ParseSingleOutput executes q and returns its first output batch.
//
// ErrNoOutput is returned only when the engine produces no batch at all. A
// batch holding an empty list is returned as-is; the As* functions report it
// as ErrEmptyOutput.
func ParseSingleOutput(engine storage.Engine, q storage.Query) (storage.QueryOutput, error) {
	outputs, err := engine.Execute(q)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	if len(outputs) == 0 {
		return nil, ErrNoOutput
	}
	return outputs[0], nil
}

// AsVertices narrows out to a non-empty vertex list.
func AsVertices(out storage.QueryOutput) ([]Vertex, error) {
	list, ok := out.(storage.VertexList)
	if !ok {
		return nil, invalidOutput(storage.KindVertexList, out)
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: no vertices", ErrEmptyOutput)
	}

	vs := make([]Vertex, len(list))
	for i, v := range list {
		vs[i] = vertexFromStorage(v)
	}
	return vs, nil
}

// AsPropertiedVertices narrows out to a non-empty propertied vertex list and
// converts every property. A property whose native value has no Value
// representation fails the whole conversion.
func AsPropertiedVertices(out storage.QueryOutput) ([]Vertex, error) {
	list, ok := out.(storage.PropertiedVertexList)
	if !ok {
		return nil, invalidOutput(storage.KindPropertiedVertexList, out)
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: no vertices", ErrEmptyOutput)
	}

	vs := make([]Vertex, len(list))
	for i, vp := range list {
		v, err := vertexFromProperties(vp)
		if err != nil {
			return nil, fmt.Errorf("vertex %s: %w", vp.Vertex.ID, err)
		}
		vs[i] = v
	}
	return vs, nil
}

// AsEdges narrows out to a non-empty edge list.
func AsEdges(out storage.QueryOutput) ([]GeneralEdge, error) {
	list, ok := out.(storage.EdgeList)
	if !ok {
		return nil, invalidOutput(storage.KindEdgeList, out)
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: no edges", ErrEmptyOutput)
	}

	es := make([]GeneralEdge, len(list))
	for i, e := range list {
		es[i] = edgeFromStorage(e)
	}
	return es, nil
}

// AsCount narrows out to a count. Zero is a valid count.
func AsCount(out storage.QueryOutput) (uint64, error) {
	c, ok := out.(storage.Count)
	if !ok {
		return 0, invalidOutput(storage.KindCount, out)
	}
	return uint64(c), nil
}

func invalidOutput(want storage.OutputKind, got storage.QueryOutput) error {
	if got == nil {
		return fmt.Errorf("%w: want %s, got nil", ErrInvalidOutput, want)
	}
	return fmt.Errorf("%w: want %s, got %s", ErrInvalidOutput, want, got.Kind())
}
