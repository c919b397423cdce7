package graph

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/orneryd/graphkit/pkg/storage"
)

// Store performs CRUD operations against a storage.Engine using the generic
// Vertex, GeneralEdge and Value types.
//
// A Store holds no state between calls and is safe for concurrent use when
// its engine is.
//
// Missing ids are passed through to the engine:
//   - SetVertexProperty on a missing vertex succeeds and writes nothing
//   - CreateEdge with a missing endpoint returns false without error
//
// Reads report "nothing matched" as an error wrapping ErrEmptyOutput, or as
// the domain error named on the method.
type Store struct {
	engine storage.Engine
	logger *zap.Logger
}

// NewStore wraps engine. A nil logger disables logging.
func NewStore(engine storage.Engine, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{engine: engine, logger: logger.Named("graph")}
}

// Engine returns the underlying engine.
func (s *Store) Engine() storage.Engine { return s.engine }

// ParseVertexID parses a textual vertex id.
func ParseVertexID(text string) (uuid.UUID, error) {
	id, err := uuid.Parse(text)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrInvalidUUID, text)
	}
	return id, nil
}

// ============================================================================
// Writes
// ============================================================================

// CreateVertex creates a vertex of type label and returns its new id.
func (s *Store) CreateVertex(label string) (uuid.UUID, error) {
	t, err := identifier("vertex type", label)
	if err != nil {
		return uuid.Nil, err
	}

	id, err := s.engine.CreateVertexFromType(t)
	if err != nil {
		s.logger.Warn("Failed to create vertex", zap.String("type", label), zap.Error(err))
		return uuid.Nil, fmt.Errorf("failed to create vertex: %w", err)
	}
	s.logger.Debug("Created vertex", zap.String("type", label), zap.Stringer("id", id))
	return id, nil
}

// CreateVertexWithProperties creates a vertex and then sets each property in
// order.
//
// There is no rollback. If a property fails, the vertex keeps the properties
// applied before it, and its id is returned together with the error so the
// caller can clean up.
func (s *Store) CreateVertexWithProperties(label string, props []Property) (uuid.UUID, error) {
	id, err := s.CreateVertex(label)
	if err != nil {
		return uuid.Nil, err
	}

	for i, p := range props {
		if err := s.SetVertexProperty(id, p.Name, p.Value); err != nil {
			return id, fmt.Errorf("vertex %s created, property %d of %d (%q) failed: %w", id, i+1, len(props), p.Name, err)
		}
	}
	return id, nil
}

// SetVertexProperty writes name=value on vertex id. Writing to a vertex that
// does not exist is not an error.
func (s *Store) SetVertexProperty(id uuid.UUID, name string, value Value) error {
	np, err := ToNamedProperty(Property{Name: name, Value: value})
	if err != nil {
		return err
	}

	if err := s.engine.SetProperties(SingleVertex(id).Query(), np.Name, np.Value); err != nil {
		s.logger.Warn("Failed to set vertex property",
			zap.Stringer("id", id), zap.String("name", name), zap.Error(err))
		return fmt.Errorf("failed to set property %q: %w", name, err)
	}
	s.logger.Debug("Set vertex property", zap.Stringer("id", id), zap.String("name", name))
	return nil
}

// CreateEdge creates the edge outbound -[label]-> inbound. It returns false,
// without error, when either endpoint does not exist. Creating an existing
// edge again returns true and stores nothing new.
func (s *Store) CreateEdge(outbound uuid.UUID, label string, inbound uuid.UUID) (bool, error) {
	t, err := identifier("edge type", label)
	if err != nil {
		return false, err
	}

	ok, err := s.engine.CreateEdge(storage.Edge{OutboundID: outbound, Type: t, InboundID: inbound})
	if err != nil {
		s.logger.Warn("Failed to create edge",
			zap.Stringer("outbound", outbound), zap.String("type", label), zap.Stringer("inbound", inbound), zap.Error(err))
		return false, fmt.Errorf("failed to create edge: %w", err)
	}
	s.logger.Debug("Create edge",
		zap.Stringer("outbound", outbound), zap.String("type", label), zap.Stringer("inbound", inbound), zap.Bool("created", ok))
	return ok, nil
}

// ============================================================================
// Single vertex reads
// ============================================================================

// GetVertex returns the vertex id without its properties.
func (s *Store) GetVertex(id uuid.UUID) (Vertex, error) {
	out, err := ParseSingleOutput(s.engine, SingleVertex(id).Query())
	if err != nil {
		return Vertex{}, err
	}
	vs, err := AsVertices(out)
	if err != nil {
		return Vertex{}, fmt.Errorf("vertex %s: %w", id, err)
	}
	return vs[0], nil
}

// GetVertexWithProperties returns the vertex id with all of its properties.
func (s *Store) GetVertexWithProperties(id uuid.UUID) (Vertex, error) {
	out, err := ParseSingleOutput(s.engine, SingleVertexWithProperties(id).Query())
	if err != nil {
		return Vertex{}, err
	}
	vs, err := AsPropertiedVertices(out)
	if err != nil {
		return Vertex{}, fmt.Errorf("vertex %s: %w", id, err)
	}
	return vs[0], nil
}

// GetProperties returns every property of vertex id, sorted by name.
// A vertex without properties yields ErrNoPropertiesDefined.
func (s *Store) GetProperties(id uuid.UUID) ([]Property, error) {
	v, err := s.GetVertexWithProperties(id)
	if err != nil {
		return nil, err
	}
	if len(v.Properties) == 0 {
		return nil, fmt.Errorf("vertex %s: %w", id, ErrNoPropertiesDefined)
	}
	return v.Properties, nil
}

// GetPropertyValue returns the value of property name on vertex id.
//
// A missing property, or a missing vertex, yields an error matching both
// ErrInvalidProperty and ErrEmptyOutput.
func (s *Store) GetPropertyValue(id uuid.UUID, name string) (Value, error) {
	pq, err := PropertyByName(SingleVertexWithProperties(id), name)
	if err != nil {
		return nil, err
	}
	out, err := ParseSingleOutput(s.engine, pq.Query())
	if err != nil {
		return nil, err
	}
	vs, err := AsPropertiedVertices(out)
	if errors.Is(err, ErrEmptyOutput) {
		return nil, fmt.Errorf("%w: %q on vertex %s: %w", ErrInvalidProperty, name, id, err)
	}
	if err != nil {
		return nil, err
	}

	v, ok := vs[0].Property(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q on vertex %s: %w", ErrInvalidProperty, name, id, ErrEmptyOutput)
	}
	return v, nil
}

// GetBoolProperty returns property name of vertex id as a bool.
func (s *Store) GetBoolProperty(id uuid.UUID, name string) (bool, error) {
	v, err := s.GetPropertyValue(id, name)
	if err != nil {
		return false, err
	}
	b, err := AsBool(v)
	if err != nil {
		return false, fmt.Errorf("property %q: %w", name, err)
	}
	return b, nil
}

// GetIntegerProperty returns property name of vertex id as a uint64.
func (s *Store) GetIntegerProperty(id uuid.UUID, name string) (uint64, error) {
	v, err := s.GetPropertyValue(id, name)
	if err != nil {
		return 0, err
	}
	n, err := AsInteger(v)
	if err != nil {
		return 0, fmt.Errorf("property %q: %w", name, err)
	}
	return n, nil
}

// GetStringProperty returns property name of vertex id as a string.
func (s *Store) GetStringProperty(id uuid.UUID, name string) (string, error) {
	v, err := s.GetPropertyValue(id, name)
	if err != nil {
		return "", err
	}
	str, err := AsString(v)
	if err != nil {
		return "", fmt.Errorf("property %q: %w", name, err)
	}
	return str, nil
}

// ============================================================================
// Multi-vertex reads
// ============================================================================

// AllVertices returns every vertex, ordered by id.
func (s *Store) AllVertices() ([]Vertex, error) {
	return s.vertices(AllVertices())
}

// VerticesOfType returns every vertex of type label, ordered by id.
func (s *Store) VerticesOfType(label string) ([]Vertex, error) {
	q, err := VerticesOfType(label)
	if err != nil {
		return nil, err
	}
	return s.vertices(q)
}

// VerticesByIDs returns the vertices among ids that exist, in the order
// given.
func (s *Store) VerticesByIDs(ids []uuid.UUID) ([]Vertex, error) {
	return s.vertices(VerticesByIDs(ids))
}

// CountVertices counts all vertices, or the vertices of type label when one
// is given.
func (s *Store) CountVertices(label ...string) (uint64, error) {
	q := AllVertices()
	if len(label) > 0 && label[0] != "" {
		var err error
		if q, err = VerticesOfType(label[0]); err != nil {
			return 0, err
		}
	}

	out, err := ParseSingleOutput(s.engine, q.Count().Query())
	if err != nil {
		return 0, err
	}
	return AsCount(out)
}

func (s *Store) vertices(q VertexQuery) ([]Vertex, error) {
	out, err := ParseSingleOutput(s.engine, q.Query())
	if err != nil {
		return nil, err
	}
	return AsVertices(out)
}

// ============================================================================
// Edges and connected vertices
// ============================================================================

// OutboundEdges returns the edges leaving id. When labels are given only
// edges of those types are returned, grouped by label in the order given.
// No matching edge yields ErrNoOutgoingEdges.
func (s *Store) OutboundEdges(id uuid.UUID, labels ...string) ([]GeneralEdge, error) {
	edges, err := s.edges(OutboundEdges(id), labels)
	if errors.Is(err, ErrEmptyOutput) {
		return nil, fmt.Errorf("vertex %s: %w", id, ErrNoOutgoingEdges)
	}
	return edges, err
}

// InboundEdges returns the edges arriving at id, filtered like
// OutboundEdges. No matching edge yields ErrNoIncomingEdges.
func (s *Store) InboundEdges(id uuid.UUID, labels ...string) ([]GeneralEdge, error) {
	edges, err := s.edges(InboundEdges(id), labels)
	if errors.Is(err, ErrEmptyOutput) {
		return nil, fmt.Errorf("vertex %s: %w", id, ErrNoIncomingEdges)
	}
	return edges, err
}

// OutboundVertices returns the distinct vertices that id has edges to, in
// the order their edges were listed.
func (s *Store) OutboundVertices(id uuid.UUID, labels ...string) ([]Vertex, error) {
	edges, err := s.OutboundEdges(id, labels...)
	if err != nil {
		return nil, err
	}
	return s.farEnds(edges, storage.Inbound)
}

// InboundVertices returns the distinct vertices that have edges to id, in
// the order their edges were listed.
func (s *Store) InboundVertices(id uuid.UUID, labels ...string) ([]Vertex, error) {
	edges, err := s.InboundEdges(id, labels...)
	if err != nil {
		return nil, err
	}
	return s.farEnds(edges, storage.Outbound)
}

// edges runs base once per distinct label, or once unfiltered when labels is
// empty, and concatenates the results. An empty result wraps ErrEmptyOutput.
func (s *Store) edges(base EdgeQuery, labels []string) ([]GeneralEdge, error) {
	queries := []EdgeQuery{base}
	if len(labels) > 0 {
		queries = queries[:0]
		seen := make(map[string]struct{}, len(labels))
		for _, label := range labels {
			if _, dup := seen[label]; dup {
				continue
			}
			seen[label] = struct{}{}

			q, err := base.OfType(label)
			if err != nil {
				return nil, err
			}
			queries = append(queries, q)
		}
	}

	var all []GeneralEdge
	for _, q := range queries {
		out, err := ParseSingleOutput(s.engine, q.Query())
		if err != nil {
			return nil, err
		}
		es, err := AsEdges(out)
		if errors.Is(err, ErrEmptyOutput) {
			continue
		}
		if err != nil {
			return nil, err
		}
		all = append(all, es...)
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("%w: no edges", ErrEmptyOutput)
	}
	return all, nil
}

// farEnds fetches the distinct vertices at the given end of edges, in
// first-seen order.
func (s *Store) farEnds(edges []GeneralEdge, end storage.EdgeDirection) ([]Vertex, error) {
	seen := make(map[uuid.UUID]struct{}, len(edges))
	ids := make([]uuid.UUID, 0, len(edges))
	for _, e := range edges {
		id := e.InboundID
		if end == storage.Outbound {
			id = e.OutboundID
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return s.VerticesByIDs(ids)
}
