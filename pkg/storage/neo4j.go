package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/orneryd/graphkit/pkg/convert"
)

// Graph layout inside Neo4j. Vertices are (:GraphVertex {id, type}) nodes,
// edges are [:GRAPH_EDGE {type}] relationships, and vertex properties are
// node properties named "p:<name>" holding JSON text.
const (
	neo4jPropertyPrefix = "p:"

	cypherVertexConstraint = `CREATE CONSTRAINT graph_vertex_id IF NOT EXISTS
FOR (v:GraphVertex) REQUIRE v.id IS UNIQUE`

	cypherCreateVertex = `CREATE (v:GraphVertex {id: $id, type: $type})`

	cypherCreateEdge = `MATCH (a:GraphVertex {id: $source}), (b:GraphVertex {id: $target})
MERGE (a)-[r:GRAPH_EDGE {type: $type}]->(b)
RETURN count(r) AS created`

	cypherSetProperty = `UNWIND $ids AS id
MATCH (v:GraphVertex {id: id})
SET v += $props`

	cypherVerticesByID = `UNWIND $ids AS id
MATCH (v:GraphVertex {id: id})
RETURN v.id AS id, v.type AS type`

	cypherVertexRange = `MATCH (v:GraphVertex)
WHERE ($start IS NULL OR v.id >= $start) AND ($type IS NULL OR v.type = $type)
RETURN v.id AS id, v.type AS type
ORDER BY v.id`

	cypherEdgesByTriple = `UNWIND $edges AS e
MATCH (a:GraphVertex {id: e.source})-[r:GRAPH_EDGE {type: e.type}]->(b:GraphVertex {id: e.target})
RETURN DISTINCT a.id AS source, r.type AS edgeType, b.id AS target`

	cypherAllEdges = `MATCH (a:GraphVertex)-[r:GRAPH_EDGE]->(b:GraphVertex)
RETURN a.id AS source, r.type AS edgeType, b.id AS target
ORDER BY source, edgeType, target`

	cypherOutboundEdges = `MATCH (a:GraphVertex {id: $id})-[r:GRAPH_EDGE]->(b:GraphVertex)
WHERE $type IS NULL OR r.type = $type
RETURN a.id AS source, r.type AS edgeType, b.id AS target
ORDER BY edgeType, target`

	cypherInboundEdges = `MATCH (a:GraphVertex)-[r:GRAPH_EDGE]->(b:GraphVertex {id: $id})
WHERE $type IS NULL OR r.type = $type
RETURN a.id AS source, r.type AS edgeType, b.id AS target
ORDER BY edgeType, source`

	cypherVertexProperties = `MATCH (v:GraphVertex {id: $id})
RETURN properties(v) AS props`
)

// Neo4jOptions configures a Neo4jEngine.
type Neo4jOptions struct {
	// URI of the server, e.g. "neo4j://localhost:7687".
	URI      string
	Username string
	Password string
	// Database name; empty selects the server default.
	Database string
	// Timeout bounds every engine call. Defaults to 30s.
	Timeout time.Duration
	// Logger receives query failures. Nil disables logging.
	Logger *zap.Logger
}

// Neo4jEngine stores the graph in a Neo4j database through the official
// driver.
//
// Each Engine call is one managed transaction, so Execute sees a consistent
// snapshot and SetProperties evaluates its query and writes atomically.
// Calls are bounded by Neo4jOptions.Timeout; the Engine interface itself
// carries no context.
type Neo4jEngine struct {
	driver   neo4j.DriverWithContext
	database string
	timeout  time.Duration
	logger   *zap.Logger
	newID    func() (uuid.UUID, error)

	mu     sync.RWMutex
	closed bool
}

// NewNeo4jEngine connects to Neo4j, verifies connectivity and ensures the
// vertex id uniqueness constraint exists.
func NewNeo4jEngine(opts Neo4jOptions) (*Neo4jEngine, error) {
	if opts.URI == "" {
		return nil, fmt.Errorf("%w: neo4j uri is required", ErrInvalidData)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	driver, err := neo4j.NewDriverWithContext(opts.URI, neo4j.BasicAuth(opts.Username, opts.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create Neo4j driver: %w", err)
	}

	e := &Neo4jEngine{
		driver:   driver,
		database: opts.Database,
		timeout:  opts.Timeout,
		logger:   opts.Logger.Named("neo4j"),
		newID:    uuid.NewV7,
	}

	ctx, cancel := e.context()
	defer cancel()

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("failed to connect to Neo4j: %w", err)
	}
	_, err = e.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return collectRecords(ctx, tx, cypherVertexConstraint, nil)
	})
	if err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("failed to create vertex constraint: %w", err)
	}
	return e, nil
}

func (e *Neo4jEngine) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), e.timeout)
}

func (e *Neo4jEngine) checkOpen() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return ErrStorageClosed
	}
	return nil
}

func (e *Neo4jEngine) read(ctx context.Context, work neo4j.ManagedTransactionWork) (any, error) {
	session := e.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead, DatabaseName: e.database})
	defer session.Close(ctx)
	return session.ExecuteRead(ctx, work)
}

func (e *Neo4jEngine) write(ctx context.Context, work neo4j.ManagedTransactionWork) (any, error) {
	session := e.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite, DatabaseName: e.database})
	defer session.Close(ctx)
	return session.ExecuteWrite(ctx, work)
}

// CreateVertexFromType mints a new id and creates the vertex node.
func (e *Neo4jEngine) CreateVertexFromType(t Identifier) (uuid.UUID, error) {
	if t.IsZero() {
		return uuid.Nil, ErrInvalidIdentifier
	}
	if err := e.checkOpen(); err != nil {
		return uuid.Nil, err
	}

	id, err := e.newID()
	if err != nil {
		return uuid.Nil, err
	}

	ctx, cancel := e.context()
	defer cancel()

	_, err = e.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return collectRecords(ctx, tx, cypherCreateVertex, map[string]any{
			"id":   id.String(),
			"type": t.String(),
		})
	})
	if err != nil {
		e.logger.Error("Failed to create vertex", zap.String("type", t.String()), zap.Error(err))
		return uuid.Nil, fmt.Errorf("failed to create vertex: %w", err)
	}
	return id, nil
}

// CreateEdge merges the edge relationship. Returns false when either
// endpoint node is missing.
func (e *Neo4jEngine) CreateEdge(edge Edge) (bool, error) {
	if edge.Type.IsZero() {
		return false, ErrInvalidIdentifier
	}
	if err := e.checkOpen(); err != nil {
		return false, err
	}

	ctx, cancel := e.context()
	defer cancel()

	result, err := e.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return collectRecords(ctx, tx, cypherCreateEdge, map[string]any{
			"source": edge.OutboundID.String(),
			"type":   edge.Type.String(),
			"target": edge.InboundID.String(),
		})
	})
	if err != nil {
		e.logger.Error("Failed to create edge", zap.String("type", edge.Type.String()), zap.Error(err))
		return false, fmt.Errorf("failed to create edge: %w", err)
	}

	records := result.([]map[string]any)
	if len(records) == 0 {
		return false, nil
	}
	created, ok := convert.ToInt64(records[0]["created"])
	return ok && created > 0, nil
}

// SetProperties evaluates q and sets the property on every matched vertex
// inside one write transaction.
func (e *Neo4jEngine) SetProperties(q Query, name Identifier, value json.RawMessage) error {
	if name.IsZero() {
		return ErrInvalidIdentifier
	}
	if err := validJSON(value); err != nil {
		return err
	}
	if err := e.checkOpen(); err != nil {
		return err
	}

	ctx, cancel := e.context()
	defer cancel()

	_, err := e.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		vs, err := matchVertices(neo4jView{ctx: ctx, tx: tx}, q)
		if err != nil {
			return nil, err
		}
		if len(vs) == 0 {
			return nil, nil
		}
		return collectRecords(ctx, tx, cypherSetProperty, map[string]any{
			"ids":   vertexIDStrings(vs),
			"props": map[string]any{neo4jPropertyPrefix + name.String(): string(value)},
		})
	})
	if err != nil {
		e.logger.Error("Failed to set property", zap.String("name", name.String()), zap.Error(err))
		return fmt.Errorf("failed to set property: %w", err)
	}
	return nil
}

// Execute evaluates q in a read transaction.
func (e *Neo4jEngine) Execute(q Query) ([]QueryOutput, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}

	ctx, cancel := e.context()
	defer cancel()

	result, err := e.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return execute(neo4jView{ctx: ctx, tx: tx}, q)
	})
	if err != nil {
		return nil, err
	}
	return result.([]QueryOutput), nil
}

// Close closes the driver.
func (e *Neo4jEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true

	ctx, cancel := e.context()
	defer cancel()
	return e.driver.Close(ctx)
}

// collectRecords runs a statement and flattens its records into maps keyed
// by column name.
func collectRecords(ctx context.Context, tx neo4j.ManagedTransaction, cypher string, params map[string]any) ([]map[string]any, error) {
	result, err := tx.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}

	var records []map[string]any
	for result.Next(ctx) {
		record := result.Record()
		row := make(map[string]any, len(record.Keys))
		for _, key := range record.Keys {
			value, _ := record.Get(key)
			row[key] = value
		}
		records = append(records, row)
	}
	if err := result.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// neo4jView implements reader inside a managed transaction.
type neo4jView struct {
	ctx context.Context
	tx  neo4j.ManagedTransaction
}

func (v neo4jView) vertices(ids []uuid.UUID) ([]Vertex, error) {
	if len(ids) == 0 {
		return []Vertex{}, nil
	}
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}

	records, err := collectRecords(v.ctx, v.tx, cypherVerticesByID, map[string]any{"ids": strs})
	if err != nil {
		return nil, err
	}
	found := make(map[uuid.UUID]Vertex, len(records))
	for _, rec := range records {
		vx, err := decodeNeo4jVertex(rec)
		if err != nil {
			return nil, err
		}
		found[vx.ID] = vx
	}

	out := make([]Vertex, 0, len(found))
	for _, id := range ids {
		if vx, ok := found[id]; ok {
			out = append(out, vx)
		}
	}
	return out, nil
}

func (v neo4jView) vertexRange(start *uuid.UUID, t Identifier, limit uint32) ([]Vertex, error) {
	params := map[string]any{"start": nil, "type": optionalIdentifier(t)}
	if start != nil {
		params["start"] = start.String()
	}
	records, err := collectRecords(v.ctx, v.tx, withLimit(cypherVertexRange, limit, params), params)
	if err != nil {
		return nil, err
	}

	out := make([]Vertex, 0, len(records))
	for _, rec := range records {
		vx, err := decodeNeo4jVertex(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, vx)
	}
	return out, nil
}

func (v neo4jView) edges(es []Edge) ([]Edge, error) {
	if len(es) == 0 {
		return []Edge{}, nil
	}
	params := make([]any, 0, len(es))
	for _, e := range es {
		if e.Type.IsZero() {
			continue
		}
		params = append(params, map[string]any{
			"source": e.OutboundID.String(),
			"type":   e.Type.String(),
			"target": e.InboundID.String(),
		})
	}

	records, err := collectRecords(v.ctx, v.tx, cypherEdgesByTriple, map[string]any{"edges": params})
	if err != nil {
		return nil, err
	}
	found := make(map[Edge]struct{}, len(records))
	for _, rec := range records {
		e, err := decodeNeo4jEdge(rec)
		if err != nil {
			return nil, err
		}
		found[e] = struct{}{}
	}

	out := make([]Edge, 0, len(found))
	for _, e := range es {
		if _, ok := found[e]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (v neo4jView) allEdges() ([]Edge, error) {
	records, err := collectRecords(v.ctx, v.tx, cypherAllEdges, nil)
	if err != nil {
		return nil, err
	}
	return decodeNeo4jEdges(records)
}

func (v neo4jView) adjacentEdges(id uuid.UUID, dir EdgeDirection, t Identifier, limit uint32) ([]Edge, error) {
	cypher := cypherOutboundEdges
	if dir == Inbound {
		cypher = cypherInboundEdges
	}
	params := map[string]any{"id": id.String(), "type": optionalIdentifier(t)}
	records, err := collectRecords(v.ctx, v.tx, withLimit(cypher, limit, params), params)
	if err != nil {
		return nil, err
	}
	return decodeNeo4jEdges(records)
}

func (v neo4jView) vertexProperties(id uuid.UUID, name Identifier) ([]NamedProperty, error) {
	records, err := collectRecords(v.ctx, v.tx, cypherVertexProperties, map[string]any{"id": id.String()})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	props, _ := records[0]["props"].(map[string]any)
	return decodeNeo4jProperties(props, name)
}

// withLimit appends a LIMIT clause when limit is non-zero.
func withLimit(cypher string, limit uint32, params map[string]any) string {
	if limit == 0 {
		return cypher
	}
	params["limit"] = int64(limit)
	return cypher + "\nLIMIT $limit"
}

func optionalIdentifier(t Identifier) any {
	if t.IsZero() {
		return nil
	}
	return t.String()
}

func vertexIDStrings(vs []Vertex) []string {
	ids := make([]string, len(vs))
	for i, v := range vs {
		ids[i] = v.ID.String()
	}
	return ids
}

func decodeNeo4jVertex(rec map[string]any) (Vertex, error) {
	idStr, _ := rec["id"].(string)
	id, err := uuid.Parse(idStr)
	if err != nil {
		return Vertex{}, fmt.Errorf("%w: vertex id %q: %v", ErrInvalidData, idStr, err)
	}
	typeStr, _ := rec["type"].(string)
	t, err := NewIdentifier(typeStr)
	if err != nil {
		return Vertex{}, fmt.Errorf("%w: vertex %s: %v", ErrInvalidData, id, err)
	}
	return Vertex{ID: id, Type: t}, nil
}

func decodeNeo4jEdge(rec map[string]any) (Edge, error) {
	source, _ := rec["source"].(string)
	target, _ := rec["target"].(string)
	typeStr, _ := rec["edgeType"].(string)

	out, err := uuid.Parse(source)
	if err != nil {
		return Edge{}, fmt.Errorf("%w: edge source %q: %v", ErrInvalidData, source, err)
	}
	in, err := uuid.Parse(target)
	if err != nil {
		return Edge{}, fmt.Errorf("%w: edge target %q: %v", ErrInvalidData, target, err)
	}
	t, err := NewIdentifier(typeStr)
	if err != nil {
		return Edge{}, fmt.Errorf("%w: edge type: %v", ErrInvalidData, err)
	}
	return Edge{OutboundID: out, Type: t, InboundID: in}, nil
}

func decodeNeo4jEdges(records []map[string]any) ([]Edge, error) {
	out := make([]Edge, 0, len(records))
	for _, rec := range records {
		e, err := decodeNeo4jEdge(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// decodeNeo4jProperties picks the "p:" prefixed node properties, all of
// them or only name when set, sorted by name.
func decodeNeo4jProperties(props map[string]any, name Identifier) ([]NamedProperty, error) {
	out := make([]NamedProperty, 0)
	for key, raw := range props {
		n, ok := strings.CutPrefix(key, neo4jPropertyPrefix)
		if !ok {
			continue
		}
		if !name.IsZero() && n != name.String() {
			continue
		}
		text, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%w: property %q is not JSON text", ErrInvalidData, n)
		}
		id, err := NewIdentifier(n)
		if err != nil {
			return nil, fmt.Errorf("%w: property name: %v", ErrInvalidData, err)
		}
		out = append(out, NamedProperty{Name: id, Value: json.RawMessage(text)})
	}
	slices.SortFunc(out, func(a, b NamedProperty) int { return compareTypes(a.Name, b.Name) })
	return out, nil
}

var _ Engine = (*Neo4jEngine)(nil)
