package graph

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/goleak"

	"github.com/orneryd/graphkit/pkg/storage"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// scriptedEngine returns fixed Execute results so parser edge cases can be
// exercised without a real engine.
type scriptedEngine struct {
	outputs []storage.QueryOutput
	err     error
	queries []storage.Query
}

func (e *scriptedEngine) CreateVertexFromType(storage.Identifier) (uuid.UUID, error) {
	return uuid.New(), e.err
}

func (e *scriptedEngine) CreateEdge(storage.Edge) (bool, error) {
	return e.err == nil, e.err
}

func (e *scriptedEngine) SetProperties(storage.Query, storage.Identifier, json.RawMessage) error {
	return e.err
}

func (e *scriptedEngine) Execute(q storage.Query) ([]storage.QueryOutput, error) {
	e.queries = append(e.queries, q)
	return e.outputs, e.err
}

func (e *scriptedEngine) Close() error { return nil }

var _ storage.Engine = (*scriptedEngine)(nil)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	engine := storage.NewMemoryEngine()
	t.Cleanup(func() { _ = engine.Close() })
	return NewStore(engine, nil)
}
