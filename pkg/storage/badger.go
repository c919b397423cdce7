package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// Key prefixes for BadgerDB storage organization
// Using single-byte prefixes for efficiency
const (
	prefixVertex      = byte(0x01) // vertex:id -> type
	prefixEdge        = byte(0x02) // edge:outID:type:0x00:inID -> empty
	prefixReverseEdge = byte(0x03) // redge:inID:type:0x00:outID -> empty
	prefixProperty    = byte(0x04) // prop:id:name -> JSON value
	prefixTypeIndex   = byte(0x05) // type:type:0x00:id -> empty
)

const idLen = len(uuid.UUID{})

// BadgerEngine provides persistent storage using BadgerDB.
//
// Features:
//   - ACID transactions for all operations
//   - Persistent storage to disk, or in-memory mode for tests
//   - Secondary indexes for type scans and edge traversal
//   - Thread-safe concurrent access
//
// Key Structure:
//   - Vertices: 0x01 + id -> type
//   - Edges: 0x02 + outID + type + 0x00 + inID -> empty
//   - Reverse edges: 0x03 + inID + type + 0x00 + outID -> empty
//   - Properties: 0x04 + id + name -> JSON value
//   - Type index: 0x05 + type + 0x00 + id -> empty
//
// Edge keys sort by (outbound, type, inbound), so the edge table doubles as
// the outgoing index.
//
// Example:
//
//	engine, err := storage.NewBadgerEngine("/path/to/data")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer engine.Close()
//
//	id, _ := engine.CreateVertexFromType(storage.MustIdentifier("task"))
type BadgerEngine struct {
	db     *badger.DB
	newID  func() (uuid.UUID, error)
	mu     sync.RWMutex // Protects closed
	closed bool
}

// BadgerOptions configures the BadgerDB engine.
type BadgerOptions struct {
	// DataDir is the directory for storing data files.
	// Required unless InMemory is set.
	DataDir string

	// InMemory runs BadgerDB in memory-only mode.
	// Useful for testing. Data is not persisted.
	InMemory bool

	// SyncWrites forces fsync after each write.
	// Slower but more durable.
	SyncWrites bool

	// Logger for BadgerDB internal logging.
	// If nil, BadgerDB logging is disabled.
	Logger badger.Logger

	// LowMemory enables memory-constrained settings.
	// Reduces MemTableSize and other buffers to use less RAM.
	LowMemory bool
}

// NewBadgerEngine creates a persistent engine in dataDir with default
// settings. The directory is created if it doesn't exist.
func NewBadgerEngine(dataDir string) (*BadgerEngine, error) {
	return NewBadgerEngineWithOptions(BadgerOptions{
		DataDir: dataDir,
	})
}

// NewBadgerEngineWithOptions creates a BadgerEngine with custom configuration.
//
// Configuration Trade-offs:
//   - SyncWrites=true: Slower writes but maximum safety
//   - LowMemory=true: Less RAM but slightly slower
//   - InMemory=true: Fastest but data lost on shutdown
func NewBadgerEngineWithOptions(opts BadgerOptions) (*BadgerEngine, error) {
	var badgerOpts badger.Options
	if opts.InMemory {
		// Badger refuses a directory in disk-less mode.
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if opts.DataDir == "" {
			return nil, fmt.Errorf("%w: badger data directory is required", ErrInvalidData)
		}
		badgerOpts = badger.DefaultOptions(opts.DataDir)
	}

	if opts.SyncWrites {
		badgerOpts = badgerOpts.WithSyncWrites(true)
	}

	// A nil logger silences badger.
	badgerOpts = badgerOpts.WithLogger(opts.Logger)

	if opts.LowMemory {
		badgerOpts = badgerOpts.
			WithMemTableSize(16 << 20).     // 16MB instead of 64MB
			WithValueLogFileSize(64 << 20). // 64MB instead of 1GB
			WithNumMemtables(2).            // 2 instead of 5
			WithNumLevelZeroTables(2).      // 2 instead of 5
			WithNumLevelZeroTablesStall(4). // 4 instead of 15
			WithBlockCacheSize(32 << 20).   // 32MB block cache
			WithIndexCacheSize(16 << 20)    // 16MB index cache
	}

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}

	return &BadgerEngine{
		db:    db,
		newID: uuid.NewV7,
	}, nil
}

// NewBadgerEngineInMemory creates an in-memory BadgerDB for testing.
func NewBadgerEngineInMemory() (*BadgerEngine, error) {
	return NewBadgerEngineWithOptions(BadgerOptions{
		InMemory: true,
	})
}

// ============================================================================
// Key encoding helpers
// ============================================================================

func vertexKey(id uuid.UUID) []byte {
	key := make([]byte, 0, 1+idLen)
	key = append(key, prefixVertex)
	return append(key, id[:]...)
}

func vertexRangeKey(start *uuid.UUID) []byte {
	if start == nil {
		return []byte{prefixVertex}
	}
	return vertexKey(*start)
}

// edgeKey creates the edge key for e.
// Format: prefix + outID + type + 0x00 + inID
func edgeKey(e Edge) []byte {
	return tripleKey(prefixEdge, e.OutboundID, e.Type, e.InboundID)
}

// reverseEdgeKey creates the inbound index key for e.
// Format: prefix + inID + type + 0x00 + outID
func reverseEdgeKey(e Edge) []byte {
	return tripleKey(prefixReverseEdge, e.InboundID, e.Type, e.OutboundID)
}

func tripleKey(prefix byte, first uuid.UUID, t Identifier, second uuid.UUID) []byte {
	key := make([]byte, 0, 1+idLen+len(t.name)+1+idLen)
	key = append(key, prefix)
	key = append(key, first[:]...)
	key = append(key, t.name...)
	key = append(key, 0x00)
	return append(key, second[:]...)
}

// adjacencyPrefix returns the scan prefix for edges around id, narrowed to t
// when set.
func adjacencyPrefix(prefix byte, id uuid.UUID, t Identifier) []byte {
	key := make([]byte, 0, 1+idLen+len(t.name)+1)
	key = append(key, prefix)
	key = append(key, id[:]...)
	if !t.IsZero() {
		key = append(key, t.name...)
		key = append(key, 0x00)
	}
	return key
}

// decodeTripleKey splits an edge or reverse edge key into its parts.
func decodeTripleKey(key []byte) (first uuid.UUID, t Identifier, second uuid.UUID, err error) {
	// prefix + id + at least one type byte + separator + id
	if len(key) < 1+idLen+1+1+idLen {
		return first, t, second, fmt.Errorf("%w: edge key too short", ErrInvalidData)
	}
	sep := len(key) - idLen - 1
	if key[sep] != 0x00 {
		return first, t, second, fmt.Errorf("%w: edge key missing separator", ErrInvalidData)
	}
	copy(first[:], key[1:1+idLen])
	t = Identifier{name: string(key[1+idLen : sep])}
	copy(second[:], key[sep+1:])
	return first, t, second, nil
}

func decodeEdgeKey(key []byte) (Edge, error) {
	out, t, in, err := decodeTripleKey(key)
	return Edge{OutboundID: out, Type: t, InboundID: in}, err
}

func decodeReverseEdgeKey(key []byte) (Edge, error) {
	in, t, out, err := decodeTripleKey(key)
	return Edge{OutboundID: out, Type: t, InboundID: in}, err
}

func propertyKey(id uuid.UUID, name Identifier) []byte {
	key := propertyPrefix(id)
	return append(key, name.name...)
}

func propertyPrefix(id uuid.UUID) []byte {
	key := make([]byte, 0, 1+idLen+MaxIdentifierLength)
	key = append(key, prefixProperty)
	return append(key, id[:]...)
}

// typeIndexKey creates a key for the type index.
// Format: prefix + type + 0x00 + id
func typeIndexKey(t Identifier, id uuid.UUID) []byte {
	return append(typeIndexPrefix(t), id[:]...)
}

func typeIndexPrefix(t Identifier) []byte {
	key := make([]byte, 0, 1+len(t.name)+1+idLen)
	key = append(key, prefixTypeIndex)
	key = append(key, t.name...)
	return append(key, 0x00)
}

// ============================================================================
// Engine operations
// ============================================================================

func (b *BadgerEngine) checkOpen() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrStorageClosed
	}
	return nil
}

// CreateVertexFromType mints a new id and stores a vertex of type t.
func (b *BadgerEngine) CreateVertexFromType(t Identifier) (uuid.UUID, error) {
	if t.IsZero() {
		return uuid.Nil, ErrInvalidIdentifier
	}
	if err := b.checkOpen(); err != nil {
		return uuid.Nil, err
	}

	id, err := b.newID()
	if err != nil {
		return uuid.Nil, err
	}

	err = b.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(vertexKey(id), []byte(t.name)); err != nil {
			return err
		}
		return txn.Set(typeIndexKey(t, id), []byte{})
	})
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// CreateEdge stores e along with its inbound index entry. Returns false,
// without error, when either endpoint does not exist.
func (b *BadgerEngine) CreateEdge(e Edge) (bool, error) {
	if e.Type.IsZero() {
		return false, ErrInvalidIdentifier
	}
	if err := b.checkOpen(); err != nil {
		return false, err
	}

	created := false
	err := b.db.Update(func(txn *badger.Txn) error {
		for _, id := range []uuid.UUID{e.OutboundID, e.InboundID} {
			_, err := txn.Get(vertexKey(id))
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
		}

		if err := txn.Set(edgeKey(e), []byte{}); err != nil {
			return err
		}
		if err := txn.Set(reverseEdgeKey(e), []byte{}); err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

// SetProperties evaluates q and writes name=value on every matched vertex in
// the same transaction.
func (b *BadgerEngine) SetProperties(q Query, name Identifier, value json.RawMessage) error {
	if name.IsZero() {
		return ErrInvalidIdentifier
	}
	if err := validJSON(value); err != nil {
		return err
	}
	if err := b.checkOpen(); err != nil {
		return err
	}

	return b.db.Update(func(txn *badger.Txn) error {
		vs, err := matchVertices(badgerView{txn}, q)
		if err != nil {
			return err
		}
		for _, v := range vs {
			if err := txn.Set(propertyKey(v.ID, name), value); err != nil {
				return err
			}
		}
		return nil
	})
}

// Execute evaluates q in a read-only transaction.
func (b *BadgerEngine) Execute(q Query) ([]QueryOutput, error) {
	if err := b.checkOpen(); err != nil {
		return nil, err
	}

	var out []QueryOutput
	err := b.db.View(func(txn *badger.Txn) error {
		var err error
		out, err = execute(badgerView{txn}, q)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Close closes the BadgerDB database.
func (b *BadgerEngine) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}

	b.closed = true
	return b.db.Close()
}

// Sync forces a sync of all data to disk.
func (b *BadgerEngine) Sync() error {
	if err := b.checkOpen(); err != nil {
		return err
	}
	return b.db.Sync()
}

// RunGC runs value log garbage collection once.
// Returns nil when there was nothing to collect.
func (b *BadgerEngine) RunGC() error {
	if err := b.checkOpen(); err != nil {
		return err
	}
	err := b.db.RunValueLogGC(0.5)
	if errors.Is(err, badger.ErrNoRewrite) {
		return nil
	}
	return err
}

// ============================================================================
// Reads
// ============================================================================

// badgerView implements reader over a Badger transaction.
type badgerView struct {
	txn *badger.Txn
}

func (v badgerView) keyOnlyIterator() *badger.Iterator {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	return v.txn.NewIterator(opts)
}

func (v badgerView) vertices(ids []uuid.UUID) ([]Vertex, error) {
	out := make([]Vertex, 0, len(ids))
	for _, id := range ids {
		item, err := v.txn.Get(vertexKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		t, err := item.ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		out = append(out, Vertex{ID: id, Type: Identifier{name: string(t)}})
	}
	return out, nil
}

func (v badgerView) vertexRange(start *uuid.UUID, t Identifier, limit uint32) ([]Vertex, error) {
	if !t.IsZero() {
		return v.typedVertexRange(start, t, limit)
	}

	out := make([]Vertex, 0)
	opts := badger.DefaultIteratorOptions
	it := v.txn.NewIterator(opts)
	defer it.Close()

	prefix := []byte{prefixVertex}
	for it.Seek(vertexRangeKey(start)); it.ValidForPrefix(prefix); it.Next() {
		if limit > 0 && len(out) >= int(limit) {
			break
		}
		item := it.Item()
		key := item.Key()
		if len(key) != 1+idLen {
			continue
		}
		var id uuid.UUID
		copy(id[:], key[1:])
		vt, err := item.ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		out = append(out, Vertex{ID: id, Type: Identifier{name: string(vt)}})
	}
	return out, nil
}

func (v badgerView) typedVertexRange(start *uuid.UUID, t Identifier, limit uint32) ([]Vertex, error) {
	out := make([]Vertex, 0)
	it := v.keyOnlyIterator()
	defer it.Close()

	prefix := typeIndexPrefix(t)
	seek := prefix
	if start != nil {
		seek = typeIndexKey(t, *start)
	}
	for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
		if limit > 0 && len(out) >= int(limit) {
			break
		}
		key := it.Item().Key()
		if len(key) != len(prefix)+idLen {
			continue
		}
		var id uuid.UUID
		copy(id[:], key[len(prefix):])
		out = append(out, Vertex{ID: id, Type: t})
	}
	return out, nil
}

func (v badgerView) edges(es []Edge) ([]Edge, error) {
	out := make([]Edge, 0, len(es))
	for _, e := range es {
		if e.Type.IsZero() {
			continue
		}
		_, err := v.txn.Get(edgeKey(e))
		if errors.Is(err, badger.ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (v badgerView) allEdges() ([]Edge, error) {
	return v.scanEdges([]byte{prefixEdge}, decodeEdgeKey, 0)
}

func (v badgerView) adjacentEdges(id uuid.UUID, dir EdgeDirection, t Identifier, limit uint32) ([]Edge, error) {
	if dir == Inbound {
		return v.scanEdges(adjacencyPrefix(prefixReverseEdge, id, t), decodeReverseEdgeKey, limit)
	}
	return v.scanEdges(adjacencyPrefix(prefixEdge, id, t), decodeEdgeKey, limit)
}

func (v badgerView) scanEdges(prefix []byte, decode func([]byte) (Edge, error), limit uint32) ([]Edge, error) {
	out := make([]Edge, 0)
	it := v.keyOnlyIterator()
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		if limit > 0 && len(out) >= int(limit) {
			break
		}
		e, err := decode(it.Item().KeyCopy(nil))
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (v badgerView) vertexProperties(id uuid.UUID, name Identifier) ([]NamedProperty, error) {
	if !name.IsZero() {
		item, err := v.txn.Get(propertyKey(id, name))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		value, err := item.ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		return []NamedProperty{{Name: name, Value: value}}, nil
	}

	out := make([]NamedProperty, 0)
	it := v.txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	prefix := propertyPrefix(id)
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		key := item.Key()
		value, err := item.ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		out = append(out, NamedProperty{
			Name:  Identifier{name: string(key[len(prefix):])},
			Value: value,
		})
	}
	return out, nil
}

var _ Engine = (*BadgerEngine)(nil)
