// Package graph is graphkit's storage-agnostic access layer.
//
// It models vertices, edges and typed property values independently of any
// engine, and translates between that model and the primitives of a
// storage.Engine: vertex and edge creation, property writes, and query
// execution with its polymorphic output.
//
// Layers:
//   - Value and Property: the closed set of property values (Bool, Integer,
//     String) and name/value pairs
//   - Vertex and GeneralEdge: engine-independent graph elements
//   - Conversion: Value to and from the engine's native JSON encoding
//   - Query builder: composable, unexecuted query descriptions
//   - Output parser: narrows a QueryOutput to the expected shape
//   - Store: CRUD operations built from the layers above
//
// Example Usage:
//
//	engine := storage.NewMemoryEngine()
//	defer engine.Close()
//
//	store := graph.NewStore(engine, logger)
//
//	alice, _ := store.CreateVertexWithProperties("person", []graph.Property{
//		{Name: "name", Value: graph.String("Alice")},
//		{Name: "age", Value: graph.Integer(30)},
//	})
//	bob, _ := store.CreateVertex("person")
//	store.CreateEdge(alice, "knows", bob)
//
//	friends, _ := store.OutboundVertices(alice, "knows")
//	name, _ := store.GetStringProperty(alice, "name")
package graph

import (
	"fmt"
	"strconv"
)

// Kind identifies the variant of a Value.
type Kind int

const (
	KindBool Kind = iota
	KindInteger
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInteger:
		return "integer"
	case KindString:
		return "string"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Value is a property value: exactly one of Bool, Integer or String.
//
// The set is closed. There is no null, list or map value; such native shapes
// are rejected by FromNative. Values are comparable with ==.
type Value interface {
	Kind() Kind
	String() string
	isValue()
}

// Bool is a boolean property value.
type Bool bool

// Integer is an unsigned 64-bit property value.
type Integer uint64

// String is a text property value. Stored strings must be valid UTF-8.
type String string

func (Bool) Kind() Kind    { return KindBool }
func (Integer) Kind() Kind { return KindInteger }
func (String) Kind() Kind  { return KindString }

func (b Bool) String() string    { return strconv.FormatBool(bool(b)) }
func (i Integer) String() string { return strconv.FormatUint(uint64(i), 10) }
func (s String) String() string  { return string(s) }

func (Bool) isValue()    {}
func (Integer) isValue() {}
func (String) isValue()  {}

// Property is a named Value attached to a vertex.
type Property struct {
	Name  string
	Value Value
}

func (p Property) String() string {
	if p.Value == nil {
		return p.Name + "=<nil>"
	}
	return fmt.Sprintf("%s=%s", p.Name, p.Value)
}
