package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/orneryd/graphkit/pkg/graph"
)

func newVertexCmd(flags *globalFlags) *cobra.Command {
	vertexCmd := &cobra.Command{
		Use:   "vertex",
		Short: "Vertex operations",
	}

	vertexCmd.AddCommand(&cobra.Command{
		Use:   "create TYPE [NAME=VALUE ...]",
		Short: "Create a vertex, optionally with properties",
		Args:  cobra.MinimumNArgs(1),
		RunE:  withSession(flags, runVertexCreate),
	})
	vertexCmd.AddCommand(&cobra.Command{
		Use:   "get ID",
		Short: "Show a vertex and its properties",
		Args:  cobra.ExactArgs(1),
		RunE:  withSession(flags, runVertexGet),
	})

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List vertices, optionally of one type",
		Args:  cobra.NoArgs,
	}
	listCmd.Flags().String("type", "", "Only list vertices of this type")
	listCmd.RunE = withSession(flags, func(s *session, args []string) error {
		label, _ := listCmd.Flags().GetString("type")
		return runVertexList(s, label)
	})
	vertexCmd.AddCommand(listCmd)

	vertexCmd.AddCommand(&cobra.Command{
		Use:   "count [TYPE]",
		Short: "Count vertices, optionally of one type",
		Args:  cobra.MaximumNArgs(1),
		RunE:  withSession(flags, runVertexCount),
	})
	vertexCmd.AddCommand(&cobra.Command{
		Use:   "set ID NAME VALUE",
		Short: "Set a property on a vertex",
		Args:  cobra.ExactArgs(3),
		RunE:  withSession(flags, runVertexSet),
	})
	vertexCmd.AddCommand(&cobra.Command{
		Use:   "props ID",
		Short: "List a vertex's properties",
		Args:  cobra.ExactArgs(1),
		RunE:  withSession(flags, runVertexProps),
	})
	vertexCmd.AddCommand(&cobra.Command{
		Use:   "prop ID NAME",
		Short: "Print one property value as JSON",
		Args:  cobra.ExactArgs(2),
		RunE:  withSession(flags, runVertexProp),
	})
	return vertexCmd
}

func newEdgeCmd(flags *globalFlags) *cobra.Command {
	edgeCmd := &cobra.Command{
		Use:   "edge",
		Short: "Edge operations",
	}
	edgeCmd.AddCommand(&cobra.Command{
		Use:   "create OUTBOUND TYPE INBOUND",
		Short: "Create a directed edge",
		Args:  cobra.ExactArgs(3),
		RunE:  withSession(flags, runEdgeCreate),
	})
	edgeCmd.AddCommand(&cobra.Command{
		Use:   "out ID [TYPE ...]",
		Short: "List edges leaving a vertex",
		Args:  cobra.MinimumNArgs(1),
		RunE: withSession(flags, func(s *session, args []string) error {
			return runEdges(s, args, s.store.OutboundEdges)
		}),
	})
	edgeCmd.AddCommand(&cobra.Command{
		Use:   "in ID [TYPE ...]",
		Short: "List edges arriving at a vertex",
		Args:  cobra.MinimumNArgs(1),
		RunE: withSession(flags, func(s *session, args []string) error {
			return runEdges(s, args, s.store.InboundEdges)
		}),
	})
	return edgeCmd
}

func newNeighborsCmd(flags *globalFlags) *cobra.Command {
	neighborsCmd := &cobra.Command{
		Use:   "neighbors",
		Short: "Vertices adjacent to a vertex",
	}
	neighborsCmd.AddCommand(&cobra.Command{
		Use:   "out ID [TYPE ...]",
		Short: "Vertices this vertex has edges to",
		Args:  cobra.MinimumNArgs(1),
		RunE: withSession(flags, func(s *session, args []string) error {
			return runNeighbors(s, args, s.store.OutboundVertices)
		}),
	})
	neighborsCmd.AddCommand(&cobra.Command{
		Use:   "in ID [TYPE ...]",
		Short: "Vertices with edges to this vertex",
		Args:  cobra.MinimumNArgs(1),
		RunE: withSession(flags, func(s *session, args []string) error {
			return runNeighbors(s, args, s.store.InboundVertices)
		}),
	})
	return neighborsCmd
}

// ============================================================================
// Vertex commands
// ============================================================================

func runVertexCreate(s *session, args []string) error {
	props := make([]graph.Property, 0, len(args)-1)
	for _, arg := range args[1:] {
		name, text, ok := strings.Cut(arg, "=")
		if !ok {
			return fmt.Errorf("property %q: expected NAME=VALUE", arg)
		}
		value, err := parseValue(text)
		if err != nil {
			return fmt.Errorf("property %q: %w", name, err)
		}
		props = append(props, graph.Property{Name: name, Value: value})
	}

	id, err := s.store.CreateVertexWithProperties(args[0], props)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, id)
	return nil
}

func runVertexGet(s *session, args []string) error {
	id, err := graph.ParseVertexID(args[0])
	if err != nil {
		return err
	}

	v, err := s.store.GetVertexWithProperties(id)
	if errors.Is(err, graph.ErrEmptyOutput) {
		return fmt.Errorf("vertex %s not found", id)
	}
	if err != nil {
		return err
	}
	return s.printVertices([]graph.Vertex{v}, true)
}

func runVertexList(s *session, label string) error {
	var (
		vs  []graph.Vertex
		err error
	)
	if label == "" {
		vs, err = s.store.AllVertices()
	} else {
		vs, err = s.store.VerticesOfType(label)
	}
	if errors.Is(err, graph.ErrEmptyOutput) {
		return s.printVertices(nil, false)
	}
	if err != nil {
		return err
	}
	return s.printVertices(vs, false)
}

func runVertexCount(s *session, args []string) error {
	n, err := s.store.CountVertices(args...)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, n)
	return nil
}

func runVertexSet(s *session, args []string) error {
	id, err := graph.ParseVertexID(args[0])
	if err != nil {
		return err
	}
	value, err := parseValue(args[2])
	if err != nil {
		return err
	}
	return s.store.SetVertexProperty(id, args[1], value)
}

func runVertexProps(s *session, args []string) error {
	id, err := graph.ParseVertexID(args[0])
	if err != nil {
		return err
	}

	props, err := s.store.GetProperties(id)
	if errors.Is(err, graph.ErrNoPropertiesDefined) {
		props = nil
	} else if err != nil {
		return err
	}

	if s.asJSON {
		return s.writeJSON(propertyMap(props))
	}
	for _, p := range props {
		fmt.Fprintf(s.out, "%s=%s\n", p.Name, graph.ToNative(p.Value))
	}
	return nil
}

func runVertexProp(s *session, args []string) error {
	id, err := graph.ParseVertexID(args[0])
	if err != nil {
		return err
	}
	v, err := s.store.GetPropertyValue(id, args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%s\n", graph.ToNative(v))
	return nil
}

// ============================================================================
// Edge commands
// ============================================================================

func runEdgeCreate(s *session, args []string) error {
	outbound, err := graph.ParseVertexID(args[0])
	if err != nil {
		return err
	}
	inbound, err := graph.ParseVertexID(args[2])
	if err != nil {
		return err
	}

	created, err := s.store.CreateEdge(outbound, args[1], inbound)
	if err != nil {
		return err
	}
	if !created {
		return fmt.Errorf("edge not created: both %s and %s must exist", outbound, inbound)
	}
	return s.printEdges([]graph.GeneralEdge{{OutboundID: outbound, Type: args[1], InboundID: inbound}})
}

func runEdges(s *session, args []string, list func(id uuid.UUID, labels ...string) ([]graph.GeneralEdge, error)) error {
	id, err := graph.ParseVertexID(args[0])
	if err != nil {
		return err
	}

	edges, err := list(id, args[1:]...)
	if errors.Is(err, graph.ErrNoOutgoingEdges) || errors.Is(err, graph.ErrNoIncomingEdges) {
		edges = nil
	} else if err != nil {
		return err
	}
	return s.printEdges(edges)
}

func runNeighbors(s *session, args []string, list func(id uuid.UUID, labels ...string) ([]graph.Vertex, error)) error {
	id, err := graph.ParseVertexID(args[0])
	if err != nil {
		return err
	}

	vs, err := list(id, args[1:]...)
	if errors.Is(err, graph.ErrNoOutgoingEdges) || errors.Is(err, graph.ErrNoIncomingEdges) {
		vs = nil
	} else if err != nil {
		return err
	}
	return s.printVertices(vs, false)
}

// ============================================================================
// Values and output
// ============================================================================

// parseValue reads a command-line property value as a native JSON literal.
func parseValue(text string) (graph.Value, error) {
	return graph.FromNative(json.RawMessage(text))
}

type vertexView struct {
	ID         string                     `json:"id"`
	Type       string                     `json:"type"`
	Properties map[string]json.RawMessage `json:"properties,omitempty"`
}

type edgeView struct {
	Outbound string `json:"outbound"`
	Type     string `json:"type"`
	Inbound  string `json:"inbound"`
}

func propertyMap(props []graph.Property) map[string]json.RawMessage {
	m := make(map[string]json.RawMessage, len(props))
	for _, p := range props {
		if _, dup := m[p.Name]; !dup {
			m[p.Name] = graph.ToNative(p.Value)
		}
	}
	return m
}

func (s *session) writeJSON(v any) error {
	enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(s.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (s *session) printVertices(vs []graph.Vertex, withProps bool) error {
	if s.asJSON {
		views := make([]vertexView, 0, len(vs))
		for _, v := range vs {
			view := vertexView{ID: v.ID.String(), Type: v.Type}
			if withProps && len(v.Properties) > 0 {
				view.Properties = propertyMap(v.Properties)
			}
			views = append(views, view)
		}
		return s.writeJSON(views)
	}

	for _, v := range vs {
		fmt.Fprintf(s.out, "%s\t%s\n", v.ID, v.Type)
		if withProps {
			for _, p := range v.Properties {
				fmt.Fprintf(s.out, "\t%s=%s\n", p.Name, graph.ToNative(p.Value))
			}
		}
	}
	return nil
}

func (s *session) printEdges(edges []graph.GeneralEdge) error {
	if s.asJSON {
		views := make([]edgeView, 0, len(edges))
		for _, e := range edges {
			views = append(views, edgeView{Outbound: e.OutboundID.String(), Type: e.Type, Inbound: e.InboundID.String()})
		}
		return s.writeJSON(views)
	}

	for _, e := range edges {
		fmt.Fprintf(s.out, "%s -[%s]-> %s\n", e.OutboundID, e.Type, e.InboundID)
	}
	return nil
}
