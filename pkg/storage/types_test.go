package storage

import (
	"encoding/json"
	"slices"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIdentifier(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{"simple", "task", true},
		{"mixed_case_digits", "Task42", true},
		{"dash_and_underscore", "has-many_items", true},
		{"max_length", strings.Repeat("a", MaxIdentifierLength), true},
		{"empty", "", false},
		{"too_long", strings.Repeat("a", MaxIdentifierLength+1), false},
		{"space", "has space", false},
		{"dot", "a.b", false},
		{"unicode", "tâche", false},
		{"nul", "a\x00b", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := NewIdentifier(tt.input)
			if !tt.valid {
				assert.ErrorIs(t, err, ErrInvalidIdentifier)
				assert.True(t, id.IsZero())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, id.String())
			assert.False(t, id.IsZero())
		})
	}
}

func TestMustIdentifier(t *testing.T) {
	assert.Equal(t, "knows", MustIdentifier("knows").String())
	assert.Panics(t, func() { MustIdentifier("not valid") })
}

func TestIdentifier_Equality(t *testing.T) {
	assert.Equal(t, MustIdentifier("a"), MustIdentifier("a"))
	assert.NotEqual(t, MustIdentifier("a"), MustIdentifier("b"))
	assert.True(t, Identifier{}.IsZero())
}

func TestEdgeDirection(t *testing.T) {
	assert.Equal(t, "outbound", Outbound.String())
	assert.Equal(t, "inbound", Inbound.String())
	assert.Equal(t, Inbound, Outbound.Reverse())
	assert.Equal(t, Outbound, Inbound.Reverse())
	assert.Contains(t, EdgeDirection(7).String(), "7")
}

func TestOutputKind(t *testing.T) {
	assert.Equal(t, KindVertexList, VertexList(nil).Kind())
	assert.Equal(t, KindPropertiedVertexList, PropertiedVertexList(nil).Kind())
	assert.Equal(t, KindEdgeList, EdgeList(nil).Kind())
	assert.Equal(t, KindCount, Count(0).Kind())
	assert.Equal(t, "propertied vertex list", KindPropertiedVertexList.String())
}

func TestCompareEdges(t *testing.T) {
	a := uuid.MustParse("00000000-0000-7000-8000-000000000001")
	b := uuid.MustParse("00000000-0000-7000-8000-000000000002")
	knows := MustIdentifier("knows")
	likes := MustIdentifier("likes")

	edges := []Edge{
		{OutboundID: b, Type: knows, InboundID: a},
		{OutboundID: a, Type: likes, InboundID: a},
		{OutboundID: a, Type: knows, InboundID: b},
		{OutboundID: a, Type: knows, InboundID: a},
	}
	slices.SortFunc(edges, compareEdges)

	assert.Equal(t, []Edge{
		{OutboundID: a, Type: knows, InboundID: a},
		{OutboundID: a, Type: knows, InboundID: b},
		{OutboundID: a, Type: likes, InboundID: a},
		{OutboundID: b, Type: knows, InboundID: a},
	}, edges)

	slices.SortFunc(edges, compareReversedEdges)
	assert.Equal(t, a, edges[0].InboundID)
	assert.Equal(t, b, edges[len(edges)-1].InboundID)
}

func TestValidJSON(t *testing.T) {
	for _, ok := range []string{`true`, `42`, `"x"`, `null`, `{"a":[1,2]}`} {
		assert.NoError(t, validJSON(json.RawMessage(ok)), ok)
	}
	for _, bad := range []string{``, `{`, `tru`, `"open`} {
		assert.ErrorIs(t, validJSON(json.RawMessage(bad)), ErrInvalidData, bad)
	}
}
