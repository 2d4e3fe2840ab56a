package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/charsheet/internal/presentation/graph"
	"github.com/aretw0/charsheet/internal/testutils"
	"github.com/aretw0/charsheet/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateMermaid(t *testing.T) {
	snap, err := domain.DecodeSnapshot([]byte(testutils.SheetJSON))
	require.NoError(t, err)

	out := graph.GenerateMermaid(snap, nil)

	tests := []struct {
		name     string
		contains string
	}{
		{"header", "graph TD\n"},
		{"user value shape", `strength[/"strength = 10"/]`},
		{"dice user value", `speed[/"speed = 2d4+2"/]`},
		{"dependency without value", `resilience[/"resilience"/]`},
		{"modified property", `defense["defense"]`},
		{"script edge", `speed -- "defense" --> defense`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, out, tt.contains)
		})
	}
	assert.NotContains(t, out, "classDef")
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	snap, err := domain.DecodeSnapshot([]byte(`{
		"userValues": {"max-hp": {"number": 3}},
		"activeFeatures": [{"name": "Gear", "description": "", "features": [{
			"name": "armor", "description": "", "baseType": "item",
			"modifiers": [{"property": "ac", "value": {"staticValue": {"number": 2}}}]
		}]}],
		"inactiveFeatures": []
	}`))
	require.NoError(t, err)

	out := graph.GenerateMermaid(snap, &graph.Overlay{Missing: []string{"ac", "ac"}, Changed: []string{"max-hp"}})
	assert.Contains(t, out, `max_hp[/"max-hp = 3"/]`)
	assert.Contains(t, out, `ac["ac <br/> 2"]`)
	assert.Contains(t, out, "class ac missing;")
	assert.Contains(t, out, "class max_hp changed;")
	assert.Equal(t, 1, strings.Count(out, "class ac missing;"))
}
