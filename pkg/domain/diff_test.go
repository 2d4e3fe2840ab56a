package domain

import (
	"testing"

	"github.com/aretw0/charsheet/pkg/dice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshotOf(t *testing.T, raw string) *Snapshot {
	t.Helper()
	s, err := DecodeSnapshot([]byte(raw))
	require.NoError(t, err)
	return s
}

func TestDiff(t *testing.T) {
	base := `{"userValues":{"strength":{"number":10},"speed":{"number":3}},"activeFeatures":[],"inactiveFeatures":[]}`

	tests := []struct {
		name     string
		old      string
		new      string
		wantDiff *UserValueDiff
	}{
		{
			name:     "No Changes",
			old:      base,
			new:      base,
			wantDiff: nil,
		},
		{
			name: "Modified and Added",
			old:  base,
			new:  `{"userValues":{"strength":{"number":12},"speed":{"number":3},"luck":{"number":1}},"activeFeatures":[],"inactiveFeatures":[]}`,
			wantDiff: &UserValueDiff{
				Changed: map[string]dice.Value{"strength": dice.Number(12), "luck": dice.Number(1)},
			},
		},
		{
			name: "Removed",
			old:  base,
			new:  `{"userValues":{"strength":{"number":10}},"activeFeatures":[],"inactiveFeatures":[]}`,
			wantDiff: &UserValueDiff{
				Removed: []string{"speed"},
			},
		},
		{
			name: "Features Changed",
			old:  base,
			new:  `{"userValues":{"strength":{"number":10},"speed":{"number":3}},"activeFeatures":[{"name":"Gambler","description":"","features":[]}],"inactiveFeatures":[]}`,
			wantDiff: &UserValueDiff{
				FeaturesChanged: true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(snapshotOf(t, tt.old), snapshotOf(t, tt.new))
			assert.Equal(t, tt.wantDiff, got)
		})
	}
}

func TestDiff_InitialLoad(t *testing.T) {
	s := snapshotOf(t, `{"userValues":{"a":{"number":1}},"activeFeatures":[],"inactiveFeatures":[]}`)
	d := Diff(nil, s)
	require.NotNil(t, d)
	assert.Equal(t, map[string]dice.Value{"a": dice.Number(1)}, d.Changed)
	assert.False(t, d.FeaturesChanged)
}

func TestDecodeSnapshot_KeepsOrder(t *testing.T) {
	s := snapshotOf(t, `{"userValues":{"zeta":{"number":1},"alpha":{"number":2},"mid":{"dice":{"dice":[],"bonus":1}}},"activeFeatures":[],"inactiveFeatures":[]}`)

	var names []string
	for _, nv := range s.UserValueList() {
		names = append(names, nv.Name)
	}
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, names)
}

func TestDecodeSnapshot_Null(t *testing.T) {
	_, err := DecodeSnapshot([]byte("null"))
	assert.ErrorIs(t, err, ErrSheetNotFound)
}

func TestDecodeChanges(t *testing.T) {
	one := map[string]any{
		"type":     "user-input",
		"property": "strength",
		"value":    map[string]any{"number": float64(12)},
	}

	changes, err := DecodeChanges(one)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, UserInput("strength", ptr(dice.Number(12))), changes[0])

	many := []any{
		one,
		map[string]any{"type": "feature-toggle", "property": "Gambler"},
		map[string]any{"type": "user-input", "property": "speed", "value": nil},
	}
	changes, err = DecodeChanges(many)
	require.NoError(t, err)
	require.Len(t, changes, 3)
	assert.Equal(t, "feature-toggle", changes[1].Type)
	assert.Nil(t, changes[2].Value)

	_, err = DecodeChanges(map[string]any{"type": "user-input", "bogus": 1})
	assert.Error(t, err)

	_, err = DecodeChanges(map[string]any{"type": "user-input", "value": map[string]any{}})
	assert.ErrorIs(t, err, dice.ErrAmbiguousValue)
}

func ptr[T any](v T) *T { return &v }
