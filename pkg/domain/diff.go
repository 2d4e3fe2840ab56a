package domain

import (
	"reflect"

	"github.com/aretw0/charsheet/pkg/dice"
)

// UserValueDiff represents the user-value changes between two snapshots.
// It is designed to be serialized to JSON for partial updates on the client.
type UserValueDiff struct {
	// Changed contains added or modified values.
	Changed map[string]dice.Value `json:"changed,omitempty"`
	// Removed lists names present before and absent now.
	Removed []string `json:"removed,omitempty"`
	// FeaturesChanged is set when either feature set list differs.
	FeaturesChanged bool `json:"features_changed,omitempty"`
}

// Diff calculates the difference between oldSnap and newSnap.
// If oldSnap is nil, it returns a diff representing the entire newSnap (initial load).
// It returns nil when nothing changed.
func Diff(oldSnap, newSnap *Snapshot) *UserValueDiff {
	if newSnap == nil {
		return nil
	}

	diff := &UserValueDiff{Changed: make(map[string]dice.Value)}

	for _, nv := range newSnap.UserValueList() {
		oldVal, exists := oldSnap.UserValue(nv.Name)
		if !exists || !reflect.DeepEqual(oldVal, nv.Value) {
			diff.Changed[nv.Name] = nv.Value
		}
	}
	for _, nv := range oldSnap.UserValueList() {
		if _, exists := newSnap.UserValue(nv.Name); !exists {
			diff.Removed = append(diff.Removed, nv.Name)
		}
	}

	if oldSnap == nil {
		diff.FeaturesChanged = len(newSnap.ActiveFeatures)+len(newSnap.InactiveFeatures) > 0
	} else {
		diff.FeaturesChanged = !reflect.DeepEqual(oldSnap.ActiveFeatures, newSnap.ActiveFeatures) ||
			!reflect.DeepEqual(oldSnap.InactiveFeatures, newSnap.InactiveFeatures)
	}

	if len(diff.Changed) == 0 {
		diff.Changed = nil
	}
	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *UserValueDiff) IsEmpty() bool {
	return d == nil || (len(d.Changed) == 0 && len(d.Removed) == 0 && !d.FeaturesChanged)
}
