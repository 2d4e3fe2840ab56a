package domain

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/aretw0/charsheet/pkg/dice"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// UserValues maps user value names to values, preserving the engine's key order.
type UserValues = orderedmap.OrderedMap[string, dice.Value]

// NewUserValues creates an empty ordered user-value mapping.
func NewUserValues() *UserValues {
	return orderedmap.New[string, dice.Value]()
}

// Snapshot is the full state of a character sheet as produced by the engine.
// A Snapshot is decoded fresh on every read and must not be mutated.
type Snapshot struct {
	// UserValues are values explicitly set by the user of the sheet.
	UserValues       *UserValues  `json:"userValues"`
	// ActiveFeatures apply their modifiers to the character.
	ActiveFeatures   []FeatureSet `json:"activeFeatures"`
	// InactiveFeatures are kept for display only.
	InactiveFeatures []FeatureSet `json:"inactiveFeatures"`
}

// FeatureSet bundles features together (a class, a race, an item...).
type FeatureSet struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Source      string    `json:"source,omitempty"`
	Features    []Feature `json:"features"`
}

// Feature is a single rule contribution of a feature set.
type Feature struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	BaseType    string       `json:"baseType"`
	Definitions []Definition `json:"definitions,omitempty"`
	Modifiers   []Modifier   `json:"modifiers"`
}

// Definition declares a property that the user is expected to provide.
type Definition struct {
	Name     string       `json:"name"`
	Selector Identifier   `json:"selector"`
	Limiters []Identifier `json:"limiters,omitempty"`
}

// Identifier is a named function reference with string arguments.
type Identifier struct {
	Identifier string   `json:"identifier"`
	Arguments  []string `json:"arguments"`
}

// Modifier changes one property, either statically or through a script.
type Modifier struct {
	Property string          `json:"property"`
	Value    CalculatedValue `json:"value"`
}

// CalculatedValue is either a static dice value or a script.
type CalculatedValue struct {
	StaticValue *dice.Value `json:"staticValue,omitempty"`
	Script      *Script     `json:"script,omitempty"`
}

// Script is an engine-evaluated expression and the properties it reads.
type Script struct {
	Script       string   `json:"script"`
	Dependencies []string `json:"dependencies"`
}

// NamedValue is one entry of the ordered user-value projection.
type NamedValue struct {
	Name  string     `json:"name"`
	Value dice.Value `json:"value"`
}

// DecodeSnapshot parses engine JSON into a Snapshot, keeping user-value order.
// A JSON null means the engine has no sheet for the requested key.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, ErrSheetNotFound
	}
	s := &Snapshot{UserValues: NewUserValues()}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if s.UserValues == nil {
		s.UserValues = NewUserValues()
	}
	return s, nil
}

// UserValue returns the value stored under name.
func (s *Snapshot) UserValue(name string) (dice.Value, bool) {
	if s == nil || s.UserValues == nil {
		return dice.Value{}, false
	}
	return s.UserValues.Get(name)
}

// UserValueList projects the user values as an ordered {name, value} sequence.
func (s *Snapshot) UserValueList() []NamedValue {
	if s == nil || s.UserValues == nil {
		return []NamedValue{}
	}
	list := make([]NamedValue, 0, s.UserValues.Len())
	for pair := s.UserValues.Oldest(); pair != nil; pair = pair.Next() {
		list = append(list, NamedValue{Name: pair.Key, Value: pair.Value})
	}
	return list
}

// FeatureSets returns active sets followed by inactive ones, each flagged.
func (s *Snapshot) FeatureSets() []FlaggedFeatureSet {
	if s == nil {
		return nil
	}
	sets := make([]FlaggedFeatureSet, 0, len(s.ActiveFeatures)+len(s.InactiveFeatures))
	for _, fs := range s.ActiveFeatures {
		sets = append(sets, FlaggedFeatureSet{Active: true, FeatureSet: fs})
	}
	for _, fs := range s.InactiveFeatures {
		sets = append(sets, FlaggedFeatureSet{Active: false, FeatureSet: fs})
	}
	return sets
}

// FlaggedFeatureSet pairs a feature set with its activation state.
type FlaggedFeatureSet struct {
	Active bool
	FeatureSet
}
