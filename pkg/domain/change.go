package domain

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/charsheet/pkg/dice"
	"github.com/mitchellh/mapstructure"
)

// Change is a request to modify a character sheet.
// Only ChangeUserInput is understood by the default renderer registry.
type Change struct {
	Type     string      `json:"type"`
	Property string      `json:"property"`
	Value    *dice.Value `json:"value"`
}

// UserInput builds a ChangeUserInput change. A nil value unsets the property.
func UserInput(property string, value *dice.Value) Change {
	return Change{Type: ChangeUserInput, Property: property, Value: value}
}

// rawChange is the loosely typed wire form of a Change, as found in decoded
// JSON bodies or tool arguments.
type rawChange struct {
	Type     string `mapstructure:"type"`
	Property string `mapstructure:"property"`
	Value    any    `mapstructure:"value"`
}

// DecodeChanges accepts one change or an ordered sequence of changes in their
// generic form (map[string]any or []any of maps) and returns typed changes in
// the same order.
func DecodeChanges(input any) ([]Change, error) {
	var raws []rawChange
	switch v := input.(type) {
	case nil:
		return nil, nil
	case []any, []map[string]any:
		if err := decodeRaw(v, &raws); err != nil {
			return nil, err
		}
	default:
		var one rawChange
		if err := decodeRaw(v, &one); err != nil {
			return nil, err
		}
		raws = []rawChange{one}
	}

	changes := make([]Change, 0, len(raws))
	for i, raw := range raws {
		c := Change{Type: raw.Type, Property: raw.Property}
		if raw.Value != nil {
			// Round-trip through JSON so the tagged-union validation of dice.Value applies.
			data, err := json.Marshal(raw.Value)
			if err != nil {
				return nil, fmt.Errorf("change %d: failed to encode value: %w", i, err)
			}
			var value dice.Value
			if err := json.Unmarshal(data, &value); err != nil {
				return nil, fmt.Errorf("change %d: invalid value: %w", i, err)
			}
			c.Value = &value
		}
		changes = append(changes, c)
	}
	return changes, nil
}

func decodeRaw(input any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      out,
		TagName:     "mapstructure",
		ErrorUnused: true,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(input); err != nil {
		return fmt.Errorf("failed to decode changes: %w", err)
	}
	return nil
}
