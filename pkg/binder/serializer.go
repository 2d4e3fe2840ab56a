package binder

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/charsheet/pkg/dice"
)

// Serializer converts between pipe values and element property text.
type Serializer interface {
	Serialize(v any) (string, error)
	Deserialize(text string) (any, error)
}

// Identity passes strings through. Nil renders empty, objects render as JSON.
var Identity Serializer = identity{}

// JSON encodes every value as JSON text.
var JSON Serializer = jsonSerializer{}

// Dice renders dice values in dice notation and parses edits back.
// Parsed values are returned in their generic JSON form. Empty text is nil.
var Dice Serializer = diceSerializer{}

type identity struct{}

func (identity) Serialize(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case map[string]any, []any:
		b, err := json.Marshal(t)
		return string(b), err
	default:
		return fmt.Sprint(t), nil
	}
}

func (identity) Deserialize(text string) (any, error) { return text, nil }

type jsonSerializer struct{}

func (jsonSerializer) Serialize(v any) (string, error) {
	b, err := json.Marshal(v)
	return string(b), err
}

func (jsonSerializer) Deserialize(text string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, err
	}
	return v, nil
}

type diceSerializer struct{}

func (diceSerializer) Serialize(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case *dice.Value:
		return dice.Render(t), nil
	case dice.Value:
		return dice.Render(&t), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	var dv dice.Value
	if err := json.Unmarshal(b, &dv); err != nil {
		return "", err
	}
	return dice.Render(&dv), nil
}

func (diceSerializer) Deserialize(text string) (any, error) {
	dv, err := dice.Parse(text)
	if err != nil || dv == nil {
		return nil, err
	}
	b, err := json.Marshal(dv)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, err
	}
	return v, nil
}
