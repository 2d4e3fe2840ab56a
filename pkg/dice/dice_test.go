package dice

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_NumberRoundTrip(t *testing.T) {
	for _, n := range []int64{0, 1, -1, 42, -9000, 1 << 40} {
		text := Render(ptr(Number(n)))
		v, err := Parse(text)
		require.NoError(t, err, text)
		require.NotNil(t, v)
		assert.True(t, v.IsNumber())
		assert.Equal(t, n, *v.Number)
	}
}

func TestParse_DiceExpression(t *testing.T) {
	v, err := Parse("2d4+2d6+3")
	require.NoError(t, err)
	require.NotNil(t, v)
	require.NotNil(t, v.Dice)
	assert.Nil(t, v.Number)
	assert.Equal(t, []Die{
		{Amount: 2, Sides: 4, Modifiers: []string{}},
		{Amount: 2, Sides: 6, Modifiers: []string{}},
	}, v.Dice.Dice)
	assert.Equal(t, 3, v.Dice.Bonus)
}

func TestParse_Cases(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Expression
	}{
		{"spaces are ignored", " 1d20 + 5 ", Expression{Dice: []Die{{1, 20, []string{}}}, Bonus: 5}},
		{"bonuses accumulate", "1d8+2-3+4", Expression{Dice: []Die{{1, 8, []string{}}}, Bonus: 3}},
		{"negative bonus", "3d6-2", Expression{Dice: []Die{{3, 6, []string{}}}, Bonus: -2}},
		{"leading sign belongs to first term", "-1d4+1", Expression{Dice: []Die{{-1, 4, []string{}}}, Bonus: 1}},
		{"negative amount", "1d4-2d6", Expression{Dice: []Die{{1, 4, []string{}}, {-2, 6, []string{}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Parse(tt.input)
			require.NoError(t, err)
			require.NotNil(t, v.Dice)
			assert.Equal(t, tt.want, *v.Dice)
		})
	}
}

func TestParse_EmptyIsUnset(t *testing.T) {
	for _, input := range []string{"", "   ", "\t\n"} {
		v, err := Parse(input)
		assert.NoError(t, err)
		assert.Nil(t, v)
	}
}

func TestParse_Malformed(t *testing.T) {
	for _, input := range []string{"+", "-", "1++2", "2d4+", "2d", "d6", "2d-6", "abc", "1d6+x"} {
		t.Run(input, func(t *testing.T) {
			v, err := Parse(input)
			assert.Nil(t, v)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformed)

			var me *MalformedError
			require.True(t, errors.As(err, &me))
			assert.NotEmpty(t, me.Text)
		})
	}
}

func TestParse_MalformedCarriesResidualText(t *testing.T) {
	_, err := Parse("1d6++2")
	var me *MalformedError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, "++2", me.Text)
	assert.Equal(t, []Die{{1, 6, []string{}}}, me.Partial.Dice)
}

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		expr Expression
		want string
	}{
		{"single die with bonus", Expression{Dice: []Die{{2, 4, nil}}, Bonus: 2}, "2d4+2"},
		{"negative bonus", Expression{Dice: []Die{{1, 6, nil}}, Bonus: -1}, "1d6-1"},
		{"zero bonus omitted", Expression{Dice: []Die{{1, 6, nil}, {2, 8, nil}}}, "1d6+2d8"},
		{"negative amount has no joiner", Expression{Dice: []Die{{1, 6, nil}, {-2, 8, nil}}}, "1d6-2d8"},
		{"modifiers verbatim", Expression{Dice: []Die{{4, 6, []string{"kh3", "!"}}}}, "4d6kh3!"},
		{"bonus only keeps sign", Expression{Bonus: 3}, "+3"},
		{"empty", Expression{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.expr.String())
		})
	}
}

func TestRender_NilIsEmpty(t *testing.T) {
	assert.Equal(t, "", Render(nil))
}

func TestValue_JSON(t *testing.T) {
	var v Value
	require.NoError(t, json.Unmarshal([]byte(`{"dice":{"dice":[{"amount":2,"sides":4,"modifiers":[]}],"bonus":2}}`), &v))
	assert.Equal(t, "2d4+2", v.String())

	require.NoError(t, json.Unmarshal([]byte(`{"number":10}`), &v))
	assert.Equal(t, "10", v.String())

	err := json.Unmarshal([]byte(`{"number":1,"dice":{"dice":[],"bonus":0}}`), &v)
	assert.ErrorIs(t, err, ErrAmbiguousValue)
	err = json.Unmarshal([]byte(`{}`), &v)
	assert.ErrorIs(t, err, ErrAmbiguousValue)

	data, err := json.Marshal(Number(0))
	require.NoError(t, err)
	assert.JSONEq(t, `{"number":0}`, string(data))
}

func ptr[T any](v T) *T { return &v }
