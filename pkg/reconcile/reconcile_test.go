package reconcile_test

import (
	"context"
	"testing"

	"github.com/aretw0/charsheet/pkg/dice"
	"github.com/aretw0/charsheet/pkg/dom"
	"github.com/aretw0/charsheet/pkg/domain"
	"github.com/aretw0/charsheet/pkg/reconcile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<html><body>
<ul id="list"></ul>
<template id="row">
  <li><span data-cs-bind-name-to="textContent"></span><b data-cs-bind-value-to="title"></b><input data-cs-bind-value></li>
</template>
</body></html>`

type edit struct{ name, text string }

func setup(t *testing.T) (*dom.Document, *reconcile.Reconciler, *[]edit) {
	t.Helper()
	doc, err := dom.ParseString(page)
	require.NoError(t, err)
	var edits []edit
	r := reconcile.New(doc.GetElementByID("list"), doc.GetElementByID("row"),
		func(_ context.Context, name, text string) { edits = append(edits, edit{name, text}) })
	return doc, r, &edits
}

func nv(name string, v dice.Value) domain.NamedValue {
	return domain.NamedValue{Name: name, Value: v}
}

func twoD4() dice.Value {
	return dice.FromExpression(dice.Expression{Dice: []dice.Die{{Amount: 2, Sides: 4, Modifiers: []string{}}}, Bonus: 2})
}

func TestRender_Initial(t *testing.T) {
	doc, r, _ := setup(t)
	r.Render([]domain.NamedValue{nv("strength", dice.Number(10)), nv("speed", twoD4())})

	items := doc.GetElementByID("list").Children()
	require.Len(t, items, 2)
	assert.Equal(t, 2, r.Len())

	span := items[0].Children()[0]
	assert.Equal(t, "strength", span.TextContent())
	b := items[0].Children()[1]
	assert.Equal(t, "10", b.Property("title"))

	input := items[0].Children()[2]
	assert.Equal(t, "number", input.Property(dom.PropType))
	assert.Equal(t, "10", input.Property(dom.PropValue))

	speed := items[1].Children()[2]
	assert.Equal(t, "text", speed.Property(dom.PropType))
	assert.Equal(t, "2d4+2", speed.Property(dom.PropValue))
}

func TestRender_UnchangedIsMutationFree(t *testing.T) {
	doc, r, _ := setup(t)
	entries := []domain.NamedValue{nv("strength", dice.Number(10))}
	r.Render(entries)

	before := doc.Mutations()
	r.Render([]domain.NamedValue{nv("strength", dice.Number(10))})
	assert.Equal(t, before, doc.Mutations())
}

func TestRender_ReplacesOnlyChangedEntries(t *testing.T) {
	doc, r, _ := setup(t)
	r.Render([]domain.NamedValue{nv("a", dice.Number(1)), nv("b", dice.Number(2)), nv("c", dice.Number(3))})
	list := doc.GetElementByID("list")
	first := list.Children()

	r.Render([]domain.NamedValue{nv("a", dice.Number(1)), nv("b", dice.Number(20)), nv("c", dice.Number(3))})
	second := list.Children()
	require.Len(t, second, 3)
	assert.Same(t, first[0], second[0])
	assert.NotSame(t, first[1], second[1])
	assert.Same(t, first[2], second[2])
	assert.Equal(t, "20", second[1].Children()[2].Property(dom.PropValue))
	assert.Nil(t, first[1].Parent())
}

func TestRender_ShrinkAndGrow(t *testing.T) {
	doc, r, _ := setup(t)
	list := doc.GetElementByID("list")

	r.Render([]domain.NamedValue{nv("a", dice.Number(1)), nv("b", dice.Number(2)), nv("c", dice.Number(3))})
	r.Render([]domain.NamedValue{nv("a", dice.Number(1))})
	require.Len(t, list.Children(), 1)
	assert.Equal(t, 1, r.Len())

	r.Render([]domain.NamedValue{nv("a", dice.Number(1)), nv("z", dice.Number(9))})
	items := list.Children()
	require.Len(t, items, 2)
	assert.Equal(t, "z", items[1].Children()[0].TextContent())

	r.Render(nil)
	assert.Empty(t, list.Children())
}

func TestRender_InputCallsBack(t *testing.T) {
	doc, r, edits := setup(t)
	r.Render([]domain.NamedValue{nv("speed", twoD4())})

	input := doc.GetElementByID("list").Children()[0].Children()[2]
	input.Input(context.Background(), "3d6")
	assert.Equal(t, []edit{{"speed", "3d6"}}, *edits)
}
