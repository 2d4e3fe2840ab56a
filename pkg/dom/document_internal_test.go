package dom

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rowsPage = `<!DOCTYPE html><html><body>
<ul id="list"></ul>
<template id="row"><li><span></span><input data-cs-bind-value></li></template>
</body></html>`

func TestWrappersStayBoundedAcrossReplacements(t *testing.T) {
	doc, err := ParseString(rowsPage)
	require.NoError(t, err)
	list := doc.GetElementByID("list")
	tpl := doc.GetElementByID("row")

	instance := func() *Element {
		frag := tpl.CloneContent()
		for _, in := range frag.QueryAll(WithAttr("data-cs-bind-value")) {
			in.AddEventListener(EventChange, func(context.Context, Event) {})
		}
		return frag.Elements()[0]
	}

	current := instance()
	list.AppendChild(current)
	list.AppendChild(instance())
	baseline := len(doc.elements)

	for i := 0; i < 200; i++ {
		next := instance()
		require.NoError(t, current.InsertBefore(next))
		current.Remove()
		current = next
	}

	assert.Len(t, list.Children(), 2)
	assert.Equal(t, baseline, len(doc.elements))

	spare := instance()
	require.NoError(t, current.ReplaceWith(spare))
	assert.Equal(t, baseline, len(doc.elements))

	list.SetTextContent("")
	assert.Less(t, len(doc.elements), baseline)
}

func TestRemovedElementKeepsIdentityWhenReattached(t *testing.T) {
	doc, err := ParseString(rowsPage)
	require.NoError(t, err)
	list := doc.GetElementByID("list")

	li := doc.GetElementByID("row").CloneContent().Elements()[0]
	var changes int
	li.AddEventListener(EventChange, func(context.Context, Event) { changes++ })
	list.AppendChild(li)

	li.Remove()
	_, tracked := doc.elements[li.node]
	assert.False(t, tracked)

	list.AppendChild(li)
	require.Len(t, list.Children(), 1)
	assert.Same(t, li, list.Children()[0])
	list.Children()[0].Dispatch(context.Background(), EventChange)
	assert.Equal(t, 1, changes)
}
