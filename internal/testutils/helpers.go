package testutils

import (
	"testing"

	"github.com/aretw0/charsheet/pkg/dom"
	"github.com/stretchr/testify/require"
)

// SheetJSON is a small engine document: two user values and one active feature
// whose script depends on speed and resilience.
const SheetJSON = `{
	"userValues": {
		"strength": {"number": 10},
		"speed": {"dice": {"dice": [{"amount": 2, "sides": 4, "modifiers": []}], "bonus": 2}}
	},
	"activeFeatures": [{
		"name": "Character", "description": "Base sheet", "features": [{
			"name": "defense", "description": "", "baseType": "combat_stats",
			"definitions": [{"name": "strength", "selector": {"identifier": "highest", "arguments": []}}],
			"modifiers": [{"property": "defense", "value": {"script": {"script": "$speed + $resilience", "dependencies": ["speed", "resilience"]}}}]
		}]
	}],
	"inactiveFeatures": []
}`

// SheetPage binds both user values two-way, renders strength one-way and lists
// every value through a template.
const SheetPage = `<!DOCTYPE html>
<html><body>
<main id="app">
  <form data-cs-root>
    <input id="strength" data-cs-bind-user-input-strength>
    <input id="speed" data-cs-bind-user-input-speed>
    <label id="strength-label" data-cs-bind-user-input-strength-to="#text-after"><b>Strength:</b></label>
    <ul id="all" data-cs-bind-user-inputs="value-row"></ul>
  </form>
</main>
<template id="value-row"><li><label data-cs-bind-name-to="textContent"></label><input data-cs-bind-value></li></template>
</body></html>`

// ParsePage parses html or fails the test.
func ParsePage(t *testing.T, html string) *dom.Document {
	t.Helper()
	doc, err := dom.ParseString(html)
	require.NoError(t, err, "Failed to parse page")
	return doc
}

// MustGet returns the element with id or fails the test.
func MustGet(t *testing.T, doc *dom.Document, id string) *dom.Element {
	t.Helper()
	el := doc.GetElementByID(id)
	require.NotNil(t, el, "element %q not found", id)
	return el
}
