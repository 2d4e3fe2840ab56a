/*
Package charsheet binds character sheets computed by an external rules engine to
live HTML documents.

The engine owns the rules and produces a JSON snapshot of a sheet. charsheet pulls
that snapshot, renders it into the elements that carry binding directives and turns
user edits back into engine changes.

# Directives

	data-cs-root                               marks the bound subtree
	data-cs-bind-user-input-<name>             two-way binding on <input> or <textarea>
	data-cs-bind-user-input-<name>-to="<prop>" one-way binding to a property or #text point
	data-cs-bind-user-inputs="<template id>"   every user value, one template instance each
	data-cs-bind-doc="<path>"                  binding to a path of a document source

# Usage

	host := charsheet.New()
	r, err := host.NewRenderer(ctx, sheetJSON)
	if err != nil {
		log.Fatal(err)
	}
	page, _ := dom.ParseString(html)
	if err := r.BindToDom(ctx, page.Body()); err != nil {
		log.Fatal(err)
	}
	page.GetElementByID("strength").Input(ctx, "14")

Values use dice notation: a plain integer such as "10" or an expression such as
"2d4+2". See package dice.
*/
package charsheet
