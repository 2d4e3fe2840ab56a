// Package dom is a small in-process document model over golang.org/x/net/html.
//
// Elements expose properties (value, textContent, type and plain attributes) and
// explicit events. Property assignment is silent: only Dispatch and Input notify
// listeners, which mirrors how a browser fires "change" for user edits but not for
// script writes.
package dom
