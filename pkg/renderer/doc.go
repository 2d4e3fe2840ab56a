// Package renderer connects one engine sheet to a document.
//
// A Renderer owns a sheet key, the last snapshot pulled from the engine and an
// ordered list of binders. Every update batch ends with a single synchronize that
// re-renders each binder with the previous and the next snapshot.
package renderer
