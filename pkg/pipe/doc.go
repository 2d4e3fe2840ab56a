// Package pipe provides observable values with derivation and bidirectional updates.
//
// A Source owns the canonical value of a tree. Pick derives a view onto one field;
// derived pipes hold no value of their own and forward updates up the chain, so the
// Source is the only place a value is ever accepted, merged and persisted.
package pipe
