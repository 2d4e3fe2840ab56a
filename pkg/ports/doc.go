/*
Package ports defines the driven ports (interfaces) of the charsheet renderer.

These interfaces decouple the binding core from external implementations, so
the same renderer can drive an in-process engine or a remote one, and persist
documents to memory, disk or Redis.

# Key Interfaces

  - SheetEngine: the external evaluation engine owning character-sheet semantics.
  - DocumentStore: persistence for user-editable documents.
*/
package ports
