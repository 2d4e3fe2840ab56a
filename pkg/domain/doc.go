/*
Package domain contains the core data model shared by the charsheet packages.

It is kept free of I/O: everything here is either a value decoded from the
evaluation engine or a record handed to a persistence adapter.

# Key Entities

  - Snapshot: the immutable, engine-produced view of a character sheet
    (ordered user values plus active and inactive feature sets).
  - NamedValue: one {name, value} entry of the ordered user-value projection.
  - Change: a request to modify the sheet, tagged by kind.
  - Record: a persisted, user-editable document.
  - LifecycleHooks: callbacks fired by the renderer for observability.
*/
package domain
