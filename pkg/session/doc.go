/*
Package session keeps live character sheets and serializes access to each one.

Every sheet is a renderer bound to its own parsed page. Handlers from concurrent
transports (HTTP, MCP) go through WithLock, so an update cycle on a sheet never
interleaves with another. After each mutating call the snapshot is written to
the optional document store.
*/
package session
