// Package httpapi is the thin HTTP facade spec.md places outside the
// storage core: request marshaling, routing, and status-code mapping only.
// Every handler does nothing but decode a request, call storage.Storage,
// and encode the result — none of the core's invariants live here.
package httpapi
