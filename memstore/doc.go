// Package memstore persists tool memories in a local sqlite database.
//
// Memories are short text snippets grouped into named collections. The
// store backs the memory tool suite: Add stores a snippet under a
// generated id, Search recalls snippets by case-insensitive term
// matching, Collections lists the known collection names, and Delete
// and Clear remove one item or a whole collection. The database runs
// in WAL mode so reads keep flowing while a tool writes.
package memstore
