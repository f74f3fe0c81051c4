// Package state models the network state document: an opaque,
// structurally-typed tree of mappings, sequences, and scalars that crosses
// the engine boundary as serialized text.
//
// The package deliberately knows almost nothing about the document schema.
// The exceptions are the merge, diff, and verification helpers, which rely
// on two structural conventions of network state documents: sequences of
// mappings carrying a "name" key identify their entries by that name, and
// an entry whose "state" is "absent" requests removal.
package state
