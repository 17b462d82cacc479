// Package heap implements the managed heap: an arena of objects addressed
// by stable integer ids, backed by a compacting bump-pointer segment and a
// non-moving large object space.
//
// # Model
//
// Mutators hold ObjectIDs, never raw addresses. An id stays valid for the
// object's whole lifetime; the byte address behind it moves when the
// compactor runs. Inter-object references are adjacency lists of ids kept
// in the object table, so relocation never has to rewrite payload bytes.
//
// The Heap is an explicit context object: nothing in this module touches
// ambient global state, and tests routinely run several independent heaps
// side by side.
//
// # Generations
//
// Every object carries a generation, 0 at birth, incremented by the
// collector each time the object survives a pass that had it in scope, and
// saturating at Config.MaxGeneration. Cross-generation references (an
// older object pointing at a younger one) are recorded by the AddReference
// write barrier in a remembered set, so a partial collection can find
// young objects kept alive by old ones without scanning old generations.
//
// # Division of labor
//
// This package owns state; the collector packages own policy. The
// mark/compact/promote/reclaim entry points exported here are meant for
// heap/trace, heap/compact, and gc, not for mutator code.
package heap
