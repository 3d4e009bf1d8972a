// Package graph owns the authoritative in-memory mind map.
//
// Store holds the ordered node sequence and the link collection and is the
// only writer of graph structure. Every mutation runs to completion under the
// store lock, so the simulator (which steps under the same lock through
// Layout) never observes a half-applied change such as a node without the
// link that was created with it.
//
// Observers registered with Subscribe are called synchronously after each
// change, outside the lock. The autosaver and the force simulator hook in
// this way; neither is known to the store.
package graph
