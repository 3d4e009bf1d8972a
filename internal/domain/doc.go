// Package domain defines the core types of the mind map engine.
//
// This package contains the value types shared by the graph store, the force
// simulator, the interaction controller and the persistence gateways.
//
// # Core Types
//
// Node is a labeled point in the map. Its Position is nil until the simulator
// lays it out for the first time, and its Pin (when set) overrides whatever
// position the simulator computes.
//
// Link connects two node ids. Links are stored directed (source is the
// parent for nodes created as children) but rendered as unordered edges.
//
// Snapshot is a detached copy of the whole graph: the ordered node sequence
// and the link collection. Snapshots are what persistence stores, what the
// renderer receives on every tick and what the codecs import and export.
//
// Point and Transform describe graph-space coordinates and the pan/zoom
// transform that maps them to screen space.
//
// # Errors
//
// Error carries one of the error kinds of the engine (invalid reference,
// validation, persistence, degenerate simulation input) so callers can use
// errors.Is against the sentinel values.
//
// # Design Principles
//
// - Plain value types, copied on the way out of the store
// - No database or external dependencies
package domain
