// Package repository defines the persistence gateway for the mind map.
//
// The engine keeps the graph in memory and treats storage as best-effort
// durability: the whole node and link collection is loaded once at startup
// and written back wholesale, clear-then-insert, whenever the autosaver
// fires.
//
// # Implementations
//
// The sqlite subpackage stores the graph in SQLite using the pure-Go
// modernc.org/sqlite driver with WAL mode. Node order is preserved with an
// explicit ordinal column. Links are loaded through a join so that a link
// whose endpoint is missing never reaches the caller.
//
// The memory subpackage keeps a detached snapshot in process. It backs
// sessions configured with the memory driver and lets tests inject load,
// save and clear failures.
//
// # Errors
//
// Every failure is returned as a domain persistence error, so callers can
// test for it with errors.Is(err, domain.ErrPersistence).
package repository
