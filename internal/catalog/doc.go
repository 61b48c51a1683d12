// Package catalog persists canonical games, platform releases, external-id
// mappings, and user library entries in SQLite.
//
// The Store manages the database connection, schema initialization, and all
// row-level operations the resolution and repair paths need: get-by-unique-key,
// inserts that surface uniqueness violations as classifiable errors,
// insert-or-ignore for the mapping anchor table, and the bulk moves merges
// perform. Uniqueness constraints in schema.sql are the only synchronization
// primitive in the system; callers recover from lost insert races by
// re-reading, never by locking.
//
// Treat this package as the single source of truth for catalog semantics; when
// you add tables or unique keys, update schema.sql and bump schemaVersion.
package catalog
