// Package catalog persists the GOG product catalog, the exported Steam
// library, and the reconciliation output in SQLite.
//
// The Store manages the database connection, schema migrations, and upserts
// keyed by stable identifiers: products and prices by gog_id (re-ingesting a
// dump replaces rows in place), library games by appid, assignments by appid.
// Assignment rows are created once at seed time and only ever mutated by
// matching passes; the UNIQUE constraint on assignments.gog_id backs the
// one-claim-per-product invariant at the schema level.
//
// Products whose type column is NULL are treated as eligible games. GOGDB
// leaves type unset mostly on legacy game entries, so the permissive default
// keeps old dumps matchable; a stricter allow-list would silently zero the
// match rate there.
//
// Columns added after the initial schema (normalized_title, match_method,
// match_score) are guarded by ensureColumn so a database created by an older
// release gains them on open without a destructive migration.
package catalog
