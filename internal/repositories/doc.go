// Package repositories implements SQLite persistence for all domain entities.
//
// Key Implementations:
//   - [AccountRepository] : Linked Steam accounts, one per user
//   - [CatalogRepository] : Shared game catalog with atomic insert-or-get
//     de-duplication on the external app id
//   - [BacklogRepository] : Per-user backlog entries keyed by (user, title)
//   - [SyncRunRepository] : Append-only log of sync executions
//   - [ReviewRepository] : Read-only lookup into the rating app's reviews
//
// The catalog's InsertOrGet relies on the store's unique-key conflict
// handling rather than check-then-insert, so concurrent first encounters of
// the same app id converge on a single winning row.
package repositories
