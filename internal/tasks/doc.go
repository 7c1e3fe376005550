// Package tasks orchestrates the fetch → merge → project sync pipeline and
// the background scheduler that drives it.
//
// # Core Operations
//
// The [Engine] runs one sync for one account:
//
//  1. Fetch the owned-title list (and best-effort storefront metadata) from
//     the platform client, under the shared rate budget
//  2. Merge every fetched title into the shared catalog, reusing existing
//     rows by app id or normalized name and never overwriting populated
//     metadata with blanks
//  3. Project the merged titles into the user's backlog, skipping reviewed
//     titles, then recompute synced ranks around untouched manual entries
//
// # Scheduling
//
// The [Scheduler] owns the per-account state machine
// (Idle → Running → outcome → Idle) behind an in-memory lock table. A fixed
// tick scans for accounts whose cadence has elapsed and runs them
// sequentially; a manual trigger skips only the cadence check. A concurrent
// trigger for a Running account fails with [shared.ErrSyncInProgress] and is
// not queued.
//
// Failure handling is per-account: a fetch-level failure marks the run
// failed and leaves last_sync_at alone so the next tick retries; a failure
// after partial merging marks it partial and advances last_sync_at so one
// persistently bad title cannot hot-loop an account. Nothing an account
// does can abort the tick for the others.
//
// # Facade
//
// [Service] exposes the operations the web app calls: Link (resolve plus
// one synchronous sync), SyncNow (non-blocking trigger returning a run
// handle), Unlink, and Status.
package tasks
