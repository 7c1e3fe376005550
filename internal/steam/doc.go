// Package steam implements the [Library] interface against the Steam Web API
// and the storefront appdetails API.
//
// # Library Interface
//
// Profile resolution and library fetching sit behind a single abstraction so
// the sync pipeline can be exercised with test doubles.
//
// # Profile Resolution
//
// [Client.ResolveProfile] normalizes the profile references users paste in:
// full /profiles/ and /id/ community URLs, wishlist URLs, bare 64-bit ids,
// and bare vanity names. Vanity names resolve through
// ISteamUser/ResolveVanityURL; resolution is a single call with no retry loop.
//
// # Rate Budget
//
// Every outbound request draws a token from a shared [Budget], a token bucket
// built on [rate.Limiter]. The budget is global to the process, not per
// account. Callers block up to a bounded wait and then fail with
// [shared.ErrRateLimited].
//
// # Retries
//
// Idempotent GETs retry on transport errors, HTTP 5xx, and HTTP 429 with
// capped exponential backoff. Other 4xx responses are never retried.
// Exhausted retries surface as [shared.ErrTransientNetwork].
//
// # Error Handling
//
// Typed errors from the shared package:
//   - [shared.ErrInvalidProfileFormat] : no known profile pattern matched
//   - [shared.ErrProfileNotFound] : vanity name did not resolve
//   - [shared.ErrPrivateLibrary] : owned-games response hid the library
//   - [shared.ErrRateLimited] : budget exhausted within the bounded wait
//   - [shared.ErrTransientNetwork] : retries exhausted
package steam
