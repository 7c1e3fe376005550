// Package models defines domain entities for the Steam library sync engine.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): Lightweight structs carrying external service data
//   - [OwnedTitle] : One owned game as reported by the Steam Web API, with raw playtime
//   - [TitleDetails] : Best-effort storefront metadata for a single title
//
// 2. Persistent Entities: Database-backed records
//   - [LinkedAccount] : Association between a local user and a Steam identity
//   - [CatalogTitle] : Canonical, de-duplicated game record shared across all users
//   - [BacklogEntry] : A user-owned, unreviewed title queued for rating, ordered by rank
//   - [SyncRun] : Append-only record of one sync execution
//
// Persistent entities carry Validate methods; repositories in
// internal/repositories own their persistence.
package models
