// Package store is the SQLite-backed local state of druidkit.
//
// It holds two tables:
//   - results: cached native query results, keyed by the canonical hash of
//     the query with execution-only context keys removed
//   - tasks: ingestion tasks submitted through the client, in submission order
//
// # Cache Keys
//
// Two queries share a cache entry exactly when their canonical encodings
// match after queryId, timeout, priority and lane are dropped from the
// context. Those keys change how a query runs, never what it returns.
//
// # Ordering
//
// Listings are ordered by submission time then id COLLATE BINARY, so equal
// timestamps still produce a stable order.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
package store
