// Package ingest pulls raw recall notices from agency connectors,
// canonicalizes them into recall records, and merges them into the store
// under per-run bookkeeping.
package ingest
