// Package recalls implements the canonical recall store backed by SQLite.
//
// The store is the durable home for two tables: recall_records, one row
// per agency recall notice keyed by the globally unique recall_id, and
// ingestion_runs, one row per ingestion attempt. Records are created and
// updated only by the ingestion orchestrator; the matching engine and the
// workflow commander read them. Records are never deleted, only
// superseded by newer ingestion of the same recall_id.
//
// The store enforces uniqueness and required-field invariants but holds
// no other business logic. Errors surfaced here are storage-tier only.
package recalls
