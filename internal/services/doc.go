// Package services holds cross-cutting service plumbing: the error
// taxonomy shared by the ingestion orchestrator, matching engine, and
// workflow commander, and context carriers for correlation fields.
package services
