// Package daemon runs the background ingestion scheduler behind a
// single-instance file lock: one polling loop per configured feed plus a
// periodic sweep that prunes old ingestion runs.
package daemon
