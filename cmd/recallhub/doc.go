// Command recallhub is the operator CLI: trigger and inspect ingestion
// runs, query the recall store, and manage configuration.
package main
