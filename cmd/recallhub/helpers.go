package main

import (
	"context"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"recallhub/internal/recalls"
)

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return "-"
	}
	return value.Local().Format("2006-01-02 15:04:05")
}

func formatDate(value time.Time) string {
	if value.IsZero() {
		return "-"
	}
	return value.Format("2006-01-02")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func orDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

// recordIdentifier returns the most specific identifier a record carries
// for compact table output.
func recordIdentifier(record *recalls.Record) string {
	switch {
	case record.ModelNumber != "":
		return "model " + record.ModelNumber
	case record.UPC != "":
		return "upc " + record.UPC
	case record.LotNumber != "":
		return "lot " + record.LotNumber
	default:
		return "-"
	}
}
