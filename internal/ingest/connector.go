package ingest

import "context"

// RawNotice is one loosely structured item as published by an agency
// feed, before canonicalization. NativeID may be empty when the feed
// does not surface it outside the field map.
type RawNotice struct {
	NativeID string
	Fields   map[string]any
}

// Connector fetches raw recall notices from one agency source.
type Connector interface {
	// Agency returns the uppercase agency code this connector serves.
	Agency() string
	// Fetch retrieves the notices for the given mode. Implementations
	// must honor ctx cancellation and deadlines.
	Fetch(ctx context.Context, mode string) ([]RawNotice, error)
}
