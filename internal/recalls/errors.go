package recalls

import "errors"

// ErrRunAlreadyActive signals that a run for the same (agency, mode) pair
// is already queued or running. Callers treat this as informational, not
// as a failure.
var ErrRunAlreadyActive = errors.New("ingestion run already active")

// ErrRunNotActive signals an attempt to finish a run that is not in the
// running state. Terminal runs are immutable.
var ErrRunNotActive = errors.New("ingestion run is not running")

// ErrUnknownIdentifierKind signals a FindByIdentifier call with a kind
// outside the closed identifier set.
var ErrUnknownIdentifierKind = errors.New("unknown identifier kind")

// ErrMissingRequiredFields signals an upsert whose record lacks one of
// recall_id, product_name, recall_date, or source_agency.
var ErrMissingRequiredFields = errors.New("record missing required fields")
