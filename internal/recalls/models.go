package recalls

import (
	"strings"
	"time"
)

// Severity classifies how dangerous a recalled product is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severitySet = map[Severity]struct{}{
	SeverityLow:      {},
	SeverityMedium:   {},
	SeverityHigh:     {},
	SeverityCritical: {},
}

// ParseSeverity converts a string into a known Severity.
func ParseSeverity(value string) (Severity, bool) {
	normalized := Severity(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := severitySet[normalized]
	return normalized, ok
}

// IdentifierKind names one of the exact-match identifier columns on a
// recall record.
type IdentifierKind string

const (
	IdentifierModelNumber   IdentifierKind = "model_number"
	IdentifierUPC           IdentifierKind = "upc"
	IdentifierEANCode       IdentifierKind = "ean_code"
	IdentifierGTIN          IdentifierKind = "gtin"
	IdentifierArticleNumber IdentifierKind = "article_number"
	IdentifierLotNumber     IdentifierKind = "lot_number"
	IdentifierBatchNumber   IdentifierKind = "batch_number"
	IdentifierSerialNumber  IdentifierKind = "serial_number"
	IdentifierPartNumber    IdentifierKind = "part_number"
	IdentifierNDCNumber     IdentifierKind = "ndc_number"
	IdentifierDINNumber     IdentifierKind = "din_number"
	IdentifierVINRange      IdentifierKind = "vin_range"
)

// identifierColumns maps each kind to its column. The map doubles as the
// closed set of kinds FindByIdentifier accepts.
var identifierColumns = map[IdentifierKind]string{
	IdentifierModelNumber:   "model_number",
	IdentifierUPC:           "upc",
	IdentifierEANCode:       "ean_code",
	IdentifierGTIN:          "gtin",
	IdentifierArticleNumber: "article_number",
	IdentifierLotNumber:     "lot_number",
	IdentifierBatchNumber:   "batch_number",
	IdentifierSerialNumber:  "serial_number",
	IdentifierPartNumber:    "part_number",
	IdentifierNDCNumber:     "ndc_number",
	IdentifierDINNumber:     "din_number",
	IdentifierVINRange:      "vin_range",
}

// IdentifierKinds returns the closed set of identifier kinds.
func IdentifierKinds() []IdentifierKind {
	kinds := make([]IdentifierKind, 0, len(identifierColumns))
	for kind := range identifierColumns {
		kinds = append(kinds, kind)
	}
	return kinds
}

// Record represents one agency recall notice in canonical form.
//
// recall_id is agency-qualified, globally unique, and immutable.
// Every identifier field is optional; some agencies publish only a
// product name. product_name, recall_date, and source_agency are always
// present.
type Record struct {
	ID       int64
	RecallID string

	ProductName   string
	Brand         string
	Manufacturer  string
	ModelNumber   string
	UPC           string
	EANCode       string
	GTIN          string
	ArticleNumber string
	LotNumber     string
	BatchNumber   string
	SerialNumber  string
	PartNumber    string
	NDCNumber     string
	DINNumber     string

	VehicleMake  string
	VehicleModel string
	VehicleYear  string
	VINRange     string

	RecallDate     time.Time
	ExpiryDate     *time.Time
	BestBeforeDate *time.Time
	ProductionDate *time.Time

	SourceAgency   string
	Hazard         string
	HazardCategory string
	Severity       Severity
	RiskCategory   string
	RecallClass    string

	Description        string
	Remedy             string
	URL                string
	SearchKeywords     string
	RegionsAffected    []string
	RegistryCodes      map[string]string
	AgencySpecificData string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasRiskClassification reports whether the record carries any usable
// hazard or risk classification. The commander uses this to distinguish
// a completed lookup from an inconclusive one.
func (r *Record) HasRiskClassification() bool {
	if r == nil {
		return false
	}
	return strings.TrimSpace(r.Hazard) != "" ||
		strings.TrimSpace(r.HazardCategory) != "" ||
		strings.TrimSpace(string(r.Severity)) != "" ||
		strings.TrimSpace(r.RiskCategory) != "" ||
		strings.TrimSpace(r.RecallClass) != ""
}

// UpsertOutcome reports whether an upsert inserted a new row or updated
// an existing one.
type UpsertOutcome string

const (
	OutcomeInserted UpsertOutcome = "inserted"
	OutcomeUpdated  UpsertOutcome = "updated"
)

// RunStatus represents the lifecycle of an ingestion run.
type RunStatus string

const (
	RunQueued    RunStatus = "queued"
	RunRunning   RunStatus = "running"
	RunSuccess   RunStatus = "success"
	RunPartial   RunStatus = "partial"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
)

var runStatusSet = map[RunStatus]struct{}{
	RunQueued:    {},
	RunRunning:   {},
	RunSuccess:   {},
	RunPartial:   {},
	RunFailed:    {},
	RunCancelled: {},
}

// ParseRunStatus converts a string into a known RunStatus.
func ParseRunStatus(value string) (RunStatus, bool) {
	normalized := RunStatus(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := runStatusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a run status is final.
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunSuccess, RunPartial, RunFailed, RunCancelled:
		return true
	default:
		return false
	}
}

// RunCounts accumulates per-item ingestion metrics.
type RunCounts struct {
	Inserted int
	Updated  int
	Skipped  int
	Failed   int
}

// Processed returns the number of items that reached the store.
func (c RunCounts) Processed() int {
	return c.Inserted + c.Updated
}

// Run represents one ingestion attempt persisted in SQLite. A run is
// created queued, moves to running, and transitions exactly once into a
// terminal state; it is immutable afterwards.
type Run struct {
	ID          string
	Agency      string
	Mode        string
	Status      RunStatus
	StartedAt   time.Time
	FinishedAt  *time.Time
	Counts      RunCounts
	ErrorText   string
	InitiatedBy string
	TraceID     string
	Metadata    string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DatabaseHealth captures diagnostic information about the recall database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	TablesPresent    []string
	MissingTables    []string
	IntegrityCheck   bool
	TotalRecords     int
	TotalRuns        int
	Error            string
}
