package ingest

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"recallhub/internal/recalls"
	"recallhub/internal/services"
	"recallhub/internal/textutil"
)

// fieldAliases maps each canonical field to the keys agencies publish it
// under. Lookup is case-insensitive and underscore/dash tolerant; the
// first populated alias wins.
var fieldAliases = map[string][]string{
	"native_id":       {"id", "recall_id", "recall_number", "notice_id", "reference", "case_number", "event_id"},
	"product_name":    {"product_name", "name", "product", "title", "product_description"},
	"brand":           {"brand", "brand_name", "trade_name"},
	"manufacturer":    {"manufacturer", "maker", "company", "recalling_firm", "vendor"},
	"model_number":    {"model_number", "model", "models", "model_no"},
	"upc":             {"upc", "barcode", "upc_code"},
	"ean_code":        {"ean_code", "ean"},
	"gtin":            {"gtin"},
	"article_number":  {"article_number", "article"},
	"lot_number":      {"lot_number", "lot", "lot_no", "lot_code"},
	"batch_number":    {"batch_number", "batch"},
	"serial_number":   {"serial_number", "serial"},
	"part_number":     {"part_number", "part"},
	"ndc_number":      {"ndc_number", "ndc"},
	"din_number":      {"din_number", "din"},
	"vehicle_make":    {"vehicle_make", "make"},
	"vehicle_model":   {"vehicle_model"},
	"vehicle_year":    {"vehicle_year", "model_year", "year"},
	"vin_range":       {"vin_range", "vin"},
	"recall_date":     {"recall_date", "date", "published", "publish_date", "recall_initiation_date", "last_publish_date"},
	"expiry_date":     {"expiry_date", "expiration_date"},
	"best_before":     {"best_before_date", "best_before"},
	"production_date": {"production_date", "manufacture_date"},
	"hazard":          {"hazard", "hazard_description", "reason", "reason_for_recall", "defect"},
	"hazard_category": {"hazard_category", "hazard_type"},
	"severity":        {"severity", "risk_level"},
	"risk_category":   {"risk_category", "risk"},
	"recall_class":    {"recall_class", "classification", "class"},
	"description":     {"description", "details", "product_details"},
	"remedy":          {"remedy", "corrective_action", "action", "consumer_action"},
	"url":             {"url", "link", "recall_url"},
	"regions":         {"regions_affected", "regions", "distribution", "distribution_pattern", "states"},
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"January 2, 2006",
}

// Canonicalize maps one raw agency notice into a canonical recall
// record. The recall ID is derived deterministically as
// "{agency}-{native id}" so repeated runs upsert instead of duplicating.
// Unusable notices (no native ID, no product name, no parseable recall
// date) return a validation error and are counted as skipped by the
// caller.
func Canonicalize(agency string, notice RawNotice) (*recalls.Record, error) {
	agency = strings.ToUpper(strings.TrimSpace(agency))
	if agency == "" {
		return nil, services.Wrap(services.ErrValidation, "ingest", "canonicalize", "agency is required", nil)
	}

	fields := normalizeKeys(notice.Fields)
	nativeID := strings.TrimSpace(notice.NativeID)
	if nativeID == "" {
		nativeID = lookupString(fields, "native_id")
	}
	if nativeID == "" {
		return nil, services.Wrap(services.ErrValidation, "ingest", "canonicalize", "notice carries no native identifier", nil)
	}

	name := lookupString(fields, "product_name")
	if name == "" {
		return nil, services.Wrap(services.ErrValidation, "ingest", "canonicalize",
			fmt.Sprintf("notice %s carries no product name", nativeID), nil)
	}

	recallDate, err := lookupDate(fields, "recall_date")
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "ingest", "canonicalize",
			fmt.Sprintf("notice %s: %v", nativeID, err), nil)
	}
	if recallDate == nil {
		return nil, services.Wrap(services.ErrValidation, "ingest", "canonicalize",
			fmt.Sprintf("notice %s carries no recall date", nativeID), nil)
	}

	record := &recalls.Record{
		RecallID:     agency + "-" + nativeID,
		ProductName:  name,
		SourceAgency: agency,
		RecallDate:   *recallDate,

		Brand:         lookupString(fields, "brand"),
		Manufacturer:  lookupString(fields, "manufacturer"),
		ModelNumber:   lookupString(fields, "model_number"),
		UPC:           lookupString(fields, "upc"),
		EANCode:       lookupString(fields, "ean_code"),
		GTIN:          lookupString(fields, "gtin"),
		ArticleNumber: lookupString(fields, "article_number"),
		LotNumber:     lookupString(fields, "lot_number"),
		BatchNumber:   lookupString(fields, "batch_number"),
		SerialNumber:  lookupString(fields, "serial_number"),
		PartNumber:    lookupString(fields, "part_number"),
		NDCNumber:     lookupString(fields, "ndc_number"),
		DINNumber:     lookupString(fields, "din_number"),

		VehicleMake:  lookupString(fields, "vehicle_make"),
		VehicleModel: lookupString(fields, "vehicle_model"),
		VehicleYear:  lookupString(fields, "vehicle_year"),
		VINRange:     lookupString(fields, "vin_range"),

		Hazard:         lookupString(fields, "hazard"),
		HazardCategory: lookupString(fields, "hazard_category"),
		RiskCategory:   lookupString(fields, "risk_category"),
		RecallClass:    lookupString(fields, "recall_class"),
		Description:    lookupString(fields, "description"),
		Remedy:         lookupString(fields, "remedy"),
		URL:            lookupString(fields, "url"),
	}

	if expiry, err := lookupDate(fields, "expiry_date"); err == nil && expiry != nil {
		record.ExpiryDate = expiry
	}
	if best, err := lookupDate(fields, "best_before"); err == nil && best != nil {
		record.BestBeforeDate = best
	}
	if produced, err := lookupDate(fields, "production_date"); err == nil && produced != nil {
		record.ProductionDate = produced
	}

	record.Severity = deriveSeverity(lookupString(fields, "severity"), record.RecallClass)
	record.RegionsAffected = lookupStringSlice(fields, "regions")
	record.RegistryCodes = secondaryIdentifiers(fields, nativeID)

	if raw, err := json.Marshal(notice.Fields); err == nil {
		record.AgencySpecificData = string(raw)
	}

	record.SearchKeywords = textutil.KeywordBlob(
		record.ProductName, record.Brand, record.Manufacturer,
		record.ModelNumber, record.Description,
	)
	return record, nil
}

// secondaryIdentifiers collects agency registry identifiers that differ
// from the chosen native ID, keyed by the field they were published
// under. Agencies often carry several overlapping case numbers; the one
// that seeds the recall ID is excluded, the rest stay queryable.
func secondaryIdentifiers(fields map[string]any, nativeID string) map[string]string {
	var codes map[string]string
	for _, alias := range fieldAliases["native_id"] {
		value, ok := fields[alias]
		if !ok {
			continue
		}
		text := stringValue(value)
		if text == "" || strings.EqualFold(text, nativeID) {
			continue
		}
		if codes == nil {
			codes = make(map[string]string)
		}
		codes[alias] = text
	}
	return codes
}

// deriveSeverity prefers an explicit severity field and otherwise maps
// FDA-style recall classes onto the canonical scale.
func deriveSeverity(explicit, recallClass string) recalls.Severity {
	if severity, ok := recalls.ParseSeverity(explicit); ok {
		return severity
	}
	switch strings.ToLower(strings.TrimSpace(recallClass)) {
	case "class i", "class 1", "i", "1":
		return recalls.SeverityCritical
	case "class ii", "class 2", "ii", "2":
		return recalls.SeverityHigh
	case "class iii", "class 3", "iii", "3":
		return recalls.SeverityMedium
	}
	return ""
}

func normalizeKeys(fields map[string]any) map[string]any {
	normalized := make(map[string]any, len(fields))
	for key, value := range fields {
		normalized[normalizeKey(key)] = value
	}
	return normalized
}

func normalizeKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	key = strings.ReplaceAll(key, "-", "_")
	return strings.ReplaceAll(key, " ", "_")
}

func lookupString(fields map[string]any, canonical string) string {
	for _, alias := range fieldAliases[canonical] {
		value, ok := fields[alias]
		if !ok {
			continue
		}
		if text := stringValue(value); text != "" {
			return text
		}
	}
	return ""
}

func lookupDate(fields map[string]any, canonical string) (*time.Time, error) {
	text := lookupString(fields, canonical)
	if text == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, text); err == nil {
			parsed = parsed.UTC()
			return &parsed, nil
		}
	}
	return nil, fmt.Errorf("unparseable date %q", text)
}

func lookupStringSlice(fields map[string]any, canonical string) []string {
	for _, alias := range fieldAliases[canonical] {
		value, ok := fields[alias]
		if !ok {
			continue
		}
		switch typed := value.(type) {
		case []string:
			return typed
		case []any:
			out := make([]string, 0, len(typed))
			for _, item := range typed {
				if text := stringValue(item); text != "" {
					out = append(out, text)
				}
			}
			if len(out) > 0 {
				return out
			}
		default:
			if text := stringValue(value); text != "" {
				parts := strings.Split(text, ",")
				out := make([]string, 0, len(parts))
				for _, part := range parts {
					if part = strings.TrimSpace(part); part != "" {
						out = append(out, part)
					}
				}
				if len(out) > 0 {
					return out
				}
			}
		}
	}
	return nil
}

func stringValue(value any) string {
	switch typed := value.(type) {
	case string:
		return strings.TrimSpace(typed)
	case float64:
		if typed == float64(int64(typed)) {
			return strconv.FormatInt(int64(typed), 10)
		}
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case int:
		return strconv.Itoa(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	case bool:
		return strconv.FormatBool(typed)
	default:
		return ""
	}
}
