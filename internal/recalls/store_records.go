package recalls

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"recallhub/internal/textutil"
)

const recordColumns = "id, recall_id, product_name, brand, manufacturer, model_number, upc, ean_code, gtin, article_number, lot_number, batch_number, serial_number, part_number, ndc_number, din_number, vehicle_make, vehicle_model, vehicle_year, vin_range, recall_date, expiry_date, best_before_date, production_date, source_agency, hazard, hazard_category, severity, risk_category, recall_class, description, remedy, url, search_keywords, regions_affected, registry_codes, agency_specific_data, created_at, updated_at"

// UpsertByRecallID inserts a record or updates the existing row carrying
// the same recall_id. Re-ingesting a recall_id never duplicates.
func (s *Store) UpsertByRecallID(ctx context.Context, record *Record) (UpsertOutcome, error) {
	if record == nil {
		return "", errors.New("record is nil")
	}
	if strings.TrimSpace(record.RecallID) == "" ||
		strings.TrimSpace(record.ProductName) == "" ||
		strings.TrimSpace(record.SourceAgency) == "" ||
		record.RecallDate.IsZero() {
		return "", fmt.Errorf("%w: recall_id, product_name, recall_date, and source_agency are required", ErrMissingRequiredFields)
	}

	regionsJSON, err := marshalStringSlice(record.RegionsAffected)
	if err != nil {
		return "", fmt.Errorf("marshal regions: %w", err)
	}
	registryJSON, err := marshalStringMap(record.RegistryCodes)
	if err != nil {
		return "", fmt.Errorf("marshal registry codes: %w", err)
	}

	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin upsert tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var existingID int64
	row := tx.QueryRowContext(ctx, `SELECT id FROM recall_records WHERE recall_id = ?`, record.RecallID)
	err = row.Scan(&existingID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		res, err := tx.ExecContext(
			ctx,
			`INSERT INTO recall_records (
                recall_id, product_name, brand, manufacturer, model_number,
                upc, ean_code, gtin, article_number, lot_number, batch_number,
                serial_number, part_number, ndc_number, din_number,
                vehicle_make, vehicle_model, vehicle_year, vin_range,
                recall_date, expiry_date, best_before_date, production_date,
                source_agency, hazard, hazard_category, severity, risk_category,
                recall_class, description, remedy, url, search_keywords,
                regions_affected, registry_codes, agency_specific_data,
                created_at, updated_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			record.RecallID,
			record.ProductName,
			nullableString(record.Brand),
			nullableString(record.Manufacturer),
			nullableString(record.ModelNumber),
			nullableString(record.UPC),
			nullableString(record.EANCode),
			nullableString(record.GTIN),
			nullableString(record.ArticleNumber),
			nullableString(record.LotNumber),
			nullableString(record.BatchNumber),
			nullableString(record.SerialNumber),
			nullableString(record.PartNumber),
			nullableString(record.NDCNumber),
			nullableString(record.DINNumber),
			nullableString(record.VehicleMake),
			nullableString(record.VehicleModel),
			nullableString(record.VehicleYear),
			nullableString(record.VINRange),
			record.RecallDate.UTC().Format(time.RFC3339Nano),
			nullableTime(record.ExpiryDate),
			nullableTime(record.BestBeforeDate),
			nullableTime(record.ProductionDate),
			record.SourceAgency,
			nullableString(record.Hazard),
			nullableString(record.HazardCategory),
			nullableString(string(record.Severity)),
			nullableString(record.RiskCategory),
			nullableString(record.RecallClass),
			nullableString(record.Description),
			nullableString(record.Remedy),
			nullableString(record.URL),
			nullableString(record.SearchKeywords),
			nullableString(regionsJSON),
			nullableString(registryJSON),
			nullableString(record.AgencySpecificData),
			timestamp,
			timestamp,
		)
		if err != nil {
			return "", fmt.Errorf("insert record: %w", err)
		}
		record.ID, err = res.LastInsertId()
		if err != nil {
			return "", fmt.Errorf("last insert id: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return "", fmt.Errorf("commit upsert: %w", err)
		}
		record.CreatedAt = now
		record.UpdatedAt = now
		return OutcomeInserted, nil
	case err != nil:
		return "", fmt.Errorf("lookup recall_id: %w", err)
	}

	_, err = tx.ExecContext(
		ctx,
		`UPDATE recall_records
         SET product_name = ?, brand = ?, manufacturer = ?, model_number = ?,
             upc = ?, ean_code = ?, gtin = ?, article_number = ?, lot_number = ?,
             batch_number = ?, serial_number = ?, part_number = ?, ndc_number = ?,
             din_number = ?, vehicle_make = ?, vehicle_model = ?, vehicle_year = ?,
             vin_range = ?, recall_date = ?, expiry_date = ?, best_before_date = ?,
             production_date = ?, source_agency = ?, hazard = ?, hazard_category = ?,
             severity = ?, risk_category = ?, recall_class = ?, description = ?,
             remedy = ?, url = ?, search_keywords = ?, regions_affected = ?,
             registry_codes = ?, agency_specific_data = ?, updated_at = ?
         WHERE id = ?`,
		record.ProductName,
		nullableString(record.Brand),
		nullableString(record.Manufacturer),
		nullableString(record.ModelNumber),
		nullableString(record.UPC),
		nullableString(record.EANCode),
		nullableString(record.GTIN),
		nullableString(record.ArticleNumber),
		nullableString(record.LotNumber),
		nullableString(record.BatchNumber),
		nullableString(record.SerialNumber),
		nullableString(record.PartNumber),
		nullableString(record.NDCNumber),
		nullableString(record.DINNumber),
		nullableString(record.VehicleMake),
		nullableString(record.VehicleModel),
		nullableString(record.VehicleYear),
		nullableString(record.VINRange),
		record.RecallDate.UTC().Format(time.RFC3339Nano),
		nullableTime(record.ExpiryDate),
		nullableTime(record.BestBeforeDate),
		nullableTime(record.ProductionDate),
		record.SourceAgency,
		nullableString(record.Hazard),
		nullableString(record.HazardCategory),
		nullableString(string(record.Severity)),
		nullableString(record.RiskCategory),
		nullableString(record.RecallClass),
		nullableString(record.Description),
		nullableString(record.Remedy),
		nullableString(record.URL),
		nullableString(record.SearchKeywords),
		nullableString(regionsJSON),
		nullableString(registryJSON),
		nullableString(record.AgencySpecificData),
		timestamp,
		existingID,
	)
	if err != nil {
		return "", fmt.Errorf("update record: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit upsert: %w", err)
	}
	record.ID = existingID
	record.UpdatedAt = now
	return OutcomeUpdated, nil
}

// GetByRecallID fetches a record by its canonical identifier.
func (s *Store) GetByRecallID(ctx context.Context, recallID string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM recall_records WHERE recall_id = ?`, recallID)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return record, nil
}

// FindByIdentifier returns all records whose identifier column of the
// given kind equals value. Model numbers compare case-insensitively; all
// other kinds are exact. A model number can span several recalled
// variants, so every hit is returned in deterministic order.
func (s *Store) FindByIdentifier(ctx context.Context, kind IdentifierKind, value string) ([]*Record, error) {
	column, ok := identifierColumns[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownIdentifierKind, kind)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	comparison := column + " = ?"
	if kind == IdentifierModelNumber {
		comparison = column + " = ? COLLATE NOCASE"
	}
	query := `SELECT ` + recordColumns + ` FROM recall_records WHERE ` + comparison +
		` ORDER BY recall_date DESC, source_agency ASC`
	rows, err := s.db.QueryContext(ctx, query, value)
	if err != nil {
		return nil, fmt.Errorf("find by %s: %w", column, err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

// SearchByName returns candidate records whose product name contains the
// query text or whose keyword blob contains any query token. Candidates
// are ordered deterministically; ranking is the matching engine's job.
func (s *Store) SearchByName(ctx context.Context, text string, limit int) ([]*Record, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	clauses := []string{`product_name LIKE ? ESCAPE '\'`}
	args := []any{"%" + escapeLike(text) + "%"}
	for _, token := range textutil.Tokenize(text) {
		clauses = append(clauses, `search_keywords LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(token)+"%")
	}
	args = append(args, limit)

	query := `SELECT ` + recordColumns + ` FROM recall_records WHERE ` +
		strings.Join(clauses, " OR ") +
		` ORDER BY recall_date DESC, source_agency ASC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search by name: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

// SearchModelContains returns records whose model number contains the
// fragment, case-insensitively. Only the commander's fallback lookup uses
// contains semantics for model numbers; the matching engine's tier 1 is
// an exact match.
func (s *Store) SearchModelContains(ctx context.Context, fragment string, limit int) ([]*Record, error) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+recordColumns+` FROM recall_records
         WHERE model_number LIKE ? ESCAPE '\'
         ORDER BY recall_date DESC, source_agency ASC LIMIT ?`,
		"%"+escapeLike(fragment)+"%",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("search model contains: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

// escapeLike escapes LIKE metacharacters so caller text always matches
// literally.
func escapeLike(text string) string {
	text = strings.ReplaceAll(text, `\`, `\\`)
	text = strings.ReplaceAll(text, "%", `\%`)
	return strings.ReplaceAll(text, "_", `\_`)
}

// CountByAgency returns a count of records grouped by source agency.
func (s *Store) CountByAgency(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT source_agency, COUNT(1) FROM recall_records GROUP BY source_agency`)
	if err != nil {
		return nil, fmt.Errorf("count by agency: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var agency string
		var count int
		if err := rows.Scan(&agency, &count); err != nil {
			return nil, err
		}
		counts[agency] = count
	}
	return counts, rows.Err()
}

func collectRecords(rows *sql.Rows) ([]*Record, error) {
	var records []*Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		id             int64
		recallID       string
		productName    string
		brand          sql.NullString
		manufacturer   sql.NullString
		modelNumber    sql.NullString
		upc            sql.NullString
		eanCode        sql.NullString
		gtin           sql.NullString
		articleNumber  sql.NullString
		lotNumber      sql.NullString
		batchNumber    sql.NullString
		serialNumber   sql.NullString
		partNumber     sql.NullString
		ndcNumber      sql.NullString
		dinNumber      sql.NullString
		vehicleMake    sql.NullString
		vehicleModel   sql.NullString
		vehicleYear    sql.NullString
		vinRange       sql.NullString
		recallDateRaw  string
		expiryRaw      sql.NullString
		bestBeforeRaw  sql.NullString
		productionRaw  sql.NullString
		sourceAgency   string
		hazard         sql.NullString
		hazardCategory sql.NullString
		severity       sql.NullString
		riskCategory   sql.NullString
		recallClass    sql.NullString
		description    sql.NullString
		remedy         sql.NullString
		url            sql.NullString
		searchKeywords sql.NullString
		regionsRaw     sql.NullString
		registryRaw    sql.NullString
		agencyData     sql.NullString
		createdRaw     sql.NullString
		updatedRaw     sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&recallID,
		&productName,
		&brand,
		&manufacturer,
		&modelNumber,
		&upc,
		&eanCode,
		&gtin,
		&articleNumber,
		&lotNumber,
		&batchNumber,
		&serialNumber,
		&partNumber,
		&ndcNumber,
		&dinNumber,
		&vehicleMake,
		&vehicleModel,
		&vehicleYear,
		&vinRange,
		&recallDateRaw,
		&expiryRaw,
		&bestBeforeRaw,
		&productionRaw,
		&sourceAgency,
		&hazard,
		&hazardCategory,
		&severity,
		&riskCategory,
		&recallClass,
		&description,
		&remedy,
		&url,
		&searchKeywords,
		&regionsRaw,
		&registryRaw,
		&agencyData,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	record := &Record{
		ID:                 id,
		RecallID:           recallID,
		ProductName:        productName,
		Brand:              brand.String,
		Manufacturer:       manufacturer.String,
		ModelNumber:        modelNumber.String,
		UPC:                upc.String,
		EANCode:            eanCode.String,
		GTIN:               gtin.String,
		ArticleNumber:      articleNumber.String,
		LotNumber:          lotNumber.String,
		BatchNumber:        batchNumber.String,
		SerialNumber:       serialNumber.String,
		PartNumber:         partNumber.String,
		NDCNumber:          ndcNumber.String,
		DINNumber:          dinNumber.String,
		VehicleMake:        vehicleMake.String,
		VehicleModel:       vehicleModel.String,
		VehicleYear:        vehicleYear.String,
		VINRange:           vinRange.String,
		SourceAgency:       sourceAgency,
		Hazard:             hazard.String,
		HazardCategory:     hazardCategory.String,
		Severity:           Severity(severity.String),
		RiskCategory:       riskCategory.String,
		RecallClass:        recallClass.String,
		Description:        description.String,
		Remedy:             remedy.String,
		URL:                url.String,
		SearchKeywords:     searchKeywords.String,
		AgencySpecificData: agencyData.String,
	}

	if recallDate, err := parseTimeString(recallDateRaw); err == nil {
		record.RecallDate = recallDate
	}
	record.ExpiryDate = parseOptionalTime(expiryRaw)
	record.BestBeforeDate = parseOptionalTime(bestBeforeRaw)
	record.ProductionDate = parseOptionalTime(productionRaw)

	if regionsRaw.Valid && regionsRaw.String != "" {
		if err := json.Unmarshal([]byte(regionsRaw.String), &record.RegionsAffected); err != nil {
			return nil, fmt.Errorf("unmarshal regions for %s: %w", recallID, err)
		}
	}
	if registryRaw.Valid && registryRaw.String != "" {
		if err := json.Unmarshal([]byte(registryRaw.String), &record.RegistryCodes); err != nil {
			return nil, fmt.Errorf("unmarshal registry codes for %s: %w", recallID, err)
		}
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		record.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		record.UpdatedAt = updated
	}
	return record, nil
}

func parseOptionalTime(raw sql.NullString) *time.Time {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	parsed, err := parseTimeString(raw.String)
	if err != nil {
		return nil
	}
	return &parsed
}

func marshalStringSlice(values []string) (string, error) {
	if len(values) == 0 {
		return "", nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func marshalStringMap(values map[string]string) (string, error) {
	if len(values) == 0 {
		return "", nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
