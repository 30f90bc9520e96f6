package etl

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/supplylens/supplylens/internal/domain"
)

// TablesResult summarizes a processed-tables load run.
type TablesResult struct {
	Flows            int
	HSCategories     int
	CountryLocations int
	PortLocations    int
}

// LoadProcessedTables imports the four reference CSVs from dir:
// monthly_company_flows.csv, hs_code_categories.csv,
// country_locations.csv and port_locations.csv. Missing files are
// skipped so partial exports load cleanly.
func (l *Loader) LoadProcessedTables(ctx context.Context, dir string) (*TablesResult, error) {
	if err := l.repo.EnsureReportingSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	result := &TablesResult{}

	if rows, err := readCSV(filepath.Join(dir, "monthly_company_flows.csv")); err == nil {
		flows := make([]*domain.MonthlyCompanyFlow, 0, len(rows))
		for _, row := range rows {
			flows = append(flows, &domain.MonthlyCompanyFlow{
				YearMonth:            row["year_month"],
				ExporterName:         row["exporter_name"],
				ImporterName:         row["importer_name"],
				OriginCountry:        row["origin_country"],
				DestinationCountry:   row["destination_country"],
				HSCodes:              row["hs_codes"],
				TransportMode:        row["transport_mode"],
				TradeTerm:            row["trade_term"],
				TransactionCount:     atoi(row["transaction_count"]),
				TotalValueUSD:        atofp(row["total_value_usd"]),
				TotalWeightKg:        atofp(row["total_weight_kg"]),
				TotalQuantity:        atofp(row["total_quantity"]),
				FirstTransactionDate: row["first_transaction_date"],
				LastTransactionDate:  row["last_transaction_date"],
			})
		}
		n, err := l.batchFlows(ctx, flows)
		if err != nil {
			return result, err
		}
		result.Flows = n
	} else if !os.IsNotExist(err) {
		return result, err
	}

	if rows, err := readCSV(filepath.Join(dir, "hs_code_categories.csv")); err == nil {
		cats := make([]*domain.HSCodeCategory, 0, len(rows))
		for _, row := range rows {
			cats = append(cats, &domain.HSCodeCategory{
				HSCode:      row["hs_code"],
				ChapterName: row["chapter_name"],
				CategoryID:  CategoryForHSCode(row["hs_code"]),
			})
		}
		n, err := l.repo.UpsertHSCodeCategories(ctx, cats)
		if err != nil {
			return result, err
		}
		result.HSCategories = n
	} else if !os.IsNotExist(err) {
		return result, err
	}

	if rows, err := readCSV(filepath.Join(dir, "country_locations.csv")); err == nil {
		locs := make([]*domain.CountryLocation, 0, len(rows))
		for _, row := range rows {
			locs = append(locs, &domain.CountryLocation{
				CountryCode: row["country_code"],
				CountryName: row["country_name"],
				Latitude:    atof(row["latitude"]),
				Longitude:   atof(row["longitude"]),
				Region:      row["region"],
				Continent:   row["continent"],
			})
		}
		n, err := l.repo.UpsertCountryLocations(ctx, locs)
		if err != nil {
			return result, err
		}
		result.CountryLocations = n
	} else if !os.IsNotExist(err) {
		return result, err
	}

	if rows, err := readCSV(filepath.Join(dir, "port_locations.csv")); err == nil {
		ports := make([]*domain.PortLocation, 0, len(rows))
		for _, row := range rows {
			ports = append(ports, &domain.PortLocation{
				PortName:    row["port_name"],
				CountryCode: row["country_code"],
				CountryName: row["country_name"],
				Latitude:    atof(row["latitude"]),
				Longitude:   atof(row["longitude"]),
				Region:      row["region"],
				Continent:   row["continent"],
			})
		}
		n, err := l.repo.UpsertPortLocations(ctx, ports)
		if err != nil {
			return result, err
		}
		result.PortLocations = n
	} else if !os.IsNotExist(err) {
		return result, err
	}

	return result, nil
}

func (l *Loader) batchFlows(ctx context.Context, flows []*domain.MonthlyCompanyFlow) (int, error) {
	total := 0
	for start := 0; start < len(flows); start += l.batchSize {
		end := start + l.batchSize
		if end > len(flows) {
			end = len(flows)
		}
		n, err := l.repo.UpsertCompanyFlows(ctx, flows[start:end])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// TransactionsResult summarizes a shipment CSV load run.
type TransactionsResult struct {
	Transactions int
	Companies    int
	Locations    int
	Skipped      int
}

// LoadTransactions imports the shipment CSV: transactions plus lazily
// created companies and their city/country locations. Companies get
// deterministic IDs so reloading the same file converges.
func (l *Loader) LoadTransactions(ctx context.Context, csvPath string) (*TransactionsResult, error) {
	rows, err := readCSV(csvPath)
	if err != nil {
		return nil, err
	}

	categories, err := l.repo.ListCategories(ctx, false)
	if err != nil {
		return nil, err
	}
	categoryByName := make(map[string]*domain.Category, len(categories))
	for _, c := range categories {
		categoryByName[c.DisplayName] = c
	}

	result := &TransactionsResult{}
	seenCompanies := make(map[string]bool)
	seenLocations := make(map[string]bool)

	for _, row := range rows {
		category, ok := categoryByName[row["category_name"]]
		if !ok {
			l.log.Warn().Str("category", row["category_name"]).Str("id", row["id"]).
				Msg("unknown category, skipping record")
			result.Skipped++
			continue
		}

		exporterID, err := l.ensureCompany(ctx, row, "exporter", seenCompanies, seenLocations, result)
		if err != nil {
			return result, err
		}
		importerID, err := l.ensureCompany(ctx, row, "importer", seenCompanies, seenLocations, result)
		if err != nil {
			return result, err
		}

		for _, side := range []string{"exporter", "importer"} {
			code := row[side+"_country_code"]
			key := "country:" + code
			if code == "" || seenLocations[key] {
				continue
			}
			loc := &domain.Location{
				ID:          code,
				Type:        "country",
				CountryCode: code,
				CountryName: row[side+"_country_name"],
			}
			if err := l.repo.SaveLocation(ctx, loc); err != nil {
				return result, err
			}
			seenLocations[key] = true
			result.Locations++
		}

		quantity := atof(row["quantity"])
		price := atof(row["price"])
		totalValue := atof(row["total_value"])
		if totalValue == 0 {
			totalValue = quantity * price
		}

		date, err := parseTransactionDate(row["transaction_date"])
		if err != nil {
			l.log.Warn().Str("id", row["id"]).Err(err).Msg("bad transaction date, skipping record")
			result.Skipped++
			continue
		}

		status := row["status"]
		if status == "" {
			status = "completed"
		}

		tx := &domain.Transaction{
			ID:                     row["id"],
			ExporterCompanyID:      exporterID,
			ImporterCompanyID:      importerID,
			OriginCountryCode:      row["exporter_country_code"],
			OriginCountryName:      row["exporter_country_name"],
			DestinationCountryCode: row["importer_country_code"],
			DestinationCountryName: row["importer_country_name"],
			Material:               row["material"],
			CategoryID:             category.ID,
			Quantity:               quantity,
			Unit:                   row["unit"],
			Price:                  price,
			TotalValue:             totalValue,
			TransactionDate:        date,
			Status:                 status,
		}
		if err := l.repo.SaveTransaction(ctx, tx); err != nil {
			return result, err
		}
		result.Transactions++
	}

	return result, nil
}

// ensureCompany creates the company and its city location on first
// sight, returning the deterministic company ID.
func (l *Loader) ensureCompany(ctx context.Context, row map[string]string, side string, seenCompanies, seenLocations map[string]bool, result *TransactionsResult) (*string, error) {
	name := row[side+"_company"]
	if name == "" {
		return nil, nil
	}

	code := row[side+"_country_code"]
	id := CompanyID(name, code)

	if !seenCompanies[id] {
		city := row[side+"_city"]
		company := &domain.Company{
			ID:          id,
			Name:        name,
			CountryCode: code,
			CountryName: row[side+"_country_name"],
			City:        city,
			Type:        side,
		}
		if err := l.repo.SaveCompany(ctx, company); err != nil {
			return nil, err
		}
		seenCompanies[id] = true
		result.Companies++

		if city != "" {
			key := "city:" + code + ":" + city
			if !seenLocations[key] {
				loc := &domain.Location{
					ID:          code + "_" + city,
					Type:        "city",
					CountryCode: code,
					CountryName: row[side+"_country_name"],
					City:        &city,
				}
				if err := l.repo.SaveLocation(ctx, loc); err != nil {
					return nil, err
				}
				seenLocations[key] = true
				result.Locations++
			}
		}
	}

	return &id, nil
}

// CompanyID derives the deterministic company identifier from the
// country code and a normalized company name.
func CompanyID(name, countryCode string) string {
	normalized := strings.ToLower(name)
	normalized = strings.ReplaceAll(normalized, " ", "_")
	normalized = strings.ReplaceAll(normalized, ".", "")
	normalized = strings.ReplaceAll(normalized, ",", "")
	normalized = strings.ReplaceAll(normalized, "-", "_")
	if len(normalized) > 30 {
		normalized = normalized[:30]
	}
	return strings.ToLower(countryCode) + "_" + normalized
}

func parseTransactionDate(s string) (time.Time, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "Z")
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// readCSV loads a CSV with a header row into per-row column maps.
func readCSV(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	if len(records) < 1 {
		return nil, nil
	}

	header := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = strings.TrimSpace(rec[i])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func atof(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func atofp(s string) *float64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}
