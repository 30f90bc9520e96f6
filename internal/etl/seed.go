package etl

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/supplylens/supplylens/internal/domain"
)

// SeedResult summarizes a synthetic dataset run.
type SeedResult struct {
	Categories   int
	Companies    int
	Locations    int
	Transactions int
	Stats        int
}

var seedCategories = []*domain.Category{
	{ID: "semiconductors", Name: "semiconductors", DisplayName: "Semiconductors", Color: "#3b82f6", SortOrder: 1, IsActive: true},
	{ID: "batteries", Name: "batteries", DisplayName: "Batteries", Color: "#22c55e", SortOrder: 2, IsActive: true},
	{ID: "rare_earths", Name: "rare_earths", DisplayName: "Rare Earths", Color: "#f59e0b", SortOrder: 3, IsActive: true},
	{ID: "polymers", Name: "polymers", DisplayName: "Polymers", Color: "#8b5cf6", SortOrder: 4, IsActive: true},
}

var seedCountries = []struct {
	code, name string
	lat, lng   float64
}{
	{"CN", "China", 39.9042, 116.4074},
	{"US", "United States", 38.9072, -77.0369},
	{"KR", "South Korea", 37.5665, 126.9780},
	{"JP", "Japan", 35.6762, 139.6503},
	{"DE", "Germany", 52.5200, 13.4050},
	{"TW", "Taiwan", 25.0330, 121.5654},
	{"NL", "Netherlands", 52.3676, 4.9041},
}

var seedHSCodes = []string{"854231", "850760", "280530", "390110"}

// Seed populates the store with a deterministic synthetic dataset for
// local development. Reruns converge on the same rows.
func (l *Loader) Seed(ctx context.Context, transactions int) (*SeedResult, error) {
	if err := l.repo.EnsureReportingSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	faker := gofakeit.New(42)
	result := &SeedResult{}

	for _, c := range seedCategories {
		if err := l.repo.SaveCategory(ctx, c); err != nil {
			return result, err
		}
		result.Categories++
	}

	for _, c := range seedCountries {
		loc := &domain.Location{
			ID:          c.code,
			Type:        "country",
			CountryCode: c.code,
			CountryName: c.name,
			Latitude:    c.lat,
			Longitude:   c.lng,
		}
		if err := l.repo.SaveLocation(ctx, loc); err != nil {
			return result, err
		}
		result.Locations++
	}

	type seededCompany struct {
		id      string
		country int
	}
	var companies []seededCompany
	for i := 0; i < 24; i++ {
		ci := faker.IntRange(0, len(seedCountries)-1)
		country := seedCountries[ci]
		name := faker.Company()
		kind := []string{"exporter", "importer", "both"}[i%3]

		company := &domain.Company{
			ID:          CompanyID(name, country.code),
			Name:        name,
			CountryCode: country.code,
			CountryName: country.name,
			City:        faker.City(),
			Type:        kind,
			Industry:    "Electronics",
		}
		if err := l.repo.SaveCompany(ctx, company); err != nil {
			return result, err
		}
		companies = append(companies, seededCompany{id: company.ID, country: ci})
		result.Companies++
	}

	statuses := []string{"completed", "completed", "completed", "in-transit", "pending"}
	for i := 0; i < transactions; i++ {
		exp := companies[faker.IntRange(0, len(companies)-1)]
		imp := companies[faker.IntRange(0, len(companies)-1)]
		for imp.country == exp.country {
			imp = companies[faker.IntRange(0, len(companies)-1)]
		}
		origin := seedCountries[exp.country]
		dest := seedCountries[imp.country]
		category := seedCategories[faker.IntRange(0, len(seedCategories)-1)]

		quantity := float64(faker.IntRange(10, 5000))
		price := faker.Float64Range(1, 400)

		tx := &domain.Transaction{
			ID:                     fmt.Sprintf("seed-tx-%05d", i),
			ExporterCompanyID:      &exp.id,
			ImporterCompanyID:      &imp.id,
			OriginCountryCode:      origin.code,
			OriginCountryName:      origin.name,
			DestinationCountryCode: dest.code,
			DestinationCountryName: dest.name,
			Material:               faker.ProductName(),
			CategoryID:             category.ID,
			Quantity:               quantity,
			Unit:                   "kg",
			Price:                  price,
			TotalValue:             quantity * price,
			TransactionDate:        time.Date(2024, time.Month(faker.IntRange(1, 12)), faker.IntRange(1, 28), 0, 0, 0, 0, time.UTC),
			Status:                 statuses[faker.IntRange(0, len(statuses)-1)],
		}
		if err := l.repo.SaveTransaction(ctx, tx); err != nil {
			return result, err
		}
		result.Transactions++
	}

	// A year of monthly aggregates per HS code and country.
	var stats []*domain.CountryMonthlyTradeStat
	for _, hs := range seedHSCodes {
		for month := 1; month <= 12; month++ {
			for _, c := range seedCountries {
				weight := faker.Float64Range(1e3, 1e6)
				quantity := faker.Float64Range(1e2, 1e5)
				usd := faker.Float64Range(1e4, 1e8)
				count := faker.IntRange(5, 500)

				stats = append(stats, &domain.CountryMonthlyTradeStat{
					ID:             fmt.Sprintf("%s_2024_%02d_%s", hs, month, c.code),
					HSCode:         hs,
					Year:           2024,
					Month:          month,
					CountryCode:    c.code,
					Industry:       industryForHS(hs),
					Weight:         &weight,
					Quantity:       &quantity,
					SumOfUSD:       &usd,
					TradeCount:     &count,
					AmountSharePct: faker.Float64Range(0, 1),
				})
			}
		}
	}
	n, err := l.repo.UpsertMonthlyStats(ctx, stats)
	result.Stats = n
	if err != nil {
		return result, err
	}

	return result, nil
}

func industryForHS(hs string) string {
	if strings.HasPrefix(hs, "85") {
		return "SemiConductor"
	}
	return "Chemical"
}
