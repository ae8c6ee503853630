package regions

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/meridianlabs/storefront-api/pkg/db/models"
	"github.com/meridianlabs/storefront-api/pkg/enums"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupRegionTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	regions := `
CREATE TABLE IF NOT EXISTS regions (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  currency_code TEXT NOT NULL,
  is_default INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	countries := `
CREATE TABLE IF NOT EXISTS region_countries (
  id TEXT PRIMARY KEY,
  region_id TEXT NOT NULL,
  country_code TEXT NOT NULL,
  display_name TEXT NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(regions).Error)
	require.NoError(t, db.Exec(countries).Error)
	return db
}

func seedRegions(t *testing.T, db *gorm.DB) (models.Region, models.Region) {
	t.Helper()

	uk := models.Region{
		ID:           uuid.New(),
		Name:         "United Kingdom",
		CurrencyCode: enums.CurrencyGBP,
		IsDefault:    true,
	}
	europe := models.Region{
		ID:           uuid.New(),
		Name:         "Europe",
		CurrencyCode: enums.CurrencyEUR,
	}
	require.NoError(t, db.Create(&uk).Error)
	require.NoError(t, db.Create(&europe).Error)
	require.NoError(t, db.Create(&models.RegionCountry{
		ID: uuid.New(), RegionID: uk.ID, CountryCode: "gb", DisplayName: "United Kingdom",
	}).Error)
	require.NoError(t, db.Create(&models.RegionCountry{
		ID: uuid.New(), RegionID: europe.ID, CountryCode: "de", DisplayName: "Germany",
	}).Error)
	return uk, europe
}

func TestRegionForCountry(t *testing.T) {
	db := setupRegionTestDB(t)
	uk, europe := seedRegions(t, db)

	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)

	got, err := svc.RegionForCountry(context.Background(), "DE")
	require.NoError(t, err)
	require.Equal(t, europe.ID, got.ID)

	got, err = svc.RegionForCountry(context.Background(), "gb")
	require.NoError(t, err)
	require.Equal(t, uk.ID, got.ID)
}

func TestRegionForCountryFallsBackToDefault(t *testing.T) {
	db := setupRegionTestDB(t)
	uk, _ := seedRegions(t, db)

	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)

	got, err := svc.RegionForCountry(context.Background(), "jp")
	require.NoError(t, err)
	require.Equal(t, uk.ID, got.ID)
}

func TestListRegionsPreloadsCountries(t *testing.T) {
	db := setupRegionTestDB(t)
	seedRegions(t, db)

	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)

	rows, err := svc.ListRegions(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, region := range rows {
		require.NotEmpty(t, region.Countries)
	}
}
