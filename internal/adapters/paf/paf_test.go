package paf

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marmstr93ng/PostcodeParse/internal/domain"
	"github.com/marmstr93ng/PostcodeParse/internal/platform/progress"
)

// pafRow builds a full-width PAF row with the given key columns set.
func pafRow(postcode, organisation, postcodeType string) []string {
	row := make([]string, 16)
	row[colPostcode] = postcode
	row[colPostTown] = "BELFAST"
	row[colThoroughfare] = "HIGH STREET"
	row[colBuildingNumber] = "1"
	row[colOrganisationName] = organisation
	row[colPostcodeType] = postcodeType
	return row
}

func writeCSV(t *testing.T, path string, rows [][]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	w := csv.NewWriter(f)
	require.NoError(t, w.WriteAll(rows))
	require.NoError(t, f.Close())
}

func mustDistrictSet(t *testing.T, raw string) domain.DistrictSet {
	t.Helper()
	ds, err := domain.ParseDistricts(raw)
	require.NoError(t, err)
	return domain.NewDistrictSet(ds)
}

func TestTrimKeepsOnlyWantedDistricts(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "PAF.csv")
	writeCSV(t, src, [][]string{
		pafRow("BT1 1AA", "", "S"),
		pafRow("BT2 1AA", "", "S"),
		pafRow("BT1 2BB", "SHOP LTD", "S"),
		pafRow("CV1 2AB", "", "S"),
	})

	trimmed, err := Trim(context.Background(), src, dir, mustDistrictSet(t, "BT1"), progress.Noop{})
	require.NoError(t, err)

	f, err := os.Open(trimmed)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	// Trimming filters on district only; business rows survive until the
	// aggregation stage.
	require.Len(t, rows, 2)
	require.Equal(t, "BT1 1AA", rows[0][colPostcode])
	require.Equal(t, "BT1 2BB", rows[1][colPostcode])
}

func TestTrimFailsWhenNothingMatches(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "PAF.csv")
	writeCSV(t, src, [][]string{pafRow("CV1 2AB", "", "S")})

	_, err := Trim(context.Background(), src, dir, mustDistrictSet(t, "BT1"), progress.Noop{})
	require.Error(t, err)
}

func TestSourceScan(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trimmed.csv")
	writeCSV(t, path, [][]string{
		pafRow("BT1 1AA", "", "S"),
		pafRow("BT1 2BB", "ACME LTD", "L"),
		{"BT1 3CC"}, // short row: skipped
	})

	source := NewSource(path)

	n, err := source.Count(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 3, n)

	var got []domain.DeliveryPoint
	require.NoError(t, source.Scan(context.Background(), func(dp domain.DeliveryPoint) error {
		got = append(got, dp)
		return nil
	}))

	require.Len(t, got, 2)
	require.Equal(t, "BT1 1AA", got[0].Postcode)
	require.True(t, got[0].Residential())
	require.True(t, got[0].SmallUser())
	require.Equal(t, "ACME LTD", got[1].OrganisationName)
	require.False(t, got[1].Residential())
	require.False(t, got[1].SmallUser())
}
