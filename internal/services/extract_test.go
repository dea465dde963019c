package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/marmstr93ng/PostcodeParse/internal/adapters/geocode"
	"github.com/marmstr93ng/PostcodeParse/internal/domain"
	"github.com/marmstr93ng/PostcodeParse/internal/platform/progress"
)

// memSource serves delivery points from a slice.
type memSource struct {
	points []domain.DeliveryPoint
}

func (s *memSource) Count(ctx context.Context) (int64, error) {
	return int64(len(s.points)), nil
}

func (s *memSource) Scan(ctx context.Context, fn func(domain.DeliveryPoint) error) error {
	for _, dp := range s.points {
		if err := fn(dp); err != nil {
			return err
		}
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustPostcode(t *testing.T, raw string) domain.Postcode {
	t.Helper()
	p, err := domain.ParsePostcode(raw)
	if err != nil {
		t.Fatalf("ParsePostcode(%q): %v", raw, err)
	}
	return p
}

func mustDistricts(t *testing.T, raw string) []domain.District {
	t.Helper()
	ds, err := domain.ParseDistricts(raw)
	if err != nil {
		t.Fatalf("ParseDistricts(%q): %v", raw, err)
	}
	return ds
}

func TestExtractTalliesAndLocates(t *testing.T) {
	source := &memSource{points: []domain.DeliveryPoint{
		{Postcode: "BT1 1AA", PostcodeType: "S"},
		{Postcode: "BT1 1AA", PostcodeType: "S"},
		{Postcode: "BT1 1AA", PostcodeType: "S"},
		{Postcode: "BT1 2BB", PostcodeType: "S"},
		// business address: excluded
		{Postcode: "BT1 1AA", PostcodeType: "S", OrganisationName: "ACME LTD"},
		// large-user postcode: excluded
		{Postcode: "BT1 3CC", PostcodeType: "L"},
		// different district: excluded
		{Postcode: "BT2 1AA", PostcodeType: "S"},
		// matches the district filter but cannot be normalized
		{Postcode: "BT1 9ZZZZ", PostcodeType: "S"},
	}}

	locator := geocode.NewMockLocator(map[domain.Postcode]domain.Coordinates{
		mustPostcode(t, "BT1 1AA"): {Lat: 54.6, Lon: -5.93},
	})

	run, err := Extract(context.Background(), ExtractRequest{
		RunID:     "run-1",
		Districts: mustDistricts(t, "BT1"),
	}, source, locator, progress.Noop{}, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if run.RowsScanned != 8 {
		t.Errorf("RowsScanned = %d, want 8", run.RowsScanned)
	}
	if run.RowsCounted != 4 {
		t.Errorf("RowsCounted = %d, want 4", run.RowsCounted)
	}
	if run.Rejected != 1 {
		t.Errorf("Rejected = %d, want 1", run.Rejected)
	}

	if len(run.Located) != 1 {
		t.Fatalf("located = %d, want 1", len(run.Located))
	}
	if got := run.Located[0]; got.Postcode.String() != "BT1 1AA" || got.AddressCount != 3 {
		t.Errorf("located[0] = %v/%d, want BT1 1AA/3", got.Postcode, got.AddressCount)
	}

	if len(run.Unlocated) != 1 {
		t.Fatalf("unlocated = %d, want 1", len(run.Unlocated))
	}
	if got := run.Unlocated[0]; got.Postcode.String() != "BT1 2BB" || got.Occurrences != 1 {
		t.Errorf("unlocated[0] = %v/%d, want BT1 2BB/1", got.Postcode, got.Occurrences)
	}
}

func TestExtractDeterministicOrder(t *testing.T) {
	source := &memSource{points: []domain.DeliveryPoint{
		{Postcode: "BT1 9ZZ", PostcodeType: "S"},
		{Postcode: "BT1 1AA", PostcodeType: "S"},
		{Postcode: "BT1 5FF", PostcodeType: "S"},
	}}

	locator := geocode.NewMockLocator(map[domain.Postcode]domain.Coordinates{
		mustPostcode(t, "BT1 9ZZ"): {Lat: 1, Lon: 1},
		mustPostcode(t, "BT1 1AA"): {Lat: 2, Lon: 2},
		mustPostcode(t, "BT1 5FF"): {Lat: 3, Lon: 3},
	})

	run, err := Extract(context.Background(), ExtractRequest{
		RunID:     "run-2",
		Districts: mustDistricts(t, "BT1"),
	}, source, locator, progress.Noop{}, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"BT1 1AA", "BT1 5FF", "BT1 9ZZ"}
	if len(run.Located) != len(want) {
		t.Fatalf("located = %d, want %d", len(run.Located), len(want))
	}
	for i, w := range want {
		if got := run.Located[i].Postcode.String(); got != w {
			t.Errorf("located[%d] = %q, want %q", i, got, w)
		}
	}
}

func TestExtractRequiresDistricts(t *testing.T) {
	_, err := Extract(context.Background(), ExtractRequest{RunID: "run-3"},
		&memSource{}, geocode.NewMockLocator(nil), progress.Noop{}, discardLogger())
	if err == nil {
		t.Fatal("expected error for empty district list")
	}
}
