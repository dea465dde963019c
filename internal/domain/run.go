package domain

import "time"

// A postcode that was counted and successfully resolved to coordinates.
type LocatedPostcode struct {
	Postcode     Postcode
	AddressCount int
	Coordinates  Coordinates
}

// A postcode that was counted but could not be resolved by any source.
type UnlocatedPostcode struct {
	Postcode    Postcode
	Occurrences int
}

// RunResult is the outcome of one extraction run. It is immutable output
// data: built once by the pipeline, then handed to exporters. Located and
// Unlocated are sorted by postcode so outputs are deterministic.
type RunResult struct {
	RunID       string
	Districts   []District
	GeneratedAt time.Time
	Located     []LocatedPostcode
	Unlocated   []UnlocatedPostcode
	RowsScanned int64
	RowsCounted int64
	Rejected    int64
}

// DistrictLabel joins the run's districts into the label used in output
// file names (e.g. "BT1BT2").
func (r *RunResult) DistrictLabel() string {
	label := ""
	for _, d := range r.Districts {
		label += d.String()
	}
	return label
}
