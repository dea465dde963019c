package domain

// A single PAF delivery point (one address row). Only the columns the
// extraction pipeline reads are modelled; the remaining PAF columns are
// ignored at the source.
type DeliveryPoint struct {
	Postcode         string
	PostTown         string
	Thoroughfare     string
	BuildingNumber   string
	OrganisationName string
	PostcodeType     string
}

// Residential reports whether the delivery point has no organisation
// attached. Business addresses are excluded from extraction.
func (d DeliveryPoint) Residential() bool { return d.OrganisationName == "" }

// SmallUser reports whether the postcode is a small-user postcode
// (PAF postcode type "S"). Large-user postcodes map to a single
// organisation and are excluded.
func (d DeliveryPoint) SmallUser() bool { return d.PostcodeType == "S" }
