package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// Outward codes are one or two area letters, a district digit, and an
// optional trailing digit or letter (CV1, BT48, EC1A). Inward codes are
// always one digit followed by two letters.
var (
	outwardPattern = regexp.MustCompile(`^[A-Z]{1,2}[0-9][A-Z0-9]?$`)
	inwardPattern  = regexp.MustCompile(`^[0-9][A-Z]{2}$`)
	districtPrefix = regexp.MustCompile(`^([A-Z]{1,2}[0-9][A-Z0-9]?)`)
	areaLetters    = regexp.MustCompile(`^[A-Z]{1,2}`)
)

// A full UK postcode in canonical form: uppercase, with exactly one space
// between the outward and inward codes (e.g. "CV1 2AB"). The zero value is
// not a valid postcode; construct via ParsePostcode.
type Postcode struct {
	outward string
	inward  string
}

// InvalidPostcodeError reports input that cannot be normalized into a
// canonical postcode. The raw input is preserved for user-facing messages.
type InvalidPostcodeError struct {
	Raw string
}

func (e *InvalidPostcodeError) Error() string {
	return fmt.Sprintf("invalid postcode %q", e.Raw)
}

// ParsePostcode normalizes raw input into a canonical Postcode.
//
// Normalization uppercases, strips all whitespace, and re-inserts the single
// canonical space before the 3-character inward code. Parsing an already
// canonical postcode returns it unchanged, so normalization is idempotent.
func ParsePostcode(raw string) (Postcode, error) {
	compact := strings.ToUpper(strings.Join(strings.Fields(raw), ""))

	// The inward code is always the final three characters; valid compact
	// postcodes are between 5 and 7 characters long.
	if len(compact) < 5 || len(compact) > 7 {
		return Postcode{}, &InvalidPostcodeError{Raw: raw}
	}

	outward := compact[:len(compact)-3]
	inward := compact[len(compact)-3:]

	if !outwardPattern.MatchString(outward) || !inwardPattern.MatchString(inward) {
		return Postcode{}, &InvalidPostcodeError{Raw: raw}
	}

	return Postcode{outward: outward, inward: inward}, nil
}

// String returns the canonical form, or "" for the zero value.
func (p Postcode) String() string {
	if p.outward == "" {
		return ""
	}
	return p.outward + " " + p.inward
}

// Outward returns the outward code (the postcode district, e.g. "CV1").
func (p Postcode) Outward() string { return p.outward }

// Inward returns the inward code (e.g. "2AB").
func (p Postcode) Inward() string { return p.inward }

// District returns the postcode district this postcode belongs to.
func (p Postcode) District() District { return District{code: p.outward} }

// IsZero reports whether p is the zero value rather than a parsed postcode.
func (p Postcode) IsZero() bool { return p.outward == "" }

// A validated postcode district (outward code), e.g. "CV1" or "BT48".
type District struct {
	code string
}

// ParseDistrict normalizes and validates a single district string.
func ParseDistrict(raw string) (District, error) {
	code := strings.ToUpper(strings.Join(strings.Fields(raw), ""))
	if !outwardPattern.MatchString(code) {
		return District{}, fmt.Errorf("invalid postcode district %q", raw)
	}
	return District{code: code}, nil
}

// ParseDistricts splits comma- or space-separated district input, validates
// each entry, and returns the districts deduplicated in input order.
func ParseDistricts(raw string) ([]District, error) {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(fields) == 0 {
		return nil, fmt.Errorf("no postcode districts given")
	}

	seen := make(map[string]struct{}, len(fields))
	out := make([]District, 0, len(fields))
	for _, f := range fields {
		d, err := ParseDistrict(f)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[d.code]; ok {
			continue
		}
		seen[d.code] = struct{}{}
		out = append(out, d)
	}

	return out, nil
}

func (d District) String() string { return d.code }

// Area returns the leading letters of the district (e.g. "BT" for "BT48").
// ONS data files are named per area.
func (d District) Area() string { return areaLetters.FindString(d.code) }

// DistrictOf extracts the district prefix from a raw postcode field without
// requiring the rest of the field to be valid. Used when filtering data rows
// whose postcode column may be padded or partial.
func DistrictOf(field string) (District, bool) {
	m := districtPrefix.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(field)))
	if m == nil {
		return District{}, false
	}
	return District{code: m[1]}, true
}

// DistrictSet answers membership queries for a fixed set of districts.
type DistrictSet map[string]struct{}

func NewDistrictSet(districts []District) DistrictSet {
	s := make(DistrictSet, len(districts))
	for _, d := range districts {
		s[d.code] = struct{}{}
	}
	return s
}

// Contains reports whether the district prefix of the given raw postcode
// field is one of the wanted districts.
func (s DistrictSet) Contains(field string) bool {
	d, ok := DistrictOf(field)
	if !ok {
		return false
	}
	_, ok = s[d.code]
	return ok
}
