package importer

import (
	"strings"

	"github.com/straye-as/renewal-api/internal/domain"
)

// Sheet column layout. Spreadsheets from the municipality always use this
// fixed order regardless of the header text.
const (
	colComplex    = 0
	colSubComplex = 1
	colStreet     = 2
	colHouse      = 3
	colApartment  = 4
	colName       = 5
	colIDNumber   = 6
	colPhone      = 7
	colWarning    = 12
)

const (
	nameHeaderMarker      = "שם"
	secondaryHeaderMarker = "שם בעל"
	// DefaultComplexName is used until a sheet names a complex
	DefaultComplexName = "כללי"
	headerScanRows     = 20
)

// Row is one normalized owner line after carry-forward
type Row struct {
	Line        int
	Complex     string
	Street      string
	House       string
	Apartment   string
	Name        string
	IDNumber    string
	Phone       string
	WarningNote string
	// Unknown is set when the name was blank and replaced by the sentinel
	Unknown bool
}

// Key is the synthetic unit key stored in sub_parcel
func (r Row) Key() string {
	return r.Street + "_" + r.House + "_" + r.Apartment
}

// Address is the building address residents are grouped by
func (r Row) Address() string {
	return r.Street + " " + r.House
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func cleanNumber(v string) string {
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), ".0"))
}

// NormalizePhone keeps digits only and restores a dropped leading zero
func NormalizePhone(v string) string {
	var b strings.Builder
	for _, r := range v {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	phone := b.String()
	if len(phone) >= 9 && !strings.HasPrefix(phone, "0") {
		phone = "0" + phone
	}
	return phone
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func headerRow(rows [][]string) int {
	limit := len(rows)
	if limit > headerScanRows {
		limit = headerScanRows
	}
	for i := 0; i < limit; i++ {
		for _, c := range rows[i] {
			if strings.Contains(c, nameHeaderMarker) {
				return i
			}
		}
	}
	return 0
}

// ParseSheet turns raw sheet rows into owner rows. It also returns every
// complex name encountered, in first-seen order, including complexes of rows
// that were later skipped for lacking both name and street.
func ParseSheet(rows [][]string) ([]Row, []string) {
	if len(rows) < 2 {
		return nil, nil
	}

	var (
		out       []Row
		complexes []string
		seen      = map[string]bool{}
		street    string
		house     string
		apartment string
		complex   string
	)

	for i := headerRow(rows) + 1; i < len(rows); i++ {
		r := rows[i]
		if blankRow(r) {
			continue
		}

		name := cell(r, colName)
		if strings.Contains(name, secondaryHeaderMarker) {
			continue
		}

		if v := cell(r, colStreet); v != "" {
			street = v
		}
		if v := cleanNumber(cell(r, colHouse)); v != "" {
			house = v
		}
		if v := cleanNumber(cell(r, colApartment)); v != "" {
			apartment = v
		}
		if v := cell(r, colComplex); v != "" {
			complex = v
		} else if complex == "" {
			complex = DefaultComplexName
		}

		if !seen[complex] {
			seen[complex] = true
			complexes = append(complexes, complex)
		}
		if name == "" && street == "" {
			continue
		}

		row := Row{
			Line:        i + 1,
			Complex:     complex,
			Street:      street,
			House:       house,
			Apartment:   apartment,
			Name:        name,
			IDNumber:    cell(r, colIDNumber),
			Phone:       NormalizePhone(cell(r, colPhone)),
			WarningNote: cell(r, colWarning),
		}
		if row.Name == "" {
			row.Name = domain.UnknownOccupantName
			row.Unknown = true
		}
		out = append(out, row)
	}
	return out, complexes
}
