package directory

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/Rishika-pasricha/Hack-Hub/internal/models"
)

// Dataset column headers.
const (
	ColDistrict      = "District"
	ColName          = "Municipality_Name"
	ColType          = "Municipality_Type"
	ColArea          = "Area_SqKm"
	ColPopulation    = "Population"
	ColContactEmail  = "Contact_Email"
	ColContactPhone  = "Contact_Phone"
	ColAdminPassword = "Admin_Password"
)

var requiredColumns = []string{
	ColDistrict, ColName, ColType, ColArea, ColPopulation, ColContactEmail, ColContactPhone,
}

var (
	// ErrInvalidDataset wraps every malformed-input failure of ParseDataset.
	ErrInvalidDataset = errors.New("invalid dataset")
	// ErrEmptyDataset is returned when the file has a header but no rows.
	ErrEmptyDataset = fmt.Errorf("%w: no data rows", ErrInvalidDataset)
)

// Row is one usable dataset line. AdminPassword is plaintext and must be
// hashed before it reaches a store.
type Row struct {
	models.Municipality
	AdminPassword string
}

// ParseDataset reads the municipality CSV. Rows without a district, name,
// type or contact email are counted in skipped and left out. Non-numeric
// area and population become zero.
func ParseDataset(r io.Reader) (rows []Row, skipped int, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, 0, ErrEmptyDataset
	}
	if err != nil {
		return nil, 0, fmt.Errorf("%w: read header: %v", ErrInvalidDataset, err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	var missing []string
	for _, c := range requiredColumns {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, 0, fmt.Errorf("%w: missing expected columns: %s", ErrInvalidDataset, strings.Join(missing, ", "))
	}

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("%w: read row: %v", ErrInvalidDataset, err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		field := func(col string) string {
			i, ok := idx[col]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		row := Row{
			Municipality: models.Municipality{
				District:     field(ColDistrict),
				Name:         field(ColName),
				Type:         field(ColType),
				AreaSqKm:     parseFloat(field(ColArea)),
				Population:   int64(parseFloat(field(ColPopulation))),
				ContactEmail: strings.ToLower(field(ColContactEmail)),
				ContactPhone: field(ColContactPhone),
			},
			AdminPassword: field(ColAdminPassword),
		}
		if row.District == "" || row.Name == "" || row.Type == "" || row.ContactEmail == "" {
			skipped++
			continue
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 && skipped == 0 {
		return nil, 0, ErrEmptyDataset
	}
	return rows, skipped, nil
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
