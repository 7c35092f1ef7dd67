package records

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

var birthdateLayouts = []string{"2006-01-02", "02.01.2006", "02/01/2006"}

// LoadNamesCSV reads a holder roster. The header must contain a name column;
// contact_number, birthdate and social_status are optional. Rows without a
// name are skipped.
func LoadNamesCSV(path string) ([]Holder, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fp.Close()

	hs, err := readRoster(fp)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return hs, nil
}

func readRoster(src io.Reader) ([]Holder, error) {
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) < 1 {
		return nil, fmt.Errorf("csv has no header")
	}

	cols := map[string]int{}
	for i, h := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	if _, ok := cols["name"]; !ok {
		return nil, fmt.Errorf("csv has no name column")
	}

	get := func(row []string, name string) string {
		if idx, ok := cols[name]; ok && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	out := []Holder{}
	for n, row := range rows[1:] {
		h := Holder{Name: get(row, "name")}
		if h.Name == "" {
			continue
		}
		if v := get(row, "contact_number"); v != "" {
			h.ContactNumber = &v
		}
		if v := get(row, "social_status"); v != "" {
			h.SocialStatus = &v
		}
		if v := get(row, "birthdate"); v != "" {
			d, err := parseBirthdate(v)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", n+2, err)
			}
			h.Birthdate = &d
		}
		out = append(out, h)
	}
	return out, nil
}

func parseBirthdate(s string) (time.Time, error) {
	for _, layout := range birthdateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid birthdate %q", s)
}
