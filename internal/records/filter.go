package records

import (
	"fmt"
	"strings"
)

// SetFilter narrows ListSets. Zero values match everything.
type SetFilter struct {
	Statuses      []Status
	StudyCenterID *int64
}

// ParseStatuses splits a comma list such as "draft,pending". Blank items
// are dropped; unknown ones are an error.
func ParseStatuses(s string) ([]Status, error) {
	var out []Status
	for _, p := range strings.Split(s, ",") {
		t := Status(strings.TrimSpace(p))
		if t == "" {
			continue
		}
		if !t.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, t)
		}
		out = append(out, t)
	}
	return out, nil
}

// where renders the filter as a SQL condition with positional args.
func (f SetFilter) where() (string, []any) {
	conds := []string{"active = TRUE"}
	var args []any

	if len(f.Statuses) > 0 {
		ph := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			args = append(args, string(s))
			ph[i] = fmt.Sprintf("$%d", len(args))
		}
		conds = append(conds, "status IN ("+strings.Join(ph, ", ")+")")
	}
	if f.StudyCenterID != nil {
		args = append(args, *f.StudyCenterID)
		conds = append(conds, fmt.Sprintf("study_center_id = $%d", len(args)))
	}
	return strings.Join(conds, " AND "), args
}
