package source

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/matzehuels/tailwater/pkg/errors"
	"github.com/matzehuels/tailwater/pkg/network"
)

// Mask is the set of segment ids a run is restricted to.
type Mask map[network.SegmentID]bool

// LoadMask reads a domain mask from a CSV file. The file carries one
// segment id per row in the named column (first column when name is
// empty, header optional in that case).
func LoadMask(path, column string) (Mask, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open mask %s", path)
	}
	defer f.Close()
	return ReadMask(f, column)
}

// ReadMask reads a domain mask from CSV data.
func ReadMask(r io.Reader, column string) (Mask, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	col := 0
	row := 0
	if column != "" {
		if err := errors.ValidateColumnName(column); err != nil {
			return nil, err
		}
		header, err := cr.Read()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeDataFormat, err, "read mask header")
		}
		row = 1
		col = -1
		for i, name := range header {
			if strings.TrimSpace(name) == column {
				col = i
				break
			}
		}
		if col < 0 {
			return nil, errors.New(errors.ErrCodeInvalidColumn, "mask column %q not in header", column)
		}
	}

	mask := make(Mask)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeDataFormat, err, "read mask row %d", row)
		}
		row++

		field := strings.TrimSpace(record[col])
		if row == 1 && column == "" {
			// Headerless mode tolerates a header row as long as the
			// remaining rows parse.
			if _, err := parseSegment(field); err != nil {
				continue
			}
		}
		id, err := parseSegment(field)
		if err != nil {
			return nil, errors.New(errors.ErrCodeDataFormat,
				"mask row %d: segment id %q is not an integer", row, field)
		}
		mask[id] = true
	}
	return mask, nil
}

// Apply restricts a table to the masked segments, preserving row order.
// An empty or nil mask leaves the table untouched.
func (m Mask) Apply(t *network.Table) *network.Table {
	if len(m) == 0 {
		return t
	}
	return t.Filter(func(row int) bool {
		return m[t.ID(row)]
	})
}
