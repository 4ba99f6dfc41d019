// Package source loads segment attribute tables from CSV files.
//
// The topology core consumes tables through package network; this package
// is the boundary collaborator that turns a CSV file into one. Parsing is
// strict where the graph depends on it - segment ids and downstream
// references must be integers - and permissive everywhere else: auxiliary
// numeric columns are carried through as attributes, non-numeric columns
// are ignored.
package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/matzehuels/tailwater/pkg/errors"
	"github.com/matzehuels/tailwater/pkg/network"
)

// Default column names, matching common NHDPlus-derived exports.
const (
	DefaultIDColumn         = "id"
	DefaultDownstreamColumn = "to"
)

// Options configures CSV parsing.
type Options struct {
	// IDColumn is the header name of the segment id column.
	// Defaults to "id".
	IDColumn string

	// DownstreamColumn is the header name of the downstream reference
	// column. Defaults to "to".
	DownstreamColumn string
}

func (o *Options) setDefaults() {
	if o.IDColumn == "" {
		o.IDColumn = DefaultIDColumn
	}
	if o.DownstreamColumn == "" {
		o.DownstreamColumn = DefaultDownstreamColumn
	}
}

// LoadTable reads a segment attribute table from a CSV file.
func LoadTable(path string, opts Options) (*network.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open table %s", path)
	}
	defer f.Close()
	return ReadTable(f, opts)
}

// ReadTable reads a segment attribute table from CSV data.
//
// The first record is the header. The id and downstream columns must parse
// as integers in every row; a failure is a DATA_FORMAT error identifying
// the row, and no table is returned. Other columns are parsed as float64
// attribute columns; a column with any unparsable value is dropped
// entirely (attributes are pass-through, never interpreted).
func ReadTable(r io.Reader, opts Options) (*network.Table, error) {
	opts.setDefaults()
	if err := errors.ValidateColumnName(opts.IDColumn); err != nil {
		return nil, err
	}
	if err := errors.ValidateColumnName(opts.DownstreamColumn); err != nil {
		return nil, err
	}

	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataFormat, err, "read header")
	}

	idCol, downCol := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case opts.IDColumn:
			idCol = i
		case opts.DownstreamColumn:
			downCol = i
		}
	}
	if idCol < 0 {
		return nil, errors.New(errors.ErrCodeInvalidColumn, "id column %q not in header", opts.IDColumn)
	}
	if downCol < 0 {
		return nil, errors.New(errors.ErrCodeInvalidColumn, "downstream column %q not in header", opts.DownstreamColumn)
	}

	var (
		ids     []network.SegmentID
		downs   []network.SegmentID
		attrs   = make(map[int][]float64)
		dropped = make(map[int]bool)
	)
	for i := range header {
		if i != idCol && i != downCol {
			attrs[i] = nil
		}
	}

	row := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeDataFormat, err, "read row %d", row)
		}
		row++

		id, err := parseSegment(record[idCol])
		if err != nil {
			return nil, errors.New(errors.ErrCodeDataFormat,
				"row %d: id %q is not an integer", row, record[idCol])
		}
		to, err := parseSegment(record[downCol])
		if err != nil {
			return nil, errors.New(errors.ErrCodeDataFormat,
				"row %d: downstream reference %q is not an integer", row, record[downCol])
		}
		ids = append(ids, id)
		downs = append(downs, to)

		for col := range attrs {
			if dropped[col] {
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(record[col]), 64)
			if err != nil {
				dropped[col] = true
				continue
			}
			attrs[col] = append(attrs[col], v)
		}
	}

	table, err := network.NewTable(ids, downs)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataFormat, err, "build table")
	}
	for col, values := range attrs {
		if dropped[col] || len(values) != table.Len() {
			continue
		}
		if err := table.SetAttr(strings.TrimSpace(header[col]), values); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "attach attribute %q", header[col])
		}
	}
	return table, nil
}

func parseSegment(s string) (network.SegmentID, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse segment id: %w", err)
	}
	return network.SegmentID(v), nil
}
