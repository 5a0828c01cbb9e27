package catalogs

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
)

var (
	ErrMissingColumn = errors.New("missing column")
	ErrEmptyTable    = errors.New("table has no rows")
	ErrBadValue      = errors.New("bad value")
)

// DataLoadError reports a reference table that could not be read or parsed.
// Line and Column are set when the failure is tied to a cell.
type DataLoadError struct {
	Table  string
	Path   string
	Line   int
	Column string
	Err    error
}

func (e *DataLoadError) Error() string {
	var b strings.Builder
	b.WriteString(e.Table)
	if e.Line > 0 {
		fmt.Fprintf(&b, ":%d", e.Line)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, " column %q", e.Column)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *DataLoadError) Unwrap() error { return e.Err }

type column struct {
	name     string
	optional bool
}

var (
	traitColumns = []column{
		{name: "name"}, {name: "value_mod"}, {name: "weight"}, {name: "ex_pool", optional: true},
	}
	containerColumns = []column{
		{name: "name"}, {name: "value_mod"}, {name: "weight"}, {name: "oz"},
	}
	gemTypeColumns = []column{
		{name: "name"}, {name: "value_min"}, {name: "value_max"}, {name: "value_category"}, {name: "weight"},
	}
	gemAttributeColumns = []column{
		{name: "name"}, {name: "value_category_delta"}, {name: "weight"},
	}
)

// row is one CSV record with cells addressed by header name.
type row struct {
	index  map[string]int
	fields []string
}

// cellError carries the failing column up to loadTable, which adds the table context.
type cellError struct {
	column string
	err    error
}

func (e *cellError) Error() string { return e.err.Error() }
func (e *cellError) Unwrap() error { return e.err }

func (r row) str(col string) string {
	i, ok := r.index[col]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

func (r row) float(col string) (float64, error) {
	v, err := strconv.ParseFloat(r.str(col), 64)
	if err != nil {
		return 0, &cellError{column: col, err: fmt.Errorf("%w: %q is not a number", ErrBadValue, r.str(col))}
	}
	return v, nil
}

func (r row) integer(col string) (int, error) {
	v, err := strconv.Atoi(r.str(col))
	if err != nil {
		return 0, &cellError{column: col, err: fmt.Errorf("%w: %q is not an integer", ErrBadValue, r.str(col))}
	}
	return v, nil
}

func (r row) name() (string, error) {
	n := r.str("name")
	if n == "" {
		return "", &cellError{column: "name", err: fmt.Errorf("%w: empty name", ErrBadValue)}
	}
	return n, nil
}

func (r row) weight() (float64, error) {
	w, err := r.float("weight")
	if err != nil {
		return 0, err
	}
	if w < 0 {
		return 0, &cellError{column: "weight", err: fmt.Errorf("%w: negative weight %v", ErrBadValue, w)}
	}
	return w, nil
}

func loadTable[T any](path string, cols []column, parse func(row) (T, error)) (Table[T], error) {
	name := filepath.Base(path)
	t := Table[T]{Name: name, Path: path}
	fail := func(line int, col string, err error) (Table[T], error) {
		return t, &DataLoadError{Table: name, Path: path, Line: line, Column: col, Err: err}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fail(0, "", err)
	}
	t.Digest = sha256Hex(raw)

	cr := csv.NewReader(bytes.NewReader(raw))
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err == io.EOF {
		return fail(0, "", ErrEmptyTable)
	}
	if err != nil {
		return fail(0, "", err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, c := range cols {
		if _, ok := index[c.name]; ok || c.optional {
			continue
		}
		err := ErrMissingColumn
		if s := suggest(c.name, index); s != "" {
			err = fmt.Errorf("%w (did you mean %q?)", ErrMissingColumn, s)
		}
		return fail(1, c.name, err)
	}

	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return fail(pe.Line, "", pe.Err)
			}
			return fail(0, "", err)
		}
		line, _ := cr.FieldPos(0)
		v, err := parse(row{index: index, fields: fields})
		if err != nil {
			var ce *cellError
			if errors.As(err, &ce) {
				return fail(line, ce.column, ce.err)
			}
			return fail(line, "", err)
		}
		t.Rows = append(t.Rows, v)
	}
	if len(t.Rows) == 0 {
		return fail(0, "", ErrEmptyTable)
	}
	return t, nil
}

// suggest returns the header closest to want, or "" if nothing is near.
func suggest(want string, index map[string]int) string {
	headers := make([]string, 0, len(index))
	for h := range index {
		headers = append(headers, h)
	}
	sort.Strings(headers)
	best, bestDist := "", -1
	for _, h := range headers {
		d := levenshtein.ComputeDistance(want, h)
		if d > suggestLimit(len(want)) {
			continue
		}
		if bestDist < 0 || d < bestDist {
			best, bestDist = h, d
		}
	}
	return best
}

func suggestLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}

func parseTrait(r row) (Trait, error) {
	var t Trait
	var err error
	if t.Name, err = r.name(); err != nil {
		return t, err
	}
	if t.ValueMod, err = r.float("value_mod"); err != nil {
		return t, err
	}
	if t.Weight, err = r.weight(); err != nil {
		return t, err
	}
	t.ExPool = r.str("ex_pool")
	return t, nil
}

func parseContainer(r row) (LiquidContainer, error) {
	var c LiquidContainer
	var err error
	if c.Name, err = r.name(); err != nil {
		return c, err
	}
	if c.ValueMod, err = r.float("value_mod"); err != nil {
		return c, err
	}
	if c.Weight, err = r.weight(); err != nil {
		return c, err
	}
	if c.Oz, err = r.integer("oz"); err != nil {
		return c, err
	}
	return c, nil
}

func parseGemType(r row) (GemType, error) {
	var g GemType
	var err error
	if g.Name, err = r.name(); err != nil {
		return g, err
	}
	if g.ValueMin, err = r.integer("value_min"); err != nil {
		return g, err
	}
	if g.ValueMax, err = r.integer("value_max"); err != nil {
		return g, err
	}
	if g.ValueCategory, err = r.integer("value_category"); err != nil {
		return g, err
	}
	if g.Weight, err = r.weight(); err != nil {
		return g, err
	}
	return g, nil
}

func parseGemAttribute(r row) (GemAttribute, error) {
	var a GemAttribute
	var err error
	if a.Name, err = r.name(); err != nil {
		return a, err
	}
	if a.ValueCategoryDelta, err = r.integer("value_category_delta"); err != nil {
		return a, err
	}
	if a.Weight, err = r.weight(); err != nil {
		return a, err
	}
	return a, nil
}
