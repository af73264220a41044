// Package guide loads the data guide and tag mapping tables.
package guide

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kilianp07/ppmsim/core/model"
)

// Column names of the data guide table, compared case-insensitively.
const (
	ColName            = "name"
	ColHierarchy       = "hierarchy"
	ColPlannedQuantity = "planned_quantity"
	ColDuration        = "duration_hrs"
	ColType            = "type"
	ColFrequency       = "frequency"
	ColActualQuantity  = "actual quant"
	ColRejectPerHour   = "reject_per_hr"
	ColTotalUnits      = "total_units"

	ColTagProduced = "total_produced_units"
	ColTagReject   = "reject_units"
)

var requiredColumns = []string{ColName, ColHierarchy, ColPlannedQuantity, ColDuration, ColType}

// ErrEmptyTable is returned when a sheet is missing or has no data rows.
var ErrEmptyTable = errors.New("table is empty or missing")

// Config locates the guide source.
type Config struct {
	// Path is an .xlsx workbook or a .csv guide table.
	Path       string `json:"path"`
	GuideSheet string `json:"guide_sheet"`
	TagsSheet  string `json:"tags_sheet"`
	// Tags is used for CSV guides, which carry no tag sheet.
	Tags model.Tags `json:"tags"`
}

// SetDefaults fills the sheet names.
func (c *Config) SetDefaults() {
	if c.GuideSheet == "" {
		c.GuideSheet = "data_guide"
	}
	if c.TagsSheet == "" {
		c.TagsSheet = "tags"
	}
}

// Validate checks the path and, for CSV guides, the tag ids.
func (c Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("guide path is required")
	}
	if isCSV(c.Path) && (c.Tags.Produced == "" || c.Tags.Reject == "") {
		return fmt.Errorf("guide tags are required for csv guides")
	}
	return nil
}

func isCSV(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".csv")
}

// Load reads the guide described by cfg.
func Load(cfg Config) (model.Guide, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return model.Guide{}, err
	}
	if isCSV(cfg.Path) {
		rows, err := LoadCSV(cfg.Path)
		if err != nil {
			return model.Guide{}, err
		}
		return model.Guide{Rows: rows, Tags: cfg.Tags}, nil
	}
	return LoadWorkbook(cfg.Path, cfg.GuideSheet, cfg.TagsSheet)
}

type header map[string]int

func newHeader(cells []string) header {
	h := header{}
	for i, c := range cells {
		key := strings.ToLower(strings.TrimSpace(c))
		if _, dup := h[key]; !dup {
			h[key] = i
		}
	}
	return h
}

func (h header) require(cols ...string) error {
	var missing []string
	for _, c := range cols {
		if _, ok := h[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (h header) get(record []string, col string) string {
	i, ok := h[col]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// parseGuide converts a header row and data records into guide rows. Rows
// with malformed cells are returned with Invalid set; only a missing header
// or an empty table fails the whole guide.
func parseGuide(records [][]string) ([]model.GuideRow, error) {
	if len(records) < 2 {
		return nil, ErrEmptyTable
	}
	h := newHeader(records[0])
	if err := h.require(requiredColumns...); err != nil {
		return nil, err
	}
	var out []model.GuideRow
	for i, rec := range records[1:] {
		if blank(rec) {
			continue
		}
		row, err := parseRow(h, rec)
		if err != nil {
			row.Invalid = err.Error()
		}
		row.Row = i + 1
		out = append(out, row)
	}
	if len(out) == 0 {
		return nil, ErrEmptyTable
	}
	return out, nil
}

func parseRow(h header, rec []string) (model.GuideRow, error) {
	row := model.GuideRow{
		EntityID:      h.get(rec, ColHierarchy),
		ProductName:   h.get(rec, ColName),
		Kind:          model.ParseDurationKind(h.get(rec, ColType)),
		DurationHours: h.get(rec, ColDuration),
	}
	if v := h.get(rec, ColPlannedQuantity); v != "" {
		q, err := parseInt(v)
		if err != nil {
			return row, fmt.Errorf("%s: %w", ColPlannedQuantity, err)
		}
		row.PlannedQuantity = &q
	}
	rates := []struct {
		col string
		dst *int
	}{
		{ColFrequency, &row.FrequencyMinutes},
		{ColActualQuantity, &row.ActualQuantityPerCycle},
		{ColRejectPerHour, &row.RejectPerHour},
		{ColTotalUnits, &row.TotalUnitsPerCycle},
	}
	for _, r := range rates {
		v := h.get(rec, r.col)
		if v == "" {
			continue
		}
		n, err := parseInt(v)
		if err != nil {
			return row, fmt.Errorf("%s: %w", r.col, err)
		}
		*r.dst = n
	}
	return row, nil
}

// parseTags reads the first data row of the tag mapping table.
func parseTags(records [][]string) (model.Tags, error) {
	if len(records) < 2 {
		return model.Tags{}, ErrEmptyTable
	}
	h := newHeader(records[0])
	if err := h.require(ColTagProduced, ColTagReject); err != nil {
		return model.Tags{}, err
	}
	tags := model.Tags{
		Produced: normaliseNumber(h.get(records[1], ColTagProduced)),
		Reject:   normaliseNumber(h.get(records[1], ColTagReject)),
	}
	if tags.Produced == "" || tags.Reject == "" {
		return model.Tags{}, fmt.Errorf("tag ids must not be empty")
	}
	return tags, nil
}

// parseInt accepts integral values written as floats, as spreadsheets often
// store them.
func parseInt(v string) (int, error) {
	if n, err := strconv.Atoi(v); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a number: %q", v)
	}
	return int(f), nil
}

// normaliseNumber turns "12.0" into "12" and leaves other values alone.
func normaliseNumber(v string) string {
	if f, err := strconv.ParseFloat(v, 64); err == nil && f == math.Trunc(f) && !math.IsInf(f, 0) {
		return strconv.FormatInt(int64(f), 10)
	}
	return v
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
