package model

import "strings"

// DurationKind selects how a guide row is turned into plan windows.
type DurationKind string

const (
	KindHour  DurationKind = "hour"
	KindDay   DurationKind = "day"
	KindWeek  DurationKind = "week"
	KindMonth DurationKind = "month"
)

// ParseDurationKind normalises the raw "type" column. Unknown values are
// returned as-is and handled as hourly rows by the planner.
func ParseDurationKind(s string) DurationKind {
	return DurationKind(strings.ToLower(strings.TrimSpace(s)))
}

// Sequential reports whether rows of this kind are packed end-to-end on the
// rolling cursor of their group.
func (k DurationKind) Sequential() bool {
	switch k {
	case KindDay, KindWeek, KindMonth:
		return false
	default:
		return true
	}
}

// GuideRow is one record of the data guide sheet.
type GuideRow struct {
	// Row is the 1-based data row number in the source table, used in logs.
	Row           int
	EntityID      string
	ProductName   string
	Kind          DurationKind
	DurationHours string
	// PlannedQuantity is nil when the cell is empty.
	PlannedQuantity *int

	FrequencyMinutes       int
	ActualQuantityPerCycle int
	RejectPerHour          int
	TotalUnitsPerCycle     int

	// Invalid holds the reason a cell could not be parsed. Invalid rows are
	// kept so they can be reported but are never scheduled or emitted.
	Invalid string
}

// Eligible reports whether the row carries enough data to be scheduled.
func (r GuideRow) Eligible() bool {
	return r.Invalid == "" &&
		strings.TrimSpace(r.EntityID) != "" &&
		strings.TrimSpace(r.ProductName) != "" &&
		r.PlannedQuantity != nil
}

// Tags holds the tag identifiers used to build telemetry keys.
type Tags struct {
	Produced string `json:"produced"`
	Reject   string `json:"reject"`
}

// Guide is the parsed content of the guide workbook.
type Guide struct {
	Rows []GuideRow
	Tags Tags
}
