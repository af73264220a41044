package guide

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/kilianp07/ppmsim/core/model"
)

// LoadCSV reads a guide table exported as CSV with a header row.
func LoadCSV(path string) ([]model.GuideRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open guide: %w", err)
	}
	defer func() { _ = f.Close() }()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read guide: %w", err)
	}
	return parseGuide(records)
}
