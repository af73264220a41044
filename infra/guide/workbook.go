package guide

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/kilianp07/ppmsim/core/model"
)

// LoadWorkbook reads the guide and tag sheets of an xlsx workbook.
func LoadWorkbook(path, guideSheet, tagsSheet string) (model.Guide, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return model.Guide{}, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	guideRecords, err := sheetRows(f, guideSheet)
	if err != nil {
		return model.Guide{}, err
	}
	rows, err := parseGuide(guideRecords)
	if err != nil {
		return model.Guide{}, fmt.Errorf("sheet %s: %w", guideSheet, err)
	}
	tagRecords, err := sheetRows(f, tagsSheet)
	if err != nil {
		return model.Guide{}, err
	}
	tags, err := parseTags(tagRecords)
	if err != nil {
		return model.Guide{}, fmt.Errorf("sheet %s: %w", tagsSheet, err)
	}
	return model.Guide{Rows: rows, Tags: tags}, nil
}

func sheetRows(f *excelize.File, sheet string) ([][]string, error) {
	idx, err := f.GetSheetIndex(sheet)
	if err != nil || idx < 0 {
		return nil, fmt.Errorf("sheet %s: %w", sheet, ErrEmptyTable)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	return rows, nil
}
