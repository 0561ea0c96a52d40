package table

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ReadXLSX loads the first worksheet of a workbook.
func ReadXLSX(path string, opts ReadOptions) (*Table, *Raw, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open Excel file %s: %w", path, err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("%s: workbook has no sheets", path)
	}

	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get rows from %s: %w", path, err)
	}
	return fromRecords(path, rows, opts)
}
