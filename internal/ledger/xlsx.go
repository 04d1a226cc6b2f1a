package ledger

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ParseXLSX parses transactions from the first sheet of an XLSX workbook.
func ParseXLSX(r io.Reader) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return emptyResult(), nil
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}

	// Trailing empty cells are omitted by the reader, so short rows are padded.
	return parseRecords(rows, false), nil
}
