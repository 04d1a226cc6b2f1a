package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ParseCSV parses transactions from CSV content.
// Both comma- and semicolon-separated exports are accepted.
func ParseCSV(content string) (*Result, error) {
	content = strings.TrimPrefix(content, "\ufeff")
	reader := csv.NewReader(strings.NewReader(content))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.Comma = detectDelimiter(content)

	var (
		records   [][]string
		rowErrors []string
	)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) || len(records) == 0 {
				return nil, fmt.Errorf("failed to read CSV: %w", err)
			}
			// Keep row numbering aligned; blank records are skipped when mapping.
			rowErrors = append(rowErrors, fmt.Sprintf("Row %d: %v", len(records)+1, parseErr.Err))
			records = append(records, nil)
			continue
		}
		records = append(records, record)
	}

	res := parseRecords(records, true)
	res.Errors = append(rowErrors, res.Errors...)
	return res, nil
}

func detectDelimiter(content string) rune {
	header, _, _ := strings.Cut(content, "\n")
	if strings.Count(header, ";") > strings.Count(header, ",") {
		return ';'
	}
	return ','
}
