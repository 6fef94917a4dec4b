// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"fmt"
	"io"
	"strings"
)

var csvHeaders = []string{"RowNumber", "Column", "ErrorCode", "ErrorDescription", "TechnicalDetails"}

// WriteCSV writes the entries as a CSV error report.
func WriteCSV(w io.Writer, entries []Entry) error {
	rows := []string{strings.Join(csvHeaders, ",")}
	for _, e := range entries {
		row := []string{
			fmt.Sprintf("%d", e.RowNumber),
			escapeCSVField(e.Column),
			escapeCSVField(e.ErrorCode),
			escapeCSVField(e.ErrorDescription),
			escapeCSVField(e.TechnicalDetails),
		}
		rows = append(rows, strings.Join(row, ","))
	}
	_, err := io.WriteString(w, strings.Join(rows, "\n")+"\n")
	return err
}

// escapeCSVField properly escapes a field for CSV format and prevents CSV
// injection in spreadsheet tools.
func escapeCSVField(field string) string {
	field = sanitizeFormulaInjection(field)
	if strings.ContainsAny(field, ",\"\n\r") {
		escaped := strings.ReplaceAll(field, "\"", "\"\"")
		return "\"" + escaped + "\""
	}
	return field
}

// sanitizeFormulaInjection neutralizes leading formula characters so the
// report opens safely in spreadsheet software.
func sanitizeFormulaInjection(field string) string {
	if len(field) == 0 {
		return field
	}
	switch field[0] {
	case '=', '+', '-', '@':
		return "'" + field
	}
	return field
}
