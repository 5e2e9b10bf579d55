package google

import (
	"fmt"
	"strconv"
	"strings"
)

const idColumn = 5

// Row is one mirrored transaction as read back from the sheet.
type Row struct {
	Index    int // zero-based row index in the sheet
	Date     string
	Category string
	Amount   float64
	Currency string
	Note     string
	ID       string
}

// parseRows converts a values matrix into rows. The header row, blank
// rows and rows without an id or a readable amount are skipped.
func parseRows(values [][]any) []Row {
	var out []Row
	for i, raw := range values {
		cols := toStrings(raw)
		id := safeGet(cols, idColumn)
		if id == "" || strings.EqualFold(id, "id") {
			continue
		}
		amount, ok := parseAmount(raw, 2)
		if !ok {
			continue
		}
		out = append(out, Row{
			Index:    i,
			Date:     safeGet(cols, 0),
			Category: safeGet(cols, 1),
			Amount:   amount,
			Currency: safeGet(cols, 3),
			Note:     safeGet(cols, 4),
			ID:       id,
		})
	}
	return out
}

// rowsWithID returns the zero-based indices of rows whose id column is id.
func rowsWithID(values [][]any, id string) []int {
	id = strings.TrimSpace(id)
	var out []int
	for i, raw := range values {
		if safeGet(toStrings(raw), idColumn) == id {
			out = append(out, i)
		}
	}
	return out
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}

// parseAmount reads a number cell, accepting unformatted numbers and
// strings with a decimal comma.
func parseAmount(row []any, idx int) (float64, bool) {
	if idx >= len(row) {
		return 0, false
	}
	switch v := row[idx].(type) {
	case float64:
		return v, true
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false
		}
		s = strings.NewReplacer(" ", "", "\u00a0", "", ",", ".").Replace(s)
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
