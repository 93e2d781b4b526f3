package commercehub

import (
	"fmt"
	"strconv"
	"strings"
)

// InventoryRecord is one canonical product. The whole inventory is
// rebuilt from raw rows on every pass, never patched in place.
type InventoryRecord struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
	Category    string  `json:"category"`
	Stock       int     `json:"stock"`
	Description string  `json:"description"`
}

const (
	defaultName     = "Unnamed Item"
	defaultCategory = "General"
	defaultCurrency = "USD"
	defaultStock    = 100
)

// Normalize coerces raw rows into canonical records using the confirmed
// mapping. It is total: malformed values fall back to documented
// defaults and every row yields exactly one record. The price/stock
// default asymmetry (0 vs 100) is source behavior kept on purpose.
func Normalize(rows []RawRow, mapping FieldMapping) []InventoryRecord {
	records := make([]InventoryRecord, 0, len(rows))
	for index, row := range rows {
		records = append(records, normalizeRow(row, mapping, index))
	}
	return records
}

func normalizeRow(row RawRow, mapping FieldMapping, index int) InventoryRecord {
	return InventoryRecord{
		ID:          deriveID(row, mapping, index),
		Name:        mappedOrDefault(row, mapping, "name", defaultName),
		Price:       coercePrice(mappedValue(row, mapping, "price")),
		Currency:    defaultCurrency,
		Category:    mappedOrDefault(row, mapping, "category", defaultCategory),
		Stock:       coerceStock(mappedValue(row, mapping, "stock")),
		Description: mappedOrDefault(row, mapping, "description", ""),
	}
}

// deriveID walks the fallback chain: mapped sku column, a raw column
// literally named sku, a raw column literally named ID, then a
// positional item-<index> identifier.
func deriveID(row RawRow, mapping FieldMapping, index int) string {
	if value := mappedValue(row, mapping, "sku"); value != "" {
		return value
	}
	if value := rawString(row["sku"]); value != "" {
		return value
	}
	if value := rawString(row["ID"]); value != "" {
		return value
	}
	return fmt.Sprintf("item-%d", index)
}

func mappedValue(row RawRow, mapping FieldMapping, fieldID string) string {
	column := mapping[fieldID]
	if column == Unmapped {
		return ""
	}
	return rawString(row[column])
}

func mappedOrDefault(row RawRow, mapping FieldMapping, fieldID, fallback string) string {
	if value := mappedValue(row, mapping, fieldID); value != "" {
		return value
	}
	return fallback
}

// coercePrice strips everything outside [0-9.] and parses the leading
// numeric prefix, so "$12.50 USD" becomes 12.5. Empty or unparseable
// input coerces to 0.
func coercePrice(raw string) float64 {
	stripped := stripNonNumeric(raw, true)
	if stripped == "" {
		return 0
	}
	value, ok := parseFloatPrefix(stripped)
	if !ok {
		return 0
	}
	return value
}

// coerceStock strips everything outside [0-9]. Empty or unparseable
// input coerces to 100.
func coerceStock(raw string) int {
	stripped := stripNonNumeric(raw, false)
	if stripped == "" {
		return defaultStock
	}
	value, err := strconv.Atoi(stripped)
	if err != nil {
		return defaultStock
	}
	return value
}

func stripNonNumeric(raw string, keepDot bool) string {
	var out strings.Builder
	for _, char := range raw {
		if (char >= '0' && char <= '9') || (keepDot && char == '.') {
			out.WriteRune(char)
		}
	}
	return out.String()
}

// parseFloatPrefix mirrors parseFloat: it reads the longest leading
// run of digits with at most one dot, so "1.2.3" parses as 1.2.
func parseFloatPrefix(s string) (float64, bool) {
	end := 0
	seenDot := false
	for i, char := range s {
		if char == '.' {
			if seenDot {
				break
			}
			seenDot = true
		}
		end = i + 1
	}
	value, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0, false
	}
	return value, true
}
