package commercehub

import (
	"fmt"
	"strings"
)

// Unmapped is the sentinel for a canonical field with no source column.
const Unmapped = ""

// FieldMapping associates canonical field IDs with raw source column
// names. A missing or empty entry means unmapped.
type FieldMapping map[string]string

// InferMapping proposes a mapping from discovered columns onto the
// canonical catalog. Columns are scanned in discovery order and fields
// in catalog order; the first keyword substring match wins and an
// already-assigned field is never reassigned. The result is a proposal
// for a human to confirm, never authoritative.
func InferMapping(columns []string, catalog []CanonicalField) FieldMapping {
	mapping := FieldMapping{}
	for _, column := range columns {
		lower := strings.ToLower(column)
		for _, field := range catalog {
			if !matchesKeyword(lower, field.Keywords) {
				continue
			}
			if _, taken := mapping[field.ID]; !taken {
				mapping[field.ID] = column
			}
			break
		}
	}
	return mapping
}

func matchesKeyword(lowerColumn string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(lowerColumn, keyword) {
			return true
		}
	}
	return false
}

// ValidateMapping checks that every required canonical field resolves
// to a real source column. Duplicate assignment of one column to two
// fields is legal. A valid mapping is the gate for persisting a
// SyncConfig, not for running Normalize.
func ValidateMapping(mapping FieldMapping) error {
	for _, field := range canonicalCatalog {
		if !field.Required {
			continue
		}
		if strings.TrimSpace(mapping[field.ID]) == Unmapped {
			return fmt.Errorf("%w: required field %s is unmapped", ErrInvalidInput, field.ID)
		}
	}
	return nil
}
