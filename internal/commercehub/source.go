package commercehub

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// RawRow is one source record keyed by raw column name, exactly as
// discovered. Values keep their source primitive type until coercion.
type RawRow map[string]any

// RawTable is the output of a source read: discovered column names in
// discovery order plus the ordered row sequence.
type RawTable struct {
	Columns []string
	Rows    []RawRow
}

var manualColumns = []string{"name", "category", "price", "stock"}

// ParseCSV parses delimited text into a RawTable. The first non-blank
// line is the header row; commas inside double quotes do not split.
func ParseCSV(text string) (RawTable, error) {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "<!DOCTYPE") || strings.HasPrefix(trimmed, "<html") {
		return RawTable{}, &FormatError{Reason: "received HTML instead of CSV; likely a login or redirect page"}
	}
	lines := []string{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return RawTable{}, &FormatError{Reason: "csv has no rows"}
	}
	headers := splitCSVLine(lines[0])
	rows := make([]RawRow, 0, len(lines)-1)
	for _, line := range lines[1:] {
		values := splitCSVLine(line)
		row := RawRow{}
		for i, header := range headers {
			if i < len(values) {
				row[header] = values[i]
			} else {
				row[header] = ""
			}
		}
		rows = append(rows, row)
	}
	return RawTable{Columns: headers, Rows: rows}, nil
}

func splitCSVLine(line string) []string {
	result := []string{}
	var current strings.Builder
	inQuotes := false
	for _, char := range line {
		switch {
		case char == '"':
			inQuotes = !inQuotes
		case char == ',' && !inQuotes:
			result = append(result, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(char)
		}
	}
	result = append(result, strings.TrimSpace(current.String()))
	return result
}

// ParseJSON parses a JSON document into a RawTable. The row array is
// either the document itself or the first of the items, products, or
// data properties. Columns come from the first row in document order.
func ParseJSON(body []byte) (RawTable, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return RawTable{}, &FormatError{Reason: "empty response body"}
	}
	rawRows, err := resolveRowArray(trimmed)
	if err != nil {
		return RawTable{}, err
	}
	if len(rawRows) == 0 {
		return RawTable{}, &FormatError{Reason: "response contains no rows"}
	}
	columns, err := objectKeys(rawRows[0])
	if err != nil {
		return RawTable{}, &FormatError{Reason: "first row is not an object"}
	}
	rows := make([]RawRow, 0, len(rawRows))
	for _, raw := range rawRows {
		row := RawRow{}
		decoder := json.NewDecoder(bytes.NewReader(raw))
		decoder.UseNumber()
		if err := decoder.Decode(&row); err != nil {
			row = RawRow{}
		}
		rows = append(rows, row)
	}
	return RawTable{Columns: columns, Rows: rows}, nil
}

var jsonWrapperKeys = []string{"items", "products", "data"}

func resolveRowArray(body []byte) ([]json.RawMessage, error) {
	var asArray []json.RawMessage
	if err := json.Unmarshal(body, &asArray); err == nil {
		return asArray, nil
	}
	var asObject map[string]json.RawMessage
	if err := json.Unmarshal(body, &asObject); err != nil {
		return nil, &FormatError{Reason: "response is not a JSON array or object"}
	}
	for _, key := range jsonWrapperKeys {
		raw, ok := asObject[key]
		if !ok {
			continue
		}
		var rows []json.RawMessage
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, &FormatError{Reason: fmt.Sprintf("property %q is not an array", key)}
		}
		return rows, nil
	}
	return nil, &FormatError{Reason: "no items, products, or data array in response"}
}

// objectKeys returns the top-level keys of a JSON object in document
// order, which a plain map decode would lose.
func objectKeys(raw json.RawMessage) ([]string, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	token, err := decoder.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := token.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("not a JSON object")
	}
	keys := []string{}
	for decoder.More() {
		keyToken, err := decoder.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyToken.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", keyToken)
		}
		keys = append(keys, key)
		if err := skipJSONValue(decoder); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

func skipJSONValue(decoder *json.Decoder) error {
	token, err := decoder.Token()
	if err != nil {
		return err
	}
	delim, ok := token.(json.Delim)
	if !ok || (delim != '{' && delim != '[') {
		return nil
	}
	depth := 1
	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			return err
		}
		if d, ok := token.(json.Delim); ok {
			switch d {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
	}
	return nil
}

// ManualTable wraps manually entered rows, which are already shaped
// like the canonical schema.
func ManualTable(rows []RawRow) RawTable {
	columns := make([]string, len(manualColumns))
	copy(columns, manualColumns)
	out := make([]RawRow, 0, len(rows))
	for _, row := range rows {
		clone := RawRow{}
		for key, value := range row {
			clone[key] = value
		}
		out = append(out, clone)
	}
	return RawTable{Columns: columns, Rows: out}
}

func rawString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", v)
	}
}
