package commercehub

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseCSVSplitsHeaderAndRows(t *testing.T) {
	table, err := ParseCSV("Name,Price,Stock\nWidget,12.50,3\nGadget,8,10\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(table.Columns, []string{"Name", "Price", "Stock"}) {
		t.Fatalf("unexpected columns: %#v", table.Columns)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(table.Rows))
	}
	if table.Rows[0]["Name"] != "Widget" || table.Rows[1]["Stock"] != "10" {
		t.Fatalf("unexpected rows: %#v", table.Rows)
	}
}

func TestParseCSVKeepsQuotedCommas(t *testing.T) {
	table, err := ParseCSV("Name,Price\n\"Smith, John\",5\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table.Rows[0]["Name"] != "Smith, John" {
		t.Fatalf("expected quoted comma preserved, got %q", table.Rows[0]["Name"])
	}
}

func TestParseCSVHandlesCRLFAndBlankLines(t *testing.T) {
	table, err := ParseCSV("Name,Price\r\n\r\nWidget,5\r\n\r\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(table.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(table.Rows))
	}
	if table.Rows[0]["Price"] != "5" {
		t.Fatalf("unexpected row: %#v", table.Rows[0])
	}
}

func TestParseCSVPadsShortRows(t *testing.T) {
	table, err := ParseCSV("Name,Price,Stock\nWidget,5\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table.Rows[0]["Stock"] != "" {
		t.Fatalf("expected empty padding, got %q", table.Rows[0]["Stock"])
	}
}

func TestParseCSVTrimsFieldWhitespace(t *testing.T) {
	table, err := ParseCSV("Name , Price\n Widget , 5 \n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(table.Columns, []string{"Name", "Price"}) {
		t.Fatalf("unexpected columns: %#v", table.Columns)
	}
	if table.Rows[0]["Name"] != "Widget" {
		t.Fatalf("expected trimmed value, got %q", table.Rows[0]["Name"])
	}
}

func TestParseCSVRejectsHTML(t *testing.T) {
	_, err := ParseCSV("<!DOCTYPE html><html><body>login required</body></html>")
	if !errors.Is(err, ErrFormat) {
		t.Fatalf("expected format error, got %v", err)
	}
}

func TestParseCSVRejectsEmptyInput(t *testing.T) {
	if _, err := ParseCSV("   \n  \n"); !errors.Is(err, ErrFormat) {
		t.Fatalf("expected format error, got %v", err)
	}
}

func TestParseCSVHeaderOnlyYieldsZeroRows(t *testing.T) {
	table, err := ParseCSV("Name,Price\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(table.Rows) != 0 {
		t.Fatalf("expected 0 rows, got %d", len(table.Rows))
	}
}

func TestParseJSONBareArray(t *testing.T) {
	table, err := ParseJSON([]byte(`[{"Name":"Widget","Price":5}]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(table.Columns, []string{"Name", "Price"}) {
		t.Fatalf("unexpected columns: %#v", table.Columns)
	}
	if len(table.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(table.Rows))
	}
}

func TestParseJSONWrapperPriority(t *testing.T) {
	body := []byte(`{"data":[{"a":1}],"items":[{"Name":"Widget"}]}`)
	table, err := ParseJSON(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(table.Columns, []string{"Name"}) {
		t.Fatalf("expected items to win over data, got columns %#v", table.Columns)
	}
}

func TestParseJSONColumnsKeepDocumentOrder(t *testing.T) {
	body := []byte(`[{"zeta":1,"alpha":{"nested":[1,2]},"mid":"x"}]`)
	table, err := ParseJSON(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(table.Columns, []string{"zeta", "alpha", "mid"}) {
		t.Fatalf("unexpected column order: %#v", table.Columns)
	}
}

func TestParseJSONRejectsNonArrayShapes(t *testing.T) {
	cases := []string{
		`"just a string"`,
		`{"inventory":[{"Name":"Widget"}]}`,
		`{"items":"not-an-array"}`,
		`[]`,
		``,
	}
	for _, body := range cases {
		if _, err := ParseJSON([]byte(body)); !errors.Is(err, ErrFormat) {
			t.Fatalf("expected format error for %q, got %v", body, err)
		}
	}
}

func TestParseJSONKeepsNumericPrecision(t *testing.T) {
	table, err := ParseJSON([]byte(`[{"Price":12.5,"Stock":3}]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := rawString(table.Rows[0]["Price"]); got != "12.5" {
		t.Fatalf("expected 12.5, got %q", got)
	}
	if got := rawString(table.Rows[0]["Stock"]); got != "3" {
		t.Fatalf("expected 3, got %q", got)
	}
}

func TestManualTableShapesRows(t *testing.T) {
	table := ManualTable([]RawRow{{"name": "Widget", "price": "5"}})
	if !reflect.DeepEqual(table.Columns, []string{"name", "category", "price", "stock"}) {
		t.Fatalf("unexpected columns: %#v", table.Columns)
	}
	if table.Rows[0]["name"] != "Widget" {
		t.Fatalf("unexpected row: %#v", table.Rows[0])
	}
}

func TestRawStringCoversSourceTypes(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"text", "text"},
		{12.5, "12.5"},
		{7, "7"},
		{true, "true"},
		{false, "false"},
	}
	for _, tc := range cases {
		if got := rawString(tc.in); got != tc.want {
			t.Fatalf("rawString(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
