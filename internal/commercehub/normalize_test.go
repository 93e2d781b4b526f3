package commercehub

import (
	"reflect"
	"testing"
)

var fullMapping = FieldMapping{
	"name":        "Name",
	"price":       "Price",
	"sku":         "SKU",
	"description": "Description",
	"category":    "Category",
	"stock":       "Stock",
}

func TestNormalizeEndToEndFromJSON(t *testing.T) {
	table, err := ParseJSON([]byte(`{"products":[{"Name":"Widget","Price":"$12.50","Qty":"3"}]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mapping := InferMapping(table.Columns, Catalog())
	records := Normalize(table.Rows, mapping)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	want := InventoryRecord{
		ID:       "item-0",
		Name:     "Widget",
		Price:    12.5,
		Currency: "USD",
		Category: "General",
		Stock:    3,
	}
	if records[0] != want {
		t.Fatalf("unexpected record: %#v", records[0])
	}
}

func TestNormalizeAppliesDefaults(t *testing.T) {
	rows := []RawRow{{}}
	records := Normalize(rows, fullMapping)
	record := records[0]
	if record.Name != "Unnamed Item" {
		t.Fatalf("unexpected name: %q", record.Name)
	}
	if record.Price != 0 {
		t.Fatalf("missing price must default to 0, got %v", record.Price)
	}
	if record.Stock != 100 {
		t.Fatalf("missing stock must default to 100, got %d", record.Stock)
	}
	if record.Category != "General" || record.Currency != "USD" || record.Description != "" {
		t.Fatalf("unexpected defaults: %#v", record)
	}
}

func TestNormalizeIsTotal(t *testing.T) {
	rows := []RawRow{
		{"Name": "Widget", "Price": "garbage", "Stock": "lots"},
		{"Name": nil, "Price": nil, "Stock": nil},
		{},
	}
	records := Normalize(rows, fullMapping)
	if len(records) != len(rows) {
		t.Fatalf("expected %d records, got %d", len(rows), len(records))
	}
	if records[0].Price != 0 || records[0].Stock != 100 {
		t.Fatalf("malformed values must coerce to defaults: %#v", records[0])
	}
}

func TestDeriveIDFallbackChain(t *testing.T) {
	mapping := FieldMapping{"sku": "Code"}
	cases := []struct {
		row  RawRow
		want string
	}{
		{RawRow{"Code": "C-1", "sku": "raw-sku", "ID": "raw-id"}, "C-1"},
		{RawRow{"sku": "raw-sku", "ID": "raw-id"}, "raw-sku"},
		{RawRow{"ID": "raw-id"}, "raw-id"},
		{RawRow{}, "item-5"},
	}
	for _, tc := range cases {
		if got := deriveID(tc.row, mapping, 5); got != tc.want {
			t.Fatalf("deriveID(%#v) = %q, want %q", tc.row, got, tc.want)
		}
	}
}

func TestCoercePrice(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"12.50", 12.5},
		{"$12.50 USD", 12.5},
		{"1,299.99", 1299.99},
		{"1.2.3", 1.2},
		{".", 0},
		{"", 0},
		{"free", 0},
	}
	for _, tc := range cases {
		if got := coercePrice(tc.in); got != tc.want {
			t.Fatalf("coercePrice(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestCoerceStock(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"3", 3},
		{"3 units", 3},
		{"1,200", 1200},
		{"", 100},
		{"soldout", 100},
	}
	for _, tc := range cases {
		if got := coerceStock(tc.in); got != tc.want {
			t.Fatalf("coerceStock(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeIgnoresUnmappedFields(t *testing.T) {
	rows := []RawRow{{"Name": "Widget", "Price": "5", "Stock": "2"}}
	mapping := FieldMapping{"name": "Name", "price": "Price"}
	record := Normalize(rows, mapping)[0]
	if record.Stock != 100 {
		t.Fatalf("unmapped stock must default, got %d", record.Stock)
	}
	if record.Price != 5 {
		t.Fatalf("unexpected price: %v", record.Price)
	}
}

func TestNormalizeIsIdempotentOnCanonicalRows(t *testing.T) {
	first := Normalize([]RawRow{
		{"Name": "Widget", "Price": "$12.50", "SKU": "W-1", "Stock": "3"},
		{"Name": "Gadget", "Price": "", "Stock": "0"},
	}, fullMapping)

	canonicalMapping := FieldMapping{
		"name":        "name",
		"price":       "price",
		"sku":         "id",
		"description": "description",
		"category":    "category",
		"stock":       "stock",
	}
	rows := make([]RawRow, 0, len(first))
	for _, record := range first {
		rows = append(rows, RawRow{
			"id":          record.ID,
			"name":        record.Name,
			"price":       record.Price,
			"category":    record.Category,
			"stock":       record.Stock,
			"description": record.Description,
		})
	}
	second := Normalize(rows, canonicalMapping)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("second pass diverged:\n%#v\n%#v", first, second)
	}
}

func TestNormalizeEmptyStringCountsAsAbsent(t *testing.T) {
	rows := []RawRow{{"Name": "", "Price": "", "Stock": ""}}
	record := Normalize(rows, fullMapping)[0]
	if record.Name != "Unnamed Item" || record.Price != 0 || record.Stock != 100 {
		t.Fatalf("empty strings must behave like missing values: %#v", record)
	}
}
