package commercehub

// CanonicalField is one slot of the fixed target schema every source
// must eventually map into.
type CanonicalField struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Required bool     `json:"required"`
	Keywords []string `json:"keywords"`
}

// Catalog order is the tie-break order for mapping inference and must
// stay stable.
var canonicalCatalog = []CanonicalField{
	{ID: "name", Label: "Item Name", Required: true, Keywords: []string{"name", "dish", "product", "item"}},
	{ID: "price", Label: "Price", Required: true, Keywords: []string{"price", "cost", "rate", "amt", "amount"}},
	{ID: "sku", Label: "SKU / ID", Required: false, Keywords: []string{"sku", "id", "code"}},
	{ID: "description", Label: "Description", Required: false, Keywords: []string{"desc", "info", "detail"}},
	{ID: "category", Label: "Category", Required: false, Keywords: []string{"cat", "type", "group"}},
	{ID: "stock", Label: "Stock / Qty", Required: false, Keywords: []string{"stock", "qty", "quantity", "count"}},
}

func Catalog() []CanonicalField {
	out := make([]CanonicalField, len(canonicalCatalog))
	copy(out, canonicalCatalog)
	return out
}

func RequiredFieldIDs() []string {
	ids := []string{}
	for _, field := range canonicalCatalog {
		if field.Required {
			ids = append(ids, field.ID)
		}
	}
	return ids
}
