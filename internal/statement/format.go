// Package statement turns bank and card exports into canonical transactions: it reads the raw
// sheet, detects which institution's layout produced it and maps each row onto a
// CanonicalTransaction.
package statement

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Format describes one institution's export layout. Formats are data: adding an institution
// means adding a Format, not code.
type Format struct {
	Name    string   `toml:"name" json:"name"`
	Headers []string `toml:"headers" json:"headers"` // required header set, order-independent
	Fields  FieldMap `toml:"fields" json:"fields"`

	// DateLayouts are Go time layouts tried before the shared fallbacks.
	DateLayouts []string `toml:"date_layouts" json:"date_layouts,omitempty"`
	// Account labels rows when the uploader does not pick one.
	Account string `toml:"account" json:"account,omitempty"`
	// CategoryFallback is the category used when the row carries none.
	CategoryFallback string `toml:"category_fallback" json:"category_fallback,omitempty"`
	// CategoryFromType uses the row's type column as its category when the category cell is empty.
	CategoryFromType bool `toml:"category_from_type" json:"category_from_type,omitempty"`
}

// FieldMap names the source column for each canonical field. Date, Amount and Description are
// required; the rest may be empty.
type FieldMap struct {
	Date        string `toml:"date" json:"date"`
	Amount      string `toml:"amount" json:"amount"`
	Description string `toml:"description" json:"description"`
	Category    string `toml:"category" json:"category,omitempty"`
	Subcategory string `toml:"subcategory" json:"subcategory,omitempty"`
	Type        string `toml:"type" json:"type,omitempty"`
}

const (
	ChaseCreditCard = "ChaseCreditCard"
	ChaseChecking   = "ChaseChecking"
	Generic         = "Generic"
)

// Builtins returns the formats known without any configuration, most specific first.
func Builtins() []Format {
	return []Format{
		{
			Name:    ChaseCreditCard,
			Headers: []string{"Transaction Date", "Post Date", "Description", "Category", "Type", "Memo", "Amount"},
			Fields: FieldMap{
				Date:        "Transaction Date",
				Amount:      "Amount",
				Description: "Description",
				Category:    "Category",
				Type:        "Type",
			},
			DateLayouts:      []string{"01/02/2006"},
			Account:          "Chase Credit",
			CategoryFallback: "Payment",
		},
		{
			Name:    ChaseChecking,
			Headers: []string{"Details", "Posting Date", "Description", "Amount", "Type", "Balance", "Check or Slip #"},
			Fields: FieldMap{
				Date:        "Posting Date",
				Amount:      "Amount",
				Description: "Description",
				Type:        "Type",
			},
			DateLayouts:      []string{"01/02/2006"},
			Account:          "Chase Checking",
			CategoryFallback: "Transfer",
			CategoryFromType: true,
		},
		{
			Name:    Generic,
			Headers: []string{"Transaction Date", "Amount", "Category", "Subcategory", "Description"},
			Fields: FieldMap{
				Date:        "Transaction Date",
				Amount:      "Amount",
				Description: "Description",
				Category:    "Category",
				Subcategory: "Subcategory",
			},
			CategoryFallback: "Payment",
		},
	}
}

// Validate checks that f can be detected and mapped.
func (f Format) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("format: name is required")
	}
	if len(f.Headers) == 0 {
		return fmt.Errorf("format %s: at least one header is required", f.Name)
	}
	seen := make(map[string]bool, len(f.Headers))
	for _, h := range f.Headers {
		k := headerKey(h)
		if k == "" {
			return fmt.Errorf("format %s: blank header", f.Name)
		}
		if seen[k] {
			return fmt.Errorf("format %s: duplicate header %q", f.Name, h)
		}
		seen[k] = true
	}
	required := map[string]string{
		"date":        f.Fields.Date,
		"amount":      f.Fields.Amount,
		"description": f.Fields.Description,
	}
	for field, col := range required {
		if strings.TrimSpace(col) == "" {
			return fmt.Errorf("format %s: no column mapped to %s", f.Name, field)
		}
	}
	for _, col := range f.mappedColumns() {
		if !seen[headerKey(col)] {
			return fmt.Errorf("format %s: mapped column %q is not in headers", f.Name, col)
		}
	}
	return nil
}

func (f Format) mappedColumns() []string {
	cols := []string{f.Fields.Date, f.Fields.Amount, f.Fields.Description}
	for _, c := range []string{f.Fields.Category, f.Fields.Subcategory, f.Fields.Type} {
		if strings.TrimSpace(c) != "" {
			cols = append(cols, c)
		}
	}
	return cols
}

// headerSet returns the normalized required headers.
func (f Format) headerSet() map[string]bool {
	set := make(map[string]bool, len(f.Headers))
	for _, h := range f.Headers {
		set[headerKey(h)] = true
	}
	return set
}

// MarshalDefinition encodes f for the custom format store.
func (f Format) MarshalDefinition() ([]byte, error) {
	return json.Marshal(f)
}

// UnmarshalDefinition decodes and validates a stored format definition.
func UnmarshalDefinition(data []byte) (Format, error) {
	var f Format
	if err := json.Unmarshal(data, &f); err != nil {
		return Format{}, fmt.Errorf("decode format: %w", err)
	}
	if err := f.Validate(); err != nil {
		return Format{}, err
	}
	return f, nil
}

// headerKey normalizes a column name for comparison: BOM and surrounding space stripped, inner
// whitespace collapsed, lower-cased.
func headerKey(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.ToLower(strings.Join(strings.Fields(h), " "))
}

// cleanHeader strips a leading BOM and surrounding space, keeping the original case.
func cleanHeader(h string) string {
	return strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
}
