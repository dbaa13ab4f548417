package models

// Rule is one expense policy rule parsed from the uploaded Excel workbook.
// A rule belongs to the sheet it came from (sheets group rules by expense
// family, e.g. "Breakfast Lunch Dinner", "Hotel", "Transport").
type Rule struct {
	SheetName   string  `json:"sheet_name"`
	Country     string  `json:"country"`
	Currency    string  `json:"currency"`
	ExpenseType string  `json:"expense_type"`
	AmountLimit float64 `json:"amount_limit"`
	Description string  `json:"description,omitempty"`
}
