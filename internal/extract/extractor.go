package extract

// BillExtractor binds a rule set to the PDF text pipeline.
type BillExtractor struct {
	rules *RuleSet
}

// NewBillExtractor creates a BillExtractor using the given rule set.
func NewBillExtractor(rules *RuleSet) *BillExtractor {
	return &BillExtractor{rules: rules}
}

// ExtractBill renders the PDF at path to text and applies the rule table.
func (e *BillExtractor) ExtractBill(path string) (Fields, error) {
	text, err := Text(path)
	if err != nil {
		return Fields{}, err
	}
	return e.rules.ExtractFields(text), nil
}
