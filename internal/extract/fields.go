// Package extract turns the flattened text of an electricity bill PDF into
// typed field values. Bill layouts have no stable grammar, so every field is
// found by a positional or pattern heuristic applied to the whole text buffer.
package extract

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

// Field is an extraction result: a value that is either present or absent.
// Absence is the only failure signal a rule may produce.
type Field[T any] struct {
	Value   T
	Present bool
}

// Some wraps a present value.
func Some[T any](v T) Field[T] {
	return Field[T]{Value: v, Present: true}
}

// Fields holds every value the rule table can pull out of a bill.
type Fields struct {
	ClientName         Field[string]
	ReferenceMonth     Field[string]
	DueDate            Field[string]
	UnitPriceWithTax   Field[float64]
	ConsumptionKWh     Field[int]
	InstallationNumber Field[string]
	AccumulatedBalance Field[float64]
	ClientDocument     Field[string]
	ClientEmail        Field[string]
}

// rule is one row of the extraction table: a case-insensitive pattern, the
// capture group holding the raw value, and a coercion that assigns the typed
// value. Coercion failures degrade to absent, never to an error.
type rule struct {
	name    string
	pattern *regexp.Regexp
	group   int
	assign  func(f *Fields, raw string) error
}

// RuleSet is a versioned extraction table. Adding a field is a table edit,
// not new control flow.
type RuleSet struct {
	Version string
	rules   []rule
}

// cityAnchor is the fixed city token that terminates the client name block
// on the distributor's bill layout.
const cityAnchor = "MURIAE"

func commonRules() []rule {
	return []rule{
		{
			name:    "client_name",
			pattern: regexp.MustCompile(`(?i)\n([A-Z\s]{5,})\n` + cityAnchor),
			group:   1,
			assign: func(f *Fields, raw string) error {
				f.ClientName = Some(raw)
				return nil
			},
		},
		{
			name:    "reference_month",
			pattern: regexp.MustCompile(`(?i)(\w+\s*/\s*\d{4})`),
			group:   1,
			assign: func(f *Fields, raw string) error {
				f.ReferenceMonth = Some(raw)
				return nil
			},
		},
		{
			name:    "due_date",
			pattern: regexp.MustCompile(`(?i)(\d{2}/\d{2}/\d{4})`),
			group:   1,
			assign: func(f *Fields, raw string) error {
				f.DueDate = Some(raw)
				return nil
			},
		},
		{
			name:    "unit_price_with_tax",
			pattern: regexp.MustCompile(`(?i)Consumo em kWh.*?\n.*?([0-9.,]{4,})`),
			group:   1,
			assign: func(f *Fields, raw string) error {
				v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
				if err != nil {
					return err
				}
				f.UnitPriceWithTax = Some(v)
				return nil
			},
		},
		{
			name:    "consumption_kwh",
			pattern: regexp.MustCompile(`(?i)\b([23][0-9]{2}),00\b`),
			group:   1,
			assign: func(f *Fields, raw string) error {
				v, err := strconv.Atoi(strings.ReplaceAll(raw, ",", ""))
				if err != nil {
					return err
				}
				f.ConsumptionKWh = Some(v)
				return nil
			},
		},
		{
			name:    "accumulated_balance",
			pattern: regexp.MustCompile(`(?i)Saldo Acumulado:\s*([\d.,]+)`),
			group:   1,
			assign: func(f *Fields, raw string) error {
				// Brazilian number format: "." thousands, "," decimal.
				normalized := strings.ReplaceAll(raw, ".", "")
				normalized = strings.ReplaceAll(normalized, ",", ".")
				v, err := strconv.ParseFloat(normalized, 64)
				if err != nil {
					return err
				}
				f.AccumulatedBalance = Some(v)
				return nil
			},
		},
		{
			name:    "client_document",
			pattern: regexp.MustCompile(`(?i)CNPJ/CPF/RANI[:\s]*([0-9Xx./-]{11,20})`),
			group:   1,
			assign: func(f *Fields, raw string) error {
				f.ClientDocument = Some(raw)
				return nil
			},
		},
		{
			name:    "client_email",
			pattern: regexp.MustCompile(`(?i)[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`),
			group:   0,
			assign: func(f *Fields, raw string) error {
				f.ClientEmail = Some(raw)
				return nil
			},
		},
	}
}

func installationRule(pattern string) rule {
	return rule{
		name:    "installation_number",
		pattern: regexp.MustCompile(pattern),
		group:   1,
		assign: func(f *Fields, raw string) error {
			f.InstallationNumber = Some(raw)
			return nil
		},
	}
}

// DefaultRules matches the deployed bill layout: the installation number is
// any standalone 6-to-8 digit token.
func DefaultRules() *RuleSet {
	return &RuleSet{
		Version: "default",
		rules:   append(commonRules(), installationRule(`(?i)\b(\d{6,8})\b`)),
	}
}

// StrictRules anchors the installation number to the trailing "Ponta"
// marker some bill variants print next to it, avoiding collisions with
// other 6-to-8 digit tokens.
func StrictRules() *RuleSet {
	return &RuleSet{
		Version: "strict",
		rules:   append(commonRules(), installationRule(`(?i)\b(\d{6,8})\s+Ponta\b`)),
	}
}

// RuleSetByName resolves a rule-set version name.
func RuleSetByName(name string) (*RuleSet, error) {
	switch name {
	case "", "default":
		return DefaultRules(), nil
	case "strict":
		return StrictRules(), nil
	}
	return nil, fmt.Errorf("unknown rule set %q", name)
}

// ExtractFields applies every rule independently against the full text
// buffer. A rule that fails to match, or whose matched value cannot be
// coerced, leaves its field absent; extraction itself never fails.
func (rs *RuleSet) ExtractFields(text string) Fields {
	var f Fields
	for _, r := range rs.rules {
		m := r.pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		raw := strings.TrimSpace(m[r.group])
		if raw == "" {
			continue
		}
		if err := r.assign(&f, raw); err != nil {
			slog.Warn("Discarding unparseable field value", "field", r.name, "value", raw, "error", err)
		}
	}
	return f
}
