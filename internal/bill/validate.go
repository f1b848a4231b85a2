package bill

import "fmt"

// ValidateRequired enforces the minimal acceptance policy: a bill must
// carry a client name and an installation number before it may be
// persisted. Records failing this check are discarded entirely, never
// stored with partial data.
func ValidateRequired(b *Bill) error {
	if b.ClientName == "" {
		return fmt.Errorf("missing required field: client_name")
	}
	if b.InstallationNumber == "" {
		return fmt.Errorf("missing required field: installation_number")
	}
	return nil
}

// ValidateStrict enforces the stricter acceptance policy used by manual
// probes: every field must be present, the total must be positive, the
// client document must be at least eleven characters and the installation
// number at least six.
func ValidateStrict(b *Bill) error {
	if err := ValidateRequired(b); err != nil {
		return err
	}
	if b.ReferenceMonth == "" {
		return fmt.Errorf("missing required field: reference_month")
	}
	if b.DueDate == "" {
		return fmt.Errorf("missing required field: due_date")
	}
	if b.TotalAmount <= 0 {
		return fmt.Errorf("total_amount must be greater than zero")
	}
	if len(b.ClientDocument) < 11 {
		return fmt.Errorf("client_document must be at least 11 characters")
	}
	if len(b.InstallationNumber) < 6 {
		return fmt.Errorf("installation_number must be at least 6 characters")
	}
	return nil
}
