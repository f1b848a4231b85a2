package bill

import "time"

// SentinelUnknown marks optional fields that could not be extracted.
const SentinelUnknown = "N/A"

// Bill represents an electricity bill parsed from an emailed PDF
type Bill struct {
	ID                 string    `json:"id"`
	ClientName         string    `json:"client_name"`
	ClientDocument     string    `json:"client_document"` // CNPJ/CPF/RANI, SentinelUnknown when absent
	ClientEmail        string    `json:"client_email,omitempty"`
	InstallationNumber string    `json:"installation_number"` // business key
	TotalAmount        float64   `json:"total_amount"`
	ReferenceMonth     string    `json:"reference_month"`
	DueDate            string    `json:"due_date"`
	PDFPath            string    `json:"pdf_path"` // content-addressed blob path
	Paid               bool      `json:"paid"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
