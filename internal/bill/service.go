package bill

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"fatura-ingest/internal/extract"
	"fatura-ingest/internal/mailbox"
)

// Extractor turns a stored PDF blob into typed bill fields
type Extractor interface {
	ExtractBill(path string) (extract.Fields, error)
}

// Outcome describes what the pipeline did with one attachment
type Outcome string

const (
	OutcomeCreated   Outcome = "created"
	OutcomeUpdated   Outcome = "updated"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeStored    Outcome = "stored" // image blobs: kept, never text-extracted
	OutcomeRejected  Outcome = "rejected"
	OutcomeFailed    Outcome = "failed"
)

// Result is the per-attachment outcome of an ingestion run
type Result struct {
	Filename     string  `json:"filename"`
	Installation string  `json:"installation,omitempty"`
	Outcome      Outcome `json:"outcome"`
	Reason       string  `json:"reason,omitempty"`
}

// Summary aggregates one ingestion run
type Summary struct {
	MessagesScanned   int      `json:"messages_scanned"`
	AttachmentsFound  int      `json:"attachments_found"`
	BlobsStored       int      `json:"blobs_stored"`
	DuplicatesSkipped int      `json:"duplicates_skipped"`
	BillsExtracted    int      `json:"bills_extracted"`
	BillsSaved        int      `json:"bills_saved"`
	Failed            int      `json:"failed"`
	Results           []Result `json:"results"`
}

// Service runs the ingestion pipeline and serves bill lookups
type Service struct {
	db        DB
	connector mailbox.Connector
	extractor Extractor
	storage   Storage
	window    int
}

// NewService creates a new Service. window bounds how many of the most
// recent inbox messages one run will consider.
func NewService(db DB, connector mailbox.Connector, extractor Extractor, storage Storage, window int) *Service {
	return &Service{
		db:        db,
		connector: connector,
		extractor: extractor,
		storage:   storage,
		window:    window,
	}
}

// RunIngestion scans the mailbox window, stores unseen attachments, extracts
// PDF bills and upserts them by installation number. Only configuration and
// connect/login problems fail the run; every later failure is contained to
// its message, attachment or record.
func (s *Service) RunIngestion() (*Summary, error) {
	session, err := s.connector.Connect()
	if err != nil {
		return nil, fmt.Errorf("connecting to mailbox: %w", err)
	}
	defer func() {
		if err := session.Logout(); err != nil {
			slog.Warn("Mailbox logout failed", "error", err)
		}
	}()

	ids, err := session.ListMessageIDs()
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	if len(ids) > s.window {
		ids = ids[len(ids)-s.window:]
	}

	summary := &Summary{Results: []Result{}}
	for _, id := range ids {
		raw, err := session.Fetch(id)
		if err != nil {
			slog.Error("Skipping message", "id", id, "error", err)
			continue
		}
		summary.MessagesScanned++

		attachments, err := mailbox.ParseAttachments(raw)
		if err != nil {
			// Attachments decoded before the failure are still usable.
			slog.Error("Message only partially parsed", "id", id, "error", err)
		}
		for _, att := range attachments {
			s.processAttachment(att, summary)
		}

		if err := session.MarkSeen(id); err != nil {
			slog.Warn("Could not flag message as read", "id", id, "error", err)
		}
	}

	return summary, nil
}

// processAttachment takes one attachment through fingerprinting, storage,
// extraction, derivation, validation and upsert.
func (s *Service) processAttachment(att mailbox.Attachment, summary *Summary) {
	summary.AttachmentsFound++

	fingerprint := Fingerprint(att.Data)

	data, ext := att.Data, att.Ext
	if att.Media == mailbox.MediaImage {
		var err error
		data, ext, err = normalizeImage(att.Data, att.Ext)
		if err != nil {
			slog.Warn("Storing image without normalization", "filename", att.Filename, "error", err)
			data, ext = att.Data, att.Ext
		}
	}

	name := BlobName(fingerprint, ext)
	if s.storage.Exists(name) {
		slog.Info("Skipping already-seen attachment", "filename", att.Filename, "fingerprint", fingerprint)
		summary.DuplicatesSkipped++
		summary.Results = append(summary.Results, Result{Filename: att.Filename, Outcome: OutcomeDuplicate})
		return
	}

	path, err := s.storage.Save(name, data)
	if err != nil {
		slog.Error("Could not store attachment", "filename", att.Filename, "error", err)
		summary.Failed++
		summary.Results = append(summary.Results, Result{Filename: att.Filename, Outcome: OutcomeFailed, Reason: err.Error()})
		return
	}
	summary.BlobsStored++

	if att.Media != mailbox.MediaPDF {
		// Image scans are retained for audit; reading them needs OCR,
		// which this pipeline does not do.
		summary.Results = append(summary.Results, Result{Filename: att.Filename, Outcome: OutcomeStored})
		return
	}

	fields, err := s.extractor.ExtractBill(path)
	if err != nil {
		slog.Error("Dropping unreadable bill", "filename", att.Filename, "path", path, "error", err)
		summary.Failed++
		summary.Results = append(summary.Results, Result{Filename: att.Filename, Outcome: OutcomeFailed, Reason: err.Error()})
		return
	}
	summary.BillsExtracted++

	record := recordFromFields(fields, path)
	if err := ValidateRequired(record); err != nil {
		slog.Warn("Dropping incomplete bill", "filename", att.Filename, "reason", err)
		summary.Results = append(summary.Results, Result{Filename: att.Filename, Outcome: OutcomeRejected, Reason: err.Error()})
		return
	}

	s.upsert(att.Filename, record, summary)
}

// recordFromFields builds a bill from extracted fields, substituting
// sentinels for missing optional values.
func recordFromFields(f extract.Fields, path string) *Bill {
	b := &Bill{
		ClientDocument: SentinelUnknown,
		ReferenceMonth: SentinelUnknown,
		DueDate:        SentinelUnknown,
		TotalAmount:    extract.DeriveTotal(f.UnitPriceWithTax, f.ConsumptionKWh),
		PDFPath:        path,
	}
	if f.ClientName.Present {
		b.ClientName = f.ClientName.Value
	}
	if f.InstallationNumber.Present {
		b.InstallationNumber = f.InstallationNumber.Value
	}
	if f.ClientDocument.Present {
		b.ClientDocument = f.ClientDocument.Value
	}
	if f.ClientEmail.Present {
		b.ClientEmail = f.ClientEmail.Value
	}
	if f.ReferenceMonth.Present {
		b.ReferenceMonth = f.ReferenceMonth.Value
	}
	if f.DueDate.Present {
		b.DueDate = f.DueDate.Value
	}
	return b
}

// upsert looks the record up by installation number and updates it in place
// or inserts it. A persistence failure never aborts the rest of the batch.
func (s *Service) upsert(filename string, record *Bill, summary *Summary) {
	existing, err := s.db.FindByInstallation(record.InstallationNumber)
	switch {
	case err == nil:
		if _, err := s.db.Update(existing, record); err != nil {
			slog.Error("Could not update bill", "installation", record.InstallationNumber, "error", err)
			summary.Failed++
			summary.Results = append(summary.Results, Result{Filename: filename, Installation: record.InstallationNumber, Outcome: OutcomeFailed, Reason: err.Error()})
			return
		}
		slog.Info("Bill updated", "installation", record.InstallationNumber, "client", record.ClientName)
		summary.BillsSaved++
		summary.Results = append(summary.Results, Result{Filename: filename, Installation: record.InstallationNumber, Outcome: OutcomeUpdated})
	case errors.Is(err, ErrNotFound):
		if _, err := s.db.Insert(record); err != nil {
			slog.Error("Could not insert bill", "installation", record.InstallationNumber, "error", err)
			summary.Failed++
			summary.Results = append(summary.Results, Result{Filename: filename, Installation: record.InstallationNumber, Outcome: OutcomeFailed, Reason: err.Error()})
			return
		}
		slog.Info("Bill created", "installation", record.InstallationNumber, "client", record.ClientName)
		summary.BillsSaved++
		summary.Results = append(summary.Results, Result{Filename: filename, Installation: record.InstallationNumber, Outcome: OutcomeCreated})
	default:
		slog.Error("Could not look up bill", "installation", record.InstallationNumber, "error", err)
		summary.Failed++
		summary.Results = append(summary.Results, Result{Filename: filename, Installation: record.InstallationNumber, Outcome: OutcomeFailed, Reason: err.Error()})
	}
}

// ListBills returns all stored bills
func (s *Service) ListBills() ([]*Bill, error) {
	bills, err := s.db.ListBills()
	if err != nil {
		return nil, fmt.Errorf("listing bills: %w", err)
	}
	return bills, nil
}

// GetBill retrieves a bill by installation number
func (s *Service) GetBill(installationNumber string) (*Bill, error) {
	b, err := s.db.FindByInstallation(installationNumber)
	if err != nil {
		return nil, fmt.Errorf("getting bill: %w", err)
	}
	return b, nil
}

// MarkPaid flags a bill as paid
func (s *Service) MarkPaid(installationNumber string) (*Bill, error) {
	b, err := s.db.MarkPaid(installationNumber)
	if err != nil {
		return nil, fmt.Errorf("marking bill paid: %w", err)
	}
	return b, nil
}

// GetBillFile retrieves the stored source blob for a bill
func (s *Service) GetBillFile(installationNumber string) ([]byte, string, error) {
	b, err := s.db.FindByInstallation(installationNumber)
	if err != nil {
		return nil, "", fmt.Errorf("getting bill: %w", err)
	}
	data, err := s.storage.Get(filepath.Base(b.PDFPath))
	if err != nil {
		return nil, "", fmt.Errorf("getting bill file: %w", err)
	}
	return data, contentTypeForExt(filepath.Ext(b.PDFPath)), nil
}

func contentTypeForExt(ext string) string {
	switch ext {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	}
	return "application/octet-stream"
}
