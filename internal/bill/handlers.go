package bill

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"fatura-ingest/internal/mailbox"
)

// corsError writes an error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// handleHealth reports process liveness
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleRunIngestion triggers one synchronous ingestion run
func (s *Server) handleRunIngestion(w http.ResponseWriter, r *http.Request) {
	summary, err := s.service.RunIngestion()
	if err != nil {
		slog.Error("Ingestion run failed", "error", err)
		setCORSHeaders(w)
		w.Header().Set("Content-Type", "application/json")
		code := http.StatusBadGateway
		if errors.Is(err, mailbox.ErrCredentialsMissing) {
			code = http.StatusPreconditionFailed
		}
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]string{
			"error": err.Error(),
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(summary); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleListBills returns a list of all bills
func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request) {
	bills, err := s.service.ListBills()
	if err != nil {
		slog.Error("Error listing bills", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Ensure we always return an array, not nil
	if bills == nil {
		bills = []*Bill{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(bills); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleGetBill returns a single bill by installation number
func (s *Server) handleGetBill(w http.ResponseWriter, r *http.Request) {
	installation := r.PathValue("installation")
	if installation == "" {
		corsError(w, "Installation number required", http.StatusBadRequest)
		return
	}
	b, err := s.service.GetBill(installation)
	if err != nil {
		corsError(w, "Bill not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(b); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleGetBillFile returns the stored source document for a bill
func (s *Server) handleGetBillFile(w http.ResponseWriter, r *http.Request) {
	installation := r.PathValue("installation")
	if installation == "" {
		corsError(w, "Installation number required", http.StatusBadRequest)
		return
	}
	data, contentType, err := s.service.GetBillFile(installation)
	if err != nil {
		corsError(w, "File not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// handleMarkPaid flags a bill as paid
func (s *Server) handleMarkPaid(w http.ResponseWriter, r *http.Request) {
	installation := r.PathValue("installation")
	if installation == "" {
		corsError(w, "Installation number required", http.StatusBadRequest)
		return
	}
	b, err := s.service.MarkPaid(installation)
	if err != nil {
		slog.Error("Error marking bill paid", "installation", installation, "error", err)
		corsError(w, "Bill not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(b); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}
