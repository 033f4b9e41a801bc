package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/genai"

	"github.com/ferrazfsfs-collab/emprestimo/pkg/advisor"
	"github.com/ferrazfsfs-collab/emprestimo/pkg/backup"
	"github.com/ferrazfsfs-collab/emprestimo/pkg/ledger"
	"github.com/ferrazfsfs-collab/emprestimo/pkg/models"
	"github.com/ferrazfsfs-collab/emprestimo/pkg/report"
	"github.com/ferrazfsfs-collab/emprestimo/pkg/store"
)

// Server holds the ledger instance and its collaborators.
type Server struct {
	ledger  *ledger.Ledger
	storage store.Storage
	advisor *advisor.Advisor
	log     *zap.Logger
}

func NewServer(s store.Storage, adv *advisor.Advisor, log *zap.Logger) *Server {
	return &Server{
		ledger:  ledger.New(s, log),
		storage: s,
		advisor: adv,
		log:     log,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// respondError maps ledger errors onto HTTP statuses.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrClientNotFound), errors.Is(err, store.ErrLoanNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ledger.ErrInvalidState), errors.Is(err, ledger.ErrAlreadyRenegotiated):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, backup.ErrMalformedBackup):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		s.log.Error("request failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func pathID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(mux.Vars(r)["id"])
}

// Clients

func (s *Server) createClientHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Phone    string `json:"phone"`
		Document string `json:"document"`
		Notes    string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	client, err := s.ledger.CreateClient(req.Name, req.Phone, req.Document, req.Notes)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, client)
}

func (s *Server) listClientsHandler(w http.ResponseWriter, r *http.Request) {
	clients, err := s.ledger.ListClients()
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, clients)
}

func (s *Server) getClientHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid client ID", http.StatusBadRequest)
		return
	}
	client, err := s.ledger.GetClient(id)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, client)
}

func (s *Server) updateClientHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid client ID", http.StatusBadRequest)
		return
	}

	var client models.Client
	if err := json.NewDecoder(r.Body).Decode(&client); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	client.ID = id // Ensure ID from URL is used

	if err := s.ledger.UpdateClient(&client); err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, client)
}

func (s *Server) deleteClientHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid client ID", http.StatusBadRequest)
		return
	}
	if err := s.ledger.DeleteClient(id); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) clientRiskHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid client ID", http.StatusBadRequest)
		return
	}
	risk, err := s.ledger.ClassifyRisk(id)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]models.RiskLevel{"risk": risk})
}

// Loans

func (s *Server) createLoanHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClientID     uuid.UUID               `json:"clientId"`
		Amount       decimal.Decimal         `json:"amount"`
		InterestRate decimal.Decimal         `json:"interestRate"`
		TermDays     int                     `json:"termDays"`
		Frequency    models.PaymentFrequency `json:"frequency"`
		Notes        string                  `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Frequency == "" {
		req.Frequency = models.FrequencySingle
	}

	loan, err := s.ledger.CreateLoan(req.ClientID, req.Amount, req.InterestRate, req.TermDays, req.Frequency, req.Notes)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, loan)
}

func (s *Server) listLoansHandler(w http.ResponseWriter, r *http.Request) {
	filter := models.LoanStatus(r.URL.Query().Get("status"))
	loans, err := s.ledger.ListLoans(filter)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loans)
}

func (s *Server) getLoanHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return
	}
	loan, err := s.ledger.GetLoan(id)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loan)
}

func (s *Server) recordPaymentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return
	}

	var req struct {
		Amount decimal.Decimal    `json:"amount"`
		Date   *time.Time         `json:"date"`
		Type   models.PaymentType `json:"type"`
		Notes  string             `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		http.Error(w, "Amount must be positive", http.StatusBadRequest)
		return
	}
	date := time.Now()
	if req.Date != nil {
		date = *req.Date
	}
	if req.Type == "" {
		req.Type = models.PaymentPartial
	}

	result, err := s.ledger.AddPayment(id, req.Amount, date, req.Type, req.Notes)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) renegotiateHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return
	}

	var req struct {
		ExtraDays    int             `json:"extraDays"`
		ExtraRatePct decimal.Decimal `json:"extraRatePct"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	successor, err := s.ledger.Renegotiate(id, req.ExtraDays, req.ExtraRatePct, time.Now())
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, successor)
}

func (s *Server) cancelLoanHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return
	}
	loan, err := s.ledger.CancelLoan(id)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loan)
}

func (s *Server) sweepHandler(w http.ResponseWriter, r *http.Request) {
	swept, err := s.ledger.SweepLateLoans(time.Now())
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"markedLate": swept})
}

func (s *Server) loanStatementHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return
	}
	loan, err := s.ledger.GetLoan(id)
	if err != nil {
		s.respondError(w, err)
		return
	}
	client, err := s.ledger.GetClient(loan.ClientID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	cfg, err := s.ledger.Config()
	if err != nil {
		s.respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, report.LoanStatement(loan, client, cfg))
}

func (s *Server) portfolioReportHandler(w http.ResponseWriter, r *http.Request) {
	filter := models.LoanStatus(r.URL.Query().Get("status"))
	label := "ALL"
	if filter != "" {
		label = string(filter)
	}

	loans, err := s.ledger.ListLoans(filter)
	if err != nil {
		s.respondError(w, err)
		return
	}
	clients, err := s.ledger.ListClients()
	if err != nil {
		s.respondError(w, err)
		return
	}
	cfg, err := s.ledger.Config()
	if err != nil {
		s.respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, report.PortfolioReport(loans, clients, label, cfg))
}

// Dashboard and portfolio

func (s *Server) dashboardHandler(w http.ResponseWriter, r *http.Request) {
	// Statuses must be normalized before any aggregation reads them.
	if _, err := s.ledger.SweepLateLoans(time.Now()); err != nil {
		s.respondError(w, err)
		return
	}
	stats, err := s.ledger.Dashboard(time.Now())
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) portfolioHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := s.ledger.Portfolio()
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) analysisHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := s.ledger.Portfolio()
	if err != nil {
		s.respondError(w, err)
		return
	}
	text := s.advisor.AnalyzePortfolio(r.Context(), stats)
	writeJSON(w, http.StatusOK, map[string]string{"analysis": text})
}

// Capital

func (s *Server) getCapitalHandler(w http.ResponseWriter, r *http.Request) {
	balance, err := s.ledger.CapitalBalance()
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]decimal.Decimal{"capitalBalance": balance})
}

func (s *Server) setCapitalHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CapitalBalance decimal.Decimal `json:"capitalBalance"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.ledger.SetCapitalBalance(req.CapitalBalance); err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]decimal.Decimal{"capitalBalance": req.CapitalBalance})
}

func (s *Server) adjustCapitalHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Delta decimal.Decimal `json:"delta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.ledger.AdjustCapital(req.Delta); err != nil {
		s.respondError(w, err)
		return
	}
	balance, err := s.ledger.CapitalBalance()
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]decimal.Decimal{"capitalBalance": balance})
}

// Settings

func (s *Server) getSettingsHandler(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.ledger.Config()
	if err != nil {
		s.respondError(w, err)
		return
	}
	cfg.SecurityPIN = "" // never expose the PIN
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) saveCompanyHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CompanyName  string `json:"companyName"`
		SupportPhone string `json:"supportPhone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.ledger.SaveCompanyInfo(req.CompanyName, req.SupportPhone); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setCurrencyHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Currency string `json:"currency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.ledger.SetCurrency(req.Currency); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setPinHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PIN string `json:"pin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.ledger.SetPIN(req.PIN); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) validatePinHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PIN string `json:"pin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ok, err := s.ledger.ValidatePIN(req.PIN)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"valid": ok})
}

// Backup

func (s *Server) exportHandler(w http.ResponseWriter, r *http.Request) {
	data, err := backup.Export(s.storage)
	if err != nil {
		s.respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (s *Server) importHandler(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := backup.Import(s.storage, data); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/clients", s.listClientsHandler).Methods("GET")
	router.HandleFunc("/clients", s.createClientHandler).Methods("POST")
	router.HandleFunc("/clients/{id}", s.getClientHandler).Methods("GET")
	router.HandleFunc("/clients/{id}", s.updateClientHandler).Methods("PUT")
	router.HandleFunc("/clients/{id}", s.deleteClientHandler).Methods("DELETE")
	router.HandleFunc("/clients/{id}/risk", s.clientRiskHandler).Methods("GET")

	router.HandleFunc("/loans/sweep", s.sweepHandler).Methods("POST")
	router.HandleFunc("/loans", s.listLoansHandler).Methods("GET")
	router.HandleFunc("/loans", s.createLoanHandler).Methods("POST")
	router.HandleFunc("/loans/{id}", s.getLoanHandler).Methods("GET")
	router.HandleFunc("/loans/{id}/payments", s.recordPaymentHandler).Methods("POST")
	router.HandleFunc("/loans/{id}/renegotiate", s.renegotiateHandler).Methods("POST")
	router.HandleFunc("/loans/{id}/cancel", s.cancelLoanHandler).Methods("POST")
	router.HandleFunc("/loans/{id}/statement", s.loanStatementHandler).Methods("GET")

	router.HandleFunc("/dashboard", s.dashboardHandler).Methods("GET")
	router.HandleFunc("/portfolio", s.portfolioHandler).Methods("GET")
	router.HandleFunc("/portfolio/analysis", s.analysisHandler).Methods("GET")
	router.HandleFunc("/reports/loans", s.portfolioReportHandler).Methods("GET")

	router.HandleFunc("/capital", s.getCapitalHandler).Methods("GET")
	router.HandleFunc("/capital", s.setCapitalHandler).Methods("PUT")
	router.HandleFunc("/capital/adjust", s.adjustCapitalHandler).Methods("POST")

	router.HandleFunc("/settings", s.getSettingsHandler).Methods("GET")
	router.HandleFunc("/settings/company", s.saveCompanyHandler).Methods("PUT")
	router.HandleFunc("/settings/currency", s.setCurrencyHandler).Methods("PUT")
	router.HandleFunc("/settings/pin", s.setPinHandler).Methods("PUT")
	router.HandleFunc("/settings/pin/validate", s.validatePinHandler).Methods("POST")

	router.HandleFunc("/backup", s.exportHandler).Methods("GET")
	router.HandleFunc("/backup", s.importHandler).Methods("POST")

	return router
}

func newLogger(level, format string) *zap.Logger {
	lvl := zapcore.InfoLevel
	switch level {
	case "debug":
		lvl = zapcore.DebugLevel
	case "warn":
		lvl = zapcore.WarnLevel
	case "error":
		lvl = zapcore.ErrorLevel
	}

	var cfg zap.Config
	if format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	logger, _ := cfg.Build()
	return logger
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	godotenv.Load()

	log := newLogger(envOr("LOG_LEVEL", "info"), envOr("LOG_FORMAT", "console"))
	defer log.Sync()

	sqliteStore, err := store.NewSQLiteStore(envOr("DB_PATH", "emprestimo.db"))
	if err != nil {
		log.Fatal("failed to initialize SQLite store", zap.Error(err))
	}
	defer sqliteStore.Close()

	// The advisor is optional; without an API key every analysis degrades
	// to the fallback message.
	var genaiClient *genai.Client
	if os.Getenv("GEMINI_API_KEY") != "" {
		genaiClient, err = genai.NewClient(context.Background(), nil)
		if err != nil {
			log.Warn("failed to initialize Gemini client, advisor disabled", zap.Error(err))
			genaiClient = nil
		}
	}

	server := NewServer(sqliteStore, advisor.New(genaiClient, log), log)

	// Normalize overdue loans before serving any reads.
	if _, err := server.ledger.SweepLateLoans(time.Now()); err != nil {
		log.Fatal("startup late sweep failed", zap.Error(err))
	}

	addr := envOr("ADDR", ":8080")
	log.Info("server starting", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, server.routes()); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
