package http

import (
	"errors"
	"fmt"
	"net/http"
	"sort"

	"finflow/internal/budget"
	"finflow/internal/core"
)

// maxHistoryDays bounds GET /api/transactions.
const maxHistoryDays = 366

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

type parseRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	text := sanitizeInput(req.Text)
	if text == "" {
		writeError(w, r, http.StatusUnprocessableEntity, errors.New("text is required"))
		return
	}
	drafts := s.svc.Parse(r.Context(), text, s.now())
	writeJSON(w, r, http.StatusOK, map[string]any{"drafts": toDraftDTOs(drafts)})
}

type confirmRequest struct {
	Source string     `json:"source"`
	Drafts []draftDTO `json:"drafts"`
}

// handleConfirm validates every draft before confirming any of them.
func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	source, err := parseSource(req.Source)
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, err)
		return
	}
	if len(req.Drafts) == 0 {
		writeError(w, r, http.StatusUnprocessableEntity, errors.New("at least one draft is required"))
		return
	}

	drafts := make([]core.TransactionDraft, len(req.Drafts))
	for i, d := range req.Drafts {
		drafts[i], err = d.toDraft()
		if err != nil {
			writeError(w, r, http.StatusUnprocessableEntity, fmt.Errorf("draft %d: %w", i, err))
			return
		}
	}

	results, err := s.svc.ConfirmAll(r.Context(), drafts, source, s.now())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	out := make([]confirmResultDTO, len(results))
	for i, res := range results {
		out[i] = toConfirmResultDTO(res)
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"results": out})
}

type importRequest struct {
	Records []core.ExtractedRecord `json:"records"`
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	drafts := s.svc.ImportExtracted(r.Context(), req.Records, s.now())
	writeJSON(w, r, http.StatusOK, map[string]any{
		"drafts":  toDraftDTOs(drafts),
		"skipped": len(req.Records) - len(drafts),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	days, err := parsePositiveInt(r, "days", 30, maxHistoryDays)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	today := core.DateOf(s.now())
	txs, err := s.ledger.ListTransactions(r.Context(), today.AddDays(-(days - 1)), today)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	out := make([]transactionDTO, len(txs))
	for i, tx := range txs {
		out[i] = toTransactionDTO(tx)
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"transactions": out})
}

func (s *Server) handleBudget(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.Budgets().Progress(r.Context(), s.now())
	if errors.Is(err, core.ErrNoActiveBudget) {
		writeError(w, r, http.StatusNotFound, core.ErrNoActiveBudget)
		return
	}
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toReportDTO(report))
}

// handleSaveBudget accepts the same TOML document as `finflow budget set`.
func (s *Server) handleSaveBudget(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	b, err := budget.Decode(data)
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, err)
		return
	}
	if _, err := s.svc.Budgets().SaveBudget(r.Context(), b); err != nil {
		status := http.StatusInternalServerError
		if isValidationError(err) {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, r, status, err)
		return
	}

	report, err := s.svc.Budgets().Progress(r.Context(), s.now())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, toReportDTO(report))
}

var validationErrors = []error{
	budget.ErrAllocationNot100,
	core.ErrInvalidCycle,
	core.ErrInvalidShare,
	core.ErrEmptyWalletName,
	core.ErrDuplicateWallet,
	core.ErrUnknownWalletInMap,
	core.ErrInvalidCurrency,
	core.ErrInvalidAmount,
}

func isValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (s *Server) handleSuggestion(w http.ResponseWriter, r *http.Request) {
	grade := budget.GradeA
	report, err := s.svc.Budgets().Progress(r.Context(), s.now())
	switch {
	case err == nil:
		grade = report.Grade
	case !errors.Is(err, core.ErrNoActiveBudget):
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}

	shares := budget.RecommendedShares(grade)
	wallets := make([]walletDTO, len(shares))
	for i, share := range shares {
		wallets[i] = walletDTO{Name: share.Name, Share: share.PercentShare}
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"grade": string(grade), "wallets": wallets})
}

func (s *Server) handleStreak(w http.ResponseWriter, r *http.Request) {
	state, err := s.svc.Streaks().State(r.Context(), s.now())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toStreakDTO(state))
}

type rewardDTO struct {
	Code string `json:"code"`
	Cost int64  `json:"cost"`
}

func (s *Server) handleRewards(w http.ResponseWriter, r *http.Request) {
	catalog := s.svc.Streaks().Catalog()
	out := make([]rewardDTO, 0, len(catalog))
	for code, cost := range catalog {
		out = append(out, rewardDTO{Code: code, Cost: cost})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cost < out[j].Cost })
	writeJSON(w, r, http.StatusOK, map[string]any{"rewards": out})
}

// handleRedeem answers 200 for both outcomes; a refused redemption is a
// normal result with ok=false.
func (s *Server) handleRedeem(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Streaks().Redeem(r.Context(), r.PathValue("code"), s.now())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, r, http.StatusOK, redeemDTO{OK: res.OK, Reason: res.Reason, Balance: res.Balance})
}
