package http

import (
	"fmt"
	"strings"
	"time"

	"finflow/internal/budget"
	"finflow/internal/core"
	"finflow/internal/notify"
	"finflow/internal/services"
	"finflow/internal/streak"
)

type draftDTO struct {
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Date        string `json:"date"`
	Type        string `json:"type"`
	DedupHash   string `json:"dedup_hash,omitempty"`
}

func toDraftDTO(d core.TransactionDraft) draftDTO {
	return draftDTO{
		Amount:      d.Amount.Value,
		Currency:    d.Amount.Currency,
		Description: d.Description,
		Category:    d.Category,
		Date:        d.Date.Key(),
		Type:        string(d.Type),
		DedupHash:   d.DedupHash,
	}
}

func toDraftDTOs(drafts []core.TransactionDraft) []draftDTO {
	out := make([]draftDTO, len(drafts))
	for i, d := range drafts {
		out[i] = toDraftDTO(d)
	}
	return out
}

// toDraft rebuilds a draft sent back by a client. The dedup hash is always
// recomputed from the content.
func (d draftDTO) toDraft() (core.TransactionDraft, error) {
	date, err := core.ParseDate(d.Date)
	if err != nil {
		return core.TransactionDraft{}, err
	}
	category := strings.TrimSpace(d.Category)
	if category == "" {
		category = core.DefaultCategory
	}
	draft := core.TransactionDraft{
		Amount:      core.Money{Value: d.Amount, Currency: strings.ToUpper(strings.TrimSpace(d.Currency))},
		Description: core.CollapseSpaces(core.ComposeText(d.Description)),
		Category:    category,
		Date:        date,
		Type:        core.TransactionType(strings.ToLower(d.Type)),
	}
	if err := draft.Validate(); err != nil {
		return core.TransactionDraft{}, err
	}
	return draft, nil
}

type transactionDTO struct {
	ID          int64  `json:"id"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Date        string `json:"date"`
	Type        string `json:"type"`
	Source      string `json:"source"`
	CreatedAt   string `json:"created_at"`
}

func toTransactionDTO(t core.Transaction) transactionDTO {
	return transactionDTO{
		ID:          t.ID,
		Amount:      t.Amount.Value,
		Currency:    t.Amount.Currency,
		Description: t.Description,
		Category:    t.Category,
		Date:        t.Date.Key(),
		Type:        string(t.Type),
		Source:      string(t.Source),
		CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type loanDTO struct {
	ID        string `json:"id"`
	Direction string `json:"direction"`
}

type eventDTO struct {
	Kind     string  `json:"kind"`
	Severity string  `json:"severity"`
	Wallet   string  `json:"wallet"`
	UsedPct  float64 `json:"used_pct"`
	Title    string  `json:"title"`
	Body     string  `json:"body"`
}

func toEventDTOs(events []notify.Event) []eventDTO {
	out := make([]eventDTO, len(events))
	for i, e := range events {
		title, body := notify.Render(e)
		out[i] = eventDTO{
			Kind:     string(e.Kind),
			Severity: string(e.Severity),
			Wallet:   e.Progress.Wallet.Name,
			UsedPct:  e.Progress.UsedPct,
			Title:    title,
			Body:     body,
		}
	}
	return out
}

type confirmResultDTO struct {
	Duplicate   bool            `json:"duplicate"`
	Transaction *transactionDTO `json:"transaction,omitempty"`
	Loan        *loanDTO        `json:"loan,omitempty"`
	Streak      int             `json:"streak"`
	Awarded     int64           `json:"awarded"`
	Milestone   bool            `json:"milestone"`
	Balance     int64           `json:"balance"`
	Events      []eventDTO      `json:"events"`
}

func toConfirmResultDTO(r services.ConfirmResult) confirmResultDTO {
	out := confirmResultDTO{Duplicate: r.Duplicate, Events: []eventDTO{}}
	if r.Duplicate {
		return out
	}
	tx := toTransactionDTO(r.Transaction)
	out.Transaction = &tx
	if r.Loan != nil {
		out.Loan = &loanDTO{ID: r.Loan.ID, Direction: string(r.Loan.Direction)}
	}
	out.Streak = r.Activity.Streak.Current
	out.Awarded = r.Activity.Awarded
	out.Milestone = r.Activity.Milestone
	out.Balance = r.Activity.Balance
	out.Events = toEventDTOs(r.Events)
	return out
}

type walletDTO struct {
	Name    string  `json:"name"`
	Share   int     `json:"share"`
	Color   string  `json:"color,omitempty"`
	Limit   int64   `json:"limit"`
	Spend   int64   `json:"spend"`
	UsedPct float64 `json:"used_pct"`
}

type reportDTO struct {
	BudgetID    int64       `json:"budget_id"`
	Cycle       string      `json:"cycle"`
	Currency    string      `json:"currency"`
	PeriodStart string      `json:"period_start"`
	PeriodEnd   string      `json:"period_end"`
	Income      int64       `json:"income"`
	Expense     int64       `json:"expense"`
	Grade       string      `json:"grade"`
	Wallets     []walletDTO `json:"wallets"`
	Events      []eventDTO  `json:"events"`
}

func toReportDTO(r budget.Report) reportDTO {
	out := reportDTO{
		BudgetID:    r.Budget.ID,
		Cycle:       string(r.Budget.Cycle),
		Currency:    r.Budget.Currency,
		PeriodStart: r.Period.Start.Key(),
		PeriodEnd:   r.Period.End.Key(),
		Income:      r.Income,
		Expense:     r.Expense,
		Grade:       string(r.Grade),
		Wallets:     make([]walletDTO, len(r.Wallets)),
		Events:      toEventDTOs(notify.Evaluate(r.Wallets)),
	}
	for i, w := range r.Wallets {
		out.Wallets[i] = walletDTO{
			Name:    w.Wallet.Name,
			Share:   w.Wallet.PercentShare,
			Color:   w.Wallet.ColorTag,
			Limit:   w.Limit,
			Spend:   w.Spend,
			UsedPct: w.UsedPct,
		}
	}
	return out
}

type markerDTO struct {
	Date   string `json:"date"`
	Status string `json:"status"`
}

type streakDTO struct {
	Current        int         `json:"current"`
	Best           int         `json:"best"`
	CompletedToday bool        `json:"completed_today"`
	Balance        int64       `json:"balance"`
	Calendar       []markerDTO `json:"calendar"`
}

func toStreakDTO(s streak.State) streakDTO {
	out := streakDTO{
		Current:        s.Streak.Current,
		Best:           s.Streak.Best,
		CompletedToday: s.Streak.CompletedToday,
		Balance:        s.Balance,
		Calendar:       make([]markerDTO, len(s.Calendar)),
	}
	for i, m := range s.Calendar {
		out.Calendar[i] = markerDTO{Date: m.Date.Key(), Status: string(m.Status)}
	}
	return out
}

type redeemDTO struct {
	OK      bool   `json:"ok"`
	Reason  string `json:"reason,omitempty"`
	Balance int64  `json:"balance"`
}

func parseSource(s string) (core.TransactionSource, error) {
	switch core.TransactionSource(strings.ToLower(strings.TrimSpace(s))) {
	case "", core.SourceText:
		return core.SourceText, nil
	case core.SourceImage:
		return core.SourceImage, nil
	}
	return "", fmt.Errorf("invalid source %q", s)
}
