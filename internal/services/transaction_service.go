// Package services wires the parser, dedup guard, ledger, streak engine and
// budget notifier into the confirm pipeline.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"finflow/internal/budget"
	"finflow/internal/category"
	"finflow/internal/core"
	"finflow/internal/dedup"
	"finflow/internal/log"
	"finflow/internal/notify"
	"finflow/internal/parser"
	"finflow/internal/ports"
	"finflow/internal/streak"
)

// Deps are the collaborators of a TransactionService. Only Store is required.
type Deps struct {
	Store             ports.Store
	Notifier          ports.Notifier
	Classifier        *category.Classifier
	Guard             *dedup.Guard
	Logger            *log.Logger
	DefaultCurrency   string
	ImportDefaultType core.TransactionType
	RewardCatalog     map[string]int64
}

// ConfirmResult reports what confirming one draft did.
type ConfirmResult struct {
	Duplicate   bool
	Transaction core.Transaction
	Loan        *core.LoanRecord
	Activity    streak.Activity
	Events      []notify.Event
}

type TransactionService struct {
	store      ports.Store
	parser     *parser.Parser
	classifier *category.Classifier
	guard      *dedup.Guard
	streaks    *streak.Engine
	budgets    *budget.Engine
	dispatcher *notify.Dispatcher
	currency   string
	importType core.TransactionType
	logger     *log.Logger
}

func NewTransactionService(d Deps) *TransactionService {
	if d.Classifier == nil {
		d.Classifier = category.NewClassifier(nil)
	}
	if d.Guard == nil {
		d.Guard = dedup.NewGuard(dedup.DefaultWindow, 0)
	}
	if d.Logger == nil {
		d.Logger = log.Discard()
	}
	if d.DefaultCurrency == "" {
		d.DefaultCurrency = core.DefaultCurrency
	}
	if !d.ImportDefaultType.Valid() {
		d.ImportDefaultType = core.Expense
	}

	dispatcher := notify.NewDispatcher(d.Notifier, d.Logger)
	return &TransactionService{
		store:      d.Store,
		parser:     parser.New(d.Classifier, d.DefaultCurrency),
		classifier: d.Classifier,
		guard:      d.Guard,
		streaks:    streak.NewEngine(d.Store, dispatcher, d.RewardCatalog, d.Logger),
		budgets:    budget.NewEngine(d.Store, d.DefaultCurrency, d.Logger),
		dispatcher: dispatcher,
		currency:   d.DefaultCurrency,
		importType: d.ImportDefaultType,
		logger:     d.Logger.WithComponent(log.ComponentLedger),
	}
}

func (s *TransactionService) Streaks() *streak.Engine { return s.streaks }

func (s *TransactionService) Budgets() *budget.Engine { return s.budgets }

func (s *TransactionService) Guard() *dedup.Guard { return s.guard }

// Parse turns free text into drafts dated relative to now.
func (s *TransactionService) Parse(ctx context.Context, text string, now time.Time) []core.TransactionDraft {
	drafts := s.parser.Parse(text, core.DateOf(now))
	s.logger.DebugContext(ctx, "Text parsed",
		log.FieldOperation, log.OpParse,
		"drafts", len(drafts))
	return drafts
}

// Confirm persists a draft unless the same draft was confirmed within the
// dedup window. After saving it records daily activity and, for expenses,
// checks the wallet the category feeds.
func (s *TransactionService) Confirm(ctx context.Context, d core.TransactionDraft, source core.TransactionSource, now time.Time) (ConfirmResult, error) {
	if err := d.Validate(); err != nil {
		return ConfirmResult{}, fmt.Errorf("invalid draft: %w", err)
	}
	if d.DedupHash == "" {
		d.DedupHash = dedup.HashDraft(d)
	}

	fields := log.NewFields().WithOperation(log.OpConfirm).WithDraft(d)
	if s.guard.Check(d.DedupHash, now) {
		s.logger.InfoContext(ctx, "Duplicate confirmation suppressed", fields.ToSlice()...)
		return ConfirmResult{Duplicate: true}, nil
	}

	tx := d.ToTransaction(source, now)
	id, err := s.store.AppendTransaction(ctx, tx)
	if err != nil {
		s.guard.Forget(d.DedupHash)
		return ConfirmResult{}, fmt.Errorf("save transaction: %w", err)
	}
	tx.ID = id
	result := ConfirmResult{Transaction: tx}

	if direction, ok := category.LoanDirection(tx.Category); ok {
		loan := core.LoanRecord{
			ID:            uuid.NewString(),
			TransactionID: id,
			Direction:     direction,
			Amount:        tx.Amount,
			Date:          tx.Date,
			Note:          tx.Description,
		}
		if err := s.store.AppendLoan(ctx, loan); err != nil {
			return result, fmt.Errorf("save loan record: %w", err)
		}
		result.Loan = &loan
	}

	result.Activity, err = s.streaks.RecordActivity(ctx, now)
	if err != nil {
		return result, fmt.Errorf("record activity: %w", err)
	}

	if tx.Type == core.Expense {
		result.Events, err = s.checkWallet(ctx, tx, now)
		if err != nil {
			return result, err
		}
	}

	s.logger.InfoContext(ctx, "Transaction confirmed", append(fields.ToSlice(), log.FieldTransaction, id)...)
	return result, nil
}

// checkWallet evaluates thresholds for the wallet tx's category maps to.
func (s *TransactionService) checkWallet(ctx context.Context, tx core.Transaction, now time.Time) ([]notify.Event, error) {
	report, err := s.budgets.Progress(ctx, now)
	if errors.Is(err, core.ErrNoActiveBudget) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("budget progress: %w", err)
	}
	if tx.Amount.Currency != report.Budget.Currency {
		return nil, nil
	}
	wallet, ok := report.Budget.WalletFor(tx.Category)
	if !ok {
		return nil, nil
	}

	var events []notify.Event
	for _, e := range notify.Evaluate(report.Wallets) {
		if e.Progress.Wallet.Name == wallet.Name {
			events = append(events, e)
		}
	}
	s.dispatcher.Dispatch(ctx, events)
	return events, nil
}

// ConfirmAll confirms drafts in order, stopping at the first error.
func (s *TransactionService) ConfirmAll(ctx context.Context, drafts []core.TransactionDraft, source core.TransactionSource, now time.Time) ([]ConfirmResult, error) {
	results := make([]ConfirmResult, 0, len(drafts))
	for _, d := range drafts {
		r, err := s.Confirm(ctx, d, source, now)
		if err != nil {
			return results, err
		}
		results = append(results, r)
	}
	return results, nil
}

// ImportExtracted converts extraction records into drafts, bypassing the
// text parser. Records without a usable amount are skipped; an unknown type
// falls back to the configured default.
func (s *TransactionService) ImportExtracted(ctx context.Context, records []core.ExtractedRecord, now time.Time) []core.TransactionDraft {
	today := core.DateOf(now)
	var drafts []core.TransactionDraft
	for i, r := range records {
		d, err := s.draftFromRecord(r, today)
		if err != nil {
			s.logger.WarnContext(ctx, "Extracted record skipped",
				log.FieldOperation, log.OpImport,
				"index", i,
				"confidence", r.Confidence,
				log.FieldError, err)
			continue
		}
		drafts = append(drafts, d)
	}
	return drafts
}

func (s *TransactionService) draftFromRecord(r core.ExtractedRecord, today core.Date) (core.TransactionDraft, error) {
	currency := strings.ToUpper(strings.TrimSpace(r.Currency))
	if currency == "" {
		currency = s.currency
	} else if code, ok := core.CurrencyOf(strings.ToLower(currency)); ok {
		currency = code
	}

	date := today
	if strings.TrimSpace(r.Date) != "" {
		parsed, err := core.ParseDate(r.Date)
		if err != nil {
			return core.TransactionDraft{}, err
		}
		date = parsed
	}

	typ := core.TransactionType(strings.ToLower(strings.TrimSpace(r.Type)))
	if !typ.Valid() {
		typ = s.importType
	}

	desc := core.CollapseSpaces(core.ComposeText(r.Description))
	cat := s.classifier.Infer(desc)
	if desc == "" {
		desc = cat
	}

	d := core.TransactionDraft{
		Amount:      core.Money{Value: r.Amount, Currency: currency},
		Description: desc,
		Category:    cat,
		Date:        date,
		Type:        typ,
	}
	if err := d.Validate(); err != nil {
		return core.TransactionDraft{}, err
	}
	d.DedupHash = dedup.HashDraft(d)
	return d, nil
}

func (s *TransactionService) Close() error {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			return fmt.Errorf("close store: %w", err)
		}
	}
	return nil
}
