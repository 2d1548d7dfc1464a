package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	Weekly  BudgetCycle = "weekly"
	Monthly BudgetCycle = "monthly"
)

const (
	SourceText  TransactionSource = "text"
	SourceImage TransactionSource = "image"
)

const (
	Lend   LoanDirection = "lend"
	Borrow LoanDirection = "borrow"
)

// DefaultCategory is assigned when no category rule matches.
const DefaultCategory = "Other"

type (
	TransactionType   string
	BudgetCycle       string
	TransactionSource string
	LoanDirection     string

	// Date is a calendar day. The wrapped time is always midnight UTC.
	Date struct {
		time.Time
	}

	// Money is a whole-unit amount paired with an ISO-like currency code.
	Money struct {
		Value    int64
		Currency string
	}

	// TransactionDraft is an unconfirmed candidate produced by the parser.
	TransactionDraft struct {
		Amount      Money
		Description string
		Category    string
		Date        Date
		Type        TransactionType
		DedupHash   string
	}

	Transaction struct {
		ID          int64
		Amount      Money
		Description string
		Category    string
		Date        Date
		Type        TransactionType
		Source      TransactionSource
		CreatedAt   time.Time
	}

	// LoanRecord is the auxiliary ledger entry written for lend/borrow transactions.
	LoanRecord struct {
		ID            string
		TransactionID int64
		Direction     LoanDirection
		Amount        Money
		Date          Date
		Note          string
	}

	Wallet struct {
		ID           int64 // zero until persisted
		Name         string
		PercentShare int
		ColorTag     string
	}

	Budget struct {
		ID                    int64
		Cycle                 BudgetCycle
		StartDate             Date
		Rollover              bool
		MonthlyIncomeOverride *int64
		Currency              string
		Active                bool
		Wallets               []Wallet
		// CategoryWallets maps an expense category to a wallet name.
		// Names are used instead of IDs so unsaved budgets can carry a mapping.
		CategoryWallets map[string]string
	}

	// ExtractedRecord is a raw candidate returned by the image extraction
	// collaborator. Fields are unvalidated; Date is "2006-01-02" or empty and
	// Type may be anything.
	ExtractedRecord struct {
		Amount      int64   `json:"amount"`
		Currency    string  `json:"currency"`
		Description string  `json:"description"`
		Date        string  `json:"date"`
		Type        string  `json:"type"`
		Confidence  float64 `json:"confidence"`
	}

	HabitLogEntry struct {
		Date  Date
		Count int
	}

	StreakState struct {
		Current        int
		Best           int
		CompletedToday bool
	}

	CoinWallet struct {
		Coins int64
	}

	Redemption struct {
		ID         string
		Code       string
		Cost       int64
		RedeemedAt time.Time
	}
)

var (
	ErrInvalidDay         = errors.New("invalid day")
	ErrInvalidMonth       = errors.New("invalid month")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidCurrency    = errors.New("invalid currency code")
	ErrEmptyDescription   = errors.New("empty description")
	ErrEmptyCategory      = errors.New("empty category")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrInvalidCycle       = errors.New("invalid budget cycle")
	ErrInvalidShare       = errors.New("wallet percent share must be between 0 and 100")
	ErrEmptyWalletName    = errors.New("empty wallet name")
	ErrInsufficientCoins  = errors.New("insufficient balance")
	ErrNoActiveBudget     = errors.New("no active budget")
	ErrUnknownWalletInMap = errors.New("category mapped to unknown wallet")
	ErrDuplicateWallet    = errors.New("duplicate wallet name")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a "2006-01-02" day key.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// AddDays shifts the date by n calendar days.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// Key returns the canonical "2006-01-02" representation used for storage.
func (d Date) Key() string {
	return d.Format("2006-01-02")
}

func (d Date) String() string {
	return d.Key()
}

// DaysUntil returns the number of calendar days from d to other.
func (d Date) DaysUntil(other Date) int {
	return int(other.Sub(d.Time).Hours() / 24)
}

// ISOWeekStart returns the Monday of d's ISO week.
func (d Date) ISOWeekStart() Date {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDays(-offset)
}

func (m Money) Validate() error {
	if m.Value <= 0 {
		return ErrInvalidAmount
	}
	if len(m.Currency) != 3 || strings.ToUpper(m.Currency) != m.Currency {
		return ErrInvalidCurrency
	}
	return nil
}

func (m Money) String() string {
	return fmt.Sprintf("%d %s", m.Value, m.Currency)
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (d TransactionDraft) Validate() error {
	if err := d.Date.Validate(); err != nil {
		return err
	}
	if err := d.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(d.Category) == "" {
		return ErrEmptyCategory
	}
	if !d.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}

// ToTransaction converts a confirmed draft into a transaction ready to persist.
func (d TransactionDraft) ToTransaction(source TransactionSource, now time.Time) Transaction {
	return Transaction{
		Amount:      d.Amount,
		Description: d.Description,
		Category:    d.Category,
		Date:        d.Date,
		Type:        d.Type,
		Source:      source,
		CreatedAt:   now,
	}
}

func (w Wallet) Validate() error {
	if strings.TrimSpace(w.Name) == "" {
		return ErrEmptyWalletName
	}
	if w.PercentShare < 0 || w.PercentShare > 100 {
		return ErrInvalidShare
	}
	return nil
}

// Validate checks the budget shape. The 100% allocation rule lives in the
// budget package because it only applies at save time.
func (b Budget) Validate() error {
	switch b.Cycle {
	case Weekly, Monthly:
	default:
		return ErrInvalidCycle
	}
	if err := b.StartDate.Validate(); err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}
	if b.MonthlyIncomeOverride != nil && *b.MonthlyIncomeOverride < 0 {
		return ErrInvalidAmount
	}
	names := make(map[string]struct{}, len(b.Wallets))
	for _, w := range b.Wallets {
		if err := w.Validate(); err != nil {
			return fmt.Errorf("wallet %q: %w", w.Name, err)
		}
		if _, dup := names[w.Name]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateWallet, w.Name)
		}
		names[w.Name] = struct{}{}
	}
	for category, wallet := range b.CategoryWallets {
		if _, ok := names[wallet]; !ok {
			return fmt.Errorf("%w: %s -> %s", ErrUnknownWalletInMap, category, wallet)
		}
	}
	return nil
}

// WalletFor returns the wallet an expense category is mapped to.
func (b Budget) WalletFor(category string) (Wallet, bool) {
	name, ok := b.CategoryWallets[category]
	if !ok {
		return Wallet{}, false
	}
	for _, w := range b.Wallets {
		if w.Name == name {
			return w, true
		}
	}
	return Wallet{}, false
}
