// Package storage is the SQLite implementation of the persistence ports.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"finflow/internal/core"
	"finflow/internal/ports"

	_ "modernc.org/sqlite"
)

const timeLayout = time.RFC3339Nano

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

var _ ports.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer keeps RETURNING-based read-modify-write statements serialized.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, queries: New(db)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// withTx runs fn inside a transaction, rolling back on error.
func (r *SQLiteRepository) withTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.ErrorContext(ctx, "Rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) IncrementActivity(ctx context.Context, day core.Date) (int, error) {
	count, err := r.queries.IncrementActivity(ctx, day.Key())
	if err != nil {
		return 0, fmt.Errorf("increment activity: %w", err)
	}
	return int(count), nil
}

// RecordActivity increments the day's count and, on the first activity of
// the day, credits reward in the same transaction.
func (r *SQLiteRepository) RecordActivity(ctx context.Context, day core.Date, reward int64) (int, int64, error) {
	var (
		count   int64
		balance int64
	)
	err := r.withTx(ctx, func(q *Queries) error {
		var err error
		count, err = q.IncrementActivity(ctx, day.Key())
		if err != nil {
			return fmt.Errorf("increment activity: %w", err)
		}
		if count != 1 {
			balance, err = q.GetCoins(ctx)
			if err != nil {
				return fmt.Errorf("get coins: %w", err)
			}
			return nil
		}
		balance, err = q.AdjustCoins(ctx, reward)
		if errors.Is(err, sql.ErrNoRows) {
			return core.ErrInsufficientCoins
		}
		if err != nil {
			return fmt.Errorf("credit reward: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return int(count), balance, nil
}

func (r *SQLiteRepository) ActivityRange(ctx context.Context, from, to core.Date) ([]core.HabitLogEntry, error) {
	rows, err := r.queries.ListActivity(ctx, from.Key(), to.Key())
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	entries := make([]core.HabitLogEntry, 0, len(rows))
	for _, row := range rows {
		day, err := core.ParseDate(row.Day)
		if err != nil {
			return nil, err
		}
		entries = append(entries, core.HabitLogEntry{Date: day, Count: int(row.Count)})
	}
	return entries, nil
}

func (r *SQLiteRepository) AppendTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	source := t.Source
	if source == "" {
		source = core.SourceText
	}
	id, err := r.queries.CreateTransaction(ctx, CreateTransactionParams{
		Day:         t.Date.Key(),
		Description: t.Description,
		Amount:      t.Amount.Value,
		Currency:    t.Amount.Currency,
		Category:    t.Category,
		Type:        string(t.Type),
		Source:      string(source),
		CreatedAt:   t.CreatedAt.UTC().Format(timeLayout),
	})
	if err != nil {
		return 0, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", id,
		"description", t.Description,
		"amount", t.Amount.Value,
		"currency", t.Amount.Currency,
		"category", t.Category,
		"day", t.Date.Key())

	return id, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, from, to core.Date) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx, from.Key(), to.Key())
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		day, err := core.ParseDate(row.Day)
		if err != nil {
			return nil, err
		}
		created, err := time.Parse(timeLayout, row.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at for %d: %w", row.ID, err)
		}
		out = append(out, core.Transaction{
			ID:          row.ID,
			Amount:      core.Money{Value: row.Amount, Currency: row.Currency},
			Description: row.Description,
			Category:    row.Category,
			Date:        day,
			Type:        core.TransactionType(row.Type),
			Source:      core.TransactionSource(row.Source),
			CreatedAt:   created,
		})
	}
	return out, nil
}

func (r *SQLiteRepository) CategoryTotals(ctx context.Context, currency string, from, to core.Date) (map[string]int64, error) {
	rows, err := r.queries.CategoryTotals(ctx, currency, from.Key(), to.Key())
	if err != nil {
		return nil, fmt.Errorf("category totals: %w", err)
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Total
	}
	return out, nil
}

func (r *SQLiteRepository) TypeTotals(ctx context.Context, currency string, from, to core.Date) (map[core.TransactionType]int64, error) {
	rows, err := r.queries.TypeTotals(ctx, currency, from.Key(), to.Key())
	if err != nil {
		return nil, fmt.Errorf("type totals: %w", err)
	}
	out := make(map[core.TransactionType]int64, len(rows))
	for _, row := range rows {
		out[core.TransactionType(row.Key)] = row.Total
	}
	return out, nil
}

func (r *SQLiteRepository) AppendLoan(ctx context.Context, l core.LoanRecord) error {
	err := r.queries.CreateLoan(ctx, CreateLoanParams{
		ID:            l.ID,
		TransactionID: l.TransactionID,
		Direction:     string(l.Direction),
		Amount:        l.Amount.Value,
		Currency:      l.Amount.Currency,
		Day:           l.Date.Key(),
		Note:          l.Note,
	})
	if err != nil {
		return fmt.Errorf("create loan: %w", err)
	}
	slog.InfoContext(ctx, "Loan recorded", "id", l.ID, "transaction_id", l.TransactionID, "direction", l.Direction)
	return nil
}

// SaveBudget replaces the active budget with b, wallets and mapping included.
func (r *SQLiteRepository) SaveBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	saved := b
	saved.Active = true
	saved.Wallets = make([]core.Wallet, len(b.Wallets))

	err := r.withTx(ctx, func(q *Queries) error {
		if err := q.DeactivateBudgets(ctx); err != nil {
			return fmt.Errorf("deactivate budgets: %w", err)
		}

		var override sql.NullInt64
		if b.MonthlyIncomeOverride != nil {
			override = sql.NullInt64{Int64: *b.MonthlyIncomeOverride, Valid: true}
		}
		id, err := q.CreateBudget(ctx, CreateBudgetParams{
			Cycle:                 string(b.Cycle),
			StartDate:             b.StartDate.Key(),
			Rollover:              b.Rollover,
			MonthlyIncomeOverride: override,
			Currency:              b.Currency,
			CreatedAt:             time.Now().UTC().Format(timeLayout),
		})
		if err != nil {
			return fmt.Errorf("create budget: %w", err)
		}
		saved.ID = id

		walletIDs := make(map[string]int64, len(b.Wallets))
		for i, w := range b.Wallets {
			wid, err := q.CreateWallet(ctx, CreateWalletParams{
				BudgetID:     id,
				Name:         w.Name,
				PercentShare: int64(w.PercentShare),
				ColorTag:     w.ColorTag,
				Position:     int64(i),
			})
			if err != nil {
				return fmt.Errorf("create wallet %q: %w", w.Name, err)
			}
			w.ID = wid
			saved.Wallets[i] = w
			walletIDs[w.Name] = wid
		}

		for category, name := range b.CategoryWallets {
			wid, ok := walletIDs[name]
			if !ok {
				return fmt.Errorf("%w: %s -> %s", core.ErrUnknownWalletInMap, category, name)
			}
			if err := q.MapCategory(ctx, id, category, wid); err != nil {
				return fmt.Errorf("map category %q: %w", category, err)
			}
		}
		return nil
	})
	if err != nil {
		return core.Budget{}, err
	}

	slog.InfoContext(ctx, "Budget saved to SQLite", "id", saved.ID, "wallets", len(saved.Wallets))
	return saved, nil
}

func (r *SQLiteRepository) ActiveBudget(ctx context.Context) (core.Budget, error) {
	row, err := r.queries.GetActiveBudget(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, core.ErrNoActiveBudget
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get active budget: %w", err)
	}

	start, err := core.ParseDate(row.StartDate)
	if err != nil {
		return core.Budget{}, err
	}
	b := core.Budget{
		ID:        row.ID,
		Cycle:     core.BudgetCycle(row.Cycle),
		StartDate: start,
		Rollover:  row.Rollover,
		Currency:  row.Currency,
		Active:    true,
	}
	if row.MonthlyIncomeOverride.Valid {
		v := row.MonthlyIncomeOverride.Int64
		b.MonthlyIncomeOverride = &v
	}

	wallets, err := r.queries.ListWallets(ctx, row.ID)
	if err != nil {
		return core.Budget{}, fmt.Errorf("list wallets: %w", err)
	}
	for _, w := range wallets {
		b.Wallets = append(b.Wallets, core.Wallet{
			ID:           w.ID,
			Name:         w.Name,
			PercentShare: int(w.PercentShare),
			ColorTag:     w.ColorTag,
		})
	}

	b.CategoryWallets, err = r.queries.ListCategoryWallets(ctx, row.ID)
	if err != nil {
		return core.Budget{}, fmt.Errorf("list category wallets: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) CoinBalance(ctx context.Context) (int64, error) {
	coins, err := r.queries.GetCoins(ctx)
	if err != nil {
		return 0, fmt.Errorf("get coins: %w", err)
	}
	return coins, nil
}

func (r *SQLiteRepository) AdjustCoins(ctx context.Context, delta int64) (int64, error) {
	coins, err := r.queries.AdjustCoins(ctx, delta)
	if errors.Is(err, sql.ErrNoRows) {
		balance, balErr := r.CoinBalance(ctx)
		if balErr != nil {
			return 0, balErr
		}
		return balance, core.ErrInsufficientCoins
	}
	if err != nil {
		return 0, fmt.Errorf("adjust coins: %w", err)
	}
	return coins, nil
}

// Redeem deducts the cost and records the redemption in one transaction.
func (r *SQLiteRepository) Redeem(ctx context.Context, red core.Redemption) (int64, error) {
	var balance int64
	err := r.withTx(ctx, func(q *Queries) error {
		coins, err := q.AdjustCoins(ctx, -red.Cost)
		if errors.Is(err, sql.ErrNoRows) {
			return core.ErrInsufficientCoins
		}
		if err != nil {
			return fmt.Errorf("deduct coins: %w", err)
		}
		balance = coins
		return q.CreateRedemption(ctx, CreateRedemptionParams{
			ID:         red.ID,
			Code:       red.Code,
			Cost:       red.Cost,
			RedeemedAt: red.RedeemedAt.UTC().Format(timeLayout),
		})
	})
	if errors.Is(err, core.ErrInsufficientCoins) {
		current, balErr := r.CoinBalance(ctx)
		if balErr != nil {
			return 0, balErr
		}
		return current, err
	}
	if err != nil {
		return 0, fmt.Errorf("redeem: %w", err)
	}
	return balance, nil
}
