package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const createTransaction = `
INSERT INTO transactions (day, description, amount, currency, category, type, source, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id
`

type CreateTransactionParams struct {
	Day         string
	Description string
	Amount      int64
	Currency    string
	Category    string
	Type        string
	Source      string
	CreatedAt   string
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createTransaction,
		arg.Day,
		arg.Description,
		arg.Amount,
		arg.Currency,
		arg.Category,
		arg.Type,
		arg.Source,
		arg.CreatedAt,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const listTransactions = `
SELECT id, day, description, amount, currency, category, type, source, created_at
FROM transactions
WHERE day BETWEEN ? AND ?
ORDER BY day, id
`

type TransactionRow struct {
	ID          int64
	Day         string
	Description string
	Amount      int64
	Currency    string
	Category    string
	Type        string
	Source      string
	CreatedAt   string
}

func (q *Queries) ListTransactions(ctx context.Context, from, to string) ([]TransactionRow, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TransactionRow
	for rows.Next() {
		var i TransactionRow
		if err := rows.Scan(
			&i.ID,
			&i.Day,
			&i.Description,
			&i.Amount,
			&i.Currency,
			&i.Category,
			&i.Type,
			&i.Source,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const categoryTotals = `
SELECT category, SUM(amount)
FROM transactions
WHERE type = 'expense' AND currency = ? AND day BETWEEN ? AND ?
GROUP BY category
`

type Total struct {
	Key   string
	Total int64
}

func (q *Queries) CategoryTotals(ctx context.Context, currency, from, to string) ([]Total, error) {
	return q.totals(ctx, categoryTotals, currency, from, to)
}

const typeTotals = `
SELECT type, SUM(amount)
FROM transactions
WHERE currency = ? AND day BETWEEN ? AND ?
GROUP BY type
`

func (q *Queries) TypeTotals(ctx context.Context, currency, from, to string) ([]Total, error) {
	return q.totals(ctx, typeTotals, currency, from, to)
}

func (q *Queries) totals(ctx context.Context, query string, args ...interface{}) ([]Total, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Total
	for rows.Next() {
		var i Total
		if err := rows.Scan(&i.Key, &i.Total); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const createLoan = `
INSERT INTO loans (id, transaction_id, direction, amount, currency, day, note)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

type CreateLoanParams struct {
	ID            string
	TransactionID int64
	Direction     string
	Amount        int64
	Currency      string
	Day           string
	Note          string
}

func (q *Queries) CreateLoan(ctx context.Context, arg CreateLoanParams) error {
	_, err := q.db.ExecContext(ctx, createLoan,
		arg.ID,
		arg.TransactionID,
		arg.Direction,
		arg.Amount,
		arg.Currency,
		arg.Day,
		arg.Note,
	)
	return err
}

const incrementActivity = `
INSERT INTO activity_log (day, count) VALUES (?, 1)
ON CONFLICT (day) DO UPDATE SET count = count + 1
RETURNING count
`

func (q *Queries) IncrementActivity(ctx context.Context, day string) (int64, error) {
	row := q.db.QueryRowContext(ctx, incrementActivity, day)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const listActivity = `
SELECT day, count FROM activity_log
WHERE day BETWEEN ? AND ?
ORDER BY day
`

type ActivityRow struct {
	Day   string
	Count int64
}

func (q *Queries) ListActivity(ctx context.Context, from, to string) ([]ActivityRow, error) {
	rows, err := q.db.QueryContext(ctx, listActivity, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ActivityRow
	for rows.Next() {
		var i ActivityRow
		if err := rows.Scan(&i.Day, &i.Count); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const deactivateBudgets = `UPDATE budgets SET active = 0 WHERE active = 1`

func (q *Queries) DeactivateBudgets(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deactivateBudgets)
	return err
}

const createBudget = `
INSERT INTO budgets (cycle, start_date, rollover, monthly_income_override, currency, active, created_at)
VALUES (?, ?, ?, ?, ?, 1, ?)
RETURNING id
`

type CreateBudgetParams struct {
	Cycle                 string
	StartDate             string
	Rollover              bool
	MonthlyIncomeOverride sql.NullInt64
	Currency              string
	CreatedAt             string
}

func (q *Queries) CreateBudget(ctx context.Context, arg CreateBudgetParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createBudget,
		arg.Cycle,
		arg.StartDate,
		arg.Rollover,
		arg.MonthlyIncomeOverride,
		arg.Currency,
		arg.CreatedAt,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const createWallet = `
INSERT INTO wallets (budget_id, name, percent_share, color_tag, position)
VALUES (?, ?, ?, ?, ?)
RETURNING id
`

type CreateWalletParams struct {
	BudgetID     int64
	Name         string
	PercentShare int64
	ColorTag     string
	Position     int64
}

func (q *Queries) CreateWallet(ctx context.Context, arg CreateWalletParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createWallet,
		arg.BudgetID,
		arg.Name,
		arg.PercentShare,
		arg.ColorTag,
		arg.Position,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const mapCategory = `
INSERT INTO category_wallets (budget_id, category, wallet_id) VALUES (?, ?, ?)
`

func (q *Queries) MapCategory(ctx context.Context, budgetID int64, category string, walletID int64) error {
	_, err := q.db.ExecContext(ctx, mapCategory, budgetID, category, walletID)
	return err
}

const getActiveBudget = `
SELECT id, cycle, start_date, rollover, monthly_income_override, currency
FROM budgets
WHERE active = 1
ORDER BY id DESC
LIMIT 1
`

type BudgetRow struct {
	ID                    int64
	Cycle                 string
	StartDate             string
	Rollover              bool
	MonthlyIncomeOverride sql.NullInt64
	Currency              string
}

func (q *Queries) GetActiveBudget(ctx context.Context) (BudgetRow, error) {
	row := q.db.QueryRowContext(ctx, getActiveBudget)
	var i BudgetRow
	err := row.Scan(
		&i.ID,
		&i.Cycle,
		&i.StartDate,
		&i.Rollover,
		&i.MonthlyIncomeOverride,
		&i.Currency,
	)
	return i, err
}

const listWallets = `
SELECT id, name, percent_share, color_tag
FROM wallets
WHERE budget_id = ?
ORDER BY position
`

type WalletRow struct {
	ID           int64
	Name         string
	PercentShare int64
	ColorTag     string
}

func (q *Queries) ListWallets(ctx context.Context, budgetID int64) ([]WalletRow, error) {
	rows, err := q.db.QueryContext(ctx, listWallets, budgetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []WalletRow
	for rows.Next() {
		var i WalletRow
		if err := rows.Scan(&i.ID, &i.Name, &i.PercentShare, &i.ColorTag); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listCategoryWallets = `
SELECT cw.category, w.name
FROM category_wallets cw
JOIN wallets w ON w.id = cw.wallet_id
WHERE cw.budget_id = ?
`

func (q *Queries) ListCategoryWallets(ctx context.Context, budgetID int64) (map[string]string, error) {
	rows, err := q.db.QueryContext(ctx, listCategoryWallets, budgetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	mapping := make(map[string]string)
	for rows.Next() {
		var category, wallet string
		if err := rows.Scan(&category, &wallet); err != nil {
			return nil, err
		}
		mapping[category] = wallet
	}
	return mapping, rows.Err()
}

const getCoins = `SELECT coins FROM coin_wallet WHERE id = 1`

func (q *Queries) GetCoins(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, getCoins)
	var coins int64
	err := row.Scan(&coins)
	return coins, err
}

// adjustCoins affects no row when the result would go negative.
const adjustCoins = `
UPDATE coin_wallet SET coins = coins + ?1
WHERE id = 1 AND coins + ?1 >= 0
RETURNING coins
`

func (q *Queries) AdjustCoins(ctx context.Context, delta int64) (int64, error) {
	row := q.db.QueryRowContext(ctx, adjustCoins, delta)
	var coins int64
	err := row.Scan(&coins)
	return coins, err
}

const createRedemption = `
INSERT INTO redemptions (id, code, cost, redeemed_at) VALUES (?, ?, ?, ?)
`

type CreateRedemptionParams struct {
	ID         string
	Code       string
	Cost       int64
	RedeemedAt string
}

func (q *Queries) CreateRedemption(ctx context.Context, arg CreateRedemptionParams) error {
	_, err := q.db.ExecContext(ctx, createRedemption, arg.ID, arg.Code, arg.Cost, arg.RedeemedAt)
	return err
}
