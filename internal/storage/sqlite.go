// Package storage is the SQLite implementation of ledger.Store, on the
// pure-Go driver. Cascading deletes run inside a single SQL transaction so
// the clear-references-then-delete contract holds even with a second process
// (the export worker) on the same file.
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

	"finapp/internal/core"
	"finapp/internal/ledger"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	db *sql.DB
}

var _ ledger.Store = (*SQLiteStore)(nil)

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) LoadAll(ctx context.Context) (ledger.Data, error) {
	var data ledger.Data

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, initial_balance_cents FROM accounts`)
	if err != nil {
		return data, fmt.Errorf("load accounts: %w", err)
	}
	for rows.Next() {
		var a core.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.InitialBalance.Cents); err != nil {
			rows.Close()
			return data, fmt.Errorf("scan account: %w", err)
		}
		data.Accounts = append(data.Accounts, a)
	}
	if err := closeRows(rows); err != nil {
		return data, fmt.Errorf("load accounts: %w", err)
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT id, name, credit_limit_cents, due_day FROM cards`)
	if err != nil {
		return data, fmt.Errorf("load cards: %w", err)
	}
	for rows.Next() {
		var c core.Card
		if err := rows.Scan(&c.ID, &c.Name, &c.CreditLimit.Cents, &c.DueDay); err != nil {
			rows.Close()
			return data, fmt.Errorf("scan card: %w", err)
		}
		data.Cards = append(data.Cards, c)
	}
	if err := closeRows(rows); err != nil {
		return data, fmt.Errorf("load cards: %w", err)
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT id, name, kind, default_account_id, default_card_id FROM categories`)
	if err != nil {
		return data, fmt.Errorf("load categories: %w", err)
	}
	for rows.Next() {
		var c core.Category
		var defAccount, defCard sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &c.Kind, &defAccount, &defCard); err != nil {
			rows.Close()
			return data, fmt.Errorf("scan category: %w", err)
		}
		c.DefaultAccountID = defAccount.String
		c.DefaultCardID = defCard.String
		data.Categories = append(data.Categories, c)
	}
	if err := closeRows(rows); err != nil {
		return data, fmt.Errorf("load categories: %w", err)
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT id, date, kind, amount_cents, description, category_id, account_id, card_id
		 FROM transactions`)
	if err != nil {
		return data, fmt.Errorf("load transactions: %w", err)
	}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			rows.Close()
			return data, err
		}
		data.Transactions = append(data.Transactions, t)
	}
	if err := closeRows(rows); err != nil {
		return data, fmt.Errorf("load transactions: %w", err)
	}

	slog.InfoContext(ctx, "Loaded ledger from SQLite",
		"accounts", len(data.Accounts),
		"cards", len(data.Cards),
		"categories", len(data.Categories),
		"transactions", len(data.Transactions))
	return data, nil
}

// --- accounts ---

func (s *SQLiteStore) InsertAccount(ctx context.Context, a core.Account) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (id, name, initial_balance_cents) VALUES (?, ?, ?)`,
		a.ID, a.Name, a.InitialBalance.Cents)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpdateAccount(ctx context.Context, a core.Account) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET name = ?, initial_balance_cents = ? WHERE id = ?`,
		a.Name, a.InitialBalance.Cents, a.ID)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	return requireRow(res, a.ID)
}

func (s *SQLiteStore) DeleteAccount(ctx context.Context, id string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE transactions SET account_id = NULL WHERE account_id = ?`, id); err != nil {
			return fmt.Errorf("clear account refs: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE categories SET default_account_id = NULL WHERE default_account_id = ?`, id); err != nil {
			return fmt.Errorf("clear category defaults: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete account: %w", err)
		}
		return requireRow(res, id)
	})
}

// --- cards ---

func (s *SQLiteStore) InsertCard(ctx context.Context, c core.Card) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cards (id, name, credit_limit_cents, due_day) VALUES (?, ?, ?, ?)`,
		c.ID, c.Name, c.CreditLimit.Cents, c.DueDay)
	if err != nil {
		return fmt.Errorf("insert card: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpdateCard(ctx context.Context, c core.Card) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE cards SET name = ?, credit_limit_cents = ?, due_day = ? WHERE id = ?`,
		c.Name, c.CreditLimit.Cents, c.DueDay, c.ID)
	if err != nil {
		return fmt.Errorf("update card: %w", err)
	}
	return requireRow(res, c.ID)
}

func (s *SQLiteStore) DeleteCard(ctx context.Context, id string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE transactions SET card_id = NULL WHERE card_id = ?`, id); err != nil {
			return fmt.Errorf("clear card refs: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE categories SET default_card_id = NULL WHERE default_card_id = ?`, id); err != nil {
			return fmt.Errorf("clear category defaults: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete card: %w", err)
		}
		return requireRow(res, id)
	})
}

// --- categories ---

func (s *SQLiteStore) InsertCategory(ctx context.Context, c core.Category) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (id, name, kind, default_account_id, default_card_id)
		 VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Name, string(c.Kind), nullable(c.DefaultAccountID), nullable(c.DefaultCardID))
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpdateCategory(ctx context.Context, c core.Category) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, kind = ?, default_account_id = ?, default_card_id = ?
		 WHERE id = ?`,
		c.Name, string(c.Kind), nullable(c.DefaultAccountID), nullable(c.DefaultCardID), c.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return requireRow(res, c.ID)
}

func (s *SQLiteStore) DeleteCategory(ctx context.Context, id string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE transactions SET category_id = NULL WHERE category_id = ?`, id); err != nil {
			return fmt.Errorf("clear category refs: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		return requireRow(res, id)
	})
}

// --- transactions ---

func (s *SQLiteStore) InsertTransaction(ctx context.Context, t core.Transaction) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (id, date, kind, amount_cents, description, category_id, account_id, card_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Date.String(), string(t.Kind), t.Amount.Cents, t.Description,
		nullable(t.CategoryID), nullable(t.AccountID), nullable(t.CardID))
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE transactions
		 SET date = ?, kind = ?, amount_cents = ?, description = ?,
		     category_id = ?, account_id = ?, card_id = ?, exported_at = NULL
		 WHERE id = ?`,
		t.Date.String(), string(t.Kind), t.Amount.Cents, t.Description,
		nullable(t.CategoryID), nullable(t.AccountID), nullable(t.CardID), t.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return requireRow(res, t.ID)
}

func (s *SQLiteStore) DeleteTransaction(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return requireRow(res, id)
}

// GetTransaction fetches one row by id, for the export worker.
func (s *SQLiteStore) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, date, kind, amount_cents, description, category_id, account_id, card_id
		 FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	return t, err
}

// EntityName resolves the display name of an account, card or category by
// id. Missing rows resolve to "" since the reference may have been cleared after
// the event was published.
func (s *SQLiteStore) EntityName(ctx context.Context, table, id string) (string, error) {
	if id == "" {
		return "", nil
	}
	var query string
	switch table {
	case "accounts":
		query = `SELECT name FROM accounts WHERE id = ?`
	case "cards":
		query = `SELECT name FROM cards WHERE id = ?`
	case "categories":
		query = `SELECT name FROM categories WHERE id = ?`
	default:
		return "", fmt.Errorf("unknown entity table %q", table)
	}
	var name string
	err := s.db.QueryRowContext(ctx, query, id).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("lookup %s name: %w", table, err)
	}
	return name, nil
}

// PendingExport lists transactions not yet appended to the spreadsheet,
// oldest first.
func (s *SQLiteStore) PendingExport(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, date, kind, amount_cents, description, category_id, account_id, card_id
		 FROM transactions WHERE exported_at IS NULL ORDER BY date, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("pending export: %w", err)
	}
	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, t)
	}
	if err := closeRows(rows); err != nil {
		return nil, fmt.Errorf("pending export: %w", err)
	}
	return out, nil
}

// MarkExported records a successful spreadsheet append.
func (s *SQLiteStore) MarkExported(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE transactions SET exported_at = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	return requireRow(res, id)
}

// --- helpers ---

func (s *SQLiteStore) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var t core.Transaction
	var date string
	var category, account, card sql.NullString
	if err := row.Scan(&t.ID, &date, &t.Kind, &t.Amount.Cents, &t.Description,
		&category, &account, &card); err != nil {
		return t, err
	}
	parsed, err := core.ParseDate(date)
	if err != nil {
		return t, fmt.Errorf("transaction %s: %w", t.ID, err)
	}
	t.Date = parsed
	t.CategoryID = category.String
	t.AccountID = account.String
	t.CardID = card.String
	return t, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("id %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	return rows.Close()
}
