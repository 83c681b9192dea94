package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"finanzas/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a row does not exist or belongs to a
// different owner.
var ErrNotFound = errors.New("not found")

const settingExchangeRate = "exchange_rate"

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)")
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

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateTransaction stores a transaction together with its payment
// parts in a single database transaction.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transactions
			(id, owner_id, description, type, currency, amount_cents,
			 unit_price_cents, quantity, tx_date, category, notes,
			 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.OwnerID, t.Description, string(t.Type), string(t.Currency),
		t.Amount.Cents, t.UnitPrice.Cents, t.Quantity, t.Date.String(),
		t.Category, t.Notes, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	if err := insertPaymentParts(ctx, tx, t.ID, t.Payments); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"owner_id", t.OwnerID,
		"amount_cents", t.Amount.Cents,
		"currency", t.Currency)

	return nil
}

// GetTransaction retrieves one transaction scoped to its owner.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, ownerID, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, description, type, currency, amount_cents,
		       unit_price_cents, quantity, tx_date, category, notes,
		       created_at, updated_at
		FROM transactions
		WHERE owner_id = ? AND id = ?`, ownerID, id)

	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Transaction{}, ErrNotFound
		}
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}

	parts, err := r.loadPaymentParts(ctx, []string{t.ID})
	if err != nil {
		return core.Transaction{}, err
	}
	t.Payments = parts[t.ID]

	return t, nil
}

// ListTransactions returns all of an owner's transactions, newest first.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, ownerID string) ([]core.Transaction, error) {
	return r.listTransactions(ctx, ownerID, 0)
}

// ListRecentTransactions returns the owner's most recent transactions,
// up to limit.
func (r *SQLiteRepository) ListRecentTransactions(ctx context.Context, ownerID string, limit int) ([]core.Transaction, error) {
	return r.listTransactions(ctx, ownerID, limit)
}

func (r *SQLiteRepository) listTransactions(ctx context.Context, ownerID string, limit int) ([]core.Transaction, error) {
	query := `
		SELECT id, owner_id, description, type, currency, amount_cents,
		       unit_price_cents, quantity, tx_date, category, notes,
		       created_at, updated_at
		FROM transactions
		WHERE owner_id = ?
		ORDER BY tx_date DESC, created_at DESC`
	args := []any{ownerID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	var ids []string
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, t)
		ids = append(ids, t.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	parts, err := r.loadPaymentParts(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range txs {
		txs[i].Payments = parts[txs[i].ID]
	}

	return txs, nil
}

// UpdateTransaction replaces a transaction and its payment parts. The
// owner must match the stored row.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE transactions
		SET description = ?, type = ?, currency = ?, amount_cents = ?,
		    unit_price_cents = ?, quantity = ?, tx_date = ?, category = ?,
		    notes = ?, updated_at = ?
		WHERE owner_id = ? AND id = ?`,
		t.Description, string(t.Type), string(t.Currency), t.Amount.Cents,
		t.UnitPrice.Cents, t.Quantity, t.Date.String(), t.Category,
		t.Notes, t.UpdatedAt, t.OwnerID, t.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("rows affected: %w", err)
	} else if n == 0 {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM payment_parts WHERE transaction_id = ?`, t.ID); err != nil {
		return fmt.Errorf("delete payment parts: %w", err)
	}
	if err := insertPaymentParts(ctx, tx, t.ID, t.Payments); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// DeleteTransaction removes an owner's transaction. Payment parts go
// with it via the cascade.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE owner_id = ? AND id = ?`, ownerID, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("rows affected: %w", err)
	} else if n == 0 {
		return ErrNotFound
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id, "owner_id", ownerID)
	return nil
}

func insertPaymentParts(ctx context.Context, tx *sql.Tx, transactionID string, parts []core.PaymentDetail) error {
	for i, p := range parts {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO payment_parts (transaction_id, method, amount_cents, position)
			VALUES (?, ?, ?, ?)`,
			transactionID, string(p.Method), p.Amount.Cents, i)
		if err != nil {
			return fmt.Errorf("insert payment part: %w", err)
		}
	}
	return nil
}

func (r *SQLiteRepository) loadPaymentParts(ctx context.Context, transactionIDs []string) (map[string][]core.PaymentDetail, error) {
	result := make(map[string][]core.PaymentDetail, len(transactionIDs))
	if len(transactionIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT transaction_id, method, amount_cents
		FROM payment_parts
		WHERE transaction_id IN (?` + repeatPlaceholder(len(transactionIDs)-1) + `)
		ORDER BY transaction_id, position`
	args := make([]any, len(transactionIDs))
	for i, id := range transactionIDs {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("load payment parts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var txID, rawMethod string
		var cents int64
		if err := rows.Scan(&txID, &rawMethod, &cents); err != nil {
			return nil, fmt.Errorf("scan payment part: %w", err)
		}
		// Older rows may carry pre-catalog method labels.
		method, migrated := core.MigrateLegacyMethod(rawMethod)
		if migrated {
			slog.DebugContext(ctx, "Normalized legacy payment method",
				"transaction_id", txID,
				"raw", rawMethod,
				"method", method)
		}
		result[txID] = append(result[txID], core.PaymentDetail{
			Method: method,
			Amount: core.Money{Cents: cents},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payment parts: %w", err)
	}

	return result, nil
}

func repeatPlaceholder(n int) string {
	s := ""
	for i := 0; i < n; i++ {
		s += ", ?"
	}
	return s
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var t core.Transaction
	var txType, currency, txDate string
	var amountCents, unitPriceCents int64

	err := row.Scan(&t.ID, &t.OwnerID, &t.Description, &txType, &currency,
		&amountCents, &unitPriceCents, &t.Quantity, &txDate, &t.Category,
		&t.Notes, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return core.Transaction{}, err
	}

	t.Type = core.TransactionType(txType)
	t.Currency = core.Currency(currency)
	t.Amount = core.Money{Cents: amountCents}
	t.UnitPrice = core.Money{Cents: unitPriceCents}

	date, err := core.ParseDate(txDate)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse stored date %q: %w", txDate, err)
	}
	t.Date = date

	return t, nil
}

// GetExchangeRate returns the owner's saved Bs. per USD rate. The
// second return value is false when no rate has been saved yet.
func (r *SQLiteRepository) GetExchangeRate(ctx context.Context, ownerID string) (float64, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE owner_id = ? AND key = ?`,
		ownerID, settingExchangeRate).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get exchange rate: %w", err)
	}

	rate, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse stored exchange rate %q: %w", value, err)
	}
	return rate, true, nil
}

// SaveExchangeRate upserts the owner's Bs. per USD rate.
func (r *SQLiteRepository) SaveExchangeRate(ctx context.Context, ownerID string, rate float64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (owner_id, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (owner_id, key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		ownerID, settingExchangeRate,
		strconv.FormatFloat(rate, 'f', -1, 64), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save exchange rate: %w", err)
	}
	return nil
}

// CreateAnalysis stores a new analysis request, normally in pending state.
func (r *SQLiteRepository) CreateAnalysis(ctx context.Context, a core.Analysis) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO analyses
			(id, owner_id, analysis_type, custom_prompt, status, result,
			 error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.OwnerID, string(a.Type), a.CustomPrompt, string(a.Status),
		a.Result, a.Error, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

// GetAnalysis retrieves one analysis scoped to its owner.
func (r *SQLiteRepository) GetAnalysis(ctx context.Context, ownerID, id string) (core.Analysis, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, analysis_type, custom_prompt, status, result,
		       error, created_at, updated_at
		FROM analyses
		WHERE owner_id = ? AND id = ?`, ownerID, id)

	a, err := scanAnalysis(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Analysis{}, ErrNotFound
	}
	if err != nil {
		return core.Analysis{}, fmt.Errorf("get analysis: %w", err)
	}
	return a, nil
}

// ListAnalyses returns the owner's analyses, newest first, up to limit.
func (r *SQLiteRepository) ListAnalyses(ctx context.Context, ownerID string, limit int) ([]core.Analysis, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, analysis_type, custom_prompt, status, result,
		       error, created_at, updated_at
		FROM analyses
		WHERE owner_id = ?
		ORDER BY created_at DESC
		LIMIT ?`, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	var analyses []core.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		analyses = append(analyses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analyses: %w", err)
	}

	return analyses, nil
}

// ListPendingAnalyses returns pending analyses across all owners,
// oldest first. The worker uses it to recover jobs whose queue message
// was lost.
func (r *SQLiteRepository) ListPendingAnalyses(ctx context.Context, limit int) ([]core.Analysis, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, analysis_type, custom_prompt, status, result,
		       error, created_at, updated_at
		FROM analyses
		WHERE status = ?
		ORDER BY created_at ASC
		LIMIT ?`, string(core.AnalysisPending), limit)
	if err != nil {
		return nil, fmt.Errorf("list pending analyses: %w", err)
	}
	defer rows.Close()

	var analyses []core.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		analyses = append(analyses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analyses: %w", err)
	}

	return analyses, nil
}

// MarkAnalysisRunning transitions a pending analysis to running.
func (r *SQLiteRepository) MarkAnalysisRunning(ctx context.Context, ownerID, id string) error {
	return r.setAnalysisStatus(ctx, ownerID, id, core.AnalysisRunning, "", "")
}

// CompleteAnalysis stores the model output and marks the analysis done.
func (r *SQLiteRepository) CompleteAnalysis(ctx context.Context, ownerID, id, result string) error {
	return r.setAnalysisStatus(ctx, ownerID, id, core.AnalysisCompleted, result, "")
}

// FailAnalysis records the failure reason.
func (r *SQLiteRepository) FailAnalysis(ctx context.Context, ownerID, id, reason string) error {
	return r.setAnalysisStatus(ctx, ownerID, id, core.AnalysisFailed, "", reason)
}

func (r *SQLiteRepository) setAnalysisStatus(ctx context.Context, ownerID, id string, status core.AnalysisStatus, result, errMsg string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE analyses
		SET status = ?, result = ?, error = ?, updated_at = ?
		WHERE owner_id = ? AND id = ?`,
		string(status), result, errMsg, time.Now().UTC(), ownerID, id)
	if err != nil {
		return fmt.Errorf("update analysis status: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("rows affected: %w", err)
	} else if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAnalysis(row rowScanner) (core.Analysis, error) {
	var a core.Analysis
	var analysisType, status string
	err := row.Scan(&a.ID, &a.OwnerID, &analysisType, &a.CustomPrompt,
		&status, &a.Result, &a.Error, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return core.Analysis{}, err
	}
	a.Type = core.AnalysisType(analysisType)
	a.Status = core.AnalysisStatus(status)
	return a, nil
}
