package store

import (
	"context"
	"database/sql"

	stderrors "lifesure/internal/common/errors"
	"lifesure/internal/common/logger"
	"lifesure/internal/models"
)

const transactionColumns = `id, application_id, customer_email, policy_title, charge_id, amount, currency, status, created_at`

// TransactionRepo records verified charges. charge_id carries a unique
// constraint; Finalize is the idempotency point for payment.
type TransactionRepo struct {
	db     *sql.DB
	logger logger.Logger
}

func NewTransactionRepo(db *sql.DB, log logger.Logger) *TransactionRepo {
	return &TransactionRepo{db: db, logger: log}
}

// Finalize inserts the transaction and flips the application to Paid in one
// database transaction. A charge_id conflict means another finalization won;
// it reports inserted=false with no error and leaves the database unchanged.
func (r *TransactionRepo) Finalize(ctx context.Context, txn *models.Transaction) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, stderrors.NewDatabaseError("begin payment finalization", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (id, application_id, customer_email, policy_title, charge_id, amount, currency, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (charge_id) DO NOTHING`,
		txn.ID, txn.ApplicationID, txn.CustomerEmail, txn.PolicyTitle,
		txn.ChargeID, txn.Amount, txn.Currency, txn.Status, txn.CreatedAt,
	)
	if err != nil {
		return false, stderrors.NewDatabaseError("insert transaction", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE applications
		SET payment_status = $2, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND payment_status = $3`,
		txn.ApplicationID, models.PaymentPaid, models.PaymentDue,
	); err != nil {
		return false, stderrors.NewDatabaseError("mark application paid", err)
	}

	if err := tx.Commit(); err != nil {
		return false, stderrors.NewDatabaseError("commit payment finalization", err)
	}
	return true, nil
}

func (r *TransactionRepo) GetByChargeID(ctx context.Context, chargeID string) (*models.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+` FROM transactions WHERE charge_id = $1`, chargeID)
	return scanTransaction(row, chargeID)
}

func (r *TransactionRepo) ListByCustomer(ctx context.Context, email string) ([]models.Transaction, error) {
	return r.list(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE customer_email = $1
		ORDER BY created_at DESC`, email)
}

func (r *TransactionRepo) ListAll(ctx context.Context) ([]models.Transaction, error) {
	return r.list(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		ORDER BY created_at DESC`)
}

// TotalRevenue sums succeeded transaction amounts, in the gateway's smallest
// currency unit.
func (r *TransactionRepo) TotalRevenue(ctx context.Context) (int64, error) {
	var total sql.NullInt64
	err := r.db.QueryRowContext(ctx, `
		SELECT SUM(amount) FROM transactions WHERE status = 'succeeded'`).Scan(&total)
	if err != nil {
		return 0, stderrors.NewDatabaseError("sum revenue", err)
	}
	return total.Int64, nil
}

// ListUnreconciled returns transactions whose application still reads Due.
// These are charges whose finalization crashed between insert and patch under
// the old two-step flow, or rows healed in from gateway events.
func (r *TransactionRepo) ListUnreconciled(ctx context.Context) ([]models.Transaction, error) {
	return r.list(ctx, `
		SELECT t.id, t.application_id, t.customer_email, t.policy_title, t.charge_id, t.amount, t.currency, t.status, t.created_at
		FROM transactions t
		JOIN applications a ON a.id = t.application_id
		WHERE t.status = 'succeeded' AND a.payment_status = $1`, models.PaymentDue)
}

// MarkApplicationPaid re-drives the payment_status patch for one application.
func (r *TransactionRepo) MarkApplicationPaid(ctx context.Context, applicationID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE applications
		SET payment_status = $2, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND payment_status = $3`,
		applicationID, models.PaymentPaid, models.PaymentDue)
	if err != nil {
		return stderrors.NewDatabaseError("reconcile application payment", err)
	}
	return nil
}

func (r *TransactionRepo) list(ctx context.Context, query string, args ...interface{}) ([]models.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, stderrors.NewDatabaseError("list transactions", err)
	}
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.ApplicationID, &t.CustomerEmail, &t.PolicyTitle,
			&t.ChargeID, &t.Amount, &t.Currency, &t.Status, &t.CreatedAt); err != nil {
			return nil, stderrors.NewDatabaseError("scan transaction", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, stderrors.NewDatabaseError("list transactions", err)
	}
	return out, nil
}

func scanTransaction(row *sql.Row, key string) (*models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(&t.ID, &t.ApplicationID, &t.CustomerEmail, &t.PolicyTitle,
		&t.ChargeID, &t.Amount, &t.Currency, &t.Status, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, stderrors.NewResourceNotFoundError("transaction", key)
	}
	if err != nil {
		return nil, stderrors.NewDatabaseError("scan transaction", err)
	}
	return &t, nil
}
