package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rebite/rebite/internal/core/domain"
	"github.com/rebite/rebite/internal/port"
)

// The ledger is the source of truth; profiles.total_points is a materialized
// sum maintained only inside the same transaction that appends the ledger
// row. Spends run the balance check and the decrement as one conditional
// UPDATE so concurrent spends serialize on the row instead of racing a stale
// read.

func (m *MySQLAdapter) AppendEarn(ctx context.Context, ptx domain.PointsTransaction) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := earnInTx(ctx, tx, ptx); err != nil {
		return err
	}
	return tx.Commit()
}

func (m *MySQLAdapter) AppendSpend(ctx context.Context, ptx domain.PointsTransaction) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := spendInTx(ctx, tx, ptx); err != nil {
		return err
	}
	return tx.Commit()
}

// Transfer is a spend on the sender plus an earn on the recipient in one
// transaction; an insufficient sender balance rolls back both sides.
func (m *MySQLAdapter) Transfer(ctx context.Context, spend, earn domain.PointsTransaction) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := spendInTx(ctx, tx, spend); err != nil {
		return err
	}
	if err := earnInTx(ctx, tx, earn); err != nil {
		return err
	}
	return tx.Commit()
}

func (m *MySQLAdapter) Donate(ctx context.Context, spend domain.PointsTransaction, donation domain.Donation) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := spendInTx(ctx, tx, spend); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO donations (id, user_id, charity_id, amount, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		donation.ID, donation.UserID, donation.CharityID, donation.Amount, donation.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert donation: %w", err)
	}
	return tx.Commit()
}

func earnInTx(ctx context.Context, tx *sql.Tx, ptx domain.PointsTransaction) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE profiles SET total_points = total_points + ?, updated_at = NOW()
		WHERE user_id = ?`,
		ptx.Amount, ptx.UserID,
	)
	if err != nil {
		return fmt.Errorf("increment balance: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return sql.ErrNoRows
	}
	return insertTransaction(ctx, tx, ptx)
}

func spendInTx(ctx context.Context, tx *sql.Tx, ptx domain.PointsTransaction) error {
	// ptx.Amount is negative for spends; the guard compares against its
	// magnitude.
	result, err := tx.ExecContext(ctx, `
		UPDATE profiles SET total_points = total_points + ?, updated_at = NOW()
		WHERE user_id = ? AND total_points >= ?`,
		ptx.Amount, ptx.UserID, -ptx.Amount,
	)
	if err != nil {
		return fmt.Errorf("decrement balance: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return port.ErrInsufficientBalance
	}
	return insertTransaction(ctx, tx, ptx)
}

func insertTransaction(ctx context.Context, tx *sql.Tx, ptx domain.PointsTransaction) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO points_transactions (id, user_id, type, amount, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		ptx.ID, ptx.UserID, ptx.Type, ptx.Amount, ptx.Description, ptx.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	var p domain.Profile
	err := m.db.QueryRowContext(ctx, `
		SELECT user_id, total_points, streak, created_at, updated_at
		FROM profiles WHERE user_id = ?`, userID,
	).Scan(&p.UserID, &p.TotalPoints, &p.Streak, &p.CreatedAt, &p.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query profile: %w", err)
	}
	return &p, nil
}

func (m *MySQLAdapter) CreateProfile(ctx context.Context, userID string) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id) VALUES (?)
		ON DUPLICATE KEY UPDATE user_id = user_id`, userID)
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) GetCharity(ctx context.Context, id string) (*domain.Charity, error) {
	var c domain.Charity
	err := m.db.QueryRowContext(ctx, `
		SELECT id, name, created_at FROM charities WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query charity: %w", err)
	}
	return &c, nil
}

// SumTransactions recomputes the ledger sum for a user. Used by the
// reconciliation check; request paths read the materialized balance.
func (m *MySQLAdapter) SumTransactions(ctx context.Context, userID string) (int64, error) {
	var sum sql.NullInt64
	err := m.db.QueryRowContext(ctx, `
		SELECT SUM(amount) FROM points_transactions WHERE user_id = ?`, userID,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum transactions: %w", err)
	}
	return sum.Int64, nil
}
