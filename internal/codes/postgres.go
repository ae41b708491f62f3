package codes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PGStore persists codes in Postgres. Redeem is a single conditional
// UPDATE, so double redemption cannot happen even with concurrent
// callers or multiple processes.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore { return &PGStore{db: db} }

// EnsureSchema creates the redemption_codes table if it is absent.
func (s *PGStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS redemption_codes (
        code TEXT PRIMARY KEY,
        email TEXT NOT NULL,
        amount DOUBLE PRECISION NOT NULL,
        payment_id TEXT NOT NULL DEFAULT '',
        created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
        used BOOLEAN NOT NULL DEFAULT FALSE,
        used_at TIMESTAMPTZ
    )`)
	if err != nil {
		return fmt.Errorf("create redemption_codes: %w", err)
	}
	return nil
}

func (s *PGStore) Load(ctx context.Context) (map[string]Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT code, email, amount, payment_id, created_at, used, used_at FROM redemption_codes`)
	if err != nil {
		return nil, fmt.Errorf("query redemption_codes: %w", err)
	}
	defer rows.Close()

	data := map[string]Record{}
	for rows.Next() {
		var code string
		var rec Record
		var usedAt sql.NullTime
		if err := rows.Scan(&code, &rec.Email, &rec.Amount, &rec.PaymentID, &rec.CreatedAt, &rec.Used, &usedAt); err != nil {
			return nil, fmt.Errorf("scan redemption_codes: %w", err)
		}
		if usedAt.Valid {
			t := usedAt.Time
			rec.UsedAt = &t
		}
		data[code] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate redemption_codes: %w", err)
	}
	return data, nil
}

func (s *PGStore) Put(ctx context.Context, code string, rec Record) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO redemption_codes (code, email, amount, payment_id, created_at, used)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		code, rec.Email, rec.Amount, rec.PaymentID, rec.CreatedAt, rec.Used,
	)
	if err != nil {
		return fmt.Errorf("insert redemption code: %w", err)
	}
	return nil
}

func (s *PGStore) Contains(ctx context.Context, code string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM redemption_codes WHERE code=$1`, code).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("probe redemption code: %w", err)
	}
	return true, nil
}

func (s *PGStore) Redeem(ctx context.Context, code string, now time.Time) (RedeemOutcome, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE redemption_codes SET used=TRUE, used_at=$2 WHERE code=$1 AND used=FALSE`,
		code, now.UTC(),
	)
	if err != nil {
		return RedeemNotFound, fmt.Errorf("redeem code: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return RedeemNotFound, fmt.Errorf("redeem code rows affected: %w", err)
	}
	if affected == 1 {
		return RedeemOK, nil
	}

	// The conditional update matched nothing: either the code does
	// not exist or it was already used.
	exists, err := s.Contains(ctx, code)
	if err != nil {
		return RedeemNotFound, err
	}
	if !exists {
		return RedeemNotFound, nil
	}
	return RedeemAlreadyUsed, nil
}
