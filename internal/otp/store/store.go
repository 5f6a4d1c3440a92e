package store

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/pec-ai/auth/internal/otp"
)

type Store struct {
	db *sql.DB
	qb sq.StatementBuilderType
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db: db,
		qb: sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}
}

func (s *Store) Get(ctx context.Context, phone string) (*otp.Code, error) {
	query, args, err := s.qb.
		Select("phone", "code", "purpose", "expires_at", "attempt_count", "created_at").
		From("sms_codes").
		Where(sq.Eq{"phone": phone}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var record otp.Code
	var purpose string
	if err := s.db.QueryRowContext(ctx, query, args...).
		Scan(&record.Phone, &record.Code, &purpose, &record.ExpiresAt, &record.AttemptCount, &record.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, otp.ErrNotFound
		}
		return nil, err
	}
	record.Purpose = otp.Purpose(purpose)
	return &record, nil
}

// Upsert replaces the entire record for the phone number, which is also how
// the attempt counter gets reset on reissue.
func (s *Store) Upsert(ctx context.Context, record *otp.Code) error {
	query, args, err := s.qb.
		Insert("sms_codes").
		Options("OR REPLACE").
		Columns("phone", "code", "purpose", "expires_at", "attempt_count", "created_at").
		Values(record.Phone, record.Code, string(record.Purpose), record.ExpiresAt, record.AttemptCount, record.CreatedAt).
		ToSql()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, query, args...)
	return err
}

func (s *Store) IncrementAttempts(ctx context.Context, phone string) error {
	query, args, err := s.qb.
		Update("sms_codes").
		Set("attempt_count", sq.Expr("attempt_count + 1")).
		Where(sq.Eq{"phone": phone}).
		ToSql()
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return otp.ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, phone string) error {
	query, args, err := s.qb.Delete("sms_codes").Where(sq.Eq{"phone": phone}).ToSql()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, query, args...)
	return err
}
