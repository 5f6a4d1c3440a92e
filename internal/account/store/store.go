package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pec-ai/auth/internal/account"
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

func (s *Store) GetUserByID(ctx context.Context, id string) (*account.User, error) {
	query, args, err := s.qb.
		Select("id", "phone", "password_hash", "is_active", "created_at", "updated_at").
		From("users").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}
	return s.scanUser(s.db.QueryRowContext(ctx, query, args...))
}

func (s *Store) GetUserByPhone(ctx context.Context, phone string) (*account.User, error) {
	query, args, err := s.qb.
		Select("id", "phone", "password_hash", "is_active", "created_at", "updated_at").
		From("users").
		Where(sq.Eq{"phone": phone}).
		ToSql()
	if err != nil {
		return nil, err
	}
	return s.scanUser(s.db.QueryRowContext(ctx, query, args...))
}

func (s *Store) CreateUser(ctx context.Context, user *account.User) (*account.User, error) {
	now := time.Now()
	query, args, err := s.qb.
		Insert("users").
		Columns("id", "phone", "password_hash", "is_active", "created_at", "updated_at").
		Values(user.ID, user.Phone, user.PasswordHash, user.IsActive, now, now).
		ToSql()
	if err != nil {
		return nil, err
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, account.ErrPhoneExists
		}
		return nil, err
	}
	return s.GetUserByID(ctx, user.ID)
}

func (s *Store) scanUser(row *sql.Row) (*account.User, error) {
	var user account.User
	if err := row.Scan(&user.ID, &user.Phone, &user.PasswordHash, &user.IsActive, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, account.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
