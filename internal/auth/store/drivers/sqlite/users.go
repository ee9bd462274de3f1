package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/Aurfi/pizzeria/internal/auth/domain"
	"github.com/Aurfi/pizzeria/internal/auth/store"
)

// queryer is satisfied by both *sql.DB and *sql.Tx so the same repo code
// serves plain and transactional access.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type usersRepo struct {
	q queryer
}

const userColumns = `id, email, password_hash, first_name, last_name, phone, role,
	is_active, sso_provider, sso_external_id, email_verified, created_at, updated_at`

func scanUser(row *sql.Row) (domain.User, error) {
	var u domain.User
	var role string
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Phone, &role,
		&u.IsActive, &u.SSOProvider, &u.SSOExternalID, &u.EmailVerified, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, store.ErrNotFound
		}
		return domain.User{}, err
	}
	u.Role = domain.Role(role)
	return u, nil
}

func (r *usersRepo) GetActiveUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ? AND is_active = 1`, id)
	return scanUser(row)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, first_name, last_name, phone, role,
			is_active, sso_provider, sso_external_id, email_verified)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Phone, string(u.Role),
		u.IsActive, u.SSOProvider, u.SSOExternalID, u.EmailVerified,
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint") {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *usersRepo) UpdateSSOLink(ctx context.Context, userID, provider, externalID string, verified bool) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE users
		 SET sso_provider = ?, sso_external_id = ?, email_verified = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		provider, externalID, verified, userID,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}
